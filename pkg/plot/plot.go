// Package plot renders the per-combination visualizations embedded in the
// report and caches them by key.
//
// Volumes are shown as thresholded maximum-intensity projections in the
// three anatomical planes (a glass-brain style view); surface data as
// per-hemisphere value profiles. Everything is drawn with the standard
// image packages and encoded as PNG.
package plot

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/MRI-Lab-Graz/cat-12/internal/models"
)

const (
	titleBarHeight = 18
	panelGap       = 8
	profileHeight  = 160
)

// Key builds the cache key of a (contrast, correction, threshold)
// combination. The formatting must match the report's client-side lookup.
func Key(contrast int, correction string, logPThreshold float64) string {
	return fmt.Sprintf("%d_%s_%.2f", contrast, correction, logPThreshold)
}

// Render draws one visualization.
func Render(m *models.StatMap, title string, threshold float64, scale int) ([]byte, error) {
	if scale < 1 {
		scale = 1
	}
	if m == nil || len(m.Data) == 0 {
		return nil, fmt.Errorf("no data to render")
	}

	var canvas *image.RGBA
	var err error
	if m.Surface {
		canvas, err = renderSurface(m.Data, threshold, scale)
	} else {
		canvas, err = renderVolume(m, threshold, scale)
	}
	if err != nil {
		return nil, err
	}

	out := withTitle(canvas, title)
	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// renderVolume draws thresholded maximum-intensity projections along each
// axis: sagittal (YZ), coronal (XZ) and axial (XY), left to right.
func renderVolume(m *models.StatMap, threshold float64, scale int) (*image.RGBA, error) {
	nx, ny, nz := m.Dims[0], m.Dims[1], m.Dims[2]
	if nx <= 0 || ny <= 0 || nz <= 0 || len(m.Data) < nx*ny*nz {
		return nil, fmt.Errorf("invalid volume dimensions %v", m.Dims)
	}

	peak := maskedMax(m.Data, threshold)
	if math.IsInf(peak, -1) {
		peak = threshold + 1
	}

	at := func(i, j, k int) float64 {
		return m.Data[k*nx*ny+j*nx+i]
	}

	sag := projection(ny, nz, func(j, k int) float64 {
		best := math.Inf(-1)
		for i := 0; i < nx; i++ {
			if v := at(i, j, k); !math.IsNaN(v) && v > best {
				best = v
			}
		}
		return best
	})
	cor := projection(nx, nz, func(i, k int) float64 {
		best := math.Inf(-1)
		for j := 0; j < ny; j++ {
			if v := at(i, j, k); !math.IsNaN(v) && v > best {
				best = v
			}
		}
		return best
	})
	axi := projection(nx, ny, func(i, j int) float64 {
		best := math.Inf(-1)
		for k := 0; k < nz; k++ {
			if v := at(i, j, k); !math.IsNaN(v) && v > best {
				best = v
			}
		}
		return best
	})

	panels := []*projected{sag, cor, axi}
	width := panelGap
	height := 0
	for _, p := range panels {
		width += p.w*scale + panelGap
		if p.h*scale > height {
			height = p.h * scale
		}
	}
	canvas := image.NewRGBA(image.Rect(0, 0, width, height+2*panelGap))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	x := panelGap
	for _, p := range panels {
		drawPanel(canvas, p, x, panelGap, threshold, peak, scale)
		x += p.w*scale + panelGap
	}
	return canvas, nil
}

type projected struct {
	w, h   int
	values []float64
}

func projection(w, h int, f func(a, b int) float64) *projected {
	p := &projected{w: w, h: h, values: make([]float64, w*h)}
	for b := 0; b < h; b++ {
		for a := 0; a < w; a++ {
			p.values[b*w+a] = f(a, b)
		}
	}
	return p
}

// drawPanel paints one projection, vertically flipped so the last grid row
// renders at the top (superior orientation for z axes).
func drawPanel(canvas *image.RGBA, p *projected, ox, oy int, threshold, peak float64, scale int) {
	for b := 0; b < p.h; b++ {
		for a := 0; a < p.w; a++ {
			v := p.values[b*p.w+a]
			var c color.RGBA
			if math.IsInf(v, -1) {
				c = color.RGBA{245, 245, 245, 255}
			} else if v < threshold {
				c = color.RGBA{220, 220, 220, 255}
			} else {
				c = hotColor(normalize(v, threshold, peak))
			}
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					canvas.SetRGBA(ox+a*scale+dx, oy+(p.h-1-b)*scale+dy, c)
				}
			}
		}
	}
}

// renderSurface draws the two hemisphere value profiles stacked vertically,
// left hemisphere on top.
func renderSurface(data []float64, threshold float64, scale int) (*image.RGBA, error) {
	half := len(data) / 2
	if half == 0 {
		return nil, fmt.Errorf("surface map too small to render")
	}

	peak := maskedMax(data, threshold)
	if math.IsInf(peak, -1) {
		peak = threshold + 1
	}

	width := 480 * scale
	rowH := profileHeight * scale / 2
	canvas := image.NewRGBA(image.Rect(0, 0, width+2*panelGap, 2*rowH+3*panelGap))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	drawProfile(canvas, data[:half], threshold, peak, panelGap, panelGap, width, rowH)
	drawProfile(canvas, data[half:], threshold, peak, panelGap, 2*panelGap+rowH, width, rowH)
	return canvas, nil
}

// drawProfile bins vertices into columns and draws the per-bin maximum as
// a colored bar over a light baseline.
func drawProfile(canvas *image.RGBA, data []float64, threshold, peak float64, ox, oy, w, h int) {
	baseline := color.RGBA{235, 235, 235, 255}
	for x := 0; x < w; x++ {
		canvas.SetRGBA(ox+x, oy+h-1, baseline)
	}

	for x := 0; x < w; x++ {
		lo := x * len(data) / w
		hi := (x + 1) * len(data) / w
		if hi <= lo {
			hi = lo + 1
		}
		if hi > len(data) {
			hi = len(data)
		}
		best := math.Inf(-1)
		for _, v := range data[lo:hi] {
			if !math.IsNaN(v) && v > best {
				best = v
			}
		}
		if math.IsInf(best, -1) || best < threshold {
			continue
		}
		t := normalize(best, threshold, peak)
		barH := int(t * float64(h-1))
		if barH < 1 {
			barH = 1
		}
		c := hotColor(t)
		for y := 0; y < barH; y++ {
			canvas.SetRGBA(ox+x, oy+h-1-y, c)
		}
	}
}

// withTitle stacks a text banner above the rendered view.
func withTitle(img *image.RGBA, title string) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()+titleBarHeight))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(0, titleBarHeight, b.Dx(), b.Dy()+titleBarHeight), img, b.Min, draw.Src)

	d := &font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(color.RGBA{40, 40, 40, 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(6, 13),
	}
	d.DrawString(title)
	return out
}

func normalize(v, lo, hi float64) float64 {
	if hi <= lo {
		return 1
	}
	t := (v - lo) / (hi - lo)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// hotColor maps [0,1] to a black-red-yellow-white ramp.
func hotColor(t float64) color.RGBA {
	r := math.Min(1, 3*t)
	g := math.Min(1, math.Max(0, 3*t-1))
	b := math.Min(1, math.Max(0, 3*t-2))
	return color.RGBA{uint8(r * 255), uint8(g * 255), uint8(b * 255), 255}
}

func maskedMax(data []float64, cutoff float64) float64 {
	best := math.Inf(-1)
	for _, v := range data {
		if !math.IsNaN(v) && v >= cutoff && v > best {
			best = v
		}
	}
	return best
}
