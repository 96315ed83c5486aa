package plot

import (
	"encoding/base64"

	log "github.com/sirupsen/logrus"

	"github.com/MRI-Lab-Graz/cat-12/internal/models"
)

// Cache holds one rendered visualization per distinct key, base64-encoded
// for direct embedding in the report. A key is attempted exactly once; a
// failed render stays absent and the report shows its empty state.
type Cache struct {
	scale     int
	images    map[string]string
	attempted map[string]bool
}

// NewCache creates an empty cache rendering at the given pixel scale.
func NewCache(scale int) *Cache {
	return &Cache{
		scale:     scale,
		images:    make(map[string]string),
		attempted: make(map[string]bool),
	}
}

// Render draws the visualization for key unless it was already attempted.
func (c *Cache) Render(key string, m *models.StatMap, title string, threshold float64) {
	if c.attempted[key] {
		return
	}
	c.attempted[key] = true

	pngBytes, err := Render(m, title, threshold, c.scale)
	if err != nil {
		log.Warnf("Could not render plot %s: %v", key, err)
		return
	}
	c.images[key] = base64.StdEncoding.EncodeToString(pngBytes)
}

// Has reports whether a rendered image exists for key.
func (c *Cache) Has(key string) bool {
	_, ok := c.images[key]
	return ok
}

// Images exposes the key to base64 PNG mapping for the report payload.
func (c *Cache) Images() map[string]string {
	return c.images
}

// Len returns the number of successfully rendered plots.
func (c *Cache) Len() int {
	return len(c.images)
}
