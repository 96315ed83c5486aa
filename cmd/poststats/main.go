package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/MRI-Lab-Graz/cat-12/pkg/config"
	"github.com/MRI-Lab-Graz/cat-12/pkg/report"
	"github.com/MRI-Lab-Graz/cat-12/pkg/summary"
)

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "poststats",
		Short: "Post-stats reporting for CAT12/SPM statistical results",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newReportCmd(),
		newSummaryCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newReportCmd() *cobra.Command {
	var configPath string
	var xlsxPath string

	cmd := &cobra.Command{
		Use:   "report <results_dir> <output_html> [filter_mode]",
		Short: "Generate the interactive post-stats HTML report",
		Long: `Scan a statistical results directory for thresholded log-p maps, evaluate
them against the significance table, attribute peaks against the configured
atlases and write a self-contained interactive HTML report.

filter_mode restricts the included files: all (default), tfce, spmt or
double_threshold.

Example: poststats report /data/study/stats report.html tfce --xlsx records.xlsx`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := &report.Params{
				ResultsDir: args[0],
				OutputHTML: args[1],
				XLSXPath:   xlsxPath,
			}
			if len(args) > 2 {
				params.FilterMode = args[2]
			}
			if configPath != "" {
				cfg, err := config.LoadConfig(configPath)
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				params.Config = cfg
			}
			return report.NewGenerator(params).Process()
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML run configuration")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Additionally export the record table as XLSX")

	return cmd
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <results_dir>",
		Short: "Print a significance summary of the TFCE FWE maps",
		Long: `Evaluate every TFCE FWE-corrected log-p map in the directory at p < 0.05
and print one table line per contrast.

Example: poststats summary /data/study/stats`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := summary.Run(args[0], os.Stdout)
			return err
		},
	}
}
