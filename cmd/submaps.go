package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/cadfeat/pkg/export"
	"github.com/lehigh-university-libraries/cadfeat/pkg/rect"
	"github.com/lehigh-university-libraries/cadfeat/pkg/submap"
)

var submapsCmd = &cobra.Command{
	Use:   "submaps",
	Short: "Find the sub-drawings at one nesting depth",
	Long: `Detect every axis-aligned rectangle of the drawing, from closed polylines and from loops
of individual segments, and print those nested inside exactly --level other rectangles.
Level 0 selects the outermost frames.`,
	RunE: runSubmaps,
}

var (
	submapLevel int
	submapAll   bool
)

func init() {
	RootCmd.AddCommand(submapsCmd)

	submapsCmd.Flags().IntVarP(&submapLevel, "level", "l", 0, "Nesting depth to select (uses config if not specified)")
	submapsCmd.Flags().BoolVar(&submapAll, "rectangles", false, "Also print every detected rectangle")
}

func runSubmaps(cmd *cobra.Command, args []string) error {
	d, err := loadDrawing(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("level") {
		d.cfg.Level = submapLevel
	}
	if err := d.cfg.Validate(); err != nil {
		return err
	}

	rects := rect.Find(d.lines, d.cfg)
	submaps := submap.Resolve(rects, d.cfg.Level)
	slog.Info("Resolved submaps", "rectangles", len(rects), "level", d.cfg.Level, "submaps", len(submaps))

	result := export.Result{Submaps: submaps}
	if submapAll {
		result.Rectangles = rects
	}
	return outputResult(cmd, result)
}
