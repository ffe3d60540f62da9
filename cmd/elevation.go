package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/cadfeat/pkg/export"
	"github.com/lehigh-university-libraries/cadfeat/pkg/facade"
)

var elevationCmd = &cobra.Command{
	Use:   "elevation",
	Short: "Detect elevation markers and building heights",
	Long: `Find the facade and section frames of the drawing (rectangles holding a title such as
立面 or 剖面 next to a 1:100 style scale), detect the elevation markers inside each frame,
group them into vertical lanes and report the building height and standard floor height.

Use --below-grade for basement drawings, where the lowest marker rather than the highest
one measures the height.`,
	RunE: runElevation,
}

var belowGrade bool

func init() {
	RootCmd.AddCommand(elevationCmd)

	elevationCmd.Flags().BoolVar(&belowGrade, "below-grade", false, "Measure heights below grade")
}

func runElevation(cmd *cobra.Command, args []string) error {
	d, err := loadDrawing(cmd)
	if err != nil {
		return err
	}

	contexts, err := facade.Build(d.texts, d.lines, d.cfg)
	if err != nil {
		return err
	}
	summary := facade.Heights(contexts, belowGrade)
	slog.Info("Measured elevations", "facades", len(contexts), "lanes", summary.Lanes)

	return outputResult(cmd, export.Result{Facades: contexts, Heights: &summary})
}
