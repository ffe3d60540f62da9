package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/cadfeat/pkg/cluster"
	"github.com/lehigh-university-libraries/cadfeat/pkg/export"
	"github.com/lehigh-university-libraries/cadfeat/pkg/submap"
	"github.com/lehigh-university-libraries/cadfeat/pkg/table"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Locate the table printed below a title",
	Long: `Find the text label matching --title, locate the ruled table directly below it and
print the table's envelope together with its contents as plain text.`,
	RunE: runTable,
}

var tableTitle string

func init() {
	RootCmd.AddCommand(tableCmd)

	tableCmd.Flags().StringVarP(&tableTitle, "title", "t", "技术经济指标", "Title printed above the table")
}

func runTable(cmd *cobra.Command, args []string) error {
	d, err := loadDrawing(cmd)
	if err != nil {
		return err
	}

	title, ok := table.FindTitle(d.texts, tableTitle)
	if !ok {
		return fmt.Errorf("no text label matches title %q", tableTitle)
	}
	env, ok := table.Locate(title, d.lines, d.cfg)
	if !ok {
		return fmt.Errorf("no table found below title %q at %s", tableTitle, title.Envelope)
	}

	inside := submap.Inside(d.texts, env)
	slog.Info("Located table", "title", title.Text, "bounds", env.String(), "texts", len(inside))

	return outputResult(cmd, export.Result{Table: &export.Table{
		Title:    title.Text,
		Envelope: env,
		Text:     cluster.Text(cluster.Cluster(inside), d.cfg.RowTolerance, d.cfg.BlankOverlap),
	}})
}
