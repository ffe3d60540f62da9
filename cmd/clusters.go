package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/cadfeat/pkg/cluster"
	"github.com/lehigh-university-libraries/cadfeat/pkg/export"
)

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "Group the drawing's text labels into spatial clusters",
	Long: `Group text labels that lie within --radius drawing units of a seed label.

With --key only the clusters holding a label that contains the key are printed. With --text
each cluster is rendered as plain text in reading order, blanks filled with the values
written over them.`,
	RunE: runClusters,
}

var (
	clusterRadius float64
	clusterKey    string
	clusterRunes  int
	clusterText   bool
)

func init() {
	RootCmd.AddCommand(clustersCmd)

	clustersCmd.Flags().Float64VarP(&clusterRadius, "radius", "r", 0, "Cluster radius in drawing units (uses config if not specified)")
	clustersCmd.Flags().StringVarP(&clusterKey, "key", "k", "", "Only print clusters holding a label that contains this text")
	clustersCmd.Flags().IntVar(&clusterRunes, "min-runes", 0, "Skip labels with at most this many characters (uses config if not specified)")
	clustersCmd.Flags().BoolVar(&clusterText, "text", false, "Print each cluster as plain text")
}

func runClusters(cmd *cobra.Command, args []string) error {
	d, err := loadDrawing(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("radius") {
		d.cfg.ClusterRadius = clusterRadius
	}
	if cmd.Flags().Changed("min-runes") {
		d.cfg.MinTextRunes = clusterRunes
	}
	if err := d.cfg.Validate(); err != nil {
		return err
	}

	clusters := cluster.Partition(d.texts, d.cfg.ClusterRadius, cluster.WithMinTextRunes(d.cfg.MinTextRunes))
	clusters = cluster.Search(clusters, clusterKey)
	slog.Info("Clustered text labels", "texts", len(d.texts), "clusters", len(clusters), "radius", d.cfg.ClusterRadius)

	if !clusterText {
		return outputResult(cmd, export.Result{Clusters: clusters})
	}

	rendered := make([]string, 0, len(clusters))
	for _, c := range clusters {
		rendered = append(rendered, cluster.Text(c, d.cfg.RowTolerance, d.cfg.BlankOverlap))
	}
	w, closeFn, err := outputWriter(cmd)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Join(rendered, "\n\n")); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}
