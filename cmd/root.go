package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/cadfeat/pkg/config"
	"github.com/lehigh-university-libraries/cadfeat/pkg/export"
	"github.com/lehigh-university-libraries/cadfeat/pkg/geom"
	"github.com/lehigh-university-libraries/cadfeat/pkg/localfile"
	"github.com/lehigh-university-libraries/cadfeat/pkg/sources"
	"github.com/lehigh-university-libraries/cadfeat/pkg/vjmap"
)

var RootCmd = &cobra.Command{
	Use:   "cadfeat",
	Short: "Spatial feature extraction from CAD drawings",
	Long: `Extract structure from the vector entities of a CAD drawing: text clusters,
nested sub-drawings, elevation markers with building heights and titled tables.

Entities are read either from a vjmap map service (--source vjmap --map-id ...) or from a
JSON / YAML dump on disk (--input sheet.yaml).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		ll, err := cmd.Flags().GetString("log-level")
		if err != nil {
			return err
		}

		switch strings.ToUpper(ll) {
		case "DEBUG":
			level = slog.LevelDebug
		case "WARN":
			level = slog.LevelWarn
		case "ERROR":
			level = slog.LevelError
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		// stdout carries the command output
		handler := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(handler)

		return nil
	},
}

var (
	sourceName string
	inputPath  string
	mapID      string
	configPath string
	format     string
	outputPath string

	retries       uint64
	retryInterval time.Duration
)

func init() {
	ll := os.Getenv("LOG_LEVEL")
	if ll == "" {
		ll = "INFO"
	}
	RootCmd.PersistentFlags().String("log-level", ll, "The logging level for the command")
	RootCmd.PersistentFlags().StringVar(&sourceName, "source", "", "Entity source: file, vjmap (defaults to file when --input is set)")
	RootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "", "Path to a JSON or YAML entity dump")
	RootCmd.PersistentFlags().StringVar(&mapID, "map-id", os.Getenv("VJMAP_MAP_ID"), "Map id for the vjmap source")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CADFEAT_CONFIG"), "YAML file with detector tolerances")
	RootCmd.PersistentFlags().StringVarP(&format, "format", "f", export.FormatYAML, "Output format: "+strings.Join(export.Formats, ", "))
	RootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "Output path (prints to stdout if not specified)")
	RootCmd.PersistentFlags().Uint64Var(&retries, "retries", envUint("VJMAP_RETRIES", sources.DefaultRetries), "How often a failed map service request is repeated (0 uses the default)")
	RootCmd.PersistentFlags().DurationVar(&retryInterval, "retry-interval", envDuration("VJMAP_RETRY_INTERVAL", sources.DefaultRetryInterval), "Wait between repeated map service requests")
}

func envUint(name string, fallback uint64) uint64 {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		slog.Warn("Ignoring invalid environment variable", "name", name, "value", v)
		return fallback
	}
	return n
}

func envDuration(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("Ignoring invalid environment variable", "name", name, "value", v)
		return fallback
	}
	return d
}

// drawing is one loaded drawing together with the tolerances to analyse it with
type drawing struct {
	cfg   config.Config
	texts []geom.TextEntity
	lines []geom.LineEntity
}

func newRegistry() *sources.Registry {
	registry := sources.NewRegistry()
	registry.Register(vjmap.New())
	registry.Register(localfile.New())
	return registry
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	return cfg.FromEnv()
}

// loadDrawing reads the configuration and fetches the drawing's entities
func loadDrawing(cmd *cobra.Command) (*drawing, error) {
	// Step 1: tolerances from defaults, config file and environment
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// Step 2: pick the entity source
	name := sourceName
	if name == "" {
		name = "vjmap"
		if inputPath != "" {
			name = "file"
		}
	}
	registry := newRegistry()
	if !registry.Has(name) {
		return nil, fmt.Errorf("unknown source %q, use one of: %s", name, strings.Join(registry.List(), ", "))
	}
	source, err := registry.Get(name)
	if err != nil {
		return nil, err
	}

	sourceConfig := sources.Config{
		Source:        name,
		MapID:         mapID,
		Path:          inputPath,
		Retries:       retries,
		RetryInterval: retryInterval,
	}
	if err := source.ValidateConfig(sourceConfig); err != nil {
		return nil, fmt.Errorf("source configuration validation failed: %w", err)
	}

	// Step 3: fetch and split the entities
	entities, err := source.Fetch(cmd.Context(), sourceConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entities from %s: %w", name, err)
	}
	lines, texts := geom.Split(entities)
	slog.Debug("Loaded drawing", "source", name, "texts", len(texts), "lines", len(lines))

	return &drawing{cfg: cfg, texts: texts, lines: lines}, nil
}

// outputWriter returns where command output goes and a func to close it
func outputWriter(cmd *cobra.Command) (io.Writer, func() error, error) {
	if outputPath == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

func outputResult(cmd *cobra.Command, v interface{}) error {
	w, closeFn, err := outputWriter(cmd)
	if err != nil {
		return err
	}
	if err := export.Write(w, format, v); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}
