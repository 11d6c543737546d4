package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gekko3d/shaper"
	"github.com/gekko3d/shaper/config"
	"github.com/gekko3d/shaper/scene"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	scenePath  string
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "shaper",
	Short: "Replace, scale, recolor, mirror and transfer controller curve shapes",
	Long: `shaper edits the curve shapes of rig controllers stored in a scene document.

Each command loads the scene (--scene), runs one operation as a single undo
step and writes the scene back.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		zcfg := zap.NewProductionConfig()
		if cfg.Logging.Development {
			zcfg = zap.NewDevelopmentConfig()
		}
		level, err := zapcore.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		if verbose {
			level = zapcore.DebugLevel
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&scenePath, "scene", "s", "scene.yaml", "scene document to edit")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "configuration file")

	rootCmd.AddCommand(
		exportCmd,
		importCmd,
		replaceCmd,
		scaleCmd,
		mirrorCmd,
		colorCmd,
		presetsCmd,
		showCmd,
		controllersCmd,
	)
}

func defaultConfigPath() string {
	if v := os.Getenv("SHAPER_CONFIG"); v != "" {
		return v
	}
	return ".shaper.yaml"
}

// session bundles the scene and engine for one command.
type session struct {
	scene  *scene.Scene
	engine *shaper.Engine
}

func openSession() (*session, error) {
	sc, err := scene.Load(scenePath)
	if err != nil {
		return nil, err
	}

	catalog, err := shaper.LoadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	engine := shaper.NewEngineBuilder(sc).
		UseLogger(shaper.NewZapLogger(logger)).
		UseCatalog(catalog).
		UseSideTokens(cfg.Mirror.SideTokens).
		UseControllerSuffix(cfg.Controllers.Suffix).
		UseExtension(cfg.Files.Extension).
		Build()

	return &session{scene: sc, engine: engine}, nil
}

func (s *session) save() error {
	if err := s.scene.Save(scenePath); err != nil {
		return err
	}
	logger.Debug("scene saved", zap.String("path", scenePath))
	return nil
}

// targets returns args, or the scene selection when no args are given.
func (s *session) targets(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return s.scene.Selection()
}

func printReport(cmd *cobra.Command, report *shaper.BatchReport) {
	if report == nil {
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), report.String())
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
