package cli

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/faultline/internal/core/config"
)

var (
	cfgPath string
	isDebug bool

	cfg *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "faultctl",
	Short: "Classify gRPC failures",
	Long: `faultctl turns gRPC failures into retry advice: whether the call may be
retried, after how long, and whether the session has to be re-acquired first.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	loaded, err := loadConfig(cmd)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		return err
	}
	cfg = loaded

	setupLogging(cfg.Logging)
	return nil
}

// loadConfig falls back to defaults when the default config file is
// absent. A path given explicitly must exist.
func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	loaded, err := config.Load(cfgPath)
	if err != nil && errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		return config.Default(), nil
	}
	return loaded, err
}

func setupLogging(c config.LoggingConfig) {
	slogLevel := slog.LevelInfo
	if isDebug || c.Level == "debug" {
		slogLevel = slog.LevelDebug
	} else if c.Level != "" {
		_ = slogLevel.UnmarshalText([]byte(c.Level))
	}

	if c.Format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})))
		return
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
}
