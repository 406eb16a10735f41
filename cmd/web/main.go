package main

import (
	"context"
	"fmt"
	"lunastars/internal/config"
	"lunastars/internal/db"
	"lunastars/internal/logging"
	"lunastars/internal/server"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose    bool
	configPath string
	port       string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lunastars",
	Short: "Collect the stars to reveal a letter",
	Long: `lunastars serves a small browser game: collect enough stars before the
countdown ends and a letter is revealed.

Run without a subcommand to start the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			if _, err := config.LoadFile(configPath); err != nil {
				return err
			}
			os.Setenv("LUNASTARS_CONFIG", configPath)
		}
		cfg = config.Load()
		if port != "" {
			cfg.Port = port
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		var err error
		logger, err = logging.New(cfg.LogLevel, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is not set")
		}
		database, err := db.Connect(cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer database.Close()
		return database.Migrate()
	},
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting",
		zap.Int("duration", cfg.GameDuration),
		zap.Int("threshold", cfg.WinThreshold),
		zap.Int("batch", cfg.BatchSize),
		zap.Bool("motion", cfg.Motion))
	return server.Run(ctx, cfg, logger)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (or set LUNASTARS_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&port, "port", "p", "", "Listen port (overrides PORT)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
