package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/okian/handicap/internal/adapters/repository"
	"github.com/okian/handicap/internal/config"
	"github.com/okian/handicap/pkg/logger"
)

var version = "dev"

// cli carries what every subcommand needs once the root command has run.
type cli struct {
	cfg *config.Config
	log logger.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	var envFile, configFile, logLevel string

	cmd := &cobra.Command{
		Use:   "handicap",
		Short: "Handicap - race analysis from field and past-performance tables",
		Long: `Handicap filters a race field to its contenders, groups them into tiers
by factor gaps, adjusts the tiers for situational signals and writes one
report per race.

Configuration is layered from defaults, a YAML file (--config or
HANDICAP_CONFIG) and HANDICAP_* environment variables. A .env file is
loaded first when present.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Context(), envFile, configFile, logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before configuration")
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(newAnalyzeCommand(c))
	cmd.AddCommand(newServeCommand(c))

	return cmd
}

func (c *cli) setup(ctx context.Context, envFile, configFile, logLevel string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if configFile != "" {
		if err := os.Setenv(config.EnvFile, configFile); err != nil {
			return fmt.Errorf("set %s: %w", config.EnvFile, err)
		}
	}

	if err := logger.Init(); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}

	c.cfg = cfg
	c.log = logger.Get()
	return nil
}

// openStore opens the report store selected by cfg.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.ReportStore {
	case config.StoreMemory:
		return repository.NewMemoryStore(), nil
	case config.StoreSQLite:
		store, err := repository.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		store, err := repository.NewFileStore(cfg.ReportsDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.ExecuteContext(context.Background())
}
