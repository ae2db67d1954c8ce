package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chaosweasl/cognify/internal/profile"
	"github.com/chaosweasl/cognify/store"
	"github.com/chaosweasl/cognify/store/db"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "cognify",
	Short: "A spaced-repetition study engine for the command line.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("owner", "local")

	rootCmd.PersistentFlags().String("mode", "demo", `mode of the engine, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver, can be "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database connection string")
	rootCmd.PersistentFlags().String("owner", "local", "owner id study sessions run as")
	rootCmd.PersistentFlags().String("scope", "", "scope partitioning daily quotas, empty for the default scope")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("cognify")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	addStudy(rootCmd)
	addStats(rootCmd)
}

// loadProfile resolves the effective configuration from flags, environment
// and defaults.
func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:    viper.GetString("mode"),
		Data:    viper.GetString("data"),
		DSN:     viper.GetString("dsn"),
		Driver:  viper.GetString("driver"),
		Owner:   viper.GetString("owner"),
		Scope:   viper.GetString("scope"),
		Version: version,
	}
	p.FromEnv()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func setupLogger(p *profile.Profile) {
	// Demo mode counts as dev but keeps the quieter level so log lines do
	// not interleave with the study prompt.
	level := slog.LevelInfo
	if p.Mode == "dev" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// openStore connects the configured database and ensures the schema exists.
func openStore(ctx context.Context, p *profile.Profile) (*store.Store, error) {
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, err
	}
	st := store.New(dbDriver, p)
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
