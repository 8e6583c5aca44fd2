// Package commands implements the sentinelctl subcommands.
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Wikid82/sentinel/internal/app"
	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/logger"
)

// Options are the global flags shared by every subcommand.
type Options struct {
	ConfigPath string
	DBPath     string
	NoColor    bool
}

type optionsKey struct{}

// WithOptions stores opts on ctx.
func WithOptions(ctx context.Context, opts Options) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, optionsKey{}, opts)
}

// OptionsFromContext returns the stored options, or the zero value.
func OptionsFromContext(ctx context.Context) Options {
	if ctx == nil {
		return Options{}
	}
	opts, _ := ctx.Value(optionsKey{}).(Options)
	return opts
}

// NewRootCommand builds the sentinelctl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "sentinelctl",
		Short: "Operator CLI for the Sentinel validation engine",
		Long: `sentinelctl screens text locally and inspects the audit trail,
reputations and pattern statistics stored in a Sentinel database.`,
		SilenceUsage: true,
	}

	var opts Options
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", os.Getenv("SENTINEL_CONFIG"), "Path to the YAML configuration file")
	root.PersistentFlags().StringVar(&opts.DBPath, "db", "", "Database path (overrides the configuration)")
	root.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "Disable coloured output")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cmd.SetContext(WithOptions(cmd.Context(), opts))
	}

	root.AddCommand(
		NewValidateCommand(),
		NewEventsCommand(),
		NewStatsCommand(),
		NewReputationCommand(),
		NewPatternsCommand(),
		NewPurgeCommand(),
		NewTokenCommand(),
		NewVersionCommand(),
	)
	return root
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	opts := OptionsFromContext(cmd.Context())
	if opts.NoColor {
		color.NoColor = true
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.DBPath != "" {
		cfg.Database.Path = opts.DBPath
		if err := os.MkdirAll(filepath.Dir(opts.DBPath), 0o755); err != nil {
			return config.Config{}, fmt.Errorf("ensure data directory: %w", err)
		}
	}
	return cfg, nil
}

// openApp loads configuration and wires the engine. Engine logs go to
// stderr so tables stay clean.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger.Init(false, cmd.ErrOrStderr())
	return app.New(cmd.Context(), cfg)
}

// withApp runs fn against a wired App and drains it afterwards.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) (err error) {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(context.Background()); err == nil {
			err = cerr
		}
	}()
	return fn(a)
}
