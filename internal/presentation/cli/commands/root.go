// Package commands implements the CLI commands for sadhana.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sadhanaworks/sadhana/internal/application"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/config"
	"github.com/sadhanaworks/sadhana/internal/presentation/cli/output"
)

// Version information - set at build time via ldflags.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// GlobalFlags holds the global CLI flags.
type GlobalFlags struct {
	ConfigFile string
	Output     string
	Verbose    bool
}

// App carries the runtime context shared by all commands. It is built once
// per invocation; commands receive it rather than reaching for globals.
type App struct {
	Flags     GlobalFlags
	Config    *config.Config
	Formatter *output.Formatter
	Container *application.Container
}

// Execute runs the CLI with signal-aware cancellation.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &App{}
	rootCmd := NewRootCmd(app)
	err := rootCmd.ExecuteContext(ctx)

	if app.Container != nil {
		_ = app.Container.Close()
	}
	if err != nil {
		if app.Formatter != nil {
			_ = app.Formatter.Error("%v", err)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// NewRootCmd creates the root command for the sadhana CLI.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sadhana",
		Short: "Sadhana - a local yoga and breathing practice tracker",
		Long: `Sadhana tracks your yoga and breathing practice on your own machine.

It times sessions pose by pose, keeps your practice history and streaks,
and stores everything locally with full export and import.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch cmd.Name() {
			case "help", "version", "completion", "init":
				app.ensureFormatter()
				return nil
			}
			return app.initialize(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&app.Flags.ConfigFile, "config", "c", "", "config file path (default: ~/.sadhana/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&app.Flags.Output, "output", "o", "text", "output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&app.Flags.Verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(NewVersionCmd(app))
	rootCmd.AddCommand(NewInitCmd(app))
	rootCmd.AddCommand(NewStartCmd(app))
	rootCmd.AddCommand(NewBreatheCmd(app))
	rootCmd.AddCommand(NewSessionsCmd(app))
	rootCmd.AddCommand(NewHistoryCmd(app))
	rootCmd.AddCommand(NewStatsCmd(app))
	rootCmd.AddCommand(NewFavoritesCmd(app))
	rootCmd.AddCommand(NewPrefsCmd(app))
	rootCmd.AddCommand(NewExportCmd(app))
	rootCmd.AddCommand(NewImportCmd(app))
	rootCmd.AddCommand(NewResetCmd(app))
	rootCmd.AddCommand(NewStatusCmd(app))
	rootCmd.AddCommand(NewWatchCmd(app))

	return rootCmd
}

// ensureFormatter builds the formatter without touching storage.
func (a *App) ensureFormatter() {
	if a.Formatter != nil {
		return
	}
	format := output.FormatText
	if a.Flags.Output == "json" {
		format = output.FormatJSON
	}
	a.Formatter = output.NewFormatter(
		output.WithFormat(format),
		output.WithColor(format != output.FormatJSON),
	)
}

// initialize loads configuration and builds the service container.
func (a *App) initialize(ctx context.Context) error {
	a.ensureFormatter()

	loader, err := config.NewLoader("")
	if err != nil {
		return fmt.Errorf("could not locate config directory: %w", err)
	}

	cfg, err := loader.Load(a.Flags.ConfigFile)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	a.Config = cfg

	container, err := application.NewContainer(cfg, Version, a.Flags.Verbose)
	if err != nil {
		return err
	}
	a.Container = container

	if err := container.StartLibraryWatching(ctx); err != nil {
		container.Logger().Warn("library hot reload unavailable", "error", err)
	}
	return nil
}
