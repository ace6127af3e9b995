package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sadhanaworks/sadhana/internal/infrastructure/config"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/library"
)

// NewInitCmd creates the init command, which writes the default config file
// and materializes the built-in session library for editing.
func NewInitCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the config file and session library",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := config.NewLoader("")
			if err != nil {
				return fmt.Errorf("could not locate config directory: %w", err)
			}

			configPath := app.Flags.ConfigFile
			if configPath == "" {
				configPath = loader.DefaultConfigPath()
			}

			if _, err := os.Stat(configPath); err == nil && !force {
				app.Formatter.Warning("Config already exists at %s (use --force to overwrite)", configPath)
			} else {
				cfg := config.NewDefaultConfig()
				if err := loader.Save(cfg, configPath); err != nil {
					return fmt.Errorf("could not write config: %w", err)
				}
				app.Formatter.Success("Wrote config to %s", configPath)
			}

			cfg, err := loader.Load(configPath)
			if err != nil {
				return fmt.Errorf("could not load config: %w", err)
			}
			if err := library.MaterializeBuiltins(cfg.Library.Directory); err != nil {
				return err
			}
			app.Formatter.Success("Session library ready at %s", cfg.Library.Directory)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
