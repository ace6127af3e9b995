package commands

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadhanaworks/sadhana/internal/application/backup"
)

// NewExportCmd creates the export command.
func NewExportCmd(app *App) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all data to a backup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = backup.DefaultFilename(time.Now())
			}
			if err := app.Container.BackupManager().ExportToFile(cmd.Context(), path); err != nil {
				return err
			}
			app.Formatter.Success("Exported backup to %s", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "backup file path (default: sadhana-backup-<date>.json)")
	return cmd
}

// NewImportCmd creates the import command.
func NewImportCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Restore data from a backup file",
		Long: `Restore data from a backup file.

The current state is saved to an emergency slot before anything is
overwritten. Documents missing from the backup are left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !promptConfirm("Overwrite current data with "+args[0]+"?") {
				app.Formatter.Info("Import cancelled.")
				return nil
			}

			result, err := app.Container.BackupManager().ImportFromFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			app.Formatter.Success("Restored %d document(s): %s",
				len(result.Restored), strings.Join(result.Restored, ", "))
			if len(result.Skipped) > 0 {
				app.Formatter.Info("Not in backup, left untouched: %s", strings.Join(result.Skipped, ", "))
			}
			app.Formatter.Info("Previous state saved under %s", result.EmergencyKey)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// NewResetCmd creates the reset command.
func NewResetCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase all practice history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !promptConfirm("Erase all practice history and program progress?") {
				app.Formatter.Info("Reset cancelled.")
				return nil
			}
			if err := app.Container.ProgressStore().Reset(cmd.Context()); err != nil {
				return err
			}
			app.Formatter.Success("Practice history erased.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
