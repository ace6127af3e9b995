package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	domainErrors "github.com/sadhanaworks/sadhana/internal/domain/errors"
)

// NewStatusCmd creates the status command, which reports storage usage and
// backup health.
func NewStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show storage usage and backup status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			now := time.Now()

			app.Formatter.Header("Storage")
			app.Formatter.Item("driver", app.Config.Storage.Driver)

			usage, err := app.Container.Backend().Usage(ctx)
			switch {
			case domainErrors.Is(err, domainErrors.ErrUsageUnavailable):
				app.Formatter.Item("usage", "unavailable")
			case err != nil:
				return err
			default:
				app.Formatter.Item("usage", fmt.Sprintf("%d / %d bytes (%.1f%%)",
					usage.UsedBytes, usage.BudgetBytes, usage.Percent))
				if usage.Percent >= app.Config.Storage.WarnPercent {
					app.Formatter.Warning("Storage is %.1f%% full. Consider exporting and resetting old history.", usage.Percent)
				}
			}

			app.Formatter.Println("")
			app.Formatter.Header("Backups")

			manager := app.Container.BackupManager()
			if last, ok, err := manager.LastBackupDate(ctx); err != nil {
				return err
			} else if ok {
				app.Formatter.Item("last backup", last.Local().Format("2006-01-02 15:04"))
			} else {
				app.Formatter.Item("last backup", "never")
			}
			if last, ok, err := manager.LastRestoreDate(ctx); err != nil {
				return err
			} else if ok {
				app.Formatter.Item("last restore", last.Local().Format("2006-01-02 15:04"))
			}

			remind, err := app.Container.BackupReminder().ShouldRemind(ctx, now)
			if err != nil {
				return err
			}
			if remind {
				app.Formatter.Warning("It has been a while since your last backup. Run 'sadhana export'.")
			}

			app.Formatter.Println("")
			app.Formatter.Header("Practice")
			stats, err := app.Container.ProgressStore().Stats(ctx, now)
			if err != nil {
				return err
			}
			app.Formatter.Item("current streak", fmt.Sprintf("%d day(s)", stats.CurrentStreak))
			app.Formatter.Item("longest streak", fmt.Sprintf("%d day(s)", stats.LongestStreak))
			app.Formatter.Item("total minutes", fmt.Sprintf("%d", stats.TotalMinutes))

			app.Formatter.Println("")
			app.Formatter.Header("Library")
			app.Formatter.Item("sessions", fmt.Sprintf("%d", len(app.Container.Library().Sessions())))
			app.Formatter.Item("breathing exercises", fmt.Sprintf("%d", len(app.Container.Library().Exercises())))
			return nil
		},
	}
}
