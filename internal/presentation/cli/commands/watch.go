package commands

import (
	"github.com/spf13/cobra"

	"github.com/sadhanaworks/sadhana/internal/infrastructure/storage"
)

// NewWatchCmd creates the watch command, which reports writes made by other
// sadhana processes sharing the same storage.
func NewWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch for changes made by other processes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			unsubscribe := app.Container.Hub().Subscribe("", func(event storage.ChangeEvent) {
				app.Formatter.Info("%s changed at %s", event.Key, event.At.Local().Format("15:04:05"))
			})
			defer unsubscribe()

			app.Formatter.Println("Watching for changes. Press Ctrl-C to stop.")
			err := app.Container.Hub().Run(ctx)
			if err == ctx.Err() {
				return nil
			}
			return err
		},
	}
}
