package commands

import (
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCmd creates the version command.
func NewVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Formatter.Format() == "json" {
				return app.Formatter.JSON(map[string]string{
					"version":   Version,
					"gitCommit": GitCommit,
					"buildDate": BuildDate,
					"goVersion": runtime.Version(),
				})
			}

			app.Formatter.Println("sadhana %s", Version)
			app.Formatter.Item("commit", GitCommit)
			app.Formatter.Item("built", BuildDate)
			app.Formatter.Item("go", runtime.Version())
			return nil
		},
	}
}
