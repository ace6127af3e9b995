package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sadhanaworks/sadhana/internal/domain/preferences"
	"github.com/sadhanaworks/sadhana/internal/domain/progress"
)

// NewFavoritesCmd creates the favorites command group.
func NewFavoritesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "List and toggle favorites",
	}

	cmd.AddCommand(newFavoritesListCmd(app))
	cmd.AddCommand(newFavoritesToggleCmd(app))
	return cmd
}

func newFavoritesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List favorited sessions and breathing exercises",
		RunE: func(cmd *cobra.Command, args []string) error {
			fav, err := app.Container.PreferencesStore().Favorites(cmd.Context())
			if err != nil {
				return err
			}

			if app.Formatter.Format() == "json" {
				return app.Formatter.JSON(fav)
			}

			app.Formatter.Header("Favorite sessions")
			if len(fav.Sessions) == 0 {
				app.Formatter.Println("%s", app.Formatter.Dim("none"))
			}
			for _, id := range fav.Sessions {
				app.Formatter.BulletItem(id)
			}

			app.Formatter.Println("")
			app.Formatter.Header("Favorite breathing exercises")
			if len(fav.Breathing) == 0 {
				app.Formatter.Println("%s", app.Formatter.Dim("none"))
			}
			for _, id := range fav.Breathing {
				app.Formatter.BulletItem(id)
			}
			return nil
		},
	}
}

func newFavoritesToggleCmd(app *App) *cobra.Command {
	var breathing bool

	cmd := &cobra.Command{
		Use:   "toggle <item-id>",
		Short: "Toggle an item's favorite state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			kind := preferences.KindSession
			if breathing {
				kind = preferences.KindBreathing
			}

			favorited, err := app.Container.PreferencesStore().ToggleFavorite(ctx, args[0], kind)
			if err != nil {
				return err
			}

			err = app.Container.ProgressStore().LogFavoriteToggle(ctx, progress.FavoriteEvent{
				ItemID:    args[0],
				Kind:      string(kind),
				Favorited: favorited,
				At:        time.Now(),
			})
			if err != nil {
				return err
			}

			if favorited {
				app.Formatter.Success("Favorited %s", args[0])
			} else {
				app.Formatter.Success("Unfavorited %s", args[0])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&breathing, "breathing", false, "toggle a breathing exercise instead of a session")
	return cmd
}
