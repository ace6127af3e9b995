package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sadhanaworks/sadhana/internal/application/runner"
	"github.com/sadhanaworks/sadhana/internal/domain/preferences"
	"github.com/sadhanaworks/sadhana/internal/domain/progress"
)

// NewBreatheCmd creates the breathe command, which runs a guided breathing
// exercise.
func NewBreatheCmd(app *App) *cobra.Command {
	var rounds int

	cmd := &cobra.Command{
		Use:   "breathe <exercise-id>",
		Short: "Run a guided breathing exercise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			exercise, err := app.Container.Library().Exercise(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("rounds") && rounds > 0 {
				exercise.Rounds = rounds
			}

			prefs, err := app.Container.PreferencesStore().Preferences(ctx)
			if err != nil {
				return err
			}

			var moodBefore *int
			if prefs.MoodTrackingEnabled(preferences.KindBreathing) {
				moodBefore = promptRating("Mood before")
			}

			commands, closeInput, err := commandChannel(app)
			if err != nil {
				return err
			}
			defer closeInput()

			app.Formatter.Header(exercise.Name)
			result, err := app.Container.Runner().RunBreathing(ctx, exercise, runner.Options{
				Tick:     app.Config.Practice.TickInterval,
				Out:      app.Formatter,
				Commands: commands,
			})
			if err != nil {
				return err
			}
			if !result.Completed {
				app.Formatter.Info("Exercise ended early after %d round(s). Nothing recorded.", result.Rounds)
				return nil
			}

			var moodAfter *int
			if prefs.MoodTrackingEnabled(preferences.KindBreathing) {
				moodAfter = promptRating("Mood after")
			}

			_, err = app.Container.ProgressStore().RecordBreathing(ctx, progress.CompletedBreathing{
				ExerciseID:      exercise.ID,
				Name:            exercise.Name,
				DurationMinutes: minutesFromSeconds(result.ElapsedSeconds),
				CompletedAt:     time.Now(),
				MoodBefore:      moodBefore,
				MoodAfter:       moodAfter,
			})
			if err != nil {
				return err
			}

			app.Formatter.Success("Recorded %d round(s).", result.Rounds)
			return nil
		},
	}

	cmd.Flags().IntVar(&rounds, "rounds", 0, "override the number of rounds")
	return cmd
}
