package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadhanaworks/sadhana/internal/application/runner"
	domainErrors "github.com/sadhanaworks/sadhana/internal/domain/errors"
	"github.com/sadhanaworks/sadhana/internal/domain/practice"
	"github.com/sadhanaworks/sadhana/internal/domain/preferences"
	"github.com/sadhanaworks/sadhana/internal/domain/progress"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/logging"
)

// NewStartCmd creates the start command, which runs a timed yoga session.
func NewStartCmd(app *App) *cobra.Command {
	var (
		restSeconds int
		programID   string
		programWeek int
		programDay  int
	)

	cmd := &cobra.Command{
		Use:   "start <session-id>",
		Short: "Run a timed yoga session",
		Long: `Run a timed yoga session pose by pose.

While the session runs, type pause, resume, skip (during rest), or quit.
Completed sessions are recorded in your practice history.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithSessionID(cmd.Context(), args[0])

			session, err := resolveSession(ctx, app, args[0])
			if err != nil {
				return err
			}

			prefs, err := app.Container.PreferencesStore().Preferences(ctx)
			if err != nil {
				return err
			}
			rest := prefs.RestSeconds
			if cmd.Flags().Changed("rest") {
				rest = restSeconds
			}

			overrides, err := app.Container.PreferencesStore().OverridesFor(ctx, session.ID)
			if err != nil {
				return err
			}

			var moodBefore *int
			if prefs.MoodTrackingEnabled(preferences.KindSession) {
				moodBefore = promptRating("Mood before")
			}

			commands, closeInput, err := commandChannel(app)
			if err != nil {
				return err
			}
			defer closeInput()

			app.Formatter.Header(session.Name)
			result, err := app.Container.Runner().Run(ctx, session, runner.Options{
				RestSeconds: rest,
				Overrides:   overrides,
				Tick:        app.Config.Practice.TickInterval,
				Out:         app.Formatter,
				Commands:    commands,
			})
			if err != nil {
				return err
			}
			if !result.Completed {
				app.Formatter.Info("Session ended early after %ds. Nothing recorded.", result.Summary.DurationSeconds)
				return nil
			}

			var moodAfter *int
			if prefs.MoodTrackingEnabled(preferences.KindSession) {
				moodAfter = promptRating("Mood after")
			}

			rec := progress.CompletedSession{
				SessionID:       session.ID,
				Name:            session.Name,
				DurationMinutes: minutesFromSeconds(result.Summary.DurationSeconds),
				CompletedAt:     time.Now(),
				MoodBefore:      moodBefore,
				MoodAfter:       moodAfter,
				Poses:           result.Summary.Poses,
				ProgramID:       programID,
				ProgramWeek:     programWeek,
				ProgramDay:      programDay,
			}
			doc, err := app.Container.ProgressStore().RecordSession(ctx, rec)
			if err != nil {
				return err
			}

			app.Formatter.Success("Recorded. Current streak: %d day(s).", doc.CurrentStreak)
			return nil
		},
	}

	cmd.Flags().IntVar(&restSeconds, "rest", 0, "rest between poses in seconds (overrides preferences)")
	cmd.Flags().StringVar(&programID, "program", "", "record this run against a program")
	cmd.Flags().IntVar(&programWeek, "week", 0, "program week")
	cmd.Flags().IntVar(&programDay, "day", 0, "program day")
	return cmd
}

// resolveSession looks the session up in the library, then in the user's
// custom sessions.
func resolveSession(ctx context.Context, app *App, id string) (practice.Session, error) {
	session, err := app.Container.Library().Session(id)
	if err == nil {
		return session, nil
	}
	if !domainErrors.Is(err, domainErrors.ErrSessionNotFound) {
		return practice.Session{}, err
	}

	custom, ok, lookupErr := app.Container.PreferencesStore().FindCustomSession(ctx, id)
	if lookupErr != nil {
		return practice.Session{}, lookupErr
	}
	if !ok {
		return practice.Session{}, err
	}
	return custom, nil
}

// minutesFromSeconds rounds up so even the shortest practice counts.
func minutesFromSeconds(seconds int) int {
	if seconds <= 0 {
		return 0
	}
	return (seconds + 59) / 60
}
