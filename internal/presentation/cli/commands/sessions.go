package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sadhanaworks/sadhana/internal/infrastructure/library"
)

// NewSessionsCmd creates the sessions command group for browsing the library
// and managing custom sessions and duration overrides.
func NewSessionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Browse the session library and manage custom sessions",
	}

	cmd.AddCommand(newSessionsListCmd(app))
	cmd.AddCommand(newSessionsShowCmd(app))
	cmd.AddCommand(newSessionsAddCmd(app))
	cmd.AddCommand(newSessionsRemoveCmd(app))
	cmd.AddCommand(newSessionsOverrideCmd(app))
	return cmd
}

func newSessionsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all sessions and breathing exercises",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			sessions := app.Container.Library().Sessions()
			custom, err := app.Container.PreferencesStore().CustomSessions(ctx)
			if err != nil {
				return err
			}
			exercises := app.Container.Library().Exercises()

			if app.Formatter.Format() == "json" {
				return app.Formatter.JSON(map[string]any{
					"sessions":  sessions,
					"custom":    custom,
					"breathing": exercises,
				})
			}

			app.Formatter.Header("Sessions")
			rows := make([][]string, 0, len(sessions)+len(custom))
			for _, s := range sessions {
				rows = append(rows, []string{s.ID, s.Name, s.Style, fmt.Sprintf("%d poses", len(s.Poses))})
			}
			for _, s := range custom {
				rows = append(rows, []string{s.ID, s.Name, "custom", fmt.Sprintf("%d poses", len(s.Poses))})
			}
			app.Formatter.Table([]string{"ID", "NAME", "STYLE", "POSES"}, rows)

			app.Formatter.Println("")
			app.Formatter.Header("Breathing")
			rows = rows[:0]
			for _, e := range exercises {
				rows = append(rows, []string{e.ID, e.Name, fmt.Sprintf("%d rounds", e.Rounds)})
			}
			app.Formatter.Table([]string{"ID", "NAME", "ROUNDS"}, rows)
			return nil
		},
	}
}

func newSessionsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session pose by pose",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			session, err := resolveSession(ctx, app, args[0])
			if err != nil {
				return err
			}
			overrides, err := app.Container.PreferencesStore().OverridesFor(ctx, session.ID)
			if err != nil {
				return err
			}

			if app.Formatter.Format() == "json" {
				return app.Formatter.JSON(map[string]any{
					"session":   session,
					"overrides": overrides,
				})
			}

			app.Formatter.Header(session.Name)
			if session.Description != "" {
				app.Formatter.Println("%s", session.Description)
			}
			rows := make([][]string, 0, len(session.Poses))
			for i, pose := range session.Poses {
				seconds := pose.Seconds
				note := ""
				if o, ok := overrides[i]; ok {
					seconds = o
					note = fmt.Sprintf("overridden from %ds", pose.Seconds)
				}
				rows = append(rows, []string{strconv.Itoa(i + 1), pose.Name, fmt.Sprintf("%ds", seconds), note})
			}
			app.Formatter.Table([]string{"#", "POSE", "HOLD", ""}, rows)
			return nil
		},
	}
}

func newSessionsAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <file.yaml>",
		Short: "Add custom sessions from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			def, err := library.NewLoader().LoadFile(args[0])
			if err != nil {
				return err
			}
			if len(def.Sessions) == 0 {
				return fmt.Errorf("%s defines no sessions", args[0])
			}

			for _, session := range def.Sessions {
				if err := app.Container.PreferencesStore().SaveCustomSession(ctx, session); err != nil {
					return err
				}
				app.Formatter.Success("Added %s (%s)", session.Name, session.ID)
			}
			return nil
		},
	}
}

func newSessionsRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <session-id>",
		Short: "Remove a custom session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := app.Container.PreferencesStore().DeleteCustomSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				app.Formatter.Warning("No custom session %q", args[0])
				return nil
			}
			app.Formatter.Success("Removed %s", args[0])
			return nil
		},
	}
}

func newSessionsOverrideCmd(app *App) *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "override <session-id> [pose-number] [seconds]",
		Short: "Override a pose's hold duration",
		Long: `Override how long one pose of a session is held.

Pose numbers start at 1. Overrides below the 15 second floor are raised to
it. Use --clear to drop every override for the session.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sessionID := args[0]

			if clear {
				if err := app.Container.PreferencesStore().ClearOverrides(ctx, sessionID); err != nil {
					return err
				}
				app.Formatter.Success("Cleared overrides for %s", sessionID)
				return nil
			}

			if len(args) != 3 {
				return fmt.Errorf("expected <session-id> <pose-number> <seconds>")
			}
			poseNumber, err := strconv.Atoi(args[1])
			if err != nil || poseNumber < 1 {
				return fmt.Errorf("invalid pose number %q", args[1])
			}
			seconds, err := strconv.Atoi(args[2])
			if err != nil || seconds < 1 {
				return fmt.Errorf("invalid duration %q", args[2])
			}

			session, err := resolveSession(ctx, app, sessionID)
			if err != nil {
				return err
			}
			if poseNumber > len(session.Poses) {
				return fmt.Errorf("session %s has only %d poses", sessionID, len(session.Poses))
			}

			if err := app.Container.PreferencesStore().SetOverride(ctx, sessionID, poseNumber-1, seconds); err != nil {
				return err
			}
			saved, err := app.Container.PreferencesStore().OverridesFor(ctx, sessionID)
			if err != nil {
				return err
			}
			app.Formatter.Success("Pose %d of %s now holds for %ds", poseNumber, sessionID, saved[poseNumber-1])
			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "drop all overrides for the session")
	return cmd
}
