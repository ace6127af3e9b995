package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sadhanaworks/sadhana/internal/domain/preferences"
)

// NewPrefsCmd creates the prefs command group.
func NewPrefsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show and change preferences",
	}

	cmd.AddCommand(newPrefsShowCmd(app))
	cmd.AddCommand(newPrefsSetCmd(app))
	return cmd
}

func newPrefsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, err := app.Container.PreferencesStore().Preferences(cmd.Context())
			if err != nil {
				return err
			}

			if app.Formatter.Format() == "json" {
				return app.Formatter.JSON(prefs)
			}

			app.Formatter.Header("Preferences")
			app.Formatter.Item("theme", string(prefs.Theme))
			app.Formatter.Item("rest between poses", fmt.Sprintf("%ds", prefs.RestSeconds))
			app.Formatter.Item("language", prefs.Language)
			app.Formatter.Item("mood tracking (sessions)", strconv.FormatBool(prefs.MoodTrackingEnabled(preferences.KindSession)))
			app.Formatter.Item("mood tracking (breathing)", strconv.FormatBool(prefs.MoodTrackingEnabled(preferences.KindBreathing)))
			app.Formatter.Item("reminder", fmt.Sprintf("enabled=%t hour=%d", prefs.Reminder.Enabled, prefs.Reminder.Hour))
			app.Formatter.Item("cues", fmt.Sprintf("beep=%t volume=%d", prefs.Cues.BeepEnabled, prefs.Cues.Volume))
			return nil
		},
	}
}

func newPrefsSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one preference",
		Long: `Change one preference.

Keys: theme (system|light|dark), rest (seconds, 0-60), language,
mood-sessions (true|false), mood-breathing (true|false).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, value := args[0], args[1]
			store := app.Container.PreferencesStore()

			switch key {
			case "theme":
				theme := preferences.Theme(value)
				if theme != preferences.ThemeSystem && theme != preferences.ThemeLight && theme != preferences.ThemeDark {
					return fmt.Errorf("invalid theme %q: must be system, light, or dark", value)
				}
				if _, err := store.SetTheme(ctx, theme); err != nil {
					return err
				}

			case "rest":
				seconds, err := strconv.Atoi(value)
				if err != nil {
					return fmt.Errorf("invalid rest duration %q", value)
				}
				prefs, err := store.SetRestSeconds(ctx, seconds)
				if err != nil {
					return err
				}
				if prefs.RestSeconds != seconds {
					app.Formatter.Warning("Rest duration clamped to %ds", prefs.RestSeconds)
				}

			case "language":
				if _, err := store.UpdatePreferences(ctx, func(d *preferences.Document) {
					d.Language = value
				}); err != nil {
					return err
				}

			case "mood-sessions", "mood-breathing":
				enabled, err := strconv.ParseBool(value)
				if err != nil {
					return fmt.Errorf("invalid value %q: expected true or false", value)
				}
				kind := preferences.KindSession
				if key == "mood-breathing" {
					kind = preferences.KindBreathing
				}
				if _, err := store.UpdatePreferences(ctx, func(d *preferences.Document) {
					d.SetMoodTracking(kind, enabled)
				}); err != nil {
					return err
				}

			default:
				return fmt.Errorf("unknown preference %q", key)
			}

			app.Formatter.Success("Set %s to %s", key, value)
			return nil
		},
	}
}
