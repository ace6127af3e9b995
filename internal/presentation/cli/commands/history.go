package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent practice history",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := app.Container.ProgressStore().History(cmd.Context())
			if err != nil {
				return err
			}

			if app.Formatter.Format() == "json" {
				return app.Formatter.JSON(doc)
			}

			app.Formatter.Header("Practice History")
			app.Formatter.Item("total sessions", fmt.Sprintf("%d", doc.TotalSessions))
			app.Formatter.Item("total minutes", fmt.Sprintf("%d", doc.TotalMinutes))
			app.Formatter.Item("current streak", fmt.Sprintf("%d day(s)", doc.CurrentStreak))
			app.Formatter.Item("longest streak", fmt.Sprintf("%d day(s)", doc.LongestStreak))
			app.Formatter.Println("")

			sessions := doc.Sessions
			if limit > 0 && len(sessions) > limit {
				sessions = sessions[len(sessions)-limit:]
			}
			rows := make([][]string, 0, len(sessions))
			for i := len(sessions) - 1; i >= 0; i-- {
				rec := sessions[i]
				mood := ""
				if rec.MoodBefore != nil && rec.MoodAfter != nil {
					mood = fmt.Sprintf("%d→%d", *rec.MoodBefore, *rec.MoodAfter)
				}
				rows = append(rows, []string{
					rec.CompletedAt.Local().Format("2006-01-02 15:04"),
					rec.Name,
					fmt.Sprintf("%dm", rec.DurationMinutes),
					mood,
				})
			}
			app.Formatter.Table([]string{"WHEN", "SESSION", "LENGTH", "MOOD"}, rows)

			breathing := doc.Breathing
			if limit > 0 && len(breathing) > limit {
				breathing = breathing[len(breathing)-limit:]
			}
			if len(breathing) > 0 {
				app.Formatter.Println("")
				app.Formatter.Header("Breathing")
				rows = rows[:0]
				for i := len(breathing) - 1; i >= 0; i-- {
					rec := breathing[i]
					rows = append(rows, []string{
						rec.CompletedAt.Local().Format("2006-01-02 15:04"),
						rec.Name,
						fmt.Sprintf("%dm", rec.DurationMinutes),
					})
				}
				app.Formatter.Table([]string{"WHEN", "EXERCISE", "LENGTH"}, rows)
			}

			if doc.LastPracticeDate != "" {
				app.Formatter.Println("")
				app.Formatter.Println("%s", app.Formatter.Dim("Last practice: "+doc.LastPracticeDate))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of entries to show (0 for all)")
	return cmd
}

// NewStatsCmd creates the stats command.
func NewStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show practice statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := app.Container.ProgressStore().Stats(cmd.Context(), time.Now())
			if err != nil {
				return err
			}

			if app.Formatter.Format() == "json" {
				return app.Formatter.JSON(stats)
			}

			app.Formatter.Header("Statistics")
			app.Formatter.Item("sessions", fmt.Sprintf("%d", stats.TotalSessions))
			app.Formatter.Item("breathing exercises", fmt.Sprintf("%d", stats.TotalBreathing))
			app.Formatter.Item("total minutes", fmt.Sprintf("%d", stats.TotalMinutes))
			app.Formatter.Item("minutes this week", fmt.Sprintf("%d", stats.MinutesThisWeek))
			app.Formatter.Item("current streak", fmt.Sprintf("%d day(s)", stats.CurrentStreak))
			app.Formatter.Item("longest streak", fmt.Sprintf("%d day(s)", stats.LongestStreak))
			if stats.MostPracticed != "" {
				app.Formatter.Item("most practiced", stats.MostPracticed)
			}

			if len(stats.SessionsByWeekday) > 0 {
				app.Formatter.Println("")
				app.Formatter.Header("Sessions by weekday")
				week := []time.Weekday{
					time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
					time.Friday, time.Saturday, time.Sunday,
				}
				for _, day := range week {
					if n := stats.SessionsByWeekday[day]; n > 0 {
						app.Formatter.Item(day.String(), fmt.Sprintf("%d", n))
					}
				}
			}
			return nil
		},
	}
}
