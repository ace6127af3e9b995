package progress

import (
	"fmt"
	"testing"
	"time"
)

func sessionOn(day time.Time) CompletedSession {
	return CompletedSession{
		ID:              "rec-1",
		SessionID:       "morning-flow",
		Name:            "Morning Flow",
		DurationMinutes: 20,
		CompletedAt:     day,
	}
}

func TestRecordSessionTotals(t *testing.T) {
	doc := NewDocument()
	now := time.Date(2026, 8, 10, 7, 0, 0, 0, time.Local)

	doc.RecordSession(sessionOn(now))
	doc.RecordSession(sessionOn(now.Add(time.Hour)))

	if doc.TotalSessions != 2 {
		t.Fatalf("expected 2 total sessions, got %d", doc.TotalSessions)
	}
	if doc.TotalMinutes != 40 {
		t.Fatalf("expected 40 total minutes, got %d", doc.TotalMinutes)
	}
}

func TestStreakFirstSessionStartsAtOne(t *testing.T) {
	doc := NewDocument()
	doc.RecordSession(sessionOn(time.Date(2026, 8, 10, 7, 0, 0, 0, time.Local)))

	if doc.CurrentStreak != 1 {
		t.Fatalf("expected streak 1, got %d", doc.CurrentStreak)
	}
	if doc.LongestStreak != 1 {
		t.Fatalf("expected longest streak 1, got %d", doc.LongestStreak)
	}
	if doc.LastPracticeDate != "2026-08-10" {
		t.Fatalf("unexpected last practice date %q", doc.LastPracticeDate)
	}
}

func TestStreakSameDayUnchanged(t *testing.T) {
	doc := NewDocument()
	day := time.Date(2026, 8, 10, 7, 0, 0, 0, time.Local)

	doc.RecordSession(sessionOn(day))
	doc.RecordSession(sessionOn(day.Add(10 * time.Hour)))

	if doc.CurrentStreak != 1 {
		t.Fatalf("same-day session changed streak to %d", doc.CurrentStreak)
	}
}

func TestStreakConsecutiveDaysIncrement(t *testing.T) {
	doc := NewDocument()
	day := time.Date(2026, 8, 10, 7, 0, 0, 0, time.Local)

	for i := 0; i < 5; i++ {
		doc.RecordSession(sessionOn(day.AddDate(0, 0, i)))
	}

	if doc.CurrentStreak != 5 {
		t.Fatalf("expected streak 5, got %d", doc.CurrentStreak)
	}
	if doc.LongestStreak != 5 {
		t.Fatalf("expected longest streak 5, got %d", doc.LongestStreak)
	}
}

func TestStreakGapResetsToOne(t *testing.T) {
	doc := NewDocument()
	day := time.Date(2026, 8, 10, 7, 0, 0, 0, time.Local)

	doc.RecordSession(sessionOn(day))
	doc.RecordSession(sessionOn(day.AddDate(0, 0, 1)))
	doc.RecordSession(sessionOn(day.AddDate(0, 0, 4)))

	if doc.CurrentStreak != 1 {
		t.Fatalf("expected streak reset to 1 after gap, got %d", doc.CurrentStreak)
	}
	if doc.LongestStreak != 2 {
		t.Fatalf("expected longest streak 2 preserved, got %d", doc.LongestStreak)
	}
}

func TestStreakAcrossDaylightSavingChange(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	orig := time.Local
	time.Local = ny
	defer func() { time.Local = orig }()

	// DST begins 2026-03-08 in America/New_York, making that day 23 hours.
	t.Run("next day still extends", func(t *testing.T) {
		doc := NewDocument()
		doc.RecordSession(sessionOn(time.Date(2026, 3, 7, 9, 0, 0, 0, ny)))
		doc.RecordSession(sessionOn(time.Date(2026, 3, 8, 9, 0, 0, 0, ny)))

		if doc.CurrentStreak != 2 {
			t.Fatalf("expected streak 2 across the transition, got %d", doc.CurrentStreak)
		}
	})

	t.Run("two-day gap still resets", func(t *testing.T) {
		doc := NewDocument()
		doc.RecordSession(sessionOn(time.Date(2026, 3, 7, 9, 0, 0, 0, ny)))
		doc.RecordSession(sessionOn(time.Date(2026, 3, 9, 9, 0, 0, 0, ny)))

		if doc.CurrentStreak != 1 {
			t.Fatalf("expected streak reset to 1 after the gap, got %d", doc.CurrentStreak)
		}
	})
}

func TestBreathingDoesNotExtendStreak(t *testing.T) {
	doc := NewDocument()
	day := time.Date(2026, 8, 10, 7, 0, 0, 0, time.Local)

	doc.RecordSession(sessionOn(day))
	doc.RecordBreathing(CompletedBreathing{
		ID:              "b-1",
		ExerciseID:      "box",
		Name:            "Box Breathing",
		DurationMinutes: 5,
		CompletedAt:     day.AddDate(0, 0, 1),
	})

	if doc.CurrentStreak != 1 {
		t.Fatalf("breathing changed streak to %d", doc.CurrentStreak)
	}
	if doc.TotalMinutes != 25 {
		t.Fatalf("expected breathing minutes counted, got %d", doc.TotalMinutes)
	}
	if doc.TotalSessions != 1 {
		t.Fatalf("breathing must not count as a session, got %d", doc.TotalSessions)
	}
}

func TestFavoriteLogBounded(t *testing.T) {
	doc := NewDocument()
	base := time.Date(2026, 8, 10, 7, 0, 0, 0, time.Local)

	for i := 0; i < HistoryCap+20; i++ {
		doc.LogFavoriteToggle(FavoriteEvent{
			ItemID:    fmt.Sprintf("item-%d", i),
			Kind:      "session",
			Favorited: true,
			At:        base.Add(time.Duration(i) * time.Minute),
		})
	}

	if len(doc.FavoriteEvents) != HistoryCap {
		t.Fatalf("expected log capped at %d, got %d", HistoryCap, len(doc.FavoriteEvents))
	}
	if doc.FavoriteEvents[0].ItemID != "item-20" {
		t.Fatalf("expected oldest surviving entry item-20, got %q", doc.FavoriteEvents[0].ItemID)
	}
	last := doc.FavoriteEvents[len(doc.FavoriteEvents)-1]
	if last.ItemID != fmt.Sprintf("item-%d", HistoryCap+19) {
		t.Fatalf("expected newest entry kept, got %q", last.ItemID)
	}
}

func TestRecommendationLogBounded(t *testing.T) {
	doc := NewDocument()
	for i := 0; i < HistoryCap+5; i++ {
		doc.LogRecommendation(RecommendationEvent{
			SessionID: fmt.Sprintf("s-%d", i),
			Accepted:  i%2 == 0,
			At:        time.Now(),
		})
	}
	if len(doc.Recommendations) != HistoryCap {
		t.Fatalf("expected log capped at %d, got %d", HistoryCap, len(doc.Recommendations))
	}
}

func TestComputeStats(t *testing.T) {
	doc := NewDocument()
	// Monday of the test week.
	monday := time.Date(2026, 8, 24, 8, 0, 0, 0, time.Local)

	doc.RecordSession(sessionOn(monday.AddDate(0, 0, -3))) // previous week
	doc.RecordSession(sessionOn(monday))
	doc.RecordSession(sessionOn(monday.AddDate(0, 0, 1)))
	doc.RecordBreathing(CompletedBreathing{
		ID: "b-1", ExerciseID: "box", Name: "Box Breathing",
		DurationMinutes: 5, CompletedAt: monday.AddDate(0, 0, 1),
	})

	stats := doc.ComputeStats(monday.AddDate(0, 0, 2))

	if stats.TotalSessions != 3 {
		t.Fatalf("expected 3 sessions, got %d", stats.TotalSessions)
	}
	if stats.MinutesThisWeek != 45 {
		t.Fatalf("expected 45 minutes this week, got %d", stats.MinutesThisWeek)
	}
	if stats.SessionsByWeekday[time.Monday] != 1 {
		t.Fatalf("expected 1 Monday session, got %d", stats.SessionsByWeekday[time.Monday])
	}
	if stats.MostPracticed != "Morning Flow" {
		t.Fatalf("unexpected most practiced %q", stats.MostPracticed)
	}
}

func TestProgramMarkCompletedIdempotent(t *testing.T) {
	doc := NewProgramDocument()

	doc.MarkCompleted("30-day", 1, 1)
	doc.MarkCompleted("30-day", 1, 1)
	doc.MarkCompleted("30-day", 1, 2)

	state := doc.Programs["30-day"]
	if len(state.CompletedDays) != 2 {
		t.Fatalf("expected 2 completed days, got %d", len(state.CompletedDays))
	}
	if state.Week != 1 || state.Day != 2 {
		t.Fatalf("expected position w1d2, got w%dd%d", state.Week, state.Day)
	}
	if !doc.Completed("30-day", 1, 1) {
		t.Fatal("expected w1d1 completed")
	}
	if doc.Completed("30-day", 2, 1) {
		t.Fatal("w2d1 reported completed")
	}
}
