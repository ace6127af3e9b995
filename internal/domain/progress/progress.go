// Package progress defines the practice history document: completed sessions,
// breathing exercises, streaks, and bounded activity logs.
package progress

import (
	"time"
)

// HistoryCap bounds the favorite-toggle and recommendation logs. Older
// entries are silently dropped; the most recent entries are kept in
// chronological order.
const HistoryCap = 100

// dateLayout is the calendar-date form used for streak comparison.
const dateLayout = "2006-01-02"

// CompletedSession is one finished practice run.
type CompletedSession struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"sessionId"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"durationMinutes"`
	CompletedAt     time.Time `json:"completedAt"`
	MoodBefore      *int      `json:"moodBefore,omitempty"`
	MoodAfter       *int      `json:"moodAfter,omitempty"`
	EnergyBefore    *int      `json:"energyBefore,omitempty"`
	EnergyAfter     *int      `json:"energyAfter,omitempty"`
	Poses           []string  `json:"poses,omitempty"`
	ProgramID       string    `json:"programId,omitempty"`
	ProgramWeek     int       `json:"programWeek,omitempty"`
	ProgramDay      int       `json:"programDay,omitempty"`
}

// CompletedBreathing is one finished breathing exercise.
type CompletedBreathing struct {
	ID              string    `json:"id"`
	ExerciseID      string    `json:"exerciseId"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"durationMinutes"`
	CompletedAt     time.Time `json:"completedAt"`
	MoodBefore      *int      `json:"moodBefore,omitempty"`
	MoodAfter       *int      `json:"moodAfter,omitempty"`
}

// FavoriteEvent logs one favorite toggle.
type FavoriteEvent struct {
	ItemID    string    `json:"itemId"`
	Kind      string    `json:"kind"`
	Favorited bool      `json:"favorited"`
	At        time.Time `json:"at"`
}

// RecommendationEvent logs whether a recommended session was accepted.
type RecommendationEvent struct {
	SessionID string    `json:"sessionId"`
	Accepted  bool      `json:"accepted"`
	At        time.Time `json:"at"`
}

// Document is the persisted practice history.
type Document struct {
	TotalSessions    int                   `json:"totalSessions"`
	TotalMinutes     int                   `json:"totalMinutes"`
	Sessions         []CompletedSession    `json:"sessions"`
	Breathing        []CompletedBreathing  `json:"breathing"`
	CurrentStreak    int                   `json:"currentStreak"`
	LongestStreak    int                   `json:"longestStreak"`
	LastPracticeDate string                `json:"lastPracticeDate,omitempty"`
	FavoriteEvents   []FavoriteEvent       `json:"favoriteEvents,omitempty"`
	Recommendations  []RecommendationEvent `json:"recommendations,omitempty"`
}

// NewDocument returns an empty practice history.
func NewDocument() Document {
	return Document{}
}

// RecordSession appends a completed session, bumps the totals, and recomputes
// the streak from the completion's calendar date.
func (d *Document) RecordSession(rec CompletedSession) {
	d.Sessions = append(d.Sessions, rec)
	d.TotalSessions++
	d.TotalMinutes += rec.DurationMinutes
	d.updateStreak(rec.CompletedAt)
}

// RecordBreathing appends a completed breathing exercise. Breathing counts
// toward total minutes but not toward the session streak.
func (d *Document) RecordBreathing(rec CompletedBreathing) {
	d.Breathing = append(d.Breathing, rec)
	d.TotalMinutes += rec.DurationMinutes
}

// LogFavoriteToggle appends to the bounded favorite-event log.
func (d *Document) LogFavoriteToggle(event FavoriteEvent) {
	d.FavoriteEvents = append(d.FavoriteEvents, event)
	if len(d.FavoriteEvents) > HistoryCap {
		d.FavoriteEvents = d.FavoriteEvents[len(d.FavoriteEvents)-HistoryCap:]
	}
}

// LogRecommendation appends to the bounded recommendation log.
func (d *Document) LogRecommendation(event RecommendationEvent) {
	d.Recommendations = append(d.Recommendations, event)
	if len(d.Recommendations) > HistoryCap {
		d.Recommendations = d.Recommendations[len(d.Recommendations)-HistoryCap:]
	}
}

// updateStreak applies the streak rule: the day after the last practice date
// extends the streak, the same day leaves it unchanged, and any other case
// (a gap of two or more days, or the first session ever) resets it to 1.
func (d *Document) updateStreak(completedAt time.Time) {
	date := completedAt.Local().Format(dateLayout)

	switch daysBetween(d.LastPracticeDate, date) {
	case 0:
		// Same calendar day: streak unchanged.
	case 1:
		d.CurrentStreak++
	default:
		d.CurrentStreak = 1
	}

	d.LastPracticeDate = date
	if d.CurrentStreak > d.LongestStreak {
		d.LongestStreak = d.CurrentStreak
	}
}

// daysBetween returns the calendar-day distance from a previous date string
// to the new one, or -1 when there is no valid previous date. Dates are
// compared in UTC so that daylight-saving shifts in the local zone cannot
// stretch or shrink a day.
func daysBetween(prev, next string) int {
	if prev == "" {
		return -1
	}
	prevDay, err := time.Parse(dateLayout, prev)
	if err != nil {
		return -1
	}
	nextDay, err := time.Parse(dateLayout, next)
	if err != nil {
		return -1
	}
	return int(nextDay.Sub(prevDay) / (24 * time.Hour))
}

// Stats summarizes the history for display.
type Stats struct {
	TotalSessions     int
	TotalBreathing    int
	TotalMinutes      int
	CurrentStreak     int
	LongestStreak     int
	MinutesThisWeek   int
	SessionsByWeekday map[time.Weekday]int
	MostPracticed     string
}

// ComputeStats derives display statistics relative to now.
func (d *Document) ComputeStats(now time.Time) Stats {
	stats := Stats{
		TotalSessions:     d.TotalSessions,
		TotalBreathing:    len(d.Breathing),
		TotalMinutes:      d.TotalMinutes,
		CurrentStreak:     d.CurrentStreak,
		LongestStreak:     d.LongestStreak,
		SessionsByWeekday: make(map[time.Weekday]int),
	}

	weekStart := startOfWeek(now)
	counts := make(map[string]int)

	for _, rec := range d.Sessions {
		stats.SessionsByWeekday[rec.CompletedAt.Local().Weekday()]++
		if !rec.CompletedAt.Before(weekStart) {
			stats.MinutesThisWeek += rec.DurationMinutes
		}
		counts[rec.Name]++
	}
	for _, rec := range d.Breathing {
		if !rec.CompletedAt.Before(weekStart) {
			stats.MinutesThisWeek += rec.DurationMinutes
		}
	}

	best := 0
	for name, n := range counts {
		if n > best || (n == best && name < stats.MostPracticed) {
			best = n
			stats.MostPracticed = name
		}
	}
	return stats
}

// startOfWeek returns local midnight of the Monday of now's week.
func startOfWeek(now time.Time) time.Time {
	now = now.Local()
	day := now.Weekday()
	offset := int(day - time.Monday)
	if offset < 0 {
		offset += 7
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return midnight.AddDate(0, 0, -offset)
}
