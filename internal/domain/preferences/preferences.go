// Package preferences defines the user settings documents: preferences,
// favorites, duration overrides, and user-authored custom sessions.
package preferences

import (
	"github.com/sadhanaworks/sadhana/internal/domain/practice"
)

// Theme selects the display theme.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// Kind distinguishes the two favoritable activity types.
type Kind string

const (
	KindSession   Kind = "session"
	KindBreathing Kind = "breathing"
)

// Rest duration bounds in seconds.
const (
	MinRestSeconds = 0
	MaxRestSeconds = 60
)

// ReminderSettings configures the daily practice reminder.
type ReminderSettings struct {
	Enabled bool `json:"enabled"`
	Hour    int  `json:"hour"`
}

// CueSettings configures the transition cues between poses.
type CueSettings struct {
	BeepEnabled      bool `json:"beepEnabled"`
	Volume           int  `json:"volume"`
	FrequencyHz      int  `json:"frequencyHz"`
	DelaySeconds     int  `json:"delaySeconds"`
	VibrationEnabled bool `json:"vibrationEnabled"`
}

// Document is the persisted user preferences.
type Document struct {
	Theme        Theme            `json:"theme"`
	RestSeconds  int              `json:"restSeconds"`
	MoodTracking map[Kind]bool    `json:"moodTracking"`
	Reminder     ReminderSettings `json:"reminder"`
	Language     string           `json:"language"`
	Cues         CueSettings      `json:"cues"`
}

// NewDocument returns the default preferences.
func NewDocument() Document {
	return Document{
		Theme:       ThemeSystem,
		RestSeconds: 10,
		MoodTracking: map[Kind]bool{
			KindSession:   true,
			KindBreathing: true,
		},
		Reminder: ReminderSettings{Enabled: false, Hour: 8},
		Language: "en",
		Cues: CueSettings{
			BeepEnabled:      true,
			Volume:           70,
			FrequencyHz:      440,
			DelaySeconds:     0,
			VibrationEnabled: false,
		},
	}
}

// SetRestSeconds clamps the rest duration to the allowed bounds.
func (d *Document) SetRestSeconds(seconds int) {
	if seconds < MinRestSeconds {
		seconds = MinRestSeconds
	}
	if seconds > MaxRestSeconds {
		seconds = MaxRestSeconds
	}
	d.RestSeconds = seconds
}

// MoodTrackingEnabled reports whether mood prompts are on for the given kind.
func (d *Document) MoodTrackingEnabled(kind Kind) bool {
	if d.MoodTracking == nil {
		return false
	}
	return d.MoodTracking[kind]
}

// SetMoodTracking toggles mood prompts for the given kind.
func (d *Document) SetMoodTracking(kind Kind, enabled bool) {
	if d.MoodTracking == nil {
		d.MoodTracking = make(map[Kind]bool)
	}
	d.MoodTracking[kind] = enabled
}

// Favorites is the persisted favorite-ID sets, one per kind.
type Favorites struct {
	Sessions  []string `json:"sessions"`
	Breathing []string `json:"breathing"`
}

// NewFavorites returns empty favorite sets.
func NewFavorites() Favorites {
	return Favorites{}
}

// Contains reports whether the ID is favorited under the given kind.
func (f *Favorites) Contains(id string, kind Kind) bool {
	for _, v := range f.set(kind) {
		if v == id {
			return true
		}
	}
	return false
}

// Toggle flips the favorite state of the ID and reports the new state.
func (f *Favorites) Toggle(id string, kind Kind) bool {
	current := f.set(kind)
	for i, v := range current {
		if v == id {
			f.assign(kind, append(current[:i], current[i+1:]...))
			return false
		}
	}
	f.assign(kind, append(current, id))
	return true
}

func (f *Favorites) set(kind Kind) []string {
	if kind == KindBreathing {
		return f.Breathing
	}
	return f.Sessions
}

func (f *Favorites) assign(kind Kind, ids []string) {
	if kind == KindBreathing {
		f.Breathing = ids
		return
	}
	f.Sessions = ids
}

// Overrides maps session ID to pose position to an overridden hold duration.
type Overrides struct {
	Sessions map[string]map[int]int `json:"sessions"`
}

// NewOverrides returns an empty override map.
func NewOverrides() Overrides {
	return Overrides{Sessions: make(map[string]map[int]int)}
}

// Set records an override, floored at practice.MinPoseSeconds.
func (o *Overrides) Set(sessionID string, pos, seconds int) {
	if seconds < practice.MinPoseSeconds {
		seconds = practice.MinPoseSeconds
	}
	if o.Sessions == nil {
		o.Sessions = make(map[string]map[int]int)
	}
	if o.Sessions[sessionID] == nil {
		o.Sessions[sessionID] = make(map[int]int)
	}
	o.Sessions[sessionID][pos] = seconds
}

// For returns the override map for one session; may be nil.
func (o *Overrides) For(sessionID string) map[int]int {
	return o.Sessions[sessionID]
}

// Remove drops all overrides for one session.
func (o *Overrides) Remove(sessionID string) {
	delete(o.Sessions, sessionID)
}

// CustomSessions is the persisted set of user-authored sessions.
type CustomSessions struct {
	Sessions []practice.Session `json:"sessions"`
}

// NewCustomSessions returns an empty custom-session list.
func NewCustomSessions() CustomSessions {
	return CustomSessions{}
}

// Find returns the custom session with the given ID, if present.
func (c *CustomSessions) Find(id string) (practice.Session, bool) {
	for _, s := range c.Sessions {
		if s.ID == id {
			return s, true
		}
	}
	return practice.Session{}, false
}

// Add appends a session, replacing any existing session with the same ID.
func (c *CustomSessions) Add(session practice.Session) {
	for i, s := range c.Sessions {
		if s.ID == session.ID {
			c.Sessions[i] = session
			return
		}
	}
	c.Sessions = append(c.Sessions, session)
}

// Remove drops the session with the given ID and reports whether it existed.
func (c *CustomSessions) Remove(id string) bool {
	for i, s := range c.Sessions {
		if s.ID == id {
			c.Sessions = append(c.Sessions[:i], c.Sessions[i+1:]...)
			return true
		}
	}
	return false
}
