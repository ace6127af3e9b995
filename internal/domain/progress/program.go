package progress

import "fmt"

// ProgramState tracks where a user is inside one multi-week program.
type ProgramState struct {
	Week          int      `json:"week"`
	Day           int      `json:"day"`
	CompletedDays []string `json:"completedDays,omitempty"`
}

// ProgramDocument is the persisted per-program progress map.
type ProgramDocument struct {
	Programs map[string]ProgramState `json:"programs"`
}

// NewProgramDocument returns an empty program-progress document.
func NewProgramDocument() ProgramDocument {
	return ProgramDocument{Programs: make(map[string]ProgramState)}
}

// MarkCompleted records the given program day as done and advances the
// current position to it. Marking an already-completed day is idempotent.
func (d *ProgramDocument) MarkCompleted(programID string, week, day int) {
	if d.Programs == nil {
		d.Programs = make(map[string]ProgramState)
	}

	state := d.Programs[programID]
	marker := dayMarker(week, day)
	for _, done := range state.CompletedDays {
		if done == marker {
			return
		}
	}
	state.CompletedDays = append(state.CompletedDays, marker)
	state.Week = week
	state.Day = day
	d.Programs[programID] = state
}

// Completed reports whether the given program day has been finished.
func (d *ProgramDocument) Completed(programID string, week, day int) bool {
	state, ok := d.Programs[programID]
	if !ok {
		return false
	}
	marker := dayMarker(week, day)
	for _, done := range state.CompletedDays {
		if done == marker {
			return true
		}
	}
	return false
}

func dayMarker(week, day int) string {
	return fmt.Sprintf("w%dd%d", week, day)
}
