package practice

import (
	domainErrors "github.com/sadhanaworks/sadhana/internal/domain/errors"
)

// State identifies where the practice machine is in its run.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateResting   State = "resting"
	StateCompleted State = "completed"
)

// MinPoseSeconds is the floor applied to per-pose duration overrides.
const MinPoseSeconds = 15

// Summary captures what a completed run hands to the progress store.
type Summary struct {
	SessionID       string
	SessionName     string
	Poses           []string
	DurationSeconds int
}

// Machine sequences a session's poses with optional rest periods between them.
// It is driven by Tick calls, one per elapsed second; pausing freezes the
// countdown without changing the pose index.
type Machine struct {
	session     Session
	restSeconds int
	overrides   map[int]int

	state     State
	poseIndex int
	remaining int
	paused    bool
	elapsed   int
}

// NewMachine creates a machine for the session. Duration overrides are keyed
// by pose position and floored at MinPoseSeconds.
func NewMachine(session Session, restSeconds int, overrides map[int]int) (*Machine, error) {
	if len(session.Poses) == 0 {
		return nil, domainErrors.ErrSessionNoPoses
	}
	if restSeconds < 0 {
		restSeconds = 0
	}

	floored := make(map[int]int, len(overrides))
	for pos, seconds := range overrides {
		if seconds < MinPoseSeconds {
			seconds = MinPoseSeconds
		}
		floored[pos] = seconds
	}

	return &Machine{
		session:     session,
		restSeconds: restSeconds,
		overrides:   floored,
		state:       StateIdle,
	}, nil
}

// Start begins the first pose. Starting a machine that already ran is a no-op.
func (m *Machine) Start() {
	if m.state != StateIdle {
		return
	}
	m.state = StateRunning
	m.poseIndex = 0
	m.remaining = m.poseDuration(0)
}

// Tick advances the countdown by one second. Paused, idle, and completed
// machines do not advance.
func (m *Machine) Tick() {
	if m.paused || m.state == StateIdle || m.state == StateCompleted {
		return
	}

	m.elapsed++
	m.remaining--
	if m.remaining > 0 {
		return
	}

	switch m.state {
	case StateRunning:
		if m.poseIndex+1 >= len(m.session.Poses) {
			m.state = StateCompleted
			return
		}
		if m.restSeconds > 0 {
			m.state = StateResting
			m.remaining = m.restSeconds
			return
		}
		m.advancePose()

	case StateResting:
		m.advancePose()
	}
}

// Pause freezes the countdown.
func (m *Machine) Pause() {
	if m.state == StateRunning || m.state == StateResting {
		m.paused = true
	}
}

// Resume unfreezes the countdown.
func (m *Machine) Resume() {
	m.paused = false
}

// SkipRest forces an immediate transition out of the rest period.
func (m *Machine) SkipRest() {
	if m.state != StateResting {
		return
	}
	m.advancePose()
}

// advancePose moves to the next pose's countdown.
func (m *Machine) advancePose() {
	m.poseIndex++
	m.state = StateRunning
	m.remaining = m.poseDuration(m.poseIndex)
}

// poseDuration returns the effective duration for the pose at position pos.
func (m *Machine) poseDuration(pos int) int {
	if seconds, ok := m.overrides[pos]; ok {
		return seconds
	}
	return m.session.Poses[pos].Seconds
}

// State returns the current machine state.
func (m *Machine) State() State {
	return m.state
}

// Paused reports whether the countdown is frozen.
func (m *Machine) Paused() bool {
	return m.paused
}

// PoseIndex returns the current pose position.
func (m *Machine) PoseIndex() int {
	return m.poseIndex
}

// CurrentPose returns the pose being held, or nil when not running.
func (m *Machine) CurrentPose() *Pose {
	if m.state != StateRunning && m.state != StateResting {
		return nil
	}
	if m.poseIndex >= len(m.session.Poses) {
		return nil
	}
	pose := m.session.Poses[m.poseIndex]
	return &pose
}

// Remaining returns the seconds left in the current pose or rest period.
func (m *Machine) Remaining() int {
	return m.remaining
}

// Elapsed returns the unpaused seconds spent so far, rest included.
func (m *Machine) Elapsed() int {
	return m.elapsed
}

// Summary returns the run summary. Only meaningful once completed.
func (m *Machine) Summary() Summary {
	poses := make([]string, 0, len(m.session.Poses))
	limit := m.poseIndex
	if m.state == StateCompleted {
		limit = len(m.session.Poses) - 1
	}
	for i := 0; i <= limit && i < len(m.session.Poses); i++ {
		poses = append(poses, m.session.Poses[i].Name)
	}

	return Summary{
		SessionID:       m.session.ID,
		SessionName:     m.session.Name,
		Poses:           poses,
		DurationSeconds: m.elapsed,
	}
}
