// Package practice defines the session and breathing-exercise models and the
// timed practice state machine.
package practice

import (
	"errors"
	"fmt"
	"strings"
)

// Pose is one step of a session with its default hold duration.
type Pose struct {
	Name    string `json:"name" yaml:"name"`
	Seconds int    `json:"seconds" yaml:"seconds"`
}

// Session is an ordered list of poses practiced in one sitting.
type Session struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Style       string `json:"style,omitempty" yaml:"style"`
	Description string `json:"description,omitempty" yaml:"description"`
	Poses       []Pose `json:"poses" yaml:"poses"`
}

// BreathingExercise is a timed breathing pattern repeated for a number of rounds.
type BreathingExercise struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Description    string `json:"description,omitempty" yaml:"description"`
	InhaleSeconds  int    `json:"inhaleSeconds" yaml:"inhale_seconds"`
	HoldInSeconds  int    `json:"holdInSeconds" yaml:"hold_in_seconds"`
	ExhaleSeconds  int    `json:"exhaleSeconds" yaml:"exhale_seconds"`
	HoldOutSeconds int    `json:"holdOutSeconds" yaml:"hold_out_seconds"`
	Rounds         int    `json:"rounds" yaml:"rounds"`
}

// Validate checks the session structure.
func (s *Session) Validate() error {
	var errs []error

	if strings.TrimSpace(s.ID) == "" {
		errs = append(errs, errors.New("session id is required"))
	}
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, errors.New("session name is required"))
	}
	if len(s.Poses) == 0 {
		errs = append(errs, errors.New("at least one pose is required"))
	}
	for i, pose := range s.Poses {
		if strings.TrimSpace(pose.Name) == "" {
			errs = append(errs, fmt.Errorf("pose %d: name is required", i))
		}
		if pose.Seconds <= 0 {
			errs = append(errs, fmt.Errorf("pose %d (%s): seconds must be positive", i, pose.Name))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// TotalSeconds returns the summed default pose durations, excluding rest.
func (s *Session) TotalSeconds() int {
	total := 0
	for _, pose := range s.Poses {
		total += pose.Seconds
	}
	return total
}

// Validate checks the breathing exercise structure.
func (e *BreathingExercise) Validate() error {
	var errs []error

	if strings.TrimSpace(e.ID) == "" {
		errs = append(errs, errors.New("exercise id is required"))
	}
	if strings.TrimSpace(e.Name) == "" {
		errs = append(errs, errors.New("exercise name is required"))
	}
	if e.InhaleSeconds <= 0 || e.ExhaleSeconds <= 0 {
		errs = append(errs, errors.New("inhale and exhale durations must be positive"))
	}
	if e.HoldInSeconds < 0 || e.HoldOutSeconds < 0 {
		errs = append(errs, errors.New("hold durations must be non-negative"))
	}
	if e.Rounds <= 0 {
		errs = append(errs, errors.New("rounds must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// CycleSeconds returns the duration of one breathing round.
func (e *BreathingExercise) CycleSeconds() int {
	return e.InhaleSeconds + e.HoldInSeconds + e.ExhaleSeconds + e.HoldOutSeconds
}

// TotalSeconds returns the duration of the full exercise.
func (e *BreathingExercise) TotalSeconds() int {
	return e.CycleSeconds() * e.Rounds
}
