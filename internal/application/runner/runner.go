// Package runner drives timed practice runs: it ticks the practice machine,
// renders countdown progress, and applies user commands while the run is
// live.
package runner

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	domainErrors "github.com/sadhanaworks/sadhana/internal/domain/errors"
	"github.com/sadhanaworks/sadhana/internal/domain/practice"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/logging"
	"github.com/sadhanaworks/sadhana/internal/infrastructure/tracing"
)

// Command is a user action applied to a live run.
type Command string

const (
	CmdPause  Command = "pause"
	CmdResume Command = "resume"
	CmdSkip   Command = "skip"
	CmdQuit   Command = "quit"
)

// ParseCommand maps an input line to a run command.
func ParseCommand(line string) (Command, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "p", "pause":
		return CmdPause, true
	case "r", "resume":
		return CmdResume, true
	case "s", "skip":
		return CmdSkip, true
	case "q", "quit", "exit":
		return CmdQuit, true
	}
	return "", false
}

// Result is the outcome of a run.
type Result struct {
	Summary   practice.Summary
	Completed bool
}

// Options configures a run.
type Options struct {
	RestSeconds int
	Overrides   map[int]int
	Tick        time.Duration
	Out         io.Writer
	Commands    <-chan Command
}

// Runner executes session runs.
type Runner struct {
	log    *logging.Logger
	tracer *tracing.Tracer
}

// NewRunner creates a runner.
func NewRunner(log *logging.Logger, tracer *tracing.Tracer) *Runner {
	return &Runner{log: log, tracer: tracer}
}

// Run executes the session until it completes, the user quits, or ctx is
// cancelled. A quit mid-run returns the partial summary with Completed false.
func (r *Runner) Run(ctx context.Context, session practice.Session, opts Options) (Result, error) {
	machine, err := practice.NewMachine(session, opts.RestSeconds, opts.Overrides)
	if err != nil {
		return Result{}, err
	}

	tick := opts.Tick
	if tick <= 0 {
		tick = time.Second
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	ctx, span := r.tracer.StartPracticeSpan(ctx, session.ID, session.Name)
	span.SetPoseCount(len(session.Poses))

	machine.Start()
	r.announcePose(out, machine, session)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	lastIndex := machine.PoseIndex()
	lastState := machine.State()

	for {
		select {
		case <-ctx.Done():
			span.EndWithError(ctx.Err())
			return Result{Summary: machine.Summary()}, ctx.Err()

		case cmd, ok := <-opts.Commands:
			if !ok {
				opts.Commands = nil
				continue
			}
			switch cmd {
			case CmdPause:
				machine.Pause()
				fmt.Fprintln(out, "Paused. Type resume to continue.")
			case CmdResume:
				machine.Resume()
				fmt.Fprintln(out, "Resumed.")
			case CmdSkip:
				machine.SkipRest()
			case CmdQuit:
				summary := machine.Summary()
				span.SetDuration(summary.DurationSeconds)
				span.EndWithError(domainErrors.ErrPracticeFinished)
				r.log.InfoContext(ctx, "practice abandoned",
					"session_id", session.ID,
					"elapsed_seconds", summary.DurationSeconds,
				)
				return Result{Summary: summary}, nil
			}

		case <-ticker.C:
			machine.Tick()
		}

		if machine.State() == practice.StateCompleted {
			summary := machine.Summary()
			span.SetDuration(summary.DurationSeconds)
			span.End()
			fmt.Fprintf(out, "\nCompleted %s in %s.\n", session.Name, formatDuration(summary.DurationSeconds))
			r.log.InfoContext(ctx, "practice completed",
				"session_id", session.ID,
				"duration_seconds", summary.DurationSeconds,
			)
			return Result{Summary: summary, Completed: true}, nil
		}

		if machine.PoseIndex() != lastIndex || machine.State() != lastState {
			lastIndex = machine.PoseIndex()
			lastState = machine.State()
			if machine.State() == practice.StateResting {
				fmt.Fprintf(out, "Rest for %ds. Type skip to move on.\n", machine.Remaining())
			} else {
				r.announcePose(out, machine, session)
			}
		}
	}
}

// announcePose prints the pose that just started.
func (r *Runner) announcePose(out io.Writer, machine *practice.Machine, session practice.Session) {
	pose := machine.CurrentPose()
	if pose == nil {
		return
	}
	fmt.Fprintf(out, "Pose %d/%d: %s (%s)\n",
		machine.PoseIndex()+1, len(session.Poses), pose.Name, formatDuration(machine.Remaining()))
}

// formatDuration renders seconds as 1m30s or 45s.
func formatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds%60 == 0 {
		return fmt.Sprintf("%dm", seconds/60)
	}
	return fmt.Sprintf("%dm%02ds", seconds/60, seconds%60)
}
