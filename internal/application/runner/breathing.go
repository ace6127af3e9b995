package runner

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sadhanaworks/sadhana/internal/domain/practice"
)

// phase is one segment of a breathing round.
type phase struct {
	name    string
	seconds int
}

// BreathingResult is the outcome of a guided breathing run.
type BreathingResult struct {
	ElapsedSeconds int
	Rounds         int
	Completed      bool
}

// RunBreathing guides the exercise round by round until it finishes, the
// user quits, or ctx is cancelled. Pause and resume apply; skip is ignored.
func (r *Runner) RunBreathing(ctx context.Context, ex practice.BreathingExercise, opts Options) (BreathingResult, error) {
	if err := ex.Validate(); err != nil {
		return BreathingResult{}, err
	}

	tick := opts.Tick
	if tick <= 0 {
		tick = time.Second
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	ctx, span := r.tracer.StartPracticeSpan(ctx, ex.ID, ex.Name)

	phases := breathingPhases(ex)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	result := BreathingResult{}
	paused := false

	fmt.Fprintf(out, "%s: %d rounds of %ds.\n", ex.Name, ex.Rounds, ex.CycleSeconds())

	for round := 1; round <= ex.Rounds; round++ {
		fmt.Fprintf(out, "Round %d/%d\n", round, ex.Rounds)
		for _, p := range phases {
			fmt.Fprintf(out, "  %s for %ds\n", p.name, p.seconds)
			remaining := p.seconds
			for remaining > 0 {
				select {
				case <-ctx.Done():
					span.SetDuration(result.ElapsedSeconds)
					span.EndWithError(ctx.Err())
					return result, ctx.Err()

				case cmd, ok := <-opts.Commands:
					if !ok {
						opts.Commands = nil
						continue
					}
					switch cmd {
					case CmdPause:
						paused = true
						fmt.Fprintln(out, "Paused. Type resume to continue.")
					case CmdResume:
						paused = false
					case CmdQuit:
						span.SetDuration(result.ElapsedSeconds)
						span.End()
						r.log.InfoContext(ctx, "breathing abandoned",
							"exercise_id", ex.ID,
							"rounds_done", result.Rounds,
						)
						return result, nil
					}

				case <-ticker.C:
					if paused {
						continue
					}
					remaining--
					result.ElapsedSeconds++
				}
			}
		}
		result.Rounds = round
	}

	result.Completed = true
	span.SetDuration(result.ElapsedSeconds)
	span.End()
	fmt.Fprintf(out, "\nCompleted %s.\n", ex.Name)
	r.log.InfoContext(ctx, "breathing completed",
		"exercise_id", ex.ID,
		"duration_seconds", result.ElapsedSeconds,
	)
	return result, nil
}

// breathingPhases expands the exercise pattern, dropping zero-length holds.
func breathingPhases(ex practice.BreathingExercise) []phase {
	all := []phase{
		{name: "Inhale", seconds: ex.InhaleSeconds},
		{name: "Hold", seconds: ex.HoldInSeconds},
		{name: "Exhale", seconds: ex.ExhaleSeconds},
		{name: "Hold", seconds: ex.HoldOutSeconds},
	}
	out := make([]phase, 0, len(all))
	for _, p := range all {
		if p.seconds > 0 {
			out = append(out, p)
		}
	}
	return out
}
