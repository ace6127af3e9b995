package commands

import (
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/sadhanaworks/sadhana/internal/application/runner"
)

// promptRating asks for a 1-5 rating. Empty or invalid input skips it.
func promptRating(label string) *int {
	rl, err := readline.New(label + " (1-5, enter to skip): ")
	if err != nil {
		return nil
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err != nil {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > 5 {
		return nil
	}
	return &n
}

// promptConfirm asks a yes/no question, defaulting to no.
func promptConfirm(label string) bool {
	rl, err := readline.New(label + " [y/N]: ")
	if err != nil {
		return false
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// commandChannel reads run commands from the terminal until the reader is
// closed or the user quits. Unrecognized lines print a short reminder.
func commandChannel(app *App) (<-chan runner.Command, func(), error) {
	rl, err := readline.New("> ")
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan runner.Command)
	go func() {
		defer close(ch)
		for {
			line, err := rl.Readline()
			if err == io.EOF || err == readline.ErrInterrupt {
				ch <- runner.CmdQuit
				return
			}
			if err != nil {
				return
			}
			cmd, ok := runner.ParseCommand(line)
			if !ok {
				if strings.TrimSpace(line) != "" {
					app.Formatter.Println("Commands: pause, resume, skip, quit")
				}
				continue
			}
			ch <- cmd
			if cmd == runner.CmdQuit {
				return
			}
		}
	}()

	return ch, func() { _ = rl.Close() }, nil
}
