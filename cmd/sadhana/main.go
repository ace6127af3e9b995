// Sadhana CLI entry point
//
// Sadhana is a local-first yoga and breathing practice tracker. It times
// sessions pose by pose, keeps practice history and streaks, and stores
// everything on the user's machine with full export and import.
package main

import "github.com/sadhanaworks/sadhana/internal/presentation/cli/commands"

func main() {
	commands.Execute()
}
