package session

import (
	"github.com/leighmacdonald/kmon/internal/kernel"
	"github.com/leighmacdonald/kmon/internal/ui/input"
)

// Pending is a module command waiting for confirmation.
type Pending struct {
	Command kernel.Command
	Module  string
}

func (p Pending) IsNone() bool {
	return p.Command.IsNone()
}

// cancelNudge returns the list index and scroll direction applied when a pending command is
// dismissed. The two steps cancel out so the highlighted row stays put while the module
// information is reloaded for it.
func cancelNudge(index int) (int, input.Direction) {
	if index != 0 {
		return index - 1, input.Down
	}

	return index + 1, input.Up
}
