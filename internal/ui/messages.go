package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/leighmacdonald/kmon/internal/config"
	"github.com/leighmacdonald/kmon/internal/event"
)

type eventMsg struct {
	event event.Event
}

// fatalMsg ends the program with an error.
type fatalMsg struct {
	err error
}

// ConfigMsg carries a reloaded configuration.
type ConfigMsg struct {
	Config config.Config
}

// waitForEvent performs the single blocking receive of one loop iteration.
func waitForEvent(ctx context.Context, events *event.Aggregator) tea.Cmd {
	return func() tea.Msg {
		evt, err := events.Next(ctx)
		if err != nil {
			return fatalMsg{err: err}
		}

		return eventMsg{event: evt}
	}
}
