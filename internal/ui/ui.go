package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/leighmacdonald/kmon/internal/event"
	"github.com/leighmacdonald/kmon/internal/session"
	zone "github.com/lrstanley/bubblezone"
)

var ErrUIExit = errors.New("ui error returned")

// UI owns the terminal for the lifetime of a session. The terminal is put into raw mode on
// the alternate screen with mouse capture and is restored on every exit path of Run.
type UI struct {
	program *tea.Program
}

func New(ctx context.Context, sess *session.Session, events *event.Aggregator, keys event.KeyChan,
	reconfigure Reconfigure,
) *UI {
	zone.NewGlobal()

	return &UI{
		program: tea.NewProgram(
			newRootModel(ctx, sess, events, keys, reconfigure),
			tea.WithAltScreen(),
			tea.WithMouseCellMotion(),
			tea.WithContext(ctx),
			tea.WithFPS(30)),
	}
}

func (t UI) Run() error {
	final, err := t.program.Run()
	if err != nil {
		return errors.Join(err, ErrUIExit)
	}

	if model, ok := final.(rootModel); ok && model.err != nil {
		return errors.Join(model.err, ErrUIExit)
	}

	return nil
}

func (t UI) Send(msg tea.Msg) {
	t.program.Send(msg)
}
