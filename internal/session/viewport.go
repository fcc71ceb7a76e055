package session

import (
	"strings"

	"github.com/leighmacdonald/kmon/internal/ui/input"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// Viewport is the inner size of the text panels as drawn. A zero size is unknown, in which
// case every line is treated as a scroll position.
type Viewport struct {
	InfoWidth  int
	InfoHeight int
	LogHeight  int
}

// offsets is the number of first-line positions for lines of text shown height rows at a time.
func offsets(lines int, height int) int {
	switch {
	case lines <= 0:
		return 0
	case height <= 0:
		return lines
	case lines <= height:
		return 1
	default:
		return lines - height + 1
	}
}

// Resize records the drawn panel sizes. The activity log stays on the newest line if it was
// there before.
func (s *Session) Resize(view Viewport) {
	following := s.followingLogs()
	s.view = view

	s.State.Info.Clamp(s.infoOffsets())
	s.syncLogs(following)
}

// InfoText is the module information wrapped to the panel width.
func (s *Session) InfoText() string {
	if s.view.InfoWidth <= 0 {
		return s.current.Text
	}

	return wrap.String(wordwrap.String(s.current.Text, s.view.InfoWidth), s.view.InfoWidth)
}

// InfoLines is the number of lines in the module information panel.
func (s *Session) InfoLines() int {
	text := s.InfoText()
	if text == "" {
		return 0
	}

	return strings.Count(text, "\n") + 1
}

func (s *Session) infoOffsets() int {
	return offsets(s.InfoLines(), s.view.InfoHeight)
}

func (s *Session) logOffsets() int {
	return offsets(len(s.snapshot.Logs), s.view.LogHeight)
}

// followingLogs reports whether the newest log line is on screen.
func (s *Session) followingLogs() bool {
	return s.State.Logs.Index >= s.logOffsets()-1
}

func (s *Session) syncLogs(following bool) {
	if following {
		s.State.Logs.Scroll(input.Bottom, s.logOffsets())

		return
	}

	s.State.Logs.Clamp(s.logOffsets())
}
