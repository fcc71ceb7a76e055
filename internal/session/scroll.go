package session

import (
	"github.com/leighmacdonald/kmon/internal/ui/input"
	"golang.org/x/exp/constraints"
)

func clamp[T constraints.Integer](v, low, high T) T {
	if high < low {
		low, high = high, low
	}

	return min(high, max(low, v))
}

// ScrollState is the position within one scrollable panel. For the module list Index is the
// highlighted row; for text panels it is the first visible line.
type ScrollState struct {
	Index int
}

// Scroll moves the position within a collection of length entries. Top and Bottom jump to
// the extremes. On an empty collection nothing changes.
func (s *ScrollState) Scroll(dir input.Direction, length int) {
	if length <= 0 {
		return
	}

	switch dir {
	case input.Up:
		s.Index = clamp(s.Index-1, 0, length-1)
	case input.Down:
		s.Index = clamp(s.Index+1, 0, length-1)
	case input.Top:
		s.Index = 0
	case input.Bottom:
		s.Index = length - 1
	case input.Left, input.Right:
	}
}

// Clamp pulls the position back into range after the collection shrank.
func (s *ScrollState) Clamp(length int) {
	if length <= 0 {
		return
	}

	s.Index = clamp(s.Index, 0, length-1)
}

func (s *ScrollState) Reset() {
	s.Index = 0
}

// Window returns the half-open range of rows to draw so that Index stays visible in a
// viewport of height rows.
func (s ScrollState) Window(height int, length int) (int, int) {
	if height <= 0 || length <= 0 {
		return 0, 0
	}

	if length <= height {
		return 0, length
	}

	start := clamp(s.Index-height+1, 0, length-height)

	return start, start + height
}
