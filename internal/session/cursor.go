package session

import "github.com/mattn/go-runewidth"

const (
	// InputRow is the terminal row of the prompt text, just below the panel border.
	InputRow = 1
	// PromptOffset is the column at which the query starts, just after the panel border.
	PromptOffset = 1
)

// Cursor is where the terminal caret is drawn for the current frame.
type Cursor struct {
	X       int
	Y       int
	Visible bool
}

// CursorPosition places the caret after the last character of the query while text is
// being entered and hides it otherwise. It must be evaluated for every frame.
func CursorPosition(state State) Cursor {
	if state.Mode.IsNone() {
		return Cursor{}
	}

	return Cursor{
		X:       PromptOffset + runewidth.StringWidth(state.Query),
		Y:       InputRow,
		Visible: true,
	}
}
