package event

import "unicode/utf8"

// Key is a single keystroke as delivered by the terminal. Name follows the bubbletea
// naming convention ("q", "ctrl+c", "enter", "pgup", "shift+tab", ...) so it can be
// matched directly against key.Binding values.
type Key struct {
	Name string
	// Runes holds the printable characters of the keystroke. It is empty for control
	// and navigation keys and for alt-modified characters.
	Runes []rune
	// Zone is set for pointer input and names the panel that was clicked.
	Zone string
}

// ClickName is the pseudo key name used for a mouse click on a named panel.
const ClickName = "click"

// String implements fmt.Stringer, which is what key.Matches expects.
func (k Key) String() string {
	return k.Name
}

// Printable reports whether the key carries text that can be typed into a buffer.
func (k Key) Printable() bool {
	return len(k.Runes) > 0
}

// Named builds a non-printable key such as "enter" or "ctrl+l".
func Named(name string) Key {
	return Key{Name: name}
}

// Char builds a printable key for a single rune.
func Char(r rune) Key {
	return Key{Name: string(r), Runes: []rune{r}}
}

// Text builds a printable key from a string, used for pasted or composed input.
func Text(value string) Key {
	if utf8.RuneCountInString(value) == 1 {
		r, _ := utf8.DecodeRuneInString(value)

		return Char(r)
	}

	return Key{Name: value, Runes: []rune(value)}
}

// Click builds a pointer event for the panel identified by zone.
func Click(zone string) Key {
	return Key{Name: ClickName, Zone: zone}
}
