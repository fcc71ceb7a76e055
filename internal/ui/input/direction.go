package input

// Direction defines the directions the users can move the selection or a panel in.
type Direction int

const (
	Up Direction = iota //nolint:varnamelen
	Down
	Left
	Right
	// Top and Bottom jump to the first and last entry of a list.
	Top
	Bottom
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	default:
		return "unknown"
	}
}
