package session

import "slices"

// ring is an explicit ordering of values that can be stepped through with wraparound.
type ring[T comparable] []T

// step moves delta positions from current. A value missing from the ring starts from the
// first entry when moving forward and from the last when moving backward.
func (r ring[T]) step(current T, delta int) T {
	count := len(r)
	index := slices.Index(r, current)
	if index == -1 {
		if delta < 0 {
			return r[count-1]
		}

		return r[0]
	}

	return r[((index+delta)%count+count)%count]
}

func (r ring[T]) next(current T) T {
	return r.step(current, 1)
}

func (r ring[T]) prev(current T) T {
	return r.step(current, -1)
}

// Block is one of the panels of the dashboard.
type Block int

const (
	UserInput Block = iota
	KernelInfo
	ModuleTable
	ModuleInfo
	Activities
)

var blockOrder = ring[Block]{UserInput, KernelInfo, ModuleTable, ModuleInfo, Activities}

// Blocks returns every panel in navigation order.
func Blocks() []Block {
	return slices.Clone(blockOrder)
}

// Next returns the following panel, wrapping from the last to the first.
func (b Block) Next() Block {
	return blockOrder.next(b)
}

// Prev returns the preceding panel, wrapping from the first to the last.
func (b Block) Prev() Block {
	return blockOrder.prev(b)
}

// String is the zone identifier of the panel.
func (b Block) String() string {
	switch b {
	case UserInput:
		return "input"
	case KernelInfo:
		return "kernel"
	case ModuleTable:
		return "modules"
	case ModuleInfo:
		return "info"
	case Activities:
		return "activities"
	default:
		return "unknown"
	}
}

// BlockFromZone resolves a zone identifier produced by String.
func BlockFromZone(zone string) (Block, bool) {
	for _, block := range blockOrder {
		if block.String() == zone {
			return block, true
		}
	}

	return 0, false
}

// InputMode describes whether the prompt is accepting text and what it is used for.
type InputMode int

const (
	NoInput InputMode = iota
	Search
	Load
)

// activeModes excludes NoInput so cycling between modes never leaves the prompt.
var activeModes = ring[InputMode]{Search, Load}

func (m InputMode) IsNone() bool {
	return m == NoInput
}

// Next cycles to the following active mode.
func (m InputMode) Next() InputMode {
	return activeModes.next(m)
}

// Prev cycles to the preceding active mode. NoInput is never returned.
func (m InputMode) Prev() InputMode {
	prev := activeModes.prev(m)
	if prev.IsNone() {
		return activeModes[len(activeModes)-1]
	}

	return prev
}

func (m InputMode) String() string {
	switch m {
	case Search:
		return "Search"
	case Load:
		return "Load"
	case NoInput:
		fallthrough
	default:
		return "None"
	}
}
