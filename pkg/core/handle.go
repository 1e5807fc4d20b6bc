package core

import "strconv"

// Handle is a stable reference to an arena slot. The generation detects
// reuse: a handle taken before its element was disposed never resolves to
// the slot's next occupant. The zero Handle refers to nothing.
type Handle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h refers to nothing.
func (h Handle) IsZero() bool {
	return h.generation == 0
}

// Index returns the slot index.
func (h Handle) Index() uint32 {
	return h.index
}

// Generation returns the slot generation the handle was issued for.
func (h Handle) Generation() uint32 {
	return h.generation
}

func (h Handle) String() string {
	if h.IsZero() {
		return "#nil"
	}
	return "#" + strconv.FormatUint(uint64(h.index), 10) + ":" + strconv.FormatUint(uint64(h.generation), 10)
}
