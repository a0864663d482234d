package lightsensor

import "sync/atomic"

// DebounceMillis is the minimum time between accepted press edges of the physical button.
const DebounceMillis = 200

// EdgeChannel is a single-slot, latest-value cell between the edge interrupt
// (one producer) and the sampling loop (one consumer). Several presses between two
// samples collapse into one.
type EdgeChannel struct {
	pressed atomic.Uint32
}

// Signal records a press edge.
func (c *EdgeChannel) Signal() {
	c.pressed.Store(1)
}

// Take returns 1 if a press was recorded since the last Take, 0 otherwise, and clears it.
func (c *EdgeChannel) Take() uint8 {
	return uint8(c.pressed.Swap(0))
}

// Reset clears any pending press.
func (c *EdgeChannel) Reset() {
	c.pressed.Store(0)
}

// EdgeKind selects the behaviour of the edge handler.
type EdgeKind uint8

const (
	EdgeDebounced EdgeKind = iota
	EdgeDebouncedNoClick
	EdgeAutofire
	EdgeAutofireNoClick
)

func (k EdgeKind) debounced() bool {
	return k == EdgeDebounced || k == EdgeDebouncedNoClick
}

func (k EdgeKind) clicks() bool {
	return k == EdgeDebounced || k == EdgeAutofire
}

func (k EdgeKind) String() string {
	switch k {
	case EdgeDebounced:
		return "debounced"
	case EdgeDebouncedNoClick:
		return "debounced-noclick"
	case EdgeAutofire:
		return "autofire"
	case EdgeAutofireNoClick:
		return "autofire-noclick"
	}
	return "unknown"
}

// EdgeHandler runs in interrupt context on every rising or falling edge of the
// button/autofire line. It never blocks and never allocates.
type EdgeHandler struct {
	kind    EdgeKind
	line    interface{ EdgeLevel() bool }
	clock   Clock
	pointer Pointer
	edges   *EdgeChannel

	// lastEdge is only touched from Handle. A re-entrant edge interrupt could observe
	// it half-written on targets without 32-bit atomic stores; this is accepted rather
	// than masking interrupts inside the handler.
	lastEdge uint32
}

// NewEdgeHandler builds a handler of the given kind. A nil pointer disables clicks.
func NewEdgeHandler(kind EdgeKind, hw Hardware, clock Clock, pointer Pointer, edges *EdgeChannel) *EdgeHandler {
	if pointer == nil {
		pointer = nopPointer{}
	}
	return &EdgeHandler{
		kind:    kind,
		line:    hw,
		clock:   clock,
		pointer: pointer,
		edges:   edges,
	}
}

// Kind returns the handler variant.
func (h *EdgeHandler) Kind() EdgeKind {
	return h.kind
}

// Handle processes one edge.
//
// Press edges on a debounced line are accepted only when at least DebounceMillis
// have elapsed since the previous edge of either direction. Release edges always
// reach the pointer so a press is never left latched.
func (h *EdgeHandler) Handle() {
	high := h.line.EdgeLevel()

	if !h.kind.debounced() {
		h.apply(high)
		return
	}

	t := h.clock.Millis()
	elapsed := t - h.lastEdge
	h.lastEdge = t

	if !high {
		h.apply(false)
		return
	}
	if elapsed >= DebounceMillis {
		h.apply(true)
	}
}

func (h *EdgeHandler) apply(high bool) {
	if high {
		h.edges.Signal()
		if h.kind.clicks() {
			h.pointer.Press()
		}
		return
	}
	if h.kind.clicks() {
		h.pointer.Release()
	}
}
