package citation

import "onyx.dev/onyx/internal/chat/model"

// Marker assigns stable, first-occurrence-ordered display numbers to the
// raw source numbers recognized by a StateMachine, and accumulates the
// bijection's image as a Sources list in display order. One Marker is
// scoped to exactly one chat request: a raw number always maps to the same
// display number for the lifetime of the Marker, and a display number is
// never reused for a different raw number.
type Marker struct {
	docs        map[int]model.MessageSource
	displayByRaw map[int]int
	order       []int
}

// NewMarker returns a Marker over the request-scoped mapping from raw
// source number (as produced during retrieval) to the source it
// identifies.
func NewMarker(docs map[int]model.MessageSource) *Marker {
	return &Marker{
		docs:         docs,
		displayByRaw: make(map[int]int),
	}
}

// Resolve maps a raw citation number recognized by the state machine to
// its stable display number. ok is false if raw does not identify any
// source known to this request, in which case the caller should treat the
// citation token as unrecognized and emit it back as plain text.
func (m *Marker) Resolve(raw int) (display int, ok bool) {
	if _, known := m.docs[raw]; !known {
		return 0, false
	}
	if d, already := m.displayByRaw[raw]; already {
		return d, true
	}
	d := len(m.order) + 1
	m.displayByRaw[raw] = d
	m.order = append(m.order, raw)
	return d, true
}

// Sources returns every source cited so far, in display-number order
// (index 0 is display number 1).
func (m *Marker) Sources() []model.MessageSource {
	out := make([]model.MessageSource, len(m.order))
	for i, raw := range m.order {
		src := m.docs[raw]
		src.Number = i + 1
		out[i] = src
	}
	return out
}
