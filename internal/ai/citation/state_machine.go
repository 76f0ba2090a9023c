// Package citation implements the explicit finite-state recognizer for
// `:s[<N>]` citation marks inside a streaming LLM response, and the
// per-request marker that rewrites a recognized mark's source number into
// a stable, first-occurrence-ordered display number.
//
// The recognizer runs strictly character-by-character against live
// output — never a regex against a completed buffer — so it can be fed
// one token's worth of characters at a time as the LLM streams.
package citation

// EventKind distinguishes the two kinds of output a StateMachine can
// produce from one Feed call.
type EventKind int

const (
	// EventPlain carries text that should pass through unchanged.
	EventPlain EventKind = iota
	// EventCitation carries a recognized citation mark's raw source number,
	// not yet rewritten to a display number — that is Marker's job.
	EventCitation
)

// Event is zero or one output produced by feeding a single rune into the
// state machine.
type Event struct {
	Kind   EventKind
	Text   string
	Number int
}

// state names the position within a `:s[<N>]` match.
type state int

const (
	stateExpectColon state = iota
	stateExpectS
	stateExpectBracket
	stateInsideNumber
)

// StateMachine recognizes `:s[<N>]` tokens in a stream of runes fed one at
// a time via Feed.
type StateMachine struct {
	st     state
	buffer string
	number string
}

// NewStateMachine returns a StateMachine ready to feed from the start of a
// stream.
func NewStateMachine() *StateMachine {
	return &StateMachine{st: stateExpectColon}
}

// Feed advances the machine by one rune, returning the event produced (if
// any). Most calls while mid-match produce no event; a call that completes
// or breaks a match produces exactly one.
func (m *StateMachine) Feed(r rune) *Event {
	switch m.st {
	case stateExpectColon:
		if r == ':' {
			m.buffer = string(r)
			m.st = stateExpectS
			return nil
		}
		return m.plain(string(r))
	case stateExpectS:
		if r == 's' {
			m.buffer += string(r)
			m.st = stateExpectBracket
			return nil
		}
		return m.mismatch(r)
	case stateExpectBracket:
		if r == '[' {
			m.buffer += string(r)
			m.number = ""
			m.st = stateInsideNumber
			return nil
		}
		return m.mismatch(r)
	case stateInsideNumber:
		switch {
		case r >= '0' && r <= '9':
			m.buffer += string(r)
			m.number += string(r)
			return nil
		case r == ']':
			return m.closeNumber()
		default:
			return m.mismatch(r)
		}
	}
	return nil
}

func (m *StateMachine) mismatch(r rune) *Event {
	out := m.buffer + string(r)
	m.reset()
	return m.plain(out)
}

func (m *StateMachine) closeNumber() *Event {
	n, ok := parseNonNegativeInt(m.number)
	if !ok {
		out := m.buffer // the mismatching ']' itself is dropped, per spec
		m.reset()
		return m.plain(out)
	}
	m.reset()
	return &Event{Kind: EventCitation, Number: n}
}

func (m *StateMachine) plain(text string) *Event {
	return &Event{Kind: EventPlain, Text: text}
}

func (m *StateMachine) reset() {
	m.st = stateExpectColon
	m.buffer = ""
	m.number = ""
}

// Flush returns any partially-matched buffer as plain text and resets the
// machine, for use at end-of-stream so a trailing incomplete match is
// never silently dropped.
func (m *StateMachine) Flush() *Event {
	if m.buffer == "" {
		return nil
	}
	out := m.buffer
	m.reset()
	return m.plain(out)
}

func parseNonNegativeInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
