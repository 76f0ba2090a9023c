package citation_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"onyx.dev/onyx/internal/ai/citation"
)

func feedAll(t *testing.T, sm *citation.StateMachine, s string) []citation.Event {
	t.Helper()
	var events []citation.Event
	for _, r := range s {
		if ev := sm.Feed(r); ev != nil {
			events = append(events, *ev)
		}
	}
	if ev := sm.Flush(); ev != nil {
		events = append(events, *ev)
	}
	return events
}

// plainText requires every event in events to be plain and returns their
// concatenated text.
func plainText(t *testing.T, events []citation.Event) string {
	t.Helper()
	var out strings.Builder
	for _, ev := range events {
		require.Equal(t, citation.EventPlain, ev.Kind)
		out.WriteString(ev.Text)
	}
	return out.String()
}

func TestStateMachineRecognizesCitation(t *testing.T) {
	sm := citation.NewStateMachine()
	events := feedAll(t, sm, "see :s[3] here")

	// Outside a match each rune is its own plain event: 4 for "see ", one
	// citation, 5 for " here".
	require.Len(t, events, 10)
	require.Equal(t, citation.EventPlain, events[0].Kind)
	require.Equal(t, "see ", plainText(t, events[:4]))
	require.Equal(t, citation.EventCitation, events[4].Kind)
	require.Equal(t, 3, events[4].Number)
	require.Equal(t, citation.EventPlain, events[5].Kind)
	require.Equal(t, " here", plainText(t, events[5:]))
}

func TestStateMachinePassesThroughPlainText(t *testing.T) {
	sm := citation.NewStateMachine()
	events := feedAll(t, sm, "no citations at all")

	var out strings.Builder
	for _, ev := range events {
		require.Equal(t, citation.EventPlain, ev.Kind)
		out.WriteString(ev.Text)
	}
	require.Equal(t, "no citations at all", out.String())
}

func TestStateMachineMismatchEmitsBufferPlusChar(t *testing.T) {
	sm := citation.NewStateMachine()
	events := feedAll(t, sm, ":sX")

	require.Len(t, events, 1)
	require.Equal(t, citation.EventPlain, events[0].Kind)
	require.Equal(t, ":sX", events[0].Text)
}

func TestStateMachineEmptyNumberDropsBracket(t *testing.T) {
	sm := citation.NewStateMachine()
	events := feedAll(t, sm, ":s[]")

	require.Len(t, events, 1)
	require.Equal(t, citation.EventPlain, events[0].Kind)
	require.Equal(t, ":s[", events[0].Text)
}

func TestStateMachineFlushesIncompleteTrailingMatch(t *testing.T) {
	sm := citation.NewStateMachine()
	events := feedAll(t, sm, "trailing :s[12")

	// 9 single-rune plain events for "trailing ", then the flushed buffer.
	require.Len(t, events, 10)
	require.Equal(t, "trailing ", plainText(t, events[:9]))
	require.Equal(t, ":s[12", events[9].Text)
}

// TestStateMachineWellFormedCitationsReassembleLosslessly covers the
// well-formed side of invariant 4: text built only from plain segments and
// well-formed `:s[<N>]` tokens always reassembles byte-for-byte,
// regardless of how it is chunked into Feed calls. (A malformed `:s[]`
// with no digits is the one documented exception: its `]` is consumed
// during the failed match, per the state machine's closing rule.)
func TestStateMachineWellFormedCitationsReassembleLosslessly(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("reassembly is lossless for well-formed input", prop.ForAll(
		func(parts []citationFragment) bool {
			var input strings.Builder
			for _, p := range parts {
				if p.isCitation {
					fmt.Fprintf(&input, ":s[%d]", p.number)
				} else {
					input.WriteString(p.text)
				}
			}

			sm := citation.NewStateMachine()
			var out strings.Builder
			for _, r := range input.String() {
				if ev := sm.Feed(r); ev != nil {
					writeEvent(&out, ev)
				}
			}
			if ev := sm.Flush(); ev != nil {
				writeEvent(&out, ev)
			}
			return out.String() == input.String()
		},
		genCitationFragments(),
	))
	properties.TestingRun(t)
}

type citationFragment struct {
	isCitation bool
	number     int
	text       string
}

func genCitationFragments() gopter.Gen {
	citationGen := gen.IntRange(0, 9999).Map(func(n int) citationFragment {
		return citationFragment{isCitation: true, number: n}
	})
	plainGen := gen.OneConstOf("plain ", "text", " and more", "no colons here", "  ").Map(
		func(s string) citationFragment {
			return citationFragment{text: s}
		})
	return gen.SliceOf(gen.OneGenOf(citationGen, plainGen))
}

func writeEvent(out *strings.Builder, ev *citation.Event) {
	if ev.Kind == citation.EventPlain {
		out.WriteString(ev.Text)
		return
	}
	fmt.Fprintf(out, ":s[%d]", ev.Number)
}
