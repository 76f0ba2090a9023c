package citation

import (
	"fmt"
	"strings"

	"onyx.dev/onyx/internal/chat/model"
)

// Rewriter feeds a streamed delta of LLM output through a StateMachine and
// rewrites any recognized `:s[<N>]` token into `:s[<display>]` using a
// Marker, so the text a chat consumer sees always carries stable display
// numbers rather than the model's raw, retrieval-order source numbers.
// Citations to a raw number the Marker does not recognize pass through as
// plain text unchanged.
type Rewriter struct {
	sm     *StateMachine
	marker *Marker
}

// NewRewriter returns a Rewriter over the given request-scoped raw-number
// to source mapping.
func NewRewriter(docs map[int]model.MessageSource) *Rewriter {
	return &Rewriter{sm: NewStateMachine(), marker: NewMarker(docs)}
}

// Feed rewrites one delta chunk of streamed text, returning the text that
// should be appended to the visible message.
func (r *Rewriter) Feed(delta string) string {
	var out strings.Builder
	for _, ch := range delta {
		if ev := r.sm.Feed(ch); ev != nil {
			r.emit(&out, ev)
		}
	}
	return out.String()
}

// Flush drains any partially-matched trailing token at end-of-stream.
func (r *Rewriter) Flush() string {
	var out strings.Builder
	if ev := r.sm.Flush(); ev != nil {
		r.emit(&out, ev)
	}
	return out.String()
}

func (r *Rewriter) emit(out *strings.Builder, ev *Event) {
	switch ev.Kind {
	case EventPlain:
		out.WriteString(ev.Text)
	case EventCitation:
		display, ok := r.marker.Resolve(ev.Number)
		if !ok {
			// Unrecognized source number: pass the original token through
			// rather than silently dropping it.
			fmt.Fprintf(out, ":s[%d]", ev.Number)
			return
		}
		fmt.Fprintf(out, ":s[%d]", display)
	}
}

// Sources returns every source cited so far, in display-number order.
func (r *Rewriter) Sources() []model.MessageSource {
	return r.marker.Sources()
}
