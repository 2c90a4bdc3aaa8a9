// Package render is the trace/diagnostics collaborator: a zerolog-backed
// peg.TraceSink for rule-stack tracing, and source-excerpt formatting for
// reported failures, as structured logging instead of a bare print.
package render

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ritamzico/parsekit/internal/peg"
)

// ZerologTraceSink adapts a zerolog.Logger to peg.TraceSink.
type ZerologTraceSink struct {
	Logger zerolog.Logger
}

// Trace implements peg.TraceSink, emitting one debug-level log line per
// rule-stack event, indented by stack depth.
func (s ZerologTraceSink) Trace(ev peg.TraceEvent) {
	indent := strings.Repeat("  ", len(ev.RuleStack))
	s.Logger.Debug().
		Str("kind", ev.Kind).
		Str("rule", ev.Rule).
		Int("pos", ev.Pos).
		Strs("stack", ev.RuleStack).
		Msg(indent + ev.Rule)
}

// FormatFailure renders f as a one-line diagnostic followed by the
// offending source line with a caret under the failure column.
func FormatFailure(f peg.Failure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d:%d: expected %s\n", f.Pos.Line, f.Pos.Col, f.Expected)
	b.WriteString(f.Pos.Text)
	b.WriteByte('\n')
	if f.Pos.Col > 1 {
		b.WriteString(strings.Repeat(" ", f.Pos.Col-1))
	}
	b.WriteByte('^')
	return b.String()
}
