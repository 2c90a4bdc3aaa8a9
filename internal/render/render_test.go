package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ritamzico/parsekit/internal/peg"
)

func TestZerologTraceSinkEmitsIndentedLine(t *testing.T) {
	var buf bytes.Buffer
	sink := ZerologTraceSink{Logger: zerolog.New(&buf).Level(zerolog.DebugLevel)}
	sink.Trace(peg.TraceEvent{Kind: "enter", Rule: "expr", Pos: 3, RuleStack: []string{"grammar", "rule", "expr"}})
	out := buf.String()
	if !strings.Contains(out, `"rule":"expr"`) {
		t.Fatalf("expected rule field in output, got %s", out)
	}
	if !strings.Contains(out, `"kind":"enter"`) {
		t.Fatalf("expected kind field in output, got %s", out)
	}
}

func TestFormatFailureIncludesCaret(t *testing.T) {
	f := peg.Failure{
		Pos:      peg.Position{Line: 2, Col: 5, Text: "start = 'a' ;"},
		Expected: `";"`,
	}
	out := FormatFailure(f)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "2:5:") {
		t.Fatalf("expected position prefix, got %q", lines[0])
	}
	if lines[2] != "    ^" {
		t.Fatalf("expected caret at column 5, got %q", lines[2])
	}
}
