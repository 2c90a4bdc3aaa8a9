// Package semantics supplies the handful of late-rewrite handlers the
// metagrammar's own grammar needs: most metagrammar rules
// build their internal/model value directly during matching and never
// consult Semantics.Lookup at all. The two rules that do — string and
// backtick constant literals — need their raw matched text turned into a
// processed Go value after the match succeeds, which is exactly the
// "rewrite this rule's result once, after success" contract Lookup exists
// for.
package semantics

import (
	"strconv"
	"strings"

	"github.com/ritamzico/parsekit/internal/peg"
)

// GrammarSemantics is installed on the peg.Parser driving the metagrammar.
type GrammarSemantics struct{}

// Lookup implements peg.Semantics.
func (GrammarSemantics) Lookup(ruleName string) (peg.Handler, bool) {
	switch ruleName {
	case "string":
		return unquoteString, true
	case "constant_literal":
		return coerceConstant, true
	default:
		return nil, false
	}
}

// unquoteString turns a quoted literal (with its surrounding quotes still
// attached) into its escaped-decoded contents.
func unquoteString(v any) (any, error) {
	raw := v.(string)
	return unescape(raw[1 : len(raw)-1]), nil
}

func unescape(inner string) string {
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
			switch inner[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '\'', '"':
				b.WriteByte(inner[i])
			default:
				b.WriteByte('\\')
				b.WriteByte(inner[i])
			}
			continue
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}

// coerceConstant turns a backtick literal's inner text into a typed Go
// value: None/null -> nil, True/False -> bool, a bare number -> int64 or
// float64, a quoted string -> its unescaped contents, anything else -> the
// raw text unchanged.
func coerceConstant(v any) (any, error) {
	raw := strings.TrimSpace(v.(string))
	switch raw {
	case "None", "null":
		return nil, nil
	case "True", "true":
		return true, nil
	case "False", "false":
		return false, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f, nil
	}
	if len(raw) >= 2 && (raw[0] == '\'' || raw[0] == '"') && raw[len(raw)-1] == raw[0] {
		return unescape(raw[1 : len(raw)-1]), nil
	}
	return raw, nil
}
