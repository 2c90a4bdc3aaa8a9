package peg

import (
	"fmt"
	"regexp"

	"github.com/ritamzico/parsekit/internal/astnode"
	"github.com/ritamzico/parsekit/internal/buffer"
)

// RuleBody is a rule's parsing program: a sequence of primitive calls
// against the Parser that owns it. Rule bodies compose by calling other
// rules through Parser.Call.
type RuleBody func() (any, error)

// Handler is a semantic handler: a callable keyed by rule name that
// rewrites a rule's result after a successful match. Handlers never see
// the buffer and must not consume input.
type Handler func(value any) (any, error)

// Semantics is the capability the parser base consults to find a handler
// for a given rule name. Lookup must be pure and cheap; absence of a
// handler (ok == false) is not an error.
type Semantics interface {
	Lookup(ruleName string) (Handler, bool)
}

// TraceEvent describes one rule-stack trace point, emitted when
// Config.Trace is set.
type TraceEvent struct {
	Kind      string // "enter", "exit", "memo-hit", "fail", "cut"
	Rule      string
	Pos       int
	RuleStack []string
}

// TraceSink receives trace events. internal/render provides a
// zerolog-backed implementation.
type TraceSink interface {
	Trace(TraceEvent)
}

// Config controls a Parser's buffer behavior and runtime options, the
// surface an external caller configures a parser through.
type Config struct {
	Whitespace    map[rune]struct{}
	CommentsRe    *regexp.Regexp
	EOLCommentsRe *regexp.Regexp
	IgnoreCase    bool
	NameGuard     bool
	NameGuardSet  bool // distinguishes "explicitly false" from "unset"
	LeftRecursion bool
	LeftRecSet    bool
	Keywords      map[string]struct{}
	Trace         bool
	TraceSink     TraceSink
}

// resolve applies the documented defaults: NameGuard defaults to true iff
// whitespace is the default set; LeftRecursion defaults to true.
func (c Config) resolve() Config {
	if !c.LeftRecSet {
		c.LeftRecursion = true
	}
	if !c.NameGuardSet {
		c.NameGuard = c.Whitespace == nil
	}
	return c
}

type choiceFrame struct {
	cut bool
}

type memoStatus int

const (
	statusInProgress memoStatus = iota
	statusDone
	statusFailed
)

type memoKey struct {
	rule string
	pos  int
}

type memoEntry struct {
	status     memoStatus
	result     any
	endPos     int
	err        error
	lrDetected bool
}

// Parser is the combinator runtime: it owns one Buffer, one rule stack,
// one AST stack, and one memo table for the duration of a single
// top-level parse.
type Parser struct {
	buf            *buffer.Buffer
	cfg            Config
	ruleStack      []string
	choiceFrames   []*choiceFrame
	memo           map[memoKey]memoEntry
	astStack       []*astnode.Node
	last           any
	lastFromRepeat bool
	semantics      Semantics
}

// New builds a Parser over text with the given configuration.
func New(text string, cfg Config) *Parser {
	cfg = cfg.resolve()
	bufCfg := buffer.Config{
		Whitespace:    cfg.Whitespace,
		CommentsRe:    cfg.CommentsRe,
		EOLCommentsRe: cfg.EOLCommentsRe,
		IgnoreCase:    cfg.IgnoreCase,
		NameGuard:     cfg.NameGuard,
	}
	return &Parser{
		buf:  buffer.New(text, bufCfg),
		cfg:  cfg,
		memo: make(map[memoKey]memoEntry),
	}
}

// SetSemantics installs the semantics collaborator used by rule
// invocation to rewrite ASTs after a successful match.
func (p *Parser) SetSemantics(s Semantics) { p.semantics = s }

// Buffer exposes the underlying buffer for callers that need raw position
// introspection (e.g. trace rendering, diagnostics).
func (p *Parser) Buffer() *buffer.Buffer { return p.buf }

// RuleStack returns a copy of the currently active rule names.
func (p *Parser) RuleStack() []string { return append([]string(nil), p.ruleStack...) }

// IsKeyword reports whether s is a reserved word under Config.Keywords.
func (p *Parser) IsKeyword(s string) bool {
	if p.cfg.Keywords == nil {
		return false
	}
	_, ok := p.cfg.Keywords[s]
	return ok
}

func (p *Parser) trace(kind, rule string) {
	if !p.cfg.Trace || p.cfg.TraceSink == nil {
		return
	}
	p.cfg.TraceSink.Trace(TraceEvent{
		Kind:      kind,
		Rule:      rule,
		Pos:       p.buf.Pos(),
		RuleStack: p.RuleStack(),
	})
}

// astTop returns the AST accumulator of the currently active rule. Calling
// it outside any rule invocation is a programming error.
func (p *Parser) astTop() *astnode.Node {
	return p.astStack[len(p.astStack)-1]
}

// ---------------------------------------------------------------------
// AST slot primitives (§4.2 via §4.3's name_last_node / add_last_node_to_name)
// ---------------------------------------------------------------------

// NameLast moves the most recently produced value into the current rule's
// AST under name, using set semantics.
func (p *Parser) NameLast(name string) {
	p.astTop().NameLast(name, p.last, p.lastFromRepeat)
}

// AddLastNodeToName moves the most recently produced value into the
// current rule's AST under name, using append semantics.
func (p *Parser) AddLastNodeToName(name string) {
	p.astTop().AddLastNodeToName(name, p.last, p.lastFromRepeat)
}

// Current exposes the active rule's AST accumulator for direct
// Set/Append/Define calls from rule bodies that build structured results.
func (p *Parser) Current() *astnode.Node { return p.astTop() }

// Last returns the most recently produced value, without consuming it.
func (p *Parser) Last() any { return p.last }

func (p *Parser) setLast(value any, fromRepeat bool) any {
	p.last = value
	p.lastFromRepeat = fromRepeat
	return value
}

// ---------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------

// Token matches literal at the cursor, after skipping whitespace/comments.
func (p *Parser) Token(literal string) (string, error) {
	p.buf.SkipWhitespaceAndComments()
	if txt, ok := p.buf.Match(literal); ok {
		p.setLast(txt, false)
		return txt, nil
	}
	return "", &TokenFailure{p.newFailure(fmt.Sprintf("%q", literal))}
}

// Pattern matches regex at the cursor, after skipping whitespace/comments.
func (p *Parser) Pattern(regex string) (string, error) {
	p.buf.SkipWhitespaceAndComments()
	if txt, ok := p.buf.MatchRegex(regex); ok {
		p.setLast(txt, false)
		return txt, nil
	}
	return "", &PatternFailure{p.newFailure("pattern " + regex)}
}

// Constant inserts value as the most recently produced value without
// consuming input.
func (p *Parser) Constant(value any) any {
	return p.setLast(value, false)
}

// EOF fails unless the buffer is at end of input, after skipping
// whitespace/comments.
func (p *Parser) EOF() error {
	if p.buf.AtEnd() {
		return nil
	}
	return &EOFFailure{p.newFailure("end of input")}
}

// Cut sets the cut flag on the nearest enclosing Choice frame, committing
// to the current alternative.
func (p *Parser) Cut() {
	if len(p.choiceFrames) > 0 {
		p.choiceFrames[len(p.choiceFrames)-1].cut = true
	}
	rule := ""
	if len(p.ruleStack) > 0 {
		rule = p.ruleStack[len(p.ruleStack)-1]
	}
	p.trace("cut", rule)
}

// Choice tries each option in order, restoring position between attempts.
// The first option to succeed wins. If an option fails after Cut fired
// inside it, the failure escalates to CutFailure and no further option is
// tried.
func (p *Parser) Choice(opts ...RuleBody) (any, error) {
	start := p.buf.Pos()
	frame := &choiceFrame{}
	p.choiceFrames = append(p.choiceFrames, frame)
	defer func() { p.choiceFrames = p.choiceFrames[:len(p.choiceFrames)-1] }()

	var lastErr error
	for _, opt := range opts {
		p.buf.Goto(start)
		frame.cut = false
		result, err := opt()
		if err == nil {
			p.setLast(result, false)
			return result, nil
		}
		if cf, ok := err.(*CutFailure); ok {
			return nil, cf
		}
		if frame.cut {
			return nil, &CutFailure{Inner: err}
		}
		lastErr = err
	}
	p.buf.Goto(start)
	if lastErr == nil {
		lastErr = &Failure{}
	}
	return nil, lastErr
}

// Optional runs body; on ordinary failure it restores position and
// returns ok=false with no error. A CutFailure propagates.
func (p *Parser) Optional(body RuleBody) (result any, ok bool, err error) {
	start := p.buf.Pos()
	result, err = body()
	if err == nil {
		p.setLast(result, false)
		return result, true, nil
	}
	if cf, isCut := err.(*CutFailure); isCut {
		return nil, false, cf
	}
	p.buf.Goto(start)
	p.setLast(nil, false)
	return nil, false, nil
}

// Closure runs body zero or more times, stopping at the first ordinary
// failure (restoring position to the start of that failed iteration) or
// when an iteration makes no progress, to guarantee termination.
func (p *Parser) Closure(body RuleBody) ([]any, error) {
	var results []any
	for {
		start := p.buf.Pos()
		result, err := body()
		if err != nil {
			if cf, ok := err.(*CutFailure); ok {
				return nil, cf
			}
			p.buf.Goto(start)
			break
		}
		if p.buf.Pos() == start {
			// The iteration matched without consuming input; it is not
			// collected, and the closure stops instead of looping forever.
			break
		}
		results = append(results, result)
	}
	p.setLast(results, true)
	return results, nil
}

// PositiveClosure runs body one or more times; if the first iteration
// fails, the call fails.
func (p *Parser) PositiveClosure(body RuleBody) ([]any, error) {
	results, err := p.Closure(body)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		f := p.newFailure("at least one repetition")
		return nil, &f
	}
	p.setLast(results, true)
	return results, nil
}

// Lookahead runs body inside a save/restore that always restores
// position; it fails (LookaheadFailure) if body fails, and succeeds
// silently otherwise. It never produces a value.
func (p *Parser) Lookahead(body RuleBody) error {
	start := p.buf.Pos()
	_, err := body()
	p.buf.Goto(start)
	if err != nil {
		return &LookaheadFailure{p.newFailure("lookahead assertion")}
	}
	return nil
}

// NegativeLookahead runs body inside a save/restore that always restores
// position; it succeeds if body fails and fails if body succeeds. It
// never advances the cursor and never produces a value.
func (p *Parser) NegativeLookahead(body RuleBody) error {
	start := p.buf.Pos()
	_, err := body()
	p.buf.Goto(start)
	if err == nil {
		return &LookaheadFailure{p.newFailure("negative lookahead assertion")}
	}
	return nil
}

// Group is a scoping wrapper with no AST isolation: it simply runs body
// and forwards its result.
func (p *Parser) Group(body RuleBody) (any, error) {
	result, err := body()
	if err != nil {
		return nil, err
	}
	p.setLast(result, false)
	return result, nil
}

// ---------------------------------------------------------------------
// Rule invocation, packrat memoization, and left-recursion fixpoint
// ---------------------------------------------------------------------

// Call invokes the named rule's body at the current position, applying
// packrat memoization and a bounded left-recursion fixpoint (seed-and-grow).
func (p *Parser) Call(name string, body RuleBody) (any, error) {
	p.ruleStack = append(p.ruleStack, name)
	defer func() { p.ruleStack = p.ruleStack[:len(p.ruleStack)-1] }()

	p.buf.SkipWhitespaceAndComments()
	pos := p.buf.Pos()
	key := memoKey{rule: name, pos: pos}

	if entry, ok := p.memo[key]; ok {
		switch entry.status {
		case statusDone:
			p.trace("memo-hit", name)
			p.buf.Goto(entry.endPos)
			p.setLast(entry.result, false)
			return entry.result, nil
		case statusFailed:
			p.trace("memo-hit", name)
			return nil, entry.err
		case statusInProgress:
			if !p.cfg.LeftRecursion {
				f := p.newFailure("left recursion disabled for rule " + name)
				return nil, &f
			}
			entry.lrDetected = true
			p.memo[key] = entry
			return entry.result, entry.err
		}
	}

	seedFailureVal := p.newFailure("left-recursive seed for " + name)
	seedFailure := &seedFailureVal
	p.memo[key] = memoEntry{status: statusInProgress, err: seedFailure}

	p.trace("enter", name)
	result, err := p.invokeOnce(name, body)

	entry := p.memo[key]
	if entry.lrDetected {
		return p.growLeftRecursion(name, pos, body, result, err)
	}

	if err != nil {
		if cf, ok := err.(*CutFailure); ok {
			err = cf.Inner
		}
		p.trace("fail", name)
		p.memo[key] = memoEntry{status: statusFailed, err: err}
		p.buf.Goto(pos)
		return nil, err
	}

	p.trace("exit", name)
	p.memo[key] = memoEntry{status: statusDone, result: result, endPos: p.buf.Pos()}
	p.setLast(result, false)
	return result, nil
}

// invokeOnce pushes a fresh AST, runs body, pops the AST, and applies the
// semantic handler registered for name, if any, before memoizing the result.
func (p *Parser) invokeOnce(name string, body RuleBody) (any, error) {
	node := astnode.New()
	p.astStack = append(p.astStack, node)
	result, err := body()
	p.astStack = p.astStack[:len(p.astStack)-1]
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = node.Value()
	}
	if p.semantics != nil {
		if h, ok := p.semantics.Lookup(name); ok {
			newResult, herr := h(result)
			if herr != nil {
				return nil, &SemanticFailure{Failure: p.newFailure(herr.Error()), Cause: herr}
			}
			result = newResult
		}
	}
	return result, nil
}

// growLeftRecursion implements the bounded-growth fixpoint: it seeds the
// memo cell with the first successful attempt and repeatedly re-invokes
// body from the original position, keeping the result only as long as each
// new attempt consumes strictly more input than the last.
func (p *Parser) growLeftRecursion(name string, pos int, body RuleBody, seedResult any, seedErr error) (any, error) {
	key := memoKey{rule: name, pos: pos}
	if seedErr != nil {
		if cf, ok := seedErr.(*CutFailure); ok {
			seedErr = cf.Inner
		}
		p.memo[key] = memoEntry{status: statusFailed, err: seedErr}
		p.buf.Goto(pos)
		return nil, seedErr
	}

	bestResult := seedResult
	bestEnd := p.buf.Pos()

	for {
		p.memo[key] = memoEntry{status: statusDone, result: bestResult, endPos: bestEnd}
		p.buf.Goto(pos)
		nextResult, nextErr := p.invokeOnce(name, body)
		if nextErr != nil {
			break
		}
		nextEnd := p.buf.Pos()
		if nextEnd <= bestEnd {
			break
		}
		bestResult, bestEnd = nextResult, nextEnd
	}

	p.memo[key] = memoEntry{status: statusDone, result: bestResult, endPos: bestEnd}
	p.buf.Goto(bestEnd)
	p.setLast(bestResult, false)
	return bestResult, nil
}

// Parse runs the start rule's body as a full top-level parse.
func (p *Parser) Parse(startRule string, body RuleBody) (any, error) {
	return p.Call(startRule, body)
}
