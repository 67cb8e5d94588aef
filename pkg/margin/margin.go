// Package margin is the embedding surface for the margin directive
// language: it locates directives in note text, evaluates them, applies
// the once-cache, and exposes the safety analyses hosts consult before
// re-evaluating automatically.
package margin

import (
	"context"
	"log/slog"

	"github.com/marginlang/margin/internal/ast"
	"github.com/marginlang/margin/internal/directive"
	"github.com/marginlang/margin/internal/eval"
	"github.com/marginlang/margin/internal/lexer"
	"github.com/marginlang/margin/internal/notes"
	"github.com/marginlang/margin/internal/parser"
	"github.com/marginlang/margin/internal/value"
)

// Cache persists once-directive results keyed by source text.
type Cache interface {
	GetCached(ctx context.Context, key string) ([]byte, bool, error)
	PutCached(ctx context.Context, key string, data []byte) error
}

// Runtime evaluates directives against a host-supplied note context.
type Runtime struct {
	reg      *eval.Registry
	exec     *eval.Executor
	ops      notes.Operations
	snapshot []*notes.Note
	current  *notes.Note
	cache    Cache
	logger   *slog.Logger

	execOpts []eval.Option
}

// New creates a Runtime with the given options.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		reg:    eval.NewRegistry(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.exec = eval.New(r.reg, r.execOpts...)
	return r
}

// SetCurrentNote changes the note the next evaluation runs against.
func (r *Runtime) SetCurrentNote(n *notes.Note) { r.current = n }

// SetNotes replaces the visible-notes snapshot.
func (r *Runtime) SetNotes(ns []*notes.Note) { r.snapshot = ns }

// Result is the outcome of evaluating one directive. Exactly one of
// Output and Err is meaningful: a failed directive never aborts its
// siblings, it just reports the failure.
type Result struct {
	Source string
	Start  int
	End    int

	Output string
	Err    string

	// Safety analyses the host uses for caching decisions.
	Idempotent bool
	Reason     string // set when not idempotent; names the offending call
	Dynamic    bool
}

// Execute lexes, parses, and evaluates a single directive source (the
// exact [...] slice). All three error kinds are converted into Result.Err
// here; nothing escapes as a Go error.
func (r *Runtime) Execute(ctx context.Context, source string) Result {
	res := Result{Source: source, End: len(source), Idempotent: true}

	d, err := r.parse(source, 0)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	analysis := eval.AnalyzeIdempotency(d.Expression)
	res.Idempotent = analysis.Idempotent
	res.Reason = analysis.Reason
	res.Dynamic = eval.ContainsDynamicCalls(d.Expression, r.reg)

	v, err := r.evaluate(ctx, d)
	if err != nil {
		r.logger.Debug("directive failed", "source", source, "err", err)
		res.Err = err.Error()
		return res
	}
	res.Output = v.Display()
	return res
}

// Analyze parses a directive and reports its safety analyses without
// evaluating it.
func (r *Runtime) Analyze(source string) Result {
	res := Result{Source: source, End: len(source), Idempotent: true}
	d, err := r.parse(source, 0)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	analysis := eval.AnalyzeIdempotency(d.Expression)
	res.Idempotent = analysis.Idempotent
	res.Reason = analysis.Reason
	res.Dynamic = eval.ContainsDynamicCalls(d.Expression, r.reg)
	return res
}

// ExecuteAll locates every directive in text and evaluates each
// independently, keyed by position (line index and offset within the
// line) for UI correlation.
func (r *Runtime) ExecuteAll(ctx context.Context, text string) map[string]Result {
	results := make(map[string]Result)
	for _, span := range directive.Find(text) {
		line := directive.LineOf(text, span.Start)
		key := directive.PositionKey(line, span.Start-lineStart(text, span.Start))
		res := r.Execute(ctx, span.Source)
		res.Start, res.End = span.Start, span.End
		results[key] = res
	}
	return results
}

// Find returns the located directive spans without evaluating them.
func (r *Runtime) Find(text string) []directive.Span {
	return directive.Find(text)
}

// RefreshTriggers returns the time-of-day triggers of a refresh
// directive, in source order with duplicates removed: every literal time
// constructed inside the refresh body is a trigger candidate. Non-refresh
// directives have no triggers.
func (r *Runtime) RefreshTriggers(source string) ([]string, error) {
	d, err := r.parse(source, 0)
	if err != nil {
		return nil, err
	}
	refresh, ok := d.Expression.(*ast.Refresh)
	if !ok {
		return nil, nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, t := range timeLiterals(refresh.Body) {
		s := t.Display()
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *Runtime) parse(source string, start int) (*ast.Directive, error) {
	toks, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	return parser.ParseDirective(toks, source, start)
}

// evaluate runs a directive, applying the once-cache when the directive
// is a once block and a cache is configured.
func (r *Runtime) evaluate(ctx context.Context, d *ast.Directive) (value.Value, error) {
	_, isOnce := d.Expression.(*ast.Once)

	var key string
	if isOnce && r.cache != nil {
		key = directive.CacheKey(d.Source)
		if data, ok, err := r.cache.GetCached(ctx, key); err == nil && ok {
			cached, err := value.Deserialize(data)
			if err == nil {
				return cached, nil
			}
			r.logger.Debug("discarding unreadable cached result", "key", key, "err", err)
		}
	}

	env := value.NewEnvironment()
	env.Notes = r.snapshot
	env.Current = r.current
	env.Ops = r.ops

	v, err := r.exec.Execute(ctx, d, env)
	if err != nil {
		return nil, err
	}

	if isOnce && r.cache != nil {
		data, err := value.Serialize(v)
		if err != nil {
			// Lambdas cannot be cached; evaluate on every render instead.
			r.logger.Debug("once result not cacheable", "source", d.Source, "err", err)
		} else if err := r.cache.PutCached(ctx, key, data); err != nil {
			r.logger.Warn("once cache write failed", "key", key, "err", err)
		}
	}
	return v, nil
}

// timeLiterals collects literal time(...) constructions reachable from e.
func timeLiterals(e ast.Expr) []value.Time {
	var out []value.Time
	walk(e, func(n ast.Expr) {
		call, ok := n.(*ast.Call)
		if !ok || call.Name != "time" {
			return
		}
		if t, ok := literalClockTime(call); ok {
			out = append(out, t)
		}
	})
	return out
}

func literalClockTime(call *ast.Call) (value.Time, bool) {
	switch len(call.Args) {
	case 1:
		s, ok := call.Args[0].(*ast.StringLit)
		if !ok {
			return value.Time{}, false
		}
		t, err := eval.ParseClockTime(s.Value)
		if err != nil {
			return value.Time{}, false
		}
		return t, true
	case 2:
		h, ok1 := call.Args[0].(*ast.NumberLit)
		m, ok2 := call.Args[1].(*ast.NumberLit)
		if !ok1 || !ok2 {
			return value.Time{}, false
		}
		return value.Time{Hour: int(h.Value), Minute: int(m.Value)}, true
	}
	return value.Time{}, false
}

func walk(e ast.Expr, fn func(ast.Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch n := e.(type) {
	case *ast.Call:
		for _, a := range n.Args {
			walk(a, fn)
		}
		for _, a := range n.Named {
			walk(a.Value, fn)
		}
	case *ast.PropertyAccess:
		walk(n.Target, fn)
	case *ast.Assign:
		walk(n.Target, fn)
		walk(n.Value, fn)
	case *ast.StatementList:
		for _, s := range n.Stmts {
			walk(s, fn)
		}
	case *ast.MethodCall:
		walk(n.Target, fn)
		for _, a := range n.Args {
			walk(a, fn)
		}
		for _, a := range n.Named {
			walk(a.Value, fn)
		}
	case *ast.Lambda:
		walk(n.Body, fn)
	case *ast.LambdaCall:
		walk(n.Lambda, fn)
		for _, a := range n.Args {
			walk(a, fn)
		}
		for _, a := range n.Named {
			walk(a.Value, fn)
		}
	case *ast.Once:
		walk(n.Body, fn)
	case *ast.Refresh:
		walk(n.Body, fn)
	}
}

// lineStart returns the byte offset of the first character of the line
// containing offset.
func lineStart(text string, offset int) int {
	start := 0
	for i := 0; i < offset && i < len(text); i++ {
		if text[i] == '\n' {
			start = i + 1
		}
	}
	return start
}
