package margin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marginlang/margin/internal/directive"
	"github.com/marginlang/margin/internal/notes"
)

var fixedNow = time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

func newTestRuntime(t *testing.T) (*Runtime, *notes.Memory) {
	t.Helper()
	store := notes.NewMemory()
	rt := New(
		WithOperations(store),
		WithCache(store),
		WithClock(func() time.Time { return fixedNow }),
	)
	return rt, store
}

func TestExecuteSimple(t *testing.T) {
	rt, _ := newTestRuntime(t)

	res := rt.Execute(context.Background(), `[add(2, 3)]`)
	assert.Empty(t, res.Err)
	assert.Equal(t, "5", res.Output)
	assert.True(t, res.Idempotent)
	assert.False(t, res.Dynamic)
}

func TestExecuteReportsErrors(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ctx := context.Background()

	// Lex, parse, and runtime failures all land in Result.Err.
	for _, src := range []string{`["unterminated]`, `[add(1,]`, `[div(1, 0)]`} {
		res := rt.Execute(ctx, src)
		assert.NotEmpty(t, res.Err, src)
		assert.Empty(t, res.Output, src)
	}
}

func TestExecuteAnalyses(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ctx := context.Background()

	res := rt.Execute(ctx, `[new(path: "a/b")]`)
	assert.False(t, res.Idempotent)
	assert.Contains(t, res.Reason, "new(...)")

	res = rt.Execute(ctx, `[now]`)
	assert.True(t, res.Dynamic)
}

func TestExecuteAll(t *testing.T) {
	rt, _ := newTestRuntime(t)

	text := "first [add(1, 1)]\nsecond [mul(2, 3)] and [bogus(]"
	results := rt.ExecuteAll(context.Background(), text)
	require.Len(t, results, 3)

	r, ok := results["d0.6"]
	require.True(t, ok, "keys: %v", keys(results))
	assert.Equal(t, "2", r.Output)

	r, ok = results["d1.7"]
	require.True(t, ok)
	assert.Equal(t, "6", r.Output)

	// The malformed directive fails alone.
	r, ok = results["d1.23"]
	require.True(t, ok)
	assert.NotEmpty(t, r.Err)
}

func keys(m map[string]Result) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestOnceCaching(t *testing.T) {
	rt, store := newTestRuntime(t)
	ctx := context.Background()

	src := `[once[now]]`
	first := rt.Execute(ctx, src)
	require.Empty(t, first.Err)

	// The result must come back from the cache even when the clock moves.
	rt2 := New(
		WithOperations(store),
		WithCache(store),
		WithClock(func() time.Time { return fixedNow.Add(48 * time.Hour) }),
	)
	second := rt2.Execute(ctx, src)
	require.Empty(t, second.Err)
	assert.Equal(t, first.Output, second.Output)

	// A plain directive is never cached.
	a := rt.Execute(ctx, `[now]`)
	b := rt2.Execute(ctx, `[now]`)
	assert.NotEqual(t, a.Output, b.Output)
}

func TestOnceLambdaNotCached(t *testing.T) {
	rt, store := newTestRuntime(t)
	ctx := context.Background()

	src := `[once[[add(i, 1)]]]`
	res := rt.Execute(ctx, src)
	require.Empty(t, res.Err)

	// Nothing went into the cache; the lambda re-evaluates every time.
	_, ok, err := store.GetCached(ctx, directive.CacheKey(src))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNotesFlow(t *testing.T) {
	rt, store := newTestRuntime(t)
	ctx := context.Background()

	res := rt.Execute(ctx, `[maybe_new(path: "inbox/todo", maybe_content: "hi")]`)
	require.Empty(t, res.Err)
	assert.Equal(t, "inbox/todo", res.Output)

	n, err := store.FindByPath(ctx, "inbox/todo")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "hi", n.Content)

	// Point the runtime at the created note and mutate through it.
	rt.SetCurrentNote(n)
	res = rt.Execute(ctx, `[.append(" there")]`)
	require.Empty(t, res.Err)

	n, err = store.FindByPath(ctx, "inbox/todo")
	require.NoError(t, err)
	assert.Equal(t, "hi there", n.Content)
}

func TestFindSpans(t *testing.T) {
	rt, _ := newTestRuntime(t)
	spans := rt.Find("a [1] b [2]")
	require.Len(t, spans, 2)
	assert.Equal(t, "[1]", spans[0].Source)
}

func TestRefreshTriggers(t *testing.T) {
	rt, _ := newTestRuntime(t)

	triggers, err := rt.RefreshTriggers(`[refresh[time("09:00"); time("17:30:15"); now]]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00:00", "17:30:15"}, triggers)

	// Duplicates collapse, order is source order.
	triggers, err = rt.RefreshTriggers(`[refresh[time(7, 0); time("07:00"); time(6, 30)]]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"07:00:00", "06:30:00"}, triggers)

	// Non-refresh directives have no triggers.
	triggers, err = rt.RefreshTriggers(`[time("09:00")]`)
	require.NoError(t, err)
	assert.Empty(t, triggers)

	_, err = rt.RefreshTriggers(`[refresh[`)
	require.Error(t, err)
}

func TestCurrentNoteUnsetError(t *testing.T) {
	rt, _ := newTestRuntime(t)
	res := rt.Execute(context.Background(), `[.path]`)
	assert.Equal(t, "no current note in this context", res.Err)
}
