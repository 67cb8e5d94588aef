// SPDX-License-Identifier: AGPL-3.0-or-later

package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marginlang/margin/internal/notes"
	"github.com/marginlang/margin/internal/pattern"
)

func testNote() *notes.Note {
	stamp := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return &notes.Note{
		ID:             "n-1",
		UserID:         "u-1",
		Path:           "work/projects/margin",
		Content:        "some text",
		CreatedAt:      stamp,
		UpdatedAt:      stamp,
		LastAccessedAt: stamp,
	}
}

func testPattern(t *testing.T) *Pattern {
	t.Helper()
	elements, err := pattern.Parse(`digit*4 "-" digit*2`)
	require.NoError(t, err)
	compiled, err := pattern.Compile(elements)
	require.NoError(t, err)
	return &Pattern{Compiled: compiled}
}

func TestSerializeRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		v    Value
	}{
		{"undefined", Undefined{}},
		{"number", Number(3.25)},
		{"string", String("hello [brackets] \"quotes\"")},
		{"boolean", Boolean(true)},
		{"date", Date{Year: 2026, Month: time.August, Day: 31}},
		{"time", Time{Hour: 9, Minute: 30, Second: 5}},
		{"datetime", DateTime{Time: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)}},
		{"pattern", testPattern(t)},
		{"note", &Note{Snapshot: testNote()}},
		{"list", List{Number(1), String("two"), Boolean(false)}},
		{"nested list", List{List{Number(1)}, &Note{Snapshot: testNote()}}},
		{"view", &View{Notes: []*notes.Note{testNote()}, Contents: []string{"some text"}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			data, err := Serialize(c.v)
			require.NoError(t, err)

			got, err := Deserialize(data)
			require.NoError(t, err)
			assert.True(t, Equal(c.v, got), "round-trip changed the value: %s -> %s", c.v.Display(), got.Display())
		})
	}
}

func TestSerializeEnvelopeShape(t *testing.T) {
	data, err := Serialize(Number(5))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"number","value":5}`, string(data))

	data, err = Serialize(Date{Year: 2026, Month: 1, Day: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"date","value":"2026-01-02"}`, string(data))
}

func TestSerializeLambdaFails(t *testing.T) {
	l := &Lambda{Params: []string{"i"}, Env: NewEnvironment()}
	_, err := Serialize(l)
	require.ErrorIs(t, err, ErrNotSerializable)

	// A lambda buried in a list poisons the whole serialization.
	_, err = Serialize(List{Number(1), l})
	require.ErrorIs(t, err, ErrNotSerializable)
}

func TestDeserializeUnknownType(t *testing.T) {
	_, err := Deserialize([]byte(`{"type":"mystery","value":1}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
}

func TestDeserializeGarbage(t *testing.T) {
	_, err := Deserialize([]byte(`not json`))
	require.Error(t, err)
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "", Undefined{}.Display())
	assert.Equal(t, "2.5", Number(2.5).Display())
	assert.Equal(t, "7", Number(7).Display())
	assert.Equal(t, "true", Boolean(true).Display())
	assert.Equal(t, "2026-08-31", Date{Year: 2026, Month: 8, Day: 31}.Display())
	assert.Equal(t, "09:05:00", Time{Hour: 9, Minute: 5}.Display())
	assert.Equal(t, "1, two", List{Number(1), String("two")}.Display())
	assert.Equal(t, "work/projects/margin", (&Note{Snapshot: testNote()}).Display())
	assert.Equal(t, "a\nb", (&View{Contents: []string{"a", "b"}}).Display())
}

func TestEnvironmentScoping(t *testing.T) {
	root := NewEnvironment()
	root.Define("x", Number(1))

	child := root.NewEnclosed()
	child.Define("y", Number(2))

	v, ok := child.Get("x")
	require.True(t, ok)
	assert.Equal(t, Number(1), v)

	_, ok = root.Get("y")
	assert.False(t, ok, "child bindings must not leak to the parent")

	// Shadowing is local to the child.
	child.Define("x", Number(99))
	v, _ = child.Get("x")
	assert.Equal(t, Number(99), v)
	v, _ = root.Get("x")
	assert.Equal(t, Number(1), v)
}
