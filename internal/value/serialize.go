// SPDX-License-Identifier: AGPL-3.0-or-later

package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/marginlang/margin/internal/notes"
	"github.com/marginlang/margin/internal/pattern"
)

// ErrNotSerializable is returned when a lambda reaches the serializer.
var ErrNotSerializable = errors.New("lambdas cannot be serialized")

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// envelope is the durable {type, value} form.
type envelope struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type noteJSON struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Path           string    `json:"path"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
}

type viewJSON struct {
	Notes    []noteJSON `json:"notes"`
	Contents []string   `json:"contents,omitempty"`
}

// Serialize encodes a value into its durable {type, value} form. Every
// kind except Lambda round-trips through Deserialize.
func Serialize(v Value) ([]byte, error) {
	raw, err := rawValue(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: v.Kind().String(), Value: raw})
}

func rawValue(v Value) (json.RawMessage, error) {
	switch t := v.(type) {
	case Undefined:
		return json.Marshal(nil)
	case Number:
		return json.Marshal(float64(t))
	case String:
		return json.Marshal(string(t))
	case Boolean:
		return json.Marshal(bool(t))
	case Date:
		return json.Marshal(t.Display())
	case Time:
		return json.Marshal(t.Display())
	case DateTime:
		return json.Marshal(t.Time.Format(time.RFC3339Nano))
	case *Pattern:
		return json.Marshal(t.Compiled.String())
	case *Note:
		return json.Marshal(toNoteJSON(t.Snapshot))
	case List:
		items := make([]json.RawMessage, len(t))
		for i, item := range t {
			data, err := Serialize(item)
			if err != nil {
				return nil, err
			}
			items[i] = data
		}
		return json.Marshal(items)
	case *View:
		vj := viewJSON{Contents: t.Contents}
		for _, n := range t.Notes {
			vj.Notes = append(vj.Notes, toNoteJSON(n))
		}
		return json.Marshal(vj)
	case *Lambda:
		return nil, ErrNotSerializable
	}
	return nil, fmt.Errorf("cannot serialize %s value", v.Kind())
}

// Deserialize decodes a durable {type, value} form back into a value.
// Deserialize(Serialize(v)) is value-equal to v for every serializable kind.
func Deserialize(data []byte) (Value, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode value envelope: %w", err)
	}
	switch env.Type {
	case "undefined":
		return Undefined{}, nil
	case "number":
		var n float64
		if err := json.Unmarshal(env.Value, &n); err != nil {
			return nil, err
		}
		return Number(n), nil
	case "string":
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	case "boolean":
		var b bool
		if err := json.Unmarshal(env.Value, &b); err != nil {
			return nil, err
		}
		return Boolean(b), nil
	case "date":
		t, err := textTime(env.Value, dateLayout)
		if err != nil {
			return nil, err
		}
		return DateOf(t), nil
	case "time":
		t, err := textTime(env.Value, timeLayout)
		if err != nil {
			return nil, err
		}
		return TimeOf(t), nil
	case "datetime":
		t, err := textTime(env.Value, time.RFC3339Nano)
		if err != nil {
			return nil, err
		}
		return DateTime{Time: t}, nil
	case "pattern":
		var src string
		if err := json.Unmarshal(env.Value, &src); err != nil {
			return nil, err
		}
		elements, err := pattern.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("decode pattern: %w", err)
		}
		compiled, err := pattern.Compile(elements)
		if err != nil {
			return nil, fmt.Errorf("decode pattern: %w", err)
		}
		return &Pattern{Compiled: compiled}, nil
	case "note":
		var nj noteJSON
		if err := json.Unmarshal(env.Value, &nj); err != nil {
			return nil, err
		}
		return &Note{Snapshot: fromNoteJSON(nj)}, nil
	case "list":
		var items []json.RawMessage
		if err := json.Unmarshal(env.Value, &items); err != nil {
			return nil, err
		}
		list := make(List, len(items))
		for i, item := range items {
			v, err := Deserialize(item)
			if err != nil {
				return nil, err
			}
			list[i] = v
		}
		return list, nil
	case "view":
		var vj viewJSON
		if err := json.Unmarshal(env.Value, &vj); err != nil {
			return nil, err
		}
		view := &View{Contents: vj.Contents}
		for _, nj := range vj.Notes {
			view.Notes = append(view.Notes, fromNoteJSON(nj))
		}
		return view, nil
	}
	return nil, fmt.Errorf("unknown serialized type %q", env.Type)
}

func textTime(raw json.RawMessage, layout string) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, err
	}
	return time.Parse(layout, s)
}

func toNoteJSON(n *notes.Note) noteJSON {
	return noteJSON{
		ID:             n.ID,
		UserID:         n.UserID,
		Path:           n.Path,
		Content:        n.Content,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
		LastAccessedAt: n.LastAccessedAt,
	}
}

func fromNoteJSON(nj noteJSON) *notes.Note {
	return &notes.Note{
		ID:             nj.ID,
		UserID:         nj.UserID,
		Path:           nj.Path,
		Content:        nj.Content,
		CreatedAt:      nj.CreatedAt,
		UpdatedAt:      nj.UpdatedAt,
		LastAccessedAt: nj.LastAccessedAt,
	}
}
