package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Sternrassler/userposts/pkg/model"
)

func sampleSnapshot() []model.EnrichedUser {
	return []model.EnrichedUser{
		{
			ID:      1,
			Name:    "Leanne Graham",
			Address: "Kulas Light, Apt. 556 - 92998-3874 Gwenborough",
			Company: "Romaguera-Crona",
			Posts:   []model.PostSummary{{ID: 1, Title: "t", Body: "b"}},
		},
		{
			ID:      3,
			Name:    "Clementine Bauch",
			Address: "Douglas Extension, Suite 847 - 59590-4157 McKenziehaven",
			Company: "Romaguera-Jacobson",
			Posts:   []model.PostSummary{},
		},
	}
}

func TestWriter_Compact(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf, false)

	if err := w.Write(context.Background(), "run-1", sampleSnapshot()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	out := buf.String()
	if strings.Count(out, "\n") != 1 || !strings.HasSuffix(out, "\n") {
		t.Errorf("compact output should be one line, got %q", out)
	}

	var decoded []model.EnrichedUser
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Errorf("decoded %d users, want 2", len(decoded))
	}
	if !strings.Contains(out, `"posts":[]`) {
		t.Errorf("user without posts should encode an empty list, got %q", out)
	}
}

func TestWriter_Indent(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf, true)

	if err := w.Write(context.Background(), "run-1", sampleSnapshot()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if !strings.Contains(buf.String(), "\n  {\n    \"id\": 1,") {
		t.Errorf("expected two-space indentation, got %q", buf.String())
	}
}

func TestWriter_NilSnapshot(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewWriter(buf, false).Write(context.Background(), "run-1", nil); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got := buf.String(); got != "[]\n" {
		t.Errorf("nil snapshot = %q, want []", got)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriter_WriteError(t *testing.T) {
	err := NewWriter(failingWriter{}, false).Write(context.Background(), "run-1", sampleSnapshot())
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Write() error = %v, want wrapped disk full", err)
	}
}

type recordingSink struct {
	calls *[]string
	name  string
	err   error
}

func (r recordingSink) Write(context.Context, string, []model.EnrichedUser) error {
	*r.calls = append(*r.calls, r.name)
	return r.err
}

func TestMulti(t *testing.T) {
	var calls []string
	boom := errors.New("boom")

	m := Multi{
		recordingSink{calls: &calls, name: "a"},
		recordingSink{calls: &calls, name: "b", err: boom},
		recordingSink{calls: &calls, name: "c"},
	}

	err := m.Write(context.Background(), "run-1", sampleSnapshot())
	if !errors.Is(err, boom) {
		t.Errorf("Multi.Write() error = %v, want boom", err)
	}
	if strings.Join(calls, ",") != "a,b" {
		t.Errorf("calls = %v, want [a b]", calls)
	}
}
