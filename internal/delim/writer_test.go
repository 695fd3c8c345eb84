package delim

import (
	"errors"
	"strings"
	"testing"
)

func TestWriter_QuoteWrapping(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{
			name:  "bare value gets wrapped",
			value: "Alice",
			want:  "\"Alice\"\n",
		},
		{
			name:  "empty value becomes empty quotes",
			value: "",
			want:  "\"\"\n",
		},
		{
			name:  "already quoted value passes through",
			value: "\"Alice\"",
			want:  "\"Alice\"\n",
		},
		{
			name:  "value containing a quote passes through",
			value: "5\" pipe",
			want:  "5\" pipe\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf strings.Builder
			w := NewWriter(&buf, []string{"V"})
			if err := w.WriteRow(Row{"V": tt.value}); err != nil {
				t.Fatalf("WriteRow() error: %v", err)
			}
			if err := w.Flush(); err != nil {
				t.Fatalf("Flush() error: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("output = %q, expected %q", buf.String(), tt.want)
			}
		})
	}
}

func TestWriter_HeaderOrderAndHeaderLine(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf, []string{"B", "A"})

	if err := w.WriteHeader(); err != nil {
		t.Fatalf("WriteHeader() error: %v", err)
	}
	if err := w.WriteRow(Row{"A": "1", "B": "2"}); err != nil {
		t.Fatalf("WriteRow() error: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}

	want := "\"B\",\"A\"\n\"2\",\"1\"\n"
	if buf.String() != want {
		t.Errorf("output = %q, expected %q", buf.String(), want)
	}
}

func TestWriter_MissingColumn(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf, []string{"A", "B"})

	err := w.WriteRow(Row{"A": "1"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var missing *MissingColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingColumnError, got %T: %v", err, err)
	}
	if missing.Column != "B" {
		t.Errorf("Column = %q, expected %q", missing.Column, "B")
	}
}

func TestWriter_RoundTrip(t *testing.T) {
	var buf strings.Builder
	header := []string{"ID", "NAME"}
	w := NewWriter(&buf, header)

	if err := w.WriteHeader(); err != nil {
		t.Fatalf("WriteHeader() error: %v", err)
	}
	if err := w.WriteRow(Row{"ID": "1", "NAME": "Alice"}); err != nil {
		t.Fatalf("WriteRow() error: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}

	r := NewReader(strings.NewReader(buf.String()))
	if got := r.Header(); len(got) != 2 || got[0] != "\"ID\"" || got[1] != "\"NAME\"" {
		t.Fatalf("re-read header = %v", got)
	}
	if !r.Scan() {
		t.Fatalf("expected one row, got none (err: %v)", r.Err())
	}
	row, ok := r.Row()
	if !ok {
		t.Fatalf("unexpected malformed row: %v", r.Cells())
	}
	if row["\"ID\""] != "\"1\"" || row["\"NAME\""] != "\"Alice\"" {
		t.Errorf("re-read row = %v", row)
	}
}
