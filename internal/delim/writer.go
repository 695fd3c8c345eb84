package delim

import (
	"bufio"
	"io"
	"strings"
)

// Writer writes rows in header order. Every cell is wrapped in the quote
// character unless the value already contains one, so quoted source text
// passes through unchanged instead of being double-wrapped.
type Writer struct {
	w      *bufio.Writer
	header []string
}

// NewWriter creates a Writer that emits rows with the given header order.
func NewWriter(w io.Writer, header []string) *Writer {
	return &Writer{w: bufio.NewWriter(w), header: header}
}

// WriteHeader writes the header line. Header cells go through the same
// quoting rule as data cells.
func (w *Writer) WriteHeader() error {
	row := make(Row, len(w.header))
	for _, name := range w.header {
		row[name] = name
	}
	return w.WriteRow(row)
}

// WriteRow writes one row in header order. A row lacking a value for a
// header column fails with MissingColumnError.
func (w *Writer) WriteRow(row Row) error {
	cells := make([]string, len(w.header))
	for i, name := range w.header {
		value, ok := row[name]
		if !ok {
			return &MissingColumnError{Column: name}
		}
		cells[i] = quoteCell(value)
	}
	if _, err := w.w.WriteString(strings.Join(cells, Delimiter)); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Flush writes buffered output to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// quoteCell wraps value in the quote character unless it already contains
// one.
func quoteCell(value string) string {
	if strings.Contains(value, Quote) {
		return value
	}
	return Quote + value + Quote
}
