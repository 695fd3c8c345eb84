package delim

import (
	"bufio"
	"io"
	"strings"
)

// Reader iterates over the data rows of a delimited file. The header line
// is consumed when the Reader is created; data rows are then read lazily,
// one line per Scan call, so files larger than memory stream through.
type Reader struct {
	scanner *bufio.Scanner
	header  []string
	cells   []string
	line    int
	err     error
}

// NewReader creates a Reader over r and consumes the header line. The
// header is whitespace-trimmed and split on the delimiter; an empty input
// yields a nil header and no rows.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	rd := &Reader{scanner: s}
	if s.Scan() {
		rd.header = strings.Split(strings.TrimSpace(s.Text()), Delimiter)
		rd.line = 1
	} else {
		rd.err = s.Err()
	}
	return rd
}

// Header returns the column names from the first line, in file order.
func (r *Reader) Header() []string {
	return r.header
}

// HasColumn reports whether name is one of the header columns. The match
// is exact; quoted header cells only match their quoted spelling.
func (r *Reader) HasColumn(name string) bool {
	for _, h := range r.header {
		if h == name {
			return true
		}
	}
	return false
}

// Scan advances to the next data row. It returns false when the input is
// exhausted or a read error occurred; Err distinguishes the two.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	if !r.scanner.Scan() {
		r.err = r.scanner.Err()
		return false
	}
	r.line++
	r.cells = strings.Split(r.scanner.Text(), Delimiter)
	return true
}

// Row pairs the current row's cells with the header columns. ok is false
// when the cell count differs from the header width; such rows have no
// reliable column mapping and carry no Row.
func (r *Reader) Row() (Row, bool) {
	if len(r.cells) != len(r.header) {
		return nil, false
	}
	row := make(Row, len(r.header))
	for i, name := range r.header {
		row[name] = r.cells[i]
	}
	return row, true
}

// Cells returns the raw cells of the current row, as split on the
// delimiter.
func (r *Reader) Cells() []string {
	return r.cells
}

// Line returns the 1-based file line number of the current row. Before the
// first Scan it names the header line.
func (r *Reader) Line() int {
	return r.line
}

// Err returns the first read error encountered, if any.
func (r *Reader) Err() error {
	return r.err
}
