// Package delim reads and writes the comma-delimited files the extractor
// operates on. Quote characters are literal cell text: splitting never
// honors CSV-style quoting, so a header cell `"CUSTOMER_CODE"` keeps its
// quotes and only matches the same quoted spelling. The first line of a
// file is the header; every following newline-terminated line is a data
// row.
package delim

import "fmt"

const (
	// Delimiter separates cells within a row.
	Delimiter = ","

	// Quote is the character the Writer wraps cell values in.
	Quote = `"`
)

// maxLineSize bounds a single line; longer lines fail the read.
const maxLineSize = 1024 * 1024

// Row maps header column names to cell text for a single data row.
// When the header repeats a column name, the rightmost cell wins.
type Row map[string]string

// MissingColumnError reports a row that lacks a value for a header column.
type MissingColumnError struct {
	// Column is the header column the row has no value for.
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("row has no value for column %q", e.Column)
}
