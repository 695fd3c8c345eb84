package delim

import (
	"strings"
	"testing"
)

func TestNewReader_Header(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "plain header",
			input: "ID,NAME,CITY\n",
			want:  []string{"ID", "NAME", "CITY"},
		},
		{
			name:  "header with surrounding whitespace",
			input: "  ID,NAME,CITY  \n",
			want:  []string{"ID", "NAME", "CITY"},
		},
		{
			name:  "quoted header cells keep their quotes",
			input: "\"CUSTOMER_CODE\",\"NAME\"\n",
			want:  []string{"\"CUSTOMER_CODE\"", "\"NAME\""},
		},
		{
			name:  "crlf line ending",
			input: "ID,NAME\r\n",
			want:  []string{"ID", "NAME"},
		},
		{
			name:  "single column",
			input: "ID\n",
			want:  []string{"ID"},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input))
			if err := r.Err(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := r.Header()
			if len(got) != len(tt.want) {
				t.Fatalf("header = %v, expected %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("header[%d] = %q, expected %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestReader_Rows(t *testing.T) {
	input := "ID,NAME,CITY\n1,Alice,Paris\n2,Bob,Lyon\n"
	r := NewReader(strings.NewReader(input))

	var rows []Row
	var lines []int
	for r.Scan() {
		row, ok := r.Row()
		if !ok {
			t.Fatalf("line %d: unexpected malformed row %v", r.Line(), r.Cells())
		}
		rows = append(rows, row)
		lines = append(lines, r.Line())
	}
	if err := r.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["ID"] != "1" || rows[0]["NAME"] != "Alice" || rows[0]["CITY"] != "Paris" {
		t.Errorf("row 0 = %v", rows[0])
	}
	if rows[1]["ID"] != "2" || rows[1]["NAME"] != "Bob" || rows[1]["CITY"] != "Lyon" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if lines[0] != 2 || lines[1] != 3 {
		t.Errorf("line numbers = %v, expected [2 3]", lines)
	}
}

func TestReader_MalformedRows(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOK    []bool
		wantCells []int
	}{
		{
			name:      "short row",
			input:     "A,B,C\n1,2\n1,2,3\n",
			wantOK:    []bool{false, true},
			wantCells: []int{2, 3},
		},
		{
			name:      "long row",
			input:     "A,B\n1,2,3\n",
			wantOK:    []bool{false},
			wantCells: []int{3},
		},
		{
			name:      "blank line counts as one empty cell",
			input:     "A,B\n\n1,2\n",
			wantOK:    []bool{false, true},
			wantCells: []int{1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input))
			var i int
			for r.Scan() {
				if i >= len(tt.wantOK) {
					t.Fatalf("more rows than expected: %v", r.Cells())
				}
				_, ok := r.Row()
				if ok != tt.wantOK[i] {
					t.Errorf("row %d: ok = %v, expected %v", i, ok, tt.wantOK[i])
				}
				if len(r.Cells()) != tt.wantCells[i] {
					t.Errorf("row %d: %d cells, expected %d", i, len(r.Cells()), tt.wantCells[i])
				}
				i++
			}
			if err := r.Err(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if i != len(tt.wantOK) {
				t.Errorf("read %d rows, expected %d", i, len(tt.wantOK))
			}
		})
	}
}

func TestReader_QuotesAreLiteral(t *testing.T) {
	// A comma inside a quoted cell still splits: quoting is not honored.
	input := "A,B\n\"x,y\",z\n"
	r := NewReader(strings.NewReader(input))
	if !r.Scan() {
		t.Fatalf("expected one row, got none (err: %v)", r.Err())
	}
	cells := r.Cells()
	if len(cells) != 3 {
		t.Fatalf("expected 3 cells, got %d: %v", len(cells), cells)
	}
	if cells[0] != "\"x" || cells[1] != "y\"" || cells[2] != "z" {
		t.Errorf("cells = %v", cells)
	}
	if _, ok := r.Row(); ok {
		t.Error("expected malformed row, got ok")
	}
}

func TestReader_QuotedCellValue(t *testing.T) {
	input := "CODE,NAME\n\"C1\",\"Alice\"\n"
	r := NewReader(strings.NewReader(input))
	if !r.Scan() {
		t.Fatalf("expected one row, got none (err: %v)", r.Err())
	}
	row, ok := r.Row()
	if !ok {
		t.Fatalf("unexpected malformed row: %v", r.Cells())
	}
	if row["CODE"] != "\"C1\"" {
		t.Errorf("CODE = %q, expected %q", row["CODE"], "\"C1\"")
	}
}

func TestReader_HasColumn(t *testing.T) {
	r := NewReader(strings.NewReader("ID,\"CODE\"\n"))

	if !r.HasColumn("ID") {
		t.Error("expected HasColumn(ID) to be true")
	}
	if !r.HasColumn("\"CODE\"") {
		t.Error("expected quoted spelling to match")
	}
	if r.HasColumn("CODE") {
		t.Error("unquoted spelling must not match a quoted header cell")
	}
	if r.HasColumn("MISSING") {
		t.Error("expected HasColumn(MISSING) to be false")
	}
}

func TestReader_DuplicateHeaderRightmostWins(t *testing.T) {
	r := NewReader(strings.NewReader("A,A\n1,2\n"))
	if !r.Scan() {
		t.Fatalf("expected one row, got none (err: %v)", r.Err())
	}
	row, ok := r.Row()
	if !ok {
		t.Fatalf("unexpected malformed row: %v", r.Cells())
	}
	if row["A"] != "2" {
		t.Errorf("A = %q, expected %q", row["A"], "2")
	}
}
