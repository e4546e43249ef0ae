// Copyright 2025 Split Sig

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/stockparfait/errors"
)

// Row is the interface a table row representation must implement.
type Row interface {
	CSV() []string // an encoding/csv compatible row representation
}

// Strings is a trivial Row made of pre-rendered cells.
type Strings []string

var _ Row = Strings{}

// CSV implements Row.
func (s Strings) CSV() []string { return s }

// Table is a column-named container of rows, exportable as CSV or as
// human-readable aligned text.
type Table struct {
	Header []string // optional, may be nil
	Rows   []Row
}

// NewTable creates a new Table instance with optional column headers. When
// present, the number of headers is expected to match the number of cells in
// each Row.
func NewTable(header ...string) *Table {
	return &Table{Header: header}
}

// AddRow adds one or more rows to the table.
func (t *Table) AddRow(rows ...Row) {
	t.Rows = append(t.Rows, rows...)
}

// Params are parameters for CSV or text export of Table data.
type Params struct {
	Rows     int  // max. number of rows to write; 0 = unlimited (default)
	NoHeader bool // whether to skip the header; default - print it
}

// rowLimit returns the number of rows to export under p.
func (t *Table) rowLimit(p Params) int {
	if p.Rows > 0 && p.Rows < len(t.Rows) {
		return p.Rows
	}
	return len(t.Rows)
}

// WriteCSV writes the table to w in CSV format.
func (t *Table) WriteCSV(w io.Writer, p Params) error {
	cw := csv.NewWriter(w)
	if !p.NoHeader && len(t.Header) > 0 {
		if err := cw.Write(t.Header); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
	}
	for _, r := range t.Rows[:t.rowLimit(p)] {
		if err := cw.Write(r.CSV()); err != nil {
			return errors.Annotate(err, "failed to write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Annotate(err, "failed to flush written rows")
	}
	return nil
}

// WriteText writes the table as column-aligned text for ease of reading.
func (t *Table) WriteText(w io.Writer, p Params) error {
	var lines [][]string
	if !p.NoHeader && len(t.Header) > 0 {
		lines = append(lines, t.Header)
	}
	headerLines := len(lines)
	for _, r := range t.Rows[:t.rowLimit(p)] {
		lines = append(lines, r.CSV())
	}
	if len(lines) == 0 {
		return nil
	}

	widths := make([]int, len(lines[0]))
	for _, l := range lines {
		if len(l) != len(widths) {
			return errors.Reason("row size [%d] != expected size [%d]",
				len(l), len(widths))
		}
		for i, c := range l {
			if len([]rune(c)) > widths[i] {
				widths[i] = len([]rune(c))
			}
		}
	}

	writeLine := func(l []string) error {
		padded := make([]string, len(l))
		for i, c := range l {
			padded[i] = fmt.Sprintf("%[2]*[1]s", c, widths[i])
		}
		_, err := fmt.Fprintf(w, "%s\n", strings.Join(padded, " | "))
		return err
	}

	for i, l := range lines {
		if err := writeLine(l); err != nil {
			return errors.Annotate(err, "failed to write table line")
		}
		if headerLines > 0 && i == headerLines-1 {
			sep := make([]string, len(widths))
			for j, wd := range widths {
				sep[j] = strings.Repeat("-", wd)
			}
			if err := writeLine(sep); err != nil {
				return errors.Annotate(err, "failed to write header separator")
			}
		}
	}
	return nil
}
