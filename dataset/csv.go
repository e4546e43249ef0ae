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

package dataset

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/fetch"
)

// ReadCSV reads a raw experiment dataset from r. The first CSV row must be a
// header resolvable by c; value errors in any row surface as
// ErrMalformedInput with the row number. The returned rows preserve input
// order, which the cleaner relies on for its first-occurrence tie-breaks.
func ReadCSV(r io.Reader, c *ColumnConfig) ([]Row, error) {
	csvReader := csv.NewReader(r)
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, errors.Annotate(ErrMalformedInput, "failed to read CSV: %s",
			err.Error())
	}
	if len(records) == 0 {
		return nil, errors.Annotate(ErrMalformedInput, "CSV has no header row")
	}
	m, err := c.Resolve(records[0])
	if err != nil {
		return nil, errors.Annotate(err, "failed to resolve CSV header")
	}
	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		row, err := parseRow(rec, m)
		if err != nil {
			return nil, errors.Annotate(err, "failed to parse row %d", i+1)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(rec []string, m Mapping) (Row, error) {
	var row Row
	cell := func(i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return rec[i]
	}
	row.SubjectID = strings.TrimSpace(cell(m.SubjectID))
	if row.SubjectID == "" {
		return row, errors.Annotate(ErrMalformedInput, "empty subject id")
	}
	var err error
	if row.Group, err = ParseGroup(cell(m.Group)); err != nil {
		return row, err
	}
	if row.Variant, err = ParseVariant(cell(m.Variant)); err != nil {
		return row, err
	}
	if row.Outcome, err = ParseOutcome(cell(m.Outcome)); err != nil {
		return row, err
	}
	if m.Timestamp >= 0 && strings.TrimSpace(cell(m.Timestamp)) != "" {
		if row.Timestamp, err = ParseTimestamp(cell(m.Timestamp)); err != nil {
			return row, err
		}
	}
	return row, nil
}

// ReadCSVFile reads a raw experiment dataset from a local file.
func ReadCSVFile(path string, c *ColumnConfig) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open '%s'", path)
	}
	defer f.Close()
	rows, err := ReadCSV(f, c)
	if err != nil {
		return nil, errors.Annotate(err, "failed to read '%s'", path)
	}
	return rows, nil
}

// ReadCSVURL downloads and reads a raw experiment dataset from a URL.
func ReadCSVURL(ctx context.Context, uri string, c *ColumnConfig) ([]Row, error) {
	resp, err := fetch.GetRetry(ctx, uri, nil, nil)
	if err != nil {
		return nil, errors.Annotate(err, "failed to fetch '%s'", uri)
	}
	defer resp.Body.Close()
	rows, err := ReadCSV(resp.Body, c)
	if err != nil {
		return nil, errors.Annotate(err, "failed to read '%s'", uri)
	}
	return rows, nil
}

// AttrTable is an auxiliary per-subject attribute table (e.g. countries),
// keyed by subject id. Attribute column names come from the CSV header.
type AttrTable struct {
	Names []string                     // attribute column names, header order
	Attrs map[string]map[string]string // subject id -> attribute -> value
}

// ReadAttrCSV reads an auxiliary attribute table. The subject id column is
// resolved with c's subject id candidates; every other column becomes an
// attribute. For duplicate subject ids the first row wins.
func ReadAttrCSV(r io.Reader, c *ColumnConfig) (*AttrTable, error) {
	csvReader := csv.NewReader(r)
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, errors.Annotate(ErrMalformedInput,
			"failed to read attribute CSV: %s", err.Error())
	}
	if len(records) == 0 {
		return nil, errors.Annotate(ErrMalformedInput, "attribute CSV has no header row")
	}
	header := records[0]
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}
	idCol := findColumn(normalized, c.SubjectID)
	if idCol < 0 {
		return nil, errors.Annotate(ErrMissingColumn,
			"could not resolve: subject id in attribute CSV")
	}
	t := &AttrTable{Attrs: make(map[string]map[string]string)}
	for i, h := range normalized {
		if i != idCol {
			t.Names = append(t.Names, h)
		}
	}
	for i, rec := range records[1:] {
		if idCol >= len(rec) {
			return nil, errors.Annotate(ErrMalformedInput,
				"attribute row %d is too short", i+1)
		}
		id := strings.TrimSpace(rec[idCol])
		if id == "" {
			return nil, errors.Annotate(ErrMalformedInput,
				"empty subject id in attribute row %d", i+1)
		}
		if _, ok := t.Attrs[id]; ok {
			continue
		}
		attrs := make(map[string]string)
		for j, h := range normalized {
			if j == idCol {
				continue
			}
			if j < len(rec) {
				attrs[h] = strings.TrimSpace(rec[j])
			}
		}
		t.Attrs[id] = attrs
	}
	return t, nil
}

// ReadAttrCSVFile reads an auxiliary attribute table from a local file.
func ReadAttrCSVFile(path string, c *ColumnConfig) (*AttrTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open '%s'", path)
	}
	defer f.Close()
	t, err := ReadAttrCSV(f, c)
	if err != nil {
		return nil, errors.Annotate(err, "failed to read '%s'", path)
	}
	return t, nil
}
