// Copyright (c) 2019 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

// Package hexdump renders a column of a CSV table as an address annotated
// hex listing with the original text next to it.
//
// Every rune of a value is printed as its Unicode code point in lowercase hex
// with at least two digits, so ASCII and Latin-1 text keeps the classic
// two-digit layout while wider code points stay lossless:
//
//	00000000 | 42 52 41 56 45 2e 45 58 45 2d 31 2e 70 66        | BRAVE.EXE-1.pf
//
// Tables must be UTF-8 encoded, other input is rejected instead of being
// rendered with replacement characters.
package hexdump

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// DefaultRowWidth is the number of code points per output line.
const DefaultRowWidth = 16

// Table is a delimited table with a header row.
type Table struct {
	Header []string
	Rows   [][]string
}

// missingValues are the cell contents read as missing, the same set pandas
// uses by default.
var missingValues = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true,
	"-1.#IND": true, "-1.#QNAN": true, "-NaN": true, "-nan": true,
	"1.#IND": true, "1.#QNAN": true, "<NA>": true, "N/A": true,
	"NA": true, "NULL": true, "NaN": true, "None": true,
	"n/a": true, "nan": true, "null": true,
}

// ReadCSV reads a table. The first record is the header. Rows may have a
// different number of fields than the header.
func ReadCSV(r io.Reader) (*Table, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "could not read csv")
	}
	if !utf8.Valid(b) {
		return nil, errors.New("table is not valid UTF-8")
	}

	reader := csv.NewReader(bytes.NewReader(b))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "could not parse csv")
	}
	if len(records) == 0 {
		return nil, errors.New("table has no header")
	}
	return &Table{Header: records[0], Rows: records[1:]}, nil
}

// ColumnIndex returns the index of column, or 0 if the header does not
// contain it.
func (t *Table) ColumnIndex(column string) int {
	for i, name := range t.Header {
		if name == column {
			return i
		}
	}
	return 0
}

// Values returns the non-missing values of the column in row order. Short
// rows and cells like "", "NA" or "null" count as missing.
func (t *Table) Values(column string) []string {
	idx := t.ColumnIndex(column)
	var values []string
	for _, row := range t.Rows {
		if idx >= len(row) || missingValues[row[idx]] {
			continue
		}
		values = append(values, row[idx])
	}
	return values
}

// Render converts the selected column into hex dump lines. The address runs
// across all values of the column and advances by rowWidth for every line.
func Render(t *Table, column string, rowWidth int) []string {
	if t == nil || len(t.Header) == 0 {
		return nil
	}
	if rowWidth <= 0 {
		rowWidth = DefaultRowWidth
	}

	var lines []string
	address := 0
	for _, value := range t.Values(column) {
		runes := []rune(value)
		for i := 0; i < len(runes); i += rowWidth {
			end := i + rowWidth
			if end > len(runes) {
				end = len(runes)
			}
			lines = append(lines, Line(address, runes[i:end], rowWidth))
			address += rowWidth
		}
	}
	return lines
}

// Line formats a single chunk of a value.
func Line(address int, chunk []rune, rowWidth int) string {
	codes := make([]string, len(chunk))
	for i, r := range chunk {
		codes[i] = fmt.Sprintf("%02x", r)
	}
	return fmt.Sprintf("%08x | %-*s | %s", address, 3*rowWidth, strings.Join(codes, " "), string(chunk))
}
