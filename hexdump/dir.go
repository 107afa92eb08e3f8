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

package hexdump

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// DumpResult is the outcome for one table of a directory.
type DumpResult struct {
	Source string
	Output string
	Column string
	Lines  int
	// Skipped is set for tables without rows, no output file is written.
	Skipped bool
	Err     error
}

// DumpFile renders the table at path.
func DumpFile(fs afero.Fs, path, column string, rowWidth int) (lines []string, selected string, err error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	table, err := ReadCSV(f)
	if err != nil {
		return nil, "", errors.Wrap(err, path)
	}
	selected = table.Header[table.ColumnIndex(column)]
	return Render(table, column, rowWidth), selected, nil
}

// DumpDir renders every .csv file directly inside dataDir into
// hexDir/<name>_hex.txt. Errors are reported per file.
func DumpDir(fs afero.Fs, dataDir, hexDir, column string, rowWidth int) ([]DumpResult, error) {
	if err := fs.MkdirAll(hexDir, 0750); err != nil {
		return nil, errors.Wrap(err, "could not create hex directory")
	}

	infos, err := afero.ReadDir(fs, dataDir)
	if err != nil {
		return nil, errors.Wrap(err, "could not list data directory")
	}

	var results []DumpResult
	for _, info := range infos {
		if !info.Mode().IsRegular() || !strings.HasSuffix(info.Name(), ".csv") {
			continue
		}
		result := DumpResult{Source: filepath.Join(dataDir, info.Name())}

		lines, selected, err := DumpFile(fs, result.Source, column, rowWidth)
		result.Column = selected
		switch {
		case err != nil:
			result.Err = err
		case len(lines) == 0:
			result.Skipped = true
		default:
			result.Output = filepath.Join(hexDir, info.Name()+"_hex.txt")
			result.Lines = len(lines)
			result.Err = afero.WriteFile(fs, result.Output, []byte(strings.Join(lines, "\n")), 0640)
		}
		results = append(results, result)
	}
	return results, nil
}

// Write prints lines to w, one per line.
func Write(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
