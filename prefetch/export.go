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

package prefetch

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// TimeFormat is the layout of all timestamps in the exported tables.
const TimeFormat = "2006-01-02 15:04:05"

const osCreateFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC

// NamesHeader is the header of the artifact name table.
var NamesHeader = []string{"Prefetch File Name"}

// TimestampsHeader is the header of the artifact metadata table.
var TimestampsHeader = []string{"File Name", "Full Path", "Creation Time", "Last Access Time", "Last Modification Time"}

// WriteNames writes a one column table with the names of the artifacts.
func WriteNames(fs afero.Fs, path string, names []string) error {
	records := make([][]string, 0, len(names))
	for _, name := range names {
		records = append(records, []string{name})
	}
	return writeTable(fs, path, NamesHeader, records)
}

// WriteTimestamps writes one row per artifact with its three timestamps in
// local time. An empty slice produces a table with only the header row.
func WriteTimestamps(fs afero.Fs, path string, artifacts []Artifact) error {
	records := make([][]string, 0, len(artifacts))
	for _, a := range artifacts {
		records = append(records, []string{
			a.Name,
			a.Path,
			formatTime(a.Created),
			formatTime(a.Accessed),
			formatTime(a.Modified),
		})
	}
	return writeTable(fs, path, TimestampsHeader, records)
}

func formatTime(t time.Time) string {
	return t.Local().Format(TimeFormat)
}

func writeTable(fs afero.Fs, path string, header []string, records [][]string) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return errors.Wrap(err, "could not create output directory")
	}
	f, err := fs.OpenFile(path, osCreateFlags, 0640)
	if err != nil {
		return errors.Wrapf(err, "could not create %s", path)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close() // nolint:errcheck
		return err
	}
	if err := w.WriteAll(records); err != nil {
		f.Close() // nolint:errcheck
		return errors.Wrapf(err, "could not write %s", path)
	}
	return f.Close()
}
