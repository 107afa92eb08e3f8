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
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prefetchDir = "/Windows/Prefetch"

var fixedTime = time.Date(2024, 3, 1, 12, 30, 45, 0, time.Local)

func setup(t *testing.T, names ...string) afero.Fs {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(prefetchDir, 0755))
	for _, name := range names {
		p := filepath.Join(prefetchDir, name)
		require.NoError(t, afero.WriteFile(fs, p, []byte("SCCA "+name), 0644))
		require.NoError(t, fs.Chtimes(p, fixedTime, fixedTime))
	}
	return fs
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"BRAVE.EXE-A1B2C3D4.pf", true},
		{"brave2.PF", true},
		{"BraveUpdate.exe-00000000.pf", true},
		{"CHROME.EXE-12345678.pf", false},
		{"BRAVE.EXE-A1B2C3D4.pf.bak", false},
		{"BRAVE.db", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.name, "BRAVE", ".pf"))
		})
	}
}

func TestLocate(t *testing.T) {
	fs := setup(t, "BRAVE1.pf", "brave2.PF", "chrome.pf")

	names, err := Locate(fs, prefetchDir, "BRAVE", ".pf")
	require.NoError(t, err)
	assert.Equal(t, []string{"BRAVE1.pf", "brave2.PF"}, names)
}

func TestLocateMissingDirectory(t *testing.T) {
	names, err := Locate(afero.NewMemMapFs(), "/does/not/exist", "BRAVE", ".pf")
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.NotNil(t, names)
}

func TestCopy(t *testing.T) {
	fs := setup(t, "BRAVE1.pf", "BRAVE3.pf")

	results := Copy(fs, prefetchDir, "/work/prefetch", []string{"BRAVE1.pf", "BRAVE2.pf", "BRAVE3.pf"})
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err, "missing source must fail")
	assert.NoError(t, results[2].Err, "batch continues after a failure")

	for _, name := range []string{"BRAVE1.pf", "BRAVE3.pf"} {
		dst := filepath.Join("/work/prefetch", name)
		b, err := afero.ReadFile(fs, dst)
		require.NoError(t, err)
		assert.Equal(t, "SCCA "+name, string(b))

		info, err := fs.Stat(dst)
		require.NoError(t, err)
		assert.True(t, info.ModTime().Equal(fixedTime), "modification time preserved")
	}

	assert.Equal(t, int64(len("SCCA BRAVE1.pf")), results[0].Size)
	assert.Len(t, results[0].Hashes["MD5"], 32)
	assert.Len(t, results[0].Hashes["SHA-1"], 40)
}

func TestStat(t *testing.T) {
	fs := setup(t, "BRAVE1.pf")

	artifacts, errs := Stat(fs, prefetchDir, []string{"BRAVE1.pf", "missing.pf"})
	require.Len(t, artifacts, 1)
	require.Len(t, errs, 1)

	a := artifacts[0]
	assert.Equal(t, "BRAVE1.pf", a.Name)
	assert.Equal(t, filepath.Join(prefetchDir, "BRAVE1.pf"), a.Path)
	assert.True(t, a.Modified.Equal(fixedTime))
}

func TestWriteNames(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, WriteNames(fs, "/work/data/names.csv", []string{"BRAVE1.pf", "brave2.PF"}))

	records := readCSV(t, fs, "/work/data/names.csv")
	assert.Equal(t, [][]string{{"Prefetch File Name"}, {"BRAVE1.pf"}, {"brave2.PF"}}, records)
}

func TestWriteTimestamps(t *testing.T) {
	fs := setup(t, "BRAVE1.pf", "brave2.PF")
	artifacts, errs := Stat(fs, prefetchDir, []string{"BRAVE1.pf", "brave2.PF"})
	require.Empty(t, errs)

	require.NoError(t, WriteTimestamps(fs, "/work/data/timestamps.csv", artifacts))

	records := readCSV(t, fs, "/work/data/timestamps.csv")
	require.Len(t, records, 3)
	assert.Equal(t, TimestampsHeader, records[0])
	for _, record := range records[1:] {
		for _, field := range record[2:] {
			assert.Equal(t, "2024-03-01 12:30:45", field)
		}
	}
	assert.Equal(t, "brave2.PF", records[2][0])
}

func TestWriteTimestampsEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, WriteTimestamps(fs, "/work/data/timestamps.csv", nil))

	records := readCSV(t, fs, "/work/data/timestamps.csv")
	assert.Equal(t, [][]string{TimestampsHeader}, records)
}

func readCSV(t *testing.T, fs afero.Fs, path string) [][]string {
	f, err := fs.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}
