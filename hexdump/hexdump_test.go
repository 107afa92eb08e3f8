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
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(header []string, rows ...[]string) *Table {
	return &Table{Header: header, Rows: rows}
}

func TestRender(t *testing.T) {
	w16 := strings.Repeat("a", 16)
	w32 := strings.Repeat("b", 32)

	tests := []struct {
		name   string
		table  *Table
		column string
		want   []string
	}{
		{"empty table", table([]string{"url"}), "", nil},
		{
			"short value", table([]string{"url"}, []string{"AB"}), "",
			[]string{"00000000 | 41 42" + strings.Repeat(" ", 43) + " | AB"},
		},
		{
			"exact row", table([]string{"url"}, []string{w16}), "",
			[]string{"00000000 | " + strings.TrimSpace(strings.Repeat("61 ", 16)) + " " + " | " + w16},
		},
		{
			"two rows", table([]string{"url"}, []string{w32}), "",
			[]string{
				"00000000 | " + strings.TrimSpace(strings.Repeat("62 ", 16)) + "  | " + w32[:16],
				"00000010 | " + strings.TrimSpace(strings.Repeat("62 ", 16)) + "  | " + w32[16:],
			},
		},
		{
			"address continues", table([]string{"url"}, []string{"A"}, []string{"B"}), "",
			[]string{
				"00000000 | 41" + strings.Repeat(" ", 46) + " | A",
				"00000010 | 42" + strings.Repeat(" ", 46) + " | B",
			},
		},
		{
			"missing values skipped", table([]string{"a", "b"}, []string{"x", "A"}, []string{"y", ""}, []string{"z"}, []string{"w", "B"}), "b",
			[]string{
				"00000000 | 41" + strings.Repeat(" ", 46) + " | A",
				"00000010 | 42" + strings.Repeat(" ", 46) + " | B",
			},
		},
		{
			"missing value markers skipped", table([]string{"v"}, []string{"NaN"}, []string{"A"}, []string{"NULL"}, []string{"n/a"}, []string{"None"}, []string{"#N/A"}, []string{"B"}), "",
			[]string{
				"00000000 | 41" + strings.Repeat(" ", 46) + " | A",
				"00000010 | 42" + strings.Repeat(" ", 46) + " | B",
			},
		},
		{
			"markers inside text kept", table([]string{"v"}, []string{" NA"}), "",
			[]string{"00000000 | 20 4e 41" + strings.Repeat(" ", 40) + " | " + " NA"},
		},
		{
			"unknown column", table([]string{"first", "second"}, []string{"F", "S"}), "third",
			[]string{"00000000 | 46" + strings.Repeat(" ", 46) + " | F"},
		},
		{
			"selected column", table([]string{"first", "second"}, []string{"F", "S"}), "second",
			[]string{"00000000 | 53" + strings.Repeat(" ", 46) + " | S"},
		},
		{
			"wide code points", table([]string{"v"}, []string{"é€"}), "",
			[]string{"00000000 | e9 20ac" + strings.Repeat(" ", 41) + " | é€"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.table, tt.column, DefaultRowWidth)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderShortChunkAdvancesFullRow(t *testing.T) {
	lines := Render(table([]string{"v"}, []string{strings.Repeat("x", 17)}, []string{"y"}), "", 16)
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "00000010 | 78 "))
	assert.True(t, strings.HasPrefix(lines[2], "00000020 | 79 "))
}

func TestRenderRowWidth(t *testing.T) {
	lines := Render(table([]string{"v"}, []string{"abcdef"}), "", 4)
	assert.Equal(t, []string{
		"00000000 | 61 62 63 64  | abcd",
		"00000004 | 65 66        | ef",
	}, lines)

	assert.Len(t, Render(table([]string{"v"}, []string{"abc"}), "", 0), 1, "zero width falls back to the default")
}

func TestRenderIsRestartable(t *testing.T) {
	tbl := table([]string{"v"}, []string{"abc"})
	assert.Equal(t, Render(tbl, "", 16), Render(tbl, "", 16))
}

func TestReadCSV(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("URL,Title\nhttps://brave.com,Brave\n\"a,b\"\nlonely\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"URL", "Title"}, tbl.Header)
	assert.Equal(t, [][]string{{"https://brave.com", "Brave"}, {"a,b"}, {"lonely"}}, tbl.Rows)

	_, err = ReadCSV(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("Title\ncaf\xe9\n"))
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "UTF-8")
	}
}

func TestDumpDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/brave_default_history.csv", []byte("URL,Title\nhttps://brave.com,Brave\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/data/empty.csv", []byte("URL\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/data/latin1.csv", []byte("Title\ncaf\xe9\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/data/notes.txt", []byte("ignored"), 0644))
	require.NoError(t, fs.MkdirAll("/data/folder.csv", 0755))

	results, err := DumpDir(fs, "/data", "/data/hex", "", 16)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, "/data/hex/brave_default_history.csv_hex.txt", results[0].Output)
	assert.Equal(t, "URL", results[0].Column)
	assert.Equal(t, 2, results[0].Lines)

	assert.True(t, results[1].Skipped)
	exists, err := afero.Exists(fs, "/data/hex/empty.csv_hex.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Error(t, results[2].Err, "invalid UTF-8 is reported")
	exists, err = afero.Exists(fs, "/data/hex/latin1.csv_hex.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	b, err := afero.ReadFile(fs, results[0].Output)
	require.NoError(t, err)
	want := "00000000 | 68 74 74 70 73 3a 2f 2f 62 72 61 76 65 2e 63 6f  | https://brave.co\n" +
		"00000010 | 6d" + strings.Repeat(" ", 46) + " | m"
	assert.Equal(t, want, string(b))
}

func TestDumpDirMissing(t *testing.T) {
	_, err := DumpDir(afero.NewMemMapFs(), "/nope", "/nope/hex", "", 16)
	assert.NoError(t, err, "hex directory creation also creates the data directory")
}

func TestWrite(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Write(buf, []string{"a", "b"}))
	assert.Equal(t, "a\nb\n", buf.String())
}
