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

package forensicstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func setup(t *testing.T) (string, *Store) {
	dir := t.TempDir()
	store, err := New(filepath.Join(dir, "test.forensicstore"))
	require.NoError(t, err)
	return dir, store
}

func exampleFile(t *testing.T, dir string) *File {
	content := []byte("SCCA brave")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "prefetch"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prefetch", "BRAVE.EXE-1.pf"), content, 0644))

	file := NewFile()
	file.Artifact = "WindowsPrefetchFiles"
	file.Name = "BRAVE.EXE-1.pf"
	file.Size = float64(len(content))
	file.ExportPath = "prefetch/BRAVE.EXE-1.pf"
	file.Origin = map[string]interface{}{"path": `C:\Windows\Prefetch\BRAVE.EXE-1.pf`}
	file.Hashes = map[string]interface{}{
		"MD5":   "8d1e3ad1c49a7b0a9a5d13d4d4d5b56c",
		"SHA-1": "0000000000000000000000000000000000000000",
	}
	return file
}

func TestNewExisting(t *testing.T) {
	dir, store := setup(t)
	require.NoError(t, store.Close())

	_, err := New(filepath.Join(dir, "test.forensicstore"))
	assert.ErrorIs(t, err, ErrStoreExists)

	_, err = Open(filepath.Join(dir, "missing.forensicstore"))
	assert.ErrorIs(t, err, ErrStoreNotExists)

	reopened, err := OpenOrCreate(filepath.Join(dir, "test.forensicstore"))
	require.NoError(t, err)
	assert.NoError(t, reopened.Close())
}

func TestInsert(t *testing.T) {
	tests := []struct {
		name    string
		element string
		wantErr bool
	}{
		{"with id", `{"id": "foo--1", "type": "foo", "value": 1}`, false},
		{"without id", `{"type": "foo", "value": 2}`, false},
		{"without type", `{"value": 3}`, true},
		{"type field", `{"type": "foo", "foo": 3}`, true},
		{"invalid file", `{"type": "file", "size": -1}`, true},
		{"valid file", `{"type": "file", "name": "a.pf", "size": 12}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, store := setup(t)
			defer store.Close()

			id, err := store.Insert(JSONElement(tt.element))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			element, err := store.Get(id)
			require.NoError(t, err)
			assert.Equal(t, id, gjson.GetBytes(element, "id").String())
		})
	}
}

func TestInsertStruct(t *testing.T) {
	dir, store := setup(t)
	defer store.Close()

	id, err := store.InsertStruct(exampleFile(t, dir))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "file--"))

	element, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "BRAVE.EXE-1.pf", gjson.GetBytes(element, "name").String())
	assert.Equal(t, "prefetch/BRAVE.EXE-1.pf", gjson.GetBytes(element, "export_path").String())
	assert.Equal(t, "WindowsPrefetchFiles", gjson.GetBytes(element, "artifact").String())
	assert.True(t, gjson.GetBytes(element, "hashes.MD5").Exists())
	assert.False(t, gjson.GetBytes(element, "errors").Exists(), "empty fields are dropped")

	process := NewProcess()
	process.Name = "PECmd.exe"
	process.Arguments = []interface{}{"-d", "prefetch"}
	id, err = store.InsertStruct(process)
	require.NoError(t, err)
	element, err = store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gjson.GetBytes(element, "return_code").Int())
	assert.True(t, gjson.GetBytes(element, "return_code").Exists())
}

func TestSelect(t *testing.T) {
	_, store := setup(t)
	defer store.Close()

	for _, element := range []JSONElement{
		JSONElement(`{"type": "file", "name": "BRAVE.EXE-1.pf", "artifact": "WindowsPrefetchFiles"}`),
		JSONElement(`{"type": "file", "name": "brave2.pf", "artifact": "WindowsPrefetchFiles"}`),
		JSONElement(`{"type": "process", "name": "history.exe", "artifact": "BraveHistory"}`),
	} {
		_, err := store.Insert(element)
		require.NoError(t, err)
	}

	tests := []struct {
		name       string
		conditions []map[string]string
		want       int
	}{
		{"all", nil, 3},
		{"type", []map[string]string{{"type": "file"}}, 2},
		{"and", []map[string]string{{"type": "file", "name": "BRAVE%"}}, 2},
		{"or", []map[string]string{{"type": "process"}, {"name": "brave2.pf"}}, 2},
		{"none", []map[string]string{{"artifact": "Nothing"}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elements, err := store.Select(tt.conditions)
			require.NoError(t, err)
			assert.Len(t, elements, tt.want)
		})
	}

	found, err := store.Search(`"history.exe"`)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestGetMissing(t *testing.T) {
	_, store := setup(t)
	defer store.Close()

	_, err := store.Get("file--missing")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir, store := setup(t)
	defer store.Close()

	file := exampleFile(t, dir)
	_, err := store.InsertStruct(file)
	require.NoError(t, err)

	missing := NewFile()
	missing.Name = "gone.pf"
	missing.ExportPath = "prefetch/gone.pf"
	_, err = store.InsertStruct(missing)
	require.NoError(t, err)

	flaws, err := store.Validate()
	require.NoError(t, err)
	assert.Len(t, flaws, 3)

	var joined = strings.Join(flaws, "\n")
	assert.Contains(t, joined, "hashvalue mismatch MD5")
	assert.Contains(t, joined, "hashvalue mismatch SHA-1")
	assert.Contains(t, joined, "missing file prefetch/gone.pf")
}

func TestValidateMemFs(t *testing.T) {
	_, store := setup(t)
	defer store.Close()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "tools/BraveHistory/stdout", []byte("ok"), 0644))
	store.SetFS(fs)

	_, err := store.Insert(JSONElement(`{"type": "process", "stdout_path": "tools/BraveHistory/stdout", "stderr_path": "../escape"}`))
	require.NoError(t, err)

	flaws, err := store.Validate()
	require.NoError(t, err)
	require.Len(t, flaws, 1)
	assert.Contains(t, flaws[0], "'..' in ../escape")
}

func TestViews(t *testing.T) {
	dir, store := setup(t)

	_, err := store.Insert(JSONElement(`{"type": "file", "name": "a.pf", "origin": {"path": "C:\\a.pf"}}`))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(filepath.Join(dir, "test.forensicstore"))
	require.NoError(t, err)
	defer store.Close()

	elements, err := store.Query("SELECT json_object('name', name, 'origin', \"origin.path\") as json FROM file")
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, `C:\a.pf`, gjson.GetBytes(elements[0], "origin").String())
	assert.True(t, store.types.all()["file"]["origin.path"])
}

func TestMemory(t *testing.T) {
	store, err := New(":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Insert(JSONElement(`{"type": "file", "name": "a.pf"}`))
	assert.NoError(t, err)
}
