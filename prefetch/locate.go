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

// Package prefetch locates, copies and describes Windows Prefetch files that
// belong to a given application.
package prefetch

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Artifact describes a single located Prefetch file.
type Artifact struct {
	Name     string
	Path     string
	Size     int64
	Created  time.Time
	Accessed time.Time
	Modified time.Time
}

// Match reports whether name contains marker (case-insensitive) and ends
// with ext.
func Match(name, marker, ext string) bool {
	return strings.Contains(strings.ToUpper(name), strings.ToUpper(marker)) &&
		strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext))
}

// Locate lists the entries of dir that match marker and ext. A missing
// directory is not an error and returns no names.
func Locate(fs afero.Fs, dir, marker, ext string) ([]string, error) {
	f, err := fs.Open(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, errors.Wrap(err, "could not open prefetch directory")
	}
	defer f.Close()

	// Readdirnames keeps the directory enumeration order.
	entries, err := f.Readdirnames(-1)
	if err != nil {
		return nil, errors.Wrap(err, "could not list prefetch directory")
	}

	names := []string{}
	for _, name := range entries {
		if Match(name, marker, ext) {
			names = append(names, name)
		}
	}
	return names, nil
}

// Stat reads the timestamps of every named file in dir. Files that cannot be
// read are left out of the result and reported in errs.
func Stat(fs afero.Fs, dir string, names []string) (artifacts []Artifact, errs []error) {
	for _, name := range names {
		p := filepath.Join(dir, name)
		info, err := fs.Stat(p)
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "could not stat %s", name))
			continue
		}
		created, accessed, modified := fileTimes(info)
		artifacts = append(artifacts, Artifact{
			Name:     name,
			Path:     p,
			Size:     info.Size(),
			Created:  created,
			Accessed: accessed,
			Modified: modified,
		})
	}
	return artifacts, errs
}
