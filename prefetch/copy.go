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
	"crypto/md5"  // #nosec
	"crypto/sha1" // #nosec
	"fmt"
	"io"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// CopyResult is the outcome of copying one file.
type CopyResult struct {
	Name        string
	Destination string
	Size        int64
	Hashes      map[string]interface{}
	Err         error
}

// Copy copies the named files from srcDir to dstDir, keeping mode, access and
// modification time. A failed file does not stop the remaining ones.
func Copy(fs afero.Fs, srcDir, dstDir string, names []string) []CopyResult {
	results := make([]CopyResult, 0, len(names))
	if err := fs.MkdirAll(dstDir, 0750); err != nil {
		for _, name := range names {
			results = append(results, CopyResult{Name: name, Err: errors.Wrap(err, "could not create destination")})
		}
		return results
	}

	for _, name := range names {
		result := CopyResult{Name: name, Destination: filepath.Join(dstDir, name)}
		result.Size, result.Hashes, result.Err = copyFile(fs, filepath.Join(srcDir, name), result.Destination)
		results = append(results, result)
	}
	return results
}

func copyFile(fs afero.Fs, src, dst string) (int64, map[string]interface{}, error) {
	info, err := fs.Stat(src)
	if err != nil {
		return 0, nil, errors.Wrap(err, "could not stat source")
	}

	in, err := fs.Open(src)
	if err != nil {
		return 0, nil, errors.Wrap(err, "could not open source")
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, osCreateFlags, info.Mode().Perm())
	if err != nil {
		return 0, nil, errors.Wrap(err, "could not create destination")
	}

	md5Hash, sha1Hash := md5.New(), sha1.New() // #nosec
	size, err := io.Copy(io.MultiWriter(out, md5Hash, sha1Hash), in)
	if err != nil {
		out.Close() // nolint:errcheck
		return 0, nil, errors.Wrap(err, "could not copy")
	}
	if err := out.Close(); err != nil {
		return 0, nil, err
	}

	if err := fs.Chmod(dst, info.Mode()); err != nil {
		return 0, nil, errors.Wrap(err, "could not set mode")
	}
	_, accessed, modified := fileTimes(info)
	if err := fs.Chtimes(dst, accessed, modified); err != nil {
		return 0, nil, errors.Wrap(err, "could not set times")
	}

	return size, map[string]interface{}{
		"MD5":   fmt.Sprintf("%x", md5Hash.Sum(nil)),
		"SHA-1": fmt.Sprintf("%x", sha1Hash.Sum(nil)),
	}, nil
}
