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

//go:build windows

package prefetch

import (
	"os"
	"syscall"
	"time"
)

func fileTimes(info os.FileInfo) (created, accessed, modified time.Time) {
	created, accessed, modified = info.ModTime(), info.ModTime(), info.ModTime()
	if d, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		created = time.Unix(0, d.CreationTime.Nanoseconds())
		accessed = time.Unix(0, d.LastAccessTime.Nanoseconds())
		modified = time.Unix(0, d.LastWriteTime.Nanoseconds())
	}
	return created, accessed, modified
}
