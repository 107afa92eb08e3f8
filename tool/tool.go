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

// Package tool runs external forensic executables and keeps their output.
package tool

import (
	"bytes"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Output is the captured result of a finished process.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Started  time.Time
	Finished time.Time
}

// Runner starts a process and waits for it.
type Runner interface {
	Run(name string, args []string, dir string) (*Output, error)
}

// ExecRunner runs processes on the host. There is no timeout, a hanging
// tool blocks the caller.
type ExecRunner struct{}

// Run executes name with args in dir. A non-zero exit code is not an error,
// only a process that could not be started is.
func (ExecRunner) Run(name string, args []string, dir string) (*Output, error) {
	cmd := exec.Command(name, args...) // #nosec
	cmd.Dir = dir

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	out := &Output{Started: time.Now()}
	err := cmd.Run()
	out.Finished = time.Now()
	out.Stdout = stdout.Bytes()
	out.Stderr = stderr.Bytes()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return nil, errors.Wrapf(err, "could not run %s", name)
	}
	return out, nil
}

// CommandLine joins name and args for display.
func CommandLine(name string, args []string) string {
	parts := append([]string{name}, args...)
	for i, part := range parts {
		if strings.ContainsAny(part, " \t\"") {
			parts[i] = `"` + strings.ReplaceAll(part, `"`, `\"`) + `"`
		}
	}
	return strings.Join(parts, " ")
}
