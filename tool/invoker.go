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

package tool

import (
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/bravefetch/logging"
)

// Invocation describes one run of an external tool.
type Invocation struct {
	// Artifact names the collected artifact, e.g. BraveHistory. It is also
	// the folder the output streams are kept in.
	Artifact string
	Name     string
	Args     []string
	Dir      string
}

// Result is the outcome of an Invocation.
type Result struct {
	Invocation
	Output *Output
	// StdoutPath and StderrPath are relative to the Invoker's Fs.
	StdoutPath string
	StderrPath string
	Err        error
}

// Invoker runs tools with a Runner, prints their output and keeps the output
// streams as files.
type Invoker struct {
	Runner Runner
	Fs     afero.Fs
	// OutputDir is the directory on Fs for the output streams. Empty
	// disables keeping them.
	OutputDir string
	Logger    *logging.Logger
}

// Invoke runs the tool. It never panics on tool failure, the error is
// returned in the Result.
func (i *Invoker) Invoke(inv Invocation) *Result {
	result := &Result{Invocation: inv}
	meta := map[string]string{"tool": inv.Name, "command_line": CommandLine(inv.Name, inv.Args)}
	i.Logger.Debug("Executing command", meta)

	output, err := i.Runner.Run(inv.Name, inv.Args, inv.Dir)
	if err != nil {
		result.Err = err
		i.Logger.Error("Error executing command", map[string]string{"tool": inv.Name, "error": err.Error()})
		return result
	}
	result.Output = output

	i.Logger.Info("Command Output:\n"+string(output.Stdout), map[string]string{"tool": inv.Name})
	if len(output.Stderr) > 0 {
		i.Logger.Warn("Command Errors:\n"+string(output.Stderr), map[string]string{"tool": inv.Name})
	}
	if output.ExitCode != 0 {
		i.Logger.Debug("Command exited with non-zero code", map[string]string{"tool": inv.Name, "exit_code": strconv.Itoa(output.ExitCode)})
	}

	if i.OutputDir != "" && i.Fs != nil {
		result.StdoutPath, result.StderrPath, result.Err = i.keep(inv.Artifact, output)
		if result.Err != nil {
			i.Logger.Error("Could not keep command output", map[string]string{"tool": inv.Name, "error": result.Err.Error()})
		}
	}
	return result
}

func (i *Invoker) keep(artifact string, output *Output) (stdoutPath, stderrPath string, err error) {
	dir := filepath.Join(i.OutputDir, artifact)
	if err := i.Fs.MkdirAll(dir, 0750); err != nil {
		return "", "", errors.Wrap(err, "could not create output directory")
	}
	stdoutPath = filepath.Join(dir, "stdout")
	if err := afero.WriteFile(i.Fs, stdoutPath, output.Stdout, 0640); err != nil {
		return "", "", err
	}
	stderrPath = filepath.Join(dir, "stderr")
	if err := afero.WriteFile(i.Fs, stderrPath, output.Stderr, 0640); err != nil {
		return stdoutPath, "", err
	}
	return stdoutPath, stderrPath, nil
}
