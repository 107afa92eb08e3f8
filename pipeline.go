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

package bravefetch

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/bravefetch/config"
	"github.com/forensicanalysis/bravefetch/forensicstore"
	"github.com/forensicanalysis/bravefetch/hexdump"
	"github.com/forensicanalysis/bravefetch/logging"
	"github.com/forensicanalysis/bravefetch/prefetch"
	"github.com/forensicanalysis/bravefetch/tool"
)

// Artifact names used for the evidence store and the tool output folders.
const (
	HistoryArtifact  = "BraveHistory"
	PrefetchArtifact = "WindowsPrefetchFiles"
	ParseArtifact    = "WindowsPrefetchParse"
)

// Pipeline runs a complete collection. Store is optional.
type Pipeline struct {
	Config *config.Config
	Fs     afero.Fs
	Runner tool.Runner
	Logger *logging.Logger
	Store  *forensicstore.Store
}

// StepResult is the outcome of one pipeline step.
type StepResult struct {
	Name     string
	Err      error
	Panicked bool
}

// Report collects everything that happened during Run.
type Report struct {
	Steps     []StepResult
	Located   []string
	Copied    []prefetch.CopyResult
	Artifacts []prefetch.Artifact
	Tools     []*tool.Result
	Dumps     []hexdump.DumpResult
}

// Failed returns the steps that did not succeed.
func (r *Report) Failed() []StepResult {
	var failed []StepResult
	for _, step := range r.Steps {
		if step.Err != nil {
			failed = append(failed, step)
		}
	}
	return failed
}

// Step returns the result of the named step.
func (r *Report) Step(name string) (StepResult, bool) {
	for _, step := range r.Steps {
		if step.Name == name {
			return step, true
		}
	}
	return StepResult{}, false
}

// Run executes all steps in order. A failing step is logged and recorded in
// the report, the following steps still run.
func (p *Pipeline) Run() *Report {
	report := &Report{}
	cfg := p.Config

	p.step(report, "prepare", func() error {
		return p.Fs.MkdirAll(cfg.DataDir(), 0750)
	})
	p.step(report, "history", func() error {
		return p.runTool(report, HistoryArtifact, cfg.HistoryTool, cfg.HistoryArgs())
	})
	p.step(report, "locate", func() error {
		located, err := prefetch.Locate(p.Fs, cfg.PrefetchDir, cfg.Marker, cfg.Extension)
		if err != nil {
			return err
		}
		report.Located = located
		p.Logger.Info("Located prefetch files", map[string]string{"count": strconv.Itoa(len(located)), "directory": cfg.PrefetchDir})
		return nil
	})

	if len(report.Located) > 0 {
		p.step(report, "copy", func() error { return p.copy(report) })
		p.step(report, "names", func() error {
			return prefetch.WriteNames(p.Fs, filepath.Join(cfg.DataDir(), config.NamesCSV), report.Located)
		})
		p.step(report, "timestamps", func() error { return p.timestamps(report) })
		if p.Store != nil {
			p.step(report, "record files", func() error { return p.recordFiles(report) })
		}
	} else {
		p.Logger.Warn("No prefetch files found", map[string]string{"marker": cfg.Marker, "directory": cfg.PrefetchDir})
	}

	p.step(report, "parse prefetch", func() error {
		return p.runTool(report, ParseArtifact, cfg.PrefetchTool, cfg.PrefetchArgs())
	})
	p.step(report, "hexdump", func() error { return p.hexdump(report) })
	return report
}

func (p *Pipeline) step(report *Report, name string, fn func() error) {
	result := StepResult{Name: name}
	defer func() {
		if r := recover(); r != nil {
			result.Err = errors.Errorf("panic: %v", r)
			result.Panicked = true
			p.Logger.Error("Unexpected failure in step "+name, map[string]string{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			})
		}
		report.Steps = append(report.Steps, result)
	}()

	p.Logger.Debug("Starting step "+name, nil)
	if err := fn(); err != nil {
		result.Err = err
		p.Logger.Error("Step "+name+" failed", map[string]string{"error": err.Error()})
	}
}

func (p *Pipeline) runTool(report *Report, artifact, name string, args []string) error {
	invoker := &tool.Invoker{
		Runner:    p.Runner,
		Fs:        p.Fs,
		OutputDir: p.Config.ToolsDir(),
		Logger:    p.Logger,
	}
	// Tools run in the current directory, relative tool names resolve there.
	dir, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "could not get current directory")
	}
	result := invoker.Invoke(tool.Invocation{Artifact: artifact, Name: name, Args: args, Dir: dir})
	report.Tools = append(report.Tools, result)
	p.recordProcess(result)
	return result.Err
}

func (p *Pipeline) copy(report *Report) error {
	cfg := p.Config
	report.Copied = prefetch.Copy(p.Fs, cfg.PrefetchDir, cfg.PrefetchWorkDir(), report.Located)

	failed := 0
	for _, result := range report.Copied {
		if result.Err != nil {
			failed++
			p.Logger.Error("Could not copy file", map[string]string{"file": result.Name, "error": result.Err.Error()})
			continue
		}
		p.Logger.Info("Copied file", map[string]string{"file": result.Name, "destination": result.Destination})
	}
	if failed > 0 {
		return errors.Errorf("%d of %d files could not be copied", failed, len(report.Copied))
	}
	return nil
}

func (p *Pipeline) timestamps(report *Report) error {
	cfg := p.Config
	artifacts, errs := prefetch.Stat(p.Fs, cfg.PrefetchDir, report.Located)
	for _, err := range errs {
		p.Logger.Error("Could not read timestamps", map[string]string{"error": err.Error()})
	}
	report.Artifacts = artifacts
	return prefetch.WriteTimestamps(p.Fs, filepath.Join(cfg.DataDir(), config.TimestampsCSV), artifacts)
}

func (p *Pipeline) hexdump(report *Report) error {
	cfg := p.Config
	results, err := hexdump.DumpDir(p.Fs, cfg.DataDir(), cfg.HexDir(), cfg.Column, cfg.RowWidth)
	if err != nil {
		return err
	}
	report.Dumps = results

	failed := 0
	for _, result := range results {
		switch {
		case result.Err != nil:
			failed++
			p.Logger.Error("Could not create hex dump", map[string]string{"file": result.Source, "error": result.Err.Error()})
		case result.Skipped:
			p.Logger.Debug("Skipping empty file", map[string]string{"file": result.Source})
		default:
			p.Logger.Info("Hex dump saved", map[string]string{"file": result.Output, "column": result.Column})
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d hex dumps failed", failed, len(results))
	}
	return nil
}

/* ################################
#   Evidence store
################################ */

func (p *Pipeline) recordFiles(report *Report) error {
	copied := map[string]prefetch.CopyResult{}
	for _, result := range report.Copied {
		copied[result.Name] = result
	}
	stats := map[string]prefetch.Artifact{}
	for _, artifact := range report.Artifacts {
		stats[artifact.Name] = artifact
	}

	var firstErr error
	for _, name := range report.Located {
		file := forensicstore.NewFile()
		file.Artifact = PrefetchArtifact
		file.Name = name
		file.Origin = map[string]interface{}{"path": filepath.Join(p.Config.PrefetchDir, name)}

		if artifact, ok := stats[name]; ok {
			file.Ctime = forensicstore.FormatTime(artifact.Created)
			file.Atime = forensicstore.FormatTime(artifact.Accessed)
			file.Mtime = forensicstore.FormatTime(artifact.Modified)
		}
		if result, ok := copied[name]; ok {
			if result.Err != nil {
				file.AddError(result.Err.Error())
			} else {
				file.ExportPath = p.relative(result.Destination)
				file.Size = float64(result.Size)
				file.Hashes = result.Hashes
			}
		}

		if _, err := p.Store.InsertStruct(file); err != nil {
			p.Logger.Error("Could not record file", map[string]string{"file": name, "error": err.Error()})
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (p *Pipeline) recordProcess(result *tool.Result) {
	if p.Store == nil {
		return
	}

	process := forensicstore.NewProcess()
	process.Artifact = result.Artifact
	process.Name = filepath.Base(result.Name)
	process.Cwd = result.Dir
	process.CommandLine = tool.CommandLine(result.Name, result.Args)
	for _, arg := range result.Args {
		process.Arguments = append(process.Arguments, arg)
	}
	if result.Output != nil {
		process.CreatedTime = forensicstore.FormatTime(result.Output.Started)
		process.ReturnCode = float64(result.Output.ExitCode)
	}
	if result.StdoutPath != "" {
		process.StdoutPath = p.relative(result.StdoutPath)
	}
	if result.StderrPath != "" {
		process.StderrPath = p.relative(result.StderrPath)
	}
	if result.Err != nil {
		process.AddError(result.Err.Error())
	}

	if _, err := p.Store.InsertStruct(process); err != nil {
		p.Logger.Error("Could not record process", map[string]string{"tool": result.Name, "error": err.Error()})
	}
}

// relative returns path relative to the working directory in slash
// notation, the form *_path attributes are stored in.
func (p *Pipeline) relative(path string) string {
	rel, err := filepath.Rel(p.Config.WorkDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
