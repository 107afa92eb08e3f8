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

// Package config holds the settings of a bravefetch collection run. Every
// component gets its paths from a Config instead of the process environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
)

// Output file names inside the data directory.
const (
	NamesCSV      = "brave_default_prefetch_names.csv"
	TimestampsCSV = "brave_default_prefetch_timestamps.csv"
	DetailsCSV    = "brave_default_prefetch_details.csv"
	AuditLog      = "collection.log"
)

// Config holds the configuration for a collection run.
type Config struct {
	// PrefetchDir is the system directory that is scanned for artifacts.
	PrefetchDir string
	// WorkDir is the root of all output, usually the current directory.
	WorkDir string

	Marker    string
	Extension string

	HistoryTool  string
	PrefetchTool string
	Browser      string

	Column   string
	RowWidth int

	StoreName string
	NoStore   bool
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		PrefetchDir:  `C:\Windows\Prefetch`,
		WorkDir:      ".",
		Marker:       "BRAVE",
		Extension:    ".pf",
		HistoryTool:  "." + string(filepath.Separator) + "history.exe",
		PrefetchTool: "." + string(filepath.Separator) + "PECmd.exe",
		Browser:      "brave",
		RowWidth:     16,
		StoreName:    "bravefetch.forensicstore",
	}
}

// FromEnv loads the configuration from BRAVEFETCH_* environment variables.
// Unset variables stay empty so that Merge can fill them with defaults. The
// same holds for variables that cannot be parsed, they are named in the
// returned error while the Config is still returned.
func FromEnv() (*Config, error) {
	cfg := &Config{
		PrefetchDir:  os.Getenv("BRAVEFETCH_PREFETCH_DIR"),
		WorkDir:      os.Getenv("BRAVEFETCH_WORK_DIR"),
		Marker:       os.Getenv("BRAVEFETCH_MARKER"),
		Extension:    os.Getenv("BRAVEFETCH_EXTENSION"),
		HistoryTool:  os.Getenv("BRAVEFETCH_HISTORY_TOOL"),
		PrefetchTool: os.Getenv("BRAVEFETCH_PREFETCH_TOOL"),
		Browser:      os.Getenv("BRAVEFETCH_BROWSER"),
		Column:       os.Getenv("BRAVEFETCH_COLUMN"),
		StoreName:    os.Getenv("BRAVEFETCH_STORE"),
	}

	var invalid []string
	if width := os.Getenv("BRAVEFETCH_ROW_WIDTH"); width != "" {
		w, err := strconv.Atoi(width)
		if err != nil {
			invalid = append(invalid, "BRAVEFETCH_ROW_WIDTH="+strconv.Quote(width))
		} else {
			cfg.RowWidth = w
		}
	}
	if noStore := os.Getenv("BRAVEFETCH_NO_STORE"); noStore != "" {
		b, err := strconv.ParseBool(noStore)
		if err != nil {
			invalid = append(invalid, "BRAVEFETCH_NO_STORE="+strconv.Quote(noStore))
		} else {
			cfg.NoStore = b
		}
	}
	if len(invalid) > 0 {
		return cfg, errors.Errorf("invalid environment %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// Merge fills every zero field of cfg with the value from defaults.
func Merge(cfg, defaults *Config) (*Config, error) {
	merged := *cfg
	if err := mergo.Merge(&merged, defaults); err != nil {
		return nil, errors.Wrap(err, "could not merge configuration")
	}
	if merged.RowWidth <= 0 {
		merged.RowWidth = defaults.RowWidth
	}
	return &merged, nil
}

// Load combines the environment with the defaults. Invalid environment
// values fall back to the defaults, the returned Config is usable as long as
// it is not nil and err only reports what was ignored.
func Load() (*Config, error) {
	env, envErr := FromEnv()
	cfg, err := Merge(env, Default())
	if err != nil {
		return nil, err
	}
	return cfg, envErr
}

// DataDir is the directory for CSV output.
func (c *Config) DataDir() string { return filepath.Join(c.WorkDir, "data") }

// HexDir is the directory for hex dumps.
func (c *Config) HexDir() string { return filepath.Join(c.DataDir(), "hex") }

// PrefetchWorkDir is the directory the artifacts are copied to.
func (c *Config) PrefetchWorkDir() string { return filepath.Join(c.WorkDir, "prefetch") }

// ToolsDir holds the captured output streams of the external tools.
func (c *Config) ToolsDir() string { return filepath.Join(c.WorkDir, "tools") }

// StorePath is the location of the evidence store.
func (c *Config) StorePath() string { return filepath.Join(c.WorkDir, c.StoreName) }

// AuditLogPath is the location of the RFC 5424 collection log.
func (c *Config) AuditLogPath() string { return filepath.Join(c.DataDir(), AuditLog) }

// HistoryArgs returns the arguments for the browser history tool.
func (c *Config) HistoryArgs() []string {
	return []string{"-b", c.Browser, "-f", "csv", "--dir", c.DataDir()}
}

// PrefetchArgs returns the arguments for the Prefetch parsing tool.
func (c *Config) PrefetchArgs() []string {
	return []string{
		"-d", c.PrefetchWorkDir(),
		"--csv", c.DataDir(),
		"--csvf", filepath.Join(c.DataDir(), DetailsCSV),
	}
}
