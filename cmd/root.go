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

// Package cmd implements the bravefetch command line tool.
package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/bravefetch"
	"github.com/forensicanalysis/bravefetch/config"
	"github.com/forensicanalysis/bravefetch/forensicstore"
	"github.com/forensicanalysis/bravefetch/logging"
	"github.com/forensicanalysis/bravefetch/tool"
)

// Root is the bravefetch command. Without subcommand it runs a collection.
func Root() *cobra.Command {
	flags := &config.Config{}
	rootCmd := &cobra.Command{
		Use:   "bravefetch",
		Short: "Collect Brave browser artifacts",
		Long: "Collect the Brave browser history and the Brave Prefetch files of a " +
			"Windows system into the working directory.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Invalid environment values are reported once the log is set
			// up, the collection runs with the defaults instead.
			env, envErr := config.Load()
			if env == nil {
				return envErr
			}
			cfg, err := config.Merge(flags, env)
			if err != nil {
				return err
			}
			cfg.WorkDir, err = filepath.Abs(cfg.WorkDir)
			if err != nil {
				return errors.Wrap(err, "could not resolve working directory")
			}

			collect(cfg, tool.ExecRunner{}, cmd.OutOrStdout(), envErr)
			return nil
		},
	}

	f := rootCmd.Flags()
	f.StringVar(&flags.PrefetchDir, "prefetch-dir", "", "directory that contains the Prefetch files (default C:\\Windows\\Prefetch)")
	f.StringVarP(&flags.WorkDir, "work-dir", "o", "", "output directory (default current directory)")
	f.StringVar(&flags.Marker, "marker", "", "name part of the collected Prefetch files (default BRAVE)")
	f.StringVar(&flags.HistoryTool, "history-tool", "", "browser history extraction tool (default ./history.exe)")
	f.StringVar(&flags.PrefetchTool, "prefetch-tool", "", "Prefetch parsing tool (default ./PECmd.exe)")
	f.StringVar(&flags.Browser, "browser", "", "browser passed to the history tool (default brave)")
	f.StringVarP(&flags.Column, "column", "c", "", "column rendered in the hex dumps (default first column)")
	f.IntVarP(&flags.RowWidth, "width", "w", 0, "characters per hex dump line (default 16)")
	f.BoolVar(&flags.NoStore, "no-store", false, "do not record the collection in a forensicstore")
	return rootCmd
}

// collect runs the pipeline on the host file system. Step failures and a
// non-nil configErr are logged, they never fail the command.
func collect(cfg *config.Config, runner tool.Runner, console io.Writer, configErr error) *bravefetch.Report {
	fs := afero.NewOsFs()
	logger := logging.New(console)

	if err := fs.MkdirAll(cfg.DataDir(), 0750); err != nil {
		logger.Error("Could not create data directory", map[string]string{"error": err.Error()})
	} else {
		audit, err := fs.OpenFile(cfg.AuditLogPath(), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0640)
		if err != nil {
			logger.Error("Could not open collection log", map[string]string{"error": err.Error()})
		} else {
			defer audit.Close()
			logger.SetAudit(audit)
		}
	}

	if configErr != nil {
		logger.Warn("Invalid configuration, using defaults", map[string]string{"error": configErr.Error()})
	}

	var store *forensicstore.Store
	if !cfg.NoStore {
		var err error
		store, err = forensicstore.OpenOrCreate(cfg.StorePath())
		if err != nil {
			logger.Error("Could not open forensicstore", map[string]string{"store": cfg.StorePath(), "error": err.Error()})
		} else {
			defer func() {
				if err := store.Close(); err != nil {
					logger.Error("Could not close forensicstore", map[string]string{"error": err.Error()})
				}
			}()
		}
	}

	logger.Info("Starting collection", map[string]string{"work_dir": cfg.WorkDir, "prefetch_dir": cfg.PrefetchDir})
	pipeline := &bravefetch.Pipeline{Config: cfg, Fs: fs, Runner: runner, Logger: logger, Store: store}
	report := pipeline.Run()

	failed := report.Failed()
	for _, step := range failed {
		logger.Warn("Step failed", map[string]string{"step": step.Name, "error": step.Err.Error()})
	}
	logger.Info("Collection finished", map[string]string{
		"steps":  strconv.Itoa(len(report.Steps)),
		"failed": strconv.Itoa(len(failed)),
	})
	logger.SetAudit(nil)
	return report
}
