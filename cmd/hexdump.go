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

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/bravefetch/hexdump"
)

// Hexdump is the bravefetch hexdump commandline subcommand. It prints a
// column of csv files in the format of the collection hex dumps.
func Hexdump() *cobra.Command {
	var column string
	var width int
	hexdumpCommand := &cobra.Command{
		Use:   "hexdump <csv>...",
		Short: "Print a column of csv files as hex dump",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afero.NewOsFs()
			for _, path := range args {
				lines, selected, err := hexdump.DumpFile(fs, path, column, width)
				if err != nil {
					return err
				}
				if len(args) > 1 {
					fmt.Printf("==> %s (%s) <==\n", path, selected)
				}
				if err := hexdump.Write(os.Stdout, lines); err != nil {
					return err
				}
			}
			return nil
		},
	}
	hexdumpCommand.Flags().StringVarP(&column, "column", "c", "", "column to render (default first column)")
	hexdumpCommand.Flags().IntVarP(&width, "width", "w", hexdump.DefaultRowWidth, "characters per line")
	return hexdumpCommand
}
