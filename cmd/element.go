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
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/bravefetch/forensicstore"
)

// Elements is the bravefetch elements commandline subcommand.
func Elements() *cobra.Command {
	var elementType, id, query, search string
	elementsCommand := &cobra.Command{
		Use:   "elements <forensicstore>",
		Short: "Print the recorded elements as json",
		Long: `Print the recorded elements as json. By default all elements are printed,
--id prints a single element, --query runs a sql statement that returns a json
column and --search runs a full text search.`,
		Args: requireOneStore,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := forensicstore.Open(args[0])
			if err != nil {
				return err
			}
			defer store.Close()

			if id != "" {
				element, err := store.Get(id)
				if err != nil {
					return errors.Wrap(err, id)
				}
				fmt.Printf("%s\n", element)
				return nil
			}

			var elements []forensicstore.JSONElement
			switch {
			case query != "":
				elements, err = store.Query(query)
			case search != "":
				elements, err = store.Search(search)
			default:
				var conditions []map[string]string
				if elementType != "" {
					conditions = append(conditions, map[string]string{"type": elementType})
				}
				elements, err = store.Select(conditions)
			}
			if err != nil {
				return err
			}
			printElements(elements)
			return nil
		},
	}
	elementsCommand.Flags().StringVarP(&elementType, "type", "t", "", "only print elements of this type")
	elementsCommand.Flags().StringVar(&id, "id", "", "print the element with this id")
	elementsCommand.Flags().StringVarP(&query, "query", "q", "", "sql query that selects a json column")
	elementsCommand.Flags().StringVarP(&search, "search", "s", "", "full text search")
	return elementsCommand
}

// Validate is the bravefetch validate commandline subcommand.
func Validate() *cobra.Command {
	var noFail bool
	validateCommand := &cobra.Command{
		Use:   "validate <forensicstore>",
		Short: "Validate all elements and the files they reference",
		Args:  requireOneStore,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := forensicstore.Open(args[0])
			if err != nil {
				return err
			}
			defer store.Close()
			valErr, err := store.Validate()
			if err != nil {
				return err
			}
			if len(valErr) > 0 {
				for i, v := range valErr {
					valErr[i] = strings.Replace(v, "\"", "\\\"", -1)
				}
				fmt.Printf("[\"%s\"]\n", strings.Join(valErr, "\", \""))
				if noFail {
					return nil
				}
				return fmt.Errorf("%d validation errors", len(valErr))
			}
			return nil
		},
	}
	validateCommand.Flags().BoolVar(&noFail, "no-fail", false, "return exit code 0")
	return validateCommand
}

func printElements(elements []forensicstore.JSONElement) {
	parts := make([][]byte, len(elements))
	for i, element := range elements {
		parts[i] = element
	}
	fmt.Printf("[%s]", bytes.Join(parts, []byte(",")))
}

func requireOneStore(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("requires exactly one store")
	}
	for _, arg := range args {
		if _, err := os.Stat(arg); os.IsNotExist(err) {
			return errors.Wrap(os.ErrNotExist, arg)
		}
	}
	return nil
}
