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

// Package bravefetch collects Brave browser artifacts from a Windows host.
//
// A collection run executes the following steps in the working directory:
//     1. extract the browser history with an external tool into data/
//     2. locate the Brave Prefetch files and copy them to prefetch/
//     3. export their names and timestamps to data/*.csv
//     4. parse the copied Prefetch files with an external tool
//     5. render a column of every table in data/ as hex dump into data/hex/
//
// Structure
//
// An example working directory after a run:
//     .
//     ├── bravefetch.forensicstore
//     ├── data
//     │   ├── brave_default_prefetch_names.csv
//     │   ├── brave_default_prefetch_timestamps.csv
//     │   ├── collection.log
//     │   └── hex
//     │       ├── brave_default_prefetch_names.csv_hex.txt
//     │       └── ...
//     ├── prefetch
//     │   └── BRAVE.EXE-4F5D8C31.pf
//     └── tools
//         ├── BraveHistory
//         │   ├── stderr
//         │   └── stdout
//         └── WindowsPrefetchParse
//             └── ...
//
// Every step is isolated, a failing step is logged and the run continues.
package bravefetch
