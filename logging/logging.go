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

// Package logging prints progress to the console and keeps an RFC 5424
// formatted audit trail of a collection run.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
)

// Logger writes human readable lines to the console and syslog messages to
// an optional audit writer. A nil *Logger discards everything.
type Logger struct {
	console   *log.Logger
	appName   string
	hostname  string
	processID string

	mu    sync.Mutex
	audit io.Writer
}

// New creates a Logger that prints to console.
func New(console io.Writer) *Logger {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	return &Logger{
		console:   log.New(console, "", log.LstdFlags),
		appName:   "bravefetch",
		hostname:  hostname,
		processID: strconv.Itoa(os.Getpid()),
	}
}

// SetAudit sets the writer that receives RFC 5424 messages. nil disables
// the audit trail.
func (l *Logger) SetAudit(w io.Writer) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.audit = w
	l.mu.Unlock()
}

// Info logs an informational message.
func (l *Logger) Info(message string, meta map[string]string) {
	l.write(rfc5424.Info, "INFO", message, meta)
}

// Warn logs a warning.
func (l *Logger) Warn(message string, meta map[string]string) {
	l.write(rfc5424.Warning, "WARN", message, meta)
}

// Error logs an error.
func (l *Logger) Error(message string, meta map[string]string) {
	l.write(rfc5424.Error, "ERROR", message, meta)
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, meta map[string]string) {
	l.write(rfc5424.Debug, "DEBUG", message, meta)
}

func (l *Logger) write(severity rfc5424.Priority, level, message string, meta map[string]string) {
	if l == nil {
		return
	}

	keys := make([]string, 0, len(meta))
	for key := range meta {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	line := "[" + level + "] " + message
	for _, key := range keys {
		line += fmt.Sprintf(" %s=%q", key, meta[key])
	}
	l.console.Println(line)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.audit == nil {
		return
	}

	msg := rfc5424.Message{
		Priority:  rfc5424.User | severity,
		Timestamp: time.Now().UTC(),
		Hostname:  l.hostname,
		AppName:   l.appName,
		ProcessID: l.processID,
		MessageID: strings.ToUpper(level),
		Message:   []byte(singleLine(message)),
	}
	for _, key := range keys {
		msg.AddDatum("meta@1", key, singleLine(strings.ToValidUTF8(meta[key], "\ufffd")))
	}
	b, err := msg.MarshalBinary()
	if err != nil {
		l.console.Printf("[ERROR] could not write audit log: %s", err)
		return
	}
	if _, err := l.audit.Write(append(b, '\n')); err != nil {
		l.console.Printf("[ERROR] could not write audit log: %s", err)
	}
}

// The audit log holds one message per line, line breaks inside a message
// are written as \n.
var lineBreaks = strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\r`)

func singleLine(s string) string {
	return lineBreaks.Replace(s)
}
