/*
   Configuration file parser.

   Copyright 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a copy
   of this software and associated documentation files (the "Software"), to deal
   in the Software without restriction, including without limitation the rights
   to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
   copies of the Software, and to permit persons to whom the Software is
   furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
   AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
   LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
   OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
   SOFTWARE.
*/

// Package config reads bbcore's option-per-line configuration file. The
// cursor and comment/whitespace conventions are lifted from the teacher's
// config/configparser.go optionLine type: a byte-position cursor over one
// line at a time, "#" comments, bare-word switches and name=value options,
// just without that file's device-model registry (bbcore has a flat option
// set, not per-device configuration).
package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/basic370/bbcore/basic/tokenizer"
)

// Options is the full set of tunables the tokenizer, lister and REPL read
// at startup.
type Options struct {
	LowercaseKeywords bool
	TraceLines        bool
	TraceProcs        bool
	TraceBranch       bool
	ListIndent        int
	ListLower         bool
	ListNoLine        bool
	ListSpace         bool
	Hex64             bool
	MaxLineLength     int
}

// Default returns the option set in effect before any config file is read.
func Default() Options {
	return Options{MaxLineLength: tokenizer.DefaultMaxLineLength}
}

// optionLine is a byte-position cursor over one configuration line,
// modeled on the teacher's config/configparser.go optionLine.
type optionLine struct {
	line string
	pos  int
}

func (o *optionLine) isEOL() bool { return o.pos >= len(o.line) }

func (o *optionLine) peek() byte {
	if o.isEOL() {
		return 0
	}
	return o.line[o.pos]
}

func (o *optionLine) skipSpace() {
	for !o.isEOL() && (o.peek() == ' ' || o.peek() == '\t') {
		o.pos++
	}
}

func (o *optionLine) getName() string {
	start := o.pos
	for !o.isEOL() {
		c := o.peek()
		if c == '=' || c == ' ' || c == '\t' || c == '#' {
			break
		}
		o.pos++
	}
	return o.line[start:o.pos]
}

// Load reads a configuration file and applies it on top of a starting
// Options value (normally config.Default()).
func Load(r io.Reader, opts Options) (Options, error) {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		if hash := strings.IndexByte(raw, '#'); hash >= 0 {
			raw = raw[:hash]
		}
		raw = strings.TrimRight(raw, " \t\r")
		if raw == "" {
			continue
		}
		o := &optionLine{line: raw}
		o.skipSpace()
		if o.isEOL() {
			continue
		}
		name := o.getName()
		o.skipSpace()
		var value string
		hasValue := false
		if !o.isEOL() && o.peek() == '=' {
			o.pos++
			o.skipSpace()
			value = strings.TrimSpace(o.line[o.pos:])
			hasValue = true
		}
		if err := apply(&opts, strings.ToLower(name), value, hasValue); err != nil {
			return opts, fmt.Errorf("config line %d: %w", lineNo, err)
		}
	}
	return opts, scanner.Err()
}

func apply(o *Options, name, value string, hasValue bool) error {
	switch name {
	case "lowercase-keywords":
		o.LowercaseKeywords = true
	case "trace-lines":
		o.TraceLines = true
	case "trace-procs":
		o.TraceProcs = true
	case "trace-branch":
		o.TraceBranch = true
	case "list-lower":
		o.ListLower = true
	case "list-noline":
		o.ListNoLine = true
	case "list-space":
		o.ListSpace = true
	case "hex64":
		o.Hex64 = true
	case "list-indent":
		n, err := strconv.Atoi(value)
		if !hasValue || err != nil {
			return fmt.Errorf("list-indent requires a numeric value")
		}
		o.ListIndent = n
	case "max-line-length":
		n, err := strconv.Atoi(value)
		if !hasValue || err != nil {
			return fmt.Errorf("max-line-length requires a numeric value")
		}
		o.MaxLineLength = n
	default:
		return fmt.Errorf("unknown option %q", name)
	}
	return nil
}
