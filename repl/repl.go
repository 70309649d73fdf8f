/*
   Console REPL: reads lines, tokenizes and stores or immediately runs them.

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

// Package repl is the interactive console: a liner.Liner-backed read loop
// over the workspace and dispatcher, grounded on the teacher's
// command/reader/reader.go (liner setup, history, tab completion) and
// command/parser/parser.go (abbreviation-aware command matching).
package repl

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/basic370/bbcore/basic/config"
	"github.com/basic370/bbcore/basic/dispatch"
	"github.com/basic370/bbcore/basic/exec"
	"github.com/basic370/bbcore/basic/lister"
	"github.com/basic370/bbcore/basic/resolve"
	"github.com/basic370/bbcore/basic/tokenizer"
	"github.com/basic370/bbcore/basic/workspace"
)

// Console owns the workspace and runs the read-tokenize-store/run loop.
type Console struct {
	Store   *workspace.Store
	Syms    *workspace.MemSymbolTable
	Options config.Options

	namesByLine map[uint32]*exec.NameTable
}

// NewConsole creates an empty workspace-backed console.
func NewConsole(opts config.Options) *Console {
	return &Console{
		Store:       workspace.NewStore(0),
		Syms:        workspace.NewMemSymbolTable(),
		Options:     opts,
		namesByLine: make(map[uint32]*exec.NameTable),
	}
}

// Run drives the liner-backed console loop until an EXIT, QUIT or BYE
// direct command, Ctrl-C, or a read error (including EOF/Ctrl-D) ends it.
func (c *Console) Run() {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(partial string) []string {
		return c.complete(partial)
	})

	for {
		input, err := line.Prompt("> ")
		if err == nil {
			line.AppendHistory(input)
			if quit := c.handle(input); quit {
				return
			}
			continue
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		slog.Error("error reading line: " + err.Error())
		return
	}
}

// handle tokenizes one line of input, then either stores it (line begins
// with a number) or runs it immediately, reporting "quit" for EXIT/QUIT/BYE.
func (c *Console) handle(input string) (quit bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return false
	}
	if trimmed == "EXIT" || trimmed == "QUIT" || trimmed == "BYE" {
		return true
	}

	number, rest, numbered := splitLineNumber(trimmed)
	opts := tokenizer.Options{LowercaseKeywords: c.Options.LowercaseKeywords, MaxLineLength: c.Options.MaxLineLength}

	if numbered {
		if strings.TrimSpace(rest) == "" {
			c.Store.Delete(number)
			delete(c.namesByLine, number)
			return false
		}
		src, err := tokenizer.Tokenize(rest, numbered, opts)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return false
		}
		ef, names, err := exec.Translate(src)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return false
		}
		if err := c.Store.Put(number, src, ef); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return false
		}
		c.namesByLine[number] = names
		return false
	}

	if strings.HasPrefix(trimmed, "LIST") {
		c.list()
		return false
	}

	if trimmed == "RUN" {
		c.run()
		return false
	}

	if strings.HasPrefix(trimmed, "SAVE ") {
		c.save(strings.TrimSpace(trimmed[len("SAVE "):]))
		return false
	}

	if strings.HasPrefix(trimmed, "LOAD ") {
		c.load(strings.TrimSpace(trimmed[len("LOAD "):]))
		return false
	}

	if trimmed == "NEW" {
		c.Store.Clear()
		c.namesByLine = make(map[uint32]*exec.NameTable)
		c.Syms = workspace.NewMemSymbolTable()
		return false
	}

	fmt.Fprintln(os.Stderr, "Error: direct-mode statement execution requires a stored program; type a numbered line")
	return false
}

// save writes the stored program to filename in the persisted binary
// line-store format.
func (c *Console) save(filename string) {
	f, err := os.Create(filename)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return
	}
	defer f.Close()
	if err := c.Store.Save(f); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
}

// load replaces the workspace with the program persisted at filename.
// The saved exec-form bytes carry no workspace-relative bindings across a
// session boundary, so every line's source-form is re-translated here to
// rebuild namesByLine and a fresh exec-form before being put back.
func (c *Console) load(filename string) {
	f, err := os.Open(filename)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return
	}
	defer f.Close()

	store := workspace.NewStore(0)
	if err := store.Load(f); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return
	}

	namesByLine := make(map[uint32]*exec.NameTable)
	for _, l := range store.Lines() {
		ef, names, err := exec.Translate(l.Source())
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		if err := store.Put(l.Number, l.Source(), ef); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		namesByLine[l.Number] = names
	}

	c.Store = store
	c.namesByLine = namesByLine
	c.Syms = workspace.NewMemSymbolTable()
}

// run resolves the stored program and executes it from its first line,
// wiring basic/resolve's bound cross-references into a fresh
// basic/dispatch.Machine.
func (c *Console) run() {
	prog, err := c.Resolve()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return
	}
	lines := c.Store.Lines()
	if len(lines) == 0 {
		return
	}
	resolved := make(map[uint32][]byte, len(lines))
	for _, l := range lines {
		resolved[l.Number] = prog.Bytes(l.Number)
	}
	m := dispatch.NewMachine(c.Store, c.Syms, os.Stdout, resolved, c.namesByLine)
	m.Hex64 = c.Options.Hex64
	m.TraceLines = c.Options.TraceLines
	if err := m.RunFrom(lines[0].Number, 0); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
}

func (c *Console) list() {
	for _, l := range c.Store.Lines() {
		fmt.Println(lister.Expand(l.Number, l.Source(), lister.Options{
			Lowercase: c.Options.ListLower,
			Indent:    c.Options.ListIndent,
			NoLineNo:  c.Options.ListNoLine,
			Space:     c.Options.ListSpace,
		}))
	}
}

// Resolve rebuilds the program's resolve.Program view and binds every
// cross-reference, ready to run.
func (c *Console) Resolve() (*resolve.Program, error) {
	lines := c.Store.Lines()
	numbers := make([]uint32, len(lines))
	bufs := make([][]byte, len(lines))
	names := make([]*exec.NameTable, len(lines))
	for i, l := range lines {
		numbers[i] = l.Number
		bufs[i] = append([]byte(nil), l.Exec()...)
		names[i] = c.namesByLine[l.Number]
	}
	prog := resolve.NewProgram(numbers, bufs, names)
	if err := resolve.Resolve(prog, c.Syms); err != nil {
		return nil, err
	}
	return prog, nil
}

func splitLineNumber(s string) (number uint32, rest string, ok bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, s, false
	}
	n, err := strconv.ParseUint(s[:i], 10, 32)
	if err != nil {
		return 0, s, false
	}
	return uint32(n), s[i:], true
}

// complete is the liner completion hook. It offers no completions: it
// returns nil for every partial word.
func (c *Console) complete(partial string) []string {
	_ = partial
	return nil
}
