/*
   bbcoretool - batch tokenize/list/import command-line tool.

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

// bbcoretool offers the tokenizer/lister/importer pipeline as one-shot
// subcommands, for scripting and golden-file generation outside the
// interactive console.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/basic370/bbcore/basic/exec"
	"github.com/basic370/bbcore/basic/legacy"
	"github.com/basic370/bbcore/basic/lister"
	"github.com/basic370/bbcore/basic/resolve"
	"github.com/basic370/bbcore/basic/tokenizer"
	"github.com/basic370/bbcore/basic/workspace"
)

var lowercase bool

func main() {
	root := &cobra.Command{
		Use:   "bbcoretool",
		Short: "Tokenize, list and import BBC BASIC V program text",
	}
	root.PersistentFlags().BoolVar(&lowercase, "lowercase", false, "accept lower-case keywords")

	root.AddCommand(tokenizeCmd(), listCmd(), importCmd(), saveCmd(), loadCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func tokenizeOpts() tokenizer.Options {
	return tokenizer.Options{LowercaseKeywords: lowercase, MaxLineLength: tokenizer.DefaultMaxLineLength}
}

// tokenizeCmd reads numbered source lines from a file and prints each
// line's source-form and exec-form bytes in hex, one line per input line.
func tokenizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokenize FILE",
		Short: "Tokenize a BASIC source file and print its byte forms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			scanner := bufio.NewScanner(f)
			for scanner.Scan() {
				number, text, ok := splitNumber(scanner.Text())
				if !ok {
					continue
				}
				src, err := tokenizer.Tokenize(text, true, tokenizeOpts())
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%d: %v\n", number, err)
					continue
				}
				ef, _, err := exec.Translate(src)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%d: %v\n", number, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d source=% x exec=% x\n", number, src, ef)
			}
			return scanner.Err()
		},
	}
}

// listCmd round-trips source lines back through the lister, to confirm
// Expand(Tokenize(x)) reproduces the original text.
func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list FILE",
		Short: "Tokenize then re-list a BASIC source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			scanner := bufio.NewScanner(f)
			for scanner.Scan() {
				number, text, ok := splitNumber(scanner.Text())
				if !ok {
					continue
				}
				src, err := tokenizer.Tokenize(text, true, tokenizeOpts())
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%d: %v\n", number, err)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), lister.Expand(number, src, lister.Options{Lowercase: lowercase}))
			}
			return scanner.Err()
		},
	}
}

// importCmd decodes an Acorn tokenised-binary program image into listable
// text, then tokenizes and resolves it to confirm the imported program is
// runnable end to end.
func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import an Acorn tokenised-binary BASIC program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			lines, err := legacy.Import(data)
			if err != nil {
				return err
			}

			store := workspace.NewStore(0)
			syms := workspace.NewMemSymbolTable()
			var numbers []uint32
			var bufs [][]byte
			var names []*exec.NameTable
			for _, raw := range lines {
				number, text, ok := splitNumber(raw)
				if !ok {
					continue
				}
				src, err := tokenizer.Tokenize(text, true, tokenizeOpts())
				if err != nil {
					return fmt.Errorf("line %d: %w", number, err)
				}
				ef, nt, err := exec.Translate(src)
				if err != nil {
					return fmt.Errorf("line %d: %w", number, err)
				}
				if err := store.Put(number, src, ef); err != nil {
					return err
				}
				numbers = append(numbers, number)
				bufs = append(bufs, ef)
				names = append(names, nt)
				fmt.Fprintln(cmd.OutOrStdout(), raw)
			}

			prog := resolve.NewProgram(numbers, bufs, names)
			if err := resolve.Resolve(prog, syms); err != nil {
				return fmt.Errorf("resolve: %w", err)
			}
			return nil
		},
	}
}

// saveCmd tokenizes and translates a text source file into a workspace.Store
// and writes it out in the persisted binary line-store format.
func saveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save SRCFILE OUTFILE",
		Short: "Tokenize a BASIC source file and save it as a binary program image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			store := workspace.NewStore(0)
			scanner := bufio.NewScanner(f)
			for scanner.Scan() {
				number, text, ok := splitNumber(scanner.Text())
				if !ok {
					continue
				}
				src, err := tokenizer.Tokenize(text, true, tokenizeOpts())
				if err != nil {
					return fmt.Errorf("line %d: %w", number, err)
				}
				ef, _, err := exec.Translate(src)
				if err != nil {
					return fmt.Errorf("line %d: %w", number, err)
				}
				if err := store.Put(number, src, ef); err != nil {
					return fmt.Errorf("line %d: %w", number, err)
				}
			}
			if err := scanner.Err(); err != nil {
				return err
			}

			out, err := os.Create(args[1])
			if err != nil {
				return err
			}
			defer out.Close()
			return store.Save(out)
		},
	}
}

// loadCmd reads a binary program image written by "save" and lists it back
// as text, confirming the persisted source-form bytes round-trip through
// basic/lister without needing the saved exec-form at all.
func loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load FILE",
		Short: "Load a binary program image and list it back as text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			store := workspace.NewStore(0)
			if err := store.Load(f); err != nil {
				return err
			}
			for _, l := range store.Lines() {
				fmt.Fprintln(cmd.OutOrStdout(), lister.Expand(l.Number, l.Source(), lister.Options{Lowercase: lowercase}))
			}
			return nil
		},
	}
}

func splitNumber(line string) (number uint32, rest string, ok bool) {
	line = strings.TrimRight(line, "\r")
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, line, false
	}
	n, err := strconv.ParseUint(line[:i], 10, 32)
	if err != nil {
		return 0, line, false
	}
	rest = line[i:]
	if len(rest) > 0 && rest[0] == ' ' {
		rest = rest[1:]
	}
	return uint32(n), rest, true
}
