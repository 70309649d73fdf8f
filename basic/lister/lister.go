/*
   Lister: reconstructs listable BASIC source text from a tokenized line.

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

// Package lister expands a line's source-form byte stream back into
// listable text: the inverse of basic/tokenizer. Grounded on the teacher's
// emu/disassemble.go, which walks a byte stream and formats each opcode's
// operand through a dedicated case in one big switch rather than a class
// hierarchy.
package lister

import (
	"fmt"
	"strings"

	"github.com/basic370/bbcore/basic/keyword"
	"github.com/basic370/bbcore/basic/token"
)

// Options controls spacing/casing of the reconstructed text.
type Options struct {
	Lowercase bool // spell keywords lower-case
	Indent    int  // spaces to indent each line relative to its number
	NoLineNo  bool // omit the leading line number
	Space     bool // force one space around every keyword
}

var staticNames = [27]string{
	"A%", "B%", "C%", "D%", "E%", "F%", "G%", "H%", "I%", "J%", "K%", "L%", "M%",
	"N%", "O%", "P%", "Q%", "R%", "S%", "T%", "U%", "V%", "W%", "X%", "Y%", "Z%", "@%",
}

// Expand reconstructs source text for one line's source-form bytes
// (token.Term-terminated; the exec-form companion is not needed for
// listing).
func Expand(lineNumber uint32, source []byte, opts Options) string {
	var b strings.Builder
	if !opts.NoLineNo {
		fmt.Fprintf(&b, "%d ", lineNumber)
	}
	if opts.Indent > 0 {
		b.WriteString(strings.Repeat(" ", opts.Indent))
	}

	i := 0
	for i < len(source) {
		c := source[i]
		switch {
		case c == token.Term:
			i = len(source)

		case c == token.VarMark:
			j := i + 1
			for j < len(source) && source[j] != token.Term && source[j] != token.VarMark &&
				source[j] != token.LineMark && source[j] != token.StaticMark && source[j] < token.KeywordBase {
				j++
			}
			b.Write(source[i+1 : j])
			i = j

		case c == token.StaticMark:
			b.WriteString(staticNames[source[i+1]])
			i += 2

		case c == token.LineMark:
			n := uint32(source[i+1]) | uint32(source[i+2])<<8 | uint32(source[i+3])<<16
			fmt.Fprintf(&b, "%d", n)
			i += 4

		case c == token.StarMark:
			b.WriteByte('*')
			b.Write(source[i+1:])
			i = len(source)

		case c == token.FuncPrefix || c == token.PrintFnPrefix || c == token.CmdPrefix:
			class := classFor(c)
			e, ok := keyword.Describe(class, source[i+1])
			if ok {
				writeKeyword(&b, e, opts)
			}
			i += 2

		case c >= token.KeywordBase:
			if e, ok := keyword.Describe(token.ClassPlain, c); ok {
				writeKeyword(&b, e, opts)
			}
			i++

		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

func classFor(prefix byte) token.Class {
	switch prefix {
	case token.FuncPrefix:
		return token.ClassFunction
	case token.PrintFnPrefix:
		return token.ClassPrintFn
	default:
		return token.ClassCommand
	}
}

func writeKeyword(b *strings.Builder, e *keyword.Entry, opts Options) {
	name := e.Name
	if opts.Lowercase {
		name = strings.ToLower(name)
	}
	if opts.Space {
		b.WriteByte(' ')
	}
	b.WriteString(name)
	if opts.Space {
		b.WriteByte(' ')
	}
}
