/*
   Token byte-space for the tokenized line format.

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

// Package token defines the byte values shared by the keyword table, the
// source tokenizer and the legacy Acorn importer: the control bytes that
// frame a tokenized line and the prefix bytes that extend the single-byte
// keyword space.
package token

// Control bytes embedded in the source-form byte stream.
const (
	// Term marks the end of the source-form (and exec-form) byte run.
	Term byte = 0x00
	// VarMark precedes an inline variable-name reference left unresolved
	// in source form (the tokenizer never resolves names itself).
	VarMark byte = 0x01
	// LineMark precedes a three-byte line-number literal in a line-number
	// reference (GOTO 100). A stored line's own number lives in the
	// workspace line header, not behind a LineMark.
	LineMark byte = 0x02
	// StaticMark precedes a single byte identifying one of the 27 static
	// integer variables (A%-Z%, @%), which never need a symbol-table
	// entry: the byte itself (0-25 for A%-Z%, 26 for @%) is the binding.
	StaticMark byte = 0x03
	// StarMark precedes a star command's raw text (everything from the
	// leading "*" to end of line, copied verbatim and never re-tokenized).
	StarMark byte = 0x04
)

// KeywordBase is the first byte value used by single-byte plain keyword
// tokens. Bytes below this value are never produced by the tokenizer for a
// keyword; they are reserved for punctuation, operators and the control
// bytes above.
const KeywordBase byte = 0x80

// Extension prefixes. A plain keyword token is a single byte at or above
// KeywordBase other than these three prefixes. A byte in {FuncPrefix, PrintFnPrefix, CmdPrefix} is
// followed by one more byte selecting a keyword from that prefix's class,
// giving three additional 256-entry keyword planes without reusing the
// plain plane's byte values.
const (
	FuncPrefix    byte = 0xC6 // FUNCTION class: SIN(, LEN(, CHR$(, ...
	PrintFnPrefix byte = 0xC7 // PRINTFN class: field-width forms after PRINT
	CmdPrefix     byte = 0xC8 // COMMAND class: star-commands promoted to keywords
)

// Class identifies which of the four keyword planes a token belongs to.
type Class int

const (
	ClassPlain Class = iota
	ClassFunction
	ClassPrintFn
	ClassCommand
)

// Prefix returns the extension prefix byte for a class, or 0 for ClassPlain
// (which needs none).
func (c Class) Prefix() byte {
	switch c {
	case ClassFunction:
		return FuncPrefix
	case ClassPrintFn:
		return PrintFnPrefix
	case ClassCommand:
		return CmdPrefix
	default:
		return 0
	}
}
