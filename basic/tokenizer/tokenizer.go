/*
   Source tokenizer: turns one line of BASIC text into the source-form
   byte stream.

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

// Package tokenizer turns one line of BASIC source text into the
// source-form byte stream: keywords replaced by their token byte(s),
// variable references and line-number references wrapped in their marker
// bytes, everything else (numbers, strings, operators, punctuation) carried
// through close to verbatim. The per-line cursor is modeled on the
// teacher's config/configparser.go optionLine cursor and emu/assemble.go's
// skipSpace/getName/getNext helpers.
package tokenizer

import (
	"strconv"
	"strings"

	"github.com/basic370/bbcore/basic/basicerr"
	"github.com/basic370/bbcore/basic/keyword"
	"github.com/basic370/bbcore/basic/token"
)

// MaxBrackets bounds nesting depth before CodeTooManyBrackets fires.
const MaxBrackets = 32

// Options controls case and line-length policy.
type Options struct {
	LowercaseKeywords bool
	MaxLineLength     int // 0 means DefaultMaxLineLength
}

const DefaultMaxLineLength = 1024

// scanner walks one line of source text left to right, byte at a time.
type scanner struct {
	line string
	pos  int

	firstitem  bool // true while looking for the first keyword of a statement
	linenoposs bool // true immediately after a keyword whose operand may be a line number
	brackets   int
	numbered   bool // true when this line began with a line number
}

func newScanner(line string, numbered bool) *scanner {
	return &scanner{line: line, firstitem: true, numbered: numbered}
}

// caseInsensitive reports whether keyword matching should upper-case the
// candidate word before comparing: always true in immediate mode, true in
// numbered-line mode only when the global lowercase-keywords override is
// set - otherwise lower-case input on a numbered line is rejected as a
// candidate keyword so "save%" does not collide with the SAVE command.
func (s *scanner) caseInsensitive(opts Options) bool {
	return opts.LowercaseKeywords || !s.numbered
}

func (s *scanner) atEOL() bool { return s.pos >= len(s.line) }

func (s *scanner) peek() byte {
	if s.atEOL() {
		return 0
	}
	return s.line[s.pos]
}

func (s *scanner) peekAt(off int) byte {
	if s.pos+off >= len(s.line) {
		return 0
	}
	return s.line[s.pos+off]
}

func (s *scanner) next() byte {
	c := s.peek()
	s.pos++
	return c
}

func (s *scanner) skipSpace() {
	for !s.atEOL() && s.peek() == ' ' {
		s.pos++
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

// Tokenize converts one logical line (no embedded newline) of BASIC text
// into its source-form byte stream. numbered reports whether the line began
// with a line number - immediate-mode (numbered == false) keywords match
// case-insensitively by default, while numbered-line keywords default to
// case-sensitive, matching only the global lowercase-keywords override
// (see scanner.caseInsensitive). It does not prepend the line-number /
// length / exec-offset header; basic/workspace and the REPL add that once
// the companion exec-form stream (basic/exec) is also known.
func Tokenize(line string, numbered bool, opts Options) ([]byte, error) {
	maxLen := opts.MaxLineLength
	if maxLen == 0 {
		maxLen = DefaultMaxLineLength
	}
	if len(line) > maxLen {
		return nil, basicerr.ErrLineTooLong
	}

	s := newScanner(line, numbered)
	var out []byte

	for {
		s.skipSpace()
		if s.atEOL() {
			break
		}
		c := s.peek()

		switch {
		case c == '*' && s.pos == 0:
			// A "*" as the very first character of the line is a star
			// command: the remainder is copied verbatim and never
			// re-tokenized (spec.md §4.2).
			out = append(out, token.StarMark)
			out = append(out, s.line[s.pos+1:]...)
			s.pos = len(s.line)
			continue

		case c == ':':
			out = append(out, s.next())
			s.firstitem = true
			s.linenoposs = false
			continue

		case c == '(':
			s.brackets++
			if s.brackets > MaxBrackets {
				return nil, basicerr.ErrTooManyBrackets
			}
			out = append(out, s.next())
			continue

		case c == ')':
			s.brackets--
			if s.brackets < 0 {
				return nil, basicerr.ErrMismatchedBracket
			}
			out = append(out, s.next())
			continue

		case c == '"':
			b, err := s.scanString()
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
			s.firstitem = false
			continue

		case isDigit(c):
			b := s.scanNumber(opts)
			out = append(out, b...)
			s.firstitem = false
			s.linenoposs = false
			continue

		case isIdentStart(c):
			entry, n, ok := keyword.Lookup(s.line[s.pos:], s.caseInsensitive(opts))
			if ok && !(s.brackets > 0 && looksLikeVarOnly(entry)) {
				s.pos += n
				b := s.emitKeyword(entry, opts)
				out = append(out, b...)
				if entry.Has(keyword.CopiesRest) {
					out = append(out, s.line[s.pos:]...)
					s.pos = len(s.line)
					break
				}
				continue
			}
			b := s.scanVariable(opts)
			out = append(out, b...)
			s.firstitem = false
			s.linenoposs = false
			continue

		default:
			out = append(out, s.next())
			s.firstitem = false
			continue
		}
	}

	if s.brackets != 0 {
		return nil, basicerr.ErrMismatchedBracket
	}
	out = append(out, token.Term)
	return out, nil
}

// looksLikeVarOnly never actually suppresses a keyword match today; kept as
// the single seam basic/dispatch's external-collaborator hooks (array
// indexing vs. FUNCTION-class calls inside expressions) can extend without
// touching the scanning loop itself.
func looksLikeVarOnly(*keyword.Entry) bool { return false }

// emitKeyword appends a keyword's token bytes, applying the BY/TO collapse
// rule for DRAW/MOVE/POINT and advancing the first-item/line-number-follows
// state for the next token.
func (s *scanner) emitKeyword(e *keyword.Entry, opts Options) []byte {
	if e.CollapseBy != nil || e.CollapseTo != nil {
		if collapsed, n := s.tryCollapse(e, opts); collapsed != nil {
			s.pos += n
			return s.emitKeyword(collapsed, opts)
		}
	}

	class, tok := e.ElseClass, e.ElseTok
	if s.firstitem {
		class, tok = e.FirstClass, e.FirstTok
	}

	s.firstitem = e.Has(keyword.ResetsFirst)
	s.linenoposs = e.Has(keyword.LineNumberFollows)

	var b []byte
	if p := class.Prefix(); p != 0 {
		b = append(b, p)
	}
	b = append(b, tok)

	if e.Has(keyword.NameFollows) {
		s.skipSpace()
		name := s.scanVariable(opts)
		b = append(b, name...)
	}
	return b
}

// tryCollapse peeks past trailing whitespace for BY or TO immediately after
// e's own match; on success it returns the collapsed entry and the extra
// source length (beyond e's own match) that was consumed.
func (s *scanner) tryCollapse(e *keyword.Entry, opts Options) (*keyword.Entry, int) {
	save := s.pos
	s.skipSpace()
	rest := s.line[s.pos:]
	if e.CollapseBy != nil {
		if entry, n, ok := keyword.Lookup(rest, s.caseInsensitive(opts)); ok && entry == keyword.BY {
			consumed := (s.pos - save) + n
			s.pos = save
			return e.CollapseBy, consumed
		}
	}
	if e.CollapseTo != nil {
		if entry, n, ok := keyword.Lookup(rest, s.caseInsensitive(opts)); ok && entry == keyword.TO {
			consumed := (s.pos - save) + n
			s.pos = save
			return e.CollapseTo, consumed
		}
	}
	s.pos = save
	return nil, 0
}

// scanVariable consumes an identifier and wraps it in its marker: the 27
// static integer variables get StaticMark+index, everything else gets
// VarMark+name (self-terminating: a variable name is exactly a run of
// identifier characters optionally followed by one % or $ sigil, and the
// exec translator rescans with the same rule; an array's "(" is not part of
// the name and is emitted as an ordinary byte).
func (s *scanner) scanVariable(opts Options) []byte {
	start := s.pos
	for !s.atEOL() && isIdentChar(s.peek()) {
		s.pos++
	}
	if !s.atEOL() && (s.peek() == '%' || s.peek() == '$') {
		s.pos++
	}
	name := s.line[start:s.pos]

	if idx, isStatic := staticIndex(name); isStatic {
		return []byte{token.StaticMark, idx}
	}

	canon := name
	if opts.LowercaseKeywords {
		canon = strings.ToUpper(name)
	}
	out := []byte{token.VarMark}
	out = append(out, canon...)
	return out
}

// staticIndex reports whether name is one of BBC BASIC's 27 pre-bound
// static integer variables (A%-Z%, @%), returning 0-25 for A%-Z% and 26 for
// @%.
func staticIndex(name string) (byte, bool) {
	upper := strings.ToUpper(name)
	if upper == "@%" {
		return 26, true
	}
	if len(upper) == 2 && upper[1] == '%' && upper[0] >= 'A' && upper[0] <= 'Z' {
		return upper[0] - 'A', true
	}
	return 0, false
}

// scanNumber consumes a numeric literal. When linenoposs is set (we are
// immediately after GOTO/GOSUB/RESTORE/THEN/ELSE) and the literal is a
// plain integer, it is packed as a 3-byte LineMark reference instead of
// being carried as literal digit text, so RENUMBER can find and rewrite it
// without re-lexing arbitrary numeric text.
func (s *scanner) scanNumber(opts Options) []byte {
	start := s.pos
	for !s.atEOL() && isDigit(s.peek()) {
		s.pos++
	}
	isFloat := false
	if !s.atEOL() && s.peek() == '.' {
		isFloat = true
		s.pos++
		for !s.atEOL() && isDigit(s.peek()) {
			s.pos++
		}
	}
	if !s.atEOL() && (s.peek() == 'E' || s.peek() == 'e') {
		isFloat = true
		s.pos++
		if !s.atEOL() && (s.peek() == '+' || s.peek() == '-') {
			s.pos++
		}
		for !s.atEOL() && isDigit(s.peek()) {
			s.pos++
		}
	}
	text := s.line[start:s.pos]

	if s.linenoposs && !isFloat {
		if n, err := strconv.ParseUint(text, 10, 32); err == nil && n <= 0xFFFFFF {
			out := []byte{token.LineMark}
			out = append(out, byte(n), byte(n>>8), byte(n>>16))
			return out
		}
	}
	return []byte(text)
}

// scanString consumes a quoted string literal, including the "" escape for
// an embedded quote.
func (s *scanner) scanString() ([]byte, error) {
	start := s.pos
	s.pos++ // opening quote
	for {
		if s.atEOL() {
			return nil, basicerr.ErrUnterminatedString
		}
		c := s.next()
		if c == '"' {
			if s.peek() == '"' {
				s.pos++
				continue
			}
			break
		}
	}
	return []byte(s.line[start:s.pos]), nil
}
