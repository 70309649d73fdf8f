/*
   Error taxonomy shared by every stage of the tokenizer and dispatcher.

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

// Package basicerr gives every member of the tokenizer/dispatcher error
// taxonomy a concrete Go type with a stable numeric code, so callers such as
// ON ERROR can branch on Code() the way the teacher's CPU handlers return a
// uint16 IRC-style code that execute() switches on.
package basicerr

import "fmt"

// Severity groups codes into the four bands of the taxonomy.
type Severity int

const (
	Warning Severity = iota
	Syntax
	Semantic
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Syntax:
		return "syntax error"
	case Semantic:
		return "semantic error"
	case Fatal:
		return "fatal error"
	default:
		return "error"
	}
}

// Numeric codes. Warnings and syntax/semantic errors are trappable by ON
// ERROR; fatal errors are not.
const (
	CodeLineTooLong = 100 + iota
	CodeCrunchedWhitespace
	CodeBadLineNumber
	CodeTooManyBrackets
)

const (
	CodeBadSyntax = 200 + iota
	CodeUnterminatedString
	CodeMismatchedBracket
	CodeKeywordExpected
)

const (
	CodeUnknownVariable = 300 + iota
	CodeNotAFunction
	CodeWrongArgCount
	CodeTypeMismatch
)

const (
	CodeBadToken = 400 + iota
	CodeNestedTrap
	CodeWorkspaceExhausted
	CodeLegacyToken
	CodeBadProg
)

// Error is the concrete type behind every taxonomy member.
type Error struct {
	Sev  Severity
	Code int
	Msg  string
	Line int // source line number, 0 when not applicable
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at line %d: %s", e.Sev, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Sev, e.Msg)
}

func New(sev Severity, code int, msg string) *Error {
	return &Error{Sev: sev, Code: code, Msg: msg}
}

func (e *Error) AtLine(line int) *Error {
	e2 := *e
	e2.Line = line
	return &e2
}

// Sentinel values for errors.Is comparisons where the message carries no
// line-specific detail.
var (
	ErrLineTooLong         = New(Warning, CodeLineTooLong, "line too long")
	ErrCrunchedWhitespace  = New(Warning, CodeCrunchedWhitespace, "crunched keyword boundary repaired")
	ErrBadLineNumber       = New(Syntax, CodeBadLineNumber, "line number out of range")
	ErrTooManyBrackets     = New(Syntax, CodeTooManyBrackets, "too many nested brackets")
	ErrBadSyntax           = New(Syntax, CodeBadSyntax, "bad syntax")
	ErrUnterminatedString  = New(Syntax, CodeUnterminatedString, "unterminated string")
	ErrMismatchedBracket   = New(Syntax, CodeMismatchedBracket, "mismatched bracket")
	ErrKeywordExpected     = New(Syntax, CodeKeywordExpected, "keyword expected")
	ErrUnknownVariable     = New(Semantic, CodeUnknownVariable, "unknown variable")
	ErrNotAFunction        = New(Semantic, CodeNotAFunction, "not a function")
	ErrWrongArgCount       = New(Semantic, CodeWrongArgCount, "wrong argument count")
	ErrTypeMismatch        = New(Semantic, CodeTypeMismatch, "type mismatch")
	ErrBadToken            = New(Fatal, CodeBadToken, "bad token in exec stream")
	ErrNestedTrap          = New(Fatal, CodeNestedTrap, "trap raised inside an already-trapped FN/PROC body")
	ErrWorkspaceExhausted  = New(Fatal, CodeWorkspaceExhausted, "workspace exhausted")
	ErrLegacyToken         = New(Fatal, CodeLegacyToken, "unsupported legacy Acorn token")
	ErrBadProg             = New(Fatal, CodeBadProg, "corrupt tokenized program image")
)

// RecoveryFrame captures the state ON ERROR needs to resume after a trapped
// error: the handler to resume at, and the gosub-stack depth to unwind to.
// It replaces the C implementation's setjmp/longjmp with an explicit struct
// threaded through the dispatcher, never a global.
type RecoveryFrame struct {
	HandlerLine int
	Pos         int // byte offset into HandlerLine's exec-form buffer
	StackDepth  int
	Local       bool // ON ERROR LOCAL: leave surrounding state (gosub stack) intact on trap
	Prev        *RecoveryFrame
}
