/*
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

package basicerr

import (
	"strings"
	"testing"
)

func TestAtLineDoesNotMutateSentinel(t *testing.T) {
	e := ErrBadSyntax.AtLine(42)
	if ErrBadSyntax.Line != 0 {
		t.Fatalf("AtLine mutated the shared sentinel: %+v", ErrBadSyntax)
	}
	if e.Line != 42 {
		t.Fatalf("expected the copy to carry line 42, got %d", e.Line)
	}
}

func TestAtLinePreservesCodeAndSeverity(t *testing.T) {
	// AtLine returns a detached copy (see TestAtLineDoesNotMutateSentinel),
	// so callers compare against a sentinel by Code, not by identity or
	// errors.Is.
	e := ErrUnknownVariable.AtLine(10)
	if e.Code != ErrUnknownVariable.Code || e.Sev != ErrUnknownVariable.Sev {
		t.Fatalf("expected AtLine to preserve Code and Sev, got %+v", e)
	}
}

func TestErrorStringIncludesLineWhenSet(t *testing.T) {
	e := ErrMismatchedBracket.AtLine(5)
	if !strings.Contains(e.Error(), "line 5") {
		t.Errorf("expected the formatted error to mention line 5, got %q", e.Error())
	}
	noLine := New(Syntax, CodeBadSyntax, "bad syntax")
	if strings.Contains(noLine.Error(), "line") {
		t.Errorf("expected no line mention when Line is zero, got %q", noLine.Error())
	}
}

func TestSeverityBandsAreDistinctAndOrdered(t *testing.T) {
	if !(Warning < Syntax && Syntax < Semantic && Semantic < Fatal) {
		t.Fatal("expected severity bands to order Warning < Syntax < Semantic < Fatal")
	}
}

func TestSeverityStringIsHumanReadable(t *testing.T) {
	cases := map[Severity]string{
		Warning:  "warning",
		Syntax:   "syntax error",
		Semantic: "semantic error",
		Fatal:    "fatal error",
	}
	for sev, want := range cases {
		if got := sev.String(); got != want {
			t.Errorf("Severity(%d).String() = %q, want %q", sev, got, want)
		}
	}
}

func TestRecoveryFrameChainsToPrevious(t *testing.T) {
	outer := &RecoveryFrame{HandlerLine: 100, StackDepth: 0}
	inner := &RecoveryFrame{HandlerLine: 200, StackDepth: 3, Prev: outer}
	if inner.Prev != outer {
		t.Fatal("expected inner.Prev to point back at outer")
	}
	if inner.Prev.HandlerLine != 100 {
		t.Fatalf("expected the chained frame's handler line to be 100, got %d", inner.Prev.HandlerLine)
	}
}
