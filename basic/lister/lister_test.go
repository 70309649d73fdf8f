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

package lister

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/basic370/bbcore/basic/tokenizer"
)

func TestExpandOmitsLineNumber(t *testing.T) {
	toks, err := tokenizer.Tokenize(`PRINT 1`, true, tokenizer.Options{MaxLineLength: tokenizer.DefaultMaxLineLength})
	if err != nil {
		t.Fatal(err)
	}
	got := Expand(10, toks, Options{NoLineNo: true})
	if strings.Contains(got, "10") {
		t.Errorf("NoLineNo set but line number present: %q", got)
	}
}

func TestExpandIndent(t *testing.T) {
	toks, err := tokenizer.Tokenize(`PRINT 1`, true, tokenizer.Options{MaxLineLength: tokenizer.DefaultMaxLineLength})
	if err != nil {
		t.Fatal(err)
	}
	plain := Expand(10, toks, Options{})
	indented := Expand(10, toks, Options{Indent: 4})
	if len(indented) <= len(plain) {
		t.Errorf("Indent=4 did not widen the output: plain=%q indented=%q", plain, indented)
	}
}

func TestExpandLowercase(t *testing.T) {
	toks, err := tokenizer.Tokenize(`PRINT 1`, true, tokenizer.Options{MaxLineLength: tokenizer.DefaultMaxLineLength})
	if err != nil {
		t.Fatal(err)
	}
	got := Expand(10, toks, Options{Lowercase: true})
	if !strings.Contains(got, "print") {
		t.Errorf("Lowercase set but keyword not lower-cased: %q", got)
	}
}

func TestExpandStaticVariableName(t *testing.T) {
	toks, err := tokenizer.Tokenize(`Z% = 9`, true, tokenizer.Options{MaxLineLength: tokenizer.DefaultMaxLineLength})
	if err != nil {
		t.Fatal(err)
	}
	got := Expand(10, toks, Options{})
	if !strings.Contains(got, "Z%") {
		t.Errorf("expected the static variable name Z%% in %q", got)
	}
}

// TestExpandSnapshot pins the exact listing text for a representative
// spread of statements, so an unintended change to spacing or casing in
// Expand shows up as a snapshot diff instead of silently passing.
func TestExpandSnapshot(t *testing.T) {
	cases := []string{
		`PRINT "HELLO"`,
		`IF X%=1 THEN PRINT "YES" ELSE PRINT "NO"`,
		`FOR I%=1 TO 10 STEP 2`,
		`DRAW BY 1,2`,
	}
	for _, src := range cases {
		toks, err := tokenizer.Tokenize(src, true, tokenizer.Options{MaxLineLength: tokenizer.DefaultMaxLineLength})
		if err != nil {
			t.Fatal(err)
		}
		got := Expand(10, toks, Options{Space: true})
		snaps.MatchSnapshot(t, src, got)
	}
}
