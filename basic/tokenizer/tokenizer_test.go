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

package tokenizer

import (
	"bytes"
	"testing"

	"github.com/basic370/bbcore/basic/lister"
)

func defOpts() Options {
	return Options{MaxLineLength: DefaultMaxLineLength}
}

// tokenize-expand-tokenize must be a fixed point: listing a tokenized line
// with Space forced on produces text that re-tokenizes to the identical
// byte stream, regardless of how the original source was spaced.
func TestRoundTripIsAFixedPoint(t *testing.T) {
	cases := []string{
		`PRINT"HELLO"`,
		`IF X%=1 THEN PRINT"YES" ELSE PRINT"NO"`,
		`FOR I%=1 TO 10 STEP 2`,
		`X% = 1`,
		`REPEAT UNTIL X%=1`,
	}
	for _, src := range cases {
		toks, err := Tokenize(src, true, defOpts())
		if err != nil {
			t.Fatalf("Tokenize(%q): %v", src, err)
		}
		text := lister.Expand(10, toks, lister.Options{Space: true})
		// Strip the "10 " line-number prefix Expand adds before re-tokenizing.
		again, err := Tokenize(text[len("10 "):], true, defOpts())
		if err != nil {
			t.Fatalf("re-Tokenize(%q): %v", text, err)
		}
		if !bytes.Equal(toks, again) {
			t.Errorf("round trip not a fixed point for %q:\n  first=% x\n second=% x\n  text=%q", src, toks, again, text)
		}
	}
}

func TestTokenizeDrawByCollapse(t *testing.T) {
	toks, err := Tokenize("DRAW BY 1,2", true, defOpts())
	if err != nil {
		t.Fatal(err)
	}
	text := lister.Expand(10, toks, lister.Options{Space: true})
	if !bytes.Contains([]byte(text), []byte("DRAWBY")) {
		t.Errorf("DRAW BY collapse: got %q, want DRAWBY", text)
	}
}

func TestTokenizeBracketMismatch(t *testing.T) {
	if _, err := Tokenize(`PRINT (1+2`, true, defOpts()); err == nil {
		t.Fatal("expected an error for an unclosed bracket")
	}
}

func TestTokenizeStaticVariable(t *testing.T) {
	toks, err := Tokenize("A% = 5", true, defOpts())
	if err != nil {
		t.Fatal(err)
	}
	text := lister.Expand(10, toks, lister.Options{Space: true})
	if !bytes.Contains([]byte(text), []byte("A%")) {
		t.Errorf("static var: got %q, want A%%", text)
	}
}

func TestTokenizeLowercaseKeywords(t *testing.T) {
	// The global override matches lowercase keywords on a numbered line too.
	opts := defOpts()
	opts.LowercaseKeywords = true
	toks, err := Tokenize("print 1", true, opts)
	if err != nil {
		t.Fatal(err)
	}
	text := lister.Expand(10, toks, lister.Options{Space: true})
	if !bytes.Contains([]byte(text), []byte("PRINT")) {
		t.Errorf("lowercase keyword: got %q, want PRINT token", text)
	}
}

func TestTokenizeImmediateModeDefaultsCaseInsensitive(t *testing.T) {
	// Immediate-mode (unnumbered) input matches keywords case-insensitively
	// without needing the lowercase-keywords override.
	toks, err := Tokenize("print 1", false, defOpts())
	if err != nil {
		t.Fatal(err)
	}
	text := lister.Expand(10, toks, lister.Options{Space: true})
	if !bytes.Contains([]byte(text), []byte("PRINT")) {
		t.Errorf("immediate-mode lowercase keyword: got %q, want PRINT token", text)
	}
}

func TestTokenizeNumberedModeRejectsLowercaseByDefault(t *testing.T) {
	// A numbered line is case-sensitive by default: lowercase "print" is
	// scanned as a variable name, not matched against PRINT.
	toks, err := Tokenize("print 1", true, defOpts())
	if err != nil {
		t.Fatal(err)
	}
	text := lister.Expand(10, toks, lister.Options{Space: true})
	if bytes.Contains([]byte(text), []byte("PRINT")) {
		t.Errorf("numbered-line lowercase keyword must not match without the override, got %q", text)
	}
}

func TestTokenizeLineTooLong(t *testing.T) {
	opts := Options{MaxLineLength: 4}
	if _, err := Tokenize("PRINT 1", true, opts); err == nil {
		t.Fatal("expected an error for a line over the configured maximum")
	}
}
