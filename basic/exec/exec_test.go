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

package exec

import (
	"testing"

	"github.com/basic370/bbcore/basic/token"
	"github.com/basic370/bbcore/basic/tokenizer"
)

func TestResolvedUnresolvedParity(t *testing.T) {
	pairs := []Opcode{OpXVar, OpXLineNum, OpXFnProcCall, OpXIf, OpXElse, OpXLhElse, OpXWhen, OpXOtherwise, OpXWhile, OpXCase}
	for _, x := range pairs {
		if IsResolved(x) {
			t.Errorf("%#x: expected unresolved", x)
		}
		r := Resolved(x)
		if !IsResolved(r) {
			t.Errorf("Resolved(%#x)=%#x not marked resolved", x, r)
		}
		if Unresolved(r) != x {
			t.Errorf("Unresolved(Resolved(%#x))=%#x, want %#x", x, Unresolved(r), x)
		}
	}
}

func TestTranslateTerminatesWithTerm(t *testing.T) {
	src, err := tokenizer.Tokenize(`IF X%=1 THEN PRINT"YES"`, true, tokenizer.Options{MaxLineLength: tokenizer.DefaultMaxLineLength})
	if err != nil {
		t.Fatal(err)
	}
	ef, _, err := Translate(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(ef) == 0 || ef[len(ef)-1] != token.Term {
		t.Fatalf("exec-form stream must end with token.Term, got % x", ef)
	}
}

func TestNameTableInternRoundTrip(t *testing.T) {
	names := NewNameTable()
	a := names.Intern("FOO")
	b := names.Intern("BAR")
	if a == b {
		t.Fatalf("distinct names must get distinct indices")
	}
	if names.Intern("FOO") != a {
		t.Fatalf("interning the same name twice must return the same index")
	}
	if names.Name(a) != "FOO" || names.Name(b) != "BAR" {
		t.Fatalf("Name(Intern(x)) must round-trip to x")
	}
}

func TestTranslateVariableProducesXVarOpcode(t *testing.T) {
	src, err := tokenizer.Tokenize(`FOO=1`, true, tokenizer.Options{MaxLineLength: tokenizer.DefaultMaxLineLength})
	if err != nil {
		t.Fatal(err)
	}
	ef, names, err := Translate(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(ef) < 1 || ef[0] != OpXVar {
		t.Fatalf("expected exec-form to begin with OpXVar, got % x", ef)
	}
	if names.Name(0) != "FOO" {
		t.Fatalf("expected the interned name at index 0 to be FOO, got %q", names.Name(0))
	}
}

func translateLine(t *testing.T, text string) []byte {
	t.Helper()
	src, err := tokenizer.Tokenize(text, true, tokenizer.Options{MaxLineLength: tokenizer.DefaultMaxLineLength})
	if err != nil {
		t.Fatal(err)
	}
	ef, _, err := Translate(src)
	if err != nil {
		t.Fatal(err)
	}
	return ef
}

func TestTranslateIntegerLiteralBoundaries(t *testing.T) {
	cases := []struct {
		text string
		want []byte
	}{
		{"X%=0", []byte{OpIntZero}},
		{"X%=1", []byte{OpIntOne}},
		{"X%=2", []byte{OpSmallInt, 1}},
		{"X%=256", []byte{OpSmallInt, 255}},
		{"X%=257", []byte{OpIntCon, 1, 1, 0, 0}},
	}
	for _, c := range cases {
		ef := translateLine(t, c.text)
		got := ef[len(ef)-len(c.want)-1 : len(ef)-1]
		if string(got) != string(c.want) {
			t.Errorf("%s: literal bytes = % x, want % x", c.text, got, c.want)
		}
	}
}

func TestTranslateFloatLiteral(t *testing.T) {
	ef := translateLine(t, "X%=3.5")
	if len(ef) < 10 || ef[len(ef)-10] != OpFloatCon {
		t.Fatalf("expected a trailing OpFloatCon, got % x", ef)
	}
}

func TestTranslateStringLiteralNoEscape(t *testing.T) {
	ef := translateLine(t, `X$="HELLO"`)
	idx := indexOf(ef, OpStringCon)
	if idx < 0 {
		t.Fatalf("expected OpStringCon in % x", ef)
	}
	n := int(ef[idx+1]) | int(ef[idx+2])<<8
	if got := string(ef[idx+3 : idx+3+n]); got != "HELLO" {
		t.Errorf("string payload = %q, want HELLO", got)
	}
}

func TestTranslateStringLiteralEscapedQuote(t *testing.T) {
	ef := translateLine(t, `X$="A""B"`)
	idx := indexOf(ef, OpQStringCon)
	if idx < 0 {
		t.Fatalf("expected OpQStringCon (the literal contains an escaped quote) in % x", ef)
	}
	n := int(ef[idx+1]) | int(ef[idx+2])<<8
	if got := string(ef[idx+3 : idx+3+n]); got != `A"B` {
		t.Errorf("string payload = %q, want A\"B", got)
	}
}

func TestTranslateDataLiteral(t *testing.T) {
	ef := translateLine(t, "DATA 1,2,3")
	idx := indexOf(ef, OpData)
	if idx < 0 {
		t.Fatalf("expected OpData in % x", ef)
	}
	n := int(ef[idx+1]) | int(ef[idx+2])<<8
	if got := string(ef[idx+3 : idx+3+n]); got != "1,2,3" {
		t.Errorf("DATA payload = %q, want 1,2,3", got)
	}
}

func TestTranslateStarCommand(t *testing.T) {
	ef := translateLine(t, "*FX 1")
	idx := indexOf(ef, OpStar)
	if idx < 0 {
		t.Fatalf("expected OpStar in % x", ef)
	}
	n := int(ef[idx+1]) | int(ef[idx+2])<<8
	if got := string(ef[idx+3 : idx+3+n]); got != "FX 1" {
		t.Errorf("star-command payload = %q, want %q", got, "FX 1")
	}
}

func indexOf(buf []byte, op Opcode) int {
	for i, b := range buf {
		if b == op {
			return i
		}
	}
	return -1
}
