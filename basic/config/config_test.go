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

package config

import (
	"strings"
	"testing"
)

func TestLoadAppliesBareSwitches(t *testing.T) {
	r := strings.NewReader("lowercase-keywords\nhex64\n# a comment line\ntrace-lines\n")
	opts, err := Load(r, Default())
	if err != nil {
		t.Fatal(err)
	}
	if !opts.LowercaseKeywords || !opts.Hex64 || !opts.TraceLines {
		t.Fatalf("expected all three switches set, got %+v", opts)
	}
}

func TestLoadAppliesNameValueOption(t *testing.T) {
	r := strings.NewReader("list-indent = 4\n")
	opts, err := Load(r, Default())
	if err != nil {
		t.Fatal(err)
	}
	if opts.ListIndent != 4 {
		t.Fatalf("expected ListIndent=4, got %d", opts.ListIndent)
	}
}

func TestLoadIgnoresCommentsAndBlankLines(t *testing.T) {
	r := strings.NewReader("\n# full comment\n   \nmax-line-length=100 # trailing comment\n")
	opts, err := Load(r, Default())
	if err != nil {
		t.Fatal(err)
	}
	if opts.MaxLineLength != 100 {
		t.Fatalf("expected MaxLineLength=100, got %d", opts.MaxLineLength)
	}
}

func TestLoadUnknownOptionErrors(t *testing.T) {
	r := strings.NewReader("bogus-option\n")
	if _, err := Load(r, Default()); err == nil {
		t.Fatal("expected an error for an unrecognized option name")
	}
}

func TestLoadMissingValueErrors(t *testing.T) {
	r := strings.NewReader("list-indent\n")
	if _, err := Load(r, Default()); err == nil {
		t.Fatal("expected an error when list-indent has no value")
	}
}

func TestLoadStartsFromGivenOptions(t *testing.T) {
	base := Default()
	base.ListLower = true
	r := strings.NewReader("hex64\n")
	opts, err := Load(r, base)
	if err != nil {
		t.Fatal(err)
	}
	if !opts.ListLower {
		t.Fatal("expected the starting option ListLower to survive Load")
	}
	if !opts.Hex64 {
		t.Fatal("expected hex64 to be applied on top of the starting options")
	}
}
