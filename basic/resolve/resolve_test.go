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

package resolve

import (
	"testing"

	"github.com/basic370/bbcore/basic/exec"
	"github.com/basic370/bbcore/basic/tokenizer"
	"github.com/basic370/bbcore/basic/workspace"
)

func TestResolveBindsVariable(t *testing.T) {
	toks, _ := tokenizer.Tokenize("FOO=1", true, tokenizer.Options{MaxLineLength: tokenizer.DefaultMaxLineLength})
	ef, nt, _ := exec.Translate(toks)

	prog := NewProgram([]uint32{10}, [][]byte{ef}, []*exec.NameTable{nt})
	syms := workspace.NewMemSymbolTable()
	if err := Resolve(prog, syms); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	buf := prog.Bytes(10)
	if buf[0] != exec.OpVar {
		t.Fatalf("expected the FOO reference to resolve to OpVar, got %#x", buf[0])
	}
	if _, ok := syms.Lookup("FOO"); !ok {
		t.Fatalf("expected FOO to be bound in the symbol table")
	}
}

func TestResolveDeResolveRoundTrip(t *testing.T) {
	toks, _ := tokenizer.Tokenize("FOO=1", true, tokenizer.Options{MaxLineLength: tokenizer.DefaultMaxLineLength})
	ef, nt, _ := exec.Translate(toks)
	original := append([]byte(nil), ef...)

	numbers := []uint32{10}
	bufs := [][]byte{ef}
	names := []*exec.NameTable{nt}
	prog := NewProgram(numbers, bufs, names)
	syms := workspace.NewMemSymbolTable()
	if err := Resolve(prog, syms); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	DeResolve(prog)
	got := prog.Bytes(10)
	if got[0] != original[0] {
		t.Fatalf("DeResolve did not restore the unresolved opcode: got %#x want %#x", got[0], original[0])
	}
}

func TestResolveUnknownLineNumber(t *testing.T) {
	toks, _ := tokenizer.Tokenize("GOTO 999", true, tokenizer.Options{MaxLineLength: tokenizer.DefaultMaxLineLength})
	ef, nt, err := exec.Translate(toks)
	if err != nil {
		t.Fatal(err)
	}
	prog := NewProgram([]uint32{10}, [][]byte{ef}, []*exec.NameTable{nt})
	syms := workspace.NewMemSymbolTable()
	if err := Resolve(prog, syms); err == nil {
		t.Fatal("expected an error resolving a GOTO to a non-existent line")
	}
}
