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

package dispatch

import (
	"bytes"
	"sort"
	"testing"

	"github.com/basic370/bbcore/basic/basicerr"
	"github.com/basic370/bbcore/basic/exec"
	"github.com/basic370/bbcore/basic/resolve"
	"github.com/basic370/bbcore/basic/tokenizer"
	"github.com/basic370/bbcore/basic/workspace"
)

// buildMachine tokenizes, translates and resolves a small program given as
// line-number -> source-text pairs, and wires the result into a runnable
// Machine, the same three-stage pipeline repl.Console.run drives.
func buildMachine(t *testing.T, srcLines map[uint32]string, out *bytes.Buffer) *Machine {
	t.Helper()
	numbers := make([]uint32, 0, len(srcLines))
	for n := range srcLines {
		numbers = append(numbers, n)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	bufs := make([][]byte, len(numbers))
	names := make([]*exec.NameTable, len(numbers))
	for i, n := range numbers {
		toks, err := tokenizer.Tokenize(srcLines[n], true, tokenizer.Options{MaxLineLength: tokenizer.DefaultMaxLineLength})
		if err != nil {
			t.Fatalf("tokenize line %d: %v", n, err)
		}
		ef, nt, err := exec.Translate(toks)
		if err != nil {
			t.Fatalf("translate line %d: %v", n, err)
		}
		bufs[i] = ef
		names[i] = nt
	}

	prog := resolve.NewProgram(numbers, bufs, names)
	syms := workspace.NewMemSymbolTable()
	if err := resolve.Resolve(prog, syms); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	store := workspace.NewStore(0)
	resolved := make(map[uint32][]byte, len(numbers))
	namesByLine := make(map[uint32]*exec.NameTable, len(numbers))
	for i, n := range numbers {
		_ = store.Put(n, []byte{token0}, nil)
		resolved[n] = prog.Bytes(n)
		namesByLine[n] = names[i]
	}
	return NewMachine(store, syms, out, resolved, namesByLine)
}

// token0 is an arbitrary non-empty placeholder byte: Store only needs to
// remember that a line exists and in what order, never its content, since
// RunFrom executes the separately-resolved exec-form map instead.
const token0 = 0

func TestAssignThenPrintNumber(t *testing.T) {
	var out bytes.Buffer
	m := buildMachine(t, map[uint32]string{
		10: "X%=5",
		20: `PRINT X%`,
	}, &out)
	if err := m.RunFrom(10, 0); err != nil {
		t.Fatalf("RunFrom: %v", err)
	}
	if out.String() != "5" {
		t.Fatalf("expected PRINT to emit 5, got %q", out.String())
	}
}

func TestIfTrueBranchRunsThenClause(t *testing.T) {
	var out bytes.Buffer
	m := buildMachine(t, map[uint32]string{
		10: `IF 1=1 THEN PRINT "YES"`,
	}, &out)
	if err := m.RunFrom(10, 0); err != nil {
		t.Fatalf("RunFrom: %v", err)
	}
	if out.String() != "YES" {
		t.Fatalf("expected the true branch to print YES, got %q", out.String())
	}
}

func TestIfFalseBranchSkipsThenClause(t *testing.T) {
	var out bytes.Buffer
	m := buildMachine(t, map[uint32]string{
		10: `IF 1=0 THEN PRINT "YES"`,
		20: `PRINT "AFTER"`,
	}, &out)
	if err := m.RunFrom(10, 0); err != nil {
		t.Fatalf("RunFrom: %v", err)
	}
	if out.String() != "AFTER" {
		t.Fatalf("expected the false branch to skip to AFTER, got %q", out.String())
	}
}

func TestForNextAccumulatesVariable(t *testing.T) {
	// SUM has no %/$ sigil, so it resolves through the workspace symbol
	// table as a plain variable (OpVar) rather than one of the 27
	// pre-bound static integers the FOR handler does not accept.
	var out bytes.Buffer
	m := buildMachine(t, map[uint32]string{
		10: "FOR SUM=1 TO 3",
		20: "NEXT",
	}, &out)
	if err := m.RunFrom(10, 0); err != nil {
		t.Fatalf("RunFrom: %v", err)
	}
	off, ok := m.Syms.Lookup("SUM")
	if !ok {
		t.Fatal("expected SUM to be bound")
	}
	got := m.vars[off]
	if got.Num != 4 {
		t.Fatalf("expected the loop counter to overshoot the limit to 4, got %v", got.Num)
	}
}

func TestGosubTransfersControlToTarget(t *testing.T) {
	var out bytes.Buffer
	m := buildMachine(t, map[uint32]string{
		10:  "GOSUB 100",
		20:  `PRINT "SHOULD NOT RUN"`,
		100: `PRINT "REACHED"`,
		110: "END",
	}, &out)
	if err := m.RunFrom(10, 0); err != nil {
		t.Fatalf("RunFrom: %v", err)
	}
	if out.String() != "REACHED" {
		t.Fatalf("expected GOSUB to transfer control to line 100, got %q", out.String())
	}
}

func TestHex64PrintFormatsAsSixteenHexDigits(t *testing.T) {
	var out bytes.Buffer
	m := buildMachine(t, map[uint32]string{
		10: "PRINT 255",
	}, &out)
	m.Hex64 = true
	if err := m.RunFrom(10, 0); err != nil {
		t.Fatalf("RunFrom: %v", err)
	}
	if len(out.String()) != 16 {
		t.Fatalf("expected a 16-digit hex64 rendering, got %q (len %d)", out.String(), len(out.String()))
	}
	if out.String() != "00000000000000FF" {
		t.Fatalf("expected 00000000000000FF, got %q", out.String())
	}
}

func TestOnErrorTrapsAndResumesAtHandler(t *testing.T) {
	// The handler text ("END") shares its statement with "ON ERROR" (no
	// colon between them), so the normal first pass over line 10 skips
	// straight past it to the line terminator without running it - only
	// the later trap on line 20 resumes inside line 10 at the saved
	// offset, right on END, which halts before line 30 is ever reached.
	var out bytes.Buffer
	m := buildMachine(t, map[uint32]string{
		10: "ON ERROR END",
		20: "X",
		30: `PRINT "NOT REACHED"`,
	}, &out)
	if err := m.RunFrom(10, 0); err != nil {
		t.Fatalf("RunFrom: %v", err)
	}
	if out.String() != "" {
		t.Fatalf("expected the trapped program to halt before line 30 ran, got %q", out.String())
	}
	off, ok := m.Syms.Lookup("ERR")
	if !ok {
		t.Fatal("expected ERR to be bound by the trapped error")
	}
	if got := m.vars[off].Num; got != float64(basicerr.CodeBadSyntax) {
		t.Fatalf("expected ERR to carry the bad-syntax code %d, got %v", basicerr.CodeBadSyntax, got)
	}
}

func TestAssignThenPrintLargeIntegerLiteral(t *testing.T) {
	// 257 is past OpSmallInt's 2..256 range, so this exercises the 4-byte
	// OpIntCon decode path in evalOperand.
	var out bytes.Buffer
	m := buildMachine(t, map[uint32]string{
		10: "X%=257",
		20: "PRINT X%",
	}, &out)
	if err := m.RunFrom(10, 0); err != nil {
		t.Fatalf("RunFrom: %v", err)
	}
	if out.String() != "257" {
		t.Fatalf("expected PRINT to emit 257, got %q", out.String())
	}
}

func TestAssignThenPrintFloatLiteral(t *testing.T) {
	var out bytes.Buffer
	m := buildMachine(t, map[uint32]string{
		10: "X%=3.5",
		20: "PRINT X%",
	}, &out)
	if err := m.RunFrom(10, 0); err != nil {
		t.Fatalf("RunFrom: %v", err)
	}
	if out.String() != "3.5" {
		t.Fatalf("expected PRINT to emit 3.5, got %q", out.String())
	}
}

func TestPrintStringLiteralWithEscapedQuote(t *testing.T) {
	var out bytes.Buffer
	m := buildMachine(t, map[uint32]string{
		10: `PRINT "A""B"`,
	}, &out)
	if err := m.RunFrom(10, 0); err != nil {
		t.Fatalf("RunFrom: %v", err)
	}
	if out.String() != `A"B` {
		t.Fatalf(`expected PRINT to collapse "" to ", got %q`, out.String())
	}
}

func TestDataStatementIsRuntimeNoop(t *testing.T) {
	var out bytes.Buffer
	m := buildMachine(t, map[uint32]string{
		10: "DATA 1,2,3",
		20: `PRINT "AFTER"`,
	}, &out)
	if err := m.RunFrom(10, 0); err != nil {
		t.Fatalf("RunFrom: %v", err)
	}
	if out.String() != "AFTER" {
		t.Fatalf("expected DATA to be a runtime no-op falling through to AFTER, got %q", out.String())
	}
}

func TestStarCommandIsRuntimeNoop(t *testing.T) {
	var out bytes.Buffer
	m := buildMachine(t, map[uint32]string{
		10: "*FX 1",
		20: `PRINT "AFTER"`,
	}, &out)
	if err := m.RunFrom(10, 0); err != nil {
		t.Fatalf("RunFrom: %v", err)
	}
	if out.String() != "AFTER" {
		t.Fatalf("expected a star command to be a runtime no-op falling through to AFTER, got %q", out.String())
	}
}

func TestBadTokenIsFatal(t *testing.T) {
	var out bytes.Buffer
	m := buildMachine(t, map[uint32]string{10: "X%=1"}, &out)
	buf := m.lines[10]
	broken := append([]byte(nil), buf...)
	broken[0] = 0xFF // no handler is bound at this opcode
	m.lines[10] = broken
	err := m.RunFrom(10, 0)
	if err == nil {
		t.Fatal("expected an unbound opcode to raise a fatal bad-token error")
	}
}
