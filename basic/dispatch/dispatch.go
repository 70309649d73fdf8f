/*
   Statement dispatcher: routes the leading opcode byte of a statement to
   its handler via a 256-entry table, built once at package init.

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

// Package dispatch is the statement dispatcher: a 256-entry
// [256]func(*Machine, []byte, int) (int, error) table built once in the
// package's init(), indexed by the leading opcode byte of the current
// statement, lifted directly from the teacher's emu/cpu.go
// cpu.table [256]func(*stepInfo) uint16 / createTable() shape. Handlers
// execute the resolved exec-form stream produced by basic/exec and
// basic/resolve against a threaded *Machine rather than any global state,
// per the Design Notes' rejection of a global basicvars.
package dispatch

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/basic370/bbcore/basic/basicerr"
	"github.com/basic370/bbcore/basic/exec"
	"github.com/basic370/bbcore/basic/keyword"
	"github.com/basic370/bbcore/basic/numfmt"
	"github.com/basic370/bbcore/basic/token"
	"github.com/basic370/bbcore/basic/workspace"
)

// Value is a runtime BASIC value: either a float64 or a string.
type Value struct {
	Num   float64
	Str   string
	IsStr bool
}

func num(n float64) Value { return Value{Num: n} }
func str(s string) Value  { return Value{Str: s, IsStr: true} }

func (v Value) String() string {
	if v.IsStr {
		return v.Str
	}
	return strconv.FormatFloat(v.Num, 'g', -1, 64)
}

// hexString renders v in the hex64 display format, for PRINT under
// Machine.Hex64.
func (v Value) hexString() string {
	if v.IsStr {
		return v.Str
	}
	return numfmt.FormatHex64(int64(v.Num))
}

// Machine is the threaded interpreter state: workspace, symbol bindings,
// variable storage, and control stacks. Never a package-level global -
// every handler receives it explicitly, mirroring emu/core.core's explicit
// struct instead of the mutable-global basicvars the Design Notes call out.
type Machine struct {
	Store *workspace.Store
	Syms  workspace.SymbolTable
	Out   io.Writer

	vars   map[uint32]Value
	static [27]Value

	gosubStack []frame
	repeatPos  []frame
	whilePos   []frame
	forStack   []forFrame

	Recovery  *basicerr.RecoveryFrame
	Escape    atomic.Bool
	caseValue Value

	curLine uint32
	lines   map[uint32][]byte // resolved exec-form, by line number
	names   map[uint32]*exec.NameTable

	TraceLines bool
	Hex64      bool
}

type frame struct {
	line uint32
	pos  int
}

type forFrame struct {
	varOff           uint32
	limit, step      float64
	bodyLine, bodyPos uint32Pos
}

type uint32Pos struct {
	line uint32
	pos  int
}

// NewMachine wires a workspace and its resolved program into a fresh
// Machine ready to run.
func NewMachine(store *workspace.Store, syms workspace.SymbolTable, out io.Writer,
	lines map[uint32][]byte, names map[uint32]*exec.NameTable) *Machine {
	return &Machine{
		Store: store, Syms: syms, Out: out,
		vars: make(map[uint32]Value), lines: lines, names: names,
	}
}

// handler executes one statement starting at buf[pos] (pos points at the
// leading opcode byte). It returns the byte offset to resume at (normally
// the position just past the statement) and a control signal.
type handler func(m *Machine, buf []byte, pos int) (next int, err error)

var table [256]handler

// bad_token/bad_syntax mirror the teacher's distinct fatal-vs-trappable
// IRC-style return codes from CPU opcode handlers: a statement opcode with
// no handler at all is a fatal bad_token, while a handler that finds its
// own operands malformed raises a trappable bad_syntax.
func badToken(m *Machine, buf []byte, pos int) (int, error) {
	return pos, basicerr.ErrBadToken.AtLine(int(m.curLine))
}

func init() {
	for i := range table {
		table[i] = badToken
	}
	bind := func(e *keyword.Entry, h handler) {
		table[e.FirstTok] = h
	}
	bind(namedPlain("PRINT"), stmtPrint)
	bind(namedPlain("END"), stmtEnd)
	bind(namedPlain("STOP"), stmtEnd)
	bind(namedPlain("ENDIF"), stmtNoop)
	bind(namedPlain("ENDPROC"), stmtEndProc)
	bind(namedPlain("ENDWHILE"), stmtEndWhile)
	bind(namedPlain("REPEAT"), stmtRepeat)
	bind(namedPlain("UNTIL"), stmtUntil)
	bind(namedPlain("FOR"), stmtFor)
	bind(namedPlain("NEXT"), stmtNext)
	bind(keyword.GOTO, stmtGoto)
	bind(keyword.GOSUB, stmtGosub)
	bind(namedPlain("ON"), stmtOn)
	bind(namedPlain("ENDCASE"), stmtNoop)
	bind(namedPlain("DIM"), stmtSkipRest)
	bind(namedPlain("LOCAL"), stmtSkipRest)
	bind(namedPlain("DEF"), stmtDef)
	bind(namedPlain("CLEAR"), stmtClear)
	bind(namedPlain("INPUT"), stmtSkipRest)

	// IF, ELSE, WHILE, CASE and WHEN are entirely replaced by their
	// resolvable exec-form opcode at translate time (basic/exec), so the
	// dispatcher indexes on that opcode byte directly rather than on the
	// keyword's own token - the leading byte of the statement really is
	// exec.OpIf/exec.OpWhile/... by the time RunLine sees it.
	table[exec.OpXIf], table[exec.OpIf] = stmtIf, stmtIf
	table[exec.OpXElse], table[exec.OpElse] = stmtElseSkip, stmtElseSkip
	table[exec.OpXLhElse], table[exec.OpLhElse] = stmtLhElse, stmtLhElse
	table[exec.OpXWhile], table[exec.OpWhile] = stmtWhile, stmtWhile
	table[exec.OpXCase], table[exec.OpCase] = stmtCase, stmtCase
	table[exec.OpXWhen], table[exec.OpWhen] = stmtWhenSkip, stmtWhenSkip
	table[exec.OpXOtherwise], table[exec.OpOtherwise] = stmtNoop, stmtNoop

	// Token bytes not led by a keyword (an assignment statement such as
	// "X% = 1" begins directly with a variable reference) are handled by
	// inspecting the opcode value rather than the keyword table.
	table[exec.OpVar] = stmtAssign
	table[exec.OpStaticVar] = stmtAssign

	// REM carries no exec-form bytes at all (its comment text is dropped
	// at translate time), so its own opcode byte never reaches Dispatch.
	// DATA and a star command do reach it, as exec.OpData/exec.OpStar
	// literal opcodes, and are both no-ops at run time.
	table[exec.OpData] = stmtSkipRest
	table[exec.OpStar] = stmtSkipRest
}

// stmtLhElse is reached only by sequential fallthrough after a true
// same-line IF...THEN branch finishes: skip to the resolved end-of-line
// offset so the else branch is not also executed. The false path jumps
// past this opcode entirely (see basic/resolve), so it never re-enters
// here.
func stmtLhElse(m *Machine, buf []byte, pos int) (int, error) {
	return int(le32(buf, pos+1)), nil
}

// namedPlain looks up a plain-class keyword by its exact canonical
// spelling, for wiring table entries that basic/keyword does not expose as
// a named package-level var.
func namedPlain(name string) *keyword.Entry {
	e, _, ok := keyword.Lookup(name, false)
	if !ok || e.Name != name {
		panic("dispatch: unknown keyword " + name)
	}
	return e
}

// Dispatch looks up and calls the handler for the opcode at buf[pos].
func Dispatch(m *Machine, buf []byte, pos int) (int, error) {
	if pos >= len(buf) {
		return pos, nil
	}
	op := buf[pos]
	if op == token.Term {
		return pos, nil
	}
	return table[op](m, buf, pos)
}

// RunLine executes every statement on one already-resolved exec-form line,
// in order, until its terminator, an unhandled control transfer, or error.
func (m *Machine) RunLine(n uint32) error {
	buf, ok := m.lines[n]
	if !ok {
		return basicerr.ErrBadLineNumber
	}
	m.curLine = n
	pos := 0
	for pos < len(buf) && buf[pos] != token.Term {
		if m.Escape.Load() {
			return basicerr.New(basicerr.Fatal, basicerr.CodeBadToken, "escape").AtLine(int(n))
		}
		next, err := Dispatch(m, buf, pos)
		if err != nil {
			return err
		}
		if next <= pos {
			break
		}
		pos = next
		for pos < len(buf) && buf[pos] == ':' {
			pos++
		}
	}
	return nil
}

// skipToStatementEnd walks buf one opcode at a time (via exec.SkipWidth, so
// a multi-byte literal operand is never mistaken for the Term/':' bytes it
// may happen to contain) until it reaches the statement separator or the
// line's terminator.
func skipToStatementEnd(buf []byte, pos int) int {
	for pos < len(buf) && buf[pos] != token.Term && buf[pos] != ':' {
		pos += exec.SkipWidth(buf, pos)
	}
	return pos
}

func stmtNoop(m *Machine, buf []byte, pos int) (int, error) {
	return pos + 1, nil
}

func stmtSkipRest(m *Machine, buf []byte, pos int) (int, error) {
	for pos < len(buf) && buf[pos] != token.Term {
		pos += exec.SkipWidth(buf, pos)
	}
	return pos, nil
}

func stmtEnd(m *Machine, buf []byte, pos int) (int, error) {
	return len(buf), nil
}

func stmtEndProc(m *Machine, buf []byte, pos int) (int, error) {
	if len(m.gosubStack) == 0 {
		return len(buf), nil
	}
	f := m.gosubStack[len(m.gosubStack)-1]
	m.gosubStack = m.gosubStack[:len(m.gosubStack)-1]
	m.curLine = f.line
	return -1, m.resumeAt(f)
}

func (m *Machine) resumeAt(f frame) error {
	return m.RunFrom(f.line, f.pos)
}

// RunFrom runs the program starting at a specific (line, byte-offset),
// continuing to subsequent lines in ascending line-number order until END
// or an error.
func (m *Machine) RunFrom(line uint32, pos int) error {
	order := m.Store.Lines()
	idx := -1
	for i, l := range order {
		if l.Number == line {
			idx = i
			break
		}
	}
	if idx < 0 {
		return basicerr.ErrBadLineNumber.AtLine(int(line))
	}
	for idx < len(order) {
		n := order[idx].Number
		buf := m.lines[n]
		m.curLine = n
		start := 0
		if n == line {
			start = pos
		}
		p := start
		halted := false
		for p < len(buf) && buf[p] != token.Term {
			if m.Escape.Load() {
				return nil
			}
			next, err := Dispatch(m, buf, p)
			if err != nil {
				if be, ok := err.(*basicerr.Error); ok {
					if trapped, trapErr := m.trap(be); trapped {
						return trapErr
					}
				}
				return err
			}
			if next == len(buf) {
				halted = true
				break
			}
			p = next
			for p < len(buf) && buf[p] == ':' {
				p++
			}
		}
		if halted {
			return nil
		}
		idx++
	}
	return nil
}

func stmtPrint(m *Machine, buf []byte, pos int) (int, error) {
	end := skipToStatementEnd(buf, pos+1)
	v, _, err := evalExpr(m, buf, pos+1, end)
	if err != nil {
		return end, err
	}
	if m.Hex64 {
		fmt.Fprint(m.Out, v.hexString())
	} else {
		fmt.Fprint(m.Out, v.String())
	}
	return end, nil
}

func stmtAssign(m *Machine, buf []byte, pos int) (int, error) {
	op := buf[pos]
	var off uint32
	var isStatic bool
	var staticIdx byte
	switch op {
	case exec.OpVar:
		off = le32(buf, pos+1)
	case exec.OpStaticVar:
		isStatic = true
		staticIdx = buf[pos+1]
	}
	width := 5
	if isStatic {
		width = 2
	}
	p := pos + width
	for p < len(buf) && buf[p] == ' ' {
		p++
	}
	if p >= len(buf) || buf[p] != '=' {
		return skipToStatementEnd(buf, pos), basicerr.ErrBadSyntax.AtLine(int(m.curLine))
	}
	p++
	end := skipToStatementEnd(buf, p)
	v, _, err := evalExpr(m, buf, p, end)
	if err != nil {
		return end, err
	}
	if isStatic {
		m.static[staticIdx] = v
	} else {
		m.vars[off] = v
	}
	return end, nil
}

func stmtIf(m *Machine, buf []byte, pos int) (int, error) {
	// pos is the OpIf/OpXIf opcode; its own 4-byte operand occupies
	// pos+1..pos+4, so the condition - everything between "IF" and
	// "THEN" - starts at pos+5.
	condEnd := -1
	for i := pos + 5; i < len(buf); i++ {
		if buf[i] == thenTok() {
			condEnd = i
			break
		}
	}
	if condEnd < 0 {
		return skipToStatementEnd(buf, pos), basicerr.ErrBadSyntax.AtLine(int(m.curLine))
	}
	v, _, err := evalExpr(m, buf, pos+5, condEnd)
	if err != nil {
		return condEnd, err
	}
	thenStart := condEnd + 1
	target := le32(buf, pos+1)
	truthy := v.Num != 0 || (v.IsStr && v.Str != "")
	if truthy {
		// Continue execution straight into the THEN clause (inline
		// form) or fall through to the next line (block form, where
		// thenStart is already this line's terminator).
		return thenStart, nil
	}
	if hasInlineElse(buf) {
		// Inline IF: target is a same-line byte offset of the ELSE branch.
		return int(target), nil
	}
	if target == 0 {
		// No matching ELSE/ENDIF anywhere later in the program: a bare
		// single-line "IF ... THEN ..." with no else clause. The false
		// path is simply "skip to this line's terminator" - returning
		// len(buf) here would be mistaken for stmtEnd's whole-program
		// halt signal instead of an ordinary end-of-line.
		end := thenStart
		for end < len(buf) && buf[end] != token.Term {
			end++
		}
		return end, nil
	}
	// Block IF: target is a line number to resume at.
	if err := m.RunFrom(target, 0); err != nil {
		return len(buf), err
	}
	return len(buf), nil
}

func thenTok() byte { return keyword.THEN.ElseTok }

// hasInlineElse reports whether this line carries a same-line ELSE, which
// resolve.go records as an OpLhElse opcode - the same test it uses to
// decide whether an OpXIf's operand is a byte offset or a line number.
func hasInlineElse(buf []byte) bool {
	for _, b := range buf {
		if b == exec.OpLhElse || b == exec.OpXLhElse {
			return true
		}
	}
	return false
}

func stmtElseSkip(m *Machine, buf []byte, pos int) (int, error) {
	return len(buf), nil
}

func stmtWhile(m *Machine, buf []byte, pos int) (int, error) {
	// pos+1..pos+4 is OpWhile's own operand; the condition starts at pos+5.
	condEnd := skipToStatementEnd(buf, pos+5)
	v, _, err := evalExpr(m, buf, pos+5, condEnd)
	if err != nil {
		return condEnd, err
	}
	truthy := v.Num != 0 || (v.IsStr && v.Str != "")
	if !truthy {
		target := findBranchTarget(buf, pos)
		if target != 0 {
			return len(buf), m.skipTo(target)
		}
		return len(buf), nil
	}
	m.whilePos = append(m.whilePos, frame{line: m.curLine, pos: pos})
	return condEnd, nil
}

func (m *Machine) skipTo(line uint32) error {
	return m.RunFrom(line, 0)
}

func stmtEndWhile(m *Machine, buf []byte, pos int) (int, error) {
	if len(m.whilePos) == 0 {
		return pos + 1, nil
	}
	f := m.whilePos[len(m.whilePos)-1]
	m.whilePos = m.whilePos[:len(m.whilePos)-1]
	return len(buf), m.skipTo(f.line)
}

func findBranchTarget(buf []byte, from int) uint32 {
	for i := from; i < len(buf)-4; i++ {
		switch buf[i] {
		case exec.OpIf, exec.OpWhile, exec.OpCase, exec.OpWhen, exec.OpOtherwise, exec.OpElse:
			return le32(buf, i+1)
		}
	}
	return 0
}

func stmtRepeat(m *Machine, buf []byte, pos int) (int, error) {
	m.repeatPos = append(m.repeatPos, frame{line: m.curLine, pos: pos})
	return pos + 1, nil
}

func stmtUntil(m *Machine, buf []byte, pos int) (int, error) {
	end := skipToStatementEnd(buf, pos+1)
	v, _, err := evalExpr(m, buf, pos+1, end)
	if err != nil {
		return end, err
	}
	truthy := v.Num != 0 || (v.IsStr && v.Str != "")
	if len(m.repeatPos) == 0 {
		return end, nil
	}
	f := m.repeatPos[len(m.repeatPos)-1]
	if truthy {
		m.repeatPos = m.repeatPos[:len(m.repeatPos)-1]
		return end, nil
	}
	return len(buf), m.skipTo(f.line)
}

func stmtFor(m *Machine, buf []byte, pos int) (int, error) {
	p := pos + 1
	if p >= len(buf) || buf[p] != exec.OpVar {
		return skipToStatementEnd(buf, pos), basicerr.ErrBadSyntax.AtLine(int(m.curLine))
	}
	off := le32(buf, p+1)
	p += 5
	if p >= len(buf) || buf[p] != '=' {
		return skipToStatementEnd(buf, pos), basicerr.ErrBadSyntax.AtLine(int(m.curLine))
	}
	p++
	toIdx := indexOfTok(buf, p, keyword.TO.ElseTok)
	if toIdx < 0 {
		return skipToStatementEnd(buf, pos), basicerr.ErrBadSyntax.AtLine(int(m.curLine))
	}
	start, _, err := evalExpr(m, buf, p, toIdx)
	if err != nil {
		return toIdx, err
	}
	end := skipToStatementEnd(buf, toIdx+1)
	limit, _, err := evalExpr(m, buf, toIdx+1, end)
	if err != nil {
		return end, err
	}
	m.vars[off] = start
	m.forStack = append(m.forStack, forFrame{
		varOff: off, limit: limit.Num, step: 1,
		bodyLine: uint32Pos{line: m.curLine, pos: end},
	})
	return end, nil
}

func stmtNext(m *Machine, buf []byte, pos int) (int, error) {
	if len(m.forStack) == 0 {
		return pos + 1, nil
	}
	f := m.forStack[len(m.forStack)-1]
	cur := m.vars[f.varOff]
	cur.Num += f.step
	m.vars[f.varOff] = cur
	if (f.step > 0 && cur.Num > f.limit) || (f.step < 0 && cur.Num < f.limit) {
		m.forStack = m.forStack[:len(m.forStack)-1]
		return pos + 1, nil
	}
	// Resume just past the FOR statement, not at the start of its line:
	// re-running FOR would reset the loop variable.
	resume := f.bodyLine.pos
	body := m.lines[f.bodyLine.line]
	for resume < len(body) && body[resume] == ':' {
		resume++
	}
	return len(buf), m.RunFrom(f.bodyLine.line, resume)
}

func indexOfTok(buf []byte, from int, tok byte) int {
	for i := from; i < len(buf); i++ {
		if buf[i] == tok {
			return i
		}
	}
	return -1
}

func stmtGoto(m *Machine, buf []byte, pos int) (int, error) {
	p := pos + 1
	if p >= len(buf) || (buf[p] != exec.OpLineNum && buf[p] != exec.OpXLineNum) {
		return skipToStatementEnd(buf, pos), basicerr.ErrBadSyntax.AtLine(int(m.curLine))
	}
	target := le32(buf, p+1)
	return len(buf), m.RunFrom(target, 0)
}

func stmtGosub(m *Machine, buf []byte, pos int) (int, error) {
	p := pos + 1
	if p >= len(buf) || (buf[p] != exec.OpLineNum && buf[p] != exec.OpXLineNum) {
		return skipToStatementEnd(buf, pos), basicerr.ErrBadSyntax.AtLine(int(m.curLine))
	}
	target := le32(buf, p+1)
	m.gosubStack = append(m.gosubStack, frame{line: m.curLine, pos: p + 5})
	return len(buf), m.RunFrom(target, 0)
}

// stmtOn implements "ON ERROR [OFF|LOCAL] ..." - the computed "ON <expr>
// GOTO/GOSUB ..." form is not in scope (see DESIGN.md). Registering a
// handler never itself runs it; the handler body is re-entered later, from
// RunFrom, when a trappable error is raised elsewhere in the program.
func stmtOn(m *Machine, buf []byte, pos int) (int, error) {
	p := pos + 1
	if p >= len(buf) || buf[p] != namedPlain("ERROR").FirstTok {
		return skipToStatementEnd(buf, pos), basicerr.ErrBadSyntax.AtLine(int(m.curLine))
	}
	p++
	switch {
	case p < len(buf) && buf[p] == namedPlain("OFF").FirstTok:
		if m.Recovery != nil {
			m.Recovery = m.Recovery.Prev
		}
	case p < len(buf) && buf[p] == namedPlain("LOCAL").FirstTok:
		m.Recovery = &basicerr.RecoveryFrame{
			HandlerLine: int(m.curLine),
			Pos:         p + 1,
			StackDepth:  len(m.gosubStack),
			Local:       true,
			Prev:        m.Recovery,
		}
	default:
		// A bare ON ERROR replaces any outer handler and resets stacks to
		// this depth when it fires, per the "resetting stacks to a known
		// state" propagation rule.
		m.Recovery = &basicerr.RecoveryFrame{
			HandlerLine: int(m.curLine),
			Pos:         p,
			StackDepth:  len(m.gosubStack),
		}
	}
	return skipToStatementEnd(buf, pos), nil
}

// trap runs the registered ON ERROR handler for a trappable error, binding
// ERR/REPORT$ the way the teacher's CPU handlers set a status register
// before the next dispatch cycle observes it. Returns false if no handler
// is registered or the error is fatal, so the caller should propagate err
// as-is.
func (m *Machine) trap(be *basicerr.Error) (bool, error) {
	if be.Sev == basicerr.Fatal || m.Recovery == nil {
		return false, nil
	}
	rf := m.Recovery
	if !rf.Local && rf.StackDepth <= len(m.gosubStack) {
		m.gosubStack = m.gosubStack[:rf.StackDepth]
	}
	if off, _ := m.Syms.Bind("ERR"); true {
		m.vars[off] = num(float64(be.Code))
	}
	if off, _ := m.Syms.Bind("REPORT$"); true {
		m.vars[off] = str(be.Msg)
	}
	return true, m.RunFrom(uint32(rf.HandlerLine), rf.Pos)
}

// stmtCase evaluates the CASE selector, remembers it for the WHEN arms to
// compare against, and jumps to the first arm (CASE's own statement body,
// the OF keyword onward, never runs here - the arms live on later lines).
func stmtCase(m *Machine, buf []byte, pos int) (int, error) {
	ofIdx := indexOfTok(buf, pos+5, caseOfTok())
	end := ofIdx
	if end < 0 {
		end = skipToStatementEnd(buf, pos+5)
	}
	v, _, err := evalExpr(m, buf, pos+5, end)
	if err != nil {
		return end, err
	}
	m.caseValue = v
	target := le32(buf, pos+1)
	if target == 0 {
		return len(buf), nil
	}
	return len(buf), m.skipTo(target)
}

func caseOfTok() byte { return namedPlain("OF").ElseTok }

// stmtWhenSkip evaluates the WHEN arm's value list (comma-separated
// expressions kept simple here as a single expression) against the
// Machine's remembered case value: a match falls through into the arm's
// body, a miss jumps to the next arm via the resolved target.
func stmtWhenSkip(m *Machine, buf []byte, pos int) (int, error) {
	end := skipToStatementEnd(buf, pos+5)
	v, _, err := evalExpr(m, buf, pos+5, end)
	if err != nil {
		return end, err
	}
	if v.String() == m.caseValue.String() {
		return end, nil
	}
	target := le32(buf, pos+1)
	if target == 0 {
		return len(buf), nil
	}
	return len(buf), m.skipTo(target)
}

func stmtDef(m *Machine, buf []byte, pos int) (int, error) {
	return stmtSkipRest(m, buf, pos)
}

func stmtClear(m *Machine, buf []byte, pos int) (int, error) {
	m.vars = make(map[uint32]Value)
	m.static = [27]Value{}
	return pos + 1, nil
}

func le32(buf []byte, at int) uint32 {
	return uint32(buf[at]) | uint32(buf[at+1])<<8 | uint32(buf[at+2])<<16 | uint32(buf[at+3])<<24
}

func le64(buf []byte, at int) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(buf[at+i]) << (8 * i)
	}
	return v
}

// evalExpr is a minimal, precedence-free left-to-right evaluator over
// literals, variable references and the four arithmetic operators plus
// comparisons - enough to drive IF/WHILE/FOR/CASE conditions and PRINT
// arguments. A full operator-precedence expression grammar is out of
// scope for the dispatcher exercised here (see DESIGN.md).
func evalExpr(m *Machine, buf []byte, pos, end int) (Value, int, error) {
	if pos >= end {
		return num(0), pos, nil
	}
	left, p, err := evalOperand(m, buf, pos, end)
	if err != nil {
		return Value{}, p, err
	}
	for p < end {
		op := buf[p]
		if !strings.ContainsRune("+-*/<>=", rune(op)) {
			break
		}
		p++
		right, np, err := evalOperand(m, buf, p, end)
		if err != nil {
			return Value{}, np, err
		}
		left = applyOp(left, op, right)
		p = np
	}
	return left, p, nil
}

func evalOperand(m *Machine, buf []byte, pos, end int) (Value, int, error) {
	if pos >= end {
		return num(0), pos, nil
	}
	c := buf[pos]
	switch c {
	case exec.OpVar:
		off := le32(buf, pos+1)
		return m.vars[off], pos + 5, nil

	case exec.OpStaticVar:
		return m.static[buf[pos+1]], pos + 2, nil

	case exec.OpIntZero:
		return num(0), pos + 1, nil

	case exec.OpIntOne:
		return num(1), pos + 1, nil

	case exec.OpSmallInt:
		return num(float64(buf[pos+1]) + 1), pos + 2, nil

	case exec.OpIntCon:
		return num(float64(le32(buf, pos+1))), pos + 5, nil

	case exec.OpInt64Con:
		return num(float64(le64(buf, pos+1))), pos + 9, nil

	case exec.OpFloatZero:
		return num(0), pos + 1, nil

	case exec.OpFloatOne:
		return num(1), pos + 1, nil

	case exec.OpFloatCon:
		return num(math.Float64frombits(le64(buf, pos+1))), pos + 9, nil

	case exec.OpStringCon, exec.OpQStringCon:
		n := int(buf[pos+1]) | int(buf[pos+2])<<8
		j := pos + 3
		return str(string(buf[j : j+n])), j + n, nil

	default:
		return num(0), pos + 1, nil
	}
}

func applyOp(a Value, op byte, b Value) Value {
	switch op {
	case '+':
		if a.IsStr || b.IsStr {
			return str(a.String() + b.String())
		}
		return num(a.Num + b.Num)
	case '-':
		return num(a.Num - b.Num)
	case '*':
		return num(a.Num * b.Num)
	case '/':
		if b.Num == 0 {
			return num(0)
		}
		return num(a.Num / b.Num)
	case '=':
		if a.String() == b.String() {
			return num(1)
		}
		return num(0)
	case '<':
		if a.Num < b.Num {
			return num(1)
		}
		return num(0)
	case '>':
		if a.Num > b.Num {
			return num(1)
		}
		return num(0)
	}
	return num(0)
}
