/*
   Resolver / de-resolver: binds and unbinds the cross-references left
   unresolved by the executable translator.

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

// Package resolve walks a program's exec-form lines and binds every
// unresolved cross-reference (variable, FN/PROC call, line-number
// reference, structured-block branch) to a concrete target, rewriting the
// 4-byte operand in place and bumping the opcode by one - the same
// technique as the teacher's emu/memory.PutWordMask: rewrite bits of a
// fixed-width slot without touching the bytes around it. DeResolve reverses
// the process, used before any program edit invalidates line numbers or
// symbol bindings.
package resolve

import (
	"encoding/binary"

	"github.com/basic370/bbcore/basic/basicerr"
	"github.com/basic370/bbcore/basic/exec"
	"github.com/basic370/bbcore/basic/keyword"
)

// SymbolTable is the narrow collaborator resolve needs; workspace.MemSymbolTable
// satisfies it.
type SymbolTable interface {
	Bind(name string) (offset uint32, created bool)
	Lookup(name string) (offset uint32, ok bool)
}

// compiledLine pairs a stored line's number with its exec-form bytes and
// the name table produced alongside it by exec.Translate.
type compiledLine struct {
	number uint32
	bytes  []byte
	names  *exec.NameTable
}

// Program is the resolver's view of a workspace: every line's exec-form
// bytes plus the name table exec.Translate built for it.
type Program struct {
	lines []compiledLine
	index map[uint32]int
}

// NewProgram packages a workspace.Store's lines with their per-line name
// tables for resolving. Callers run exec.Translate on each stored line
// themselves (basic/workspace only stores bytes; it does not know about
// exec.NameTable) and hand the pairs in here.
func NewProgram(lineNumbers []uint32, execBytes [][]byte, names []*exec.NameTable) *Program {
	p := &Program{index: make(map[uint32]int, len(lineNumbers))}
	for i, n := range lineNumbers {
		p.index[n] = len(p.lines)
		p.lines = append(p.lines, compiledLine{number: n, bytes: execBytes[i], names: names[i]})
	}
	return p
}

// Bytes returns line n's current exec-form bytes (resolved in place), or
// nil if n is not in the program.
func (p *Program) Bytes(n uint32) []byte {
	if i, ok := p.index[n]; ok {
		return p.lines[i].bytes
	}
	return nil
}

func putOperand(buf []byte, at int, v uint32) {
	binary.LittleEndian.PutUint32(buf[at+1:at+5], v)
}

func getOperand(buf []byte, at int) uint32 {
	return binary.LittleEndian.Uint32(buf[at+1 : at+5])
}

// Resolve binds every unresolved opcode across the whole program: variable
// and FN/PROC references against syms, and structured-block branches
// against each other by scanning forward through subsequent lines.
func Resolve(p *Program, syms SymbolTable) error {
	defs := collectDefinitions(p)

	for li := range p.lines {
		buf := p.lines[li].bytes
		names := p.lines[li].names
		inlineElseAt := findInlineElse(buf)

		i := 0
		for i < len(buf) {
			op := buf[i]
			switch op {
			case exec.OpXVar:
				idx := int(buf[i+1]) | int(buf[i+2])<<8
				off, _ := syms.Bind(names.Name(idx))
				buf[i] = exec.OpVar
				putOperand(buf, i, off)
				i += 5

			case exec.OpXFnProcCall:
				idx := int(buf[i+1]) | int(buf[i+2])<<8
				target, ok := defs[names.Name(idx)]
				buf[i] = exec.OpFnProcCall
				if ok {
					putOperand(buf, i, target)
				}
				i += 5

			case exec.OpXLineNum:
				n := getOperand(buf, i)
				if _, ok := p.index[n]; !ok {
					return basicerr.ErrBadLineNumber.AtLine(int(p.lines[li].number))
				}
				buf[i] = exec.OpLineNum
				i += 5

			case exec.OpXLhElse:
				buf[i] = exec.OpLhElse
				// Target is the byte offset, within this same line, of the
				// statement following the ELSE branch: the line's own
				// terminator position, since a same-line ELSE always runs
				// to end of line.
				putOperand(buf, i, uint32(len(buf)-1))
				i += 5

			case exec.OpXIf:
				buf[i] = exec.OpIf
				if inlineElseAt >= 0 {
					// Jump straight past the OpLhElse opcode into the
					// else-branch body, so the false path never re-enters
					// OpLhElse's own "skip to end of line" behavior.
					putOperand(buf, i, uint32(inlineElseAt+5))
				} else {
					target := matchForward(p, li, "IF", "ELSE", "ENDIF")
					putOperand(buf, i, target)
				}
				i += 5

			case exec.OpXElse:
				buf[i] = exec.OpElse
				target := matchForward(p, li, "ELSE-OPEN", "", "ENDIF")
				putOperand(buf, i, target)
				i += 5

			case exec.OpXWhile:
				buf[i] = exec.OpWhile
				target := matchForward(p, li, "WHILE", "", "ENDWHILE")
				putOperand(buf, i, target)
				i += 5

			case exec.OpXCase:
				buf[i] = exec.OpCase
				target := nextArm(p, li, i)
				putOperand(buf, i, target)
				i += 5

			case exec.OpXWhen:
				buf[i] = exec.OpWhen
				target := nextArm(p, li, i)
				putOperand(buf, i, target)
				i += 5

			case exec.OpXOtherwise:
				buf[i] = exec.OpOtherwise
				target := matchForward(p, li, "CASE", "", "ENDCASE")
				putOperand(buf, i, target)
				i += 5

			default:
				i += exec.SkipWidth(buf, i)
			}
		}
	}
	return nil
}

// DeResolve reverses Resolve across the whole program: every resolved
// opcode is turned back into its unresolved form with a zeroed operand
// (a line-number reference keeps its literal line number), so a
// subsequent program edit cannot leave a stale binding in place. Variable
// and FN/PROC name-table indices are preserved (they are never affected by
// renumbering), only line-number-derived bindings are cleared.
func DeResolve(p *Program) {
	for li := range p.lines {
		buf := p.lines[li].bytes
		i := 0
		for i < len(buf) {
			op := buf[i]
			if exec.IsResolved(op) {
				un := exec.Unresolved(op)
				buf[i] = un
				switch un {
				case exec.OpXVar, exec.OpXFnProcCall:
					// name-table index in the low 2 bytes is retained.
					buf[i+3], buf[i+4] = 0, 0
				case exec.OpXLineNum:
					// the operand is the literal line number from the
					// source, which Resolve never rewrote; keep it.
				default:
					putOperand(buf, i, 0)
				}
				i += 5
				continue
			}
			i += exec.SkipWidth(buf, i)
		}
	}
}

// collectDefinitions scans every line for "DEF FN name" / "DEF PROC name"
// and records the defining line number, keyed by name.
func collectDefinitions(p *Program) map[string]uint32 {
	defs := make(map[string]uint32)
	def, _, _ := keyword.Lookup("DEF", false)
	for li := range p.lines {
		buf := p.lines[li].bytes
		names := p.lines[li].names
		prev2, prev := -1, -1 // offsets of the two opcodes before i
		for i := 0; i < len(buf); {
			if (buf[i] == exec.OpXFnProcCall || buf[i] == exec.OpFnProcCall) && prev2 >= 0 && buf[prev2] == def.FirstTok {
				idx := int(buf[i+1]) | int(buf[i+2])<<8
				name := names.Name(idx)
				if _, seen := defs[name]; !seen {
					defs[name] = p.lines[li].number
				}
			}
			prev2, prev = prev, i
			i += exec.SkipWidth(buf, i)
		}
	}
	return defs
}

// findInlineElse reports the byte offset of an OpXLhElse/OpLhElse in buf,
// or -1 if this line carries no same-line ELSE.
func findInlineElse(buf []byte) int {
	for i, b := range buf {
		if b == exec.OpXLhElse || b == exec.OpLhElse {
			return i
		}
	}
	return -1
}

// opcodeKind classifies which structural keyword, if any, opens at exec
// opcode op (resolved or not), for matchForward's depth bookkeeping.
func opcodeKind(op byte) string {
	switch exec.Unresolved(op) {
	case exec.OpXIf:
		return "IF"
	case exec.OpXElse:
		return "ELSE-OPEN"
	case exec.OpXWhile:
		return "WHILE"
	}
	return ""
}

// matchForward scans subsequent lines (and, for the remainder of the
// current line, later opcodes) for the line number where a structured
// block opened at (li, opener) closes, honoring nesting depth. altCloser,
// when non-empty, is an acceptable earlier match at depth 1 (IF's ELSE).
func matchForward(p *Program, li int, opener, altCloser, closer string) uint32 {
	depth := 1
	for j := li + 1; j < len(p.lines); j++ {
		buf := p.lines[j].bytes
		for i := 0; i < len(buf); {
			switch opcodeKind(buf[i]) {
			case opener:
				depth++
			case closerKind(closer):
				depth--
				if depth == 0 {
					return p.lines[j].number
				}
			}
			if altCloser != "" && depth == 1 && closerKind(altCloser) == opcodeKind(buf[i]) {
				return p.lines[j].number
			}
			i += exec.SkipWidth(buf, i)
		}
	}
	return 0
}

// closerKind maps a closing keyword name to the opcodeKind string that
// represents its matching opener, so matchForward can compare like with
// like (ENDIF closes an "IF", ENDWHILE closes a "WHILE").
func closerKind(closer string) string {
	switch closer {
	case "ENDIF":
		return "IF"
	case "ENDWHILE":
		return "WHILE"
	case "ENDCASE":
		return "CASE"
	}
	return closer
}

// nextArm finds the line number of the next CASE/WHEN/OTHERWISE arm (or
// ENDCASE) after opcode at (li, at), at the same nesting depth, for
// OpXCase and OpXWhen resolution.
func nextArm(p *Program, li, at int) uint32 {
	depth := 0
	endcase, _, _ := keyword.Lookup("ENDCASE", false)
	for j := li; j < len(p.lines); j++ {
		buf := p.lines[j].bytes
		start := 0
		if j == li {
			start = at + 5
		}
		for i := start; i < len(buf); {
			switch exec.Unresolved(buf[i]) {
			case exec.OpXCase:
				depth++
			case exec.OpXWhen, exec.OpXOtherwise:
				if depth == 0 {
					return p.lines[j].number
				}
			case endcase.FirstTok:
				if depth == 0 {
					return p.lines[j].number
				}
				depth--
			}
			i += exec.SkipWidth(buf, i)
		}
	}
	return 0
}
