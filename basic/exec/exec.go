/*
   Executable translator: compiles the source-form byte stream into a
   second, fixed-width-operand exec-form stream the dispatcher actually
   runs.

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

// Package exec builds the exec-form byte stream from a line's source-form
// stream. Operators, punctuation and plain keyword statements pass through
// unchanged; numeric, string, DATA and star-command literals are compiled
// into literal opcodes; and the handful that name a
// cross-reference - a variable, a line number, an FN/PROC call or a
// structured-block branch - are compiled into a 4-byte-operand
// "unresolved" opcode that basic/resolve later binds in place. The opcode
// table mirrors the teacher's lenMap/opMap pairing in emu/assemble and the
// decode switch in emu/disassemble: one dense table walk, keyed by opcode
// class rather than instruction format.
package exec

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/basic370/bbcore/basic/keyword"
	"github.com/basic370/bbcore/basic/token"
)

// Opcode is a byte in the exec-form stream.
type Opcode = byte

// Exec-form opcodes. Every resolvable opcode is emitted first in its
// unresolved (X-prefixed) form with a zeroed 4-byte operand; Resolve binds
// the operand in place and bumps the opcode by one, per the
// resolved = unresolved + 1 convention. DeResolve reverses both steps.
const (
	OpStaticVar    Opcode = 0x01 // 1-byte operand: static variable index 0-26
	OpStaticIndVar Opcode = 0x02 // 1-byte operand: static variable index, used as an array index

	OpXVar Opcode = 0x10 // unresolved: 4-byte operand, low 2 bytes = name-table index
	OpVar  Opcode = 0x11 // resolved: 4-byte operand = symbol-table offset

	OpXLineNum Opcode = 0x12 // unresolved: 4-byte operand = literal line number
	OpLineNum  Opcode = 0x13 // resolved: 4-byte operand = target line number, existence verified

	OpXFnProcCall Opcode = 0x14 // unresolved: 4-byte operand, low 2 bytes = name-table index
	OpFnProcCall  Opcode = 0x15 // resolved: 4-byte operand = defining line number

	OpXIf Opcode = 0x16 // unresolved IF (block or same-line form): 4-byte operand
	OpIf  Opcode = 0x17 // resolved: operand = byte offset of the same-line ELSE body when the line has one, else line number of matching ENDIF/ELSE

	OpXElse Opcode = 0x18 // unresolved block ELSE
	OpElse  Opcode = 0x19 // resolved: operand = line number of matching ENDIF

	OpXLhElse Opcode = 0x1A // unresolved same-line IF ... THEN ... ELSE ...
	OpLhElse  Opcode = 0x1B // resolved: operand = byte offset of the ELSE branch within this line

	OpXWhen Opcode = 0x1C // unresolved CASE arm
	OpWhen  Opcode = 0x1D // resolved: operand = line number of the next arm/ENDCASE

	OpXOtherwise Opcode = 0x1E // unresolved CASE default arm
	OpOtherwise  Opcode = 0x1F // resolved: operand = line number of ENDCASE

	OpXWhile Opcode = 0x20 // unresolved WHILE
	OpWhile  Opcode = 0x21 // resolved: operand = line number of matching ENDWHILE

	OpXCase Opcode = 0x22 // unresolved CASE OF
	OpCase  Opcode = 0x23 // resolved: operand = line number of first WHEN/OTHERWISE arm

	// Literal opcodes, never resolved/unresolved: a numeric, string, DATA
	// or star-command payload compiled inline so the dispatcher never
	// re-parses source text. Placed below token.KeywordBase and above the
	// exec-form control bytes 0x00-0x02 (Term, OpStaticVar, OpStaticIndVar), so
	// no value here collides with a keyword token or a literal operator
	// byte (the operator set '+-*/<>=():,.') carried verbatim elsewhere
	// in the exec-form stream.
	OpIntZero    Opcode = 0x04 // no operand: integer 0
	OpIntOne     Opcode = 0x05 // no operand: integer 1
	OpSmallInt   Opcode = 0x06 // 1-byte operand: integer 2..256, stored as value-1
	OpIntCon     Opcode = 0x07 // 4-byte operand: little-endian 32-bit integer
	OpInt64Con   Opcode = 0x08 // 8-byte operand: little-endian 64-bit integer
	OpFloatZero  Opcode = 0x09 // no operand: floating-point 0
	OpFloatOne   Opcode = 0x0A // no operand: floating-point 1
	OpFloatCon   Opcode = 0x0B // 8-byte operand: native double bit pattern, little-endian
	OpStringCon  Opcode = 0x0C // 2-byte length + that many bytes: string literal, no "" escapes
	OpQStringCon Opcode = 0x0D // 2-byte length + that many bytes: string literal, "" collapsed to "
	OpData       Opcode = 0x0E // 2-byte length + that many bytes: DATA payload, verbatim
	OpStar       Opcode = 0x0F // 2-byte length + that many bytes: star-command text, verbatim
)

// OpWidth returns the total byte width (opcode byte plus operand) of a
// fixed-width opcode, or 0 if op does not have a single statically-known
// width (a length-prefixed literal - see lenPrefixedWidth - or an ordinary
// punctuation/operator/keyword byte that is not an opcode at all).
func OpWidth(op Opcode) int {
	if IsResolved(op) || (op >= OpXVar && op <= OpCase) {
		return 5
	}
	switch op {
	case OpStaticVar, OpStaticIndVar, OpSmallInt:
		return 2
	case OpIntZero, OpIntOne, OpFloatZero, OpFloatOne:
		return 1
	case OpIntCon:
		return 5
	case OpInt64Con, OpFloatCon:
		return 9
	}
	return 0
}

// lenPrefixedWidth reports the total width of a length-prefixed literal
// opcode (STRINGCON, QSTRINGCON, DATA, STAR) at buf[i]: opcode + 2-byte
// length + that many payload bytes.
func lenPrefixedWidth(buf []byte, i int) (int, bool) {
	switch buf[i] {
	case OpStringCon, OpQStringCon, OpData, OpStar:
		n := int(buf[i+1]) | int(buf[i+2])<<8
		return 3 + n, true
	}
	return 0, false
}

// SkipWidth is the opcode skip table every exec-form walker (resolve,
// de-resolve, the dispatcher's branch scans) consults to advance past one
// opcode without inspecting its meaning: static data, not a parser, per the
// translator's own "256-entry table" design.
func SkipWidth(buf []byte, i int) int {
	if w, ok := lenPrefixedWidth(buf, i); ok {
		return w
	}
	if w := OpWidth(buf[i]); w > 0 {
		return w
	}
	return 1
}

// IsResolved reports whether op is the resolved member of an
// unresolved/resolved pair.
func IsResolved(op Opcode) bool {
	return op >= OpVar && op <= OpCase && op%2 == 1
}

// Unresolved and Resolved map between the two members of a pair.
func Unresolved(op Opcode) Opcode {
	if IsResolved(op) {
		return op - 1
	}
	return op
}

func Resolved(op Opcode) Opcode {
	if !IsResolved(op) && op >= OpXVar {
		return op + 1
	}
	return op
}

// NameTable interns the distinct variable/FN/PROC names referenced by one
// line, so their exec-form operand can stay a fixed 2-byte index instead of
// variable-length text, matching every other resolvable opcode's 4-byte
// width.
type NameTable struct {
	names []string
	index map[string]int
}

func NewNameTable() *NameTable {
	return &NameTable{index: make(map[string]int)}
}

func (t *NameTable) Intern(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	i := len(t.names)
	t.names = append(t.names, name)
	t.index[name] = i
	return i
}

func (t *NameTable) Name(i int) string { return t.names[i] }

// Translate walks one line's already-tokenized source-form stream
// (token.Term-terminated) and produces its exec-form companion, plus the
// name table the resolver needs to turn name-table indices into bindings.
func Translate(source []byte) (execForm []byte, names *NameTable, err error) {
	names = NewNameTable()
	var out []byte

	// afterFnOrProc tracks just enough trailing context to special-case
	// the token immediately following FN or PROC.
	afterFnOrProc := false
	// inlineIf is true once IF ... THEN has been seen with more statement
	// text following THEN on the same line: the line's own ELSE (if any)
	// is then a same-line branch (XLhElse), not a structured-block ELSE.
	inlineIf := false

	i := 0
	for i < len(source) {
		b := source[i]
		switch b {
		case token.Term:
			out = append(out, token.Term)
			i++

		case token.VarMark:
			// Same rule as the tokenizer's scanVariable: identifier
			// characters, then at most one % or $ sigil.
			j := i + 1
			for j < len(source) && (source[j] == '_' || (source[j] >= 'A' && source[j] <= 'Z') ||
				(source[j] >= 'a' && source[j] <= 'z') || isDigitByte(source[j])) {
				j++
			}
			if j < len(source) && (source[j] == '%' || source[j] == '$') {
				j++
			}
			name := string(source[i+1 : j])
			idx := names.Intern(name)
			op := OpXVar
			if afterFnOrProc {
				op = OpXFnProcCall
			}
			out = append(out, op, byte(idx), byte(idx>>8), 0, 0)
			i = j
			afterFnOrProc = false

		case token.StaticMark:
			idx := source[i+1]
			op := OpStaticVar
			if i+2 < len(source) && source[i+2] == '(' {
				op = OpStaticIndVar
			}
			out = append(out, op, idx)
			i += 2

		case token.LineMark:
			n := uint32(source[i+1]) | uint32(source[i+2])<<8 | uint32(source[i+3])<<16
			out = append(out, OpXLineNum, byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
			i += 4

		case token.StarMark:
			payload := source[i+1:]
			for len(payload) > 0 && payload[len(payload)-1] == token.Term {
				payload = payload[:len(payload)-1]
			}
			n := len(payload)
			out = append(out, OpStar, byte(n), byte(n>>8))
			out = append(out, payload...)
			i += 1 + len(payload)

		case '"':
			content, hasEscape, j := scanStringLiteral(source, i)
			op := Opcode(OpStringCon)
			if hasEscape {
				op = OpQStringCon
			}
			n := len(content)
			out = append(out, op, byte(n), byte(n>>8))
			out = append(out, content...)
			i = j

		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			lit, j := scanNumberLiteral(source, i)
			out = append(out, lit...)
			i = j

		default:
			entry, isKeyword := classifyKeywordByte(source, i)
			if isKeyword {
				consumed := op2len(source, i)
				var stop bool
				out, i, inlineIf, stop = translateKeyword(out, source, i, entry, consumed, inlineIf)
				afterFnOrProc = entry == keyword.FN || entry == keyword.PROC
				if stop {
					for i < len(source) && source[i] != token.Term {
						i++
					}
				}
				continue
			}
			out = append(out, b)
			i++
		}
	}
	return out, names, nil
}

// scanStringLiteral decodes a quoted string literal starting at source[i]
// (the opening quote), collapsing any "" escape into a single embedded
// quote. It reports whether an escape was seen (QSTRINGCON vs STRINGCON)
// and the source cursor just past the closing quote.
func scanStringLiteral(source []byte, i int) (content []byte, hasEscape bool, next int) {
	j := i + 1
	for j < len(source) {
		if source[j] == '"' {
			if j+1 < len(source) && source[j+1] == '"' {
				content = append(content, '"')
				hasEscape = true
				j += 2
				continue
			}
			j++
			break
		}
		content = append(content, source[j])
		j++
	}
	return content, hasEscape, j
}

// scanNumberLiteral decodes a numeric literal starting at source[i],
// mirroring the tokenizer's own digit/./E scan, and compiles it to its
// fixed-width exec-form opcode.
func scanNumberLiteral(source []byte, i int) ([]byte, int) {
	j := i
	for j < len(source) && isDigitByte(source[j]) {
		j++
	}
	isFloat := false
	if j < len(source) && source[j] == '.' {
		isFloat = true
		j++
		for j < len(source) && isDigitByte(source[j]) {
			j++
		}
	}
	if j < len(source) && (source[j] == 'E' || source[j] == 'e') {
		isFloat = true
		j++
		if j < len(source) && (source[j] == '+' || source[j] == '-') {
			j++
		}
		for j < len(source) && isDigitByte(source[j]) {
			j++
		}
	}
	text := string(source[i:j])
	if isFloat {
		return encodeFloatLiteral(text), j
	}
	return encodeIntLiteral(text), j
}

func isDigitByte(c byte) bool { return c >= '0' && c <= '9' }

// encodeIntLiteral compiles a decimal integer literal to its narrowest exec
// opcode: 0 and 1 carry no operand at all, 2..256 fit a single byte, values
// up to 2^31-1 fit INTCON's 4 bytes, and everything else (up to 2^63-1,
// decimal only, per spec.md §4.3) needs INT64CON's 8. A value too large
// even for that falls back to float, matching the tokenizer's own leniency.
func encodeIntLiteral(text string) []byte {
	v, err := strconv.ParseUint(text, 10, 63)
	if err != nil {
		return encodeFloatLiteral(text)
	}
	switch {
	case v == 0:
		return []byte{OpIntZero}
	case v == 1:
		return []byte{OpIntOne}
	case v <= 256:
		return []byte{OpSmallInt, byte(v - 1)}
	case v <= 0x7FFFFFFF:
		return []byte{OpIntCon, byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	default:
		out := make([]byte, 9)
		out[0] = OpInt64Con
		binary.LittleEndian.PutUint64(out[1:], v)
		return out
	}
}

func encodeFloatLiteral(text string) []byte {
	f, _ := strconv.ParseFloat(text, 64)
	if f == 0 {
		return []byte{OpFloatZero}
	}
	if f == 1 {
		return []byte{OpFloatOne}
	}
	out := make([]byte, 9)
	out[0] = OpFloatCon
	binary.LittleEndian.PutUint64(out[1:], math.Float64bits(f))
	return out
}

// classifyKeywordByte reports the keyword.Entry a keyword token byte (or
// prefix+byte pair) decodes to, if any.
func classifyKeywordByte(source []byte, i int) (*keyword.Entry, bool) {
	b := source[i]
	switch b {
	case token.FuncPrefix:
		if i+1 < len(source) {
			if e, ok := keyword.Describe(token.ClassFunction, source[i+1]); ok {
				return e, true
			}
		}
		return nil, false
	case token.PrintFnPrefix:
		if i+1 < len(source) {
			if e, ok := keyword.Describe(token.ClassPrintFn, source[i+1]); ok {
				return e, true
			}
		}
		return nil, false
	case token.CmdPrefix:
		if i+1 < len(source) {
			if e, ok := keyword.Describe(token.ClassCommand, source[i+1]); ok {
				return e, true
			}
		}
		return nil, false
	default:
		if b < token.KeywordBase {
			return nil, false
		}
		if e, ok := keyword.Describe(token.ClassPlain, b); ok {
			return e, true
		}
		return nil, false
	}
}

// op2len returns how many source-form bytes the keyword token at i
// occupies (1 for plain, 2 for a prefixed class).
func op2len(source []byte, i int) int {
	switch source[i] {
	case token.FuncPrefix, token.PrintFnPrefix, token.CmdPrefix:
		return 2
	default:
		return 1
	}
}

// translateKeyword appends the exec-form for one keyword occurrence and
// returns the advanced source cursor, the updated inlineIf state, and
// whether the caller must drop every remaining byte up to this line's
// terminator (REM and DATA: the comment/payload text is never executed, so
// nothing past it belongs in the exec form). Structural keywords that open
// a resolvable branch get their unresolved opcode; everything else passes
// the same token bytes straight through, since the dispatcher can index
// directly on the keyword's own token value.
func translateKeyword(out, source []byte, i int, e *keyword.Entry, consumed int, inlineIf bool) ([]byte, int, bool, bool) {
	next := i + consumed
	switch e {
	case keyword.REM:
		// The comment text is dropped entirely rather than carried
		// through as dead exec-form bytes.
		return out, next, inlineIf, true

	case keyword.DATA:
		out = append(out, dataLiteral(source, next)...)
		return out, next, inlineIf, true

	case keyword.THEN:
		out = append(out, source[i:next]...)
		// A block IF's THEN is the last thing on the line; anything else
		// following makes it an inline (same-line) IF.
		inlineIf = next < len(source) && source[next] != token.Term
		return out, next, inlineIf, false

	case keyword.ELSE:
		if inlineIf {
			out = append(out, OpXLhElse, 0, 0, 0, 0)
		} else {
			out = append(out, OpXElse, 0, 0, 0, 0)
		}
		return out, next, false, false

	case keyword.OTHERWISE:
		out = append(out, OpXOtherwise, 0, 0, 0, 0)
		return out, next, inlineIf, false
	}

	switch e.Name {
	case "IF":
		out = append(out, OpXIf, 0, 0, 0, 0)
	case "WHILE":
		out = append(out, OpXWhile, 0, 0, 0, 0)
	case "CASE":
		out = append(out, OpXCase, 0, 0, 0, 0)
	case "WHEN":
		out = append(out, OpXWhen, 0, 0, 0, 0)
	default:
		out = append(out, source[i:next]...)
	}
	return out, next, inlineIf, false
}

// dataLiteral compiles a DATA statement's verbatim payload (everything
// after the DATA token and the spaces following it, up to this line's
// terminator) into an OpData literal: READ pulls its values directly from
// this payload rather than re-scanning source form.
func dataLiteral(source []byte, from int) []byte {
	payload := source[from:]
	for len(payload) > 0 && payload[0] == ' ' {
		payload = payload[1:]
	}
	for len(payload) > 0 && payload[len(payload)-1] == token.Term {
		payload = payload[:len(payload)-1]
	}
	n := len(payload)
	out := []byte{OpData, byte(n), byte(n >> 8)}
	return append(out, payload...)
}
