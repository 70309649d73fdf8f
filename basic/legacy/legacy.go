/*
   Legacy importer: reads Acorn tokenised-binary BASIC programs.

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

// Package legacy imports Acorn tokenised-binary BASIC programs: lines
// stored as 0x0D, line-number-high, line-number-low, length, bytes...,
// with tokens 0x7F-0xFF (plus the 0xC6/0xC7/0xC8 extension prefixes)
// standing for keywords in a different numbering than basic/token's. The
// character-translation-table style is grounded on the teacher's
// util/card/conv.go (EbcdicToHol, HolToAscii, ...): a flat lookup table
// driving a single decode loop, not a parser.
package legacy

import (
	"fmt"
	"strings"

	"github.com/basic370/bbcore/basic/basicerr"
)

// acornToken maps a legacy single-byte token (0x7F-0xFF) to its spelling.
// Unlisted bytes in range decode as basicerr.ErrLegacyToken.
var acornToken = map[byte]string{
	0x7F: "OTHERWISE", 0x80: "AND", 0x81: "DIV", 0x82: "EOR", 0x83: "MOD",
	0x84: "OR", 0x85: "ERROR", 0x87: "OFF", 0x88: "STEP",
	0x89: "SPC", 0x8A: "TAB(", 0x8B: "ELSE", 0x8C: "THEN", 0x8E: "OPENIN",
	0x8F: "PTR", 0x90: "PAGE", 0x91: "TIME", 0x92: "LOMEM", 0x93: "HIMEM",
	0x94: "ABS", 0x95: "ACS", 0x96: "ADVAL", 0x97: "ASC", 0x98: "ASN",
	0x99: "ATN", 0x9A: "BGET", 0x9B: "COS", 0x9C: "COUNT", 0x9D: "DEG",
	0x9E: "ERL", 0x9F: "ERR", 0xA0: "EVAL", 0xA1: "EXP", 0xA2: "EXT",
	0xA3: "FALSE", 0xA4: "FN", 0xA5: "GET", 0xA6: "INKEY", 0xA7: "INSTR(",
	0xA8: "INT", 0xA9: "LEN", 0xAA: "LN", 0xAB: "LOG", 0xAC: "NOT",
	0xAD: "OPENUP", 0xAE: "OPENOUT", 0xAF: "PI", 0xB0: "POINT(", 0xB1: "POS",
	0xB2: "RAD", 0xB3: "RND", 0xB4: "SGN", 0xB5: "SIN", 0xB6: "SQR",
	0xB7: "TAN", 0xB8: "TO", 0xB9: "TRUE", 0xBA: "USR", 0xBB: "VAL",
	0xBC: "VPOS", 0xBD: "CHR$", 0xBE: "GET$", 0xBF: "INKEY$", 0xC0: "LEFT$(",
	0xC1: "MID$(", 0xC2: "RIGHT$(", 0xC3: "STR$", 0xC4: "STRING$(", 0xC5: "EOF",
	// 0xC6, 0xC7, 0xC8 are the FUNCTION/PRINTFN/COMMAND extension prefixes,
	// not keywords in their own right - see extension tables below.
	0xC9: "AUTO", 0xCA: "DELETE", 0xCB: "LOAD", 0xCC: "LIST", 0xCD: "NEW",
	0xCE: "OLD", 0xCF: "RENUMBER", 0xD0: "SAVE", 0xD1: "PTR", 0xD2: "PAGE",
	0xD3: "TIME", 0xD4: "LOMEM", 0xD5: "HIMEM", 0xD6: "SOUND", 0xD7: "BPUT",
	0xD8: "CALL", 0xD9: "CHAIN", 0xDA: "CLEAR", 0xDB: "CLOSE", 0xDC: "CLG",
	0xDD: "CLS", 0xDE: "DATA", 0xDF: "DEF", 0xE0: "DIM", 0xE1: "DRAW",
	0xE2: "END", 0xE3: "ENDPROC", 0xE4: "ENVELOPE", 0xE5: "FOR", 0xE6: "GOSUB",
	0xE7: "GOTO", 0xE8: "GCOL", 0xE9: "IF", 0xEA: "INPUT", 0xEB: "LET",
	0xEC: "LOCAL", 0xED: "MODE", 0xEE: "MOVE", 0xEF: "NEXT", 0xF0: "ON",
	0xF1: "VDU", 0xF2: "PLOT", 0xF3: "PRINT", 0xF4: "PROC", 0xF5: "READ",
	0xF6: "REM", 0xF7: "REPEAT", 0xF8: "REPORT", 0xF9: "RESTORE", 0xFA: "RETURN",
	0xFB: "RUN", 0xFC: "STOP", 0xFF: "UNTIL",
	// 0x86, 0xFD, 0xFE are reserved (see the rejected map below).
}

var acornFuncPrefix = map[byte]string{0x8E: "SUM", 0x8F: "BEAT"}
var acornPrintFnPrefix = map[byte]string{0x8E: "WIDTH"}
var acornCmdPrefix = map[byte]string{0x8E: "OSCLI", 0x8F: "BASIC"}

// Rejected legacy tokens, per spec.md's open question: recognized and
// refused rather than silently dropped or mis-decoded.
var rejected = map[byte]string{
	0x86: "MANDEL",
	0xFD: "PRIVATE",
	0xFE: "ANSWER",
}

const (
	lineEscape = 0x0D
	lineEnd    = 0xFF
)

// Import decodes a complete Acorn tokenised-binary program image into
// listable BASIC text, one line per entry, in file order.
func Import(data []byte) ([]string, error) {
	var lines []string
	pos := 0
	for pos < len(data) {
		if data[pos] != lineEscape {
			return nil, basicerr.ErrBadSyntax
		}
		if pos+1 < len(data) && data[pos+1] == lineEnd {
			break
		}
		if pos+4 > len(data) {
			return nil, basicerr.ErrBadSyntax
		}
		lineNo := int(data[pos+1])<<8 | int(data[pos+2])
		length := int(data[pos+3])
		if length < 4 || pos+length > len(data) {
			return nil, basicerr.ErrBadSyntax
		}
		body := data[pos+4 : pos+length]
		text, err := decodeLine(body)
		if err != nil {
			return nil, err
		}
		lines = append(lines, fmt.Sprintf("%d %s", lineNo, text))
		pos += length
	}
	return lines, nil
}

// decodeLine expands one line's legacy token bytes into text, repairing
// "crunched" whitespace: the Acorn tokenizer drops the space around a
// keyword whose neighbouring character would otherwise be misread as part
// of an identifier, so a naive decode can glue two words together. A space
// is written before a keyword that follows an identifier character, and
// after a keyword that an identifier character follows, except for the
// keywords in crunchExempt (FN, PROC, TO, TIME, ...).
func decodeLine(body []byte) (string, error) {
	var b strings.Builder
	lastKeyword := "" // keyword written for the previous token, "" otherwise
	for i := 0; i < len(body); i++ {
		c := body[i]
		prevKeyword := lastKeyword
		lastKeyword = ""
		switch {
		case c == token0xC6():
			i++
			if i >= len(body) {
				return "", basicerr.ErrLegacyToken
			}
			writeWithCrunchGuard(&b, acornFuncPrefix[body[i]])
			lastKeyword = acornFuncPrefix[body[i]]

		case c == token0xC7():
			i++
			if i >= len(body) {
				return "", basicerr.ErrLegacyToken
			}
			writeWithCrunchGuard(&b, acornPrintFnPrefix[body[i]])
			lastKeyword = acornPrintFnPrefix[body[i]]

		case c == token0xC8():
			i++
			if i >= len(body) {
				return "", basicerr.ErrLegacyToken
			}
			writeWithCrunchGuard(&b, acornCmdPrefix[body[i]])
			lastKeyword = acornCmdPrefix[body[i]]

		case c == 0x8D: // inline line-number reference, 3-byte XOR-masked
			if i+3 >= len(body) {
				return "", basicerr.ErrBadLineNumber
			}
			n := unmaskLineNumber(body[i+1], body[i+2], body[i+3])
			fmt.Fprintf(&b, "%d", n)
			i += 3

		case c >= 0x7F:
			if _, bad := rejected[c]; bad {
				return "", basicerr.ErrLegacyToken
			}
			name, ok := acornToken[c]
			if !ok {
				return "", basicerr.ErrLegacyToken
			}
			writeWithCrunchGuard(&b, name)
			lastKeyword = name

		default:
			if prevKeyword != "" && isIdentByte(c) && !crunchExempt[prevKeyword] {
				b.WriteByte(' ')
			}
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func token0xC6() byte { return 0xC6 }
func token0xC7() byte { return 0xC7 }
func token0xC8() byte { return 0xC8 }

// crunchExempt lists keywords that decodeLine never separates from an
// adjacent identifier character: no space is written after one of them,
// and writeWithCrunchGuard writes no space before one of them.
var crunchExempt = map[string]bool{
	"FN": true, "PROC": true, "TO": true, "TAB(": true, "INSTR": true,
	"POINT": true, "LEFT$(": true, "MID$(": true, "RIGHT$(": true,
	"STRING$(": true, "TIME": true, "TIME$": true,
}

func writeWithCrunchGuard(b *strings.Builder, name string) {
	if name == "" {
		return
	}
	s := b.String()
	if len(s) > 0 {
		last := s[len(s)-1]
		if isIdentByte(last) && !crunchExempt[name] {
			b.WriteByte(' ')
		}
	}
	b.WriteString(name)
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// unmaskLineNumber reverses the 3-byte XOR mask Acorn uses to keep an
// inline line-number reference's bytes out of the 0x00-0x0D control range
// that would otherwise be ambiguous with a line-escape byte.
func unmaskLineNumber(b0, b1, b2 byte) int {
	const mask = 0x54
	hi := (b0 ^ mask) & 0x3F
	lo1 := (b1 ^ mask) & 0x3F
	lo2 := (b2 ^ mask) & 0x3F
	return int(hi)<<12 | int(lo1)<<6 | int(lo2)
}
