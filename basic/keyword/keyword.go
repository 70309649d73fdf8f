/*
   Keyword table: spelling, abbreviation and token assignment for every
   reserved word recognised by the tokenizer.

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

// Package keyword is the keyword table: the single source of truth for how
// reserved words are spelled, how far they may be abbreviated, and which
// token byte(s) they tokenize to. It is consulted by the tokenizer (name ->
// token, the encode direction, grounded on the teacher's emu/assemble opMap)
// and by the lister and legacy importer (token -> name, the decode
// direction, grounded on emu/disassemble's opMap).
package keyword

import (
	"sort"
	"strings"

	"github.com/basic370/bbcore/basic/token"
)

// Behavior is a bitmask of position-sensitive meanings a keyword can carry.
// Kept as data on the Entry rather than as a class hierarchy so the
// tokenizer and resolver can test a flag instead of comparing identities.
type Behavior uint8

const (
	// CopiesRest means the remainder of the line is copied verbatim into
	// the source-form stream without further tokenization (REM, DATA).
	CopiesRest Behavior = 1 << iota
	// ResetsFirst means the token that follows is again eligible for a
	// "first item on the line" token variant (THEN, ELSE, REPEAT,
	// OTHERWISE all start a fresh statement).
	ResetsFirst
	// NameFollows means an identifier follows that is not itself looked
	// up in the keyword table (the FN/PROC name space).
	NameFollows
	// LineNumberFollows means a following numeric literal should be read
	// as a line number, not an ordinary constant (GOTO, GOSUB, RESTORE,
	// THEN, ELSE all may be followed by a line number).
	LineNumberFollows
)

// Entry is one row of the keyword table.
type Entry struct {
	// Name is the canonical, upper-case spelling. Names ending in "(" are
	// FUNCTION-class names; the trailing paren is part of the match, so a
	// bare "SIN" never matches "SIN(" and vice versa.
	Name string
	// MinLen is the shortest abbreviation accepted, 1-based. Equal to
	// len(Name) when the keyword may not be abbreviated at all.
	MinLen int
	// FirstTok/FirstClass is the token assigned when this keyword is the
	// first item of a statement; Else variants apply everywhere else.
	// The two are equal for the large majority of keywords; ELSE is the
	// prototypical exception (spec.md §4.2, §8 scenario 4).
	FirstTok   byte
	FirstClass token.Class
	ElseTok    byte
	ElseClass  token.Class
	// Alone requires the character following the match to not itself be
	// an identifier character, so COUNT does not swallow the first four
	// letters of COUNTER.
	Alone bool
	// Behavior carries the position-sensitive meanings above.
	Behavior Behavior
	// CollapseBy/CollapseTo point at the combined keyword produced when
	// this entry is immediately followed by BY or TO (DRAW BY -> DRAWBY,
	// POINT TO -> POINTTO). Nil when no collapse applies.
	CollapseBy *Entry
	CollapseTo *Entry
}

// Has reports whether b is set in the entry's behavior mask.
func (e *Entry) Has(b Behavior) bool { return e.Behavior&b != 0 }

// bare strips the trailing "(" from a FUNCTION/PRINTFN/COMMAND-class name,
// for matching against an identifier that has not yet consumed its "(".
func (e *Entry) bare() string {
	return strings.TrimSuffix(e.Name, "(")
}

// sequential plain-class token allocator, starting at token.KeywordBase and
// skipping the three extension prefix bytes.
type allocator struct {
	plain, fn, pfn, cmd byte
}

func newAllocator() *allocator {
	return &allocator{plain: token.KeywordBase, fn: 1, pfn: 1, cmd: 1}
}

func (a *allocator) next(class token.Class) byte {
	switch class {
	case token.ClassFunction:
		t := a.fn
		a.fn++
		return t
	case token.ClassPrintFn:
		t := a.pfn
		a.pfn++
		return t
	case token.ClassCommand:
		t := a.cmd
		a.cmd++
		return t
	default:
		if a.plain == token.FuncPrefix {
			a.plain = token.CmdPrefix + 1
		}
		t := a.plain
		a.plain++
		return t
	}
}

// plain builds a same-token-everywhere plain-class entry.
func plain(name string, minLen int, behavior Behavior, alone bool, a *allocator) *Entry {
	t := a.next(token.ClassPlain)
	return &Entry{
		Name: name, MinLen: minLen,
		FirstTok: t, FirstClass: token.ClassPlain,
		ElseTok: t, ElseClass: token.ClassPlain,
		Alone: alone, Behavior: behavior,
	}
}

// classed builds a same-token-everywhere entry in a non-plain class.
func classed(name string, minLen int, class token.Class, a *allocator) *Entry {
	t := a.next(class)
	return &Entry{
		Name: name, MinLen: minLen,
		FirstTok: t, FirstClass: class,
		ElseTok: t, ElseClass: class,
	}
}

// Table is the full keyword table, built once at init from a literal list
// and indexed two ways: byLetter for encode (name -> entry) and byToken for
// decode (token -> entry).
var (
	entries  []*Entry
	byLetter [27][]*Entry // index 26 catches non-letter leading bytes (e.g. "*")
	byToken  [4]map[byte]*Entry

	// Named entries the tokenizer and resolver special-case directly,
	// rather than comparing raw token bytes (spec.md Design Notes: keep
	// positional meaning as data, not a class hierarchy).
	REM, DATA, THEN, ELSE, REPEAT, OTHERWISE, FN, PROC, GOTO, GOSUB,
	RESTORE, BY, TO, DRAW, MOVE, POINT *Entry
)

func init() {
	a := newAllocator()

	mk := func(name string, minLen int) *Entry { return plain(name, minLen, 0, false, a) }
	mkAlone := func(name string, minLen int) *Entry { return plain(name, minLen, 0, true, a) }
	mkBehave := func(name string, minLen int, b Behavior) *Entry { return plain(name, minLen, b, false, a) }
	fn := func(name string) *Entry { return classed(name, len(name), token.ClassFunction, a) }
	pfn := func(name string) *Entry { return classed(name, len(name), token.ClassPrintFn, a) }
	cmd := func(name string, minLen int) *Entry { return classed(name, minLen, token.ClassCommand, a) }

	REM = mkBehave("REM", 3, CopiesRest)
	DATA = mkBehave("DATA", 1, CopiesRest)
	GOTO = mkBehave("GOTO", 2, LineNumberFollows)
	GOSUB = mkBehave("GOSUB", 4, LineNumberFollows)
	RESTORE = mkBehave("RESTORE", 3, LineNumberFollows)
	FN = mkBehave("FN", 2, NameFollows)
	PROC = mkBehave("PROC", 4, NameFollows)
	REPEAT = mkBehave("REPEAT", 3, ResetsFirst)
	OTHERWISE = mkBehave("OTHERWISE", 2, ResetsFirst)

	// THEN and ELSE carry both ResetsFirst and LineNumberFollows, and ELSE
	// additionally needs a distinct first-item token: a line beginning
	// with ELSE (the multi-line IF block form) is a different opcode from
	// ELSE appearing mid-statement (spec.md §8 scenario 4).
	THEN = mkBehave("THEN", 2, ResetsFirst|LineNumberFollows)
	elseEntry := &Entry{
		Name: "ELSE", MinLen: 2,
		FirstTok: a.next(token.ClassPlain), FirstClass: token.ClassPlain,
		ElseTok: a.next(token.ClassPlain), ElseClass: token.ClassPlain,
		Behavior: ResetsFirst | LineNumberFollows,
	}
	ELSE = elseEntry

	ENDPROC := mk("ENDPROC", 7)
	ENDIF := mk("ENDIF", 5)
	ENDWHILE := mk("ENDWHILE", 4)
	ENDCASE := mk("ENDCASE", 4)
	END := mk("END", 3)
	STOP := mk("STOP", 4)
	RUN := mk("RUN", 3)
	NEW := mk("NEW", 3)
	OLD := mk("OLD", 3)
	CLEAR := mk("CLEAR", 2)
	IF := mk("IF", 2)
	FOR := mk("FOR", 3)
	STEP := mk("STEP", 2)
	NEXT := mk("NEXT", 2)
	UNTIL := mk("UNTIL", 1)
	WHILE := mk("WHILE", 2)
	CASE := mk("CASE", 2)
	OF := mk("OF", 2)
	WHEN := mk("WHEN", 4)
	ON := mk("ON", 2)
	OFF := mk("OFF", 3)
	ERROR := mk("ERROR", 3)
	LOCAL := mk("LOCAL", 3)
	DEF := mk("DEF", 3)
	DIM := mk("DIM", 3)
	READ := mk("READ", 4)
	LET := mk("LET", 3)
	PRINT := mk("PRINT", 1)
	INPUT := mk("INPUT", 1)
	LIST := mk("LIST", 1)
	LISTB := mk("LISTB", 5)
	LISTIF := mk("LISTIF", 5)
	LISTL := mk("LISTL", 5)
	LISTO := mk("LISTO", 5)
	LISTW := mk("LISTW", 5)
	LVAR := mkAlone("LVAR", 2)
	EDIT := mk("EDIT", 2)
	EDITO := mk("EDITO", 5)
	SAVE := mk("SAVE", 2)
	SAVEO := mk("SAVEO", 5)
	LOAD := mk("LOAD", 2)
	TEXTSAVE := mk("TEXTSAVE", 5)
	TEXTSAVEO := mk("TEXTSAVEO", 9)
	TWIN := mk("TWIN", 4)
	TWINO := mk("TWINO", 5)
	RENUMBER := mk("RENUMBER", 3)
	INSTALL := mk("INSTALL", 3)
	TRACE := mk("TRACE", 2)
	MODE := mk("MODE", 2)
	GCOL := mk("GCOL", 2)

	COUNT := mkAlone("COUNT", 3)
	TRUE := mk("TRUE", 2)
	FALSE := mk("FALSE", 2)
	NOT := mk("NOT", 3)
	AND := mk("AND", 1)
	OR := mk("OR", 1)
	EOR := mk("EOR", 3)
	DIV := mk("DIV", 3)
	MOD := mk("MOD", 3)
	TIME := mkAlone("TIME", 2)
	TIMEDOLLAR := mk("TIME$", 5)

	BY = mk("BY", 2)
	TO = mk("TO", 2)
	DRAW = mk("DRAW", 2)
	MOVE = mk("MOVE", 2)
	POINT = mk("POINT", 2)
	DRAWBY := mk("DRAWBY", 6)
	MOVEBY := mk("MOVEBY", 6)
	POINTBY := mk("POINTBY", 7)
	POINTTO := mk("POINTTO", 7)
	DRAW.CollapseBy = DRAWBY
	MOVE.CollapseBy = MOVEBY
	POINT.CollapseBy = POINTBY
	POINT.CollapseTo = POINTTO

	sinFn := fn("SIN(")
	cosFn := fn("COS(")
	tanFn := fn("TAN(")
	sqrFn := fn("SQR(")
	logFn := fn("LOG(")
	lnFn := fn("LN(")
	expFn := fn("EXP(")
	absFn := fn("ABS(")
	intFn := fn("INT(")
	rndFn := fn("RND(")
	lenFn := fn("LEN(")
	ascFn := fn("ASC(")
	chrFn := fn("CHR$(")
	strFn := fn("STR$(")
	valFn := fn("VAL(")
	instrFn := fn("INSTR(")
	leftFn := fn("LEFT$(")
	midFn := fn("MID$(")
	rightFn := fn("RIGHT$(")
	stringFn := fn("STRING$(")
	tabFn := fn("TAB(")

	printFnInt := pfn("INT(")
	printFnStr := pfn("STR$(")

	oscli := cmd("OSCLI", 5)
	starBasic := cmd("BASIC", 5)

	entries = []*Entry{
		REM, DATA, GOTO, GOSUB, RESTORE, FN, PROC, REPEAT, OTHERWISE, THEN, ELSE,
		ENDPROC, ENDIF, ENDWHILE, ENDCASE, END, STOP, RUN, NEW, OLD, CLEAR,
		IF, FOR, STEP, NEXT, UNTIL, WHILE, CASE, OF, WHEN, ON, OFF, ERROR,
		LOCAL, DEF, DIM, READ, LET, PRINT, INPUT,
		LIST, LISTB, LISTIF, LISTL, LISTO, LISTW, LVAR,
		EDIT, EDITO, SAVE, SAVEO, LOAD, TEXTSAVE, TEXTSAVEO, TWIN, TWINO,
		RENUMBER, INSTALL, TRACE, MODE, GCOL,
		COUNT, TRUE, FALSE, NOT, AND, OR, EOR, DIV, MOD, TIME, TIMEDOLLAR,
		BY, TO, DRAW, MOVE, POINT, DRAWBY, MOVEBY, POINTBY, POINTTO,
		sinFn, cosFn, tanFn, sqrFn, logFn, lnFn, expFn, absFn, intFn, rndFn,
		lenFn, ascFn, chrFn, strFn, valFn, instrFn, leftFn, midFn, rightFn,
		stringFn, tabFn, printFnInt, printFnStr, oscli, starBasic,
	}

	for i := 0; i < 4; i++ {
		byToken[i] = make(map[byte]*Entry)
	}
	for _, e := range entries {
		byToken[e.FirstClass][e.FirstTok] = e
		byToken[e.ElseClass][e.ElseTok] = e

		idx := 26
		if c := e.bare()[0]; c >= 'A' && c <= 'Z' {
			idx = int(c - 'A')
		}
		byLetter[idx] = append(byLetter[idx], e)
	}
	for i := range byLetter {
		sort.Slice(byLetter[i], func(x, y int) bool {
			return len(byLetter[i][x].Name) > len(byLetter[i][y].Name)
		})
	}
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// Lookup finds the longest keyword whose (possibly abbreviated) spelling
// matches the start of text, which must already be upper-cased by the
// caller unless lowercaseKeywords is set, in which case Lookup upper-cases
// as it compares. It returns the matched entry and the number of source
// bytes consumed by the match (which may be shorter than len(entry.Name)
// when an abbreviation). A Name ending in "(" matches only when text has
// the "(" too, and that "(" is counted in consumed.
func Lookup(text string, lowercaseKeywords bool) (entry *Entry, consumed int, ok bool) {
	if len(text) == 0 {
		return nil, 0, false
	}
	c := text[0]
	upper := c
	if lowercaseKeywords && c >= 'a' && c <= 'z' {
		upper = c - 'a' + 'A'
	}
	idx := 26
	if upper >= 'A' && upper <= 'Z' {
		idx = int(upper - 'A')
	}

	for _, e := range byLetter[idx] {
		bare := e.bare()
		n := matchCaseInsensitive(text, bare, lowercaseKeywords)
		// A match is either the full spelling, or exactly the minimum
		// abbreviation length followed by a literal "." - the sole
		// abbreviation signal. Reaching a keyword's exact length makes any
		// following "." an ordinary period, not an abbreviation mark, so
		// short and full are mutually exclusive.
		full := n == len(bare)
		short := !full && n == e.MinLen && n < len(text) && text[n] == '.'
		if !full && !short {
			continue
		}
		total := n
		if short {
			total++ // consume the abbreviation-marking "."
		}
		if strings.HasSuffix(e.Name, "(") {
			if len(text) <= total || text[total] != '(' {
				continue // FUNCTION-class names require the "(" present
			}
			total++
		}
		if e.Alone && len(text) > total && isIdentChar(text[total]) {
			continue
		}
		return e, total, true
	}
	return nil, 0, false
}

// matchCaseInsensitive returns the length of the longest prefix of name
// (already upper-case) matched at the start of text, honoring
// lowercaseKeywords (0 when even the first character differs; never
// negative). It stops as soon as characters diverge, so
// the caller compares the returned length against MinLen/len(name) itself.
func matchCaseInsensitive(text, name string, lowercaseKeywords bool) int {
	n := 0
	for n < len(name) && n < len(text) {
		tc := text[n]
		if lowercaseKeywords && tc >= 'a' && tc <= 'z' {
			tc = tc - 'a' + 'A'
		}
		if tc != name[n] {
			break
		}
		n++
	}
	return n
}

// Describe returns the keyword entry that tokenizes to (class, tok), the
// decode direction used by the lister and legacy importer.
func Describe(class token.Class, tok byte) (*Entry, bool) {
	e, ok := byToken[class][tok]
	return e, ok
}
