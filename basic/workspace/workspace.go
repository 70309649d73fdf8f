/*
   Workspace: the line store the tokenizer, resolver and dispatcher share.

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

// Package workspace is the line store: a slice of encoded lines, bounded by
// an optional total byte size, holding every tokenized line in ascending
// line-number order, plus the in-memory
// symbol table the resolver binds variable references against. Modeled on
// the teacher's emu/memory bounds-checked array and config/configparser's
// name-keyed registry.
package workspace

import (
	"encoding/binary"
	"io"
	"sort"

	"github.com/basic370/bbcore/basic/basicerr"
)

// DefaultMaxLine is the largest line number a program line may carry.
const DefaultMaxLine = 65279 // BBC BASIC V's traditional ceiling (0xFEFF "top")

// headerSize is the width of a tokenized line's fixed header: line-number,
// total-length and exec-offset, each a 16-bit little-endian field.
const headerSize = 6

// terminator is the 4-byte all-zero sentinel ("two-byte zero line-number
// and zero length") that ends a saved program image.
var terminator = [4]byte{}

// EncodeLine lays out one stored line's combined header+source+exec buffer:
// line-number, total-length (header through the exec-form's own terminating
// zero, inclusive), exec-offset (byte offset from the start of the line to
// the first exec-form byte), then the source-form bytes followed by the
// exec-form bytes. Both source and exec are expected to already end in their
// own token.Term byte, as basic/tokenizer and basic/exec produce them.
func EncodeLine(number uint32, source, exec []byte) ([]byte, error) {
	total := headerSize + len(source) + len(exec)
	if number > 0xFFFF || total > 0xFFFF || headerSize+len(source) > 0xFFFF {
		return nil, basicerr.ErrBadProg
	}
	buf := make([]byte, headerSize, total)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(number))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(total))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(headerSize+len(source)))
	buf = append(buf, source...)
	buf = append(buf, exec...)
	return buf, nil
}

// DecodeLine reverses EncodeLine, validating the header fields against buf's
// actual length the way a line must be validated per spec.md's §3 data
// model before any opcode in it is trusted.
func DecodeLine(buf []byte) (number uint32, source, exec []byte, err error) {
	if len(buf) < headerSize {
		return 0, nil, nil, basicerr.ErrBadProg
	}
	number = uint32(binary.LittleEndian.Uint16(buf[0:2]))
	total := int(binary.LittleEndian.Uint16(buf[2:4]))
	execOff := int(binary.LittleEndian.Uint16(buf[4:6]))
	if total > len(buf) || total < headerSize || execOff < headerSize || execOff > total {
		return 0, nil, nil, basicerr.ErrBadProg
	}
	return number, buf[headerSize:execOff], buf[execOff:total], nil
}

// Line is one stored program line: the line number plus its combined
// header+source+exec buffer (source-form run + exec-form run + their own
// terminators, as produced by basic/tokenizer and basic/exec and laid out
// by EncodeLine).
type Line struct {
	Number uint32
	Bytes  []byte
}

// Source returns l's source-form bytes (the tokenizer's output).
func (l Line) Source() []byte {
	_, source, _, err := DecodeLine(l.Bytes)
	if err != nil {
		return nil
	}
	return source
}

// Exec returns l's exec-form bytes (basic/exec's output, unresolved).
func (l Line) Exec() []byte {
	_, _, exec, err := DecodeLine(l.Bytes)
	if err != nil {
		return nil
	}
	return exec
}

// Store holds the program's lines, always kept sorted by Number.
type Store struct {
	lines   []Line
	maxSize int
	used    int
}

// NewStore creates an empty store bounded by maxSize total bytes across all
// stored lines, mirroring the teacher's CheckAddr-style bounds enforcement
// in emu/memory.
func NewStore(maxSize int) *Store {
	return &Store{maxSize: maxSize}
}

func (s *Store) indexOf(number uint32) (int, bool) {
	i := sort.Search(len(s.lines), func(i int) bool { return s.lines[i].Number >= number })
	if i < len(s.lines) && s.lines[i].Number == number {
		return i, true
	}
	return i, false
}

// Put inserts or replaces the line at number, building its combined
// header+source+exec buffer via EncodeLine. Passing two empty slices
// deletes the line, matching the immediate-mode convention "LINENO <enter>"
// removes a line.
func (s *Store) Put(number uint32, source, exec []byte) error {
	i, found := s.indexOf(number)
	if len(source) == 0 && len(exec) == 0 {
		if found {
			s.used -= len(s.lines[i].Bytes)
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
		}
		return nil
	}
	if number > DefaultMaxLine {
		return basicerr.ErrBadLineNumber
	}
	encoded, err := EncodeLine(number, source, exec)
	if err != nil {
		return err
	}
	return s.putEncoded(number, i, found, encoded)
}

func (s *Store) putEncoded(number uint32, i int, found bool, encoded []byte) error {
	added := len(encoded)
	if found {
		added -= len(s.lines[i].Bytes)
	}
	if s.maxSize > 0 && s.used+added > s.maxSize {
		return basicerr.ErrWorkspaceExhausted
	}
	if found {
		s.used += added
		s.lines[i].Bytes = encoded
		return nil
	}
	s.used += added
	s.lines = append(s.lines, Line{})
	copy(s.lines[i+1:], s.lines[i:])
	s.lines[i] = Line{Number: number, Bytes: encoded}
	return nil
}

// Get returns the stored line's source-form and exec-form bytes, if any.
func (s *Store) Get(number uint32) (source, exec []byte, ok bool) {
	i, found := s.indexOf(number)
	if !found {
		return nil, nil, false
	}
	return s.lines[i].Source(), s.lines[i].Exec(), true
}

// Delete removes the line at number, if present.
func (s *Store) Delete(number uint32) {
	_ = s.Put(number, nil, nil)
}

// Lines returns every stored line in ascending line-number order. The
// returned slice is owned by the caller; mutating Store afterwards does not
// retroactively change it.
func (s *Store) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Renumber rewrites every stored line number to start at first and
// increment by step, returning the old->new mapping so callers (the
// resolver, in particular) can fix up any line-number references that
// point into the program.
func (s *Store) Renumber(first, step uint32) map[uint32]uint32 {
	mapping := make(map[uint32]uint32, len(s.lines))
	next := first
	for i := range s.lines {
		mapping[s.lines[i].Number] = next
		s.lines[i].Number = next
		buf := append([]byte(nil), s.lines[i].Bytes...)
		binary.LittleEndian.PutUint16(buf[0:2], uint16(next))
		s.lines[i].Bytes = buf
		next += step
	}
	return mapping
}

// Clear empties the store (NEW).
func (s *Store) Clear() {
	s.lines = nil
	s.used = 0
}

// Save writes every stored line's combined buffer back-to-back, in
// ascending line-number order, ending with the 4-byte zero terminator -
// spec.md's "sequence of tokenized lines back-to-back, ending with a
// two-byte zero line-number and zero length."
func (s *Store) Save(w io.Writer) error {
	for _, l := range s.lines {
		if _, err := w.Write(l.Bytes); err != nil {
			return err
		}
	}
	_, err := w.Write(terminator[:])
	return err
}

// Load replaces the store's contents by reading back an image written by
// Save. Each line's exec-form bytes are loaded as-is; callers that need a
// fresh resolve/run pass (exec-form opcodes carry workspace-relative
// bindings that do not survive a session boundary) re-translate the
// returned source-form bytes themselves - see repl.Console's LOAD handling.
func (s *Store) Load(r io.Reader) error {
	s.Clear()
	for {
		var head [4]byte
		if _, err := io.ReadFull(r, head[:]); err != nil {
			if err == io.EOF {
				return basicerr.ErrBadProg // missing terminator
			}
			return err
		}
		number := uint32(binary.LittleEndian.Uint16(head[0:2]))
		total := int(binary.LittleEndian.Uint16(head[2:4]))
		if number == 0 && total == 0 {
			return nil
		}
		if total < headerSize {
			return basicerr.ErrBadProg
		}
		rest := make([]byte, total-len(head))
		if _, err := io.ReadFull(r, rest); err != nil {
			return basicerr.ErrBadProg
		}
		buf := append(head[:], rest...)
		if _, _, _, err := DecodeLine(buf); err != nil {
			return err
		}
		i, found := s.indexOf(number)
		if err := s.putEncoded(number, i, found, buf); err != nil {
			return err
		}
	}
}

// SymbolTable binds a variable name to a stable workspace-relative offset,
// creating the binding on first use. It is the narrow interface
// basic/resolve needs; the in-memory implementation below is sufficient for
// the dispatcher and tests to run end to end without a real heap allocator.
type SymbolTable interface {
	Bind(name string) (offset uint32, created bool)
	Lookup(name string) (offset uint32, ok bool)
}

// MemSymbolTable is a map-backed SymbolTable, modeled on the teacher's
// models map[string]modelDef registry in config/configparser.go.
type MemSymbolTable struct {
	byName map[string]uint32
	next   uint32
}

func NewMemSymbolTable() *MemSymbolTable {
	return &MemSymbolTable{byName: make(map[string]uint32)}
}

func (t *MemSymbolTable) Bind(name string) (uint32, bool) {
	if off, ok := t.byName[name]; ok {
		return off, false
	}
	off := t.next
	t.byName[name] = off
	t.next += 4 // slot width: one 32-bit value or pointer per variable
	return off, true
}

func (t *MemSymbolTable) Lookup(name string) (uint32, bool) {
	off, ok := t.byName[name]
	return off, ok
}
