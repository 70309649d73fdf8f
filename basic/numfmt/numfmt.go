/*
   Hex formatting for PRINT output under the hex64 option.

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

// Package numfmt formats numeric PRINT values as hex digit strings, for the
// hex64 console option. The digit-at-a-time shift-and-mask loop is lifted
// from the teacher's util/hex/hex.go FormatWord, generalized from 32-bit
// words to the 64-bit range BASIC's hex64 display calls for, rather than
// reaching for strconv.FormatUint/%x - the teacher never formats hex through
// fmt's verbs, always through this hand-rolled digit table.
package numfmt

import "strings"

var hexDigits = "0123456789ABCDEF"

// FormatHex64 writes v as a fixed-width 16-digit upper-case hex string,
// matching the width and casing of the teacher's FormatWord/FormatHalf
// family rather than Go's variable-width %x.
func FormatHex64(v int64) string {
	var b strings.Builder
	u := uint64(v)
	shift := 60
	for range 16 {
		b.WriteByte(hexDigits[(u>>uint(shift))&0xf])
		shift -= 4
	}
	return b.String()
}

// FormatHexBytes renders data as paired hex digits, one pair per byte,
// each pair followed by a space when space is set - the same shape as
// FormatBytes. Nothing outside this package's tests calls it.
func FormatHexBytes(data []byte, space bool) string {
	var b strings.Builder
	for _, by := range data {
		b.WriteByte(hexDigits[(by>>4)&0xf])
		b.WriteByte(hexDigits[by&0xf])
		if space {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
