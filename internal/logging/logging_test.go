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

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestDebugSuppressedUntilEnabled(t *testing.T) {
	var buf bytes.Buffer
	debug := false
	h := NewHandler(&buf, nil, &debug)
	logger := slog.New(h)

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected debug record to be suppressed, got %q", buf.String())
	}

	h.SetDebug(true)
	logger.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected debug record after SetDebug(true), got %q", buf.String())
	}
}

func TestNonDebugLevelsAlwaysPassThrough(t *testing.T) {
	var buf bytes.Buffer
	debug := false
	logger := slog.New(NewHandler(&buf, nil, &debug))
	logger.Info("always shown")
	if !strings.Contains(buf.String(), "always shown") {
		t.Fatalf("expected an info record to pass through regardless of debug gate, got %q", buf.String())
	}
}

func TestWithAttrsPreservesDebugGate(t *testing.T) {
	var buf bytes.Buffer
	debug := false
	h := NewHandler(&buf, nil, &debug)
	child := h.WithAttrs([]slog.Attr{slog.String("k", "v")})
	logger := slog.New(child)
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected WithAttrs child to inherit the debug gate, got %q", buf.String())
	}
}
