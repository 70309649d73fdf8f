/*
   Structured logging handler.

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

// Package logging wraps a slog.Handler to add a runtime-togglable debug
// level, adapted from the teacher's util/logger/logger.go.
package logging

import (
	"context"
	"io"
	"log/slog"
)

// Handler wraps another slog.Handler, suppressing Debug-level records
// unless *debug is true at the time of the call.
type Handler struct {
	next  slog.Handler
	debug *bool
}

// NewHandler builds a text handler writing to w, gated by debug.
func NewHandler(w io.Writer, opts *slog.HandlerOptions, debug *bool) *Handler {
	return &Handler{next: slog.NewTextHandler(w, opts), debug: debug}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	if level == slog.LevelDebug {
		return h.debug != nil && *h.debug
	}
	return h.next.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	return h.next.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{next: h.next.WithAttrs(attrs), debug: h.debug}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{next: h.next.WithGroup(name), debug: h.debug}
}

// SetDebug flips the gate debug points at.
func (h *Handler) SetDebug(on bool) {
	if h.debug != nil {
		*h.debug = on
	}
}
