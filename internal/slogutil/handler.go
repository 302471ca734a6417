// Package slogutil provides the slog handlers and logger constructors used by thinner.
package slogutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TextHandler writes one line per record:
//
//	2024-05-01T10:00:00Z [warn] No constructor chain to base type | subsystem=closure type=Lib.Orphan
//
// Member signatures contain spaces and are quoted so that every value stays
// a single token.
type TextHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	prefix string // dotted group path, with a trailing dot
	fixed  string // rendered WithAttrs pairs
}

// NewTextHandler creates a line-oriented handler. The default level is info.
func NewTextHandler(w io.Writer, opts *slog.HandlerOptions) *TextHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &TextHandler{mu: &sync.Mutex{}, w: w, level: level}
}

func (h *TextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *TextHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Time.UTC().Format(time.RFC3339))
	b.WriteString(" [")
	b.WriteString(levelString(r.Level))
	b.WriteString("] ")
	b.WriteString(r.Message)

	pairs := h.fixed
	if r.NumAttrs() > 0 {
		var rb strings.Builder
		r.Attrs(func(a slog.Attr) bool {
			h.appendAttr(&rb, a)
			return true
		})
		pairs += rb.String()
	}
	if pairs != "" {
		b.WriteString(" |")
		b.WriteString(pairs)
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.fixed)
	for _, a := range attrs {
		h.appendAttr(&b, a)
	}
	c := *h
	c.fixed = b.String()
	return &c
}

func (h *TextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

// appendAttr writes " key=value"; group attributes are flattened into
// dotted keys.
func (h *TextHandler) appendAttr(b *strings.Builder, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Key == "" && a.Value.Kind() != slog.KindGroup {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		sub := h
		if a.Key != "" {
			sub = &TextHandler{prefix: h.prefix + a.Key + "."}
		}
		for _, ga := range a.Value.Group() {
			sub.appendAttr(b, ga)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(h.prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(formatValue(a.Value))
}

func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "debug"
	case level < slog.LevelWarn:
		return "info"
	case level < slog.LevelError:
		return "warn"
	}
	return "error"
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return quoteIfNeeded(v.String())
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return quoteIfNeeded(err.Error())
		}
		return quoteIfNeeded(fmt.Sprint(v.Any()))
	}
	return v.String()
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " |=\"\n") {
		return strconv.Quote(s)
	}
	return s
}
