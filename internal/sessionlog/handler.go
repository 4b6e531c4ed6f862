// Package sessionlog keeps an in-memory record of the warnings and errors
// logged during the current process lifetime.
package sessionlog

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"runtime/debug"
	"slices"
	"strings"
	"time"
)

// Entry is one captured log record.
type Entry struct {
	Time    time.Time  `json:"time"`
	Level   slog.Level `json:"level"`
	Message string     `json:"message"`
	// Group is the dot-separated slog group the record was logged under.
	Group string `json:"group,omitempty"`
	// Attrs holds the record's attributes and those added with WithAttrs.
	// Keys are qualified by their group path.
	Attrs map[string]string `json:"attrs,omitempty"`
}

// AttrString renders Attrs as space-separated key=value pairs in key order.
func (e Entry) AttrString() string {
	if len(e.Attrs) == 0 {
		return ""
	}
	var b strings.Builder
	for i, key := range slices.Sorted(maps.Keys(e.Attrs)) {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%s", key, e.Attrs[key])
	}
	return b.String()
}

// EntryCallback receives records at or above the capture threshold.
type EntryCallback func(Entry)

// TeeHandler wraps a base [slog.Handler] and tees records at or above minLevel
// to a callback. Every record still goes to the base handler; only the
// callback is gated by minLevel.
type TeeHandler struct {
	base     slog.Handler
	callback EntryCallback
	minLevel slog.Level
	group    string
	// attrs are flattened with qualified keys at WithAttrs time.
	attrs []slog.Attr
}

// NewTeeHandler returns a TeeHandler delegating to base. A nil callback is
// allowed and turns the handler into a pass-through.
func NewTeeHandler(base slog.Handler, minLevel slog.Level, callback EntryCallback) *TeeHandler {
	return &TeeHandler{
		base:     base,
		callback: callback,
		minLevel: minLevel,
	}
}

// Enabled defers to the base handler. minLevel only gates the callback.
func (h *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle forwards the record to the base handler and then, when the level
// qualifies, to the callback. The callback runs even if the base handler
// failed; the base error is returned so slog can report it.
func (h *TeeHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.base.Handle(ctx, record)

	if h.callback != nil && record.Level >= h.minLevel {
		h.invoke(Entry{
			Time:    record.Time,
			Level:   record.Level,
			Message: record.Message,
			Group:   h.group,
			Attrs:   h.collectAttrs(record),
		})
	}
	return err
}

func (h *TeeHandler) collectAttrs(record slog.Record) map[string]string {
	if len(h.attrs) == 0 && record.NumAttrs() == 0 {
		return nil
	}
	out := make(map[string]string, len(h.attrs)+record.NumAttrs())
	for _, a := range h.attrs {
		out[a.Key] = a.Value.String()
	}
	record.Attrs(func(a slog.Attr) bool {
		for _, flat := range flattenAttr(h.group, a) {
			out[flat.Key] = flat.Value.String()
		}
		return true
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

// flattenAttr resolves a and expands nested groups into dotted keys under
// prefix. Empty attrs are dropped as slog handlers do.
func flattenAttr(prefix string, a slog.Attr) []slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return nil
	}
	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}
	if a.Value.Kind() != slog.KindGroup {
		return []slog.Attr{{Key: key, Value: a.Value}}
	}
	var out []slog.Attr
	for _, child := range a.Value.Group() {
		out = append(out, flattenAttr(key, child)...)
	}
	return out
}

func (h *TeeHandler) invoke(entry Entry) {
	defer func() {
		if r := recover(); r != nil {
			// stderr, not slog: logging here would re-enter this handler.
			fmt.Fprintf(os.Stderr, "[session-log] callback panicked: %v\n%s\n", r, debug.Stack())
		}
	}()
	h.callback(entry)
}

// WithAttrs applies attrs to the base handler and keeps callback, threshold
// and group.
func (h *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.base = h.base.WithAttrs(attrs)
	clone.attrs = slices.Clip(h.attrs)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, flattenAttr(h.group, a)...)
	}
	return &clone
}

// WithGroup opens a group on the base handler and appends name to the
// captured group path.
func (h *TeeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.base = h.base.WithGroup(name)
	if h.group == "" {
		clone.group = name
	} else {
		clone.group = h.group + "." + name
	}
	return &clone
}
