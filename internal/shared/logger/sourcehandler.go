package logger

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
)

// SourceLevelHandler decorates a slog.Handler so that only records at the
// configured levels carry a source attribute. Resolving source location is
// not free, so info-level production logs skip it.
type SourceLevelHandler struct {
	inner  slog.Handler
	levels map[slog.Level]bool
}

// NewSourceLevelHandler wraps inner; records at the given levels get a
// "source" attribute of the form file:line.
func NewSourceLevelHandler(inner slog.Handler, levels ...slog.Level) *SourceLevelHandler {
	set := make(map[slog.Level]bool, len(levels))
	for _, l := range levels {
		set[l] = true
	}
	return &SourceLevelHandler{inner: inner, levels: set}
}

func (h *SourceLevelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *SourceLevelHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.levels[r.Level] && r.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{r.PC})
		frame, _ := frames.Next()
		if frame.File != "" {
			r.AddAttrs(slog.String("source", fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)))
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h *SourceLevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SourceLevelHandler{inner: h.inner.WithAttrs(attrs), levels: h.levels}
}

func (h *SourceLevelHandler) WithGroup(name string) slog.Handler {
	return &SourceLevelHandler{inner: h.inner.WithGroup(name), levels: h.levels}
}
