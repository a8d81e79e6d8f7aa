package log

import (
	"context"
	"log/slog"
	"strings"
)

const redactedValue = "[REDACTED]"

// Free-text assessment fields carry personal pupil data and never reach a log
// sink. Export paths embed the pupil's name. Identifiers such as student_id
// and class pass through.
var sensitiveFields = map[string]struct{}{
	"social_competence":    {},
	"active_participation": {},
	"cleanliness":          {},
	"material":             {},
	"punctuality":          {},
	"comment":              {},
	"note":                 {},
	"path":                 {},
}

type RedactingHandler struct {
	inner slog.Handler
}

func NewRedactingHandler(inner slog.Handler) *RedactingHandler {
	return &RedactingHandler{inner: inner}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fallback := slog.NewRecord(record.Time, slog.LevelError, "redaction handler panic recovered", record.PC)
			fallback.AddAttrs(slog.String("panic", redactedValue))
			err = h.inner.Handle(ctx, fallback)
		}
	}()

	out := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(redactAttr(attr))
		return true
	})
	return h.inner.Handle(ctx, out)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, redactAttr(attr))
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(out)}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name)}
}

func isSensitive(key string) bool {
	_, ok := sensitiveFields[strings.ToLower(key)]
	return ok
}

func redactAttr(attr slog.Attr) slog.Attr {
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		group := value.Group()
		out := make([]slog.Attr, 0, len(group))
		for _, nested := range group {
			out = append(out, redactAttr(nested))
		}
		return slog.Attr{Key: attr.Key, Value: slog.GroupValue(out...)}
	}
	if isSensitive(attr.Key) {
		return slog.String(attr.Key, redactedValue)
	}
	return slog.Attr{Key: attr.Key, Value: value}
}
