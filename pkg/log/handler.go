package log

import (
	"context"
	"log/slog"

	crdb "github.com/cockroachdb/errors"

	"github.com/YuminosukeSato/stackreg/pkg/errors"
)

// ErrFmtHandler decorates slog records that carry an ErrAttr with the error kind
// and the stack trace recorded by cockroachdb/errors.
type ErrFmtHandler struct {
	next slog.Handler
}

// WrapByErrFmtHandler wraps the slog handler used by SetupLogger.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{next: handler}
}

func (h *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := recordError(r); err != nil {
		r.AddAttrs(slog.String(ErrorKindKey, errors.KindOf(err).String()))
		if st := stacktrace(err); st != "" {
			r.AddAttrs(slog.String(StacktraceAttrKey, st))
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{next: h.next.WithGroup(g)}
}

// recordError は ErrAttrKey に渡されたエラーを返す。
func recordError(r slog.Record) error {
	var found error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		found, _ = attr.Value.Any().(error)
		return false
	})
	return found
}

// stacktrace returns the first safe detail found along the error chain. For
// errors built with WithStack this is the recorded stack.
func stacktrace(err error) string {
	for _, payload := range crdb.GetAllSafeDetails(err) {
		for _, d := range payload.SafeDetails {
			if d != "" {
				return d
			}
		}
	}
	return ""
}
