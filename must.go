package cbridge

import (
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/wippyai/cbridge/errors"
)

// Check aborts on a boundary contract violation: it logs err and panics
// with it. A nil err is a no-op.
//
// Errors from cptr and cstr mean the foreign side already broke its
// contract, so the usual response at the top of an exported entry point is
//
//	p := cbridge.Must(cptr.MustRef[C.struct_config](unsafe.Pointer(cfg)))
func Check(err error) {
	if err == nil {
		return
	}
	fields := []zap.Field{zap.Error(err)}
	var e *errors.Error
	if stderrors.As(err, &e) {
		fields = append(fields,
			zap.String("phase", string(e.Phase)),
			zap.String("kind", string(e.Kind)),
		)
		if e.GoType != "" {
			fields = append(fields, zap.String("go_type", e.GoType))
		}
	}
	Logger().Error("boundary contract violated", fields...)
	panic(err)
}

// Must returns v, or aborts through Check when err is non-nil.
func Must[T any](v T, err error) T {
	Check(err)
	return v
}
