package errors

import (
	"fmt"
	"runtime/debug"
)

// PanicError は評価中の panic を error に変換したもの。
// 1 つのモデルの panic でファミリー全体の評価が止まらないように、
// pipeline はこれを Unfit として扱う。
type PanicError struct {
	Operation string // 例: "evaluate square[0,2]"
	Value     any    // panic に渡された値
	Stack     []byte

	// prior は panic 前に返り値へ入っていた error
	prior error
}

func (e *PanicError) Error() string {
	if e.prior != nil {
		return fmt.Sprintf("%s panicked: %v (after: %v)", e.Operation, e.Value, e.prior)
	}
	return fmt.Sprintf("%s panicked: %v", e.Operation, e.Value)
}

// Unwrap exposes the error the panic interrupted, or the panic value itself when
// it was an error such as a runtime.Error.
func (e *PanicError) Unwrap() error {
	if e.prior != nil {
		return e.prior
	}
	err, _ := e.Value.(error)
	return err
}

// Detail returns the message followed by the goroutine stack at the panic site.
func (e *PanicError) Detail() string {
	return fmt.Sprintf("%s\n%s", e.Error(), e.Stack)
}

// NewPanicError records value and the current stack for operation.
func NewPanicError(operation string, value any) *PanicError {
	return &PanicError{Operation: operation, Value: value, Stack: debug.Stack()}
}

// Recover must be deferred directly. It turns a panic into a *PanicError stored
// in *err; an error already in *err stays reachable through errors.Is.
//
//	func (m *RegressionModel) fit() (err error) {
//	    defer errors.Recover(&err, "fit "+m.ID().String())
//	    ...
//	}
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	pe := NewPanicError(operation, r)
	pe.prior = *err
	*err = pe
}

// SafeExecute runs fn and reports a panic inside it as a *PanicError.
// The evaluation workers wrap each model with it:
//
//	err := errors.SafeExecute("evaluate "+m.ID().String(), func() error {
//	    rep, err := m.Evaluate(sortColumn)
//	    reports[i] = rep
//	    return err
//	})
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
