package engine

import "errors"

// busyError signals single-flight rejection for 429 mapping.
type busyError struct{}

func (busyError) Error() string { return "generation already in flight" }

// ErrBusy constructs the admission-rejected error.
func ErrBusy() error { return busyError{} }

// IsBusy reports whether err indicates single-flight rejection.
func IsBusy(err error) bool {
	var e busyError
	return errors.As(err, &e)
}

// invalidInputError signals a missing or unreadable reference input.
type invalidInputError struct{ msg string }

func (e invalidInputError) Error() string { return "invalid input: " + e.msg }

// ErrInvalidInput constructs an invalidInputError.
func ErrInvalidInput(msg string) error { return invalidInputError{msg: msg} }

// IsInvalidInput reports whether err indicates a rejected input.
func IsInvalidInput(err error) bool {
	var e invalidInputError
	return errors.As(err, &e)
}

// acceleratorOOMError signals an accelerator out-of-memory condition.
// Pipelines wrap their runtime's OOM into this type (or wrap ErrAcceleratorOOM)
// so the executor can apply its single-retry downgrade.
type acceleratorOOMError struct{ msg string }

func (e acceleratorOOMError) Error() string {
	if e.msg == "" {
		return "accelerator out of memory"
	}
	return "accelerator out of memory: " + e.msg
}

// ErrAcceleratorOOM constructs an accelerator OOM error.
func ErrAcceleratorOOM(msg string) error { return acceleratorOOMError{msg: msg} }

// IsAcceleratorOOM reports whether err indicates accelerator memory exhaustion.
func IsAcceleratorOOM(err error) bool {
	var e acceleratorOOMError
	return errors.As(err, &e)
}

// residencyError wraps a failed component move. Fatal for the current
// request only; the engine process keeps serving.
type residencyError struct {
	component Component
	err       error
}

func (e residencyError) Error() string {
	return "residency move failed: " + string(e.component) + ": " + e.err.Error()
}

func (e residencyError) Unwrap() error { return e.err }

// IsResidencyFailure reports whether err came from a failed placement move.
func IsResidencyFailure(err error) bool {
	var e residencyError
	return errors.As(err, &e)
}
