package engine

import (
	"errors"
	"fmt"
)

// ValidationError 动作校验失败。调用方把它当作本步失败，而不是进程级错误。
type ValidationError struct {
	Code   string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Code
	}
	return e.Code + ": " + e.Detail
}

// Is 让 errors.Is 按 Code 比较
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Code == e.Code
}

var (
	ErrNotActionPhase   = &ValidationError{Code: "not_action_phase"}
	ErrNotYourTurn      = &ValidationError{Code: "not_your_turn"}
	ErrUnknownUser      = &ValidationError{Code: "unknown_user"}
	ErrIllegalAction    = &ValidationError{Code: "illegal_action"}
	ErrInvalidAmount    = &ValidationError{Code: "invalid_amount"}
	ErrDuplicateRequest = &ValidationError{Code: "duplicate_request"}
	ErrInvalidSetup     = &ValidationError{Code: "invalid_setup"}

	ErrShowdownNotReady = errors.New("showdown not ready")
)

func invalid(base *ValidationError, format string, args ...any) error {
	return &ValidationError{Code: base.Code, Detail: fmt.Sprintf(format, args...)}
}

// IsValidation 是否为动作校验类错误
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
