package domain

import (
	"errors"
	"fmt"
	"time"
)

type ErrorCode string

const (
	CodeInvalidArgument  ErrorCode = "INVALID_ARGUMENT"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeUnavailable      ErrorCode = "UNAVAILABLE"
	CodeUnauthenticated  ErrorCode = "UNAUTHENTICATED"
	CodeInternal         ErrorCode = "INTERNAL"
	CodeCanceled         ErrorCode = "CANCELED"
	CodeDeadlineExceeded ErrorCode = "DEADLINE_EXCEEDED"
)

var (
	ErrConnect              = errors.New("backend connect failed")
	ErrToolTimeout          = errors.New("tool call timed out")
	ErrToolExecution        = errors.New("tool execution failed")
	ErrGlobalConnectTimeout = errors.New("backend connection global timeout")
	ErrToolNotFound         = errors.New("tool not found")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrSessionClosed        = errors.New("session closed")
)

type Error struct {
	Code      ErrorCode
	Op        string
	Message   string
	Cause     error
	Retryable bool
	Meta      map[string]string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Op == "" {
		if msg == "" {
			return string(e.Code)
		}
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if msg == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func E(code ErrorCode, op, msg string, cause error) *Error {
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Code:    code,
		Op:      op,
		Message: msg,
		Cause:   cause,
	}
}

func Wrap(code ErrorCode, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		if existing.Op != "" || op == "" {
			return existing
		}
		return &Error{
			Code:      existing.Code,
			Op:        op,
			Message:   existing.Message,
			Cause:     existing.Cause,
			Retryable: existing.Retryable,
			Meta:      existing.Meta,
		}
	}
	return E(code, op, "", err)
}

func CodeFrom(err error) (ErrorCode, bool) {
	if err == nil {
		return "", false
	}
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Code != "" {
		return domainErr.Code, true
	}
	switch {
	case errors.Is(err, ErrToolNotFound):
		return CodeNotFound, true
	case errors.Is(err, ErrNotAuthenticated):
		return CodeUnauthenticated, true
	case errors.Is(err, ErrToolTimeout), errors.Is(err, ErrGlobalConnectTimeout):
		return CodeDeadlineExceeded, true
	case errors.Is(err, ErrConnect), errors.Is(err, ErrSessionClosed):
		return CodeUnavailable, true
	case errors.Is(err, ErrToolExecution):
		return CodeInternal, true
	default:
		return "", false
	}
}

// ConnectStage names the connector step that failed.
type ConnectStage string

const (
	ConnectStageAuth     ConnectStage = "auth"
	ConnectStageOpen     ConnectStage = "open"
	ConnectStageDiscover ConnectStage = "discover"
)

// ConnectError reports a transport, auth or discovery failure for one backend.
type ConnectError struct {
	Backend string
	Stage   ConnectStage
	Err     error
}

func (e *ConnectError) Error() string {
	switch e.Stage {
	case ConnectStageDiscover:
		return fmt.Sprintf("tool discovery for %s: %v", e.Backend, e.Err)
	case ConnectStageAuth:
		return fmt.Sprintf("%s: %v", e.Backend, e.Err)
	default:
		return fmt.Sprintf("connect to %s: %v", e.Backend, e.Err)
	}
}

func (e *ConnectError) Unwrap() error { return e.Err }

func (e *ConnectError) Is(target error) bool { return target == ErrConnect }

// ToolTimeoutError reports a tool call that exceeded its deadline.
type ToolTimeoutError struct {
	Tool    string
	Timeout time.Duration
}

func (e *ToolTimeoutError) Error() string {
	return fmt.Sprintf("tool %q timed out after %s", e.Tool, e.Timeout)
}

func (e *ToolTimeoutError) Is(target error) bool { return target == ErrToolTimeout }

// ToolExecutionError reports a failure returned by the backend itself.
type ToolExecutionError struct {
	Tool    string
	Message string
}

func (e *ToolExecutionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tool %q failed", e.Tool)
	}
	return fmt.Sprintf("tool %q failed: %s", e.Tool, e.Message)
}

func (e *ToolExecutionError) Is(target error) bool { return target == ErrToolExecution }

// GlobalConnectTimeout wraps ErrGlobalConnectTimeout with the configured limit.
func GlobalConnectTimeout(limit time.Duration) error {
	return fmt.Errorf("%w after %s", ErrGlobalConnectTimeout, limit)
}
