package module

import (
	"errors"
	"fmt"
)

// ErrorKind 枚举加载失败的类别。
type ErrorKind string

const (
	KindResolution   ErrorKind = "resolution"
	KindNotFound     ErrorKind = "module_not_found"
	KindIO           ErrorKind = "io"
	KindNetwork      ErrorKind = "network"
	KindRemoteStatus ErrorKind = "remote_status"
	KindTranspile    ErrorKind = "transpile"
	KindTypeMismatch ErrorKind = "type_mismatch"
)

// Sentinels matched by *Error.Is.
var (
	ErrResolution   = errors.New("resolution error")
	ErrNotFound     = errors.New("module not found")
	ErrIO           = errors.New("io error")
	ErrNetwork      = errors.New("network error")
	ErrRemoteStatus = errors.New("remote status error")
	ErrTranspile    = errors.New("transpile error")
	ErrTypeMismatch = errors.New("type mismatch")
)

var sentinelByKind = map[ErrorKind]error{
	KindResolution:   ErrResolution,
	KindNotFound:     ErrNotFound,
	KindIO:           ErrIO,
	KindNetwork:      ErrNetwork,
	KindRemoteStatus: ErrRemoteStatus,
	KindTranspile:    ErrTranspile,
	KindTypeMismatch: ErrTypeMismatch,
}

// Error 是加载链路上所有阶段统一返回的错误类型。
type Error struct {
	Kind       ErrorKind
	Specifier  string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindNotFound:
		msg = fmt.Sprintf("cannot find module %q", e.Specifier)
	case KindRemoteStatus:
		msg = fmt.Sprintf("failed to load remote module %q: status %d", e.Specifier, e.StatusCode)
	case KindTypeMismatch:
		msg = fmt.Sprintf("module %q has a type that does not match the import", e.Specifier)
	default:
		msg = fmt.Sprintf("%s: failed to load %q", e.Kind, e.Specifier)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 让 errors.Is(err, ErrXxx) 按 Kind 匹配。
func (e *Error) Is(target error) bool {
	sentinel, ok := sentinelByKind[e.Kind]
	return ok && sentinel == target
}

// NewError 构造带类别的加载错误。
func NewError(kind ErrorKind, specifier string, err error) *Error {
	return &Error{Kind: kind, Specifier: specifier, Err: err}
}

// StatusError 构造 RemoteStatus 错误。
func StatusError(specifier string, status int) *Error {
	return &Error{Kind: KindRemoteStatus, Specifier: specifier, StatusCode: status}
}

// KindOf 提取 err 链上的 ErrorKind；不属于本分类体系时返回空串。
func KindOf(err error) ErrorKind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}
