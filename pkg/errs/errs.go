// Package errs 定义业务错误码，调用方通过错误码区分失败原因。
package errs

import (
	"errors"
	"fmt"
)

// 业务错误码
const (
	ENOTFOUND      = "not_found"
	EINVALIDOP     = "invalid_operation"
	EALREADYEXISTS = "already_exists"
	EALREADYLIKED  = "already_liked"
	ENOTFOLLOWING  = "not_following"
	ENOTLIKED      = "not_liked"
	EVALIDATION    = "validation_error"
	EFORBIDDEN     = "forbidden"
	EUNAUTHORIZED  = "unauthorized"
	EINTERNAL      = "internal"
)

// Error 带错误码的业务错误
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is 按错误码比较，便于 errors.Is(err, &errs.Error{Code: errs.ENOTFOUND})
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// Errorf 构造带错误码的错误
func Errorf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode 返回错误码。nil 返回空串，非业务错误返回 EINTERNAL。
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage 返回可以展示给调用方的错误信息，内部错误不暴露细节。
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// Is 判断 err 是否为指定错误码
func Is(err error, code string) bool {
	return ErrorCode(err) == code
}
