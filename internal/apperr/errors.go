package apperr

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Constructors
func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func InvalidArg(msg string) error { return New(CodeInvalidArgument, msg) }

func InvalidArgf(format string, args ...any) error {
	return New(CodeInvalidArgument, fmt.Sprintf(format, args...))
}

func NotFound(msg string) error { return New(CodeNotFound, msg) }

func Forbidden(msg string) error { return New(CodePermissionDenied, msg) }

func FailedPrecondition(msg string) error { return New(CodeFailedPrecondition, msg) }

func Internal(msg string, cause error) error { return Wrap(CodeInternal, msg, cause) }

func Unavailable(msg string, cause error) error { return Wrap(CodeUnavailable, msg, cause) }

func Config(msg string) error { return New(CodeConfig, msg) }

// CodeOf devuelve el código del primer AppError de la cadena (o CodeUnknown).
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// IsValidation: errores que se muestran tal cual al usuario.
func IsValidation(err error) bool {
	switch CodeOf(err) {
	case CodeInvalidArgument, CodeResourceExhausted, CodePermissionDenied, CodeFailedPrecondition:
		return true
	}
	return false
}

func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// UserMessage devuelve el mensaje seguro para mostrar; para el resto, genérico.
func UserMessage(err error) string {
	var ae *AppError
	if errors.As(err, &ae) && (IsValidation(err) || ae.Code == CodeNotFound) {
		return ae.Message
	}
	return "Something went wrong. Please try again later."
}
