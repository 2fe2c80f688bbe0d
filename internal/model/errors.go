package model

import (
	"errors"
	"fmt"
)

// ValidationError rejects malformed input before any state is touched.
// It is definitive: resubmitting the same input fails the same way.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// ErrorCode identifies a business failure on the wire.
type ErrorCode int

const (
	CodeUnknownAsset               ErrorCode = 1001
	CodeInsufficientBalance        ErrorCode = 1002
	CodeUnknownOperation           ErrorCode = 1003
	CodeOperationOwnershipMismatch ErrorCode = 1004
	CodeHoldMismatch               ErrorCode = 1005
	CodeOperationAlreadyExists     ErrorCode = 1006
	CodeAssetTypeMismatch          ErrorCode = 1007

	// CodeInternal marks storage or transport failures captured by the
	// executor rather than a ledger rule.
	CodeInternal ErrorCode = 1099
)

var codeNames = map[ErrorCode]string{
	CodeUnknownAsset:               "UnknownAsset",
	CodeInsufficientBalance:        "InsufficientBalance",
	CodeUnknownOperation:           "UnknownOperation",
	CodeOperationOwnershipMismatch: "OperationOwnershipMismatch",
	CodeHoldMismatch:               "HoldMismatch",
	CodeOperationAlreadyExists:     "OperationAlreadyExists",
	CodeAssetTypeMismatch:          "AssetTypeMismatch",
	CodeInternal:                   "Internal",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// BusinessError is a well-formed request the current ledger state cannot honour.
type BusinessError struct {
	Code    ErrorCode
	Message string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any BusinessError with the same code, so callers can write
// errors.Is(err, &BusinessError{Code: CodeInsufficientBalance}).
func (e *BusinessError) Is(target error) bool {
	t, ok := target.(*BusinessError)
	return ok && t.Code == e.Code
}

func NewBusinessError(code ErrorCode, format string, args ...any) *BusinessError {
	return &BusinessError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the business code carried by err, or CodeInternal.
func CodeOf(err error) ErrorCode {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeInternal
}

// HasCode reports whether err is a BusinessError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var be *BusinessError
	return errors.As(err, &be) && be.Code == code
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
