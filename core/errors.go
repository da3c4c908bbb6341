package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrorCode is the closed taxonomy every failure is normalized into before
// it reaches the host. The code travels as the go-errors text code.
type ErrorCode string

const (
	ErrorCodeNotUpdatable            ErrorCode = "NotUpdatable"
	ErrorCodeInvalidRequest          ErrorCode = "InvalidRequest"
	ErrorCodeAccessDenied            ErrorCode = "AccessDenied"
	ErrorCodeInvalidCredentials      ErrorCode = "InvalidCredentials"
	ErrorCodeAlreadyExists           ErrorCode = "AlreadyExists"
	ErrorCodeNotFound                ErrorCode = "NotFound"
	ErrorCodeResourceConflict        ErrorCode = "ResourceConflict"
	ErrorCodeThrottling              ErrorCode = "Throttling"
	ErrorCodeServiceLimitExceeded    ErrorCode = "ServiceLimitExceeded"
	ErrorCodeNotStabilized           ErrorCode = "NotStabilized"
	ErrorCodeGeneralServiceException ErrorCode = "GeneralServiceException"
	ErrorCodeServiceInternalError    ErrorCode = "ServiceInternalError"
	ErrorCodeNetworkFailure          ErrorCode = "NetworkFailure"
	ErrorCodeInternalFailure         ErrorCode = "InternalFailure"
)

// KnownErrorCode reports whether the code belongs to the taxonomy.
func KnownErrorCode(code ErrorCode) bool {
	switch code {
	case ErrorCodeNotUpdatable, ErrorCodeInvalidRequest, ErrorCodeAccessDenied,
		ErrorCodeInvalidCredentials, ErrorCodeAlreadyExists, ErrorCodeNotFound,
		ErrorCodeResourceConflict, ErrorCodeThrottling, ErrorCodeServiceLimitExceeded,
		ErrorCodeNotStabilized, ErrorCodeGeneralServiceException,
		ErrorCodeServiceInternalError, ErrorCodeNetworkFailure, ErrorCodeInternalFailure:
		return true
	default:
		return false
	}
}

// NewProviderError builds a taxonomy error with the category and HTTP code
// implied by the taxonomy code.
func NewProviderError(code ErrorCode, message string) *goerrors.Error {
	if !KnownErrorCode(code) {
		code = ErrorCodeInternalFailure
	}
	return goerrors.New(message, categoryForCode(code)).
		WithCode(httpStatusForCode(code)).
		WithTextCode(string(code))
}

// WrapProviderError wraps a cause with a taxonomy code, preserving the
// cause for goerrors.As inspection.
func WrapProviderError(source error, code ErrorCode, message string) *goerrors.Error {
	if source == nil {
		return NewProviderError(code, message)
	}
	if !KnownErrorCode(code) {
		code = ErrorCodeInternalFailure
	}
	return goerrors.Wrap(source, categoryForCode(code), message).
		WithCode(httpStatusForCode(code)).
		WithTextCode(string(code))
}

// ErrorCodeFor extracts the taxonomy code from an error. An error whose
// declared text code belongs to the handler-error family keeps its code;
// everything else collapses to InternalFailure.
func ErrorCodeFor(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich != nil {
		code := ErrorCode(strings.TrimSpace(rich.TextCode))
		if KnownErrorCode(code) {
			return code
		}
	}
	return ErrorCodeInternalFailure
}

// ProviderErrorMapper normalizes an arbitrary error into a go-errors
// envelope carrying a taxonomy text code. Recognized codes pass through
// untouched; everything else becomes InternalFailure with the error's
// printable form as the message.
func ProviderErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich != nil {
		if KnownErrorCode(ErrorCode(strings.TrimSpace(rich.TextCode))) {
			return rich
		}
		return ensureProviderEnvelope(rich)
	}
	return NewProviderError(ErrorCodeInternalFailure, err.Error())
}

// ErrorMapper matches the teacher-style pluggable mapper contract so hosts
// can substitute their own normalization.
type ErrorMapper func(err error) *goerrors.Error

// ErrorFactory builds rich errors; the runtime default is goerrors.New.
type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

func ensureProviderEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	err.TextCode = string(ErrorCodeInternalFailure)
	if err.Code == 0 {
		err.Code = http.StatusInternalServerError
	}
	if strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func categoryForCode(code ErrorCode) goerrors.Category {
	switch code {
	case ErrorCodeInvalidRequest, ErrorCodeNotUpdatable:
		return goerrors.CategoryBadInput
	case ErrorCodeInvalidCredentials:
		return goerrors.CategoryAuth
	case ErrorCodeAccessDenied:
		return goerrors.CategoryAuthz
	case ErrorCodeAlreadyExists, ErrorCodeResourceConflict:
		return goerrors.CategoryConflict
	case ErrorCodeNotFound:
		return goerrors.CategoryNotFound
	case ErrorCodeThrottling, ErrorCodeServiceLimitExceeded:
		return goerrors.CategoryRateLimit
	case ErrorCodeNotStabilized, ErrorCodeGeneralServiceException,
		ErrorCodeServiceInternalError, ErrorCodeNetworkFailure:
		return goerrors.CategoryOperation
	default:
		return goerrors.CategoryInternal
	}
}

func httpStatusForCode(code ErrorCode) int {
	switch categoryForCode(code) {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryOperation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func invalidRequestError(message string, metadata map[string]any) error {
	err := NewProviderError(ErrorCodeInvalidRequest, message)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func internalFailureError(message string, metadata map[string]any) error {
	err := NewProviderError(ErrorCodeInternalFailure, message)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}
