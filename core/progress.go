package core

import (
	"fmt"
	"strings"
)

// OperationStatus is the progress-event state reported back to the host.
type OperationStatus string

const (
	StatusPending    OperationStatus = "PENDING"
	StatusInProgress OperationStatus = "IN_PROGRESS"
	StatusSuccess    OperationStatus = "SUCCESS"
	StatusFailed     OperationStatus = "FAILED"
)

// ProgressEvent is the uniform result of handling one invocation. Every
// dispatch path funnels through one of its constructors; no other return
// shape exists.
type ProgressEvent struct {
	OperationStatus      OperationStatus `json:"status"`
	HandlerErrorCode     ErrorCode       `json:"errorCode,omitempty"`
	Message              string          `json:"message"`
	ResourceModel        any             `json:"resourceModel,omitempty"`
	ResourceModels       []any           `json:"resourceModels,omitempty"`
	NextToken            string          `json:"nextToken,omitempty"`
	CallbackContext      map[string]any  `json:"callbackContext,omitempty"`
	CallbackDelaySeconds int64           `json:"callbackDelaySeconds"`
}

// NewSuccessEvent reports a terminal successful outcome.
func NewSuccessEvent(model any, callbackContext map[string]any) ProgressEvent {
	return ProgressEvent{
		OperationStatus: StatusSuccess,
		Message:         "",
		ResourceModel:   model,
		CallbackContext: callbackContext,
	}
}

// NewProgressEvent reports a still-working outcome. Callers override the
// callback delay through WithCallbackDelay before returning.
func NewProgressEvent(model any, callbackContext map[string]any) ProgressEvent {
	return ProgressEvent{
		OperationStatus: StatusInProgress,
		Message:         "",
		ResourceModel:   model,
		CallbackContext: callbackContext,
	}
}

// NewFailedEvent reports a terminal failure with a taxonomy code.
func NewFailedEvent(code ErrorCode, message string) ProgressEvent {
	if !KnownErrorCode(code) {
		code = ErrorCodeInternalFailure
	}
	return ProgressEvent{
		OperationStatus:  StatusFailed,
		HandlerErrorCode: code,
		Message:          message,
	}
}

// WithCallbackDelay sets the reinvocation delay in seconds.
func (e ProgressEvent) WithCallbackDelay(seconds int64) ProgressEvent {
	if seconds < 0 {
		seconds = 0
	}
	e.CallbackDelaySeconds = seconds
	return e
}

// WithMessage sets the human-readable message.
func (e ProgressEvent) WithMessage(message string) ProgressEvent {
	e.Message = message
	return e
}

// WithResourceModel sets the single result model.
func (e ProgressEvent) WithResourceModel(model any) ProgressEvent {
	e.ResourceModel = model
	return e
}

// WithResourceModels sets the result-model list for List handlers.
func (e ProgressEvent) WithResourceModels(models []any) ProgressEvent {
	e.ResourceModels = models
	return e
}

// WithNextToken sets the pagination continuation token.
func (e ProgressEvent) WithNextToken(token string) ProgressEvent {
	e.NextToken = strings.TrimSpace(token)
	return e
}

// WithCallbackContext replaces the callback context carried forward to the
// next reinvocation.
func (e ProgressEvent) WithCallbackContext(callbackContext map[string]any) ProgressEvent {
	e.CallbackContext = callbackContext
	return e
}

// Terminal reports whether the event ends the operation.
func (e ProgressEvent) Terminal() bool {
	return e.OperationStatus == StatusSuccess || e.OperationStatus == StatusFailed
}

// Validate enforces the envelope invariants: Failed implies a taxonomy
// code, Success and InProgress never carry one.
func (e ProgressEvent) Validate() error {
	switch e.OperationStatus {
	case StatusFailed:
		if strings.TrimSpace(string(e.HandlerErrorCode)) == "" {
			return internalFailureError("core: failed event is missing an error code", nil)
		}
		if !KnownErrorCode(e.HandlerErrorCode) {
			return internalFailureError(
				fmt.Sprintf("core: failed event carries unknown error code %q", e.HandlerErrorCode),
				map[string]any{"error_code": string(e.HandlerErrorCode)},
			)
		}
	case StatusSuccess, StatusInProgress, StatusPending:
		if e.HandlerErrorCode != "" {
			return internalFailureError(
				fmt.Sprintf("core: %s event must not carry an error code", e.OperationStatus),
				map[string]any{"status": string(e.OperationStatus), "error_code": string(e.HandlerErrorCode)},
			)
		}
	default:
		return internalFailureError(
			fmt.Sprintf("core: unknown operation status %q", e.OperationStatus),
			map[string]any{"status": string(e.OperationStatus)},
		)
	}
	return nil
}
