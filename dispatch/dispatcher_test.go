package dispatch

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-resource-provider/core"
	"github.com/goliatone/go-resource-provider/session"
)

type testModel struct {
	Name string `json:"name,omitempty"`
}

func successHandler(event core.ProgressEvent) HandlerFunc[testModel] {
	return func(context.Context, *session.Session, core.ResourceHandlerRequest[testModel], map[string]any) (core.ProgressEvent, error) {
		return event, nil
	}
}

func TestInvokeHandlerMissingHandlerReturnsFailedEvent(t *testing.T) {
	dispatcher := NewDispatcher(NewRegistry[testModel](), nil)
	event, err := dispatcher.InvokeHandler(
		context.Background(), nil, core.ResourceHandlerRequest[testModel]{}, core.ActionCreate, nil,
	)
	if err != nil {
		t.Fatalf("missing handler must not raise: %v", err)
	}
	if event.OperationStatus != core.StatusFailed {
		t.Fatalf("expected FAILED status, got %q", event.OperationStatus)
	}
	if event.HandlerErrorCode != core.ErrorCodeInternalFailure {
		t.Fatalf("expected InternalFailure, got %q", event.HandlerErrorCode)
	}
	if event.Message != "No handler for CREATE" {
		t.Fatalf("unexpected message %q", event.Message)
	}
}

func TestInvokeHandlerPassesEventThrough(t *testing.T) {
	registry := NewRegistry[testModel]()
	registry.AddHandler(core.ActionCreate, successHandler(core.NewSuccessEvent(testModel{Name: "demo"}, nil)))
	dispatcher := NewDispatcher(registry, nil)

	event, err := dispatcher.InvokeHandler(
		context.Background(), nil, core.ResourceHandlerRequest[testModel]{}, core.ActionCreate, nil,
	)
	if err != nil {
		t.Fatalf("invoke handler: %v", err)
	}
	if event.OperationStatus != core.StatusSuccess {
		t.Fatalf("expected SUCCESS status, got %q", event.OperationStatus)
	}
}

func TestInvokeHandlerNormalizesNilCallbackContext(t *testing.T) {
	registry := NewRegistry[testModel]()
	var observed map[string]any
	registry.AddHandler(core.ActionUpdate, func(
		_ context.Context,
		_ *session.Session,
		_ core.ResourceHandlerRequest[testModel],
		callbackContext map[string]any,
	) (core.ProgressEvent, error) {
		observed = callbackContext
		return core.NewSuccessEvent(nil, nil), nil
	})
	dispatcher := NewDispatcher(registry, nil)

	if _, err := dispatcher.InvokeHandler(
		context.Background(), nil, core.ResourceHandlerRequest[testModel]{}, core.ActionUpdate, nil,
	); err != nil {
		t.Fatalf("invoke handler: %v", err)
	}
	if observed == nil {
		t.Fatalf("handler must never observe nil callback context")
	}
}

func TestInvokeHandlerRejectsAsynchronousReadAndList(t *testing.T) {
	for _, action := range []core.Action{core.ActionRead, core.ActionList} {
		registry := NewRegistry[testModel]()
		registry.AddHandler(action, successHandler(core.NewProgressEvent(nil, nil).WithCallbackDelay(10)))
		dispatcher := NewDispatcher(registry, nil)

		_, err := dispatcher.InvokeHandler(
			context.Background(), nil, core.ResourceHandlerRequest[testModel]{}, action, nil,
		)
		if err == nil {
			t.Fatalf("expected synchronous violation for %q", action)
		}
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) {
			t.Fatalf("expected go-errors envelope, got %T", err)
		}
		if rich.TextCode != string(core.ErrorCodeInternalFailure) {
			t.Fatalf("expected InternalFailure, got %q", rich.TextCode)
		}
		if rich.Message != SyncViolationMessage {
			t.Fatalf("expected exact violation message, got %q", rich.Message)
		}
	}
}

func TestInvokeHandlerAllowsInProgressForMutatingActions(t *testing.T) {
	registry := NewRegistry[testModel]()
	registry.AddHandler(core.ActionCreate, successHandler(core.NewProgressEvent(nil, map[string]any{"stage": "waiting"})))
	dispatcher := NewDispatcher(registry, nil)

	event, err := dispatcher.InvokeHandler(
		context.Background(), nil, core.ResourceHandlerRequest[testModel]{}, core.ActionCreate, nil,
	)
	if err != nil {
		t.Fatalf("invoke handler: %v", err)
	}
	if event.OperationStatus != core.StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %q", event.OperationStatus)
	}
}

func TestInvokeHandlerPropagatesHandlerError(t *testing.T) {
	registry := NewRegistry[testModel]()
	handlerErr := core.NewProviderError(core.ErrorCodeNotFound, "no such resource")
	registry.AddHandler(core.ActionRead, func(
		context.Context, *session.Session, core.ResourceHandlerRequest[testModel], map[string]any,
	) (core.ProgressEvent, error) {
		return core.ProgressEvent{}, handlerErr
	})
	dispatcher := NewDispatcher(registry, nil)

	_, err := dispatcher.InvokeHandler(
		context.Background(), nil, core.ResourceHandlerRequest[testModel]{}, core.ActionRead, nil,
	)
	if !errors.Is(err, handlerErr) {
		t.Fatalf("expected handler error to propagate, got %v", err)
	}
}

func TestInvokeHandlerRecoversPanics(t *testing.T) {
	registry := NewRegistry[testModel]()
	registry.AddHandler(core.ActionDelete, func(
		context.Context, *session.Session, core.ResourceHandlerRequest[testModel], map[string]any,
	) (core.ProgressEvent, error) {
		panic("handler exploded")
	})
	dispatcher := NewDispatcher(registry, nil)

	_, err := dispatcher.InvokeHandler(
		context.Background(), nil, core.ResourceHandlerRequest[testModel]{}, core.ActionDelete, nil,
	)
	if err == nil {
		t.Fatalf("expected error from panicking handler")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.TextCode != string(core.ErrorCodeInternalFailure) {
		t.Fatalf("expected InternalFailure, got %q", rich.TextCode)
	}
}
