package dispatch

import (
	"context"
	"fmt"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-resource-provider/core"
	"github.com/goliatone/go-resource-provider/session"
)

// SyncViolationMessage is the exact message reported when a Read or List
// handler attempts asynchronous completion.
const SyncViolationMessage = "READ and LIST handlers must return synchronously."

// Dispatcher invokes the registered handler for an action. It reports a
// missing handler as a Failed event, raises the synchronous-handler
// violation itself, and lets every other handler failure propagate to the
// entrypoint for normalization.
type Dispatcher[M any] struct {
	registry *Registry[M]
	logger   core.Logger
}

func NewDispatcher[M any](registry *Registry[M], logger core.Logger) *Dispatcher[M] {
	if registry == nil {
		registry = NewRegistry[M]()
	}
	return &Dispatcher[M]{
		registry: registry,
		logger:   glog.Ensure(logger),
	}
}

// Registry exposes the instance registry for late AddHandler calls.
func (d *Dispatcher[M]) Registry() *Registry[M] {
	if d == nil {
		return nil
	}
	return d.registry
}

// InvokeHandler runs the handler bound to action. The returned event is
// only meaningful when err is nil; handler errors and panics surface as
// the error return.
func (d *Dispatcher[M]) InvokeHandler(
	ctx context.Context,
	sess *session.Session,
	req core.ResourceHandlerRequest[M],
	action core.Action,
	callbackContext map[string]any,
) (core.ProgressEvent, error) {
	if d == nil {
		return core.ProgressEvent{}, dispatchInternal("dispatch: dispatcher is nil", nil)
	}
	handler, ok := d.registry.Handler(action)
	if !ok || handler == nil {
		d.logger.Warn("no handler registered", "action", string(action))
		return core.NewFailedEvent(
			core.ErrorCodeInternalFailure,
			fmt.Sprintf("No handler for %s", action),
		), nil
	}

	event, err := d.invoke(ctx, handler, sess, req, callbackContext)
	if err != nil {
		return core.ProgressEvent{}, err
	}

	if action.Synchronous() && !event.Terminal() {
		return core.ProgressEvent{}, dispatchInternal(SyncViolationMessage, map[string]any{
			"action": string(action),
			"status": string(event.OperationStatus),
		})
	}
	return event, nil
}

// invoke shields the runtime from handler panics so the entrypoint sees a
// single error channel.
func (d *Dispatcher[M]) invoke(
	ctx context.Context,
	handler HandlerFunc[M],
	sess *session.Session,
	req core.ResourceHandlerRequest[M],
	callbackContext map[string]any,
) (event core.ProgressEvent, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = dispatchInternal(
				fmt.Sprintf("dispatch: handler panic: %v", recovered),
				nil,
			)
		}
	}()
	return handler(ctx, sess, req, core.EnsureCallbackContext(callbackContext))
}
