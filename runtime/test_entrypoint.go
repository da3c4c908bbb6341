package runtime

import (
	"context"
	"fmt"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-resource-provider/core"
	"github.com/goliatone/go-resource-provider/dispatch"
	"github.com/goliatone/go-resource-provider/session"
)

// TestEntrypoint is the reduced orchestrator for local contract testing:
// it parses the test payload, dispatches, and returns the envelope with no
// metrics, no log delivery, and no reinvocation scheduling, so a single
// invocation's output can be asserted without side channels.
type TestEntrypoint[M any] struct {
	dispatcher  *dispatch.Dispatcher[M]
	parser      *Parser
	errorMapper core.ErrorMapper
	logger      core.Logger
}

func NewTestEntrypoint[M any](registry *dispatch.Registry[M], options ...Option) *TestEntrypoint[M] {
	builder := defaultEntrypointBuilder(core.Config{})
	for _, option := range options {
		if option == nil {
			continue
		}
		option(&builder)
	}
	logger := glog.Ensure(builder.logger)
	if builder.errorMapper == nil {
		builder.errorMapper = core.ProviderErrorMapper
	}
	var sessions session.Provider = builder.sessions
	if sessions == nil {
		sessions = session.StaticProvider{}
	}
	return &TestEntrypoint[M]{
		dispatcher:  dispatch.NewDispatcher(registry, logger),
		parser:      NewParser(sessions),
		errorMapper: builder.errorMapper,
		logger:      logger,
	}
}

// HandleTestRequest runs one contract-test invocation and always returns a
// well-formed progress event, even on InProgress results.
func (e *TestEntrypoint[M]) HandleTestRequest(ctx context.Context, payload []byte) core.ProgressEvent {
	if e == nil {
		return core.NewFailedEvent(core.ErrorCodeInternalFailure, "runtime: test entrypoint is nil")
	}
	event, err := e.guardedHandle(ctx, payload)
	if err != nil {
		return e.failedEvent(err)
	}
	return event
}

func (e *TestEntrypoint[M]) guardedHandle(ctx context.Context, payload []byte) (event core.ProgressEvent, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = runtimeInternal(fmt.Sprintf("runtime: unhandled panic: %v", recovered), nil)
		}
	}()

	parsed, err := e.parser.ParseTestRequest(payload)
	if err != nil {
		return core.ProgressEvent{}, err
	}
	typed, err := CastTestResourceRequest[M](parsed.Request)
	if err != nil {
		return core.ProgressEvent{}, err
	}
	event, err = e.dispatcher.InvokeHandler(ctx, parsed.Session, typed, parsed.Action, parsed.CallbackContext)
	if err != nil {
		return core.ProgressEvent{}, err
	}
	return normalizeEvent(event), nil
}

func (e *TestEntrypoint[M]) failedEvent(err error) core.ProgressEvent {
	mapped := e.errorMapper(err)
	if mapped == nil {
		return core.NewFailedEvent(core.ErrorCodeInternalFailure, "An unexpected error occurred")
	}
	code := core.ErrorCode(mapped.TextCode)
	if !core.KnownErrorCode(code) {
		code = core.ErrorCodeInternalFailure
	}
	return core.NewFailedEvent(code, mapped.Message)
}
