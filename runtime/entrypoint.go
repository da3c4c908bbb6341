package runtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/goliatone/go-resource-provider/core"
	"github.com/goliatone/go-resource-provider/dispatch"
)

// Request-context keys carried between an invocation and its scheduled
// reinvocation.
const (
	requestContextInvocationKey = "invocationCount"
	requestContextRuleKey       = "cloudWatchEventsRuleName"
	requestContextTargetKey     = "cloudWatchEventsTargetId"
)

// Entrypoint is the top-level orchestrator for one resource provider. It
// parses the raw payload, casts the typed request, dispatches, and
// post-processes the outcome. It never returns an error and never lets a
// failure escape unnormalized.
type Entrypoint[M any] struct {
	config      core.Config
	logger      core.Logger
	dispatcher  *dispatch.Dispatcher[M]
	parser      *Parser
	metrics     core.MetricsPublisher
	logDelivery core.LogDelivery
	scheduler   core.CallbackScheduler
	store       core.InvocationStore
	errorMapper core.ErrorMapper
	clock       func() time.Time
}

// NewEntrypoint resolves configuration through the layered options stack
// (defaults, loaded, runtime) and assembles the orchestrator around the
// given handler registry.
func NewEntrypoint[M any](cfg core.Config, registry *dispatch.Registry[M], options ...Option) (*Entrypoint[M], error) {
	builder := defaultEntrypointBuilder(cfg)
	for _, option := range options {
		if option == nil {
			continue
		}
		option(&builder)
	}

	provider, logger := glog.Resolve("provider", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("provider"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metrics == nil {
		builder.metrics = core.NopMetricsPublisher{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = core.ProviderErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = core.NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = core.GoOptionsResolver{}
	}
	if builder.clock == nil {
		builder.clock = func() time.Time { return time.Now().UTC() }
	}

	defaults := core.DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, err
	}
	resolved, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, err
	}

	return &Entrypoint[M]{
		config:      resolved,
		logger:      logger,
		dispatcher:  dispatch.NewDispatcher(registry, logger),
		parser:      NewParser(builder.sessions),
		metrics:     builder.metrics,
		logDelivery: builder.logDelivery,
		scheduler:   builder.scheduler,
		store:       builder.store,
		errorMapper: builder.errorMapper,
		clock:       builder.clock,
	}, nil
}

// Config reports the resolved runtime configuration.
func (e *Entrypoint[M]) Config() core.Config {
	if e == nil {
		return core.Config{}
	}
	return e.config
}

// Registry exposes the instance registry for late AddHandler calls.
func (e *Entrypoint[M]) Registry() *dispatch.Registry[M] {
	if e == nil {
		return nil
	}
	return e.dispatcher.Registry()
}

// HandleRequest runs the full state machine for one raw invocation payload
// and always returns a well-formed progress event.
func (e *Entrypoint[M]) HandleRequest(ctx context.Context, payload []byte) core.ProgressEvent {
	if e == nil {
		return core.NewFailedEvent(core.ErrorCodeInternalFailure, "runtime: entrypoint is nil")
	}
	startedAt := e.clock()
	action := core.ActionUnknown
	var bearerToken string

	event, err := e.guardedHandle(ctx, payload, &action, &bearerToken)
	if err != nil {
		event = e.failedEvent(err)
	}
	e.observe(ctx, action, bearerToken, event, err, startedAt)
	return event
}

// guardedHandle is the single catch-all boundary: nothing thrown below it,
// panics included, escapes unconverted.
func (e *Entrypoint[M]) guardedHandle(
	ctx context.Context,
	payload []byte,
	action *core.Action,
	bearerToken *string,
) (event core.ProgressEvent, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = runtimeInternal(fmt.Sprintf("runtime: unhandled panic: %v", recovered), nil)
		}
	}()
	return e.handle(ctx, payload, action, bearerToken)
}

func (e *Entrypoint[M]) handle(
	ctx context.Context,
	payload []byte,
	action *core.Action,
	bearerToken *string,
) (core.ProgressEvent, error) {
	parsed, err := e.parser.ParseRequest(payload)
	if err != nil {
		return core.ProgressEvent{}, err
	}
	*action = parsed.Action
	*bearerToken = parsed.Request.BearerToken

	e.setupLogDelivery(ctx, parsed.Request)
	e.cleanupStaleReinvocation(ctx, parsed.Request)

	typed, err := CastResourceRequest[M](parsed.Request)
	if err != nil {
		return core.ProgressEvent{}, err
	}

	event, err := e.dispatcher.InvokeHandler(ctx, parsed.CallerSession, typed, parsed.Action, parsed.CallbackContext)
	if err != nil {
		return core.ProgressEvent{}, err
	}
	event = normalizeEvent(event)

	if event.OperationStatus == core.StatusInProgress && parsed.Action.IsMutating() {
		if err := e.scheduleReinvocation(ctx, parsed, event); err != nil {
			return core.ProgressEvent{}, err
		}
	}
	return event, nil
}

// setupLogDelivery runs once per successful parse; its failure is reported
// to the runtime logger and never reaches the envelope.
func (e *Entrypoint[M]) setupLogDelivery(ctx context.Context, request *core.InvocationRequest) {
	if e.logDelivery == nil || request.RequestData == nil {
		return
	}
	err := e.logDelivery.Setup(ctx, request.AWSAccountID, request.Region, request.RequestData.ProviderLogGroupName)
	if err != nil {
		e.logger.Error("log delivery setup failed",
			"account_id", request.AWSAccountID,
			"log_group", request.RequestData.ProviderLogGroupName,
			"error", err.Error(),
		)
	}
}

// cleanupStaleReinvocation removes the one-shot rule that re-triggered this
// invocation, when the scheduler left one behind.
func (e *Entrypoint[M]) cleanupStaleReinvocation(ctx context.Context, request *core.InvocationRequest) {
	janitor, ok := e.scheduler.(core.ReinvocationJanitor)
	if !ok || len(request.RequestContext) == 0 {
		return
	}
	ruleName := stringValue(request.RequestContext[requestContextRuleKey])
	targetID := stringValue(request.RequestContext[requestContextTargetKey])
	if ruleName == "" {
		return
	}
	if err := janitor.CleanupEvents(ctx, ruleName, targetID); err != nil {
		e.logger.Error("reinvocation cleanup failed",
			"rule_name", ruleName,
			"target_id", targetID,
			"error", err.Error(),
		)
	}
}

func (e *Entrypoint[M]) scheduleReinvocation(
	ctx context.Context,
	parsed *ParsedRequest,
	event core.ProgressEvent,
) error {
	if e.scheduler == nil {
		return nil
	}
	next := *parsed.Request
	next.CallbackContext = event.CallbackContext
	next.RequestContext = nextRequestContext(parsed.Request.RequestContext)
	input := core.ScheduleInput{
		Request:         &next,
		Action:          parsed.Action,
		CallbackContext: event.CallbackContext,
		DelaySeconds:    event.CallbackDelaySeconds,
	}
	if err := e.scheduler.ScheduleReinvocation(ctx, input); err != nil {
		return runtimeWrapInternal(err, "runtime: reinvocation scheduling failed")
	}
	return nil
}

func (e *Entrypoint[M]) failedEvent(err error) core.ProgressEvent {
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

// observe delivers telemetry and the audit record for one handled
// invocation. The exception metric is published exactly once per Failed
// envelope; collaborator failures are logged and ignored.
func (e *Entrypoint[M]) observe(
	ctx context.Context,
	action core.Action,
	bearerToken string,
	event core.ProgressEvent,
	cause error,
	startedAt time.Time,
) {
	duration := e.clock().Sub(startedAt)
	e.metrics.PublishInvocationMetric(ctx, action)
	e.metrics.PublishDurationMetric(ctx, action, duration)

	if event.OperationStatus == core.StatusFailed {
		if cause == nil {
			cause = core.NewProviderError(event.HandlerErrorCode, event.Message)
		}
		e.metrics.PublishExceptionMetric(ctx, action, cause)
		e.logger.Error("invocation failed",
			"action", string(action),
			"error_code", string(event.HandlerErrorCode),
			"message", event.Message,
			"duration_ms", duration.Milliseconds(),
		)
	} else {
		e.logger.Info("invocation handled",
			"action", string(action),
			"status", string(event.OperationStatus),
			"duration_ms", duration.Milliseconds(),
		)
	}

	if e.store == nil {
		return
	}
	record := core.InvocationRecord{
		ID:           uuid.NewString(),
		ResourceType: e.config.ProviderName,
		Action:       action,
		Status:       event.OperationStatus,
		ErrorCode:    event.HandlerErrorCode,
		BearerToken:  bearerToken,
		Duration:     duration,
		CreatedAt:    startedAt,
	}
	if err := e.store.Record(ctx, record); err != nil {
		e.logger.Error("invocation record failed", "error", err.Error())
	}
}

// normalizeEvent enforces the envelope invariants on handler output before
// it leaves the entrypoint.
func normalizeEvent(event core.ProgressEvent) core.ProgressEvent {
	if event.OperationStatus == core.StatusFailed && !core.KnownErrorCode(event.HandlerErrorCode) {
		event.HandlerErrorCode = core.ErrorCodeInternalFailure
	}
	if event.OperationStatus != core.StatusFailed {
		event.HandlerErrorCode = ""
	}
	if event.OperationStatus == core.StatusInProgress || event.OperationStatus == core.StatusPending {
		event.CallbackContext = core.EnsureCallbackContext(event.CallbackContext)
	}
	return event
}

func nextRequestContext(previous map[string]any) map[string]any {
	next := map[string]any{}
	for key, value := range previous {
		next[key] = value
	}
	next[requestContextInvocationKey] = invocationCount(previous) + 1
	return next
}

func invocationCount(requestContext map[string]any) int64 {
	switch value := requestContext[requestContextInvocationKey].(type) {
	case int64:
		return value
	case int:
		return int64(value)
	case float64:
		return int64(value)
	default:
		return 0
	}
}

func stringValue(value any) string {
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}
