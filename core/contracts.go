package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// MetricsPublisher receives handler telemetry at the entrypoint boundary.
// Failures inside a publisher must never affect the returned envelope.
type MetricsPublisher interface {
	PublishExceptionMetric(ctx context.Context, action Action, err error)
	PublishInvocationMetric(ctx context.Context, action Action)
	PublishDurationMetric(ctx context.Context, action Action, duration time.Duration)
}

// LogDelivery prepares structured log shipping for one invocation. Setup is
// called once per successful parse; its failure is reported to the runtime
// logger and otherwise ignored.
type LogDelivery interface {
	Setup(ctx context.Context, accountID string, region string, logGroupName string) error
}

// ScheduleInput describes one requested reinvocation: the original request,
// the action it belongs to, the callback context to carry forward, and the
// delay before re-entry.
type ScheduleInput struct {
	Request         *InvocationRequest
	Action          Action
	CallbackContext map[string]any
	DelaySeconds    int64
}

// CallbackScheduler arranges a future re-entry with the same invocation
// payload shape, callback context included. Only consulted when a mutating
// handler reports InProgress.
type CallbackScheduler interface {
	ScheduleReinvocation(ctx context.Context, input ScheduleInput) error
}

// ReinvocationJanitor is implemented by schedulers that leave behind
// per-reinvocation resources (rules, targets) needing removal once the
// follow-up invocation arrives.
type ReinvocationJanitor interface {
	CleanupEvents(ctx context.Context, ruleName string, targetID string) error
}

// InvocationStore persists invocation audit records when configured.
// Store failures never affect the returned envelope.
type InvocationStore interface {
	Record(ctx context.Context, record InvocationRecord) error
	LatestByBearerToken(ctx context.Context, bearerToken string) (InvocationRecord, error)
}
