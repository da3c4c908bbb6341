// Package gojob bridges reinvocation scheduling onto a go-job queue so
// providers running outside AWS can resume in-progress operations through a
// durable worker instead of CloudWatch Events rules.
package gojob

import (
	"context"
	"encoding/json"
	"strings"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-resource-provider/core"
)

// JobIDReinvoke identifies the reinvocation job on the queue.
const JobIDReinvoke = "provider.reinvoke"

// Parameter keys of the reinvocation execution message.
const (
	ParamPayload      = "payload"
	ParamAction       = "action"
	ParamDelaySeconds = "delaySeconds"
)

// QueueScheduler implements reinvocation scheduling over a go-job enqueuer.
// The serialized invocation request rides in the message parameters and the
// bearer token doubles as the idempotency key, so a crashed worker retry
// never double-schedules one operation.
type QueueScheduler struct {
	enqueuer queue.Enqueuer
	logger   core.Logger
}

type Option func(*QueueScheduler)

func WithLogger(logger core.Logger) Option {
	return func(s *QueueScheduler) {
		s.logger = logger
	}
}

func NewQueueScheduler(enqueuer queue.Enqueuer, options ...Option) *QueueScheduler {
	scheduler := &QueueScheduler{
		enqueuer: enqueuer,
		logger:   glog.Nop(),
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(scheduler)
	}
	scheduler.logger = glog.Ensure(scheduler.logger)
	return scheduler
}

func (s *QueueScheduler) ScheduleReinvocation(ctx context.Context, input core.ScheduleInput) error {
	if s == nil || s.enqueuer == nil {
		return schedulerInternal("gojob: enqueuer is not configured", nil)
	}
	if input.Request == nil {
		return schedulerInternal("gojob: reinvocation request is required", nil)
	}
	payload, err := json.Marshal(input.Request)
	if err != nil {
		return schedulerWrapInternal(err, "gojob: serialize reinvocation payload")
	}
	message := &job.ExecutionMessage{
		JobID: JobIDReinvoke,
		Parameters: map[string]any{
			ParamPayload:      string(payload),
			ParamAction:       string(input.Action),
			ParamDelaySeconds: input.DelaySeconds,
		},
		IdempotencyKey: strings.TrimSpace(input.Request.BearerToken),
	}
	if _, err := s.enqueuer.Enqueue(ctx, message); err != nil {
		return schedulerWrapInternal(err, "gojob: enqueue reinvocation")
	}
	s.logger.Debug("reinvocation enqueued",
		"job_id", JobIDReinvoke,
		"action", string(input.Action),
		"delay_seconds", input.DelaySeconds,
	)
	return nil
}

// DecodeReinvocation extracts the serialized invocation request from a
// dequeued execution message. Workers feed the result straight back into the
// entrypoint.
func DecodeReinvocation(message *job.ExecutionMessage) ([]byte, error) {
	if message == nil {
		return nil, schedulerInternal("gojob: execution message is required", nil)
	}
	raw, ok := message.Parameters[ParamPayload].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, schedulerInternal("gojob: execution message has no reinvocation payload", map[string]any{
			"job_id": message.JobID,
		})
	}
	return []byte(raw), nil
}

var _ core.CallbackScheduler = (*QueueScheduler)(nil)
