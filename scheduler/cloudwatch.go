// Package scheduler arranges reinvocations for in-progress mutating
// operations, either through one-shot CloudWatch Events rules or through an
// in-process timer for short delays.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchevents"
	cwetypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchevents/types"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/goliatone/go-resource-provider/core"
)

// Request-context keys the scheduler stamps into the reinvocation payload so
// the next invocation can remove its one-shot rule.
const (
	ContextKeyRuleName = "cloudWatchEventsRuleName"
	ContextKeyTargetID = "cloudWatchEventsTargetId"
)

// API mirrors the subset of *cloudwatchevents.Client the scheduler needs.
type API interface {
	PutRule(ctx context.Context, params *cloudwatchevents.PutRuleInput, optFns ...func(*cloudwatchevents.Options)) (*cloudwatchevents.PutRuleOutput, error)
	PutTargets(ctx context.Context, params *cloudwatchevents.PutTargetsInput, optFns ...func(*cloudwatchevents.Options)) (*cloudwatchevents.PutTargetsOutput, error)
	RemoveTargets(ctx context.Context, params *cloudwatchevents.RemoveTargetsInput, optFns ...func(*cloudwatchevents.Options)) (*cloudwatchevents.RemoveTargetsOutput, error)
	DeleteRule(ctx context.Context, params *cloudwatchevents.DeleteRuleInput, optFns ...func(*cloudwatchevents.Options)) (*cloudwatchevents.DeleteRuleOutput, error)
}

// LocalInvoker re-enters the runtime in process with a serialized
// reinvocation payload. Used for delays below the local threshold so short
// stabilization loops never leave the host.
type LocalInvoker func(ctx context.Context, payload []byte)

// CloudWatchScheduler implements reinvocation scheduling over one-shot
// CloudWatch Events rules, with an optional in-process fast path.
type CloudWatchScheduler struct {
	client         API
	functionARN    string
	localThreshold time.Duration
	localInvoker   LocalInvoker
	logger         core.Logger
	clock          func() time.Time
	newID          func() string
}

type Option func(*CloudWatchScheduler)

func WithLogger(logger core.Logger) Option {
	return func(s *CloudWatchScheduler) {
		s.logger = logger
	}
}

// WithLocalInvoker enables the in-process path for delays strictly below
// threshold.
func WithLocalInvoker(invoker LocalInvoker, threshold time.Duration) Option {
	return func(s *CloudWatchScheduler) {
		s.localInvoker = invoker
		s.localThreshold = threshold
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *CloudWatchScheduler) {
		s.clock = clock
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *CloudWatchScheduler) {
		s.newID = newID
	}
}

// NewCloudWatchScheduler builds a scheduler targeting functionARN for
// re-entry.
func NewCloudWatchScheduler(client API, functionARN string, options ...Option) *CloudWatchScheduler {
	scheduler := &CloudWatchScheduler{
		client:      client,
		functionARN: functionARN,
		logger:      glog.Nop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
		newID: uuid.NewString,
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

func (s *CloudWatchScheduler) ScheduleReinvocation(ctx context.Context, input core.ScheduleInput) error {
	if s == nil {
		return schedulerInternal("scheduler: scheduler is nil", nil)
	}
	if input.Request == nil {
		return schedulerInternal("scheduler: reinvocation request is required", nil)
	}

	delay := time.Duration(input.DelaySeconds) * time.Second
	if s.localInvoker != nil && delay < s.localThreshold {
		return s.scheduleLocal(ctx, input, delay)
	}
	return s.scheduleRemote(ctx, input, delay)
}

// scheduleLocal re-enters in process after the delay. The payload carries no
// rule name, so the follow-up invocation has nothing to clean up.
func (s *CloudWatchScheduler) scheduleLocal(ctx context.Context, input core.ScheduleInput, delay time.Duration) error {
	payload, err := json.Marshal(input.Request)
	if err != nil {
		return schedulerWrapInternal(err, "scheduler: serialize reinvocation payload")
	}
	detached := context.WithoutCancel(ctx)
	s.logger.Debug("reinvoking locally",
		"action", string(input.Action),
		"delay_seconds", input.DelaySeconds,
	)
	time.AfterFunc(delay, func() {
		s.localInvoker(detached, payload)
	})
	return nil
}

func (s *CloudWatchScheduler) scheduleRemote(ctx context.Context, input core.ScheduleInput, delay time.Duration) error {
	if s.client == nil {
		return schedulerInternal("scheduler: events client is not configured", nil)
	}

	ruleName := "reinvoke-" + s.newID()
	targetID := ruleName + "-target"

	request := *input.Request
	requestContext := map[string]any{}
	for key, value := range request.RequestContext {
		requestContext[key] = value
	}
	requestContext[ContextKeyRuleName] = ruleName
	requestContext[ContextKeyTargetID] = targetID
	request.RequestContext = requestContext

	payload, err := json.Marshal(&request)
	if err != nil {
		return schedulerWrapInternal(err, "scheduler: serialize reinvocation payload")
	}

	_, err = s.client.PutRule(ctx, &cloudwatchevents.PutRuleInput{
		Name:               aws.String(ruleName),
		ScheduleExpression: aws.String(CronExpression(s.clock().Add(delay))),
		State:              cwetypes.RuleStateEnabled,
	})
	if err != nil {
		return schedulerWrapInternal(err, "scheduler: put reinvocation rule")
	}

	_, err = s.client.PutTargets(ctx, &cloudwatchevents.PutTargetsInput{
		Rule: aws.String(ruleName),
		Targets: []cwetypes.Target{
			{
				Arn:   aws.String(s.functionARN),
				Id:    aws.String(targetID),
				Input: aws.String(string(payload)),
			},
		},
	})
	if err != nil {
		return schedulerWrapInternal(err, "scheduler: put reinvocation target")
	}

	s.logger.Debug("reinvocation scheduled",
		"rule_name", ruleName,
		"action", string(input.Action),
		"delay_seconds", input.DelaySeconds,
	)
	return nil
}

// CleanupEvents removes the one-shot rule and target left behind by a prior
// remote reinvocation.
func (s *CloudWatchScheduler) CleanupEvents(ctx context.Context, ruleName string, targetID string) error {
	if s == nil || s.client == nil {
		return nil
	}
	if targetID != "" {
		_, err := s.client.RemoveTargets(ctx, &cloudwatchevents.RemoveTargetsInput{
			Rule: aws.String(ruleName),
			Ids:  []string{targetID},
		})
		if err != nil {
			return schedulerWrapInternal(err, "scheduler: remove reinvocation target")
		}
	}
	_, err := s.client.DeleteRule(ctx, &cloudwatchevents.DeleteRuleInput{
		Name: aws.String(ruleName),
	})
	if err != nil {
		return schedulerWrapInternal(err, "scheduler: delete reinvocation rule")
	}
	return nil
}

// CronExpression renders a one-shot cron schedule for the given minute.
// CloudWatch Events cron has minute granularity, so seconds are dropped.
func CronExpression(at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("cron(%d %d %d %d ? %d)",
		at.Minute(), at.Hour(), at.Day(), int(at.Month()), at.Year())
}

var (
	_ core.CallbackScheduler   = (*CloudWatchScheduler)(nil)
	_ core.ReinvocationJanitor = (*CloudWatchScheduler)(nil)
)
