package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchevents"

	"github.com/goliatone/go-resource-provider/core"
)

type stubEventsClient struct {
	putRules      []*cloudwatchevents.PutRuleInput
	putTargets    []*cloudwatchevents.PutTargetsInput
	removeTargets []*cloudwatchevents.RemoveTargetsInput
	deleteRules   []*cloudwatchevents.DeleteRuleInput
	failPutRule   error
	failTargets   error
}

func (s *stubEventsClient) PutRule(_ context.Context, params *cloudwatchevents.PutRuleInput, _ ...func(*cloudwatchevents.Options)) (*cloudwatchevents.PutRuleOutput, error) {
	s.putRules = append(s.putRules, params)
	if s.failPutRule != nil {
		return nil, s.failPutRule
	}
	return &cloudwatchevents.PutRuleOutput{}, nil
}

func (s *stubEventsClient) PutTargets(_ context.Context, params *cloudwatchevents.PutTargetsInput, _ ...func(*cloudwatchevents.Options)) (*cloudwatchevents.PutTargetsOutput, error) {
	s.putTargets = append(s.putTargets, params)
	if s.failTargets != nil {
		return nil, s.failTargets
	}
	return &cloudwatchevents.PutTargetsOutput{}, nil
}

func (s *stubEventsClient) RemoveTargets(_ context.Context, params *cloudwatchevents.RemoveTargetsInput, _ ...func(*cloudwatchevents.Options)) (*cloudwatchevents.RemoveTargetsOutput, error) {
	s.removeTargets = append(s.removeTargets, params)
	return &cloudwatchevents.RemoveTargetsOutput{}, nil
}

func (s *stubEventsClient) DeleteRule(_ context.Context, params *cloudwatchevents.DeleteRuleInput, _ ...func(*cloudwatchevents.Options)) (*cloudwatchevents.DeleteRuleOutput, error) {
	s.deleteRules = append(s.deleteRules, params)
	return &cloudwatchevents.DeleteRuleOutput{}, nil
}

func scheduleInput() core.ScheduleInput {
	return core.ScheduleInput{
		Request: &core.InvocationRequest{
			AWSAccountID: "123456789012",
			BearerToken:  "bearer-123",
			Region:       "us-east-1",
			Action:       "CREATE",
		},
		Action:          core.ActionCreate,
		CallbackContext: map[string]any{"phase": "waiting"},
		DelaySeconds:    120,
	}
}

func TestScheduleRemoteCreatesRuleAndTarget(t *testing.T) {
	stub := &stubEventsClient{}
	fixed := time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC)
	scheduler := NewCloudWatchScheduler(stub, "arn:aws:lambda:us-east-1:123456789012:function:handler",
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(func() string { return "abc123" }),
	)

	if err := scheduler.ScheduleReinvocation(context.Background(), scheduleInput()); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if len(stub.putRules) != 1 || len(stub.putTargets) != 1 {
		t.Fatalf("expected one rule and one target, got %d/%d", len(stub.putRules), len(stub.putTargets))
	}
	rule := stub.putRules[0]
	if aws.ToString(rule.Name) != "reinvoke-abc123" {
		t.Fatalf("unexpected rule name %q", aws.ToString(rule.Name))
	}
	if aws.ToString(rule.ScheduleExpression) != "cron(2 12 1 6 ? 2025)" {
		t.Fatalf("unexpected schedule %q", aws.ToString(rule.ScheduleExpression))
	}

	target := stub.putTargets[0].Targets[0]
	if aws.ToString(target.Id) != "reinvoke-abc123-target" {
		t.Fatalf("unexpected target id %q", aws.ToString(target.Id))
	}

	var request core.InvocationRequest
	if err := json.Unmarshal([]byte(aws.ToString(target.Input)), &request); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if request.RequestContext[ContextKeyRuleName] != "reinvoke-abc123" {
		t.Fatalf("expected rule name in payload context, got %#v", request.RequestContext)
	}
	if request.RequestContext[ContextKeyTargetID] != "reinvoke-abc123-target" {
		t.Fatalf("expected target id in payload context, got %#v", request.RequestContext)
	}
	if request.BearerToken != "bearer-123" {
		t.Fatalf("expected original request in payload, got %#v", request)
	}
}

func TestScheduleRemoteDoesNotMutateOriginalRequest(t *testing.T) {
	stub := &stubEventsClient{}
	scheduler := NewCloudWatchScheduler(stub, "arn:fn")

	input := scheduleInput()
	if err := scheduler.ScheduleReinvocation(context.Background(), input); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if input.Request.RequestContext != nil {
		t.Fatalf("original request context must stay untouched, got %#v", input.Request.RequestContext)
	}
}

func TestSchedulePutRuleFailurePropagates(t *testing.T) {
	stub := &stubEventsClient{failPutRule: errors.New("events down")}
	scheduler := NewCloudWatchScheduler(stub, "arn:fn")

	if err := scheduler.ScheduleReinvocation(context.Background(), scheduleInput()); err == nil {
		t.Fatalf("expected error")
	}
	if len(stub.putTargets) != 0 {
		t.Fatalf("expected no target call after rule failure")
	}
}

func TestScheduleLocalBelowThreshold(t *testing.T) {
	stub := &stubEventsClient{}
	var (
		mu      sync.Mutex
		payload []byte
	)
	done := make(chan struct{})
	scheduler := NewCloudWatchScheduler(stub, "arn:fn",
		WithLocalInvoker(func(_ context.Context, body []byte) {
			mu.Lock()
			payload = body
			mu.Unlock()
			close(done)
		}, time.Minute),
	)

	input := scheduleInput()
	input.DelaySeconds = 0
	if err := scheduler.ScheduleReinvocation(context.Background(), input); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("local invoker was not called")
	}

	mu.Lock()
	defer mu.Unlock()
	var request core.InvocationRequest
	if err := json.Unmarshal(payload, &request); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if request.BearerToken != "bearer-123" {
		t.Fatalf("unexpected payload %#v", request)
	}
	if len(stub.putRules) != 0 {
		t.Fatalf("local path must not touch the events api")
	}
}

func TestScheduleAtThresholdGoesRemote(t *testing.T) {
	stub := &stubEventsClient{}
	scheduler := NewCloudWatchScheduler(stub, "arn:fn",
		WithLocalInvoker(func(context.Context, []byte) {
			t.Fatal("local invoker must not run at the threshold")
		}, time.Minute),
	)

	input := scheduleInput()
	input.DelaySeconds = 60
	if err := scheduler.ScheduleReinvocation(context.Background(), input); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(stub.putRules) != 1 {
		t.Fatalf("expected remote scheduling, got %d rules", len(stub.putRules))
	}
}

func TestCleanupEventsRemovesTargetThenRule(t *testing.T) {
	stub := &stubEventsClient{}
	scheduler := NewCloudWatchScheduler(stub, "arn:fn")

	err := scheduler.CleanupEvents(context.Background(), "reinvoke-abc123", "reinvoke-abc123-target")
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if len(stub.removeTargets) != 1 || len(stub.deleteRules) != 1 {
		t.Fatalf("expected one remove and one delete, got %d/%d",
			len(stub.removeTargets), len(stub.deleteRules))
	}
	if aws.ToString(stub.deleteRules[0].Name) != "reinvoke-abc123" {
		t.Fatalf("unexpected rule %q", aws.ToString(stub.deleteRules[0].Name))
	}
	if stub.removeTargets[0].Ids[0] != "reinvoke-abc123-target" {
		t.Fatalf("unexpected target %q", stub.removeTargets[0].Ids[0])
	}
}

func TestCleanupEventsWithoutTargetSkipsRemove(t *testing.T) {
	stub := &stubEventsClient{}
	scheduler := NewCloudWatchScheduler(stub, "arn:fn")

	if err := scheduler.CleanupEvents(context.Background(), "reinvoke-abc123", ""); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if len(stub.removeTargets) != 0 {
		t.Fatalf("expected no remove call without a target id")
	}
	if len(stub.deleteRules) != 1 {
		t.Fatalf("expected rule deletion")
	}
}

func TestCronExpressionDropsSeconds(t *testing.T) {
	at := time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)
	if got := CronExpression(at); got != "cron(59 23 31 12 ? 2025)" {
		t.Fatalf("unexpected cron %q", got)
	}
}
