package core

import (
	"context"
	"time"
)

type NopMetricsPublisher struct{}

func (NopMetricsPublisher) PublishExceptionMetric(context.Context, Action, error) {}

func (NopMetricsPublisher) PublishInvocationMetric(context.Context, Action) {}

func (NopMetricsPublisher) PublishDurationMetric(context.Context, Action, time.Duration) {}

var _ MetricsPublisher = NopMetricsPublisher{}
