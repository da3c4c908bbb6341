// Package metrics publishes handler telemetry to CloudWatch. Publisher
// failures are logged and never reach the invocation envelope.
package metrics

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-resource-provider/core"
)

const (
	metricNameHandlerException  = "HandlerException"
	metricNameHandlerInvocation = "HandlerInvocationCount"
	metricNameHandlerDuration   = "HandlerInvocationDuration"

	dimensionKeyAction        = "Action"
	dimensionKeyExceptionType = "ExceptionType"
	dimensionKeyResourceType  = "ResourceType"
)

// API mirrors the subset of *cloudwatch.Client the publisher needs, so tests
// can pass a fake.
type API interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchPublisher reports per-invocation metrics under a namespace
// derived from the resource type name.
type CloudWatchPublisher struct {
	client       API
	namespace    string
	resourceType string
	logger       core.Logger
	clock        func() time.Time
}

// Option configures a CloudWatchPublisher.
type Option func(*CloudWatchPublisher)

func WithLogger(logger core.Logger) Option {
	return func(p *CloudWatchPublisher) {
		p.logger = logger
	}
}

func WithClock(clock func() time.Time) Option {
	return func(p *CloudWatchPublisher) {
		p.clock = clock
	}
}

// NewCloudWatchPublisher builds a publisher for one resource type. The
// namespace joins the optional prefix with the resource type, with the
// type's "::" separators flattened to "/".
func NewCloudWatchPublisher(client API, namespacePrefix string, resourceType string, options ...Option) *CloudWatchPublisher {
	publisher := &CloudWatchPublisher{
		client:       client,
		namespace:    Namespace(namespacePrefix, resourceType),
		resourceType: resourceType,
		logger:       glog.Nop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(publisher)
	}
	publisher.logger = glog.Ensure(publisher.logger)
	return publisher
}

// Namespace flattens a resource type name into a CloudWatch namespace,
// prefixed when a prefix is configured.
func Namespace(prefix string, resourceType string) string {
	flattened := strings.ReplaceAll(strings.TrimSpace(resourceType), "::", "/")
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return flattened
	}
	if flattened == "" {
		return prefix
	}
	return prefix + "/" + flattened
}

func (p *CloudWatchPublisher) PublishExceptionMetric(ctx context.Context, action core.Action, err error) {
	p.publish(ctx, metricNameHandlerException, cwtypes.StandardUnitCount, 1, []cwtypes.Dimension{
		{Name: aws.String(dimensionKeyAction), Value: aws.String(string(action))},
		{Name: aws.String(dimensionKeyExceptionType), Value: aws.String(string(core.ErrorCodeFor(err)))},
		{Name: aws.String(dimensionKeyResourceType), Value: aws.String(p.resourceType)},
	})
}

func (p *CloudWatchPublisher) PublishInvocationMetric(ctx context.Context, action core.Action) {
	p.publish(ctx, metricNameHandlerInvocation, cwtypes.StandardUnitCount, 1, []cwtypes.Dimension{
		{Name: aws.String(dimensionKeyAction), Value: aws.String(string(action))},
		{Name: aws.String(dimensionKeyResourceType), Value: aws.String(p.resourceType)},
	})
}

func (p *CloudWatchPublisher) PublishDurationMetric(ctx context.Context, action core.Action, duration time.Duration) {
	p.publish(ctx, metricNameHandlerDuration, cwtypes.StandardUnitMilliseconds, float64(duration.Milliseconds()), []cwtypes.Dimension{
		{Name: aws.String(dimensionKeyAction), Value: aws.String(string(action))},
		{Name: aws.String(dimensionKeyResourceType), Value: aws.String(p.resourceType)},
	})
}

func (p *CloudWatchPublisher) publish(
	ctx context.Context,
	name string,
	unit cwtypes.StandardUnit,
	value float64,
	dimensions []cwtypes.Dimension,
) {
	if p == nil || p.client == nil {
		return
	}
	_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(p.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(name),
				Unit:       unit,
				Value:      aws.Float64(value),
				Timestamp:  aws.Time(p.clock()),
				Dimensions: dimensions,
			},
		},
	})
	if err != nil {
		p.logger.Error("metric publish failed",
			"metric", name,
			"namespace", p.namespace,
			"error", err.Error(),
		)
	}
}

var _ core.MetricsPublisher = (*CloudWatchPublisher)(nil)
