package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/goliatone/go-resource-provider/core"
)

type stubCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	fail   error
}

func (s *stubCloudWatch) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	s.inputs = append(s.inputs, params)
	if s.fail != nil {
		return nil, s.fail
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func dimensionValue(datum cwtypes.MetricDatum, name string) string {
	for _, dimension := range datum.Dimensions {
		if aws.ToString(dimension.Name) == name {
			return aws.ToString(dimension.Value)
		}
	}
	return ""
}

func TestNamespaceFlattensResourceType(t *testing.T) {
	cases := []struct {
		prefix       string
		resourceType string
		want         string
	}{
		{"", "Acme::Storage::Bucket", "Acme/Storage/Bucket"},
		{"Providers", "Acme::Storage::Bucket", "Providers/Acme/Storage/Bucket"},
		{"Providers/", "Acme::Storage::Bucket", "Providers/Acme/Storage/Bucket"},
		{"Providers", "", "Providers"},
	}
	for _, tc := range cases {
		if got := Namespace(tc.prefix, tc.resourceType); got != tc.want {
			t.Fatalf("Namespace(%q, %q) = %q, want %q", tc.prefix, tc.resourceType, got, tc.want)
		}
	}
}

func TestPublishInvocationMetric(t *testing.T) {
	stub := &stubCloudWatch{}
	publisher := NewCloudWatchPublisher(stub, "", "Acme::Storage::Bucket")

	publisher.PublishInvocationMetric(context.Background(), core.ActionCreate)

	if len(stub.inputs) != 1 {
		t.Fatalf("expected one call, got %d", len(stub.inputs))
	}
	input := stub.inputs[0]
	if aws.ToString(input.Namespace) != "Acme/Storage/Bucket" {
		t.Fatalf("unexpected namespace %q", aws.ToString(input.Namespace))
	}
	if len(input.MetricData) != 1 {
		t.Fatalf("expected one datum, got %d", len(input.MetricData))
	}
	datum := input.MetricData[0]
	if aws.ToString(datum.MetricName) != "HandlerInvocationCount" {
		t.Fatalf("unexpected metric %q", aws.ToString(datum.MetricName))
	}
	if dimensionValue(datum, "Action") != "CREATE" {
		t.Fatalf("expected CREATE dimension, got %q", dimensionValue(datum, "Action"))
	}
	if dimensionValue(datum, "ResourceType") != "Acme::Storage::Bucket" {
		t.Fatalf("unexpected resource type dimension")
	}
}

func TestPublishExceptionMetricUsesTaxonomyCode(t *testing.T) {
	stub := &stubCloudWatch{}
	publisher := NewCloudWatchPublisher(stub, "", "Acme::Storage::Bucket")

	publisher.PublishExceptionMetric(context.Background(), core.ActionDelete,
		core.NewProviderError(core.ErrorCodeNotFound, "gone"))

	datum := stub.inputs[0].MetricData[0]
	if aws.ToString(datum.MetricName) != "HandlerException" {
		t.Fatalf("unexpected metric %q", aws.ToString(datum.MetricName))
	}
	if dimensionValue(datum, "ExceptionType") != "NotFound" {
		t.Fatalf("expected NotFound exception type, got %q", dimensionValue(datum, "ExceptionType"))
	}
}

func TestPublishExceptionMetricCollapsesUnknownErrors(t *testing.T) {
	stub := &stubCloudWatch{}
	publisher := NewCloudWatchPublisher(stub, "", "Acme::Storage::Bucket")

	publisher.PublishExceptionMetric(context.Background(), core.ActionCreate, errors.New("boom"))

	datum := stub.inputs[0].MetricData[0]
	if dimensionValue(datum, "ExceptionType") != "InternalFailure" {
		t.Fatalf("expected InternalFailure, got %q", dimensionValue(datum, "ExceptionType"))
	}
}

func TestPublishDurationMetricInMilliseconds(t *testing.T) {
	stub := &stubCloudWatch{}
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	publisher := NewCloudWatchPublisher(stub, "", "Acme::Storage::Bucket",
		WithClock(func() time.Time { return fixed }))

	publisher.PublishDurationMetric(context.Background(), core.ActionUpdate, 1500*time.Millisecond)

	datum := stub.inputs[0].MetricData[0]
	if datum.Unit != cwtypes.StandardUnitMilliseconds {
		t.Fatalf("expected milliseconds unit, got %q", datum.Unit)
	}
	if aws.ToFloat64(datum.Value) != 1500 {
		t.Fatalf("expected 1500, got %v", aws.ToFloat64(datum.Value))
	}
	if !aws.ToTime(datum.Timestamp).Equal(fixed) {
		t.Fatalf("expected injected timestamp, got %v", aws.ToTime(datum.Timestamp))
	}
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	stub := &stubCloudWatch{fail: errors.New("throttled")}
	publisher := NewCloudWatchPublisher(stub, "", "Acme::Storage::Bucket")

	publisher.PublishInvocationMetric(context.Background(), core.ActionCreate)
	if len(stub.inputs) != 1 {
		t.Fatalf("expected attempted publish, got %d", len(stub.inputs))
	}
}

func TestNilClientIsNoOp(t *testing.T) {
	publisher := NewCloudWatchPublisher(nil, "", "Acme::Storage::Bucket")
	publisher.PublishInvocationMetric(context.Background(), core.ActionCreate)
	publisher.PublishExceptionMetric(context.Background(), core.ActionCreate, errors.New("x"))
	publisher.PublishDurationMetric(context.Background(), core.ActionCreate, time.Second)
}
