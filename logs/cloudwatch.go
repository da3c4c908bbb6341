// Package logs prepares CloudWatch log shipping for provider invocations.
package logs

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	cwltypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	smithy "github.com/aws/smithy-go"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-resource-provider/core"
)

// API mirrors the subset of *cloudwatchlogs.Client the delivery needs.
type API interface {
	CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
}

// CloudWatchDelivery ensures the provider log group exists before handler
// output starts flowing. An already existing group is not an error.
type CloudWatchDelivery struct {
	client API
	logger core.Logger
}

type Option func(*CloudWatchDelivery)

func WithLogger(logger core.Logger) Option {
	return func(d *CloudWatchDelivery) {
		d.logger = logger
	}
}

func NewCloudWatchDelivery(client API, options ...Option) *CloudWatchDelivery {
	delivery := &CloudWatchDelivery{
		client: client,
		logger: glog.Nop(),
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(delivery)
	}
	delivery.logger = glog.Ensure(delivery.logger)
	return delivery
}

func (d *CloudWatchDelivery) Setup(ctx context.Context, accountID string, region string, logGroupName string) error {
	if d == nil || d.client == nil {
		return nil
	}
	logGroupName = strings.TrimSpace(logGroupName)
	if logGroupName == "" {
		return nil
	}
	_, err := d.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(logGroupName),
	})
	if err != nil {
		if isAlreadyExists(err) {
			return nil
		}
		return err
	}
	d.logger.Debug("log group created",
		"log_group", logGroupName,
		"account_id", accountID,
		"region", region,
	)
	return nil
}

// isAlreadyExists matches the modeled exception type and the generic API
// error shape, which some client configurations surface instead.
func isAlreadyExists(err error) bool {
	var alreadyExists *cwltypes.ResourceAlreadyExistsException
	if errors.As(err, &alreadyExists) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceAlreadyExistsException"
}

var _ core.LogDelivery = (*CloudWatchDelivery)(nil)
