package sqs

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/iyhunko/marketplace-items/internal/config"
)

// NewClient creates an SQS client for the configured region.
// A non-empty endpoint (LocalStack in development) replaces the AWS endpoint resolution.
func NewClient(ctx context.Context, conf config.AWSConfig) (*sqs.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(conf.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
		}
	}), nil
}

// NewItemPublisher wires a Publisher for item notifications.
// It returns nil when no queue is configured, which disables notifications.
func NewItemPublisher(ctx context.Context, conf config.AWSConfig) (*Publisher, error) {
	if !conf.NotificationsEnabled() {
		return nil, nil
	}
	client, err := NewClient(ctx, conf)
	if err != nil {
		return nil, err
	}
	return NewPublisher(client, conf.SQSQueueURL), nil
}
