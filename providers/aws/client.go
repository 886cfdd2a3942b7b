package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/emrserverless"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
)

// Client bundles the AWS service clients the pipeline talks to
type Client struct {
	EMR       *emrserverless.Client
	SageMaker *sagemaker.Client
	S3        *s3.Client
}

// NewClient creates a new AWS client for the given region
func NewClient(ctx context.Context, region string) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return &Client{
		EMR:       emrserverless.NewFromConfig(cfg),
		SageMaker: sagemaker.NewFromConfig(cfg),
		S3:        s3.NewFromConfig(cfg),
	}, nil
}
