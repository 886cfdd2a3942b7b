package stages

import (
	"context"
	"testing"

	"churn-orchestrator/core/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSageMakerTransform struct {
	modelInputs     []*sagemaker.CreateModelInput
	transformInputs []*sagemaker.CreateTransformJobInput
	status          types.TransformJobStatus
}

func (f *fakeSageMakerTransform) CreateModel(ctx context.Context, params *sagemaker.CreateModelInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateModelOutput, error) {
	for _, existing := range f.modelInputs {
		if aws.ToString(existing.ModelName) == aws.ToString(params.ModelName) {
			return nil, &types.ResourceInUse{Message: aws.String("model already exists")}
		}
	}
	f.modelInputs = append(f.modelInputs, params)
	return &sagemaker.CreateModelOutput{}, nil
}

func (f *fakeSageMakerTransform) CreateTransformJob(ctx context.Context, params *sagemaker.CreateTransformJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateTransformJobOutput, error) {
	for _, existing := range f.transformInputs {
		if aws.ToString(existing.TransformJobName) == aws.ToString(params.TransformJobName) {
			return nil, &types.ResourceInUse{Message: aws.String("transform job already exists")}
		}
	}
	f.transformInputs = append(f.transformInputs, params)
	return &sagemaker.CreateTransformJobOutput{}, nil
}

func (f *fakeSageMakerTransform) DescribeTransformJob(ctx context.Context, params *sagemaker.DescribeTransformJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeTransformJobOutput, error) {
	return &sagemaker.DescribeTransformJobOutput{TransformJobStatus: f.status}, nil
}

func newTestInferAdapter(client SageMakerTransformAPI) *InferAdapter {
	return NewInferAdapter(client, "infer-image", "arn:aws:iam::123:role/sm", "CustomerChurn", "s3://b/holdout", "s3://b/predictions")
}

func TestInferSubmitRegistersModelAndTransform(t *testing.T) {
	client := &fakeSageMakerTransform{}
	adapter := newTestInferAdapter(client)

	ref, err := adapter.Submit(context.Background(), models.StageOutput{URI: "s3://b/model/model.tar.gz"}, "churn-infer-run-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobRef{ID: "churn-infer-run-1", Stage: models.StageInfer}, ref)

	require.Len(t, client.modelInputs, 1)
	model := client.modelInputs[0]
	assert.Equal(t, "CustomerChurn-churn-infer-run-1", aws.ToString(model.ModelName))
	assert.Equal(t, "s3://b/model/model.tar.gz", aws.ToString(model.PrimaryContainer.ModelDataUrl))
	assert.Equal(t, "infer-image", aws.ToString(model.PrimaryContainer.Image))

	require.Len(t, client.transformInputs, 1)
	transform := client.transformInputs[0]
	assert.Equal(t, "churn-infer-run-1", aws.ToString(transform.TransformJobName))
	assert.Equal(t, "CustomerChurn-churn-infer-run-1", aws.ToString(transform.ModelName))
	assert.Equal(t, "s3://b/holdout", aws.ToString(transform.TransformInput.DataSource.S3DataSource.S3Uri))
	assert.Equal(t, "s3://b/predictions", aws.ToString(transform.TransformOutput.S3OutputPath))
}

func TestInferSubmitIsIdempotent(t *testing.T) {
	client := &fakeSageMakerTransform{}
	adapter := newTestInferAdapter(client)

	first, err := adapter.Submit(context.Background(), models.StageOutput{URI: "s3://b/model/model.tar.gz"}, "churn-infer-run-1")
	require.NoError(t, err)

	second, err := adapter.Submit(context.Background(), models.StageOutput{URI: "s3://b/model/model.tar.gz"}, "churn-infer-run-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, client.modelInputs, 1)
	assert.Len(t, client.transformInputs, 1)
}

func TestInferDescribeReturnsNativeStatus(t *testing.T) {
	client := &fakeSageMakerTransform{status: types.TransformJobStatusFailed}
	adapter := newTestInferAdapter(client)

	raw, err := adapter.Describe(context.Background(), models.JobRef{ID: "churn-infer-run-1", Stage: models.StageInfer})
	require.NoError(t, err)
	assert.Equal(t, "Failed", raw)
}
