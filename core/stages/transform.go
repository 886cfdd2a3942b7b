package stages

import (
	"context"

	"churn-orchestrator/core/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
)

// SageMakerTransformAPI is the subset of the SageMaker API the adapter uses
type SageMakerTransformAPI interface {
	CreateModel(ctx context.Context, params *sagemaker.CreateModelInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateModelOutput, error)
	CreateTransformJob(ctx context.Context, params *sagemaker.CreateTransformJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateTransformJobOutput, error)
	DescribeTransformJob(ctx context.Context, params *sagemaker.DescribeTransformJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeTransformJobOutput, error)
}

// inferenceContainerEnv tells the serving container where the inference
// code lives inside the model artifact
var inferenceContainerEnv = map[string]string{
	"SAGEMAKER_SUBMIT_DIRECTORY": "/opt/ml/model/",
	"SAGEMAKER_PROGRAM":          "sagemaker_serve.py",
}

// InferAdapter runs the inference stage as a SageMaker batch transform job
// that scores the holdout feature set with the trained model and writes the
// prediction artifact.
type InferAdapter struct {
	client         SageMakerTransformAPI
	inferenceImage string
	roleARN        string
	modelName      string
	holdoutURI     string
	outputURI      string
}

// NewInferAdapter creates a new inference stage adapter
func NewInferAdapter(client SageMakerTransformAPI, inferenceImage, roleARN, modelName, holdoutURI, outputURI string) *InferAdapter {
	return &InferAdapter{
		client:         client,
		inferenceImage: inferenceImage,
		roleARN:        roleARN,
		modelName:      modelName,
		holdoutURI:     holdoutURI,
		outputURI:      outputURI,
	}
}

// Stage returns the infer stage tag
func (a *InferAdapter) Stage() models.Stage {
	return models.StageInfer
}

// Submit registers a model over the training stage's artifact, then starts
// the batch transform over the holdout set. Both creates key idempotency on
// names derived from the token, so duplicate-name conflicts short-circuit
// to the already-created resources.
func (a *InferAdapter) Submit(ctx context.Context, input models.StageOutput, token string) (models.JobRef, error) {
	modelName := a.modelName + "-" + token

	_, err := a.client.CreateModel(ctx, &sagemaker.CreateModelInput{
		ModelName:        aws.String(modelName),
		ExecutionRoleArn: aws.String(a.roleARN),
		PrimaryContainer: &types.ContainerDefinition{
			Image:        aws.String(a.inferenceImage),
			ModelDataUrl: aws.String(input.URI),
			Environment:  inferenceContainerEnv,
		},
	})
	if err != nil && !isResourceInUse(err) {
		return models.JobRef{}, err
	}

	_, err = a.client.CreateTransformJob(ctx, &sagemaker.CreateTransformJobInput{
		TransformJobName: aws.String(token),
		ModelName:        aws.String(modelName),
		TransformInput: &types.TransformInput{
			ContentType: aws.String("application/x-parquet"),
			DataSource: &types.TransformDataSource{
				S3DataSource: &types.TransformS3DataSource{
					S3DataType: types.S3DataTypeS3Prefix,
					S3Uri:      aws.String(a.holdoutURI),
				},
			},
		},
		TransformOutput: &types.TransformOutput{
			S3OutputPath: aws.String(a.outputURI),
		},
		TransformResources: &types.TransformResources{
			InstanceCount: aws.Int32(1),
			InstanceType:  types.TransformInstanceTypeMlM4Xlarge,
		},
	})
	if err != nil && !isResourceInUse(err) {
		return models.JobRef{}, err
	}

	return models.JobRef{ID: token, Stage: models.StageInfer}, nil
}

// Describe returns the transform job's native status string
func (a *InferAdapter) Describe(ctx context.Context, ref models.JobRef) (string, error) {
	out, err := a.client.DescribeTransformJob(ctx, &sagemaker.DescribeTransformJobInput{
		TransformJobName: aws.String(ref.ID),
	})
	if err != nil {
		return "", err
	}
	return string(out.TransformJobStatus), nil
}

// InterpretStatus maps SageMaker transform job statuses onto the job
// status enum
func (a *InferAdapter) InterpretStatus(raw string) models.JobStatus {
	switch raw {
	case "Completed":
		return models.JobStatusSucceeded
	case "Failed", "Stopped":
		return models.JobStatusFailed
	default:
		return models.JobStatusRunning
	}
}

// OutputLocation returns the prediction artifact location
func (a *InferAdapter) OutputLocation() models.StageOutput {
	return models.StageOutput{URI: a.outputURI}
}
