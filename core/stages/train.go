package stages

import (
	"context"
	"errors"

	"churn-orchestrator/core/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
)

// SageMakerTrainingAPI is the subset of the SageMaker API the adapter uses
type SageMakerTrainingAPI interface {
	CreateTrainingJob(ctx context.Context, params *sagemaker.CreateTrainingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateTrainingJobOutput, error)
	DescribeTrainingJob(ctx context.Context, params *sagemaker.DescribeTrainingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeTrainingJobOutput, error)
}

// TrainAdapter runs the training stage as a SageMaker training job that
// reads the feature table and writes the model artifact.
type TrainAdapter struct {
	client        SageMakerTrainingAPI
	trainingImage string
	roleARN       string
	outputURI     string
}

// NewTrainAdapter creates a new training stage adapter
func NewTrainAdapter(client SageMakerTrainingAPI, trainingImage, roleARN, outputURI string) *TrainAdapter {
	return &TrainAdapter{
		client:        client,
		trainingImage: trainingImage,
		roleARN:       roleARN,
		outputURI:     outputURI,
	}
}

// Stage returns the train stage tag
func (a *TrainAdapter) Stage() models.Stage {
	return models.StageTrain
}

// Submit creates the training job. SageMaker keys idempotency on the job
// name, so the token doubles as the name: a duplicate-name conflict means
// the job from an earlier attempt already exists and its ref is returned.
func (a *TrainAdapter) Submit(ctx context.Context, input models.StageOutput, token string) (models.JobRef, error) {
	_, err := a.client.CreateTrainingJob(ctx, &sagemaker.CreateTrainingJobInput{
		TrainingJobName: aws.String(token),
		RoleArn:         aws.String(a.roleARN),
		AlgorithmSpecification: &types.AlgorithmSpecification{
			TrainingImage:     aws.String(a.trainingImage),
			TrainingInputMode: types.TrainingInputModeFile,
		},
		InputDataConfig: []types.Channel{
			{
				ChannelName: aws.String("training"),
				ContentType: aws.String("text/csv"),
				DataSource: &types.DataSource{
					S3DataSource: &types.S3DataSource{
						S3DataType:             types.S3DataTypeS3Prefix,
						S3Uri:                  aws.String(input.URI),
						S3DataDistributionType: types.S3DataDistributionFullyReplicated,
					},
				},
			},
		},
		OutputDataConfig: &types.OutputDataConfig{
			S3OutputPath: aws.String(a.outputURI),
		},
		ResourceConfig: &types.ResourceConfig{
			InstanceCount:  aws.Int32(1),
			InstanceType:   types.TrainingInstanceTypeMlM4Xlarge,
			VolumeSizeInGB: aws.Int32(10),
		},
		StoppingCondition: &types.StoppingCondition{
			MaxRuntimeInSeconds: aws.Int32(24 * 60 * 60),
		},
	})
	if err != nil && !isResourceInUse(err) {
		return models.JobRef{}, err
	}

	return models.JobRef{ID: token, Stage: models.StageTrain}, nil
}

// Describe returns the training job's native status string
func (a *TrainAdapter) Describe(ctx context.Context, ref models.JobRef) (string, error) {
	out, err := a.client.DescribeTrainingJob(ctx, &sagemaker.DescribeTrainingJobInput{
		TrainingJobName: aws.String(ref.ID),
	})
	if err != nil {
		return "", err
	}
	return string(out.TrainingJobStatus), nil
}

// InterpretStatus maps SageMaker training job statuses onto the job status
// enum. InProgress, Stopping and anything unrecognized map to running.
func (a *TrainAdapter) InterpretStatus(raw string) models.JobStatus {
	switch raw {
	case "Completed":
		return models.JobStatusSucceeded
	case "Failed", "Stopped":
		return models.JobStatusFailed
	default:
		return models.JobStatusRunning
	}
}

// OutputLocation returns the model artifact location
func (a *TrainAdapter) OutputLocation() models.StageOutput {
	return models.StageOutput{URI: a.outputURI}
}

// isResourceInUse reports whether the engine rejected a create call because
// a resource with the same name already exists
func isResourceInUse(err error) bool {
	var inUse *types.ResourceInUse
	return errors.As(err, &inUse)
}
