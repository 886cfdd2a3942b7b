package stages

import (
	"context"
	"fmt"

	"churn-orchestrator/core/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/emrserverless"
	"github.com/aws/aws-sdk-go-v2/service/emrserverless/types"
)

// sparkSubmitParameters pins the Spark jobs to the packaged Python environment
const sparkSubmitParameters = "--conf spark.emr-serverless.driverEnv.PYSPARK_DRIVER_PYTHON=./environment/bin/python" +
	" --conf spark.emr-serverless.driverEnv.PYSPARK_PYTHON=./environment/bin/python" +
	" --conf spark.executorEnv.PYSPARK_PYTHON=./environment/bin/python"

// EMRJobsAPI is the subset of the EMR Serverless API the adapter uses
type EMRJobsAPI interface {
	StartJobRun(ctx context.Context, params *emrserverless.StartJobRunInput, optFns ...func(*emrserverless.Options)) (*emrserverless.StartJobRunOutput, error)
	GetJobRun(ctx context.Context, params *emrserverless.GetJobRunInput, optFns ...func(*emrserverless.Options)) (*emrserverless.GetJobRunOutput, error)
}

// PreprocessAdapter runs the preprocessing stage as an EMR Serverless Spark
// job that reads the raw dataset and writes the cleaned feature table.
type PreprocessAdapter struct {
	client        EMRJobsAPI
	applicationID string
	executionRole string
	entryPoint    string
	outputURI     string
}

// NewPreprocessAdapter creates a new preprocessing stage adapter
func NewPreprocessAdapter(client EMRJobsAPI, applicationID, executionRole, entryPoint, outputURI string) *PreprocessAdapter {
	return &PreprocessAdapter{
		client:        client,
		applicationID: applicationID,
		executionRole: executionRole,
		entryPoint:    entryPoint,
		outputURI:     outputURI,
	}
}

// Stage returns the preprocess stage tag
func (a *PreprocessAdapter) Stage() models.Stage {
	return models.StagePreprocess
}

// Submit starts the Spark job run. The token is passed as the engine's
// client token, so resubmitting with the same token returns the original
// job instead of creating a duplicate.
func (a *PreprocessAdapter) Submit(ctx context.Context, input models.StageOutput, token string) (models.JobRef, error) {
	out, err := a.client.StartJobRun(ctx, &emrserverless.StartJobRunInput{
		ApplicationId:    aws.String(a.applicationID),
		ClientToken:      aws.String(token),
		ExecutionRoleArn: aws.String(a.executionRole),
		Name:             aws.String("PreprocessingJob"),
		JobDriver: &types.JobDriverMemberSparkSubmit{
			Value: types.SparkSubmit{
				EntryPoint:            aws.String(a.entryPoint),
				EntryPointArguments:   []string{input.URI, a.outputURI},
				SparkSubmitParameters: aws.String(sparkSubmitParameters),
			},
		},
	})
	if err != nil {
		return models.JobRef{}, err
	}

	return models.JobRef{ID: aws.ToString(out.JobRunId), Stage: models.StagePreprocess}, nil
}

// Describe returns the job run's native state string
func (a *PreprocessAdapter) Describe(ctx context.Context, ref models.JobRef) (string, error) {
	out, err := a.client.GetJobRun(ctx, &emrserverless.GetJobRunInput{
		ApplicationId: aws.String(a.applicationID),
		JobRunId:      aws.String(ref.ID),
	})
	if err != nil {
		return "", err
	}
	if out.JobRun == nil {
		return "", fmt.Errorf("job run %s not found", ref.ID)
	}
	return string(out.JobRun.State), nil
}

// InterpretStatus maps EMR Serverless job run states onto the job status
// enum. Intermediate states (SUBMITTED, PENDING, SCHEDULED, RUNNING, ...)
// all map to running.
func (a *PreprocessAdapter) InterpretStatus(raw string) models.JobStatus {
	switch raw {
	case "SUCCESS":
		return models.JobStatusSucceeded
	case "FAILED", "CANCELLED":
		return models.JobStatusFailed
	default:
		return models.JobStatusRunning
	}
}

// OutputLocation returns the feature table location
func (a *PreprocessAdapter) OutputLocation() models.StageOutput {
	return models.StageOutput{URI: a.outputURI}
}
