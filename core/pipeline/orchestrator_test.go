package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"churn-orchestrator/core/models"
	"churn-orchestrator/core/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter is a scriptable stage adapter for orchestrator tests
type fakeAdapter struct {
	stage       models.Stage
	output      models.StageOutput
	submitErr   error
	rawStatuses []string // Describe returns these in order; the last repeats

	mu           sync.Mutex
	submitCalls  int
	submitInputs []models.StageOutput
	submitTokens []string
	describeIdx  int
}

func (f *fakeAdapter) Stage() models.Stage { return f.stage }

func (f *fakeAdapter) Submit(ctx context.Context, input models.StageOutput, token string) (models.JobRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	f.submitInputs = append(f.submitInputs, input)
	f.submitTokens = append(f.submitTokens, token)
	if f.submitErr != nil {
		return models.JobRef{}, f.submitErr
	}
	return models.JobRef{ID: string(f.stage) + "-job", Stage: f.stage}, nil
}

func (f *fakeAdapter) Describe(ctx context.Context, ref models.JobRef) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw := f.rawStatuses[f.describeIdx]
	if f.describeIdx < len(f.rawStatuses)-1 {
		f.describeIdx++
	}
	return raw, nil
}

func (f *fakeAdapter) InterpretStatus(raw string) models.JobStatus {
	switch raw {
	case "success":
		return models.JobStatusSucceeded
	case "failed":
		return models.JobStatusFailed
	default:
		return models.JobStatusRunning
	}
}

func (f *fakeAdapter) OutputLocation() models.StageOutput { return f.output }

// fakeRunStore records state transitions without a database
type fakeRunStore struct {
	mu          sync.Mutex
	stages      []models.Stage
	stageJobs   map[models.Stage]string
	completed   bool
	eventsSent  int
	failedStage models.Stage
	failReason  string
}

func newFakeRunStore() *fakeRunStore {
	return &fakeRunStore{stageJobs: map[models.Stage]string{}}
}

func (s *fakeRunStore) UpdateRunStatus(runID string, from, to models.RunStatus, stage models.Stage, reason string) error {
	return nil
}

func (s *fakeRunStore) SetCurrentStage(runID string, stage models.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = append(s.stages, stage)
	return nil
}

func (s *fakeRunStore) RecordStageJob(runID string, stage models.Stage, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stageJobs[stage] = jobID
	return nil
}

func (s *fakeRunStore) CompleteRun(runID string, eventsSent int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = true
	s.eventsSent = eventsSent
	return nil
}

func (s *fakeRunStore) FailRun(runID string, stage models.Stage, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedStage = stage
	s.failReason = reason
	return nil
}

type fakeArtifactStore struct {
	mu   sync.Mutex
	uris map[models.ArtifactType]string
}

func newFakeArtifactStore() *fakeArtifactStore {
	return &fakeArtifactStore{uris: map[models.ArtifactType]string{}}
}

func (s *fakeArtifactStore) CreateArtifact(runID string, artifactType models.ArtifactType, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uris[artifactType] = uri
	return nil
}

type fakeNotifier struct {
	summary    notify.Summary
	err        error
	calls      int
	lastOutput models.StageOutput
}

func (n *fakeNotifier) Dispatch(ctx context.Context, output models.StageOutput) (notify.Summary, error) {
	n.calls++
	n.lastOutput = output
	return n.summary, n.err
}

func succeedingAdapters() (*fakeAdapter, *fakeAdapter, *fakeAdapter) {
	pre := &fakeAdapter{stage: models.StagePreprocess, output: models.StageOutput{URI: "s3://b/features"}, rawStatuses: []string{"pending", "success"}}
	train := &fakeAdapter{stage: models.StageTrain, output: models.StageOutput{URI: "s3://b/model"}, rawStatuses: []string{"success"}}
	infer := &fakeAdapter{stage: models.StageInfer, output: models.StageOutput{URI: "s3://b/predictions"}, rawStatuses: []string{"success"}}
	return pre, train, infer
}

func newTestOrchestrator(adapters []StageAdapter, runs RunStore, artifacts ArtifactStore, notifier ResultNotifier) *Orchestrator {
	return NewOrchestrator(adapters, runs, artifacts, notifier, time.Millisecond, 5, time.Minute)
}

func testRun() *models.PipelineRun {
	return &models.PipelineRun{
		ID:       "run-1",
		InputURI: "s3://b/raw",
		Status:   models.RunStatusPending,
	}
}

func TestExecuteRunsStagesInOrderAndThreadsOutputs(t *testing.T) {
	pre, train, infer := succeedingAdapters()
	runs := newFakeRunStore()
	artifacts := newFakeArtifactStore()
	notifier := &fakeNotifier{summary: notify.Summary{Total: 2, Sent: 2}}

	o := newTestOrchestrator([]StageAdapter{pre, train, infer}, runs, artifacts, notifier)
	run := testRun()

	require.NoError(t, o.Execute(context.Background(), run))

	// Each stage received the previous stage's output.
	assert.Equal(t, []models.StageOutput{{URI: "s3://b/raw"}}, pre.submitInputs)
	assert.Equal(t, []models.StageOutput{{URI: "s3://b/features"}}, train.submitInputs)
	assert.Equal(t, []models.StageOutput{{URI: "s3://b/model"}}, infer.submitInputs)

	// Notifier consumed the final stage's output.
	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, "s3://b/predictions", notifier.lastOutput.URI)

	assert.True(t, runs.completed)
	assert.Equal(t, 2, runs.eventsSent)
	assert.Equal(t, 2, run.EventsSent)
	assert.Equal(t, models.RunStatusSucceeded, run.Status)

	assert.Equal(t, []models.Stage{models.StagePreprocess, models.StageTrain, models.StageInfer}, runs.stages)
	assert.Equal(t, "s3://b/features", artifacts.uris[models.ArtifactTypeFeatureTable])
	assert.Equal(t, "s3://b/model", artifacts.uris[models.ArtifactTypeModel])
	assert.Equal(t, "s3://b/predictions", artifacts.uris[models.ArtifactTypePredictions])
}

func TestExecuteStageFailureShortCircuits(t *testing.T) {
	pre, train, infer := succeedingAdapters()
	train.rawStatuses = []string{"running", "failed"}
	runs := newFakeRunStore()
	notifier := &fakeNotifier{}

	o := newTestOrchestrator([]StageAdapter{pre, train, infer}, runs, newFakeArtifactStore(), notifier)
	run := testRun()

	err := o.Execute(context.Background(), run)

	var stageErr *StageFailureError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, models.StageTrain, stageErr.Stage)

	// Later stages are never submitted, notifications never dispatched.
	assert.Equal(t, 0, infer.submitCalls)
	assert.Equal(t, 0, notifier.calls)

	assert.Equal(t, models.StageTrain, runs.failedStage)
	assert.False(t, runs.completed)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Equal(t, models.StageTrain, run.FailureStage)
}

func TestExecuteSubmitErrorFailsStage(t *testing.T) {
	pre, train, infer := succeedingAdapters()
	pre.submitErr = errors.New("quota exceeded")
	runs := newFakeRunStore()

	o := newTestOrchestrator([]StageAdapter{pre, train, infer}, runs, newFakeArtifactStore(), &fakeNotifier{})

	err := o.Execute(context.Background(), testRun())

	var submitErr *SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, models.StagePreprocess, submitErr.Stage)
	assert.Equal(t, 0, train.submitCalls)
	assert.Equal(t, models.StagePreprocess, runs.failedStage)
}

func TestExecutePollTimeoutFailsStage(t *testing.T) {
	pre, train, infer := succeedingAdapters()
	pre.rawStatuses = []string{"pending"}
	runs := newFakeRunStore()

	o := newTestOrchestrator([]StageAdapter{pre, train, infer}, runs, newFakeArtifactStore(), &fakeNotifier{})

	err := o.Execute(context.Background(), testRun())

	var timeoutErr *PollTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, models.StagePreprocess, runs.failedStage)
	assert.Equal(t, 0, train.submitCalls)
}

func TestExecuteNotifierFailureDoesNotFailRun(t *testing.T) {
	pre, train, infer := succeedingAdapters()
	runs := newFakeRunStore()
	notifier := &fakeNotifier{summary: notify.Summary{Total: 3, Sent: 1, Failed: 2}, err: errors.New("2 of 3 churn events failed to dispatch")}

	o := newTestOrchestrator([]StageAdapter{pre, train, infer}, runs, newFakeArtifactStore(), notifier)
	run := testRun()

	require.NoError(t, o.Execute(context.Background(), run))
	assert.True(t, runs.completed)
	assert.Equal(t, 1, runs.eventsSent)
	assert.Equal(t, models.RunStatusSucceeded, run.Status)
}

func TestExecuteRunTimeoutTagsTimeout(t *testing.T) {
	pre, train, infer := succeedingAdapters()
	pre.rawStatuses = []string{"pending"}
	runs := newFakeRunStore()

	o := NewOrchestrator([]StageAdapter{pre, train, infer}, runs, newFakeArtifactStore(), &fakeNotifier{},
		5*time.Millisecond, 1000, 20*time.Millisecond)

	err := o.Execute(context.Background(), testRun())

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, models.StageTimeout, runs.failedStage)
	assert.Equal(t, 0, train.submitCalls)
}

func TestExecuteUsesStableIdempotencyTokens(t *testing.T) {
	pre, train, infer := succeedingAdapters()
	runs := newFakeRunStore()

	o := newTestOrchestrator([]StageAdapter{pre, train, infer}, runs, newFakeArtifactStore(), &fakeNotifier{})
	require.NoError(t, o.Execute(context.Background(), testRun()))

	assert.Equal(t, []string{"churn-preprocess-run-1"}, pre.submitTokens)
	assert.Equal(t, []string{"churn-train-run-1"}, train.submitTokens)
	assert.Equal(t, []string{"churn-infer-run-1"}, infer.submitTokens)
}
