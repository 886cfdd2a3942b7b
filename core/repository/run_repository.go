package repository

import (
	"database/sql"
	"fmt"
	"time"

	"churn-orchestrator/core/models"

	"github.com/google/uuid"
)

// RunRepository handles database operations for pipeline runs
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// CreateRun creates a new run in the database
func (r *RunRepository) CreateRun(run *models.PipelineRun) error {
	query := `
		INSERT INTO runs (
			id, name, input_uri, status, spec_yaml, events_sent, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, 0, NOW(), NOW()
		)
	`

	runID := uuid.New()
	if run.ID != "" {
		var err error
		runID, err = uuid.Parse(run.ID)
		if err != nil {
			return err
		}
	}

	_, err := r.db.Exec(query,
		runID,
		run.Name,
		run.InputURI,
		run.Status,
		run.SpecYAML,
	)
	if err != nil {
		return err
	}

	run.ID = runID.String()
	run.CreatedAt = time.Now()

	return r.createRunEvent(nil, run.ID, nil, run.Status, "", "run_created")
}

// GetRun retrieves a run by ID, including its stage job history
func (r *RunRepository) GetRun(id string) (*models.PipelineRun, error) {
	query := `
		SELECT id, name, input_uri, status, current_stage, failure_stage,
			failure_reason, events_sent, spec_yaml, created_at, started_at,
			finished_at, updated_at
		FROM runs
		WHERE id = $1
	`

	var run models.PipelineRun
	var currentStage sql.NullString
	var failureStage sql.NullString
	var failureReason sql.NullString
	var startedAt sql.NullTime
	var finishedAt sql.NullTime

	err := r.db.QueryRow(query, id).Scan(
		&run.ID,
		&run.Name,
		&run.InputURI,
		&run.Status,
		&currentStage,
		&failureStage,
		&failureReason,
		&run.EventsSent,
		&run.SpecYAML,
		&run.CreatedAt,
		&startedAt,
		&finishedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if currentStage.Valid {
		run.CurrentStage = models.Stage(currentStage.String)
	}
	if failureStage.Valid {
		run.FailureStage = models.Stage(failureStage.String)
	}
	if failureReason.Valid {
		run.FailureReason = failureReason.String
	}
	if startedAt.Valid {
		run.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}

	jobs, err := r.GetStageJobs(run.ID)
	if err != nil {
		return nil, err
	}
	run.Jobs = jobs

	return &run, nil
}

// ListRuns lists runs with an optional status filter
func (r *RunRepository) ListRuns(status *models.RunStatus, limit int) ([]*models.PipelineRun, error) {
	query := `
		SELECT id, name, input_uri, status, current_stage, failure_stage,
			failure_reason, events_sent, created_at
		FROM runs
	`
	args := []interface{}{}

	if status != nil {
		query += " WHERE status = $1"
		args = append(args, *status)
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.PipelineRun
	for rows.Next() {
		var run models.PipelineRun
		var currentStage sql.NullString
		var failureStage sql.NullString
		var failureReason sql.NullString

		err := rows.Scan(
			&run.ID,
			&run.Name,
			&run.InputURI,
			&run.Status,
			&currentStage,
			&failureStage,
			&failureReason,
			&run.EventsSent,
			&run.CreatedAt,
		)
		if err != nil {
			continue
		}

		if currentStage.Valid {
			run.CurrentStage = models.Stage(currentStage.String)
		}
		if failureStage.Valid {
			run.FailureStage = models.Stage(failureStage.String)
		}
		if failureReason.Valid {
			run.FailureReason = failureReason.String
		}

		runs = append(runs, &run)
	}

	return runs, nil
}

// UpdateRunStatus updates run status atomically with event logging
func (r *RunRepository) UpdateRunStatus(runID string, from, to models.RunStatus, stage models.Stage, reason string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `UPDATE runs SET status = $1, updated_at = NOW() WHERE id = $2`
	if to == models.RunStatusRunning {
		query = `UPDATE runs SET status = $1, started_at = NOW(), updated_at = NOW() WHERE id = $2`
	}
	if _, err := tx.Exec(query, to, runID); err != nil {
		return err
	}

	if err := r.createRunEventTx(tx, runID, &from, to, stage, reason); err != nil {
		return err
	}

	return tx.Commit()
}

// SetCurrentStage records the stage a run is currently executing
func (r *RunRepository) SetCurrentStage(runID string, stage models.Stage) error {
	query := `UPDATE runs SET current_stage = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(query, stage, runID)
	return err
}

// RecordStageJob appends a submitted engine job to the run's history
func (r *RunRepository) RecordStageJob(runID string, stage models.Stage, jobID string) error {
	query := `
		INSERT INTO run_jobs (run_id, stage, job_id, submitted_at)
		VALUES ($1, $2, $3, NOW())
	`
	_, err := r.db.Exec(query, runID, stage, jobID)
	return err
}

// GetStageJobs retrieves a run's stage job history in submission order
func (r *RunRepository) GetStageJobs(runID string) ([]models.StageJob, error) {
	query := `
		SELECT run_id, stage, job_id, submitted_at
		FROM run_jobs
		WHERE run_id = $1
		ORDER BY submitted_at ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.StageJob
	for rows.Next() {
		var job models.StageJob
		if err := rows.Scan(&job.RunID, &job.Stage, &job.JobID, &job.SubmittedAt); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// CompleteRun records the terminal success outcome for a run
func (r *RunRepository) CompleteRun(runID string, eventsSent int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE runs
		SET status = $1, events_sent = $2, finished_at = NOW(), updated_at = NOW()
		WHERE id = $3
	`
	if _, err := tx.Exec(query, models.RunStatusSucceeded, eventsSent, runID); err != nil {
		return err
	}

	from := models.RunStatusRunning
	if err := r.createRunEventTx(tx, runID, &from, models.RunStatusSucceeded, "", "pipeline_completed"); err != nil {
		return err
	}

	return tx.Commit()
}

// FailRun records the terminal failure outcome for a run
func (r *RunRepository) FailRun(runID string, stage models.Stage, reason string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE runs
		SET status = $1, failure_stage = $2, failure_reason = $3,
			finished_at = NOW(), updated_at = NOW()
		WHERE id = $4
	`
	if _, err := tx.Exec(query, models.RunStatusFailed, stage, reason, runID); err != nil {
		return err
	}

	from := models.RunStatusRunning
	if err := r.createRunEventTx(tx, runID, &from, models.RunStatusFailed, stage, reason); err != nil {
		return err
	}

	return tx.Commit()
}

// CountFailedSince counts runs that reached the failed outcome after t
func (r *RunRepository) CountFailedSince(t time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM runs WHERE status = $1 AND finished_at >= $2`

	var count int
	if err := r.db.QueryRow(query, models.RunStatusFailed, t).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *RunRepository) createRunEvent(tx *sql.Tx, runID string, from *models.RunStatus, to models.RunStatus, stage models.Stage, reason string) error {
	if tx != nil {
		return r.createRunEventTx(tx, runID, from, to, stage, reason)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.createRunEventTx(tx, runID, from, to, stage, reason); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *RunRepository) createRunEventTx(tx *sql.Tx, runID string, from *models.RunStatus, to models.RunStatus, stage models.Stage, reason string) error {
	query := `
		INSERT INTO run_events (run_id, from_status, to_status, stage, reason)
		VALUES ($1, $2, $3, $4, $5)
	`

	var fromStr *string
	if from != nil {
		s := string(*from)
		fromStr = &s
	}

	_, err := tx.Exec(query, runID, fromStr, to, stage, reason)
	return err
}
