package repository

import (
	"fmt"

	"churn-orchestrator/core/models"
)

// ArtifactRepository handles database operations for run artifacts
type ArtifactRepository struct {
	db *DB
}

// NewArtifactRepository creates a new artifact repository
func NewArtifactRepository(db *DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// CreateArtifact records a stage output location for a run
func (r *ArtifactRepository) CreateArtifact(runID string, artifactType models.ArtifactType, uri string) error {
	query := `
		INSERT INTO run_artifacts (run_id, type, uri, created_at)
		VALUES ($1, $2, $3, NOW())
	`
	_, err := r.db.Exec(query, runID, artifactType, uri)
	return err
}

// GetRunArtifacts retrieves artifacts for a run, most recent first
func (r *ArtifactRepository) GetRunArtifacts(runID string, artifactType *models.ArtifactType) ([]models.RunArtifact, error) {
	query := `
		SELECT id, run_id, type, uri, created_at
		FROM run_artifacts
		WHERE run_id = $1
	`
	args := []interface{}{runID}

	if artifactType != nil {
		query += " AND type = $2"
		args = append(args, *artifactType)
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []models.RunArtifact
	for rows.Next() {
		var artifact models.RunArtifact
		err := rows.Scan(
			&artifact.ID,
			&artifact.RunID,
			&artifact.Type,
			&artifact.URI,
			&artifact.CreatedAt,
		)
		if err != nil {
			continue
		}
		artifacts = append(artifacts, artifact)
	}

	return artifacts, nil
}

// GetLatestArtifact retrieves the most recent artifact of a type for a run
func (r *ArtifactRepository) GetLatestArtifact(runID string, artifactType models.ArtifactType) (*models.RunArtifact, error) {
	artifacts, err := r.GetRunArtifacts(runID, &artifactType)
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return nil, fmt.Errorf("no %s artifact found for run %s", artifactType, runID)
	}
	return &artifacts[0], nil
}
