package repository

import (
	"database/sql"

	"churn-orchestrator/core/models"
)

// EventRepository handles database operations for run events
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// GetRunEvents retrieves events for a run, most recent first
func (r *EventRepository) GetRunEvents(runID string, limit int) ([]models.RunEvent, error) {
	query := `
		SELECT id, run_id, at, from_status, to_status, stage, reason
		FROM run_events
		WHERE run_id = $1
		ORDER BY at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(query, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.RunEvent
	for rows.Next() {
		var event models.RunEvent
		var fromStatus sql.NullString
		var stage sql.NullString

		err := rows.Scan(
			&event.ID,
			&event.RunID,
			&event.At,
			&fromStatus,
			&event.ToStatus,
			&stage,
			&event.Reason,
		)
		if err != nil {
			continue
		}

		if fromStatus.Valid {
			status := models.RunStatus(fromStatus.String)
			event.FromStatus = &status
		}
		if stage.Valid {
			event.Stage = models.Stage(stage.String)
		}

		events = append(events, event)
	}

	return events, nil
}
