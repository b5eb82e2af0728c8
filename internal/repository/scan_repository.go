package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-gatepass-api/internal/models"
)

// ScanRepository appends and reads gate scan audit events.
type ScanRepository struct {
	db *sqlx.DB
}

// NewScanRepository constructs the repository.
func NewScanRepository(db *sqlx.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Create appends a scan event.
func (r *ScanRepository) Create(ctx context.Context, event *models.ScanEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.ScannedAt.IsZero() {
		event.ScannedAt = time.Now().UTC()
	}
	const query = `INSERT INTO scan_events (id, pass_id, reg_no, gate_id, result, detail, scanned_at)
	VALUES (:id, :pass_id, :reg_no, :gate_id, :result, :detail, :scanned_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create scan event: %w", err)
	}
	return nil
}

// ListByPass returns scan history for a pass, newest first.
func (r *ScanRepository) ListByPass(ctx context.Context, passID string, limit int) ([]models.ScanEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT id, pass_id, reg_no, gate_id, result, detail, scanned_at
	FROM scan_events WHERE pass_id = $1 ORDER BY scanned_at DESC LIMIT %d`, limit)

	var events []models.ScanEvent
	if err := r.db.SelectContext(ctx, &events, query, passID); err != nil {
		return nil, fmt.Errorf("list scan events: %w", err)
	}
	return events, nil
}
