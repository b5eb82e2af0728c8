package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-gatepass-api/internal/models"
)

// PassRepository persists pass requests and their lifecycle state.
// Every status write is a conditional UPDATE keyed on the expected
// current status, so concurrent transitions on the same row resolve to
// exactly one winner; losers see sql.ErrNoRows.
type PassRepository struct {
	db *sqlx.DB
}

// NewPassRepository constructs the repository.
func NewPassRepository(db *sqlx.DB) *PassRepository {
	return &PassRepository{db: db}
}

const passColumns = `id, reg_no, purpose, leave_time, return_time, proof_filename, proof_mime, status, decided_by, decided_at, decision_note, token_nonce, token_minted_at, used_at, created_at, updated_at`

// Create inserts a new pass request in PENDING state. The partial
// unique index on non-terminal statuses backstops the one-active-
// request invariant; violations surface via IsUniqueViolation.
func (r *PassRepository) Create(ctx context.Context, pass *models.Pass) error {
	if pass.ID == "" {
		pass.ID = uuid.NewString()
	}
	if pass.Status == "" {
		pass.Status = models.PassStatusPending
	}
	now := time.Now().UTC()
	if pass.CreatedAt.IsZero() {
		pass.CreatedAt = now
	}
	pass.UpdatedAt = now

	const query = `INSERT INTO pass_requests (id, reg_no, purpose, leave_time, return_time, proof_filename, proof_mime, status, created_at, updated_at)
	VALUES (:id, :reg_no, :purpose, :leave_time, :return_time, :proof_filename, :proof_mime, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pass); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create pass request: %w", err)
	}
	return nil
}

// GetByID fetches a pass by identifier.
func (r *PassRepository) GetByID(ctx context.Context, id string) (*models.Pass, error) {
	query := `SELECT ` + passColumns + ` FROM pass_requests WHERE id = $1 LIMIT 1`
	var pass models.Pass
	if err := r.db.GetContext(ctx, &pass, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find pass by id: %w", err)
	}
	return &pass, nil
}

// CountNonTerminal returns the number of requests in a non-terminal
// state held by the identity.
func (r *PassRepository) CountNonTerminal(ctx context.Context, regNo string) (int, error) {
	placeholders := make([]string, len(models.NonTerminalStatuses))
	args := make([]interface{}, 0, len(models.NonTerminalStatuses)+1)
	args = append(args, regNo)
	for i, status := range models.NonTerminalStatuses {
		args = append(args, status)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM pass_requests WHERE reg_no = $1 AND status IN (%s)`, strings.Join(placeholders, ","))

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count non-terminal requests: %w", err)
	}
	return count, nil
}

// ListByRegNo returns the identity's passes joined with profile fields,
// newest first.
func (r *PassRepository) ListByRegNo(ctx context.Context, regNo string, limit int) ([]models.PassDetail, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT p.id, p.reg_no, p.purpose, p.leave_time, p.return_time, p.proof_filename, p.proof_mime, p.status,
       p.decided_by, p.decided_at, p.decision_note, p.token_nonce, p.token_minted_at, p.used_at, p.created_at, p.updated_at,
       i.email AS name, i.department, i.class_name, i.image_filename AS profile_image
	FROM pass_requests p
	JOIN identities i ON i.reg_no = p.reg_no
	WHERE p.reg_no = $1
	ORDER BY p.created_at DESC
	LIMIT %d`, limit)

	var passes []models.PassDetail
	if err := r.db.SelectContext(ctx, &passes, query, regNo); err != nil {
		return nil, fmt.Errorf("list passes: %w", err)
	}
	return passes, nil
}

// GetDetail fetches one pass joined with holder profile fields.
func (r *PassRepository) GetDetail(ctx context.Context, id string) (*models.PassDetail, error) {
	const query = `SELECT p.id, p.reg_no, p.purpose, p.leave_time, p.return_time, p.proof_filename, p.proof_mime, p.status,
       p.decided_by, p.decided_at, p.decision_note, p.token_nonce, p.token_minted_at, p.used_at, p.created_at, p.updated_at,
       i.email AS name, i.department, i.class_name, i.image_filename AS profile_image
	FROM pass_requests p
	JOIN identities i ON i.reg_no = p.reg_no
	WHERE p.id = $1
	LIMIT 1`
	var detail models.PassDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find pass detail: %w", err)
	}
	return &detail, nil
}

// DecidePassParams groups the columns written by a review decision.
type DecidePassParams struct {
	ID            string
	Status        models.PassStatus
	DecidedBy     string
	DecidedAt     time.Time
	Note          *string
	TokenNonce    *string
	TokenMintedAt *time.Time
}

// Decide applies an APPROVED/REJECTED decision to a PENDING request,
// minting the token nonce in the same statement when approving.
func (r *PassRepository) Decide(ctx context.Context, params DecidePassParams) error {
	const query = `UPDATE pass_requests
	SET status = :status, decided_by = :decided_by, decided_at = :decided_at, decision_note = :decision_note,
	    token_nonce = :token_nonce, token_minted_at = :token_minted_at, updated_at = :decided_at
	WHERE id = :id AND status = 'PENDING'`
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":              params.ID,
		"status":          params.Status,
		"decided_by":      params.DecidedBy,
		"decided_at":      params.DecidedAt,
		"decision_note":   params.Note,
		"token_nonce":     params.TokenNonce,
		"token_minted_at": params.TokenMintedAt,
	})
	if err != nil {
		return fmt.Errorf("decide pass: %w", err)
	}
	return requireRow(result)
}

// Transition flips status from one expected state to another. A zero
// row count means another writer won the race.
func (r *PassRepository) Transition(ctx context.Context, id string, from, to models.PassStatus) error {
	const query = `UPDATE pass_requests SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	result, err := r.db.ExecContext(ctx, query, id, from, to, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("transition pass: %w", err)
	}
	return requireRow(result)
}

// MarkUsed stamps a successful single-use scan. Accepts both APPROVED
// (first scan activates and consumes) and ACTIVE as starting states.
func (r *PassRepository) MarkUsed(ctx context.Context, id string, usedAt time.Time) error {
	const query = `UPDATE pass_requests SET status = 'USED', used_at = $2, updated_at = $2 WHERE id = $1 AND status IN ('APPROVED', 'ACTIVE')`
	result, err := r.db.ExecContext(ctx, query, id, usedAt)
	if err != nil {
		return fmt.Errorf("mark pass used: %w", err)
	}
	return requireRow(result)
}

// Cancel withdraws a request before activation.
func (r *PassRepository) Cancel(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE pass_requests SET status = 'CANCELLED', updated_at = $2 WHERE id = $1 AND status IN ('PENDING', 'APPROVED')`
	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("cancel pass: %w", err)
	}
	return requireRow(result)
}

// Expire marks a single lapsed pass EXPIRED if still non-terminal.
func (r *PassRepository) Expire(ctx context.Context, id string) error {
	const query = `UPDATE pass_requests SET status = 'EXPIRED', updated_at = $2 WHERE id = $1 AND status IN ('PENDING', 'APPROVED', 'ACTIVE')`
	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("expire pass: %w", err)
	}
	return requireRow(result)
}

// ExpireLapsed bulk-expires every non-terminal pass whose return_time
// predates the cutoff. Idempotent; used by the background sweep.
func (r *PassRepository) ExpireLapsed(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `UPDATE pass_requests SET status = 'EXPIRED', updated_at = $2 WHERE status IN ('PENDING', 'APPROVED', 'ACTIVE') AND return_time < $1`
	result, err := r.db.ExecContext(ctx, query, cutoff, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("expire lapsed passes: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check expired rows: %w", err)
	}
	return rows, nil
}

// RotateNonce replaces the token nonce on a live approved pass,
// invalidating any previously minted token.
func (r *PassRepository) RotateNonce(ctx context.Context, id, nonce string, mintedAt time.Time) error {
	const query = `UPDATE pass_requests SET token_nonce = $2, token_minted_at = $3, updated_at = $3 WHERE id = $1 AND status IN ('APPROVED', 'ACTIVE')`
	result, err := r.db.ExecContext(ctx, query, id, nonce, mintedAt)
	if err != nil {
		return fmt.Errorf("rotate token nonce: %w", err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check affected rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
