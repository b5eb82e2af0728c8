package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-gatepass-api/internal/models"
)

// IdentityRepository provides database access for registered accounts.
type IdentityRepository struct {
	db *sqlx.DB
}

// NewIdentityRepository creates a new instance of IdentityRepository.
func NewIdentityRepository(db *sqlx.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

const identityColumns = `reg_no, password_hash, email, phone, department, class_name, hod_name, incharge_name, image_filename, face_count, role, valid_from, valid_until, created_at, updated_at`

// Create inserts a new identity row.
func (r *IdentityRepository) Create(ctx context.Context, identity *models.Identity) error {
	now := time.Now().UTC()
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = now
	}
	if identity.ValidFrom.IsZero() {
		identity.ValidFrom = now
	}
	if identity.Role == "" {
		identity.Role = models.RoleStudent
	}
	identity.UpdatedAt = now

	const query = `INSERT INTO identities (reg_no, password_hash, email, phone, department, class_name, hod_name, incharge_name, image_filename, face_count, role, valid_from, valid_until, created_at, updated_at)
	VALUES (:reg_no, :password_hash, :email, :phone, :department, :class_name, :hod_name, :incharge_name, :image_filename, :face_count, :role, :valid_from, :valid_until, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, identity); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}

// FindByRegNo returns an identity by registration number.
func (r *IdentityRepository) FindByRegNo(ctx context.Context, regNo string) (*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE reg_no = $1 LIMIT 1`
	var identity models.Identity
	if err := r.db.GetContext(ctx, &identity, query, regNo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find identity by reg_no: %w", err)
	}
	return &identity, nil
}

// UpdateProfileImage replaces the stored image reference.
func (r *IdentityRepository) UpdateProfileImage(ctx context.Context, regNo, filename string, faceCount int) error {
	const query = `UPDATE identities SET image_filename = $2, face_count = $3, updated_at = $4 WHERE reg_no = $1`
	if _, err := r.db.ExecContext(ctx, query, regNo, filename, faceCount, time.Now().UTC()); err != nil {
		return fmt.Errorf("update profile image: %w", err)
	}
	return nil
}

// CreateAuditLog stores an audit log entry.
func (r *IdentityRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, reg_no, action, resource, resource_id, new_values, ip_address, user_agent, created_at) VALUES (:id, :reg_no, :action, :resource, :resource_id, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether the error is a Postgres duplicate
// key violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
