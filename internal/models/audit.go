package models

import "time"

// Audit actions recorded by the service.
const (
	AuditActionRegister   = "identity.register"
	AuditActionLogin      = "identity.login"
	AuditActionPassSubmit = "pass.submit"
	AuditActionPassReview = "pass.review"
	AuditActionPassCancel = "pass.cancel"
	AuditActionGateScan   = "gate.scan"
)

// AuditLog captures who did what for compliance trails.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	RegNo      *string   `db:"reg_no" json:"reg_no,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
