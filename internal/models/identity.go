package models

import "time"

// IdentityRole separates student accounts from reviewing authorities.
type IdentityRole string

const (
	RoleStudent IdentityRole = "STUDENT"
	RoleAdmin   IdentityRole = "ADMIN"
)

// Identity is a registered account stored in the identities table.
// The registration number is the immutable primary key; accounts are
// never hard-deleted, they lapse via valid_until.
type Identity struct {
	RegNo         string       `db:"reg_no" json:"reg_no"`
	PasswordHash  string       `db:"password_hash" json:"-"`
	Email         string       `db:"email" json:"email"`
	Phone         string       `db:"phone" json:"phone"`
	Department    string       `db:"department" json:"department"`
	ClassName     string       `db:"class_name" json:"class"`
	HodName       string       `db:"hod_name" json:"hod_name"`
	InchargeName  string       `db:"incharge_name" json:"incharge_name"`
	ImageFilename string       `db:"image_filename" json:"image_filename"`
	FaceCount     int          `db:"face_count" json:"-"`
	Role          IdentityRole `db:"role" json:"role"`
	ValidFrom     time.Time    `db:"valid_from" json:"valid_from"`
	ValidUntil    time.Time    `db:"valid_until" json:"valid_until"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// Expired reports whether the account validity window has ended.
func (i *Identity) Expired(now time.Time) bool {
	return !i.ValidUntil.IsZero() && now.After(i.ValidUntil)
}
