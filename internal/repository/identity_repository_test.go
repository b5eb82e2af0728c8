package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-gatepass-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func identityRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"reg_no", "password_hash", "email", "phone", "department", "class_name", "hod_name", "incharge_name", "image_filename", "face_count", "role", "valid_from", "valid_until", "created_at", "updated_at"}).
		AddRow("21CS042", "$2a$10$hash", "student@campus.edu", "9876543210", "CSE", "III-B", "Dr. Rao", "Ms. Priya", "21CS042.jpg", 1, "STUDENT", now, now.Add(365*24*time.Hour), now, now)
}

func TestIdentityRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdentityRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO identities")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	identity := &models.Identity{
		RegNo:         "21CS042",
		PasswordHash:  "$2a$10$hash",
		Email:         "student@campus.edu",
		Phone:         "9876543210",
		Department:    "CSE",
		ClassName:     "III-B",
		HodName:       "Dr. Rao",
		InchargeName:  "Ms. Priya",
		ImageFilename: "21CS042.jpg",
		FaceCount:     1,
		ValidUntil:    time.Now().Add(365 * 24 * time.Hour),
	}
	require.NoError(t, repo.Create(context.Background(), identity))
	require.Equal(t, models.RoleStudent, identity.Role)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT reg_no, password_hash")).
		WithArgs("21CS042").
		WillReturnRows(identityRows())

	found, err := repo.FindByRegNo(context.Background(), "21CS042")
	require.NoError(t, err)
	require.Equal(t, "21CS042", found.RegNo)
	require.Equal(t, "CSE", found.Department)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdentityRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO identities")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "identities_pkey"})

	err := repo.Create(context.Background(), &models.Identity{RegNo: "21CS042"})
	require.Error(t, err)
	require.True(t, IsUniqueViolation(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepositoryFindMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdentityRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT reg_no, password_hash")).
		WithArgs("99XX000").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByRegNo(context.Background(), "99XX000")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepositoryUpdateProfileImage(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdentityRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE identities SET image_filename")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateProfileImage(context.Background(), "21CS042", "21CS042.jpg", 1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	require.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	require.False(t, IsUniqueViolation(errors.New("plain error")))
	require.False(t, IsUniqueViolation(nil))
}
