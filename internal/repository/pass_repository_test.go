package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-gatepass-api/internal/models"
)

func passRows(status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "reg_no", "purpose", "leave_time", "return_time", "proof_filename", "proof_mime", "status", "decided_by", "decided_at", "decision_note", "token_nonce", "token_minted_at", "used_at", "created_at", "updated_at"}).
		AddRow("pass-1", "21CS042", "medical appointment", now.Add(time.Hour), now.Add(4*time.Hour), "abc123.pdf", "application/pdf", status, nil, nil, nil, nil, nil, nil, now, now)
}

func TestPassRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPassRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pass_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	pass := &models.Pass{
		RegNo:         "21CS042",
		Purpose:       "medical appointment",
		LeaveTime:     time.Now().Add(time.Hour),
		ReturnTime:    time.Now().Add(4 * time.Hour),
		ProofFilename: "abc123.pdf",
		ProofMime:     "application/pdf",
	}
	require.NoError(t, repo.Create(context.Background(), pass))
	require.NotEmpty(t, pass.ID)
	require.Equal(t, models.PassStatusPending, pass.Status)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, reg_no, purpose")).
		WithArgs(pass.ID).
		WillReturnRows(passRows("PENDING"))

	found, err := repo.GetByID(context.Background(), pass.ID)
	require.NoError(t, err)
	require.Equal(t, "pass-1", found.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPassRepositoryCountNonTerminal(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPassRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM pass_requests")).
		WithArgs("21CS042", models.PassStatusPending, models.PassStatusApproved, models.PassStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.CountNonTerminal(context.Background(), "21CS042")
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPassRepositoryDecide(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPassRepository(db)
	now := time.Now()
	nonce := "nonce-1"
	note := "verified with parent"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pass_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Decide(context.Background(), DecidePassParams{
		ID:            "pass-1",
		Status:        models.PassStatusApproved,
		DecidedBy:     "ADM001",
		DecidedAt:     now,
		Note:          &note,
		TokenNonce:    &nonce,
		TokenMintedAt: &now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	// second decision loses the conditional update
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pass_requests")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.Decide(context.Background(), DecidePassParams{
		ID:        "pass-1",
		Status:    models.PassStatusRejected,
		DecidedBy: "ADM002",
		DecidedAt: now,
	})
	require.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestPassRepositoryMarkUsedRace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPassRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE pass_requests SET status = 'USED'")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkUsed(context.Background(), "pass-1", now))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE pass_requests SET status = 'USED'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.MarkUsed(context.Background(), "pass-1", now)
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPassRepositoryCancel(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPassRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pass_requests SET status = 'CANCELLED'")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Cancel(context.Background(), "pass-1", time.Now())
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPassRepositoryExpireLapsed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPassRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pass_requests SET status = 'EXPIRED'")).
		WillReturnResult(sqlmock.NewResult(0, 3))

	rows, err := repo.ExpireLapsed(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(3), rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPassRepositoryListByRegNo(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPassRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "reg_no", "purpose", "leave_time", "return_time", "proof_filename", "proof_mime", "status", "decided_by", "decided_at", "decision_note", "token_nonce", "token_minted_at", "used_at", "created_at", "updated_at", "name", "department", "class_name", "profile_image"}).
		AddRow("pass-1", "21CS042", "medical appointment", now, now.Add(3*time.Hour), "abc.pdf", "application/pdf", "APPROVED", nil, nil, nil, nil, nil, nil, now, now, "student@campus.edu", "CSE", "III-B", "21CS042.jpg")
	mock.ExpectQuery(regexp.QuoteMeta("FROM pass_requests p")).
		WithArgs("21CS042").
		WillReturnRows(rows)

	list, err := repo.ListByRegNo(context.Background(), "21CS042", 50)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "CSE", list[0].Department)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPassRepositoryRotateNonce(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPassRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pass_requests SET token_nonce")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RotateNonce(context.Background(), "pass-1", "nonce-2", time.Now()))
	require.NoError(t, mock.ExpectationsWereMet())
}
