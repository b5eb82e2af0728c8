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

func telemetryRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "device_id", "sensor_type", "value", "unit", "metadata", "recorded_at"}).
		AddRow("reading-2", "gate-main", "door_state", 1.0, "", []byte(`{"trigger":"scan"}`), now).
		AddRow("reading-1", "gate-main", "temperature", 31.5, "celsius", nil, now.Add(-time.Minute))
}

func TestTelemetryRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTelemetryRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO device_telemetry")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	reading := &models.TelemetryReading{
		DeviceID:   "gate-main",
		SensorType: "temperature",
		Value:      31.5,
		Unit:       "celsius",
	}
	require.NoError(t, repo.Insert(context.Background(), reading))
	require.NotEmpty(t, reading.ID)
	require.False(t, reading.RecordedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTelemetryRepositoryListByDevice(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTelemetryRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, device_id, sensor_type")).
		WithArgs("gate-main", 100).
		WillReturnRows(telemetryRows())

	readings, err := repo.ListByDevice(context.Background(), "gate-main", 100)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	require.Equal(t, "door_state", readings[0].SensorType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTelemetryRepositoryLatestMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTelemetryRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, device_id, sensor_type")).
		WithArgs("gate-x").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Latest(context.Background(), "gate-x")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}
