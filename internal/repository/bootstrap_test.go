package repository

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestEnsureEnrollmentSchemaRunsAllStatements(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	for range bootstrapStatements {
		mock.ExpectExec("CREATE (TABLE|INDEX) IF NOT EXISTS").
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, EnsureEnrollmentSchema(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureEnrollmentSchemaStopsOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS enrollment_periods").
		WillReturnError(errors.New("permission denied"))

	err := EnsureEnrollmentSchema(context.Background(), db)
	require.ErrorContains(t, err, "ensure enrollment schema")
	require.NoError(t, mock.ExpectationsWereMet())
}
