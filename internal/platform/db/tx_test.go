package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var readCommitted = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

func TestWithTxCommits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBeginTx(readCommitted)
	mock.ExpectExec(`DELETE FROM tenant_permissions`).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	err = WithTx(context.Background(), mock, func(tx pgx.Tx) error {
		_, err := tx.Exec(context.Background(), "DELETE FROM tenant_permissions")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	boom := errors.New("boom")
	mock.ExpectBeginTx(readCommitted)
	mock.ExpectRollback()

	err = WithTx(context.Background(), mock, func(pgx.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxReportsRollbackFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	boom := errors.New("boom")
	mock.ExpectBeginTx(readCommitted)
	mock.ExpectRollback().WillReturnError(errors.New("conn closed"))

	err = WithTx(context.Background(), mock, func(pgx.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "conn closed")
}

func TestWithTxOptionsBeginAndCommitFailures(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	serializable := pgx.TxOptions{IsoLevel: pgx.Serializable}
	mock.ExpectBeginTx(serializable).WillReturnError(errors.New("too many connections"))
	err = WithTxOptions(context.Background(), mock, serializable, func(pgx.Tx) error { return nil })
	require.ErrorContains(t, err, "begin tx")

	mock.ExpectBeginTx(serializable)
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))
	err = WithTxOptions(context.Background(), mock, serializable, func(pgx.Tx) error { return nil })
	require.ErrorContains(t, err, "commit tx")
	require.NoError(t, mock.ExpectationsWereMet())
}
