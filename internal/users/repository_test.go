package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "email", "name", "is_active", "created_at", "updated_at"}

func TestFindByEmailIsCaseInsensitive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`FROM users WHERE LOWER\(email\) = LOWER\(\$1\)`).
		WithArgs("Admin@GameGuild.gg").
		WillReturnRows(pgxmock.NewRows(columns).AddRow(id, "admin@gameguild.gg", "Admin", true, now, now))

	user, err := NewRepository(mock).FindByEmail(context.Background(), "  Admin@GameGuild.gg ")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "admin@gameguild.gg", user.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmailNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM users WHERE LOWER\(email\)`).
		WithArgs("ghost@gameguild.gg").
		WillReturnRows(pgxmock.NewRows(columns))

	_, err = NewService(NewRepository(mock)).FindByEmail(context.Background(), "ghost@gameguild.gg")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsers(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, email, name, is_active, created_at, updated_at FROM users ORDER BY email`).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(uuid.New(), "a@gameguild.gg", "A", true, now, now).
			AddRow(uuid.New(), "b@gameguild.gg", "B", false, now, now))

	list, err := NewRepository(mock).ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[1].IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}
