package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	conn, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return conn, mock
}

func TestFindByLoginMatchesUsernameOrEmail(t *testing.T) {
	conn, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE username = $1 OR LOWER(email) = $2 LIMIT 1`)).
		WithArgs("Alice@Example.com", "alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "role"}).
			AddRow(int64(11), "alice", "alice@example.com", "volunteer"))

	user, err := Provide().FindByLogin(context.Background(), conn, "Alice@Example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, snowflake.ID(11), user.ID)
	assert.Equal(t, authorization.RoleVolunteer, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDMissingReturnsNil(t *testing.T) {
	conn, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, err := Provide().FindByID(context.Background(), conn, 5)
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountDependents(t *testing.T) {
	conn, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`(SELECT COUNT(1) FROM matches WHERE volunteer_id = $1)`)).
		WithArgs(int64(9), int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := Provide().CountDependents(context.Background(), conn, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
