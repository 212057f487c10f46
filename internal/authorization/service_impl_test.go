package authorization

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	conn := openDB(t)
	enforcer, err := NewEnforcer(conn)
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

func orgID(id int64) *snowflake.ID {
	v := snowflake.ID(id)
	return &v
}

func TestCanMatchStatusUpdate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	match := Resource{Object: ObjectMatch, OwnerID: 10, OrganizationID: 100}

	cases := []struct {
		name   string
		caller Caller
		want   bool
	}{
		{name: "admin", caller: Caller{ID: 1, Role: RoleAdmin}, want: true},
		{name: "owning organization", caller: Caller{ID: 2, Role: RoleOrganization, OrganizationID: orgID(100)}, want: true},
		{name: "other organization", caller: Caller{ID: 3, Role: RoleOrganization, OrganizationID: orgID(200)}, want: false},
		{name: "organization without org", caller: Caller{ID: 4, Role: RoleOrganization}, want: false},
		{name: "volunteer owning match", caller: Caller{ID: 10, Role: RoleVolunteer}, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.Can(ctx, tc.caller, ActionUpdateStatus, match)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCanReadMatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	match := Resource{Object: ObjectMatch, OwnerID: 10, OrganizationID: 100}

	ok, err := svc.Can(ctx, Caller{ID: 10, Role: RoleVolunteer}, ActionRead, match)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Can(ctx, Caller{ID: 11, Role: RoleVolunteer}, ActionRead, match)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthorizeReturnsForbidden(t *testing.T) {
	svc := newTestService(t)
	err := svc.Authorize(context.Background(), Caller{ID: 10, Role: RoleVolunteer}, ActionVerify,
		Resource{Object: ObjectHour, OwnerID: 10, OrganizationID: 100})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestScopeByRole(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	scope, err := svc.Scope(ctx, Caller{ID: 1, Role: RoleAdmin}, ObjectMatch, ActionRead)
	require.NoError(t, err)
	assert.Equal(t, ScopeAll, scope)

	scope, err = svc.Scope(ctx, Caller{ID: 2, Role: RoleOrganization}, ObjectHour, ActionRead)
	require.NoError(t, err)
	assert.Equal(t, ScopeOrganization, scope)

	scope, err = svc.Scope(ctx, Caller{ID: 3, Role: RoleVolunteer}, ObjectMatch, ActionRead)
	require.NoError(t, err)
	assert.Equal(t, ScopeSelf, scope)

	scope, err = svc.Scope(ctx, Caller{ID: 3, Role: RoleVolunteer}, ObjectUser, ActionRead)
	require.NoError(t, err)
	assert.Equal(t, ScopeNone, scope)
}

func TestInvalidCaller(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Can(context.Background(), Caller{ID: 1, Role: "guest"}, ActionRead, Resource{Object: ObjectMatch})
	assert.ErrorIs(t, err, ErrInvalidCaller)
}

func TestSeedIsIdempotent(t *testing.T) {
	conn := openDB(t)
	_, err := NewEnforcer(conn)
	require.NoError(t, err)
	enforcer, err := NewEnforcer(conn)
	require.NoError(t, err)

	policies, err := enforcer.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, policies, 32)
}
