package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/smallbiznis/volunteerhub/internal/clock"
	"github.com/smallbiznis/volunteerhub/internal/volunteer/domain"
	"github.com/smallbiznis/volunteerhub/internal/volunteer/repository"
	"github.com/smallbiznis/volunteerhub/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	vera  = authorization.Caller{ID: 1, Role: authorization.RoleVolunteer}
	pablo = authorization.Caller{ID: 2, Role: authorization.RoleVolunteer}
	admin = authorization.Caller{ID: 3, Role: authorization.RoleAdmin}
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()
	conn := dbtest.OpenWithSchema(t)
	clk := clock.NewFakeClock(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		Clock: clk,
		Repo:  repository.Provide(),
		Authz: authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer}),
	})
	return svc, conn, clk
}

func TestProvisionAndUpdateProfile(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetProfile(ctx, vera)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	_, err = svc.ProvisionProfile(ctx, nil, vera.ID, " vera ")
	require.NoError(t, err)

	profile, err := svc.GetProfile(ctx, vera)
	require.NoError(t, err)
	assert.Equal(t, "vera", profile.FullName)
	assert.Empty(t, profile.Skills)

	bio := "  retired nurse "
	updated, err := svc.UpdateProfile(ctx, vera, domain.UpdateProfileRequest{
		Bio:    &bio,
		Skills: []string{"First Aid", " first aid ", "Cooking", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "retired nurse", updated.Bio)
	assert.Equal(t, []string{"First Aid", "Cooking"}, []string(updated.Skills))

	skills, err := svc.Skills(ctx, vera.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"First Aid", "Cooking"}, skills)

	skills, err = svc.Skills(ctx, pablo.ID)
	require.NoError(t, err)
	assert.Empty(t, skills)

	_, err = svc.UpdateProfile(ctx, vera, domain.UpdateProfileRequest{Skills: []string{strings.Repeat("x", 65)}})
	assert.ErrorIs(t, err, domain.ErrInvalidSkill)
}

func TestProfileIsVolunteerOnly(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	org := authorization.Caller{ID: 9, Role: authorization.RoleOrganization}

	_, err := svc.GetProfile(ctx, org)
	assert.ErrorIs(t, err, authorization.ErrForbidden)
	_, err = svc.UpdateProfile(ctx, admin, domain.UpdateProfileRequest{})
	assert.ErrorIs(t, err, authorization.ErrForbidden)
}

func TestStats(t *testing.T) {
	svc, conn, clk := newTestService(t)
	ctx := context.Background()
	now := clk.Now()
	exec := func(query string, args ...any) {
		require.NoError(t, conn.Exec(query, args...).Error)
	}

	exec(`INSERT INTO opportunities (id, organization_id, title, start_date, created_at, updated_at) VALUES (50, 5, 'Pantry Shift', ?, ?, ?)`, now, now, now)
	exec(`INSERT INTO opportunities (id, organization_id, title, start_date, created_at, updated_at) VALUES (51, 5, 'Harbor Cleanup', ?, ?, ?)`, now, now, now)
	exec(`INSERT INTO matches (id, volunteer_id, opportunity_id, status, matched_on, updated_at) VALUES (100, 1, 50, 'accepted', ?, ?)`, now, now)
	exec(`INSERT INTO matches (id, volunteer_id, opportunity_id, status, matched_on, updated_at) VALUES (101, 1, 51, 'pending', ?, ?)`, now, now)
	exec(`INSERT INTO matches (id, volunteer_id, opportunity_id, status, matched_on, updated_at) VALUES (102, 2, 51, 'accepted', ?, ?)`, now, now)

	hour := func(id snowflake.ID, opp int, hours float64, status string, daysAgo int) {
		exec(`INSERT INTO volunteer_hours (id, volunteer_id, opportunity_id, hours, date, description, verified, status, created_at, updated_at)
			VALUES (?, 1, ?, ?, ?, '', ?, ?, ?, ?)`,
			id, opp, hours, now.AddDate(0, 0, -daysAgo), status == "verified", status, now, now)
	}
	hour(200, 50, 4, "verified", 6)
	hour(201, 50, 2.5, "verified", 5)
	hour(202, 51, 3, "unverified", 4)
	hour(203, 51, 1, "rejected", 3)
	hour(204, 50, 2, "unverified", 2)
	hour(205, 50, 1.5, "verified", 1)

	stats, err := svc.Stats(ctx, vera, vera.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 8.0, stats.TotalHours)
	assert.Equal(t, 14.0, stats.TotalLoggedHours)
	assert.Equal(t, int64(2), stats.TotalApplications)
	assert.Equal(t, int64(1), stats.AcceptedApplications)
	assert.Equal(t, 50.0, stats.CompletionRate)
	require.Len(t, stats.RecentActivity, 5)
	assert.Equal(t, snowflake.ID(205), stats.RecentActivity[0].ID)
	assert.Equal(t, "Pantry Shift", stats.RecentActivity[0].OpportunityTitle)

	_, err = svc.Stats(ctx, pablo, vera.ID.String())
	assert.ErrorIs(t, err, authorization.ErrForbidden)

	empty, err := svc.Stats(ctx, admin, "77")
	require.NoError(t, err)
	assert.Zero(t, empty.CompletionRate)
	assert.NotNil(t, empty.RecentActivity)

	_, err = svc.Stats(ctx, admin, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestCompletionRateRounds(t *testing.T) {
	assert.Equal(t, 0.0, completionRate(domain.MatchTotals{}))
	assert.Equal(t, 33.33, completionRate(domain.MatchTotals{Total: 3, Accepted: 1}))
	assert.Equal(t, 100.0, completionRate(domain.MatchTotals{Total: 2, Accepted: 2}))
}
