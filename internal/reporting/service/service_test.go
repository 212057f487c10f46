package service

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/volunteerhub/internal/auth/domain"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/smallbiznis/volunteerhub/internal/clock"
	matchdomain "github.com/smallbiznis/volunteerhub/internal/match/domain"
	opportunitydomain "github.com/smallbiznis/volunteerhub/internal/opportunity/domain"
	organizationdomain "github.com/smallbiznis/volunteerhub/internal/organization/domain"
	"github.com/smallbiznis/volunteerhub/internal/providers/pdf"
	"github.com/smallbiznis/volunteerhub/internal/reporting/domain"
	"github.com/smallbiznis/volunteerhub/internal/reporting/repository"
	hourdomain "github.com/smallbiznis/volunteerhub/internal/volunteerhour/domain"
	"github.com/smallbiznis/volunteerhub/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type capturePDF struct {
	last *pdf.HoursReport
}

func (c *capturePDF) GenerateHoursReport(_ context.Context, report pdf.HoursReport) (io.Reader, error) {
	c.last = &report
	return bytes.NewBufferString("%PDF-1.3"), nil
}

type fixture struct {
	db    *gorm.DB
	svc   domain.Service
	pdf   *capturePDF
	clock *clock.FakeClock
	node  *snowflake.Node

	orgA, orgB snowflake.ID
	harbor     authorization.Caller
	library    authorization.Caller
	admin      authorization.Caller
	vera       authorization.Caller
	pablo      authorization.Caller
	pantry     snowflake.ID
	books      snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.OpenWithSchema(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)

	f := &fixture{db: conn, clock: clk, node: node, pdf: &capturePDF{}}
	f.svc = New(Params{
		DB:    conn,
		Log:   log,
		Clock: clk,
		Repo:  repository.Provide(),
		Authz: authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer}),
		PDF:   f.pdf,
	})

	f.orgA = f.seedOrganization(t, "Harbor Food Bank")
	f.orgB = f.seedOrganization(t, "City Library")
	f.harbor = f.seedUser(t, "harbor", authorization.RoleOrganization, &f.orgA)
	f.library = f.seedUser(t, "library", authorization.RoleOrganization, &f.orgB)
	f.admin = f.seedUser(t, "root", authorization.RoleAdmin, nil)
	f.vera = f.seedUser(t, "vera", authorization.RoleVolunteer, nil)
	f.pablo = f.seedUser(t, "pablo", authorization.RoleVolunteer, nil)
	f.pantry = f.seedOpportunity(t, f.orgA, "Pantry Shift")
	f.books = f.seedOpportunity(t, f.orgB, "Book Sorting")
	return f
}

func (f *fixture) seedOrganization(t *testing.T, name string) snowflake.ID {
	t.Helper()
	org := organizationdomain.Organization{
		ID:        f.node.Generate(),
		Name:      name,
		Slug:      f.node.Generate().String(),
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&org).Error)
	return org.ID
}

func (f *fixture) seedUser(t *testing.T, username string, role authorization.Role, orgID *snowflake.ID) authorization.Caller {
	t.Helper()
	user := authdomain.User{
		ID:             f.node.Generate(),
		Username:       username,
		Email:          username + "@example.org",
		PasswordHash:   "x",
		Role:           role,
		OrganizationID: orgID,
		IsActive:       true,
		CreatedAt:      f.clock.Now(),
		UpdatedAt:      f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&user).Error)
	f.clock.Advance(time.Minute)
	return user.Caller()
}

func (f *fixture) seedOpportunity(t *testing.T, orgID snowflake.ID, title string) snowflake.ID {
	t.Helper()
	opp := opportunitydomain.Opportunity{
		ID:             f.node.Generate(),
		OrganizationID: orgID,
		Title:          title,
		StartDate:      f.clock.Now().AddDate(0, 0, 7),
		CreatedAt:      f.clock.Now(),
		UpdatedAt:      f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&opp).Error)
	return opp.ID
}

func (f *fixture) seedMatch(t *testing.T, volunteer authorization.Caller, oppID snowflake.ID, status matchdomain.Status) {
	t.Helper()
	require.NoError(t, f.db.Create(&matchdomain.Match{
		ID:            f.node.Generate(),
		VolunteerID:   volunteer.ID,
		OpportunityID: oppID,
		Status:        status,
		MatchedOn:     f.clock.Now(),
		UpdatedAt:     f.clock.Now(),
	}).Error)
}

func (f *fixture) seedHour(t *testing.T, volunteer authorization.Caller, oppID snowflake.ID, hours float64, date time.Time, status hourdomain.Status) {
	t.Helper()
	require.NoError(t, f.db.Create(&hourdomain.Hour{
		ID:            f.node.Generate(),
		VolunteerID:   volunteer.ID,
		OpportunityID: oppID,
		Hours:         hours,
		Date:          date,
		Verified:      status == hourdomain.StatusVerified,
		Status:        status,
		CreatedAt:     f.clock.Now(),
		UpdatedAt:     f.clock.Now(),
	}).Error)
}

func day(d int) time.Time {
	return time.Date(2026, 4, d, 0, 0, 0, 0, time.UTC)
}

func TestDashboardCountsEverything(t *testing.T) {
	f := newFixture(t)
	f.seedMatch(t, f.vera, f.pantry, matchdomain.StatusAccepted)
	f.seedMatch(t, f.pablo, f.pantry, matchdomain.StatusPending)
	f.seedHour(t, f.vera, f.pantry, 3.5, day(1), hourdomain.StatusVerified)
	f.seedHour(t, f.vera, f.pantry, 2, day(2), hourdomain.StatusUnverified)
	f.seedHour(t, f.pablo, f.books, 1.25, day(3), hourdomain.StatusVerified)

	dash, err := f.svc.Dashboard(context.Background(), f.admin)
	require.NoError(t, err)

	assert.Equal(t, domain.UserCounts{Volunteers: 2, Organizations: 2, Admins: 1, Total: 5}, dash.UserCounts)
	assert.EqualValues(t, 2, dash.OrganizationCount)
	assert.EqualValues(t, 2, dash.OpportunityCount)
	assert.EqualValues(t, 2, dash.MatchCount)
	assert.EqualValues(t, 1, dash.PendingMatchCount)
	assert.EqualValues(t, 3, dash.HourRecordCount)
	assert.EqualValues(t, 1, dash.UnverifiedHourCount)
	assert.InDelta(t, 4.75, dash.TotalVerifiedHours, 0.001)
	require.Len(t, dash.RecentUsers, 5)
	assert.Equal(t, "pablo", dash.RecentUsers[0].Username)
}

func TestDashboardIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	for _, caller := range []authorization.Caller{f.harbor, f.vera} {
		_, err := f.svc.Dashboard(context.Background(), caller)
		assert.ErrorIs(t, err, authorization.ErrForbidden)
	}
}

func TestMatchStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedMatch(t, f.vera, f.pantry, matchdomain.StatusAccepted)
	f.seedMatch(t, f.pablo, f.pantry, matchdomain.StatusRejected)
	f.seedMatch(t, f.vera, f.books, matchdomain.StatusPending)

	t.Run("admin sees all", func(t *testing.T) {
		stats, err := f.svc.MatchStats(ctx, f.admin, domain.MatchStatsRequest{})
		require.NoError(t, err)
		assert.Equal(t, domain.MatchStats{
			TotalMatches:    3,
			PendingMatches:  1,
			AcceptedMatches: 1,
			RejectedMatches: 1,
			AcceptanceRate:  33.33,
		}, *stats)
	})

	t.Run("admin filters by organization", func(t *testing.T) {
		stats, err := f.svc.MatchStats(ctx, f.admin, domain.MatchStatsRequest{OrganizationID: f.orgB.String()})
		require.NoError(t, err)
		assert.EqualValues(t, 1, stats.TotalMatches)
		assert.EqualValues(t, 0, stats.AcceptanceRate)
	})

	t.Run("organization pinned to its own", func(t *testing.T) {
		stats, err := f.svc.MatchStats(ctx, f.harbor, domain.MatchStatsRequest{})
		require.NoError(t, err)
		assert.EqualValues(t, 2, stats.TotalMatches)
		assert.EqualValues(t, 50, stats.AcceptanceRate)
	})

	t.Run("organization cannot read another", func(t *testing.T) {
		_, err := f.svc.MatchStats(ctx, f.harbor, domain.MatchStatsRequest{OrganizationID: f.orgB.String()})
		assert.ErrorIs(t, err, authorization.ErrForbidden)
	})

	t.Run("volunteer denied", func(t *testing.T) {
		_, err := f.svc.MatchStats(ctx, f.vera, domain.MatchStatsRequest{})
		assert.ErrorIs(t, err, authorization.ErrForbidden)
	})

	t.Run("malformed organization", func(t *testing.T) {
		_, err := f.svc.MatchStats(ctx, f.admin, domain.MatchStatsRequest{OrganizationID: "abc"})
		assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
	})
}

func TestMatchStatsEmpty(t *testing.T) {
	f := newFixture(t)
	stats, err := f.svc.MatchStats(context.Background(), f.admin, domain.MatchStatsRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStats{}, *stats)
}

func TestHoursReportGroupsVerifiedHours(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedHour(t, f.vera, f.pantry, 2, day(1), hourdomain.StatusVerified)
	f.seedHour(t, f.vera, f.pantry, 1.5, day(5), hourdomain.StatusVerified)
	f.seedHour(t, f.pablo, f.pantry, 4, day(2), hourdomain.StatusVerified)
	f.seedHour(t, f.pablo, f.pantry, 8, day(2), hourdomain.StatusUnverified)
	f.seedHour(t, f.vera, f.books, 3, day(3), hourdomain.StatusVerified)

	report, err := f.svc.HoursReport(ctx, f.harbor, domain.HoursReportRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Harbor Food Bank", report.Scope)
	require.NotNil(t, report.OrganizationID)
	assert.Equal(t, f.orgA, *report.OrganizationID)
	require.Len(t, report.Lines, 2)
	assert.Equal(t, "pablo", report.Lines[0].Volunteer)
	assert.EqualValues(t, 1, report.Lines[0].Entries)
	assert.Equal(t, "vera", report.Lines[1].Volunteer)
	assert.EqualValues(t, 2, report.Lines[1].Entries)
	assert.InDelta(t, 3.5, report.Lines[1].Hours, 0.001)
	assert.InDelta(t, 7.5, report.TotalHours, 0.001)

	all, err := f.svc.HoursReport(ctx, f.admin, domain.HoursReportRequest{})
	require.NoError(t, err)
	assert.Equal(t, allScopeLabel, all.Scope)
	assert.Nil(t, all.OrganizationID)
	assert.Len(t, all.Lines, 3)
	assert.InDelta(t, 10.5, all.TotalHours, 0.001)
}

func TestHoursReportDateRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedHour(t, f.vera, f.pantry, 2, day(1), hourdomain.StatusVerified)
	f.seedHour(t, f.vera, f.pantry, 3, day(10), hourdomain.StatusVerified)
	f.seedHour(t, f.vera, f.pantry, 5, day(20), hourdomain.StatusVerified)

	from, to := day(5), day(15)
	report, err := f.svc.HoursReport(ctx, f.admin, domain.HoursReportRequest{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, report.Lines, 1)
	assert.InDelta(t, 3, report.TotalHours, 0.001)

	_, err = f.svc.HoursReport(ctx, f.admin, domain.HoursReportRequest{From: &to, To: &from})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestHoursReportPDF(t *testing.T) {
	f := newFixture(t)
	f.seedHour(t, f.vera, f.books, 3, day(3), hourdomain.StatusVerified)

	out, err := f.svc.HoursReportPDF(context.Background(), f.library, domain.HoursReportRequest{})
	require.NoError(t, err)
	body, err := io.ReadAll(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	require.NotNil(t, f.pdf.last)
	assert.Equal(t, "City Library", f.pdf.last.Scope)
	require.Len(t, f.pdf.last.Rows, 1)
	assert.Equal(t, pdf.HoursRow{Volunteer: "vera", Opportunity: "Book Sorting", Entries: 1, Hours: 3}, f.pdf.last.Rows[0])

	_, err = f.svc.HoursReportPDF(context.Background(), f.vera, domain.HoursReportRequest{})
	assert.ErrorIs(t, err, authorization.ErrForbidden)
}

func TestAcceptanceRate(t *testing.T) {
	assert.Equal(t, 0.0, acceptanceRate(0, 0))
	assert.Equal(t, 66.67, acceptanceRate(2, 3))
	assert.Equal(t, 100.0, acceptanceRate(4, 4))
}
