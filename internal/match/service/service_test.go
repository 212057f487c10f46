package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditrepository "github.com/smallbiznis/volunteerhub/internal/audit/repository"
	auditservice "github.com/smallbiznis/volunteerhub/internal/audit/service"
	authdomain "github.com/smallbiznis/volunteerhub/internal/auth/domain"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/smallbiznis/volunteerhub/internal/clock"
	"github.com/smallbiznis/volunteerhub/internal/match/domain"
	"github.com/smallbiznis/volunteerhub/internal/match/repository"
	notificationrepository "github.com/smallbiznis/volunteerhub/internal/notification/repository"
	notificationservice "github.com/smallbiznis/volunteerhub/internal/notification/service"
	opportunitydomain "github.com/smallbiznis/volunteerhub/internal/opportunity/domain"
	opportunityrepository "github.com/smallbiznis/volunteerhub/internal/opportunity/repository"
	opportunityservice "github.com/smallbiznis/volunteerhub/internal/opportunity/service"
	organizationdomain "github.com/smallbiznis/volunteerhub/internal/organization/domain"
	volunteerdomain "github.com/smallbiznis/volunteerhub/internal/volunteer/domain"
	volunteerrepository "github.com/smallbiznis/volunteerhub/internal/volunteer/repository"
	volunteerservice "github.com/smallbiznis/volunteerhub/internal/volunteer/service"
	"github.com/smallbiznis/volunteerhub/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   domain.Service
	clock *clock.FakeClock
	node  *snowflake.Node

	opp      opportunitydomain.Opportunity
	otherOpp opportunitydomain.Opportunity

	volunteer authorization.Caller
	peer      authorization.Caller
	owner     authorization.Caller
	outsider  authorization.Caller
	admin     authorization.Caller
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
	authz := authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer})
	audit := auditservice.NewService(auditservice.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: auditrepository.Provide(),
	})
	opportunities := opportunityservice.New(opportunityservice.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: opportunityrepository.Provide(), Authz: authz, Audit: audit,
	})
	volunteers := volunteerservice.New(volunteerservice.Params{
		DB: conn, Log: log, Clock: clk, Repo: volunteerrepository.Provide(), Authz: authz,
	})
	outbox := notificationservice.New(notificationservice.Params{
		DB: conn, Log: log, Clock: clk, Repo: notificationrepository.Provide(),
	})

	f := &fixture{
		db:    conn,
		clock: clk,
		node:  node,
		svc: New(Params{
			DB:            conn,
			Log:           log,
			GenID:         node,
			Clock:         clk,
			Repo:          repository.Provide(),
			Authz:         authz,
			Opportunities: opportunities,
			Volunteers:    volunteers,
			Notifier:      outbox,
			Audit:         audit,
		}),
	}

	orgA := f.seedOrganization(t, "Harbor Food Bank")
	orgB := f.seedOrganization(t, "City Library")
	f.volunteer = f.seedUser(t, "vera", authorization.RoleVolunteer, nil)
	f.peer = f.seedUser(t, "pablo", authorization.RoleVolunteer, nil)
	f.owner = f.seedUser(t, "harbor", authorization.RoleOrganization, &orgA)
	f.outsider = f.seedUser(t, "library", authorization.RoleOrganization, &orgB)
	f.admin = f.seedUser(t, "root", authorization.RoleAdmin, nil)
	f.opp = f.seedOpportunity(t, orgA, "Pantry Shift", "Cooking, Driving", clk.Now().AddDate(0, 0, 10))
	f.otherOpp = f.seedOpportunity(t, orgB, "Book Sorting", "Reading", clk.Now().AddDate(0, 0, 5))
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
	return user.Caller()
}

func (f *fixture) seedOpportunity(t *testing.T, orgID snowflake.ID, title, skills string, start time.Time) opportunitydomain.Opportunity {
	t.Helper()
	opp := opportunitydomain.Opportunity{
		ID:             f.node.Generate(),
		OrganizationID: orgID,
		Title:          title,
		SkillsRequired: skills,
		StartDate:      start,
		CreatedAt:      f.clock.Now(),
		UpdatedAt:      f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&opp).Error)
	return opp
}

func (f *fixture) count(t *testing.T, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Raw(query, args...).Scan(&n).Error)
	return n
}

func (f *fixture) apply(t *testing.T, caller authorization.Caller, opp opportunitydomain.Opportunity) *domain.Match {
	t.Helper()
	match, err := f.svc.Create(context.Background(), caller, domain.CreateRequest{OpportunityID: opp.ID.String()})
	require.NoError(t, err)
	return match
}

func TestCreateRejectsNonVolunteersBeforeLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, caller := range []authorization.Caller{f.owner, f.admin} {
		_, err := f.svc.Create(ctx, caller, domain.CreateRequest{OpportunityID: "123456789"})
		assert.ErrorIs(t, err, authorization.ErrForbidden)
	}
}

func TestCreateMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.volunteer, domain.CreateRequest{OpportunityID: "123456789"})
	assert.ErrorIs(t, err, opportunitydomain.ErrNotFound)

	_, err = f.svc.Create(ctx, f.volunteer, domain.CreateRequest{OpportunityID: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidOpportunityID)

	match := f.apply(t, f.volunteer, f.opp)
	assert.Equal(t, domain.StatusPending, match.Status)
	assert.Equal(t, f.volunteer.ID, match.VolunteerID)
	assert.True(t, match.MatchedOn.Equal(f.clock.Now()))

	assert.Equal(t, int64(1), f.count(t,
		`SELECT COUNT(1) FROM notification_outbox WHERE event = ? AND recipient_id = ?`,
		"match.created", f.volunteer.ID,
	))

	_, err = f.svc.Create(ctx, f.volunteer, domain.CreateRequest{OpportunityID: f.opp.ID.String()})
	assert.ErrorIs(t, err, domain.ErrAlreadyApplied)
	assert.Equal(t, int64(1), f.count(t, `SELECT COUNT(1) FROM matches`))
}

func TestUniqueIndexRejectsDuplicateInsert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := repository.Provide()

	now := f.clock.Now()
	first := domain.Match{ID: f.node.Generate(), VolunteerID: f.volunteer.ID, OpportunityID: f.opp.ID, Status: domain.StatusPending, MatchedOn: now, UpdatedAt: now}
	require.NoError(t, repo.Insert(ctx, f.db, &first))

	second := first
	second.ID = f.node.Generate()
	err := repo.Insert(ctx, f.db, &second)
	require.Error(t, err)
}

func TestUpdateStatusRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	match := f.apply(t, f.volunteer, f.opp)

	_, err := f.svc.UpdateStatus(ctx, f.owner, match.ID.String(), domain.UpdateStatusRequest{Status: "pending"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = f.svc.UpdateStatus(ctx, f.owner, "987654321", domain.UpdateStatusRequest{Status: "accepted"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.UpdateStatus(ctx, f.volunteer, match.ID.String(), domain.UpdateStatusRequest{Status: "accepted"})
	assert.ErrorIs(t, err, authorization.ErrForbidden)

	_, err = f.svc.UpdateStatus(ctx, f.outsider, match.ID.String(), domain.UpdateStatusRequest{Status: "accepted"})
	assert.ErrorIs(t, err, authorization.ErrForbidden)

	f.clock.Advance(time.Hour)
	updated, err := f.svc.UpdateStatus(ctx, f.owner, match.ID.String(), domain.UpdateStatusRequest{Status: "Accepted"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, updated.Status)
	assert.True(t, updated.UpdatedAt.Equal(f.clock.Now()))

	assert.Equal(t, int64(1), f.count(t,
		`SELECT COUNT(1) FROM notification_outbox WHERE event = ? AND recipient_id = ?`,
		"match.status_changed", f.volunteer.ID,
	))
	assert.Equal(t, int64(1), f.count(t,
		`SELECT COUNT(1) FROM system_logs WHERE action = ? AND target_id = ?`,
		"match.status_changed", match.ID.String(),
	))

	_, err = f.svc.UpdateStatus(ctx, f.admin, match.ID.String(), domain.UpdateStatusRequest{Status: "rejected"})
	assert.ErrorIs(t, err, domain.ErrAlreadyDecided)

	stored, err := f.svc.Get(ctx, f.admin, match.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, stored.Status)
}

func TestAdminCanRejectAnyMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	match := f.apply(t, f.peer, f.otherOpp)

	updated, err := f.svc.UpdateStatus(ctx, f.admin, match.ID.String(), domain.UpdateStatusRequest{Status: "rejected"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, updated.Status)
}

func TestTransitionOnlyMovesPendingRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := repository.Provide()
	match := f.apply(t, f.volunteer, f.opp)

	changed, err := repo.Transition(ctx, f.db, match.ID, domain.StatusAccepted, f.clock.Now())
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.Transition(ctx, f.db, match.ID, domain.StatusRejected, f.clock.Now())
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestListVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine := f.apply(t, f.volunteer, f.opp)
	f.clock.Advance(time.Minute)
	f.apply(t, f.volunteer, f.otherOpp)
	f.clock.Advance(time.Minute)
	f.apply(t, f.peer, f.opp)

	items, err := f.svc.List(ctx, f.volunteer, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, f.volunteer.ID, item.VolunteerID)
	}

	items, err = f.svc.List(ctx, f.owner, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, f.peer.ID, items[0].VolunteerID, "newest first")
	for _, item := range items {
		assert.Equal(t, f.opp.ID, item.OpportunityID)
	}

	items, err = f.svc.List(ctx, f.admin, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, items, 3)

	items, err = f.svc.List(ctx, f.admin, domain.ListRequest{OpportunityID: f.otherOpp.ID.String()})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = f.svc.UpdateStatus(ctx, f.owner, mine.ID.String(), domain.UpdateStatusRequest{Status: "accepted"})
	require.NoError(t, err)
	items, err = f.svc.List(ctx, f.owner, domain.ListRequest{Status: "accepted"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, mine.ID, items[0].ID)

	_, err = f.svc.List(ctx, f.owner, domain.ListRequest{Status: "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	orphan := authorization.Caller{ID: f.node.Generate(), Role: authorization.RoleOrganization}
	items, err = f.svc.List(ctx, orphan, domain.ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGetVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	match := f.apply(t, f.volunteer, f.opp)

	for _, caller := range []authorization.Caller{f.volunteer, f.owner, f.admin} {
		got, err := f.svc.Get(ctx, caller, match.ID.String())
		require.NoError(t, err)
		assert.Equal(t, match.ID, got.ID)
	}
	for _, caller := range []authorization.Caller{f.peer, f.outsider} {
		_, err := f.svc.Get(ctx, caller, match.ID.String())
		assert.ErrorIs(t, err, authorization.ErrForbidden)
	}

	_, err := f.svc.Get(ctx, f.admin, "not-an-id")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.db.Exec(`DELETE FROM opportunities WHERE id = ?`, f.opp.ID).Error)
	_, err = f.svc.Get(ctx, f.admin, match.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSuggestRanksBySkillOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Create(&volunteerdomain.Profile{
		UserID:    f.volunteer.ID,
		Skills:    datatypes.JSONSlice[string]{"cooking", "driving"},
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}).Error)
	orgID := f.opp.OrganizationID
	soon := f.seedOpportunity(t, orgID, "Delivery Run", "driving", f.clock.Now().AddDate(0, 0, 1))
	f.apply(t, f.volunteer, f.otherOpp)

	suggestions, err := f.svc.Suggest(ctx, f.volunteer)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, f.opp.ID, suggestions[0].Opportunity.ID)
	assert.Equal(t, 2, suggestions[0].Score)
	assert.ElementsMatch(t, []string{"Cooking", "Driving"}, suggestions[0].MatchedSkills)
	assert.Equal(t, soon.ID, suggestions[1].Opportunity.ID)

	_, err = f.svc.Suggest(ctx, f.owner)
	assert.ErrorIs(t, err, authorization.ErrForbidden)
}

func TestRankBreaksTiesByStartDate(t *testing.T) {
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	candidates := []opportunitydomain.Opportunity{
		{ID: 1, SkillsRequired: "", StartDate: base.AddDate(0, 0, 3)},
		{ID: 2, SkillsRequired: "", StartDate: base.AddDate(0, 0, 1)},
		{ID: 3, SkillsRequired: "Painting; painting", StartDate: base.AddDate(0, 0, 9)},
	}

	ranked := rank([]string{"PAINTING"}, candidates, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, snowflake.ID(3), ranked[0].Opportunity.ID)
	assert.Equal(t, []string{"Painting"}, ranked[0].MatchedSkills)
	assert.Equal(t, snowflake.ID(2), ranked[1].Opportunity.ID)
}
