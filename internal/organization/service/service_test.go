package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/smallbiznis/volunteerhub/internal/clock"
	"github.com/smallbiznis/volunteerhub/internal/organization/domain"
	"github.com/smallbiznis/volunteerhub/internal/organization/repository"
	"github.com/smallbiznis/volunteerhub/pkg/db/dbtest"
	"github.com/smallbiznis/volunteerhub/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	conn := dbtest.OpenWithSchema(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)

	return New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
		Authz: authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer}),
	})
}

func TestProvisionGeneratesUniqueSlugs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Provision(ctx, nil, domain.ProvisionRequest{Name: "Green Earth Society"})
	require.NoError(t, err)
	assert.Equal(t, "green-earth-society", first.Slug)

	second, err := svc.Provision(ctx, nil, domain.ProvisionRequest{Name: "Green Earth Society"})
	require.NoError(t, err)
	assert.Equal(t, "green-earth-society-2", second.Slug)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestProvisionValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Provision(ctx, nil, domain.ProvisionRequest{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Provision(ctx, nil, domain.ProvisionRequest{Name: "Food Bank", ContactEmail: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	org, err := svc.Provision(ctx, nil, domain.ProvisionRequest{Name: "Food Bank", Location: "Austin"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, org.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Food Bank", got.Name)
	assert.Equal(t, "Austin", got.Location)

	_, err = svc.Get(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.Get(ctx, "12345")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListFiltersAndPaginates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"Animal Shelter", "Beach Cleanup", "City Library"} {
		_, err := svc.Provision(ctx, nil, domain.ProvisionRequest{Name: name, Location: "Denver"})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, domain.ListRequest{Page: pagination.Pagination{Page: 1, PageSize: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Animal Shelter", page.Items[0].Name)

	page, err = svc.List(ctx, domain.ListRequest{Name: "beach"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Beach Cleanup", page.Items[0].Name)
}

func TestUpdateRequiresOwnership(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	org, err := svc.Provision(ctx, nil, domain.ProvisionRequest{Name: "Food Bank"})
	require.NoError(t, err)
	other, err := svc.Provision(ctx, nil, domain.ProvisionRequest{Name: "Other"})
	require.NoError(t, err)

	name := "Central Food Bank"
	owner := authorization.Caller{ID: 7, Role: authorization.RoleOrganization, OrganizationID: &org.ID}
	updated, err := svc.Update(ctx, owner, org.ID.String(), domain.UpdateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Central Food Bank", updated.Name)
	assert.Equal(t, "food-bank", updated.Slug)

	stranger := authorization.Caller{ID: 8, Role: authorization.RoleOrganization, OrganizationID: &other.ID}
	_, err = svc.Update(ctx, stranger, org.ID.String(), domain.UpdateRequest{Name: &name})
	assert.ErrorIs(t, err, authorization.ErrForbidden)

	volunteer := authorization.Caller{ID: 9, Role: authorization.RoleVolunteer}
	_, err = svc.Update(ctx, volunteer, org.ID.String(), domain.UpdateRequest{Name: &name})
	assert.ErrorIs(t, err, authorization.ErrForbidden)

	admin := authorization.Caller{ID: 1, Role: authorization.RoleAdmin}
	location := "Boston"
	updated, err = svc.Update(ctx, admin, org.ID.String(), domain.UpdateRequest{Location: &location})
	require.NoError(t, err)
	assert.Equal(t, "Boston", updated.Location)
}
