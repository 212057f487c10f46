package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/smallbiznis/volunteerhub/pkg/db/pagination"
)

type ListRequest struct {
	Title          string
	Location       string
	OrganizationID string
	Page           pagination.Pagination
}

type CreateRequest struct {
	// OrganizationID is required for admins and ignored for organization users.
	OrganizationID string
	Title          string
	Description    string
	SkillsRequired string
	Location       string
	StartDate      time.Time
	EndDate        *time.Time
}

type UpdateRequest struct {
	Title          *string
	Description    *string
	SkillsRequired *string
	Location       *string
	StartDate      *time.Time
	EndDate        *time.Time
}

type Service interface {
	List(ctx context.Context, req ListRequest) (pagination.Page[Opportunity], error)
	Get(ctx context.Context, id string) (*Opportunity, error)
	// GetByID is Get for callers that already hold a parsed id.
	GetByID(ctx context.Context, id snowflake.ID) (*Opportunity, error)
	// Unapplied lists upcoming opportunities excluding the given ids.
	Unapplied(ctx context.Context, exclude []snowflake.ID, limit int) ([]Opportunity, error)
	Create(ctx context.Context, caller authorization.Caller, req CreateRequest) (*Opportunity, error)
	Update(ctx context.Context, caller authorization.Caller, id string, req UpdateRequest) (*Opportunity, error)
	Delete(ctx context.Context, caller authorization.Caller, id string) error
}

var (
	ErrInvalidID           = errors.New("invalid_opportunity_id")
	ErrInvalidTitle        = errors.New("invalid_opportunity_title")
	ErrInvalidDates        = errors.New("invalid_opportunity_dates")
	ErrInvalidOrganization = errors.New("invalid_organization_id")
	ErrNotFound            = errors.New("opportunity_not_found")
	ErrHasDependents       = errors.New("opportunity_has_dependents")
)
