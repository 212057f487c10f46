package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/smallbiznis/volunteerhub/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	Name     string
	Location string
}

type ListRequest struct {
	Name     string
	Location string
	Page     pagination.Pagination
}

type ProvisionRequest struct {
	Name         string
	ContactEmail string
	Description  string
	Location     string
}

type UpdateRequest struct {
	Name         *string
	Description  *string
	ContactEmail *string
	Location     *string
}

type Service interface {
	// Provision creates an organization inside tx for a newly registered organization user.
	Provision(ctx context.Context, tx *gorm.DB, req ProvisionRequest) (*Organization, error)
	Get(ctx context.Context, id string) (*Organization, error)
	List(ctx context.Context, req ListRequest) (pagination.Page[Organization], error)
	Update(ctx context.Context, caller authorization.Caller, id string, req UpdateRequest) (*Organization, error)
}

var (
	ErrInvalidID    = errors.New("invalid_organization_id")
	ErrInvalidName  = errors.New("invalid_organization_name")
	ErrInvalidEmail = errors.New("invalid_contact_email")
	ErrNotFound     = errors.New("organization_not_found")
)
