package domain

import (
	"context"

	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/smallbiznis/volunteerhub/pkg/db/pagination"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	// CreateAdmin provisions an admin without the registration key. Used by the CLI.
	CreateAdmin(ctx context.Context, req CreateAdminRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResult, error)
	// Authenticate resolves an access token to the caller it was issued for.
	Authenticate(ctx context.Context, accessToken string) (authorization.Caller, error)
	Me(ctx context.Context, caller authorization.Caller) (*User, error)
	UpdateMe(ctx context.Context, caller authorization.Caller, req UpdateMeRequest) (*User, error)

	ListUsers(ctx context.Context, caller authorization.Caller, req ListUsersRequest) (pagination.Page[User], error)
	GetUser(ctx context.Context, caller authorization.Caller, id string) (*User, error)
	DeleteUser(ctx context.Context, caller authorization.Caller, id string) error
}

type RegisterRequest struct {
	Username         string
	Email            string
	Password         string
	Role             authorization.Role
	OrganizationName string
	AdminKey         string
}

type CreateAdminRequest struct {
	Username string
	Email    string
	Password string
}

type LoginRequest struct {
	Login    string
	Password string
}

type UpdateMeRequest struct {
	Email    *string
	Password *string
}

type ListUsersRequest struct {
	Role   authorization.Role
	Search string
	Page   pagination.Pagination
}
