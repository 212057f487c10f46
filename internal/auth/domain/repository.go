package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"github.com/smallbiznis/volunteerhub/pkg/db/pagination"
	"gorm.io/gorm"
)


type ListFilter struct {
	Role   authorization.Role
	Search string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, user *User) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindByLogin(ctx context.Context, db *gorm.DB, login string) (*User, error)
	Exists(ctx context.Context, db *gorm.DB, username, email string) (bool, error)
	EmailTaken(ctx context.Context, db *gorm.DB, email string, exceptID snowflake.ID) (bool, error)
	CountByRole(ctx context.Context, db *gorm.DB, role authorization.Role) (int64, error)
	UpdateCredentials(ctx context.Context, db *gorm.DB, user *User) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]User, int64, error)
	CountDependents(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
