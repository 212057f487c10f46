package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/volunteerhub/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	Title          string
	Location       string
	OrganizationID snowflake.ID
	ExcludeIDs     []snowflake.ID
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, opp *Opportunity) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Opportunity, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]Opportunity, int64, error)
	Update(ctx context.Context, db *gorm.DB, opp *Opportunity) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	CountDependents(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
	OrganizationExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
}
