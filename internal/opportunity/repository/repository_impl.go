package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/volunteerhub/internal/opportunity/domain"
	"github.com/smallbiznis/volunteerhub/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, opp *domain.Opportunity) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO opportunities (
			id, organization_id, title, description, skills_required, location, start_date, end_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		opp.ID,
		opp.OrganizationID,
		opp.Title,
		opp.Description,
		opp.SkillsRequired,
		opp.Location,
		opp.StartDate,
		opp.EndDate,
		opp.CreatedAt,
		opp.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Opportunity, error) {
	var opp domain.Opportunity
	err := db.WithContext(ctx).Raw(
		`SELECT id, organization_id, title, description, skills_required, location, start_date, end_date, created_at, updated_at
		 FROM opportunities WHERE id = ?`,
		id,
	).Scan(&opp).Error
	if err != nil {
		return nil, err
	}
	if opp.ID == 0 {
		return nil, nil
	}
	return &opp, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]domain.Opportunity, int64, error) {
	stmt := db.WithContext(ctx).Model(&domain.Opportunity{})
	if title := strings.ToLower(strings.TrimSpace(filter.Title)); title != "" {
		stmt = stmt.Where("LOWER(title) LIKE ?", "%"+title+"%")
	}
	if location := strings.ToLower(strings.TrimSpace(filter.Location)); location != "" {
		stmt = stmt.Where("LOWER(location) LIKE ?", "%"+location+"%")
	}
	if filter.OrganizationID != 0 {
		stmt = stmt.Where("organization_id = ?", filter.OrganizationID)
	}
	if len(filter.ExcludeIDs) > 0 {
		stmt = stmt.Where("id NOT IN ?", filter.ExcludeIDs)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []domain.Opportunity
	err := stmt.
		Order("start_date asc, id asc").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, opp *domain.Opportunity) error {
	return db.WithContext(ctx).Exec(
		`UPDATE opportunities
		 SET title = ?, description = ?, skills_required = ?, location = ?, start_date = ?, end_date = ?, updated_at = ?
		 WHERE id = ?`,
		opp.Title,
		opp.Description,
		opp.SkillsRequired,
		opp.Location,
		opp.StartDate,
		opp.EndDate,
		opp.UpdatedAt,
		opp.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM opportunities WHERE id = ?`, id).Error
}

// CountDependents counts matches and hour records that reference the opportunity.
func (r *repo) CountDependents(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT
			(SELECT COUNT(1) FROM matches WHERE opportunity_id = ?) +
			(SELECT COUNT(1) FROM volunteer_hours WHERE opportunity_id = ?)`,
		id,
		id,
	).Scan(&count).Error
	return count, err
}

func (r *repo) OrganizationExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(1) FROM organizations WHERE id = ?`, id).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
