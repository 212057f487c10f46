package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/volunteerhub/internal/volunteerhour/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, hour *domain.Hour) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO volunteer_hours (
			id, volunteer_id, opportunity_id, hours, date, description, verified, status, verified_by, verified_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		hour.ID,
		hour.VolunteerID,
		hour.OpportunityID,
		hour.Hours,
		hour.Date,
		hour.Description,
		hour.Verified,
		hour.Status,
		hour.VerifiedBy,
		hour.VerifiedAt,
		hour.CreatedAt,
		hour.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Hour, error) {
	var hour domain.Hour
	err := db.WithContext(ctx).Raw(
		`SELECT id, volunteer_id, opportunity_id, hours, date, description, verified, status, verified_by, verified_at, created_at, updated_at
		 FROM volunteer_hours WHERE id = ?`,
		id,
	).Scan(&hour).Error
	if err != nil {
		return nil, err
	}
	if hour.ID == 0 {
		return nil, nil
	}
	return &hour, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Hour, error) {
	stmt := db.WithContext(ctx).
		Table("volunteer_hours AS h").
		Select(`h.id, h.volunteer_id, h.opportunity_id, h.hours, h.date, h.description, h.verified,
			h.status, h.verified_by, h.verified_at, h.created_at, h.updated_at`)
	if filter.OrganizationID != 0 {
		stmt = stmt.
			Joins("JOIN opportunities o ON o.id = h.opportunity_id").
			Where("o.organization_id = ?", filter.OrganizationID)
	}
	if filter.VolunteerID != 0 {
		stmt = stmt.Where("h.volunteer_id = ?", filter.VolunteerID)
	}
	if filter.OpportunityID != 0 {
		stmt = stmt.Where("h.opportunity_id = ?", filter.OpportunityID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("h.status = ?", filter.Status)
	}

	var items []domain.Hour
	if err := stmt.Order("h.date desc, h.id desc").Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateUnverified(ctx context.Context, db *gorm.DB, hour *domain.Hour) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE volunteer_hours SET hours = ?, date = ?, description = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		hour.Hours,
		hour.Date,
		hour.Description,
		hour.UpdatedAt,
		hour.ID,
		domain.StatusUnverified,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) DeleteUnverified(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM volunteer_hours WHERE id = ? AND status = ?`,
		id,
		domain.StatusUnverified,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) Decide(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status, verifiedBy snowflake.ID, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE volunteer_hours
		 SET status = ?, verified = ?, verified_by = ?, verified_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		status,
		status == domain.StatusVerified,
		verifiedBy,
		at,
		at,
		id,
		domain.StatusUnverified,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
