package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/volunteerhub/internal/match/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, match *domain.Match) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO matches (id, volunteer_id, opportunity_id, status, matched_on, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		match.ID,
		match.VolunteerID,
		match.OpportunityID,
		match.Status,
		match.MatchedOn,
		match.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Match, error) {
	var match domain.Match
	err := db.WithContext(ctx).Raw(
		`SELECT id, volunteer_id, opportunity_id, status, matched_on, updated_at
		 FROM matches WHERE id = ?`,
		id,
	).Scan(&match).Error
	if err != nil {
		return nil, err
	}
	if match.ID == 0 {
		return nil, nil
	}
	return &match, nil
}

func (r *repo) Exists(ctx context.Context, db *gorm.DB, volunteerID, opportunityID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM matches WHERE volunteer_id = ? AND opportunity_id = ?`,
		volunteerID,
		opportunityID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Match, error) {
	stmt := db.WithContext(ctx).
		Table("matches AS m").
		Select("m.id, m.volunteer_id, m.opportunity_id, m.status, m.matched_on, m.updated_at")
	if filter.OrganizationID != 0 {
		stmt = stmt.
			Joins("JOIN opportunities o ON o.id = m.opportunity_id").
			Where("o.organization_id = ?", filter.OrganizationID)
	}
	if filter.VolunteerID != 0 {
		stmt = stmt.Where("m.volunteer_id = ?", filter.VolunteerID)
	}
	if filter.OpportunityID != 0 {
		stmt = stmt.Where("m.opportunity_id = ?", filter.OpportunityID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("m.status = ?", filter.Status)
	}

	var items []domain.Match
	if err := stmt.Order("m.matched_on desc, m.id desc").Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Transition(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE matches SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		status,
		at,
		id,
		domain.StatusPending,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) OpportunityIDsForVolunteer(ctx context.Context, db *gorm.DB, volunteerID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT opportunity_id FROM matches WHERE volunteer_id = ?`,
		volunteerID,
	).Scan(&ids).Error
	return ids, err
}
