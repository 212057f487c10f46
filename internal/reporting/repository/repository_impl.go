package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/volunteerhub/internal/reporting/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CountUsersByRole(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	var rows []struct {
		Role  string
		Count int64
	}
	err := db.WithContext(ctx).Raw(
		`SELECT role, COUNT(1) AS count FROM users GROUP BY role`,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}

func (r *repo) Totals(ctx context.Context, db *gorm.DB) (domain.Totals, error) {
	var totals domain.Totals
	err := db.WithContext(ctx).Raw(
		`SELECT
			(SELECT COUNT(1) FROM organizations) AS organizations,
			(SELECT COUNT(1) FROM opportunities) AS opportunities,
			(SELECT COUNT(1) FROM matches) AS matches,
			(SELECT COUNT(1) FROM matches WHERE status = 'pending') AS pending_matches,
			(SELECT COUNT(1) FROM volunteer_hours) AS hour_records,
			(SELECT COUNT(1) FROM volunteer_hours WHERE status = 'unverified') AS unverified_hours,
			(SELECT COALESCE(SUM(hours), 0) FROM volunteer_hours WHERE status = 'verified') AS total_verified_hours`,
	).Scan(&totals).Error
	return totals, err
}

func (r *repo) RecentUsers(ctx context.Context, db *gorm.DB, limit int) ([]domain.RecentUser, error) {
	var users []domain.RecentUser
	err := db.WithContext(ctx).Raw(
		`SELECT id, username, role, created_at FROM users ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	).Scan(&users).Error
	return users, err
}

func (r *repo) MatchStats(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (domain.MatchStats, error) {
	var stats domain.MatchStats
	stmt := db.WithContext(ctx).
		Table("matches AS m").
		Select(`COUNT(1) AS total_matches,
			COALESCE(SUM(CASE WHEN m.status = 'pending' THEN 1 ELSE 0 END), 0) AS pending_matches,
			COALESCE(SUM(CASE WHEN m.status = 'accepted' THEN 1 ELSE 0 END), 0) AS accepted_matches,
			COALESCE(SUM(CASE WHEN m.status = 'rejected' THEN 1 ELSE 0 END), 0) AS rejected_matches`)
	if orgID != 0 {
		stmt = stmt.
			Joins("JOIN opportunities o ON o.id = m.opportunity_id").
			Where("o.organization_id = ?", orgID)
	}
	err := stmt.Scan(&stats).Error
	return stats, err
}

func (r *repo) VerifiedHours(ctx context.Context, db *gorm.DB, filter domain.HoursFilter) ([]domain.HoursLine, error) {
	stmt := db.WithContext(ctx).
		Table("volunteer_hours AS h").
		Select(`h.volunteer_id, COALESCE(u.username, '') AS volunteer,
			h.opportunity_id, o.title AS opportunity_title,
			COUNT(1) AS entries, SUM(h.hours) AS hours`).
		Joins("JOIN opportunities o ON o.id = h.opportunity_id").
		Joins("LEFT JOIN users u ON u.id = h.volunteer_id").
		Where("h.status = ?", "verified")
	if filter.OrganizationID != 0 {
		stmt = stmt.Where("o.organization_id = ?", filter.OrganizationID)
	}
	if filter.From != nil {
		stmt = stmt.Where("h.date >= ?", *filter.From)
	}
	if filter.To != nil {
		stmt = stmt.Where("h.date <= ?", *filter.To)
	}

	var lines []domain.HoursLine
	err := stmt.
		Group("h.volunteer_id, u.username, h.opportunity_id, o.title").
		Order("volunteer asc, opportunity_title asc").
		Scan(&lines).Error
	return lines, err
}

func (r *repo) OrganizationName(ctx context.Context, db *gorm.DB, id snowflake.ID) (string, error) {
	var name string
	err := db.WithContext(ctx).Raw(`SELECT name FROM organizations WHERE id = ?`, id).Scan(&name).Error
	return name, err
}
