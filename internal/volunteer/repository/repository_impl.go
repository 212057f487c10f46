package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/volunteerhub/internal/volunteer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, profile *domain.Profile) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO volunteer_profiles (user_id, full_name, bio, phone, location, skills, availability, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.UserID,
		profile.FullName,
		profile.Bio,
		profile.Phone,
		profile.Location,
		profile.Skills,
		profile.Availability,
		profile.CreatedAt,
		profile.UpdatedAt,
	).Error
}

func (r *repo) FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*domain.Profile, error) {
	var profile domain.Profile
	err := db.WithContext(ctx).Raw(
		`SELECT user_id, full_name, bio, phone, location, skills, availability, created_at, updated_at
		 FROM volunteer_profiles WHERE user_id = ?`,
		userID,
	).Scan(&profile).Error
	if err != nil {
		return nil, err
	}
	if profile.UserID == 0 {
		return nil, nil
	}
	return &profile, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, profile *domain.Profile) error {
	return db.WithContext(ctx).Exec(
		`UPDATE volunteer_profiles
		 SET full_name = ?, bio = ?, phone = ?, location = ?, skills = ?, availability = ?, updated_at = ?
		 WHERE user_id = ?`,
		profile.FullName,
		profile.Bio,
		profile.Phone,
		profile.Location,
		profile.Skills,
		profile.Availability,
		profile.UpdatedAt,
		profile.UserID,
	).Error
}

func (r *repo) SumHours(ctx context.Context, db *gorm.DB, volunteerID snowflake.ID) (domain.HourTotals, error) {
	var row struct {
		Verified float64
		Logged   float64
	}
	err := db.WithContext(ctx).Raw(
		`SELECT
			COALESCE(SUM(CASE WHEN status = 'verified' THEN hours ELSE 0 END), 0) AS verified,
			COALESCE(SUM(hours), 0) AS logged
		 FROM volunteer_hours WHERE volunteer_id = ?`,
		volunteerID,
	).Scan(&row).Error
	if err != nil {
		return domain.HourTotals{}, err
	}
	return domain.HourTotals{Verified: row.Verified, Logged: row.Logged}, nil
}

func (r *repo) CountMatches(ctx context.Context, db *gorm.DB, volunteerID snowflake.ID) (domain.MatchTotals, error) {
	var row struct {
		Total    int64
		Accepted int64
	}
	err := db.WithContext(ctx).Raw(
		`SELECT
			COUNT(1) AS total,
			COALESCE(SUM(CASE WHEN status = 'accepted' THEN 1 ELSE 0 END), 0) AS accepted
		 FROM matches WHERE volunteer_id = ?`,
		volunteerID,
	).Scan(&row).Error
	if err != nil {
		return domain.MatchTotals{}, err
	}
	return domain.MatchTotals{Total: row.Total, Accepted: row.Accepted}, nil
}

func (r *repo) RecentHours(ctx context.Context, db *gorm.DB, volunteerID snowflake.ID, limit int) ([]domain.RecentHour, error) {
	var rows []domain.RecentHour
	err := db.WithContext(ctx).Raw(
		`SELECT h.id, h.opportunity_id, COALESCE(o.title, '') AS opportunity_title, h.hours, h.date, h.status
		 FROM volunteer_hours h
		 LEFT JOIN opportunities o ON o.id = h.opportunity_id
		 WHERE h.volunteer_id = ?
		 ORDER BY h.date DESC, h.id DESC
		 LIMIT ?`,
		volunteerID,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
