package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/volunteerhub/internal/audit/domain"
	"github.com/smallbiznis/volunteerhub/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.SystemLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO system_logs (
			id, level, source, action, message, actor_id, target_type, target_id, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Level,
		entry.Source,
		entry.Action,
		entry.Message,
		entry.ActorID,
		entry.TargetType,
		entry.TargetID,
		entry.Metadata,
		entry.CreatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]domain.SystemLog, int64, error) {
	stmt := db.WithContext(ctx).Model(&domain.SystemLog{})

	if level := strings.TrimSpace(filter.Level); level != "" {
		stmt = stmt.Where("level = ?", level)
	}
	if source := strings.TrimSpace(filter.Source); source != "" {
		stmt = stmt.Where("source = ?", source)
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		stmt = stmt.Where("action = ?", action)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []domain.SystemLog
	err := stmt.
		Order("created_at desc, id desc").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
