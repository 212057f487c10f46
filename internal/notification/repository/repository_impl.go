package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/volunteerhub/internal/notification/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, msg *domain.OutboxMessage) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO notification_outbox (
			id, event, recipient_id, recipient, subject, payload, dedupe_key, status, attempts, next_attempt_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID,
		msg.Event,
		msg.RecipientID,
		msg.Recipient,
		msg.Subject,
		msg.Payload,
		msg.DedupeKey,
		msg.Status,
		msg.Attempts,
		msg.NextAttemptAt,
		msg.CreatedAt,
	).Error
}

func (r *repo) ExistsForRecipient(ctx context.Context, db *gorm.DB, event string, recipientID snowflake.ID, dedupeKey string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM notification_outbox WHERE event = ? AND recipient_id = ? AND dedupe_key = ?`,
		event,
		recipientID,
		dedupeKey,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) FindRecipient(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*domain.Recipient, error) {
	var recipient domain.Recipient
	err := db.WithContext(ctx).Raw(
		`SELECT id, username, email FROM users WHERE id = ?`,
		userID,
	).Scan(&recipient).Error
	if err != nil {
		return nil, err
	}
	if recipient.ID == 0 {
		return nil, nil
	}
	return &recipient, nil
}

func (r *repo) ListDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]domain.OutboxMessage, error) {
	var items []domain.OutboxMessage
	err := db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", domain.StatusPending, now).
		Order("next_attempt_at asc, id asc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CountPending(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM notification_outbox WHERE status = ?`,
		domain.StatusPending,
	).Scan(&count).Error
	return count, err
}

// MarkSent, MarkRetry and MarkFailed only touch rows still pending, so a row
// claimed by two dispatchers is finalized once. They report whether the row changed.
func (r *repo) MarkSent(ctx context.Context, db *gorm.DB, id string, subject string, sentAt time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE notification_outbox
		 SET status = ?, subject = ?, attempts = attempts + 1, last_error = NULL, sent_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusSent,
		subject,
		sentAt,
		id,
		domain.StatusPending,
	)
	return res.RowsAffected > 0, res.Error
}

func (r *repo) MarkRetry(ctx context.Context, db *gorm.DB, id string, attempts int, lastError string, nextAttemptAt time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE notification_outbox
		 SET attempts = ?, last_error = ?, next_attempt_at = ?
		 WHERE id = ? AND status = ?`,
		attempts,
		lastError,
		nextAttemptAt,
		id,
		domain.StatusPending,
	)
	return res.RowsAffected > 0, res.Error
}

func (r *repo) MarkFailed(ctx context.Context, db *gorm.DB, id string, attempts int, lastError string) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE notification_outbox
		 SET status = ?, attempts = ?, last_error = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusFailed,
		attempts,
		lastError,
		id,
		domain.StatusPending,
	)
	return res.RowsAffected > 0, res.Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*domain.OutboxMessage, error) {
	var msg domain.OutboxMessage
	err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&msg).Error
	if err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, nil
	}
	return &msg, nil
}

func (r *repo) ListReminderTargets(ctx context.Context, db *gorm.DB, from, to time.Time) ([]domain.ReminderTarget, error) {
	var targets []domain.ReminderTarget
	err := db.WithContext(ctx).Raw(
		`SELECT m.volunteer_id, o.id AS opportunity_id, o.title, o.location, o.start_date
		 FROM matches m
		 JOIN opportunities o ON o.id = m.opportunity_id
		 WHERE m.status = 'accepted' AND o.start_date >= ? AND o.start_date <= ?
		 ORDER BY o.start_date ASC, m.id ASC`,
		from,
		to,
	).Scan(&targets).Error
	if err != nil {
		return nil, err
	}
	return targets, nil
}
