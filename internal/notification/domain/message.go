package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventUserWelcome         = "user.welcome"
	EventMatchCreated        = "match.created"
	EventMatchStatusChanged  = "match.status_changed"
	EventHoursVerified       = "hours.verified"
	EventOpportunityReminder = "opportunity.reminder"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// OutboxMessage is a queued email. Rows are written in the same transaction as
// the change that caused them and delivered later by the dispatcher.
type OutboxMessage struct {
	ID            string            `gorm:"primaryKey;type:text" json:"id"`
	Event         string            `gorm:"type:text;not null;index" json:"event"`
	RecipientID   snowflake.ID      `gorm:"not null;index" json:"recipient_id"`
	Recipient     string            `gorm:"type:text;not null" json:"recipient"`
	Subject       string            `gorm:"type:text" json:"subject"`
	Payload       datatypes.JSONMap `gorm:"type:json" json:"payload"`
	DedupeKey     *string           `gorm:"type:text;index" json:"dedupe_key,omitempty"`
	Status        Status            `gorm:"type:text;not null;index:idx_outbox_due,priority:1" json:"status"`
	Attempts      int               `gorm:"not null;default:0" json:"attempts"`
	LastError     *string           `gorm:"type:text" json:"last_error,omitempty"`
	NextAttemptAt time.Time         `gorm:"not null;index:idx_outbox_due,priority:2" json:"next_attempt_at"`
	CreatedAt     time.Time         `gorm:"not null" json:"created_at"`
	SentAt        *time.Time        `json:"sent_at,omitempty"`
}

func (OutboxMessage) TableName() string { return "notification_outbox" }

// Message is what domain services hand to the outbox.
type Message struct {
	Event       string
	RecipientID snowflake.ID
	Data        map[string]any
}

// Recipient is the contact resolved for a user at enqueue time.
type Recipient struct {
	ID       snowflake.ID
	Username string
	Email    string
}

// ReminderTarget is a volunteer with an accepted application for an
// opportunity that starts soon.
type ReminderTarget struct {
	VolunteerID   snowflake.ID
	OpportunityID snowflake.ID
	Title         string
	Location      string
	StartDate     time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, msg *OutboxMessage) error
	ExistsForRecipient(ctx context.Context, db *gorm.DB, event string, recipientID snowflake.ID, dedupeKey string) (bool, error)
	FindRecipient(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Recipient, error)
	ListDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]OutboxMessage, error)
	CountPending(ctx context.Context, db *gorm.DB) (int64, error)
	MarkSent(ctx context.Context, db *gorm.DB, id string, subject string, sentAt time.Time) (bool, error)
	MarkRetry(ctx context.Context, db *gorm.DB, id string, attempts int, lastError string, nextAttemptAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, db *gorm.DB, id string, attempts int, lastError string) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, id string) (*OutboxMessage, error)
	ListReminderTargets(ctx context.Context, db *gorm.DB, from, to time.Time) ([]ReminderTarget, error)
}

// Enqueuer is the outbox write side consumed by other domains.
type Enqueuer interface {
	// Enqueue inserts msg through tx. It never sends.
	Enqueue(ctx context.Context, tx *gorm.DB, msg Message) error
	// EnqueueOnce is Enqueue skipped when a message with the same event,
	// recipient and dedupe key already exists.
	EnqueueOnce(ctx context.Context, tx *gorm.DB, msg Message, dedupeKey string) (bool, error)
}

var (
	ErrInvalidEvent     = errors.New("invalid_notification_event")
	ErrInvalidRecipient = errors.New("invalid_notification_recipient")
	ErrRecipientMissing = errors.New("notification_recipient_not_found")
)
