package service

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/volunteerhub/internal/clock"
	"github.com/smallbiznis/volunteerhub/internal/notification/domain"
	"github.com/smallbiznis/volunteerhub/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    domain.Repository
	Metrics *metrics.NotificationMetrics `optional:"true"`
}

// Outbox is the write side of the notification queue.
type Outbox struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    domain.Repository
	metrics *metrics.NotificationMetrics
}

func New(p Params) domain.Enqueuer {
	return NewOutbox(p)
}

func NewOutbox(p Params) *Outbox {
	return &Outbox{
		db:      p.DB,
		log:     p.Log.Named("notification.outbox"),
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (o *Outbox) Enqueue(ctx context.Context, tx *gorm.DB, msg domain.Message) error {
	return o.enqueue(ctx, tx, msg, nil)
}

func (o *Outbox) EnqueueOnce(ctx context.Context, tx *gorm.DB, msg domain.Message, dedupeKey string) (bool, error) {
	key := strings.TrimSpace(dedupeKey)
	if tx == nil {
		tx = o.db
	}
	if key != "" {
		exists, err := o.repo.ExistsForRecipient(ctx, tx, msg.Event, msg.RecipientID, key)
		if err != nil {
			return false, err
		}
		if exists {
			return false, nil
		}
	}
	var keyPtr *string
	if key != "" {
		keyPtr = &key
	}
	if err := o.enqueue(ctx, tx, msg, keyPtr); err != nil {
		return false, err
	}
	return true, nil
}

func (o *Outbox) enqueue(ctx context.Context, tx *gorm.DB, msg domain.Message, dedupeKey *string) error {
	event := strings.TrimSpace(msg.Event)
	if event == "" {
		return domain.ErrInvalidEvent
	}
	if msg.RecipientID == 0 {
		return domain.ErrInvalidRecipient
	}
	if tx == nil {
		tx = o.db
	}

	recipient, err := o.repo.FindRecipient(ctx, tx, msg.RecipientID)
	if err != nil {
		return err
	}
	if recipient == nil || strings.TrimSpace(recipient.Email) == "" {
		return domain.ErrRecipientMissing
	}

	payload := datatypes.JSONMap{}
	for key, value := range msg.Data {
		payload[key] = value
	}
	payload["Username"] = recipient.Username

	now := o.clock.Now()
	row := domain.OutboxMessage{
		ID:            ulid.Make().String(),
		Event:         event,
		RecipientID:   recipient.ID,
		Recipient:     recipient.Email,
		Payload:       payload,
		DedupeKey:     dedupeKey,
		Status:        domain.StatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
	if err := o.repo.Insert(ctx, tx, &row); err != nil {
		return err
	}

	o.metrics.IncOutcome(event, metrics.NotificationOutcomeEnqueued)
	o.log.Debug("notification enqueued",
		zap.String("message_id", row.ID),
		zap.String("event", event),
		zap.String("recipient_id", recipient.ID.String()),
	)
	return nil
}
