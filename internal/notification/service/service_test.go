package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/volunteerhub/internal/clock"
	"github.com/smallbiznis/volunteerhub/internal/notification/domain"
	"github.com/smallbiznis/volunteerhub/internal/notification/repository"
	"github.com/smallbiznis/volunteerhub/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestOutbox(t *testing.T) (*Outbox, *gorm.DB, snowflake.ID) {
	t.Helper()
	conn := dbtest.OpenWithSchema(t)
	clk := clock.NewFakeClock(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	userID := snowflake.ID(1001)
	require.NoError(t, conn.Exec(
		`INSERT INTO users (id, username, email, password_hash, role, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, "vera", "vera@example.org", "x", "volunteer", true, clk.Now(), clk.Now(),
	).Error)

	return NewOutbox(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		Clock: clk,
		Repo:  repository.Provide(),
	}), conn, userID
}

func TestEnqueueResolvesRecipient(t *testing.T) {
	outbox, conn, userID := newTestOutbox(t)
	ctx := context.Background()

	err := outbox.Enqueue(ctx, nil, domain.Message{
		Event:       domain.EventMatchCreated,
		RecipientID: userID,
		Data:        map[string]any{"Title": "Pantry Shift"},
	})
	require.NoError(t, err)

	var rows []domain.OutboxMessage
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Len(t, row.ID, 26, "ulid")
	assert.Equal(t, "vera@example.org", row.Recipient)
	assert.Equal(t, domain.StatusPending, row.Status)
	assert.Equal(t, 0, row.Attempts)
	assert.Equal(t, "vera", row.Payload["Username"])
	assert.Equal(t, "Pantry Shift", row.Payload["Title"])
	assert.Nil(t, row.DedupeKey)
}

func TestEnqueueValidation(t *testing.T) {
	outbox, _, userID := newTestOutbox(t)
	ctx := context.Background()

	err := outbox.Enqueue(ctx, nil, domain.Message{RecipientID: userID})
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)

	err = outbox.Enqueue(ctx, nil, domain.Message{Event: domain.EventUserWelcome})
	assert.ErrorIs(t, err, domain.ErrInvalidRecipient)

	err = outbox.Enqueue(ctx, nil, domain.Message{Event: domain.EventUserWelcome, RecipientID: 42})
	assert.ErrorIs(t, err, domain.ErrRecipientMissing)
}

func TestEnqueueRollsBackWithTransaction(t *testing.T) {
	outbox, conn, userID := newTestOutbox(t)
	ctx := context.Background()

	_ = conn.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, outbox.Enqueue(ctx, tx, domain.Message{Event: domain.EventUserWelcome, RecipientID: userID}))
		return assert.AnError
	})

	var count int64
	require.NoError(t, conn.Model(&domain.OutboxMessage{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEnqueueOnceDeduplicates(t *testing.T) {
	outbox, conn, userID := newTestOutbox(t)
	ctx := context.Background()
	msg := domain.Message{Event: domain.EventOpportunityReminder, RecipientID: userID}

	created, err := outbox.EnqueueOnce(ctx, nil, msg, "opportunity:7")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = outbox.EnqueueOnce(ctx, nil, msg, "opportunity:7")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = outbox.EnqueueOnce(ctx, nil, msg, "opportunity:8")
	require.NoError(t, err)
	assert.True(t, created)

	var count int64
	require.NoError(t, conn.Model(&domain.OutboxMessage{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
