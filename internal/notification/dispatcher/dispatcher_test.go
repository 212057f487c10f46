package dispatcher

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/golang/mock/gomock"
	"github.com/smallbiznis/volunteerhub/internal/clock"
	"github.com/smallbiznis/volunteerhub/internal/config"
	"github.com/smallbiznis/volunteerhub/internal/notification/domain"
	"github.com/smallbiznis/volunteerhub/internal/notification/render"
	"github.com/smallbiznis/volunteerhub/internal/notification/repository"
	"github.com/smallbiznis/volunteerhub/internal/notification/service"
	"github.com/smallbiznis/volunteerhub/internal/providers/email/mock"
	"github.com/smallbiznis/volunteerhub/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const recipientID = 1001

type harness struct {
	db         *gorm.DB
	clock      *clock.FakeClock
	provider   *mock.MockProvider
	dispatcher *Dispatcher
	outbox     domain.Enqueuer
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	conn := dbtest.OpenWithSchema(t)
	clk := clock.NewFakeClock(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
	ctrl := gomock.NewController(t)
	provider := mock.NewMockProvider(ctrl)
	provider.EXPECT().Name().Return("mock").AnyTimes()

	require.NoError(t, conn.Exec(
		`INSERT INTO users (id, username, email, password_hash, role, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		recipientID, "vera", "vera@example.org", "x", "volunteer", true, clk.Now(), clk.Now(),
	).Error)

	repo := repository.Provide()
	d, err := New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		Clock:    clk,
		Repo:     repo,
		Renderer: render.New(config.NewStaticTemplateHolder(config.DefaultTemplateConfig())),
		Provider: provider,
		Config:   cfg,
	})
	require.NoError(t, err)

	return &harness{
		db:         conn,
		clock:      clk,
		provider:   provider,
		dispatcher: d,
		outbox:     service.New(service.Params{DB: conn, Log: zap.NewNop(), Clock: clk, Repo: repo}),
	}
}

func (h *harness) enqueue(t *testing.T, event string, data map[string]any) {
	t.Helper()
	require.NoError(t, h.outbox.Enqueue(context.Background(), nil, domain.Message{
		Event:       event,
		RecipientID: recipientID,
		Data:        data,
	}))
}

func (h *harness) only(t *testing.T) domain.OutboxMessage {
	t.Helper()
	var rows []domain.OutboxMessage
	require.NoError(t, h.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	return rows[0]
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunOnceSendsRenderedMessage(t *testing.T) {
	h := newHarness(t, Config{})
	h.enqueue(t, domain.EventMatchCreated, map[string]any{"Title": "Pantry <b>Shift</b>"})

	h.provider.EXPECT().
		Send(gomock.Any(), []string{"vera@example.org"}, "Application Received: Pantry Shift", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ []string, _ string, body string) error {
			assert.Contains(t, body, "Hello vera")
			assert.NotContains(t, body, "<b>Shift</b>")
			return nil
		})

	result, err := h.dispatcher.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 1}, result)

	row := h.only(t)
	assert.Equal(t, domain.StatusSent, row.Status)
	assert.Equal(t, "Application Received: Pantry Shift", row.Subject)
	require.NotNil(t, row.SentAt)

	result, err = h.dispatcher.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Processed(), "sent rows are not claimed again")
}

func TestRunOnceRetriesWithBackoffThenFails(t *testing.T) {
	h := newHarness(t, Config{MaxAttempts: 3, RetryBackoff: 30 * time.Second})
	h.enqueue(t, domain.EventMatchStatusChanged, map[string]any{"Title": "Pantry Shift", "StatusMessage": "has been accepted"})
	ctx := context.Background()
	smtpDown := errors.New("smtp: connection refused")

	h.provider.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(smtpDown).Times(3)

	result, err := h.dispatcher.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Retried: 1}, result)
	row := h.only(t)
	assert.Equal(t, domain.StatusPending, row.Status)
	assert.Equal(t, 1, row.Attempts)
	require.NotNil(t, row.LastError)
	assert.Equal(t, smtpDown.Error(), *row.LastError)
	assert.True(t, row.NextAttemptAt.Equal(h.clock.Now().Add(30*time.Second)))

	result, err = h.dispatcher.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Processed(), "not due before backoff elapses")

	h.clock.Advance(30 * time.Second)
	result, err = h.dispatcher.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Retried: 1}, result)
	row = h.only(t)
	assert.Equal(t, 2, row.Attempts)
	assert.True(t, row.NextAttemptAt.Equal(h.clock.Now().Add(time.Minute)))

	h.clock.Advance(time.Minute)
	result, err = h.dispatcher.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Failed: 1}, result)
	row = h.only(t)
	assert.Equal(t, domain.StatusFailed, row.Status)
	assert.Equal(t, 3, row.Attempts)

	h.clock.Advance(time.Hour)
	result, err = h.dispatcher.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Processed())
}

func TestRunOnceFailsUnrenderableMessage(t *testing.T) {
	h := newHarness(t, Config{})
	h.enqueue(t, "unknown.event", nil)

	result, err := h.dispatcher.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Failed: 1}, result)

	row := h.only(t)
	assert.Equal(t, domain.StatusFailed, row.Status)
	require.NotNil(t, row.LastError)
	assert.True(t, strings.HasPrefix(*row.LastError, render.ErrUnknownEvent.Error()))
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "smtp refused", truncate("smtp refused"))

	msg := "x" + strings.Repeat("ü", maxErrorLength)
	got := truncate(msg)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, maxErrorLength-1, len(got))
	assert.True(t, strings.HasPrefix(msg, got))
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	cfg := Config{RetryBackoff: time.Minute, MaxBackoff: 5 * time.Minute}.withDefaults()
	assert.Equal(t, time.Minute, cfg.backoff(1))
	assert.Equal(t, 2*time.Minute, cfg.backoff(2))
	assert.Equal(t, 4*time.Minute, cfg.backoff(3))
	assert.Equal(t, 5*time.Minute, cfg.backoff(4))
	assert.Equal(t, 5*time.Minute, cfg.backoff(10))
}

func TestProvideConfigAppliesDefaults(t *testing.T) {
	cfg := ProvideConfig(config.Config{})
	assert.Equal(t, DefaultConfig(), cfg)
}
