package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/volunteerhub/internal/clock"
	"github.com/smallbiznis/volunteerhub/internal/config"
	"github.com/smallbiznis/volunteerhub/internal/notification/domain"
	"github.com/smallbiznis/volunteerhub/internal/notification/repository"
	"github.com/smallbiznis/volunteerhub/internal/notification/service"
	"github.com/smallbiznis/volunteerhub/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func seed(t *testing.T, conn *gorm.DB, now time.Time) {
	t.Helper()
	exec := func(query string, args ...any) {
		require.NoError(t, conn.Exec(query, args...).Error)
	}

	exec(`INSERT INTO users (id, username, email, password_hash, role, is_active, created_at, updated_at)
		VALUES (1, 'vera', 'vera@example.org', 'x', 'volunteer', true, ?, ?)`, now, now)
	exec(`INSERT INTO users (id, username, email, password_hash, role, is_active, created_at, updated_at)
		VALUES (2, 'pablo', 'pablo@example.org', 'x', 'volunteer', true, ?, ?)`, now, now)
	exec(`INSERT INTO organizations (id, name, slug, created_at, updated_at) VALUES (10, 'Harbor', 'harbor', ?, ?)`, now, now)

	opportunity := func(id int, title string, start time.Time) {
		exec(`INSERT INTO opportunities (id, organization_id, title, location, start_date, created_at, updated_at)
			VALUES (?, 10, ?, 'Pier 3', ?, ?, ?)`, id, title, start, now, now)
	}
	opportunity(100, "Pantry Shift", now.Add(40*time.Hour))
	opportunity(101, "Harbor Cleanup", now.AddDate(0, 0, 10))
	opportunity(102, "Past Event", now.Add(-time.Hour))

	match := func(id, volunteer, opp int, status string) {
		exec(`INSERT INTO matches (id, volunteer_id, opportunity_id, status, matched_on, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`, id, volunteer, opp, status, now, now)
	}
	match(1000, 1, 100, "accepted")
	match(1001, 2, 100, "pending")
	match(1002, 1, 101, "accepted")
	match(1003, 2, 102, "accepted")
}

func TestRunEnqueuesOncePerVolunteerAndOpportunity(t *testing.T) {
	conn := dbtest.OpenWithSchema(t)
	clk := clock.NewFakeClock(time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC))
	seed(t, conn, clk.Now())

	repo := repository.Provide()
	job := New(Params{
		DB:     conn,
		Log:    zap.NewNop(),
		Clock:  clk,
		Config: config.Config{Notification: config.NotificationConfig{ReminderDays: 3}},
		Repo:   repo,
		Enqueuer: service.New(service.Params{
			DB: conn, Log: zap.NewNop(), Clock: clk, Repo: repo,
		}),
	})

	n, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var rows []domain.OutboxMessage
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.EventOpportunityReminder, rows[0].Event)
	assert.Equal(t, "vera@example.org", rows[0].Recipient)
	assert.Equal(t, "Pantry Shift", rows[0].Payload["Title"])
	assert.EqualValues(t, 2, rows[0].Payload["Days"])
	require.NotNil(t, rows[0].DedupeKey)
	assert.Equal(t, "opportunity:100", *rows[0].DedupeKey)

	clk.Advance(time.Hour)
	n, err = job.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	job := New(Params{
		Log:    zap.NewNop(),
		Clock:  clock.New(),
		Config: config.Config{Notification: config.NotificationConfig{ReminderCron: "not a cron"}},
	})
	_, err := job.Start()
	assert.Error(t, err)
}
