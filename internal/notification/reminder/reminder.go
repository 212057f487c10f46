// Package reminder enqueues "starts soon" emails for accepted volunteers.
package reminder

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/smallbiznis/volunteerhub/internal/clock"
	"github.com/smallbiznis/volunteerhub/internal/config"
	"github.com/smallbiznis/volunteerhub/internal/notification/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const jobTimeout = 5 * time.Minute

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Config   config.Config
	Repo     domain.Repository
	Enqueuer domain.Enqueuer
}

type Job struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	repo     domain.Repository
	enqueuer domain.Enqueuer
	schedule string
	days     int
}

func New(p Params) *Job {
	days := p.Config.Notification.ReminderDays
	if days <= 0 {
		days = 3
	}
	schedule := p.Config.Notification.ReminderCron
	if schedule == "" {
		schedule = "0 0 8 * * *"
	}
	return &Job{
		db:       p.DB,
		log:      p.Log.Named("notification.reminder"),
		clock:    p.Clock,
		repo:     p.Repo,
		enqueuer: p.Enqueuer,
		schedule: schedule,
		days:     days,
	}
}

// Run enqueues one reminder per volunteer and opportunity whose start falls
// within the reminder window. Repeated runs do not enqueue duplicates.
func (j *Job) Run(ctx context.Context) (int, error) {
	now := j.clock.Now()
	targets, err := j.repo.ListReminderTargets(ctx, j.db, now, now.Add(time.Duration(j.days)*24*time.Hour))
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, target := range targets {
		days := int(math.Ceil(target.StartDate.Sub(now).Hours() / 24))
		if days < 1 {
			days = 1
		}
		created, err := j.enqueuer.EnqueueOnce(ctx, j.db, domain.Message{
			Event:       domain.EventOpportunityReminder,
			RecipientID: target.VolunteerID,
			Data: map[string]any{
				"Title":     target.Title,
				"Location":  target.Location,
				"StartDate": target.StartDate.UTC().Format("2006-01-02 15:04 MST"),
				"Days":      days,
			},
		}, fmt.Sprintf("opportunity:%s", target.OpportunityID.String()))
		if err != nil {
			j.log.Warn("reminder enqueue failed",
				zap.String("volunteer_id", target.VolunteerID.String()),
				zap.String("opportunity_id", target.OpportunityID.String()),
				zap.Error(err),
			)
			continue
		}
		if created {
			enqueued++
		}
	}
	return enqueued, nil
}

// Start schedules Run on the configured cron spec (with seconds, UTC).
func (j *Job) Start() (*cron.Cron, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)
	_, err := c.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		n, err := j.Run(ctx)
		if err != nil {
			j.log.Error("reminder job failed", zap.Error(err))
			return
		}
		j.log.Info("reminder job finished", zap.Int("enqueued", n))
	})
	if err != nil {
		return nil, fmt.Errorf("schedule reminders %q: %w", j.schedule, err)
	}
	c.Start()
	return c, nil
}
