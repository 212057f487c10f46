// Package dispatcher delivers queued notification messages in the background.
package dispatcher

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/smallbiznis/volunteerhub/internal/clock"
	"github.com/smallbiznis/volunteerhub/internal/notification/domain"
	"github.com/smallbiznis/volunteerhub/internal/notification/render"
	"github.com/smallbiznis/volunteerhub/internal/observability/metrics"
	"github.com/smallbiznis/volunteerhub/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("invalid_dispatcher_config")

const maxErrorLength = 500

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Repo     domain.Repository
	Renderer *render.Renderer
	Provider email.Provider
	Metrics  *metrics.NotificationMetrics `optional:"true"`
	Config   Config                       `optional:"true"`
}

type Dispatcher struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	repo     domain.Repository
	renderer *render.Renderer
	provider email.Provider
	metrics  *metrics.NotificationMetrics
	cfg      Config
}

func New(p Params) (*Dispatcher, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.Repo == nil || p.Renderer == nil || p.Provider == nil {
		return nil, ErrInvalidConfig
	}
	return &Dispatcher{
		db:       p.DB,
		log:      p.Log.Named("notification.dispatcher"),
		clock:    p.Clock,
		repo:     p.Repo,
		renderer: p.Renderer,
		provider: p.Provider,
		metrics:  p.Metrics,
		cfg:      p.Config.withDefaults(),
	}, nil
}

// Result summarizes one dispatch pass.
type Result struct {
	Sent    int
	Retried int
	Failed  int
}

func (r Result) Processed() int { return r.Sent + r.Retried + r.Failed }

func (d *Dispatcher) RunForever(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := d.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.log.Warn("notification dispatch failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce delivers one batch of due messages. Delivery failures are recorded
// on the message and never returned; only storage errors are.
func (d *Dispatcher) RunOnce(ctx context.Context) (Result, error) {
	var result Result

	due, err := d.repo.ListDue(ctx, d.db, d.clock.Now(), d.cfg.BatchSize)
	if err != nil {
		return result, err
	}

	for _, msg := range due {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		outcome, err := d.deliver(ctx, msg)
		if err != nil {
			return result, err
		}
		switch outcome {
		case metrics.NotificationOutcomeSent:
			result.Sent++
		case metrics.NotificationOutcomeRetry:
			result.Retried++
		case metrics.NotificationOutcomeFailed:
			result.Failed++
		}
	}

	if pending, err := d.repo.CountPending(ctx, d.db); err == nil {
		d.metrics.SetBacklog(int(pending))
	}
	return result, nil
}

func (d *Dispatcher) deliver(ctx context.Context, msg domain.OutboxMessage) (string, error) {
	log := d.log.With(
		zap.String("message_id", msg.ID),
		zap.String("event", msg.Event),
		zap.Int("attempt", msg.Attempts+1),
	)

	rendered, err := d.renderer.Render(msg.Event, msg.Payload)
	if err != nil {
		// a message that cannot render will never succeed
		return d.fail(ctx, log, msg, msg.Attempts+1, err)
	}

	started := d.clock.Now()
	sendErr := d.provider.Send(ctx, []string{msg.Recipient}, rendered.Subject, rendered.Body)
	d.metrics.ObserveSend(msg.Event, d.clock.Now().Sub(started))

	if sendErr == nil {
		changed, err := d.repo.MarkSent(ctx, d.db, msg.ID, rendered.Subject, d.clock.Now())
		if err != nil {
			return "", err
		}
		if changed {
			d.metrics.IncOutcome(msg.Event, metrics.NotificationOutcomeSent)
			log.Debug("notification sent", zap.String("provider", d.provider.Name()))
		}
		return metrics.NotificationOutcomeSent, nil
	}

	attempts := msg.Attempts + 1
	if attempts >= d.cfg.MaxAttempts {
		return d.fail(ctx, log, msg, attempts, sendErr)
	}

	next := d.clock.Now().Add(d.cfg.backoff(attempts))
	changed, err := d.repo.MarkRetry(ctx, d.db, msg.ID, attempts, truncate(sendErr.Error()), next)
	if err != nil {
		return "", err
	}
	if changed {
		d.metrics.IncOutcome(msg.Event, metrics.NotificationOutcomeRetry)
		log.Warn("notification delivery failed, will retry",
			zap.String("provider", d.provider.Name()),
			zap.Time("next_attempt_at", next),
			zap.Error(sendErr),
		)
	}
	return metrics.NotificationOutcomeRetry, nil
}

func (d *Dispatcher) fail(ctx context.Context, log *zap.Logger, msg domain.OutboxMessage, attempts int, cause error) (string, error) {
	changed, err := d.repo.MarkFailed(ctx, d.db, msg.ID, attempts, truncate(cause.Error()))
	if err != nil {
		return "", err
	}
	if changed {
		d.metrics.IncOutcome(msg.Event, metrics.NotificationOutcomeFailed)
		log.Error("notification delivery abandoned",
			zap.String("provider", d.provider.Name()),
			zap.Error(cause),
		)
	}
	return metrics.NotificationOutcomeFailed, nil
}

func truncate(s string) string {
	if len(s) <= maxErrorLength {
		return s
	}
	n := maxErrorLength
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
