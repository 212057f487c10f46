package notification

import (
	"context"

	"github.com/smallbiznis/volunteerhub/internal/notification/dispatcher"
	"github.com/smallbiznis/volunteerhub/internal/notification/reminder"
	"github.com/smallbiznis/volunteerhub/internal/notification/render"
	"github.com/smallbiznis/volunteerhub/internal/notification/repository"
	"github.com/smallbiznis/volunteerhub/internal/notification/service"
	"go.uber.org/fx"
)

// Module provides the outbox writer. Delivery is added by Workers so that
// one-shot commands do not start background loops.
var Module = fx.Module("notification.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(render.New),
)

var Workers = fx.Module("notification.workers",
	fx.Provide(dispatcher.ProvideConfig),
	fx.Provide(dispatcher.New),
	fx.Provide(reminder.New),
	fx.Invoke(StartWorkers),
)

func StartWorkers(lc fx.Lifecycle, d *dispatcher.Dispatcher, job *reminder.Job) {
	var (
		stopLoop func(context.Context) error
		stopCron func() context.Context
	)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			c, err := job.Start()
			if err != nil {
				return err
			}
			stopCron = c.Stop
			stopLoop = startLoop(d.RunForever)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if stopLoop != nil {
				if err := stopLoop(ctx); err != nil {
					return err
				}
			}
			if stopCron == nil {
				return nil
			}
			select {
			case <-stopCron().Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
}

// startLoop runs fn in the background. The returned stop cancels fn and
// blocks until it returns or ctx expires.
func startLoop(fn func(context.Context)) func(context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(ctx)
	}()

	return func(stopCtx context.Context) error {
		cancel()
		select {
		case <-done:
			return nil
		case <-stopCtx.Done():
			return stopCtx.Err()
		}
	}
}
