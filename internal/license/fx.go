package license

import (
	"context"
	"errors"

	"github.com/smallbiznis/factorylicense/internal/changefeed"
	licensedomain "github.com/smallbiznis/factorylicense/internal/license/domain"
	"github.com/smallbiznis/factorylicense/internal/license/repository"
	"github.com/smallbiznis/factorylicense/internal/license/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("license.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Provide(func(s *service.Service) licensedomain.Service { return s }),
	fx.Invoke(registerLifecycle),
)

type lifecycleParam struct {
	fx.In

	Lifecycle fx.Lifecycle
	Service   *service.Service
	Feed      changefeed.Feed `optional:"true"`
	Log       *zap.Logger
}

// registerLifecycle warms the cache before serving and keeps it current from
// the change feed until shutdown.
func registerLifecycle(p lifecycleParam) {
	log := p.Log.Named("license.cache")
	subCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := p.Service.Warm(ctx); err != nil {
				cancel()
				return err
			}
			if p.Feed == nil {
				close(done)
				return nil
			}
			go func() {
				defer close(done)
				err := p.Feed.Subscribe(subCtx, p.Service.ApplyChange)
				if err != nil && !errors.Is(err, context.Canceled) {
					log.Error("license change subscription stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		},
	})
}
