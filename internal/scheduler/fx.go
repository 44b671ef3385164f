package scheduler

import (
	"context"

	appconfig "github.com/lucanori/invoicerr/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ProvideLocker builds the redis lock when REDIS_ADDR is configured. A nil
// Locker keeps the scheduler in single-node mode.
func ProvideLocker(cfg appconfig.Config) *Locker {
	if cfg.RedisAddr == "" {
		return nil
	}
	return NewLocker(redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}))
}

var Module = fx.Module("scheduler",
	fx.Provide(
		ProvideConfig,
		ProvideLocker,
		New,
	),
	fx.Invoke(registerScheduler),
)

func registerScheduler(lc fx.Lifecycle, s *Scheduler, log *zap.Logger) {
	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go s.RunForever(runCtx)
			log.Info("scheduler started",
				zap.Int("run_at", s.cfg.RunAt),
				zap.String("timezone", s.cfg.Timezone),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return nil
		},
	})
}
