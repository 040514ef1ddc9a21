package store

import (
	"context"

	"bestea_pos/internal/config"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"store",
		fx.Provide(func(cfg config.Config) (*Store, error) {
			return Open(cfg.DBPath)
		}),
		fx.Invoke(func(lc fx.Lifecycle, s *Store) {
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					return s.Close()
				},
			})
		}),
	)
}
