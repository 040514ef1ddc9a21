package status

import (
	"context"
	"errors"
	"net/http"

	"bestea_pos/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"status",
		fx.Provide(NewHandler, NewRouter),
		fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, logger *zap.Logger) {
			srv := &http.Server{Addr: cfg.StatusAddr, Handler: r}
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
							logger.Error("status server stopped", zap.Error(err))
						}
					}()
					logger.Info("status server listening", zap.String("addr", cfg.StatusAddr))
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return srv.Shutdown(ctx)
				},
			})
		}),
	)
}
