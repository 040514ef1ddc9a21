package internal

import (
	"bestea_pos/internal/api"
	"bestea_pos/internal/config"
	"bestea_pos/internal/connectivity"
	"bestea_pos/internal/logging"
	"bestea_pos/internal/register"
	"bestea_pos/internal/shift"
	"bestea_pos/internal/status"
	"bestea_pos/internal/store"
	"bestea_pos/internal/syncer"

	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Run() error {
	app := fx.New(
		logger.Module(),
		logger.WithFxDefaultLogger(),
		config.Module(),
		logging.Module(),
		api.Module(),
		store.Module(),
		shift.Module(),
		syncer.Module(),
		connectivity.Module(),
		register.Module(),
		status.Module(),
	)

	app.Run()
	return app.Err()
}
