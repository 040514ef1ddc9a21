package syncer

import "go.uber.org/fx"

func Module() fx.Option {
	return fx.Module(
		"syncer",
		fx.Provide(DefaultRetryPolicy, NewEngine),
	)
}
