package shift

import "go.uber.org/fx"

func Module() fx.Option {
	return fx.Module(
		"shift",
		fx.Provide(NewManager),
	)
}
