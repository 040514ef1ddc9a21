package register

import "go.uber.org/fx"

func Module() fx.Option {
	return fx.Module(
		"register",
		fx.Provide(NewService),
	)
}
