package signals

import "go.uber.org/fx"

func Module() fx.Option {
	return fx.Module("signals",
		fx.Provide(
			NewEMARSI,
			func(s *EMARSI) Source { return s },
		),
	)
}
