package interceptor

import (
	"go.uber.org/fx"
)

var Module = fx.Module("interceptor",
	fx.Provide(
		NewSqliteStore,
		fx.Annotate(
			func(store *SqliteStore) Store {
				return store
			},
			fx.As(new(Store)),
		),
		New,
		NewHTTPClient,
	),
)
