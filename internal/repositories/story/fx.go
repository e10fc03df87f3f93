package story

import (
	"go.uber.org/fx"
)

var Module = fx.Module("story_store",
	fx.Provide(
		NewSqlite,
		fx.Annotate(
			func(repo *Sqlite) Repository {
				return repo
			},
			fx.As(new(Repository)),
		),
	),
)
