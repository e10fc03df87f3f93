package fx

import (
	"github.com/dwikidiandra/dstory/internal/repositories/bookmark"
	"github.com/dwikidiandra/dstory/internal/repositories/story"
	"go.uber.org/fx"
)

var Module = fx.Options(
	story.Module,
	bookmark.Module,
)
