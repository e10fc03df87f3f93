package netstatus

import (
	"context"
	"time"

	"github.com/dwikidiandra/dstory/pkg/config"
	"github.com/dwikidiandra/dstory/pkg/logger"
	"go.uber.org/fx"
)

const probeInterval = 30 * time.Second

type Opts struct {
	fx.In

	LC     fx.Lifecycle
	Config *config.Config
	Logger logger.Logger
}

func New(opts Opts) *Monitor {
	monitor := NewMonitor(NewHTTPProber(opts.Config.Api.BaseURL), probeInterval, opts.Logger)

	opts.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			monitor.Start(ctx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			monitor.Stop()
			return nil
		},
	})

	return monitor
}
