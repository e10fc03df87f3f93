package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dwikidiandra/dstory/internal/auth"
	"github.com/dwikidiandra/dstory/internal/interceptor"
	"github.com/dwikidiandra/dstory/internal/netstatus"
	"github.com/dwikidiandra/dstory/internal/push"
	"github.com/dwikidiandra/dstory/internal/push/pushimpl"
	repositories "github.com/dwikidiandra/dstory/internal/repositories/fx"
	"github.com/dwikidiandra/dstory/internal/sqlite"
	"github.com/dwikidiandra/dstory/internal/stories"
	"github.com/dwikidiandra/dstory/internal/stories/storiesimpl"
	"github.com/dwikidiandra/dstory/internal/storyapi"
	"github.com/dwikidiandra/dstory/internal/storyapi/apiimpl"
	"github.com/dwikidiandra/dstory/internal/syncer"
	"github.com/dwikidiandra/dstory/internal/syncer/syncerimpl"
	"github.com/dwikidiandra/dstory/pkg/config"
	"github.com/dwikidiandra/dstory/pkg/logger"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		sqlite.New,
	),
	fx.Provide(
		fx.Annotate(
			auth.NewFileProvider,
			fx.As(new(auth.TokenProvider)),
		),
	),
	interceptor.Module,
	repositories.Module,
	fx.Provide(
		fx.Annotate(
			apiimpl.New,
			fx.As(new(storyapi.Client)),
		), fx.Annotate(
			storiesimpl.New,
			fx.As(new(stories.Client)),
		), fx.Annotate(
			pushimpl.New,
			fx.As(new(push.Client)),
		), fx.Annotate(
			syncerimpl.New,
			fx.As(new(syncer.Client)),
		),
		netstatus.New,
	),
	fx.Invoke(run),
)

func run(lc fx.Lifecycle, log logger.Logger, cfg *config.Config, monitor *netstatus.Monitor, syncClient syncer.Client) {
	// Background jobs live on this context; stopping the application cancels
	// it so the schedulers shut down.
	jobCtx, stopJobs := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {

			go startHttpServer(log, cfg)

			ctx := jobCtx

			monitor.Subscribe(func(online bool) {
				if online {
					log.Info("Connectivity restored, story data is live")
				} else {
					log.Warn("Connectivity lost, serving cached data")
				}
			})

			if err := syncClient.RefreshStories(ctx); err != nil {
				log.Warn("Initial story refresh failed, continuing with cached data", "error", err)
			}

			if err := syncClient.ScheduleRefresh(ctx); err != nil {
				log.Error("Schedule refresh error", "error", err)
				return err
			}

			if err := syncClient.ScheduleMaintenance(ctx); err != nil {
				log.Error("Schedule maintenance error", "error", err)
				return err
			}

			return nil
		},
		OnStop: func(context.Context) error {
			stopJobs()
			return nil
		},
	})
}

func startHttpServer(log logger.Logger, cfg *config.Config) {
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		healthCheckHandler(w, r, log)
	})

	log.Info(fmt.Sprintf("Starting server on :%d", cfg.App.Port))

	if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.App.Port), nil); err != nil {
		log.Error("Server failed to start: %v", err)
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request, logger logger.Logger) {
	logger.Info("Health check request received", "Method", r.Method, "URL", r.URL.String())
	w.Header().Set("Content-Type", "text/plain")
	if _, err := w.Write([]byte("ok")); err != nil {
		logger.Error("Failed to write response", "Error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
