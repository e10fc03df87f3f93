package syncerimpl

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/dwikidiandra/dstory/internal/interceptor"
	"github.com/dwikidiandra/dstory/internal/stories"
	"github.com/dwikidiandra/dstory/internal/storyapi"
	"github.com/dwikidiandra/dstory/internal/syncer"
	"github.com/dwikidiandra/dstory/pkg/config"
	"github.com/dwikidiandra/dstory/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Stories     stories.Client
	Interceptor *interceptor.Transport
	Logger      logger.Logger
	Config      *config.Config
}

type SyncerImpl struct {
	Stories     stories.Client
	Interceptor *interceptor.Transport
	Logger      logger.Logger
	Config      *config.Config
}

func New(opts Opts) *SyncerImpl {
	return &SyncerImpl{
		Stories:     opts.Stories,
		Interceptor: opts.Interceptor,
		Logger:      opts.Logger.WithComponent("Syncer"),
		Config:      opts.Config,
	}
}

var _ syncer.Client = (*SyncerImpl)(nil)

// RefreshStories pulls the first page of the story list through the
// repository, which mirrors it into the local store as a side effect. Run
// periodically so the offline view stays warm.
func (s *SyncerImpl) RefreshStories(ctx context.Context) error {
	fetched, err := s.Stories.ListStories(ctx, storyapi.ListOptions{
		Page:         1,
		Size:         s.Config.Sync.PageSize,
		WithLocation: true,
	})
	if err != nil {
		return err
	}
	s.Logger.Info("Story refresh completed", "count", len(fetched))
	return nil
}

// ScheduleRefresh sets up the periodic story refresh job.
func (s *SyncerImpl) ScheduleRefresh(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create refresh scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.Config.Sync.Interval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				s.Logger.Info("Context cancelled, stopping story refresh job")
				return
			}

			refreshCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			defer cancel()

			if err := s.RefreshStories(refreshCtx); err != nil {
				s.Logger.Warn("Story refresh failed, will retry next interval", "error", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule story refresh: %w", err)
	}

	scheduler.Start()
	s.shutdownOnDone(ctx, scheduler, "story refresh")
	return nil
}

// ScheduleMaintenance sets up the cache maintenance job. Stories in the
// local store are only evicted by explicit clear or migration, so
// maintenance touches the interceptor's HTTP caches exclusively.
func (s *SyncerImpl) ScheduleMaintenance(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create maintenance scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.Config.Cache.PruneInterval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				s.Logger.Info("Context cancelled, stopping cache maintenance job")
				return
			}

			pruneCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()

			if err := s.Interceptor.PruneAll(pruneCtx); err != nil {
				s.Logger.Error("Cache maintenance failed", "error", err)
				return
			}
			s.Logger.Info("Cache maintenance completed")
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule cache maintenance: %w", err)
	}

	scheduler.Start()
	s.shutdownOnDone(ctx, scheduler, "cache maintenance")
	return nil
}

func (s *SyncerImpl) shutdownOnDone(ctx context.Context, scheduler gocron.Scheduler, name string) {
	go func() {
		<-ctx.Done()
		s.Logger.Info("Stopping scheduler", "job", name)
		if err := scheduler.Shutdown(); err != nil {
			s.Logger.Error("Failed to shut down scheduler", "job", name, "error", err)
		}
	}()
}
