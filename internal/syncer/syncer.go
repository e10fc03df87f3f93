package syncer

import "context"

// Client runs the background jobs that keep the offline view usable: a
// periodic story-list refresh warming the local mirror, and cache
// maintenance applying the per-class eviction policies.
type Client interface {
	RefreshStories(ctx context.Context) error
	ScheduleRefresh(ctx context.Context) error
	ScheduleMaintenance(ctx context.Context) error
}
