package bookmark

import (
	"context"

	"github.com/dwikidiandra/dstory/internal/domain"
)

// Repository is the bookmark collection of the local store. At most one
// bookmark exists per story, enforced by a uniqueness constraint on the story
// ID. Bookmarks never expire and are independent of story-cache eviction.
type Repository interface {
	GetAll(ctx context.Context) ([]domain.Bookmark, error)
	// Add snapshots the story and fails with ErrDuplicateBookmark when the
	// story is already bookmarked.
	Add(ctx context.Context, story domain.Story) error
	// Remove reports false when no bookmark exists for the story. Absence is
	// not an error.
	Remove(ctx context.Context, storyID string) (bool, error)
	// IsBookmarked never fails: on any internal error it reports false. The
	// predicate only drives a UI affordance, so availability wins.
	IsBookmarked(ctx context.Context, storyID string) bool
}
