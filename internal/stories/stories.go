package stories

import (
	"context"

	"github.com/dwikidiandra/dstory/internal/domain"
	"github.com/dwikidiandra/dstory/internal/storyapi"
	"github.com/dwikidiandra/dstory/pkg/multipart"
)

// SubmitInput is one story submission: text, photo, and an optional
// coordinate pair (both or neither).
type SubmitInput struct {
	Description string
	Photo       multipart.Photo
	Lat         *float64
	Lon         *float64
}

// Client is the single call surface the rest of the application uses for
// story data. It owns the decision of when to trust the network versus the
// local store: network-first with best-effort write-through, local fallback
// on failure.
type Client interface {
	ListStories(ctx context.Context, opts storyapi.ListOptions) ([]domain.Story, error)
	GetStoryDetail(ctx context.Context, id string) (*domain.Story, error)
	SubmitStory(ctx context.Context, input SubmitInput) (*domain.SubmitReceipt, error)
}
