package storyapi

import (
	"context"

	"github.com/dwikidiandra/dstory/internal/domain"
	"github.com/dwikidiandra/dstory/pkg/multipart"
)

// ListOptions selects a page of the story list. WithLocation asks the server
// to include only stories carrying coordinates.
type ListOptions struct {
	Page         int
	Size         int
	WithLocation bool
}

// Client is the typed, deadline-bounded HTTP surface of the story API.
// Every call is cancelled when its deadline passes; failures are reported as
// ErrTimeout, ErrNetwork, ApiError, ErrInvalidResponse or ErrNotFound so
// callers can pick distinct recovery paths. Routing between authenticated and
// guest submission is the caller's decision, not this client's.
type Client interface {
	ListStories(ctx context.Context, token string, opts ListOptions) ([]domain.Story, error)
	GetStory(ctx context.Context, id string, token string) (*domain.Story, error)
	SubmitStory(ctx context.Context, token string, payload multipart.Payload) (*domain.SubmitReceipt, error)
	SubmitStoryGuest(ctx context.Context, payload multipart.Payload) (*domain.SubmitReceipt, error)
	SubscribePush(ctx context.Context, token string, sub domain.PushSubscription) error
	UnsubscribePush(ctx context.Context, token string, endpoint string) error
}
