package storiesimpl

import (
	"context"

	"github.com/dwikidiandra/dstory/internal/auth"
	"github.com/dwikidiandra/dstory/internal/domain"
	"github.com/dwikidiandra/dstory/internal/repositories/story"
	"github.com/dwikidiandra/dstory/internal/stories"
	"github.com/dwikidiandra/dstory/internal/storyapi"
	apperrors "github.com/dwikidiandra/dstory/pkg/errors"
	"github.com/dwikidiandra/dstory/pkg/logger"
	"github.com/dwikidiandra/dstory/pkg/multipart"
	"github.com/dwikidiandra/dstory/pkg/retry"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Api       storyapi.Client
	StoryRepo story.Repository
	Tokens    auth.TokenProvider
	Logger    logger.Logger
}

type ClientImpl struct {
	api       storyapi.Client
	storyRepo story.Repository
	tokens    auth.TokenProvider
	logger    logger.Logger
}

func New(opts Opts) *ClientImpl {
	return &ClientImpl{
		api:       opts.Api,
		storyRepo: opts.StoryRepo,
		tokens:    opts.Tokens,
		logger:    opts.Logger.WithComponent("StoryRepository"),
	}
}

var _ stories.Client = (*ClientImpl)(nil)

func (c *ClientImpl) ListStories(ctx context.Context, opts storyapi.ListOptions) ([]domain.Story, error) {
	fetched, err := c.api.ListStories(ctx, c.tokens.Token(), opts)
	if err == nil {
		if len(fetched) > 0 {
			// Best-effort mirror: a stale local copy is acceptable, losing
			// the just-fetched data to the user is not.
			if mirrorErr := c.storyRepo.PutAll(ctx, fetched); mirrorErr != nil {
				c.logger.Warn("Failed to mirror stories locally", "error", mirrorErr)
			}
		}
		return fetched, nil
	}

	cached, cacheErr := c.storyRepo.GetAll(context.WithoutCancel(ctx))
	if cacheErr != nil {
		c.logger.Error("Local fallback read failed", "error", cacheErr)
	}
	if len(cached) > 0 {
		c.logger.Info("Serving stories from local store", "count", len(cached), "cause", err)
		return cached, nil
	}

	// Neither source can serve: surface the network failure, the root cause.
	return nil, err
}

func (c *ClientImpl) GetStoryDetail(ctx context.Context, id string) (*domain.Story, error) {
	fetched, err := c.api.GetStory(ctx, id, c.tokens.Token())
	if err == nil {
		if mirrorErr := c.storyRepo.Put(ctx, *fetched); mirrorErr != nil {
			c.logger.Warn("Failed to mirror story locally", "id", id, "error", mirrorErr)
		}
		return fetched, nil
	}

	cached, cacheErr := c.storyRepo.GetByID(context.WithoutCancel(ctx), id)
	if cacheErr == nil && cached != nil {
		c.logger.Info("Serving story from local store", "id", id, "cause", err)
		return cached, nil
	}
	if cacheErr != nil && !apperrors.IsNotFound(cacheErr) {
		c.logger.Error("Local fallback read failed", "id", id, "error", cacheErr)
	}

	return nil, err
}

// SubmitStory routes to the authenticated or guest endpoint based on the
// presence of a credential. The receipt is never cached locally: the server
// is the only source of truth for a just-created story, and the next list
// refresh picks it up.
func (c *ClientImpl) SubmitStory(ctx context.Context, input stories.SubmitInput) (*domain.SubmitReceipt, error) {
	payload, err := multipart.Build(input.Description, input.Photo, input.Lat, input.Lon)
	if err != nil {
		return nil, err
	}

	token := c.tokens.Token()

	var receipt *domain.SubmitReceipt
	operation := func() error {
		var opErr error
		if token != "" {
			receipt, opErr = c.api.SubmitStory(ctx, token, payload)
		} else {
			receipt, opErr = c.api.SubmitStoryGuest(ctx, payload)
		}
		// Only a timeout warrants another attempt; everything else is final.
		if opErr != nil && !apperrors.IsTimeout(opErr) {
			return retry.Permanent(opErr)
		}
		return opErr
	}

	cfg := retry.DefaultConfig()
	cfg.MaxRetries = 1
	if err := retry.Do(ctx, c.logger, "submit_story", operation, cfg); err != nil {
		return nil, err
	}
	return receipt, nil
}
