package pushimpl

import (
	"context"

	"github.com/dwikidiandra/dstory/internal/auth"
	"github.com/dwikidiandra/dstory/internal/domain"
	"github.com/dwikidiandra/dstory/internal/push"
	"github.com/dwikidiandra/dstory/internal/storyapi"
	"github.com/dwikidiandra/dstory/pkg/config"
	apperrors "github.com/dwikidiandra/dstory/pkg/errors"
	"github.com/dwikidiandra/dstory/pkg/logger"
	"github.com/dwikidiandra/dstory/pkg/retry"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Api    storyapi.Client
	Tokens auth.TokenProvider
	Logger logger.Logger
	Config *config.Config
}

type PushImpl struct {
	api      storyapi.Client
	tokens   auth.TokenProvider
	logger   logger.Logger
	vapidKey string
}

func New(opts Opts) *PushImpl {
	return &PushImpl{
		api:      opts.Api,
		tokens:   opts.Tokens,
		logger:   opts.Logger.WithComponent("PushBridge"),
		vapidKey: opts.Config.Api.VapidKey,
	}
}

var _ push.Client = (*PushImpl)(nil)

func (p *PushImpl) Subscribe(ctx context.Context, sub domain.PushSubscription) error {
	token := p.tokens.Token()
	if token == "" {
		return apperrors.ErrUnauthorized
	}

	operation := func() error {
		err := p.api.SubscribePush(ctx, token, sub)
		if err != nil && !apperrors.IsTimeout(err) && !apperrors.IsNetwork(err) {
			return retry.Permanent(err)
		}
		return err
	}
	return retry.Do(ctx, p.logger, "subscribe_push", operation, retry.DefaultConfig())
}

func (p *PushImpl) ApplicationServerKey() string {
	return p.vapidKey
}

func (p *PushImpl) Unsubscribe(ctx context.Context, endpoint string) error {
	token := p.tokens.Token()
	if token == "" {
		return apperrors.ErrUnauthorized
	}
	return p.api.UnsubscribePush(ctx, token, endpoint)
}
