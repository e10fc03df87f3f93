package push

import (
	"context"

	"github.com/dwikidiandra/dstory/internal/domain"
)

// Client registers and removes a device endpoint with the notifications API.
// Thin pass-through over the story API; permission prompts and notification
// display are external collaborators.
type Client interface {
	Subscribe(ctx context.Context, sub domain.PushSubscription) error
	Unsubscribe(ctx context.Context, endpoint string) error
	// ApplicationServerKey returns the VAPID public key a device needs to
	// create its subscription.
	ApplicationServerKey() string
}
