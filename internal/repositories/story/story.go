package story

import (
	"context"

	"github.com/dwikidiandra/dstory/internal/domain"
)

// Repository is the story collection of the local store: a durable mirror of
// records fetched from the story API, keyed by the server-assigned ID.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Story, error)
	GetAll(ctx context.Context) ([]domain.Story, error)
	Put(ctx context.Context, story domain.Story) error
	// PutAll upserts the batch inside a single transaction: readers never
	// observe a partially applied list.
	PutAll(ctx context.Context, stories []domain.Story) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}
