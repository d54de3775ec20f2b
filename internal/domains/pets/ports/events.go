package ports

import (
	"context"

	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
)

// EventPublisher delivers committed domain events to interested parties.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.Event) error
}
