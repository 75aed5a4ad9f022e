package scenario

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no definition exists for a topic.
var ErrNotFound = errors.New("scenario not found")

// Provider looks up scenario definitions by topic. Load must be cheap to
// call repeatedly within one request; caching is the provider's concern.
type Provider interface {
	Load(ctx context.Context, topic string) (*Scenario, error)
	Topics(ctx context.Context) ([]string, error)
}
