package agent

import (
	"context"
	"time"
)

// Store describes persistence operations required by the agent subsystem.
// Implementations translate between string identifiers and storage-native
// keys; storage types never cross this boundary.
type Store interface {
	Create(ctx context.Context, a *Agent) error
	Find(ctx context.Context, id string) (*Agent, error)
	FindByEmail(ctx context.Context, email string) (*Agent, error)
	UpdateSettings(ctx context.Context, id string, settings Settings, now time.Time) error
	SetLogoURL(ctx context.Context, id, url string, now time.Time) error
	SetBackgroundImageURL(ctx context.Context, id, url string, now time.Time) error
}
