package application

import (
	"context"
	"time"
)

// Filter narrows application queries for counts and analytics.
type Filter struct {
	AgentID string
	Status  *Status

	// CreatedFrom and CreatedTo are inclusive bounds; CreatedBefore is
	// exclusive, which keeps week buckets from double counting rows that
	// land exactly on a boundary.
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	CreatedBefore *time.Time
}

// Store describes persistence operations required by the application
// subsystem. Implementations must apply updates atomically:
// AppendDocument in particular may race with itself and must not lose
// concurrently attached documents.
type Store interface {
	InsertApplication(ctx context.Context, a *Application) error
	FindApplication(ctx context.Context, id string) (*Application, error)
	ListApplications(ctx context.Context, agentID string, status *Status) ([]*Application, error)
	UpdateApplication(ctx context.Context, id string, upd Update, bioSubmittedAt *time.Time, now time.Time) (*Application, error)
	AppendDocument(ctx context.Context, id string, doc Document, now time.Time) (*Application, error)
	CountApplications(ctx context.Context, f Filter) (int, error)
	ListCompleted(ctx context.Context, f Filter) ([]*Application, error)

	InsertLink(ctx context.Context, l *Link) error
	FindLink(ctx context.Context, id string) (*Link, error)
	DeactivateLink(ctx context.Context, id string) error
}
