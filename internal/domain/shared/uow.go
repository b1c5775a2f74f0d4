package shared

import "context"

// UnitOfWork executes a function within a single transactional boundary.
// Repositories resolve the active transaction from the context, so every
// repository call made inside fn participates in the same transaction.
// Cross-store cascades (e.g. deleting an App and all of its children) must
// run through a unit of work: either all mutations commit or none do.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}
