package searches

import "context"

// Repo defines persistence operations for searches. Reads are scoped to the
// principal that created the search.
type Repo interface {
	Create(ctx context.Context, s Search) error
	GetByID(ctx context.Context, principal, id string) (Search, error)
	ListByPrincipal(ctx context.Context, principal string, limit, offset int) ([]Search, error)
}
