package searches

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Search // principal -> searches
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string][]Search),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, s Search) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[s.Principal] = append(r.data[s.Principal], s)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, principal, id string) (Search, error) {
	if err := ctx.Err(); err != nil {
		return Search{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.data[principal] {
		if s.ID == id {
			return s, nil
		}
	}
	return Search{}, ErrNotFound
}

// ListByPrincipal returns searches newest first, honoring limit/offset.
func (r *MemoryRepo) ListByPrincipal(ctx context.Context, principal string, limit, offset int) ([]Search, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	items := make([]Search, len(r.data[principal]))
	copy(items, r.data[principal])
	r.mu.RUnlock()

	if offset >= len(items) {
		return []Search{}, nil
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end], nil
}
