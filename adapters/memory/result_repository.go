package memory

import (
	"context"
	"sort"
	"sync"

	"infodyn/domain/core"
	"infodyn/models"
	"infodyn/ports"

	"github.com/google/uuid"
)

// ResultRepository keeps AIS results in process memory. It is used when no
// database is configured and by tests.
type ResultRepository struct {
	mu      sync.RWMutex
	results map[uuid.UUID]*models.AISResult
}

// NewResultRepository creates an empty in-memory result store
func NewResultRepository() ports.ResultRepository {
	return &ResultRepository{results: make(map[uuid.UUID]*models.AISResult)}
}

// SaveResult stores a copy of the result
func (r *ResultRepository) SaveResult(ctx context.Context, result *models.AISResult) error {
	if result == nil || result.ID == uuid.Nil {
		return core.NewInvalidInputError("result must have an ID")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *result
	r.results[result.ID] = &cp
	return nil
}

// GetResult returns a copy of the stored result
func (r *ResultRepository) GetResult(ctx context.Context, id uuid.UUID) (*models.AISResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.results[id]
	if !ok {
		return nil, core.NewNotFoundError("result", id.String())
	}
	cp := *res
	return &cp, nil
}

// ListResults returns results newest first
func (r *ResultRepository) ListResults(ctx context.Context, limit int) ([]*models.AISResult, error) {
	r.mu.RLock()
	out := make([]*models.AISResult, 0, len(r.results))
	for _, res := range r.results {
		cp := *res
		out = append(out, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
