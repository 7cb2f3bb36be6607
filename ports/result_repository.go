package ports

import (
	"context"

	"infodyn/models"

	"github.com/google/uuid"
)

// ResultRepository stores computed AIS results
type ResultRepository interface {
	// SaveResult inserts a result; the ID must already be set
	SaveResult(ctx context.Context, result *models.AISResult) error

	// GetResult returns a core.ErrNotFound error when no result has the ID
	GetResult(ctx context.Context, id uuid.UUID) (*models.AISResult, error)

	// ListResults returns the most recent results first, optionally limited
	ListResults(ctx context.Context, limit int) ([]*models.AISResult, error)
}
