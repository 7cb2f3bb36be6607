package postgres

import (
	"context"
	"database/sql"
	"errors"

	"infodyn/domain/core"
	"infodyn/models"
	"infodyn/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const resultColumns = `id, source, estimator, history_k, tau, dimensions, observations,
	value_nats, value_bits, significance_method, p_value, degrees_of_freedom,
	permutations, alpha, significant, fingerprint, metadata, created_at`

// ResultRepositoryImpl implements ResultRepository for PostgreSQL
type ResultRepositoryImpl struct {
	db *sqlx.DB
}

// NewResultRepository creates a new PostgreSQL result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &ResultRepositoryImpl{db: db}
}

// SaveResult inserts a result row
func (r *ResultRepositoryImpl) SaveResult(ctx context.Context, result *models.AISResult) error {
	if result == nil || result.ID == uuid.Nil {
		return core.NewInvalidInputError("result must have an ID")
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO ais_results (`+resultColumns+`)
		VALUES (:id, :source, :estimator, :history_k, :tau, :dimensions, :observations,
			:value_nats, :value_bits, :significance_method, :p_value, :degrees_of_freedom,
			:permutations, :alpha, :significant, :fingerprint, :metadata, :created_at)
	`, result)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return core.NewInvalidInputError("result %s already stored", result.ID)
		}
		return err
	}
	return nil
}

// GetResult retrieves a result by its ID
func (r *ResultRepositoryImpl) GetResult(ctx context.Context, id uuid.UUID) (*models.AISResult, error) {
	var result models.AISResult
	err := r.db.GetContext(ctx, &result, `
		SELECT `+resultColumns+`
		FROM ais_results
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("result", id.String())
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListResults returns results newest first
func (r *ResultRepositoryImpl) ListResults(ctx context.Context, limit int) ([]*models.AISResult, error) {
	query := `SELECT ` + resultColumns + ` FROM ais_results ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	results := []*models.AISResult{}
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, err
	}
	return results, nil
}
