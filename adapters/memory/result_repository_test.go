package memory

import (
	"context"
	"testing"
	"time"

	"infodyn/domain/core"
	"infodyn/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewResultRepository()

	res := models.NewAISResult("ar1.csv", "gaussian", 1, 1)
	res.ValueNats = 0.51
	require.NoError(t, repo.SaveResult(ctx, res))

	got, err := repo.GetResult(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.51, got.ValueNats)

	// stored values are copies
	got.ValueNats = 9
	again, err := repo.GetResult(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.51, again.ValueNats)
}

func TestResultRepository_NotFound(t *testing.T) {
	_, err := NewResultRepository().GetResult(context.Background(), uuid.New())
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestResultRepository_RejectsMissingID(t *testing.T) {
	err := NewResultRepository().SaveResult(context.Background(), &models.AISResult{})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestResultRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewResultRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		res := models.NewAISResult("s", "gaussian", i+1, 1)
		res.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.SaveResult(ctx, res))
	}

	all, err := repo.ListResults(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 3, all[0].HistoryK)
	assert.Equal(t, 1, all[2].HistoryK)

	limited, err := repo.ListResults(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
