package postgres

import (
	"context"
	"os"
	"testing"

	"infodyn/domain/core"
	"infodyn/domain/infomeasure"
	"infodyn/internal/migration"
	"infodyn/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DATABASE_URL and migrates it, skipping when
// no database is available.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.NewRunner().Run(context.Background(), db))
	return db
}

func TestResultRepository_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewResultRepository(db)
	ctx := context.Background()

	res := models.NewAISResult("roundtrip.csv", "gaussian", 2, 1)
	res.Dimensions = 1
	res.Observations = 500
	res.ValueNats = 0.2
	res.ValueBits = 0.2885
	dof := 2
	res.DegreesOfFreedom = &dof
	res.SetSignificance(models.SignificanceChiSquare, infomeasure.NewChiSquareDistribution(res.ValueNats, res.Observations, dof), 0.05)
	res.Metadata["columns"] = []interface{}{"x"}

	require.NoError(t, repo.SaveResult(ctx, res))

	got, err := repo.GetResult(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Source, got.Source)
	assert.Equal(t, res.Estimator, got.Estimator)
	assert.InDelta(t, res.ValueNats, got.ValueNats, 1e-12)
	require.NotNil(t, got.PValue)
	assert.InDelta(t, *res.PValue, *got.PValue, 1e-15)
	assert.Equal(t, 2, *got.DegreesOfFreedom)
	assert.True(t, got.Significant)

	list, err := repo.ListResults(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	err = repo.SaveResult(ctx, res)
	assert.True(t, core.IsInvalidInputError(err))
}

func TestResultRepository_NotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := NewResultRepository(db).GetResult(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, core.IsNotFoundError(err))
}
