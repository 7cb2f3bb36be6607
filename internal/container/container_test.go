package container

import (
	"context"
	"testing"

	"infodyn/adapters/memory"
	"infodyn/app"
	"infodyn/internal"
	"infodyn/internal/config"
	"infodyn/internal/errors"
	"infodyn/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InMemory(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "ERROR"

	c, err := New(cfg)
	require.NoError(t, err)
	assert.Nil(t, c.DB)
	assert.IsType(t, &memory.ResultRepository{}, c.Results)
	assert.Equal(t, internal.LogLevelError, c.Logger.GetLevel())
	require.NotNil(t, c.AIS)
	assert.Equal(t, cfg.Analysis, c.AIS.Defaults())

	series := testkit.Column(testkit.NewGenerator(1).AR1(300, 0.5))
	out, err := c.AIS.Compute(context.Background(), app.AnalysisRequest{Series: series})
	require.NoError(t, err)

	stored, err := c.Results.GetResult(context.Background(), out.Result.ID)
	require.NoError(t, err)
	assert.Equal(t, out.Result.ValueNats, stored.ValueNats)

	assert.NoError(t, c.Shutdown(context.Background()))
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	cfg := config.Default()
	cfg.Log.Level = "LOUD"
	_, err = New(cfg)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestOpen_WithoutDatabase(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "ERROR"
	c, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, c.DB)
}

func TestInitWithDatabase_Nil(t *testing.T) {
	c, err := New(config.Default())
	require.NoError(t, err)
	assert.Error(t, c.InitWithDatabase(context.Background(), nil))
}
