package ui

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"infodyn/app"
	"infodyn/internal"
	"infodyn/internal/config"
	"infodyn/internal/testkit"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*App, *app.AISService) {
	t.Helper()
	kit := testkit.NewTestKit()
	logger := internal.NewLoggerTo(&bytes.Buffer{}, internal.LogLevelError)
	svc := app.NewAISService(config.Default().Analysis, kit.ResultRepository(), kit.RNGAdapter(), logger)
	return NewApp(svc, logger, "/ui"), svc
}

func get(a *App, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestIndexAndResult(t *testing.T) {
	a, svc := newTestApp(t)
	series := testkit.Column(testkit.NewGenerator(31).AR1(400, 0.5))
	out, err := svc.Compute(context.Background(), app.AnalysisRequest{Source: "ui-test", Series: series})
	require.NoError(t, err)

	w := get(a, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "ui-test")
	assert.Contains(t, w.Body.String(), `href="/ui/results/`+out.Result.ID.String()+`"`)

	w = get(a, "/results/"+out.Result.ID.String())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Active information storage: ui-test")
	assert.Contains(t, w.Body.String(), "<table>")
}

func TestResultErrors(t *testing.T) {
	a, _ := newTestApp(t)

	w := get(a, "/results/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")

	w = get(a, "/results/nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_INPUT")
}
