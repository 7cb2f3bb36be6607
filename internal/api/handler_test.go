package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"infodyn/app"
	"infodyn/internal"
	"infodyn/internal/config"
	"infodyn/internal/testkit"
	"infodyn/internal/ui"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default().Analysis
	cfg.Permutations = 50
	kit := testkit.NewTestKit()
	logger := internal.NewLoggerTo(&bytes.Buffer{}, internal.LogLevelError)
	svc := app.NewAISService(cfg, kit.ResultRepository(), kit.RNGAdapter(), logger)
	return NewRouter(svc, logger, ui.NewApp(svc, logger, UIPrefix))
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	w := do(t, newTestRouter(t), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestComputeAndFetch(t *testing.T) {
	router := newTestRouter(t)
	series := testkit.Column(testkit.NewGenerator(11).AR1(1000, 0.6))

	w := do(t, router, http.MethodPost, "/api/ais", ComputeRequest{Source: "api-test", Series: series})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out struct {
		Result struct {
			ID               uuid.UUID `json:"id"`
			Estimator        string    `json:"estimator"`
			ValueNats        float64   `json:"value_nats"`
			Method           string    `json:"significance_method"`
			DegreesOfFreedom int       `json:"degrees_of_freedom"`
			Significant      bool      `json:"significant"`
		} `json:"result"`
		ChiSquare map[string]interface{} `json:"chi_square"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "gaussian", out.Result.Estimator)
	assert.Equal(t, "chi_square", out.Result.Method)
	assert.Equal(t, 1, out.Result.DegreesOfFreedom)
	assert.True(t, out.Result.Significant)
	assert.Greater(t, out.Result.ValueNats, 0.1)
	assert.NotNil(t, out.ChiSquare)

	w = do(t, router, http.MethodGet, "/api/results/"+out.Result.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"source":"api-test"`)

	w = do(t, router, http.MethodGet, "/api/results?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = do(t, router, http.MethodGet, "/api/results/"+out.Result.ID.String()+"/report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/markdown"))
	assert.Contains(t, w.Body.String(), "# Active information storage: api-test")

	w = do(t, router, http.MethodGet, UIPrefix+"/results/"+out.Result.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, w.Body.String(), "api-test")
}

func TestComputeSinglePermutation(t *testing.T) {
	router := newTestRouter(t)
	series := testkit.Column(testkit.NewGenerator(12).AR1(300, 0.5))

	w := do(t, router, http.MethodPost, "/api/ais", ComputeRequest{
		Source:       "one-surrogate",
		Series:       series,
		Significance: "permutation",
		Permutations: 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotEmpty(t, w.Body.Bytes())

	var out struct {
		Result struct {
			Permutations int `json:"permutations"`
		} `json:"result"`
		Empirical struct {
			Surrogates []float64 `json:"surrogates"`
			Summary    struct {
				StdDev float64 `json:"std_dev"`
			} `json:"summary"`
		} `json:"empirical"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, 1, out.Result.Permutations)
	assert.Len(t, out.Empirical.Surrogates, 1)
	assert.Equal(t, 0.0, out.Empirical.Summary.StdDev)
}

func TestCompute_ErrorStatus(t *testing.T) {
	router := newTestRouter(t)
	ramp := make([][]float64, 100)
	for i := range ramp {
		ramp[i] = []float64{float64(i)}
	}
	series := testkit.Column(testkit.NewGenerator(12).AR1(100, 0.5))

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"malformed body", "not an object", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad estimator", ComputeRequest{Series: series, Estimator: "binned"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"empty series", ComputeRequest{}, http.StatusBadRequest, "INVALID_INPUT"},
		{"ragged series", ComputeRequest{Series: [][]float64{{1}, {2, 3}, {4}}}, http.StatusBadRequest, "INVALID_INPUT"},
		{"perfect dependence", ComputeRequest{Series: ramp}, http.StatusUnprocessableEntity, "NUMERICAL_ERROR"},
		{"no analytic null", ComputeRequest{Series: series, Estimator: "kraskov", Significance: "analytic"}, http.StatusNotImplemented, "CAPABILITY_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/api/ais", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decodeError(t, w).Error.Code)
		})
	}
}

func TestGetResult_Errors(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/api/results/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/api/results/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Error.Code)

	w = do(t, router, http.MethodGet, "/api/results?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
