package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"infodyn/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"invalid input", core.NewTooFewSamplesError(3, 3), CodeInvalidInput, http.StatusBadRequest},
		{"numerical", core.NewNumericalError("joint", core.ErrNotPositiveDef), CodeNumericalError, http.StatusUnprocessableEntity},
		{"capability", fmt.Errorf("%w for kraskov estimator", core.ErrNoAnalyticNull), CodeCapabilityUnavailable, http.StatusNotImplemented},
		{"not found", core.NewNotFoundError("result", "abc"), CodeNotFound, http.StatusNotFound},
		{"other", stderrors.New("boom"), CodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromDomain(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.status, HTTPStatus(appErr.Code))
			assert.ErrorIs(t, appErr, tt.err)
		})
	}

	assert.Nil(t, FromDomain(nil))
}

func TestWrapKeepsCode(t *testing.T) {
	inner := ConfigInvalid("AIS_K must be >= 1")
	err := Wrap(inner, "failed to load analysis configuration")

	assert.Equal(t, CodeConfigInvalid, GetCode(err))
	assert.True(t, IsAppError(err))
	assert.Equal(t, "failed to load analysis configuration: AIS_K must be >= 1", err.Error())

	wrappedDomain := Wrapf(core.ErrIllConditioned, "series %s", "a.csv")
	assert.Equal(t, CodeNumericalError, GetCode(wrappedDomain))
	assert.True(t, core.IsNumericalError(wrappedDomain))

	assert.Nil(t, Wrap(nil, "nothing"))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeDatabaseError, stderrors.New("connection refused"))
	assert.Equal(t, CodeDatabaseError, GetCode(err))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(GetCode(err)))

	recoded := WithCode(CodeInternalError, NotFound("result"))
	assert.Equal(t, CodeInternalError, GetCode(recoded))
	assert.Equal(t, "result not found", recoded.Error())
}
