package ais

import (
	"encoding/json"
	"testing"

	"infodyn/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in      string
		want    Variant
		wantErr bool
	}{
		{"gaussian", VariantGaussian, false},
		{"", VariantGaussian, false},
		{" Gaussian ", VariantGaussian, false},
		{"kraskov", VariantKraskov, false},
		{"KSG", VariantKraskov, false},
		{"binned", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseVariant(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, core.ErrInvalidOption, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestVariant_TextRoundTrip(t *testing.T) {
	var payload struct {
		Estimator Variant `json:"estimator"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"estimator":"kraskov"}`), &payload))
	assert.Equal(t, VariantKraskov, payload.Estimator)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"estimator":"kraskov"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"estimator":"histogram"}`), &payload))
	assert.Equal(t, "variant(9)", Variant(9).String())
}
