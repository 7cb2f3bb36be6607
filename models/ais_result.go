package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"infodyn/domain/core"
	"infodyn/domain/infomeasure"

	"github.com/google/uuid"
)

// JSONBMap is a custom type for PostgreSQL JSONB columns that maps to map[string]interface{}
type JSONBMap map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONBMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONBMap) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	}

	result := make(JSONBMap)
	if len(bytes) > 0 {
		if err := json.Unmarshal(bytes, &result); err != nil {
			return err
		}
	}
	*j = result
	return nil
}

// SignificanceMethod names how a p-value was obtained
type SignificanceMethod string

const (
	SignificanceNone        SignificanceMethod = "none"
	SignificanceChiSquare   SignificanceMethod = "chi_square"
	SignificancePermutation SignificanceMethod = "permutation"
)

// AISResult is one stored active information storage computation
type AISResult struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Source       string    `json:"source" db:"source"`
	Estimator    string    `json:"estimator" db:"estimator"`
	HistoryK     int       `json:"history_k" db:"history_k"`
	Tau          int       `json:"tau" db:"tau"`
	Dimensions   int       `json:"dimensions" db:"dimensions"`
	Observations int       `json:"observations" db:"observations"`

	ValueNats float64 `json:"value_nats" db:"value_nats"`
	ValueBits float64 `json:"value_bits" db:"value_bits"`

	Method           SignificanceMethod `json:"significance_method" db:"significance_method"`
	PValue           *float64           `json:"p_value,omitempty" db:"p_value"`
	DegreesOfFreedom *int               `json:"degrees_of_freedom,omitempty" db:"degrees_of_freedom"`
	Permutations     *int               `json:"permutations,omitempty" db:"permutations"`
	Alpha            float64            `json:"alpha" db:"alpha"`
	Significant      bool               `json:"significant" db:"significant"`

	Fingerprint string    `json:"fingerprint" db:"fingerprint"`
	Metadata    JSONBMap  `json:"metadata" db:"metadata"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NewAISResult creates a result with a fresh ID and no significance attached
func NewAISResult(source, estimator string, k, tau int) *AISResult {
	return &AISResult{
		ID:        core.NewResultID(),
		Source:    source,
		Estimator: estimator,
		HistoryK:  k,
		Tau:       tau,
		Method:    SignificanceNone,
		Metadata:  make(JSONBMap),
		CreatedAt: time.Now().UTC(),
	}
}

// SetSignificance records the p-value of a null distribution and whether
// it falls below alpha
func (r *AISResult) SetSignificance(method SignificanceMethod, dist infomeasure.MeasurementDistribution, alpha float64) {
	p := dist.Probability()
	r.Method = method
	r.PValue = &p
	r.Alpha = alpha
	r.Significant = dist.Significant(alpha)
}
