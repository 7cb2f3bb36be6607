package report

import (
	"fmt"
	"strings"
	"testing"

	"infodyn/domain/infomeasure"
	"infodyn/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *models.AISResult {
	res := models.NewAISResult("sensor.csv", "gaussian", 2, 1)
	res.Dimensions = 1
	res.Observations = 998
	res.ValueNats = 0.25
	res.ValueBits = infomeasure.NatsToBits(0.25)
	res.Fingerprint = "abcdef0123456789"
	res.Metadata["bias_correction"] = false
	return res
}

func TestMarkdown_ChiSquare(t *testing.T) {
	res := sampleResult()
	dist := infomeasure.NewChiSquareDistribution(res.ValueNats, res.Observations, 2)
	dof := 2
	res.DegreesOfFreedom = &dof
	res.SetSignificance(models.SignificanceChiSquare, dist, 0.05)

	md := Markdown(res, Details{ChiSquare: dist})
	assert.Contains(t, md, "# Active information storage: sensor.csv")
	assert.Contains(t, md, "| History length k | 2 |")
	assert.Contains(t, md, "0.250000** nats")
	assert.Contains(t, md, "Method: chi_square")
	assert.Contains(t, md, ", significant at alpha = 0.05")
	assert.Contains(t, md, "| Degrees of freedom | 2 |")
	assert.Contains(t, md, fmt.Sprintf("| Null mean (nats) | %.6f |", dist.Mean()))
	assert.Contains(t, md, fmt.Sprintf("| Critical AIS at alpha (nats) | %.6f |", dist.CriticalValue(0.05)))
	assert.Contains(t, md, "- bias_correction: false")
	assert.Contains(t, md, "`abcdef012345`")
	assert.NotContains(t, md, "Permutation null")
}

func TestMarkdown_Untested(t *testing.T) {
	res := sampleResult()
	res.Source = ""
	md := Markdown(res, Details{})
	assert.Contains(t, md, res.ID.String())
	assert.Contains(t, md, "Not tested.")
}

func TestMarkdown_Permutation(t *testing.T) {
	res := sampleResult()
	dist := infomeasure.NewEmpiricalDistribution(0.25, []float64{0.01, 0.02, 0.3, 0.0})
	res.SetSignificance(models.SignificancePermutation, dist, 0.05)

	md := Markdown(res, Details{Empirical: dist})
	assert.Contains(t, md, "| Surrogates | 4 |")
	assert.Contains(t, md, "p = 0.2500, not significant")
}

func TestSummary(t *testing.T) {
	a := sampleResult()
	b := sampleResult()
	b.Source = "other.csv"
	b.SetSignificance(models.SignificanceChiSquare, &infomeasure.ChiSquareDistribution{PValue: 1e-9}, 0.05)

	md := Summary([]*models.AISResult{a, b})
	lines := strings.Split(strings.TrimSpace(md), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[2], "| sensor.csv | gaussian | 2 | 1 | 998 |")
	assert.Contains(t, lines[2], "| - | false |")
	assert.Contains(t, lines[3], "1.00e-09")
	assert.Contains(t, lines[3], "| true |")
}

func TestHTML(t *testing.T) {
	out := string(HTML(Markdown(sampleResult(), Details{})))
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<strong>0.250000</strong>")
}
