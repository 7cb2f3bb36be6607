package testkit

import (
	"math"
	"math/rand"

	"infodyn/adapters/memory"
	"infodyn/adapters/rng"
	"infodyn/ports"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	rng     ports.RNGPort
	results ports.ResultRepository
}

// NewTestKit creates a new test kit with in-memory adapters
func NewTestKit() *TestKit {
	return &TestKit{
		rng:     rng.NewSeededAdapter(),
		results: memory.NewResultRepository(),
	}
}

// RNGAdapter returns the deterministic RNG adapter
func (t *TestKit) RNGAdapter() ports.RNGPort {
	return t.rng
}

// ResultRepository returns a shared in-memory result store
func (t *TestKit) ResultRepository() ports.ResultRepository {
	return t.results
}

// Generator produces seeded synthetic samples with known information content
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator with a fixed seed for reproducibility
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Independent returns n rows of dim independent standard normals
func (g *Generator) Independent(n, dim int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		row := make([]float64, dim)
		for j := range row {
			row[j] = g.rng.NormFloat64()
		}
		out[i] = row
	}
	return out
}

// Correlated returns n scalar pairs with correlation rho. The true mutual
// information is -½ ln(1-rho²) nats.
func (g *Generator) Correlated(n int, rho float64) (x, y [][]float64) {
	x = make([][]float64, n)
	y = make([][]float64, n)
	s := math.Sqrt(1 - rho*rho)
	for i := 0; i < n; i++ {
		a := g.rng.NormFloat64()
		b := rho*a + s*g.rng.NormFloat64()
		x[i] = []float64{a}
		y[i] = []float64{b}
	}
	return x, y
}

// AR1 returns a stationary unit-variance AR(1) series x[t] = phi·x[t-1] + e.
// Its active information storage at k=1 is -½ ln(1-phi²) nats.
func (g *Generator) AR1(length int, phi float64) []float64 {
	out := make([]float64, length)
	s := math.Sqrt(1 - phi*phi)
	out[0] = g.rng.NormFloat64()
	for t := 1; t < length; t++ {
		out[t] = phi*out[t-1] + s*g.rng.NormFloat64()
	}
	return out
}

// CoupledAR returns a two-variable VAR(1) series where each variable keeps
// memory a of itself and receives coupling c from the other.
func (g *Generator) CoupledAR(length int, a, c float64) [][]float64 {
	out := make([][]float64, length)
	out[0] = []float64{g.rng.NormFloat64(), g.rng.NormFloat64()}
	for t := 1; t < length; t++ {
		p := out[t-1]
		out[t] = []float64{
			a*p[0] + c*p[1] + g.rng.NormFloat64(),
			c*p[0] + a*p[1] + g.rng.NormFloat64(),
		}
	}
	return out
}

// Scale multiplies column j of every row by factors[j]
func Scale(rows [][]float64, factors ...float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		row := make([]float64, len(r))
		for j, v := range r {
			row[j] = v * factors[j%len(factors)]
		}
		out[i] = row
	}
	return out
}

// Column turns a scalar series into single-column rows
func Column(v []float64) [][]float64 {
	out := make([][]float64, len(v))
	for i, f := range v {
		out[i] = []float64{f}
	}
	return out
}
