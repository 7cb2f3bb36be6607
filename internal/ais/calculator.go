// Package ais computes Active Information Storage: the mutual information
// between a process's embedded past and its next value. All numeric work is
// delegated to a mutual information estimator chosen at construction.
package ais

import (
	"context"
	"fmt"

	"infodyn/adapters/battery"
	"infodyn/adapters/rng"
	"infodyn/adapters/stats/mi"
	"infodyn/domain/core"
	"infodyn/domain/infomeasure"
	"infodyn/internal"
	"infodyn/internal/embedding"
	"infodyn/ports"
)

// smallSampleFactor scales dX·dY into the sample count below which the
// chi-square approximation is reported as unreliable.
const smallSampleFactor = 10

type options struct {
	gaussian mi.GaussianConfig
	kraskov  mi.KraskovConfig
	params   embedding.Params
	logger   *internal.Logger
	rng      ports.RNGPort
	workers  int
	runID    string
}

// Option configures a Calculator
type Option func(*options)

// WithGaussianConfig sets the options of the Gaussian estimator
func WithGaussianConfig(cfg mi.GaussianConfig) Option {
	return func(o *options) { o.gaussian = cfg }
}

// WithKraskovConfig sets the options of the KSG estimator
func WithKraskovConfig(cfg mi.KraskovConfig) Option {
	return func(o *options) { o.kraskov = cfg }
}

// WithEmbedding sets the history length and delay used by SetSeries
func WithEmbedding(k, tau int) Option {
	return func(o *options) { o.params = embedding.Params{K: k, Tau: tau} }
}

// WithLogger replaces the default logger
func WithLogger(l *internal.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRNG sets the RNG used by permutation significance
func WithRNG(r ports.RNGPort) Option {
	return func(o *options) { o.rng = r }
}

// WithWorkers bounds concurrent surrogate evaluations
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRunID namespaces permutation RNG streams
func WithRunID(id string) Option {
	return func(o *options) { o.runID = id }
}

// Calculator is the AIS view over a bound mutual information estimator.
//
// Observations move it from uninitialised to ready; estimates may then be
// computed any number of times. Setting new observations replaces the old
// ones. A Calculator is not safe for concurrent use.
type Calculator struct {
	variant   Variant
	opts      options
	estimator ports.MutualInfoEstimator
	logger    *internal.Logger

	history [][]float64
	next    [][]float64
	ready   bool

	// multiple-realisation accumulation
	adding         bool
	pendingHistory [][]float64
	pendingNext    [][]float64
}

// New creates a calculator bound to the estimator variant for its lifetime
func New(variant Variant, opts ...Option) (*Calculator, error) {
	o := options{
		gaussian: mi.DefaultGaussianConfig(),
		kraskov:  mi.DefaultKraskovConfig(),
		params:   embedding.DefaultParams(),
		logger:   internal.DefaultLogger,
		workers:  battery.DefaultWorkers,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rng.NewSeededAdapter()
	}

	c := &Calculator{
		variant: variant,
		opts:    o,
		logger:  o.logger.WithComponent("AIS"),
	}
	est, err := c.newEstimator()
	if err != nil {
		return nil, err
	}
	c.estimator = est
	return c, nil
}

// newEstimator builds an unshared estimator of the bound variant
func (c *Calculator) newEstimator() (ports.MutualInfoEstimator, error) {
	switch c.variant {
	case VariantGaussian:
		return mi.NewGaussian(c.opts.gaussian), nil
	case VariantKraskov:
		return mi.NewKraskov(c.opts.kraskov), nil
	}
	return nil, fmt.Errorf("%w: unknown estimator variant %d", core.ErrInvalidOption, int(c.variant))
}

// Variant returns the bound estimator variant
func (c *Calculator) Variant() Variant {
	return c.variant
}

// Params returns the embedding used by SetSeries
func (c *Calculator) Params() embedding.Params {
	return c.opts.params
}

// Initialise sets the history length k and delay tau and drops any
// observations.
func (c *Calculator) Initialise(k, tau int) error {
	p := embedding.Params{K: k, Tau: tau}
	if err := p.Validate(); err != nil {
		return err
	}
	c.opts.params = p
	c.clear()
	c.adding = false
	return nil
}

func (c *Calculator) clear() {
	c.history, c.next = nil, nil
	c.ready = false
	c.pendingHistory, c.pendingNext = nil, nil
}

// SetObservations supplies pre-embedded sample pairs: history[i] is the past
// state preceding next[i].
func (c *Calculator) SetObservations(history, next [][]float64) error {
	c.ready = false
	if len(history) != len(next) {
		return core.NewDimMismatchError("number of next values", len(next), len(history))
	}
	if err := c.estimator.SetObservations(history, next); err != nil {
		return err
	}

	c.history, c.next = copyRows(history), copyRows(next)
	c.ready = true

	if c.variant == VariantGaussian {
		dX, dY := len(history[0]), len(next[0])
		if n := len(history); n < smallSampleFactor*dX*dY {
			c.logger.Warn("%d observations for %dx%d dimensions; chi-square significance is unreliable below %d",
				n, dX, dY, smallSampleFactor*dX*dY)
		}
	}
	return nil
}

// SetSeries embeds a T x d series with the configured k and tau and sets the
// resulting pairs as observations.
func (c *Calculator) SetSeries(series [][]float64) error {
	history, next, err := embedding.Embed(series, c.opts.params)
	if err != nil {
		c.ready = false
		return err
	}
	return c.SetObservations(history, next)
}

// SetScalarSeries is SetSeries for a univariate series
func (c *Calculator) SetScalarSeries(series []float64) error {
	history, next, err := embedding.EmbedScalar(series, c.opts.params)
	if err != nil {
		c.ready = false
		return err
	}
	return c.SetObservations(history, next)
}

// StartAddObservations begins accumulating several realisations of the
// process. Pairs are embedded per realisation and never span two of them.
func (c *Calculator) StartAddObservations() {
	c.clear()
	c.adding = true
}

// AddSeries embeds one realisation and queues its pairs
func (c *Calculator) AddSeries(series [][]float64) error {
	if !c.adding {
		return core.NewInvalidInputError("AddSeries called before StartAddObservations")
	}
	history, next, err := embedding.Embed(series, c.opts.params)
	if err != nil {
		return err
	}
	if len(c.pendingNext) > 0 && len(next[0]) != len(c.pendingNext[0]) {
		return core.NewDimMismatchError("variables in realisation", len(next[0]), len(c.pendingNext[0]))
	}
	c.pendingHistory = append(c.pendingHistory, history...)
	c.pendingNext = append(c.pendingNext, next...)
	return nil
}

// AddScalarSeries is AddSeries for a univariate realisation
func (c *Calculator) AddScalarSeries(series []float64) error {
	rows := make([][]float64, len(series))
	for i, v := range series {
		rows[i] = []float64{v}
	}
	return c.AddSeries(rows)
}

// FinaliseAddObservations sets every queued pair as the observations
func (c *Calculator) FinaliseAddObservations() error {
	if !c.adding {
		return core.NewInvalidInputError("FinaliseAddObservations called before StartAddObservations")
	}
	c.adding = false
	if len(c.pendingNext) == 0 {
		return core.ErrNoObservations
	}
	history, next := c.pendingHistory, c.pendingNext
	c.pendingHistory, c.pendingNext = nil, nil
	return c.SetObservations(history, next)
}

// NumObservations returns the number of sample pairs currently set
func (c *Calculator) NumObservations() int {
	if !c.ready {
		return 0
	}
	return len(c.history)
}

// ComputeAverageMI returns the mutual information between history and next
// value, in nats.
func (c *Calculator) ComputeAverageMI() (float64, error) {
	if !c.ready {
		return 0, core.ErrNoObservations
	}
	return c.estimator.ComputeAverageMI()
}

// ComputeAverageAIS is ComputeAverageMI under its storage name
func (c *Calculator) ComputeAverageAIS() (float64, error) {
	return c.ComputeAverageMI()
}

// SupportsAnalyticSignificance reports whether ComputeSignificance is
// available for the bound estimator.
func (c *Calculator) SupportsAnalyticSignificance() bool {
	_, ok := c.estimator.(ports.AnalyticNullDistributionComputer)
	return ok
}

// ComputeSignificance returns the analytic null distribution from the bound
// estimator unchanged. Estimators without one yield
// core.ErrCapabilityUnavailable; use ComputePermutationSignificance instead.
func (c *Calculator) ComputeSignificance() (*infomeasure.ChiSquareDistribution, error) {
	analytic, ok := c.estimator.(ports.AnalyticNullDistributionComputer)
	if !ok {
		return nil, fmt.Errorf("%w for %s estimator", core.ErrNoAnalyticNull, c.variant)
	}
	if !c.ready {
		return nil, core.ErrNoObservations
	}
	return analytic.ComputeSignificance()
}

// ComputeLocalValues returns the local storage of every observation
func (c *Calculator) ComputeLocalValues() ([]float64, error) {
	local, ok := c.estimator.(ports.LocalValuesComputer)
	if !ok {
		return nil, fmt.Errorf("%w for %s estimator", core.ErrNoLocalValues, c.variant)
	}
	if !c.ready {
		return nil, core.ErrNoObservations
	}
	return local.ComputeLocalValues()
}

// ComputePermutationSignificance builds an empirical null by permuting next
// values against histories. It is available for every variant.
func (c *Calculator) ComputePermutationSignificance(ctx context.Context, numPermutations int, seed int64) (*infomeasure.EmpiricalDistribution, error) {
	observed, err := c.ComputeAverageMI()
	if err != nil {
		return nil, err
	}

	tester := battery.NewPermutationTester(c.opts.rng)
	tester.SetWorkers(c.opts.workers)
	tester.SetRunID(c.opts.runID)
	tester.SetLogger(c.opts.logger)

	factory := func() ports.MutualInfoEstimator {
		// variant was validated in New
		est, _ := c.newEstimator()
		return est
	}
	return tester.Test(ctx, factory, c.history, c.next, observed, numPermutations, seed)
}

func copyRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = append([]float64(nil), r...)
	}
	return out
}
