package app

import (
	"context"
	"time"

	"infodyn/adapters/rng"
	"infodyn/adapters/stats/mi"
	"infodyn/domain/core"
	"infodyn/domain/infomeasure"
	"infodyn/internal"
	"infodyn/internal/ais"
	"infodyn/internal/config"
	"infodyn/internal/embedding"
	"infodyn/models"
	"infodyn/ports"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// SignificanceMode selects how a computation is tested against the null
type SignificanceMode string

const (
	// SignificanceAuto uses the analytic null when the estimator has one and
	// a permutation test otherwise.
	SignificanceAuto        SignificanceMode = "auto"
	SignificanceAnalytic    SignificanceMode = "analytic"
	SignificancePermutation SignificanceMode = "permutation"
	SignificanceSkip        SignificanceMode = "none"
)

// AnalysisRequest describes one AIS computation. Zero values fall back to
// the service's configured defaults.
type AnalysisRequest struct {
	Source string

	// Series is a T x d series. Realisations, when set, replaces it with
	// several independent runs of the same process.
	Series       [][]float64
	Realisations [][][]float64

	// Standardise rescales every variable of each series to zero mean and
	// unit variance before embedding.
	Standardise bool

	Estimator      string           `validate:"omitempty,oneof=gaussian kraskov ksg"`
	K              int              `validate:"min=0"`
	Tau            int              `validate:"min=0"`
	BiasCorrection *bool
	Significance   SignificanceMode `validate:"omitempty,oneof=auto analytic permutation none"`
	Permutations   int              `validate:"min=0,max=100000"`
	Seed           int64
	Alpha          float64          `validate:"min=0,lt=1"`
	IncludeLocals  bool
}

// AnalysisOutcome is the stored result plus the distributions behind it
type AnalysisOutcome struct {
	Result    *models.AISResult                  `json:"result"`
	ChiSquare *infomeasure.ChiSquareDistribution `json:"chi_square,omitempty"`
	Empirical *infomeasure.EmpiricalDistribution `json:"empirical,omitempty"`
	Locals    []float64                          `json:"locals,omitempty"`
	RuntimeMs int64                              `json:"runtime_ms"`
}

// AISService runs AIS computations and stores their results
type AISService struct {
	defaults config.AnalysisConfig
	results  ports.ResultRepository
	rngPort  ports.RNGPort
	logger   *internal.Logger
	validate *validator.Validate
}

// NewAISService creates an AIS service. results may be nil, in which case
// nothing is stored.
func NewAISService(defaults config.AnalysisConfig, results ports.ResultRepository, rngPort ports.RNGPort, logger *internal.Logger) *AISService {
	if rngPort == nil {
		rngPort = rng.NewSeededAdapter()
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AISService{
		defaults: defaults,
		results:  results,
		rngPort:  rngPort,
		logger:   logger.WithComponent("AISService"),
		validate: validator.New(),
	}
}

// Defaults returns the analysis settings applied to zero request fields
func (s *AISService) Defaults() config.AnalysisConfig {
	return s.defaults
}

// resolved fills zero request fields from the defaults
func (s *AISService) resolved(req AnalysisRequest) AnalysisRequest {
	d := s.defaults
	if req.Estimator == "" {
		req.Estimator = d.Estimator
	}
	if req.K == 0 {
		req.K = d.K
	}
	if req.Tau == 0 {
		req.Tau = d.Tau
	}
	if req.BiasCorrection == nil {
		bc := d.BiasCorrection
		req.BiasCorrection = &bc
	}
	if req.Significance == "" {
		req.Significance = SignificanceAuto
	}
	if req.Permutations == 0 {
		req.Permutations = d.Permutations
	}
	if req.Seed == 0 {
		req.Seed = d.Seed
	}
	if req.Alpha == 0 {
		req.Alpha = d.Alpha
	}
	return req
}

// Compute runs the request end to end: embedding, estimate, significance,
// optional local values, then storage.
func (s *AISService) Compute(ctx context.Context, req AnalysisRequest) (*AnalysisOutcome, error) {
	start := time.Now()

	if err := s.validate.Struct(req); err != nil {
		return nil, core.NewInvalidInputError("%v", err)
	}
	req = s.resolved(req)

	variant, err := ais.ParseVariant(req.Estimator)
	if err != nil {
		return nil, err
	}

	resultID := core.NewResultID()
	calc, err := ais.New(variant,
		ais.WithGaussianConfig(mi.GaussianConfig{
			BiasCorrection:     *req.BiasCorrection,
			MaxConditionNumber: s.defaults.MaxConditionNumber,
		}),
		ais.WithKraskovConfig(mi.KraskovConfig{K: s.defaults.KSGK, Normalise: s.defaults.Normalise}),
		ais.WithEmbedding(req.K, req.Tau),
		ais.WithLogger(s.logger),
		ais.WithRNG(s.rngPort),
		ais.WithWorkers(s.defaults.Workers),
		ais.WithRunID(resultID.String()),
	)
	if err != nil {
		return nil, err
	}

	all, err := s.setObservations(calc, req)
	if err != nil {
		return nil, err
	}

	value, err := calc.ComputeAverageAIS()
	if err != nil {
		return nil, err
	}

	result := models.NewAISResult(req.Source, variant.String(), req.K, req.Tau)
	result.ID = resultID
	result.Dimensions = len(all[0])
	result.Observations = calc.NumObservations()
	result.ValueNats = value
	result.ValueBits = infomeasure.NatsToBits(value)
	result.Alpha = req.Alpha
	result.Fingerprint = core.FingerprintSeries(all).String()
	result.Metadata["bias_correction"] = *req.BiasCorrection
	if len(req.Realisations) > 0 {
		result.Metadata["realisations"] = len(req.Realisations)
	}
	if req.Standardise {
		result.Metadata["standardised"] = true
	}

	outcome := &AnalysisOutcome{Result: result}
	if err := s.attachSignificance(ctx, calc, req, outcome); err != nil {
		return nil, err
	}

	if req.IncludeLocals {
		locals, err := calc.ComputeLocalValues()
		if err != nil {
			return nil, err
		}
		outcome.Locals = locals
	}

	if s.results != nil {
		if err := s.results.SaveResult(ctx, result); err != nil {
			return nil, err
		}
	}

	outcome.RuntimeMs = time.Since(start).Milliseconds()
	s.logger.Info("AIS %s k=%d tau=%d N=%d: %.6f nats (%s, significant=%v) in %dms",
		result.Estimator, result.HistoryK, result.Tau, result.Observations,
		result.ValueNats, result.Method, result.Significant, outcome.RuntimeMs)
	return outcome, nil
}

// setObservations feeds the calculator and returns every row used, for
// fingerprinting.
func (s *AISService) setObservations(calc *ais.Calculator, req AnalysisRequest) ([][]float64, error) {
	prepare := func(series [][]float64) ([][]float64, error) {
		if !req.Standardise {
			return series, nil
		}
		return embedding.Normalise(series)
	}

	if len(req.Realisations) == 0 {
		series, err := prepare(req.Series)
		if err != nil {
			return nil, err
		}
		if err := calc.SetSeries(series); err != nil {
			return nil, err
		}
		return req.Series, nil
	}

	calc.StartAddObservations()
	var all [][]float64
	for _, r := range req.Realisations {
		series, err := prepare(r)
		if err != nil {
			return nil, err
		}
		if err := calc.AddSeries(series); err != nil {
			return nil, err
		}
		all = append(all, r...)
	}
	if err := calc.FinaliseAddObservations(); err != nil {
		return nil, err
	}
	return all, nil
}

func (s *AISService) attachSignificance(ctx context.Context, calc *ais.Calculator, req AnalysisRequest, out *AnalysisOutcome) error {
	mode := req.Significance
	if mode == SignificanceAuto {
		mode = SignificancePermutation
		if calc.SupportsAnalyticSignificance() {
			mode = SignificanceAnalytic
		}
	}

	switch mode {
	case SignificanceAnalytic:
		dist, err := calc.ComputeSignificance()
		if err != nil {
			return err
		}
		dof := dist.DegreesOfFreedom
		out.ChiSquare = dist
		out.Result.DegreesOfFreedom = &dof
		out.Result.SetSignificance(models.SignificanceChiSquare, dist, req.Alpha)
	case SignificancePermutation:
		dist, err := calc.ComputePermutationSignificance(ctx, req.Permutations, req.Seed)
		if err != nil {
			return err
		}
		n := len(dist.Surrogates)
		out.Empirical = dist
		out.Result.Permutations = &n
		out.Result.SetSignificance(models.SignificancePermutation, dist, req.Alpha)
	}
	return nil
}

// GetResult returns a stored result
func (s *AISService) GetResult(ctx context.Context, id uuid.UUID) (*models.AISResult, error) {
	if s.results == nil {
		return nil, core.NewNotFoundError("result", id.String())
	}
	return s.results.GetResult(ctx, id)
}

// ListResults returns stored results newest first
func (s *AISService) ListResults(ctx context.Context, limit int) ([]*models.AISResult, error) {
	if s.results == nil {
		return []*models.AISResult{}, nil
	}
	return s.results.ListResults(ctx, limit)
}
