package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"infodyn/adapters/excel"
	"infodyn/app"
	"infodyn/internal/api"
	"infodyn/internal/config"
	"infodyn/internal/container"
	"infodyn/internal/migration"
	"infodyn/internal/report"
	"infodyn/internal/ui"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli carries state shared by every subcommand
type cli struct {
	configPath string
	envFile    string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:           "infodyn",
		Short:         "Active information storage of time series",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}
	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "Environment file loaded before configuration")

	rootCmd.AddCommand(
		newComputeCmd(c),
		newServeCmd(c),
		newResultsCmd(c),
		newMigrateCmd(c),
	)
	return rootCmd
}

func (c *cli) loadConfig() error {
	if c.envFile != "" {
		// a missing env file is normal outside development
		_ = godotenv.Load(c.envFile)
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

func (c *cli) open(ctx context.Context) (*container.Container, error) {
	appContainer, err := container.Open(ctx, c.cfg)
	if err != nil {
		return nil, err
	}
	if diff := c.cfg.DiffFromDefault(); diff != "" {
		appContainer.Logger.Debug("Configuration differs from defaults (-default +effective):\n%s", diff)
	}
	return appContainer, nil
}

type computeFlags struct {
	columns        []string
	sheet          string
	skipBlank      bool
	standardise    bool
	estimator      string
	k              int
	tau            int
	biasCorrection bool
	significance   string
	permutations   int
	seed           int64
	alpha          float64
	format         string
	localsOut      string
}

func newComputeCmd(c *cli) *cobra.Command {
	var f computeFlags

	cmd := &cobra.Command{
		Use:   "compute FILE [FILE...]",
		Short: "Compute active information storage of columns in CSV or XLSX files",
		Long: `Compute active information storage of the selected columns.

Each file is read as one realisation of the process; with several files the
embedded pairs of all realisations are pooled. Zero-valued numeric flags fall
back to the configuration (AIS_* environment variables or --config).

Example: infodyn compute sensors.csv --columns temp,pressure --k 3 --format markdown`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var bias *bool
			if cmd.Flags().Changed("bias-correction") {
				bias = &f.biasCorrection
			}
			return c.runCompute(cmd.Context(), cmd.OutOrStdout(), args, f, bias)
		},
	}

	cmd.Flags().StringSliceVar(&f.columns, "columns", nil, "Columns forming the process variables (default: all)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "Sheet1", "Worksheet to read from XLSX files")
	cmd.Flags().BoolVar(&f.skipBlank, "skip-blank", false, "Drop rows with blank cells instead of failing")
	cmd.Flags().BoolVar(&f.standardise, "standardise", false, "Standardise every variable before embedding")
	cmd.Flags().StringVar(&f.estimator, "estimator", "", "Estimator: gaussian or kraskov")
	cmd.Flags().IntVar(&f.k, "k", 0, "History length")
	cmd.Flags().IntVar(&f.tau, "tau", 0, "Embedding delay")
	cmd.Flags().BoolVar(&f.biasCorrection, "bias-correction", false, "Subtract the Gaussian estimator's analytic bias")
	cmd.Flags().StringVar(&f.significance, "significance", "auto", "Significance test: auto, analytic, permutation or none")
	cmd.Flags().IntVar(&f.permutations, "permutations", 0, "Surrogates for the permutation test")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Random seed for the permutation test")
	cmd.Flags().Float64Var(&f.alpha, "alpha", 0, "Significance level")
	cmd.Flags().StringVar(&f.format, "format", "text", "Output format: text, json, markdown or html")
	cmd.Flags().StringVar(&f.localsOut, "locals-out", "", "Write local storage values to this CSV file")

	return cmd
}

func (c *cli) runCompute(ctx context.Context, out io.Writer, files []string, f computeFlags, bias *bool) error {
	switch f.format {
	case "text", "json", "markdown", "html":
	default:
		return fmt.Errorf("unknown format %q (want text, json, markdown or html)", f.format)
	}

	readerCfg := excel.ReaderConfig{Sheet: f.sheet, SkipBlankRows: f.skipBlank}
	realisations := make([][][]float64, 0, len(files))
	for _, path := range files {
		series, err := excel.NewDataReader(path, readerCfg).ReadSeries(f.columns...)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		realisations = append(realisations, series)
	}

	appContainer, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer appContainer.Shutdown(context.Background())

	req := app.AnalysisRequest{
		Source:         strings.Join(files, ","),
		Standardise:    f.standardise,
		Estimator:      f.estimator,
		K:              f.k,
		Tau:            f.tau,
		BiasCorrection: bias,
		Significance:   app.SignificanceMode(f.significance),
		Permutations:   f.permutations,
		Seed:           f.seed,
		Alpha:          f.alpha,
		IncludeLocals:  f.localsOut != "",
	}
	if len(realisations) == 1 {
		req.Series = realisations[0]
	} else {
		req.Realisations = realisations
	}

	outcome, err := appContainer.AIS.Compute(ctx, req)
	if err != nil {
		return err
	}

	if f.localsOut != "" {
		if err := writeLocals(f.localsOut, outcome.Locals); err != nil {
			return err
		}
	}
	return writeOutcome(out, f.format, outcome)
}

func writeOutcome(out io.Writer, format string, o *app.AnalysisOutcome) error {
	details := report.Details{ChiSquare: o.ChiSquare, Empirical: o.Empirical}
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(o)
	case "markdown":
		_, err := io.WriteString(out, report.Markdown(o.Result, details))
		return err
	case "html":
		_, err := out.Write(report.HTML(report.Markdown(o.Result, details)))
		return err
	}

	r := o.Result
	fmt.Fprintf(out, "AIS (%s, k=%d, tau=%d, N=%d): %.6f nats (%.6f bits)\n",
		r.Estimator, r.HistoryK, r.Tau, r.Observations, r.ValueNats, r.ValueBits)
	if r.PValue != nil {
		verdict := "not significant"
		if r.Significant {
			verdict = "significant"
		}
		fmt.Fprintf(out, "Significance: %s p=%.4g, %s at alpha=%g\n", r.Method, *r.PValue, verdict, r.Alpha)
	}
	fmt.Fprintf(out, "Result: %s\n", r.ID)
	return nil
}

func writeLocals(path string, locals []float64) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create locals file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"index", "local_ais_nats"}); err != nil {
		return err
	}
	for i, v := range locals {
		if err := w.Write([]string{strconv.Itoa(i), strconv.FormatFloat(v, 'g', -1, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			appContainer, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer appContainer.Shutdown(context.Background())

			gin.SetMode(c.cfg.Server.GinMode)
			router := api.NewRouter(appContainer.AIS, appContainer.Logger,
				ui.NewApp(appContainer.AIS, appContainer.Logger, api.UIPrefix))
			return api.Serve(cmd.Context(), ":"+c.cfg.Server.Port, router, appContainer.Logger.WithComponent("Server"))
		},
	}
}

func newResultsCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List stored results (requires DATABASE_URL)",
		RunE: func(cmd *cobra.Command, args []string) error {
			appContainer, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer appContainer.Shutdown(context.Background())

			results, err := appContainer.AIS.ListResults(cmd.Context(), limit)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), report.Summary(results))
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results")
	return cmd
}

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the result tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Database.URL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			// Open migrates as part of connecting
			appContainer, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer appContainer.Shutdown(context.Background())
			fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %s\n", migration.NewRunner().Version())
			return nil
		},
	}
}
