package app

import (
	"context"
	"fmt"
	"time"

	"boxmeta/domain/boxplot"
	domaincmp "boxmeta/domain/comparison"
	"boxmeta/domain/core"
	"boxmeta/domain/run"
	"boxmeta/internal"
	"boxmeta/internal/comparison"
	"boxmeta/internal/config"
	"boxmeta/internal/errors"
	"boxmeta/internal/estimation"
	"boxmeta/ports"

	"golang.org/x/sync/errgroup"
)

// CodeVersion is folded into every run fingerprint
const CodeVersion = "0.3.0"

// ConversionOptions configures one conversion run
type ConversionOptions struct {
	Formula     estimation.FormulaOptions
	Comparison  comparison.Options
	Mode        domaincmp.Mode
	Workers     int
	CodeVersion string
}

// DefaultConversionOptions returns banded grade-1 estimates, 95% confidence,
// every comparison mode and four workers
func DefaultConversionOptions() ConversionOptions {
	return ConversionOptions{
		Formula:     estimation.DefaultFormulaOptions(),
		Comparison:  comparison.DefaultOptions(),
		Mode:        domaincmp.ModeAll,
		Workers:     4,
		CodeVersion: CodeVersion,
	}
}

// OptionsFromConfig maps the engine and run sections of cfg to options
func OptionsFromConfig(cfg *config.Config) (ConversionOptions, error) {
	variant, err := estimation.ParseFiveNumberVariant(cfg.Engine.FiveNumber)
	if err != nil {
		return ConversionOptions{}, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	mode, err := domaincmp.ParseMode(cfg.Engine.Mode)
	if err != nil {
		return ConversionOptions{}, errors.WithCode(errors.CodeConfigInvalid, err)
	}

	return ConversionOptions{
		Formula: estimation.FormulaOptions{
			FiveNumber: variant,
			Skew: estimation.SkewCorrection{
				MeanCoefficient: cfg.Engine.MeanCoefficient,
				SDCoefficient:   cfg.Engine.SDCoefficient,
			},
		},
		Comparison: comparison.Options{
			ConfidenceLevel: cfg.Engine.ConfidenceLevel,
			Correlation:     cfg.Engine.Correlation,
		},
		Mode:        mode,
		Workers:     cfg.Run.Workers,
		CodeVersion: CodeVersion,
	}, nil
}

// Settings is the run-report view of the options
func (o ConversionOptions) Settings() run.Settings {
	return run.Settings{
		ConfidenceLevel: o.Comparison.ConfidenceLevel,
		Mode:            o.Mode,
		Correlation:     o.Comparison.Correlation,
		FiveNumber:      string(o.Formula.FiveNumber),
		MeanCoefficient: o.Formula.Skew.MeanCoefficient,
		SDCoefficient:   o.Formula.Skew.SDCoefficient,
	}
}

// ConversionService orchestrates a batch: per-group estimation, pair
// selection for the comparison engine and the run summary.
type ConversionService struct {
	aggregator *estimation.Aggregator
	opts       ConversionOptions
	logger     *internal.Logger
}

// NewConversionService creates a conversion service
func NewConversionService(opts ConversionOptions) *ConversionService {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Mode == "" {
		opts.Mode = domaincmp.ModeAll
	}
	if opts.CodeVersion == "" {
		opts.CodeVersion = CodeVersion
	}
	return &ConversionService{
		aggregator: estimation.NewAggregator(estimation.NewFormulaEngine(opts.Formula)),
		opts:       opts,
		logger:     internal.DefaultLogger,
	}
}

// WithLogger replaces the service logger
func (s *ConversionService) WithLogger(logger *internal.Logger) *ConversionService {
	s.logger = logger
	return s
}

// Options returns the effective options
func (s *ConversionService) Options() ConversionOptions {
	return s.opts
}

// ConvertSource reads groups from src and converts them. Source warnings are
// carried into the report.
func (s *ConversionService) ConvertSource(ctx context.Context, src ports.GroupSource) (*run.Report, error) {
	groups, warnings, err := src.ReadGroups(ctx)
	if err != nil {
		return nil, err
	}
	report, err := s.Convert(ctx, groups)
	if err != nil {
		return nil, err
	}
	report.Warnings = append(warnings, report.Warnings...)
	return report, nil
}

// Convert estimates every group and runs the comparisons selected by the
// mode. Case and pair failures are recorded in the report; only malformed
// batches and cancellation return an error.
func (s *ConversionService) Convert(ctx context.Context, groups []boxplot.RawGroup) (*run.Report, error) {
	startedAt := core.Now()

	if err := checkGroups(groups); err != nil {
		return nil, err
	}

	s.logger.Info("[ConversionService] converting %d groups (mode=%s, five-number=%s, workers=%d)",
		len(groups), s.opts.Mode, s.opts.Formula.FiveNumber, s.opts.Workers)

	results := make([]boxplot.GroupResult, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, group := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			results[i] = s.aggregator.Aggregate(group)
			s.logger.Debug("[ConversionService] group %s: working %s, %d cases in %s",
				group.Label, results[i].WorkingGrade, len(group.Cases), time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	comparisons, warnings := s.selectPairs(results)

	settings := s.opts.Settings()
	report := &run.Report{
		RunID:       core.NewRunID(),
		Fingerprint: run.NewRunFingerprint(run.HashGroups(groups), settings, s.opts.CodeVersion),
		Settings:    settings,
		StartedAt:   startedAt,
		Groups:      results,
		Comparisons: comparisons,
		Warnings:    warnings,
	}
	report.Summary = Summarize(results, comparisons)
	report.CompletedAt = core.Now()

	s.logger.Info("[ConversionService] run %s: %d/%d cases estimated, %d comparisons, overall %s",
		report.RunID, report.Summary.SuccessfulCases, report.Summary.TotalCases,
		len(comparisons), report.Summary.OverallGrade)
	return report, nil
}

// Compare runs the comparison engine on two explicit endpoints
func (s *ConversionService) Compare(first, second domaincmp.Endpoint) domaincmp.PairOutcome {
	return comparison.ComparePair(domaincmp.KindPairwise, first, second, s.opts.Comparison)
}

func checkGroups(groups []boxplot.RawGroup) error {
	if len(groups) == 0 {
		return errors.InvalidInput("no groups to convert")
	}
	seen := make(map[core.GroupLabel]bool, len(groups))
	for _, g := range groups {
		if core.ID(g.Label).IsEmpty() {
			return errors.InvalidInput("group label cannot be empty")
		}
		if seen[g.Label] {
			return errors.InvalidInput(fmt.Sprintf("group %q appears twice", g.Label))
		}
		seen[g.Label] = true
	}
	return nil
}

// selectPairs builds the comparison list for the configured mode
func (s *ConversionService) selectPairs(results []boxplot.GroupResult) ([]domaincmp.PairOutcome, []string) {
	var (
		pairs    []domaincmp.PairOutcome
		warnings []string
	)
	if s.opts.Mode.IncludesInterventionBaseline() {
		ib, w := s.interventionBaselinePairs(results)
		pairs = append(pairs, ib...)
		warnings = append(warnings, w...)
	}
	if s.opts.Mode.IncludesPairwise() {
		pairs = append(pairs, s.pairwisePairs(results)...)
	}
	return pairs, warnings
}

// interventionBaselinePairs pairs every intervention case with the baseline
// case of the same label; delta is intervention minus baseline.
func (s *ConversionService) interventionBaselinePairs(results []boxplot.GroupResult) ([]domaincmp.PairOutcome, []string) {
	var (
		baseline      *boxplot.GroupResult
		interventions []boxplot.GroupResult
		warnings      []string
	)
	for i := range results {
		switch results[i].Role {
		case boxplot.RoleBaseline:
			if baseline == nil {
				baseline = &results[i]
			} else {
				warnings = append(warnings, fmt.Sprintf("%s: only the first baseline group %s is compared", results[i].Label, baseline.Label))
			}
		case boxplot.RoleIntervention:
			interventions = append(interventions, results[i])
		}
	}
	if len(interventions) == 0 {
		return nil, warnings
	}
	if baseline == nil {
		warnings = append(warnings, "no baseline group; intervention-baseline comparisons skipped")
		return nil, warnings
	}

	var pairs []domaincmp.PairOutcome
	for _, iv := range interventions {
		for _, c := range iv.Cases {
			base, ok := baseline.Find(c.Label)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("%s/%s has no counterpart in %s", iv.Label, c.Label, baseline.Label))
				continue
			}
			pairs = append(pairs, s.pair(domaincmp.KindInterventionBaseline, iv.Label, c, baseline.Label, base))
		}
	}
	return pairs, warnings
}

// pairwisePairs compares every i<j case pair within each group
func (s *ConversionService) pairwisePairs(results []boxplot.GroupResult) []domaincmp.PairOutcome {
	var pairs []domaincmp.PairOutcome
	for _, g := range results {
		for i := 0; i < len(g.Cases); i++ {
			for j := i + 1; j < len(g.Cases); j++ {
				pairs = append(pairs, s.pair(domaincmp.KindPairwise, g.Label, g.Cases[i], g.Label, g.Cases[j]))
			}
		}
	}
	return pairs
}

func (s *ConversionService) pair(kind domaincmp.Kind, firstGroup core.GroupLabel, first boxplot.CaseOutcome, secondGroup core.GroupLabel, second boxplot.CaseOutcome) domaincmp.PairOutcome {
	a := endpoint(firstGroup, first)
	b := endpoint(secondGroup, second)

	for _, side := range []struct {
		ep  domaincmp.Endpoint
		out boxplot.CaseOutcome
	}{{a, first}, {b, second}} {
		if side.out.OK() {
			continue
		}
		reason := core.ReasonIncompleteData
		if side.out.Failure != nil && side.out.Failure.Reason != "" {
			reason = side.out.Failure.Reason
		}
		return domaincmp.PairOutcome{
			Kind:    kind,
			First:   a,
			Second:  b,
			Failure: core.NewFailure(reason, "", "%s has no estimate", side.ep),
		}
	}
	return comparison.ComparePair(kind, a, b, s.opts.Comparison)
}

func endpoint(group core.GroupLabel, c boxplot.CaseOutcome) domaincmp.Endpoint {
	ep := domaincmp.Endpoint{Group: group, Case: c.Label}
	if c.Result != nil {
		ep.Sample = domaincmp.Sample{Mean: c.Result.Mean, SD: c.Result.SD, N: c.Result.SampleSize}
	}
	return ep
}
