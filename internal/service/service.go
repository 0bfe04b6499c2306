// Package service orchestrates one validation run: the three dimension
// checks race a shared deadline, their results are merged into a decision,
// and the report is persisted best-effort.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/releasegate/releasegate/internal/check"
	"github.com/releasegate/releasegate/internal/decision"
	"github.com/releasegate/releasegate/internal/llm"
	"github.com/releasegate/releasegate/internal/model"
	"github.com/releasegate/releasegate/internal/ratelimit"
	"github.com/releasegate/releasegate/internal/standards"
	"github.com/releasegate/releasegate/internal/store"
)

// factChecker, contextChecker and qualityChecker are the slices of the
// check package the orchestrator consumes; fakes stand in during tests.
type factChecker interface {
	Verify(ctx context.Context, article map[string]any, teamCtx *model.TeamContext, sourceSummaries []string) *model.ValidationDimension
}

type contextChecker interface {
	Validate(ctx context.Context, article map[string]any, teamCtx *model.TeamContext, stds *model.ValidationStandards) *model.ValidationDimension
}

type qualityChecker interface {
	Validate(ctx context.Context, article map[string]any, stds *model.ValidationStandards, articleType string) *model.ValidationDimension
}

// checkerSet bundles the three per-run checkers
type checkerSet struct {
	factual    factChecker
	contextual contextChecker
	quality    qualityChecker
}

// Service runs validation requests. One instance serves many requests;
// the model client, limiter and checkers are built fresh per run.
type Service struct {
	resolver *standards.Resolver
	logger   *zap.Logger

	// injectable seams for tests
	newProvider func(model.LLMConfig) (llm.Provider, error)
	newSink     func(model.PersistenceConfig) (store.Sink, error)
	newCheckers func(client check.ModelClient, stds *model.ValidationStandards) checkerSet
	timeoutFor  func(cfg model.ValidationConfig) time.Duration
}

// New creates a validation service
func New(resolver *standards.Resolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		resolver:    resolver,
		logger:      logger,
		newProvider: llm.NewProvider,
		newSink:     store.NewSink,
		newCheckers: func(client check.ModelClient, stds *model.ValidationStandards) checkerSet {
			return checkerSet{
				factual:    check.NewFactChecker(client, stds.TrustedDomains(), nil),
				contextual: check.NewContextValidator(client, nil),
				quality:    check.NewQualityValidator(client, nil),
			}
		},
		timeoutFor: func(cfg model.ValidationConfig) time.Duration {
			return time.Duration(cfg.TimeoutSeconds) * time.Second
		},
	}
}

// Validate runs the gate over one request. Configuration errors fail fast
// with a non-nil error; everything else always yields a structured report.
func (s *Service) Validate(ctx context.Context, req *model.ValidationRequest) (report *model.ValidationReport, err error) {
	start := time.Now()

	// Fail-fast configuration checks.
	if err := req.Validate(); err != nil {
		return nil, err
	}
	provider, err := s.newProvider(req.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	// Any panic in the orchestration itself becomes a terminal error report.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("validation orchestration panicked", zap.Any("panic", r))
			report = s.errorReport(req, fmt.Sprintf("internal error: %v", r), start)
			err = nil
		}
	}()

	limiter := ratelimit.New(req.LLM.MaxRequestsPerMinute)
	client := llm.NewClient(provider, limiter, req.LLM, s.logger)

	stds, resolveErr := s.resolver.Resolve(req.ArticleType, req.QualityOverride)
	if resolveErr != nil {
		s.logger.Warn("standards resolution failed, using generic fallback",
			zap.String("article_type", req.ArticleType), zap.Error(resolveErr))
		stds = standards.GenericFallback(req.ArticleType)
	}

	checkers := s.newCheckers(client, stds)
	dims, timedOut := s.runDimensions(ctx, req, stds, checkers)

	report = s.assemble(req, dims, timedOut, start)

	s.persist(ctx, req.Persistence, report)
	return report, nil
}

// dimResult carries one finished dimension back to the collector
type dimResult struct {
	name model.DimensionName
	dim  *model.ValidationDimension
}

// runDimensions schedules every enabled dimension as an independent task
// racing the shared deadline. Dimensions that miss the deadline are replaced
// with a timed-out placeholder; panics inside a task become a critical
// internal-error dimension.
func (s *Service) runDimensions(ctx context.Context, req *model.ValidationRequest, stds *model.ValidationStandards, checkers checkerSet) (map[model.DimensionName]*model.ValidationDimension, []model.DimensionName) {
	cfg := req.Validation
	dims := make(map[model.DimensionName]*model.ValidationDimension)

	tasks := map[model.DimensionName]func(context.Context) *model.ValidationDimension{
		model.DimensionFactual: func(taskCtx context.Context) *model.ValidationDimension {
			return checkers.factual.Verify(taskCtx, req.Article, req.TeamContext, req.SourceSummaries)
		},
		model.DimensionContextual: func(taskCtx context.Context) *model.ValidationDimension {
			return checkers.contextual.Validate(taskCtx, req.Article, req.TeamContext, stds)
		},
		model.DimensionQuality: func(taskCtx context.Context) *model.ValidationDimension {
			return checkers.quality.Validate(taskCtx, req.Article, stds, req.ArticleType)
		},
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeoutFor(cfg))
	defer cancel()

	// Buffered so late finishers never block after the deadline fires.
	results := make(chan dimResult, len(tasks))
	pending := 0

	for name, task := range tasks {
		if !cfg.Enabled(name) {
			dims[name] = model.DisabledDimension(name)
			continue
		}
		pending++
		go func(name model.DimensionName, run func(context.Context) *model.ValidationDimension) {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("dimension task panicked",
						zap.String("dimension", string(name)), zap.Any("panic", r))
					results <- dimResult{name: name, dim: internalErrorDimension(name, r)}
				}
			}()
			results <- dimResult{name: name, dim: run(runCtx)}
		}(name, task)
	}

	deadlineHit := false
	for pending > 0 && !deadlineHit {
		select {
		case result := <-results:
			dims[result.name] = result.dim
			pending--
		case <-runCtx.Done():
			deadlineHit = true
		}
	}
	cancel()

	var timedOut []model.DimensionName
	for name := range tasks {
		if _, done := dims[name]; !done {
			dims[name] = timedOutDimension(name)
			timedOut = append(timedOut, name)
		}
	}
	return dims, timedOut
}

// assemble merges the dimensions into the final report
func (s *Service) assemble(req *model.ValidationRequest, dims map[model.DimensionName]*model.ValidationDimension, timedOut []model.DimensionName, start time.Time) *model.ValidationReport {
	report := model.NewReport(req.ArticleType)
	for name, dim := range dims {
		report.SetDimension(name, dim)
	}

	// Timed-out dimensions are judged by the synthetic review path below,
	// not by the threshold policy: their zero score reflects missing data,
	// not a finding.
	decisionDims := make(map[model.DimensionName]*model.ValidationDimension, len(dims))
	for name, dim := range dims {
		decisionDims[name] = dim
	}
	for _, name := range timedOut {
		decisionDims[name] = nil
	}

	outcome := decision.Decide(req.Validation,
		decisionDims[model.DimensionFactual],
		decisionDims[model.DimensionContextual],
		decisionDims[model.DimensionQuality])
	report.Decision = outcome.Decision
	report.IsReleasable = outcome.IsReleasable
	report.RejectionReasons = outcome.RejectionReasons
	report.ReviewReasons = outcome.ReviewReasons

	if len(timedOut) > 0 {
		report.Status = model.StatusPartial
		report.ReviewReasons = append(report.ReviewReasons,
			"validation timed out before all dimensions completed")
		report.IsReleasable = false
		if report.Decision == model.DecisionRelease {
			report.Decision = model.DecisionReviewRequired
		}
	}

	report.ProcessingTimeMS = time.Since(start).Milliseconds()
	return report
}

// errorReport is the terminal report for an orchestration failure: all
// three dimensions marked failed.
func (s *Service) errorReport(req *model.ValidationRequest, message string, start time.Time) *model.ValidationReport {
	report := model.NewReport(req.ArticleType)
	report.Status = model.StatusError
	report.Error = message
	report.Decision = model.DecisionReviewRequired
	report.IsReleasable = false

	for _, name := range []model.DimensionName{model.DimensionFactual, model.DimensionContextual, model.DimensionQuality} {
		dim := model.NewDimension(name, req.Validation.Enabled(name), 0, 0, false)
		report.SetDimension(name, dim)
	}

	report.ProcessingTimeMS = time.Since(start).Milliseconds()
	return report
}

// persist writes the report best-effort; failures are logged, never raised
func (s *Service) persist(ctx context.Context, cfg model.PersistenceConfig, report *model.ValidationReport) {
	if report.Status == model.StatusError {
		return
	}
	sink, err := s.newSink(cfg)
	if err != nil {
		s.logger.Warn("persistence sink unavailable", zap.Error(err))
		return
	}
	if sink == nil {
		return
	}
	if err := sink.Save(ctx, report); err != nil {
		s.logger.Warn("report persistence failed", zap.Error(err))
	}
}

// timedOutDimension replaces a dimension that missed the shared deadline
func timedOutDimension(name model.DimensionName) *model.ValidationDimension {
	dim := model.NewDimension(name, true, 0, 0, false)
	dim.AddIssue(model.NewIssue(model.SeverityWarning, categoryFor(name),
		fmt.Sprintf("%s validation timed out", name)))
	dim.Details["timed_out"] = true
	return dim
}

// internalErrorDimension replaces a dimension whose task panicked
func internalErrorDimension(name model.DimensionName, cause any) *model.ValidationDimension {
	dim := model.NewDimension(name, true, 0, 0, false)
	dim.AddIssue(model.NewIssue(model.SeverityCritical, categoryFor(name),
		fmt.Sprintf("internal error during %s validation: %v", name, cause)))
	return dim
}

func categoryFor(name model.DimensionName) model.IssueCategory {
	switch name {
	case model.DimensionFactual:
		return model.CategoryFactual
	case model.DimensionContextual:
		return model.CategoryContextual
	case model.DimensionQuality:
		return model.CategoryQuality
	}
	return model.CategoryGeneral
}
