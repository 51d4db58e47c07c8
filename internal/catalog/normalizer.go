package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"moodboard/internal/domain"
	"moodboard/internal/infra"
	"moodboard/internal/providers/classifier"
)

// Classifier is the single classification call the normalizer depends on.
type Classifier interface {
	Classify(ctx context.Context, in classifier.Input) (domain.Classification, error)
}

// Store is the catalog subset used by the normalizer.
type Store interface {
	ListForNormalization(ctx context.Context, limit int) ([]domain.Product, error)
	UpdateClassification(ctx context.Context, id string, c domain.Classification, colorVariant, primaryStyle string) error
}

type Outcome string

const (
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

const (
	ReasonNoItemsDetected = "no_items_detected"
	ReasonMissingType     = "missing_type"
	ReasonParseError      = "parse_error"
	ReasonProviderError   = "provider_error"
	ReasonStorageError    = "storage_error"
	ReasonDryRun          = "dry_run"
)

// Result records what happened to one product.
type Result struct {
	ProductID      string
	Outcome        Outcome
	Reason         string
	Kind           domain.ErrorKind
	Err            error
	Classification *domain.Classification
}

// Summary aggregates one normalizer pass.
type Summary struct {
	Fetched  int
	Updated  int
	Skipped  int
	Failed   int
	Results  []Result
	Duration time.Duration
}

func (s *Summary) add(r Result) {
	switch r.Outcome {
	case OutcomeUpdated:
		s.Updated++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
	s.Results = append(s.Results, r)
}

type Options struct {
	BatchLimit int
	// DryRun classifies records without writing them back.
	DryRun  bool
	Logger  *infra.Logger
	Metrics *infra.Metrics
}

// Normalizer enriches product_catalog rows with canonical taxonomy fields.
type Normalizer struct {
	store      Store
	classifier Classifier
	limit      int
	dryRun     bool
	logger     *infra.Logger
	metrics    *infra.Metrics
}

func NewNormalizer(store Store, c Classifier, opts Options) *Normalizer {
	limit := opts.BatchLimit
	if limit <= 0 || limit > infra.MaxNormalizerBatch {
		limit = infra.MaxNormalizerBatch
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Normalizer{
		store:      store,
		classifier: c,
		limit:      limit,
		dryRun:     opts.DryRun,
		logger:     logger,
		metrics:    opts.Metrics,
	}
}

// Run processes one batch sequentially. Per-record failures are recorded in the
// summary; an error is returned only when the batch cannot be fetched or ctx ends.
func (n *Normalizer) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	var summary Summary
	products, err := n.store.ListForNormalization(ctx, n.limit)
	if err != nil {
		return summary, domain.NewStorageError("fetch catalog batch", err)
	}
	summary.Fetched = len(products)
	n.logger.Info().Int("fetched", len(products)).Int("limit", n.limit).Bool("dry_run", n.dryRun).Msg("catalog normalization started")

	for _, p := range products {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}
		res := n.process(ctx, p)
		n.record(res)
		summary.add(res)
	}

	summary.Duration = time.Since(start)
	n.logger.Info().
		Int("fetched", summary.Fetched).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Dur("took", summary.Duration).
		Msg("catalog normalization completed")
	return summary, nil
}

func (n *Normalizer) process(ctx context.Context, p domain.Product) Result {
	if p.ItemsDetected == nil {
		return Result{ProductID: p.ID, Outcome: OutcomeSkipped, Reason: ReasonNoItemsDetected}
	}
	item := *p.ItemsDetected
	if strings.TrimSpace(item.Type) == "" {
		return Result{ProductID: p.ID, Outcome: OutcomeSkipped, Reason: ReasonMissingType}
	}

	c, err := n.classifier.Classify(ctx, classifier.Input{Type: item.Type, Color: item.Color, Style: item.Style})
	if err != nil {
		if errors.Is(err, domain.ErrParse) {
			return Result{ProductID: p.ID, Outcome: OutcomeFailed, Reason: ReasonParseError, Kind: domain.KindParse, Err: err}
		}
		return Result{ProductID: p.ID, Outcome: OutcomeFailed, Reason: ReasonProviderError, Kind: domain.KindProvider, Err: err}
	}

	if n.dryRun {
		return Result{ProductID: p.ID, Outcome: OutcomeSkipped, Reason: ReasonDryRun, Classification: &c}
	}
	if err := n.store.UpdateClassification(ctx, p.ID, c, strings.TrimSpace(item.Color), strings.TrimSpace(item.Style)); err != nil {
		return Result{ProductID: p.ID, Outcome: OutcomeFailed, Reason: ReasonStorageError, Kind: domain.KindStorage, Err: domain.NewStorageError("update product", err), Classification: &c}
	}
	return Result{ProductID: p.ID, Outcome: OutcomeUpdated, Classification: &c}
}

func (n *Normalizer) record(res Result) {
	n.metrics.ObserveNormalizerRecord(string(res.Outcome), res.Reason)
	switch res.Outcome {
	case OutcomeUpdated:
		n.logger.Info().
			Str("product_id", res.ProductID).
			Str("primary_category", string(res.Classification.PrimaryCategory)).
			Str("sub_category", res.Classification.SubCategory).
			Str("primary_color", string(res.Classification.PrimaryColor)).
			Msg("product normalized")
	case OutcomeSkipped:
		n.logger.Warn().Str("product_id", res.ProductID).Str("reason", res.Reason).Msg("product skipped")
	case OutcomeFailed:
		n.logger.Error().Err(res.Err).Str("product_id", res.ProductID).Str("reason", res.Reason).Msg("product normalization failed")
	}
}
