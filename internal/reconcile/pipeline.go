package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"stakingScope/internal/metrics"
	"stakingScope/internal/model"
	"stakingScope/internal/storage"
	"stakingScope/internal/subscan"
)

// Explorer is the query surface the pipeline drives.
type Explorer interface {
	StakingOperations(ctx context.Context, address string, call model.CallKind, page, rows int) ([]model.Operation, error)
	BatchOperations(ctx context.Context, address string, page, rows int) ([]model.Operation, error)
	ExtrinsicEvents(ctx context.Context, extrinsicIndex string) ([]model.Event, error)
}

// PriceSource yields a current USD quote for a token pair.
type PriceSource interface {
	USDPrice(ctx context.Context, base, quote string) (float64, error)
}

// Config holds runtime settings for the pipeline.
type Config struct {
	Rows        int
	Concurrency int
	BaseToken   string
	QuoteToken  string
}

// Pipeline reconciles explorer records into canonical staking operations
// through a sequence of barriers; each barrier's outputs are fully
// materialized before the next begins.
type Pipeline struct {
	cfg        Config
	explorer   Explorer
	operations storage.OperationStore
	validators storage.ValidatorStore
	price      PriceSource
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewPipeline builds a Pipeline with its dependencies.
func NewPipeline(cfg Config, explorer Explorer, operations storage.OperationStore, validators storage.ValidatorStore, price PriceSource, logger *zap.Logger, m *metrics.Metrics) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Rows <= 0 {
		cfg.Rows = 10
	}
	return &Pipeline{
		cfg:        cfg,
		explorer:   explorer,
		operations: operations,
		validators: validators,
		price:      price,
		logger:     logger,
		metrics:    m,
	}
}

// Run executes one reconciliation pass and returns the surviving
// operations, each carrying its final identity hash. Individual record
// failures are dropped; store and price failures abort the run without
// rolling back writes already sent.
func (p *Pipeline) Run(ctx context.Context) ([]model.Operation, error) {
	if p.explorer == nil {
		return nil, fmt.Errorf("explorer is nil")
	}
	if p.operations == nil || p.validators == nil {
		return nil, fmt.Errorf("stores are nil")
	}
	if p.price == nil {
		return nil, fmt.Errorf("price source is nil")
	}

	// The quote fetch overlaps the explorer stages; valuation joins on it.
	var price float64
	priceDone := make(chan error, 1)
	go func() {
		var err error
		price, err = p.price.USDPrice(ctx, p.cfg.BaseToken, p.cfg.QuoteToken)
		priceDone <- err
	}()

	// Stage 1: one extrinsics-list query per call kind.
	candidates := flatten(fanOut(ctx, p.cfg.Concurrency, model.StakingCalls(),
		func(ctx context.Context, call model.CallKind) ([]model.Operation, bool) {
			ops, err := p.explorer.StakingOperations(ctx, "", call, 0, p.cfg.Rows)
			if err != nil {
				p.logger.Warn("staking query failed", zap.String("call", string(call)), zap.Error(err))
				return nil, false
			}
			return ops, true
		}))
	p.metrics.OperationsFetched(len(candidates))

	// Stage 2: dedup before enrichment to avoid wasted detail queries.
	fresh, err := p.operations.NotExisting(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("dedup candidates: %w", err)
	}
	p.logger.Info("candidates collected", zap.Int("fetched", len(candidates)), zap.Int("fresh", len(fresh)))

	// Stage 3: enrich each survivor from its extrinsic's events.
	working := fanOut(ctx, p.cfg.Concurrency, fresh,
		func(ctx context.Context, op model.Operation) (model.Operation, bool) {
			events, err := p.explorer.ExtrinsicEvents(ctx, op.ExtrinsicIndex)
			if err != nil {
				p.logger.Warn("extrinsic detail failed", zap.String("extrinsic", op.ExtrinsicIndex), zap.Error(err))
				return model.Operation{}, false
			}
			enriched, skip := subscan.EnrichFromEvents(op, events)
			if skip != nil {
				p.logger.Debug("enrichment rejected record", zap.String("index", skip.Index), zap.String("reason", skip.Reason))
				p.metrics.RecordsSkipped(1)
				return model.Operation{}, false
			}
			return enriched, true
		})

	// Stage 4: merge deduped batch extrinsics into the working set.
	batchOps, err := p.explorer.BatchOperations(ctx, "", 0, p.cfg.Rows)
	if err != nil {
		p.logger.Warn("batch query failed", zap.Error(err))
		batchOps = nil
	}
	p.metrics.OperationsFetched(len(batchOps))
	freshBatch, err := p.operations.NotExisting(ctx, batchOps)
	if err != nil {
		return nil, fmt.Errorf("dedup batch candidates: %w", err)
	}
	working = append(working, freshBatch...)

	// Stage 5: upsert validator associations from resolved ReStake records.
	// Associations are derived from a snapshot taken before valuation starts
	// mutating the working set; only the upsert runs beside valuation, and
	// both join before gap-fill.
	assocs := model.AssociationsFromOperations(working)
	validatorsDone := make(chan error, 1)
	go func() {
		validatorsDone <- p.validators.ImportOrUpdate(ctx, assocs)
	}()

	// Stage 6: apply one current quote uniformly.
	if err := <-priceDone; err != nil {
		return nil, fmt.Errorf("fetch %s/%s price: %w", p.cfg.BaseToken, p.cfg.QuoteToken, err)
	}
	for i := range working {
		working[i].USDValue = working[i].Quantity * price
	}

	if err := <-validatorsDone; err != nil {
		return nil, fmt.Errorf("import validators: %w", err)
	}

	// Stage 7: gap-fill associations for nominators the store does not know.
	if err := p.fillMissingValidators(ctx, working); err != nil {
		return nil, err
	}

	// Stage 8: resolve destinations and assign the final identity hash.
	for i := range working {
		op := &working[i]
		assoc, err := p.validators.ValidatorByNominator(ctx, op.FromWallet)
		if err != nil {
			p.logger.Warn("validator lookup failed", zap.String("nominator", op.FromWallet), zap.Error(err))
		} else if assoc != nil {
			op.ToWallet = assoc.Validator
		}
		op.SetHash()
	}

	if err := p.operations.SaveOperations(ctx, working); err != nil {
		return nil, fmt.Errorf("save operations: %w", err)
	}
	p.metrics.OperationsSaved(len(working))
	p.metrics.PipelineRuns()
	p.logger.Info("reconciliation pass complete", zap.Int("operations", len(working)))

	return working, nil
}

// fillMissingValidators issues a batch-scoped and a nominate-scoped query
// per unknown nominator and upserts whatever associations they yield.
func (p *Pipeline) fillMissingValidators(ctx context.Context, working []model.Operation) error {
	missing, err := p.validators.NotExistingNominators(ctx, distinctNominators(working))
	if err != nil {
		return fmt.Errorf("find missing nominators: %w", err)
	}
	if len(missing) == 0 {
		return nil
	}

	type gapQuery struct {
		nominator string
		batch     bool
	}
	queries := make([]gapQuery, 0, 2*len(missing))
	for _, nominator := range missing {
		queries = append(queries, gapQuery{nominator, true}, gapQuery{nominator, false})
	}

	assocs := flatten(fanOut(ctx, p.cfg.Concurrency, queries,
		func(ctx context.Context, q gapQuery) ([]model.ValidatorAssociation, bool) {
			var ops []model.Operation
			var err error
			if q.batch {
				ops, err = p.explorer.BatchOperations(ctx, q.nominator, 0, 1)
			} else {
				ops, err = p.explorer.StakingOperations(ctx, q.nominator, model.CallNominate, 0, 1)
			}
			if err != nil {
				p.logger.Warn("gap-fill query failed", zap.String("nominator", q.nominator), zap.Error(err))
				return nil, false
			}
			return model.AssociationsFromOperations(ops), true
		}))

	if err := p.validators.ImportOrUpdate(ctx, assocs); err != nil {
		return fmt.Errorf("import gap-fill validators: %w", err)
	}
	return nil
}

func distinctNominators(ops []model.Operation) []string {
	seen := make(map[string]struct{}, len(ops))
	nominators := make([]string, 0, len(ops))
	for _, op := range ops {
		if _, ok := seen[op.FromWallet]; ok {
			continue
		}
		seen[op.FromWallet] = struct{}{}
		nominators = append(nominators, op.FromWallet)
	}
	return nominators
}
