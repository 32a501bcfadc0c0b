package engine

import (
	"context"
	"errors"

	engerr "coredb/pkg/error"
	"coredb/pkg/execution"
	"coredb/pkg/execution/plan"
	"coredb/pkg/logging"
	"coredb/pkg/optimizer"
	"coredb/pkg/optimizer/cardinality"
	"coredb/pkg/optimizer/costmodel"
	"coredb/pkg/optimizer/joingraph"
)

// PipelineInput is the already-resolved shape of a query the Engine plans
// and executes: one leaf operator per base relation plus the predicates
// connecting or filtering them (§6's Pipeline::from_ast, minus parsing —
// building a JoinGraph from an AST is outside this engine's scope).
type PipelineInput struct {
	Vertices []execution.Operator
	Graph    *joingraph.JoinGraph

	// TopK controls the DPccp subplan cache width (§4.9); 1 recovers the
	// single-best-plan variant.
	TopK int
	// Blacklist forces specific (S1, S2) splits out of consideration, for
	// alternative-plan probing.
	Blacklist optimizer.Blacklist
	// Cost overrides the engine's default cost model. Nil selects
	// costmodel.Default.
	Cost costmodel.CostModel
	// Estimator overrides the engine's default cardinality estimator. Nil
	// selects a ColumnStatistics estimator backed by catalog, if provided.
	Estimator cardinality.Estimator
	// Catalog feeds the default ColumnStatistics estimator when Estimator
	// is nil.
	Catalog cardinality.ColumnCatalog
}

// Pipeline plans input's join graph with DPccp, caches the chosen join
// tree by structural fingerprint, and materializes it into physical
// operators (§6, §9). It returns the root operator without executing it.
// A plan-cache hit skips DPccp; Build still runs on every call.
func (e *Engine) Pipeline(ctx context.Context, input PipelineInput) (execution.Operator, error) {
	if len(input.Vertices) == 0 {
		return nil, e.classify(engerr.New(engerr.InvalidInput, "PIPELINE_NO_VERTICES", "pipeline requires at least one vertex"))
	}

	cost := input.Cost
	if cost == nil {
		cost = costmodel.Default{}
	}
	estimator := input.Estimator
	if estimator == nil {
		if input.Catalog == nil {
			return nil, e.classify(engerr.New(engerr.InvalidInput, "PIPELINE_NO_ESTIMATOR", "pipeline requires either an Estimator or a Catalog"))
		}
		estimator = &cardinality.ColumnStatistics{Catalog: input.Catalog}
	}

	fullSet := joingraph.VertexSet(1)<<uint(len(input.Vertices)) - 1
	fingerprint := ""
	if input.Catalog != nil {
		fingerprint = cardinality.Fingerprint(input.Graph, fullSet, input.Catalog)
	}

	log := logging.WithComponent("engine.pipeline")

	var best *optimizer.PlanNode
	if fingerprint != "" {
		if cached, ok := e.planCache.Get(fingerprint); ok {
			log.Debug("plan cache hit", "fingerprint", fingerprint)
			best = cached.(*optimizer.PlanNode)
		}
	}

	if best == nil {
		topK := input.TopK
		if topK < 1 {
			topK = 1
		}
		var err error
		best, err = optimizer.DPccp(ctx, input.Graph, cost, estimator, topK, input.Blacklist)
		if err != nil {
			return nil, e.classify(engerr.Wrap(err, "JOIN_ORDERING_FAILED", "Pipeline", "engine"))
		}
		if fingerprint != "" {
			e.planCache.Put(fingerprint, best)
		}
		log.Info("plan compiled", "vertices", len(input.Vertices), "cost", best.Cost, "cardinality", best.Cardinality)
	}

	// A cached join tree is still rebuilt into fresh operators every call:
	// operators carry per-execution state (execution.Base.Executed()), so
	// only the abstract tree — not the physical operators — is safe to reuse.
	op, err := plan.Build(best, input.Vertices, plan.Options{
		ChunkCapacity: e.opts.chunkCapacity,
		Workers:       e.opts.workerPoolSize,
	})
	if err != nil {
		return nil, e.classify(engerr.Wrap(err, "PLAN_BUILD_FAILED", "Pipeline", "engine"))
	}
	return op, nil
}

// classify implements §7's propagation policy at the pipeline boundary:
// type-switch on the error's Category so Internal failures are logged
// with their captured stack for debugging, while every recoverable
// category (InvalidInput, Unsupported, TransactionAborted, Cancelled) is
// logged as a normal observable result. The error itself is returned
// unchanged either way — classification only decides how loudly the
// pipeline logs it.
func (e *Engine) classify(err error) error {
	if err == nil {
		return nil
	}
	var ee *engerr.EngineError
	if !errors.As(err, &ee) {
		return err
	}

	log := logging.WithComponent("engine.pipeline")
	switch ee.Category {
	case engerr.Internal:
		log.Error("internal error", "code", ee.Code, "error", ee.Error(), "stack", ee.FormatStack())
	case engerr.Cancelled:
		log.Debug("pipeline cancelled", "code", ee.Code)
	case engerr.TransactionAborted:
		log.Warn("transaction aborted", "code", ee.Code)
	case engerr.InvalidInput, engerr.Unsupported:
		log.Warn("rejected by pipeline", "category", ee.Category.String(), "code", ee.Code)
	}
	return err
}
