// Package engine is the "explicit context, no globals" dependency
// injection object described in SPEC_FULL.md §2.1: it replaces the
// teacher's StorageManager/TransactionManager/Scheduler singletons with
// one struct threaded explicitly through the pipeline, grounded on
// pkg/registry.DatabaseContext.
package engine

import (
	"coredb/pkg/cache"
	"coredb/pkg/concurrency/transaction"
	"coredb/pkg/storage"
)

// Options configures an Engine. Built with functional options, mirroring
// the external interface Pipeline::from_ast(ast, options) of §6.
type Options struct {
	cleanupTemporaries bool
	chunkCapacity      int
	workerPoolSize     int
	preparedCacheSize  int
	txOptions          transaction.Permissions
}

// Option mutates an in-progress Options value.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		cleanupTemporaries: true,
		chunkCapacity:      65536,
		workerPoolSize:     0, // 0 means "let errgroup use GOMAXPROCS"
		preparedCacheSize:  256,
		txOptions:          transaction.ReadWrite,
	}
}

// WithCleanupTemporaries sets the cleanup-temporaries flag reported by
// Engine.CleanupTemporaries (§4.4 on_cleanup). Pipeline does not read the
// flag and drops no intermediate Reference tables itself.
func WithCleanupTemporaries(v bool) Option {
	return func(o *Options) { o.cleanupTemporaries = v }
}

// WithTransactionContext sets the default access permissions transactions
// started through this Engine request.
func WithTransactionContext(perm transaction.Permissions) Option {
	return func(o *Options) { o.txOptions = perm }
}

// WithPreparedCache bounds the plan cache's entry count.
func WithPreparedCache(size int) Option {
	return func(o *Options) { o.preparedCacheSize = size }
}

// WithChunkCapacity sets the row capacity new chunks are allocated with
// (§3.3).
func WithChunkCapacity(capacity int) Option {
	return func(o *Options) { o.chunkCapacity = capacity }
}

// WithWorkerPool bounds the number of goroutines the nested-loop join
// fans out across, one per left chunk (§5). Zero
// leaves the choice to errgroup/GOMAXPROCS.
func WithWorkerPool(size int) Option {
	return func(o *Options) { o.workerPoolSize = size }
}

// Engine is the single dependency-injection object threaded through the
// pipeline: table registry, transaction registry, and the plan/cardinality
// caches all live here instead of behind package-level globals.
type Engine struct {
	opts Options

	tables      *TableRegistry
	commits     *storage.CommitIDAllocator
	txns        *transaction.Registry
	planCache   *cache.PlanCache
	cardCache   *cache.CardinalityCache
}

// New builds an Engine with the given options applied over the defaults.
func New(opts ...Option) *Engine {
	o := defaultOptions()
	for _, apply := range opts {
		apply(&o)
	}
	commits := storage.NewCommitIDAllocator()
	return &Engine{
		opts:      o,
		tables:    NewTableRegistry(),
		commits:   commits,
		txns:      transaction.NewRegistry(commits),
		planCache: cache.NewPlanCache(o.preparedCacheSize),
		cardCache: cache.NewCardinalityCache(16),
	}
}

func (e *Engine) Options() Options                             { return e.opts }
func (e *Engine) Tables() *TableRegistry                       { return e.tables }
func (e *Engine) Transactions() *transaction.Registry          { return e.txns }
func (e *Engine) PlanCache() *cache.PlanCache                  { return e.planCache }
func (e *Engine) CardinalityCache() *cache.CardinalityCache    { return e.cardCache }
func (e *Engine) CommitAllocator() *storage.CommitIDAllocator  { return e.commits }
func (e *Engine) ChunkCapacity() int                           { return e.opts.chunkCapacity }
func (e *Engine) WorkerPoolSize() int                          { return e.opts.workerPoolSize }
func (e *Engine) CleanupTemporaries() bool                     { return e.opts.cleanupTemporaries }

// BeginTransaction starts a transaction using the Engine's configured
// default permissions.
func (e *Engine) BeginTransaction() *transaction.Context {
	return e.txns.Begin(e.opts.txOptions)
}
