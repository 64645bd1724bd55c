package dandolo

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Alhambren/Dandolo-Prod-sub001/internal/analyzer"
	"github.com/Alhambren/Dandolo-Prod-sub001/internal/kvutil"
	"github.com/Alhambren/Dandolo-Prod-sub001/internal/logging"
	"github.com/Alhambren/Dandolo-Prod-sub001/internal/metrics"
	"github.com/Alhambren/Dandolo-Prod-sub001/internal/rebalance"
	"github.com/Alhambren/Dandolo-Prod-sub001/internal/registry"
	"github.com/Alhambren/Dandolo-Prod-sub001/policy"
	"github.com/Alhambren/Dandolo-Prod-sub001/store"
)

// Router is the public entry point for session-to-provider routing.
//
// Router pins each conversation to one provider for its lifetime (sticky
// assignment), self-heals sessions whose provider went inactive, and exposes
// the distribution analysis and rebalancing entry points called by a
// periodic scheduler.
//
// Thread Safety:
//   - All public methods are safe for concurrent use
//   - Session writes serialize per record via store-level compare-and-swap;
//     there is no in-process lock over the whole registry
//
// Lifecycle:
//   - Create with NewRouter (durable NATS-backed store) or
//     NewRouterWithStore (injected store, e.g. in-memory for tests)
//   - Route requests with AssignOrGet
//   - Wire ExecuteRebalancing to an external timer (~15 minutes)
//   - Call Close when shutting down
type Router struct {
	cfg       Config
	store     SessionStore
	directory ProviderDirectory

	registry   *registry.Registry
	analyzer   *analyzer.Analyzer
	rebalancer *rebalance.Rebalancer

	logger Logger
	now    func() time.Time
	closed atomic.Bool
}

// NewRouter creates a Router backed by a NATS JetStream KV session store.
//
// The session bucket is created if missing; multiple router instances may
// bootstrap concurrently against the same NATS cluster.
//
// Returns a concrete *Router struct following the "accept interfaces,
// return structs" principle. Consumers can define their own interfaces for
// testing if needed.
//
// Parameters:
//   - ctx: Context bounding bucket bootstrap
//   - conn: NATS connection
//   - cfg: Runtime configuration with parsed durations
//   - directory: Authoritative provider list (read-only from the router's
//     perspective)
//   - opts: Optional configuration (policy, hooks, metrics, logger, clock)
//
// Returns:
//   - *Router: Initialized router instance
//   - error: Validation or bucket bootstrap error
//
// Example:
//
//	cfg := dandolo.DefaultConfig()
//	router, err := dandolo.NewRouter(ctx, natsConn, &cfg, providerDir)
func NewRouter(ctx context.Context, conn *nats.Conn, cfg *Config, directory ProviderDirectory, opts ...Option) (*Router, error) {
	if conn == nil {
		return nil, ErrNATSConnectionRequired
	}
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if directory == nil {
		return nil, ErrProviderDirectoryRequired
	}

	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	options := applyOptions(opts)

	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	bootstrapCtx, cancel := context.WithTimeout(ctx, cfg.OperationTimeout)
	defer cancel()

	kv, err := kvutil.EnsureBucket(bootstrapCtx, js, jetstream.KeyValueConfig{
		Bucket:      cfg.KVBucket.SessionBucket,
		Description: "Dandolo session-to-provider pins",
		Replicas:    cfg.KVBucket.Replicas,
	}, cfg.KVBucket.CreateMaxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure session bucket: %w", err)
	}

	sessionStore := store.NewNATSKV(kv, options.logger, options.metrics)

	return newRouter(cfg, sessionStore, directory, options)
}

// NewRouterWithStore creates a Router over an injected session store.
//
// Intended for tests (store.NewMemory) and for deployments that supply
// their own durable SessionStore implementation.
//
// Parameters:
//   - cfg: Runtime configuration with parsed durations
//   - sessionStore: Session record store
//   - directory: Authoritative provider list
//   - opts: Optional configuration (policy, hooks, metrics, logger, clock)
//
// Returns:
//   - *Router: Initialized router instance
//   - error: Validation error if configuration is invalid
func NewRouterWithStore(cfg *Config, sessionStore SessionStore, directory ProviderDirectory, opts ...Option) (*Router, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if sessionStore == nil {
		return nil, ErrSessionStoreRequired
	}
	if directory == nil {
		return nil, ErrProviderDirectoryRequired
	}

	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return newRouter(cfg, sessionStore, directory, applyOptions(opts))
}

func applyOptions(opts []Option) *routerOptions {
	options := &routerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.logger == nil {
		options.logger = logging.NewNop()
	}
	if options.metrics == nil {
		options.metrics = metrics.NewNop()
	}
	if options.now == nil {
		options.now = time.Now
	}

	return options
}

func newRouter(cfg *Config, sessionStore SessionStore, directory ProviderDirectory, options *routerOptions) (*Router, error) {
	cfg.ValidateWithWarnings(options.logger)

	selectionPolicy := options.policy
	if selectionPolicy == nil {
		selectionPolicy = policy.NewScored(policy.WithTopCandidates(cfg.Scoring.TopCandidates))
	}

	var hooks Hooks
	if options.hooks != nil {
		hooks = *options.hooks
	}

	reg, err := registry.New(&registry.Config{
		Store:             sessionStore,
		Directory:         directory,
		Policy:            selectionPolicy,
		MaxAssignAttempts: cfg.MaxAssignAttempts,
		Logger:            options.logger,
		Metrics:           options.metrics,
		Hooks:             hooks,
		Now:               options.now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session registry: %w", err)
	}

	an, err := analyzer.New(&analyzer.Config{
		Sessions:            reg,
		Directory:           directory,
		OverloadFactor:      cfg.Analyzer.OverloadFactor,
		UnderutilizedFactor: cfg.Analyzer.UnderutilizedFactor,
		MinTargetScore:      cfg.Analyzer.MinTargetScore,
		VarianceFactor:      cfg.Analyzer.VarianceFactor,
		MaxPerPair:          cfg.Analyzer.MaxPerPair,
		Logger:              options.logger,
		Metrics:             options.metrics,
		Now:                 options.now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create distribution analyzer: %w", err)
	}

	rb, err := rebalance.New(&rebalance.Config{
		Store:       sessionStore,
		Directory:   directory,
		Analyzer:    an,
		MinIdleTime: cfg.Rebalance.MinIdleTime,
		MaxSessions: cfg.Rebalance.MaxSessions,
		Logger:      options.logger,
		Metrics:     options.metrics,
		Hooks:       hooks,
		Now:         options.now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rebalancer: %w", err)
	}

	return &Router{
		cfg:        *cfg,
		store:      sessionStore,
		directory:  directory,
		registry:   reg,
		analyzer:   an,
		rebalancer: rb,
		logger:     options.logger,
		now:        options.now,
	}, nil
}

// AssignOrGet resolves a session to a provider, assigning one if needed.
//
// An existing session whose provider is still active is reused (sticky
// assignment) and its idle clock reset. A session whose provider went
// inactive is deleted and re-assigned as if new. Concurrent calls for the
// same session ID serialize through the store; the loser adopts the
// winner's assignment.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - sessionID: Opaque caller-supplied session identifier
//   - intent: Requested model/capability tag, recorded on the session
//
// Returns:
//   - string: Assigned provider ID
//   - error: ErrNoProvidersAvailable when the fleet is empty, ErrRouterClosed
//     after Close, or a store error
func (r *Router) AssignOrGet(ctx context.Context, sessionID, intent string) (string, error) {
	if r.closed.Load() {
		return "", ErrRouterClosed
	}

	ctx, cancel := r.boundCtx(ctx)
	defer cancel()

	return r.registry.AssignOrGet(ctx, sessionID, intent)
}

// GetCurrent returns the session's provider without side effects.
//
// Unlike AssignOrGet it never mutates the session record and never triggers
// assignment: a missing session or an inactive provider reports found=false.
// Intended for inspection (dashboards, debugging).
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - sessionID: Session identifier
//
// Returns:
//   - string: Provider ID, empty when not found
//   - bool: Whether a usable assignment exists
//   - error: ErrRouterClosed after Close, or a store error
func (r *Router) GetCurrent(ctx context.Context, sessionID string) (string, bool, error) {
	if r.closed.Load() {
		return "", false, ErrRouterClosed
	}

	ctx, cancel := r.boundCtx(ctx)
	defer cancel()

	return r.registry.GetCurrent(ctx, sessionID)
}

// Remove deletes a session record, ending its sticky assignment.
//
// Idempotent: removing an absent session is not an error.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - sessionID: Session identifier
//
// Returns:
//   - bool: Whether a record existed
//   - error: ErrRouterClosed after Close, or a store error
func (r *Router) Remove(ctx context.Context, sessionID string) (bool, error) {
	if r.closed.Load() {
		return false, ErrRouterClosed
	}

	ctx, cancel := r.boundCtx(ctx)
	defer cancel()

	return r.registry.Remove(ctx, sessionID)
}

// ListByProvider returns all sessions pinned to a provider.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - providerID: Provider to filter by
//
// Returns:
//   - []Session: Point-in-time snapshot of the provider's sessions
//   - error: ErrRouterClosed after Close, or a store error
func (r *Router) ListByProvider(ctx context.Context, providerID string) ([]Session, error) {
	if r.closed.Load() {
		return nil, ErrRouterClosed
	}

	ctx, cancel := r.boundCtx(ctx)
	defer cancel()

	return r.registry.ListByProvider(ctx, providerID)
}

// SessionCount returns the number of live session records.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - int: Total session count
//   - error: ErrRouterClosed after Close, or a store error
func (r *Router) SessionCount(ctx context.Context) (int, error) {
	if r.closed.Load() {
		return 0, ErrRouterClosed
	}

	ctx, cancel := r.boundCtx(ctx)
	defer cancel()

	_, total, err := r.registry.CountsByProvider(ctx)

	return total, err
}

// AnalyzeDistribution computes a point-in-time distribution report.
//
// Read-only and safe to call anytime, e.g. for dashboards. Internal
// failures are absorbed into a non-recommending report rather than
// returned as errors.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - *DistributionReport: Fleet load, skew classification, and ranked
//     migration opportunities
func (r *Router) AnalyzeDistribution(ctx context.Context) *DistributionReport {
	if r.closed.Load() {
		return &DistributionReport{GeneratedAt: r.now(), Reason: ErrRouterClosed.Error()}
	}

	ctx, cancel := r.boundCtx(ctx)
	defer cancel()

	return r.analyzer.Analyze(ctx)
}

// ExecuteRebalancing runs one bounded rebalancing pass.
//
// Intended to be called by an external periodic scheduler; the router holds
// no timer state of its own and the call is idempotent when the fleet is
// balanced. Only sessions idle past the configured threshold are migrated,
// and both providers of every migration are re-verified as active before
// the write.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - dryRun: When true, report intended migrations without mutating state
//   - maxSessions: Migration budget for this run; <= 0 uses the configured
//     default
//
// Returns:
//   - *RebalanceResult: Per-session outcomes with before/after distribution
//     snapshots
func (r *Router) ExecuteRebalancing(ctx context.Context, dryRun bool, maxSessions int) *RebalanceResult {
	if r.closed.Load() {
		return &RebalanceResult{DryRun: dryRun, Reason: ErrRouterClosed.Error(), StartedAt: r.now()}
	}

	return r.rebalancer.Execute(ctx, dryRun, maxSessions)
}

// Close marks the router closed. Subsequent calls on the request surface
// return ErrRouterClosed.
//
// Close does not close the NATS connection; the connection is owned by the
// caller and may be shared with other components.
//
// Returns:
//   - error: Always nil, reserved for future resource teardown
func (r *Router) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	r.logger.Info("router closed")

	return nil
}

// boundCtx applies the configured operation timeout when the caller's
// context carries no deadline.
func (r *Router) boundCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, r.cfg.OperationTimeout)
}
