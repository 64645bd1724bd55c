package dandolo

import "time"

// Option configures a Router with optional dependencies.
type Option func(*routerOptions)

// routerOptions holds optional Router configuration.
type routerOptions struct {
	policy  SelectionPolicy
	hooks   *Hooks
	metrics MetricsCollector
	logger  Logger
	now     func() time.Time
}

// WithPolicy sets a custom selection policy for unassigned sessions.
//
// Parameters:
//   - p: SelectionPolicy implementation
//
// Returns:
//   - Option: Functional option for NewRouter
//
// Example:
//
//	p := policy.NewScored(policy.WithRandomSource(policy.NewSeededSource(42)))
//	router, _ := dandolo.NewRouter(ctx, conn, &cfg, dir, dandolo.WithPolicy(p))
func WithPolicy(p SelectionPolicy) Option {
	return func(o *routerOptions) {
		o.policy = p
	}
}

// WithHooks sets lifecycle event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for NewRouter
//
// Example:
//
//	hooks := &dandolo.Hooks{
//	    OnSessionMigrated: func(ctx context.Context, sessionID, from, to string) error {
//	        return gatewayCache.Invalidate(sessionID)
//	    },
//	}
//	router, _ := dandolo.NewRouter(ctx, conn, &cfg, dir, dandolo.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *routerOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewRouter
//
// Example:
//
//	collector := metrics.NewPrometheus(prometheus.DefaultRegisterer, "dandolo")
//	router, _ := dandolo.NewRouter(ctx, conn, &cfg, dir, dandolo.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *routerOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with slog via logging.NewSlog)
//
// Returns:
//   - Option: Functional option for NewRouter
//
// Example:
//
//	logger := logging.NewSlogDefault()
//	router, _ := dandolo.NewRouter(ctx, conn, &cfg, dir, dandolo.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *routerOptions) {
		o.logger = logger
	}
}

// WithClock sets the time source used for session timestamps and idle
// checks. Intended for tests that need deterministic idle-time behavior.
//
// Parameters:
//   - now: Replacement for time.Now
//
// Returns:
//   - Option: Functional option for NewRouter
func WithClock(now func() time.Time) Option {
	return func(o *routerOptions) {
		o.now = now
	}
}
