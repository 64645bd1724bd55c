package dandolo

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Alhambren/Dandolo-Prod-sub001/internal/analyzer"
	"github.com/Alhambren/Dandolo-Prod-sub001/internal/rebalance"
	"github.com/Alhambren/Dandolo-Prod-sub001/policy"
)

// ScoringConfig controls provider selection for unassigned sessions.
type ScoringConfig struct {
	// TopCandidates is how many of the highest-scoring providers enter the
	// weighted random draw. Drawing from a small pool instead of always
	// taking the best provider avoids thundering-herd pile-ups when many
	// sessions start at once.
	TopCandidates int `yaml:"topCandidates"`
}

// AnalyzerConfig controls distribution analysis thresholds.
//
// The factors are multiples of the fleet's average session count. With the
// defaults, a provider holding more than 1.4x the average is overloaded and
// one holding less than 0.5x is a migration target (if its score clears
// MinTargetScore).
type AnalyzerConfig struct {
	// OverloadFactor marks a provider overloaded above average * factor.
	OverloadFactor float64 `yaml:"overloadFactor"`

	// UnderutilizedFactor marks a provider underutilized below average * factor.
	UnderutilizedFactor float64 `yaml:"underutilizedFactor"`

	// MinTargetScore is the composite score floor for migration targets.
	// A cheap but low-quality provider is not a valid target.
	MinTargetScore float64 `yaml:"minTargetScore"`

	// VarianceFactor sets the imbalance trigger: rebalancing is recommended
	// only when count variance exceeds average * factor.
	VarianceFactor float64 `yaml:"varianceFactor"`

	// MaxPerPair caps sessions proposed per source/target pair.
	MaxPerPair int `yaml:"maxPerPair"`
}

// RebalanceConfig controls migration execution.
type RebalanceConfig struct {
	// MinIdleTime is how long a session must sit unused before it may be
	// migrated. Active conversations are never moved mid-exchange.
	MinIdleTime time.Duration `yaml:"minIdleTime"`

	// MaxSessions is the default migration budget per run. Callers may
	// lower it per run via ExecuteRebalancing.
	MaxSessions int `yaml:"maxSessions"`
}

// KVBucketConfig configures the NATS JetStream KV bucket backing the
// session registry.
type KVBucketConfig struct {
	// SessionBucket is the bucket name for session records.
	SessionBucket string `yaml:"sessionBucket"`

	// Replicas is the bucket replication factor. 1 for single-node
	// deployments, 3 for clustered NATS.
	Replicas int `yaml:"replicas"`

	// CreateMaxRetries bounds bucket create/open attempts at startup.
	CreateMaxRetries int `yaml:"createMaxRetries"`
}

// Config is the configuration for the Router.
//
// All duration fields accept standard Go duration strings like "30s", "5m".
type Config struct {
	// MaxAssignAttempts bounds the assignment retry loop when concurrent
	// callers race on the same session record.
	MaxAssignAttempts int `yaml:"maxAssignAttempts"`

	// OperationTimeout is the timeout applied to individual KV operations
	// when the caller's context carries no deadline.
	OperationTimeout time.Duration `yaml:"operationTimeout"`

	// Scoring controls provider selection.
	Scoring ScoringConfig `yaml:"scoring"`

	// Analyzer controls distribution analysis.
	Analyzer AnalyzerConfig `yaml:"analyzer"`

	// Rebalance controls migration execution.
	Rebalance RebalanceConfig `yaml:"rebalance"`

	// KVBucket controls the session bucket.
	KVBucket KVBucketConfig `yaml:"kvBucket"`
}

// DefaultConfig returns a Config with production defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		MaxAssignAttempts: 3,
		OperationTimeout:  10 * time.Second,
		Scoring: ScoringConfig{
			TopCandidates: policy.DefaultTopCandidates,
		},
		Analyzer: AnalyzerConfig{
			OverloadFactor:      analyzer.DefaultOverloadFactor,
			UnderutilizedFactor: analyzer.DefaultUnderutilizedFactor,
			MinTargetScore:      analyzer.DefaultMinTargetScore,
			VarianceFactor:      analyzer.DefaultVarianceFactor,
			MaxPerPair:          analyzer.DefaultMaxPerPair,
		},
		Rebalance: RebalanceConfig{
			MinIdleTime: rebalance.DefaultMinIdleTime,
			MaxSessions: rebalance.DefaultMaxSessions,
		},
		KVBucket: KVBucketConfig{
			SessionBucket:    "dandolo-sessions",
			Replicas:         1,
			CreateMaxRetries: 3,
		},
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.MaxAssignAttempts == 0 {
		cfg.MaxAssignAttempts = defaults.MaxAssignAttempts
	}
	if cfg.OperationTimeout == 0 {
		cfg.OperationTimeout = defaults.OperationTimeout
	}
	if cfg.Scoring.TopCandidates == 0 {
		cfg.Scoring.TopCandidates = defaults.Scoring.TopCandidates
	}
	if cfg.Analyzer.OverloadFactor == 0 {
		cfg.Analyzer.OverloadFactor = defaults.Analyzer.OverloadFactor
	}
	if cfg.Analyzer.UnderutilizedFactor == 0 {
		cfg.Analyzer.UnderutilizedFactor = defaults.Analyzer.UnderutilizedFactor
	}
	if cfg.Analyzer.MinTargetScore == 0 {
		cfg.Analyzer.MinTargetScore = defaults.Analyzer.MinTargetScore
	}
	if cfg.Analyzer.VarianceFactor == 0 {
		cfg.Analyzer.VarianceFactor = defaults.Analyzer.VarianceFactor
	}
	if cfg.Analyzer.MaxPerPair == 0 {
		cfg.Analyzer.MaxPerPair = defaults.Analyzer.MaxPerPair
	}
	if cfg.Rebalance.MinIdleTime == 0 {
		cfg.Rebalance.MinIdleTime = defaults.Rebalance.MinIdleTime
	}
	if cfg.Rebalance.MaxSessions == 0 {
		cfg.Rebalance.MaxSessions = defaults.Rebalance.MaxSessions
	}
	if cfg.KVBucket.SessionBucket == "" {
		cfg.KVBucket.SessionBucket = defaults.KVBucket.SessionBucket
	}
	if cfg.KVBucket.Replicas == 0 {
		cfg.KVBucket.Replicas = defaults.KVBucket.Replicas
	}
	if cfg.KVBucket.CreateMaxRetries == 0 {
		cfg.KVBucket.CreateMaxRetries = defaults.KVBucket.CreateMaxRetries
	}
}

// Validate checks configuration constraints and returns an error for invalid
// values.
//
// Hard Validation Rules:
//   - OverloadFactor > 1 (overloaded must mean above average)
//   - UnderutilizedFactor in (0, 1) (underutilized must mean below average)
//   - OverloadFactor > UnderutilizedFactor (bands must not overlap)
//   - MinTargetScore in [0, 100] (composite score range)
//   - MinIdleTime > 0 (active sessions are never migrated)
//   - MaxSessions > 0 (each run must be bounded)
//
// Returns:
//   - error: Validation error with clear explanation, nil if valid
func (cfg *Config) Validate() error {
	if cfg.Analyzer.OverloadFactor <= 1 {
		return fmt.Errorf(
			"OverloadFactor (%v) must be > 1; a provider at or below the fleet average is not overloaded",
			cfg.Analyzer.OverloadFactor,
		)
	}

	if cfg.Analyzer.UnderutilizedFactor <= 0 || cfg.Analyzer.UnderutilizedFactor >= 1 {
		return fmt.Errorf(
			"UnderutilizedFactor (%v) must be in (0, 1)",
			cfg.Analyzer.UnderutilizedFactor,
		)
	}

	if cfg.Analyzer.MinTargetScore < 0 || cfg.Analyzer.MinTargetScore > 100 {
		return fmt.Errorf(
			"MinTargetScore (%v) must be within the composite score range [0, 100]",
			cfg.Analyzer.MinTargetScore,
		)
	}

	if cfg.Rebalance.MinIdleTime <= 0 {
		return fmt.Errorf("MinIdleTime must be > 0, got %v", cfg.Rebalance.MinIdleTime)
	}

	if cfg.Rebalance.MaxSessions <= 0 {
		return fmt.Errorf("MaxSessions must be > 0, got %v", cfg.Rebalance.MaxSessions)
	}

	if cfg.KVBucket.Replicas < 1 || cfg.KVBucket.Replicas > 5 {
		return fmt.Errorf("KVBucket.Replicas (%d) must be between 1 and 5", cfg.KVBucket.Replicas)
	}

	return nil
}

// ValidateWithWarnings checks configuration and logs warnings for
// non-recommended values.
//
// This is called after Validate() in NewRouter() to provide operator
// guidance.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if cfg.Rebalance.MinIdleTime < time.Minute {
		logger.Warn(
			"MinIdleTime is very short, sessions may migrate between conversation turns",
			"minIdleTime", cfg.Rebalance.MinIdleTime,
			"recommended", "5m or higher",
		)
	}

	if cfg.Rebalance.MaxSessions > 100 {
		logger.Warn(
			"MaxSessions is very large, rebalancing runs may disrupt many sessions at once",
			"maxSessions", cfg.Rebalance.MaxSessions,
			"recommended", "10-50",
		)
	}
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Idle thresholds are shortened so migration scenarios do not need
// multi-minute sleeps. Use DefaultConfig() for production deployments.
//
// Returns:
//   - Config: Configuration with fast timings for tests
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.OperationTimeout = 2 * time.Second
	cfg.Rebalance.MinIdleTime = 50 * time.Millisecond

	return cfg
}

// LoadConfig reads a YAML configuration file.
//
// Missing fields keep their zero value; SetDefaults is applied by NewRouter,
// so a partial file overriding only a few knobs is valid.
//
// Parameters:
//   - path: Path to the YAML file
//
// Returns:
//   - Config: Parsed configuration
//   - error: File or parse error
func LoadConfig(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("unable to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unable to parse config file %s: %w", path, err)
	}

	return cfg, nil
}
