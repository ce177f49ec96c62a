package types

import "time"

// Pipeline defaults. DefaultMaxVariants bounds how many protected variants
// are sent to route search; search is the expensive stage.
const (
	DefaultMaxVariants = 2

	// DefaultNoPathScore is the Chemformer score meaning "no feasible
	// reaction path". Routes scoring exactly this skip expert inference.
	DefaultNoPathScore = 0.0

	// DefaultPenaltyScore is the expert-augmented score given to routes
	// with the no-path Chemformer score. It sits above every score the
	// expert model is allowed to return.
	DefaultPenaltyScore = 20.0
)

// HTTPConfig holds shared HTTP settings used by adapters that call services.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// LogConfig selects the diagnostic logger output.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "json" or "console" (default console).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// ProtectionConfig holds the resources of the protection engine. All three
// paths are required.
type ProtectionConfig struct {
	// SmartsLibPath is the SMARTS library of reactive functions.
	SmartsLibPath string `json:"smartslib_path" yaml:"smartslib_path" mapstructure:"smartslib_path"`

	// ReactionRulesPath is the reaction rules CSV table.
	ReactionRulesPath string `json:"reaction_rules_path" yaml:"reaction_rules_path" mapstructure:"reaction_rules_path"`

	// ProtectionGroupsPath is the protection groups CSV table.
	ProtectionGroupsPath string `json:"protection_groups_path" yaml:"protection_groups_path" mapstructure:"protection_groups_path"`

	// Image is the container image running the protection engine.
	Image string `json:"image" yaml:"image" mapstructure:"image"`
}

// SearchConfig holds settings for the route search stage.
type SearchConfig struct {
	// FinderConfigPath is the search engine YAML listing stocks, expansion
	// policies and filter policies.
	FinderConfigPath string `json:"finder_config_path" yaml:"finder_config_path" mapstructure:"finder_config_path"`

	// Image is the container image running the tree search.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// Timeout bounds a single variant's search. Zero means no limit.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Concurrency is the number of searches run at once (default 1).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// ScoringConfig holds settings for the two feasibility models. Each model
// is enabled independently by setting its location.
type ScoringConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// ChemformerURL is the feasibility endpoint of the primary model.
	ChemformerURL string `json:"chemformer_url" yaml:"chemformer_url" mapstructure:"chemformer_url"`

	// APIKey is sent as a bearer token to the Chemformer endpoint.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries is the number of retries on throttled or unavailable
	// responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RequestsPerSecond paces Chemformer requests. Zero disables pacing.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// ExpertAugmentedDir holds reaction_class_ranks.csv and the two ONNX
	// models of the secondary model.
	ExpertAugmentedDir string `json:"expert_augmented_dir" yaml:"expert_augmented_dir" mapstructure:"expert_augmented_dir"`

	// ExpertImage is the container image running expert-augmented inference.
	ExpertImage string `json:"expert_image" yaml:"expert_image" mapstructure:"expert_image"`

	// NoPathScore is the Chemformer sentinel (default 0.0).
	NoPathScore *float64 `json:"no_path_score,omitempty" yaml:"no_path_score,omitempty" mapstructure:"no_path_score"`

	// PenaltyScore replaces expert inference for no-path routes (default 20.0).
	PenaltyScore float64 `json:"penalty_score" yaml:"penalty_score" mapstructure:"penalty_score"`
}

// NoPath returns the configured no-path sentinel or DefaultNoPathScore.
func (c ScoringConfig) NoPath() float64 {
	if c.NoPathScore != nil {
		return *c.NoPathScore
	}
	return DefaultNoPathScore
}

// Penalty returns the configured penalty or DefaultPenaltyScore.
func (c ScoringConfig) Penalty() float64 {
	if c.PenaltyScore > 0 {
		return c.PenaltyScore
	}
	return DefaultPenaltyScore
}

// PipelineConfig holds orchestration settings.
type PipelineConfig struct {
	// MaxVariants is how many protected variants, taken in engine order,
	// go on to route search (default 2).
	MaxVariants int `json:"max_variants" yaml:"max_variants" mapstructure:"max_variants"`

	// Concurrency is the number of variants scored at once (default 1).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// RouteConcurrency is the number of routes of one variant scored at
	// once (default 1).
	RouteConcurrency int `json:"route_concurrency" yaml:"route_concurrency" mapstructure:"route_concurrency"`

	// ScoreTimeout bounds the scoring of one variant. Zero means no limit.
	ScoreTimeout time.Duration `json:"score_timeout" yaml:"score_timeout" mapstructure:"score_timeout"`
}

// Limit returns MaxVariants or DefaultMaxVariants when unset.
func (c PipelineConfig) Limit() int {
	if c.MaxVariants > 0 {
		return c.MaxVariants
	}
	return DefaultMaxVariants
}

// StoreConfig holds settings for the analysis history database.
type StoreConfig struct {
	// DataDir contains index/nnaasynth.db.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// RunTimeout bounds one analysis request. Zero means no limit.
	RunTimeout time.Duration `json:"run_timeout" yaml:"run_timeout" mapstructure:"run_timeout"`
}

// Config groups every stage configuration.
type Config struct {
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
	Protection ProtectionConfig `json:"protection" yaml:"protection" mapstructure:"protection"`
	Search     SearchConfig     `json:"search" yaml:"search" mapstructure:"search"`
	Scoring    ScoringConfig    `json:"scoring" yaml:"scoring" mapstructure:"scoring"`
	Pipeline   PipelineConfig   `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
}
