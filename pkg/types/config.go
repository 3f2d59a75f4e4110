package types

import "time"

// HTTPConfig holds shared HTTP settings used by the source adapters.
type HTTPConfig struct {
	// Timeout bounds a single HTTP exchange at the client level.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SourcesConfig selects and parameterizes the source adapters.
type SourcesConfig struct {
	// Enabled lists the sources to query. Empty means all sources.
	Enabled []Source `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	ArxivBaseURL  string `json:"arxiv_base_url" yaml:"arxiv_base_url" mapstructure:"arxiv_base_url"`
	PubMedBaseURL string `json:"pubmed_base_url" yaml:"pubmed_base_url" mapstructure:"pubmed_base_url"`

	// PubMedAPIKey raises the NCBI rate limit from 3 to 10 requests per second.
	PubMedAPIKey string `json:"pubmed_api_key,omitempty" yaml:"pubmed_api_key,omitempty" mapstructure:"pubmed_api_key"`

	// ArxivRate and PubMedRate are sustained requests per second per adapter.
	ArxivRate  float64 `json:"arxiv_rate" yaml:"arxiv_rate" mapstructure:"arxiv_rate"`
	PubMedRate float64 `json:"pubmed_rate" yaml:"pubmed_rate" mapstructure:"pubmed_rate"`
}

// RetryConfig controls the retry/timeout wrapper around each source call.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts per source (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`

	// BaseDelay is the backoff before the first retry; it doubles per attempt.
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay" mapstructure:"base_delay"`

	// MaxDelay caps a single backoff.
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay" mapstructure:"max_delay"`

	// AttemptTimeout is the hard deadline of one attempt.
	AttemptTimeout time.Duration `json:"attempt_timeout" yaml:"attempt_timeout" mapstructure:"attempt_timeout"`
}

// NLPConfig holds summarization and scoring settings.
type NLPConfig struct {
	// SummarySentences is the target number of sentences per summary (default 3).
	SummarySentences int `json:"summary_sentences" yaml:"summary_sentences" mapstructure:"summary_sentences"`

	TitleWeight    float64 `json:"title_weight" yaml:"title_weight" mapstructure:"title_weight"`
	AbstractWeight float64 `json:"abstract_weight" yaml:"abstract_weight" mapstructure:"abstract_weight"`

	// Keywords is the number of keywords extracted per abstract (default 10).
	Keywords int `json:"keywords" yaml:"keywords" mapstructure:"keywords"`

	// MinWordLength is the shortest word counted as a keyword (default 3).
	MinWordLength int `json:"min_word_length" yaml:"min_word_length" mapstructure:"min_word_length"`

	// Workers bounds the number of papers summarized and scored in parallel.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls where search records are written.
type OutputConfig struct {
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// HistoryConfig controls the SQLite search history.
type HistoryConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	DBPath  string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`
}

// MetricsConfig controls pushing run metrics to a Prometheus Pushgateway.
type MetricsConfig struct {
	// PushgatewayURL disables pushing when empty.
	PushgatewayURL string `json:"pushgateway_url,omitempty" yaml:"pushgateway_url,omitempty" mapstructure:"pushgateway_url"`
	Job            string `json:"job" yaml:"job" mapstructure:"job"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is json or console.
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Output is stdout or stderr.
	Output string `json:"output" yaml:"output" mapstructure:"output"`

	// File, when set, receives a copy of every log line.
	File string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`
}

// FinderConfig groups every setting of the paper finder. It is built once
// at startup and passed by value; nothing reads configuration from globals.
type FinderConfig struct {
	HTTP    HTTPConfig    `json:"http" yaml:"http" mapstructure:"http"`
	Sources SourcesConfig `json:"sources" yaml:"sources" mapstructure:"sources"`
	Retry   RetryConfig   `json:"retry" yaml:"retry" mapstructure:"retry"`
	NLP     NLPConfig     `json:"nlp" yaml:"nlp" mapstructure:"nlp"`
	Output  OutputConfig  `json:"output" yaml:"output" mapstructure:"output"`
	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
	Logging LoggingConfig `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// Defaults used when a FinderConfig field is left at its zero value.
const (
	DefaultUserAgent        = "sci-paper-finder/0.1"
	DefaultHTTPTimeout      = 30 * time.Second
	DefaultArxivBaseURL     = "https://export.arxiv.org/api/query"
	DefaultPubMedBaseURL    = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	DefaultArxivRate        = 1.0
	DefaultPubMedRate       = 3.0
	DefaultMaxAttempts      = 3
	DefaultBaseDelay        = 1 * time.Second
	DefaultMaxDelay         = 10 * time.Second
	DefaultAttemptTimeout   = 30 * time.Second
	DefaultSummarySentences = 3
	DefaultTitleWeight      = 2.0
	DefaultAbstractWeight   = 1.0
	DefaultKeywords         = 10
	DefaultMinWordLength    = 3
	DefaultWorkers          = 4
	DefaultOutputDir        = "data/processed"
	DefaultHistoryDB        = "data/history.db"
	DefaultMetricsJob       = "paper_finder"
)

// DefaultFinderConfig returns a configuration with every default applied.
func DefaultFinderConfig() FinderConfig {
	return FinderConfig{
		History: HistoryConfig{Enabled: true},
		Logging: LoggingConfig{Level: "info", Format: "console", Output: "stderr"},
	}.WithDefaults()
}

// WithDefaults returns a copy of c with zero-valued fields replaced by defaults.
func (c FinderConfig) WithDefaults() FinderConfig {
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = DefaultHTTPTimeout
	}
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = DefaultUserAgent
	}
	if len(c.Sources.Enabled) == 0 {
		c.Sources.Enabled = AllSources()
	} else {
		c.Sources.Enabled = append([]Source(nil), c.Sources.Enabled...)
	}
	if c.Sources.ArxivBaseURL == "" {
		c.Sources.ArxivBaseURL = DefaultArxivBaseURL
	}
	if c.Sources.PubMedBaseURL == "" {
		c.Sources.PubMedBaseURL = DefaultPubMedBaseURL
	}
	if c.Sources.ArxivRate <= 0 {
		c.Sources.ArxivRate = DefaultArxivRate
	}
	if c.Sources.PubMedRate <= 0 {
		c.Sources.PubMedRate = DefaultPubMedRate
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if c.Retry.BaseDelay <= 0 {
		c.Retry.BaseDelay = DefaultBaseDelay
	}
	if c.Retry.MaxDelay <= 0 {
		c.Retry.MaxDelay = DefaultMaxDelay
	}
	if c.Retry.AttemptTimeout <= 0 {
		c.Retry.AttemptTimeout = DefaultAttemptTimeout
	}
	if c.NLP.SummarySentences <= 0 {
		c.NLP.SummarySentences = DefaultSummarySentences
	}
	if c.NLP.TitleWeight <= 0 {
		c.NLP.TitleWeight = DefaultTitleWeight
	}
	if c.NLP.AbstractWeight <= 0 {
		c.NLP.AbstractWeight = DefaultAbstractWeight
	}
	if c.NLP.Keywords <= 0 {
		c.NLP.Keywords = DefaultKeywords
	}
	if c.NLP.MinWordLength <= 0 {
		c.NLP.MinWordLength = DefaultMinWordLength
	}
	if c.NLP.Workers <= 0 {
		c.NLP.Workers = DefaultWorkers
	}
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}
	if c.History.DBPath == "" {
		c.History.DBPath = DefaultHistoryDB
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = DefaultMetricsJob
	}
	return c
}
