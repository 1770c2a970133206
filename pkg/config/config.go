package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for ontostock-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Language resources (dictionaries, reference questions, rule order)
	Resources ResourcesConfig `yaml:"resources"`

	// Knowledge base access
	Knowledge KnowledgeConfig `yaml:"knowledge"`

	// Question history persistence (SQLite)
	History HistoryConfig `yaml:"history"`

	// Classifier tuning
	Classifier ClassifierConfig `yaml:"classifier"`
}

// ResourcesConfig locates the curated language resources.
type ResourcesConfig struct {
	// Dir holds the dictionary JSON files and reference questions.
	Dir string `yaml:"dir" env:"RESOURCES_DIR" env-default:"resources"`
	// RulesFile is the rule priority order, relative paths resolve
	// against the working directory.
	RulesFile string `yaml:"rules_file" env:"RULES_FILE" env-default:"resources/rules.yaml"`
	// TemplatesDir holds the SPARQL template files.
	TemplatesDir string `yaml:"templates_dir" env:"TEMPLATES_DIR" env-default:"resources/templates"`
	// PlaceholdersFile maps template placeholders to ontology terms.
	PlaceholdersFile string `yaml:"placeholders_file" env:"PLACEHOLDERS_FILE" env-default:"resources/placeholders.yaml"`
}

// KnowledgeConfig holds ontology and SPARQL endpoint settings.
type KnowledgeConfig struct {
	// OntologyPath is the Turtle file loaded at startup for validation
	// and inventory stats.
	OntologyPath string `yaml:"ontology_path" env:"ONTOLOGY_PATH" env-default:"resources/b3.ttl"`
	// Endpoint is the SPARQL endpoint queries are executed against.
	// Empty disables execution (classification-only mode).
	Endpoint string `yaml:"endpoint" env:"SPARQL_ENDPOINT" env-default:""`
	// QueryTimeoutSeconds bounds a single SPARQL request.
	QueryTimeoutSeconds int `yaml:"query_timeout_seconds" env:"SPARQL_QUERY_TIMEOUT_SECONDS" env-default:"30"`
}

// QueryTimeout returns the endpoint timeout as a duration.
func (c *KnowledgeConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

// HistoryConfig holds question-log settings.
type HistoryConfig struct {
	Path string `yaml:"path" env:"HISTORY_PATH" env-default:"ontostock_history.db"`
}

// ClassifierConfig tunes the template classifier.
type ClassifierConfig struct {
	// SimilarityThreshold is the minimum cosine similarity for the
	// reference-question fallback to accept a match.
	SimilarityThreshold float64 `yaml:"similarity_threshold" env:"SIMILARITY_THRESHOLD" env-default:"0.3"`
}

// Load reads configuration from the given YAML file with environment
// variable overrides. The version parameter is injected at build time.
func Load(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Classifier.SimilarityThreshold < 0 || c.Classifier.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in [0, 1], got %v", c.Classifier.SimilarityThreshold)
	}
	if c.Knowledge.QueryTimeoutSeconds <= 0 {
		return fmt.Errorf("query_timeout_seconds must be positive, got %d", c.Knowledge.QueryTimeoutSeconds)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.BindAddr + ":" + c.Port
}
