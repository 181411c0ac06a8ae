package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the facetdex API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Backend   BackendConfig   `yaml:"backend"`
	Hydration HydrationConfig `yaml:"hydration"`
	Auth      AuthConfig      `yaml:"auth"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
	Entities  []EntityConfig  `yaml:"entities"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Backend drivers.
const (
	BackendElasticsearch = "elasticsearch"
	BackendBleve         = "bleve"
)

// BackendConfig holds search backend settings.
type BackendConfig struct {
	Driver           string   `yaml:"driver"` // elasticsearch, bleve (default: elasticsearch)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	BleveDir         string   `yaml:"bleve_dir"` // empty keeps bleve indexes in memory
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Hydration drivers.
const (
	HydrationSource = "source"
	HydrationRedis  = "redis"
)

// HydrationConfig holds record hydration settings.
type HydrationConfig struct {
	Driver           string   `yaml:"driver"` // source, redis (default: source)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchConfig holds pagination settings.
type SearchConfig struct {
	DefaultPerPage int `yaml:"default_per_page"` // 0 = return everything
	MaxPerPage     int `yaml:"max_per_page"`
}

// EntityConfig describes one searchable entity.
type EntityConfig struct {
	Name           string           `yaml:"name"`
	Index          string           `yaml:"index"`
	PerPage        int              `yaml:"per_page"`
	Sort           []SortConfig     `yaml:"sort"`
	AdditionalMust []map[string]any `yaml:"additional_must"`
	Fields         []FieldConfig    `yaml:"fields"`
}

// SortConfig is one sort key.
type SortConfig struct {
	Field string `yaml:"field"`
	Order string `yaml:"order"`
}

// FieldConfig describes one facet of an entity.
type FieldConfig struct {
	Name            string `yaml:"name"`
	Field           Paths  `yaml:"field"`
	Type            string `yaml:"type"`
	Facet           bool   `yaml:"facet"`
	IncludeInSearch bool   `yaml:"include_in_search"`
	Operator        string `yaml:"operator"`
}

// Paths is a list of backend field paths. In YAML it is a string or a list of strings.
type Paths []string

// UnmarshalYAML accepts a scalar or a sequence.
func (p *Paths) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*p = Paths{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*p = list
		return nil
	default:
		return fmt.Errorf("line %d: field must be a string or a list of strings", node.Line)
	}
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Backend.Driver == "" {
		c.Backend.Driver = BackendElasticsearch
	}
	if c.Backend.ReadinessTimeout <= 0 {
		c.Backend.ReadinessTimeout = 10
	}
	if c.Hydration.Driver == "" {
		c.Hydration.Driver = HydrationSource
	}
	if c.Hydration.ReadinessTimeout <= 0 {
		c.Hydration.ReadinessTimeout = 10
	}
	if c.Hydration.KeyPrefix == "" {
		c.Hydration.KeyPrefix = "facetdex:"
	}
	if c.Search.MaxPerPage <= 0 {
		c.Search.MaxPerPage = 1000
	}
	if c.Search.DefaultPerPage < 0 {
		c.Search.DefaultPerPage = 0
	}
}

// Validate checks the configuration for correctness.
// Field-level details of entities are not checked; unknown field types are allowed.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Backend.Driver {
	case BackendElasticsearch:
		if len(c.Backend.Addrs) == 0 {
			return fmt.Errorf("backend.addrs is required for %s", BackendElasticsearch)
		}
	case BackendBleve:
	default:
		return fmt.Errorf("backend.driver must be %q or %q, got %q", BackendElasticsearch, BackendBleve, c.Backend.Driver)
	}

	switch c.Hydration.Driver {
	case HydrationSource:
	case HydrationRedis:
		if len(c.Hydration.Addrs) == 0 {
			return fmt.Errorf("hydration.addrs is required for %s", HydrationRedis)
		}
	default:
		return fmt.Errorf("hydration.driver must be %q or %q, got %q", HydrationSource, HydrationRedis, c.Hydration.Driver)
	}

	if c.Search.DefaultPerPage > c.Search.MaxPerPage {
		return fmt.Errorf("search.default_per_page (%d) exceeds search.max_per_page (%d)",
			c.Search.DefaultPerPage, c.Search.MaxPerPage)
	}

	seen := make(map[string]bool, len(c.Entities))
	for i, e := range c.Entities {
		if e.Name == "" {
			return fmt.Errorf("entities[%d].name is required", i)
		}
		if e.Index == "" {
			return fmt.Errorf("entities.%s.index is required", e.Name)
		}
		if seen[e.Name] {
			return fmt.Errorf("duplicate entity %q", e.Name)
		}
		seen[e.Name] = true
		for j, s := range e.Sort {
			switch s.Order {
			case "", "asc", "desc":
			default:
				return fmt.Errorf("entities.%s.sort[%d].order must be \"asc\" or \"desc\", got %q", e.Name, j, s.Order)
			}
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
