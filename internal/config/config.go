// Package config loads and validates the scan/storage/indexer configuration
// (config.json schema, viper-backed, with environment variable overrides).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// EnvOverride records an environment variable override that was applied.
type EnvOverride struct {
	EnvVar    string
	Path      string
	Value     interface{}
	FromValue string
}

// LoadResult contains the loaded config plus metadata about how it was loaded.
type LoadResult struct {
	Config       *Config
	ConfigPath   string
	EnvOverrides []EnvOverride
	UsedDefaults bool
}

// Config is the complete configuration for a codegraph scan.
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Walker   WalkerConfig   `json:"walker" mapstructure:"walker"`
	Store    StoreConfig    `json:"store" mapstructure:"store"`
	Indexers IndexersConfig `json:"indexers" mapstructure:"indexers"`
	Worker   WorkerConfig   `json:"worker" mapstructure:"worker"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// WalkerConfig controls file enumeration (C2).
type WalkerConfig struct {
	Extensions   []string `json:"extensions" mapstructure:"extensions"`
	IgnoreExtras []string `json:"ignoreExtras" mapstructure:"ignoreExtras"`
}

// StoreConfig controls the SQLite-backed storage engine (C6).
type StoreConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// IndexersConfig holds per-language SCIP indexer settings (C5). The scan reads
// TimeoutMs as each indexer's wall-clock limit; it does not read Commands, and
// always invokes the built-in command table in scip.DefaultIndexers.
type IndexersConfig struct {
	TimeoutMs int                      `json:"timeoutMs" mapstructure:"timeoutMs"`
	Commands  map[string]IndexerCmdCfg `json:"commands" mapstructure:"commands"`
}

// IndexerCmdCfg is the command + args used to invoke one language's SCIP indexer.
type IndexerCmdCfg struct {
	Command string   `json:"command" mapstructure:"command"`
	Args    []string `json:"args" mapstructure:"args"`
}

// WorkerConfig controls the per-file worker pool (§5).
type WorkerConfig struct {
	Count int `json:"count" mapstructure:"count"`
}

// LoggingConfig controls the ambient structured logger.
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the built-in configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		RepoRoot: ".",
		Walker: WalkerConfig{
			Extensions:   []string{".ts", ".tsx", ".js", ".jsx", ".py", ".go", ".rs", ".java", ".c", ".h", ".cc", ".cpp", ".hpp"},
			IgnoreExtras: []string{},
		},
		Store: StoreConfig{
			Path: ".codegraph/graph.db",
		},
		Indexers: IndexersConfig{
			TimeoutMs: 120000,
			Commands: map[string]IndexerCmdCfg{
				"go":         {Command: "scip-go", Args: []string{}},
				"python":     {Command: "scip-python", Args: []string{"index", "."}},
				"typescript": {Command: "scip-typescript", Args: []string{"index"}},
				"java":       {Command: "scip-java", Args: []string{"index"}},
				"rust":       {Command: "rust-analyzer", Args: []string{"scip", "."}},
			},
		},
		Worker: WorkerConfig{
			Count: 8,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration for repoRoot, returning only the Config.
func LoadConfig(repoRoot string) (*Config, error) {
	result, err := LoadConfigWithDetails(repoRoot)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadConfigWithDetails loads configuration from .codegraph/config.json (or the
// path named by CODEGRAPH_CONFIG_PATH), falling back to DefaultConfig, and reports
// how it was loaded plus any environment variable overrides applied.
func LoadConfigWithDetails(repoRoot string) (*LoadResult, error) {
	result := &LoadResult{}

	if configPath := os.Getenv("CODEGRAPH_CONFIG_PATH"); configPath != "" {
		cfg, err := loadConfigFromPath(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from CODEGRAPH_CONFIG_PATH=%s: %w", configPath, err)
		}
		result.Config = cfg
		result.ConfigPath = configPath
	} else {
		v := viper.New()
		v.SetDefault("version", 1)
		v.SetDefault("repoRoot", ".")
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(filepath.Join(repoRoot, ".codegraph"))

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				result.Config = DefaultConfig()
				result.UsedDefaults = true
			} else {
				return nil, err
			}
		} else {
			cfg := DefaultConfig()
			if err := v.Unmarshal(cfg); err != nil {
				return nil, err
			}
			result.Config = cfg
			result.ConfigPath = v.ConfigFileUsed()
		}
	}

	result.EnvOverrides = applyEnvOverrides(result.Config)
	return result, nil
}

func loadConfigFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid JSON in config file: %w", err)
	}
	return cfg, nil
}

type envVarDef struct {
	path    string
	varType string
}

var envVarMappings = map[string]envVarDef{
	"CODEGRAPH_LOG_LEVEL":          {path: "logging.level", varType: "string"},
	"CODEGRAPH_LOG_FORMAT":         {path: "logging.format", varType: "string"},
	"CODEGRAPH_STORE_PATH":         {path: "store.path", varType: "string"},
	"CODEGRAPH_WORKER_COUNT":       {path: "worker.count", varType: "int"},
	"CODEGRAPH_INDEXER_TIMEOUT_MS": {path: "indexers.timeoutMs", varType: "int"},
}

func applyEnvOverrides(cfg *Config) []EnvOverride {
	var overrides []EnvOverride

	for envVar, def := range envVarMappings {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}

		var parsedValue interface{}
		var err error

		switch def.varType {
		case "string":
			parsedValue = value
		case "int":
			parsedValue, err = strconv.Atoi(value)
			if err != nil {
				continue
			}
		}

		if applyOverride(cfg, def.path, parsedValue) {
			overrides = append(overrides, EnvOverride{
				EnvVar:    envVar,
				Path:      def.path,
				Value:     parsedValue,
				FromValue: value,
			})
		}
	}

	return overrides
}

func applyOverride(cfg *Config, path string, value interface{}) bool {
	parts := strings.Split(path, ".")

	switch parts[0] {
	case "logging":
		if len(parts) < 2 {
			return false
		}
		switch parts[1] {
		case "level":
			if v, ok := value.(string); ok {
				cfg.Logging.Level = v
				return true
			}
		case "format":
			if v, ok := value.(string); ok {
				cfg.Logging.Format = v
				return true
			}
		}
	case "store":
		if len(parts) < 2 || parts[1] != "path" {
			return false
		}
		if v, ok := value.(string); ok {
			cfg.Store.Path = v
			return true
		}
	case "worker":
		if len(parts) < 2 || parts[1] != "count" {
			return false
		}
		if v, ok := value.(int); ok {
			cfg.Worker.Count = v
			return true
		}
	case "indexers":
		if len(parts) < 2 || parts[1] != "timeoutMs" {
			return false
		}
		if v, ok := value.(int); ok {
			cfg.Indexers.TimeoutMs = v
			return true
		}
	}

	return false
}

// GetSupportedEnvVars returns all environment variables LoadConfig recognizes.
func GetSupportedEnvVars() []string {
	vars := make([]string, 0, len(envVarMappings))
	for v := range envVarMappings {
		vars = append(vars, v)
	}
	return vars
}

// Save writes the configuration to <repoRoot>/.codegraph/config.json.
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ".codegraph")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}

// SupportedConfigVersions lists config schema versions this code can handle.
var SupportedConfigVersions = []int{1}

// Validate checks whether the configuration is internally consistent.
func (c *Config) Validate() error {
	supported := false
	for _, v := range SupportedConfigVersions {
		if c.Version == v {
			supported = true
			break
		}
	}
	if !supported {
		return &ConfigError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported config version %d, supported versions: %v", c.Version, SupportedConfigVersions),
		}
	}
	if c.Worker.Count <= 0 {
		return &ConfigError{Field: "worker.count", Message: "must be positive"}
	}
	if c.Store.Path == "" {
		return &ConfigError{Field: "store.path", Message: "must not be empty"}
	}
	return nil
}

// ConfigError represents a configuration validation failure.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
