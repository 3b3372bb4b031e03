// Package config loads the forestml settings from a YAML or JSON file, the
// environment and Cloud Foundry service bindings, in that order.
package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Engine backends.
const (
	EngineRedis  = "redis"
	EngineMemory = "memory"
)

// VCAPService is the service binding whose credentials locate Redis.
const VCAPService = "redislabs"

// Config holds every setting of the forestml binaries.
type Config struct {
	Port   int    `yaml:"port" json:"port"`
	Engine string `yaml:"engine" json:"engine"`
	// DataDir keeps metadata as files when Engine is memory; empty keeps
	// it in memory too.
	DataDir string      `yaml:"data_dir" json:"data_dir"`
	Redis   RedisConfig `yaml:"redis" json:"redis"`
	Log     LogConfig   `yaml:"log" json:"log"`
}

// RedisConfig locates the Redis server and names the keys forestml writes.
// URL, when set, takes precedence over Addr, Password and DB.
type RedisConfig struct {
	URL              string        `yaml:"url" json:"url"`
	Addr             string        `yaml:"addr" json:"addr"`
	Password         string        `yaml:"password" json:"password"`
	DB               int           `yaml:"db" json:"db"`
	MetadataPrefix   string        `yaml:"metadata_prefix" json:"metadata_prefix"`
	ExecutionsPrefix string        `yaml:"executions_prefix" json:"executions_prefix"`
	MaxExecutions    int64         `yaml:"max_executions" json:"max_executions"`
	LockPrefix       string        `yaml:"lock_prefix" json:"lock_prefix"`
	LockTTL          time.Duration `yaml:"lock_ttl" json:"lock_ttl"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the settings used for local runs.
func Default() *Config {
	return &Config{
		Port:   9090,
		Engine: EngineRedis,
		Redis: RedisConfig{
			Addr:             "localhost:12000",
			MetadataPrefix:   "metadata:",
			ExecutionsPrefix: "modelexecution:",
			LockPrefix:       "forestml:",
			LockTTL:          30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path (when non-empty) over the defaults and then applies the
// process environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		return nil
	}
	// Default to YAML
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ApplyEnv overrides settings from the environment: PORT, REDIS_URL,
// FORESTML_ENGINE, FORESTML_LOG_LEVEL and VCAP_SERVICES.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v, ok := lookup("REDIS_URL"); ok && v != "" {
		c.Redis.URL = v
	}
	if v, ok := lookup("FORESTML_ENGINE"); ok && v != "" {
		c.Engine = v
	}
	if v, ok := lookup("FORESTML_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("VCAP_SERVICES"); ok && v != "" {
		creds, err := ParseVCAP(v)
		if err != nil {
			return err
		}
		c.Redis.URL = ""
		c.Redis.Addr = net.JoinHostPort(creds.Hostname, strconv.Itoa(creds.Port))
		c.Redis.Password = creds.Password
	}
	return nil
}

// Credentials are the Redis connection details of a service binding.
type Credentials struct {
	Hostname string `mapstructure:"hostname"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
}

// ParseVCAP extracts the credentials of the first redislabs binding.
// Ports may be given as numbers or strings.
func ParseVCAP(raw string) (*Credentials, error) {
	var services map[string][]struct {
		Credentials map[string]any `json:"credentials"`
	}
	if err := json.Unmarshal([]byte(raw), &services); err != nil {
		return nil, fmt.Errorf("invalid VCAP_SERVICES: %w", err)
	}

	bindings := services[VCAPService]
	if len(bindings) == 0 {
		return nil, fmt.Errorf("VCAP_SERVICES has no %q binding", VCAPService)
	}

	var creds Credentials
	if err := mapstructure.WeakDecode(bindings[0].Credentials, &creds); err != nil {
		return nil, fmt.Errorf("invalid %s credentials: %w", VCAPService, err)
	}
	if creds.Hostname == "" || creds.Port == 0 {
		return nil, fmt.Errorf("%s credentials need hostname and port", VCAPService)
	}
	return &creds, nil
}

// Validate reports settings no binary can start with.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Engine {
	case EngineRedis, EngineMemory:
	default:
		return fmt.Errorf("unknown engine %q (want %s or %s)", c.Engine, EngineRedis, EngineMemory)
	}
	if c.Redis.MaxExecutions < 0 {
		return fmt.Errorf("invalid max_executions %d", c.Redis.MaxExecutions)
	}
	return nil
}

// ListenAddr is the HTTP listen address for Port.
func (c *Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.Port)
}
