// Package config reads the optional flowkit configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/aretw0/flowkit/pkg/adapters/process"
	"gopkg.in/yaml.v3"
)

// DefaultFiles are looked up, in order, when no file is given explicitly.
var DefaultFiles = []string{"flowkit.yaml", "flowkit.yml", "flowkit.json"}

// Config holds CLI settings. Flags override it.
type Config struct {
	// Flow is a definition file or a directory of node documents.
	Flow     string `yaml:"flow" json:"flow"`
	LogLevel string `yaml:"log_level" json:"log_level"`

	HTTP     HTTPConfig     `yaml:"http" json:"http"`
	MCP      MCPConfig      `yaml:"mcp" json:"mcp"`
	Redis    RedisConfig    `yaml:"redis" json:"redis"`
	Postgres PostgresConfig `yaml:"postgres" json:"postgres"`
	Tracing  TracingConfig  `yaml:"tracing" json:"tracing"`

	// Hooks run external commands for every transition and collected record.
	Hooks process.Hooks `yaml:"hooks" json:"hooks"`
	// HooksFile is read when Hooks is empty.
	HooksFile string `yaml:"hooks_file" json:"hooks_file"`
}

type HTTPConfig struct {
	Port int `yaml:"port" json:"port"`
}

type MCPConfig struct {
	// Transport is "stdio" or "sse".
	Transport string `yaml:"transport" json:"transport"`
	Port      int    `yaml:"port" json:"port"`
	// EntryNode is exposed first. Defaults to the first node of the flow.
	EntryNode string `yaml:"entry_node" json:"entry_node"`
}

type RedisConfig struct {
	// Addr enables the Redis locker when set (redis://host:port/db).
	Addr      string `yaml:"addr" json:"addr"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
	// FlowID loads the flow from Redis instead of Flow.
	FlowID string `yaml:"flow_id" json:"flow_id"`
}

type PostgresConfig struct {
	// DSN together with FlowID loads the flow from the flows table.
	DSN    string `yaml:"dsn" json:"dsn"`
	FlowID string `yaml:"flow_id" json:"flow_id"`
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Output is "stderr" (default), "stdout" or a file path.
	Output string `yaml:"output" json:"output"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		LogLevel: "warn",
		HTTP:     HTTPConfig{Port: 8080},
		MCP:      MCPConfig{Transport: "stdio", Port: 8081},
		Redis:    RedisConfig{KeyPrefix: "flowkit:"},
		Tracing:  TracingConfig{Output: "stderr"},
	}
}

// Load reads path over the defaults. An empty path tries DefaultFiles and
// returns the defaults when none exists; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		for _, candidate := range DefaultFiles {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("config file %s not found", path)
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	// JSON is valid YAML.
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	switch c.MCP.Transport {
	case "stdio", "sse":
	default:
		return fmt.Errorf("mcp.transport must be stdio or sse, got %q", c.MCP.Transport)
	}
	if c.Hooks.Transition != nil && c.Hooks.Transition.Command == "" {
		return errors.New("hooks.transition.command is required")
	}
	if c.Hooks.Collect != nil && c.Hooks.Collect.Command == "" {
		return errors.New("hooks.collect.command is required")
	}
	if c.Postgres.DSN != "" && c.Postgres.FlowID == "" {
		return errors.New("postgres.flow_id is required with postgres.dsn")
	}
	return nil
}
