package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/hexbuzz/game/generator"
	"github.com/wricardo/hexbuzz/game/service"
)

// Storage backends for sessions
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config holds all server configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	Solver    SolverConfig    `yaml:"solver"`
	Generator GeneratorConfig `yaml:"generator"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	LevelsDir string `yaml:"levels_dir"`
	// DefaultLevel overrides the level picked for sessions created without one.
	DefaultLevel string `yaml:"default_level"`
}

// StorageConfig selects where sessions live
type StorageConfig struct {
	Backend         string        `yaml:"backend"` // memory, file or redis
	SessionsDir     string        `yaml:"sessions_dir"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	MaxIdle         time.Duration `yaml:"max_idle"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// SolverConfig bounds every search started by the server
type SolverConfig struct {
	NodeBudget int64         `yaml:"node_budget"`
	Timeout    time.Duration `yaml:"timeout"`
}

// GeneratorConfig holds generation defaults and batch limits
type GeneratorConfig struct {
	generator.Options `yaml:",inline"`
	Workers           int `yaml:"workers"`
	MaxBatch          int `yaml:"max_batch"`
}

// Default returns the configuration used without a config file
func Default() *Config {
	svc := service.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Port:      8080,
			LevelsDir: "levels",
		},
		Storage: StorageConfig{
			Backend:         BackendFile,
			SessionsDir:     "sessions",
			CleanupInterval: 10 * time.Minute,
			MaxIdle:         24 * time.Hour,
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
			TTL:     7 * 24 * time.Hour,
		},
		Solver: SolverConfig{
			NodeBudget: svc.NodeBudget,
			Timeout:    svc.Timeout,
		},
		Generator: GeneratorConfig{
			Options:  svc.Generator,
			Workers:  svc.Workers,
			MaxBatch: svc.MaxBatch,
		},
	}
}

// Load reads configuration from a YAML file. Missing values keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == BackendRedis && c.Redis.Address == "" {
		return fmt.Errorf("redis backend needs redis.address")
	}
	if c.Generator.EdgeSize < generator.MinEdgeSize || c.Generator.EdgeSize > generator.MaxEdgeSize {
		return fmt.Errorf("generator size %d out of range %d..%d", c.Generator.EdgeSize, generator.MinEdgeSize, generator.MaxEdgeSize)
	}
	if c.Generator.WallDensity < 0 || c.Generator.WallDensity > 1 {
		return fmt.Errorf("generator wall_density %.2f not in [0,1]", c.Generator.WallDensity)
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Service converts the settings into the service configuration
func (c *Config) Service() service.Config {
	return service.Config{
		NodeBudget: c.Solver.NodeBudget,
		Timeout:    c.Solver.Timeout,
		Generator:  c.Generator.Options,
		Workers:    c.Generator.Workers,
		MaxBatch:   c.Generator.MaxBatch,
	}
}
