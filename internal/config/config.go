package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	LLM     LLMConfig     `yaml:"llm"`
	Cluster ClusterConfig `yaml:"cluster"`
	Session SessionConfig `yaml:"session"`
	Audit   AuditConfig   `yaml:"audit"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type AuthConfig struct {
	JWKSURL     string        `yaml:"jwks_url"`
	Issuer      string        `yaml:"issuer"`
	Audience    string        `yaml:"audience"`
	MaxTokenAge time.Duration `yaml:"max_token_age"`
}

type LLMConfig struct {
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type ClusterConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

type AuditConfig struct {
	DataDir string `yaml:"data_dir"`
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)}`)

func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

func expandEnvFields(cfg *Config) {
	cfg.Auth.JWKSURL = expandEnv(cfg.Auth.JWKSURL)
	cfg.LLM.BaseURL = expandEnv(cfg.LLM.BaseURL)
	cfg.Cluster.BaseURL = expandEnv(cfg.Cluster.BaseURL)
	cfg.Session.RedisAddr = expandEnv(cfg.Session.RedisAddr)
	cfg.Session.RedisPassword = expandEnv(cfg.Session.RedisPassword)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Auth.MaxTokenAge == 0 {
		cfg.Auth.MaxTokenAge = time.Hour
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "llama3:8b"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}
	if cfg.Cluster.Timeout == 0 {
		cfg.Cluster.Timeout = 30 * time.Second
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if cfg.Audit.DataDir == "" {
		cfg.Audit.DataDir = "data"
	}
}

// Validate checks fields without which the service cannot serve traffic.
func (c *Config) Validate() error {
	if c.Auth.JWKSURL == "" {
		return fmt.Errorf("auth.jwks_url is required")
	}
	if c.Auth.Issuer == "" {
		return fmt.Errorf("auth.issuer is required")
	}
	if c.Auth.Audience == "" {
		return fmt.Errorf("auth.audience is required")
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	if c.Cluster.BaseURL == "" {
		return fmt.Errorf("cluster.base_url is required")
	}
	return nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	expandEnvFields(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}
