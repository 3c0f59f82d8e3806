package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
server:
  addr: ":9090"
  read_timeout: 10s

auth:
  jwks_url: "${HKS_JWKS_URL}"
  issuer: hexabase-control-plane
  audience: hexabase-aiops-service
  max_token_age: 30m

llm:
  base_url: "http://ollama.ai-ops-llm.svc.cluster.local:11434"
  model: "llama3:8b"
  timeout: 90s

cluster:
  base_url: "http://api-service.hexabase.svc.cluster.local"

session:
  redis_addr: "redis:6379"
  redis_password: "${REDIS_PASSWORD}"
  ttl: 12h

audit:
  data_dir: /var/lib/aiops
`

func TestParseConfig(t *testing.T) {
	cfg, err := Parse([]byte(testYAML))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "hexabase-control-plane", cfg.Auth.Issuer)
	assert.Equal(t, "hexabase-aiops-service", cfg.Auth.Audience)
	assert.Equal(t, 30*time.Minute, cfg.Auth.MaxTokenAge)
	assert.Equal(t, "llama3:8b", cfg.LLM.Model)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "redis:6379", cfg.Session.RedisAddr)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "/var/lib/aiops", cfg.Audit.DataDir)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, time.Hour, cfg.Auth.MaxTokenAge)
	assert.Equal(t, "llama3:8b", cfg.LLM.Model)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Cluster.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
}

func TestEnvSubstitution(t *testing.T) {
	t.Setenv("HKS_JWKS_URL", "http://control-plane/.well-known/jwks.json")
	t.Setenv("REDIS_PASSWORD", "hunter2")

	cfg, err := Parse([]byte(testYAML))
	require.NoError(t, err)

	assert.Equal(t, "http://control-plane/.well-known/jwks.json", cfg.Auth.JWKSURL)
	assert.Equal(t, "hunter2", cfg.Session.RedisPassword)
}

func TestEnvSubstitutionPreservesUnsetVars(t *testing.T) {
	//nolint:errcheck // test cleanup of env var
	os.Unsetenv("HKS_JWKS_URL")
	cfg, err := Parse([]byte(testYAML))
	require.NoError(t, err)

	assert.Equal(t, "${HKS_JWKS_URL}", cfg.Auth.JWKSURL)
}

func TestEnvSubstitutionLiteralURLs(t *testing.T) {
	cfg, err := Parse([]byte(testYAML))
	require.NoError(t, err)

	assert.Equal(t, "http://ollama.ai-ops-llm.svc.cluster.local:11434", cfg.LLM.BaseURL)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "hello")

	tests := []struct {
		input string
		want  string
	}{
		{"${TEST_VAR}", "hello"},
		{"prefix-${TEST_VAR}-suffix", "prefix-hello-suffix"},
		{"${NONEXISTENT}", "${NONEXISTENT}"},
		{"no vars here", "no vars here"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, expandEnv(tt.input), "input %q", tt.input)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("{{invalid yaml"))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testYAML), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("HKS_JWKS_URL", "http://control-plane/.well-known/jwks.json")
	cfg, err := Parse([]byte(testYAML))
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestValidateMissingRequired(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing jwks", "auth:\n  issuer: a\n  audience: b\nllm:\n  base_url: http://x\ncluster:\n  base_url: http://y\n"},
		{"missing issuer", "auth:\n  jwks_url: http://j\n  audience: b\nllm:\n  base_url: http://x\ncluster:\n  base_url: http://y\n"},
		{"missing llm", "auth:\n  jwks_url: http://j\n  issuer: a\n  audience: b\ncluster:\n  base_url: http://y\n"},
		{"missing cluster", "auth:\n  jwks_url: http://j\n  issuer: a\n  audience: b\nllm:\n  base_url: http://x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			assert.Error(t, cfg.Validate())
		})
	}
}
