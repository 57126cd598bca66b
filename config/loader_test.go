// 配置加载器测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "auto", cfg.Execution.Mode)
	assert.NoError(t, cfg.Validate())
}

func TestLoader_LoadFromYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
server:
  http_port: 8888
  read_timeout: 60s
  cors_allowed_origins: ["https://app.example.com"]
  jwt:
    secret: "s3cret"

storage:
  driver: file
  base_dir: /var/lib/gtmflow

autosave:
  delay: 500ms

execution:
  mode: mock
  mock_delay_scale: 0

llm:
  model: gemini-1.5-pro
  max_prompt_chars: 1000

database:
  driver: sqlite
  name: /tmp/gtmflow.db
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "s3cret", cfg.Server.JWT.Secret)
	assert.Equal(t, "gtmflow", cfg.Server.JWT.Issuer, "unset nested fields keep defaults")

	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "/var/lib/gtmflow", cfg.Storage.BaseDir)
	assert.Equal(t, "agent-flow-workflows", cfg.Storage.Key)

	assert.True(t, cfg.AutoSave.Enabled)
	assert.Equal(t, 500*time.Millisecond, cfg.AutoSave.Delay)

	assert.Equal(t, "mock", cfg.Execution.Mode)
	assert.Zero(t, cfg.Execution.MockDelayScale)

	assert.Equal(t, "gemini-1.5-pro", cfg.LLM.Model)
	assert.Equal(t, 1000, cfg.LLM.MaxPromptChars)

	assert.Equal(t, "/tmp/gtmflow.db", cfg.Database.DSN())
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath(filepath.Join(t.TempDir(), "nope.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoader_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [unclosed"), 0o644))

	_, err := NewLoader().WithConfigPath(configPath).Load()
	assert.Error(t, err)
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("GTMFLOW_SERVER_HTTP_PORT", "9000")
	t.Setenv("GTMFLOW_SERVER_API_KEYS", "key-a, key-b,")
	t.Setenv("GTMFLOW_SERVER_RATE_LIMIT_RPS", "2.5")
	t.Setenv("GTMFLOW_STORAGE_DRIVER", "redis")
	t.Setenv("GTMFLOW_AUTOSAVE_ENABLED", "false")
	t.Setenv("GTMFLOW_EXECUTION_RUN_TIMEOUT", "30s")
	t.Setenv("GTMFLOW_LLM_API_KEY", "from-prefix")
	t.Setenv(GeminiAPIKeyEnv, "from-gemini")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.HTTPPort)
	assert.Equal(t, []string{"key-a", "key-b"}, cfg.Server.APIKeys)
	assert.Equal(t, 2.5, cfg.Server.RateLimitRPS)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.False(t, cfg.AutoSave.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Execution.RunTimeout)
	assert.Equal(t, "from-prefix", cfg.LLM.APIKey)
}

func TestLoader_GeminiKeyFallback(t *testing.T) {
	t.Setenv("GTMFLOW_LLM_API_KEY", "")
	t.Setenv(GeminiAPIKeyEnv, "from-gemini")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "from-gemini", cfg.LLM.APIKey)
}

func TestLoader_CustomPrefixAndBadValue(t *testing.T) {
	t.Setenv("MYAPP_SERVER_HTTP_PORT", "7000")
	cfg, err := NewLoader().WithEnvPrefix("MYAPP").Load()
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.HTTPPort)

	t.Setenv("MYAPP_AUTOSAVE_DELAY", "soon")
	_, err = NewLoader().WithEnvPrefix("MYAPP").Load()
	assert.ErrorContains(t, err, "MYAPP_AUTOSAVE_DELAY")
}

func TestLoader_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(
		"GTMFLOW_EXECUTION_MODE=mock\nGTMFLOW_SERVER_HTTP_PORT=7777\n"), 0o644))

	// 进程环境优先于 .env
	t.Setenv("GTMFLOW_SERVER_HTTP_PORT", "8181")
	// godotenv 写入的变量在测试结束后清理
	t.Setenv("GTMFLOW_EXECUTION_MODE", "")
	require.NoError(t, os.Unsetenv("GTMFLOW_EXECUTION_MODE"))

	cfg, err := NewLoader().WithEnvFile(envPath, filepath.Join(dir, "missing.env")).Load()
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.Execution.Mode)
	assert.Equal(t, 8181, cfg.Server.HTTPPort)
}

func TestLoader_Validators(t *testing.T) {
	called := false
	_, err := NewLoader().WithValidator(func(c *Config) error {
		called = true
		return c.Validate()
	}).Load()
	require.NoError(t, err)
	assert.True(t, called)

	t.Setenv("GTMFLOW_EXECUTION_MODE", "turbo")
	_, err = NewLoader().WithValidator((*Config).Validate).Load()
	assert.ErrorContains(t, err, "execution.mode must be one of auto, gemini, mock")
}

func TestMustLoad(t *testing.T) {
	assert.NotPanics(t, func() { MustLoad("") })

	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [unclosed"), 0o644))
	assert.Panics(t, func() { MustLoad(configPath) })
}

// --- Validate 测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.HTTPPort = 0 }, "invalid HTTP port"},
		{"tls half configured", func(c *Config) { c.Server.TLSCertFile = "cert.pem" }, "tls_key_file must be set together"},
		{"bad storage", func(c *Config) { c.Storage.Driver = "s3" }, "storage.driver must be one of"},
		{"file without dir", func(c *Config) { c.Storage.Driver = "file"; c.Storage.BaseDir = "" }, "storage.base_dir is required"},
		{"database driver", func(c *Config) { c.Storage.Driver = "database"; c.Database.Driver = "oracle" }, "database.driver must be one of"},
		{"autosave delay", func(c *Config) { c.AutoSave.Delay = 0 }, "autosave.delay must be positive"},
		{"disabled autosave ignores delay", func(c *Config) { c.AutoSave.Enabled = false; c.AutoSave.Delay = 0 }, ""},
		{"negative scale", func(c *Config) { c.Execution.MockDelayScale = -1 }, "mock_delay_scale"},
		{"prompt limit", func(c *Config) { c.LLM.MaxPromptChars = 0 }, "max_prompt_chars"},
		{"sample rate", func(c *Config) { c.Telemetry.SampleRate = 2 }, "sample_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	pg := DefaultDatabaseConfig()
	pg.Password = "pw"
	assert.Equal(t, "host=localhost port=5432 user=gtmflow password=pw dbname=gtmflow sslmode=disable", pg.DSN())

	my := DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, User: "u", Password: "p", Name: "n"}
	assert.Equal(t, "u:p@tcp(db:3306)/n?parseTime=true", my.DSN())

	assert.Empty(t, (&DatabaseConfig{Driver: "oracle"}).DSN())
}
