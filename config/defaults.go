// =============================================================================
// 📦 GTMFlow 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Storage:   DefaultStorageConfig(),
		AutoSave:  DefaultAutoSaveConfig(),
		Execution: DefaultExecutionConfig(),
		LLM:       DefaultLLMConfig(),
		Redis:     DefaultRedisConfig(),
		Database:  DefaultDatabaseConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:    8080,
		MetricsPort: 9091,
		ReadTimeout: 30 * time.Second,
		// SSE 运行流可能持续较长时间
		WriteTimeout:    5 * time.Minute,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    50,
		RateLimitBurst:  100,
		JWT: JWTConfig{
			Issuer: "gtmflow",
		},
	}
}

// DefaultStorageConfig 返回默认存储配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Driver:      "memory",
		Key:         "agent-flow-workflows",
		BaseDir:     "./data",
		RedisPrefix: "gtmflow:",
		Table:       "workflow_kv",
	}
}

// DefaultAutoSaveConfig 返回默认自动保存配置
func DefaultAutoSaveConfig() AutoSaveConfig {
	return AutoSaveConfig{
		Enabled: true,
		Delay:   2 * time.Second,
	}
}

// DefaultExecutionConfig 返回默认执行配置
func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		Mode:           "auto",
		MockDelayScale: 1.0,
		RunTimeout:     10 * time.Minute,
	}
}

// DefaultLLMConfig 返回默认 LLM 配置
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:       "gemini",
		Model:          "gemini-2.0-flash-exp",
		Timeout:        60 * time.Second,
		MaxRetries:     2,
		MaxPromptChars: 50000,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "postgres",
		Host:            "localhost",
		Port:            5432,
		User:            "gtmflow",
		Name:            "gtmflow",
		SSLMode:         "disable",
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		AutoMigrate:     true,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "gtmflow",
		SampleRate:   0.1,
	}
}
