package storage

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/internal/cache"
	"github.com/BaSui01/gtmflow/internal/database"
)

// Config 后端选择与参数
type Config struct {
	Driver  Driver
	BaseDir string
	Table   string
	Quota   int

	// Redis 与 Database 仅在对应驱动下使用
	Redis    *cache.Manager
	Database *database.PoolManager
}

// NewSubstrate 按驱动创建后端
func NewSubstrate(cfg Config, logger *zap.Logger) (Substrate, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	driver := Driver(strings.ToLower(string(cfg.Driver)))
	if driver == "" {
		driver = DriverMemory
	}
	logger.Info("initializing workflow storage", zap.String("driver", string(driver)))

	switch driver {
	case DriverMemory:
		return NewMemorySubstrate(cfg.Quota), nil
	case DriverFile:
		return NewFileSubstrate(cfg.BaseDir)
	case DriverRedis:
		if cfg.Redis == nil {
			return nil, fmt.Errorf("storage driver %q requires a redis connection", driver)
		}
		return NewRedisSubstrate(cfg.Redis), nil
	case DriverDatabase:
		if cfg.Database == nil {
			return nil, fmt.Errorf("storage driver %q requires a database connection", driver)
		}
		return NewSQLSubstrate(cfg.Database, cfg.Table), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
