package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/config"
	"github.com/BaSui01/gtmflow/internal/cache"
	"github.com/BaSui01/gtmflow/internal/database"
	"github.com/BaSui01/gtmflow/internal/metrics"
	"github.com/BaSui01/gtmflow/internal/migration"
	"github.com/BaSui01/gtmflow/internal/telemetry"
	"github.com/BaSui01/gtmflow/llm"
	"github.com/BaSui01/gtmflow/llm/generate"
	"github.com/BaSui01/gtmflow/llm/providers"
	"github.com/BaSui01/gtmflow/llm/providers/gemini"
	"github.com/BaSui01/gtmflow/storage"
	"github.com/BaSui01/gtmflow/workflow"
	"github.com/BaSui01/gtmflow/workflow/executors"
)

// =============================================================================
// 🧱 App：各子命令共享的依赖装配
// =============================================================================

// App 持有一次进程生命周期内的全部依赖
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	collector *metrics.Collector
	telemetry *telemetry.Providers

	cache *cache.Manager
	db    *database.PoolManager

	store     *storage.Store
	workspace *storage.Workspace

	generator generate.Generator
	registry  *workflow.Registry
	mode      executors.Mode
}

// appOptions 控制装配细节
type appOptions struct {
	// 覆盖 execution.mode
	mode string
	// 禁用自动保存（一次性命令直接写穿）
	noAutoSave bool
	// 指标注册表，nil 使用全局
	registerer prometheus.Registerer
	// 存储为空时写入示例工作流
	seed bool
}

// newApp 按配置装配存储、生成器与执行器。失败时已打开的资源会被关闭。
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts appOptions) (app *App, err error) {
	app = &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = app.Close(context.WithoutCancel(ctx))
			app = nil
		}
	}()

	if opts.registerer != nil {
		app.collector = metrics.NewCollectorWithRegistry("gtmflow", opts.registerer, logger)
	} else {
		app.collector = metrics.NewCollector("gtmflow", logger)
	}

	app.telemetry, err = telemetry.Init(cfg.Telemetry, logger, telemetry.WithServiceVersion(Version))
	if err != nil {
		// 遥测不可用不影响服务
		logger.Warn("failed to initialize telemetry", zap.Error(err))
		app.telemetry = &telemetry.Providers{}
		err = nil
	}

	if err = app.openBackends(ctx); err != nil {
		return nil, err
	}
	if err = app.openStorage(ctx, opts); err != nil {
		return nil, err
	}

	mode := cfg.Execution.Mode
	if opts.mode != "" {
		mode = opts.mode
	}
	if err = app.buildExecutors(mode); err != nil {
		return nil, err
	}
	return app, nil
}

// openBackends 只在存储驱动需要时连接 Redis / 数据库
func (a *App) openBackends(ctx context.Context) error {
	switch storage.Driver(a.cfg.Storage.Driver) {
	case storage.DriverRedis:
		cc := cache.DefaultConfig()
		cc.Addr = a.cfg.Redis.Addr
		cc.Password = a.cfg.Redis.Password
		cc.DB = a.cfg.Redis.DB
		cc.KeyPrefix = a.cfg.Storage.RedisPrefix
		if a.cfg.Redis.PoolSize > 0 {
			cc.PoolSize = a.cfg.Redis.PoolSize
		}
		if a.cfg.Redis.MinIdleConns > 0 {
			cc.MinIdleConns = a.cfg.Redis.MinIdleConns
		}
		m, err := cache.NewManager(cc, a.logger)
		if err != nil {
			return err
		}
		m.SetRecorder(a.collector)
		a.cache = m

	case storage.DriverDatabase:
		dbCfg := a.cfg.Database
		if dbCfg.AutoMigrate {
			if err := runAutoMigrate(ctx, a.cfg, a.logger); err != nil {
				return err
			}
		}
		pool := database.DefaultPoolConfig()
		if dbCfg.MaxOpenConns > 0 {
			pool.MaxOpenConns = dbCfg.MaxOpenConns
		}
		if dbCfg.MaxIdleConns > 0 {
			pool.MaxIdleConns = dbCfg.MaxIdleConns
		}
		if dbCfg.ConnMaxLifetime > 0 {
			pool.ConnMaxLifetime = dbCfg.ConnMaxLifetime
		}
		pm, err := database.Open(dbCfg.Driver, dbCfg.DSN(), pool, a.logger)
		if err != nil {
			return err
		}
		pm.SetRecorder(a.collector)
		a.db = pm
	}
	return nil
}

// runAutoMigrate 启动前把数据库迁移到最新版本
func runAutoMigrate(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	m, err := migration.NewMigratorFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()
	if err := m.Up(ctx); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (a *App) openStorage(ctx context.Context, opts appOptions) error {
	sub, err := storage.NewSubstrate(storage.Config{
		Driver:   storage.Driver(a.cfg.Storage.Driver),
		BaseDir:  a.cfg.Storage.BaseDir,
		Table:    a.cfg.Storage.Table,
		Redis:    a.cache,
		Database: a.db,
	}, a.logger)
	if err != nil {
		return err
	}
	// 未跑迁移的 sqlite 等场景由 GORM 建表
	if sql, ok := sub.(*storage.SQLSubstrate); ok && !a.cfg.Database.AutoMigrate {
		if err := sql.AutoMigrate(); err != nil {
			return fmt.Errorf("prepare workflow table: %w", err)
		}
	}

	a.store = storage.NewStore(sub, a.logger,
		storage.WithKey(a.cfg.Storage.Key),
		storage.WithStoreRecorder(a.collector),
	)

	var wsOpts []storage.WorkspaceOption
	if a.cfg.AutoSave.Enabled && !opts.noAutoSave {
		wsOpts = append(wsOpts, storage.WithAutoSave(
			storage.WithDelay(a.cfg.AutoSave.Delay),
			storage.WithAutoSaveRecorder(a.collector),
		))
	}
	a.workspace = storage.NewWorkspace(a.store, a.logger, wsOpts...)

	if opts.seed {
		return a.seedSample(ctx)
	}
	return nil
}

// seedSample 存储为空时写入示例工作流
func (a *App) seedSample(ctx context.Context) error {
	all, err := a.store.LoadAll(ctx)
	if err != nil {
		return err
	}
	if len(all) > 0 {
		return nil
	}
	sample := workflow.SampleWorkflow()
	if err := a.store.Save(ctx, sample); err != nil {
		return fmt.Errorf("seed sample workflow: %w", err)
	}
	a.logger.Info("seeded sample workflow", zap.String("workflow_id", sample.ID))
	return nil
}

// buildExecutors 创建 Gemini Provider（带重试）与生成器，再按模式构建执行器注册表
func (a *App) buildExecutors(modeName string) error {
	mode, err := executors.ParseMode(modeName)
	if err != nil {
		return err
	}

	llmCfg := a.cfg.LLM
	var provider llm.Provider = gemini.NewGeminiProvider(providers.GeminiConfig{
		BaseProviderConfig: providers.BaseProviderConfig{
			APIKey:  llmCfg.APIKey,
			BaseURL: llmCfg.BaseURL,
			Model:   llmCfg.Model,
			Timeout: llmCfg.Timeout,
		},
	}, a.logger)
	if llmCfg.MaxRetries > 0 {
		rc := providers.DefaultRetryConfig()
		rc.MaxRetries = llmCfg.MaxRetries
		provider = providers.NewRetryableProvider(provider, rc, a.logger)
	}

	genOpts := []generate.Option{
		generate.WithMaxPromptChars(llmCfg.MaxPromptChars),
		generate.WithRecorder(a.collector),
	}
	if llmCfg.Model != "" {
		genOpts = append(genOpts, generate.WithModel(llmCfg.Model))
	}
	a.generator = generate.NewProviderGenerator(provider, a.logger, genOpts...)

	a.registry, a.mode = executors.NewRegistry(executors.Options{
		Mode:      mode,
		Generator: a.generator,
		Mock:      executors.MockConfig{DelayScale: a.cfg.Execution.MockDelayScale},
		Logger:    a.logger,
	})
	return nil
}

// engineOptions 运行引擎共用的指标与 tracer
func (a *App) engineOptions() []workflow.EngineOption {
	return []workflow.EngineOption{
		workflow.WithRecorder(a.collector),
		workflow.WithTracer(a.telemetry.Tracer("gtmflow/workflow")),
	}
}

// Close 刷新未落盘的草稿并关闭所有连接
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.workspace != nil {
		if err := a.workspace.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush workspace: %w", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	} else {
		// Store 未创建时连接由这里关闭
		if a.cache != nil {
			errs = append(errs, a.cache.Close())
		}
		if a.db != nil {
			errs = append(errs, a.db.Close())
		}
	}
	if a.telemetry != nil {
		if err := a.telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
