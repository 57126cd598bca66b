package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/gtmflow/api/handlers"
	"github.com/BaSui01/gtmflow/catalog"
	"github.com/BaSui01/gtmflow/internal/server"
	"github.com/BaSui01/gtmflow/llm/generate"
)

// =============================================================================
// 🖥️ Server
// =============================================================================

// Server 组装路由、中间件与 HTTP / Metrics 两个监听端口
type Server struct {
	app    *App
	logger *zap.Logger

	// metricsGatherer 为 nil 时使用全局注册表
	metricsGatherer prometheus.Gatherer

	healthHandler   *handlers.HealthHandler
	workflowHandler *handlers.WorkflowHandler
	runHandler      *handlers.RunHandler
	agentHandler    *handlers.AgentHandler
	generateHandler *handlers.GenerateHandler
}

// NewServer 创建服务器并初始化全部 handler
func NewServer(app *App) *Server {
	s := &Server{app: app, logger: app.logger}
	s.initHandlers()
	return s
}

func (s *Server) initHandlers() {
	app := s.app
	cat := catalog.MustDefault()

	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(handlers.NewPingCheck("storage", app.store.Ping))
	if app.cache != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingCheck("redis", app.cache.Ping))
	}
	if app.db != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingCheck("database", app.db.Ping))
	}

	s.workflowHandler = handlers.NewWorkflowHandler(app.workspace, cat, s.logger)
	s.runHandler = handlers.NewRunHandler(app.workspace, app.registry, s.logger,
		handlers.WithRunTimeout(app.cfg.Execution.RunTimeout),
		handlers.WithEngineOptions(app.engineOptions()...),
		handlers.WithOriginPatterns(originPatterns(app.cfg.Server.CORSAllowedOrigins)...),
	)
	s.agentHandler = handlers.NewAgentHandler(cat, app.registry, s.logger)
	s.generateHandler = handlers.NewGenerateHandler(app.generator, app.cfg.LLM.MaxPromptChars, s.logger)

	s.logger.Info("handlers initialized",
		zap.String("execution_mode", string(app.mode)),
		zap.Bool("generation_available", app.generator.Available()),
		zap.Bool("autosave", app.workspace.AutoSaveEnabled()),
	)
}

// originPatterns 把 CORS 来源转换为 WebSocket 的 host 模式（去掉 scheme）
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			o = host
		}
		out = append(out, o)
	}
	return out
}

// Routes 注册全部路由，不含中间件
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// ========================================
	// 健康检查
	// ========================================
	mux.HandleFunc("GET /health", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("GET /ready", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// ========================================
	// API 路由
	// ========================================
	s.workflowHandler.Register(mux)
	s.runHandler.Register(mux)

	mux.HandleFunc("GET /api/v1/agents", s.agentHandler.HandleListAgents)
	mux.HandleFunc("GET /api/v1/agents/global-config/schema", s.agentHandler.HandleGlobalConfigSchema)
	mux.HandleFunc("GET /api/v1/agents/{id}", s.agentHandler.HandleGetAgent)

	mux.HandleFunc("POST "+generate.GeneratePath, s.generateHandler.HandleGenerate)

	// metrics 端口为 0 时与 API 共用监听
	if s.app.cfg.Server.MetricsPort == 0 {
		mux.Handle("GET /metrics", s.metricsHandler())
	}
	return mux
}

// Handler 返回带完整中间件链的 http.Handler
func (s *Server) Handler(ctx context.Context) http.Handler {
	cfg := s.app.cfg.Server

	auth := APIKeyAuth(cfg.APIKeys, s.logger)
	if cfg.JWT.Secret != "" {
		auth = JWTAuth(cfg.JWT, cfg.APIKeys, s.logger)
	}

	return Chain(s.Routes(),
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.app.collector),
		CORS(cfg.CORSAllowedOrigins),
		RateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, s.logger),
		auth,
	)
}

func (s *Server) metricsHandler() http.Handler {
	if s.metricsGatherer != nil {
		return promhttp.HandlerFor(s.metricsGatherer, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// =============================================================================
// 🚀 运行
// =============================================================================

// Run 启动 HTTP 与 Metrics 服务并阻塞到 ctx 取消，然后依次关闭监听、刷新草稿、关闭存储。
func (s *Server) Run(ctx context.Context) error {
	cfg := s.app.cfg.Server
	g, gctx := errgroup.WithContext(ctx)

	httpManager := server.NewManager(s.Handler(gctx), server.FromServerConfig(cfg), s.logger)
	g.Go(func() error { return httpManager.Run(gctx) })

	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", s.metricsHandler())
		metricsManager := server.NewManager(mux, server.MetricsConfig(cfg.MetricsPort), s.logger)
		g.Go(func() error { return metricsManager.Run(gctx) })
	}

	s.logger.Info("GTMFlow started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("metrics_port", cfg.MetricsPort),
		zap.String("storage", s.app.cfg.Storage.Driver),
		zap.Bool("tls", server.FromServerConfig(cfg).TLSEnabled()),
	)

	err := g.Wait()

	s.logger.Info("starting graceful shutdown")
	closeCtx := context.WithoutCancel(ctx)
	if cerr := s.app.Close(closeCtx); cerr != nil {
		s.logger.Error("shutdown error", zap.Error(cerr))
		if err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	s.logger.Info("graceful shutdown completed")
	return nil
}
