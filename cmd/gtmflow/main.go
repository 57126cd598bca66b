// =============================================================================
// GTMFlow 主入口
// =============================================================================
// 工作流服务入口，包含 HTTP API、健康检查、Prometheus 指标与离线工具命令
//
// 使用方法:
//
//	gtmflow serve                         # 启动服务
//	gtmflow serve --config config.yaml    # 指定配置文件
//	gtmflow serve --env-file .env.local   # 额外加载 .env 文件
//	gtmflow run --file workflow.json      # 在命令行运行工作流
//	gtmflow export --id gtm-workflow-1    # 导出工作流 JSON
//	gtmflow import --file workflow.json   # 导入工作流
//	gtmflow migrate up                    # 运行数据库迁移
//	gtmflow version                       # 显示版本信息
//	gtmflow health                        # 健康检查
// =============================================================================

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/gtmflow/config"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "run":
		err = runWorkflow(ctx, os.Args[2:], os.Stdout, os.Stderr)
	case "export":
		err = runExport(ctx, os.Args[2:], os.Stdout)
	case "import":
		err = runImport(ctx, os.Args[2:], os.Stdout)
	case "migrate":
		err = runMigrate(ctx, os.Args[2:])
	case "version":
		printVersion()
	case "health":
		err = runHealthCheck(ctx, os.Args[2:], os.Stdout)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// ⚙️ 配置
// =============================================================================

// configFlags 各子命令共用的配置参数
type configFlags struct {
	configPath string
	envFile    string
}

func (c *configFlags) bind(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Path to config file (YAML)")
	fs.StringVar(&c.envFile, "env-file", ".env", "Path to .env file (ignored when missing)")
}

// load 默认值 → YAML → .env → 环境变量，然后校验
func (c *configFlags) load() (*config.Config, error) {
	loader := config.NewLoader().WithEnvFile(c.envFile)
	if c.configPath != "" {
		loader = loader.WithConfigPath(c.configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var cf configFlags
	cf.bind(fs)
	_ = fs.Parse(args)

	cfg, err := cf.load()
	if err != nil {
		return err
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting GTMFlow",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	app, err := newApp(ctx, cfg, logger, appOptions{seed: true})
	if err != nil {
		return err
	}
	return NewServer(app).Run(ctx)
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("GTMFlow %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`GTMFlow - Go-to-market workflow server

Usage:
  gtmflow <command> [options]

Commands:
  serve     Start the GTMFlow server
  run       Run a workflow from a file or from storage
  export    Export a stored workflow as JSON
  import    Import a workflow JSON file into storage
  migrate   Database migration commands
  version   Show version information
  health    Check server health
  help      Show this help message

Common options:
  --config <path>     Path to configuration file (YAML)
  --env-file <path>   Path to .env file (default: .env)

Options for 'run':
  --file <path>       Workflow JSON file
  --id <id>           Stored workflow ID (instead of --file)
  --mock              Force mock executors

Examples:
  gtmflow serve --config /etc/gtmflow/config.yaml
  gtmflow run --file workflow.json --mock
  gtmflow export --id gtm-workflow-1 > workflow.json
  gtmflow import --file workflow.json
  gtmflow migrate up
  gtmflow health --addr http://localhost:8080`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       encoding == "console",
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}
	return logger
}
