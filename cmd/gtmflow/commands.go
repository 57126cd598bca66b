package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/api/handlers"
	"github.com/BaSui01/gtmflow/config"
	"github.com/BaSui01/gtmflow/types"
	"github.com/BaSui01/gtmflow/workflow"
	"github.com/BaSui01/gtmflow/workflow/executors"
)

// =============================================================================
// 🧰 离线命令：run / export / import
// =============================================================================

// cliLogger 离线命令的日志写到 stderr，stdout 只输出结果
func cliLogger(cfg *config.Config) *zap.Logger {
	lc := cfg.Log
	lc.OutputPaths = []string{"stderr"}
	return initLogger(lc)
}

// offlineOptions 离线命令直接写穿存储；指标不对外暴露，使用独立注册表
func offlineOptions() appOptions {
	return appOptions{noAutoSave: true, registerer: prometheus.NewRegistry()}
}

// runWorkflow 在命令行运行工作流，进度逐行写到 errOut，结果以 JSON 写到 out。
// 非成功结果返回错误，进程以非零状态退出。
func runWorkflow(ctx context.Context, args []string, out, errOut io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var cf configFlags
	cf.bind(fs)
	file := fs.String("file", "", "Workflow JSON file")
	id := fs.String("id", "", "Stored workflow ID")
	mock := fs.Bool("mock", false, "Force mock executors")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*file == "") == (*id == "") {
		return fmt.Errorf("exactly one of --file or --id is required")
	}

	cfg, err := cf.load()
	if err != nil {
		return err
	}
	logger := cliLogger(cfg)
	defer func() { _ = logger.Sync() }()

	opts := offlineOptions()
	if *mock {
		opts.mode = string(executors.ModeMock)
	}
	app, err := newApp(ctx, cfg, logger, opts)
	if err != nil {
		return err
	}
	defer app.Close(context.WithoutCancel(ctx))

	var wf *types.Workflow
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			return fmt.Errorf("read workflow file: %w", err)
		}
		wf = &types.Workflow{}
		if err := json.Unmarshal(data, wf); err != nil {
			return fmt.Errorf("parse workflow file: %w", err)
		}
	} else {
		wf, err = app.workspace.Load(ctx, *id)
		if err != nil {
			return err
		}
	}
	if err := workflow.Validate(wf); err != nil {
		return err
	}
	wf = workflow.ResetStatuses(wf)

	if cfg.Execution.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Execution.RunTimeout)
		defer cancel()
	}

	engine := workflow.NewEngine(app.registry, logger, app.engineOptions()...)
	result, err := engine.Run(ctx, wf, func(p workflow.ExecutionProgress) {
		line := fmt.Sprintf("[%s] %s", p.Status, p.NodeID)
		if p.Error != "" {
			line += ": " + p.Error
		}
		fmt.Fprintln(errOut, line)

		// 从存储加载的工作流同步写回节点状态
		if *id != "" {
			if _, uerr := app.workspace.Update(context.WithoutCancel(ctx), *id, func(cur *types.Workflow) (*types.Workflow, error) {
				return workflow.ApplyProgress(cur, p), nil
			}); uerr != nil {
				logger.Warn("failed to persist progress", zap.Error(uerr))
			}
		}
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	switch {
	case !result.Success:
		return fmt.Errorf("workflow %s failed on %d node(s)", wf.ID, len(result.Errors))
	case result.Cancelled:
		return fmt.Errorf("workflow %s cancelled", wf.ID)
	}
	return nil
}

// runExport 导出存储中的工作流
func runExport(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	var cf configFlags
	cf.bind(fs)
	id := fs.String("id", "", "Workflow ID")
	outFile := fs.String("out", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	cfg, err := cf.load()
	if err != nil {
		return err
	}
	logger := cliLogger(cfg)
	defer func() { _ = logger.Sync() }()

	app, err := newApp(ctx, cfg, logger, offlineOptions())
	if err != nil {
		return err
	}
	defer app.Close(context.WithoutCancel(ctx))

	data, err := app.workspace.Export(ctx, *id)
	if err != nil {
		return err
	}
	if *outFile != "" {
		return os.WriteFile(*outFile, data, 0o644)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// runImport 导入工作流 JSON 文件，输出导入后的 ID
func runImport(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	var cf configFlags
	cf.bind(fs)
	file := fs.String("file", "", "Workflow JSON file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("--file is required")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("read workflow file: %w", err)
	}

	cfg, err := cf.load()
	if err != nil {
		return err
	}
	logger := cliLogger(cfg)
	defer func() { _ = logger.Sync() }()

	app, err := newApp(ctx, cfg, logger, offlineOptions())
	if err != nil {
		return err
	}
	defer app.Close(context.WithoutCancel(ctx))

	wf, err := app.workspace.Import(ctx, data)
	if err != nil {
		if te, ok := types.AsError(err); ok && len(te.Details) > 0 {
			return fmt.Errorf("%s: %s", te.Message, strings.Join(te.Details, "; "))
		}
		return err
	}
	_, err = fmt.Fprintf(out, "Imported workflow %s (%s)\n", wf.ID, wf.Name)
	return err
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

func runHealthCheck(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	addr := fs.String("addr", "http://localhost:8080", "Server address")
	timeout := fs.Duration("timeout", 5*time.Second, "Request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(*addr, "/")+"/ready", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	var health handlers.ServiceHealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}
	for name, check := range health.Checks {
		fmt.Fprintf(out, "  %-10s %s %s\n", name, check.Status, check.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d (%s)", resp.StatusCode, health.Status)
	}
	fmt.Fprintln(out, "OK")
	return nil
}
