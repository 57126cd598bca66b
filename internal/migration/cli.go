package migration

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
)

// CLI 将 Migrator 的操作结果格式化输出，供 `gtmflow migrate` 使用
type CLI struct {
	migrator Migrator
	output   io.Writer
}

// NewCLI 默认输出到 stdout
func NewCLI(migrator Migrator) *CLI {
	return &CLI{migrator: migrator, output: os.Stdout}
}

// SetOutput 替换输出目标
func (c *CLI) SetOutput(w io.Writer) {
	c.output = w
}

// apply 执行一次变更并打印变更后的版本
func (c *CLI) apply(ctx context.Context, banner, done, failed string, op func(context.Context) error) error {
	fmt.Fprintln(c.output, banner)
	if err := op(ctx); err != nil {
		return fmt.Errorf("%s: %w", failed, err)
	}
	info, err := c.migrator.Info(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.output, "%s. Current version: %d\n", done, info.CurrentVersion)
	return nil
}

// RunUp 应用全部待执行迁移
func (c *CLI) RunUp(ctx context.Context) error {
	return c.apply(ctx, "Running migrations...", "Migrations complete", "migration failed", c.migrator.Up)
}

// RunDown 回滚最近一次迁移
func (c *CLI) RunDown(ctx context.Context) error {
	return c.apply(ctx, "Rolling back last migration...", "Rollback complete", "rollback failed", c.migrator.Down)
}

// RunDownAll 回滚全部迁移，workflow_kv 表会被删除
func (c *CLI) RunDownAll(ctx context.Context) error {
	return c.apply(ctx, "Rolling back all migrations...", "All migrations rolled back", "rollback failed", c.migrator.DownAll)
}

// RunSteps n > 0 前进 n 步，n < 0 回退 |n| 步
func (c *CLI) RunSteps(ctx context.Context, n int) error {
	banner := fmt.Sprintf("Applying %d migration(s)...", n)
	if n < 0 {
		banner = fmt.Sprintf("Rolling back %d migration(s)...", -n)
	}
	return c.apply(ctx, banner, "Complete", "migration steps failed", func(ctx context.Context) error {
		return c.migrator.Steps(ctx, n)
	})
}

// RunGoto 迁移到指定版本
func (c *CLI) RunGoto(ctx context.Context, version uint) error {
	return c.apply(ctx, fmt.Sprintf("Migrating to version %d...", version), "Migration complete", "migration failed",
		func(ctx context.Context) error { return c.migrator.Goto(ctx, version) })
}

// RunForce 强制设置版本号并清除 dirty 标记，不执行任何 SQL
func (c *CLI) RunForce(ctx context.Context, version int) error {
	fmt.Fprintf(c.output, "Forcing version to %d...\n", version)
	if err := c.migrator.Force(ctx, version); err != nil {
		return fmt.Errorf("force failed: %w", err)
	}
	fmt.Fprintf(c.output, "Version forced to %d\n", version)
	return nil
}

// RunVersion 打印当前版本
func (c *CLI) RunVersion(ctx context.Context) error {
	version, dirty, err := c.migrator.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}
	switch {
	case version == 0:
		fmt.Fprintln(c.output, "No migrations applied yet.")
	case dirty:
		fmt.Fprintf(c.output, "Current version: %d (dirty)\n", version)
	default:
		fmt.Fprintf(c.output, "Current version: %d\n", version)
	}
	return nil
}

// RunStatus 以表格列出每个迁移文件的状态
func (c *CLI) RunStatus(ctx context.Context) error {
	statuses, err := c.migrator.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	if len(statuses) == 0 {
		fmt.Fprintln(c.output, "No migrations found.")
		return nil
	}

	w := tabwriter.NewWriter(c.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tSTATUS")
	for _, s := range statuses {
		state := "Pending"
		switch {
		case s.Dirty:
			state = "Dirty"
		case s.Applied:
			state = "Applied"
		}
		fmt.Fprintf(w, "%06d\t%s\t%s\n", s.Version, s.Name, state)
	}
	_ = w.Flush()

	info, err := c.migrator.Info(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.output, "\nTotal: %d, Applied: %d, Pending: %d\n",
		info.TotalMigrations, info.AppliedMigrations, info.PendingMigrations)
	return nil
}

// RunInfo 打印汇总信息
func (c *CLI) RunInfo(ctx context.Context) error {
	info, err := c.migrator.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get info: %w", err)
	}
	w := tabwriter.NewWriter(c.output, 0, 0, 1, ' ', 0)
	fmt.Fprintln(w, "Migration Information:")
	fmt.Fprintf(w, "  Current Version:\t%d\n", info.CurrentVersion)
	fmt.Fprintf(w, "  Dirty:\t%v\n", info.Dirty)
	fmt.Fprintf(w, "  Total Migrations:\t%d\n", info.TotalMigrations)
	fmt.Fprintf(w, "  Applied Migrations:\t%d\n", info.AppliedMigrations)
	fmt.Fprintf(w, "  Pending Migrations:\t%d\n", info.PendingMigrations)
	return w.Flush()
}
