package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/internal/migration"
)

// =============================================================================
// Database Migration Commands
// =============================================================================

// migrateFlags migrate 子命令共用参数
type migrateFlags struct {
	configFlags
	dbType string
	dbURL  string
}

func newMigrateFlagSet(name string, mf *migrateFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("migrate "+name, flag.ExitOnError)
	mf.bind(fs)
	fs.StringVar(&mf.dbType, "db-type", "", "Database type (postgres, mysql, sqlite)")
	fs.StringVar(&mf.dbURL, "db-url", "", "Database connection URL")
	return fs
}

// migrator --db-type 与 --db-url 同时给出时直接使用，否则读取配置
func (mf *migrateFlags) migrator(logger *zap.Logger) (*migration.DefaultMigrator, error) {
	if mf.dbType != "" && mf.dbURL != "" {
		return migration.NewMigratorFromURL(mf.dbType, mf.dbURL, logger)
	}
	cfg, err := mf.load()
	if err != nil {
		return nil, err
	}
	if mf.dbType != "" {
		cfg.Database.Driver = mf.dbType
	}
	return migration.NewMigratorFromConfig(cfg, logger)
}

// runMigrate handles the migrate command and its subcommands
func runMigrate(ctx context.Context, args []string) error {
	if len(args) < 1 {
		printMigrateUsage()
		return fmt.Errorf("missing migrate subcommand")
	}
	sub, subargs := args[0], args[1:]
	if sub == "help" || sub == "-h" || sub == "--help" {
		printMigrateUsage()
		return nil
	}

	// goto / force / steps 的数字参数紧跟子命令，先取出再解析选项（steps 允许负数）
	var target int
	if sub == "goto" || sub == "force" || sub == "steps" {
		if len(subargs) < 1 {
			return fmt.Errorf("migrate %s requires a numeric argument", sub)
		}
		v, err := strconv.Atoi(subargs[0])
		if err != nil {
			return fmt.Errorf("invalid argument %q: %w", subargs[0], err)
		}
		if sub == "goto" && v < 0 {
			return fmt.Errorf("invalid version %d", v)
		}
		target, subargs = v, subargs[1:]
	}

	var mf migrateFlags
	fs := newMigrateFlagSet(sub, &mf)
	all := fs.Bool("all", false, "Rollback all migrations (down only)")
	_ = fs.Parse(subargs)

	switch sub {
	case "up", "down", "steps", "status", "version", "info", "goto", "force", "reset":
	default:
		printMigrateUsage()
		return fmt.Errorf("unknown migrate subcommand: %s", sub)
	}

	logger := zap.NewNop()
	migrator, err := mf.migrator(logger)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer migrator.Close()

	cli := migration.NewCLI(migrator)
	cli.SetOutput(os.Stdout)

	switch sub {
	case "up":
		return cli.RunUp(ctx)
	case "down":
		if *all {
			return cli.RunDownAll(ctx)
		}
		return cli.RunDown(ctx)
	case "steps":
		return cli.RunSteps(ctx, target)
	case "status":
		return cli.RunStatus(ctx)
	case "version":
		return cli.RunVersion(ctx)
	case "info":
		return cli.RunInfo(ctx)
	case "goto":
		return cli.RunGoto(ctx, uint(target))
	case "force":
		return cli.RunForce(ctx, target)
	default: // reset
		return cli.RunDownAll(ctx)
	}
}

// printMigrateUsage prints the usage information for migrate command
func printMigrateUsage() {
	fmt.Println(`Database Migration Commands

Usage:
  gtmflow migrate <subcommand> [options]

Subcommands:
  up        Apply all pending migrations
  down      Rollback the last migration (--all for every migration)
  steps <n> Apply n migrations, or roll back when n is negative
  status    Show migration status
  version   Show current migration version
  info      Show migration summary
  goto <v>  Migrate to a specific version
  force <v> Force set migration version (use with caution)
  reset     Rollback all migrations
  help      Show this help message

Options:
  --config <path>     Path to configuration file (YAML)
  --env-file <path>   Path to .env file
  --db-type <type>    Database type: postgres, mysql, sqlite (default: from config)
  --db-url <url>      Database connection URL (default: from config)

Examples:
  gtmflow migrate up
  gtmflow migrate up --db-type sqlite --db-url "file:/var/lib/gtmflow/gtmflow.db?mode=rwc"
  gtmflow migrate status
  gtmflow migrate goto 1
  gtmflow migrate steps -1
  gtmflow migrate force 0`)
}
