// Copyright (c) GTMFlow Authors.
// Licensed under the MIT License.

/*
包 migration 管理 SQL 存储后端（storage.SQLSubstrate）的表结构，
支持 PostgreSQL、MySQL 与 SQLite，基于 golang-migrate 实现。

# 概述

各方言的 SQL 迁移文件通过 embed 内嵌，当前包含：

  - 000001_create_workflow_kv - 工作流信封表 workflow_kv(item_key, item_value, updated_at)
  - 000002_index_workflow_kv_updated_at - updated_at 索引

SQLite 连接使用纯 Go 驱动（github.com/glebarez/go-sqlite，驱动名 "sqlite"），
迁移语义沿用 golang-migrate 的 sqlite3 实现，无需 cgo。

# 核心类型

  - Migrator / DefaultMigrator：Up/Down/DownAll/Steps/Goto/Force/Version/Status/Info/Close
  - Config：数据库类型、连接 URL、版本表名（默认 gtmflow_schema_migrations）、锁超时
  - CLI：面向终端的格式化输出，供 `gtmflow migrate` 子命令使用

# 工厂函数

NewMigratorFromConfig / NewMigratorFromDatabaseConfig / NewMigratorFromURL。
*/
package migration
