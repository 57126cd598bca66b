// Copyright (c) GTMFlow Authors.
// Licensed under the MIT License.

/*
包 database 管理 GORM 数据库连接，供 SQL 存储后端使用。

# 核心类型

  - PoolManager：持有 *gorm.DB 与底层 *sql.DB，配置连接池参数，
    后台定时 Ping 并通过 StatsRecorder 上报连接数
  - PoolConfig：最大连接数、空闲连接数、生命周期与健康检查间隔，Validate 校验取值
  - Open / Dialector：按驱动名（postgres、mysql、sqlite）选择 GORM 方言，
    sqlite 使用 github.com/glebarez/sqlite 纯 Go 实现
*/
package database
