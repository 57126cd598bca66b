package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BaSui01/gtmflow/internal/database"
)

// DefaultTable SQL 后端默认表名，与 internal/migration 中的迁移一致
const DefaultTable = "workflow_kv"

// kvRecord workflow_kv 表的一行
type kvRecord struct {
	Key       string    `gorm:"column:item_key;primaryKey;size:255"`
	Value     string    `gorm:"column:item_value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// SQLSubstrate 基于 GORM 的后端。表结构由迁移创建。
type SQLSubstrate struct {
	db    *gorm.DB
	table string
	pool  *database.PoolManager
	now   func() time.Time
}

// NewSQLSubstrate 基于连接池创建后端。table 为空时使用 workflow_kv。
func NewSQLSubstrate(pool *database.PoolManager, table string) *SQLSubstrate {
	s := newSQLSubstrate(pool.DB(), table)
	s.pool = pool
	return s
}

func newSQLSubstrate(db *gorm.DB, table string) *SQLSubstrate {
	if table == "" {
		table = DefaultTable
	}
	return &SQLSubstrate{db: db, table: table, now: time.Now}
}

// AutoMigrate 在没有运行迁移的环境（测试、嵌入式 sqlite）中建表。
func (s *SQLSubstrate) AutoMigrate() error {
	return s.db.Table(s.table).AutoMigrate(&kvRecord{})
}

func (s *SQLSubstrate) GetItem(ctx context.Context, key string) (string, bool, error) {
	var rec kvRecord
	err := s.db.WithContext(ctx).Table(s.table).Where("item_key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.Value, true, nil
}

// SetItem upsert：主键冲突时覆盖值与更新时间
func (s *SQLSubstrate) SetItem(ctx context.Context, key, value string) error {
	rec := kvRecord{Key: key, Value: value, UpdatedAt: s.now().UTC()}
	return s.db.WithContext(ctx).Table(s.table).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"item_value", "updated_at"}),
	}).Create(&rec).Error
}

func (s *SQLSubstrate) RemoveItem(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Table(s.table).Where("item_key = ?", key).Delete(&kvRecord{}).Error
}

func (s *SQLSubstrate) Ping(ctx context.Context) error {
	if s.pool != nil {
		return s.pool.Ping(ctx)
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭连接池；未持有连接池时由调用方负责关闭。
func (s *SQLSubstrate) Close() error {
	if s.pool != nil {
		return s.pool.Close()
	}
	return nil
}
