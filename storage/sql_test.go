package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BaSui01/gtmflow/types"
)

func newSQLiteSubstrate(t *testing.T) *SQLSubstrate {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "gtmflow.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sub := newSQLSubstrate(db, "")
	require.NoError(t, sub.AutoMigrate())
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return sub
}

func newMockSubstrate(t *testing.T) (*SQLSubstrate, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return newSQLSubstrate(db, "workflow_kv"), mock
}

func TestSQLSubstrate_UpdatedAt(t *testing.T) {
	sub := newSQLiteSubstrate(t)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sub.now = func() time.Time { return fixed }

	ctx := context.Background()
	require.NoError(t, sub.SetItem(ctx, "k", "v1"))

	var rec kvRecord
	require.NoError(t, sub.db.Table(DefaultTable).Where("item_key = ?", "k").Take(&rec).Error)
	assert.Equal(t, "v1", rec.Value)
	assert.True(t, fixed.Equal(rec.UpdatedAt.UTC()))

	var count int64
	require.NoError(t, sub.SetItem(ctx, "k", "v2"))
	require.NoError(t, sub.db.Table(DefaultTable).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSQLSubstrate_QueryError(t *testing.T) {
	sub, mock := newMockSubstrate(t)
	mock.ExpectQuery(`SELECT \* FROM "workflow_kv"`).WillReturnError(errors.New("connection reset"))

	_, ok, err := sub.GetItem(context.Background(), DefaultKey)
	assert.False(t, ok)
	assert.EqualError(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSubstrate_DeleteError(t *testing.T) {
	sub, mock := newMockSubstrate(t)
	mock.ExpectExec(`DELETE FROM "workflow_kv"`).WillReturnError(errors.New("read-only"))

	assert.Error(t, sub.RemoveItem(context.Background(), DefaultKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DatabaseFailureIsStorageError(t *testing.T) {
	sub, mock := newMockSubstrate(t)
	mock.ExpectQuery(`SELECT \* FROM "workflow_kv"`).WillReturnError(errors.New("database is down"))

	_, err := NewStore(sub, nil).Load(context.Background(), "wf-1")
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrStorage))
	assert.Equal(t, types.KindStorage, types.ErrorKindOf(err))
}
