package storage

import (
	"context"
	"errors"
)

// Substrate 键值存储后端。值为完整的序列化信封。
type Substrate interface {
	// GetItem 返回键对应的值；不存在时 ok 为 false。
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	// SetItem 写入（覆盖）键值。
	SetItem(ctx context.Context, key, value string) error
	// RemoveItem 删除键；不存在时不报错。
	RemoveItem(ctx context.Context, key string) error
	// Ping 检查后端是否可用。
	Ping(ctx context.Context) error
	// Close 释放资源。
	Close() error
}

// Driver 后端类型
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverFile     Driver = "file"
	DriverRedis    Driver = "redis"
	DriverDatabase Driver = "database"
)

// Common errors
var (
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrClosed        = errors.New("storage is closed")
)
