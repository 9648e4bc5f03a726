// Package usage persists per-call usage records for billing and audit.
// This package is internal and should not be imported by external projects.
package usage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// =============================================================================
// 🗄️ 用量记录存储
// =============================================================================

// Record 是一次适配器调用的用量行：哪个后端、哪个模型、哪个端点、
// 生成了几张图、耗时多少、成功与否。
type Record struct {
	ID        uint   `gorm:"primaryKey"`
	RequestID string `gorm:"size:36;index"`
	Provider  string `gorm:"size:64;index"`
	Model     string `gorm:"size:128"`
	Endpoint  string `gorm:"size:128"`
	Images    int
	LatencyMs int64
	Status    string `gorm:"size:64"` // "ok" 或错误码
	CreatedAt time.Time
}

// TableName 指定表名
func (Record) TableName() string { return "usage_records" }

// Store 基于 GORM 的用量存储
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore 创建用量存储并自动迁移表结构
func NewStore(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate usage records: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.With(zap.String("component", "usage_store")),
	}, nil
}

// Record 写入一条用量行
func (s *Store) Record(ctx context.Context, rec *Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		s.logger.Error("usage record write failed",
			zap.String("provider", rec.Provider),
			zap.Error(err),
		)
		return fmt.Errorf("failed to write usage record: %w", err)
	}
	return nil
}

// Recent 返回最近的 limit 条用量行，按时间倒序
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	var records []Record
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	return records, nil
}

// CountByProvider 统计某后端的调用次数
func (s *Store) CountByProvider(ctx context.Context, provider string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Record{}).
		Where("provider = ?", provider).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count usage records: %w", err)
	}
	return count, nil
}
