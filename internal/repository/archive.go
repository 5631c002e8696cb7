package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/tg-mirror/internal/model"
)

// ArchiveRepository 最后一次成功全量加载的本地快照仓储。
// 分片和兜底都不可用时，读路径降级到这里。
type ArchiveRepository interface {
	// Replace 用一份新的全量集合整体替换快照
	Replace(ctx context.Context, posts []model.Post) error

	// LoadAll 返回快照全集，按 id 降序
	LoadAll(ctx context.Context) ([]model.Post, error)

	// Count 快照内帖子数
	Count(ctx context.Context) (int64, error)

	// Close 关闭数据库连接
	Close() error
}

type archiveRepository struct {
	db *gorm.DB
}

// NewArchiveRepository 打开（或创建）path 指向的 sqlite 快照库
func NewArchiveRepository(path string) (ArchiveRepository, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	return NewArchiveRepositoryWithDB(db)
}

// NewArchiveRepositoryWithDB 复用已有连接（测试用 :memory:）
func NewArchiveRepositoryWithDB(db *gorm.DB) (ArchiveRepository, error) {
	if err := db.AutoMigrate(&model.ArchivedPost{}); err != nil {
		return nil, fmt.Errorf("migrate archive schema: %w", err)
	}
	return &archiveRepository{db: db}, nil
}

func (r *archiveRepository) Replace(ctx context.Context, posts []model.Post) error {
	rows := make([]model.ArchivedPost, 0, len(posts))
	now := time.Now()
	for _, p := range posts {
		payload, err := json.Marshal(p)
		if err != nil {
			continue
		}
		rows = append(rows, model.ArchivedPost{
			ID:        p.ID.Int64(),
			Date:      p.Date,
			Payload:   string(payload),
			UpdatedAt: now,
		})
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.ArchivedPost{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
}

func (r *archiveRepository) LoadAll(ctx context.Context) ([]model.Post, error) {
	var rows []model.ArchivedPost
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	posts := make([]model.Post, 0, len(rows))
	for _, row := range rows {
		var p model.Post
		if err := json.Unmarshal([]byte(row.Payload), &p); err != nil {
			// 单行损坏跳过，剩下的照常可用
			continue
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (r *archiveRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ArchivedPost{}).Count(&count).Error
	return count, err
}

func (r *archiveRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
