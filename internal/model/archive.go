package model

import "time"

// ArchivedPost 本地快照行；payload 为帖子完整 JSON
type ArchivedPost struct {
	ID        int64  `gorm:"primaryKey;autoIncrement:false"`
	Date      string `gorm:"type:varchar(64)"`
	Payload   string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (ArchivedPost) TableName() string { return "archived_posts" }
