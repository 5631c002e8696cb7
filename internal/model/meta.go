package model

// SyncStats 最近一次同步的统计
type SyncStats struct {
	New             int `json:"new"`
	Updated         int `json:"updated"`
	MediaDownloaded int `json:"media_downloaded"`
}

// Meta 频道元数据（发布端每次同步时重写）
type Meta struct {
	Title              string     `json:"title,omitempty"`
	Username           string     `json:"username,omitempty"`
	Channel            string     `json:"channel"`
	LastSyncUTC        string     `json:"last_sync_utc,omitempty"`
	PostsCount         int        `json:"posts_count"`
	LastSeenMessageID  int64      `json:"last_seen_message_id"`
	Avatar             string     `json:"avatar,omitempty"`
	Stats              *SyncStats `json:"stats,omitempty"`
	MetaSchemaVersion  string     `json:"meta_schema_version,omitempty"`
	PostsSchemaVersion string     `json:"posts_schema_version,omitempty"`
}

// Generation 同步代次；分片文件在一个代次内不可变，可长期缓存
func (m Meta) Generation() int64 { return m.LastSeenMessageID }
