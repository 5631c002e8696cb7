package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexID 帖子ID；发布端偶尔会把 id 序列化成字符串，解码时两种都接受
type FlexID int64

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 1 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return err
		}
		*f = FlexID(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n)
	return nil
}

func (f FlexID) Int64() int64 { return int64(f) }

func (f FlexID) String() string { return strconv.FormatInt(int64(f), 10) }

// MediaItem 媒体附件描述（仅属性，下载/渲染在发布端）
type MediaItem struct {
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	Thumb string `json:"thumb,omitempty"`
	Size  int64  `json:"size,omitempty"`
	Mime  string `json:"mime,omitempty"`
	Name  string `json:"name,omitempty"`
}

// ReactionInfo 帖子回应汇总
type ReactionInfo struct {
	Total   int              `json:"total"`
	Details []map[string]any `json:"details,omitempty"`
}

// Post 镜像帖子，发布后不可变（与发布端 posts schema 对齐）
type Post struct {
	ID          FlexID        `json:"id"`
	Date        string        `json:"date"`
	Edited      string        `json:"edited,omitempty"`
	Text        string        `json:"text"`
	HTML        string        `json:"html,omitempty"`
	Link        string        `json:"link,omitempty"`
	Type        string        `json:"type,omitempty"`
	Views       *int64        `json:"views,omitempty"`
	Forwards    *int64        `json:"forwards,omitempty"`
	GroupedID   *int64        `json:"grouped_id,omitempty"`
	Media       []MediaItem   `json:"media,omitempty"`
	Reactions   *ReactionInfo `json:"reactions,omitempty"`
	MediaStatus string        `json:"media_status,omitempty"`
}
