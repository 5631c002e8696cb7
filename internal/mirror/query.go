package mirror

import (
	"strings"

	"github.com/d60-Lab/tg-mirror/internal/model"
)

// Span 命中区间 [Start, End)，基于大小写折叠后文本的字节偏移
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Match 带高亮区间的命中帖子
type Match struct {
	Post  model.Post `json:"post"`
	Spans []Span     `json:"spans,omitempty"`
}

// Filter 大小写不敏感的子串过滤，保持原有顺序。
// 空 query 恒等返回；重复过滤同一 query 结果不变。
func Filter(posts []model.Post, query string) []model.Post {
	if query == "" {
		return posts
	}
	q := strings.ToLower(query)
	out := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Text), q) {
			out = append(out, p)
		}
	}
	return out
}

// FilterMatches 过滤并附带每条的高亮区间
func FilterMatches(posts []model.Post, query string) []Match {
	if query == "" {
		out := make([]Match, len(posts))
		for i, p := range posts {
			out[i] = Match{Post: p}
		}
		return out
	}
	out := make([]Match, 0, len(posts))
	for _, p := range posts {
		spans := Spans(p.Text, query)
		if len(spans) == 0 {
			continue
		}
		out = append(out, Match{Post: p, Spans: spans})
	}
	return out
}

// Spans 返回 query 在 text 中所有命中的区间：
// 最左优先、不重叠，每次命中后跳过整个匹配宽度，
// 所以相邻/重叠的出现方式有确定的切分结果。
func Spans(text, query string) []Span {
	if query == "" {
		return nil
	}
	t := strings.ToLower(text)
	q := strings.ToLower(query)
	var spans []Span
	for off := 0; ; {
		i := strings.Index(t[off:], q)
		if i < 0 {
			break
		}
		start := off + i
		end := start + len(q)
		spans = append(spans, Span{Start: start, End: end})
		off = end
	}
	return spans
}
