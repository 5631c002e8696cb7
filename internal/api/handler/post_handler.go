package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/tg-mirror/internal/model"
	"github.com/d60-Lab/tg-mirror/pkg/response"
)

// ListPosts 帖子列表（可选子串过滤）
// @Summary 帖子列表
// @Tags 镜像
// @Param q query string false "过滤子串（大小写不敏感）"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	q := c.Query("q")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}

	matches, notice := h.svc.List(c.Request.Context(), q)
	total := len(matches)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	response.Success(c, gin.H{
		"page":      page,
		"page_size": pageSize,
		"total":     total,
		"notice":    notice,
		"list":      matches[start:end],
	})
}

// GetPost 按 id 点查，带前后导航
// @Summary 单帖详情
// @Tags 镜像
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	post, nb, ok := h.svc.Get(c.Request.Context(), c.Param("id"))
	if !ok {
		response.NotFound(c, "post not found")
		return
	}
	response.Success(c, gin.H{
		"post":  post,
		"newer": neighborID(nb.Newer),
		"older": neighborID(nb.Older),
	})
}

// GetMeta 频道元数据
// @Summary 频道元数据
// @Tags 镜像
// @Success 200 {object} response.Response{data=model.Meta}
// @Router /api/v1/meta [get]
func (h *Handler) GetMeta(c *gin.Context) {
	meta, err := h.svc.Meta(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, meta)
}

// Refresh 清缓存并重建列表
// @Summary 强制刷新
// @Tags 管理
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/admin/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	store, notice, err := h.svc.ForceRefresh(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{
		"origin": store.Origin(),
		"posts":  store.Len(),
		"notice": notice,
	})
}

// Health 存活探针
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "up"})
}

func neighborID(p *model.Post) *int64 {
	if p == nil {
		return nil
	}
	id := p.ID.Int64()
	return &id
}
