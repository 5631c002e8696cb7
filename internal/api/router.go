package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/tg-mirror/internal/api/handler"
	"github.com/d60-Lab/tg-mirror/internal/config"
	"github.com/d60-Lab/tg-mirror/pkg/middleware"
)

// NewRouter 组装路由与中间件
func NewRouter(h *handler.Handler, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.Recovery(), gzip.Gzip(gzip.DefaultCompression))
	if cfg.Tracing.Endpoint != "" {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}

	r.GET("/healthz", h.Health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/posts", h.ListPosts)
		v1.GET("/posts/:id", h.GetPost)
		v1.GET("/meta", h.GetMeta)
	}

	admin := v1.Group("/admin", middleware.JWTAuth(cfg.Auth.JWTSecret))
	{
		admin.POST("/refresh", h.Refresh)
	}

	return r
}
