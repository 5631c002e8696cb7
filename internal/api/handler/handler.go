package handler

import (
	"github.com/d60-Lab/tg-mirror/internal/service"
)

// Handler 聚合所有 HTTP 处理器的依赖
type Handler struct {
	svc *service.PostService
}

func New(svc *service.PostService) *Handler {
	return &Handler{svc: svc}
}
