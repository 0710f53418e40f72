// Package admin 后台管理接口
package admin

import (
	"github.com/cheezy-bite/internal/provider"
)

// Handler 后台处理器，聚合依赖容器。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(container *provider.Container) *Handler {
	return &Handler{Container: container}
}
