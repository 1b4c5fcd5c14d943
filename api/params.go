package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// pathUUID 解析路径中的 UUID 参数，格式错误时直接返回 400
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		BadRequest(c, "无效的 "+name)
		return uuid.Nil, false
	}
	return id, true
}
