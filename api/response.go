package api

import (
	"errors"
	"log"
	"net/http"

	"walet/config"
	"walet/service"

	"github.com/gin-gonic/gin"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 400 错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized 401 错误响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// Forbidden 403 错误响应
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message)
}

// InternalError 500 错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// RespondError 按业务错误分类返回对应状态码
// 非业务错误只返回通用信息，详情写日志
func RespondError(c *gin.Context, err error) {
	var e *service.Error
	if !errors.As(err, &e) {
		log.Printf("%s %s 处理失败: %v", c.Request.Method, c.Request.URL.Path, err)
		_ = c.Error(err)
		InternalError(c, config.SafeErrorMessage(err, "服务器内部错误"))
		return
	}

	switch e.Kind {
	case service.KindValidation, service.KindInsufficientFunds:
		BadRequest(c, e.Message)
	case service.KindPermission:
		Forbidden(c, e.Message)
	case service.KindNotFound:
		NotFound(c, e.Message)
	case service.KindExternalService:
		_ = c.Error(err)
		InternalError(c, e.Message)
	default:
		_ = c.Error(err)
		InternalError(c, config.SafeErrorMessage(err, "服务器内部错误"))
	}
}
