package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sudooom.im.hub/internal/errors"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    errors.CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 从错误值生成错误响应
func Error(c *gin.Context, err error) {
	c.JSON(http.StatusOK, Response{
		Code:    errors.GetCode(err),
		Message: errors.GetMessage(err),
		Data:    nil,
	})
}

// ErrorWithMsg 自定义错误消息
func ErrorWithMsg(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// Unauthorized 未认证
func Unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, Response{
		Code:    errors.CodeTokenInvalid,
		Message: errors.GetMessage(errors.ErrTokenInvalid),
		Data:    nil,
	})
}
