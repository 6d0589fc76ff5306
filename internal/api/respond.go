package api

import (
	"net/http"

	"minishop/internal/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// respondOK 返回成功响应。data 为 nil 时省略 DT 字段。
func respondOK(c *gin.Context, message string, data interface{}) {
	body := gin.H{"EC": 0, "EM": message}
	if data != nil {
		body["DT"] = data
	}
	c.JSON(http.StatusOK, body)
}

// respondError 按错误类别映射 HTTP 状态码与 EC。
func respondError(c *gin.Context, err error) {
	message := apperr.MessageOf(err)
	switch apperr.KindOf(err) {
	case apperr.Invalid:
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": message})
	case apperr.NotFound:
		c.JSON(http.StatusNotFound, gin.H{"EC": 1, "EM": message})
	case apperr.Unauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"EC": 1, "EM": message})
	case apperr.Forbidden:
		c.JSON(http.StatusForbidden, gin.H{"EC": 2, "EM": message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"EC": -1, "EM": message})
	}
}
