package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// 上下文键
const (
	ContextEditMode = "editMode"
	ContextEditKey  = "editKey"
)

// EditGate 编辑门中间件
// 能力链接模式：URL里的key参数与配置密钥完全一致才进入编辑模式，
// 每个请求重新判定，不落会话、不落Cookie
type EditGate struct {
	secret string
}

// NewEditGate 创建编辑门
// 密钥去除首尾空白；空密钥表示永远只读
func NewEditGate(secret string) *EditGate {
	return &EditGate{secret: strings.TrimSpace(secret)}
}

// Evaluate 判定本次请求的编辑模式并写入上下文
func (g *EditGate) Evaluate() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.Query("key"))
		if key == "" && c.Request.Method == http.MethodPost {
			// 表单隐藏字段里的密钥也认，编辑模式能撑过PRG跳转
			key = strings.TrimSpace(c.PostForm("key"))
		}
		c.Set(ContextEditKey, key)
		c.Set(ContextEditMode, g.Allows(key))
		c.Next()
	}
}

// Allows 配置密钥非空且与给定值逐字节相等（区分大小写）时放行
func (g *EditGate) Allows(key string) bool {
	return g.secret != "" && key == g.secret
}

// RequireEdit 只读模式下中止请求
func (g *EditGate) RequireEdit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsEditMode(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "EDIT_FORBIDDEN",
				"message": "只读模式，禁止编辑",
			})
			return
		}
		c.Next()
	}
}

// IsEditMode 从上下文读取编辑模式判定
func IsEditMode(c *gin.Context) bool {
	return c.GetBool(ContextEditMode)
}

// EditKey 从上下文读取请求携带的密钥原文
func EditKey(c *gin.Context) string {
	return c.GetString(ContextEditKey)
}
