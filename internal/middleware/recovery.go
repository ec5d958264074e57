package middleware

import (
	"fmt"
	"html"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/campaign-tracker/internal/logger"
)

// diagnosticPage 页面渲染路径的恐慌诊断页
const diagnosticPage = `<!DOCTYPE html>
<html lang="zh">
<head><meta charset="utf-8"><title>出错了</title></head>
<body style="font-family:sans-serif;max-width:640px;margin:40px auto">
<h1>页面渲染出错</h1>
<p>服务仍在运行，请刷新重试。若问题持续，把下面的请求ID交给管理员。</p>
<pre style="background:#fef2f2;border:1px solid #fecaca;padding:12px;white-space:pre-wrap">%s</pre>
<p>请求ID: <code>%s</code></p>
</body>
</html>`

// Recovery 恐慌恢复中间件
// 恐慌渲染成带请求ID的诊断响应而不是空白500，进程保持存活
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				logger.LogPanic(recovered, debug.Stack())

				requestID := GetRequestID(c)
				if strings.Contains(c.GetHeader("Accept"), "text/html") {
					page := fmt.Sprintf(diagnosticPage,
						html.EscapeString(fmt.Sprint(recovered)),
						html.EscapeString(requestID),
					)
					c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(page))
				} else {
					c.JSON(http.StatusInternalServerError, gin.H{
						"code":       "INTERNAL_PANIC",
						"message":    fmt.Sprint(recovered),
						"request_id": requestID,
					})
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
