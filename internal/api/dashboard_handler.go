package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/campaign-tracker/internal/errors"
	"github.com/wfunc/campaign-tracker/internal/middleware"
	"github.com/wfunc/campaign-tracker/internal/models"
	"go.uber.org/zap"
)

// dashboardData 面板模板数据
type dashboardData struct {
	EditMode   bool
	EditKey    string
	Backend    string
	Warnings   []string
	Notice     string
	Alert      string
	Characters []string
	Selected   string
	Picked     *models.Record
	Roster     *models.Roster
	Columns    []string
}

// notices PRG跳转回来的提示文案
// 白名单映射，防止把任意查询参数文本当提示注入页面
var notices = map[string]string{
	"added":   "已添加新行",
	"saved":   "已保存全部修改",
	"deleted": "已删除所选行",
}

// dashboard 渲染战役面板
// 读失败不中断页面：显示空表加横幅警告，玩家至少能看到界面
func (r *Router) dashboard(c *gin.Context) {
	roster, readErr := r.tracker.Load(c.Request.Context())

	data := &dashboardData{
		EditMode:   middleware.IsEditMode(c),
		EditKey:    middleware.EditKey(c),
		Backend:    r.tracker.Backend(),
		Notice:     notices[c.Query("msg")],
		Alert:      c.Query("alert"),
		Characters: roster.CharacterNames(),
		Selected:   c.Query("character"),
		Roster:     roster,
		Columns:    models.Columns,
	}

	for _, w := range r.warnings {
		data.Warnings = append(data.Warnings, w.String())
	}
	if readErr != nil {
		data.Warnings = append(data.Warnings, fmt.Sprintf("后端 %s 读取失败: %v", data.Backend, readErr))
	}

	if data.Selected != "" {
		if rec, ok := roster.FindByCharacter(data.Selected); ok {
			data.Picked = &rec
		}
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(c.Writer, data); err != nil {
		r.log.Error("渲染面板失败", zap.Error(err))
	}
}

// redirectHome 编辑动作完成后PRG跳转回面板
// 编辑密钥和提示通过查询参数携带，避免表单重复提交
func (r *Router) redirectHome(c *gin.Context, msg string) {
	q := url.Values{}
	if key := middleware.EditKey(c); key != "" {
		q.Set("key", key)
	}
	if msg != "" {
		q.Set("msg", msg)
	}
	target := "/"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	c.Redirect(http.StatusSeeOther, target)
}

// redirectAlert 编辑动作失败时带错误文案跳转回面板
func (r *Router) redirectAlert(c *gin.Context, err error) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.Wrap(err, errors.ErrUnknown)
	}

	q := url.Values{}
	if key := middleware.EditKey(c); key != "" {
		q.Set("key", key)
	}
	q.Set("alert", appErr.Error())
	c.Redirect(http.StatusSeeOther, "/?"+q.Encode())
}
