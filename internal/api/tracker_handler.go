package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/campaign-tracker/internal/logger"
	"github.com/wfunc/campaign-tracker/internal/models"
	"github.com/wfunc/campaign-tracker/internal/tracker"
)

// addRow 处理添加新行的表单提交
// 表单字段名就是规范列名，未知字段丢弃、缺失字段补空
func (r *Router) addRow(c *gin.Context) {
	raw := make(map[string]string, len(models.Columns))
	for _, col := range models.Columns {
		raw[col] = c.PostForm(col)
	}

	if err := r.tracker.AddRow(c.Request.Context(), raw); err != nil {
		r.redirectAlert(c, err)
		return
	}

	logger.LogEditAction("add", 1, c.ClientIP())
	r.redirectHome(c, "added")
}

// saveAll 处理整表编辑网格的提交
// 每列的输入框同名，按列取值数组后逐行重组，整表覆盖保存
func (r *Router) saveAll(c *gin.Context) {
	columns := make(map[string][]string, len(models.Columns))
	rows := 0
	for _, col := range models.Columns {
		values := c.PostFormArray(col)
		columns[col] = values
		if len(values) > rows {
			rows = len(values)
		}
	}

	roster := models.NewRoster()
	for i := 0; i < rows; i++ {
		raw := make(map[string]string, len(models.Columns))
		for _, col := range models.Columns {
			if i < len(columns[col]) {
				raw[col] = columns[col][i]
			}
		}
		roster.Add(raw)
	}

	if err := r.tracker.Save(c.Request.Context(), roster); err != nil {
		r.redirectAlert(c, err)
		return
	}

	logger.LogEditAction("save", roster.Len(), c.ClientIP())
	r.redirectHome(c, "saved")
}

// deleteRows 删除勾选的行
// 勾选框同名row、值为行下标；非数字的值忽略
func (r *Router) deleteRows(c *gin.Context) {
	var indices []int
	for _, v := range c.PostFormArray("row") {
		idx, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		indices = append(indices, idx)
	}

	deleted, err := r.tracker.DeleteRows(c.Request.Context(), indices)
	if err != nil {
		r.redirectAlert(c, err)
		return
	}

	if deleted == 0 {
		r.redirectHome(c, "")
		return
	}

	logger.LogEditAction("delete", deleted, c.ClientIP())
	r.redirectHome(c, "deleted")
}

// exportCSV 下载当前跟踪表的CSV
func (r *Router) exportCSV(c *gin.Context) {
	data, err := r.tracker.ExportCSV(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", tracker.ExportFilename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
