package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/campaign-tracker/internal/errors"
	"github.com/wfunc/campaign-tracker/internal/models"
)

// RosterResponse 全表响应
type RosterResponse struct {
	Backend string          `json:"backend"`
	Count   int             `json:"count"`
	Records []models.Record `json:"records"`
}

// getRoster 返回整张跟踪表
// @Summary 获取队伍状态表
// @Description 返回当前存储后端里的全部记录，数值列已清洗
// @Tags Roster
// @Produce json
// @Success 200 {object} RosterResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/roster [get]
func (r *Router) getRoster(c *gin.Context) {
	roster, err := r.tracker.Load(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, RosterResponse{
		Backend: r.tracker.Backend(),
		Count:   roster.Len(),
		Records: roster.Records,
	})
}

// getCharacter 按角色名返回单条记录
// @Summary 获取单个角色
// @Description 角色名完全匹配（区分大小写），多条同名时返回第一条
// @Tags Roster
// @Produce json
// @Param character path string true "角色名"
// @Success 200 {object} models.Record
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/roster/{character} [get]
func (r *Router) getCharacter(c *gin.Context) {
	roster, err := r.tracker.Load(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	name := c.Param("character")
	rec, ok := roster.FindByCharacter(name)
	if !ok {
		respondError(c, errors.Newf(errors.ErrNotFound, "角色 %s 不存在", name))
		return
	}

	c.JSON(http.StatusOK, rec)
}
