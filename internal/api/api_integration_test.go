package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/campaign-tracker/internal/config"
	"github.com/wfunc/campaign-tracker/internal/models"
	"github.com/wfunc/campaign-tracker/internal/storage"
	"github.com/wfunc/campaign-tracker/internal/tracker"
	"go.uber.org/zap"
)

const testEditKey = "gm-secret"

// seedRoster 两条测试记录
func seedRoster() *models.Roster {
	roster := models.NewRoster()
	roster.Add(map[string]string{
		models.ColumnPlayer:      "Anna",
		models.ColumnCharacter:   "Seraphine",
		models.ColumnLevel:       "5",
		models.ColumnXP:          "6500",
		models.ColumnSessionDate: "2024-03-01",
		models.ColumnLocation:    "Waterdeep",
		models.ColumnLastSession: "Fought the lich in the sewers",
		models.ColumnQuestHooks:  "Find the missing orb",
		models.ColumnLoot:        "+1 longsword",
	})
	roster.Add(map[string]string{
		models.ColumnPlayer:    "Ben",
		models.ColumnCharacter: "Thorn",
		models.ColumnLevel:     "4",
		models.ColumnXP:        "4200",
	})
	return roster
}

// newTestRouter 基于本地CSV后端搭建完整路由器
// 返回路由器和后端文件路径，测试可直接检查落盘内容
func newTestRouter(t *testing.T, seed *models.Roster) (*Router, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "tracker.csv")
	if seed != nil {
		data, err := seed.EncodeCSV()
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}

	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.Storage.File.Path = path
	cfg.Tracker.EditKey = testEditKey

	log := zap.NewNop()
	store, warnings := storage.Select(context.Background(), &cfg.Storage, log)
	require.Empty(t, warnings)

	router := NewRouter(tracker.New(store, log), cfg, nil, log)
	return router, path
}

func doGet(router *Router, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.GetEngine().ServeHTTP(w, req)
	return w
}

func doForm(router *Router, target string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.GetEngine().ServeHTTP(w, req)
	return w
}

// readBack 读取后端文件当前内容
func readBack(t *testing.T, path string) *models.Roster {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	roster, err := models.DecodeCSV(data)
	require.NoError(t, err)
	return roster
}

func TestDashboardReadOnly(t *testing.T) {
	router, _ := newTestRouter(t, seedRoster())

	w := doGet(router, "/")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	body := w.Body.String()
	assert.Contains(t, body, "只读模式")
	assert.NotContains(t, body, "GM编辑模式")
	assert.Contains(t, body, "Seraphine")
	assert.Contains(t, body, "Thorn")
	// 只读页面没有编辑表单
	assert.NotContains(t, body, "/tracker/save")
	assert.NotContains(t, body, "/export.csv")
}

func TestDashboardEditMode(t *testing.T) {
	router, _ := newTestRouter(t, seedRoster())

	w := doGet(router, "/?key="+testEditKey)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "GM编辑模式")
	assert.Contains(t, body, "/tracker/save")
	assert.Contains(t, body, "/tracker/rows")
	assert.Contains(t, body, "/export.csv?key="+testEditKey)
	// 网格里是可编辑的输入框
	assert.Contains(t, body, `value="Seraphine"`)
}

func TestDashboardWrongKeyStaysReadOnly(t *testing.T) {
	router, _ := newTestRouter(t, seedRoster())

	for _, key := range []string{"GM-SECRET", "gm-secret2", "x"} {
		w := doGet(router, "/?key="+key)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "只读模式", "密钥 %q 不应进入编辑模式", key)
	}
}

func TestDashboardCharacterCard(t *testing.T) {
	router, _ := newTestRouter(t, seedRoster())

	w := doGet(router, "/?character=Seraphine")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Lv 5")
	assert.Contains(t, body, "Waterdeep")
	assert.Contains(t, body, "Fought the lich in the sewers")

	// 未知角色不渲染卡片，页面照常
	w = doGet(router, "/?character=Nobody")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Lv 5")
}

func TestDashboardFlashMessages(t *testing.T) {
	router, _ := newTestRouter(t, seedRoster())

	w := doGet(router, "/?msg=saved")
	assert.Contains(t, w.Body.String(), "已保存全部修改")

	// 白名单外的msg不显示
	w = doGet(router, "/?msg=bogus")
	assert.NotContains(t, w.Body.String(), `<div class="banner banner-ok">`)

	w = doGet(router, "/?alert="+url.QueryEscape("后端写入失败"))
	assert.Contains(t, w.Body.String(), "后端写入失败")
}

func TestEditActionsRequireKey(t *testing.T) {
	router, path := newTestRouter(t, seedRoster())

	targets := []struct {
		method string
		target string
	}{
		{http.MethodPost, "/tracker/rows"},
		{http.MethodPost, "/tracker/save"},
		{http.MethodPost, "/tracker/delete"},
		{http.MethodGet, "/export.csv"},
	}
	for _, tc := range targets {
		var w *httptest.ResponseRecorder
		if tc.method == http.MethodGet {
			w = doGet(router, tc.target)
		} else {
			w = doForm(router, tc.target, url.Values{"Player": {"Mallory"}})
		}
		require.Equal(t, http.StatusForbidden, w.Code, "%s %s", tc.method, tc.target)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "EDIT_FORBIDDEN", resp["code"])
	}

	// 数据不应被动过
	assert.Equal(t, 2, readBack(t, path).Len())
}

func TestAddRow(t *testing.T) {
	router, path := newTestRouter(t, seedRoster())

	form := url.Values{
		"key":       {testEditKey},
		"Player":    {"Cara"},
		"Character": {"Vex"},
		"Level":     {"3.0"}, // 数值清洗成整数
		"XP":        {""},
		"Location":  {"Neverwinter"},
	}
	w := doForm(router, "/tracker/rows", form)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?key=gm-secret&msg=added", w.Header().Get("Location"))

	roster := readBack(t, path)
	require.Equal(t, 3, roster.Len())
	added := roster.Records[2]
	assert.Equal(t, "Vex", added.Character)
	assert.Equal(t, "3", added.Level)
	assert.Equal(t, "", added.XP)
	assert.Equal(t, "Neverwinter", added.Location)
}

func TestSaveAll(t *testing.T) {
	router, path := newTestRouter(t, seedRoster())

	// 两行网格整体提交，每列同名取数组
	form := url.Values{
		"key":                {testEditKey},
		"Player":             {"Anna", "Ben"},
		"Character":          {"Seraphine", "Thorn"},
		"Level":              {"6.0", "4"},
		"XP":                 {"7100", "4200"},
		"Session Date":       {"2024-03-08", "2024-03-08"},
		"Location":           {"Undermountain", ""},
		"What Happened Last": {"Descended to level two", ""},
		"Quest Hooks":        {"", ""},
		"Loot/Rewards":       {"", ""},
		// 勾选框的值混在同一表单里，保存动作应忽略
		"row": {"0"},
	}
	w := doForm(router, "/tracker/save", form)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?key=gm-secret&msg=saved", w.Header().Get("Location"))

	roster := readBack(t, path)
	require.Equal(t, 2, roster.Len())
	assert.Equal(t, "6", roster.Records[0].Level)
	assert.Equal(t, "Undermountain", roster.Records[0].Location)
	assert.Equal(t, "Thorn", roster.Records[1].Character)
}

func TestDeleteRows(t *testing.T) {
	router, path := newTestRouter(t, seedRoster())

	form := url.Values{
		"key": {testEditKey},
		"row": {"0", "abc"}, // 非数字的下标忽略
	}
	w := doForm(router, "/tracker/delete", form)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?key=gm-secret&msg=deleted", w.Header().Get("Location"))

	roster := readBack(t, path)
	require.Equal(t, 1, roster.Len())
	assert.Equal(t, "Thorn", roster.Records[0].Character)
}

func TestDeleteRowsNoHit(t *testing.T) {
	router, path := newTestRouter(t, seedRoster())

	form := url.Values{
		"key": {testEditKey},
		"row": {"99"},
	}
	w := doForm(router, "/tracker/delete", form)

	// 没有命中任何行：跳转但不带提示
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?key=gm-secret", w.Header().Get("Location"))
	assert.Equal(t, 2, readBack(t, path).Len())
}

func TestExportCSV(t *testing.T) {
	router, path := newTestRouter(t, seedRoster())

	w := doGet(router, "/export.csv?key="+testEditKey)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Equal(t, "attachment; filename=campaign_tracker.csv", w.Header().Get("Content-Disposition"))

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(onDisk), w.Body.String())
}

func TestHealthCheck(t *testing.T) {
	router, _ := newTestRouter(t, seedRoster())

	w := doGet(router, "/health")

	require.Equal(t, http.StatusOK, w.Code)
	var health tracker.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "file", health.Backend)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 2, health.Rows)
}

func TestRosterAPI(t *testing.T) {
	router, _ := newTestRouter(t, seedRoster())

	w := doGet(router, "/api/v1/roster")

	require.Equal(t, http.StatusOK, w.Code)
	var resp RosterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "file", resp.Backend)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Records, 2)
	assert.Equal(t, "Seraphine", resp.Records[0].Character)
	assert.Equal(t, "6500", resp.Records[0].XP)
}

func TestCharacterAPI(t *testing.T) {
	router, _ := newTestRouter(t, seedRoster())

	w := doGet(router, "/api/v1/roster/Thorn")
	require.Equal(t, http.StatusOK, w.Code)
	var rec models.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "Ben", rec.Player)
	assert.Equal(t, "4", rec.Level)

	// 角色名区分大小写
	w = doGet(router, "/api/v1/roster/thorn")
	require.Equal(t, http.StatusNotFound, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "E1002", resp.Code)
}

func TestNoRoute(t *testing.T) {
	router, _ := newTestRouter(t, seedRoster())

	w := doGet(router, "/definitely/not/here")

	require.Equal(t, http.StatusNotFound, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp["code"])
}

func TestRequestIDHeader(t *testing.T) {
	router, _ := newTestRouter(t, seedRoster())

	w := doGet(router, "/health")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestStartupWarningBanner(t *testing.T) {
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "tracker.csv")
	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.Storage.File.Path = path

	log := zap.NewNop()
	store, _ := storage.Select(context.Background(), &cfg.Storage, log)
	warnings := []storage.Warning{{Backend: "gist", Err: assert.AnError}}

	router := NewRouter(tracker.New(store, log), cfg, warnings, log)

	w := doGet(router, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "后端 gist 不可用")
}
