package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/wfunc/campaign-tracker/internal/config"
	"github.com/wfunc/campaign-tracker/internal/errors"
	"github.com/wfunc/campaign-tracker/internal/models"
	"github.com/wfunc/campaign-tracker/internal/utils"
)

// spreadsheetURLPattern 从表格分享链接里提取文档ID
var spreadsheetURLPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// sheetsStore 电子表格后端
// 按URL或名称定位表格，命名工作表不存在时创建并写入表头；
// 读取是整表取值，写入是先清空再重写表头和数据行
type sheetsStore struct {
	cfg    *config.SheetsConfig
	tokens *utils.GoogleTokenSource
	client *http.Client

	// 进程生命周期内只解析一次的句柄
	spreadsheetID string
}

// sheetsMetadata 表格元数据里本服务关心的部分
type sheetsMetadata struct {
	Sheets []struct {
		Properties struct {
			Title string `json:"title"`
		} `json:"properties"`
	} `json:"sheets"`
}

// driveFileList 按名称查找表格的响应
type driveFileList struct {
	Files []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"files"`
}

// valueRange 单元格取值和写值的载荷
type valueRange struct {
	Values [][]string `json:"values"`
}

func newSheetsStore(cfg *config.SheetsConfig) (*sheetsStore, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	tokens, err := utils.NewGoogleTokenSource(cfg.CredentialsJSON, cfg.TokenURL, client)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrBackendAuth)
	}

	return &sheetsStore{
		cfg:    cfg,
		tokens: tokens,
		client: client,
	}, nil
}

// connectSheetsStore 创建电子表格后端并探测可用性
// 探测包含定位表格和确保工作表存在，之后的读写不再重复解析
func connectSheetsStore(ctx context.Context, cfg *config.SheetsConfig) (Store, error) {
	store, err := newSheetsStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.resolve(ctx); err != nil {
		return nil, err
	}
	if err := store.ensureWorksheet(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// Name 后端名称
func (s *sheetsStore) Name() string {
	return "sheets"
}

// Read 读取工作表全量单元格并重投影到规范列
func (s *sheetsStore) Read(ctx context.Context) (*models.Roster, error) {
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		s.cfg.APIURL, s.spreadsheetID, url.PathEscape(s.worksheetRange("")))

	var result valueRange
	if err := s.doJSON(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}
	return models.FromTable(result.Values), nil
}

// Write 整表覆盖：先清空工作表，再写表头，最后从A2起批量写数据行
func (s *sheetsStore) Write(ctx context.Context, roster *models.Roster) error {
	clearEndpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:clear",
		s.cfg.APIURL, s.spreadsheetID, url.PathEscape(s.worksheetRange("")))
	if err := s.doJSON(ctx, http.MethodPost, clearEndpoint, map[string]interface{}{}, nil); err != nil {
		return err
	}

	if err := s.updateValues(ctx, "A1", [][]string{models.Columns}); err != nil {
		return err
	}

	if roster.Len() == 0 {
		return nil
	}
	rows := make([][]string, 0, roster.Len())
	for i := range roster.Records {
		rows = append(rows, roster.Records[i].Values())
	}
	return s.updateValues(ctx, "A2", rows)
}

// resolve 确定表格文档ID
// 配置值是分享链接时直接截取，否则按名称查找
func (s *sheetsStore) resolve(ctx context.Context) error {
	if m := spreadsheetURLPattern.FindStringSubmatch(s.cfg.Spreadsheet); m != nil {
		s.spreadsheetID = m[1]
		return nil
	}
	id, err := s.lookupByName(ctx, s.cfg.Spreadsheet)
	if err != nil {
		return err
	}
	s.spreadsheetID = id
	return nil
}

// lookupByName 按名称在云盘里查找表格文档
func (s *sheetsStore) lookupByName(ctx context.Context, name string) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false",
		strings.ReplaceAll(name, "'", `\'`))

	params := url.Values{}
	params.Set("q", query)
	params.Set("fields", "files(id,name)")
	params.Set("pageSize", "10")
	endpoint := fmt.Sprintf("%s/drive/v3/files?%s", s.cfg.DriveURL, params.Encode())

	var result driveFileList
	if err := s.doJSON(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return "", err
	}
	if len(result.Files) == 0 {
		return "", errors.Newf(errors.ErrSheetNotFound, "找不到名为 %s 的表格", name)
	}
	return result.Files[0].ID, nil
}

// ensureWorksheet 确保命名工作表存在
// 不存在时通过batchUpdate创建，并立即写入表头行
func (s *sheetsStore) ensureWorksheet(ctx context.Context) error {
	metaEndpoint := fmt.Sprintf("%s/v4/spreadsheets/%s?fields=sheets.properties",
		s.cfg.APIURL, s.spreadsheetID)

	var meta sheetsMetadata
	if err := s.doJSON(ctx, http.MethodGet, metaEndpoint, nil, &meta); err != nil {
		return err
	}
	for _, sheet := range meta.Sheets {
		if sheet.Properties.Title == s.cfg.Worksheet {
			return nil
		}
	}

	payload := map[string]interface{}{
		"requests": []interface{}{
			map[string]interface{}{
				"addSheet": map[string]interface{}{
					"properties": map[string]interface{}{
						"title": s.cfg.Worksheet,
					},
				},
			},
		},
	}
	batchEndpoint := fmt.Sprintf("%s/v4/spreadsheets/%s:batchUpdate", s.cfg.APIURL, s.spreadsheetID)
	if err := s.doJSON(ctx, http.MethodPost, batchEndpoint, payload, nil); err != nil {
		return errors.Wrap(err, errors.ErrWorksheetCreate)
	}

	return s.updateValues(ctx, "A1", [][]string{models.Columns})
}

// updateValues 从指定起始单元格写入一个矩形区域
func (s *sheetsStore) updateValues(ctx context.Context, startCell string, values [][]string) error {
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?valueInputOption=RAW",
		s.cfg.APIURL, s.spreadsheetID, url.PathEscape(s.worksheetRange(startCell)))
	return s.doJSON(ctx, http.MethodPut, endpoint, valueRange{Values: values}, nil)
}

// worksheetRange 拼A1标记法的区域名
// 工作表名总是加单引号，带空格的名字也能用
func (s *sheetsStore) worksheetRange(cell string) string {
	if cell == "" {
		return fmt.Sprintf("'%s'", s.cfg.Worksheet)
	}
	return fmt.Sprintf("'%s'!%s", s.cfg.Worksheet, cell)
}

// doJSON 发送带访问令牌的JSON请求并解析响应
// out为nil时丢弃响应体
func (s *sheetsStore) doJSON(ctx context.Context, method, endpoint string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, errors.ErrDataEncode)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return errors.Wrap(err, errors.ErrBackendRequest)
	}
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrBackendAuth)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrBackendUnavailable)
	}
	defer resp.Body.Close()

	if err := s.checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.ErrBackendResponse)
	}
	return nil
}

// checkStatus 把HTTP状态码映射到错误码
func (s *sheetsStore) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.Newf(errors.ErrBackendAuth, "表格接口返回 %d", resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return errors.Newf(errors.ErrSheetNotFound, "表格或工作表不存在")
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return errors.Newf(errors.ErrBackendRequest, "表格接口返回 %d: %s", resp.StatusCode, string(body))
	}
}
