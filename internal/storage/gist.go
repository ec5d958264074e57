package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wfunc/campaign-tracker/internal/config"
	"github.com/wfunc/campaign-tracker/internal/errors"
	"github.com/wfunc/campaign-tracker/internal/models"
)

// gistStore 远程片段后端
// 读取分两步：先GET文档元数据定位命名文件，内容被截断时再GET原始地址；
// 写入用PATCH整体替换命名文件的内容
type gistStore struct {
	cfg    *config.GistConfig
	client *http.Client
}

// gistDocument 文档元数据里本服务关心的部分
type gistDocument struct {
	Files map[string]gistFile `json:"files"`
}

// gistFile 文档内的单个文件
type gistFile struct {
	Filename  string `json:"filename"`
	RawURL    string `json:"raw_url"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
}

func newGistStore(cfg *config.GistConfig) *gistStore {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &gistStore{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// connectGistStore 创建远程片段后端并用一次元数据请求探测可用性
func connectGistStore(ctx context.Context, cfg *config.GistConfig) (Store, error) {
	store := newGistStore(cfg)
	if _, err := store.fetchDocument(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// Name 后端名称
func (s *gistStore) Name() string {
	return "gist"
}

// documentURL 文档元数据地址
func (s *gistStore) documentURL() string {
	return fmt.Sprintf("%s/gists/%s", s.cfg.APIURL, s.cfg.ID)
}

// Read 读取并解析片段内容
func (s *gistStore) Read(ctx context.Context) (*models.Roster, error) {
	doc, err := s.fetchDocument(ctx)
	if err != nil {
		return nil, err
	}

	file, ok := doc.Files[s.cfg.Filename]
	if !ok {
		// 命名文件还没建立，当作空表
		return models.NewRoster(), nil
	}

	content := file.Content
	// 大文件的元数据只带截断内容，完整内容要再取一次原始地址
	if file.Truncated && file.RawURL != "" {
		content, err = s.fetchRaw(ctx, file.RawURL)
		if err != nil {
			return nil, err
		}
	}

	roster, err := models.DecodeCSV([]byte(content))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDataParse)
	}
	return roster, nil
}

// Write 用PATCH替换命名文件内容
func (s *gistStore) Write(ctx context.Context, roster *models.Roster) error {
	data, err := roster.EncodeCSV()
	if err != nil {
		return errors.Wrap(err, errors.ErrDataEncode)
	}

	payload := map[string]interface{}{
		"files": map[string]interface{}{
			s.cfg.Filename: map[string]string{
				"content": string(data),
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrDataEncode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, s.documentURL(), bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, errors.ErrBackendRequest)
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrBackendUnavailable)
	}
	defer resp.Body.Close()

	return s.checkStatus(resp)
}

// fetchDocument 拉取文档元数据
func (s *gistStore) fetchDocument(ctx context.Context) (*gistDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.documentURL(), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrBackendRequest)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrBackendUnavailable)
	}
	defer resp.Body.Close()

	if err := s.checkStatus(resp); err != nil {
		return nil, err
	}

	var doc gistDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrBackendResponse)
	}
	return &doc, nil
}

// fetchRaw 拉取原始内容
func (s *gistStore) fetchRaw(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrBackendRequest)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrBackendUnavailable)
	}
	defer resp.Body.Close()

	if err := s.checkStatus(resp); err != nil {
		return "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrBackendResponse)
	}
	return string(body), nil
}

// setHeaders 设置请求头，原始地址的请求也带Bearer授权
func (s *gistStore) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
}

// checkStatus 把HTTP状态码映射到错误码
func (s *gistStore) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.Newf(errors.ErrBackendAuth, "片段接口返回 %d", resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return errors.Newf(errors.ErrSnippetNotFound, "文档 %s 不存在", s.cfg.ID)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return errors.Newf(errors.ErrBackendRequest, "片段接口返回 %d: %s", resp.StatusCode, string(body))
	}
}
