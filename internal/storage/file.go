package storage

import (
	"context"
	"os"

	"github.com/wfunc/campaign-tracker/internal/config"
	"github.com/wfunc/campaign-tracker/internal/errors"
	"github.com/wfunc/campaign-tracker/internal/models"
)

// fileStore 本地CSV文件后端
// 文件不存在视为空表；表头行与规范列逐字节一致，
// 保证与其他实现写出的存档互通
type fileStore struct {
	path string
}

// NewFileStore 创建本地文件后端
// 不做任何IO，文件要到第一次写入才会出现
func NewFileStore(cfg *config.FileConfig) Store {
	path := cfg.Path
	if path == "" {
		path = "campaign_tracker.csv"
	}
	return &fileStore{path: path}
}

// Name 后端名称
func (s *fileStore) Name() string {
	return "file"
}

// Read 读取CSV文件
func (s *fileStore) Read(ctx context.Context) (*models.Roster, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		// 还没有存档，返回空表
		if os.IsNotExist(err) {
			return models.NewRoster(), nil
		}
		return nil, errors.Wrapf(err, errors.ErrFileRead, "读取 %s 失败", s.path)
	}

	roster, err := models.DecodeCSV(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrDataParse, "解析 %s 失败", s.path)
	}
	return roster, nil
}

// Write 整表覆盖写入CSV文件
// 写失败时文件可能残缺，但内存中的数据不受影响，
// 调用方把错误原样呈现给用户
func (s *fileStore) Write(ctx context.Context, roster *models.Roster) error {
	data, err := roster.EncodeCSV()
	if err != nil {
		return errors.Wrap(err, errors.ErrDataEncode)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "写入 %s 失败", s.path)
	}
	return nil
}
