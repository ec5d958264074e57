package tracker

import (
	"context"
	"time"

	"github.com/wfunc/campaign-tracker/internal/logger"
	"github.com/wfunc/campaign-tracker/internal/models"
	"github.com/wfunc/campaign-tracker/internal/storage"
	"go.uber.org/zap"
)

// ExportFilename CSV下载动作使用的文件名
const ExportFilename = "campaign_tracker.csv"

// Health 后端健康视图
type Health struct {
	Backend string `json:"backend"`
	Status  string `json:"status"` // healthy / degraded
	Rows    int    `json:"rows"`
	Error   string `json:"error,omitempty"`
}

// Service 跟踪器领域服务
// 处理器保持薄：读写、规整、导出都经过这里
type Service interface {
	// Backend 当前存储后端名称
	Backend() string
	// Load 读取全表并做数值清洗
	// 读取失败时返回空表和非致命错误，调用方把错误当警告横幅展示
	Load(ctx context.Context) (*models.Roster, error)
	// Save 清洗每一行后整表覆盖保存
	Save(ctx context.Context, roster *models.Roster) error
	// AddRow 模板合并出新行追加后保存，未知键丢弃、缺失键补空
	AddRow(ctx context.Context, raw map[string]string) error
	// DeleteRows 删除指定下标的行并保存，返回实际删除的行数
	DeleteRows(ctx context.Context, indices []int) (int, error)
	// ExportCSV 导出规范CSV字节
	ExportCSV(ctx context.Context) ([]byte, error)
	// Ping 后端健康检查
	Ping(ctx context.Context) *Health
}

type service struct {
	store storage.Store
	log   *zap.Logger
}

// New 创建跟踪器服务
// 后端在进程启动时选定后注入，不在请求路径上重选
func New(store storage.Store, log *zap.Logger) Service {
	return &service{store: store, log: log}
}

func (s *service) Backend() string {
	return s.store.Name()
}

func (s *service) Load(ctx context.Context) (*models.Roster, error) {
	roster, err := s.read(ctx)
	if err != nil {
		// 读取失败降级为空表，页面照常渲染并带上警告
		s.log.Warn("读取失败，降级为空表",
			zap.String("backend", s.store.Name()),
			zap.Error(err),
		)
		return models.NewRoster(), err
	}
	return roster, nil
}

func (s *service) Save(ctx context.Context, roster *models.Roster) error {
	roster.Coerce()
	return s.write(ctx, roster, "save")
}

func (s *service) AddRow(ctx context.Context, raw map[string]string) error {
	// 编辑前读不到当前数据时中止，避免整表覆盖掉看不见的行
	roster, err := s.read(ctx)
	if err != nil {
		return err
	}
	roster.Add(raw)
	roster.Coerce()
	return s.write(ctx, roster, "add")
}

func (s *service) DeleteRows(ctx context.Context, indices []int) (int, error) {
	roster, err := s.read(ctx)
	if err != nil {
		return 0, err
	}
	deleted := roster.DeleteRows(indices)
	if deleted == 0 {
		// 没有命中任何行就不必重写介质
		return 0, nil
	}
	if err := s.write(ctx, roster, "delete"); err != nil {
		return 0, err
	}
	return deleted, nil
}

func (s *service) ExportCSV(ctx context.Context) ([]byte, error) {
	roster, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return roster.EncodeCSV()
}

func (s *service) Ping(ctx context.Context) *Health {
	roster, err := s.store.Read(ctx)
	if err != nil {
		return &Health{
			Backend: s.store.Name(),
			Status:  "degraded",
			Error:   err.Error(),
		}
	}
	return &Health{
		Backend: s.store.Name(),
		Status:  "healthy",
		Rows:    roster.Len(),
	}
}

// read 读取并清洗全表
func (s *service) read(ctx context.Context) (*models.Roster, error) {
	start := time.Now()
	roster, err := s.store.Read(ctx)
	if err != nil {
		logger.LogStorageOperation(s.store.Name(), "read", 0, time.Since(start), err)
		return nil, err
	}
	roster.Coerce()
	logger.LogStorageOperation(s.store.Name(), "read", roster.Len(), time.Since(start), nil)
	return roster, nil
}

// write 整表覆盖写入
func (s *service) write(ctx context.Context, roster *models.Roster, op string) error {
	start := time.Now()
	err := s.store.Write(ctx, roster)
	logger.LogStorageOperation(s.store.Name(), op, roster.Len(), time.Since(start), err)
	return err
}
