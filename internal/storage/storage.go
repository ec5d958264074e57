package storage

import (
	"context"
	"fmt"

	"github.com/wfunc/campaign-tracker/internal/config"
	"github.com/wfunc/campaign-tracker/internal/models"
	"go.uber.org/zap"
)

// Store 存储后端统一契约
// Read返回全量跟踪表，Write整表覆盖；两者都是同步阻塞调用，
// 介质里还没有数据时Read返回空表而不是错误
type Store interface {
	// Name 后端名称
	Name() string
	// Read 读取全量跟踪表
	Read(ctx context.Context) (*models.Roster, error)
	// Write 整表覆盖写入
	Write(ctx context.Context, roster *models.Roster) error
}

// Warning 后端选择过程中产生的非致命警告
// 每个探测失败的后端恰好产生一条
type Warning struct {
	Backend string
	Err     error
}

func (w Warning) String() string {
	return fmt.Sprintf("后端 %s 不可用: %v", w.Backend, w.Err)
}

// Factory 后端工厂
// Configured为假时跳过该后端，不产生警告；
// Build负责构建并探测连接，失败返回错误触发回退
type Factory struct {
	Name       string
	Configured func() bool
	Build      func(ctx context.Context) (Store, error)
}

// Factories 按固定优先级返回后端工厂列表：gist > sheets > file
// 本地文件无需配置，永远排在最后兜底
func Factories(cfg *config.StorageConfig, log *zap.Logger) []Factory {
	return []Factory{
		{
			Name:       "gist",
			Configured: cfg.Gist.Configured,
			Build: func(ctx context.Context) (Store, error) {
				return connectGistStore(ctx, &cfg.Gist)
			},
		},
		{
			Name:       "sheets",
			Configured: cfg.Sheets.Configured,
			Build: func(ctx context.Context) (Store, error) {
				return connectSheetsStore(ctx, &cfg.Sheets)
			},
		},
		{
			Name:       "file",
			Configured: func() bool { return true },
			Build: func(ctx context.Context) (Store, error) {
				return NewFileStore(&cfg.File), nil
			},
		},
	}
}

// Select 依次尝试工厂，返回第一个可用的后端和探测警告
// 选择只在进程启动时做一次，结果通过依赖注入传给使用方；
// 这里不抛错误：未配置的跳过，探测失败的记警告后继续
func Select(ctx context.Context, cfg *config.StorageConfig, log *zap.Logger) (Store, []Warning) {
	var warnings []Warning
	for _, factory := range Factories(cfg, log) {
		if factory.Configured != nil && !factory.Configured() {
			continue
		}

		store, err := factory.Build(ctx)
		if err != nil {
			log.Warn("存储后端探测失败，回退到下一个",
				zap.String("backend", factory.Name),
				zap.Error(err),
			)
			warnings = append(warnings, Warning{Backend: factory.Name, Err: err})
			continue
		}

		log.Info("已选择存储后端", zap.String("backend", store.Name()))
		return store, warnings
	}

	// 文件后端不带探测、不会走到这里，保留兜底让契约显式成立
	return NewFileStore(&cfg.File), warnings
}
