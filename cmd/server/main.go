package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/wfunc/campaign-tracker/internal/api"
	"github.com/wfunc/campaign-tracker/internal/config"
	"github.com/wfunc/campaign-tracker/internal/logger"
	"github.com/wfunc/campaign-tracker/internal/storage"
	"github.com/wfunc/campaign-tracker/internal/tracker"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg        *config.Config
	logger     *zap.Logger
	store      storage.Store
	warnings   []storage.Warning
	httpServer *http.Server

	// 关闭控制
	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	// 命令行参数
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	// 显示版本信息
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// 显示帮助信息
	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	// 打印启动信息
	printStartInfo(cfg)

	// 创建服务器实例
	server := NewServer(cfg)

	// 启动服务器
	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	// 等待退出信号
	server.WaitForShutdown()

	// 优雅关闭
	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:    cfg,
		logger: logger.GetLogger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动战役跟踪服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	// 启动时选定存储后端，探测失败的逐个回退并记警告
	// 选择结果在进程生命周期内固定，换后端需要重启
	store, warnings := storage.Select(s.ctx, &s.cfg.Storage, s.logger)
	s.store = store
	s.warnings = warnings
	for _, w := range warnings {
		logger.LogBackendFallback(w.Backend, w.Err)
	}

	if s.cfg.Tracker.EditKey == "" {
		s.logger.Warn("未配置编辑密钥，面板永远处于只读模式")
	}

	svc := tracker.New(store, s.logger)
	router := api.NewRouter(svc, s.cfg, warnings, s.logger)

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router.GetEngine(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP服务器异常退出", zap.Error(err))
			s.cancel()
		}
	}()

	// 监听配置变化
	// 存储后端和编辑密钥在启动时固定，这里只提示不热切换
	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置文件已变化，存储后端与密钥类改动需重启生效")
	})

	s.logger.Info("服务器启动成功",
		zap.String("http", addr),
		zap.String("backend", store.Name()),
		zap.Int("fallback_warnings", len(warnings)),
	)

	return nil
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)

	signal.Notify(sigCh,
		syscall.SIGINT,  // Ctrl+C
		syscall.SIGTERM, // kill命令
		syscall.SIGQUIT, // Ctrl+\
	)

	select {
	case sig := <-sigCh:
		s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
	case <-s.ctx.Done():
		s.logger.Warn("服务器内部退出")
	}
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 停止接收新请求，等待存量请求完成
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP服务器关闭超时", zap.Error(err))
		}
	}

	s.cancel()

	// 同步日志
	if err := logger.Sync(); err != nil {
		fmt.Printf("同步日志失败: %v\n", err)
	}

	return nil
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("战役跟踪服务器\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("战役跟踪服务器")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  campaign-tracker [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  CAMPAIGN_TRACKER_EDIT_KEY              GM编辑密钥（兼容旧名 EDIT_KEY）")
	fmt.Println("  CAMPAIGN_STORAGE_GIST_TOKEN            远程片段后端令牌（兼容旧名 GIST_TOKEN）")
	fmt.Println("  CAMPAIGN_STORAGE_GIST_ID               远程片段文档ID（兼容旧名 GIST_ID）")
	fmt.Println("  CAMPAIGN_STORAGE_SHEETS_CREDENTIALS_JSON  服务账号JSON（兼容旧名 GSHEETS_SA_JSON）")
	fmt.Println("  CAMPAIGN_STORAGE_SHEETS_SPREADSHEET    电子表格名称或URL（兼容旧名 GSHEETS_SHEET_NAME）")
	fmt.Println()
	fmt.Println("存储后端按 gist > sheets > file 的固定优先级选用，探测失败自动回退。")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  campaign-tracker -config=/path/to/config.yaml")
	fmt.Println("  campaign-tracker -version")
}

// printStartInfo 打印启动信息
func printStartInfo(cfg *config.Config) {
	banner := `
╔═══════════════════════════════════════════════════════════════╗
║                                                               ║
║     _____                           _                         ║
║    /  __ \                         (_)                        ║
║    | /  \/ __ _ _ __ ___  _ __   __ _  __ _ _ __             ║
║    | |    / _` + "`" + ` | '_ ` + "`" + ` _ \| '_ \ / _` + "`" + ` |/ _` + "`" + ` | '_ \            ║
║    | \__/\ (_| | | | | | | |_) | (_| | (_| | | | |           ║
║     \____/\__,_|_| |_| |_| .__/ \__,_|\__, |_| |_|           ║
║                          | |          __/ |                  ║
║                          |_|         |___/   Tracker         ║
║                                                               ║
║                     跑团战役跟踪服务器                        ║
║                                                               ║
╚═══════════════════════════════════════════════════════════════╝
`
	fmt.Println(banner)
	fmt.Printf("版本: %s | 模式: %s | PID: %d\n", Version, cfg.Server.Mode, os.Getpid())
	fmt.Println("═══════════════════════════════════════════════════════════════")
}
