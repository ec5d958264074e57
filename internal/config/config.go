package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Tracker TrackerConfig `mapstructure:"tracker"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig 存储后端配置
// 三个后端按固定优先级选用：gist > sheets > file
type StorageConfig struct {
	Gist   GistConfig   `mapstructure:"gist"`
	Sheets SheetsConfig `mapstructure:"sheets"`
	File   FileConfig   `mapstructure:"file"`
}

// GistConfig 远程片段后端配置
type GistConfig struct {
	Token    string        `mapstructure:"token"`    // Bearer令牌
	ID       string        `mapstructure:"id"`       // 文档标识
	Filename string        `mapstructure:"filename"` // 文档内的文件名
	APIURL   string        `mapstructure:"api_url"`  // 测试或自建镜像时覆盖
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Configured 必需项是否齐全
func (c *GistConfig) Configured() bool {
	return c.Token != "" && c.ID != ""
}

// SheetsConfig 电子表格后端配置
type SheetsConfig struct {
	CredentialsJSON string        `mapstructure:"credentials_json"` // 服务账号JSON内容
	Spreadsheet     string        `mapstructure:"spreadsheet"`      // 表格名称或URL
	Worksheet       string        `mapstructure:"worksheet"`        // 工作表标签名
	APIURL          string        `mapstructure:"api_url"`
	DriveURL        string        `mapstructure:"drive_url"`
	TokenURL        string        `mapstructure:"token_url"` // 为空时用服务账号JSON里的token_uri
	Timeout         time.Duration `mapstructure:"timeout"`
}

// Configured 必需项是否齐全
func (c *SheetsConfig) Configured() bool {
	return c.CredentialsJSON != "" && c.Spreadsheet != ""
}

// FileConfig 本地CSV后端配置
// 无需任何凭据，作为无条件兜底
type FileConfig struct {
	Path string `mapstructure:"path"`
}

// TrackerConfig 跟踪器配置
type TrackerConfig struct {
	EditKey string `mapstructure:"edit_key"` // GM编辑密钥，空表示永远只读
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Output  string            `mapstructure:"output"`
	File    LogFileConfig     `mapstructure:"file"`
	Modules map[string]string `mapstructure:"modules"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
	v    *viper.Viper
)

// Init 初始化配置
func Init(configPath string) error {
	var err error
	once.Do(func() {
		v = newViper(configPath)
		cfg, err = load(v)
	})

	return err
}

// newViper 构建viper实例：文件路径、环境变量、默认值
func newViper(configPath string) *viper.Viper {
	v := viper.New()

	// 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// 设置环境变量前缀
	v.SetEnvPrefix("CAMPAIGN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 兼容旧部署的环境变量名
	bindLegacyEnv(v)

	// 设置默认值
	setDefaults(v)

	return v
}

// load 读取并解析配置
func load(v *viper.Viper) (*Config, error) {
	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在，使用默认配置
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// 解析配置到结构体
	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, err
	}

	normalize(c)
	return c, nil
}

// bindLegacyEnv 绑定旧版环境变量名
// 旧部署用 GSHEETS_SA_JSON / EDIT_KEY 这类不带前缀的名字
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("storage.gist.token", "CAMPAIGN_STORAGE_GIST_TOKEN", "GIST_TOKEN")
	_ = v.BindEnv("storage.gist.id", "CAMPAIGN_STORAGE_GIST_ID", "GIST_ID")
	_ = v.BindEnv("storage.gist.filename", "CAMPAIGN_STORAGE_GIST_FILENAME", "GIST_FILENAME")
	_ = v.BindEnv("storage.sheets.credentials_json", "CAMPAIGN_STORAGE_SHEETS_CREDENTIALS_JSON", "GSHEETS_SA_JSON")
	_ = v.BindEnv("storage.sheets.spreadsheet", "CAMPAIGN_STORAGE_SHEETS_SPREADSHEET", "GSHEETS_SHEET_NAME")
	_ = v.BindEnv("tracker.edit_key", "CAMPAIGN_TRACKER_EDIT_KEY", "EDIT_KEY")
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// 存储后端默认配置
	v.SetDefault("storage.gist.token", "")
	v.SetDefault("storage.gist.id", "")
	v.SetDefault("storage.gist.filename", "campaign_tracker.csv")
	v.SetDefault("storage.gist.api_url", "https://api.github.com")
	v.SetDefault("storage.gist.timeout", "15s")
	v.SetDefault("storage.sheets.credentials_json", "")
	v.SetDefault("storage.sheets.spreadsheet", "")
	v.SetDefault("storage.sheets.worksheet", "Tracker")
	v.SetDefault("storage.sheets.api_url", "https://sheets.googleapis.com")
	v.SetDefault("storage.sheets.drive_url", "https://www.googleapis.com")
	v.SetDefault("storage.sheets.token_url", "")
	v.SetDefault("storage.sheets.timeout", "20s")
	v.SetDefault("storage.file.path", "campaign_tracker.csv")

	// 跟踪器默认配置
	v.SetDefault("tracker.edit_key", "")

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "both")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "campaign-tracker.log")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.compress", true)
}

// normalize 配置后处理
// 密钥和文件名去除首尾空白，避免复制粘贴引入的不可见字符
func normalize(c *Config) {
	c.Tracker.EditKey = strings.TrimSpace(c.Tracker.EditKey)
	c.Storage.Gist.Token = strings.TrimSpace(c.Storage.Gist.Token)
	c.Storage.Gist.ID = strings.TrimSpace(c.Storage.Gist.ID)
	c.Storage.Gist.Filename = strings.TrimSpace(c.Storage.Gist.Filename)
	c.Storage.Sheets.Spreadsheet = strings.TrimSpace(c.Storage.Sheets.Spreadsheet)
	c.Storage.Sheets.Worksheet = strings.TrimSpace(c.Storage.Sheets.Worksheet)
	if c.Storage.Gist.Filename == "" {
		c.Storage.Gist.Filename = "campaign_tracker.csv"
	}
	if c.Storage.Sheets.Worksheet == "" {
		c.Storage.Sheets.Worksheet = "Tracker"
	}
	if c.Storage.File.Path == "" {
		c.Storage.File.Path = "campaign_tracker.csv"
	}
}

// Get 获取配置实例
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch 监听配置文件变化
func Watch(callback func(*Config)) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		mu.Lock()
		defer mu.Unlock()

		newCfg := &Config{}
		if err := v.Unmarshal(newCfg); err != nil {
			fmt.Printf("配置重载失败: %v\n", err)
			return
		}

		normalize(newCfg)
		cfg = newCfg

		if callback != nil {
			callback(cfg)
		}

		fmt.Println("配置已重新加载")
	})
}

// GetString 获取字符串配置
func GetString(key string) string {
	return v.GetString(key)
}

// GetInt 获取整数配置
func GetInt(key string) int {
	return v.GetInt(key)
}

// GetBool 获取布尔配置
func GetBool(key string) bool {
	return v.GetBool(key)
}

// GetDuration 获取时间间隔配置
func GetDuration(key string) time.Duration {
	return v.GetDuration(key)
}

// IsSet 检查配置项是否存在
func IsSet(key string) bool {
	return v.IsSet(key)
}

// Set 动态设置配置值
func Set(key string, value interface{}) {
	v.Set(key, value)
}
