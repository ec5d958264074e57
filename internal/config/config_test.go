package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadDefaults 测试无配置文件时使用默认值
func TestLoadDefaults(t *testing.T) {
	c, err := load(newViper(""))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", c.Server.Host)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "campaign_tracker.csv", c.Storage.File.Path)
	assert.Equal(t, "campaign_tracker.csv", c.Storage.Gist.Filename)
	assert.Equal(t, "Tracker", c.Storage.Sheets.Worksheet)
	assert.Equal(t, "https://api.github.com", c.Storage.Gist.APIURL)
	assert.Equal(t, "", c.Tracker.EditKey)
	assert.Equal(t, "info", c.Log.Level)
}

// TestLoadFromFile 测试从YAML文件加载
func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
storage:
  gist:
    token: tok-123
    id: doc-456
tracker:
  edit_key: secret
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c, err := load(newViper(path))
	require.NoError(t, err)

	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, "tok-123", c.Storage.Gist.Token)
	assert.Equal(t, "doc-456", c.Storage.Gist.ID)
	assert.Equal(t, "secret", c.Tracker.EditKey)
	// 未覆盖的键保持默认
	assert.Equal(t, "0.0.0.0", c.Server.Host)
}

// TestEnvOverride 测试带前缀的环境变量覆盖
func TestEnvOverride(t *testing.T) {
	t.Setenv("CAMPAIGN_SERVER_PORT", "7070")
	t.Setenv("CAMPAIGN_TRACKER_EDIT_KEY", "env-key")

	c, err := load(newViper(""))
	require.NoError(t, err)

	assert.Equal(t, 7070, c.Server.Port)
	assert.Equal(t, "env-key", c.Tracker.EditKey)
}

// TestLegacyEnvAliases 测试旧版环境变量名兼容
func TestLegacyEnvAliases(t *testing.T) {
	t.Setenv("GSHEETS_SA_JSON", `{"client_email":"x@y.iam"}`)
	t.Setenv("GSHEETS_SHEET_NAME", "My Campaign")
	t.Setenv("GIST_TOKEN", "legacy-token")
	t.Setenv("GIST_ID", "legacy-id")
	t.Setenv("EDIT_KEY", "legacy-key")

	c, err := load(newViper(""))
	require.NoError(t, err)

	assert.Equal(t, `{"client_email":"x@y.iam"}`, c.Storage.Sheets.CredentialsJSON)
	assert.Equal(t, "My Campaign", c.Storage.Sheets.Spreadsheet)
	assert.Equal(t, "legacy-token", c.Storage.Gist.Token)
	assert.Equal(t, "legacy-id", c.Storage.Gist.ID)
	assert.Equal(t, "legacy-key", c.Tracker.EditKey)
	assert.True(t, c.Storage.Gist.Configured())
	assert.True(t, c.Storage.Sheets.Configured())
}

// TestNormalize 测试配置后处理
func TestNormalize(t *testing.T) {
	t.Run("去除密钥空白", func(t *testing.T) {
		c := &Config{}
		c.Tracker.EditKey = "  secret \n"
		normalize(c)
		assert.Equal(t, "secret", c.Tracker.EditKey)
	})

	t.Run("空文件名回退默认", func(t *testing.T) {
		c := &Config{}
		c.Storage.Gist.Filename = "   "
		c.Storage.Sheets.Worksheet = ""
		normalize(c)
		assert.Equal(t, "campaign_tracker.csv", c.Storage.Gist.Filename)
		assert.Equal(t, "Tracker", c.Storage.Sheets.Worksheet)
		assert.Equal(t, "campaign_tracker.csv", c.Storage.File.Path)
	})
}

// TestConfigured 测试后端配置齐全判断
func TestConfigured(t *testing.T) {
	gist := GistConfig{}
	assert.False(t, gist.Configured())
	gist.Token = "t"
	assert.False(t, gist.Configured()) // 缺少文档ID
	gist.ID = "d"
	assert.True(t, gist.Configured())

	sheets := SheetsConfig{}
	assert.False(t, sheets.Configured())
	sheets.CredentialsJSON = "{}"
	assert.False(t, sheets.Configured()) // 缺少表格名
	sheets.Spreadsheet = "name"
	assert.True(t, sheets.Configured())
}
