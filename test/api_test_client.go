package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// 手动冒烟测试客户端：对着跑起来的服务器把主要动作过一遍
// 用法: go run ./test -base http://localhost:8080 -key <编辑密钥>
// 不带 -key 时只跑只读部分

// RosterRecord 与服务端JSON字段对应
type RosterRecord struct {
	Player    string `json:"player"`
	Character string `json:"character"`
	Level     string `json:"level"`
	XP        string `json:"xp"`
}

// RosterResponse 全表响应
type RosterResponse struct {
	Backend string         `json:"backend"`
	Count   int            `json:"count"`
	Records []RosterRecord `json:"records"`
}

// TrackerTestClient 跟踪器测试客户端
type TrackerTestClient struct {
	BaseURL    string
	EditKey    string
	HTTPClient *http.Client
}

// NewTrackerTestClient 创建测试客户端
func NewTrackerTestClient(baseURL, editKey string) *TrackerTestClient {
	return &TrackerTestClient{
		BaseURL: baseURL,
		EditKey: editKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			// 编辑动作成功时返回303跳转，这里要看原始状态码
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// TestHealthCheck 测试健康检查
func (c *TrackerTestClient) TestHealthCheck() error {
	fmt.Println("🏥 测试健康检查...")

	resp, err := c.HTTPClient.Get(c.BaseURL + "/health")
	if err != nil {
		return fmt.Errorf("请求失败: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %v", err)
	}

	var health map[string]interface{}
	if err := json.Unmarshal(body, &health); err != nil {
		return fmt.Errorf("解析响应失败: %v", err)
	}

	fmt.Printf("✅ 后端: %v 状态: %v 行数: %v\n", health["backend"], health["status"], health["rows"])

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("后端降级: %v", health["error"])
	}
	return nil
}

// TestReadOnlyDashboard 测试只读面板
func (c *TrackerTestClient) TestReadOnlyDashboard() error {
	fmt.Println("\n📖 测试只读面板...")

	resp, err := c.HTTPClient.Get(c.BaseURL + "/")
	if err != nil {
		return fmt.Errorf("请求失败: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("状态码 %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "只读模式") {
		return fmt.Errorf("无密钥访问竟然不是只读模式")
	}

	fmt.Println("✅ 无密钥访问渲染为只读视图")
	return nil
}

// TestRosterAPI 测试只读JSON接口，返回当前行数
func (c *TrackerTestClient) TestRosterAPI() (int, error) {
	fmt.Println("\n📋 测试队伍状态接口...")

	resp, err := c.HTTPClient.Get(c.BaseURL + "/api/v1/roster")
	if err != nil {
		return 0, fmt.Errorf("请求失败: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("读取响应失败: %v", err)
	}

	var roster RosterResponse
	if err := json.Unmarshal(body, &roster); err != nil {
		return 0, fmt.Errorf("解析响应失败: %v", err)
	}

	fmt.Printf("✅ 后端: %s 共 %d 行\n", roster.Backend, roster.Count)
	for _, rec := range roster.Records {
		fmt.Printf("   %s (%s) Lv %s XP %s\n", rec.Character, rec.Player, rec.Level, rec.XP)
	}

	return roster.Count, nil
}

// TestEditLockout 测试无密钥时编辑动作被拒
func (c *TrackerTestClient) TestEditLockout() error {
	fmt.Println("\n🔒 测试编辑门...")

	form := url.Values{"Player": {"Mallory"}, "Character": {"Intruder"}}
	resp, err := c.HTTPClient.PostForm(c.BaseURL+"/tracker/rows", form)
	if err != nil {
		return fmt.Errorf("请求失败: %v", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusForbidden {
		return fmt.Errorf("无密钥编辑竟然返回 %d，应为403", resp.StatusCode)
	}

	fmt.Println("✅ 无密钥编辑动作被拒绝 (403)")
	return nil
}

// TestAddRow 测试添加一行
func (c *TrackerTestClient) TestAddRow() error {
	fmt.Println("\n✏️  测试添加新行...")

	form := url.Values{
		"key":       {c.EditKey},
		"Player":    {"smoke-test"},
		"Character": {"Smokey"},
		"Level":     {"1.0"},
		"Location":  {"Test Harbor"},
	}
	resp, err := c.HTTPClient.PostForm(c.BaseURL+"/tracker/rows", form)
	if err != nil {
		return fmt.Errorf("请求失败: %v", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusSeeOther {
		return fmt.Errorf("状态码 %d，应为303", resp.StatusCode)
	}

	fmt.Println("✅ 新行已添加 (Smokey)")
	return nil
}

// TestCharacterAPI 测试单角色查询
func (c *TrackerTestClient) TestCharacterAPI(name string) error {
	fmt.Printf("\n🔍 测试单角色查询 (%s)...\n", name)

	resp, err := c.HTTPClient.Get(c.BaseURL + "/api/v1/roster/" + url.PathEscape(name))
	if err != nil {
		return fmt.Errorf("请求失败: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("状态码 %d: %s", resp.StatusCode, string(body))
	}

	var rec RosterRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return fmt.Errorf("解析响应失败: %v", err)
	}

	fmt.Printf("✅ %s: 玩家 %s, Lv %s（数值列已清洗）\n", rec.Character, rec.Player, rec.Level)
	return nil
}

// TestDeleteRow 测试删除指定下标的行
func (c *TrackerTestClient) TestDeleteRow(index int) error {
	fmt.Printf("\n🗑  测试删除行 #%d...\n", index)

	form := url.Values{
		"key": {c.EditKey},
		"row": {fmt.Sprintf("%d", index)},
	}
	resp, err := c.HTTPClient.PostForm(c.BaseURL+"/tracker/delete", form)
	if err != nil {
		return fmt.Errorf("请求失败: %v", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusSeeOther {
		return fmt.Errorf("状态码 %d，应为303", resp.StatusCode)
	}

	fmt.Println("✅ 行已删除")
	return nil
}

// TestExportCSV 测试CSV导出
func (c *TrackerTestClient) TestExportCSV() error {
	fmt.Println("\n📦 测试CSV导出...")

	resp, err := c.HTTPClient.Get(c.BaseURL + "/export.csv?key=" + url.QueryEscape(c.EditKey))
	if err != nil {
		return fmt.Errorf("请求失败: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("状态码 %d", resp.StatusCode)
	}

	disposition := resp.Header.Get("Content-Disposition")
	if !strings.Contains(disposition, "campaign_tracker.csv") {
		return fmt.Errorf("Content-Disposition 异常: %s", disposition)
	}

	lines := strings.Count(string(body), "\n")
	fmt.Printf("✅ 导出成功: %d 字节, %d 行（含表头）\n", len(body), lines)
	return nil
}

// RunAllTests 运行所有测试
func (c *TrackerTestClient) RunAllTests() {
	fmt.Println("🚀 开始冒烟测试...")
	fmt.Printf("🎯 目标服务器: %s\n", c.BaseURL)
	fmt.Println(strings.Repeat("=", 60))

	baseline := -1

	tests := []struct {
		name     string
		needsKey bool
		fn       func() error
	}{
		{"健康检查", false, c.TestHealthCheck},
		{"只读面板", false, c.TestReadOnlyDashboard},
		{"队伍状态接口", false, func() error {
			count, err := c.TestRosterAPI()
			baseline = count
			return err
		}},
		{"编辑门", false, c.TestEditLockout},
		{"添加新行", true, c.TestAddRow},
		{"单角色查询", true, func() error { return c.TestCharacterAPI("Smokey") }},
		{"删除新行", true, func() error { return c.TestDeleteRow(baseline) }},
		{"CSV导出", true, c.TestExportCSV},
	}

	successCount := 0
	total := 0
	for _, test := range tests {
		if test.needsKey && c.EditKey == "" {
			fmt.Printf("⏭  跳过 %s（未提供 -key）\n", test.name)
			continue
		}
		total++
		if err := test.fn(); err != nil {
			fmt.Printf("❌ %s失败: %v\n", test.name, err)
		} else {
			successCount++
		}
		time.Sleep(200 * time.Millisecond)
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("📊 测试结果: %d/%d 通过\n", successCount, total)

	if successCount == total {
		fmt.Println("🎉 所有冒烟测试通过!")
	} else {
		fmt.Printf("⚠️  有 %d 个测试失败，请检查服务器状态\n", total-successCount)
	}
}

func main() {
	base := flag.String("base", "http://localhost:8080", "服务器地址")
	key := flag.String("key", "", "GM编辑密钥，空则只跑只读部分")
	flag.Parse()

	fmt.Println("🎲 战役跟踪器冒烟测试客户端")
	fmt.Println("================================")

	client := NewTrackerTestClient(*base, *key)
	client.RunAllTests()
}
