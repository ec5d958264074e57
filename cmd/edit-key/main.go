package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/wfunc/campaign-tracker/internal/utils"
)

// 生成GM编辑密钥
// 输出可直接放进 CAMPAIGN_TRACKER_EDIT_KEY 或配置文件的 tracker.edit_key
func main() {
	length := flag.Int("length", 32, "密钥长度")
	flag.Parse()

	if *length < 16 {
		fmt.Fprintln(os.Stderr, "密钥长度至少16，太短容易被穷举")
		os.Exit(1)
	}

	key, err := utils.GenerateRandomString(*length)
	if err != nil {
		fmt.Fprintf(os.Stderr, "生成密钥失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(key)
	fmt.Println()
	fmt.Printf("编辑链接示例: http://localhost:8080/?key=%s\n", key)
}
