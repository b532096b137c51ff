package main

import (
	"encoding/json"
	"fmt"

	"github.com/RecoveryAshes/StreamLinkcrack/internal/models"
)

// printResult 打印提取结果
func printResult(result *models.ExtractionResult) {
	fmt.Println("\n==================================================")
	fmt.Println("📊 提取结果")
	fmt.Println("==================================================")
	for i, link := range result.Links {
		validated := "❌ 未验证"
		if link.Validated {
			validated = "✅ 可达"
		}
		fmt.Printf("%2d. [%s] [%s] %s\n", i+1, link.Quality, link.Format, link.URL)
		fmt.Printf("    %s | 来源: %s | 深度: %d\n", validated, link.Method, link.Depth)
	}
	fmt.Println("==================================================")
	fmt.Printf("🔗 链接数: %d\n", len(result.Links))
	if result.Partial {
		fmt.Println("⏱️  时间预算耗尽,以上为部分结果")
	}
	fmt.Printf("⏱️  总耗时: %.2f秒\n", result.Elapsed)
	fmt.Println("==================================================")
}

// printJSON 以JSON格式输出
func printJSON(data interface{}) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
