package main

import (
	"fmt"

	"github.com/RecoveryAshes/StreamLinkcrack/internal/utils"
)

// ValidateFlags 验证命令行标志
func ValidateFlags(
	targetURL string,
	maxDepth int,
	fetchTimeout int,
	overallTimeout int,
	iframeFetches int,
	maxLinks int,
) error {
	// 验证URL基本格式(白名单检查由提取器执行)
	if targetURL != "" {
		if err := utils.ValidateURL(targetURL); err != nil {
			return fmt.Errorf("无效的目标URL: %w", err)
		}
	}

	// 验证iframe递归深度
	if maxDepth < 0 || maxDepth > 5 {
		return fmt.Errorf("iframe递归深度必须在0-5之间,当前值: %d", maxDepth)
	}

	// 验证抓取超时
	if fetchTimeout < 1 || fetchTimeout > 120 {
		return fmt.Errorf("抓取超时必须在1-120秒之间,当前值: %d", fetchTimeout)
	}

	// 验证整体预算
	if overallTimeout < fetchTimeout {
		return fmt.Errorf("整体预算(%d秒)不能小于单页抓取超时(%d秒)", overallTimeout, fetchTimeout)
	}

	// 验证iframe并发数
	if iframeFetches < 1 || iframeFetches > 20 {
		return fmt.Errorf("iframe并发抓取数必须在1-20之间,当前值: %d", iframeFetches)
	}

	// 验证返回链接数
	if maxLinks < 1 || maxLinks > 100 {
		return fmt.Errorf("返回链接数必须在1-100之间,当前值: %d", maxLinks)
	}

	return nil
}

// ValidateURLFile 验证URL文件路径
func ValidateURLFile(filepath string) error {
	if filepath == "" {
		return fmt.Errorf("URL文件路径不能为空")
	}
	// 文件存在性检查在运行时进行
	return nil
}
