package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	// 测试工作目录下无配置文件,全部走默认值
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("加载默认配置失败: %v", err)
	}

	extract := config.GetExtractConfig()
	if extract.MaxDepth != 2 {
		t.Errorf("默认递归深度应为2, 实际%d", extract.MaxDepth)
	}
	if extract.OverallTimeout != 60 {
		t.Errorf("默认整体预算应为60秒, 实际%d", extract.OverallTimeout)
	}
	if extract.MaxIframeFetches != 5 {
		t.Errorf("默认iframe并发应为5, 实际%d", extract.MaxIframeFetches)
	}
	if !extract.ValidateLinks {
		t.Error("链接探测默认应开启")
	}
	if len(extract.Domains) == 0 {
		t.Error("默认域名白名单不应为空")
	}
	if config.Logging.Level != "info" {
		t.Errorf("默认日志级别应为info, 实际%s", config.Logging.Level)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `extract:
  max_depth: 1
  overall_timeout: 90
  domains:
    - phimmoi.net
logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(yaml), 0644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	extract := config.GetExtractConfig()
	if extract.MaxDepth != 1 {
		t.Errorf("配置文件值未生效: max_depth=%d", extract.MaxDepth)
	}
	if extract.OverallTimeout != 90 {
		t.Errorf("配置文件值未生效: overall_timeout=%d", extract.OverallTimeout)
	}
	if len(extract.Domains) != 1 || extract.Domains[0] != "phimmoi.net" {
		t.Errorf("域名白名单未生效: %v", extract.Domains)
	}
	// 未配置的项保持默认值
	if extract.FetchTimeout != 30 {
		t.Errorf("未配置项应保持默认: fetch_timeout=%d", extract.FetchTimeout)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("日志级别未生效: %s", config.Logging.Level)
	}
}

func TestMergeCLIFlags(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("加载默认配置失败: %v", err)
	}

	config.MergeCLIFlags(1, 10, 40, 3, false, 5)

	extract := config.GetExtractConfig()
	if extract.MaxDepth != 1 {
		t.Errorf("命令行递归深度未生效: %d", extract.MaxDepth)
	}
	if extract.FetchTimeout != 10 {
		t.Errorf("命令行抓取超时未生效: %d", extract.FetchTimeout)
	}
	if extract.OverallTimeout != 40 {
		t.Errorf("命令行整体预算未生效: %d", extract.OverallTimeout)
	}
	if extract.MaxIframeFetches != 3 {
		t.Errorf("命令行iframe并发未生效: %d", extract.MaxIframeFetches)
	}
	if extract.ValidateLinks {
		t.Error("命令行关闭链接探测未生效")
	}
	if extract.MaxLinks != 5 {
		t.Errorf("命令行链接上限未生效: %d", extract.MaxLinks)
	}
}

func TestMergeCLIFlagsZeroDepthAllowed(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("加载默认配置失败: %v", err)
	}

	// 深度0是合法值,表示只提取根页面
	config.MergeCLIFlags(0, 0, 0, 0, true, 0)
	if got := config.GetExtractConfig().MaxDepth; got != 0 {
		t.Errorf("深度0应生效, 实际%d", got)
	}
	// 其余0值表示未指定,保持配置文件的值
	if got := config.GetExtractConfig().FetchTimeout; got != 30 {
		t.Errorf("未指定的超时应保持默认: %d", got)
	}
}
