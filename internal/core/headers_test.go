package core

import (
	"os"
	"path/filepath"
	"testing"
)

// newTestHeaderManager 使用临时目录中的配置文件创建头部管理器
func newTestHeaderManager(t *testing.T, configYAML string, cliHeaders []string) *HeaderManager {
	t.Helper()

	configFile := filepath.Join(t.TempDir(), "headers.yaml")
	if configYAML != "" {
		if err := os.WriteFile(configFile, []byte(configYAML), 0644); err != nil {
			t.Fatalf("写入测试配置失败: %v", err)
		}
	}

	hm, err := NewHeaderManager(configFile, cliHeaders)
	if err != nil {
		t.Fatalf("创建头部管理器失败: %v", err)
	}
	return hm
}

func TestHeaderManagerDefaults(t *testing.T) {
	hm := newTestHeaderManager(t, "", nil)

	headers, err := hm.GetHeaders()
	if err != nil {
		t.Fatalf("获取头部失败: %v", err)
	}

	// 默认头部模拟浏览器特征
	if got := headers.Get("Accept-Language"); got != "vi-VN,vi;q=0.9,en;q=0.8" {
		t.Errorf("Accept-Language默认值错误: %s", got)
	}
	if headers.Get("Accept") == "" {
		t.Error("缺少默认Accept头部")
	}
	if headers.Get("Upgrade-Insecure-Requests") != "1" {
		t.Error("缺少默认Upgrade-Insecure-Requests头部")
	}
}

func TestHeaderManagerConfigOverridesDefaults(t *testing.T) {
	hm := newTestHeaderManager(t, `headers:
  Accept-Language: "en-US,en;q=0.9"
  Referer: "https://phimmoi.net/"
`, nil)

	headers, err := hm.GetHeaders()
	if err != nil {
		t.Fatalf("获取头部失败: %v", err)
	}

	if got := headers.Get("Accept-Language"); got != "en-US,en;q=0.9" {
		t.Errorf("配置文件应覆盖默认值, 实际: %s", got)
	}
	if got := headers.Get("Referer"); got != "https://phimmoi.net/" {
		t.Errorf("配置文件新增头部丢失: %s", got)
	}
	// 未覆盖的默认头部保持不变
	if headers.Get("Accept") == "" {
		t.Error("未覆盖的默认头部不应丢失")
	}
}

func TestHeaderManagerCliOverridesConfig(t *testing.T) {
	hm := newTestHeaderManager(t, `headers:
  Referer: "https://phimmoi.net/"
`, []string{"Referer: https://bilutv.org/", "X-Custom: hello"})

	headers, err := hm.GetHeaders()
	if err != nil {
		t.Fatalf("获取头部失败: %v", err)
	}

	// 优先级: 默认 < 配置文件 < 命令行
	if got := headers.Get("Referer"); got != "https://bilutv.org/" {
		t.Errorf("命令行应覆盖配置文件, 实际: %s", got)
	}
	if got := headers.Get("X-Custom"); got != "hello" {
		t.Errorf("命令行新增头部丢失: %s", got)
	}
}

func TestHeaderManagerInvalidCliHeader(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "headers.yaml")

	if _, err := NewHeaderManager(configFile, []string{"no-colon-here"}); err == nil {
		t.Error("格式非法的命令行头部应报错")
	}
}

func TestHeaderManagerForbiddenHeaderRejected(t *testing.T) {
	hm := newTestHeaderManager(t, "", []string{"Host: evil.example.com"})

	if _, err := hm.GetHeaders(); err == nil {
		t.Error("禁用头部应在验证阶段被拒绝")
	}
}

func TestHeaderManagerSafeHeadersRedacted(t *testing.T) {
	hm := newTestHeaderManager(t, "", []string{
		"Authorization: Bearer secret-token-12345",
		"Cookie: session=abcdef0123456789",
	})
	if err := hm.LoadConfig(); err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	safe := hm.GetSafeHeaders()
	if safe["Authorization"] == "Bearer secret-token-12345" {
		t.Error("Authorization头部未脱敏")
	}
	if safe["Cookie"] == "session=abcdef0123456789" {
		t.Error("Cookie头部未脱敏")
	}
	// 非敏感头部原样保留
	if safe["Accept-Language"] != "vi-VN,vi;q=0.9,en;q=0.8" {
		t.Errorf("非敏感头部不应脱敏: %s", safe["Accept-Language"])
	}
}
