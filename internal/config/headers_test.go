package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/StreamLinkcrack/internal/models"
)

func TestLoaderAutoCreatesTemplate(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "configs", "headers.yaml")
	loader := NewHeaderConfigLoader(configPath)

	config, err := loader.LoadConfig()
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}

	// 首次加载自动生成模板文件
	if _, err := os.Stat(configPath); err != nil {
		t.Errorf("模板文件未生成: %v", err)
	}
	// 模板不带任何自定义头部
	if len(config.Headers) != 0 {
		t.Errorf("模板应为空配置, 实际%d个头部", len(config.Headers))
	}
}

func TestLoaderParsesHeaders(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "headers.yaml")
	yaml := `headers:
  Referer: "https://phimmoi.net/"
  Accept-Language: "vi-VN,vi;q=0.9"
`
	if err := os.WriteFile(configPath, []byte(yaml), 0644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}

	config, err := NewHeaderConfigLoader(configPath).LoadConfig()
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}

	if got := config.Headers["Referer"]; got != "https://phimmoi.net/" {
		t.Errorf("Referer解析错误: %s", got)
	}
	if got := config.Headers["Accept-Language"]; got != "vi-VN,vi;q=0.9" {
		t.Errorf("Accept-Language解析错误: %s", got)
	}
}

func TestLoaderEmptyConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "headers.yaml")
	if err := os.WriteFile(configPath, []byte("headers:\n"), 0644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}

	config, err := NewHeaderConfigLoader(configPath).LoadConfig()
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}

	// 空配置初始化为空map,调用方无需判空
	if config.Headers == nil {
		t.Error("空配置应初始化为空map")
	}
}

func TestLoaderRejectsOversizedFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "headers.yaml")
	big := "# " + strings.Repeat("x", MaxConfigFileSize) + "\nheaders:\n"
	if err := os.WriteFile(configPath, []byte(big), 0644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}

	_, err := NewHeaderConfigLoader(configPath).LoadConfig()
	if err == nil {
		t.Fatal("超大配置文件应被拒绝")
	}

	var configErr *models.ConfigError
	if !errors.As(err, &configErr) {
		t.Errorf("期望ConfigError, 实际: %v", err)
	}
}

func TestLoaderInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "headers.yaml")
	if err := os.WriteFile(configPath, []byte("headers: [broken\n"), 0644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}

	if _, err := NewHeaderConfigLoader(configPath).LoadConfig(); err == nil {
		t.Error("非法YAML应报错")
	}
}
