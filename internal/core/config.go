package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/RecoveryAshes/StreamLinkcrack/internal/models"
)

// Config 应用程序配置
type Config struct {
	Extract models.ExtractConfig `mapstructure:"extract"`
	Logging LoggingConfig        `mapstructure:"logging"`
	Batch   BatchConfig          `mapstructure:"batch"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// BatchConfig 批量提取配置
type BatchConfig struct {
	InterURLDelay   int  `mapstructure:"inter_url_delay"` // URL之间的间隔(秒)
	ContinueOnError bool `mapstructure:"continue_on_error"`
}

// defaultDomains 默认域名白名单(常见越南影视站)
var defaultDomains = []string{
	"phimmoi.net",
	"fimplus.org",
	"phim3s.info",
	"motphim.net",
	"xemphim.app",
	"phimhay.org",
	"bilutv.org",
	"kkphim.vip",
	"phim1080.org",
	"hdviet.tv",
	"thuvienhd.com",
	"phimkk.com",
	"luotphim.org",
	"vuviphim.org",
	"phimdinhcao.com",
	"lauphim.tv",
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".streamlinkcrack"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 提取配置默认值
	v.SetDefault("extract.domains", defaultDomains)
	v.SetDefault("extract.max_depth", 2)
	v.SetDefault("extract.max_iframe_fetches", 5)
	v.SetDefault("extract.fetch_timeout", 30)
	v.SetDefault("extract.overall_timeout", 60)
	v.SetDefault("extract.max_retries", 3)
	v.SetDefault("extract.retry_base_delay", 2)
	v.SetDefault("extract.max_redirects", 5)
	v.SetDefault("extract.validate_links", true)
	v.SetDefault("extract.probe_timeout", 5)
	v.SetDefault("extract.max_links", 10)
	v.SetDefault("extract.min_url_length", 10)
	v.SetDefault("extract.rate_limit_requests", 5)
	v.SetDefault("extract.rate_limit_window", 60)
	v.SetDefault("extract.host_interval", 1000)
	v.SetDefault("extract.safety_reserve_memory", 512)
	v.SetDefault("extract.cpu_load_threshold", 80)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 批量提取默认值
	v.SetDefault("batch.inter_url_delay", 2)
	v.SetDefault("batch.continue_on_error", true)
}

// GetExtractConfig 从配置中提取提取器配置
func (c *Config) GetExtractConfig() models.ExtractConfig {
	return c.Extract
}

// MergeCLIFlags 合并命令行参数到配置
// 命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(
	maxDepth int,
	fetchTimeout int,
	overallTimeout int,
	maxIframeFetches int,
	validateLinks bool,
	maxLinks int,
) {
	if maxDepth >= 0 {
		c.Extract.MaxDepth = maxDepth
	}
	if fetchTimeout > 0 {
		c.Extract.FetchTimeout = fetchTimeout
	}
	if overallTimeout > 0 {
		c.Extract.OverallTimeout = overallTimeout
	}
	if maxIframeFetches > 0 {
		c.Extract.MaxIframeFetches = maxIframeFetches
	}
	c.Extract.ValidateLinks = validateLinks
	if maxLinks > 0 {
		c.Extract.MaxLinks = maxLinks
	}
}
