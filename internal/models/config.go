package models

import (
	"fmt"
)

// DefaultUserAgents 默认User-Agent轮换池
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
}

// ExtractConfig 提取流水线配置
type ExtractConfig struct {
	// 域名白名单(有序,小写主机名)
	Domains []string `json:"domains" mapstructure:"domains"`

	// iframe递归
	MaxDepth         int `json:"max_depth" mapstructure:"max_depth"`                   // 最大iframe递归深度 (默认:2)
	MaxIframeFetches int `json:"max_iframe_fetches" mapstructure:"max_iframe_fetches"` // 最大并发iframe抓取数 (默认:5)

	// 超时预算(秒)
	FetchTimeout   int `json:"fetch_timeout" mapstructure:"fetch_timeout"`     // 单页抓取超时 (默认:30)
	OverallTimeout int `json:"overall_timeout" mapstructure:"overall_timeout"` // 整体墙钟预算 (默认:60)

	// 重试策略
	MaxRetries     int `json:"max_retries" mapstructure:"max_retries"`           // 最大尝试次数 (默认:3)
	RetryBaseDelay int `json:"retry_base_delay" mapstructure:"retry_base_delay"` // 退避基准延迟(秒) (默认:2)
	MaxRedirects   int `json:"max_redirects" mapstructure:"max_redirects"`       // 重定向跟随上限 (默认:5)

	// 链接验证
	ValidateLinks bool `json:"validate_links" mapstructure:"validate_links"` // 是否探测候选链接可达性 (默认:true)
	ProbeTimeout  int  `json:"probe_timeout" mapstructure:"probe_timeout"`   // 单链接探测超时(秒) (默认:5)

	// 结果
	MaxLinks     int `json:"max_links" mapstructure:"max_links"`           // 单页面最多返回链接数 (默认:10)
	MinURLLength int `json:"min_url_length" mapstructure:"min_url_length"` // 候选URL最小长度 (默认:10)

	// 限流
	RateLimitRequests int `json:"rate_limit_requests" mapstructure:"rate_limit_requests"` // 窗口内请求上限 (默认:5)
	RateLimitWindow   int `json:"rate_limit_window" mapstructure:"rate_limit_window"`     // 窗口大小(秒) (默认:60)

	// 对目标站点的礼貌间隔(毫秒,按主机)
	HostInterval int `json:"host_interval" mapstructure:"host_interval"` // (默认:1000)

	// User-Agent轮换池(为空则使用默认池)
	UserAgents []string `json:"user_agents" mapstructure:"user_agents"`

	// 资源安全阈值(并发降级用)
	SafetyReserveMemory int `json:"safety_reserve_memory" mapstructure:"safety_reserve_memory"` // 保留内存(MB)
	CPULoadThreshold    int `json:"cpu_load_threshold" mapstructure:"cpu_load_threshold"`       // CPU负载阈值(%)
}

// Validate 验证配置
func (c *ExtractConfig) Validate() error {
	if len(c.Domains) == 0 {
		return fmt.Errorf("域名白名单不能为空")
	}
	if c.MaxDepth < 0 || c.MaxDepth > 5 {
		return fmt.Errorf("iframe递归深度必须在0-5之间")
	}
	if c.MaxIframeFetches < 1 || c.MaxIframeFetches > 20 {
		return fmt.Errorf("并发iframe抓取数必须在1-20之间")
	}
	if c.FetchTimeout < 1 || c.FetchTimeout > 120 {
		return fmt.Errorf("抓取超时必须在1-120秒之间")
	}
	if c.OverallTimeout < c.FetchTimeout {
		return fmt.Errorf("整体预算不能小于单页抓取超时")
	}
	if c.MaxRetries < 1 || c.MaxRetries > 10 {
		return fmt.Errorf("最大尝试次数必须在1-10之间")
	}
	if c.RateLimitRequests < 1 {
		return fmt.Errorf("限流请求上限必须大于0")
	}
	if c.RateLimitWindow < 1 {
		return fmt.Errorf("限流窗口必须大于0秒")
	}
	if c.MaxLinks < 1 || c.MaxLinks > 100 {
		return fmt.Errorf("返回链接数上限必须在1-100之间")
	}
	return nil
}

// EffectiveUserAgents 返回生效的User-Agent池
func (c *ExtractConfig) EffectiveUserAgents() []string {
	if len(c.UserAgents) > 0 {
		return c.UserAgents
	}
	return DefaultUserAgents
}
