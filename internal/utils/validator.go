package utils

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/RecoveryAshes/StreamLinkcrack/internal/models"
)

const (
	// MaxURLLength 输入URL最大长度
	MaxURLLength = 2000

	// MinURLLength 输入URL最小长度
	MinURLLength = 12
)

// DomainValidator 域名白名单校验器
// 负责校验用户提交的剧集页URL: 格式、白名单域名、非首页路径
type DomainValidator struct {
	// allowed 白名单主机名集合(小写,已去除www前缀)
	allowed map[string]bool
}

// NewDomainValidator 创建域名校验器
func NewDomainValidator(domains []string) *DomainValidator {
	allowed := make(map[string]bool, len(domains))
	for _, d := range domains {
		allowed[normalizeHost(d)] = true
	}
	return &DomainValidator{allowed: allowed}
}

// Validate 校验并规范化URL
// 校验顺序: 格式 → 危险URL → 白名单域名 → 首页拦截
// 返回: 规范化后的绝对URL,或*models.InvalidURLError
func (v *DomainValidator) Validate(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)

	// 长度检查
	if len(rawURL) < MinURLLength || len(rawURL) > MaxURLLength {
		return "", &models.InvalidURLError{
			URL:    rawURL,
			Kind:   models.MalformedURL,
			Reason: fmt.Sprintf("URL长度非法: %d", len(rawURL)),
		}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", &models.InvalidURLError{
			URL:    rawURL,
			Kind:   models.MalformedURL,
			Reason: fmt.Sprintf("URL解析失败: %v", err),
		}
	}

	// 协议检查
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", &models.InvalidURLError{
			URL:    rawURL,
			Kind:   models.MalformedURL,
			Reason: fmt.Sprintf("不支持的协议: %s", parsed.Scheme),
		}
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", &models.InvalidURLError{
			URL:    rawURL,
			Kind:   models.MalformedURL,
			Reason: "URL缺少主机名",
		}
	}

	// 拒绝本机/内网地址,防止SSRF式探测
	// 白名单中显式配置的主机除外(运维明确指定的内网镜像站)
	if IsPrivateHost(host) && !v.allowed[normalizeHost(host)] {
		return "", &models.InvalidURLError{
			URL:    rawURL,
			Kind:   models.MalformedURL,
			Reason: fmt.Sprintf("禁止访问内网地址: %s", host),
		}
	}

	// 白名单检查
	if !v.IsAllowedHost(host) {
		return "", &models.InvalidURLError{
			URL:    rawURL,
			Kind:   models.UnsupportedDomain,
			Reason: fmt.Sprintf("域名不在支持列表中: %s", host),
		}
	}

	// 首页拦截: 必须是具体剧集页,不接受站点根路径
	if !hasPathSegment(parsed.Path) {
		return "", &models.InvalidURLError{
			URL:    rawURL,
			Kind:   models.HomepageNotAllowed,
			Reason: "请提交具体剧集页链接,而非网站首页",
		}
	}

	// 规范化: 主机名小写,去除fragment
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""

	return parsed.String(), nil
}

// IsAllowedHost 检查主机名是否命中白名单
// 匹配规则: 精确匹配 → 去www前缀匹配 → 注册域(eTLD+1)匹配
// 注册域匹配使得白名单中的phimmoi.net同时覆盖www.phimmoi.net和cdn1.phimmoi.net
func (v *DomainValidator) IsAllowedHost(host string) bool {
	host = normalizeHost(host)

	if v.allowed[host] {
		return true
	}

	// 子域名归并到注册域再查一次
	if root, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		if v.allowed[normalizeHost(root)] {
			return true
		}
	}

	return false
}

// IsPrivateHost 检查主机是否指向本机或内网
func IsPrivateHost(host string) bool {
	switch host {
	case "localhost", "0.0.0.0":
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast()
}

// normalizeHost 主机名归一化: 小写并去除www前缀
func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	return strings.TrimPrefix(host, "www.")
}

// hasPathSegment 检查路径是否包含有效片段
func hasPathSegment(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if strings.TrimSpace(seg) != "" {
			return true
		}
	}
	return false
}
