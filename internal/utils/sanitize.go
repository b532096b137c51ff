package utils

import (
	"net/url"
	"strings"
)

var (
	// unsafeSchemes 禁止出现在候选链接中的伪协议
	unsafeSchemes = []string{
		"javascript:", "data:", "file:", "about:", "chrome:",
		"moz-extension:", "chrome-extension:",
	}

	// injectionFragments 明显的脚本注入痕迹
	injectionFragments = []string{
		"<script", "javascript:", "eval(", "alert(",
	}

	// SensitiveParamKeywords 日志脱敏的敏感查询参数关键字
	SensitiveParamKeywords = []string{
		"token", "key", "secret", "password", "auth", "credential", "sign",
	}
)

// HasUnsafePattern 检查URL是否带有伪协议、双http拼接产物或脚本注入痕迹
// 与IsUnsafeURL的区别是不判定内网主机
func HasUnsafePattern(rawURL string) bool {
	lower := strings.ToLower(strings.TrimSpace(rawURL))

	for _, scheme := range unsafeSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}

	// 拼接错误产生的畸形URL,如 https://a.comhttps://b.com/x.mp4
	if strings.Count(lower, "http") > 1 {
		return true
	}

	for _, frag := range injectionFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}

	if _, err := url.Parse(rawURL); err != nil {
		return true
	}

	return false
}

// IsUnsafeURL 检查URL是否明显不安全
// 在HasUnsafePattern的基础上额外拦截本机/内网地址
func IsUnsafeURL(rawURL string) bool {
	if HasUnsafePattern(rawURL) {
		return true
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	host := strings.ToLower(parsed.Hostname())
	if host != "" && IsPrivateHost(host) {
		return true
	}

	return false
}

// SanitizeURLForLog 对写入日志的URL做脱敏
// 敏感查询参数的值替换为***,避免目标站点的签名/令牌落入日志文件
func SanitizeURLForLog(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	query := parsed.Query()
	changed := false
	for name := range query {
		if isSensitiveParam(name) {
			query.Set(name, "***")
			changed = true
		}
	}
	if changed {
		parsed.RawQuery = query.Encode()
	}

	return parsed.String()
}

// isSensitiveParam 检查查询参数名是否敏感
func isSensitiveParam(name string) bool {
	nameLower := strings.ToLower(name)
	for _, keyword := range SensitiveParamKeywords {
		if strings.Contains(nameLower, keyword) {
			return true
		}
	}
	return false
}
