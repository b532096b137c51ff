package models

import (
	"fmt"
	"time"
)

// InvalidURLKind URL校验失败的具体原因
type InvalidURLKind string

const (
	MalformedURL       InvalidURLKind = "malformed_url"        // URL格式非法
	UnsupportedDomain  InvalidURLKind = "unsupported_domain"   // 域名不在白名单中
	HomepageNotAllowed InvalidURLKind = "homepage_not_allowed" // 仅站点首页,无具体剧集路径
)

// InvalidURLError URL校验错误
// 直接返回给调用方,不触发任何网络请求和重试
type InvalidURLError struct {
	URL    string
	Kind   InvalidURLKind
	Reason string
}

// Error 实现error接口
func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("无效的URL [%s]: %s", e.URL, e.Reason)
}

// RateLimitedError 限流错误
// 附带窗口重置提示,由调用方决定是否稍后重试
type RateLimitedError struct {
	RequesterID string
	Remaining   int           // 当前窗口剩余配额(被拒绝时为0)
	ResetAfter  time.Duration // 距离窗口重置的时间
}

// Error 实现error接口
func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("请求过于频繁 [%s]: 请在%.0f秒后重试",
		e.RequesterID, e.ResetAfter.Seconds())
}

// FetchErrorKind 抓取失败类型
type FetchErrorKind string

const (
	FetchTimeout          FetchErrorKind = "timeout"           // 超时
	FetchConnectionFailed FetchErrorKind = "connection_failed" // 连接失败
	FetchHTTPError        FetchErrorKind = "http_error"        // HTTP错误状态码
)

// FetchError 页面抓取错误(重试耗尽后)
// 根页面抓取失败时作为提取失败返回; iframe抓取失败时仅记录日志并跳过
type FetchError struct {
	URL      string
	Kind     FetchErrorKind
	Status   int   // Kind为FetchHTTPError时的状态码
	Attempts int   // 已尝试次数
	Cause    error // 底层错误
}

// Error 实现error接口
func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchHTTPError:
		return fmt.Sprintf("抓取失败 [%s]: HTTP %d (尝试%d次)", e.URL, e.Status, e.Attempts)
	case FetchTimeout:
		return fmt.Sprintf("抓取超时 [%s] (尝试%d次)", e.URL, e.Attempts)
	default:
		return fmt.Sprintf("连接失败 [%s] (尝试%d次): %v", e.URL, e.Attempts, e.Cause)
	}
}

// Unwrap 暴露底层错误供errors.Is/As匹配
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NoLinksFoundError 流水线正常完成但未找到任何流媒体链接
// 与抓取失败严格区分: 页面可达,只是没有可提取的视频链接
type NoLinksFoundError struct {
	URL string
}

// Error 实现error接口
func (e *NoLinksFoundError) Error() string {
	return fmt.Sprintf("未找到流媒体链接 [%s]", e.URL)
}
