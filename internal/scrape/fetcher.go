package scrape

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"

	"github.com/RecoveryAshes/StreamLinkcrack/internal/models"
	"github.com/RecoveryAshes/StreamLinkcrack/internal/utils"
)

const (
	// MaxBodySize 响应体大小上限 (10MB),防止异常大页面耗尽内存
	MaxBodySize = 10 * 1024 * 1024

	// MaxRetryAfterWait Retry-After头部的最大等待时间
	MaxRetryAfterWait = 30 * time.Second
)

// RetryPolicy 重试策略(指数退避+抖动)
type RetryPolicy struct {
	MaxAttempts int           // 最大尝试次数(含首次)
	BaseDelay   time.Duration // 首次重试延迟
	MaxDelay    time.Duration // 单次延迟上限
}

// Backoff 计算第attempt次失败后的等待时间 (attempt从1开始)
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}
	// 加入 0~25% 抖动,避免对目标站点的同步重试
	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	return delay + jitter
}

// Fetcher 页面抓取器
// 负责HTTP请求、重定向控制、压缩解码、重试与按主机限速
type Fetcher struct {
	client     *http.Client
	headers    models.HeaderProvider
	userAgents []string
	policy     RetryPolicy

	// 按主机的礼貌限速器(懒创建)
	hostLimiters map[string]*rate.Limiter
	hostInterval time.Duration
	mu           sync.Mutex

	uaIndex int
	uaMu    sync.Mutex
}

// NewFetcher 创建抓取器
func NewFetcher(cfg *models.ExtractConfig, headers models.HeaderProvider) *Fetcher {
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 5
	}

	client := &http.Client{
		Timeout: time.Duration(cfg.FetchTimeout) * time.Second,
		Transport: &http.Transport{
			// 自行处理Accept-Encoding和解压,与头部配置保持一致
			DisableCompression:  true,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     30 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("重定向次数超过上限(%d次)", maxRedirects)
			}
			return nil
		},
	}

	return &Fetcher{
		client:     client,
		headers:    headers,
		userAgents: cfg.EffectiveUserAgents(),
		policy: RetryPolicy{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   time.Duration(cfg.RetryBaseDelay) * time.Second,
			MaxDelay:    30 * time.Second,
		},
		hostLimiters: make(map[string]*rate.Limiter),
		hostInterval: time.Duration(cfg.HostInterval) * time.Millisecond,
	}
}

// Fetch 抓取单个页面,重试耗尽后返回*models.FetchError
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*models.FetchResult, error) {
	start := time.Now()

	if err := f.waitHost(ctx, rawURL); err != nil {
		// 限速等待被超时打断时按超时上报
		// rate.Limiter在等待时长超出剩余deadline时会提前返回,此时ctx.Err()可能还是nil
		kind := models.FetchConnectionFailed
		if errors.Is(err, context.DeadlineExceeded) ||
			strings.Contains(err.Error(), "exceed context deadline") {
			kind = models.FetchTimeout
		}
		return nil, &models.FetchError{
			URL:      rawURL,
			Kind:     kind,
			Attempts: 0,
			Cause:    err,
		}
	}

	var lastErr *models.FetchError
	for attempt := 1; attempt <= f.policy.MaxAttempts; attempt++ {
		result, fetchErr := f.fetchOnce(ctx, rawURL, attempt)
		if fetchErr == nil {
			result.Elapsed = time.Since(start)
			return result, nil
		}

		lastErr = fetchErr
		if !f.shouldRetry(fetchErr) || attempt == f.policy.MaxAttempts {
			break
		}

		wait := f.retryDelay(fetchErr, attempt)
		utils.Warnf("抓取失败,%.1f秒后重试 (第%d/%d次): %s",
			wait.Seconds(), attempt, f.policy.MaxAttempts, utils.SanitizeURLForLog(rawURL))

		select {
		case <-ctx.Done():
			return nil, &models.FetchError{
				URL:      rawURL,
				Kind:     models.FetchTimeout,
				Attempts: attempt,
				Cause:    ctx.Err(),
			}
		case <-time.After(wait):
		}
	}

	lastErr.Attempts = countAttempts(lastErr.Attempts, f.policy.MaxAttempts)
	return nil, lastErr
}

// fetchOnce 执行单次HTTP请求
func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string, attempt int) (*models.FetchResult, *models.FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &models.FetchError{
			URL: rawURL, Kind: models.FetchConnectionFailed, Attempts: attempt, Cause: err,
		}
	}

	f.applyHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		kind := models.FetchConnectionFailed
		if isTimeout(err) {
			kind = models.FetchTimeout
		}
		return nil, &models.FetchError{URL: rawURL, Kind: kind, Attempts: attempt, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fe := &models.FetchError{
			URL: rawURL, Kind: models.FetchHTTPError, Status: resp.StatusCode, Attempts: attempt,
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			fe.Cause = retryAfterHint(resp.Header.Get("Retry-After"))
		}
		return nil, fe
	}

	// 限制响应体大小,异常大的页面直接截断
	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, &models.FetchError{
			URL: rawURL, Kind: models.FetchConnectionFailed, Attempts: attempt, Cause: err,
		}
	}

	body, err := decompressBody(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		return nil, &models.FetchError{
			URL: rawURL, Kind: models.FetchConnectionFailed, Attempts: attempt, Cause: err,
		}
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &models.FetchResult{
		URL:        rawURL,
		FinalURL:   finalURL,
		HTTPStatus: resp.StatusCode,
		Body:       string(body),
		Attempts:   attempt,
	}, nil
}

// applyHeaders 设置请求头: 配置头部 + 轮换的User-Agent
func (f *Fetcher) applyHeaders(req *http.Request) {
	if f.headers != nil {
		if headers, err := f.headers.GetHeaders(); err == nil {
			for name, values := range headers {
				for _, v := range values {
					req.Header.Set(name, v)
				}
			}
		}
	}
	req.Header.Set("User-Agent", f.nextUserAgent())
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	}
}

// nextUserAgent 轮换返回下一个User-Agent
func (f *Fetcher) nextUserAgent() string {
	f.uaMu.Lock()
	defer f.uaMu.Unlock()
	ua := f.userAgents[f.uaIndex%len(f.userAgents)]
	f.uaIndex++
	return ua
}

// waitHost 按主机等待礼貌间隔
func (f *Fetcher) waitHost(ctx context.Context, rawURL string) error {
	if f.hostInterval <= 0 {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return nil
	}

	f.mu.Lock()
	limiter, exists := f.hostLimiters[parsed.Hostname()]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(f.hostInterval), 1)
		f.hostLimiters[parsed.Hostname()] = limiter
	}
	f.mu.Unlock()

	return limiter.Wait(ctx)
}

// shouldRetry 判断错误是否可重试
// 5xx、超时、连接失败、429可重试; 其余4xx不重试(重试不会改变结果)
func (f *Fetcher) shouldRetry(fe *models.FetchError) bool {
	switch fe.Kind {
	case models.FetchTimeout, models.FetchConnectionFailed:
		return !errors.Is(fe.Cause, context.Canceled)
	case models.FetchHTTPError:
		if fe.Status >= 500 {
			return true
		}
		return fe.Status == http.StatusTooManyRequests
	}
	return false
}

// retryDelay 计算重试前的等待时间
// 429响应携带Retry-After时优先采用(有上限),否则指数退避
func (f *Fetcher) retryDelay(fe *models.FetchError, attempt int) time.Duration {
	if fe.Status == http.StatusTooManyRequests {
		var hint *retryAfterError
		if errors.As(fe.Cause, &hint) && hint.wait > 0 {
			if hint.wait > MaxRetryAfterWait {
				return MaxRetryAfterWait
			}
			return hint.wait
		}
	}
	return f.policy.Backoff(attempt)
}

// retryAfterError 封装429响应的Retry-After提示
type retryAfterError struct {
	wait time.Duration
}

func (e *retryAfterError) Error() string {
	return fmt.Sprintf("服务端要求等待%.0f秒", e.wait.Seconds())
}

// retryAfterHint 解析Retry-After头部(仅支持秒数形式)
func retryAfterHint(value string) error {
	if value == "" {
		return nil
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return nil
	}
	return &retryAfterError{wait: time.Duration(seconds) * time.Second}
}

// isTimeout 判断是否为超时错误
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "Client.Timeout")
}

// countAttempts 规范化记录的尝试次数
func countAttempts(recorded, max int) int {
	if recorded > max {
		return max
	}
	if recorded <= 0 {
		return 1
	}
	return recorded
}

// decompressBody 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli) 三种压缩格式
func decompressBody(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "":
		return body, nil

	default:
		// 未知编码: 记录警告并按原样返回
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
