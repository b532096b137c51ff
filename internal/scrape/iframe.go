package scrape

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/RecoveryAshes/StreamLinkcrack/internal/models"
	"github.com/RecoveryAshes/StreamLinkcrack/internal/utils"
)

// IframeResolver iframe解析器(使用Colly)
// 职责: 并发抓取疑似播放器的iframe页面,对其内容再次运行提取策略,
// 并在深度限制内递归跟随嵌套iframe
type IframeResolver struct {
	config  *models.ExtractConfig
	headers models.HeaderProvider
	monitor *ResourceMonitor

	// 已访问iframe集合(环路抑制)
	visited map[string]bool
	mu      sync.RWMutex

	// 收集到的候选链接(到达顺序)
	candidates []models.Candidate
	candMu     sync.Mutex

	// 统计
	fetched int
	failed  int
}

// NewIframeResolver 创建iframe解析器
func NewIframeResolver(config *models.ExtractConfig, headers models.HeaderProvider, monitor *ResourceMonitor) *IframeResolver {
	return &IframeResolver{
		config:  config,
		headers: headers,
		monitor: monitor,
		visited: make(map[string]bool),
	}
}

// Resolve 抓取iframe地址并提取其中的候选链接
// 单个iframe失败只记录日志并跳过,不影响其它iframe和根页面的结果;
// context到期时停止等待,返回已收集的部分结果
func (ir *IframeResolver) Resolve(ctx context.Context, iframeURLs []string, rootURL string) []models.Candidate {
	if len(iframeURLs) == 0 || ir.config.MaxDepth < 1 {
		return nil
	}

	collector := ir.newCollector()
	ir.setupCallbacks(collector)

	started := 0
	for _, iframeURL := range iframeURLs {
		if ir.markVisited(iframeURL) {
			continue
		}
		// Visit的初始深度为1,正好对应一级iframe
		if err := collector.Visit(iframeURL); err != nil {
			utils.Debugf("iframe访问失败 [%s]: %v", utils.SanitizeURLForLog(iframeURL), err)
			continue
		}
		started++
	}
	if started == 0 {
		return nil
	}

	// 带超时的Wait,剩余预算由ctx的deadline决定
	waitDone := make(chan struct{})
	go func() {
		collector.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
		utils.Debugf("iframe解析完成: 抓取%d个, 失败%d个", ir.fetched, ir.failed)
	case <-ctx.Done():
		utils.Warnf("时间预算耗尽,iframe解析提前结束 (已抓取%d个)", ir.fetched)
	}

	ir.candMu.Lock()
	defer ir.candMu.Unlock()
	result := make([]models.Candidate, len(ir.candidates))
	copy(result, ir.candidates)
	return result
}

// newCollector 创建并发受限的Colly collector
func (ir *IframeResolver) newCollector() *colly.Collector {
	c := colly.NewCollector(
		colly.Async(true),
		// 深度由回调手动检查,不用colly.MaxDepth
	)

	c.SetClient(&http.Client{
		Transport: &http.Transport{
			// 视频站的iframe源经常带自签名或过期证书
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
		Timeout: time.Duration(ir.config.FetchTimeout) * time.Second,
	})
	c.SetRequestTimeout(time.Duration(ir.config.FetchTimeout) * time.Second)

	// 并发度 = min(配置的并发上限, 资源监控器给出的上限)
	parallelism := ir.config.MaxIframeFetches
	if ir.monitor != nil {
		parallelism = ir.monitor.CalculateMaxFetches(parallelism)
	}
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: parallelism,
		Delay:       time.Duration(ir.config.HostInterval) * time.Millisecond,
	}); err != nil {
		utils.Warnf("设置iframe并发限制失败: %v", err)
	}
	utils.Debugf("iframe解析器: 并发=%d, 最大深度=%d", parallelism, ir.config.MaxDepth)

	return c
}

// setupCallbacks 设置Colly回调
func (ir *IframeResolver) setupCallbacks(c *colly.Collector) {
	c.OnRequest(func(r *colly.Request) {
		ir.applyHeaders(r)
	})

	c.OnResponse(func(r *colly.Response) {
		pageURL := r.Request.URL.String()
		depth := r.Request.Depth
		body := string(r.Body)

		ir.mu.Lock()
		ir.fetched++
		ir.mu.Unlock()

		// 对iframe内容运行全部提取策略,统一标记为iframe来源
		for _, cand := range ExtractCandidates(body, pageURL, depth) {
			cand.Method = models.DiscoveryIframe
			ir.appendCandidate(cand)
		}

		// 深度限制内继续跟随嵌套iframe
		if depth >= ir.config.MaxDepth {
			return
		}
		for _, nested := range DiscoverIframes(body, pageURL) {
			if ir.markVisited(nested) {
				continue
			}
			if err := r.Request.Visit(nested); err != nil {
				if !strings.Contains(err.Error(), "Forbidden") {
					utils.Debugf("嵌套iframe访问失败 [%s]: %v", utils.SanitizeURLForLog(nested), err)
				}
			}
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		ir.mu.Lock()
		ir.failed++
		ir.mu.Unlock()
		utils.Warnf("iframe抓取失败 [%s]: %v", utils.SanitizeURLForLog(r.Request.URL.String()), err)
	})
}

// appendCandidate 按到达顺序追加候选链接
func (ir *IframeResolver) appendCandidate(cand models.Candidate) {
	ir.candMu.Lock()
	defer ir.candMu.Unlock()
	cand.Order = len(ir.candidates)
	ir.candidates = append(ir.candidates, cand)
}

// applyHeaders 设置iframe请求头(配置头部+轮换UA)
func (ir *IframeResolver) applyHeaders(r *colly.Request) {
	if ir.headers != nil {
		if headers, err := ir.headers.GetHeaders(); err == nil {
			for name, values := range headers {
				if strings.EqualFold(name, "Accept-Encoding") {
					// 压缩解码交给colly的HTTP层
					continue
				}
				for _, v := range values {
					r.Headers.Set(name, v)
				}
			}
		}
	}

	pool := ir.config.EffectiveUserAgents()
	ir.mu.Lock()
	ua := pool[(ir.fetched+ir.failed)%len(pool)]
	ir.mu.Unlock()
	r.Headers.Set("User-Agent", ua)
}

// markVisited 标记iframe已访问,返回之前是否已访问过
func (ir *IframeResolver) markVisited(rawURL string) bool {
	normalized := normalizeIframeURL(rawURL)

	ir.mu.Lock()
	defer ir.mu.Unlock()
	if ir.visited[normalized] {
		return true
	}
	ir.visited[normalized] = true
	return false
}

// normalizeIframeURL 归一化iframe地址用于环路检测(去fragment,主机小写)
func normalizeIframeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.Fragment = ""
	parsed.Host = strings.ToLower(parsed.Host)
	return parsed.String()
}
