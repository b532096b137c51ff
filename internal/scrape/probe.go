package scrape

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/RecoveryAshes/StreamLinkcrack/internal/models"
	"github.com/RecoveryAshes/StreamLinkcrack/internal/utils"
)

// LinkProber 链接可达性探测器
// 职责: 用HEAD请求验证候选链接是否可达,不下载视频内容;
// 部分CDN不支持HEAD,改用Range头只取1字节的GET兜底
type LinkProber struct {
	client     *http.Client
	userAgents []string

	uaIndex int
	uaMu    sync.Mutex
}

// NewLinkProber 创建探测器
func NewLinkProber(config *models.ExtractConfig) *LinkProber {
	timeout := time.Duration(config.ProbeTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &LinkProber{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgents: config.EffectiveUserAgents(),
	}
}

// Probe 探测单个链接可达性,返回Validated标记后的副本
// 探测失败不剔除链接,只保持Validated=false
func (lp *LinkProber) Probe(ctx context.Context, link models.StreamLink) models.StreamLink {
	status, err := lp.request(ctx, http.MethodHead, link.URL, false)
	if err == nil && needsRangeFallback(status) {
		// HEAD被拒,换带Range头的GET再试一次
		status, err = lp.request(ctx, http.MethodGet, link.URL, true)
	}

	if err != nil {
		utils.Debugf("链接探测失败 [%s]: %v", utils.SanitizeURLForLog(link.URL), err)
		return link
	}

	link.Validated = status >= 200 && status < 400
	if !link.Validated {
		utils.Debugf("链接探测不可达 [%s]: HTTP %d", utils.SanitizeURLForLog(link.URL), status)
	}
	return link
}

// ProbeAll 并发探测一组链接,保持输入顺序
func (lp *LinkProber) ProbeAll(ctx context.Context, links []models.StreamLink) []models.StreamLink {
	result := make([]models.StreamLink, len(links))
	var wg sync.WaitGroup
	for i, link := range links {
		wg.Add(1)
		go func(idx int, l models.StreamLink) {
			defer wg.Done()
			result[idx] = lp.Probe(ctx, l)
		}(i, link)
	}
	wg.Wait()
	return result
}

// request 发送探测请求,只读状态码,响应体立即丢弃
func (lp *LinkProber) request(ctx context.Context, method, rawURL string, withRange bool) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", lp.nextUserAgent())
	if withRange {
		req.Header.Set("Range", "bytes=0-0")
	}

	resp, err := lp.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// needsRangeFallback 判断HEAD响应是否需要GET兜底
func needsRangeFallback(status int) bool {
	switch status {
	case http.StatusMethodNotAllowed, http.StatusForbidden, http.StatusNotImplemented:
		return true
	}
	return false
}

// nextUserAgent 轮换返回下一个User-Agent
func (lp *LinkProber) nextUserAgent() string {
	lp.uaMu.Lock()
	defer lp.uaMu.Unlock()
	ua := lp.userAgents[lp.uaIndex%len(lp.userAgents)]
	lp.uaIndex++
	return ua
}
