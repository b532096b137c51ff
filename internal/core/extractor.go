package core

import (
	"context"
	"errors"
	"time"

	"github.com/RecoveryAshes/StreamLinkcrack/internal/models"
	"github.com/RecoveryAshes/StreamLinkcrack/internal/scrape"
	"github.com/RecoveryAshes/StreamLinkcrack/internal/utils"
)

// Extractor 流媒体链接提取器
// 职责: 串联完整提取流水线
// 限流检查 → URL校验 → 根页面抓取 → 模式提取 → iframe递归 → 去重分类 → 探测排序
type Extractor struct {
	config    models.ExtractConfig
	validator *utils.DomainValidator
	limiter   *RateLimiter
	fetcher   *scrape.Fetcher
	prober    *scrape.LinkProber
	monitor   *scrape.ResourceMonitor
	headers   models.HeaderProvider
}

// NewExtractor 创建提取器
func NewExtractor(config models.ExtractConfig, headers models.HeaderProvider) (*Extractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Extractor{
		config:    config,
		validator: utils.NewDomainValidator(config.Domains),
		limiter:   NewRateLimiter(config.RateLimitRequests, config.RateLimitWindow),
		fetcher:   scrape.NewFetcher(&config, headers),
		prober:    scrape.NewLinkProber(&config),
		monitor:   scrape.NewResourceMonitor(config.SafetyReserveMemory, config.CPULoadThreshold),
		headers:   headers,
	}, nil
}

// ExtractLinks 对单个剧集页面URL执行完整提取
// 限流拒绝、URL非法和根页面抓取失败立即返回错误;
// iframe失败和探测失败只影响对应链接,不中止流水线;
// 时间预算耗尽时返回已收集的部分结果(Partial=true)
func (e *Extractor) ExtractLinks(ctx context.Context, rawURL string, requesterID string) (*models.ExtractionResult, error) {
	start := time.Now()

	// 1. 限流检查(业务逻辑执行之前)
	if !e.limiter.Allow(requesterID) {
		return nil, &models.RateLimitedError{
			RequesterID: requesterID,
			Remaining:   e.limiter.Remaining(requesterID),
			ResetAfter:  e.limiter.ResetAfter(requesterID),
		}
	}

	// 2. URL校验(失败时不发起任何网络请求)
	normalized, err := e.validator.Validate(rawURL)
	if err != nil {
		return nil, err
	}

	request := models.NewExtractionRequest(normalized, requesterID)
	utils.Infof("🔍 开始提取 [%s]: %s", request.ID[:8], utils.SanitizeURLForLog(normalized))

	// 3. 整体时间预算
	ctx, cancel := context.WithTimeout(ctx, time.Duration(e.config.OverallTimeout)*time.Second)
	defer cancel()

	// 4. 根页面抓取(失败即整体失败)
	page, err := e.fetcher.Fetch(ctx, normalized)
	if err != nil {
		utils.Errorf("根页面抓取失败 [%s]: %v", request.ID[:8], err)
		return nil, err
	}
	utils.Debugf("根页面抓取完成: HTTP %d, %d字节, 尝试%d次",
		page.HTTPStatus, len(page.Body), page.Attempts)

	// 5. 根页面模式提取
	candidates := scrape.ExtractCandidates(page.Body, page.FinalURL, 0)
	utils.Infof("根页面发现%d个候选链接", len(candidates))

	// 6. iframe递归解析(失败只记录日志)
	if e.config.MaxDepth > 0 {
		iframes := scrape.DiscoverIframes(page.Body, page.FinalURL)
		if len(iframes) > 0 {
			utils.Infof("发现%d个疑似播放器iframe", len(iframes))
			resolver := scrape.NewIframeResolver(&e.config, e.headers, e.monitor)
			candidates = append(candidates, resolver.Resolve(ctx, iframes, page.FinalURL)...)
		}
	}

	// 7. 全局去重(归一化后保留最先发现的候选)+ 重编发现顺序
	candidates = dedupeCandidates(candidates)

	// 8. 分类
	links := make([]models.StreamLink, 0, len(candidates))
	for _, cand := range candidates {
		links = append(links, scrape.Classify(cand))
	}

	// 9. 可达性探测(可关闭; 预算耗尽时跳过)
	if e.config.ValidateLinks && ctx.Err() == nil {
		links = e.prober.ProbeAll(ctx, links)
	}

	// 10. 排序 + 截断
	models.SortStreamLinks(links)
	if len(links) > e.config.MaxLinks {
		links = links[:e.config.MaxLinks]
	}

	elapsed := time.Since(start)
	if len(links) == 0 {
		utils.Warnf("提取完成但未找到流媒体链接 [%s] (耗时%.1f秒)", request.ID[:8], elapsed.Seconds())
		return nil, &models.NoLinksFoundError{URL: normalized}
	}

	partial := errors.Is(ctx.Err(), context.DeadlineExceeded)
	if partial {
		utils.Warnf("时间预算耗尽,返回部分结果 [%s]: %d个链接", request.ID[:8], len(links))
	} else {
		utils.Infof("✅ 提取完成 [%s]: %d个链接, 耗时%.1f秒", request.ID[:8], len(links), elapsed.Seconds())
	}

	return &models.ExtractionResult{
		Links:   links,
		Partial: partial,
		Elapsed: elapsed.Seconds(),
	}, nil
}

// Remaining 返回调用方当前窗口剩余配额
func (e *Extractor) Remaining(requesterID string) int {
	return e.limiter.Remaining(requesterID)
}

// dedupeCandidates 按归一化URL去重,保留最先发现的候选并重编顺序
// 同一地址被多个策略或多个页面发现时,以第一次发现的上下文为准
func dedupeCandidates(candidates []models.Candidate) []models.Candidate {
	seen := make(map[string]bool, len(candidates))
	result := make([]models.Candidate, 0, len(candidates))

	for _, cand := range candidates {
		key := utils.NormalizeURL(cand.RawURL)
		if seen[key] {
			continue
		}
		seen[key] = true
		cand.Order = len(result)
		result = append(result, cand)
	}
	return result
}
