package core

import (
	"context"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/RecoveryAshes/StreamLinkcrack/internal/models"
	"github.com/RecoveryAshes/StreamLinkcrack/internal/utils"
)

// BatchExtractor 批量提取器
// 逐个URL顺序提取,URL之间有礼貌间隔,默认单个失败不中止整批
type BatchExtractor struct {
	extractor     *Extractor
	requesterID   string
	interURLDelay time.Duration
	continueOnErr bool
	showProgress  bool
}

// BatchResult 单个URL的提取结果
type BatchResult struct {
	URL         string                   `json:"url"`
	Success     bool                     `json:"success"`
	Error       string                   `json:"error,omitempty"`
	Result      *models.ExtractionResult `json:"result,omitempty"`
	ProcessedAt time.Time                `json:"processed_at"`
	Duration    float64                  `json:"duration"`
}

// BatchSummary 批量提取摘要
type BatchSummary struct {
	TotalURLs     int           `json:"total_urls"`
	SuccessCount  int           `json:"success_count"`
	FailCount     int           `json:"fail_count"`
	TotalLinks    int           `json:"total_links"`
	TotalDuration float64       `json:"total_duration"`
	Results       []BatchResult `json:"results"`
}

// NewBatchExtractor 创建批量提取器
func NewBatchExtractor(extractor *Extractor, requesterID string, batchConfig BatchConfig, showProgress bool) *BatchExtractor {
	return &BatchExtractor{
		extractor:     extractor,
		requesterID:   requesterID,
		interURLDelay: time.Duration(batchConfig.InterURLDelay) * time.Second,
		continueOnErr: batchConfig.ContinueOnError,
		showProgress:  showProgress,
	}
}

// ExtractBatch 批量提取URL列表
func (be *BatchExtractor) ExtractBatch(ctx context.Context, urls []string) (*BatchSummary, error) {
	utils.Infof("🚀 开始批量提取: %d个URL", len(urls))

	summary := &BatchSummary{
		TotalURLs: len(urls),
		Results:   make([]BatchResult, 0, len(urls)),
	}

	var bar *progressbar.ProgressBar
	if be.showProgress {
		bar = utils.NewProgressBar(len(urls), "批量提取")
	}

	startTime := time.Now()

	for i, targetURL := range urls {
		utils.Infof("==================== [%d/%d] ====================", i+1, len(urls))
		utils.Infof("目标URL: %s", utils.SanitizeURLForLog(targetURL))

		result := be.extractSingleURL(ctx, targetURL)
		summary.Results = append(summary.Results, result)

		if result.Success {
			summary.SuccessCount++
			summary.TotalLinks += len(result.Result.Links)
		} else {
			summary.FailCount++
			utils.Errorf("❌ 提取失败: %s", result.Error)

			if !be.continueOnErr {
				utils.Warn("批量提取中止 (continue_on_error=false)")
				break
			}
		}

		if bar != nil {
			_ = bar.Add(1)
		}

		// 批量延迟(最后一个URL不需要延迟)
		if i < len(urls)-1 && be.interURLDelay > 0 {
			utils.Debugf("等待 %.0f 秒后处理下一个URL...", be.interURLDelay.Seconds())
			select {
			case <-ctx.Done():
				utils.Warn("批量提取被取消")
				summary.TotalDuration = time.Since(startTime).Seconds()
				be.printSummary(summary)
				return summary, ctx.Err()
			case <-time.After(be.interURLDelay):
			}
		}
	}

	summary.TotalDuration = time.Since(startTime).Seconds()
	be.printSummary(summary)

	return summary, nil
}

// extractSingleURL 提取单个URL
func (be *BatchExtractor) extractSingleURL(ctx context.Context, targetURL string) BatchResult {
	result := BatchResult{
		URL:         targetURL,
		ProcessedAt: time.Now(),
	}

	startTime := time.Now()

	extraction, err := be.extractor.ExtractLinks(ctx, targetURL, be.requesterID)
	result.Duration = time.Since(startTime).Seconds()

	if err != nil {
		result.Success = false
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.Result = extraction
	return result
}

// printSummary 打印批量提取摘要
func (be *BatchExtractor) printSummary(summary *BatchSummary) {
	utils.Info("==================================================")
	utils.Info("📊 批量提取摘要")
	utils.Info("==================================================")
	utils.Infof("总URL数: %d", summary.TotalURLs)
	utils.Infof("✅ 成功: %d", summary.SuccessCount)
	utils.Infof("❌ 失败: %d", summary.FailCount)
	utils.Infof("🔗 总链接数: %d", summary.TotalLinks)
	utils.Infof("⏱️  总耗时: %.2f秒", summary.TotalDuration)
	utils.Info("==================================================")

	if summary.FailCount > 0 {
		utils.Warn("失败的URL:")
		for _, result := range summary.Results {
			if !result.Success {
				utils.Warnf("  - %s: %s", result.URL, result.Error)
			}
		}
	}
}
