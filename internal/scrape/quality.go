package scrape

import (
	"regexp"

	"github.com/RecoveryAshes/StreamLinkcrack/internal/models"
)

// qualityPatterns 清晰度识别模式
// 按固定优先级匹配: 高清晰度的标记先检查,避免"fullhd"被"hd"截获
var qualityPatterns = []struct {
	quality models.VideoQuality
	pattern *regexp.Regexp
}{
	{models.Quality4K, regexp.MustCompile(`(?i)(4k|2160p|uhd|ultra.?hd)`)},
	{models.Quality1080p, regexp.MustCompile(`(?i)(1080p|fullhd|fhd|full.?hd)`)},
	{models.Quality720p, regexp.MustCompile(`(?i)(720p|hd|high.?def)`)},
	{models.Quality480p, regexp.MustCompile(`(?i)(480p|sd|standard.?def)`)},
	{models.Quality360p, regexp.MustCompile(`(?i)(360p|low.?quality)`)},
	{models.Quality240p, regexp.MustCompile(`(?i)(240p|very.?low)`)},
}

// formatPatterns 格式识别模式(按扩展名)
var formatPatterns = []struct {
	format  models.LinkFormat
	pattern *regexp.Regexp
}{
	{models.FormatM3U8, regexp.MustCompile(`(?i)\.m3u8(\?|$|#)`)},
	{models.FormatDASH, regexp.MustCompile(`(?i)\.mpd(\?|$|#)`)},
	{models.FormatMP4, regexp.MustCompile(`(?i)\.(mp4|m4v)(\?|$|#)`)},
	{models.FormatMKV, regexp.MustCompile(`(?i)\.mkv(\?|$|#)`)},
	{models.FormatAVI, regexp.MustCompile(`(?i)\.avi(\?|$|#)`)},
	{models.FormatWebM, regexp.MustCompile(`(?i)\.webm(\?|$|#)`)},
}

// hlsPathPattern 路径中的HLS特征(无扩展名时的兜底判断)
var hlsPathPattern = regexp.MustCompile(`(?i)(/hls/|/live/|[?&](format|type)=(hls|m3u8))`)

// dashPathPattern 路径中的DASH特征
var dashPathPattern = regexp.MustCompile(`(?i)(/dash/|[?&](format|type)=(dash|mpd))`)

// DetectQuality 从URL(通常是文件名部分)识别清晰度标签
// 未命中任何模式时返回Unknown,不做猜测
func DetectQuality(rawURL string) models.VideoQuality {
	for _, entry := range qualityPatterns {
		if entry.pattern.MatchString(rawURL) {
			return entry.quality
		}
	}
	return models.QualityUnknown
}

// DetectFormat 从URL识别视频格式
func DetectFormat(rawURL string) models.LinkFormat {
	for _, entry := range formatPatterns {
		if entry.pattern.MatchString(rawURL) {
			return entry.format
		}
	}
	if hlsPathPattern.MatchString(rawURL) {
		return models.FormatM3U8
	}
	if dashPathPattern.MatchString(rawURL) {
		return models.FormatDASH
	}
	return models.FormatUnknown
}

// Classify 将候选链接分类为StreamLink(格式+清晰度+排序权重)
func Classify(c models.Candidate) models.StreamLink {
	return models.NewStreamLink(c, DetectFormat(c.RawURL), DetectQuality(c.RawURL))
}
