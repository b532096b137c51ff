package models

import (
	"encoding/json"
	"sort"
	"strings"
)

// VideoFileExtensions 支持的视频文件扩展名
var VideoFileExtensions = []string{
	"mp4", "mkv", "avi", "mov", "wmv", "flv", "webm", "m4v", "3gp", "ogv",
}

// StreamingExtensions 流媒体清单/分片扩展名
var StreamingExtensions = []string{
	"m3u8", "mpd", "f4m", "f4v", "ts",
}

// DiscoveryMethod 候选链接的发现方式
type DiscoveryMethod string

const (
	DiscoveryDirect DiscoveryMethod = "direct" // 直接出现在HTML标记中
	DiscoveryScript DiscoveryMethod = "script" // 内联脚本/JSON中发现
	DiscoveryIframe DiscoveryMethod = "iframe" // iframe递归解析发现
)

// LinkFormat 视频链接格式
type LinkFormat string

const (
	FormatMP4     LinkFormat = "MP4"
	FormatM3U8    LinkFormat = "M3U8"
	FormatMKV     LinkFormat = "MKV"
	FormatAVI     LinkFormat = "AVI"
	FormatWebM    LinkFormat = "WebM"
	FormatDASH    LinkFormat = "DASH"
	FormatUnknown LinkFormat = "Unknown"
)

// VideoQuality 视频清晰度标签
type VideoQuality string

const (
	Quality4K      VideoQuality = "4K"
	Quality1080p   VideoQuality = "1080p"
	Quality720p    VideoQuality = "720p"
	Quality480p    VideoQuality = "480p"
	Quality360p    VideoQuality = "360p"
	Quality240p    VideoQuality = "240p"
	QualityUnknown VideoQuality = "Unknown"
)

// qualityRanks 清晰度排序权重(越大越优先)
// 固定全序: 4K > 1080p > 720p > 480p > 360p > 240p > Unknown
var qualityRanks = map[VideoQuality]int{
	Quality4K:      6,
	Quality1080p:   5,
	Quality720p:    4,
	Quality480p:    3,
	Quality360p:    2,
	Quality240p:    1,
	QualityUnknown: 0,
}

// Rank 返回清晰度排序权重
func (q VideoQuality) Rank() int {
	return qualityRanks[q]
}

// Candidate 提取过程中发现的候选链接(未分类、未验证)
type Candidate struct {
	RawURL        string          `json:"raw_url"`     // 发现的原始URL(已绝对化)
	SourcePageURL string          `json:"source_page"` // 发现该URL的页面
	Method        DiscoveryMethod `json:"method"`      // 发现方式
	Depth         int             `json:"depth"`       // iframe递归深度(根页面为0)
	Order         int             `json:"order"`       // 发现顺序(用于稳定排序)
}

// StreamLink 最终输出的流媒体链接
// 一经产生即不可变; 结果集按QualityRank降序、发现顺序升序排列
type StreamLink struct {
	URL         string       `json:"url"`
	Format      LinkFormat   `json:"format"`
	Quality     VideoQuality `json:"quality"`
	QualityRank int          `json:"quality_rank"`
	Validated   bool         `json:"validated"`

	// 来源信息(便于排查提取策略问题)
	Method DiscoveryMethod `json:"method"`
	Depth  int             `json:"depth"`
	order  int
}

// SortStreamLinks 对结果排序
// 排序规则: QualityRank降序 → 同清晰度时已验证链接优先 → 发现顺序升序
func SortStreamLinks(links []StreamLink) {
	sort.SliceStable(links, func(i, j int) bool {
		if links[i].QualityRank != links[j].QualityRank {
			return links[i].QualityRank > links[j].QualityRank
		}
		if links[i].Validated != links[j].Validated {
			return links[i].Validated
		}
		return links[i].order < links[j].order
	})
}

// NewStreamLink 从候选链接构造StreamLink(保留发现顺序)
func NewStreamLink(c Candidate, format LinkFormat, quality VideoQuality) StreamLink {
	return StreamLink{
		URL:         c.RawURL,
		Format:      format,
		Quality:     quality,
		QualityRank: quality.Rank(),
		Method:      c.Method,
		Depth:       c.Depth,
		order:       c.Order,
	}
}

// ExtractionResult 一次提取调用的完整结果
type ExtractionResult struct {
	Links   []StreamLink `json:"links"`
	Partial bool         `json:"partial"` // 超时截断时为true(结果仍然可用)
	Elapsed float64      `json:"elapsed"` // 总耗时(秒)
}

// ToJSON 序列化为JSON
func (r *ExtractionResult) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// HasVideoExtension 检查URL是否带视频文件扩展名
func HasVideoExtension(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, ext := range VideoFileExtensions {
		if strings.HasSuffix(lower, "."+ext) || strings.Contains(lower, "."+ext+"?") {
			return true
		}
	}
	return false
}

// HasStreamingExtension 检查URL是否为流媒体清单格式
func HasStreamingExtension(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, ext := range StreamingExtensions {
		if strings.HasSuffix(lower, "."+ext) || strings.Contains(lower, "."+ext+"?") {
			return true
		}
	}
	return false
}
