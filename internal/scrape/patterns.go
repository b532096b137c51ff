package scrape

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/RecoveryAshes/StreamLinkcrack/internal/models"
	"github.com/RecoveryAshes/StreamLinkcrack/internal/utils"
)

// extPattern 视频/流媒体扩展名的正则片段
var extPattern = strings.Join(append(append([]string{}, models.VideoFileExtensions...), models.StreamingExtensions...), "|")

// directPatterns 直接链接模式: HTML标记属性中的视频URL
var directPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<video[^>]*src=["']([^"']+)["']`),
	regexp.MustCompile(`(?i)<source[^>]*src=["']([^"']+)["']`),
	regexp.MustCompile(`(?i)src=["']([^"']*\.(?:` + extPattern + `)(?:\?[^"']*)?)["']`),
	regexp.MustCompile(`(?i)data-src=["']([^"']*\.(?:` + extPattern + `)(?:\?[^"']*)?)["']`),
	regexp.MustCompile(`(?i)data-video=["']([^"']+)["']`),
	regexp.MustCompile(`(?i)data-file=["']([^"']+)["']`),
}

// scriptBlockPattern 内联脚本块
var scriptBlockPattern = regexp.MustCompile(`(?is)<script[^>]*>(.*?)</script>`)

// scriptPatterns 脚本内容中的视频URL模式
var scriptPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)["']([^"']*\.(?:` + extPattern + `)(?:\?[^"']*)?)["']`),
	regexp.MustCompile(`(?i)(?:url|src|file|source|video)\s*[:=]\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)(?:hls|dash|mp4|webm|mkv)\s*[:=]\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)playlist\s*[:=]\s*["']([^"']+\.m3u8[^"']*)["']`),
	regexp.MustCompile(`(?i)manifest\s*[:=]\s*["']([^"']+\.mpd[^"']*)["']`),
}

// playerPatterns 常见网页播放器的初始化配置块
var playerPatterns = map[string]*regexp.Regexp{
	"jwplayer":   regexp.MustCompile(`(?i)jwplayer\([^)]*\)\.setup\(\s*\{([^}]+)\}\s*\)`),
	"flowplayer": regexp.MustCompile(`(?i)flowplayer\([^)]*,\s*\{([^}]+)\}\s*\)`),
	"videojs":    regexp.MustCompile(`(?i)videojs\([^)]*\)\.src\(\s*([^)]+)\s*\)`),
	"plyr":       regexp.MustCompile(`(?i)new\s+Plyr\([^)]*,\s*\{([^}]+)\}\s*\)`),
	"dplayer":    regexp.MustCompile(`(?i)new\s+DPlayer\(\s*\{([^}]+)\}\s*\)`),
}

// playerURLPatterns 播放器配置块中的URL字段
var playerURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)["']file["']\s*:\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)["']src["']\s*:\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)["']source["']\s*:\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)["']url["']\s*:\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)file\s*:\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)src\s*:\s*["']([^"']+)["']`),
}

// jsonBlockPatterns 脚本中疑似JSON的片段
var jsonBlockPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\{[^{}]*(?:"(?:url|src|file|source|video|hls|dash)"[^{}]*)+[^{}]*\})`),
	regexp.MustCompile(`(\[[^\[\]]*(?:"(?:url|src|file|source|video|hls|dash)"[^\[\]]*)+[^\[\]]*\])`),
	regexp.MustCompile(`(?:var|const|let)\s+\w+\s*=\s*(\{[^;]+\});`),
}

// jsonCleanPatterns JSON解析前的清理(换行+JS注释)
var (
	jsonWhitespacePattern = regexp.MustCompile(`[\r\n\t]`)
	jsonBlockComment      = regexp.MustCompile(`/\*.*?\*/`)
	jsonLineComment       = regexp.MustCompile(`//[^"]*$`)
)

// metaPatterns meta/link标签中的视频URL
var metaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<meta[^>]*property=["']og:video["'][^>]*content=["']([^"']+)["']`),
	regexp.MustCompile(`(?i)<meta[^>]*name=["']twitter:player:stream["'][^>]*content=["']([^"']+)["']`),
	regexp.MustCompile(`(?i)<link[^>]*rel=["']video_src["'][^>]*href=["']([^"']+)["']`),
	regexp.MustCompile(`(?i)<link[^>]*type=["']video/[^"']*["'][^>]*href=["']([^"']+)["']`),
}

// iframePattern iframe来源
var iframePattern = regexp.MustCompile(`(?i)<iframe[^>]*src=["']([^"']+)["']`)

// streamingKeywords URL中暗示流媒体的关键字
var streamingKeywords = []string{
	"stream", "video", "play", "hls", "dash", "cdn", "media", "mp4", "m3u8",
}

// nonVideoPatterns 明确排除的非视频资源特征
var nonVideoPatterns = []string{
	"css", "js", "json", "xml", "txt", "html", "php",
	"jpg", "jpeg", "png", "gif", "svg", "ico", "webp",
	"font", "ttf", "woff", "eot",
	"api/track", "analytics", "ads", "advertisement",
}

// videoIframeIndicators iframe URL中暗示播放器的关键字
var videoIframeIndicators = []string{
	"player", "embed", "video", "stream", "play", "watch",
	"movie", "film", "tv", "episode", "show",
}

// nonVideoIframeIndicators 排除的iframe类型(广告/统计/社交组件)
var nonVideoIframeIndicators = []string{
	"ad", "analytics", "tracking", "facebook", "twitter",
	"comment", "disqus", "share", "social",
}

// MinCandidateURLLength 候选URL最小长度
const MinCandidateURLLength = 10

// candidateCollector 候选链接收集器
// 负责相对URL绝对化、不安全URL过滤和页面内去重
type candidateCollector struct {
	base    *url.URL
	pageURL string
	depth   int
	seen    map[string]bool
	out     []models.Candidate
	mu      sync.Mutex
}

func newCandidateCollector(pageURL string, depth int) *candidateCollector {
	base, _ := url.Parse(pageURL)
	return &candidateCollector{
		base:    base,
		pageURL: pageURL,
		depth:   depth,
		seen:    make(map[string]bool),
	}
}

// add 添加一个候选URL(已过滤、绝对化、去重)
func (c *candidateCollector) add(rawURL string, method models.DiscoveryMethod) {
	absolute, ok := c.absolutize(rawURL)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen[absolute] {
		return
	}
	c.seen[absolute] = true
	c.out = append(c.out, models.Candidate{
		RawURL:        absolute,
		SourcePageURL: c.pageURL,
		Method:        method,
		Depth:         c.depth,
		Order:         len(c.out),
	})
}

// absolutize 将候选URL绝对化并执行安全检查
func (c *candidateCollector) absolutize(rawURL string) (string, bool) {
	trimmed := strings.TrimSpace(rawURL)
	if len(trimmed) < MinCandidateURLLength && !strings.HasPrefix(trimmed, "/") {
		return "", false
	}
	if utils.IsUnsafeURL(trimmed) {
		return "", false
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", false
	}
	if c.base != nil {
		parsed = c.base.ResolveReference(parsed)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", false
	}

	absolute := parsed.String()
	if len(absolute) < MinCandidateURLLength || utils.IsUnsafeURL(absolute) {
		return "", false
	}
	return absolute, true
}

// ExtractCandidates 在页面HTML上运行全部提取策略
// 策略之间互不影响: 单个策略失败(如JSON解析错误)不中止其它策略
func ExtractCandidates(htmlContent, pageURL string, depth int) []models.Candidate {
	collector := newCandidateCollector(pageURL, depth)

	extractDirect(htmlContent, collector)
	extractStructural(htmlContent, collector)
	extractScripts(htmlContent, collector)
	extractMeta(htmlContent, collector)

	return collector.out
}

// extractDirect 直接链接策略: video/source标记和data-*属性
func extractDirect(content string, c *candidateCollector) {
	for _, pattern := range directPatterns {
		for _, match := range pattern.FindAllStringSubmatch(content, -1) {
			c.add(match[1], models.DiscoveryDirect)
		}
	}
}

// extractStructural DOM结构策略: goquery解析后按选择器提取
// 与正则策略互补,能处理属性顺序和引号风格的变体
func extractStructural(content string, c *candidateCollector) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		utils.Debugf("DOM解析失败,跳过结构化提取: %v", err)
		return
	}

	doc.Find("video[src], video source[src], audio source[src], source[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			c.add(src, models.DiscoveryDirect)
		}
	})

	doc.Find("[data-video], [data-file]").Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("data-video"); ok {
			c.add(v, models.DiscoveryDirect)
		}
		if v, ok := s.Attr("data-file"); ok {
			c.add(v, models.DiscoveryDirect)
		}
	})

	doc.Find("[data-src]").Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("data-src"); ok && IsLikelyVideoURL(v) {
			c.add(v, models.DiscoveryDirect)
		}
	})
}

// extractScripts 内联脚本策略: URL模式 + 播放器配置 + 内嵌JSON
func extractScripts(content string, c *candidateCollector) {
	for _, block := range scriptBlockPattern.FindAllStringSubmatch(content, -1) {
		script := block[1]

		for i, pattern := range scriptPatterns {
			for _, match := range pattern.FindAllStringSubmatch(script, -1) {
				candidate := match[1]
				// 泛型赋值模式(url:/src:等)匹配面广,必须先过视频相似度检查
				if i > 0 && !IsLikelyVideoURL(candidate) {
					continue
				}
				c.add(candidate, models.DiscoveryScript)
			}
		}

		extractPlayerConfigs(script, c)
		extractEmbeddedJSON(script, c)
	}
}

// extractPlayerConfigs 播放器配置策略: jwplayer/videojs/flowplayer/Plyr/DPlayer
func extractPlayerConfigs(script string, c *candidateCollector) {
	for name, pattern := range playerPatterns {
		for _, match := range pattern.FindAllStringSubmatch(script, -1) {
			config := match[1]
			utils.Debugf("命中%s播放器配置块", name)
			for _, urlPattern := range playerURLPatterns {
				for _, urlMatch := range urlPattern.FindAllStringSubmatch(config, -1) {
					if IsLikelyVideoURL(urlMatch[1]) {
						c.add(urlMatch[1], models.DiscoveryScript)
					}
				}
			}
		}
	}
}

// extractEmbeddedJSON 内嵌JSON策略: 解析脚本中的JSON结构并递归提取URL值
func extractEmbeddedJSON(script string, c *candidateCollector) {
	for _, pattern := range jsonBlockPatterns {
		for _, match := range pattern.FindAllStringSubmatch(script, -1) {
			raw := match[1]
			raw = jsonWhitespacePattern.ReplaceAllString(raw, "")
			raw = jsonBlockComment.ReplaceAllString(raw, "")
			raw = jsonLineComment.ReplaceAllString(raw, "")

			var data interface{}
			if err := json.Unmarshal([]byte(raw), &data); err != nil {
				// 不是合法JSON,静默跳过
				continue
			}
			walkJSONValue(data, c)
		}
	}
}

// walkJSONValue 递归遍历JSON值,收集疑似视频URL的字符串
func walkJSONValue(data interface{}, c *candidateCollector) {
	switch v := data.(type) {
	case map[string]interface{}:
		for _, value := range v {
			if s, ok := value.(string); ok {
				if IsLikelyVideoURL(s) {
					c.add(s, models.DiscoveryScript)
				}
				continue
			}
			walkJSONValue(value, c)
		}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				if IsLikelyVideoURL(s) {
					c.add(s, models.DiscoveryScript)
				}
				continue
			}
			walkJSONValue(item, c)
		}
	}
}

// extractMeta meta/link标签策略: og:video等开放协议标记
func extractMeta(content string, c *candidateCollector) {
	for _, pattern := range metaPatterns {
		for _, match := range pattern.FindAllStringSubmatch(content, -1) {
			c.add(match[1], models.DiscoveryDirect)
		}
	}
}

// DiscoverIframes 发现页面中疑似视频播放器的iframe地址(已绝对化、去重)
func DiscoverIframes(htmlContent, pageURL string) []string {
	base, _ := url.Parse(pageURL)
	seen := make(map[string]bool)
	var result []string

	appendIframe := func(src string) {
		if !IsLikelyVideoIframe(src) || utils.HasUnsafePattern(src) {
			return
		}
		parsed, err := url.Parse(strings.TrimSpace(src))
		if err != nil {
			return
		}
		if base != nil {
			parsed = base.ResolveReference(parsed)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return
		}
		absolute := parsed.String()
		if seen[absolute] || utils.HasUnsafePattern(absolute) {
			return
		}
		// 与所在页面同主机的iframe继承页面的信任(页面URL已通过域名校验),
		// 跨主机的内网地址仍然拦截
		host := strings.ToLower(parsed.Hostname())
		sameHost := base != nil && strings.EqualFold(parsed.Hostname(), base.Hostname())
		if !sameHost && host != "" && utils.IsPrivateHost(host) {
			return
		}
		seen[absolute] = true
		result = append(result, absolute)
	}

	for _, match := range iframePattern.FindAllStringSubmatch(htmlContent, -1) {
		appendIframe(match[1])
	}

	// goquery兜底: 处理正则覆盖不到的属性写法
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent)); err == nil {
		doc.Find("iframe[src]").Each(func(_ int, s *goquery.Selection) {
			if src, ok := s.Attr("src"); ok {
				appendIframe(src)
			}
		})
	}

	return result
}

// IsLikelyVideoURL 判断URL是否疑似视频链接
// 规则: 扩展名命中→是; 流媒体关键字命中→是; 排除特征命中→否; 其余→是
func IsLikelyVideoURL(rawURL string) bool {
	if len(rawURL) < MinCandidateURLLength {
		return false
	}

	lower := strings.ToLower(rawURL)

	for _, ext := range models.VideoFileExtensions {
		if strings.Contains(lower, "."+ext) {
			return true
		}
	}
	for _, ext := range models.StreamingExtensions {
		if strings.Contains(lower, "."+ext) {
			return true
		}
	}

	for _, keyword := range streamingKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}

	for _, pattern := range nonVideoPatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}

	return true
}

// IsLikelyVideoIframe 判断iframe URL是否疑似视频播放器
// 与IsLikelyVideoURL不同,默认拒绝: 只抓取有播放器特征的iframe
// 播放器关键字优先于排除关键字, 避免"ad"误伤load/download等路径
func IsLikelyVideoIframe(rawURL string) bool {
	lower := strings.ToLower(rawURL)

	for _, indicator := range videoIframeIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	for _, indicator := range nonVideoIframeIndicators {
		if strings.Contains(lower, indicator) {
			return false
		}
	}
	return false
}
