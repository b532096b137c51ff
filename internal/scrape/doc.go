// Package scrape 提供页面抓取和流媒体链接提取功能
//
// # 概述
//
// scrape包实现了从剧集页面HTML中发现直链视频地址的完整抓取侧能力:
// 带重试和限速的页面抓取、多策略模式提取、iframe递归解析、
// 清晰度/格式分类和链接可达性探测。
//
// # 核心组件
//
// ## Fetcher
//
// 带重试的HTTP抓取器。浏览器头部伪装、User-Agent轮换、重定向上限、
// gzip/deflate/brotli解压、10MB响应体上限、按主机礼貌限速。
// 超时/连接失败/5xx/429指数退避重试,其余4xx立即失败。
//
//	fetcher := NewFetcher(config, headerProvider)
//	result, err := fetcher.Fetch(ctx, "https://example.com/phim/episode-1")
//
// ## 模式提取 (ExtractCandidates)
//
// 在页面HTML上运行全部提取策略并取并集:
//   - 直接链接: video/source标记、src/data-src/data-video/data-file属性
//   - DOM结构: goquery选择器,处理正则覆盖不到的属性写法
//   - 内联脚本: URL赋值模式、playlist/manifest字段
//   - 播放器配置: jwplayer/videojs/flowplayer/Plyr/DPlayer初始化块
//   - 内嵌JSON: 递归遍历JSON结构中的URL值
//   - meta/link标记: og:video、twitter:player:stream等
//
// 单个策略失败不影响其它策略。产出经过视频相似度过滤、
// 不安全URL拒绝和页面内去重。
//
// ## IframeResolver
//
// 基于Colly的iframe解析器。只跟随疑似播放器的iframe,
// 已访问集合抑制环路,深度和并发数受配置限制,
// 并发度会根据ResourceMonitor的资源状况收缩。
// 单个iframe失败只记录日志,不影响整体结果。
//
//	resolver := NewIframeResolver(config, headerProvider, monitor)
//	candidates := resolver.Resolve(ctx, iframeURLs, rootURL)
//
// ## 分类 (Classify)
//
// 从URL文本识别清晰度(4K/1080p/720p/480p/360p/240p)和
// 格式(MP4/M3U8/MKV/AVI/WebM/DASH)。识别不出时保留Unknown,不做猜测。
//
// ## LinkProber
//
// 可达性探测器。HEAD请求验证链接,部分CDN不支持HEAD时
// 改用Range头只取1字节的GET。探测失败不剔除链接。
//
//	prober := NewLinkProber(config)
//	links = prober.ProbeAll(ctx, links)
//
// # 并发安全
//
// 所有核心组件都是并发安全的:
//   - Fetcher: sync.Mutex保护限速器表和UA轮换索引
//   - IframeResolver: sync.RWMutex保护已访问集合
//   - candidateCollector: sync.Mutex保护去重表
package scrape
