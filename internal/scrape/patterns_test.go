package scrape

import (
	"testing"

	"github.com/RecoveryAshes/StreamLinkcrack/internal/models"
)

const basePageURL = "https://phimmoi.net/phim/ten-phim/tap-1"

// findCandidate 按URL查找候选链接
func findCandidate(cands []models.Candidate, url string) (models.Candidate, bool) {
	for _, c := range cands {
		if c.RawURL == url {
			return c, true
		}
	}
	return models.Candidate{}, false
}

func TestExtractCandidatesDirect(t *testing.T) {
	html := `<html><body>
		<video src="https://cdn.example.com/ten-phim-720p.mp4"></video>
		<video><source src="/media/ten-phim-1080p.mp4" type="video/mp4"></video>
		<div data-video="https://cdn2.example.com/stream/ep1.m3u8"></div>
		<div data-file="https://cdn2.example.com/backup/ep1.mp4"></div>
		<img src="https://cdn.example.com/poster.jpg">
	</body></html>`

	cands := ExtractCandidates(html, basePageURL, 0)

	if _, ok := findCandidate(cands, "https://cdn.example.com/ten-phim-720p.mp4"); !ok {
		t.Error("期望提取video标记的src")
	}
	// 相对路径必须绝对化
	if _, ok := findCandidate(cands, "https://phimmoi.net/media/ten-phim-1080p.mp4"); !ok {
		t.Error("期望source标记的相对路径被绝对化")
	}
	if _, ok := findCandidate(cands, "https://cdn2.example.com/stream/ep1.m3u8"); !ok {
		t.Error("期望提取data-video属性")
	}
	if _, ok := findCandidate(cands, "https://cdn2.example.com/backup/ep1.mp4"); !ok {
		t.Error("期望提取data-file属性")
	}
	if _, ok := findCandidate(cands, "https://cdn.example.com/poster.jpg"); ok {
		t.Error("图片不应成为候选链接")
	}
}

func TestExtractCandidatesScript(t *testing.T) {
	html := `<html><head><script>
		var player = {
			file: "https://cdn.example.com/hls/ep1/master.m3u8",
			poster: "/img/poster.jpg"
		};
		var playlist = "https://cdn.example.com/playlist-720p.m3u8";
	</script></head></html>`

	cands := ExtractCandidates(html, basePageURL, 0)

	if _, ok := findCandidate(cands, "https://cdn.example.com/hls/ep1/master.m3u8"); !ok {
		t.Error("期望提取脚本中的file字段")
	}
	if _, ok := findCandidate(cands, "https://cdn.example.com/playlist-720p.m3u8"); !ok {
		t.Error("期望提取脚本中的m3u8字符串")
	}

	for _, c := range cands {
		if c.Method != models.DiscoveryScript && c.Method != models.DiscoveryDirect {
			t.Errorf("发现方式非法: %s", c.Method)
		}
	}
}

func TestExtractCandidatesPlayerConfig(t *testing.T) {
	html := `<html><body><script>
		jwplayer("player").setup({
			"file": "https://cdn.example.com/jw/ep2-1080p.m3u8",
			"image": "poster.jpg"
		});
	</script>
	<script>
		var dp = new DPlayer({
			"url": "https://cdn.example.com/dp/ep2-720p.mp4"
		});
	</script></body></html>`

	cands := ExtractCandidates(html, basePageURL, 0)

	if _, ok := findCandidate(cands, "https://cdn.example.com/jw/ep2-1080p.m3u8"); !ok {
		t.Error("期望提取jwplayer配置中的file")
	}
	if _, ok := findCandidate(cands, "https://cdn.example.com/dp/ep2-720p.mp4"); !ok {
		t.Error("期望提取DPlayer配置中的url")
	}
}

func TestExtractCandidatesEmbeddedJSON(t *testing.T) {
	html := `<html><script>
		window.__DATA__ = {"sources":[{"src":"https://cdn.example.com/json/ep3-480p.mp4","label":"480p"}]};
	</script></html>`

	cands := ExtractCandidates(html, basePageURL, 0)

	cand, ok := findCandidate(cands, "https://cdn.example.com/json/ep3-480p.mp4")
	if !ok {
		t.Fatal("期望从内嵌JSON中提取视频URL")
	}
	if cand.Method != models.DiscoveryScript {
		t.Errorf("内嵌JSON候选应标记为script来源: %s", cand.Method)
	}
}

func TestExtractCandidatesInvalidJSONIgnored(t *testing.T) {
	// JSON解析失败不能中止其它策略
	html := `<html><script>
		var broken = {file: not valid json at all};
	</script>
	<video src="https://cdn.example.com/still-works-720p.mp4"></video></html>`

	cands := ExtractCandidates(html, basePageURL, 0)

	if _, ok := findCandidate(cands, "https://cdn.example.com/still-works-720p.mp4"); !ok {
		t.Error("JSON解析失败不应影响直接链接策略")
	}
}

func TestExtractCandidatesMeta(t *testing.T) {
	html := `<html><head>
		<meta property="og:video" content="https://cdn.example.com/og/ep1-720p.mp4">
		<link rel="video_src" href="https://cdn.example.com/legacy/ep1.mp4">
	</head></html>`

	cands := ExtractCandidates(html, basePageURL, 0)

	if _, ok := findCandidate(cands, "https://cdn.example.com/og/ep1-720p.mp4"); !ok {
		t.Error("期望提取og:video元数据")
	}
	if _, ok := findCandidate(cands, "https://cdn.example.com/legacy/ep1.mp4"); !ok {
		t.Error("期望提取video_src链接标记")
	}
}

func TestExtractCandidatesRejectsUnsafe(t *testing.T) {
	html := `<html><body>
		<div data-video="javascript:alert(1)"></div>
		<div data-file="http://127.0.0.1/internal.mp4"></div>
		<video src="https://cdn.example.com/ok-720p.mp4"></video>
	</body></html>`

	cands := ExtractCandidates(html, basePageURL, 0)

	for _, c := range cands {
		if c.RawURL != "https://cdn.example.com/ok-720p.mp4" {
			t.Errorf("不安全URL不应成为候选: %s", c.RawURL)
		}
	}
	if len(cands) != 1 {
		t.Errorf("期望只保留1个安全候选, 实际%d个", len(cands))
	}
}

func TestExtractCandidatesDedupe(t *testing.T) {
	// 同一URL被多个策略发现时只保留一次
	html := `<html>
		<video src="https://cdn.example.com/same-720p.mp4"></video>
		<script>var f = "https://cdn.example.com/same-720p.mp4";</script>
	</html>`

	cands := ExtractCandidates(html, basePageURL, 0)

	count := 0
	for _, c := range cands {
		if c.RawURL == "https://cdn.example.com/same-720p.mp4" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("期望页面内去重, 实际出现%d次", count)
	}
}

func TestExtractCandidatesOrder(t *testing.T) {
	html := `<html>
		<video src="https://cdn.example.com/first-720p.mp4"></video>
		<video src="https://cdn.example.com/second-720p.mp4"></video>
	</html>`

	cands := ExtractCandidates(html, basePageURL, 0)

	first, ok1 := findCandidate(cands, "https://cdn.example.com/first-720p.mp4")
	second, ok2 := findCandidate(cands, "https://cdn.example.com/second-720p.mp4")
	if !ok1 || !ok2 {
		t.Fatal("期望两个候选都被提取")
	}
	if first.Order >= second.Order {
		t.Errorf("发现顺序错误: first=%d second=%d", first.Order, second.Order)
	}
}

func TestDiscoverIframes(t *testing.T) {
	html := `<html><body>
		<iframe src="https://player.example.com/embed/ep1"></iframe>
		<iframe src="/embed/backup-player"></iframe>
		<iframe src="https://ads.tracker.com/banner"></iframe>
		<iframe src="https://www.facebook.com/plugins/like.php"></iframe>
	</body></html>`

	iframes := DiscoverIframes(html, basePageURL)

	want := map[string]bool{
		"https://player.example.com/embed/ep1":    true,
		"https://phimmoi.net/embed/backup-player": true,
	}
	if len(iframes) != len(want) {
		t.Fatalf("期望%d个播放器iframe, 实际%d个: %v", len(want), len(iframes), iframes)
	}
	for _, u := range iframes {
		if !want[u] {
			t.Errorf("不应跟随的iframe: %s", u)
		}
	}
}

func TestDiscoverIframesSameHostTrust(t *testing.T) {
	// 页面URL已通过域名校验,同主机iframe跟随; 跨主机的内网地址仍拦截
	html := `<html><body>
		<iframe src="/embed/player2"></iframe>
		<iframe src="http://10.0.0.8/embed/mirror"></iframe>
	</body></html>`

	iframes := DiscoverIframes(html, "http://127.0.0.1:8080/phim/tap-1")

	if len(iframes) != 1 {
		t.Fatalf("期望1个iframe, 实际%d个: %v", len(iframes), iframes)
	}
	if iframes[0] != "http://127.0.0.1:8080/embed/player2" {
		t.Errorf("同主机iframe应被保留: %v", iframes)
	}
}

func TestIsLikelyVideoURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"视频扩展名", "https://cdn.example.com/a.mp4", true},
		{"流媒体关键字", "https://cdn.example.com/stream/ep1", true},
		{"css资源", "https://example.com/styles/main.css", false},
		{"统计脚本", "https://example.com/analytics/collect", false},
		{"图片", "https://example.com/poster.jpg", false},
		{"过短", "http://a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLikelyVideoURL(tt.url); got != tt.want {
				t.Errorf("IsLikelyVideoURL(%s) = %v, 期望 %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsLikelyVideoIframe(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"embed路径", "https://x.com/embed/ep1", true},
		{"统计iframe", "https://x.com/analytics/frame", false},
		{"无播放器特征默认拒绝", "https://x.com/about", false},
		// 播放器关键字命中时, load/download/adaptive等含"ad"的路径不应被误杀
		{"player目录下的load脚本", "https://host.example.com/player/load.php?id=1", true},
		{"embed下载备用线路", "https://host.example.com/embed/download-server2", true},
		{"自适应播放器", "https://cdn.example.com/adaptive-player/embed/ep1", true},
		{"纯广告iframe", "https://adserver.example.com/banner/123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLikelyVideoIframe(tt.url); got != tt.want {
				t.Errorf("IsLikelyVideoIframe(%s) = %v, 期望 %v", tt.url, got, tt.want)
			}
		})
	}
}
