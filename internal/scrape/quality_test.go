package scrape

import (
	"testing"

	"github.com/RecoveryAshes/StreamLinkcrack/internal/models"
)

func TestDetectQuality(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want models.VideoQuality
	}{
		{"720p标记", "https://cdn.example.com/ten-phim-720p.mp4", models.Quality720p},
		{"1080p标记", "https://cdn.example.com/movie_1080p.m3u8", models.Quality1080p},
		{"fullhd别名", "https://cdn.example.com/movie-fullhd.mp4", models.Quality1080p},
		{"4k标记", "https://cdn.example.com/movie.4k.mp4", models.Quality4K},
		{"2160p标记", "https://cdn.example.com/movie-2160p.mkv", models.Quality4K},
		{"uhd别名", "https://cdn.example.com/uhd/movie.mp4", models.Quality4K},
		{"480p标记", "https://cdn.example.com/ep3-480p.mp4", models.Quality480p},
		{"sd别名", "https://cdn.example.com/sd/ep3.mp4", models.Quality480p},
		{"360p标记", "https://cdn.example.com/ep-360p.webm", models.Quality360p},
		{"240p标记", "https://cdn.example.com/ep-240p.3gp", models.Quality240p},
		{"大写标记", "https://cdn.example.com/MOVIE-720P.MP4", models.Quality720p},
		{"无标记", "https://cdn.example.com/stream/ep1.m3u8", models.QualityUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectQuality(tt.url); got != tt.want {
				t.Errorf("DetectQuality(%s) = %s, 期望 %s", tt.url, got, tt.want)
			}
		})
	}
}

func TestDetectQualityPriority(t *testing.T) {
	// fullhd同时命中"hd",必须优先判定为1080p
	if got := DetectQuality("https://cdn.example.com/movie-fullhd.mp4"); got != models.Quality1080p {
		t.Errorf("fullhd应判定为1080p, 实际 %s", got)
	}
	// ultrahd同时命中"hd",必须优先判定为4K
	if got := DetectQuality("https://cdn.example.com/movie-ultrahd.mp4"); got != models.Quality4K {
		t.Errorf("ultrahd应判定为4K, 实际 %s", got)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want models.LinkFormat
	}{
		{"mp4", "https://cdn.example.com/a.mp4", models.FormatMP4},
		{"带查询参数的mp4", "https://cdn.example.com/a.mp4?token=x", models.FormatMP4},
		{"m3u8", "https://cdn.example.com/master.m3u8", models.FormatM3U8},
		{"mpd", "https://cdn.example.com/manifest.mpd", models.FormatDASH},
		{"mkv", "https://cdn.example.com/a.mkv", models.FormatMKV},
		{"webm", "https://cdn.example.com/a.webm", models.FormatWebM},
		{"hls路径特征", "https://cdn.example.com/hls/ep1/index", models.FormatM3U8},
		{"dash路径特征", "https://cdn.example.com/dash/ep1/init", models.FormatDASH},
		{"format参数", "https://cdn.example.com/play?format=hls", models.FormatM3U8},
		{"无法识别", "https://cdn.example.com/watch/ep1", models.FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.url); got != tt.want {
				t.Errorf("DetectFormat(%s) = %s, 期望 %s", tt.url, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	cand := models.Candidate{
		RawURL: "https://cdn.example.com/ten-phim-720p.mp4",
		Method: models.DiscoveryDirect,
		Depth:  0,
		Order:  3,
	}

	link := Classify(cand)

	if link.Format != models.FormatMP4 {
		t.Errorf("格式识别错误: %s", link.Format)
	}
	if link.Quality != models.Quality720p {
		t.Errorf("清晰度识别错误: %s", link.Quality)
	}
	if link.QualityRank != models.Quality720p.Rank() {
		t.Errorf("排序权重错误: %d", link.QualityRank)
	}
	if link.Validated {
		t.Error("未探测的链接不应标记为已验证")
	}
	if link.Method != models.DiscoveryDirect || link.Depth != 0 {
		t.Error("来源信息应从候选链接继承")
	}
}
