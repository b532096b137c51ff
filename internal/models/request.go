package models

import (
	"time"
)

// ExtractionRequest 一次提取调用的请求记录
// 每次调用创建一个,创建后不可变
type ExtractionRequest struct {
	ID          string    `json:"id"`           // 请求唯一ID (UUID)
	SourceURL   string    `json:"source_url"`   // 用户提交的页面URL
	RequesterID string    `json:"requester_id"` // 调用方标识(限流用)
	RequestedAt time.Time `json:"requested_at"` // 请求时间
}

// NewExtractionRequest 创建提取请求
func NewExtractionRequest(sourceURL string, requesterID string) ExtractionRequest {
	return ExtractionRequest{
		ID:          generateID(),
		SourceURL:   sourceURL,
		RequesterID: requesterID,
		RequestedAt: time.Now(),
	}
}

// FetchResult 页面抓取结果
// 由Fetcher独占产生,交给模式提取器消费后即丢弃
type FetchResult struct {
	URL        string        `json:"url"`         // 请求URL
	FinalURL   string        `json:"final_url"`   // 重定向后的最终URL
	HTTPStatus int           `json:"http_status"` // HTTP状态码
	Body       string        `json:"-"`           // 页面内容(可能为空)
	Elapsed    time.Duration `json:"elapsed"`     // 抓取耗时
	Attempts   int           `json:"attempts"`    // 实际尝试次数
}
