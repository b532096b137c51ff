package core

import (
	"sync"
	"time"

	"github.com/RecoveryAshes/StreamLinkcrack/internal/utils"
)

// RateLimiter 调用方限流器(滑动窗口)
// 按RequesterID记录窗口内的请求时间戳,过期记录惰性清理
type RateLimiter struct {
	maxRequests   int
	windowSeconds time.Duration

	requests map[string][]time.Time
	mu       sync.Mutex

	// 时间源,测试时可替换
	now func() time.Time
}

// NewRateLimiter 创建限流器
func NewRateLimiter(maxRequests int, windowSeconds int) *RateLimiter {
	return &RateLimiter{
		maxRequests:   maxRequests,
		windowSeconds: time.Duration(windowSeconds) * time.Second,
		requests:      make(map[string][]time.Time),
		now:           time.Now,
	}
}

// Allow 检查调用方是否允许发起请求,允许时记录本次请求
func (rl *RateLimiter) Allow(requesterID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	queue := rl.prune(requesterID)
	if len(queue) >= rl.maxRequests {
		utils.Warnf("调用方触发限流 [%s]: 窗口内已有%d次请求", requesterID, len(queue))
		return false
	}

	rl.requests[requesterID] = append(queue, rl.now())
	return true
}

// Remaining 返回调用方当前窗口剩余配额
func (rl *RateLimiter) Remaining(requesterID string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	remaining := rl.maxRequests - len(rl.prune(requesterID))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetAfter 返回距离调用方最早一次请求滑出窗口的时间
// 窗口内无请求时返回0
func (rl *RateLimiter) ResetAfter(requesterID string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	queue := rl.prune(requesterID)
	if len(queue) == 0 {
		return 0
	}

	reset := queue[0].Add(rl.windowSeconds).Sub(rl.now())
	if reset < 0 {
		return 0
	}
	return reset
}

// Clear 清除调用方的限流记录
func (rl *RateLimiter) Clear(requesterID string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.requests, requesterID)
}

// prune 清理窗口外的过期记录并回写,调用方需持有锁
func (rl *RateLimiter) prune(requesterID string) []time.Time {
	cutoff := rl.now().Add(-rl.windowSeconds)
	queue := rl.requests[requesterID]

	idx := 0
	for idx < len(queue) && queue[idx].Before(cutoff) {
		idx++
	}
	if idx > 0 {
		queue = queue[idx:]
		if len(queue) == 0 {
			delete(rl.requests, requesterID)
		} else {
			rl.requests[requesterID] = queue
		}
	}
	return queue
}
