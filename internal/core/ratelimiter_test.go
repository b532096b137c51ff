package core

import (
	"testing"
	"time"
)

// fakeClock 可推进的测试时钟
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time { return c.current }

func (c *fakeClock) advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestLimiter(maxRequests, windowSeconds int) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewRateLimiter(maxRequests, windowSeconds)
	limiter.now = clock.now
	return limiter, clock
}

func TestRateLimiterAllow(t *testing.T) {
	limiter, _ := newTestLimiter(5, 60)

	for i := 0; i < 5; i++ {
		if !limiter.Allow("cli") {
			t.Fatalf("第%d次请求应放行", i+1)
		}
	}
	if limiter.Allow("cli") {
		t.Error("第6次请求应被限流")
	}
}

func TestRateLimiterPerRequester(t *testing.T) {
	limiter, _ := newTestLimiter(2, 60)

	limiter.Allow("alpha")
	limiter.Allow("alpha")
	if limiter.Allow("alpha") {
		t.Error("alpha应被限流")
	}
	// 不同调用方配额独立
	if !limiter.Allow("beta") {
		t.Error("beta不应受alpha影响")
	}
}

func TestRateLimiterRemaining(t *testing.T) {
	limiter, _ := newTestLimiter(5, 60)

	if got := limiter.Remaining("cli"); got != 5 {
		t.Errorf("初始剩余配额应为5, 实际%d", got)
	}

	limiter.Allow("cli")
	limiter.Allow("cli")
	if got := limiter.Remaining("cli"); got != 3 {
		t.Errorf("2次请求后剩余配额应为3, 实际%d", got)
	}
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	limiter, clock := newTestLimiter(2, 60)

	limiter.Allow("cli")
	clock.advance(30 * time.Second)
	limiter.Allow("cli")
	if limiter.Allow("cli") {
		t.Fatal("窗口内第3次请求应被限流")
	}

	// 再过31秒,最早一次请求滑出窗口,恰好释放1个配额
	clock.advance(31 * time.Second)
	if !limiter.Allow("cli") {
		t.Error("最早请求滑出窗口后应放行")
	}
	if limiter.Allow("cli") {
		t.Error("窗口内仍有2次请求, 应继续限流")
	}
}

func TestRateLimiterResetAfter(t *testing.T) {
	limiter, clock := newTestLimiter(1, 60)

	if got := limiter.ResetAfter("cli"); got != 0 {
		t.Errorf("无请求时ResetAfter应为0, 实际%v", got)
	}

	limiter.Allow("cli")
	clock.advance(20 * time.Second)
	if got := limiter.ResetAfter("cli"); got != 40*time.Second {
		t.Errorf("ResetAfter应为40秒, 实际%v", got)
	}

	clock.advance(41 * time.Second)
	if got := limiter.ResetAfter("cli"); got != 0 {
		t.Errorf("记录过期后ResetAfter应为0, 实际%v", got)
	}
}

func TestRateLimiterClear(t *testing.T) {
	limiter, _ := newTestLimiter(1, 60)

	limiter.Allow("cli")
	if limiter.Allow("cli") {
		t.Fatal("配额用尽后应被限流")
	}

	limiter.Clear("cli")
	if !limiter.Allow("cli") {
		t.Error("清除记录后应放行")
	}
}
