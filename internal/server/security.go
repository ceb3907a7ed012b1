package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// --- 建连速率限制 ---

// ConnRateLimiter 按 IP 限制建连速率
type ConnRateLimiter struct {
	limiters map[string]*ipLimiter
	mu       sync.Mutex

	perSecond rate.Limit
	burst     int
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewConnRateLimiter 创建建连速率限制器
func NewConnRateLimiter(perSecond, burst int) *ConnRateLimiter {
	return &ConnRateLimiter{
		limiters:  make(map[string]*ipLimiter),
		perSecond: rate.Limit(perSecond),
		burst:     burst,
	}
}

// Allow 检查该 IP 是否允许建立新连接
func (rl *ConnRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[ip]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(rl.perSecond, rl.burst)}
		rl.limiters[ip] = l
	}
	l.lastSeen = time.Now()

	if !l.limiter.Allow() {
		log.Warn().Str("ip", ip).Msg("⚠️ 建连过于频繁")
		return false
	}
	return true
}

// Len 当前跟踪的 IP 数
func (rl *ConnRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Prune 清理长时间未出现的 IP
func (rl *ConnRateLimiter) Prune(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-idle)
	for ip, l := range rl.limiters {
		if l.lastSeen.Before(cutoff) {
			delete(rl.limiters, ip)
		}
	}
}

// --- 来源验证 ---

// OriginChecker 来源验证器
type OriginChecker struct {
	allowedOrigins map[string]bool
	allowAll       bool
}

// NewOriginChecker 创建来源验证器
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{
		allowedOrigins: make(map[string]bool),
	}

	for _, origin := range origins {
		if origin == "*" {
			oc.allowAll = true
			return oc
		}
		oc.allowedOrigins[strings.ToLower(origin)] = true
	}

	return oc
}

// Check 检查来源是否允许
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		// 没有 Origin 头，可能是同源请求或本地客户端
		return true
	}

	return oc.allowedOrigins[strings.ToLower(origin)]
}

// Origins 允许的来源列表，供 CORS 使用
func (oc *OriginChecker) Origins() []string {
	if oc.allowAll {
		return []string{"*"}
	}
	origins := make([]string, 0, len(oc.allowedOrigins))
	for o := range oc.allowedOrigins {
		origins = append(origins, o)
	}
	return origins
}

// --- 消息速率限制 ---

// MessageLimiter 单连接消息速率限制，超速次数超过上限后应断开
type MessageLimiter struct {
	limiter     *rate.Limiter
	warnings    int
	maxWarnings int
}

// NewMessageLimiter 创建消息速率限制器
func NewMessageLimiter(perSecond, burst, maxWarnings int) *MessageLimiter {
	return &MessageLimiter{
		limiter:     rate.NewLimiter(rate.Limit(perSecond), burst),
		maxWarnings: maxWarnings,
	}
}

// Allow 返回消息是否放行，以及是否应断开连接。只在读协程中调用。
func (ml *MessageLimiter) Allow() (allowed, disconnect bool) {
	if ml.limiter.Allow() {
		return true, false
	}
	ml.warnings++
	return false, ml.warnings > ml.maxWarnings
}

// Warnings 已超速次数
func (ml *MessageLimiter) Warnings() int {
	return ml.warnings
}

// --- 辅助函数 ---

// GetClientIP 获取客户端真实 IP
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// 取第一个 IP（最原始的客户端）
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
