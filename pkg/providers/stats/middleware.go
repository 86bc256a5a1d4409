package stats

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
)

type attemptKey struct{}

// WithAttempt 在 context 中记录当前尝试次数（从 1 开始）
func WithAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, attemptKey{}, attempt)
}

// AttemptFrom 读取尝试次数，未设置时返回 1
func AttemptFrom(ctx context.Context) int {
	if n, ok := ctx.Value(attemptKey{}).(int); ok && n > 0 {
		return n
	}
	return 1
}

// StatisticsMiddleware 统计中间件
type StatisticsMiddleware struct {
	next         providers.Provider
	statsManager *StatsManager
	providerName string
	modelName    string
}

var _ providers.Provider = (*StatisticsMiddleware)(nil)

// NewStatisticsMiddleware 创建统计中间件
func NewStatisticsMiddleware(next providers.Provider, statsManager *StatsManager, providerName, modelName string) *StatisticsMiddleware {
	return &StatisticsMiddleware{
		next:         next,
		statsManager: statsManager,
		providerName: providerName,
		modelName:    modelName,
	}
}

// Translate 带统计的翻译方法
func (sm *StatisticsMiddleware) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	startTime := time.Now()
	resp, err := sm.next.Translate(ctx, req)
	latency := time.Since(startTime)

	result := RequestResult{
		Success: err == nil,
		Latency: latency,
		Chars:   utf8.RuneCountInString(req.Text),
		IsRetry: AttemptFrom(ctx) > 1,
	}
	if err != nil {
		result.ErrorType = classifyError(err)
	} else if resp != nil {
		result.TokensIn = resp.TokensIn
		result.TokensOut = resp.TokensOut
		result.LineMismatch = lineCount(req.Text) != lineCount(resp.Text)
	}
	sm.statsManager.RecordRequest(sm.providerName, sm.modelName, result)

	return resp, err
}

func lineCount(s string) int {
	return strings.Count(strings.TrimRight(s, "\n"), "\n") + 1
}

// classifyError 分类错误类型
func classifyError(err error) string {
	if errors.Is(err, context.Canceled) {
		return "context_canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return providers.ErrCodeTimeout
	}
	var pe *providers.Error
	if errors.As(err, &pe) {
		return pe.Code
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"):
		return providers.ErrCodeTimeout
	case strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "429"):
		return providers.ErrCodeRateLimit
	case strings.Contains(errStr, "connection") || strings.Contains(errStr, "network"):
		return providers.ErrCodeNetwork
	default:
		return "unknown_error"
	}
}

// GetName 获取提供商名称
func (sm *StatisticsMiddleware) GetName() string {
	return sm.next.GetName()
}

// GetCapabilities 获取提供商能力
func (sm *StatisticsMiddleware) GetCapabilities() providers.Capabilities {
	return sm.next.GetCapabilities()
}

// HealthCheck 健康检查
func (sm *StatisticsMiddleware) HealthCheck(ctx context.Context) error {
	return sm.next.HealthCheck(ctx)
}
