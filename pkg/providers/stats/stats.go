package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"
)

// ProviderStats Provider性能统计
type ProviderStats struct {
	ProviderName       string `json:"provider_name"`
	ModelName          string `json:"model_name"`
	TotalRequests      int64  `json:"total_requests"`
	SuccessfulRequests int64  `json:"successful_requests"`
	FailedRequests     int64  `json:"failed_requests"`
	RetryAttempts      int64  `json:"retry_attempts"`
	TotalChars         int64  `json:"total_chars"`
	TotalTokensIn      int64  `json:"total_tokens_in"`
	TotalTokensOut     int64  `json:"total_tokens_out"`

	// 返回行数与请求行数不一致的次数
	LineMismatches int64 `json:"line_mismatches"`

	AverageLatency time.Duration `json:"average_latency"`
	MinLatency     time.Duration `json:"min_latency"`
	MaxLatency     time.Duration `json:"max_latency"`
	TotalLatency   time.Duration `json:"total_latency"`

	// 按错误类型统计
	ErrorTypes map[string]int64 `json:"error_types"`

	FirstRequestTime time.Time `json:"first_request_time"`
	LastRequestTime  time.Time `json:"last_request_time"`

	mu sync.RWMutex
}

// RequestResult 单次请求结果
type RequestResult struct {
	Success      bool
	Latency      time.Duration
	Chars        int
	TokensIn     int
	TokensOut    int
	ErrorType    string
	LineMismatch bool
	IsRetry      bool
}

// StatsManager 统计管理器
type StatsManager struct {
	stats  map[string]*ProviderStats // key: provider:model
	dbPath string
	logger *zap.Logger
	mu     sync.RWMutex
}

// NewStatsManager 创建统计管理器，dbPath 为空时不落盘
func NewStatsManager(dbPath string, logger *zap.Logger) *StatsManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsManager{
		stats:  make(map[string]*ProviderStats),
		dbPath: dbPath,
		logger: logger,
	}
}

func (sm *StatsManager) getKey(provider, model string) string {
	return fmt.Sprintf("%s:%s", provider, model)
}

func (sm *StatsManager) getOrCreateStats(provider, model string) *ProviderStats {
	key := sm.getKey(provider, model)

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if stats, exists := sm.stats[key]; exists {
		return stats
	}

	stats := &ProviderStats{
		ProviderName: provider,
		ModelName:    model,
		ErrorTypes:   make(map[string]int64),
	}
	sm.stats[key] = stats
	return stats
}

// RecordRequest 记录请求结果
func (sm *StatsManager) RecordRequest(provider, model string, result RequestResult) {
	stats := sm.getOrCreateStats(provider, model)

	stats.mu.Lock()
	defer stats.mu.Unlock()

	now := time.Now()
	if stats.FirstRequestTime.IsZero() {
		stats.FirstRequestTime = now
	}
	stats.LastRequestTime = now

	stats.TotalRequests++
	if result.IsRetry {
		stats.RetryAttempts++
	}

	if result.Success {
		stats.SuccessfulRequests++
		stats.TotalChars += int64(result.Chars)
	} else {
		stats.FailedRequests++
		if result.ErrorType != "" {
			stats.ErrorTypes[result.ErrorType]++
		}
	}
	if result.LineMismatch {
		stats.LineMismatches++
	}

	stats.TotalTokensIn += int64(result.TokensIn)
	stats.TotalTokensOut += int64(result.TokensOut)

	stats.TotalLatency += result.Latency
	if stats.TotalRequests == 1 || result.Latency < stats.MinLatency {
		stats.MinLatency = result.Latency
	}
	if result.Latency > stats.MaxLatency {
		stats.MaxLatency = result.Latency
	}
	stats.AverageLatency = stats.TotalLatency / time.Duration(stats.TotalRequests)
}

func (ps *ProviderStats) snapshot() *ProviderStats {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return &ProviderStats{
		ProviderName:       ps.ProviderName,
		ModelName:          ps.ModelName,
		TotalRequests:      ps.TotalRequests,
		SuccessfulRequests: ps.SuccessfulRequests,
		FailedRequests:     ps.FailedRequests,
		RetryAttempts:      ps.RetryAttempts,
		TotalChars:         ps.TotalChars,
		TotalTokensIn:      ps.TotalTokensIn,
		TotalTokensOut:     ps.TotalTokensOut,
		LineMismatches:     ps.LineMismatches,
		AverageLatency:     ps.AverageLatency,
		MinLatency:         ps.MinLatency,
		MaxLatency:         ps.MaxLatency,
		TotalLatency:       ps.TotalLatency,
		ErrorTypes:         copyCounts(ps.ErrorTypes),
		FirstRequestTime:   ps.FirstRequestTime,
		LastRequestTime:    ps.LastRequestTime,
	}
}

// GetStats 获取指定Provider的统计信息（副本）
func (sm *StatsManager) GetStats(provider, model string) *ProviderStats {
	sm.mu.RLock()
	stats, exists := sm.stats[sm.getKey(provider, model)]
	sm.mu.RUnlock()

	if !exists {
		return nil
	}
	return stats.snapshot()
}

// GetAllStats 获取所有统计信息
func (sm *StatsManager) GetAllStats() map[string]*ProviderStats {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	result := make(map[string]*ProviderStats, len(sm.stats))
	for key, stats := range sm.stats {
		result[key] = stats.snapshot()
	}
	return result
}

// SuccessRate 成功率（百分比）
func (ps *ProviderStats) SuccessRate() float64 {
	if ps.TotalRequests == 0 {
		return 0
	}
	return float64(ps.SuccessfulRequests) / float64(ps.TotalRequests) * 100
}

// SaveToDB 保存统计数据
func (sm *StatsManager) SaveToDB() error {
	if sm.dbPath == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(sm.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create stats directory: %w", err)
	}

	jsonData, err := json.MarshalIndent(sm.GetAllStats(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats data: %w", err)
	}

	tempPath := sm.dbPath + ".tmp"
	if err := os.WriteFile(tempPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	if err := os.Rename(tempPath, sm.dbPath); err != nil {
		return fmt.Errorf("failed to rename stats file: %w", err)
	}

	sm.logger.Debug("stats saved", zap.String("path", sm.dbPath))
	return nil
}

// LoadFromDB 加载统计数据，文件不存在时从零开始
func (sm *StatsManager) LoadFromDB() error {
	if sm.dbPath == "" {
		return nil
	}

	data, err := os.ReadFile(sm.dbPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read stats file: %w", err)
	}

	var statsData map[string]*ProviderStats
	if err := json.Unmarshal(data, &statsData); err != nil {
		return fmt.Errorf("failed to unmarshal stats data: %w", err)
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	for key, stats := range statsData {
		if stats.ErrorTypes == nil {
			stats.ErrorTypes = make(map[string]int64)
		}
		sm.stats[key] = stats
	}

	sm.logger.Debug("stats loaded", zap.String("path", sm.dbPath), zap.Int("providers", len(statsData)))
	return nil
}

// RenderTable 以表格形式输出统计
func (sm *StatsManager) RenderTable(w io.Writer) {
	allStats := sm.GetAllStats()
	if len(allStats) == 0 {
		return
	}

	keys := make([]string, 0, len(allStats))
	for k := range allStats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Provider Statistics")
	t.AppendHeader(table.Row{"Provider", "Model", "Requests", "Success", "Retries", "Chars", "Tokens", "Avg Latency", "Line Mismatch"})
	for _, k := range keys {
		s := allStats[k]
		t.AppendRow(table.Row{
			s.ProviderName,
			s.ModelName,
			humanize.Comma(s.TotalRequests),
			fmt.Sprintf("%.1f%%", s.SuccessRate()),
			humanize.Comma(s.RetryAttempts),
			humanize.Comma(s.TotalChars),
			humanize.Comma(s.TotalTokensIn + s.TotalTokensOut),
			s.AverageLatency.Round(time.Millisecond).String(),
			humanize.Comma(s.LineMismatches),
		})
	}
	t.Render()
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
