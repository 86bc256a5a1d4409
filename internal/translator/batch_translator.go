package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nerdneilsfield/go-md-translator/internal/cache"
	"github.com/nerdneilsfield/go-md-translator/internal/config"
	"github.com/nerdneilsfield/go-md-translator/internal/markdown"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/stats"
)

const (
	// DefaultConcurrency 每个文档×语言同时进行的翻译请求数
	DefaultConcurrency = 5
	// DefaultMaxAttempts 每个文本块的最大尝试次数（含首次）
	DefaultMaxAttempts = 5
	// DefaultBackoffBase 第一次重试前的等待时间，之后每次翻倍
	DefaultBackoffBase = 200 * time.Millisecond
)

// Options 批量翻译选项
type Options struct {
	Concurrency int
	MaxAttempts int
	BackoffBase time.Duration
	// Warnings 各语言的机器翻译警告
	Warnings map[string]string
	// Spacer 为空时不做空格修复
	Spacer *markdown.Spacer
	// Glossary 预定义翻译，可为空
	Glossary *config.Glossary
	// Cache 文本块缓存，可为空
	Cache cache.Cache
}

// BatchTranslator 按文本块并发翻译一篇文档
type BatchTranslator struct {
	translator Translator
	opts       Options
	logger     *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewBatchTranslator 创建批量翻译器
func NewBatchTranslator(t Translator, opts Options, logger *zap.Logger) *BatchTranslator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = DefaultBackoffBase
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchTranslator{
		translator: t,
		opts:       opts,
		logger:     logger,
		sleep:      sleepContext,
	}
}

// TranslateDocument 翻译文档到目标语言并返回完整译文。
// 任一文本块失败会取消其余请求，文档本身不会被修改。
func (bt *BatchTranslator) TranslateDocument(ctx context.Context, doc *markdown.Document, sourceLang, targetLang string, progress Progress) (string, error) {
	if progress == nil {
		progress = nopProgress{}
	}

	texts := make([]string, len(doc.Chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bt.opts.Concurrency)
	for i, chunk := range doc.Chunks {
		g.Go(func() error {
			text, err := bt.translateChunk(gctx, i, chunk, sourceLang, targetLang)
			if err != nil {
				return err
			}
			texts[i] = text
			progress.Add(chunk.Chars())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	return markdown.AssembleSpaced(doc, texts, targetLang, bt.opts.Warnings, bt.opts.Spacer)
}

// translateChunk 翻译单个文本块并合并跳过的片段
func (bt *BatchTranslator) translateChunk(ctx context.Context, index int, chunk markdown.Chunk, sourceLang, targetLang string) (string, error) {
	if chunk.TranslatableCount() == 0 {
		return chunk.Merge(nil)
	}

	source := chunk.SourceText()
	key := cache.GenerateKey(cache.KeyComponents{
		Provider:   bt.translator.Name(),
		SourceLang: sourceLang,
		TargetLang: targetLang,
		Text:       source,
	})
	if bt.opts.Cache != nil {
		if cached, ok := bt.opts.Cache.Get(key); ok {
			if merged, err := bt.merge(chunk, cached, sourceLang, targetLang); err == nil {
				bt.logger.Debug("chunk cache hit", zap.Int("chunk", index), zap.String("targetLang", targetLang))
				return merged, nil
			}
			_ = bt.opts.Cache.Delete(key)
		}
	}

	result, attempts, err := bt.translateWithRetry(ctx, index, source, sourceLang, targetLang)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &TranslateError{
			TargetLang: targetLang,
			Chunk:      index,
			Attempts:   attempts,
			Err:        err,
		}
	}

	merged, err := bt.merge(chunk, result, sourceLang, targetLang)
	if err != nil {
		bt.logger.Error("translated chunk does not line up with source",
			zap.Int("chunk", index),
			zap.String("targetLang", targetLang),
			zap.Int("want", chunk.TranslatableCount()),
			zap.Error(err))
		return "", fmt.Errorf("chunk %d: %w", index, err)
	}

	if bt.opts.Cache != nil {
		if err := bt.opts.Cache.Set(key, result); err != nil {
			bt.logger.Warn("failed to cache chunk", zap.Int("chunk", index), zap.Error(err))
		}
	}
	return merged, nil
}

// translateWithRetry 调用翻译服务，失败或空结果时指数退避重试。
// 返回实际尝试次数；上层 context 被取消时立即返回。
func (bt *BatchTranslator) translateWithRetry(ctx context.Context, index int, source, sourceLang, targetLang string) (string, int, error) {
	var lastErr error
	for attempt := 1; attempt <= bt.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", attempt - 1, err
		}

		result, err := bt.translator.Translate(stats.WithAttempt(ctx, attempt), source, sourceLang, targetLang)
		if err == nil && strings.TrimSpace(result) == "" {
			err = ErrEmptyResult
		}
		if err == nil {
			return result, attempt, nil
		}
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return "", attempt, err
		}
		lastErr = err

		if attempt == bt.opts.MaxAttempts {
			break
		}
		delay := bt.backoff(attempt)
		bt.logger.Warn("chunk translation failed, retrying",
			zap.Int("chunk", index),
			zap.String("targetLang", targetLang),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", bt.opts.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err))
		if err := bt.sleep(ctx, delay); err != nil {
			return "", attempt, err
		}
	}
	return "", bt.opts.MaxAttempts, lastErr
}

// backoff 第 attempt 次失败后的等待时间：base * 2^(attempt-1)
func (bt *BatchTranslator) backoff(attempt int) time.Duration {
	return bt.opts.BackoffBase << (attempt - 1)
}

// merge 将译文按行拆分、清理后填回文本块。
// 原文片段首尾的空格保留，例如列表短横线之后和表格单元格两侧的空格。
func (bt *BatchTranslator) merge(chunk markdown.Chunk, result, sourceLang, targetLang string) (string, error) {
	lines := splitResult(result)
	sources := chunk.Translatable()
	for i, line := range lines {
		line = markdown.FullToHalf(strings.Trim(line, " "))
		if i < len(sources) {
			if v, ok := bt.opts.Glossary.Lookup(sourceLang, targetLang, sources[i]); ok {
				line = v
			}
			line = outerSpaces(sources[i], line)
		}
		lines[i] = line
	}
	return chunk.Merge(lines)
}

// outerSpaces 给 line 加上 source 首尾的空格
func outerSpaces(source, line string) string {
	lead := len(source) - len(strings.TrimLeft(source, " "))
	trail := len(source) - len(strings.TrimRight(source, " "))
	if lead == len(source) {
		return line
	}
	return source[:lead] + line + source[len(source)-trail:]
}

// splitResult 按行拆分译文，忽略末尾换行
func splitResult(result string) []string {
	result = strings.ReplaceAll(result, "\r\n", "\n")
	return strings.Split(strings.TrimRight(result, "\n"), "\n")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
