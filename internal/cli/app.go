package cli

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-md-translator/internal/cache"
	"github.com/nerdneilsfield/go-md-translator/internal/config"
	"github.com/nerdneilsfield/go-md-translator/internal/markdown"
	"github.com/nerdneilsfield/go-md-translator/internal/translator"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/factory"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/stats"
)

// app 一次运行所需的全部组件
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	provider providers.Provider
	stats    *stats.StatsManager
	cache    cache.Cache
	pipeline *translator.Pipeline
}

// newApp 根据配置组装提供商、缓存、术语表和翻译流程
func newApp(cfg *config.Config, logger *zap.Logger, reporter translator.Reporter, dryRun bool) (*app, error) {
	parseOpts, err := cfg.ParseOptions()
	if err != nil {
		return nil, err
	}

	sm := stats.NewStatsManager(cfg.StatsFile, logger)
	if cfg.StatsFile != "" {
		if err := sm.LoadFromDB(); err != nil {
			logger.Warn("failed to load provider stats", zap.String("file", cfg.StatsFile), zap.Error(err))
		}
	}

	f := factory.New(
		factory.WithProxy(cfg.ProxyURL()),
		factory.WithStats(sm),
		factory.WithLogger(logger),
	)
	provider, err := f.CreateProvider(cfg.Provider.Name, cfg.Provider)
	if err != nil {
		return nil, err
	}

	c, err := cache.New(cfg.UseCache, cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	glossary, err := config.LoadGlossary(cfg.Glossaries)
	if err != nil {
		return nil, err
	}

	batch := translator.NewBatchTranslator(
		translator.NewProviderTranslator(provider),
		translator.Options{
			Concurrency: cfg.Concurrency,
			MaxAttempts: cfg.MaxAttempts,
			BackoffBase: cfg.BackoffBase,
			Warnings:    cfg.Warnings,
			Spacer:      markdown.NewSpacer(parseOpts.Patterns.Expand, cfg.CompactLangs),
			Glossary:    glossary,
			Cache:       c,
		},
		logger,
	)

	pipeline := translator.NewPipeline(batch, translator.PipelineOptions{
		SourceLang: cfg.SourceLang,
		Parse:      parseOpts,
		DryRun:     dryRun,
		Verify:     cfg.Verify,
	}, reporter, logger)

	logger.Debug("translator ready",
		zap.String("provider", provider.GetName()),
		zap.Int("glossaryEntries", glossary.Len()),
		zap.Bool("cache", c != nil),
		zap.String("runID", pipeline.RunID()))

	return &app{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		stats:    sm,
		cache:    c,
		pipeline: pipeline,
	}, nil
}

// close 保存统计信息
func (a *app) close(w io.Writer) {
	if a.cfg.StatsFile != "" {
		if err := a.stats.SaveToDB(); err != nil {
			a.logger.Warn("failed to save provider stats", zap.Error(err))
		}
	}
	if len(a.stats.GetAllStats()) > 0 {
		a.stats.RenderTable(w)
	}
}
