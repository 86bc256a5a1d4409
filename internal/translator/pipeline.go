package translator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nerdneilsfield/go-md-translator/internal/markdown"
	"github.com/nerdneilsfield/go-md-translator/internal/verify"
)

// PipelineOptions 文档翻译流程选项
type PipelineOptions struct {
	SourceLang string
	Parse      markdown.ParseOptions
	// DryRun 只解析并统计，不调用翻译服务也不写文件
	DryRun bool
	// Verify 翻译后比较原文与译文的结构
	Verify bool
}

// LangResult 一个目标语言的翻译结果
type LangResult struct {
	Lang     string
	Output   string
	Duration time.Duration
	Issues   []verify.Issue
	Err      error
}

// Result 一个源文件的翻译结果
type Result struct {
	Source string
	Chunks int
	Chars  int
	DryRun bool
	Langs  []LangResult
}

// Failed 失败的语言数量
func (r Result) Failed() int {
	n := 0
	for _, l := range r.Langs {
		if l.Err != nil {
			n++
		}
	}
	return n
}

// Pipeline 解析文档并将其翻译为多个目标语言
type Pipeline struct {
	batch    *BatchTranslator
	opts     PipelineOptions
	reporter Reporter
	verifier *verify.Verifier
	logger   *zap.Logger
	runID    string
}

// NewPipeline 创建翻译流程，reporter 为空时不显示进度
func NewPipeline(batch *BatchTranslator, opts PipelineOptions, reporter Reporter, logger *zap.Logger) *Pipeline {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.NewString()
	p := &Pipeline{
		batch:    batch,
		opts:     opts,
		reporter: reporter,
		logger:   logger.With(zap.String("runID", runID)),
		runID:    runID,
	}
	if opts.Verify {
		p.verifier = verify.New()
	}
	return p
}

// RunID 本次运行的标识
func (p *Pipeline) RunID() string {
	return p.runID
}

// Run 依次处理所有任务，各任务的错误合并后返回
func (p *Pipeline) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, 0, len(jobs))
	var errs []error
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := p.TranslateFile(ctx, job)
		results = append(results, res)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}

// TranslateFile 翻译一个源文件到任务中的所有目标语言。
// 各语言并行且互不影响，失败的语言不写出文件，错误合并后返回。
func (p *Pipeline) TranslateFile(ctx context.Context, job Job) (Result, error) {
	res := Result{Source: job.Source, DryRun: p.opts.DryRun}

	info, err := os.Stat(job.Source)
	if err != nil {
		return res, &InputError{Path: job.Source, Reason: "no such file"}
	}
	if !info.Mode().IsRegular() {
		return res, &InputError{Path: job.Source, Reason: "not a regular file"}
	}

	doc, err := markdown.ParseFile(job.Source, p.opts.Parse)
	if err != nil {
		return res, fmt.Errorf("parse %s: %w", job.Source, err)
	}
	res.Chunks = len(doc.Chunks)
	res.Chars = doc.CharsCount

	logger := p.logger.With(zap.String("file", job.Source))
	logger.Info("document parsed",
		zap.Int("chunks", res.Chunks),
		zap.Int("chars", res.Chars),
		zap.Int("targets", len(job.Targets)))

	res.Langs = make([]LangResult, len(job.Targets))
	for i, t := range job.Targets {
		res.Langs[i] = LangResult{Lang: t.Lang, Output: t.Output}
	}
	if p.opts.DryRun {
		return res, nil
	}

	var source []byte
	if p.verifier != nil {
		source, err = os.ReadFile(job.Source)
		if err != nil {
			return res, fmt.Errorf("read %s: %w", job.Source, err)
		}
	}

	name := filepath.Base(job.Source)
	global := p.reporter.Track(name, doc.CharsCount*len(job.Targets))

	var g errgroup.Group
	for i, t := range job.Targets {
		g.Go(func() error {
			start := time.Now()
			local := p.reporter.Track(name+" → "+t.Lang, doc.CharsCount)
			issues, err := p.translateTo(ctx, doc, source, job.Source, t, Tee{global, local})
			p.reporter.Done(local, err)

			res.Langs[i].Duration = time.Since(start)
			res.Langs[i].Issues = issues
			res.Langs[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, l := range res.Langs {
		if l.Err == nil {
			continue
		}
		fields := []zap.Field{zap.String("targetLang", l.Lang), zap.Error(l.Err)}
		var te *TranslateError
		if errors.As(l.Err, &te) {
			fields = append(fields, zap.Int("chunk", te.Chunk), zap.Int("attempts", te.Attempts))
		}
		logger.Error("translation failed", fields...)
		errs = append(errs, l.Err)
	}
	err = errors.Join(errs...)
	p.reporter.Done(global, err)
	return res, err
}

// translateTo 翻译到单个语言并写出文件
func (p *Pipeline) translateTo(ctx context.Context, doc *markdown.Document, source []byte, sourceFile string, t Target, progress Progress) ([]verify.Issue, error) {
	out, err := p.batch.TranslateDocument(ctx, doc, p.opts.SourceLang, t.Lang, progress)
	if err != nil {
		var te *TranslateError
		if errors.As(err, &te) {
			te.SourceFile = sourceFile
		}
		return nil, err
	}

	var issues []verify.Issue
	if p.verifier != nil {
		issues = p.verifier.Compare(source, []byte(out))
		for _, issue := range issues {
			p.logger.Warn("structure changed after translation",
				zap.String("file", t.Output),
				zap.String("element", issue.Element),
				zap.Int("source", issue.Source),
				zap.Int("translated", issue.Target))
		}
	}

	if err := writeFileAtomic(t.Output, []byte(out)); err != nil {
		return issues, fmt.Errorf("write %s: %w", t.Output, err)
	}
	p.logger.Info("translation written", zap.String("file", t.Output), zap.String("targetLang", t.Lang))
	return issues, nil
}

// TranslateText 翻译内存中的文档，不写文件
func (p *Pipeline) TranslateText(ctx context.Context, text, targetLang string) (string, error) {
	doc, err := markdown.Parse(text, p.opts.Parse)
	if err != nil {
		return "", err
	}
	progress := p.reporter.Track("upload → "+targetLang, doc.CharsCount)
	out, err := p.batch.TranslateDocument(ctx, doc, p.opts.SourceLang, targetLang, progress)
	p.reporter.Done(progress, err)
	return out, err
}

// writeFileAtomic 先写入同目录临时文件再重命名，失败时不留下部分内容
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
