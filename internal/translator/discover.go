package translator

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Target 一个目标语言及其输出文件
type Target struct {
	Lang   string
	Output string
}

// Job 一个源文件及需要生成的译文
type Job struct {
	Source  string
	Targets []Target
}

// DiscoverOptions 查找源文件的选项
type DiscoverOptions struct {
	// SourceFilenames 目录中作为源文件的文件名（不含 .md）
	SourceFilenames []string
	TargetLangs     []string
	// Force 为 true 时覆盖已存在的译文
	Force bool
}

// OutputPath 返回译文路径：与源文件同目录的 <stem>.<lang>.md
func OutputPath(source, lang string) string {
	dir := filepath.Dir(source)
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(dir, stem+"."+lang+".md")
}

// CollectJobs 将命令行参数展开为翻译任务。
// 参数是目录时取其中存在的源文件名；是文件时直接作为源文件。
// 已存在的译文会被跳过，所有语言都被跳过的源文件不生成任务。
func CollectJobs(paths []string, opts DiscoverOptions, logger *zap.Logger) ([]Job, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var jobs []Job
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, &InputError{Path: path, Reason: "no such file or directory"}
		}

		var sources []string
		switch {
		case info.IsDir():
			for _, name := range opts.SourceFilenames {
				src := filepath.Join(path, name+".md")
				if fi, err := os.Stat(src); err == nil && fi.Mode().IsRegular() {
					sources = append(sources, src)
				}
			}
			if len(sources) == 0 {
				logger.Warn("no source file found in folder",
					zap.String("folder", path),
					zap.Strings("sourceFilenames", opts.SourceFilenames))
			}
		case info.Mode().IsRegular():
			sources = append(sources, path)
		default:
			return nil, &InputError{Path: path, Reason: "not a regular file"}
		}

		for _, src := range sources {
			job := Job{Source: src}
			for _, lang := range opts.TargetLangs {
				out := OutputPath(src, lang)
				if _, err := os.Stat(out); err == nil && !opts.Force {
					logger.Warn("target already exists, skipped", zap.String("file", out))
					continue
				}
				job.Targets = append(job.Targets, Target{Lang: lang, Output: out})
			}
			if len(job.Targets) > 0 {
				jobs = append(jobs, job)
			}
		}
	}
	return jobs, nil
}
