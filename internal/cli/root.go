package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-md-translator/internal/config"
	"github.com/nerdneilsfield/go-md-translator/internal/logger"
	"github.com/nerdneilsfield/go-md-translator/internal/translator"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/factory"
)

// rootOptions 命令行标志
type rootOptions struct {
	cfgFile     string
	sourceLang  string
	targetLangs []string
	provider    string
	endpoint    string
	model       string
	chunkSize   int
	concurrency int
	glossaries  []string
	cacheDir    string
	noCache     bool
	noVerify    bool
	noWarning   bool
	noProgress  bool
	force       bool
	dryRun      bool
	proxy       bool
	debug       bool
	logFormat   string
	logFile     string
	statsFile   string
}

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "mdtrans [flags] <file-or-folder>...",
		Short: "将 Markdown 文档翻译为多种语言，保留代码、链接与 front matter",
		Long: `mdtrans 将 Markdown 文档翻译为一种或多种语言。
代码块、公式、链接地址和 front matter 中的非文本字段保持原样，
译文写入源文件旁边的 <stem>.<lang>.md。

参数可以是文件，也可以是目录；目录中按 source_filenames 查找源文件。

支持的翻译提供商:
  - google: Google Translate（无 API key 时使用免费接口）
  - deeplx: DeepLX
  - deepl: DeepL 官方 API
  - libretranslate: LibreTranslate
  - openai: OpenAI 及兼容接口
  - ollama: Ollama 本地模型
  - raw: 不翻译，原样输出`,
		Version:      fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return runTranslate(cmd, cfg, log, opts, args)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.cfgFile, "config", "c", "", "配置文件路径（默认 $HOME/.mdtrans.yaml 或 ./.mdtrans.yaml）")
	flags.StringVarP(&opts.sourceLang, "source", "s", "", "源语言，auto 表示自动检测")
	flags.StringSliceVarP(&opts.targetLangs, "target", "t", nil, "目标语言，可多次指定或逗号分隔")
	flags.StringVarP(&opts.provider, "provider", "p", "", "翻译提供商")
	flags.StringVar(&opts.endpoint, "endpoint", "", "提供商 API 地址")
	flags.StringVar(&opts.model, "model", "", "大模型提供商使用的模型")
	flags.IntVar(&opts.chunkSize, "chunk-size", 0, "每个文本块的字符数上限")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "每个文档×语言的最大并发请求数")
	flags.StringSliceVar(&opts.glossaries, "glossary", nil, "预定义翻译（TOML）文件")
	flags.StringVar(&opts.cacheDir, "cache-dir", "", "缓存目录")
	flags.BoolVar(&opts.noCache, "no-cache", false, "禁用翻译缓存")
	flags.BoolVar(&opts.noVerify, "no-verify", false, "不检查译文结构")
	flags.BoolVar(&opts.noWarning, "no-warning", false, "不插入机器翻译警告")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "不显示进度条")
	flags.BoolVarP(&opts.force, "force", "f", false, "覆盖已存在的译文")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "只显示将要翻译的文件，不调用翻译服务")
	flags.BoolVar(&opts.proxy, "proxy", false, "启用配置文件中的代理")
	flags.BoolVarP(&opts.debug, "debug", "d", false, "调试日志")
	flags.StringVar(&opts.logFormat, "log-format", "", "日志格式 console 或 json")
	flags.StringVar(&opts.logFile, "log-file", "", "同时写入日志文件")
	flags.StringVar(&opts.statsFile, "stats-file", "", "提供商统计信息文件")

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newProvidersCommand())

	return rootCmd
}

// loadConfig 加载配置、应用命令行标志并创建日志
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(opts.cfgFile)
	if err != nil {
		return nil, nil, err
	}
	applyFlags(cmd, cfg, opts)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log, err := logger.NewLogger(logger.Options{
		Debug:  cfg.Debug,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// applyFlags 使用命令行参数覆盖配置
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts *rootOptions) {
	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.SourceLang = opts.sourceLang
	}
	if flags.Changed("target") {
		cfg.TargetLangs = opts.targetLangs
	}
	if flags.Changed("provider") {
		cfg.Provider.Name = opts.provider
	}
	if flags.Changed("endpoint") {
		cfg.Provider.Endpoint = opts.endpoint
	}
	if flags.Changed("model") {
		cfg.Provider.Model = opts.model
	}
	if flags.Changed("chunk-size") {
		cfg.ChunkSize = opts.chunkSize
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = opts.concurrency
	}
	if flags.Changed("glossary") {
		cfg.Glossaries = append(cfg.Glossaries, opts.glossaries...)
	}
	if flags.Changed("cache-dir") {
		cfg.CacheDir = opts.cacheDir
	}
	if opts.noCache {
		cfg.UseCache = false
	}
	if opts.noVerify {
		cfg.Verify = false
	}
	if opts.noWarning {
		cfg.InsertWarnings = false
	}
	if opts.proxy {
		cfg.Proxy.Enable = true
	}
	if opts.debug {
		cfg.Debug = true
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = opts.logFormat
	}
	if flags.Changed("log-file") {
		cfg.Log.File = opts.logFile
	}
	if flags.Changed("stats-file") {
		cfg.StatsFile = opts.statsFile
	}
}

// runTranslate 翻译命令行给出的所有文件
func runTranslate(cmd *cobra.Command, cfg *config.Config, log *zap.Logger, opts *rootOptions, args []string) error {
	out := cmd.OutOrStdout()

	jobs, err := translator.CollectJobs(args, translator.DiscoverOptions{
		SourceFilenames: cfg.SourceFilenames,
		TargetLangs:     cfg.TargetLangs,
		Force:           opts.force,
	}, log)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		pterm.Warning.WithWriter(out).Println("没有需要翻译的文件")
		return nil
	}

	var reporter translator.Reporter = translator.NopReporter{}
	var bar *translator.ProgressBar
	if !opts.noProgress && !opts.dryRun {
		bar = translator.NewProgressBar(cmd.ErrOrStderr())
		reporter = bar
	}

	a, err := newApp(cfg, log, reporter, opts.dryRun)
	if err != nil {
		return err
	}

	pterm.Info.WithWriter(out).Printfln("使用 %s 翻译 %d 个文件到 %s",
		a.provider.GetName(), len(jobs), strings.Join(cfg.TargetLangs, ", "))

	results, runErr := a.pipeline.Run(cmd.Context(), jobs)
	if bar != nil {
		bar.Stop()
	}

	renderSummary(out, results)
	if !opts.dryRun {
		a.close(out)
	}

	if runErr != nil {
		pterm.Error.WithWriter(out).Println("部分翻译失败")
		return runErr
	}
	if !opts.dryRun {
		pterm.Success.WithWriter(out).Println("翻译完成")
	}
	return nil
}

// newInitCommand 生成默认配置文件
func newInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "生成默认配置文件",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				path = home + string(os.PathSeparator) + ".mdtrans.yaml"
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("配置已写入 %s", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "覆盖已存在的配置文件")
	return cmd
}

// newProvidersCommand 列出支持的翻译提供商
func newProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "列出支持的翻译提供商",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			for _, name := range factory.DefaultFactory.GetSupportedProviders() {
				fmt.Fprintf(out, "  - %s\n", name)
			}
		},
	}
}
