package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nerdneilsfield/go-md-translator/internal/server"
	"github.com/nerdneilsfield/go-md-translator/internal/translator"
)

// newServeCommand 启动 HTTP 上传翻译服务
func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr, uploadDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动上传翻译服务，POST /upload 返回译文",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if cmd.Flags().Changed("addr") {
				cfg.Serve.Addr = addr
			}
			if cmd.Flags().Changed("upload-dir") {
				cfg.Serve.UploadDir = uploadDir
			}

			a, err := newApp(cfg, log, translator.NopReporter{}, false)
			if err != nil {
				return err
			}
			defer a.close(cmd.OutOrStdout())

			srv := server.New(a.pipeline, server.Options{
				DefaultLang:   cfg.TargetLangs[0],
				UploadDir:     cfg.Serve.UploadDir,
				MaxUploadSize: cfg.Serve.MaxUploadSize,
			}, log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pterm.Info.WithWriter(cmd.OutOrStdout()).Printfln("listening on %s (provider %s)", cfg.Serve.Addr, a.provider.GetName())
			return srv.ListenAndServe(ctx, cfg.Serve.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "监听地址")
	cmd.Flags().StringVar(&uploadDir, "upload-dir", "", "保存上传原文的目录")
	return cmd
}
