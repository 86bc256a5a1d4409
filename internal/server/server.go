package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// formOverhead multipart 表单头部允许的额外字节
const formOverhead = 1 << 20

// TextTranslator 将整篇 Markdown 翻译为目标语言
type TextTranslator interface {
	TranslateText(ctx context.Context, text, targetLang string) (string, error)
}

// Options 上传服务选项
type Options struct {
	// DefaultLang 请求未指定 lang 时使用
	DefaultLang string
	// UploadDir 非空时保存上传的原文
	UploadDir     string
	MaxUploadSize int64
}

// Server Markdown 上传翻译服务
type Server struct {
	router     chi.Router
	translator TextTranslator
	opts       Options
	logger     *zap.Logger
}

// New 创建上传服务
func New(t TextTranslator, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = 10 << 20
	}
	s := &Server{translator: t, opts: opts, logger: logger}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Post("/upload", s.handleUpload)

	s.router = r
}

// ListenAndServe 监听 addr，ctx 结束时优雅关闭
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadSize+formOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.opts.MaxUploadSize), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	lang := strings.TrimSpace(r.FormValue("lang"))
	if lang == "" {
		lang = s.opts.DefaultLang
	}
	if !validLang(lang) {
		jsonError(w, fmt.Sprintf("invalid target language %q", lang), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.opts.MaxUploadSize+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.opts.MaxUploadSize {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.opts.MaxUploadSize), http.StatusRequestEntityTooLarge)
		return
	}

	filename := sanitizeFilename(header.Filename)
	logger := s.logger.With(
		zap.String("requestID", middleware.GetReqID(r.Context())),
		zap.String("file", filename),
		zap.String("targetLang", lang))

	if s.opts.UploadDir != "" {
		if err := s.saveUpload(filename, data); err != nil {
			logger.Warn("failed to save upload", zap.Error(err))
		}
	}

	out, err := s.translator.TranslateText(r.Context(), string(data), lang)
	if err != nil {
		logger.Error("translation failed", zap.Error(err))
		jsonError(w, "translation failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", stem+"."+lang+".md"))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, out)
}

// saveUpload 以随机名保存上传的原文
func (s *Server) saveUpload(filename string, data []byte) error {
	if err := os.MkdirAll(s.opts.UploadDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(s.opts.UploadDir, uuid.NewString()+"-"+filename)
	return os.WriteFile(path, data, 0o644)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// validLang 语言代码只允许字母、数字、- 和 _
func validLang(lang string) bool {
	if lang == "" || len(lang) > 16 {
		return false
	}
	for _, r := range lang {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "document.md"
	}
	return name
}
