package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/go-series-kit/internal/pipeline"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Server はパイプラインの操作を REST と WebSocket で公開する HTTP サーバーなのだ。
type Server struct {
	svc    *pipeline.Service
	engine *gin.Engine
	hub    *hub
	addr   string
}

// New はルーティングを設定した Server を生成するのだ。
func New(svc *pipeline.Service, addr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	s := &Server{
		svc:    svc,
		engine: engine,
		hub:    newHub(),
		addr:   addr,
	}
	s.routes()
	return s
}

// Handler はテストなどで直接使える http.Handler を返すのだ。
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run は ctx がキャンセルされるまでサーバーを動かし、終了時にはグレースフルに停止するのだ。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	unsubscribe := s.svc.Subscribe(s.hub.publish)
	defer unsubscribe()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slog.InfoContext(ctx, "HTTP サーバーを起動したのだ", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP サーバーが停止したのだ: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		s.hub.closeAll()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP サーバーの停止に失敗したのだ: %w", err)
		}
		slog.InfoContext(ctx, "HTTP サーバーを停止したのだ")
		return nil
	})
	return eg.Wait()
}

// requestLogger はリクエストごとに1行のログを出すのだ。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.InfoContext(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
