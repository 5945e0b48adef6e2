package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"ctfarena/server"
)

var (
	flagConfig  string
	flagEnvFile string
	flagAddr    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP + WebSocket game server",
	Long: `Start the game server.

Configuration is read from --config (or configs/ctfarena.yaml when present),
then overridden by CTF_* environment variables, optionally loaded from --env.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	serveCmd.Flags().StringVar(&flagEnvFile, "env", ".env", "Path to .env file (ignored if missing)")
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address, overrides config (e.g. :8000)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := server.LoadConfig(flagConfig, flagEnvFile)
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.Addr = flagAddr
	}
	if err := server.InitLogger(cfg.Log); err != nil {
		return err
	}
	defer server.SyncLogger()
	gin.SetMode(server.GinMode(cfg.Log.Level))

	// Ctrl+C / SIGTERM 通知所有 WS 连接发送关闭帧，Tick 循环随之退出
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rooms := server.NewRoomManager(ctx, cfg)
	srv := &http.Server{Addr: cfg.Addr, Handler: server.NewServer(ctx, cfg, rooms).Handler()}

	errCh := make(chan error, 1)
	go func() {
		server.Log.Infof("ctfarena listening on %s (tick %s)", cfg.Addr, cfg.TickInterval)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		server.Log.Errorw("listen failed", "err", err)
		return err
	case <-ctx.Done():
	}

	server.Log.Info("shutting down...")
	rooms.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		server.Log.Warnw("http shutdown", "err", err)
	}
	return nil
}
