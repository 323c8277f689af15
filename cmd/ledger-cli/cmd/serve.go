package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"helium-ledger/internal/server"
	"helium-ledger/internal/service"
	"helium-ledger/pkg/cache"
	"helium-ledger/pkg/config"
	"helium-ledger/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动本地 HTTP 签名桥接",
	Long:  `在本机暴露 HTTP 接口, 每个签名请求仍需在设备上确认。`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if config.Global.App.Env == "production" {
			gin.SetMode(gin.ReleaseMode)
		}
		apis := newAPIs()
		if ttl := config.Global.API.FeeCacheTTL; ttl > 0 {
			apis = service.WithFeeCache(apis, cache.NewMemoryCache(ttl, 2*ttl), ttl)
		}
		svc := newSignerWith(cmd, apis)
		srv := &http.Server{
			Addr:              ":" + config.Global.Server.HttpPort,
			Handler:           server.NewHTTPRouter(svc),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("HTTP 签名桥接启动", zap.String("addr", srv.Addr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("正在关闭 HTTP 服务...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("port", "8080", "HTTP 端口")
	_ = viper.BindPFlag("server.http_port", serveCmd.Flags().Lookup("port"))
}
