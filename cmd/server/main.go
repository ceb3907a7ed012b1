package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/podorank/internal/config"
	"github.com/palemoky/podorank/internal/logger"
	"github.com/palemoky/podorank/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	envPath := flag.String("env", ".env", "环境变量文件路径")
	flag.Parse()

	if err := config.LoadDotEnv(*envPath); err != nil {
		log.Warn().Err(err).Str("path", *envPath).Msg("加载 .env 失败")
	}

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("加载配置文件失败，使用默认配置")
		cfg = config.Default()
	}
	cfg.ApplyEnv()
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)

	srv, err := server.NewServer(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("创建服务器失败")
	}

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sig := <-quit
		log.Info().Str("signal", sig.String()).Msg("正在关闭服务器...")
		if err := srv.GracefulShutdown(cfg.Game.ShutdownTimeoutDuration()); err != nil {
			log.Error().Err(err).Msg("关闭服务器出错")
		}
	}()

	log.Info().Msg("🍷 Podorank 服务器启动中...")
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("服务器启动失败")
	}
	<-stopped
}
