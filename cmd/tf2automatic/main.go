package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"tf2automatic/internal/app"
	brcfg "tf2automatic/internal/config"
	"tf2automatic/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("reading .env failed: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := brcfg.Path()
	cfg, err := brcfg.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config failed: %v", err)
	}
	logFile, err := openLog(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("opening log file failed: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
		mw := io.MultiWriter(os.Stdout, logFile)
		log.SetOutput(mw)
		logger.SetOutput(mw)
	}
	tradeFile, err := openLog(cfg.App.TradeLogPath)
	if err != nil {
		log.Fatalf("opening trade log failed: %v", err)
	}
	if tradeFile != nil {
		defer tradeFile.Close()
		logger.SetTradeWriter(tradeFile)
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("Config loaded from %s (env=%s, bot=%s)", cfgPath, cfg.App.Env, cfg.Bot.SteamID)

	a, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("initializing app failed: %v", err)
	}
	if err := a.Run(ctx); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}

func openLog(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	if dir := filepath.Dir(trimmed); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
