// Package main, pastane sunucusunun giriş noktasıdır.
//
// Bu dosyanın görevi Dependency Injection "wire-up":
//  1. Config'i yükle, logger'ı kur
//  2. Database'i başlat (gömülü migration'lar)
//  3. i18n çevirilerini yükle
//  4. Repository, service ve handler katmanlarını oluştur (init_*.go)
//  5. Zamanlanmış görevleri başlat
//  6. HTTP router'ı kur ve server'ı başlat
//  7. Graceful shutdown
//
// Global değişken yok; her şey burada oluşturulup birbirine bağlanır.
package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/pastane/config"
	"github.com/akinalp/pastane/database"
	"github.com/akinalp/pastane/pkg/crypto"
	"github.com/akinalp/pastane/pkg/i18n"
	"github.com/akinalp/pastane/pkg/logger"
	"github.com/akinalp/pastane/pkg/ratelimit"
	"github.com/akinalp/pastane/ws"
)

func main() {
	// ─── 1. Config + Logger ───
	cfg, err := config.Load()
	if err != nil {
		// Logger henüz yok; zap'in geliştirme logger'ı ile yaz
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	if err := logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}); err != nil {
		zap.NewExample().Fatal("failed to init logger", zap.Error(err))
	}
	defer logger.Sync()

	log := logger.Named("main")
	log.Info("pastane server starting", zap.Int("port", cfg.Server.Port))

	// ─── 2. Database ───
	db, err := database.New(cfg.Database.Path, database.Migrations())
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// ─── 3. i18n ───
	locales, err := fs.Sub(i18n.EmbeddedLocales, "locales")
	if err != nil {
		log.Fatal("failed to open embedded locales", zap.Error(err))
	}
	if err := i18n.Load(locales); err != nil {
		log.Fatal("failed to load i18n translations", zap.Error(err))
	}

	// ─── 4. Katmanlar ───
	if err := ratelimit.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		log.Fatal("invalid TRUSTED_PROXIES", zap.Error(err))
	}

	box, err := crypto.NewBox(cfg.Security.EncryptionKey)
	if err != nil {
		log.Fatal("invalid ENCRYPTION_KEY", zap.Error(err))
	}

	// Hub, service'lere EventPublisher olarak verilir
	hub := ws.NewHub()
	go hub.Run()

	repos := initRepositories(db.Conn)
	svcs, limiters, caches, err := initServices(db.Conn, repos, hub, cfg, box)
	if err != nil {
		log.Fatal("failed to initialize services", zap.Error(err))
	}
	defer limiters.Stop()
	defer caches.Close()

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svcs.Auth.Bootstrap(bootCtx, cfg.Admin.BootstrapUsername, cfg.Admin.BootstrapPassword); err != nil {
		cancelBoot()
		log.Fatal("failed to bootstrap owner account", zap.Error(err))
	}
	cancelBoot()

	h, err := initHandlers(svcs, limiters, hub, cfg)
	if err != nil {
		log.Fatal("failed to initialize handlers", zap.Error(err))
	}

	// ─── 5. Zamanlanmış görevler ───
	scheduler, err := initJobs(cfg, repos, svcs)
	if err != nil {
		log.Fatal("failed to initialize jobs", zap.Error(err))
	}
	scheduler.Start()

	// ─── 6. HTTP ───
	handler, err := initRoutes(h, svcs, limiters, db.Conn, cfg)
	if err != nil {
		log.Fatal("failed to initialize routes", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// ─── 7. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("server listening", zap.String("addr", cfg.Server.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-done
	log.Info("shutting down")

	// Önce cron (çalışan görev bitene kadar bekler), sonra WebSocket, en son HTTP
	scheduler.Stop()
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
		return
	}

	log.Info("server stopped gracefully")
}
