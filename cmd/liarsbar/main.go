// cmd/liarsbar/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/tavernlabs/liarsbar/internal/ai"
	"github.com/tavernlabs/liarsbar/internal/config"
	"github.com/tavernlabs/liarsbar/internal/server"
	"github.com/tavernlabs/liarsbar/internal/session"
	"github.com/tavernlabs/liarsbar/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("configuration error")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	st, err := openStore(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("store init failed")
	}
	defer st.Close()

	var backend ai.Decider
	if cfg.AIEnabled && cfg.AIBackendURL != "" {
		backend = ai.NewLLMDecider(ai.LLMConfig{
			URL:    cfg.AIBackendURL,
			Model:  cfg.AIModel,
			APIKey: cfg.AIAPIKey,
		})
		logrus.WithField("model", cfg.AIModel).Info("reasoning backend enabled")
	}

	sess := session.New(cfg, st, backend)
	srv := server.New(sess)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sess.Load(ctx); err != nil {
		logrus.WithError(err).Fatal("state restore failed")
	}
	sess.StartSweeper(ctx)

	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: srv.Handler()}
	go func() {
		logrus.WithField("addr", cfg.ListenAddr).Info("listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	httpSrv.Shutdown(shutdownCtx)
	sess.Close()
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "redis":
		return store.NewRedisStore(context.Background(), cfg.RedisAddr, cfg.RedisKey)
	case "sqlite":
		return store.NewSQLiteStore(cfg.SQLitePath)
	default:
		return store.NewFileStore(cfg.SnapshotPath)
	}
}
