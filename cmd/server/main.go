package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Musanse/shiteni-sub006/internal/api"
	"github.com/Musanse/shiteni-sub006/internal/auth"
	"github.com/Musanse/shiteni-sub006/internal/broadcast"
	"github.com/Musanse/shiteni-sub006/internal/cache"
	"github.com/Musanse/shiteni-sub006/internal/config"
	"github.com/Musanse/shiteni-sub006/internal/events"
	"github.com/Musanse/shiteni-sub006/internal/identity"
	"github.com/Musanse/shiteni-sub006/internal/logger"
	"github.com/Musanse/shiteni-sub006/internal/repository"
	"github.com/Musanse/shiteni-sub006/internal/service"
	"github.com/Musanse/shiteni-sub006/internal/ws"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zl, err := logger.New(logger.Config{Development: cfg.App.Env != "production"})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zl.Sync()

	mc, err := repository.NewMongoClient(cfg)
	if err != nil {
		zl.Fatalw("mongo init", "err", err)
	}
	defer func() { _ = mc.Disconnect(context.Background()) }()
	db := mc.Database(cfg.Mongo.Database)

	rdb, err := cache.NewRedis(cfg)
	if err != nil {
		zl.Fatalw("redis init", "err", err)
	}
	defer rdb.Close()

	pub := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicMessageSent)
	defer pub.Close()

	store := repository.NewMongoMessageStore(db, cfg.Mongo.MessagesCollection)
	dir := repository.NewMongoDirectory(db, cfg.Mongo.AccountsCollection)
	resolver := identity.NewResolver(dir)

	// one broker per process, injected everywhere that notifies or listens
	broker := broadcast.New()
	defer broker.Close()

	svc := service.NewMessageService(store, resolver, broker, pub, zl)
	jv := auth.NewJWTValidator(cfg.App.JWTSecret)
	wsrv := ws.NewServer(svc, broker, rdb, zl)

	app := api.NewServer(svc, jv, rdb, wsrv)

	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.App.Port)); err != nil {
			zl.Fatalw("server listen", "err", err)
		}
	}()
	zl.Infow("messaging service started", "port", cfg.App.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
	zl.Info("messaging service stopped")
}
