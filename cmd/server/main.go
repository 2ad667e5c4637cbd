package main // Entry point package

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/growmate/growmate/internal/advice"
	"github.com/growmate/growmate/internal/classifier"
	"github.com/growmate/growmate/internal/config"
	"github.com/growmate/growmate/internal/handler"
	"github.com/growmate/growmate/internal/queue"
	"github.com/growmate/growmate/internal/router"
	"github.com/growmate/growmate/internal/session"
	"github.com/growmate/growmate/internal/store"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	cfg := config.Load()

	// Credential store: backend and hashing scheme come from config.
	hasher, err := store.NewHasher(cfg.PasswordScheme, cfg.BcryptCost)
	if err != nil {
		log.Fatalw("configure password hashing", "err", err)
	}
	users, err := store.Open(cfg.DBDriver, cfg.DBDSN, hasher)
	if err != nil {
		log.Fatalw("open credential store", "driver", cfg.DBDriver, "err", err)
	}
	defer func() { _ = users.Close() }()

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if cfg.DBReset {
		// Explicit opt-in: drops every account. Never the default.
		log.Warnw("DB_RESET enabled, dropping and recreating the users table")
		if err := users.Reset(initCtx); err != nil {
			log.Fatalw("reset users table", "err", err)
		}
	} else if err := users.Init(initCtx); err != nil {
		log.Fatalw("init users table", "err", err)
	}

	// Classifier: model weights and label map load once; both are immutable
	// for the process lifetime.
	cls, err := classifier.Load(cfg.ModelPath, cfg.LabelsPath)
	if err != nil {
		log.Fatalw("load classifier", "model", cfg.ModelPath, "labels", cfg.LabelsPath, "err", err)
	}

	adv := advice.New(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiAPIURL, log)

	// Chat history: Redis when reachable, in-memory otherwise.
	redisClient := config.NewRedisClient()
	if redisClient == nil {
		log.Warnw("redis unavailable, chat history will not survive restarts")
	}
	chats := session.NewChatStore(redisClient, time.Duration(cfg.ChatTTLMin)*time.Minute)

	// Analysis events are optional; without a broker URL the publisher is
	// nil and the consumer never starts.
	pub := queue.NewPublisher(cfg.RabbitURL, log)
	if cfg.RabbitURL != "" {
		go queue.StartAnalysisConsumer(cfg.RabbitURL, log)
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e,
		handler.NewAuthHandler(cfg, users, chats, log),
		handler.NewDetectionHandler(cls, adv, pub, log),
		handler.NewChatHandler(adv, chats, log),
		handler.NewFarmHandler(adv),
		cfg.JWTSecret,
	)

	addr := ":" + cfg.Port
	log.Infow("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatalw("server stopped", "err", err)
	}
}
