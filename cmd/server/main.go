package main // Entry point package

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/beta-access-portal/internal/config"
	"github.com/iliyamo/beta-access-portal/internal/database"
	"github.com/iliyamo/beta-access-portal/internal/handler"
	"github.com/iliyamo/beta-access-portal/internal/locale"
	"github.com/iliyamo/beta-access-portal/internal/queue"
	"github.com/iliyamo/beta-access-portal/internal/relay"
	"github.com/iliyamo/beta-access-portal/internal/repository"
	"github.com/iliyamo/beta-access-portal/internal/router"
	"github.com/iliyamo/beta-access-portal/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env wins
	cfg := config.Load()

	// A store that cannot open is fatal: the service fails closed
	// rather than running with no persistence behind it.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(initCtx, db, cfg.StoreResetOnUpgrade); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis unreachable; sessions cannot operate")
	}

	accounts := repository.NewAccountRepo(db)
	requests := repository.NewRequestRepo(db)
	notices := repository.NewNoticeRepo(db)
	content := repository.NewContentRepo(db)
	if err := content.EnsureDefault(initCtx); err != nil {
		log.Fatalf("seed site content: %v", err)
	}
	cancelInit()

	sessions := service.NewRedisSessions(rdb, time.Duration(cfg.SessionTTLMin)*time.Minute)
	operator := service.NewOperator(rdb, time.Duration(cfg.OperatorTTLMin)*time.Minute)
	directory := service.NewDirectory(accounts, notices, sessions, cfg.BcryptCost)
	registry := service.NewRegistry(requests, notices, queue.NewPublisher(), locale.ForTag(cfg.Locale), cfg.CooldownDays)

	e := echo.New()
	auth := handler.NewAuthHandler(cfg, directory)
	router.RegisterRoutes(e, auth, handler.NewContentHandler(content))
	router.RegisterAccount(e, auth, handler.NewAccountHandler(directory),
		handler.NewRequestHandler(registry, directory), cfg.JWTSecret)
	router.RegisterOperator(e, handler.NewOperatorHandler(operator, registry, directory, content), operator)

	// Background relay tasks share one cancellation context torn down
	// on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RelayEnabled {
		tg := relay.NewClient(cfg.TelegramToken)
		go relay.NewNotifier(tg, cfg.TelegramChatID, rdb).Run(ctx)
		go relay.NewPoller(tg, registry, rdb, cfg.TelegramChatID).Run(ctx)
		log.Printf("relay enabled for chat %d", cfg.TelegramChatID)
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
