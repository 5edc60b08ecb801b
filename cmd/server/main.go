package main

import (
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/kavehm/watchlog/internal/config"
	"github.com/kavehm/watchlog/internal/database"
	"github.com/kavehm/watchlog/internal/handler"
	"github.com/kavehm/watchlog/internal/logger"
	"github.com/kavehm/watchlog/internal/queue"
	"github.com/kavehm/watchlog/internal/repository"
	"github.com/kavehm/watchlog/internal/router"
	"github.com/kavehm/watchlog/internal/utils"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env wins

	log := logger.Get()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("database connect failed")
	}
	defer db.Close()

	tokenCfg := utils.TokenConfig{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTLMin:   cfg.AccessTTLMin,
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	titles := repository.NewTitleRepo(db)
	genres := repository.NewGenreRepo(db)
	lists := repository.NewListRepo(db)
	ratings := repository.NewRatingRepo(db)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and caching disabled")
	}

	go queue.StartActivityConsumer()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Deps{
		TokenCfg:        tokenCfg,
		Redis:           rdb,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CacheTTL:        cfg.CacheTTL,
		Auth:            handler.NewAuthHandler(tokenCfg, cfg.BcryptCost, cfg.RefreshTTLDays, users, tokens),
		Users:           handler.NewUserHandler(cfg.BcryptCost, users, tokens),
		Titles:          handler.NewTitleHandler(titles, ratings),
		Genres:          handler.NewGenreHandler(genres),
		Lists:           handler.NewListHandler(lists, titles),
		Ratings:         handler.NewRatingHandler(ratings, titles),
	})

	addr := ":" + cfg.Port
	log.WithField("addr", addr).WithField("env", cfg.Env).Info("listening")
	if err := e.Start(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
