package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"session-web-server/config"
	"session-web-server/internal/handler"
	"session-web-server/internal/repository"
	"session-web-server/internal/security"
	"session-web-server/internal/service"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	db, err := config.SetupDatabase(cfg.DatabaseConfig.DSN)
	if err != nil {
		log.Fatalf("Не удалось подключиться к БД: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка при закрытии БД: %v", err)
		}
	}()

	redisClient, err := config.SetupRedis(&cfg.RedisConfig)
	if err != nil {
		log.Fatalf("Ошибка подключения к Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Ошибка при закрытии Redis: %v", err)
		}
	}()

	accessTokenTTL, err := time.ParseDuration(cfg.JWT.AccessTokenTTL)
	if err != nil {
		log.Fatalf("Ошибка парсинга access_token_ttl: %v", err)
	}

	srv, router := config.SetupServer(cfg.ServerAddr)

	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	revocationRepo := repository.NewRevocationRepository(redisClient, accessTokenTTL)

	jwtService := security.NewJWTService(&cfg.JWT)
	userService := service.NewUserService(userRepo)
	sessionService := service.NewSessionService(refreshTokenRepo, revocationRepo, jwtService, userService)

	sessionHandler := handler.NewSessionHandler(sessionService, jwtService)

	setupSessionRoutes(router, sessionHandler, jwtService, revocationRepo)

	runServer(ctx, srv)
}

func setupSessionRoutes(r chi.Router, h *handler.SessionHandler, jwtService *security.JWTService, revocationList security.RevocationChecker) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Post("/signup", h.SignUp)
			r.Post("/signin", h.SignIn)
			r.Post("/refresh", h.Refresh)
		})
		r.Group(func(r chi.Router) {
			r.Use(security.JWTMiddleware(jwtService, revocationList))
			r.Get("/me", h.Me)
			r.Post("/signout", h.SignOut)
			r.Post("/full-signout", h.FullSignOut)
			r.Post("/reset-password", h.ResetPassword)
		})
	})
}

func runServer(ctx context.Context, server *http.Server) {
	serverErrors := make(chan error, 1)
	go func() {
		log.Println("сервер запущен на " + server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			log.Fatalf("ошибка работы сервера: %v", err)
		}
	case sig := <-signalChannel:
		log.Printf("получен сигнал %v остановки работы сервера ", sig)
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		log.Printf("ошибка при остановке сервера: %v", err)
	} else {
		log.Println("Сервер успешно остановлен")
	}
}
