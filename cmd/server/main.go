package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkshare/internal/auth"
	"linkshare/internal/categories"
	"linkshare/internal/config"
	"linkshare/internal/http_server/handlers/activate"
	categoryHandler "linkshare/internal/http_server/handlers/category"
	"linkshare/internal/http_server/handlers/forgotpassword"
	linkHandler "linkshare/internal/http_server/handlers/link"
	"linkshare/internal/http_server/handlers/login"
	"linkshare/internal/http_server/handlers/register"
	"linkshare/internal/http_server/handlers/resetpassword"
	userHandler "linkshare/internal/http_server/handlers/user"
	"linkshare/internal/links"
	"linkshare/internal/middleware/authn"
	"linkshare/internal/rabbitmq"
	"linkshare/internal/storage/postgres"
	"linkshare/internal/uploads"
	"linkshare/internal/users"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting linkshare server", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer msgBroker.Close()

	uploader, err := uploads.New(ctx, cfg.S3)
	if err != nil {
		log.Error("failed to init s3 client", slog.String("err", err.Error()))
		os.Exit(1)
	}

	authService := auth.New(log, storage, storage, msgBroker, cfg.Tokens, cfg.ClientURL)
	usersService := users.New(log, storage, storage, storage)
	categoriesService := categories.New(log, storage, uploader)
	linksService := links.New(log, storage, msgBroker, cfg.ClientURL)

	router := setupRouter(
		log,
		cfg,
		storage,
		authService,
		usersService,
		categoriesService,
		linksService,
	)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", slog.String("err", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", slog.String("err", err.Error()))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Main service stopped")
}

func setupRouter(
	log *slog.Logger,
	cfg *config.Config,
	storage *postgres.Repo,
	authService *auth.Auth,
	usersService *users.Users,
	categoriesService *categories.Categories,
	linksService *links.Links,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	validate := validator.New()

	requireSignin := authn.RequireSignin(log, cfg.Tokens.SessionSecret)
	requireUser := authn.RequireUser(log, storage)
	requireAdmin := authn.RequireAdmin(log, storage)
	requireLinkOwner := authn.RequireLinkOwner(log, storage)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", register.New(log, validate, authService))
		r.Post("/register/activate", activate.New(log, validate, authService))
		r.Post("/login", login.New(log, validate, authService))
		r.Put("/forgot-password", forgotpassword.New(log, validate, authService))
		r.Put("/reset-password", resetpassword.New(log, validate, authService))
	})

	r.With(requireSignin, requireUser).Get("/user", userHandler.NewRead(log, usersService))
	r.With(requireSignin, requireAdmin).Get("/admin", userHandler.NewRead(log, usersService))
	r.With(requireSignin, requireUser).Put("/user", userHandler.NewUpdate(log, validate, usersService))

	r.With(requireSignin, requireAdmin).Post("/category", categoryHandler.NewCreate(log, validate, categoriesService))
	r.Get("/categories", categoryHandler.NewList(log, categoriesService))
	r.Post("/category/{slug}", categoryHandler.NewRead(log, categoriesService))
	r.With(requireSignin, requireAdmin).Put("/category/{slug}", categoryHandler.NewUpdate(log, validate, categoriesService))
	r.With(requireSignin, requireAdmin).Delete("/category/{slug}", categoryHandler.NewDelete(log, categoriesService))

	r.With(requireSignin, requireUser).Post("/link", linkHandler.NewCreate(log, validate, linksService))
	r.With(requireSignin, requireAdmin).Post("/links", linkHandler.NewList(log, linksService))
	r.Put("/click-count", linkHandler.NewClickCount(log, validate, linksService))
	r.Get("/link/popular", linkHandler.NewPopular(log, linksService))
	r.Get("/link/popular/{slug}", linkHandler.NewPopularInCategory(log, linksService))
	r.Get("/link/{id}", linkHandler.NewRead(log, linksService))
	r.With(requireSignin, requireUser, requireLinkOwner).Put("/link/{id}", linkHandler.NewUpdate(log, validate, linksService))
	r.With(requireSignin, requireAdmin).Put("/link/admin/{id}", linkHandler.NewUpdate(log, validate, linksService))
	r.With(requireSignin, requireUser, requireLinkOwner).Delete("/link/{id}", linkHandler.NewDelete(log, linksService))
	r.With(requireSignin, requireAdmin).Delete("/link/admin/{id}", linkHandler.NewDelete(log, linksService))

	return r
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
