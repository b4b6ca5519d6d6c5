package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/maynagashev/catalog/server/internal/changes"
	"github.com/maynagashev/catalog/server/internal/handlers"
	"github.com/maynagashev/catalog/server/internal/identity"
	appmiddleware "github.com/maynagashev/catalog/server/internal/middleware"
	"github.com/maynagashev/catalog/server/internal/migrations"
	"github.com/maynagashev/catalog/server/internal/repository"
	"github.com/maynagashev/catalog/server/internal/services"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultIdleTimeout     = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	corsMaxAge             = 300
)

// Точки подмены для тестов.
var (
	newPostgresDB = repository.NewPostgresDB
	runMigrations = migrations.Up
)

// Структура для хранения инициализированных зависимостей.
type dependencies struct {
	db       *sqlx.DB
	broker   *changes.Broker
	listener *changes.Listener
	verifier *identity.Verifier
	roles    *services.RoleResolver

	authHandler      *handlers.AuthHandler
	entryHandler     *handlers.EntryHandler
	functionsHandler *handlers.FunctionsHandler
	changesHandler   *handlers.ChangesHandler

	// Для начального заполнения данных при старте.
	settings   repository.SettingsRepository
	identities repository.IdentityRepository
	profiles   repository.ProfileRepository
	gateway    *identity.Gateway
}

// main - точка входа. Вызывает run и обрабатывает ошибку.
func main() {
	if err := run(); err != nil {
		log.Printf("Ошибка выполнения сервера: %v", err)
		os.Exit(1)
	}
}

// run содержит основную логику запуска сервера и возвращает ошибку.
func run() error {
	log.Println("Запуск сервера каталога...")

	cfg, err := parseFlags()
	if err != nil {
		return fmt.Errorf("ошибка конфигурации: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setupDependencies(ctx, cfg)
	if err != nil {
		return fmt.Errorf("ошибка инициализации зависимостей: %w", err)
	}
	// Отложенное закрытие соединения с БД
	defer func() {
		deps.broker.Close()
		if closeErr := deps.db.Close(); closeErr != nil {
			log.Printf("Ошибка закрытия соединения с БД: %v", closeErr)
		}
	}()

	if err = bootstrapData(ctx, cfg, deps); err != nil {
		return fmt.Errorf("ошибка начального заполнения данных: %w", err)
	}

	server := newHTTPServer(":"+cfg.Port, setupRouter(deps, cfg.CORSOrigins), deps.broker)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return deps.listener.Run(gctx)
	})
	g.Go(func() error {
		var serveErr error
		if cfg.TLSEnabled() {
			log.Printf("Запуск HTTPS-сервера на порту %s (сертификат: %s)", cfg.Port, cfg.CertFile)
			serveErr = server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			log.Printf("Запуск HTTP-сервера на порту %s", cfg.Port)
			serveErr = server.ListenAndServe()
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("ошибка запуска сервера: %w", serveErr)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Остановка сервера...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// setupDependencies инициализирует и возвращает все необходимые зависимости сервера.
func setupDependencies(ctx context.Context, cfg *config) (*dependencies, error) {
	deps := &dependencies{}
	var err error

	// 1. Подключение к БД с сервисными учетными данными
	deps.db, err = newPostgresDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации БД: %w", err)
	}

	// 2. Миграции схемы
	if err = runMigrations(ctx, deps.db.DB); err != nil {
		if closeErr := deps.db.Close(); closeErr != nil {
			log.Printf("Ошибка закрытия соединения с БД после сбоя миграций: %v", closeErr)
		}
		return nil, fmt.Errorf("ошибка применения миграций: %w", err)
	}

	// 3. Создание репозиториев
	deps.identities = repository.NewPostgresIdentityRepository(deps.db)
	deps.profiles = repository.NewPostgresProfileRepository(deps.db)
	deps.settings = repository.NewPostgresSettingsRepository(deps.db)
	entryRepo := repository.NewPostgresEntryRepository(deps.db)

	// 4. Провайдер идентификации и сервисы
	deps.gateway = identity.NewGateway(deps.identities, identity.Config{
		Secret:   []byte(cfg.JWTSecret),
		TokenTTL: cfg.TokenTTL,
	})
	deps.verifier = deps.gateway.Verifier()
	deps.roles = services.NewRoleResolver(deps.profiles)
	authService := services.NewAuthService(deps.gateway, deps.roles)
	entryService := services.NewEntryService(entryRepo)
	userService := services.NewPrivilegedUserService(deps.gateway, deps.profiles, deps.settings)

	// 5. Уведомления об изменениях
	deps.broker = changes.NewBroker()
	deps.listener = changes.NewListener(cfg.DatabaseDSN, deps.broker)

	// 6. Создание обработчиков
	deps.authHandler = handlers.NewAuthHandler(authService)
	deps.entryHandler = handlers.NewEntryHandler(entryService)
	deps.functionsHandler = handlers.NewFunctionsHandler(userService)
	deps.changesHandler = handlers.NewChangesHandler(deps.broker)

	return deps, nil
}

// newHTTPServer создает HTTP-сервер. При остановке брокер закрывается первым,
// иначе открытые потоки /api/changes не дают Shutdown завершиться.
func newHTTPServer(addr string, handler http.Handler, broker *changes.Broker) *http.Server {
	server := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: defaultReadTimeout,
		// WriteTimeout не задан: поток /api/changes держит соединение открытым.
		IdleTimeout: defaultIdleTimeout,
	}
	server.RegisterOnShutdown(broker.Close)
	return server
}

// setupRouter настраивает и возвращает роутер chi.
func setupRouter(deps *dependencies, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()
	// Пустой список источников означает "разрешены любые".
	r.Use(cors.New(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Client-Info", "Apikey"},
		MaxAge:         corsMaxAge,
	}).Handler)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(appmiddleware.JSONRecoverer)

	// --- Маршруты --- //
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong\n"))
	})

	r.Post("/auth/login", deps.authHandler.Login)

	// Приватные маршруты (требуют аутентификации)
	r.Route("/api", func(r chi.Router) {
		r.Use(appmiddleware.Authenticator(deps.verifier))

		r.Get("/me", deps.authHandler.Me)
		r.Get("/entries", deps.entryHandler.List)
		r.Get("/entries/{id}", deps.entryHandler.Get)
		r.Get("/changes", deps.changesHandler.Stream)

		// Только для администраторов
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.RequireAdmin(deps.roles))
			r.Get("/users", deps.functionsHandler.ListUsers)
			r.Post("/entries", deps.entryHandler.Create)
			r.Put("/entries/{id}", deps.entryHandler.Replace)
			r.Delete("/entries/{id}", deps.entryHandler.Delete)
		})
	})

	// Привилегированные функции: 405 для не-POST, OPTIONS без тела
	r.Route("/functions", func(r chi.Router) {
		r.MethodNotAllowed(deps.functionsHandler.MethodNotAllowed)
		for _, path := range []string{"/create-user", "/delete-user", "/update-password"} {
			r.Options(path, deps.functionsHandler.Preflight)
		}
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Authenticator(deps.verifier))
			r.Use(appmiddleware.RequireAdmin(deps.roles))
			r.Post("/create-user", deps.functionsHandler.CreateUser)
			r.Post("/delete-user", deps.functionsHandler.DeleteUser)
			r.Post("/update-password", deps.functionsHandler.UpdatePassword)
		})
	})
	return r
}
