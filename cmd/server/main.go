package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/staymate/staymate-bff/internal/config"
	"github.com/staymate/staymate-bff/internal/db"
	"github.com/staymate/staymate-bff/internal/domain/entity"
	domainrepo "github.com/staymate/staymate-bff/internal/domain/repository"
	"github.com/staymate/staymate-bff/internal/goroutine"
	httpHandlers "github.com/staymate/staymate-bff/internal/http/handlers"
	httpRouter "github.com/staymate/staymate-bff/internal/http/router"
	redisinfra "github.com/staymate/staymate-bff/internal/infrastructure/redis"
	"github.com/staymate/staymate-bff/internal/logger"
	"github.com/staymate/staymate-bff/internal/pages"
	"github.com/staymate/staymate-bff/internal/repository"
	"github.com/staymate/staymate-bff/internal/security"
	"github.com/staymate/staymate-bff/internal/service"
	"github.com/staymate/staymate-bff/internal/upstream"
	"github.com/staymate/staymate-bff/internal/viewstate"
	"github.com/staymate/staymate-bff/internal/ws"
)

const sessionPurgeInterval = 10 * time.Minute

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if cfg.Env == "development" {
		logger.SetTextFormatter()
	}
	if err := logger.EnableFileRotation(cfg.LogDir, cfg.LogMaxAge); err != nil {
		log.Fatalf("main: %v", err)
	}

	checks := make(map[string]httpHandlers.Pinger)

	// Upstream.
	tokens := service.NewTokenReader(cfg.UpstreamJWTSecret)
	client := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout)
	client.SetClaimsReader(tokens)
	api := upstream.NewAPI(client)
	checks["upstream"] = httpHandlers.PingerFunc(client.Ping)

	// Хранилище сессий.
	var sessionRepo domainrepo.SessionRepository
	switch cfg.SessionStore {
	case "memory":
		logger.Log.Warn("main: сессии хранятся в памяти и не переживут перезапуск")
		sessionRepo = repository.NewMemorySessionRepository(nil)
	default:
		dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL, nil)
		if err != nil {
			log.Fatalf("main: ошибка подключения к базе: %v", err)
		}
		defer safeClose(dbConn)

		if err := db.RunMigrations(ctx, dbConn, os.DirFS(cfg.MigrationsPath)); err != nil {
			log.Fatalf("main: ошибка миграций: %v", err)
		}

		cipher, err := security.NewTokenCipher(cfg.TokenEncryptionKey)
		if err != nil {
			log.Fatalf("main: %v", err)
		}
		sessionRepo = repository.NewSessionRepository(dbConn, cipher)
		checks["postgres"] = httpHandlers.PingerFunc(dbConn.PingContext)
	}

	// Redis нужен только для блокировки действий между репликами.
	var locker viewstate.Locker
	if cfg.RedisAddr != "" {
		rdb, err := redisinfra.Connect(ctx, redisinfra.Config{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err != nil {
			log.Fatalf("main: ошибка подключения к redis: %v", err)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Printf("main: ошибка закрытия redis: %v", err)
			}
		}()
		locker = redisinfra.NewInflightLocker(rdb, cfg.ActionLockTTL)
		checks["redis"] = httpHandlers.PingerFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	go hub.Run()

	// Сервисы.
	sessions := service.NewSessionService(api, sessionRepo, tokens, nil, cfg.SessionTTL)
	views := service.NewViewService(pages.NewRegistry(), api, hub, locker, nil, service.ViewConfig{
		TTL:          cfg.ViewTTL,
		Debounce:     cfg.FilterDebounce,
		RefetchDelay: cfg.FraudRefetchDelay,
	})
	defer views.Shutdown()

	client.SetRefreshHook(sessions.PersistTokens)
	client.SetExpiredHook(func(_ context.Context, sess *entity.Session) {
		// Хук вызывается из запроса страницы, поэтому закрытие идёт отдельно.
		goroutine.SafeGo(func() {
			expireSession(context.Background(), hub, views, sessions, sess.ID)
		})
	})

	goroutine.SafeGoWithContext(ctx, views.RunJanitor)
	goroutine.SafeGo(func() { purgeSessions(ctx, hub, views, sessions) })

	// HTTP хэндлеры.
	handlers := httpRouter.Handlers{
		Session: httpHandlers.NewSessionHandler(sessions, views, hub, httpHandlers.CookieConfig{
			Secure: cfg.Env == "production",
			MaxAge: cfg.SessionTTL,
		}),
		Views:        httpHandlers.NewViewHandler(views),
		WS:           httpHandlers.NewWSHandler(hub, sessions, cfg.AllowedOrigins),
		Verification: httpHandlers.NewVerificationHandler(api, hub, cfg.MaxUploadSizeMB),
		Health:       httpHandlers.NewHealthHandler(checks),
	}

	engine := httpRouter.SetupRouter(cfg, handlers, sessions)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	logger.Log.WithField("port", cfg.HTTPPort).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// expireSession сообщает вкладкам об истечении сессии и освобождает её ресурсы.
func expireSession(ctx context.Context, hub *ws.Hub, views *service.ViewService, sessions *service.SessionService, id uuid.UUID) {
	if err := hub.Publish(id, ws.EventSessionExpired, nil); err != nil {
		logger.Log.WithError(err).Debug("main: session.expired не отправлено")
	}
	views.CloseSession(id)
	if err := sessions.Expire(ctx, id); err != nil {
		logger.Log.WithError(err).WithField("session", id).Warn("main: не удалось удалить истёкшую сессию")
	}
}

// purgeSessions периодически удаляет истёкшие сессии.
func purgeSessions(ctx context.Context, hub *ws.Hub, views *service.ViewService, sessions *service.SessionService) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := sessions.PurgeExpired(ctx)
			if err != nil {
				logger.Log.WithError(err).Warn("main: очистка сессий не удалась")
			}
			for _, id := range expired {
				if err := hub.Publish(id, ws.EventSessionExpired, nil); err != nil {
					logger.Log.WithError(err).Debug("main: session.expired не отправлено")
				}
				views.CloseSession(id)
				hub.Disconnect(id)
			}
		}
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
