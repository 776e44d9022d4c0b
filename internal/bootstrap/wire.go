package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baechuer/otp-auth-service/internal/application/auth"
	"github.com/baechuer/otp-auth-service/internal/config"
	"github.com/baechuer/otp-auth-service/internal/infrastructure/db/migrate"
	"github.com/baechuer/otp-auth-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/otp-auth-service/internal/infrastructure/mail"
	rabbitmq_pub "github.com/baechuer/otp-auth-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/otp-auth-service/internal/infrastructure/redis"
	"github.com/baechuer/otp-auth-service/internal/infrastructure/security"
	"github.com/baechuer/otp-auth-service/internal/logger"
	http_handlers "github.com/baechuer/otp-auth-service/internal/transport/http/handlers"
	"github.com/baechuer/otp-auth-service/internal/transport/http/middleware"
	"github.com/baechuer/otp-auth-service/internal/transport/http/response"
	"github.com/baechuer/otp-auth-service/internal/transport/http/router"
)

// bcrypt cost used for stored passwords.
const passwordCost = 10

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB func(addr string, debug bool) (*sql.DB, error)

	Migrate func(ctx context.Context, db *sql.DB) error

	// NewRedis is only called when REDIS_ADDR is set.
	NewRedis func(addr, password string, db int) RedisClient

	NewPublisher func(rabbitURL, exchange string) (auth.Notifier, error)

	NewSMTP func(cfg config.SMTPConfig) auth.Notifier

	NewRouter func(router.Deps) (http.Handler, error)
}

type RedisClient interface {
	Ping(ctx context.Context) error
	Close() error
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	// 1) db
	db, err := deps.NewDB(cfg.DBAddr, cfg.DBDebug)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: db: %w", err)
	}

	cleanupFns := []func(){
		func() { _ = db.Close() },
	}

	// 2) schema
	if cfg.MigrateOnStart && deps.Migrate != nil {
		if err := deps.Migrate(context.Background(), db); err != nil {
			runCleanup(cleanupFns)
			return nil, nil, fmt.Errorf("bootstrap: migrate: %w", err)
		}
	}

	// 3) repos
	userRepo := postgres.NewUserRepo(db)
	verificationRepo := postgres.NewVerificationRepo(db)

	// 4) redis profile cache (best-effort)
	var users auth.UserRepo = userRepo
	if cfg.RedisAddr != "" && deps.NewRedis != nil {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := c.Ping(ctx)
		cancel()

		if err != nil {
			logger.Logger.Warn().Err(err).Msg("redis unavailable; profile cache disabled")
			_ = c.Close()
		} else {
			logger.Logger.Info().Msg("redis connected")
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
			if rc, ok := c.(*redis.Client); ok {
				users = redis.NewCachedUserRepo(userRepo, rc, cfg.ProfileCacheTTL)
			}
		}
	}

	// 5) code delivery
	notifier, closeNotifier, err := newNotifier(cfg, deps)
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}
	if closeNotifier != nil {
		cleanupFns = append(cleanupFns, closeNotifier)
	}

	// 6) security
	logger.Logger.Info().Str("issuer", cfg.JWTIssuer).Msg("initializing jwt signer")
	hasher := security.NewBcryptHasher(passwordCost)
	signer := security.NewJWTSigner(cfg.JWTSecret, cfg.JWTIssuer)

	// 7) service
	authSvc := auth.NewService(
		users,
		verificationRepo,
		hasher,
		signer,
		security.NewRandomCodes(),
		notifier,
		auth.Config{
			PendingTTL:  cfg.PendingTokenTTL,
			VerifiedTTL: cfg.VerifiedTokenTTL,
			SessionTTL:  cfg.SessionTokenTTL,
		},
	)

	// 8) handlers + middleware
	authH := http_handlers.NewAuthHandler(authSvc)
	healthH := http_handlers.NewHealthHandler(db)

	// 9) router
	mux, err := deps.NewRouter(router.Deps{
		Health: healthH,
		Auth:   authH,
		AuthMW: middleware.Auth(authSvc, response.WriteError),

		RequestIDMW: middleware.RequestID,
		SecurityMW:  middleware.SecurityHeaders(cfg.Env == "prod"),
		CORSMW:      middleware.CORS(cfg.CORSAllowedOrigins),
		MetricsMW:   middleware.Metrics,
		AccessLogMW: middleware.AccessLog,
		BodyLimitMW: middleware.BodyLimit(cfg.BodyLimitBytes, response.WriteError),

		Metrics: promhttp.Handler(),
	})
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 10) server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	cleanup := func() {
		runCleanup(cleanupFns)
	}

	return srv, cleanup, nil
}

// newNotifier picks the delivery path for verification codes. A broker that
// is down at startup is tolerated in dev by logging codes instead.
func newNotifier(cfg *config.Config, deps Deps) (auth.Notifier, func(), error) {
	switch cfg.Notifier {
	case config.NotifierSMTP:
		if deps.NewSMTP == nil {
			return nil, nil, errors.New("bootstrap: smtp notifier not configured")
		}
		logger.Logger.Info().Str("host", cfg.SMTP.Host).Int("port", cfg.SMTP.Port).Msg("otp delivery via smtp")
		return deps.NewSMTP(cfg.SMTP), nil, nil

	case config.NotifierQueue:
		pub, err := deps.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			if cfg.Env == "dev" {
				logger.Logger.Warn().Err(err).Msg("rabbitmq unavailable; logging codes instead")
				return mail.NewLogNotifier(logger.Logger), nil, nil
			}
			return nil, nil, fmt.Errorf("bootstrap: rabbitmq: %w", err)
		}
		logger.Logger.Info().Str("exchange", cfg.RabbitExchange).Msg("otp delivery via rabbitmq")

		var closeFn func()
		if c, ok := pub.(interface{ Close() error }); ok {
			closeFn = func() { _ = c.Close() }
		}
		return pub, closeFn, nil

	case config.NotifierLog:
		logger.Logger.Warn().Msg("otp delivery via log; codes are written to the log")
		return mail.NewLogNotifier(logger.Logger), nil, nil
	}

	return nil, nil, fmt.Errorf("bootstrap: unknown notifier %q", cfg.Notifier)
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB:      config.NewDB,
		Migrate: func(ctx context.Context, db *sql.DB) error {
			r, err := migrate.New(db, logger.Logger)
			if err != nil {
				return err
			}
			return r.Up(ctx)
		},
		NewRedis: func(addr, password string, db int) RedisClient {
			return redis.New(addr, password, db)
		},
		NewPublisher: func(url, exchange string) (auth.Notifier, error) {
			return rabbitmq_pub.NewPublisher(url, exchange)
		},
		NewSMTP: func(c config.SMTPConfig) auth.Notifier {
			return mail.NewSMTPNotifier(mail.SMTPConfig{
				Host:     c.Host,
				Port:     c.Port,
				Username: c.Username,
				Password: c.Password,
				FromName: c.FromName,
			}, logger.Logger)
		},
		NewRouter: router.New,
	}
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
