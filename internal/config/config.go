package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	NotifierSMTP  = "smtp"
	NotifierQueue = "queue"
	NotifierLog   = "log"

	DefaultCORSOrigin = "https://inter-frontend-liard.vercel.app"
	DefaultExchange   = "auth.events"
	DefaultMailQueue  = "auth.email.otp"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string // EMAIL_ID, also the sender address
	Password string // PASS_KEY
	FromName string
}

type Config struct {
	// App
	Env string // dev / staging / prod
	// HTTP
	HTTPAddr string

	// Auth / Security
	JWTSecret        string
	JWTIssuer        string
	PendingTokenTTL  time.Duration
	VerifiedTokenTTL time.Duration
	SessionTokenTTL  time.Duration

	// Infrastructure
	DBAddr         string
	DBDebug        bool
	MigrateOnStart bool

	RedisAddr       string // empty disables the profile cache
	RedisPassword   string
	RedisDB         int
	ProfileCacheTTL time.Duration

	RabbitURL      string
	RabbitExchange string

	// Verification code delivery
	Notifier string
	SMTP     SMTPConfig

	// Edge
	CORSAllowedOrigins []string
	BodyLimitBytes     int64

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// MailerConfig is the subset used by the queue-driven mail worker.
type MailerConfig struct {
	Env            string
	RabbitURL      string
	RabbitExchange string
	RabbitQueue    string
	SMTP           SMTPConfig
}

func Load() (*Config, error) {
	// local .env is optional; real env wins
	_ = godotenv.Load()

	cfg := &Config{
		Env:            getEnv("ENV", "dev"),
		JWTIssuer:      getEnv("JWT_ISSUER", "otp-auth-service"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RabbitURL:      os.Getenv("RABBIT_URL"),
		RabbitExchange: getEnv("RABBIT_EXCHANGE", DefaultExchange),
		Notifier:       strings.ToLower(getEnv("NOTIFIER", NotifierSMTP)),
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":" + getEnv("PORT", "5000")
	}

	// required values
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing required env var: JWT_SECRET")
	}

	cfg.DBAddr = os.Getenv("DB_ADDR")
	if cfg.DBAddr == "" {
		return nil, fmt.Errorf("missing required env var: DB_ADDR")
	}

	var err error
	if cfg.PendingTokenTTL, err = getDuration("PENDING_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.VerifiedTokenTTL, err = getDuration("VERIFIED_TOKEN_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionTokenTTL, err = getDuration("SESSION_TOKEN_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.ProfileCacheTTL, err = getDuration("PROFILE_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}

	if cfg.DBDebug, err = getBool("DB_DEBUG", false); err != nil {
		return nil, err
	}
	if cfg.MigrateOnStart, err = getBool("MIGRATE_ON_START", false); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	bodyLimit, err := getInt("BODY_LIMIT_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}
	if bodyLimit <= 0 {
		return nil, fmt.Errorf("BODY_LIMIT_BYTES must be positive")
	}
	cfg.BodyLimitBytes = int64(bodyLimit)

	cfg.CORSAllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", DefaultCORSOrigin))

	// delivery mode decides which backing services are mandatory
	switch cfg.Notifier {
	case NotifierSMTP:
		if cfg.SMTP, err = loadSMTP(); err != nil {
			return nil, err
		}
	case NotifierQueue:
		if cfg.RabbitURL == "" {
			return nil, fmt.Errorf("missing required env var: RABBIT_URL (NOTIFIER=queue)")
		}
	case NotifierLog:
		if cfg.Env == "prod" {
			return nil, fmt.Errorf("NOTIFIER=log is not allowed in prod")
		}
	default:
		return nil, fmt.Errorf("invalid NOTIFIER %q (want smtp, queue or log)", cfg.Notifier)
	}

	if cfg.HTTPReadTimeout, err = getDuration("HTTP_READ_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPWriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPIdleTimeout, err = getDuration("HTTP_IDLE_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

func LoadMailer() (*MailerConfig, error) {
	_ = godotenv.Load()

	cfg := &MailerConfig{
		Env:            getEnv("ENV", "dev"),
		RabbitURL:      os.Getenv("RABBIT_URL"),
		RabbitExchange: getEnv("RABBIT_EXCHANGE", DefaultExchange),
		RabbitQueue:    getEnv("RABBIT_MAIL_QUEUE", DefaultMailQueue),
	}
	if cfg.RabbitURL == "" {
		return nil, fmt.Errorf("missing required env var: RABBIT_URL")
	}

	smtp, err := loadSMTP()
	if err != nil {
		return nil, err
	}
	cfg.SMTP = smtp
	return cfg, nil
}

func loadSMTP() (SMTPConfig, error) {
	c := SMTPConfig{
		Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		Username: os.Getenv("EMAIL_ID"),
		Password: os.Getenv("PASS_KEY"),
		FromName: os.Getenv("EMAIL_FROM_NAME"),
	}
	if c.Username == "" || c.Password == "" {
		return SMTPConfig{}, fmt.Errorf("missing required env vars: EMAIL_ID and PASS_KEY")
	}
	port, err := getInt("SMTP_PORT", 587)
	if err != nil {
		return SMTPConfig{}, err
	}
	c.Port = port
	return c, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %q: %w", key, v, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
