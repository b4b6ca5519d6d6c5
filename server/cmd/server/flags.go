package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// Порт по умолчанию.
	defaultServerPort = "8080"
	defaultTokenTTL   = 24 * time.Hour

	// Переменные окружения.
	envServerPort      = "SERVER_PORT"
	envTLSCertFile     = "TLS_CERT_FILE"
	envTLSKeyFile      = "TLS_KEY_FILE"
	envDatabaseDSN     = "DATABASE_DSN"
	envJWTSecret       = "JWT_SECRET" //nolint:gosec // Ложное срабатывание, это имя переменной окружения
	envTokenTTL        = "TOKEN_TTL"
	envAdminEmail      = "ADMIN_EMAIL"
	envAdminPassword   = "ADMIN_PASSWORD" //nolint:gosec // Ложное срабатывание, это имя переменной окружения
	envDefaultPassword = "DEFAULT_GENERAL_PASSWORD"
	envCORSOrigins     = "CORS_ORIGINS"
)

// config хранит конфигурацию сервера.
type config struct {
	Port        string
	CertFile    string
	KeyFile     string
	DatabaseDSN string // Сервисные учетные данные БД, никогда не берутся из запроса
	JWTSecret   string
	TokenTTL    time.Duration

	AdminEmail             string
	AdminPassword          string
	DefaultGeneralPassword string
	CORSOrigins            []string
}

// TLSEnabled сообщает, заданы ли сертификат и ключ.
func (c *config) TLSEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// parseFlags разбирает флаги и переменные окружения, возвращает config или ошибку.
// Флаги имеют приоритет над переменными окружения.
func parseFlags() (*config, error) {
	cfg := &config{}
	var tokenTTL, corsOrigins string

	// Определяем флаги
	flag.StringVar(&cfg.Port, "port", "",
		fmt.Sprintf("Порт HTTP(S)-сервера (env: %s, default: %s)", envServerPort, defaultServerPort))
	flag.StringVar(&cfg.CertFile, "cert-file", "",
		fmt.Sprintf("Путь к файлу TLS-сертификата (env: %s)", envTLSCertFile))
	flag.StringVar(&cfg.KeyFile, "key-file", "",
		fmt.Sprintf("Путь к файлу TLS-ключа (env: %s)", envTLSKeyFile))
	flag.StringVar(&cfg.DatabaseDSN, "database-dsn", "",
		fmt.Sprintf("Строка подключения к базе данных (env: %s)", envDatabaseDSN))
	flag.StringVar(&cfg.JWTSecret, "jwt-secret", "",
		fmt.Sprintf("Ключ подписи токенов (env: %s)", envJWTSecret))
	flag.StringVar(&tokenTTL, "token-ttl", "",
		fmt.Sprintf("Время жизни токена (env: %s, default: %s)", envTokenTTL, defaultTokenTTL))
	flag.StringVar(&cfg.AdminEmail, "admin-email", "",
		fmt.Sprintf("Email администратора, создаваемого при старте (env: %s)", envAdminEmail))
	flag.StringVar(&cfg.AdminPassword, "admin-password", "",
		fmt.Sprintf("Пароль администратора, создаваемого при старте (env: %s)", envAdminPassword))
	flag.StringVar(&cfg.DefaultGeneralPassword, "default-password", "",
		fmt.Sprintf("Начальный общий пароль обычных пользователей (env: %s)", envDefaultPassword))
	flag.StringVar(&corsOrigins, "cors-origins", "",
		fmt.Sprintf("Разрешенные CORS-источники через запятую, пусто - любые (env: %s)", envCORSOrigins))

	// Парсим флаги
	flag.Parse()

	// Применяем переменные окружения, если флаги не заданы
	applyEnv(&cfg.Port, envServerPort)
	applyEnv(&cfg.CertFile, envTLSCertFile)
	applyEnv(&cfg.KeyFile, envTLSKeyFile)
	applyEnv(&cfg.DatabaseDSN, envDatabaseDSN)
	applyEnv(&cfg.JWTSecret, envJWTSecret)
	applyEnv(&tokenTTL, envTokenTTL)
	applyEnv(&cfg.AdminEmail, envAdminEmail)
	applyEnv(&cfg.AdminPassword, envAdminPassword)
	applyEnv(&cfg.DefaultGeneralPassword, envDefaultPassword)
	applyEnv(&corsOrigins, envCORSOrigins)

	if cfg.Port == "" {
		cfg.Port = defaultServerPort
	}

	cfg.TokenTTL = defaultTokenTTL
	if tokenTTL != "" {
		ttl, err := time.ParseDuration(tokenTTL)
		if err != nil || ttl <= 0 {
			return nil, fmt.Errorf("некорректное время жизни токена '%s'", tokenTTL)
		}
		cfg.TokenTTL = ttl
	}

	for _, origin := range strings.Split(corsOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	// Проверяем обязательные параметры
	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return nil, errors.New("сертификат и ключ TLS задаются вместе (--cert-file и --key-file)")
	}
	if cfg.DatabaseDSN == "" {
		return nil, errors.New("не указана строка подключения к БД (--database-dsn или " + envDatabaseDSN + ")")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("не указан ключ подписи токенов (--jwt-secret или " + envJWTSecret + ")")
	}
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return nil, errors.New("email и пароль администратора задаются вместе")
	}

	return cfg, nil
}

// applyEnv подставляет значение переменной окружения, если флаг не задан.
func applyEnv(dst *string, key string) {
	if *dst != "" {
		return
	}
	if value, ok := os.LookupEnv(key); ok {
		*dst = value
	}
}
