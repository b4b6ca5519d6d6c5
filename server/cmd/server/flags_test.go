package main

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Вспомогательная функция для сброса флагов между тестами.
func resetFlags() {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
}

var allEnv = []string{
	envServerPort, envTLSCertFile, envTLSKeyFile, envDatabaseDSN, envJWTSecret, envTokenTTL,
	envAdminEmail, envAdminPassword, envDefaultPassword, envCORSOrigins,
}

func TestParseFlags(t *testing.T) {
	// Сохраняем оригинальные аргументы командной строки
	originalArgs := os.Args
	defer func() { os.Args = originalArgs }()

	// Очищаем переменные окружения; t.Setenv восстановит их после теста
	for _, key := range allEnv {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	t.Run("Все параметры из флагов", func(t *testing.T) {
		resetFlags()
		os.Args = []string{
			"cmd", "-port=8443", "-cert-file=cert.pem", "-key-file=key.pem", "-database-dsn=postgres://...",
			"-jwt-secret=s3cr3t", "-token-ttl=2h", "-admin-email=root@example.com", "-admin-password=secret123",
			"-default-password=welcome1", "-cors-origins=https://a.example, https://b.example",
		}

		cfg, err := parseFlags()

		require.NoError(t, err)
		assert.Equal(t, "8443", cfg.Port)
		assert.True(t, cfg.TLSEnabled())
		assert.Equal(t, "postgres://...", cfg.DatabaseDSN)
		assert.Equal(t, "s3cr3t", cfg.JWTSecret)
		assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
		assert.Equal(t, "root@example.com", cfg.AdminEmail)
		assert.Equal(t, "welcome1", cfg.DefaultGeneralPassword)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	})

	t.Run("Параметры из переменных окружения, без TLS", func(t *testing.T) {
		resetFlags()
		os.Args = []string{"cmd"}
		t.Setenv(envServerPort, "9090")
		t.Setenv(envDatabaseDSN, "env_postgres://...")
		t.Setenv(envJWTSecret, "env-secret")

		cfg, err := parseFlags()

		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.Port)
		assert.False(t, cfg.TLSEnabled())
		assert.Equal(t, "env_postgres://...", cfg.DatabaseDSN)
		assert.Equal(t, defaultTokenTTL, cfg.TokenTTL)
		assert.Empty(t, cfg.CORSOrigins)
	})

	t.Run("Флаги переопределяют переменные окружения", func(t *testing.T) {
		resetFlags()
		t.Setenv(envServerPort, "9090")
		t.Setenv(envDatabaseDSN, "env_postgres://...")
		t.Setenv(envJWTSecret, "env-secret")
		os.Args = []string{"cmd", "-port=8080", "-database-dsn=flag_postgres://..."}

		cfg, err := parseFlags()

		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "flag_postgres://...", cfg.DatabaseDSN)
		assert.Equal(t, "env-secret", cfg.JWTSecret)
	})

	errorCases := []struct {
		name        string
		args        []string
		expectedErr string
	}{
		{
			name:        "Только сертификат без ключа",
			args:        []string{"cmd", "-cert-file=cert.pem", "-database-dsn=dsn", "-jwt-secret=s"},
			expectedErr: "сертификат и ключ TLS задаются вместе",
		},
		{
			name:        "Отсутствует database-dsn",
			args:        []string{"cmd", "-jwt-secret=s"},
			expectedErr: "не указана строка подключения к БД",
		},
		{
			name:        "Отсутствует jwt-secret",
			args:        []string{"cmd", "-database-dsn=dsn"},
			expectedErr: "не указан ключ подписи токенов",
		},
		{
			name:        "Некорректное время жизни токена",
			args:        []string{"cmd", "-database-dsn=dsn", "-jwt-secret=s", "-token-ttl=forever"},
			expectedErr: "некорректное время жизни токена",
		},
		{
			name:        "Email администратора без пароля",
			args:        []string{"cmd", "-database-dsn=dsn", "-jwt-secret=s", "-admin-email=root@example.com"},
			expectedErr: "email и пароль администратора задаются вместе",
		},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			os.Args = tt.args

			_, err := parseFlags()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}
