package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/maynagashev/catalog/client/internal/session"
	"github.com/maynagashev/catalog/client/internal/tui"
)

const (
	logDir             = "logs"
	logFileName        = "client.log"
	logFilePermissions = 0o666

	serverURLEnvVar  = "CATALOG_SERVER_URL"
	defaultServerURL = "http://localhost:8080"
	defaultLockFile  = "catalog-client.lock"
)

// Переменные для версии и даты сборки, устанавливаются через ldflags.
var (
	version = "dev" // Значение по умолчанию, если не установлено при сборке
	//nolint:gochecknoglobals // Устанавливается через ldflags при сборке
	buildDate = "unknown" // Значение по умолчанию
	//nolint:gochecknoglobals // Устанавливается через ldflags при сборке
	commitHash = "N/A" // Значение по умолчанию
)

// options - параметры запуска клиента.
type options struct {
	serverURL   string
	lockFile    string
	idleTimeout time.Duration
	debug       bool
	version     bool
}

// setupLogging настраивает логирование в файл logs/client.log.
func setupLogging() (*os.File, error) {
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию для логов: %w", err)
	}
	logPath := filepath.Join(logDir, logFileName)
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть лог-файл: %w", err)
	}

	logHandler := slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(logHandler))
	slog.Info("Логгер инициализирован", "path", logPath)
	return logFile, nil
}

// parseOptions разбирает флаги. Переменная окружения CATALOG_SERVER_URL
// используется, если флаг -server-url не указан явно.
func parseOptions(fs *flag.FlagSet, args []string) (*options, error) {
	opts := &options{}
	fs.StringVar(&opts.serverURL, "server-url", defaultServerURL, "URL сервера каталога (переопределяет "+serverURLEnvVar+")")
	fs.StringVar(&opts.lockFile, "lock-file", defaultLockFile, "Файл блокировки, запрещающий второй экземпляр клиента")
	fs.DurationVar(&opts.idleTimeout, "idle-timeout", session.DefaultIdleTimeout, "Время бездействия до выхода из сессии")
	fs.BoolVar(&opts.debug, "debug", false, "Включить режим отладки TUI")
	fs.BoolVar(&opts.version, "version", false, "Показать версию и дату сборки")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	urlFlagPresent := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "server-url" {
			urlFlagPresent = true
		}
	})
	if envURL := os.Getenv(serverURLEnvVar); envURL != "" && !urlFlagPresent {
		opts.serverURL = envURL
	}

	if opts.serverURL == "" {
		return nil, errors.New("URL сервера не может быть пустым")
	}
	if opts.idleTimeout <= 0 {
		return nil, errors.New("время бездействия должно быть положительным")
	}
	return opts, nil
}

func main() {
	opts, err := parseOptions(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if opts.version {
		log.SetOutput(os.Stdout)
		log.SetFlags(0)
		log.Println("Catalog Client")
		log.Printf("Version: %s", version)
		log.Printf("Build Date: %s", buildDate)
		log.Printf("Commit Hash: %s", commitHash)
		os.Exit(0)
	}

	logFile, err := setupLogging()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logFile.Close()

	slog.Info("Запуск клиента каталога",
		"server_url", opts.serverURL,
		"lock_file", opts.lockFile,
		"idle_timeout", opts.idleTimeout,
		"debug_mode", opts.debug,
	)

	if err = tui.Start(opts.serverURL, opts.lockFile, opts.idleTimeout, opts.debug); err != nil {
		slog.Error("Клиент завершился с ошибкой", "error", err)
		fmt.Fprintln(os.Stderr, err)
		logFile.Close()
		os.Exit(1) //nolint:gocritic // лог-файл закрыт вручную
	}
}
