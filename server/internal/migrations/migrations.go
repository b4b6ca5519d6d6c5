// Package migrations содержит SQL-схему сервера, встроенную в бинарник.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var Migrations embed.FS

// gooseUp - точка подмены goose.UpContext в тестах.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error { //nolint:gochecknoglobals // подменяется в тестах
	return goose.UpContext(ctx, db, dir)
}

// Up применяет все неприменённые миграции.
func Up(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("ошибка выбора диалекта goose: %w", err)
	}
	log.Println("[Migrations] Применение миграций...")
	if err := gooseUp(ctx, db, "."); err != nil {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}
	log.Println("[Migrations] Миграции применены.")
	return nil
}
