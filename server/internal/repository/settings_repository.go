package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
)

// SettingDefaultGeneralPassword - ключ общего пароля по умолчанию для обычных пользователей.
const SettingDefaultGeneralPassword = "default_general_password"

// SettingsRepository - хранилище настроек приложения (ключ-значение).
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	// EnsureSetting записывает значение, только если ключ еще не задан.
	EnsureSetting(ctx context.Context, key, value string) error
}

// postgresSettingsRepository реализует SettingsRepository для PostgreSQL.
type postgresSettingsRepository struct {
	db *sqlx.DB
}

// NewPostgresSettingsRepository создает новый экземпляр репозитория настроек.
func NewPostgresSettingsRepository(db *sqlx.DB) SettingsRepository {
	return &postgresSettingsRepository{db: db}
}

// GetSetting возвращает значение настройки.
func (r *postgresSettingsRepository) GetSetting(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM app_settings WHERE key=$1`
	var value string

	err := r.db.GetContext(ctx, &value, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[SettingsRepo] Настройка '%s' не найдена", key)
			return "", ErrSettingNotFound
		}
		log.Printf("[SettingsRepo] Ошибка чтения настройки '%s': %v", key, err)
		return "", fmt.Errorf("ошибка выполнения запроса на получение настройки: %w", err)
	}
	return value, nil
}

// SetSetting записывает значение настройки (upsert).
func (r *postgresSettingsRepository) SetSetting(ctx context.Context, key, value string) error {
	query := `INSERT INTO app_settings (key, value, updated_at) VALUES ($1, $2, NOW())
	          ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		log.Printf("[SettingsRepo] Ошибка записи настройки '%s': %v", key, err)
		return fmt.Errorf("ошибка выполнения запроса на запись настройки: %w", err)
	}
	log.Printf("[SettingsRepo] Настройка '%s' обновлена", key)
	return nil
}

// EnsureSetting записывает значение по умолчанию, не перетирая существующее.
func (r *postgresSettingsRepository) EnsureSetting(ctx context.Context, key, value string) error {
	query := `INSERT INTO app_settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		log.Printf("[SettingsRepo] Ошибка инициализации настройки '%s': %v", key, err)
		return fmt.Errorf("ошибка выполнения запроса на инициализацию настройки: %w", err)
	}
	return nil
}

// Кастомные ошибки репозитория настроек.
var (
	ErrSettingNotFound = errors.New("настройка не найдена")
)
