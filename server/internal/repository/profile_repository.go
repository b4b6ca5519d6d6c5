package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/maynagashev/catalog/models"
)

// ProfileRepository определяет методы для работы с профилями пользователей (таблица users).
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfileByID(ctx context.Context, id string) (*models.Profile, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	ListProfilesByRole(ctx context.Context, role models.Role) ([]models.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
}

// postgresProfileRepository реализует ProfileRepository для PostgreSQL.
type postgresProfileRepository struct {
	db *sqlx.DB
}

// NewPostgresProfileRepository создает новый экземпляр репозитория профилей.
func NewPostgresProfileRepository(db *sqlx.DB) ProfileRepository {
	return &postgresProfileRepository{db: db}
}

// CreateProfile вставляет профиль с ID уже созданной учетной записи.
func (r *postgresProfileRepository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	query := `INSERT INTO users (id, username, email, role) VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, profile.ID, profile.Username, profile.Email, string(profile.Role))
	if err != nil {
		log.Printf("[ProfileRepo] Ошибка создания профиля '%s': %v", profile.Username, err)
		return fmt.Errorf("ошибка выполнения запроса на создание профиля: %w", err)
	}

	log.Printf("[ProfileRepo] Профиль '%s' (ID: %s, роль: %s) создан", profile.Username, profile.ID, profile.Role)
	return nil
}

// GetProfileByID находит профиль по ID учетной записи.
func (r *postgresProfileRepository) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT id, username, email, role FROM users WHERE id=$1`
	var profile models.Profile

	err := r.db.GetContext(ctx, &profile, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		log.Printf("[ProfileRepo] Ошибка при поиске профиля %s: %v", id, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение профиля: %w", err)
	}

	return &profile, nil
}

// ListProfiles возвращает все профили, отсортированные по имени.
func (r *postgresProfileRepository) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	query := `SELECT id, username, email, role FROM users ORDER BY username`
	profiles := make([]models.Profile, 0)

	if err := r.db.SelectContext(ctx, &profiles, query); err != nil {
		log.Printf("[ProfileRepo] Ошибка при получении списка профилей: %v", err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение профилей: %w", err)
	}
	return profiles, nil
}

// ListProfilesByRole возвращает профили с указанной ролью.
func (r *postgresProfileRepository) ListProfilesByRole(ctx context.Context, role models.Role) ([]models.Profile, error) {
	query := `SELECT id, username, email, role FROM users WHERE role=$1 ORDER BY email`
	profiles := make([]models.Profile, 0)

	if err := r.db.SelectContext(ctx, &profiles, query, string(role)); err != nil {
		log.Printf("[ProfileRepo] Ошибка при получении профилей с ролью %s: %v", role, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение профилей: %w", err)
	}

	log.Printf("[ProfileRepo] Найдено %d профилей с ролью %s", len(profiles), role)
	return profiles, nil
}

// DeleteProfile удаляет профиль по ID.
func (r *postgresProfileRepository) DeleteProfile(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id=$1`
	err := execAffectingOne(ctx, r.db, ErrProfileNotFound, query, id)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			log.Printf("[ProfileRepo] Удаление: профиль %s не найден", id)
			return err
		}
		log.Printf("[ProfileRepo] Ошибка удаления профиля %s: %v", id, err)
		return fmt.Errorf("ошибка выполнения запроса на удаление профиля: %w", err)
	}
	log.Printf("[ProfileRepo] Профиль %s удален", id)
	return nil
}

// Кастомные ошибки репозитория профилей.
var (
	ErrProfileNotFound = errors.New("профиль не найден")
)
