package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/maynagashev/catalog/models"
)

// IdentityRepository - хранилище учетных записей провайдера идентификации.
type IdentityRepository interface {
	CreateIdentity(ctx context.Context, identity *models.Identity) error
	GetIdentityByID(ctx context.Context, id string) (*models.Identity, error)
	GetIdentityByEmail(ctx context.Context, email string) (*models.Identity, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	DeleteIdentity(ctx context.Context, id string) error
}

// postgresIdentityRepository реализует IdentityRepository для PostgreSQL.
type postgresIdentityRepository struct {
	db *sqlx.DB
}

// NewPostgresIdentityRepository создает новый экземпляр репозитория идентификаций.
func NewPostgresIdentityRepository(db *sqlx.DB) IdentityRepository {
	return &postgresIdentityRepository{db: db}
}

// CreateIdentity сохраняет новую учетную запись. ID генерируется вызывающей стороной.
func (r *postgresIdentityRepository) CreateIdentity(ctx context.Context, identity *models.Identity) error {
	query := `INSERT INTO auth_identities (id, email, password_hash, email_confirmed)
	          VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query,
		identity.ID, identity.Email, identity.PasswordHash, identity.EmailConfirmed)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			log.Printf("[IdentityRepo] Email '%s' уже зарегистрирован", identity.Email)
			return ErrEmailTaken
		}
		log.Printf("[IdentityRepo] Ошибка создания учетной записи '%s': %v", identity.Email, err)
		return fmt.Errorf("ошибка выполнения запроса на создание учетной записи: %w", err)
	}

	log.Printf("[IdentityRepo] Учетная запись '%s' создана с ID %s", identity.Email, identity.ID)
	return nil
}

// GetIdentityByID находит учетную запись по ID.
func (r *postgresIdentityRepository) GetIdentityByID(ctx context.Context, id string) (*models.Identity, error) {
	query := `SELECT id, email, password_hash, email_confirmed, created_at, updated_at
	          FROM auth_identities WHERE id=$1`
	return r.get(ctx, query, id)
}

// GetIdentityByEmail находит учетную запись по email (без учета регистра).
func (r *postgresIdentityRepository) GetIdentityByEmail(ctx context.Context, email string) (*models.Identity, error) {
	query := `SELECT id, email, password_hash, email_confirmed, created_at, updated_at
	          FROM auth_identities WHERE lower(email)=lower($1)`
	return r.get(ctx, query, email)
}

func (r *postgresIdentityRepository) get(ctx context.Context, query string, arg string) (*models.Identity, error) {
	var identity models.Identity
	err := r.db.GetContext(ctx, &identity, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[IdentityRepo] Учетная запись '%s' не найдена", arg)
			return nil, ErrIdentityNotFound
		}
		log.Printf("[IdentityRepo] Ошибка поиска учетной записи '%s': %v", arg, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение учетной записи: %w", err)
	}
	return &identity, nil
}

// UpdatePasswordHash заменяет хеш пароля учетной записи.
func (r *postgresIdentityRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE auth_identities SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	err := execAffectingOne(ctx, r.db, ErrIdentityNotFound, query, passwordHash, id)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			log.Printf("[IdentityRepo] Смена пароля: учетная запись %s не найдена", id)
			return err
		}
		log.Printf("[IdentityRepo] Ошибка смены пароля для %s: %v", id, err)
		return fmt.Errorf("ошибка выполнения запроса на смену пароля: %w", err)
	}
	log.Printf("[IdentityRepo] Пароль учетной записи %s обновлен", id)
	return nil
}

// DeleteIdentity удаляет учетную запись. Возвращает ErrIdentityNotFound, если ее нет.
func (r *postgresIdentityRepository) DeleteIdentity(ctx context.Context, id string) error {
	query := `DELETE FROM auth_identities WHERE id=$1`
	err := execAffectingOne(ctx, r.db, ErrIdentityNotFound, query, id)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			log.Printf("[IdentityRepo] Удаление: учетная запись %s не найдена", id)
			return err
		}
		log.Printf("[IdentityRepo] Ошибка удаления учетной записи %s: %v", id, err)
		return fmt.Errorf("ошибка выполнения запроса на удаление учетной записи: %w", err)
	}
	log.Printf("[IdentityRepo] Учетная запись %s удалена", id)
	return nil
}

// Кастомные ошибки репозитория идентификаций.
var (
	ErrIdentityNotFound = errors.New("учетная запись не найдена")
	ErrEmailTaken       = errors.New("учетная запись с таким email уже существует")
)
