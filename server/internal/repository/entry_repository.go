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
	"github.com/maynagashev/catalog/server/internal/query"
)

// EntryRepository определяет методы для работы с записями каталога.
type EntryRepository interface {
	ListEntries(ctx context.Context, predicate query.Predicate) ([]models.Entry, error)
	GetEntryByID(ctx context.Context, id string) (*models.Entry, error)
	CreateEntry(ctx context.Context, entry *models.Entry) error
	ReplaceEntry(ctx context.Context, entry *models.Entry) error
	DeleteEntry(ctx context.Context, id string) error
}

// entryRow - строка таблицы entries; теги хранятся массивом PostgreSQL.
type entryRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Type        string         `db:"type"`
	Tags        pq.StringArray `db:"tags"`
	Link        string         `db:"link"`
}

func (r entryRow) toModel() models.Entry {
	tags := []string(r.Tags)
	if tags == nil {
		tags = []string{}
	}
	return models.Entry{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Type:        r.Type,
		Tags:        tags,
		Link:        r.Link,
	}
}

const entryColumns = `id, title, description, type, tags, link`

// postgresEntryRepository реализует EntryRepository для PostgreSQL.
type postgresEntryRepository struct {
	db *sqlx.DB
}

// NewPostgresEntryRepository создает новый экземпляр репозитория записей.
func NewPostgresEntryRepository(db *sqlx.DB) EntryRepository {
	return &postgresEntryRepository{db: db}
}

// ListEntries выполняет выборку записей по предикату.
func (r *postgresEntryRepository) ListEntries(ctx context.Context, predicate query.Predicate) ([]models.Entry, error) {
	q := `SELECT ` + entryColumns + ` FROM entries`
	where, args := predicate.SQL(1)
	if where != "" {
		q += ` WHERE ` + where
	}
	q += ` ORDER BY title`

	var rows []entryRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		log.Printf("[EntryRepo] Ошибка выборки записей: %v", err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение записей: %w", err)
	}

	entries := make([]models.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toModel())
	}
	log.Printf("[EntryRepo] Получено %d записей", len(entries))
	return entries, nil
}

// GetEntryByID находит запись по ID.
func (r *postgresEntryRepository) GetEntryByID(ctx context.Context, id string) (*models.Entry, error) {
	q := `SELECT ` + entryColumns + ` FROM entries WHERE id=$1`
	var row entryRow

	err := r.db.GetContext(ctx, &row, q, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[EntryRepo] Запись %s не найдена", id)
			return nil, ErrEntryNotFound
		}
		log.Printf("[EntryRepo] Ошибка при поиске записи %s: %v", id, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение записи: %w", err)
	}

	entry := row.toModel()
	return &entry, nil
}

// CreateEntry вставляет новую запись. ID генерируется вызывающей стороной.
func (r *postgresEntryRepository) CreateEntry(ctx context.Context, entry *models.Entry) error {
	q := `INSERT INTO entries (` + entryColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, q,
		entry.ID, entry.Title, entry.Description, entry.Type, pq.Array(entry.Tags), entry.Link)
	if err != nil {
		log.Printf("[EntryRepo] Ошибка создания записи '%s': %v", entry.Title, err)
		return fmt.Errorf("ошибка выполнения запроса на создание записи: %w", err)
	}

	log.Printf("[EntryRepo] Запись '%s' создана с ID %s", entry.Title, entry.ID)
	return nil
}

// ReplaceEntry полностью заменяет строку записи по ID.
func (r *postgresEntryRepository) ReplaceEntry(ctx context.Context, entry *models.Entry) error {
	q := `UPDATE entries SET title=$2, description=$3, type=$4, tags=$5, link=$6 WHERE id=$1`

	err := execAffectingOne(ctx, r.db, ErrEntryNotFound, q,
		entry.ID, entry.Title, entry.Description, entry.Type, pq.Array(entry.Tags), entry.Link)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			log.Printf("[EntryRepo] Обновление: запись %s не найдена", entry.ID)
			return err
		}
		log.Printf("[EntryRepo] Ошибка обновления записи %s: %v", entry.ID, err)
		return fmt.Errorf("ошибка выполнения запроса на обновление записи: %w", err)
	}

	log.Printf("[EntryRepo] Запись %s обновлена", entry.ID)
	return nil
}

// DeleteEntry удаляет запись по ID.
func (r *postgresEntryRepository) DeleteEntry(ctx context.Context, id string) error {
	q := `DELETE FROM entries WHERE id=$1`

	err := execAffectingOne(ctx, r.db, ErrEntryNotFound, q, id)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			log.Printf("[EntryRepo] Удаление: запись %s не найдена", id)
			return err
		}
		log.Printf("[EntryRepo] Ошибка удаления записи %s: %v", id, err)
		return fmt.Errorf("ошибка выполнения запроса на удаление записи: %w", err)
	}

	log.Printf("[EntryRepo] Запись %s удалена", id)
	return nil
}

// Кастомные ошибки репозитория записей.
var (
	ErrEntryNotFound = errors.New("запись не найдена")
)
