package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/maynagashev/catalog/models"
	"github.com/maynagashev/catalog/server/internal/query"
	"github.com/maynagashev/catalog/server/internal/repository"
)

// EntryService определяет операции над записями каталога.
type EntryService interface {
	List(ctx context.Context, filter models.FilterState) ([]models.Entry, error)
	Get(ctx context.Context, id string) (*models.Entry, error)
	Create(ctx context.Context, req models.EntryRequest) (*models.Entry, error)
	Replace(ctx context.Context, id string, req models.EntryRequest) (*models.Entry, error)
	Delete(ctx context.Context, id string) error
}

// Убедимся, что entryService удовлетворяет интерфейсу EntryService.
var _ EntryService = (*entryService)(nil)

type entryService struct {
	entries repository.EntryRepository
}

// NewEntryService создает сервис записей каталога.
func NewEntryService(entries repository.EntryRepository) EntryService {
	return &entryService{entries: entries}
}

// List возвращает записи, удовлетворяющие фильтру.
func (s *entryService) List(ctx context.Context, filter models.FilterState) ([]models.Entry, error) {
	entries, err := s.entries.ListEntries(ctx, query.Build(filter))
	if err != nil {
		return nil, upstream("получение записей", err)
	}
	return entries, nil
}

func (s *entryService) Get(ctx context.Context, id string) (*models.Entry, error) {
	if err := validateEntryID(id); err != nil {
		return nil, err
	}
	entry, err := s.entries.GetEntryByID(ctx, id)
	if err != nil {
		return nil, mapEntryError("получение записи", err)
	}
	return entry, nil
}

// Create проверяет запрос и сохраняет новую запись со сгенерированным ID.
func (s *entryService) Create(ctx context.Context, req models.EntryRequest) (*models.Entry, error) {
	entry, err := entryFromRequest(req)
	if err != nil {
		return nil, err
	}
	entry.ID = uuid.NewString()

	if err = s.entries.CreateEntry(ctx, entry); err != nil {
		return nil, upstream("создание записи", err)
	}
	return entry, nil
}

// Replace полностью заменяет запись с указанным ID.
func (s *entryService) Replace(ctx context.Context, id string, req models.EntryRequest) (*models.Entry, error) {
	if err := validateEntryID(id); err != nil {
		return nil, err
	}
	entry, err := entryFromRequest(req)
	if err != nil {
		return nil, err
	}
	entry.ID = id

	if err = s.entries.ReplaceEntry(ctx, entry); err != nil {
		return nil, mapEntryError("обновление записи", err)
	}
	return entry, nil
}

func (s *entryService) Delete(ctx context.Context, id string) error {
	if err := validateEntryID(id); err != nil {
		return err
	}
	if err := s.entries.DeleteEntry(ctx, id); err != nil {
		return mapEntryError("удаление записи", err)
	}
	return nil
}

func validateEntryID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return invalid("ID записи должен быть UUID")
	}
	return nil
}

func mapEntryError(op string, err error) error {
	if errors.Is(err, repository.ErrEntryNotFound) {
		return ErrEntryNotFound
	}
	return upstream(op, err)
}

// entryFromRequest валидирует и нормализует поля записи.
func entryFromRequest(req models.EntryRequest) (*models.Entry, error) {
	entry := &models.Entry{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Type:        strings.TrimSpace(req.Type),
		Tags:        models.NormalizeTags(req.Tags),
		Link:        strings.TrimSpace(req.Link),
	}

	var missing []string
	if entry.Title == "" {
		missing = append(missing, "title")
	}
	if entry.Type == "" {
		missing = append(missing, "type")
	}
	if len(missing) > 0 {
		return nil, missingFields(missing...)
	}

	if entry.Link != "" {
		u, err := url.Parse(entry.Link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, invalid("ссылка должна быть абсолютным http(s) URL")
		}
	}
	return entry, nil
}

// ErrEntryNotFound - запись каталога не найдена.
var ErrEntryNotFound = errors.New("запись не найдена")
