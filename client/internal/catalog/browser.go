// Package catalog хранит клиентское состояние просмотра каталога: фильтр,
// последний примененный результат и фасеты типов и тегов.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/maynagashev/catalog/models"
	"golang.org/x/sync/errgroup"
)

// EntryLister выполняет запрос списка записей.
type EntryLister interface {
	ListEntries(ctx context.Context, filter models.FilterState) ([]models.Entry, error)
}

// Request - запрос на загрузку с порядковым номером.
type Request struct {
	Seq    uint64
	Filter models.FilterState
}

// Result - ответ на Request.
type Result struct {
	Seq     uint64
	Entries []models.Entry
	Facets  models.Facets
	Err     error
}

// Browser отслеживает фильтр и применяет только ответ на последний запрос.
type Browser struct {
	api EntryLister

	mu      sync.Mutex
	filter  models.FilterState
	seq     uint64
	entries []models.Entry
	facets  models.Facets
}

// NewBrowser создает новый Browser с пустым фильтром.
func NewBrowser(api EntryLister) *Browser {
	return &Browser{api: api, entries: []models.Entry{}}
}

// Filter возвращает копию текущего фильтра.
func (b *Browser) Filter() models.FilterState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copyFilter(b.filter)
}

// SetSearch задает строку поиска.
func (b *Browser) SetSearch(search string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter.Search = search
}

// ToggleType добавляет тип в выбранные или убирает его.
func (b *Browser) ToggleType(t string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter.Types = toggle(b.filter.Types, t)
}

// ToggleTag добавляет тег в выбранные или убирает его.
func (b *Browser) ToggleTag(tag string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter.Tags = toggle(b.filter.Tags, tag)
}

// ClearFilters сбрасывает поиск и выбранные типы и теги.
func (b *Browser) ClearFilters() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = models.FilterState{}
}

// Reset очищает все состояние (при выходе из сессии).
// Ответы на запросы, выданные до Reset, будут отброшены.
func (b *Browser) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = models.FilterState{}
	b.entries = []models.Entry{}
	b.facets = models.Facets{}
	b.seq++
}

// Begin выдает новый запрос для текущего фильтра. Все ранее выданные
// запросы с этого момента устаревшие.
func (b *Browser) Begin() Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	return Request{Seq: b.seq, Filter: copyFilter(b.filter)}
}

// Fetch выполняет запрос с фильтром и запрос полной коллекции для фасетов.
// Не меняет состояние Browser.
func (b *Browser) Fetch(ctx context.Context, req Request) Result {
	res := Result{Seq: req.Seq}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		entries, err := b.api.ListEntries(gctx, req.Filter)
		if err != nil {
			return fmt.Errorf("ошибка загрузки записей: %w", err)
		}
		res.Entries = entries
		return nil
	})

	var all []models.Entry
	if !req.Filter.IsEmpty() {
		g.Go(func() error {
			entries, err := b.api.ListEntries(gctx, models.FilterState{})
			if err != nil {
				return fmt.Errorf("ошибка загрузки полной коллекции: %w", err)
			}
			all = entries
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		res.Err = err
		res.Entries = nil
		return res
	}
	if req.Filter.IsEmpty() {
		all = res.Entries
	}
	res.Facets = models.CollectFacets(all)
	return res
}

// Apply применяет результат, если он отвечает на последний выданный запрос.
// Ошибка загрузки оставляет пустой список. Возвращает false для устаревшего ответа.
func (b *Browser) Apply(res Result) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if res.Seq != b.seq {
		slog.Debug("Отброшен устаревший ответ", "seq", res.Seq, "current", b.seq)
		return false
	}
	if res.Err != nil {
		slog.Error("Не удалось загрузить каталог", "error", res.Err)
		b.entries = []models.Entry{}
		return true
	}
	b.entries = res.Entries
	if b.entries == nil {
		b.entries = []models.Entry{}
	}
	b.facets = res.Facets
	return true
}

// Refresh выполняет полную перезагрузку синхронно.
func (b *Browser) Refresh(ctx context.Context) bool {
	return b.Apply(b.Fetch(ctx, b.Begin()))
}

// Entries возвращает последний примененный список.
func (b *Browser) Entries() []models.Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.entries)
}

// Facets возвращает доступные типы и теги полной коллекции.
func (b *Browser) Facets() models.Facets {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.facets
}

func toggle(set []string, v string) []string {
	if i := slices.Index(set, v); i >= 0 {
		return slices.Delete(slices.Clone(set), i, i+1)
	}
	return append(slices.Clone(set), v)
}

func copyFilter(f models.FilterState) models.FilterState {
	return models.FilterState{
		Search: f.Search,
		Types:  slices.Clone(f.Types),
		Tags:   slices.Clone(f.Tags),
	}
}
