package models

import (
	"sort"
	"strings"
)

// Entry представляет запись каталога (возможность).
type Entry struct {
	ID          string   `db:"id" json:"id"`
	Title       string   `db:"title" json:"title"`
	Description string   `db:"description" json:"description"`
	Type        string   `db:"type" json:"type"`
	Tags        []string `db:"tags" json:"tags"`
	Link        string   `db:"link" json:"link,omitempty"`
}

// EntryRequest - тело запроса на создание или полную замену записи.
type EntryRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Tags        []string `json:"tags"`
	Link        string   `json:"link"`
}

// FilterState - критерии поиска клиентской сессии. Не сохраняется.
// Типы объединяются через ИЛИ, теги - через И.
type FilterState struct {
	Search string   `json:"search"`
	Types  []string `json:"types"`
	Tags   []string `json:"tags"`
}

// IsEmpty сообщает, что фильтр не накладывает ограничений.
func (f FilterState) IsEmpty() bool {
	return strings.TrimSpace(f.Search) == "" && len(f.Types) == 0 && len(f.Tags) == 0
}

// NormalizeTags приводит теги к нижнему регистру, обрезает пробелы,
// отбрасывает пустые и повторяющиеся значения.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SplitTags разбирает строку тегов, разделенных запятыми.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(s, ","))
}

// Facets - доступные значения типов и тегов в полной коллекции.
type Facets struct {
	Types []string
	Tags  []string
}

// CollectFacets собирает отсортированные уникальные типы и теги.
func CollectFacets(entries []Entry) Facets {
	types := make(map[string]struct{})
	tags := make(map[string]struct{})
	for _, e := range entries {
		if e.Type != "" {
			types[e.Type] = struct{}{}
		}
		for _, t := range e.Tags {
			tags[t] = struct{}{}
		}
	}
	return Facets{Types: sortedKeys(types), Tags: sortedKeys(tags)}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ChangeEvent - уведомление об изменении коллекции записей.
// Содержимое не используется для патчинга: любое событие означает полную перезагрузку.
type ChangeEvent struct {
	Op string `json:"op"`
	ID string `json:"id"`
}
