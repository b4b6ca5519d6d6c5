// Package query строит предикат выборки записей каталога из состояния фильтра.
//
// Правила:
//   - непустой поисковый текст совпадает с подстрокой title, description или type
//     (без учета регистра) ИЛИ с тегом, равным тексту в нижнем регистре;
//   - выбранные типы: type входит в множество (ИЛИ);
//   - выбранные теги: теги записи содержат все выбранные (И);
//   - отсутствующие критерии не ограничивают выборку, пустой фильтр возвращает всё.
package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lib/pq"
	"github.com/maynagashev/catalog/models"
)

// Predicate - условие выборки записей. Нулевое значение не накладывает ограничений.
type Predicate struct {
	search    string   // поисковый текст после TrimSpace
	searchTag string   // поисковый текст для точного совпадения с тегом
	types     []string // допустимые типы
	tags      []string // обязательные теги
}

// Build превращает состояние фильтра в предикат. Функция чистая.
func Build(filter models.FilterState) Predicate {
	var p Predicate

	if s := strings.TrimSpace(filter.Search); s != "" {
		p.search = s
		p.searchTag = strings.ToLower(s)
	}

	for _, t := range filter.Types {
		if t = strings.TrimSpace(t); t != "" && !slices.Contains(p.types, t) {
			p.types = append(p.types, t)
		}
	}

	p.tags = models.NormalizeTags(filter.Tags)
	if len(p.tags) == 0 {
		p.tags = nil
	}

	return p
}

// IsEmpty сообщает, что предикат пропускает все записи.
func (p Predicate) IsEmpty() bool {
	return p.search == "" && len(p.types) == 0 && len(p.tags) == 0
}

// SQL возвращает условие WHERE для PostgreSQL (без ключевого слова WHERE)
// и аргументы. Нумерация плейсхолдеров начинается с startArg.
// Для пустого предиката возвращается пустая строка.
func (p Predicate) SQL(startArg int) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	n := startArg

	if p.search != "" {
		pattern := "%" + escapeLike(p.search) + "%"
		clauses = append(clauses, fmt.Sprintf(
			"(title ILIKE $%d OR description ILIKE $%d OR type ILIKE $%d OR $%d = ANY(tags))",
			n, n, n, n+1))
		args = append(args, pattern, p.searchTag)
		n += 2
	}

	if len(p.types) > 0 {
		clauses = append(clauses, fmt.Sprintf("type = ANY($%d)", n))
		args = append(args, pq.Array(p.types))
		n++
	}

	if len(p.tags) > 0 {
		clauses = append(clauses, fmt.Sprintf("tags @> $%d::text[]", n))
		args = append(args, pq.Array(p.tags))
	}

	return strings.Join(clauses, " AND "), args
}

// Match проверяет запись в памяти с той же семантикой, что и SQL.
func (p Predicate) Match(e models.Entry) bool {
	if p.search != "" && !p.matchSearch(e) {
		return false
	}
	if len(p.types) > 0 && !slices.Contains(p.types, e.Type) {
		return false
	}
	for _, t := range p.tags {
		if !slices.Contains(e.Tags, t) {
			return false
		}
	}
	return true
}

// Filter возвращает записи, удовлетворяющие предикату, сохраняя порядок.
func (p Predicate) Filter(entries []models.Entry) []models.Entry {
	out := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if p.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Поиск по подстроке и точное совпадение тега объединены через ИЛИ намеренно:
// термин, совпавший с тегом, находит запись даже без вхождения в текст.
func (p Predicate) matchSearch(e models.Entry) bool {
	needle := strings.ToLower(p.search)
	for _, field := range []string{e.Title, e.Description, e.Type} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return slices.Contains(e.Tags, p.searchTag)
}

// escapeLike экранирует метасимволы LIKE, чтобы текст искался буквально.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
