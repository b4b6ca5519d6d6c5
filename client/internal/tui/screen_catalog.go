package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/maynagashev/catalog/client/internal/access"
	"github.com/maynagashev/catalog/models"
)

// refreshEntryList переносит примененный результат браузера в список.
func (m *model) refreshEntryList() {
	entries := m.browser.Entries()
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = entryItem{entry: e}
	}
	m.entryList.SetItems(items)
}

// refreshFacetList строит список типов и тегов с отметками выбора.
func (m *model) refreshFacetList() {
	facets := m.browser.Facets()
	filter := m.browser.Filter()
	items := make([]list.Item, 0, len(facets.Types)+len(facets.Tags))
	for _, t := range facets.Types {
		items = append(items, facetItem{kind: facetKindType, value: t, selected: slices.Contains(filter.Types, t)})
	}
	for _, t := range facets.Tags {
		items = append(items, facetItem{kind: facetKindTag, value: t, selected: slices.Contains(filter.Tags, t)})
	}
	m.facetList.SetItems(items)
}

// requireAdmin проверяет роль перед переходом на экран администратора.
// Возвращает false и выставляет статус, если переход невозможен.
func (m *model) requireAdmin() bool {
	decision := access.Guard(m.sess.Role, models.RoleAdmin, defaultRoute)
	switch decision.Kind {
	case access.Render:
		return true
	case access.Loading:
		m.statusMessage = "Роль еще определяется, попробуйте позже"
	default:
		m.statusMessage = "Недостаточно прав: требуется роль администратора"
	}
	m.statusIsError = true
	return false
}

// updateCatalogScreen обрабатывает список записей и строку поиска.
//
//nolint:gocyclo // обработка горячих клавиш
func (m *model) updateCatalogScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, isKey := msg.(tea.KeyMsg)

	if m.searchFocused {
		if isKey {
			switch keyMsg.String() {
			case keyEsc, keyEnter:
				m.searchFocused = false
				m.searchInput.Blur()
				return m, nil
			}
		}
		before := m.searchInput.Value()
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		if m.searchInput.Value() == before {
			return m, cmd
		}
		// Каждое изменение строки поиска выдает новый запрос; ответы
		// на предыдущие будут отброшены.
		m.browser.SetSearch(m.searchInput.Value())
		return m, tea.Batch(cmd, fetchCatalogCmd(m.ctx, m.browser))
	}

	if isKey {
		switch keyMsg.String() {
		case keyQuit:
			return m, tea.Quit
		case "/":
			m.searchFocused = true
			return m, m.searchInput.Focus()
		case "f":
			m.refreshFacetList()
			m.state = filterScreen
			return m, nil
		case "x":
			m.browser.ClearFilters()
			m.searchInput.SetValue("")
			return m, fetchCatalogCmd(m.ctx, m.browser)
		case "r":
			return m, fetchCatalogCmd(m.ctx, m.browser)
		case "o":
			return m.endSession("Выход выполнен")
		case keyEnter:
			if item, ok := m.entryList.SelectedItem().(entryItem); ok {
				entry := item.entry
				m.selectedEntry = &entry
				m.state = entryDetailScreen
			}
			return m, nil
		case "a":
			if !m.requireAdmin() {
				return m, nil
			}
			return m, m.openEntryForm(nil)
		case "u":
			if !m.requireAdmin() {
				return m, nil
			}
			m.state = usersScreen
			m.lastResults = nil
			return m, loadUsersCmd(m.ctx, m.apiClient)
		}
	}

	var cmd tea.Cmd
	m.entryList, cmd = m.entryList.Update(msg)
	return m, cmd
}

func (m *model) viewCatalogScreen() string {
	filter := m.browser.Filter()
	var b strings.Builder
	b.WriteString(m.searchInput.View())
	b.WriteString("\n")
	if len(filter.Types) > 0 || len(filter.Tags) > 0 {
		b.WriteString(fmt.Sprintf("Типы: %s | Теги: %s\n",
			joinOrDash(filter.Types), joinOrDash(filter.Tags)))
	}
	b.WriteString(m.entryList.View())
	return b.String()
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}

// updateEntryDetailScreen обрабатывает экран деталей записи.
func (m *model) updateEntryDetailScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.selectedEntry == nil {
		return m, nil
	}
	switch keyMsg.String() {
	case keyEsc, keyQuit:
		m.selectedEntry = nil
		m.state = catalogScreen
	case "e":
		if m.requireAdmin() {
			return m, m.openEntryForm(m.selectedEntry)
		}
	case "d":
		if m.requireAdmin() {
			m.pendingDelete = &deleteTarget{
				kind: "entry", id: m.selectedEntry.ID, label: m.selectedEntry.Title, back: entryDetailScreen,
			}
			m.state = confirmDeleteScreen
		}
	}
	return m, nil
}

func (m *model) viewEntryDetailScreen() string {
	e := m.selectedEntry
	if e == nil {
		return "Запись не выбрана"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s\n\n", e.Title))
	b.WriteString(fmt.Sprintf("Тип: %s\n", e.Type))
	b.WriteString(fmt.Sprintf("Теги: %s\n", joinOrDash(e.Tags)))
	if e.Link != "" {
		b.WriteString(fmt.Sprintf("Ссылка: %s\n", e.Link))
	}
	if e.Description != "" {
		b.WriteString("\n")
		b.WriteString(e.Description)
		b.WriteString("\n")
	}
	return b.String()
}

// updateFilterScreen переключает выбор типов и тегов.
func (m *model) updateFilterScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyEsc, keyQuit:
			m.state = catalogScreen
			return m, nil
		case keySpace, keyEnter:
			item, isFacet := m.facetList.SelectedItem().(facetItem)
			if !isFacet {
				return m, nil
			}
			if item.kind == facetKindType {
				m.browser.ToggleType(item.value)
			} else {
				m.browser.ToggleTag(item.value)
			}
			m.refreshFacetList()
			return m, fetchCatalogCmd(m.ctx, m.browser)
		case "x":
			search := m.searchInput.Value()
			m.browser.ClearFilters()
			m.browser.SetSearch(search)
			m.refreshFacetList()
			return m, fetchCatalogCmd(m.ctx, m.browser)
		}
	}

	var cmd tea.Cmd
	m.facetList, cmd = m.facetList.Update(msg)
	return m, cmd
}
