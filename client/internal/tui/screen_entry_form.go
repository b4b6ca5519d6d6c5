package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/maynagashev/catalog/models"
)

// openEntryForm открывает форму. nil - создание новой записи.
func (m *model) openEntryForm(entry *models.Entry) tea.Cmd {
	m.entryInputs = initEntryInputs()
	m.entryFocusedField = entryFieldTitle
	m.editingEntryID = ""
	if entry != nil {
		m.editingEntryID = entry.ID
		m.entryInputs[entryFieldTitle].SetValue(entry.Title)
		m.entryInputs[entryFieldDescription].SetValue(entry.Description)
		m.entryInputs[entryFieldType].SetValue(entry.Type)
		m.entryInputs[entryFieldTags].SetValue(strings.Join(entry.Tags, ", "))
		m.entryInputs[entryFieldLink].SetValue(entry.Link)
	}
	m.state = entryFormScreen
	return m.entryInputs[entryFieldTitle].Focus()
}

// entryRequestFromForm собирает тело запроса из полей формы.
func (m *model) entryRequestFromForm() models.EntryRequest {
	return models.EntryRequest{
		Title:       strings.TrimSpace(m.entryInputs[entryFieldTitle].Value()),
		Description: strings.TrimSpace(m.entryInputs[entryFieldDescription].Value()),
		Type:        strings.TrimSpace(m.entryInputs[entryFieldType].Value()),
		Tags:        models.SplitTags(m.entryInputs[entryFieldTags].Value()),
		Link:        strings.TrimSpace(m.entryInputs[entryFieldLink].Value()),
	}
}

// updateEntryFormScreen обрабатывает форму записи.
func (m *model) updateEntryFormScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyEsc:
			if m.selectedEntry != nil {
				m.state = entryDetailScreen
			} else {
				m.state = catalogScreen
			}
			return m, nil
		case keyTab, "down":
			return m, m.focusEntryField((m.entryFocusedField + 1) % numEntryFields)
		case keyShiftTab, "up":
			return m, m.focusEntryField((m.entryFocusedField - 1 + numEntryFields) % numEntryFields)
		case keyEnter:
			if m.entryFocusedField < numEntryFields-1 {
				return m, m.focusEntryField(m.entryFocusedField + 1)
			}
			return m.submitEntryForm()
		}
	}

	var cmd tea.Cmd
	m.entryInputs[m.entryFocusedField], cmd = m.entryInputs[m.entryFocusedField].Update(msg)
	return m, cmd
}

func (m *model) focusEntryField(idx int) tea.Cmd {
	m.entryInputs[m.entryFocusedField].Blur()
	m.entryFocusedField = idx
	return m.entryInputs[idx].Focus()
}

func (m *model) submitEntryForm() (tea.Model, tea.Cmd) {
	if m.actionInProgress {
		return m, nil
	}
	req := m.entryRequestFromForm()
	var missing []string
	if req.Title == "" {
		missing = append(missing, "название")
	}
	if req.Type == "" {
		missing = append(missing, "тип")
	}
	if len(missing) > 0 {
		return m.setErrorMessage(errors.New("заполните поля: " + strings.Join(missing, ", ")))
	}

	m.actionInProgress = true
	_, statusCmd := m.setStatusMessage("Сохранение...")
	return m, tea.Batch(saveEntryCmd(m.ctx, m.apiClient, m.editingEntryID, req), statusCmd)
}

func (m *model) viewEntryFormScreen() string {
	var b strings.Builder
	if m.editingEntryID == "" {
		b.WriteString("Новая запись\n\n")
	} else {
		b.WriteString("Редактирование записи\n\n")
	}
	for _, in := range m.entryInputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	return b.String()
}
