package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/maynagashev/catalog/models"
)

func (m *model) handleUsersLoaded(msg usersLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		slog.Error("Не удалось загрузить пользователей", "error", msg.err)
		m.userList.SetItems([]list.Item{})
		return m.setErrorMessage(msg.err)
	}
	items := make([]list.Item, len(msg.users))
	for i, u := range msg.users {
		items[i] = userItem{profile: u}
	}
	m.userList.SetItems(items)
	return m, nil
}

// updateUsersScreen обрабатывает список пользователей.
func (m *model) updateUsersScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyEsc, keyQuit:
			m.state = catalogScreen
			return m, nil
		case "r":
			return m, loadUsersCmd(m.ctx, m.apiClient)
		case "n":
			m.userInputs = initUserInputs()
			m.userFocusedField = userFieldUsername
			m.state = userFormScreen
			return m, m.userInputs[userFieldUsername].Focus()
		case "p":
			m.passwordInput = initTextInput("Новый пароль", passwordInputLength, true)
			m.state = passwordFormScreen
			return m, m.passwordInput.Focus()
		case "d":
			item, isUser := m.userList.SelectedItem().(userItem)
			if !isUser {
				return m, nil
			}
			m.pendingDelete = &deleteTarget{
				kind: "user", id: item.profile.ID, label: item.profile.Email, back: usersScreen,
			}
			m.state = confirmDeleteScreen
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.userList, cmd = m.userList.Update(msg)
	return m, cmd
}

func (m *model) viewUsersScreen() string {
	var b strings.Builder
	b.WriteString(m.userList.View())
	if len(m.lastResults) > 0 {
		b.WriteString("\n\nРезультаты смены пароля:\n")
		for _, r := range m.lastResults {
			line := fmt.Sprintf("  %s: %s", r.Email, r.Status)
			if r.Error != "" {
				line += " (" + r.Error + ")"
			}
			if r.Status == models.PasswordStatusFailed {
				line = m.errorStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// updateUserFormScreen обрабатывает форму создания пользователя.
// Роль в запросе всегда general; пароль берется сервером из настроек.
func (m *model) updateUserFormScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyEsc:
			m.state = usersScreen
			return m, nil
		case keyTab, keyShiftTab, "up", "down":
			return m, m.focusUserField((m.userFocusedField + 1) % numUserFields)
		case keyEnter:
			if m.userFocusedField < numUserFields-1 {
				return m, m.focusUserField(m.userFocusedField + 1)
			}
			return m.submitUserForm()
		}
	}

	var cmd tea.Cmd
	m.userInputs[m.userFocusedField], cmd = m.userInputs[m.userFocusedField].Update(msg)
	return m, cmd
}

func (m *model) focusUserField(idx int) tea.Cmd {
	m.userInputs[m.userFocusedField].Blur()
	m.userFocusedField = idx
	return m.userInputs[idx].Focus()
}

func (m *model) submitUserForm() (tea.Model, tea.Cmd) {
	if m.actionInProgress {
		return m, nil
	}
	req := models.CreateUserRequest{
		Username: strings.TrimSpace(m.userInputs[userFieldUsername].Value()),
		Email:    strings.TrimSpace(m.userInputs[userFieldEmail].Value()),
		Role:     string(models.RoleGeneral),
	}
	if req.Username == "" || req.Email == "" {
		return m.setErrorMessage(errors.New("заполните имя пользователя и email"))
	}
	m.actionInProgress = true
	_, statusCmd := m.setStatusMessage("Создание пользователя...")
	return m, tea.Batch(createUserCmd(m.ctx, m.apiClient, req), statusCmd)
}

func (m *model) viewUserFormScreen() string {
	var b strings.Builder
	b.WriteString("Новый пользователь (роль general, пароль по умолчанию)\n\n")
	for _, in := range m.userInputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	return b.String()
}

// updatePasswordFormScreen обрабатывает форму массовой смены пароля.
func (m *model) updatePasswordFormScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyEsc:
			m.state = usersScreen
			return m, nil
		case keyEnter:
			if m.actionInProgress {
				return m, nil
			}
			password := m.passwordInput.Value()
			if password == "" {
				return m.setErrorMessage(errors.New("введите новый пароль"))
			}
			m.actionInProgress = true
			m.lastResults = nil
			_, statusCmd := m.setStatusMessage("Обновление паролей...")
			return m, tea.Batch(updatePasswordsCmd(m.ctx, m.apiClient, password), statusCmd)
		}
	}

	var cmd tea.Cmd
	m.passwordInput, cmd = m.passwordInput.Update(msg)
	return m, cmd
}

func (m *model) viewPasswordFormScreen() string {
	return fmt.Sprintf(
		"Новый пароль для всех пользователей с ролью general\nи для вновь создаваемых учетных записей\n\n%s\n",
		m.passwordInput.View(),
	)
}

// updateConfirmDeleteScreen подтверждает удаление записи или пользователя.
func (m *model) updateConfirmDeleteScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.pendingDelete == nil {
		return m, nil
	}
	target := m.pendingDelete
	switch keyMsg.String() {
	case "y":
		if m.actionInProgress {
			return m, nil
		}
		m.actionInProgress = true
		m.pendingDelete = nil
		m.state = target.back
		_, statusCmd := m.setStatusMessage("Удаление...")
		if target.kind == "user" {
			return m, tea.Batch(deleteUserCmd(m.ctx, m.apiClient, target.id), statusCmd)
		}
		return m, tea.Batch(deleteEntryCmd(m.ctx, m.apiClient, target.id), statusCmd)
	case "n", keyEsc:
		m.pendingDelete = nil
		m.state = target.back
	}
	return m, nil
}

func (m *model) viewConfirmDeleteScreen() string {
	if m.pendingDelete == nil {
		return ""
	}
	what := "запись"
	if m.pendingDelete.kind == "user" {
		what = "пользователя"
	}
	return fmt.Sprintf("Удалить %s %q? Действие необратимо. (y/n)", what, m.pendingDelete.label)
}
