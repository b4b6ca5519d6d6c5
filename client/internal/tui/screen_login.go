package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// updateLoginScreen обрабатывает ввод данных для входа.
func (m *model) updateLoginScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, isKey := msg.(tea.KeyMsg)
	if isKey {
		switch keyMsg.String() {
		case keyTab, keyShiftTab, "up", "down":
			m.loginFocusedField = (m.loginFocusedField + 1) % 2
			return m, m.focusLoginField()
		case keyEnter:
			if m.loginFocusedField == 0 {
				m.loginFocusedField = 1
				return m, m.focusLoginField()
			}
			return m.submitLogin()
		}
	}

	var cmd tea.Cmd
	if m.loginFocusedField == 0 {
		m.loginEmailInput, cmd = m.loginEmailInput.Update(msg)
	} else {
		m.loginPasswordInput, cmd = m.loginPasswordInput.Update(msg)
	}
	return m, cmd
}

func (m *model) focusLoginField() tea.Cmd {
	if m.loginFocusedField == 0 {
		m.loginPasswordInput.Blur()
		return m.loginEmailInput.Focus()
	}
	m.loginEmailInput.Blur()
	return m.loginPasswordInput.Focus()
}

func (m *model) submitLogin() (tea.Model, tea.Cmd) {
	if m.loginInProgress {
		return m, nil
	}
	email := strings.TrimSpace(m.loginEmailInput.Value())
	password := m.loginPasswordInput.Value()
	if email == "" || password == "" {
		return m.setErrorMessage(errors.New("введите email и пароль"))
	}

	m.loginInProgress = true
	cmd := makeLoginCmd(m.ctx, m.apiClient, email, password)
	_, statusCmd := m.setStatusMessage("Выполняется вход...")
	return m, tea.Batch(cmd, statusCmd)
}

// viewLoginScreen отображает экран ввода данных для входа.
func (m *model) viewLoginScreen() string {
	return fmt.Sprintf(
		"Вход в каталог (%s)\n\n%s\n%s\n",
		m.serverURL,
		m.loginEmailInput.View(),
		m.loginPasswordInput.View(),
	)
}
