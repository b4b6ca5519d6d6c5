package tui

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/maynagashev/catalog/client/internal/session"
)

// Update обрабатывает входящие сообщения.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.route(msg)
	m.enforceAccess()
	return updated, cmd
}

//nolint:gocyclo // диспетчер сообщений
func (m *model) route(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	// == Глобальные сообщения (не зависят от экрана) ==
	case tea.WindowSizeMsg:
		h, v := m.docStyle.GetFrameSize()
		listWidth := msg.Width - h
		listHeight := msg.Height - v - helpStatusHeightOffset
		for _, l := range []*list.Model{&m.entryList, &m.facetList, &m.userList} {
			l.SetSize(listWidth, listHeight)
		}
		return m, nil

	case clearStatusMsg:
		if !m.statusIsError {
			m.statusMessage = ""
		}
		return m, nil

	case sessionExpiredMsg:
		if msg.sess == nil || msg.sess != m.sess {
			return m, nil
		}
		return m.endSession("Сессия завершена из-за бездействия. Войдите снова.")

	case loginSuccessMsg:
		return m, m.beginSession(msg.token)

	case loginErrorMsg:
		m.loginInProgress = false
		slog.Warn("Ошибка входа", "error", msg.err)
		return m.setErrorMessage(msg.err)

	case roleResolvedMsg:
		if msg.sess != m.sess || m.sess == nil {
			return m, nil
		}
		m.sess.Role = msg.state
		m.sess.Identify(msg.me)
		slog.Info("Роль определена", "role", msg.state.String())
		return m, nil

	case catalogLoadedMsg:
		if m.sess == nil {
			return m, nil
		}
		if m.browser.Apply(msg.result) {
			m.refreshEntryList()
			m.refreshFacetList()
			if msg.result.Err != nil {
				return m.setErrorMessage(fmt.Errorf("не удалось загрузить каталог: %w", msg.result.Err))
			}
		}
		return m, nil

	case changeMsg:
		if msg.sess != m.sess || m.sess == nil {
			return m, nil
		}
		slog.Debug("Изменение каталога", "op", msg.event.Op, "id", msg.event.ID)
		return m, fetchCatalogCmd(m.ctx, m.browser)

	case usersLoadedMsg:
		return m.handleUsersLoaded(msg)

	case actionDoneMsg:
		return m.handleActionDone(msg)

	case tea.MouseMsg:
		m.touch(mouseActivity(msg))

	case tea.KeyMsg:
		m.touch(session.ActivityKeyPress)
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	switch m.state {
	case loginScreen:
		return m.updateLoginScreen(msg)
	case catalogScreen:
		return m.updateCatalogScreen(msg)
	case entryDetailScreen:
		return m.updateEntryDetailScreen(msg)
	case filterScreen:
		return m.updateFilterScreen(msg)
	case entryFormScreen:
		return m.updateEntryFormScreen(msg)
	case usersScreen:
		return m.updateUsersScreen(msg)
	case userFormScreen:
		return m.updateUserFormScreen(msg)
	case passwordFormScreen:
		return m.updatePasswordFormScreen(msg)
	case confirmDeleteScreen:
		return m.updateConfirmDeleteScreen(msg)
	}
	return m, nil
}

// touch передает активность сторожу сессии, если она открыта.
func (m *model) touch(a session.Activity) {
	if m.sess != nil {
		m.sess.Touch(a)
	}
}

func mouseActivity(msg tea.MouseMsg) session.Activity {
	switch {
	case tea.MouseEvent(msg).IsWheel():
		return session.ActivityScroll
	case msg.Action == tea.MouseActionPress:
		return session.ActivityPointerDown
	default:
		return session.ActivityPointerMove
	}
}

// handleActionDone показывает результат действия. Ошибка сервера
// выводится дословно.
func (m *model) handleActionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	m.actionInProgress = false
	if msg.err != nil {
		slog.Error("Ошибка действия", "action", msg.action, "error", msg.err)
		return m.setErrorMessage(msg.err)
	}
	slog.Info("Действие выполнено", "action", msg.action)

	var cmds []tea.Cmd
	switch msg.action {
	case actionCreateUser, actionDeleteUser:
		m.state = usersScreen
		cmds = append(cmds, loadUsersCmd(m.ctx, m.apiClient))
	case actionUpdatePasswords:
		m.state = usersScreen
		m.lastResults = msg.resp.Results
	case actionSaveEntry, actionDeleteEntry:
		m.state = catalogScreen
		m.selectedEntry = nil
		cmds = append(cmds, fetchCatalogCmd(m.ctx, m.browser))
	}

	_, statusCmd := m.setStatusMessage(msg.resp.Message)
	cmds = append(cmds, statusCmd)
	return m, tea.Batch(cmds...)
}
