package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gofrs/flock"
	"github.com/maynagashev/catalog/client/internal/access"
	"github.com/maynagashev/catalog/client/internal/api"
	"github.com/maynagashev/catalog/client/internal/session"
	"github.com/maynagashev/catalog/models"
)

// ErrAlreadyRunning - другой экземпляр клиента уже держит файл блокировки.
var ErrAlreadyRunning = errors.New("клиент уже запущен")

// Init - команда, выполняемая при запуске приложения.
func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

// setStatusMessage устанавливает статусное сообщение и запускает таймер для его очистки.
func (m *model) setStatusMessage(status string) (tea.Model, tea.Cmd) {
	m.statusMessage = status
	m.statusIsError = false
	return m, clearStatusCmd(statusMessageTimeout)
}

// setErrorMessage показывает ошибку без изменений до следующего статуса.
func (m *model) setErrorMessage(err error) (tea.Model, tea.Cmd) {
	m.statusMessage = err.Error()
	m.statusIsError = true
	return m, nil
}

// beginSession создает сессию после успешного входа и запускает
// сторожа бездействия, подписку на изменения, определение роли и загрузку каталога.
func (m *model) beginSession(token string) tea.Cmd {
	var sess *session.Session
	guard := session.NewGuard(m.idleTimeout, func() {
		m.send(sessionExpiredMsg{sess: sess})
	})
	sess = session.New(token, guard)
	m.sess = sess
	m.apiClient.SetAuthToken(token)

	m.loginInProgress = false
	m.loginPasswordInput.SetValue("")
	m.state = catalogScreen
	m.sess.StartIdleTimer()

	m.notifier.Start(m.ctx, func(ev models.ChangeEvent) {
		m.send(changeMsg{sess: sess, event: ev})
	})
	slog.Info("Сессия открыта")

	return tea.Batch(
		resolveRoleCmd(m.ctx, m.resolver, sess),
		fetchCatalogCmd(m.ctx, m.browser),
	)
}

// endSession уничтожает сессию и возвращает клиент в исходное состояние.
func (m *model) endSession(reason string) (tea.Model, tea.Cmd) {
	m.notifier.Stop()
	if m.sess != nil {
		m.sess.Close()
		m.sess = nil
	}
	m.apiClient.SetAuthToken("")
	m.browser.Reset()
	m.resetInputs()
	m.state = loginScreen
	slog.Info("Сессия закрыта", "reason", reason)
	return m.setStatusMessage(reason)
}

// enforceAccess перенаправляет с экрана, для которого роль недостаточна.
// Пока роль не определена, экран не показывается, но и перенаправления нет.
func (m *model) enforceAccess() {
	if m.state == loginScreen {
		return
	}
	if m.sess == nil {
		m.state = loginScreen
		return
	}
	decision := access.Guard(m.sess.Role, m.state.requiredRole(), defaultRoute)
	if decision.Kind == access.Redirect {
		slog.Warn("Недостаточно прав для экрана", "screen", m.state.String(), "redirect", decision.Route)
		m.state = routeScreen(decision.Route)
		m.statusMessage = "Недостаточно прав: требуется роль администратора"
		m.statusIsError = true
	}
}

func routeScreen(route string) screenState {
	if route == loginScreen.String() {
		return loginScreen
	}
	return catalogScreen
}

// getMainContentView возвращает основное содержимое для текущего состояния.
func (m *model) getMainContentView() string {
	if m.state != loginScreen && m.sess != nil {
		if access.Guard(m.sess.Role, m.state.requiredRole(), defaultRoute).Kind == access.Loading {
			return "Проверка прав доступа..."
		}
	}

	switch m.state {
	case loginScreen:
		return m.viewLoginScreen()
	case catalogScreen:
		return m.viewCatalogScreen()
	case entryDetailScreen:
		return m.viewEntryDetailScreen()
	case filterScreen:
		return m.facetList.View()
	case entryFormScreen:
		return m.viewEntryFormScreen()
	case usersScreen:
		return m.viewUsersScreen()
	case userFormScreen:
		return m.viewUserFormScreen()
	case passwordFormScreen:
		return m.viewPasswordFormScreen()
	case confirmDeleteScreen:
		return m.viewConfirmDeleteScreen()
	default:
		return "Неизвестное состояние!"
	}
}

// Helper function to generate the debug info string.
func (m *model) getDebugInfoString() string {
	var debugInfo strings.Builder
	debugInfo.WriteString(fmt.Sprintf(" [State: %s]\n", m.state.String()))
	debugInfo.WriteString(fmt.Sprintf(" [URL: %s]\n", m.serverURL))
	if m.sess != nil {
		debugInfo.WriteString(fmt.Sprintf(" [User: %s]\n", m.sess.Email))
		debugInfo.WriteString(fmt.Sprintf(" [Role: %s]\n", m.sess.Role.String()))
		debugInfo.WriteString(fmt.Sprintf(" [Last activity: %s]\n", m.sess.LastActivity().Format(time.TimeOnly)))
	}
	debugInfo.WriteString(fmt.Sprintf(" [Notifier: %t]\n", m.notifier.Active()))
	return debugInfo.String()
}

// View отрисовывает пользовательский интерфейс.
func (m *model) View() string {
	mainContent := m.getMainContentView()
	help := m.helpTextMap[m.state]

	var footer strings.Builder
	if m.statusMessage != "" {
		footer.WriteString("\n")
		if m.statusIsError {
			footer.WriteString(m.errorStyle.Render(m.statusMessage))
		} else {
			footer.WriteString(m.statusMessage)
		}
	}
	if m.debugMode {
		footer.WriteString("\n\n---\nОтладка:\n")
		footer.WriteString(m.getDebugInfoString())
	}

	return fmt.Sprintf("%s\n%s%s", m.docStyle.Render(mainContent), help, footer.String())
}

// Start запускает TUI приложение. Второй экземпляр с тем же файлом
// блокировки не запускается.
func Start(serverURL, lockPath string, idleTimeout time.Duration, debugMode bool) error {
	fileLock := flock.New(lockPath)
	locked, err := fileLock.TryLock()
	if err != nil {
		return fmt.Errorf("ошибка блокировки файла %s: %w", lockPath, err)
	}
	if !locked {
		return fmt.Errorf("%w: файл блокировки %s занят", ErrAlreadyRunning, lockPath)
	}
	slog.Info("Эксклюзивная блокировка файла получена.", "lockPath", lockPath)
	defer func() {
		if errUnlock := fileLock.Unlock(); errUnlock != nil {
			slog.Error("Ошибка при снятии блокировки файла", "lockPath", lockPath, "error", errUnlock)
		} else {
			slog.Info("Блокировка файла снята.", "lockPath", lockPath)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	apiClient := api.NewHTTPClient(serverURL)
	slog.Info("API клиент инициализирован", "baseURL", serverURL)

	m := initModel(ctx, serverURL, apiClient, idleTimeout, debugMode)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	m.send = p.Send
	defer m.notifier.Stop()
	defer func() {
		if m.sess != nil {
			m.sess.Close()
		}
	}()

	if _, err = p.Run(); err != nil {
		return fmt.Errorf("ошибка при запуске TUI: %w", err)
	}
	return nil
}
