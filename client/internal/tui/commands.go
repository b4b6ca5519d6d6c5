package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/maynagashev/catalog/client/internal/access"
	"github.com/maynagashev/catalog/client/internal/api"
	"github.com/maynagashev/catalog/client/internal/catalog"
	"github.com/maynagashev/catalog/client/internal/session"
	"github.com/maynagashev/catalog/models"
)

const statusMessageTimeout = 3 * time.Second

// --- Сообщения --- //

type loginSuccessMsg struct {
	token string
}

type loginErrorMsg struct {
	err error
}

// roleResolvedMsg несет сессию, для которой определялась роль:
// ответ для уже закрытой сессии игнорируется.
type roleResolvedMsg struct {
	sess  *session.Session
	state models.RoleState
	me    *models.MeResponse
}

type catalogLoadedMsg struct {
	result catalog.Result
}

type changeMsg struct {
	sess  *session.Session
	event models.ChangeEvent
}

type sessionExpiredMsg struct {
	sess *session.Session
}

type usersLoadedMsg struct {
	users []models.Profile
	err   error
}

// Привилегированные действия.
const (
	actionCreateUser      = "create-user"
	actionDeleteUser      = "delete-user"
	actionUpdatePasswords = "update-password"
	actionSaveEntry       = "save-entry"
	actionDeleteEntry     = "delete-entry"
)

type actionDoneMsg struct {
	action string
	resp   *models.MessageResponse
	err    error
}

// --- Команды --- //

// clearStatusCmd возвращает команду, которая отправит clearStatusMsg через delay.
func clearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// makeLoginCmd выполняет вход через API.
func makeLoginCmd(ctx context.Context, client api.Client, email, password string) tea.Cmd {
	return func() tea.Msg {
		token, err := client.Login(ctx, email, password)
		if err != nil {
			return loginErrorMsg{err: err}
		}
		return loginSuccessMsg{token: token}
	}
}

// resolveRoleCmd определяет роль. Ошибки не бывает: при сбое роль general.
func resolveRoleCmd(ctx context.Context, resolver *access.Resolver, sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		state, me := resolver.Resolve(ctx)
		return roleResolvedMsg{sess: sess, state: state, me: me}
	}
}

// fetchCatalogCmd выдает номер запроса синхронно, а загрузку выполняет в команде.
func fetchCatalogCmd(ctx context.Context, browser *catalog.Browser) tea.Cmd {
	req := browser.Begin()
	return func() tea.Msg {
		return catalogLoadedMsg{result: browser.Fetch(ctx, req)}
	}
}

func loadUsersCmd(ctx context.Context, client api.Client) tea.Cmd {
	return func() tea.Msg {
		users, err := client.ListUsers(ctx)
		return usersLoadedMsg{users: users, err: err}
	}
}

func createUserCmd(ctx context.Context, client api.Client, req models.CreateUserRequest) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.CreateUser(ctx, req)
		return actionDoneMsg{action: actionCreateUser, resp: resp, err: err}
	}
}

func deleteUserCmd(ctx context.Context, client api.Client, userID string) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.DeleteUser(ctx, userID)
		return actionDoneMsg{action: actionDeleteUser, resp: resp, err: err}
	}
}

func updatePasswordsCmd(ctx context.Context, client api.Client, newPassword string) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.UpdatePasswords(ctx, newPassword)
		return actionDoneMsg{action: actionUpdatePasswords, resp: resp, err: err}
	}
}

// saveEntryCmd создает запись, если id пуст, иначе заменяет ее целиком.
func saveEntryCmd(ctx context.Context, client api.Client, id string, req models.EntryRequest) tea.Cmd {
	return func() tea.Msg {
		var err error
		if id == "" {
			_, err = client.CreateEntry(ctx, req)
		} else {
			_, err = client.ReplaceEntry(ctx, id, req)
		}
		msg := "Запись сохранена"
		return actionDoneMsg{action: actionSaveEntry, resp: &models.MessageResponse{Message: msg}, err: err}
	}
}

func deleteEntryCmd(ctx context.Context, client api.Client, id string) tea.Cmd {
	return func() tea.Msg {
		err := client.DeleteEntry(ctx, id)
		return actionDoneMsg{
			action: actionDeleteEntry, resp: &models.MessageResponse{Message: "Запись удалена"}, err: err,
		}
	}
}
