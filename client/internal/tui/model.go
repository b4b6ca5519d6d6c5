package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/maynagashev/catalog/client/internal/access"
	"github.com/maynagashev/catalog/client/internal/api"
	"github.com/maynagashev/catalog/client/internal/catalog"
	"github.com/maynagashev/catalog/client/internal/notify"
	"github.com/maynagashev/catalog/client/internal/session"
	"github.com/maynagashev/catalog/models"
)

// Состояния (экраны) приложения.
type screenState int

const (
	loginScreen       screenState = iota // Экран входа
	catalogScreen                        // Экран списка записей
	entryDetailScreen                    // Экран деталей записи
	filterScreen                         // Экран выбора типов и тегов
	entryFormScreen                      // Экран создания/редактирования записи
	usersScreen                          // Экран управления пользователями
	userFormScreen                       // Экран создания пользователя
	passwordFormScreen                   // Экран массовой смены пароля
	confirmDeleteScreen                  // Экран подтверждения удаления
)

// Маршрут по умолчанию для перенаправления при отсутствии прав.
const defaultRoute = "catalog"

func (s screenState) String() string {
	switch s {
	case loginScreen:
		return "login"
	case catalogScreen:
		return defaultRoute
	case entryDetailScreen:
		return "entry-detail"
	case filterScreen:
		return "filter"
	case entryFormScreen:
		return "entry-form"
	case usersScreen:
		return "users"
	case userFormScreen:
		return "user-form"
	case passwordFormScreen:
		return "password-form"
	case confirmDeleteScreen:
		return "confirm-delete"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// requiredRole возвращает роль, нужную для показа экрана.
func (s screenState) requiredRole() models.Role {
	switch s {
	case entryFormScreen, usersScreen, userFormScreen, passwordFormScreen, confirmDeleteScreen:
		return models.RoleAdmin
	default:
		return models.RoleGeneral
	}
}

// Константы для TUI.
const (
	defaultListWidth    = 80 // Стандартная ширина терминала для списка
	defaultListHeight   = 20 // Стандартная высота терминала для списка
	inputWidthOffset    = 4  // Отступ для полей ввода
	helpStatusHeightOffset = 3 // Высота строки помощи и статуса
	inputCharLimit      = 256
	longInputCharLimit  = 2048
	passwordInputLength = 64

	keyEnter    = "enter"
	keyQuit     = "q"
	keyEsc      = "esc"
	keyTab      = "tab"
	keyShiftTab = "shift+tab"
	keySpace    = " "
)

// Поля формы записи.
const (
	entryFieldTitle = iota
	entryFieldDescription
	entryFieldType
	entryFieldTags
	entryFieldLink
	numEntryFields
)

// Поля формы пользователя.
const (
	userFieldUsername = iota
	userFieldEmail
	numUserFields
)

// entryItem представляет запись каталога в списке.
type entryItem struct {
	entry models.Entry
}

func (i entryItem) Title() string { return i.entry.Title }

func (i entryItem) Description() string {
	desc := i.entry.Type
	if len(i.entry.Tags) > 0 {
		desc += " | " + strings.Join(i.entry.Tags, ", ")
	}
	return desc
}

func (i entryItem) FilterValue() string { return i.entry.Title }

// userItem представляет профиль пользователя в списке.
type userItem struct {
	profile models.Profile
}

func (i userItem) Title() string { return i.profile.Username }

func (i userItem) Description() string {
	return fmt.Sprintf("%s | %s", i.profile.Email, i.profile.Role)
}

func (i userItem) FilterValue() string { return i.profile.Email }

// facetItem - тип или тег на экране фильтров.
type facetItem struct {
	kind     string // "type" или "tag"
	value    string
	selected bool
}

func (i facetItem) Title() string {
	mark := "[ ]"
	if i.selected {
		mark = "[x]"
	}
	return fmt.Sprintf("%s %s", mark, i.value)
}

func (i facetItem) Description() string {
	if i.kind == facetKindType {
		return "тип"
	}
	return "тег"
}

func (i facetItem) FilterValue() string { return i.value }

const (
	facetKindType = "type"
	facetKindTag  = "tag"
)

// deleteTarget описывает объект, ожидающий подтверждения удаления.
type deleteTarget struct {
	kind  string // "entry" или "user"
	id    string
	label string
	back  screenState
}

// sender отправляет сообщение в программу из фоновых горутин.
type sender func(tea.Msg)

// model представляет состояние TUI приложения.
type model struct {
	ctx         context.Context
	state       screenState
	serverURL   string
	apiClient   api.Client
	resolver    *access.Resolver
	browser     *catalog.Browser
	notifier    *notify.Notifier
	sess        *session.Session // nil до входа и после выхода
	idleTimeout time.Duration
	send        sender

	loginEmailInput    textinput.Model
	loginPasswordInput textinput.Model
	loginFocusedField  int
	loginInProgress    bool

	entryList     list.Model
	searchInput   textinput.Model
	searchFocused bool
	selectedEntry *models.Entry

	facetList list.Model

	entryInputs       []textinput.Model
	entryFocusedField int
	editingEntryID    string // пусто при создании

	userList          list.Model
	userInputs        []textinput.Model
	userFocusedField  int
	passwordInput     textinput.Model
	lastResults       []models.PasswordUpdateResult
	pendingDelete     *deleteTarget
	actionInProgress  bool
	statusMessage     string
	statusIsError     bool
	debugMode         bool
	docStyle          lipgloss.Style
	errorStyle        lipgloss.Style
	helpTextMap       map[screenState]string
}

// Сообщение для очистки статуса.
type clearStatusMsg struct{}
