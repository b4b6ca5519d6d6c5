package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/maynagashev/catalog/client/internal/access"
	"github.com/maynagashev/catalog/client/internal/api"
	"github.com/maynagashev/catalog/client/internal/catalog"
	"github.com/maynagashev/catalog/client/internal/notify"
)

const (
	docStyleMarginVertical   = 1
	docStyleMarginHorizontal = 2
)

// initModel создает модель в состоянии "не выполнен вход".
func initModel(ctx context.Context, serverURL string, client api.Client, idleTimeout time.Duration, debug bool) *model {
	m := &model{
		ctx:         ctx,
		serverURL:   serverURL,
		apiClient:   client,
		resolver:    access.NewResolver(client),
		browser:     catalog.NewBrowser(client),
		notifier:    notify.NewNotifier(client),
		idleTimeout: idleTimeout,
		send:        func(tea.Msg) {},
		debugMode:   debug,
		docStyle:    lipgloss.NewStyle().Margin(docStyleMarginVertical, docStyleMarginHorizontal),
		errorStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		helpTextMap: map[screenState]string{
			loginScreen:         "(Tab: поле, Enter: войти, Ctrl+C: выход)",
			catalogScreen:       "(/: поиск, f: фильтры, x: сброс, Enter: открыть, r: обновить, a: добавить, u: пользователи, o: выйти, q: выход)",
			entryDetailScreen:   "(e: изменить, d: удалить, Esc: назад)",
			filterScreen:        "(Пробел: выбрать, x: сброс, Esc: назад)",
			entryFormScreen:     "(Tab: поле, Enter на последнем поле: сохранить, Esc: отмена)",
			usersScreen:         "(n: создать, d: удалить, p: сменить пароли, r: обновить, Esc: назад)",
			userFormScreen:      "(Tab: поле, Enter на последнем поле: создать, Esc: отмена)",
			passwordFormScreen:  "(Enter: применить ко всем general, Esc: отмена)",
			confirmDeleteScreen: "(y: удалить, n/Esc: отмена)",
		},
	}
	m.resetInputs()
	return m
}

// resetInputs приводит все поля ввода и списки к начальному состоянию.
func (m *model) resetInputs() {
	m.loginEmailInput = initTextInput("Email", inputCharLimit, false)
	m.loginPasswordInput = initTextInput("Пароль", passwordInputLength, true)
	m.loginEmailInput.Focus()
	m.loginFocusedField = 0

	m.searchInput = initTextInput("Поиск по названию, описанию, типу или тегу", inputCharLimit, false)
	m.searchFocused = false

	m.entryList = initList("Каталог")
	m.facetList = initList("Фильтры")
	m.userList = initList("Пользователи")
	m.userList.SetFilteringEnabled(false)
	m.facetList.SetFilteringEnabled(false)
	m.entryList.SetFilteringEnabled(false)

	m.entryInputs = initEntryInputs()
	m.entryFocusedField = 0
	m.editingEntryID = ""
	m.selectedEntry = nil

	m.userInputs = initUserInputs()
	m.userFocusedField = 0
	m.passwordInput = initTextInput("Новый пароль", passwordInputLength, true)

	m.lastResults = nil
	m.pendingDelete = nil
	m.actionInProgress = false
	m.loginInProgress = false
}

func initTextInput(placeholder string, limit int, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = defaultListWidth - inputWidthOffset
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

// initList инициализирует компонент списка.
func initList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("212")).
		BorderLeftForeground(lipgloss.Color("212"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("240")).
		BorderLeftForeground(lipgloss.Color("212"))

	l := list.New([]list.Item{}, delegate, defaultListWidth, defaultListHeight)
	l.Title = title
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.Styles.Title = list.DefaultStyles().Title.Bold(true)
	return l
}

func initEntryInputs() []textinput.Model {
	inputs := make([]textinput.Model, numEntryFields)
	inputs[entryFieldTitle] = initTextInput("Название", inputCharLimit, false)
	inputs[entryFieldDescription] = initTextInput("Описание", longInputCharLimit, false)
	inputs[entryFieldType] = initTextInput("Тип", inputCharLimit, false)
	inputs[entryFieldTags] = initTextInput("Теги через запятую", inputCharLimit, false)
	inputs[entryFieldLink] = initTextInput("Ссылка (https://...)", longInputCharLimit, false)
	inputs[entryFieldTitle].Focus()
	return inputs
}

func initUserInputs() []textinput.Model {
	inputs := make([]textinput.Model, numUserFields)
	inputs[userFieldUsername] = initTextInput("Имя пользователя", inputCharLimit, false)
	inputs[userFieldEmail] = initTextInput("Email", inputCharLimit, false)
	inputs[userFieldUsername].Focus()
	return inputs
}
