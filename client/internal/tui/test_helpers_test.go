//nolint:testpackage // Это файл с вспомогательными функциями для тестов в том же пакете
package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/maynagashev/catalog/client/internal/api"
	"github.com/maynagashev/catalog/models"
	"github.com/stretchr/testify/mock"
)

// MockAPIClient - мок api.Client.
type MockAPIClient struct {
	mock.Mock
}

var _ api.Client = (*MockAPIClient)(nil)

func (m *MockAPIClient) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAPIClient) Me(ctx context.Context) (*models.MeResponse, error) {
	args := m.Called(ctx)
	me, _ := args.Get(0).(*models.MeResponse)
	return me, args.Error(1)
}

func (m *MockAPIClient) ListEntries(ctx context.Context, filter models.FilterState) ([]models.Entry, error) {
	args := m.Called(ctx, filter)
	entries, _ := args.Get(0).([]models.Entry)
	return entries, args.Error(1)
}

func (m *MockAPIClient) GetEntry(ctx context.Context, id string) (*models.Entry, error) {
	args := m.Called(ctx, id)
	entry, _ := args.Get(0).(*models.Entry)
	return entry, args.Error(1)
}

func (m *MockAPIClient) CreateEntry(ctx context.Context, req models.EntryRequest) (*models.Entry, error) {
	args := m.Called(ctx, req)
	entry, _ := args.Get(0).(*models.Entry)
	return entry, args.Error(1)
}

func (m *MockAPIClient) ReplaceEntry(ctx context.Context, id string, req models.EntryRequest) (*models.Entry, error) {
	args := m.Called(ctx, id, req)
	entry, _ := args.Get(0).(*models.Entry)
	return entry, args.Error(1)
}

func (m *MockAPIClient) DeleteEntry(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAPIClient) ListUsers(ctx context.Context) ([]models.Profile, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.Profile)
	return users, args.Error(1)
}

func (m *MockAPIClient) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.MessageResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.MessageResponse)
	return resp, args.Error(1)
}

func (m *MockAPIClient) DeleteUser(ctx context.Context, userID string) (*models.MessageResponse, error) {
	args := m.Called(ctx, userID)
	resp, _ := args.Get(0).(*models.MessageResponse)
	return resp, args.Error(1)
}

func (m *MockAPIClient) UpdatePasswords(ctx context.Context, newPassword string) (*models.MessageResponse, error) {
	args := m.Called(ctx, newPassword)
	resp, _ := args.Get(0).(*models.MessageResponse)
	return resp, args.Error(1)
}

func (m *MockAPIClient) SubscribeChanges(ctx context.Context) (<-chan models.ChangeEvent, error) {
	args := m.Called(ctx)
	ch, _ := args.Get(0).(<-chan models.ChangeEvent)
	return ch, args.Error(1)
}

func (m *MockAPIClient) SetAuthToken(token string) {
	m.Called(token)
}

// newTestModel создает модель с моком API. Поток изменений никогда
// не присылает событий.
func newTestModel(t *testing.T) (*model, *MockAPIClient) {
	t.Helper()
	client := new(MockAPIClient)
	var stream <-chan models.ChangeEvent = make(chan models.ChangeEvent)
	client.On("SubscribeChanges", mock.Anything).Return(stream, nil).Maybe()
	client.On("SetAuthToken", mock.Anything).Return().Maybe()

	m := initModel(context.Background(), "http://localhost:8080", client, time.Hour, false)
	t.Cleanup(func() {
		m.notifier.Stop()
		if m.sess != nil {
			m.sess.Close()
		}
	})
	return m, client
}

// loggedInModel возвращает модель после успешного входа с заданной ролью.
func loggedInModel(t *testing.T, role models.RoleState) (*model, *MockAPIClient) {
	t.Helper()
	m, client := newTestModel(t)
	m.Update(loginSuccessMsg{token: "token"})
	m.sess.Role = role
	return m, client
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}
