package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/maynagashev/catalog/models"
)

const (
	defaultRequestTimeout = 30 * time.Second
	changeEventName       = "change"
)

// ErrAuthorization сигнализирует об ошибке авторизации (401).
var ErrAuthorization = errors.New("ошибка авторизации")

// ServerError - ошибка, возвращенная сервером в теле {"error": "..."}.
// Сообщение показывается пользователю без изменений.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ошибка сервера: статус %d", e.StatusCode)
	}
	return e.Message
}

// Client определяет интерфейс для взаимодействия с API сервера каталога.
type Client interface {
	// Login аутентифицирует пользователя и возвращает JWT токен.
	Login(ctx context.Context, email, password string) (string, error)
	// Me возвращает идентичность и роль текущей сессии.
	Me(ctx context.Context) (*models.MeResponse, error)
	// ListEntries возвращает записи, удовлетворяющие фильтру.
	ListEntries(ctx context.Context, filter models.FilterState) ([]models.Entry, error)
	// GetEntry возвращает запись по идентификатору.
	GetEntry(ctx context.Context, id string) (*models.Entry, error)
	// CreateEntry создает запись (только администратор).
	CreateEntry(ctx context.Context, req models.EntryRequest) (*models.Entry, error)
	// ReplaceEntry полностью заменяет запись (только администратор).
	ReplaceEntry(ctx context.Context, id string, req models.EntryRequest) (*models.Entry, error)
	// DeleteEntry удаляет запись (только администратор).
	DeleteEntry(ctx context.Context, id string) error
	// ListUsers возвращает профили пользователей (только администратор).
	ListUsers(ctx context.Context) ([]models.Profile, error)
	// CreateUser вызывает привилегированную функцию create-user.
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.MessageResponse, error)
	// DeleteUser вызывает привилегированную функцию delete-user.
	DeleteUser(ctx context.Context, userID string) (*models.MessageResponse, error)
	// UpdatePasswords вызывает привилегированную функцию update-password.
	UpdatePasswords(ctx context.Context, newPassword string) (*models.MessageResponse, error)
	// SubscribeChanges открывает поток уведомлений об изменениях записей.
	// Канал закрывается при отмене ctx или обрыве соединения.
	SubscribeChanges(ctx context.Context) (<-chan models.ChangeEvent, error)
	// SetAuthToken устанавливает JWT токен для аутентифицированных запросов.
	SetAuthToken(token string)
}

// httpClient реализует интерфейс Client для взаимодействия с сервером по HTTP.
type httpClient struct {
	baseURL    string       // Базовый URL сервера, например "http://localhost:8080"
	httpClient *http.Client // HTTP клиент для обычных запросов
	streamer   *http.Client // HTTP клиент без таймаута для потока изменений

	mu        sync.RWMutex
	authToken string // JWT токен для аутентифицированных запросов
}

// NewHTTPClient создает новый экземпляр API клиента.
func NewHTTPClient(baseURL string) Client {
	return &httpClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		streamer:   &http.Client{},
	}
}

// SetAuthToken устанавливает токен. Пустая строка сбрасывает его.
func (c *httpClient) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

func (c *httpClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authToken
}

// Login отправляет запрос на вход и сохраняет токен.
func (c *httpClient) Login(ctx context.Context, email, password string) (string, error) {
	var resp models.LoginResponse
	body := models.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &resp, false); err != nil {
		return "", fmt.Errorf("ошибка входа: %w", err)
	}
	if resp.Token == "" {
		return "", errors.New("сервер вернул пустой токен")
	}
	c.SetAuthToken(resp.Token)
	return resp.Token, nil
}

func (c *httpClient) Me(ctx context.Context) (*models.MeResponse, error) {
	var me models.MeResponse
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, nil, &me, true); err != nil {
		return nil, fmt.Errorf("ошибка получения текущего пользователя: %w", err)
	}
	return &me, nil
}

// ListEntries передает фильтр параметрами search, type и tag.
func (c *httpClient) ListEntries(ctx context.Context, filter models.FilterState) ([]models.Entry, error) {
	query := url.Values{}
	if s := strings.TrimSpace(filter.Search); s != "" {
		query.Set("search", s)
	}
	for _, t := range filter.Types {
		query.Add("type", t)
	}
	for _, t := range filter.Tags {
		query.Add("tag", t)
	}

	entries := []models.Entry{}
	if err := c.do(ctx, http.MethodGet, "/api/entries", query, nil, &entries, true); err != nil {
		return nil, fmt.Errorf("ошибка получения списка записей: %w", err)
	}
	return entries, nil
}

func (c *httpClient) GetEntry(ctx context.Context, id string) (*models.Entry, error) {
	var entry models.Entry
	if err := c.do(ctx, http.MethodGet, "/api/entries/"+url.PathEscape(id), nil, nil, &entry, true); err != nil {
		return nil, fmt.Errorf("ошибка получения записи: %w", err)
	}
	return &entry, nil
}

func (c *httpClient) CreateEntry(ctx context.Context, req models.EntryRequest) (*models.Entry, error) {
	var entry models.Entry
	if err := c.do(ctx, http.MethodPost, "/api/entries", nil, req, &entry, true); err != nil {
		return nil, fmt.Errorf("ошибка создания записи: %w", err)
	}
	return &entry, nil
}

func (c *httpClient) ReplaceEntry(ctx context.Context, id string, req models.EntryRequest) (*models.Entry, error) {
	var entry models.Entry
	if err := c.do(ctx, http.MethodPut, "/api/entries/"+url.PathEscape(id), nil, req, &entry, true); err != nil {
		return nil, fmt.Errorf("ошибка обновления записи: %w", err)
	}
	return &entry, nil
}

func (c *httpClient) DeleteEntry(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/entries/"+url.PathEscape(id), nil, nil, nil, true); err != nil {
		return fmt.Errorf("ошибка удаления записи: %w", err)
	}
	return nil
}

func (c *httpClient) ListUsers(ctx context.Context) ([]models.Profile, error) {
	users := []models.Profile{}
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, nil, &users, true); err != nil {
		return nil, fmt.Errorf("ошибка получения списка пользователей: %w", err)
	}
	return users, nil
}

// CreateUser не оборачивает ошибку сервера, чтобы сообщение показывалось как есть.
func (c *httpClient) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.MessageResponse, error) {
	return c.callFunction(ctx, "create-user", req)
}

func (c *httpClient) DeleteUser(ctx context.Context, userID string) (*models.MessageResponse, error) {
	return c.callFunction(ctx, "delete-user", models.DeleteUserRequest{UserID: userID})
}

func (c *httpClient) UpdatePasswords(ctx context.Context, newPassword string) (*models.MessageResponse, error) {
	return c.callFunction(ctx, "update-password", models.UpdatePasswordRequest{NewPassword: newPassword})
}

func (c *httpClient) callFunction(ctx context.Context, name string, body any) (*models.MessageResponse, error) {
	var resp models.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/functions/"+name, nil, body, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubscribeChanges читает поток text/event-stream и отдает события "change".
func (c *httpClient) SubscribeChanges(ctx context.Context) (<-chan models.ChangeEvent, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/changes", nil, nil, true)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к потоку изменений: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, fmt.Errorf("ошибка подключения к потоку изменений: %w", responseError(resp))
	}

	events := make(chan models.ChangeEvent)
	go func() {
		defer close(events)
		defer resp.Body.Close()
		readEvents(ctx, resp.Body, events)
	}()
	return events, nil
}

// readEvents разбирает поток событий до EOF или отмены контекста.
func readEvents(ctx context.Context, r io.Reader, out chan<- models.ChangeEvent) {
	scanner := bufio.NewScanner(r)
	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if event == changeEventName {
				var ev models.ChangeEvent
				if err := json.Unmarshal([]byte(data), &ev); err != nil {
					ev = models.ChangeEvent{Op: "unknown"}
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
			event, data = "", ""
		case strings.HasPrefix(line, ":"):
			// комментарий или heartbeat
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

func (c *httpClient) do(ctx context.Context, method, path string, query url.Values, body, out any, auth bool) error {
	req, err := c.newRequest(ctx, method, path, query, body, auth)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ошибка декодирования ответа: %w", err)
	}
	return nil
}

func (c *httpClient) newRequest(
	ctx context.Context, method, path string, query url.Values, body any, auth bool,
) (*http.Request, error) {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования URL: %w", err)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonData, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return nil, fmt.Errorf("ошибка кодирования тела запроса: %w", marshalErr)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		if err = c.setAuthHeader(req); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// helper function to add auth header.
func (c *httpClient) setAuthHeader(req *http.Request) error {
	token := c.token()
	if token == "" {
		return errors.New("токен аутентификации отсутствует")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// responseError превращает ответ с ошибкой в ErrAuthorization или *ServerError.
func responseError(resp *http.Response) error {
	var payload models.ErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload)

	if resp.StatusCode == http.StatusUnauthorized {
		if payload.Error != "" {
			return fmt.Errorf("%w: %s", ErrAuthorization, payload.Error)
		}
		return ErrAuthorization
	}
	return &ServerError{StatusCode: resp.StatusCode, Message: payload.Error}
}
