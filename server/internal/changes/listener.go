package changes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/maynagashev/catalog/models"
)

// Channel - канал PostgreSQL, в который триггер таблицы entries публикует изменения.
const Channel = "entries_changed"

const reconnectDelay = 2 * time.Second

// Publisher принимает разобранные события.
type Publisher interface {
	Publish(event models.ChangeEvent)
}

// notificationSource - источник уведомлений PostgreSQL. Реализуется *pgx.Conn.
type notificationSource interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// Listener держит выделенное соединение с LISTEN и пересылает уведомления в Publisher.
type Listener struct {
	connect func(ctx context.Context) (notificationSource, error)
	out     Publisher
	delay   time.Duration
}

// NewListener создает слушателя для указанного DSN.
func NewListener(dsn string, out Publisher) *Listener {
	return &Listener{
		connect: func(ctx context.Context) (notificationSource, error) {
			return pgx.Connect(ctx, dsn)
		},
		out:   out,
		delay: reconnectDelay,
	}
}

// Run слушает уведомления до отмены контекста, переподключаясь при обрывах.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listenOnce(ctx)
		if ctx.Err() != nil {
			return nil //nolint:nilerr // отмена контекста - штатная остановка
		}
		log.Printf("[ChangeListener] Соединение LISTEN потеряно: %v. Переподключение через %s", err, l.delay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.delay):
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context) error {
	conn, err := l.connect(ctx)
	if err != nil {
		return fmt.Errorf("ошибка подключения: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if closeErr := conn.Close(closeCtx); closeErr != nil {
			log.Printf("[ChangeListener] Ошибка закрытия соединения: %v", closeErr)
		}
	}()

	if _, err = conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return fmt.Errorf("ошибка LISTEN %s: %w", Channel, err)
	}
	log.Printf("[ChangeListener] Подписка на канал %s установлена", Channel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		event, err := parseNotification(n.Payload)
		if err != nil {
			log.Printf("[ChangeListener] Не удалось разобрать уведомление '%s': %v", n.Payload, err)
			// Событие все равно означает изменение коллекции.
			event = models.ChangeEvent{Op: "unknown"}
		}
		l.out.Publish(event)
	}
}

func parseNotification(payload string) (models.ChangeEvent, error) {
	var event models.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return models.ChangeEvent{}, err
	}
	if event.Op == "" {
		return models.ChangeEvent{}, errors.New("пустая операция")
	}
	return event, nil
}
