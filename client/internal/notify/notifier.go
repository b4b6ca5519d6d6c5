// Package notify поддерживает подписку клиента на изменения записей
// и вызывает обработчик на каждое событие.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/maynagashev/catalog/client/internal/api"
	"github.com/maynagashev/catalog/models"
)

const defaultReconnectDelay = 3 * time.Second

// OpResync - синтетическое событие после восстановления подписки.
const OpResync = "resync"

// ChangeStream открывает поток событий об изменениях.
type ChangeStream interface {
	SubscribeChanges(ctx context.Context) (<-chan models.ChangeEvent, error)
}

// Notifier держит не более одной активной подписки.
type Notifier struct {
	stream         ChangeStream
	reconnectDelay time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewNotifier создает новый Notifier.
func NewNotifier(stream ChangeStream) *Notifier {
	return &Notifier{stream: stream, reconnectDelay: defaultReconnectDelay}
}

// WithReconnectDelay задает паузу перед повторным подключением.
func (n *Notifier) WithReconnectDelay(d time.Duration) *Notifier {
	n.reconnectDelay = d
	return n
}

// Start открывает подписку и вызывает onChange на каждое событие.
// Предыдущая подписка, если была, закрывается до открытия новой.
// onChange вызывается последовательно, события не пересекаются. Stop не ждет
// зависший в onChange вызов: он может завершиться уже после Stop.
func (n *Notifier) Start(ctx context.Context, onChange func(models.ChangeEvent)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	n.cancel, n.done = cancel, done

	go func() {
		defer close(done)
		n.run(runCtx, onChange)
	}()
}

// Stop закрывает подписку и ждет завершения ее горутины, но не обработчика.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopLocked()
}

// Active сообщает, есть ли открытая подписка.
func (n *Notifier) Active() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cancel != nil
}

func (n *Notifier) stopLocked() {
	if n.cancel == nil {
		return
	}
	n.cancel()
	<-n.done
	n.cancel, n.done = nil, nil
}

// run после переподключения вызывает onChange с Op "resync": события,
// пришедшие во время обрыва, потеряны.
func (n *Notifier) run(ctx context.Context, onChange func(models.ChangeEvent)) {
	connected := false
	for {
		events, err := n.stream.SubscribeChanges(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, api.ErrAuthorization) {
				slog.Warn("Подписка на изменения отклонена сервером", "error", err)
				return
			}
			slog.Error("Ошибка подписки на изменения", "error", err)
		} else {
			slog.Info("Подписка на изменения открыта")
			if connected && !deliver(ctx, onChange, models.ChangeEvent{Op: OpResync}) {
				return
			}
			connected = true
			if !drain(ctx, events, onChange) {
				return
			}
			slog.Warn("Поток изменений прерван, переподключение")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(n.reconnectDelay):
		}
	}
}

// drain передает события до закрытия потока. Возвращает false,
// если подписка отменена.
func drain(ctx context.Context, events <-chan models.ChangeEvent, onChange func(models.ChangeEvent)) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return ctx.Err() == nil
			}
			if !deliver(ctx, onChange, ev) {
				return false
			}
		}
	}
}

// deliver вызывает onChange и ждет его завершения или отмены подписки.
// onChange может ждать цикл событий, который сейчас вызывает Stop.
func deliver(ctx context.Context, onChange func(models.ChangeEvent), ev models.ChangeEvent) bool {
	handled := make(chan struct{})
	go func() {
		defer close(handled)
		onChange(ev)
	}()
	select {
	case <-handled:
		return true
	case <-ctx.Done():
		return false
	}
}
