// Package changes доставляет уведомления об изменении записей каталога подписчикам.
package changes

import (
	"log"
	"sync"

	"github.com/maynagashev/catalog/models"
)

// subscriberBuffer - емкость канала одного подписчика.
const subscriberBuffer = 8

// Broker рассылает события изменений всем подписчикам.
// Publish никогда не блокируется: если буфер подписчика заполнен, событие для него
// отбрасывается. Любое событие означает "перезагрузить список", поэтому потерь нет.
type Broker struct {
	mu     sync.RWMutex
	subs   map[chan models.ChangeEvent]struct{}
	closed bool
}

// NewBroker создает пустого брокера.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan models.ChangeEvent]struct{})}
}

// Subscribe регистрирует подписчика. Возвращаемая функция отменяет подписку и закрывает канал.
func (b *Broker) Subscribe() (<-chan models.ChangeEvent, func()) {
	ch := make(chan models.ChangeEvent, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.remove(ch) })
	}
}

func (b *Broker) remove(ch chan models.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Publish отправляет событие всем текущим подписчикам.
func (b *Broker) Publish(event models.ChangeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			log.Printf("[ChangeBroker] Буфер подписчика заполнен, событие %s/%s пропущено", event.Op, event.ID)
		}
	}
}

// Subscribers возвращает число активных подписчиков.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close закрывает каналы всех подписчиков. Новые подписки сразу получают закрытый канал.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
