package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/maynagashev/catalog/models"
)

const defaultHeartbeat = 25 * time.Second

// ChangeSubscriber выдает поток событий изменений.
type ChangeSubscriber interface {
	Subscribe() (<-chan models.ChangeEvent, func())
}

// ChangesHandler транслирует изменения каталога как Server-Sent Events.
type ChangesHandler struct {
	broker    ChangeSubscriber
	heartbeat time.Duration
}

// NewChangesHandler создает новый экземпляр ChangesHandler.
func NewChangesHandler(broker ChangeSubscriber) *ChangesHandler {
	return &ChangesHandler{broker: broker, heartbeat: defaultHeartbeat}
}

// WithHeartbeat задает интервал комментариев-пингов, удерживающих соединение.
func (h *ChangesHandler) WithHeartbeat(d time.Duration) *ChangesHandler {
	h.heartbeat = d
	return h
}

// Stream держит соединение открытым и отправляет событие change на каждое изменение.
func (h *ChangesHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	events, unsubscribe := h.broker.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		log.Printf("[ChangesHandler] Потоковая передача не поддерживается: %v", err)
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				log.Printf("[ChangesHandler] Ошибка кодирования события: %v", err)
				continue
			}
			if _, err = fmt.Fprintf(w, "event: change\ndata: %s\n\n", data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
