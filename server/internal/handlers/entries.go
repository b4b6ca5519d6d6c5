package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/maynagashev/catalog/models"
	"github.com/maynagashev/catalog/server/internal/services"
)

// EntryHandler обрабатывает HTTP-запросы к записям каталога.
type EntryHandler struct {
	service services.EntryService
}

// NewEntryHandler создает новый экземпляр EntryHandler.
func NewEntryHandler(s services.EntryService) *EntryHandler {
	return &EntryHandler{service: s}
}

// List возвращает записи по фильтру из параметров search, type (повторяемый) и tag (повторяемый).
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.FilterState{
		Search: q.Get("search"),
		Types:  q["type"],
		Tags:   q["tag"],
	}

	entries, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, "EntryHandler:List", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "EntryHandler:Get", err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Create добавляет запись. Доступно только администратору.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.EntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Printf("[EntryHandler:Create] %v", err)
		writeError(w, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	entry, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, "EntryHandler:Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// Replace полностью заменяет запись. Доступно только администратору.
func (h *EntryHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req models.EntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Printf("[EntryHandler:Replace] %v", err)
		writeError(w, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	entry, err := h.service.Replace(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, "EntryHandler:Replace", err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Delete удаляет запись. Доступно только администратору.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "EntryHandler:Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
