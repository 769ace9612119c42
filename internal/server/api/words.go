// Package api provides HTTP API handlers for yubimoji.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/yubimoji/internal/store"
)

// WordHandler serves the stored dictionary. The dictionary is read-only
// while recognition runs, so only GET is supported.
type WordHandler struct {
	store *store.Store
}

// NewWordHandler creates a new WordHandler with the given store.
func NewWordHandler(s *store.Store) *WordHandler {
	return &WordHandler{store: s}
}

// ServeHTTP routes /api/words and /api/words/{reading}.
func (h *WordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reading := strings.TrimPrefix(r.URL.Path, "/api/words")
	reading = strings.TrimPrefix(reading, "/")
	if reading == "" {
		h.list(w, r)
		return
	}
	h.get(w, r, reading)
}

type wordResponse struct {
	ID        string `json:"id"`
	Reading   string `json:"reading"`
	Word      string `json:"word"`
	CreatedAt string `json:"created_at"`
}

type listWordsResponse struct {
	Words []wordResponse `json:"words"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(w *store.Word) wordResponse {
	return wordResponse{
		ID:        w.ID,
		Reading:   w.Reading,
		Word:      w.Word,
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
	}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, errorResponse{Error: message})
}

func (h *WordHandler) list(w http.ResponseWriter, r *http.Request) {
	words, err := h.store.Words().List()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list words")
		return
	}

	response := listWordsResponse{Words: make([]wordResponse, 0, len(words))}
	for _, word := range words {
		response.Words = append(response.Words, toResponse(word))
	}
	WriteJSON(w, http.StatusOK, response)
}

func (h *WordHandler) get(w http.ResponseWriter, r *http.Request, reading string) {
	word, err := h.store.Words().GetByReading(reading)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Word not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to get word")
		return
	}
	WriteJSON(w, http.StatusOK, toResponse(word))
}
