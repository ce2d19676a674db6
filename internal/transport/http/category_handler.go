package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"trivia-quest/internal/domain"
)

// CategoryProvider lists the selectable question categories.
type CategoryProvider interface {
	Categories(ctx context.Context) ([]domain.Category, error)
}

// CategoryHandler serves the category list for the start screen.
type CategoryHandler struct {
	provider CategoryProvider
}

func NewCategoryHandler(provider CategoryProvider) *CategoryHandler {
	return &CategoryHandler{provider: provider}
}

func (h *CategoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	categories, err := h.provider.Categories(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(categories); err != nil {
		log.Printf("encode categories: %v", err)
	}
}
