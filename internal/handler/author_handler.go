package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/blogman/internal/author"
	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/model"
)

// AuthorServiceInterface は執筆者ハンドラーが必要とするサービスインターフェース。
type AuthorServiceInterface interface {
	Create(ctx context.Context, userID string, input author.CreateInput) (*model.BlogAuthor, error)
	Get(ctx context.Context, userID, authorID string) (*model.BlogAuthor, error)
	List(ctx context.Context, userID string) ([]*model.BlogAuthor, error)
	Update(ctx context.Context, userID, authorID string, input author.UpdateInput) (*model.BlogAuthor, error)
	Delete(ctx context.Context, userID, authorID string) error
}

// AuthorHandler は執筆者管理のHTTPハンドラー。
type AuthorHandler struct {
	service AuthorServiceInterface
}

// NewAuthorHandler はAuthorHandlerを生成する。
func NewAuthorHandler(service AuthorServiceInterface) *AuthorHandler {
	return &AuthorHandler{service: service}
}

// createAuthorRequest は執筆者作成リクエストのボディ。
type createAuthorRequest struct {
	Name string `json:"name"`
}

// updateAuthorRequest は執筆者更新リクエストのボディ。省略されたフィールドは変更しない。
type updateAuthorRequest struct {
	Name *string `json:"name"`
}

// authorResponse は執筆者情報のAPIレスポンス。
type authorResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateAuthor は執筆者作成を処理する。
// POST /api/authors
func (h *AuthorHandler) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createAuthorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.service.Create(r.Context(), userID, author.CreateInput{Name: req.Name})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toAuthorResponse(created))
}

// GetAuthor は執筆者詳細を取得する。
// GET /api/authors/:id
func (h *AuthorHandler) GetAuthor(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	found, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toAuthorResponse(found))
}

// ListAuthors はユーザーの執筆者一覧を取得する。
// GET /api/authors
func (h *AuthorHandler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	authors, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]authorResponse, 0, len(authors))
	for _, a := range authors {
		responses = append(responses, toAuthorResponse(a))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// UpdateAuthor は執筆者を更新する。
// PATCH /api/authors/:id
func (h *AuthorHandler) UpdateAuthor(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req updateAuthorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), author.UpdateInput{Name: req.Name})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toAuthorResponse(updated))
}

// DeleteAuthor は執筆者を論理削除する。
// DELETE /api/authors/:id
func (h *AuthorHandler) DeleteAuthor(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toAuthorResponse はmodel.BlogAuthorからAPIレスポンスに変換する。
func toAuthorResponse(a *model.BlogAuthor) authorResponse {
	return authorResponse{
		ID:        a.ID,
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
