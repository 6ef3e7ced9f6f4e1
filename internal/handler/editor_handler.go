package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/blogman/internal/editor"
	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/model"
)

// EditorServiceInterface はエディターハンドラーが必要とするサービスインターフェース。
type EditorServiceInterface interface {
	Create(ctx context.Context, userID string, input editor.CreateInput) (*model.Editor, error)
	Get(ctx context.Context, userID, editorID string) (*model.Editor, error)
	List(ctx context.Context, userID string) ([]*model.Editor, error)
	Update(ctx context.Context, userID, editorID string, input editor.UpdateInput) (*model.Editor, error)
	Delete(ctx context.Context, userID, editorID string) error
}

// EditorHandler はエディター管理のHTTPハンドラー。
type EditorHandler struct {
	service EditorServiceInterface
}

// NewEditorHandler はEditorHandlerを生成する。
func NewEditorHandler(service EditorServiceInterface) *EditorHandler {
	return &EditorHandler{service: service}
}

// createEditorRequest はエディター作成リクエストのボディ。
type createEditorRequest struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

// updateEditorRequest はエディター更新リクエストのボディ。省略されたフィールドは変更しない。
type updateEditorRequest struct {
	Name *string `json:"name"`
	Bio  *string `json:"bio"`
}

// editorResponse はエディター情報のAPIレスポンス。
type editorResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateEditor はエディター作成を処理する。
// POST /api/editors
func (h *EditorHandler) CreateEditor(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createEditorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.service.Create(r.Context(), userID, editor.CreateInput{
		Name: req.Name,
		Bio:  req.Bio,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toEditorResponse(created))
}

// GetEditor はエディター詳細を取得する。
// GET /api/editors/:id
func (h *EditorHandler) GetEditor(w http.ResponseWriter, r *http.Request) {
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
	json.NewEncoder(w).Encode(toEditorResponse(found))
}

// ListEditors はユーザーのエディター一覧を取得する。
// GET /api/editors
func (h *EditorHandler) ListEditors(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	editors, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]editorResponse, 0, len(editors))
	for _, e := range editors {
		responses = append(responses, toEditorResponse(e))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// UpdateEditor はエディターを更新する。
// PATCH /api/editors/:id
func (h *EditorHandler) UpdateEditor(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req updateEditorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), editor.UpdateInput{
		Name: req.Name,
		Bio:  req.Bio,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toEditorResponse(updated))
}

// DeleteEditor はエディターを論理削除する。
// DELETE /api/editors/:id
func (h *EditorHandler) DeleteEditor(w http.ResponseWriter, r *http.Request) {
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

// toEditorResponse はmodel.EditorからAPIレスポンスに変換する。
func toEditorResponse(e *model.Editor) editorResponse {
	return editorResponse{
		ID:        e.ID,
		Name:      e.Name,
		Bio:       e.Bio,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
