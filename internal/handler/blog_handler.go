package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/blogman/internal/blog"
	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/model"
)

// BlogServiceInterface はブログハンドラーが必要とするサービスインターフェース。
type BlogServiceInterface interface {
	Create(ctx context.Context, userID string, input blog.CreateInput) (*model.Blog, error)
	Get(ctx context.Context, userID, blogID string) (*model.Blog, error)
	List(ctx context.Context, userID string) ([]*model.Blog, error)
	Update(ctx context.Context, userID, blogID string, input blog.UpdateInput) (*model.Blog, error)
	Delete(ctx context.Context, userID, blogID string) error
	Publish(ctx context.Context, userID, blogID string) (*model.Blog, error)
	Schedule(ctx context.Context, userID, blogID string, at time.Time) (*model.Blog, error)
}

// BlogHandler はブログ管理のHTTPハンドラー。
type BlogHandler struct {
	service BlogServiceInterface
}

// NewBlogHandler はBlogHandlerを生成する。
func NewBlogHandler(service BlogServiceInterface) *BlogHandler {
	return &BlogHandler{service: service}
}

// createBlogRequest はブログ作成リクエストのボディ。
type createBlogRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	EditorID string `json:"editorId"`
	AuthorID string `json:"authorId"`
}

// updateBlogRequest はブログ更新リクエストのボディ。省略されたフィールドは変更しない。
type updateBlogRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	EditorID *string `json:"editorId"`
}

// scheduleBlogRequest は予約公開リクエストのボディ。
type scheduleBlogRequest struct {
	ScheduledAt time.Time `json:"scheduledAt"`
}

// blogResponse はブログ情報のAPIレスポンス。
type blogResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt"`
	Status      string     `json:"status"`
	EditorID    string     `json:"editorId"`
	AuthorID    string     `json:"authorId"`
	ScheduledAt *time.Time `json:"scheduledAt"`
	PublishedAt *time.Time `json:"publishedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CreateBlog はブログ作成を処理する。
// POST /api/blogs
func (h *BlogHandler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.service.Create(r.Context(), userID, blog.CreateInput{
		Title:    req.Title,
		Content:  req.Content,
		EditorID: req.EditorID,
		AuthorID: req.AuthorID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toBlogResponse(created))
}

// GetBlog はブログ詳細を取得する。
// GET /api/blogs/:id
func (h *BlogHandler) GetBlog(w http.ResponseWriter, r *http.Request) {
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
	json.NewEncoder(w).Encode(toBlogResponse(found))
}

// ListBlogs はユーザーのブログ一覧を取得する。
// GET /api/blogs
func (h *BlogHandler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	blogs, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]blogResponse, 0, len(blogs))
	for _, b := range blogs {
		responses = append(responses, toBlogResponse(b))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// UpdateBlog はブログを更新する。
// PATCH /api/blogs/:id
func (h *BlogHandler) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req updateBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), blog.UpdateInput{
		Title:    req.Title,
		Content:  req.Content,
		EditorID: req.EditorID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toBlogResponse(updated))
}

// DeleteBlog はブログを論理削除する。
// DELETE /api/blogs/:id
func (h *BlogHandler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
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

// PublishBlog はブログを即時公開する。
// POST /api/blogs/:id/publish
func (h *BlogHandler) PublishBlog(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	published, err := h.service.Publish(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toBlogResponse(published))
}

// ScheduleBlog はブログの予約公開を設定する。
// POST /api/blogs/:id/schedule
func (h *BlogHandler) ScheduleBlog(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req scheduleBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.ScheduledAt.IsZero() {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidScheduleError("予約日時が指定されていません"))
		return
	}

	scheduled, err := h.service.Schedule(r.Context(), userID, chi.URLParam(r, "id"), req.ScheduledAt)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toBlogResponse(scheduled))
}

// --- ヘルパー関数 ---

// toBlogResponse はmodel.BlogからAPIレスポンスに変換する。
func toBlogResponse(b *model.Blog) blogResponse {
	return blogResponse{
		ID:          b.ID,
		Title:       b.Title,
		Content:     b.Content,
		Excerpt:     b.Excerpt,
		Status:      string(b.Status),
		EditorID:    b.EditorID,
		AuthorID:    b.BlogAuthorID,
		ScheduledAt: b.ScheduledAt,
		PublishedAt: b.PublishedAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// writeUnauthorized は認証エラーレスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// writeInvalidRequestBody はリクエストボディ解析エラーレスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeBlogNotFound, model.ErrCodeEditorNotFound,
		model.ErrCodeAuthorNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidBlogInput, model.ErrCodeInvalidSchedule:
		return http.StatusBadRequest
	case model.ErrCodeTokenInvalid, model.ErrCodeProfileInvalid:
		return http.StatusUnauthorized
	case model.ErrCodeProviderDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
