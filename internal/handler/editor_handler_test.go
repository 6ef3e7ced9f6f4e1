package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/blogman/internal/editor"
	"github.com/hitoshi/blogman/internal/model"
)

// mockEditorService はEditorServiceInterfaceのモック実装。
type mockEditorService struct {
	createFunc func(ctx context.Context, userID string, input editor.CreateInput) (*model.Editor, error)
	getFunc    func(ctx context.Context, userID, editorID string) (*model.Editor, error)
	listFunc   func(ctx context.Context, userID string) ([]*model.Editor, error)
	updateFunc func(ctx context.Context, userID, editorID string, input editor.UpdateInput) (*model.Editor, error)
	deleteFunc func(ctx context.Context, userID, editorID string) error
}

func (m *mockEditorService) Create(ctx context.Context, userID string, input editor.CreateInput) (*model.Editor, error) {
	return m.createFunc(ctx, userID, input)
}

func (m *mockEditorService) Get(ctx context.Context, userID, editorID string) (*model.Editor, error) {
	return m.getFunc(ctx, userID, editorID)
}

func (m *mockEditorService) List(ctx context.Context, userID string) ([]*model.Editor, error) {
	return m.listFunc(ctx, userID)
}

func (m *mockEditorService) Update(ctx context.Context, userID, editorID string, input editor.UpdateInput) (*model.Editor, error) {
	return m.updateFunc(ctx, userID, editorID, input)
}

func (m *mockEditorService) Delete(ctx context.Context, userID, editorID string) error {
	return m.deleteFunc(ctx, userID, editorID)
}

func newEditorTestRouter(service EditorServiceInterface) http.Handler {
	h := NewEditorHandler(service)
	r := chi.NewRouter()
	r.Route("/api/editors", func(r chi.Router) {
		r.Post("/", h.CreateEditor)
		r.Get("/", h.ListEditors)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetEditor)
			r.Patch("/", h.UpdateEditor)
			r.Delete("/", h.DeleteEditor)
		})
	})
	return r
}

func sampleEditor() *model.Editor {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &model.Editor{
		ID:        "editor-1",
		UserID:    "user-1",
		Name:      "技術ブログ編集部",
		Bio:       "Go関連の記事を担当",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TestEditorHandler_CreateEditor_Created はエディター作成で201が返ることを検証する。
func TestEditorHandler_CreateEditor_Created(t *testing.T) {
	service := &mockEditorService{
		createFunc: func(ctx context.Context, userID string, input editor.CreateInput) (*model.Editor, error) {
			if input.Name != "技術ブログ編集部" {
				t.Errorf("name = %q, want %q", input.Name, "技術ブログ編集部")
			}
			return sampleEditor(), nil
		},
	}
	router := newEditorTestRouter(service)

	body := `{"name":"技術ブログ編集部","bio":"Go関連の記事を担当"}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedBlogRequest(http.MethodPost, "/api/editors", body))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp editorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("レスポンスの解析に失敗しました: %v", err)
	}
	if resp.ID != "editor-1" || resp.Bio != "Go関連の記事を担当" {
		t.Errorf("レスポンスが不正です: %+v", resp)
	}
}

// TestEditorHandler_CreateEditor_Unauthorized は未認証リクエストで401が返ることを検証する。
func TestEditorHandler_CreateEditor_Unauthorized(t *testing.T) {
	router := newEditorTestRouter(&mockEditorService{})

	req := httptest.NewRequest(http.MethodPost, "/api/editors", strings.NewReader(`{"name":"x"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestEditorHandler_GetEditor_NotFound は存在しないエディターで404が返ることを検証する。
func TestEditorHandler_GetEditor_NotFound(t *testing.T) {
	service := &mockEditorService{
		getFunc: func(ctx context.Context, userID, editorID string) (*model.Editor, error) {
			return nil, model.NewEditorNotFoundError(editorID)
		},
	}
	router := newEditorTestRouter(service)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedBlogRequest(http.MethodGet, "/api/editors/missing", ""))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// TestEditorHandler_ListEditors_ReturnsArray は一覧が配列で返ることを検証する。
func TestEditorHandler_ListEditors_ReturnsArray(t *testing.T) {
	service := &mockEditorService{
		listFunc: func(ctx context.Context, userID string) ([]*model.Editor, error) {
			return []*model.Editor{sampleEditor()}, nil
		},
	}
	router := newEditorTestRouter(service)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedBlogRequest(http.MethodGet, "/api/editors", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp []editorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("レスポンスの解析に失敗しました: %v", err)
	}
	if len(resp) != 1 || resp[0].Name != "技術ブログ編集部" {
		t.Errorf("一覧レスポンスが不正です: %+v", resp)
	}
}

// TestEditorHandler_UpdateEditor_PartialUpdate は部分更新の入力がサービスに
// 渡されることを検証する。
func TestEditorHandler_UpdateEditor_PartialUpdate(t *testing.T) {
	var gotInput editor.UpdateInput
	service := &mockEditorService{
		updateFunc: func(ctx context.Context, userID, editorID string, input editor.UpdateInput) (*model.Editor, error) {
			gotInput = input
			return sampleEditor(), nil
		},
	}
	router := newEditorTestRouter(service)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedBlogRequest(http.MethodPatch, "/api/editors/editor-1", `{"bio":"新しい紹介文"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotInput.Bio == nil || *gotInput.Bio != "新しい紹介文" {
		t.Error("Bioの更新入力が渡されていません")
	}
	if gotInput.Name != nil {
		t.Error("省略されたフィールドはnilであるべきです")
	}
}

// TestEditorHandler_DeleteEditor_NoContent は削除で204が返ることを検証する。
func TestEditorHandler_DeleteEditor_NoContent(t *testing.T) {
	service := &mockEditorService{
		deleteFunc: func(ctx context.Context, userID, editorID string) error {
			return nil
		},
	}
	router := newEditorTestRouter(service)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedBlogRequest(http.MethodDelete, "/api/editors/editor-1", ""))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}
