package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/blogman/internal/auth"
	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/model"
)

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	getLoginURLFunc     func(state string) string
	exchangeProfileFunc func(ctx context.Context, code string) (*auth.Profile, error)
	issueSessionFunc    func(ctx context.Context, profile *auth.Profile) (*auth.SessionGrant, error)

	exchangeCalls int
	issueCalls    int
}

func (m *mockAuthService) GetLoginURL(state string) string {
	if m.getLoginURLFunc != nil {
		return m.getLoginURLFunc(state)
	}
	return "https://accounts.google.com/o/oauth2/v2/auth?state=" + state
}

func (m *mockAuthService) ExchangeProfile(ctx context.Context, code string) (*auth.Profile, error) {
	m.exchangeCalls++
	if m.exchangeProfileFunc != nil {
		return m.exchangeProfileFunc(ctx, code)
	}
	return &auth.Profile{Email: "user@example.com", Name: "User", Provider: "google"}, nil
}

func (m *mockAuthService) IssueSession(ctx context.Context, profile *auth.Profile) (*auth.SessionGrant, error) {
	m.issueCalls++
	if m.issueSessionFunc != nil {
		return m.issueSessionFunc(ctx, profile)
	}
	return &auth.SessionGrant{
		Token:       "signed-token",
		Cookie:      auth.ResolveCookiePolicy("http://localhost:5173", "http://localhost:8080", false, time.Hour),
		RedirectURL: "http://localhost:5173/auth/success",
	}, nil
}

func (m *mockAuthService) CookiePolicy() auth.CookiePolicy {
	return auth.ResolveCookiePolicy("http://localhost:5173", "http://localhost:8080", false, time.Hour)
}

func (m *mockAuthService) ClientOrigin() string {
	return "http://localhost:5173"
}

// fakeCollector はテスト用のメトリクスコレクター。
type fakeCollector struct {
	logins       []string
	published    int
	httpStatuses []int
}

func (f *fakeCollector) RecordLogin(provider string)         { f.logins = append(f.logins, provider) }
func (f *fakeCollector) RecordBlogPublished(count int)       { f.published += count }
func (f *fakeCollector) RecordSweepFailure(blogID string)    {}
func (f *fakeCollector) RecordSweepSkipped()                 {}
func (f *fakeCollector) RecordSweepDuration(d time.Duration) {}
func (f *fakeCollector) RecordHTTPStatus(statusCode int) {
	f.httpStatuses = append(f.httpStatuses, statusCode)
}

// findCookie はレスポンスから指定された名前のCookieを探す。
func findCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// TestAuthHandler_Login_RedirectsWithStateCookie はログイン開始時に
// stateクッキーが設定され認証URLへリダイレクトされることを検証する。
func TestAuthHandler_Login_RedirectsWithStateCookie(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/google", nil)
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTemporaryRedirect)
	}

	stateCookie := findCookie(t, w, oauthStateCookie)
	if stateCookie == nil || stateCookie.Value == "" {
		t.Fatal("stateクッキーが設定されていません")
	}
	if !stateCookie.HttpOnly {
		t.Error("stateクッキーはHttpOnlyであるべきです")
	}

	location := w.Header().Get("Location")
	if !strings.Contains(location, "state="+stateCookie.Value) {
		t.Errorf("リダイレクト先にstateが含まれていません: %s", location)
	}
}

// TestAuthHandler_Callback_Success は正常なコールバックでセッションCookieが
// 設定されリダイレクトされることを検証する。
func TestAuthHandler_Callback_Success(t *testing.T) {
	service := &mockAuthService{}
	collector := &fakeCollector{}
	h := NewAuthHandler(service, collector)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback/google?code=authcode&state=xyz", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "xyz"})
	w := httptest.NewRecorder()
	h.Callback(w, req)

	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTemporaryRedirect)
	}

	authCookie := findCookie(t, w, middleware.AuthCookieName)
	if authCookie == nil {
		t.Fatal("セッションCookieが設定されていません")
	}
	if authCookie.Value != "signed-token" {
		t.Errorf("cookie value = %q, want %q", authCookie.Value, "signed-token")
	}

	if got := w.Header().Get("Location"); got != "http://localhost:5173/auth/success" {
		t.Errorf("Location = %q, want %q", got, "http://localhost:5173/auth/success")
	}

	if len(collector.logins) != 1 || collector.logins[0] != "google" {
		t.Errorf("ログインメトリクスが記録されていません: %v", collector.logins)
	}
}

// TestAuthHandler_Callback_ProviderError はプロバイダーがエラーを通知した場合に
// 副作用なしでクライアントオリジンへリダイレクトされることを検証する。
func TestAuthHandler_Callback_ProviderError(t *testing.T) {
	service := &mockAuthService{}
	h := NewAuthHandler(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback/google?error=access_denied", nil)
	w := httptest.NewRecorder()
	h.Callback(w, req)

	if w.Code != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTemporaryRedirect)
	}
	if got := w.Header().Get("Location"); got != "http://localhost:5173" {
		t.Errorf("Location = %q, want クライアントオリジン", got)
	}
	if service.exchangeCalls != 0 {
		t.Error("プロバイダーエラー時にコード交換が呼ばれました")
	}
	if service.issueCalls != 0 {
		t.Error("プロバイダーエラー時にセッション発行が呼ばれました")
	}
	if cookie := findCookie(t, w, middleware.AuthCookieName); cookie != nil && cookie.Value != "" {
		t.Error("プロバイダーエラー時にセッションCookieが設定されました")
	}
}

// TestAuthHandler_Callback_MissingCode はコード欠落時にリダイレクトされることを検証する。
func TestAuthHandler_Callback_MissingCode(t *testing.T) {
	service := &mockAuthService{}
	h := NewAuthHandler(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback/google?state=xyz", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "xyz"})
	w := httptest.NewRecorder()
	h.Callback(w, req)

	if w.Code != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTemporaryRedirect)
	}
	if got := w.Header().Get("Location"); got != "http://localhost:5173" {
		t.Errorf("Location = %q, want クライアントオリジン", got)
	}
	if service.issueCalls != 0 {
		t.Error("コード欠落時にセッション発行が呼ばれました")
	}
}

// TestAuthHandler_Callback_StateMismatch はstate不一致時にリダイレクトされ
// コード交換が行われないことを検証する。
func TestAuthHandler_Callback_StateMismatch(t *testing.T) {
	service := &mockAuthService{}
	h := NewAuthHandler(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback/google?code=authcode&state=evil", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "xyz"})
	w := httptest.NewRecorder()
	h.Callback(w, req)

	if w.Code != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTemporaryRedirect)
	}
	if service.exchangeCalls != 0 {
		t.Error("state不一致時にコード交換が呼ばれました")
	}
}

// TestAuthHandler_Callback_ExchangeError はコード交換失敗時にリダイレクトされる
// ことを検証する。
func TestAuthHandler_Callback_ExchangeError(t *testing.T) {
	service := &mockAuthService{
		exchangeProfileFunc: func(ctx context.Context, code string) (*auth.Profile, error) {
			return nil, errors.New("token exchange failed")
		},
	}
	h := NewAuthHandler(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback/google?code=bad&state=xyz", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "xyz"})
	w := httptest.NewRecorder()
	h.Callback(w, req)

	if w.Code != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTemporaryRedirect)
	}
	if got := w.Header().Get("Location"); got != "http://localhost:5173" {
		t.Errorf("Location = %q, want クライアントオリジン", got)
	}
	if service.issueCalls != 0 {
		t.Error("交換失敗時にセッション発行が呼ばれました")
	}
}

// TestAuthHandler_Callback_IssueError はセッション発行失敗時にCookieなしで
// リダイレクトされることを検証する。
func TestAuthHandler_Callback_IssueError(t *testing.T) {
	service := &mockAuthService{
		issueSessionFunc: func(ctx context.Context, profile *auth.Profile) (*auth.SessionGrant, error) {
			return nil, auth.ErrProfileInvalid
		},
	}
	h := NewAuthHandler(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback/google?code=authcode&state=xyz", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "xyz"})
	w := httptest.NewRecorder()
	h.Callback(w, req)

	if w.Code != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTemporaryRedirect)
	}
	if cookie := findCookie(t, w, middleware.AuthCookieName); cookie != nil && cookie.Value != "" {
		t.Error("発行失敗時にセッションCookieが設定されました")
	}
}

// TestAuthHandler_Logout_ClearsCookie はログアウトでセッションCookieが
// 失効されることを検証する。
func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AuthCookieName, Value: "signed-token"})
	w := httptest.NewRecorder()
	h.Logout(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	cookie := findCookie(t, w, middleware.AuthCookieName)
	if cookie == nil {
		t.Fatal("失効Cookieが設定されていません")
	}
	if cookie.MaxAge != -1 {
		t.Errorf("MaxAge = %d, want -1", cookie.MaxAge)
	}
	if cookie.Value != "" {
		t.Errorf("失効Cookieの値が空ではありません: %q", cookie.Value)
	}
}

// TestAuthHandler_Me_ReturnsUser は認証済みリクエストでユーザー情報が
// 返されることを検証する。
func TestAuthHandler_Me_ReturnsUser(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	ctx := middleware.ContextWithUser(req.Context(), &model.User{
		ID:    "user-1",
		Email: "user@example.com",
		Name:  "User",
	})
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()
	h.Me(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"email":"user@example.com"`) {
		t.Errorf("レスポンスにemailが含まれていません: %s", w.Body.String())
	}
}

// TestAuthHandler_Me_Unauthorized は未認証リクエストで401が返ることを検証する。
func TestAuthHandler_Me_Unauthorized(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()
	h.Me(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
