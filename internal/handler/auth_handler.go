// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/blogman/internal/auth"
	"github.com/hitoshi/blogman/internal/metrics"
	"github.com/hitoshi/blogman/internal/middleware"
)

const oauthStateCookie = "oauth_state"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(state string) string
	ExchangeProfile(ctx context.Context, code string) (*auth.Profile, error)
	IssueSession(ctx context.Context, profile *auth.Profile) (*auth.SessionGrant, error)
	CookiePolicy() auth.CookiePolicy
	ClientOrigin() string
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	collector metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。collectorはnilでもよい。
func NewAuthHandler(service AuthServiceInterface, collector metrics.MetricsCollector) *AuthHandler {
	return &AuthHandler{
		service:   service,
		collector: collector,
	}
}

// Login はGoogle OAuthフローを開始する。
// GET /auth/google
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10分
		HttpOnly: true,
		Secure:   h.service.CookiePolicy().Secure,
		SameSite: http.SameSiteLaxMode,
	})

	url := h.service.GetLoginURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// Callback はOAuthコールバックを処理する。
// GET /auth/callback/google?code=xxx&state=yyy
//
// プロバイダーからのエラー通知、コード欠落、state不一致、プロファイル交換
// 失敗のいずれも、副作用を一切発生させずにクライアントオリジンへ
// リダイレクトする。バックエンドの内部状態からは成功しなかったログインと
// 何も起きなかったことは区別できない。
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	clearStateCookie(w, h.service.CookiePolicy().Secure)

	// プロバイダーがエラーを通知した場合（同意拒否など）
	if providerErr := r.URL.Query().Get("error"); providerErr != "" {
		slog.Warn("oauth provider returned error", slog.String("error", providerErr))
		http.Redirect(w, r, h.service.ClientOrigin(), http.StatusTemporaryRedirect)
		return
	}

	// stateの検証（CSRF対策）
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch", slog.String("query_state", state))
		http.Redirect(w, r, h.service.ClientOrigin(), http.StatusTemporaryRedirect)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("oauth callback missing authorization code")
		http.Redirect(w, r, h.service.ClientOrigin(), http.StatusTemporaryRedirect)
		return
	}

	profile, err := h.service.ExchangeProfile(r.Context(), code)
	if err != nil {
		slog.Error("failed to exchange oauth code", slog.String("error", err.Error()))
		http.Redirect(w, r, h.service.ClientOrigin(), http.StatusTemporaryRedirect)
		return
	}

	grant, err := h.service.IssueSession(r.Context(), profile)
	if err != nil {
		slog.Error("failed to issue session", slog.String("error", err.Error()))
		http.Redirect(w, r, h.service.ClientOrigin(), http.StatusTemporaryRedirect)
		return
	}

	if h.collector != nil {
		h.collector.RecordLogin(profile.Provider)
	}

	auth.ApplyCookie(w, middleware.AuthCookieName, grant.Token, grant.Cookie)
	http.Redirect(w, r, grant.RedirectURL, http.StatusTemporaryRedirect)
}

// Logout はセッションCookieを失効させる。
// GET /auth/logout
//
// トークンは自己完結型でサーバー側に状態を持たないため、
// Cookieの削除がログアウトのすべてである。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearCookie(w, middleware.AuthCookieName, h.service.CookiePolicy())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "logged out"})
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me （セッションミドルウェアの内側に配置する）
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":        user.ID,
		"email":     user.Email,
		"name":      user.Name,
		"avatarUrl": user.AvatarURL,
		"provider":  user.Provider,
		"lastLogin": user.LastLogin,
	})
}

// clearStateCookie はOAuth stateクッキーを削除する。
func clearStateCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
