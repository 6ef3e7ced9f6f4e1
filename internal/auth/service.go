// Package auth はOAuth認証フローとセッション発行を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
)

// ErrProfileInvalid は外部プロバイダーから使用可能なemailが得られなかった
// ことを表す。セッション発行は中断され、ストアへの書き込みは行われない。
var ErrProfileInvalid = errors.New("profile has no email")

// Profile は外部IdPから取得した検証済みプロファイルを表す。
type Profile struct {
	Email         string
	Name          string
	AvatarURL     string
	Provider      string // "google" 等
	ProviderToken string // プロバイダー発行の不透明トークン
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
// 将来的に複数IdP（Google, GitHub等）に対応するための抽象化。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードを検証済みプロファイルに交換する。
	ExchangeCode(ctx context.Context, code string) (*Profile, error)
}

// TokenSigner はセッショントークンの発行インターフェース。
// TokenCodecの部分集合として定義する。
type TokenSigner interface {
	Sign(email string) (string, error)
}

// ServiceConfig はセッション発行サービスの設定。
// 環境変数の直接参照はせず、構築時に明示的に注入される。
type ServiceConfig struct {
	ClientOrigin   string
	BackendBaseURL string
	IsProduction   bool
	TokenMaxAge    time.Duration
}

// SessionGrant はセッション発行の結果を表す。
// 署名済みトークン、Cookie属性の決定、ログイン成功後のリダイレクト先を含む。
type SessionGrant struct {
	Token       string
	Cookie      CookiePolicy
	RedirectURL string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth    OAuthProvider
	userRepo repository.UserRepository
	signer   TokenSigner
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	userRepo repository.UserRepository,
	signer TokenSigner,
	config ServiceConfig,
) *Service {
	return &Service{
		oauth:    oauth,
		userRepo: userRepo,
		signer:   signer,
		config:   config,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// ExchangeProfile は認可コードを検証済みプロファイルに交換する。
func (s *Service) ExchangeProfile(ctx context.Context, code string) (*Profile, error) {
	profile, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}
	return profile, nil
}

// IssueSession は検証済みプロファイルからセッションを発行する。
//
// 1. emailでユーザーを検索し、未登録なら作成・登録済みならlast_loginを更新する。
//    どちらの経路でもLoginEventをちょうど1件追記し、ユーザー更新とイベント追記は
//    単一のトランザクションで行われる（部分的な状態は残らない）。
// 2. ユーザーのemailに対して署名済みセッショントークンを発行する。
// 3. 設定されたクライアントオリジンとバックエンドオリジンの比較から
//    Cookie属性を決定する。
//
// profileがemailを持たない場合はErrProfileInvalidを返し、副作用は発生しない。
func (s *Service) IssueSession(ctx context.Context, profile *Profile) (*SessionGrant, error) {
	if profile == nil || profile.Email == "" {
		return nil, ErrProfileInvalid
	}

	now := time.Now()
	provider := profile.Provider
	if provider == "" {
		provider = "google"
	}

	existing, err := s.userRepo.FindByEmail(ctx, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user := &model.User{
		ID:            uuid.New().String(),
		Email:         profile.Email,
		Name:          profile.Name,
		AvatarURL:     profile.AvatarURL,
		Provider:      provider,
		ProviderToken: profile.ProviderToken,
		LastLogin:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	event := &model.LoginEvent{
		ID:       uuid.New().String(),
		LoginAt:  now,
		Provider: provider,
	}

	if err := s.userRepo.UpsertWithLoginEvent(ctx, user, event); err != nil {
		return nil, fmt.Errorf("failed to upsert user with login event: %w", err)
	}

	if existing != nil {
		slog.Info("existing user logged in",
			slog.String("user_id", existing.ID),
			slog.String("provider", provider),
		)
	} else {
		slog.Info("new user created",
			slog.String("email", profile.Email),
			slog.String("provider", provider),
		)
	}

	token, err := s.signer.Sign(profile.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	policy := ResolveCookiePolicy(
		s.config.ClientOrigin, s.config.BackendBaseURL,
		s.config.IsProduction, s.config.TokenMaxAge,
	)

	return &SessionGrant{
		Token:       token,
		Cookie:      policy,
		RedirectURL: strings.TrimRight(s.config.ClientOrigin, "/") + "/auth/success",
	}, nil
}

// CookiePolicy は現在の設定から導出されるCookie属性を返す。
// logoutなど、発行を伴わずに属性だけが必要な場面で使用する。
func (s *Service) CookiePolicy() CookiePolicy {
	return ResolveCookiePolicy(
		s.config.ClientOrigin, s.config.BackendBaseURL,
		s.config.IsProduction, s.config.TokenMaxAge,
	)
}

// ClientOrigin は設定されたクライアントオリジンを返す。
func (s *Service) ClientOrigin() string {
	return s.config.ClientOrigin
}

// GetUserByEmail は検証済みemailからユーザーを取得する。
// 見つからない場合はUSER_NOT_FOUNDエラーを返す。
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}
