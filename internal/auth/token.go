package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid はセッショントークンの検証失敗を表す。
// 署名不一致・フォーマット不正・期限切れのいずれもこのエラーに集約され、
// 呼び出し側からは区別できない（区別は内部のデバッグログのみ）。
var ErrTokenInvalid = errors.New("invalid session token")

// sessionClaims はセッショントークンのペイロード。
type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenCodec はセッショントークンの署名と検証を行う。
// HMAC-SHA256で署名したコンパクトなトークンにemailと有効期限を埋め込む。
// トークンは自己完結型でサーバー側には保存しない。失効手段は期限切れのみ。
type TokenCodec struct {
	secret []byte
	maxAge time.Duration
}

// NewTokenCodec はTokenCodecを生成する。
// maxAgeが0以下の場合はデフォルトの7日間を使用する。
func NewTokenCodec(secret string, maxAge time.Duration) *TokenCodec {
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	return &TokenCodec{
		secret: []byte(secret),
		maxAge: maxAge,
	}
}

// Sign は指定emailを含む署名付きセッショントークンを発行する。
// 有効期限は発行時刻からmaxAge後に固定される。
func (c *TokenCodec) Sign(email string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify はセッショントークンを検証し、埋め込まれたemailを返す。
// 検証失敗はすべてErrTokenInvalidを返す。失敗理由（期限切れか署名不正か）は
// 可観測性のためデバッグログにのみ記録し、呼び出し側には漏らさない。
func (c *TokenCodec) Verify(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			slog.Debug("session token expired")
		} else {
			slog.Debug("session token rejected", slog.String("reason", err.Error()))
		}
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.Email == "" {
		slog.Debug("session token has no usable claims")
		return "", ErrTokenInvalid
	}

	return claims.Email, nil
}
