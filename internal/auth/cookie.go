package auth

import (
	"net/http"
	"net/url"
	"time"
)

// CookiePolicy はセッションCookieに設定する属性の決定結果を表す。
// ログインごとに設定オリジンから導出され、永続化はされない。
type CookiePolicy struct {
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
	Path     string
}

// ResolveCookiePolicy はクライアントオリジンとバックエンドオリジンを比較して
// セッションCookieの属性を決定する。
//
// クロスオリジン配備（スキーム・ホスト・ポートのいずれかが異なる）では
// ブラウザがSameSite=NoneをSecureなしで拒否するため、必ず
// SameSite=None + Secure=true を選択する。
// 同一オリジンではSameSite=Laxとし、Secureは本番環境でのみ有効にする。
//
// オリジンがパースできない場合はクロスオリジン扱いとし、安全側の
// ポリシーにフォールバックする。許可的だが安全な方向への倒し方であり、
// その逆（安全でないCookieの発行）には決して倒さない。
func ResolveCookiePolicy(clientOrigin, backendOrigin string, isProduction bool, maxAge time.Duration) CookiePolicy {
	policy := CookiePolicy{
		HTTPOnly: true,
		MaxAge:   maxAge,
		Path:     "/",
	}

	if isCrossOrigin(clientOrigin, backendOrigin) {
		policy.SameSite = http.SameSiteNoneMode
		policy.Secure = true
	} else {
		policy.SameSite = http.SameSiteLaxMode
		policy.Secure = isProduction
	}

	return policy
}

// isCrossOrigin は2つのオリジンがスキーム・ホスト名・ポートのいずれかで
// 異なる場合にtrueを返す。パースできないオリジンはクロスオリジン扱い。
func isCrossOrigin(clientOrigin, backendOrigin string) bool {
	client, err := url.Parse(clientOrigin)
	if err != nil || client.Scheme == "" || client.Host == "" {
		return true
	}
	backend, err := url.Parse(backendOrigin)
	if err != nil || backend.Scheme == "" || backend.Host == "" {
		return true
	}

	return client.Scheme != backend.Scheme ||
		client.Hostname() != backend.Hostname() ||
		client.Port() != backend.Port()
}

// ApplyCookie はCookiePolicyに従ってセッションCookieをレスポンスに設定する。
func ApplyCookie(w http.ResponseWriter, name, value string, policy CookiePolicy) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     policy.Path,
		MaxAge:   int(policy.MaxAge.Seconds()),
		HttpOnly: policy.HTTPOnly,
		Secure:   policy.Secure,
		SameSite: policy.SameSite,
	})
}

// ClearCookie はCookiePolicyと同じ属性でセッションCookieを失効させる。
// 属性が一致しないとブラウザが別Cookieとして扱い削除されないことがある。
func ClearCookie(w http.ResponseWriter, name string, policy CookiePolicy) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     policy.Path,
		MaxAge:   -1,
		HttpOnly: policy.HTTPOnly,
		Secure:   policy.Secure,
		SameSite: policy.SameSite,
	})
}
