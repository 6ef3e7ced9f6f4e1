package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/blogman/internal/metrics"
	"github.com/hitoshi/blogman/internal/middleware"
)

// DBPinger はヘルスチェックで使用するDB疎通確認のインターフェース。
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	TokenVerifier     middleware.TokenVerifier
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig

	// メトリクス（nilの場合は記録しない）
	Collector metrics.MetricsCollector
	Gatherer  prometheus.Gatherer

	// サービス
	AuthService      AuthServiceInterface
	BlogService      BlogServiceInterface
	EditorService    EditorServiceInterface
	AuthorService    AuthorServiceInterface
	AnalyticsService AnalyticsServiceInterface

	// ヘルスチェック
	DB DBPinger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → HTTPMetrics
//	（/api/* のみ追加で）Session → RateLimit(General) → CSRF
//
// 認証フロー（/auth/google, /auth/callback/google, /auth/logout）は
// セッションミドルウェアの外に配置する。/auth/me は有効なセッションを
// 必要とするため内側に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	r.Use(middleware.NewHTTPMetricsMiddleware(deps.Collector))

	authHandler := NewAuthHandler(deps.AuthService, deps.Collector)
	blogHandler := NewBlogHandler(deps.BlogService)
	editorHandler := NewEditorHandler(deps.EditorService)
	authorHandler := NewAuthorHandler(deps.AuthorService)
	analyticsHandler := NewAnalyticsHandler(deps.AnalyticsService)

	sessionMiddleware := middleware.NewSessionMiddleware(deps.TokenVerifier, deps.UserFinder)

	// --- 認証不要のルート ---

	r.Get("/", statusHandler)
	r.Get("/health", healthHandler(deps.DB))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google", authHandler.Login)
		r.Get("/callback/google", authHandler.Callback)
		r.Get("/logout", authHandler.Logout)

		// 現在のユーザー情報は有効なセッションが必要
		r.With(sessionMiddleware).Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General) → CSRF
	r.Group(func(r chi.Router) {
		r.Use(sessionMiddleware)
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// CSRFトークン取得（フロントエンドの初期化用）
		r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

		// ブログ管理
		r.Route("/api/blogs", func(r chi.Router) {
			// POST /api/blogs - ブログ作成（作成専用レート制限を追加）
			r.With(deps.RateLimiter.BlogCreateMiddleware()).Post("/", blogHandler.CreateBlog)
			r.Get("/", blogHandler.ListBlogs)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", blogHandler.GetBlog)
				r.Patch("/", blogHandler.UpdateBlog)
				r.Delete("/", blogHandler.DeleteBlog)
				r.Post("/publish", blogHandler.PublishBlog)
				r.Post("/schedule", blogHandler.ScheduleBlog)
			})
		})

		// エディター管理
		r.Route("/api/editors", func(r chi.Router) {
			r.Post("/", editorHandler.CreateEditor)
			r.Get("/", editorHandler.ListEditors)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", editorHandler.GetEditor)
				r.Patch("/", editorHandler.UpdateEditor)
				r.Delete("/", editorHandler.DeleteEditor)
			})
		})

		// 執筆者管理
		r.Route("/api/authors", func(r chi.Router) {
			r.Post("/", authorHandler.CreateAuthor)
			r.Get("/", authorHandler.ListAuthors)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", authorHandler.GetAuthor)
				r.Patch("/", authorHandler.UpdateAuthor)
				r.Delete("/", authorHandler.DeleteAuthor)
			})
		})

		// 利用状況
		r.Get("/api/analytics/me", analyticsHandler.MyMetrics)
	})

	return r
}

// statusHandler はルートパスで稼働確認メッセージを返す。
// GET /
func statusHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Backend is working!"})
}

// healthHandler はDB疎通を確認して200/503を返すハンドラーを生成する。
// GET /health
func healthHandler(db DBPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
				return
			}
		}

		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
