package middleware

import (
	"net/http"

	"github.com/hitoshi/blogman/internal/metrics"
)

// NewHTTPMetricsMiddleware はレスポンスのHTTPステータスコードをメトリクスに
// 記録するミドルウェアを返す。collectorがnilの場合は何もしない。
func NewHTTPMetricsMiddleware(collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if collector == nil {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			next.ServeHTTP(rec, r)
			collector.RecordHTTPStatus(rec.statusCode)
		})
	}
}
