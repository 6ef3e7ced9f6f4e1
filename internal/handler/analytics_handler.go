package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/blogman/internal/analytics"
	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/model"
)

// AnalyticsServiceInterface は分析ハンドラーが必要とするサービスインターフェース。
type AnalyticsServiceInterface interface {
	MetricsForUser(ctx context.Context, user *model.User) (*analytics.UserMetrics, error)
}

// AnalyticsHandler はユーザー利用状況のHTTPハンドラー。
type AnalyticsHandler struct {
	service AnalyticsServiceInterface
}

// NewAnalyticsHandler はAnalyticsHandlerを生成する。
func NewAnalyticsHandler(service AnalyticsServiceInterface) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// MyMetrics は現在のログインユーザーの利用状況を返す。
// GET /api/analytics/me
func (h *AnalyticsHandler) MyMetrics(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	userMetrics, err := h.service.MetricsForUser(r.Context(), user)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(userMetrics)
}
