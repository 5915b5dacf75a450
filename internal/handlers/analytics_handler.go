package handlers

import (
	"log/slog"
	"net/http"

	"go_5_attend_keep/internal/service"
	"go_5_attend_keep/internal/webutil"
)

type AnalyticsHandler struct {
	service service.AnalyticsService
	logger  *slog.Logger
}

func NewAnalyticsHandler(s service.AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsHandler{service: s, logger: logger}
}

// GetDashboard はダッシュボード1画面分の集計を返すハンドラ
func (h *AnalyticsHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetDashboard"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()))

	metrics, err := h.service.GetDashboardMetrics(r.Context(), ownerID)
	if err != nil {
		logger.Error("Error computing dashboard metrics", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, metrics)
}

// GetTrends はカテゴリ×月別の出席率トレンドを返すハンドラ
func (h *AnalyticsHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetTrends"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()))

	trends, err := h.service.GetTrendSeries(r.Context(), ownerID)
	if err != nil {
		logger.Error("Error computing trend series", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, trends)
}
