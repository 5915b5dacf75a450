package handlers

import (
	"log/slog"
	"net/http"

	"go_5_attend_keep/internal/model"
	"go_5_attend_keep/internal/service"
	"go_5_attend_keep/internal/webutil"

	"github.com/google/uuid"
)

type ReportHandler struct {
	service service.ReportService
	logger  *slog.Logger
}

func NewReportHandler(s service.ReportService, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{service: s, logger: logger}
}

// GetAttendanceReport は出欠レポート（集計＋明細）を返すハンドラ。
// クエリの from / to (YYYY-MM-DD)・category・player_id で絞り込める。
func (h *ReportHandler) GetAttendanceReport(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetAttendanceReport"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()))

	var filters model.ReportFilters
	from, err := parseDateQuery(r, "from")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	filters.From = from
	to, err := parseDateQuery(r, "to")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	filters.To = to
	if category := r.URL.Query().Get("category"); category != "" {
		filters.Category = &category
	}
	if raw := r.URL.Query().Get("player_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			appErr := model.NewAppError("INVALID_QUERY_PARAM", "player_idの形式が正しくありません。", "player_id", model.ErrInvalidInput)
			webutil.HandleError(w, logger, appErr)
			return
		}
		filters.PlayerID = &id
	}

	report, err := h.service.GetAttendanceReport(r.Context(), ownerID, filters)
	if err != nil {
		logger.Error("Error building attendance report", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, report)
}
