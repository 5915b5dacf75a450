package handlers

import (
	"log/slog"
	"net/http"

	"go_5_attend_keep/internal/model"
	"go_5_attend_keep/internal/service"
	"go_5_attend_keep/internal/webutil"

	"github.com/google/uuid"
)

type AttendanceHandler struct {
	service service.AttendanceService
	logger  *slog.Logger
}

func NewAttendanceHandler(s service.AttendanceService, logger *slog.Logger) *AttendanceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceHandler{service: s, logger: logger}
}

// ResolveSession は (日付, 練習枠) に対応するセッションを取得または作成するハンドラ。
// 同じ引数で何度呼んでも同じセッションが返る。
func (h *AttendanceHandler) ResolveSession(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ResolveSession"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()))

	var req model.ResolveSessionRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	session, err := h.service.ResolveSession(r.Context(), ownerID, &req)
	if err != nil {
		logger.Error("Error resolving session in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Session resolved", slog.String("session_id", session.SessionID.String()))
	webutil.RespondWithJSON(w, http.StatusOK, session)
}

// GetSessions はセッション一覧を取得するハンドラ。
// クエリの from / to (YYYY-MM-DD)・training_id で絞り込める。
func (h *AttendanceHandler) GetSessions(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetSessions"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()))

	var filter model.ListSessionsFilter
	from, err := parseDateQuery(r, "from")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	filter.From = from
	to, err := parseDateQuery(r, "to")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	filter.To = to
	if raw := r.URL.Query().Get("training_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			appErr := model.NewAppError("INVALID_QUERY_PARAM", "training_idの形式が正しくありません。", "training_id", model.ErrInvalidInput)
			webutil.HandleError(w, logger, appErr)
			return
		}
		filter.TrainingID = &id
	}

	sessions, err := h.service.ListSessions(r.Context(), ownerID, filter)
	if err != nil {
		logger.Error("Error listing sessions in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if sessions == nil {
		sessions = []*model.TrainingSession{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, sessions)
}

// GetSessionDetail はセッション本体と出欠・参加確認をまとめて返すハンドラ
func (h *AttendanceHandler) GetSessionDetail(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetSessionDetail"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	sessionID, ok := parseURLUUID(w, r, logger, "session_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()), slog.String("session_id", sessionID.String()))

	detail, err := h.service.GetSessionDetail(r.Context(), ownerID, sessionID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, detail)
}

// DeleteSession はセッションを出欠・参加確認ごと削除するハンドラ
func (h *AttendanceHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteSession"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	sessionID, ok := parseURLUUID(w, r, logger, "session_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()), slog.String("session_id", sessionID.String()))

	if err := h.service.DeleteSession(r.Context(), ownerID, sessionID); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Session deleted successfully")
	w.WriteHeader(http.StatusNoContent)
}

// PostAttendance は1選手分の出欠を記録するハンドラ
func (h *AttendanceHandler) PostAttendance(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostAttendance"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()))

	var req model.PostAttendanceRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	record, err := h.service.RecordAttendance(r.Context(), ownerID, &req)
	if err != nil {
		logger.Error("Error recording attendance in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Attendance recorded", slog.String("attendance_id", record.AttendanceID.String()))
	webutil.RespondWithJSON(w, http.StatusOK, record)
}

// PostAttendanceBulk はセッション1件分の出欠をまとめて記録するハンドラ
func (h *AttendanceHandler) PostAttendanceBulk(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostAttendanceBulk"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()))

	var req model.BulkAttendanceRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	result, err := h.service.RecordAttendanceBulk(r.Context(), ownerID, &req)
	if err != nil {
		logger.Error("Error recording bulk attendance in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Bulk attendance recorded",
		slog.Int("applied", result.Applied), slog.Int("skipped", len(result.SkippedPlayerIDs)))
	webutil.RespondWithJSON(w, http.StatusOK, result)
}

// PatchAttendance は既存の出欠記録を部分更新するハンドラ
func (h *AttendanceHandler) PatchAttendance(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PatchAttendance"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	attendanceID, ok := parseURLUUID(w, r, logger, "attendance_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()), slog.String("attendance_id", attendanceID.String()))

	var req model.UpdateAttendanceRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	record, err := h.service.UpdateAttendance(r.Context(), ownerID, attendanceID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Attendance updated successfully")
	webutil.RespondWithJSON(w, http.StatusOK, record)
}

// DeleteAttendance は出欠記録を削除するハンドラ
func (h *AttendanceHandler) DeleteAttendance(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteAttendance"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	attendanceID, ok := parseURLUUID(w, r, logger, "attendance_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()), slog.String("attendance_id", attendanceID.String()))

	if err := h.service.DeleteAttendance(r.Context(), ownerID, attendanceID); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Attendance deleted successfully")
	w.WriteHeader(http.StatusNoContent)
}

// PostConfirmation はセッション前の参加確認を登録・更新するハンドラ
func (h *AttendanceHandler) PostConfirmation(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostConfirmation"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()))

	var req model.PostConfirmationRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	confirmation, err := h.service.UpsertConfirmation(r.Context(), ownerID, &req)
	if err != nil {
		logger.Error("Error upserting confirmation in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Confirmation upserted", slog.String("status", confirmation.Status))
	webutil.RespondWithJSON(w, http.StatusOK, confirmation)
}
