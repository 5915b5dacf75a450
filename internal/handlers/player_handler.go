package handlers

import (
	"log/slog"
	"net/http"

	"go_5_attend_keep/internal/model"
	"go_5_attend_keep/internal/service"
	"go_5_attend_keep/internal/webutil"
)

type PlayerHandler struct {
	service           service.PlayerService
	attendanceService service.AttendanceService
	logger            *slog.Logger
}

func NewPlayerHandler(s service.PlayerService, as service.AttendanceService, logger *slog.Logger) *PlayerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlayerHandler{service: s, attendanceService: as, logger: logger}
}

// PostPlayer は新しい選手リソースを作成するためのハンドラ
func (h *PlayerHandler) PostPlayer(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostPlayer"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()))

	var req model.PostPlayerRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	player, err := h.service.CreatePlayer(r.Context(), ownerID, &req)
	if err != nil {
		logger.Error("Error creating player in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Player created successfully", slog.String("player_id", player.PlayerID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, player)
}

// GetPlayers は選手リソースの一覧を取得するためのハンドラ。
// クエリの active=true|false と category で絞り込める。
func (h *PlayerHandler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetPlayers"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()))

	var filter model.ListPlayersFilter
	switch r.URL.Query().Get("active") {
	case "true":
		t := true
		filter.Active = &t
	case "false":
		f := false
		filter.Active = &f
	}
	if category := r.URL.Query().Get("category"); category != "" {
		filter.Category = &category
	}

	players, err := h.service.ListPlayers(r.Context(), ownerID, filter)
	if err != nil {
		logger.Error("Error listing players in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if players == nil {
		players = []*model.Player{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, players)
}

// GetPlayer は特定の選手リソースを取得するためのハンドラ
func (h *PlayerHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetPlayer"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	playerID, ok := parseURLUUID(w, r, logger, "player_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()), slog.String("player_id", playerID.String()))

	player, err := h.service.GetPlayer(r.Context(), ownerID, playerID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, player)
}

// PatchPlayer は特定の選手リソースの一部を更新するためのハンドラ
func (h *PlayerHandler) PatchPlayer(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PatchPlayer"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	playerID, ok := parseURLUUID(w, r, logger, "player_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()), slog.String("player_id", playerID.String()))

	var req model.UpdatePlayerRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	player, err := h.service.UpdatePlayer(r.Context(), ownerID, playerID, &req)
	if err != nil {
		logger.Error("Error updating player in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Player updated successfully")
	webutil.RespondWithJSON(w, http.StatusOK, player)
}

// ToggleActive は選手の有効/無効を切り替えるためのハンドラ
func (h *PlayerHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ToggleActive"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	playerID, ok := parseURLUUID(w, r, logger, "player_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()), slog.String("player_id", playerID.String()))

	player, err := h.service.ToggleActive(r.Context(), ownerID, playerID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Player active flag toggled", slog.Bool("is_active", player.IsActive))
	webutil.RespondWithJSON(w, http.StatusOK, player)
}

// DeletePlayer は選手リソースを出欠記録ごと削除するためのハンドラ
func (h *PlayerHandler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeletePlayer"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	playerID, ok := parseURLUUID(w, r, logger, "player_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()), slog.String("player_id", playerID.String()))

	if err := h.service.DeletePlayer(r.Context(), ownerID, playerID); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Player deleted successfully")
	w.WriteHeader(http.StatusNoContent)
}

// GetPlayerStats は選手1人の出欠統計を取得するためのハンドラ。
// クエリの from / to (YYYY-MM-DD) で期間を絞れる。
func (h *PlayerHandler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetPlayerStats"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	playerID, ok := parseURLUUID(w, r, logger, "player_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()), slog.String("player_id", playerID.String()))

	from, err := parseDateQuery(r, "from")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	to, err := parseDateQuery(r, "to")
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	stats, err := h.attendanceService.GetPlayerStats(r.Context(), ownerID, playerID, from, to)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, stats)
}
