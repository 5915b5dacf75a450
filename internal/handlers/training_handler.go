package handlers

import (
	"log/slog"
	"net/http"

	"go_5_attend_keep/internal/model"
	"go_5_attend_keep/internal/service"
	"go_5_attend_keep/internal/webutil"
)

type TrainingHandler struct {
	service service.TrainingService
	logger  *slog.Logger
}

func NewTrainingHandler(s service.TrainingService, logger *slog.Logger) *TrainingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TrainingHandler{service: s, logger: logger}
}

// PostTraining は新しい練習枠を作成するためのハンドラ
func (h *TrainingHandler) PostTraining(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostTraining"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()))

	var req model.PostTrainingRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	training, err := h.service.CreateTraining(r.Context(), ownerID, &req)
	if err != nil {
		logger.Error("Error creating training in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Training created successfully", slog.String("training_id", training.TrainingID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, training.ToResponse())
}

// GetTrainings は練習枠の一覧を取得するためのハンドラ。
// クエリの active=true|false で絞り込める。
func (h *TrainingHandler) GetTrainings(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetTrainings"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()))

	var active *bool
	switch r.URL.Query().Get("active") {
	case "true":
		t := true
		active = &t
	case "false":
		f := false
		active = &f
	}

	trainings, err := h.service.ListTrainings(r.Context(), ownerID, active)
	if err != nil {
		logger.Error("Error listing trainings in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	responses := make([]model.TrainingResponse, 0, len(trainings))
	for _, t := range trainings {
		responses = append(responses, t.ToResponse())
	}
	webutil.RespondWithJSON(w, http.StatusOK, responses)
}

// GetTraining は特定の練習枠を取得するためのハンドラ
func (h *TrainingHandler) GetTraining(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetTraining"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	trainingID, ok := parseURLUUID(w, r, logger, "training_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()), slog.String("training_id", trainingID.String()))

	training, err := h.service.GetTraining(r.Context(), ownerID, trainingID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, training.ToResponse())
}

// PatchTraining は練習枠の一部を更新するためのハンドラ
func (h *TrainingHandler) PatchTraining(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PatchTraining"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	trainingID, ok := parseURLUUID(w, r, logger, "training_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()), slog.String("training_id", trainingID.String()))

	var req model.UpdateTrainingRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	training, err := h.service.UpdateTraining(r.Context(), ownerID, trainingID, &req)
	if err != nil {
		logger.Error("Error updating training in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Training updated successfully")
	webutil.RespondWithJSON(w, http.StatusOK, training.ToResponse())
}

// DeleteTraining は練習枠を削除するためのハンドラ
func (h *TrainingHandler) DeleteTraining(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteTraining"))

	ownerID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	trainingID, ok := parseURLUUID(w, r, logger, "training_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("owner_id", ownerID.String()), slog.String("training_id", trainingID.String()))

	if err := h.service.DeleteTraining(r.Context(), ownerID, trainingID); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Training deleted successfully")
	w.WriteHeader(http.StatusNoContent)
}
