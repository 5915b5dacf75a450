package handlers

import (
	"log/slog"
	"net/http"

	"go_5_attend_keep/internal/model"
	"go_5_attend_keep/internal/service"
	"go_5_attend_keep/internal/webutil"
)

// UserHandler は管理者向けのユーザー管理API。
// ルーティング側で AdminOnlyMiddleware を通す前提。
type UserHandler struct {
	service service.UserService
	logger  *slog.Logger
}

func NewUserHandler(s service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{service: s, logger: logger}
}

// GetUsers はユーザー一覧を返すハンドラ
func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetUsers"))

	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		logger.Error("Error listing users in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if users == nil {
		users = []model.UserResponse{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, users)
}

// PostUser は新しいユーザーを作成するハンドラ
func (h *UserHandler) PostUser(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostUser"))

	var req model.CreateUserRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	user, err := h.service.CreateUser(r.Context(), &req)
	if err != nil {
		logger.Error("Error creating user in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("User created successfully", slog.String("user_id", user.UserID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, user)
}

// PatchUser はユーザー情報を部分更新するハンドラ
func (h *UserHandler) PatchUser(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PatchUser"))

	targetID, ok := parseURLUUID(w, r, logger, "user_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("target_user_id", targetID.String()))

	var req model.UpdateUserRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	user, err := h.service.UpdateUser(r.Context(), targetID, &req)
	if err != nil {
		logger.Error("Error updating user in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("User updated successfully")
	webutil.RespondWithJSON(w, http.StatusOK, user)
}

// DeleteUser はユーザーを削除するハンドラ。自分自身は削除できない。
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteUser"))

	actorID, ok := requireUserID(w, r, logger)
	if !ok {
		return
	}
	targetID, ok := parseURLUUID(w, r, logger, "user_id")
	if !ok {
		return
	}
	logger = logger.With(slog.String("actor_id", actorID.String()), slog.String("target_user_id", targetID.String()))

	if err := h.service.DeleteUser(r.Context(), actorID, targetID); err != nil {
		logger.Warn("Error deleting user in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("User deleted successfully")
	w.WriteHeader(http.StatusNoContent)
}
