package service

import (
	"context"
	"errors"

	"go_5_attend_keep/internal/middleware"
	"go_5_attend_keep/internal/model"
	"go_5_attend_keep/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService は管理者によるアカウント管理。ルーティング側で
// AdminOnlyMiddleware を通す前提だが、削除の自己削除ガードはここで行う。
type UserService interface {
	ListUsers(ctx context.Context) ([]model.UserResponse, error)
	CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.UserResponse, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, req *model.UpdateUserRequest) (*model.UserResponse, error)
	DeleteUser(ctx context.Context, actorID, targetID uuid.UUID) error
}

type userService struct {
	db       *gorm.DB
	userRepo repository.UserRepository
}

func NewUserService(db *gorm.DB, userRepo repository.UserRepository) UserService {
	return &userService{
		db:       db,
		userRepo: userRepo,
	}
}

func (s *userService) ListUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx, s.db)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "ユーザー一覧の取得に失敗しました。", "", err)
	}

	responses := make([]model.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}
	return responses, nil
}

func (s *userService) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.UserResponse, error) {
	logger := middleware.GetLogger(ctx)
	var created *model.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Emailでの重複チェック
		_, err := s.userRepo.FindByEmail(ctx, tx, req.Email)
		if err == nil {
			logger.Warn("Email already exists", "email", req.Email)
			return model.NewAppError("DUPLICATE_EMAIL", "このメールアドレスは既に使用されています。", "email", model.ErrConflict)
		}
		if !errors.Is(err, model.ErrNotFound) {
			logger.Error("Failed to check email existence", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("Failed to hash password", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "パスワードの処理中にエラーが発生しました。", "", err)
		}

		user := &model.User{
			UserID:       uuid.New(),
			Email:        req.Email,
			PasswordHash: string(hash),
			Name:         req.Name,
			Role:         req.Role,
			IsActive:     true,
		}
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			// Create内で重複が検知された場合（レースコンディション対策）
			if errors.Is(err, model.ErrConflict) {
				return model.NewAppError("DUPLICATE_EMAIL", "このメールアドレスは既に使用されています。", "email", model.ErrConflict)
			}
			logger.Error("Failed to create user in DB", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ユーザーの作成に失敗しました。", "", err)
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := created.ToResponse()
	return &resp, nil
}

func (s *userService) UpdateUser(ctx context.Context, userID uuid.UUID, req *model.UpdateUserRequest) (*model.UserResponse, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID.String())
	var updated *model.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.userRepo.FindByID(ctx, tx, userID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "ユーザーが見つかりません。", "", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
		}

		updates := make(map[string]interface{})
		if req.Email != nil {
			updates["email"] = *req.Email
		}
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Role != nil {
			updates["role"] = *req.Role
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
		}
		if req.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				logger.Error("Failed to hash password", "error", err)
				return model.NewAppError("INTERNAL_SERVER_ERROR", "パスワードの処理中にエラーが発生しました。", "", err)
			}
			updates["password_hash"] = string(hash)
		}

		if len(updates) > 0 {
			if err := s.userRepo.Update(ctx, tx, userID, updates); err != nil {
				if errors.Is(err, model.ErrConflict) {
					return model.NewAppError("DUPLICATE_EMAIL", "このメールアドレスは既に使用されています。", "email", model.ErrConflict)
				}
				logger.Error("Failed to update user", "error", err)
				return model.NewAppError("INTERNAL_SERVER_ERROR", "ユーザーの更新に失敗しました。", "", err)
			}
		}

		user, err := s.userRepo.FindByID(ctx, tx, userID)
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "更新後のユーザー取得に失敗しました。", "", err)
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := updated.ToResponse()
	return &resp, nil
}

// DeleteUser は物理削除。自分自身は削除できない。
func (s *userService) DeleteUser(ctx context.Context, actorID, targetID uuid.UUID) error {
	logger := middleware.GetLogger(ctx).With("target_id", targetID.String())

	if actorID == targetID {
		return model.NewAppError("SELF_DELETE", "自分自身のアカウントは削除できません。", "", model.ErrInvalidInput)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, err := s.userRepo.FindByID(ctx, tx, actorID)
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
		}
		if actor.Role != model.RoleAdmin {
			return model.NewAppError("FORBIDDEN", "管理者権限が必要です。", "", model.ErrForbidden)
		}

		if err := s.userRepo.Delete(ctx, tx, targetID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "ユーザーが見つかりません。", "", model.ErrNotFound)
			}
			logger.Error("Failed to delete user", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ユーザーの削除に失敗しました。", "", err)
		}

		logger.Info("User deleted")
		return nil
	})
}
