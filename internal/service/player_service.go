package service

import (
	"context"
	"errors"
	"time"

	"go_5_attend_keep/internal/middleware"
	"go_5_attend_keep/internal/model"
	"go_5_attend_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlayerService interface {
	CreatePlayer(ctx context.Context, ownerID uuid.UUID, req *model.PostPlayerRequest) (*model.Player, error)
	GetPlayer(ctx context.Context, ownerID, playerID uuid.UUID) (*model.Player, error)
	ListPlayers(ctx context.Context, ownerID uuid.UUID, filter model.ListPlayersFilter) ([]*model.Player, error)
	UpdatePlayer(ctx context.Context, ownerID, playerID uuid.UUID, req *model.UpdatePlayerRequest) (*model.Player, error)
	ToggleActive(ctx context.Context, ownerID, playerID uuid.UUID) (*model.Player, error)
	DeletePlayer(ctx context.Context, ownerID, playerID uuid.UUID) error
}

type playerService struct {
	db               *gorm.DB
	playerRepo       repository.PlayerRepository
	attendanceRepo   repository.AttendanceRepository
	confirmationRepo repository.ConfirmationRepository
}

func NewPlayerService(db *gorm.DB, playerRepo repository.PlayerRepository, attendanceRepo repository.AttendanceRepository, confirmationRepo repository.ConfirmationRepository) PlayerService {
	return &playerService{
		db:               db,
		playerRepo:       playerRepo,
		attendanceRepo:   attendanceRepo,
		confirmationRepo: confirmationRepo,
	}
}

func (s *playerService) CreatePlayer(ctx context.Context, ownerID uuid.UUID, req *model.PostPlayerRequest) (*model.Player, error) {
	logger := middleware.GetLogger(ctx).With("owner_id", ownerID.String())

	player := &model.Player{
		PlayerID: uuid.New(),
		OwnerID:  ownerID,
		Name:     req.Name,
		LastName: req.LastName,
		Category: req.Category,
		IsActive: true,
	}
	if req.Phone != nil {
		player.Phone = *req.Phone
	}
	if req.Position != nil {
		player.Position = *req.Position
	}
	if req.BirthDate != nil {
		// 形式はバリデーション済み
		d, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			return nil, model.NewAppError("VALIDATION_ERROR", "生年月日の形式が正しくありません。", "birth_date", model.ErrInvalidInput)
		}
		player.BirthDate = &d
	}

	if err := s.playerRepo.Create(ctx, s.db, player); err != nil {
		logger.Error("Failed to create player", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "選手の作成に失敗しました。", "", err)
	}

	logger.Info("Player created", "player_id", player.PlayerID.String())
	return player, nil
}

func (s *playerService) GetPlayer(ctx context.Context, ownerID, playerID uuid.UUID) (*model.Player, error) {
	player, err := s.playerRepo.FindByID(ctx, s.db, ownerID, playerID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("NOT_FOUND", "選手が見つかりません。", "", model.ErrNotFound)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
	}
	return player, nil
}

func (s *playerService) ListPlayers(ctx context.Context, ownerID uuid.UUID, filter model.ListPlayersFilter) ([]*model.Player, error) {
	players, err := s.playerRepo.FindByOwner(ctx, s.db, ownerID, filter)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "選手一覧の取得に失敗しました。", "", err)
	}
	return players, nil
}

func (s *playerService) UpdatePlayer(ctx context.Context, ownerID, playerID uuid.UUID, req *model.UpdatePlayerRequest) (*model.Player, error) {
	logger := middleware.GetLogger(ctx).With("owner_id", ownerID.String(), "player_id", playerID.String())
	var updated *model.Player

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.playerRepo.FindByID(ctx, tx, ownerID, playerID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "選手が見つかりません。", "", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
		}

		updates := make(map[string]interface{})
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.LastName != nil {
			updates["last_name"] = *req.LastName
		}
		if req.Category != nil {
			updates["category"] = *req.Category
		}
		if req.Phone != nil {
			updates["phone"] = *req.Phone
		}
		if req.Position != nil {
			updates["position"] = *req.Position
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
		}
		if req.BirthDate != nil {
			d, err := time.Parse("2006-01-02", *req.BirthDate)
			if err != nil {
				return model.NewAppError("VALIDATION_ERROR", "生年月日の形式が正しくありません。", "birth_date", model.ErrInvalidInput)
			}
			updates["birth_date"] = d
		}

		if len(updates) > 0 {
			if err := s.playerRepo.Update(ctx, tx, ownerID, playerID, updates); err != nil {
				logger.Error("Failed to update player", "error", err)
				return model.NewAppError("INTERNAL_SERVER_ERROR", "選手の更新に失敗しました。", "", err)
			}
		}

		player, err := s.playerRepo.FindByID(ctx, tx, ownerID, playerID)
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "更新後の選手取得に失敗しました。", "", err)
		}
		updated = player
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ToggleActive は選手の有効/無効を反転する（ソフトな退部・復帰）
func (s *playerService) ToggleActive(ctx context.Context, ownerID, playerID uuid.UUID) (*model.Player, error) {
	var updated *model.Player

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		player, err := s.playerRepo.FindByID(ctx, tx, ownerID, playerID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "選手が見つかりません。", "", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
		}

		if err := s.playerRepo.Update(ctx, tx, ownerID, playerID, map[string]interface{}{
			"is_active": !player.IsActive,
		}); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "選手の更新に失敗しました。", "", err)
		}

		player, err = s.playerRepo.FindByID(ctx, tx, ownerID, playerID)
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "更新後の選手取得に失敗しました。", "", err)
		}
		updated = player
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePlayer は物理削除。ストアの外部キーカスケードには頼らず、
// 子（出欠・参加確認）→親（選手）の順で同一トランザクション内で消す。
func (s *playerService) DeletePlayer(ctx context.Context, ownerID, playerID uuid.UUID) error {
	logger := middleware.GetLogger(ctx).With("owner_id", ownerID.String(), "player_id", playerID.String())

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.playerRepo.FindByID(ctx, tx, ownerID, playerID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "選手が見つかりません。", "", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
		}

		if err := s.attendanceRepo.DeleteByPlayer(ctx, tx, playerID); err != nil {
			logger.Error("Failed to delete attendance for player", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "選手の削除に失敗しました。", "", err)
		}
		if err := s.confirmationRepo.DeleteByPlayer(ctx, tx, playerID); err != nil {
			logger.Error("Failed to delete confirmations for player", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "選手の削除に失敗しました。", "", err)
		}
		if err := s.playerRepo.Delete(ctx, tx, ownerID, playerID); err != nil {
			logger.Error("Failed to delete player", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "選手の削除に失敗しました。", "", err)
		}

		logger.Info("Player deleted with attendance records")
		return nil
	})
}
