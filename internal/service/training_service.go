package service

import (
	"context"
	"errors"

	"go_5_attend_keep/internal/middleware"
	"go_5_attend_keep/internal/model"
	"go_5_attend_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrainingService interface {
	CreateTraining(ctx context.Context, ownerID uuid.UUID, req *model.PostTrainingRequest) (*model.Training, error)
	GetTraining(ctx context.Context, ownerID, trainingID uuid.UUID) (*model.Training, error)
	ListTrainings(ctx context.Context, ownerID uuid.UUID, active *bool) ([]*model.Training, error)
	UpdateTraining(ctx context.Context, ownerID, trainingID uuid.UUID, req *model.UpdateTrainingRequest) (*model.Training, error)
	DeleteTraining(ctx context.Context, ownerID, trainingID uuid.UUID) error
}

type trainingService struct {
	db           *gorm.DB
	trainingRepo repository.TrainingRepository
}

func NewTrainingService(db *gorm.DB, trainingRepo repository.TrainingRepository) TrainingService {
	return &trainingService{db: db, trainingRepo: trainingRepo}
}

func (s *trainingService) CreateTraining(ctx context.Context, ownerID uuid.UUID, req *model.PostTrainingRequest) (*model.Training, error) {
	logger := middleware.GetLogger(ctx).With("owner_id", ownerID.String())

	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	if name == "" {
		// 名称未指定なら曜日名から補完する
		name = model.DayNames[*req.DayOfWeek] + "練習"
	}

	training := &model.Training{
		TrainingID: uuid.New(),
		OwnerID:    ownerID,
		DayOfWeek:  *req.DayOfWeek,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Name:       name,
		IsActive:   true,
	}

	if err := s.trainingRepo.Create(ctx, s.db, training); err != nil {
		logger.Error("Failed to create training", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "練習枠の作成に失敗しました。", "", err)
	}

	logger.Info("Training created", "training_id", training.TrainingID.String())
	return training, nil
}

func (s *trainingService) GetTraining(ctx context.Context, ownerID, trainingID uuid.UUID) (*model.Training, error) {
	training, err := s.trainingRepo.FindByID(ctx, s.db, ownerID, trainingID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("NOT_FOUND", "練習枠が見つかりません。", "", model.ErrNotFound)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
	}
	return training, nil
}

func (s *trainingService) ListTrainings(ctx context.Context, ownerID uuid.UUID, active *bool) ([]*model.Training, error) {
	trainings, err := s.trainingRepo.FindByOwner(ctx, s.db, ownerID, active)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "練習枠一覧の取得に失敗しました。", "", err)
	}
	return trainings, nil
}

func (s *trainingService) UpdateTraining(ctx context.Context, ownerID, trainingID uuid.UUID, req *model.UpdateTrainingRequest) (*model.Training, error) {
	var updated *model.Training

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.trainingRepo.FindByID(ctx, tx, ownerID, trainingID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "練習枠が見つかりません。", "", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
		}

		updates := make(map[string]interface{})
		if req.DayOfWeek != nil {
			updates["day_of_week"] = *req.DayOfWeek
		}
		if req.StartTime != nil {
			updates["start_time"] = *req.StartTime
		}
		if req.EndTime != nil {
			updates["end_time"] = *req.EndTime
		}
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
		}

		if len(updates) > 0 {
			if err := s.trainingRepo.Update(ctx, tx, ownerID, trainingID, updates); err != nil {
				return model.NewAppError("INTERNAL_SERVER_ERROR", "練習枠の更新に失敗しました。", "", err)
			}
		}

		training, err := s.trainingRepo.FindByID(ctx, tx, ownerID, trainingID)
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "更新後の練習枠取得に失敗しました。", "", err)
		}
		updated = training
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *trainingService) DeleteTraining(ctx context.Context, ownerID, trainingID uuid.UUID) error {
	logger := middleware.GetLogger(ctx).With("owner_id", ownerID.String(), "training_id", trainingID.String())

	err := s.trainingRepo.Delete(ctx, s.db, ownerID, trainingID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.NewAppError("NOT_FOUND", "練習枠が見つかりません。", "", model.ErrNotFound)
		}
		logger.Error("Failed to delete training", "error", err)
		return model.NewAppError("INTERNAL_SERVER_ERROR", "練習枠の削除に失敗しました。", "", err)
	}

	logger.Info("Training deleted")
	return nil
}
