//go:generate mockery --name TrainingRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_5_attend_keep/internal/middleware"
	"go_5_attend_keep/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrainingRepository interface {
	Create(ctx context.Context, db *gorm.DB, training *model.Training) error
	FindByID(ctx context.Context, db *gorm.DB, ownerID, trainingID uuid.UUID) (*model.Training, error)
	FindByOwner(ctx context.Context, db *gorm.DB, ownerID uuid.UUID, active *bool) ([]*model.Training, error)
	Update(ctx context.Context, db *gorm.DB, ownerID, trainingID uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, db *gorm.DB, ownerID, trainingID uuid.UUID) error
}

type gormTrainingRepository struct{}

func NewGormTrainingRepository() TrainingRepository {
	return &gormTrainingRepository{}
}

func (r *gormTrainingRepository) Create(ctx context.Context, db *gorm.DB, training *model.Training) error {
	logger := middleware.GetLogger(ctx)
	result := db.WithContext(ctx).Create(training)
	if result.Error != nil {
		logger.Error("Error creating training in DB",
			"error", result.Error,
			"owner_id", training.OwnerID.String(),
		)
		return fmt.Errorf("gormTrainingRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormTrainingRepository) FindByID(ctx context.Context, db *gorm.DB, ownerID, trainingID uuid.UUID) (*model.Training, error) {
	var training model.Training
	result := db.WithContext(ctx).Where("owner_id = ? AND training_id = ?", ownerID, trainingID).First(&training)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormTrainingRepository.FindByID: %w", result.Error)
	}
	return &training, nil
}

func (r *gormTrainingRepository) FindByOwner(ctx context.Context, db *gorm.DB, ownerID uuid.UUID, active *bool) ([]*model.Training, error) {
	logger := middleware.GetLogger(ctx)
	query := db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if active != nil {
		query = query.Where("is_active = ?", *active)
	}

	var trainings []*model.Training
	result := query.Order("day_of_week ASC, start_time ASC").Find(&trainings)
	if result.Error != nil {
		logger.Error("Error finding trainings by owner in DB", "error", result.Error, "owner_id", ownerID.String())
		return nil, fmt.Errorf("gormTrainingRepository.FindByOwner: %w", result.Error)
	}
	return trainings, nil
}

func (r *gormTrainingRepository) Update(ctx context.Context, db *gorm.DB, ownerID, trainingID uuid.UUID, updates map[string]interface{}) error {
	result := db.WithContext(ctx).Model(&model.Training{}).
		Where("owner_id = ? AND training_id = ?", ownerID, trainingID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("gormTrainingRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormTrainingRepository) Delete(ctx context.Context, db *gorm.DB, ownerID, trainingID uuid.UUID) error {
	result := db.WithContext(ctx).Where("owner_id = ? AND training_id = ?", ownerID, trainingID).Delete(&model.Training{})
	if result.Error != nil {
		return fmt.Errorf("gormTrainingRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
