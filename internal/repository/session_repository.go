//go:generate mockery --name SessionRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go_5_attend_keep/internal/middleware"
	"go_5_attend_keep/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, db *gorm.DB, session *model.TrainingSession) error
	FindByID(ctx context.Context, db *gorm.DB, ownerID, sessionID uuid.UUID) (*model.TrainingSession, error)
	// FindByDate は (owner, date[, training]) に一致するセッションを探す。
	// trainingID が nil のときは日付だけで照合する。
	FindByDate(ctx context.Context, db *gorm.DB, ownerID uuid.UUID, date time.Time, trainingID *uuid.UUID) (*model.TrainingSession, error)
	FindByOwner(ctx context.Context, db *gorm.DB, ownerID uuid.UUID, filter model.ListSessionsFilter) ([]*model.TrainingSession, error)
	Delete(ctx context.Context, db *gorm.DB, ownerID, sessionID uuid.UUID) error
}

type gormSessionRepository struct{}

func NewGormSessionRepository() SessionRepository {
	return &gormSessionRepository{}
}

func (r *gormSessionRepository) Create(ctx context.Context, db *gorm.DB, session *model.TrainingSession) error {
	logger := middleware.GetLogger(ctx)
	result := db.WithContext(ctx).Create(session)
	if result.Error != nil {
		logger.Error("Error creating training session in DB",
			"error", result.Error,
			"owner_id", session.OwnerID.String(),
			"date", session.Date.Format("2006-01-02"),
		)
		return fmt.Errorf("gormSessionRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormSessionRepository) FindByID(ctx context.Context, db *gorm.DB, ownerID, sessionID uuid.UUID) (*model.TrainingSession, error) {
	var session model.TrainingSession
	result := db.WithContext(ctx).Preload("Training").
		Where("owner_id = ? AND session_id = ?", ownerID, sessionID).
		First(&session)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormSessionRepository.FindByID: %w", result.Error)
	}
	return &session, nil
}

func (r *gormSessionRepository) FindByDate(ctx context.Context, db *gorm.DB, ownerID uuid.UUID, date time.Time, trainingID *uuid.UUID) (*model.TrainingSession, error) {
	query := db.WithContext(ctx).Where("owner_id = ? AND date = ?", ownerID, date)
	if trainingID != nil {
		query = query.Where("training_id = ?", *trainingID)
	}

	var session model.TrainingSession
	result := query.First(&session)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormSessionRepository.FindByDate: %w", result.Error)
	}
	return &session, nil
}

func (r *gormSessionRepository) FindByOwner(ctx context.Context, db *gorm.DB, ownerID uuid.UUID, filter model.ListSessionsFilter) ([]*model.TrainingSession, error) {
	logger := middleware.GetLogger(ctx)
	query := db.WithContext(ctx).Preload("Training").Where("owner_id = ?", ownerID)
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}
	if filter.TrainingID != nil {
		query = query.Where("training_id = ?", *filter.TrainingID)
	}

	var sessions []*model.TrainingSession
	result := query.Order("date DESC").Find(&sessions)
	if result.Error != nil {
		logger.Error("Error finding sessions by owner in DB", "error", result.Error, "owner_id", ownerID.String())
		return nil, fmt.Errorf("gormSessionRepository.FindByOwner: %w", result.Error)
	}
	return sessions, nil
}

func (r *gormSessionRepository) Delete(ctx context.Context, db *gorm.DB, ownerID, sessionID uuid.UUID) error {
	result := db.WithContext(ctx).Where("owner_id = ? AND session_id = ?", ownerID, sessionID).Delete(&model.TrainingSession{})
	if result.Error != nil {
		return fmt.Errorf("gormSessionRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
