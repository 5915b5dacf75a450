//go:generate mockery --name ConfirmationRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"fmt"

	"go_5_attend_keep/internal/middleware"
	"go_5_attend_keep/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConfirmationRepository は参加確認（RSVP）の読み書き。
// ユニーク制約とUPSERTの扱いは出欠と同じだが、ライフサイクルは独立。
type ConfirmationRepository interface {
	Upsert(ctx context.Context, db *gorm.DB, record *model.TrainingConfirmation) error
	ListBySession(ctx context.Context, db *gorm.DB, sessionID uuid.UUID) ([]model.TrainingConfirmation, error)
	DeleteByPlayer(ctx context.Context, db *gorm.DB, playerID uuid.UUID) error
}

type gormConfirmationRepository struct{}

func NewGormConfirmationRepository() ConfirmationRepository {
	return &gormConfirmationRepository{}
}

func (r *gormConfirmationRepository) Upsert(ctx context.Context, db *gorm.DB, record *model.TrainingConfirmation) error {
	logger := middleware.GetLogger(ctx)
	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "notes", "updated_at",
		}),
	}).Create(record)
	if result.Error != nil {
		logger.Error("Error upserting confirmation in DB",
			"error", result.Error,
			"session_id", record.SessionID.String(),
			"player_id", record.PlayerID.String(),
		)
		return fmt.Errorf("gormConfirmationRepository.Upsert: %w", result.Error)
	}
	return nil
}

func (r *gormConfirmationRepository) ListBySession(ctx context.Context, db *gorm.DB, sessionID uuid.UUID) ([]model.TrainingConfirmation, error) {
	var records []model.TrainingConfirmation
	result := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("updated_at DESC").
		Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("gormConfirmationRepository.ListBySession: %w", result.Error)
	}
	return records, nil
}

func (r *gormConfirmationRepository) DeleteByPlayer(ctx context.Context, db *gorm.DB, playerID uuid.UUID) error {
	result := db.WithContext(ctx).Where("player_id = ?", playerID).Delete(&model.TrainingConfirmation{})
	if result.Error != nil {
		return fmt.Errorf("gormConfirmationRepository.DeleteByPlayer: %w", result.Error)
	}
	return nil
}
