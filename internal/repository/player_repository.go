//go:generate mockery --name PlayerRepository --output ./mocks --outpkg mocks --case=underscore
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

// PlayerRepository の全クエリは owner_id で絞り込む。
// 他テナントの行は存在しないのと同じ扱いで model.ErrNotFound を返す。
type PlayerRepository interface {
	Create(ctx context.Context, db *gorm.DB, player *model.Player) error
	FindByID(ctx context.Context, db *gorm.DB, ownerID, playerID uuid.UUID) (*model.Player, error)
	FindByOwner(ctx context.Context, db *gorm.DB, ownerID uuid.UUID, filter model.ListPlayersFilter) ([]*model.Player, error)
	Update(ctx context.Context, db *gorm.DB, ownerID, playerID uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, db *gorm.DB, ownerID, playerID uuid.UUID) error
	CountActive(ctx context.Context, db *gorm.DB, ownerID uuid.UUID) (int64, error)
	FindActiveWithoutAttendance(ctx context.Context, db *gorm.DB, ownerID, sessionID uuid.UUID) ([]model.Player, error)
}

type gormPlayerRepository struct{}

func NewGormPlayerRepository() PlayerRepository {
	return &gormPlayerRepository{}
}

func (r *gormPlayerRepository) Create(ctx context.Context, db *gorm.DB, player *model.Player) error {
	logger := middleware.GetLogger(ctx)
	result := db.WithContext(ctx).Create(player)
	if result.Error != nil {
		logger.Error("Error creating player in DB",
			"error", result.Error,
			"owner_id", player.OwnerID.String(),
		)
		return fmt.Errorf("gormPlayerRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormPlayerRepository) FindByID(ctx context.Context, db *gorm.DB, ownerID, playerID uuid.UUID) (*model.Player, error) {
	var player model.Player
	result := db.WithContext(ctx).Where("owner_id = ? AND player_id = ?", ownerID, playerID).First(&player)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormPlayerRepository.FindByID: %w", result.Error)
	}
	return &player, nil
}

func (r *gormPlayerRepository) FindByOwner(ctx context.Context, db *gorm.DB, ownerID uuid.UUID, filter model.ListPlayersFilter) ([]*model.Player, error) {
	logger := middleware.GetLogger(ctx)
	query := db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}

	var players []*model.Player
	result := query.Order("last_name ASC, name ASC").Find(&players)
	if result.Error != nil {
		logger.Error("Error finding players by owner in DB", "error", result.Error, "owner_id", ownerID.String())
		return nil, fmt.Errorf("gormPlayerRepository.FindByOwner: %w", result.Error)
	}
	return players, nil
}

func (r *gormPlayerRepository) Update(ctx context.Context, db *gorm.DB, ownerID, playerID uuid.UUID, updates map[string]interface{}) error {
	result := db.WithContext(ctx).Model(&model.Player{}).
		Where("owner_id = ? AND player_id = ?", ownerID, playerID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("gormPlayerRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormPlayerRepository) Delete(ctx context.Context, db *gorm.DB, ownerID, playerID uuid.UUID) error {
	result := db.WithContext(ctx).Where("owner_id = ? AND player_id = ?", ownerID, playerID).Delete(&model.Player{})
	if result.Error != nil {
		return fmt.Errorf("gormPlayerRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormPlayerRepository) CountActive(ctx context.Context, db *gorm.DB, ownerID uuid.UUID) (int64, error) {
	var count int64
	result := db.WithContext(ctx).Model(&model.Player{}).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("gormPlayerRepository.CountActive: %w", result.Error)
	}
	return count, nil
}

// FindActiveWithoutAttendance はそのセッションに出欠行を持たない有効な選手を返す。
// セッション画面で「未記入」欄に並べるための問い合わせ。
func (r *gormPlayerRepository) FindActiveWithoutAttendance(ctx context.Context, db *gorm.DB, ownerID, sessionID uuid.UUID) ([]model.Player, error) {
	var players []model.Player
	result := db.WithContext(ctx).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Where("player_id NOT IN (?)",
			db.Model(&model.AttendanceRecord{}).Select("player_id").Where("session_id = ?", sessionID),
		).
		Order("last_name ASC, name ASC").
		Find(&players)
	if result.Error != nil {
		return nil, fmt.Errorf("gormPlayerRepository.FindActiveWithoutAttendance: %w", result.Error)
	}
	return players, nil
}
