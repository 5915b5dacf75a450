//go:generate mockery --name AttendanceRepository --output ./mocks --outpkg mocks --case=underscore
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
	"gorm.io/gorm/clause"
)

// AttendanceRepository は出欠台帳への読み書き。
// 書き込みは (session_id, player_id) のユニーク制約に対するUPSERTで、
// 競合解決はストアのON CONFLICT句に任せる（後勝ち）。
type AttendanceRepository interface {
	Upsert(ctx context.Context, db *gorm.DB, record *model.AttendanceRecord) error
	FindByID(ctx context.Context, db *gorm.DB, ownerID, attendanceID uuid.UUID) (*model.AttendanceRecord, error)
	FindBySessionAndPlayer(ctx context.Context, db *gorm.DB, sessionID, playerID uuid.UUID) (*model.AttendanceRecord, error)
	ListBySession(ctx context.Context, db *gorm.DB, sessionID uuid.UUID) ([]model.AttendanceWithPlayer, error)
	Update(ctx context.Context, db *gorm.DB, attendanceID uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, db *gorm.DB, attendanceID uuid.UUID) error
	DeleteByPlayer(ctx context.Context, db *gorm.DB, playerID uuid.UUID) error
	ListSessionRowsSince(ctx context.Context, db *gorm.DB, ownerID uuid.UUID, since time.Time) ([]model.SessionAttendanceRow, error)
	ListCategoryRowsSince(ctx context.Context, db *gorm.DB, ownerID uuid.UUID, since time.Time) ([]model.CategoryAttendanceRow, error)
	ListReportRows(ctx context.Context, db *gorm.DB, ownerID uuid.UUID, filters model.ReportFilters) ([]model.ReportRow, error)
}

type gormAttendanceRepository struct{}

func NewGormAttendanceRepository() AttendanceRepository {
	return &gormAttendanceRepository{}
}

func (r *gormAttendanceRepository) Upsert(ctx context.Context, db *gorm.DB, record *model.AttendanceRecord) error {
	logger := middleware.GetLogger(ctx)
	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"attended", "absence_reason", "updated_at",
		}),
	}).Create(record)
	if result.Error != nil {
		logger.Error("Error upserting attendance in DB",
			"error", result.Error,
			"session_id", record.SessionID.String(),
			"player_id", record.PlayerID.String(),
		)
		return fmt.Errorf("gormAttendanceRepository.Upsert: %w", result.Error)
	}
	return nil
}

// FindByID はセッション経由で所有者を突き合わせる。他テナントの行はNotFound。
func (r *gormAttendanceRepository) FindByID(ctx context.Context, db *gorm.DB, ownerID, attendanceID uuid.UUID) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	result := db.WithContext(ctx).
		Select("attendance.*").
		Joins("JOIN training_sessions ON training_sessions.session_id = attendance.session_id").
		Where("attendance.attendance_id = ? AND training_sessions.owner_id = ?", attendanceID, ownerID).
		First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormAttendanceRepository.FindByID: %w", result.Error)
	}
	return &record, nil
}

func (r *gormAttendanceRepository) FindBySessionAndPlayer(ctx context.Context, db *gorm.DB, sessionID, playerID uuid.UUID) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	result := db.WithContext(ctx).
		Where("session_id = ? AND player_id = ?", sessionID, playerID).
		First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormAttendanceRepository.FindBySessionAndPlayer: %w", result.Error)
	}
	return &record, nil
}

func (r *gormAttendanceRepository) ListBySession(ctx context.Context, db *gorm.DB, sessionID uuid.UUID) ([]model.AttendanceWithPlayer, error) {
	var rows []model.AttendanceWithPlayer
	result := db.WithContext(ctx).
		Table("attendance").
		Select(`attendance.attendance_id, attendance.session_id, attendance.player_id,
			attendance.attended, attendance.absence_reason, attendance.updated_at,
			players.name, players.last_name, players.category, players.position`).
		Joins("JOIN players ON players.player_id = attendance.player_id").
		Where("attendance.session_id = ?", sessionID).
		Order("players.last_name ASC, players.name ASC").
		Scan(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("gormAttendanceRepository.ListBySession: %w", result.Error)
	}
	return rows, nil
}

func (r *gormAttendanceRepository) Update(ctx context.Context, db *gorm.DB, attendanceID uuid.UUID, updates map[string]interface{}) error {
	result := db.WithContext(ctx).Model(&model.AttendanceRecord{}).
		Where("attendance_id = ?", attendanceID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("gormAttendanceRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormAttendanceRepository) Delete(ctx context.Context, db *gorm.DB, attendanceID uuid.UUID) error {
	result := db.WithContext(ctx).Where("attendance_id = ?", attendanceID).Delete(&model.AttendanceRecord{})
	if result.Error != nil {
		return fmt.Errorf("gormAttendanceRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormAttendanceRepository) DeleteByPlayer(ctx context.Context, db *gorm.DB, playerID uuid.UUID) error {
	result := db.WithContext(ctx).Where("player_id = ?", playerID).Delete(&model.AttendanceRecord{})
	if result.Error != nil {
		return fmt.Errorf("gormAttendanceRepository.DeleteByPlayer: %w", result.Error)
	}
	return nil
}

// ListSessionRowsSince は期間内の出欠行を (session_id, attended) の形で返す。
// セッション単位の比率計算は集計側の純関数が行う。
func (r *gormAttendanceRepository) ListSessionRowsSince(ctx context.Context, db *gorm.DB, ownerID uuid.UUID, since time.Time) ([]model.SessionAttendanceRow, error) {
	var rows []model.SessionAttendanceRow
	result := db.WithContext(ctx).
		Table("attendance").
		Select("attendance.session_id, attendance.attended").
		Joins("JOIN training_sessions ON training_sessions.session_id = attendance.session_id").
		Where("training_sessions.owner_id = ? AND training_sessions.date >= ?", ownerID, since).
		Scan(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("gormAttendanceRepository.ListSessionRowsSince: %w", result.Error)
	}
	return rows, nil
}

func (r *gormAttendanceRepository) ListCategoryRowsSince(ctx context.Context, db *gorm.DB, ownerID uuid.UUID, since time.Time) ([]model.CategoryAttendanceRow, error) {
	var rows []model.CategoryAttendanceRow
	result := db.WithContext(ctx).
		Table("attendance").
		Select("players.category, training_sessions.date, attendance.attended").
		Joins("JOIN players ON players.player_id = attendance.player_id").
		Joins("JOIN training_sessions ON training_sessions.session_id = attendance.session_id").
		Where("training_sessions.owner_id = ? AND training_sessions.date >= ?", ownerID, since).
		Scan(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("gormAttendanceRepository.ListCategoryRowsSince: %w", result.Error)
	}
	return rows, nil
}

// ListReportRows はレポート用の明細行を返す。集計は行わない。
func (r *gormAttendanceRepository) ListReportRows(ctx context.Context, db *gorm.DB, ownerID uuid.UUID, filters model.ReportFilters) ([]model.ReportRow, error) {
	logger := middleware.GetLogger(ctx)
	query := db.WithContext(ctx).
		Table("attendance").
		Select(`players.player_id, players.name, players.last_name, players.category, players.position,
			training_sessions.date, COALESCE(trainings.name, '') AS training_name,
			attendance.attended, attendance.absence_reason`).
		Joins("JOIN players ON players.player_id = attendance.player_id").
		Joins("JOIN training_sessions ON training_sessions.session_id = attendance.session_id").
		Joins("LEFT JOIN trainings ON trainings.training_id = training_sessions.training_id").
		Where("training_sessions.owner_id = ? AND players.owner_id = ?", ownerID, ownerID)

	if filters.From != nil {
		query = query.Where("training_sessions.date >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("training_sessions.date <= ?", *filters.To)
	}
	if filters.Category != nil {
		query = query.Where("players.category = ?", *filters.Category)
	}
	if filters.PlayerID != nil {
		query = query.Where("players.player_id = ?", *filters.PlayerID)
	}

	var rows []model.ReportRow
	result := query.Order("players.last_name ASC, players.name ASC, training_sessions.date ASC").Scan(&rows)
	if result.Error != nil {
		logger.Error("Error listing report rows in DB", "error", result.Error, "owner_id", ownerID.String())
		return nil, fmt.Errorf("gormAttendanceRepository.ListReportRows: %w", result.Error)
	}
	return rows, nil
}
