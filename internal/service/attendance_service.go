package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go_5_attend_keep/internal/middleware"
	"go_5_attend_keep/internal/model"
	"go_5_attend_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttendanceService はセッション解決・出欠記録・参加確認のユースケースを束ねる。
// セッションは (日付, 練習枠) で一意に解決し、出欠は常にUPSERTで書く。
type AttendanceService interface {
	ResolveSession(ctx context.Context, ownerID uuid.UUID, req *model.ResolveSessionRequest) (*model.TrainingSession, error)
	ListSessions(ctx context.Context, ownerID uuid.UUID, filter model.ListSessionsFilter) ([]*model.TrainingSession, error)
	GetSessionDetail(ctx context.Context, ownerID, sessionID uuid.UUID) (*model.SessionDetail, error)
	DeleteSession(ctx context.Context, ownerID, sessionID uuid.UUID) error
	RecordAttendance(ctx context.Context, ownerID uuid.UUID, req *model.PostAttendanceRequest) (*model.AttendanceRecord, error)
	RecordAttendanceBulk(ctx context.Context, ownerID uuid.UUID, req *model.BulkAttendanceRequest) (*model.BulkAttendanceResult, error)
	UpdateAttendance(ctx context.Context, ownerID, attendanceID uuid.UUID, req *model.UpdateAttendanceRequest) (*model.AttendanceRecord, error)
	DeleteAttendance(ctx context.Context, ownerID, attendanceID uuid.UUID) error
	UpsertConfirmation(ctx context.Context, ownerID uuid.UUID, req *model.PostConfirmationRequest) (*model.TrainingConfirmation, error)
	GetPlayerStats(ctx context.Context, ownerID, playerID uuid.UUID, from, to *time.Time) (*model.PlayerStats, error)
}

type attendanceService struct {
	db               *gorm.DB
	sessionRepo      repository.SessionRepository
	attendanceRepo   repository.AttendanceRepository
	confirmationRepo repository.ConfirmationRepository
	playerRepo       repository.PlayerRepository
	trainingRepo     repository.TrainingRepository
}

func NewAttendanceService(
	db *gorm.DB,
	sessionRepo repository.SessionRepository,
	attendanceRepo repository.AttendanceRepository,
	confirmationRepo repository.ConfirmationRepository,
	playerRepo repository.PlayerRepository,
	trainingRepo repository.TrainingRepository,
) AttendanceService {
	return &attendanceService{
		db:               db,
		sessionRepo:      sessionRepo,
		attendanceRepo:   attendanceRepo,
		confirmationRepo: confirmationRepo,
		playerRepo:       playerRepo,
		trainingRepo:     trainingRepo,
	}
}

// ResolveSession は (日付, 練習枠) に対応するセッションを返す。無ければ作る。
// ルックアップと挿入を同一トランザクションで行い、同じ引数で何度呼んでも
// 同じ1行に収束する。
func (s *attendanceService) ResolveSession(ctx context.Context, ownerID uuid.UUID, req *model.ResolveSessionRequest) (*model.TrainingSession, error) {
	logger := middleware.GetLogger(ctx).With("owner_id", ownerID.String())

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, model.NewAppError("VALIDATION_ERROR", "日付の形式が正しくありません。", "date", model.ErrInvalidInput)
	}

	var trainingID *uuid.UUID
	if req.TrainingID != nil {
		id, err := uuid.Parse(*req.TrainingID)
		if err != nil {
			return nil, model.NewAppError("VALIDATION_ERROR", "練習枠IDの形式が正しくありません。", "training_id", model.ErrInvalidInput)
		}
		trainingID = &id
	}

	var resolved *model.TrainingSession
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 練習枠が指定されていればテナント内に存在することを確認する
		if trainingID != nil {
			if _, err := s.trainingRepo.FindByID(ctx, tx, ownerID, *trainingID); err != nil {
				if errors.Is(err, model.ErrNotFound) {
					return model.NewAppError("NOT_FOUND", "練習枠が見つかりません。", "training_id", model.ErrNotFound)
				}
				return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
			}
		}

		existing, err := s.sessionRepo.FindByDate(ctx, tx, ownerID, date, trainingID)
		if err == nil {
			resolved = existing
			return nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "セッションの検索に失敗しました。", "", err)
		}

		session := &model.TrainingSession{
			SessionID:  uuid.New(),
			OwnerID:    ownerID,
			TrainingID: trainingID,
			Date:       date,
		}
		if req.Notes != nil {
			session.Notes = *req.Notes
		}
		if err := s.sessionRepo.Create(ctx, tx, session); err != nil {
			logger.Error("Failed to create session", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "セッションの作成に失敗しました。", "", err)
		}
		logger.Info("Session created", "session_id", session.SessionID.String(), "date", req.Date)
		resolved = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func (s *attendanceService) ListSessions(ctx context.Context, ownerID uuid.UUID, filter model.ListSessionsFilter) ([]*model.TrainingSession, error) {
	sessions, err := s.sessionRepo.FindByOwner(ctx, s.db, ownerID, filter)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "セッション一覧の取得に失敗しました。", "", err)
	}
	return sessions, nil
}

// GetSessionDetail はセッション本体・出欠一覧・未記録の有効選手・参加確認をまとめて返す
func (s *attendanceService) GetSessionDetail(ctx context.Context, ownerID, sessionID uuid.UUID) (*model.SessionDetail, error) {
	session, err := s.sessionRepo.FindByID(ctx, s.db, ownerID, sessionID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("NOT_FOUND", "セッションが見つかりません。", "", model.ErrNotFound)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
	}

	attendance, err := s.attendanceRepo.ListBySession(ctx, s.db, sessionID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "出欠一覧の取得に失敗しました。", "", err)
	}

	pending, err := s.playerRepo.FindActiveWithoutAttendance(ctx, s.db, ownerID, sessionID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "未記録選手の取得に失敗しました。", "", err)
	}

	confirmations, err := s.confirmationRepo.ListBySession(ctx, s.db, sessionID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "参加確認の取得に失敗しました。", "", err)
	}

	return &model.SessionDetail{
		Session:        *session,
		Attendance:     attendance,
		PendingPlayers: pending,
		Confirmations:  confirmations,
	}, nil
}

func (s *attendanceService) DeleteSession(ctx context.Context, ownerID, sessionID uuid.UUID) error {
	logger := middleware.GetLogger(ctx).With("owner_id", ownerID.String(), "session_id", sessionID.String())

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.sessionRepo.FindByID(ctx, tx, ownerID, sessionID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "セッションが見つかりません。", "", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
		}

		// 子（出欠・参加確認）から先に消す
		if err := tx.Where("session_id = ?", sessionID).Delete(&model.AttendanceRecord{}).Error; err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "セッションの削除に失敗しました。", "", err)
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&model.TrainingConfirmation{}).Error; err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "セッションの削除に失敗しました。", "", err)
		}
		if err := s.sessionRepo.Delete(ctx, tx, ownerID, sessionID); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "セッションの削除に失敗しました。", "", err)
		}

		logger.Info("Session deleted")
		return nil
	})
}

// normalizeReason は出席時の欠席理由を必ずNULLへ落とす
func normalizeReason(attended bool, reason *string) *string {
	if attended {
		return nil
	}
	return reason
}

// RecordAttendance は1選手分の出欠をUPSERTする。セッション・選手いずれも
// リクエスト元テナントの所有であることを確認してから書く。
func (s *attendanceService) RecordAttendance(ctx context.Context, ownerID uuid.UUID, req *model.PostAttendanceRequest) (*model.AttendanceRecord, error) {
	logger := middleware.GetLogger(ctx).With("owner_id", ownerID.String())

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, model.NewAppError("VALIDATION_ERROR", "セッションIDの形式が正しくありません。", "session_id", model.ErrInvalidInput)
	}
	playerID, err := uuid.Parse(req.PlayerID)
	if err != nil {
		return nil, model.NewAppError("VALIDATION_ERROR", "選手IDの形式が正しくありません。", "player_id", model.ErrInvalidInput)
	}

	var result *model.AttendanceRecord
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.sessionRepo.FindByID(ctx, tx, ownerID, sessionID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "セッションが見つかりません。", "session_id", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
		}
		if _, err := s.playerRepo.FindByID(ctx, tx, ownerID, playerID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "選手が見つかりません。", "player_id", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
		}

		record := &model.AttendanceRecord{
			AttendanceID:  uuid.New(),
			SessionID:     sessionID,
			PlayerID:      playerID,
			Attended:      *req.Attended,
			AbsenceReason: normalizeReason(*req.Attended, req.AbsenceReason),
		}
		if err := s.attendanceRepo.Upsert(ctx, tx, record); err != nil {
			logger.Error("Failed to upsert attendance", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "出欠の記録に失敗しました。", "", err)
		}

		// 衝突時は既存行が更新されるので、返す行は読み直す
		saved, err := s.attendanceRepo.FindBySessionAndPlayer(ctx, tx, sessionID, playerID)
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "出欠の取得に失敗しました。", "", err)
		}
		result = saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordAttendanceBulk はセッション1件分の出欠をまとめてUPSERTする。
// 全件が単一トランザクションで書かれ、途中で失敗すれば1件も残らない。
// 他テナントの選手IDはエラーにせずスキップし、IDを結果に載せて返す。
func (s *attendanceService) RecordAttendanceBulk(ctx context.Context, ownerID uuid.UUID, req *model.BulkAttendanceRequest) (*model.BulkAttendanceResult, error) {
	logger := middleware.GetLogger(ctx).With("owner_id", ownerID.String())

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, model.NewAppError("VALIDATION_ERROR", "セッションIDの形式が正しくありません。", "session_id", model.ErrInvalidInput)
	}

	result := &model.BulkAttendanceResult{SkippedPlayerIDs: []uuid.UUID{}}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.sessionRepo.FindByID(ctx, tx, ownerID, sessionID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "セッションが見つかりません。", "session_id", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
		}

		for i, item := range req.Items {
			playerID, err := uuid.Parse(item.PlayerID)
			if err != nil {
				return model.NewAppError("VALIDATION_ERROR", "選手IDの形式が正しくありません。", fmt.Sprintf("attendance[%d].player_id", i), model.ErrInvalidInput)
			}

			if _, err := s.playerRepo.FindByID(ctx, tx, ownerID, playerID); err != nil {
				if errors.Is(err, model.ErrNotFound) {
					result.SkippedPlayerIDs = append(result.SkippedPlayerIDs, playerID)
					continue
				}
				return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
			}

			record := &model.AttendanceRecord{
				AttendanceID:  uuid.New(),
				SessionID:     sessionID,
				PlayerID:      playerID,
				Attended:      item.Attended,
				AbsenceReason: normalizeReason(item.Attended, item.AbsenceReason),
			}
			if err := s.attendanceRepo.Upsert(ctx, tx, record); err != nil {
				logger.Error("Failed to upsert attendance in bulk", "error", err, "player_id", playerID.String())
				return model.NewAppError("INTERNAL_SERVER_ERROR", "出欠の一括記録に失敗しました。", "", err)
			}
			result.Applied++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(result.SkippedPlayerIDs) > 0 {
		logger.Warn("Bulk attendance skipped players outside tenant",
			"session_id", sessionID.String(), "skipped", len(result.SkippedPlayerIDs))
	}
	logger.Info("Bulk attendance recorded", "session_id", sessionID.String(), "applied", result.Applied)
	return result, nil
}

func (s *attendanceService) UpdateAttendance(ctx context.Context, ownerID, attendanceID uuid.UUID, req *model.UpdateAttendanceRequest) (*model.AttendanceRecord, error) {
	var updated *model.AttendanceRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.attendanceRepo.FindByID(ctx, tx, ownerID, attendanceID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "出欠記録が見つかりません。", "", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
		}

		attended := current.Attended
		if req.Attended != nil {
			attended = *req.Attended
		}
		reason := current.AbsenceReason
		if req.AbsenceReason != nil {
			reason = req.AbsenceReason
		}
		reason = normalizeReason(attended, reason)

		updates := map[string]interface{}{
			"attended":       attended,
			"absence_reason": reason,
		}
		if err := s.attendanceRepo.Update(ctx, tx, attendanceID, updates); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "出欠の更新に失敗しました。", "", err)
		}

		saved, err := s.attendanceRepo.FindByID(ctx, tx, ownerID, attendanceID)
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "更新後の出欠取得に失敗しました。", "", err)
		}
		updated = saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *attendanceService) DeleteAttendance(ctx context.Context, ownerID, attendanceID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.attendanceRepo.FindByID(ctx, tx, ownerID, attendanceID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "出欠記録が見つかりません。", "", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
		}
		if err := s.attendanceRepo.Delete(ctx, tx, attendanceID); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "出欠の削除に失敗しました。", "", err)
		}
		return nil
	})
}

// UpsertConfirmation はセッション前の参加確認（RSVP）を登録・更新する
func (s *attendanceService) UpsertConfirmation(ctx context.Context, ownerID uuid.UUID, req *model.PostConfirmationRequest) (*model.TrainingConfirmation, error) {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, model.NewAppError("VALIDATION_ERROR", "セッションIDの形式が正しくありません。", "session_id", model.ErrInvalidInput)
	}
	playerID, err := uuid.Parse(req.PlayerID)
	if err != nil {
		return nil, model.NewAppError("VALIDATION_ERROR", "選手IDの形式が正しくありません。", "player_id", model.ErrInvalidInput)
	}

	var result *model.TrainingConfirmation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.sessionRepo.FindByID(ctx, tx, ownerID, sessionID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "セッションが見つかりません。", "session_id", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
		}
		if _, err := s.playerRepo.FindByID(ctx, tx, ownerID, playerID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "選手が見つかりません。", "player_id", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
		}

		record := &model.TrainingConfirmation{
			ConfirmationID: uuid.New(),
			SessionID:      sessionID,
			PlayerID:       playerID,
			Status:         req.Status,
		}
		if req.Notes != nil {
			record.Notes = *req.Notes
		}
		if err := s.confirmationRepo.Upsert(ctx, tx, record); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "参加確認の登録に失敗しました。", "", err)
		}

		confirmations, err := s.confirmationRepo.ListBySession(ctx, tx, sessionID)
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "参加確認の取得に失敗しました。", "", err)
		}
		for i := range confirmations {
			if confirmations[i].PlayerID == playerID {
				result = &confirmations[i]
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetPlayerStats は選手1人の期間内の出欠統計を返す
func (s *attendanceService) GetPlayerStats(ctx context.Context, ownerID, playerID uuid.UUID, from, to *time.Time) (*model.PlayerStats, error) {
	if _, err := s.playerRepo.FindByID(ctx, s.db, ownerID, playerID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("NOT_FOUND", "選手が見つかりません。", "", model.ErrNotFound)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
	}

	rows, err := s.attendanceRepo.ListReportRows(ctx, s.db, ownerID, model.ReportFilters{
		From:     from,
		To:       to,
		PlayerID: &playerID,
	})
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "出欠統計の取得に失敗しました。", "", err)
	}

	stats := &model.PlayerStats{Absences: []model.AbsenceEntry{}}
	for _, row := range rows {
		stats.TotalSessions++
		if row.Attended {
			stats.Attended++
		} else {
			stats.Missed++
			reason := model.AbsenceReasonNone
			if row.AbsenceReason != nil && *row.AbsenceReason != "" {
				reason = *row.AbsenceReason
			}
			stats.Absences = append(stats.Absences, model.AbsenceEntry{Date: row.Date, Reason: reason})
		}
	}
	// 欠席リストは新しい日付から表示する
	sort.Slice(stats.Absences, func(i, j int) bool {
		return stats.Absences[i].Date.After(stats.Absences[j].Date)
	})
	stats.AttendanceRate = formatRate(stats.Attended, stats.TotalSessions)
	return stats, nil
}

// formatRate は出席率を小数1桁の文字列にする。分母0は "0.0"。
func formatRate(attended, total int) string {
	if total == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(attended)/float64(total)*100)
}
