package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go_5_attend_keep/internal/model"
	"go_5_attend_keep/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// failingAttendanceRepository は指定回数目のUpsertで失敗する。ロールバック確認用。
type failingAttendanceRepository struct {
	repository.AttendanceRepository
	failOnCall int
	calls      int
}

func (r *failingAttendanceRepository) Upsert(ctx context.Context, db *gorm.DB, record *model.AttendanceRecord) error {
	r.calls++
	if r.calls == r.failOnCall {
		return errors.New("disk I/O error")
	}
	return r.AttendanceRepository.Upsert(ctx, db, record)
}

func newAttendanceService(db *gorm.DB) AttendanceService {
	return NewAttendanceService(
		db,
		repository.NewGormSessionRepository(),
		repository.NewGormAttendanceRepository(),
		repository.NewGormConfirmationRepository(),
		repository.NewGormPlayerRepository(),
		repository.NewGormTrainingRepository(),
	)
}

func Test_attendanceService_ResolveSession(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 同じ引数で2回呼んでも同じセッションが返る", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newAttendanceService(db)
		owner := seedUser(t, db, model.RoleAdmin)

		req := &model.ResolveSessionRequest{Date: "2025-06-01"}
		first, err := svc.ResolveSession(ctx, owner.UserID, req)
		require.NoError(t, err)

		second, err := svc.ResolveSession(ctx, owner.UserID, req)
		require.NoError(t, err)
		assert.Equal(t, first.SessionID, second.SessionID)

		var count int64
		require.NoError(t, db.Model(&model.TrainingSession{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("正常系: 練習枠が異なれば同じ日付でも別セッションになる", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newAttendanceService(db)
		owner := seedUser(t, db, model.RoleAdmin)

		training := &model.Training{
			TrainingID: uuid.New(),
			OwnerID:    owner.UserID,
			DayOfWeek:  1,
			StartTime:  "19:00",
			EndTime:    "21:00",
			Name:       "月曜練習",
			IsActive:   true,
		}
		require.NoError(t, db.Create(training).Error)

		plain, err := svc.ResolveSession(ctx, owner.UserID, &model.ResolveSessionRequest{Date: "2025-06-02"})
		require.NoError(t, err)

		trainingIDStr := training.TrainingID.String()
		withTraining, err := svc.ResolveSession(ctx, owner.UserID, &model.ResolveSessionRequest{
			Date:       "2025-06-02",
			TrainingID: &trainingIDStr,
		})
		require.NoError(t, err)

		assert.NotEqual(t, plain.SessionID, withTraining.SessionID)
	})

	t.Run("正常系: 別テナントの同じ日付は独立したセッションになる", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newAttendanceService(db)
		ownerA := seedUser(t, db, model.RoleAdmin)
		ownerB := seedUser(t, db, model.RoleUser)

		req := &model.ResolveSessionRequest{Date: "2025-06-03"}
		sessionA, err := svc.ResolveSession(ctx, ownerA.UserID, req)
		require.NoError(t, err)
		sessionB, err := svc.ResolveSession(ctx, ownerB.UserID, req)
		require.NoError(t, err)

		assert.NotEqual(t, sessionA.SessionID, sessionB.SessionID)
	})

	t.Run("異常系: 他テナントの練習枠を指定するとNotFound", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newAttendanceService(db)
		ownerA := seedUser(t, db, model.RoleAdmin)
		ownerB := seedUser(t, db, model.RoleUser)

		training := &model.Training{
			TrainingID: uuid.New(),
			OwnerID:    ownerA.UserID,
			DayOfWeek:  1,
			StartTime:  "19:00",
			EndTime:    "21:00",
			Name:       "月曜練習",
			IsActive:   true,
		}
		require.NoError(t, db.Create(training).Error)

		trainingIDStr := training.TrainingID.String()
		_, err := svc.ResolveSession(ctx, ownerB.UserID, &model.ResolveSessionRequest{
			Date:       "2025-06-04",
			TrainingID: &trainingIDStr,
		})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func Test_attendanceService_RecordAttendance(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 同じ(セッション, 選手)への再登録は上書きになる", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newAttendanceService(db)
		owner := seedUser(t, db, model.RoleAdmin)
		session := seedSession(t, db, owner.UserID, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
		player := seedPlayer(t, db, owner.UserID, "太郎", model.CategorySenior)

		first, err := svc.RecordAttendance(ctx, owner.UserID, &model.PostAttendanceRequest{
			SessionID:     session.SessionID.String(),
			PlayerID:      player.PlayerID.String(),
			Attended:      boolPtr(false),
			AbsenceReason: strPtr("体調不良"),
		})
		require.NoError(t, err)
		require.NotNil(t, first.AbsenceReason)

		second, err := svc.RecordAttendance(ctx, owner.UserID, &model.PostAttendanceRequest{
			SessionID: session.SessionID.String(),
			PlayerID:  player.PlayerID.String(),
			Attended:  boolPtr(true),
		})
		require.NoError(t, err)
		assert.Equal(t, first.AttendanceID, second.AttendanceID)
		assert.True(t, second.Attended)

		var count int64
		require.NoError(t, db.Model(&model.AttendanceRecord{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("正常系: 出席なら欠席理由は破棄される", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newAttendanceService(db)
		owner := seedUser(t, db, model.RoleAdmin)
		session := seedSession(t, db, owner.UserID, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
		player := seedPlayer(t, db, owner.UserID, "太郎", model.CategorySenior)

		record, err := svc.RecordAttendance(ctx, owner.UserID, &model.PostAttendanceRequest{
			SessionID:     session.SessionID.String(),
			PlayerID:      player.PlayerID.String(),
			Attended:      boolPtr(true),
			AbsenceReason: strPtr("これは保存されない"),
		})
		require.NoError(t, err)
		assert.True(t, record.Attended)
		assert.Nil(t, record.AbsenceReason)
	})

	t.Run("異常系: 他テナントのセッションにはNotFound", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newAttendanceService(db)
		ownerA := seedUser(t, db, model.RoleAdmin)
		ownerB := seedUser(t, db, model.RoleUser)
		session := seedSession(t, db, ownerA.UserID, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
		player := seedPlayer(t, db, ownerB.UserID, "太郎", model.CategorySenior)

		_, err := svc.RecordAttendance(ctx, ownerB.UserID, &model.PostAttendanceRequest{
			SessionID: session.SessionID.String(),
			PlayerID:  player.PlayerID.String(),
			Attended:  boolPtr(true),
		})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func Test_attendanceService_RecordAttendanceBulk(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 全選手分が1回で登録される", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newAttendanceService(db)
		owner := seedUser(t, db, model.RoleAdmin)
		session := seedSession(t, db, owner.UserID, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
		p1 := seedPlayer(t, db, owner.UserID, "太郎", model.CategorySenior)
		p2 := seedPlayer(t, db, owner.UserID, "次郎", model.CategoryJunior)

		result, err := svc.RecordAttendanceBulk(ctx, owner.UserID, &model.BulkAttendanceRequest{
			SessionID: session.SessionID.String(),
			Items: []model.BulkAttendanceItem{
				{PlayerID: p1.PlayerID.String(), Attended: true},
				{PlayerID: p2.PlayerID.String(), Attended: false, AbsenceReason: strPtr("仕事")},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Applied)
		assert.Empty(t, result.SkippedPlayerIDs)

		var count int64
		require.NoError(t, db.Model(&model.AttendanceRecord{}).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})

	t.Run("正常系: 他テナントの選手はスキップされIDが返る", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newAttendanceService(db)
		ownerA := seedUser(t, db, model.RoleAdmin)
		ownerB := seedUser(t, db, model.RoleUser)
		session := seedSession(t, db, ownerA.UserID, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
		mine := seedPlayer(t, db, ownerA.UserID, "太郎", model.CategorySenior)
		theirs := seedPlayer(t, db, ownerB.UserID, "次郎", model.CategorySenior)

		result, err := svc.RecordAttendanceBulk(ctx, ownerA.UserID, &model.BulkAttendanceRequest{
			SessionID: session.SessionID.String(),
			Items: []model.BulkAttendanceItem{
				{PlayerID: mine.PlayerID.String(), Attended: true},
				{PlayerID: theirs.PlayerID.String(), Attended: true},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Applied)
		require.Len(t, result.SkippedPlayerIDs, 1)
		assert.Equal(t, theirs.PlayerID, result.SkippedPlayerIDs[0])

		// スキップされた選手の行は作られていない
		var count int64
		require.NoError(t, db.Model(&model.AttendanceRecord{}).
			Where("player_id = ?", theirs.PlayerID).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})

	t.Run("異常系: 他テナントのセッションには1件も書かれない", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newAttendanceService(db)
		ownerA := seedUser(t, db, model.RoleAdmin)
		ownerB := seedUser(t, db, model.RoleUser)
		session := seedSession(t, db, ownerA.UserID, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
		player := seedPlayer(t, db, ownerB.UserID, "太郎", model.CategorySenior)

		_, err := svc.RecordAttendanceBulk(ctx, ownerB.UserID, &model.BulkAttendanceRequest{
			SessionID: session.SessionID.String(),
			Items: []model.BulkAttendanceItem{
				{PlayerID: player.PlayerID.String(), Attended: true},
			},
		})
		assert.ErrorIs(t, err, model.ErrNotFound)

		var count int64
		require.NoError(t, db.Model(&model.AttendanceRecord{}).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})

	t.Run("異常系: 途中でストア障害が起きると適用済み分も残らない", func(t *testing.T) {
		db := setupTestDB(t)
		owner := seedUser(t, db, model.RoleAdmin)
		session := seedSession(t, db, owner.UserID, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
		p1 := seedPlayer(t, db, owner.UserID, "太郎", model.CategorySenior)
		p2 := seedPlayer(t, db, owner.UserID, "次郎", model.CategoryJunior)

		// 2件目のUpsertで失敗するリポジトリを差し込む
		svc := NewAttendanceService(
			db,
			repository.NewGormSessionRepository(),
			&failingAttendanceRepository{
				AttendanceRepository: repository.NewGormAttendanceRepository(),
				failOnCall:           2,
			},
			repository.NewGormConfirmationRepository(),
			repository.NewGormPlayerRepository(),
			repository.NewGormTrainingRepository(),
		)

		_, err := svc.RecordAttendanceBulk(ctx, owner.UserID, &model.BulkAttendanceRequest{
			SessionID: session.SessionID.String(),
			Items: []model.BulkAttendanceItem{
				{PlayerID: p1.PlayerID.String(), Attended: true},
				{PlayerID: p2.PlayerID.String(), Attended: true},
			},
		})
		require.Error(t, err)

		// 1件目の適用済み分もロールバックされている
		var count int64
		require.NoError(t, db.Model(&model.AttendanceRecord{}).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})
}

func Test_attendanceService_UpdateAttendance(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 出席へ変更すると理由がNULLに正規化される", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newAttendanceService(db)
		owner := seedUser(t, db, model.RoleAdmin)
		session := seedSession(t, db, owner.UserID, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
		player := seedPlayer(t, db, owner.UserID, "太郎", model.CategorySenior)
		record := seedAttendance(t, db, session.SessionID, player.PlayerID, false, strPtr("体調不良"))

		updated, err := svc.UpdateAttendance(ctx, owner.UserID, record.AttendanceID, &model.UpdateAttendanceRequest{
			Attended: boolPtr(true),
		})
		require.NoError(t, err)
		assert.True(t, updated.Attended)
		assert.Nil(t, updated.AbsenceReason)
	})

	t.Run("異常系: 他テナントの出欠記録は更新できない", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newAttendanceService(db)
		ownerA := seedUser(t, db, model.RoleAdmin)
		ownerB := seedUser(t, db, model.RoleUser)
		session := seedSession(t, db, ownerA.UserID, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
		player := seedPlayer(t, db, ownerA.UserID, "太郎", model.CategorySenior)
		record := seedAttendance(t, db, session.SessionID, player.PlayerID, true, nil)

		_, err := svc.UpdateAttendance(ctx, ownerB.UserID, record.AttendanceID, &model.UpdateAttendanceRequest{
			Attended: boolPtr(false),
		})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func Test_attendanceService_GetSessionDetail(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newAttendanceService(db)

	owner := seedUser(t, db, model.RoleAdmin)
	session := seedSession(t, db, owner.UserID, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	recorded := seedPlayer(t, db, owner.UserID, "記録済", model.CategorySenior)
	pending := seedPlayer(t, db, owner.UserID, "未記録", model.CategoryJunior)
	seedAttendance(t, db, session.SessionID, recorded.PlayerID, true, nil)

	detail, err := svc.GetSessionDetail(ctx, owner.UserID, session.SessionID)
	require.NoError(t, err)

	assert.Equal(t, session.SessionID, detail.Session.SessionID)
	require.Len(t, detail.Attendance, 1)
	assert.Equal(t, recorded.PlayerID, detail.Attendance[0].PlayerID)
	require.Len(t, detail.PendingPlayers, 1)
	assert.Equal(t, pending.PlayerID, detail.PendingPlayers[0].PlayerID)
	assert.Empty(t, detail.Confirmations)
}

func Test_attendanceService_UpsertConfirmation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newAttendanceService(db)

	owner := seedUser(t, db, model.RoleAdmin)
	session := seedSession(t, db, owner.UserID, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	player := seedPlayer(t, db, owner.UserID, "太郎", model.CategorySenior)

	first, err := svc.UpsertConfirmation(ctx, owner.UserID, &model.PostConfirmationRequest{
		SessionID: session.SessionID.String(),
		PlayerID:  player.PlayerID.String(),
		Status:    model.ConfirmationConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ConfirmationConfirmed, first.Status)

	second, err := svc.UpsertConfirmation(ctx, owner.UserID, &model.PostConfirmationRequest{
		SessionID: session.SessionID.String(),
		PlayerID:  player.PlayerID.String(),
		Status:    model.ConfirmationDeclined,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ConfirmationDeclined, second.Status)

	var count int64
	require.NoError(t, db.Model(&model.TrainingConfirmation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func Test_attendanceService_GetPlayerStats(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newAttendanceService(db)

	owner := seedUser(t, db, model.RoleAdmin)
	player := seedPlayer(t, db, owner.UserID, "太郎", model.CategorySenior)

	// 出席2回・欠席1回（理由あり）・欠席1回（理由なし）
	dates := []time.Time{
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC),
	}
	seedAttendance(t, db, seedSession(t, db, owner.UserID, dates[0]).SessionID, player.PlayerID, true, nil)
	seedAttendance(t, db, seedSession(t, db, owner.UserID, dates[1]).SessionID, player.PlayerID, true, nil)
	seedAttendance(t, db, seedSession(t, db, owner.UserID, dates[2]).SessionID, player.PlayerID, false, strPtr("仕事"))
	seedAttendance(t, db, seedSession(t, db, owner.UserID, dates[3]).SessionID, player.PlayerID, false, nil)

	stats, err := svc.GetPlayerStats(ctx, owner.UserID, player.PlayerID, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalSessions)
	assert.Equal(t, 2, stats.Attended)
	assert.Equal(t, 2, stats.Missed)
	assert.Equal(t, "50.0", stats.AttendanceRate)
	// 欠席は新しい日付が先
	require.Len(t, stats.Absences, 2)
	assert.Equal(t, model.AbsenceReasonNone, stats.Absences[0].Reason)
	assert.True(t, stats.Absences[0].Date.After(stats.Absences[1].Date))
	assert.Equal(t, "仕事", stats.Absences[1].Reason)
}
