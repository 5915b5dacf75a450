package repository

import (
	"context"
	"testing"
	"time"

	"go_5_attend_keep/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormAttendanceRepository_Upsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewGormAttendanceRepository()

	owner := createTestUser(t, db, model.RoleAdmin)
	session := createTestSession(t, db, owner.UserID, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	player := createTestPlayer(t, db, owner.UserID, "太郎")

	reason := "体調不良"
	first := &model.AttendanceRecord{
		AttendanceID:  uuid.New(),
		SessionID:     session.SessionID,
		PlayerID:      player.PlayerID,
		Attended:      false,
		AbsenceReason: &reason,
	}
	require.NoError(t, repo.Upsert(ctx, db, first))

	t.Run("正常系: 同じ(セッション, 選手)への再書き込みは行を増やさず上書きする", func(t *testing.T) {
		second := &model.AttendanceRecord{
			AttendanceID: uuid.New(),
			SessionID:    session.SessionID,
			PlayerID:     player.PlayerID,
			Attended:     true,
		}
		require.NoError(t, repo.Upsert(ctx, db, second))

		var count int64
		require.NoError(t, db.Model(&model.AttendanceRecord{}).
			Where("session_id = ? AND player_id = ?", session.SessionID, player.PlayerID).
			Count(&count).Error)
		assert.Equal(t, int64(1), count)

		got, err := repo.FindBySessionAndPlayer(ctx, db, session.SessionID, player.PlayerID)
		require.NoError(t, err)
		assert.True(t, got.Attended)
		assert.Nil(t, got.AbsenceReason)
		// 主キーは最初の行のまま
		assert.Equal(t, first.AttendanceID, got.AttendanceID)
	})

	t.Run("正常系: 別の選手の行は独立して保持される", func(t *testing.T) {
		other := createTestPlayer(t, db, owner.UserID, "次郎")
		record := &model.AttendanceRecord{
			AttendanceID: uuid.New(),
			SessionID:    session.SessionID,
			PlayerID:     other.PlayerID,
			Attended:     false,
		}
		require.NoError(t, repo.Upsert(ctx, db, record))

		rows, err := repo.ListBySession(ctx, db, session.SessionID)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})
}

func TestGormAttendanceRepository_FindByID_TenantIsolation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewGormAttendanceRepository()

	ownerA := createTestUser(t, db, model.RoleAdmin)
	ownerB := createTestUser(t, db, model.RoleUser)
	session := createTestSession(t, db, ownerA.UserID, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	player := createTestPlayer(t, db, ownerA.UserID, "太郎")

	record := &model.AttendanceRecord{
		AttendanceID: uuid.New(),
		SessionID:    session.SessionID,
		PlayerID:     player.PlayerID,
		Attended:     true,
	}
	require.NoError(t, repo.Upsert(ctx, db, record))

	got, err := repo.FindByID(ctx, db, ownerA.UserID, record.AttendanceID)
	require.NoError(t, err)
	assert.Equal(t, record.AttendanceID, got.AttendanceID)

	// 出欠行の所有権は親セッション経由で判定される
	_, err = repo.FindByID(ctx, db, ownerB.UserID, record.AttendanceID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestGormAttendanceRepository_AggregationRows(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewGormAttendanceRepository()

	owner := createTestUser(t, db, model.RoleAdmin)
	recent := createTestSession(t, db, owner.UserID, time.Now().AddDate(0, 0, -5))
	old := createTestSession(t, db, owner.UserID, time.Now().AddDate(0, 0, -60))
	player := createTestPlayer(t, db, owner.UserID, "太郎")

	for _, s := range []*model.TrainingSession{recent, old} {
		require.NoError(t, repo.Upsert(ctx, db, &model.AttendanceRecord{
			AttendanceID: uuid.New(),
			SessionID:    s.SessionID,
			PlayerID:     player.PlayerID,
			Attended:     true,
		}))
	}

	t.Run("正常系: 期間外のセッションの行は含まれない", func(t *testing.T) {
		rows, err := repo.ListSessionRowsSince(ctx, db, owner.UserID, time.Now().AddDate(0, 0, -30))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, recent.SessionID, rows[0].SessionID)
	})

	t.Run("正常系: カテゴリ行には選手のカテゴリが載る", func(t *testing.T) {
		rows, err := repo.ListCategoryRowsSince(ctx, db, owner.UserID, time.Now().AddDate(0, 0, -30))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, model.CategorySenior, rows[0].Category)
		assert.True(t, rows[0].Attended)
	})

	t.Run("正常系: 他テナントには集計行が見えない", func(t *testing.T) {
		other := createTestUser(t, db, model.RoleUser)
		rows, err := repo.ListSessionRowsSince(ctx, db, other.UserID, time.Now().AddDate(0, -1, 0))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}
