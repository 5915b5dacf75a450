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

func TestGormSessionRepository_FindByDate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewGormSessionRepository()

	owner := createTestUser(t, db, model.RoleAdmin)
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	training := &model.Training{
		TrainingID: uuid.New(),
		OwnerID:    owner.UserID,
		DayOfWeek:  0,
		StartTime:  "10:00",
		EndTime:    "12:00",
		Name:       "日曜練習",
		IsActive:   true,
	}
	require.NoError(t, db.Create(training).Error)

	plain := createTestSession(t, db, owner.UserID, date)
	withTraining := &model.TrainingSession{
		SessionID:  uuid.New(),
		OwnerID:    owner.UserID,
		TrainingID: &training.TrainingID,
		Date:       date,
	}
	require.NoError(t, db.Create(withTraining).Error)

	t.Run("正常系: 練習枠指定ありなら枠付きの行に一致する", func(t *testing.T) {
		got, err := repo.FindByDate(ctx, db, owner.UserID, date, &training.TrainingID)
		require.NoError(t, err)
		assert.Equal(t, withTraining.SessionID, got.SessionID)
	})

	t.Run("正常系: 練習枠指定なしなら日付だけで照合する", func(t *testing.T) {
		got, err := repo.FindByDate(ctx, db, owner.UserID, date, nil)
		require.NoError(t, err)
		// 日付が一致するいずれかの行が返る
		assert.Contains(t, []uuid.UUID{plain.SessionID, withTraining.SessionID}, got.SessionID)
	})

	t.Run("異常系: 一致しない日付はNotFound", func(t *testing.T) {
		_, err := repo.FindByDate(ctx, db, owner.UserID, date.AddDate(0, 0, 1), nil)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("異常系: 他テナントの日付一致は見えない", func(t *testing.T) {
		other := createTestUser(t, db, model.RoleUser)
		_, err := repo.FindByDate(ctx, db, other.UserID, date, nil)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestGormSessionRepository_FindByOwner(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewGormSessionRepository()

	owner := createTestUser(t, db, model.RoleAdmin)
	older := createTestSession(t, db, owner.UserID, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	newer := createTestSession(t, db, owner.UserID, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	t.Run("正常系: 日付の降順で返る", func(t *testing.T) {
		sessions, err := repo.FindByOwner(ctx, db, owner.UserID, model.ListSessionsFilter{})
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, newer.SessionID, sessions[0].SessionID)
		assert.Equal(t, older.SessionID, sessions[1].SessionID)
	})

	t.Run("正常系: Fromフィルタ", func(t *testing.T) {
		from := time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)
		sessions, err := repo.FindByOwner(ctx, db, owner.UserID, model.ListSessionsFilter{From: &from})
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, newer.SessionID, sessions[0].SessionID)
	})
}
