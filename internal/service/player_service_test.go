package service

import (
	"context"
	"testing"
	"time"

	"go_5_attend_keep/internal/model"
	"go_5_attend_keep/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPlayerService(db *gorm.DB) PlayerService {
	return NewPlayerService(
		db,
		repository.NewGormPlayerRepository(),
		repository.NewGormAttendanceRepository(),
		repository.NewGormConfirmationRepository(),
	)
}

func Test_playerService_DeletePlayer(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 選手と出欠・参加確認がまとめて消える", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newPlayerService(db)
		owner := seedUser(t, db, model.RoleAdmin)
		player := seedPlayer(t, db, owner.UserID, "太郎", model.CategorySenior)
		other := seedPlayer(t, db, owner.UserID, "次郎", model.CategorySenior)
		session := seedSession(t, db, owner.UserID, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

		seedAttendance(t, db, session.SessionID, player.PlayerID, true, nil)
		seedAttendance(t, db, session.SessionID, other.PlayerID, true, nil)
		require.NoError(t, db.Create(&model.TrainingConfirmation{
			ConfirmationID: uuid.New(),
			SessionID:      session.SessionID,
			PlayerID:       player.PlayerID,
			Status:         model.ConfirmationConfirmed,
		}).Error)

		require.NoError(t, svc.DeletePlayer(ctx, owner.UserID, player.PlayerID))

		var playerCount, attendanceCount, confirmationCount int64
		require.NoError(t, db.Model(&model.Player{}).Where("player_id = ?", player.PlayerID).Count(&playerCount).Error)
		require.NoError(t, db.Model(&model.AttendanceRecord{}).Where("player_id = ?", player.PlayerID).Count(&attendanceCount).Error)
		require.NoError(t, db.Model(&model.TrainingConfirmation{}).Where("player_id = ?", player.PlayerID).Count(&confirmationCount).Error)
		assert.Equal(t, int64(0), playerCount)
		assert.Equal(t, int64(0), attendanceCount)
		assert.Equal(t, int64(0), confirmationCount)

		// 他の選手の記録は残る
		var otherCount int64
		require.NoError(t, db.Model(&model.AttendanceRecord{}).Where("player_id = ?", other.PlayerID).Count(&otherCount).Error)
		assert.Equal(t, int64(1), otherCount)
	})

	t.Run("異常系: 他テナントの選手は削除できない", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newPlayerService(db)
		ownerA := seedUser(t, db, model.RoleAdmin)
		ownerB := seedUser(t, db, model.RoleUser)
		player := seedPlayer(t, db, ownerA.UserID, "太郎", model.CategorySenior)

		err := svc.DeletePlayer(ctx, ownerB.UserID, player.PlayerID)
		assert.ErrorIs(t, err, model.ErrNotFound)

		var count int64
		require.NoError(t, db.Model(&model.Player{}).Where("player_id = ?", player.PlayerID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func Test_playerService_ToggleActive(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newPlayerService(db)
	owner := seedUser(t, db, model.RoleAdmin)
	player := seedPlayer(t, db, owner.UserID, "太郎", model.CategorySenior)

	toggled, err := svc.ToggleActive(ctx, owner.UserID, player.PlayerID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	toggled, err = svc.ToggleActive(ctx, owner.UserID, player.PlayerID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)
}

func Test_playerService_CreatePlayer(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newPlayerService(db)
	owner := seedUser(t, db, model.RoleAdmin)

	created, err := svc.CreatePlayer(ctx, owner.UserID, &model.PostPlayerRequest{
		Name:      "太郎",
		LastName:  "山田",
		Category:  model.CategoryJuvenil,
		BirthDate: strPtr("2008-04-01"),
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	require.NotNil(t, created.BirthDate)
	assert.Equal(t, 2008, created.BirthDate.Year())
	assert.Equal(t, owner.UserID, created.OwnerID)
}
