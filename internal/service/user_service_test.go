package service

import (
	"context"
	"testing"

	"go_5_attend_keep/internal/model"
	"go_5_attend_keep/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_userService_CreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: ユーザーが作成される", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewUserService(db, repository.NewGormUserRepository())

		created, err := svc.CreateUser(ctx, &model.CreateUserRequest{
			Email:    "coach@example.com",
			Password: "secret123",
			Name:     "コーチ",
			Role:     model.RoleUser,
		})
		require.NoError(t, err)
		assert.Equal(t, "coach@example.com", created.Email)
		assert.True(t, created.IsActive)
	})

	t.Run("異常系: 重複メールはConflict", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewUserService(db, repository.NewGormUserRepository())

		req := &model.CreateUserRequest{
			Email:    "dup@example.com",
			Password: "secret123",
			Name:     "コーチ",
			Role:     model.RoleUser,
		}
		_, err := svc.CreateUser(ctx, req)
		require.NoError(t, err)

		_, err = svc.CreateUser(ctx, req)
		assert.ErrorIs(t, err, model.ErrConflict)

		var appErr *model.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "DUPLICATE_EMAIL", appErr.Detail.Code)
	})
}

func Test_userService_DeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("異常系: 自分自身は削除できない", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewUserService(db, repository.NewGormUserRepository())
		admin := seedUser(t, db, model.RoleAdmin)

		err := svc.DeleteUser(ctx, admin.UserID, admin.UserID)
		assert.ErrorIs(t, err, model.ErrInvalidInput)

		var appErr *model.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "SELF_DELETE", appErr.Detail.Code)

		// 自分は消えていない
		var count int64
		require.NoError(t, db.Model(&model.User{}).Where("user_id = ?", admin.UserID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("異常系: 管理者以外は削除できない", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewUserService(db, repository.NewGormUserRepository())
		actor := seedUser(t, db, model.RoleUser)
		target := seedUser(t, db, model.RoleUser)

		err := svc.DeleteUser(ctx, actor.UserID, target.UserID)
		assert.ErrorIs(t, err, model.ErrForbidden)
	})

	t.Run("正常系: 管理者は他ユーザーを削除できる", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewUserService(db, repository.NewGormUserRepository())
		admin := seedUser(t, db, model.RoleAdmin)
		target := seedUser(t, db, model.RoleUser)

		require.NoError(t, svc.DeleteUser(ctx, admin.UserID, target.UserID))

		var count int64
		require.NoError(t, db.Model(&model.User{}).Where("user_id = ?", target.UserID).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})

	t.Run("異常系: 存在しないユーザーの削除はNotFound", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewUserService(db, repository.NewGormUserRepository())
		admin := seedUser(t, db, model.RoleAdmin)
		missing := seedUser(t, db, model.RoleUser)
		require.NoError(t, db.Delete(&model.User{}, "user_id = ?", missing.UserID).Error)

		err := svc.DeleteUser(ctx, admin.UserID, missing.UserID)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}
