package repository

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"go_5_attend_keep/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB はテストごとに独立したインメモリDBを開き、ベーススキーマを作る。
// 名前付きメモリDBにしているのは、コネクションプールが複数張られても
// 同じDBを見るようにするため。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open in-memory database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, autoMigrateBase(db), "failed to create base schema")
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestUser は指定ロールのユーザーを直接INSERTする
func createTestUser(t *testing.T, db *gorm.DB, role string) *model.User {
	t.Helper()
	user := &model.User{
		UserID:       uuid.New(),
		Email:        fmt.Sprintf("%s@example.com", uuid.New().String()[:8]),
		PasswordHash: "x",
		Name:         "テストユーザー",
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// createTestPlayer は指定オーナーの選手を直接INSERTする
func createTestPlayer(t *testing.T, db *gorm.DB, ownerID uuid.UUID, name string) *model.Player {
	t.Helper()
	player := &model.Player{
		PlayerID: uuid.New(),
		OwnerID:  ownerID,
		Name:     name,
		LastName: "山田",
		Category: model.CategorySenior,
		IsActive: true,
	}
	require.NoError(t, db.Create(player).Error)
	return player
}

// createTestSession は指定オーナーのセッションを直接INSERTする
func createTestSession(t *testing.T, db *gorm.DB, ownerID uuid.UUID, date time.Time) *model.TrainingSession {
	t.Helper()
	session := &model.TrainingSession{
		SessionID: uuid.New(),
		OwnerID:   ownerID,
		Date:      date,
	}
	require.NoError(t, db.Create(session).Error)
	return session
}
