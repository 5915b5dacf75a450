package service

import (
	"fmt"
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

// setupTestDB はテストごとに独立したインメモリDBを開き、スキーマを作る
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

	require.NoError(t, db.AutoMigrate(
		&model.Migration{},
		&model.User{},
		&model.Player{},
		&model.Training{},
		&model.TrainingSession{},
		&model.AttendanceRecord{},
		&model.TrainingConfirmation{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, role string) *model.User {
	t.Helper()
	user := &model.User{
		UserID:       uuid.New(),
		Email:        fmt.Sprintf("%s@example.com", uuid.New().String()[:8]),
		PasswordHash: "x",
		Name:         "テストユーザー",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedPlayer(t *testing.T, db *gorm.DB, ownerID uuid.UUID, name, category string) *model.Player {
	t.Helper()
	player := &model.Player{
		PlayerID: uuid.New(),
		OwnerID:  ownerID,
		Name:     name,
		LastName: "山田",
		Category: category,
		IsActive: true,
	}
	require.NoError(t, db.Create(player).Error)
	return player
}

func seedSession(t *testing.T, db *gorm.DB, ownerID uuid.UUID, date time.Time) *model.TrainingSession {
	t.Helper()
	session := &model.TrainingSession{
		SessionID: uuid.New(),
		OwnerID:   ownerID,
		Date:      date,
	}
	require.NoError(t, db.Create(session).Error)
	return session
}

func seedAttendance(t *testing.T, db *gorm.DB, sessionID, playerID uuid.UUID, attended bool, reason *string) *model.AttendanceRecord {
	t.Helper()
	record := &model.AttendanceRecord{
		AttendanceID:  uuid.New(),
		SessionID:     sessionID,
		PlayerID:      playerID,
		Attended:      attended,
		AbsenceReason: reason,
	}
	require.NoError(t, db.Create(record).Error)
	return record
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
