package repository

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"go_5_attend_keep/internal/model"

	slogGorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB はsqliteへのGORM接続を確立し、ベーススキーマを作成します。
// WALモードで開くため、読み手は書き手にブロックされない。
// 接続はプロセスで1つだけ開き、終了時に閉じる（リクエスト途中での再生成はしない）。
func NewDB(databaseURL string, appLogger *slog.Logger) (*gorm.DB, error) {

	var gormLogLevel gormlogger.LogLevel
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		gormLogLevel = gormlogger.Info
	} else {
		gormLogLevel = gormlogger.Warn
	}

	// slog-gorm ロガーを作成
	slogGormLogger := slogGorm.New(
		slogGorm.WithHandler(appLogger.Handler()),
		slogGorm.WithTraceAll(),
		slogGorm.WithSlowThreshold(500*time.Millisecond),
	)
	finalGormLogger := slogGormLogger.LogMode(gormLogLevel)

	// WAL + busy_timeout + 外部キーをDSNで指定
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", databaseURL)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: finalGormLogger,
	})
	if err != nil {
		appLogger.Error("Failed to connect to database with GORM", slog.Any("error", err))
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		appLogger.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		return nil, err
	}

	if err = sqlDB.Ping(); err != nil {
		appLogger.Error("Error pinging database", slog.Any("error", err))
		sqlDB.Close()
		return nil, err
	}

	// sqliteは書き込みが単一ライターなのでコネクション数は控えめにする
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := autoMigrateBase(db); err != nil {
		appLogger.Error("Failed to create base schema", slog.Any("error", err))
		sqlDB.Close()
		return nil, err
	}

	appLogger.Info("Database connection established with GORM")

	return db, nil
}

// autoMigrateBase はベーススキーマ（全テーブルとユニークインデックス）を作成する。
// 台帳ベースの名前付きマイグレーションは repository.RunMigrations が担当。
func autoMigrateBase(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Migration{},
		&model.User{},
		&model.Player{},
		&model.Training{},
		&model.TrainingSession{},
		&model.AttendanceRecord{},
		&model.TrainingConfirmation{},
	)
}
