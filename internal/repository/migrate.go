package repository

import (
	"context"
	"log/slog"
	"time"

	"go_5_attend_keep/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// migration は名前付きスキーマ変更1件。upは再実行しても安全であること
// （スキーマ変更が成功したのに台帳への記録だけ失敗したケースに備える）。
type migration struct {
	Name string
	Up   func(db *gorm.DB, logger *slog.Logger) error
}

// migrationList は宣言順に適用される。後のマイグレーションは前の実行時の
// 成否には依存せず、必要なスキーマ形状は各自がチェックする。
var migrationList = []migration{
	{
		Name: "001_add_owner_id_to_players",
		Up: func(db *gorm.DB, logger *slog.Logger) error {
			if !db.Migrator().HasColumn(&model.Player{}, "owner_id") {
				if err := db.Migrator().AddColumn(&model.Player{}, "OwnerID"); err != nil {
					return err
				}
			}
			return backfillOwner(db, logger, "players")
		},
	},
	{
		Name: "002_add_owner_id_to_trainings",
		Up: func(db *gorm.DB, logger *slog.Logger) error {
			if !db.Migrator().HasColumn(&model.Training{}, "owner_id") {
				if err := db.Migrator().AddColumn(&model.Training{}, "OwnerID"); err != nil {
					return err
				}
			}
			return backfillOwner(db, logger, "trainings")
		},
	},
	{
		Name: "003_add_owner_id_to_training_sessions",
		Up: func(db *gorm.DB, logger *slog.Logger) error {
			if !db.Migrator().HasColumn(&model.TrainingSession{}, "owner_id") {
				if err := db.Migrator().AddColumn(&model.TrainingSession{}, "OwnerID"); err != nil {
					return err
				}
			}
			return backfillOwner(db, logger, "training_sessions")
		},
	},
	{
		Name: "004_create_owner_id_indexes",
		Up: func(db *gorm.DB, logger *slog.Logger) error {
			models := []interface{}{&model.Player{}, &model.Training{}, &model.TrainingSession{}}
			for _, m := range models {
				if !db.Migrator().HasIndex(m, "OwnerID") {
					if err := db.Migrator().CreateIndex(m, "OwnerID"); err != nil {
						return err
					}
				}
			}
			return nil
		},
	},
}

// backfillOwner は owner_id が未設定の既存行を最初の管理者に割り当てる。
// 管理者がまだいない場合は何もしない。
func backfillOwner(db *gorm.DB, logger *slog.Logger, table string) error {
	var admin model.User
	result := db.Where("role = ?", model.RoleAdmin).Order("created_at ASC").First(&admin)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil
		}
		return result.Error
	}

	res := db.Table(table).Where("owner_id IS NULL").Update("owner_id", admin.UserID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		logger.Info("Backfilled owner_id", "table", table, "rows", res.RowsAffected)
	}
	return nil
}

// RunMigrations は未適用の名前付きマイグレーションを宣言順に実行します。
// 起動時に一度だけ、他のコンポーネントがストアに触る前に呼ぶこと。
// 適用済みかどうかの判定は migrations 台帳のみを正とする。
// 1件の失敗はログに残して続行し、そのマイグレーションは台帳に記録しない
// （次回起動時に再試行される）。
func RunMigrations(ctx context.Context, db *gorm.DB, logger *slog.Logger) error {
	var applied []model.Migration
	if err := db.WithContext(ctx).Find(&applied).Error; err != nil {
		logger.Error("Failed to read migration ledger", "error", err)
		return err
	}

	appliedNames := make(map[string]bool, len(applied))
	for _, m := range applied {
		appliedNames[m.Name] = true
	}

	for _, m := range migrationList {
		if appliedNames[m.Name] {
			continue
		}

		if err := m.Up(db.WithContext(ctx), logger); err != nil {
			// ベストエフォート方針: 失敗しても起動は止めない
			logger.Error("Migration failed, skipping", "name", m.Name, "error", err)
			continue
		}

		record := model.Migration{
			MigrationID: uuid.New(),
			Name:        m.Name,
			ExecutedAt:  time.Now(),
		}
		if err := db.WithContext(ctx).Create(&record).Error; err != nil {
			logger.Error("Failed to record migration in ledger", "name", m.Name, "error", err)
			continue
		}

		logger.Info("Migration applied", "name", m.Name)
	}

	return nil
}
