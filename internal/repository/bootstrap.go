package repository

import (
	"context"
	"errors"
	"log/slog"

	"go_5_attend_keep/internal/config"
	"go_5_attend_keep/internal/model"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 初回起動時に作る練習枠。day_of_week は 0=日曜。
var defaultTrainings = []model.Training{
	{DayOfWeek: 1, StartTime: "19:00", EndTime: "21:00", Name: "月曜"},
	{DayOfWeek: 3, StartTime: "21:00", EndTime: "23:00", Name: "水曜"},
	{DayOfWeek: 4, StartTime: "20:00", EndTime: "22:00", Name: "木曜"},
	{DayOfWeek: 5, StartTime: "20:30", EndTime: "22:00", Name: "金曜"},
}

// SeedDefaults はデフォルト管理者と初期練習枠を投入します。
// マイグレーション適用後・サービス起動前に一度だけ呼ぶ。冪等。
func SeedDefaults(ctx context.Context, db *gorm.DB, cfg *config.Config, logger *slog.Logger) error {
	var admin model.User
	err := db.WithContext(ctx).Where("email = ?", cfg.Admin.Email).First(&admin).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if cfg.Admin.Password == "" {
			logger.Warn("Admin password not configured, skipping admin bootstrap")
			return nil
		}

		hash, hashErr := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
		if hashErr != nil {
			return hashErr
		}

		admin = model.User{
			UserID:       uuid.New(),
			Email:        cfg.Admin.Email,
			PasswordHash: string(hash),
			Name:         cfg.Admin.Name,
			Role:         model.RoleAdmin,
			IsActive:     true,
		}
		if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
			return err
		}
		logger.Info("Default admin user created", "email", admin.Email)
	}

	// 管理者が練習枠を1つも持っていなければ初期枠を作る
	var count int64
	if err := db.WithContext(ctx).Model(&model.Training{}).Where("owner_id = ?", admin.UserID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		for _, t := range defaultTrainings {
			t.TrainingID = uuid.New()
			t.OwnerID = admin.UserID
			t.IsActive = true
			if err := db.WithContext(ctx).Create(&t).Error; err != nil {
				return err
			}
		}
		logger.Info("Default trainings created", "count", len(defaultTrainings))
	}

	return nil
}
