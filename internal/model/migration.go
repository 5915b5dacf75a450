package model

import (
	"time"

	"github.com/google/uuid"
)

// Migration は適用済みスキーマ変更の台帳。追記のみで、nameのユニーク性が
// 「各マイグレーションは一度だけ」を保証する。
type Migration struct {
	MigrationID uuid.UUID `gorm:"type:uuid;primaryKey" json:"migration_id"`
	Name        string    `gorm:"unique;not null" json:"name"`
	ExecutedAt  time.Time `json:"executed_at"`
}

func (Migration) TableName() string {
	return "migrations"
}
