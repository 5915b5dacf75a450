package model

import (
	"time"

	"github.com/google/uuid"
)

// TrainingSession は特定の日付に開催された（される）練習の実体。
// (owner, date, training) の組につき高々1行。ルックアップ後に挿入する方式で
// 保証するため、同一テナント・同一日付の作成は呼び出し側で直列化すること。
type TrainingSession struct {
	SessionID  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"session_id"`
	OwnerID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"-"`
	TrainingID *uuid.UUID `gorm:"type:uuid;index" json:"training_id,omitempty"`
	Date       time.Time  `gorm:"type:date;not null;index" json:"date"`
	Notes      string     `json:"notes"`
	CreatedAt  time.Time  `json:"created_at"`

	// 関連 (Preload用)
	Training *Training `gorm:"foreignKey:TrainingID;references:TrainingID" json:"training,omitempty"`
}

func (TrainingSession) TableName() string {
	return "training_sessions"
}

// セッション取得/作成リクエストDTO
type ResolveSessionRequest struct {
	Date       string  `json:"date" validate:"required,datetime=2006-01-02"`
	TrainingID *string `json:"training_id,omitempty" validate:"omitempty,uuid"`
	Notes      *string `json:"notes,omitempty"`
}

// ListSessionsFilter はセッション一覧の絞り込み条件
type ListSessionsFilter struct {
	From       *time.Time
	To         *time.Time
	TrainingID *uuid.UUID
}

// SessionDetail はセッション画面が必要とする情報一式
type SessionDetail struct {
	Session        TrainingSession        `json:"session"`
	Attendance     []AttendanceWithPlayer `json:"attendance"`
	PendingPlayers []Player               `json:"pending_players"`
	Confirmations  []TrainingConfirmation `json:"confirmations"`
}
