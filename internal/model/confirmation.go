package model

import (
	"time"

	"github.com/google/uuid"
)

// 参加確認のステータス
const (
	ConfirmationConfirmed = "confirmed"
	ConfirmationDeclined  = "declined"
	ConfirmationPending   = "pending"
)

// TrainingConfirmation はセッション前のRSVP。出欠（事後の事実）とは独立した
// ライフサイクルを持つが、ユニーク制約とUPSERTの扱いは出欠と同じ。
type TrainingConfirmation struct {
	ConfirmationID uuid.UUID `gorm:"type:uuid;primaryKey" json:"confirmation_id"`
	SessionID      uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_confirmation_session_player" json:"session_id"`
	PlayerID       uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_confirmation_session_player" json:"player_id"`
	Status         string    `gorm:"not null;default:pending" json:"status"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Session *TrainingSession `gorm:"foreignKey:SessionID;references:SessionID" json:"-"`
	Player  *Player          `gorm:"foreignKey:PlayerID;references:PlayerID" json:"-"`
}

func (TrainingConfirmation) TableName() string {
	return "training_confirmations"
}

// 参加確認リクエストDTO
type PostConfirmationRequest struct {
	SessionID string  `json:"session_id" validate:"required,uuid"`
	PlayerID  string  `json:"player_id" validate:"required,uuid"`
	Status    string  `json:"status" validate:"required,oneof=confirmed declined pending"`
	Notes     *string `json:"notes,omitempty" validate:"omitempty,max=255"`
}
