package model

import (
	"time"

	"github.com/google/uuid"
)

// DayNames は day_of_week (0=日曜) を表示名へ変換するためのテーブル
var DayNames = [7]string{"日曜", "月曜", "火曜", "水曜", "木曜", "金曜", "土曜"}

// Training は毎週繰り返す練習枠のテンプレート。具体的な日付は持たず、
// 実際の開催は TrainingSession が表す。
type Training struct {
	TrainingID uuid.UUID `gorm:"type:uuid;primaryKey" json:"training_id"`
	OwnerID    uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	DayOfWeek  int       `gorm:"not null" json:"day_of_week"`
	StartTime  string    `gorm:"not null" json:"start_time"` // "HH:MM"
	EndTime    string    `gorm:"not null" json:"end_time"`   // "HH:MM"
	Name       string    `json:"name"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Training) TableName() string {
	return "trainings"
}

// 練習枠作成リクエストDTO。hhmm はカスタムバリデーション（webutil側で登録）。
type PostTrainingRequest struct {
	DayOfWeek *int    `json:"day_of_week" validate:"required,gte=0,lte=6"`
	StartTime string  `json:"start_time" validate:"required,hhmm"`
	EndTime   string  `json:"end_time" validate:"required,hhmm"`
	Name      *string `json:"name,omitempty" validate:"omitempty,max=100"`
}

// 練習枠更新（部分）リクエストDTO
type UpdateTrainingRequest struct {
	DayOfWeek *int    `json:"day_of_week,omitempty" validate:"omitempty,gte=0,lte=6"`
	StartTime *string `json:"start_time,omitempty" validate:"omitempty,hhmm"`
	EndTime   *string `json:"end_time,omitempty" validate:"omitempty,hhmm"`
	Name      *string `json:"name,omitempty" validate:"omitempty,max=100"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// TrainingResponse は day_name を付与した練習枠情報
type TrainingResponse struct {
	Training
	DayName string `json:"day_name"`
}

func (t *Training) ToResponse() TrainingResponse {
	resp := TrainingResponse{Training: *t}
	if t.DayOfWeek >= 0 && t.DayOfWeek < len(DayNames) {
		resp.DayName = DayNames[t.DayOfWeek]
	}
	return resp
}
