package model

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceRecord は1セッション×1選手の出欠事実。
// (session_id, player_id) にユニーク制約があり、書き込みは常にUPSERT。
// attended=true のとき absence_reason は必ず NULL に正規化される。
type AttendanceRecord struct {
	AttendanceID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"attendance_id"`
	SessionID     uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_attendance_session_player" json:"session_id"`
	PlayerID      uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_attendance_session_player" json:"player_id"`
	Attended      bool      `gorm:"not null;default:false" json:"attended"`
	AbsenceReason *string   `json:"absence_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Session *TrainingSession `gorm:"foreignKey:SessionID;references:SessionID" json:"-"`
	Player  *Player          `gorm:"foreignKey:PlayerID;references:PlayerID" json:"-"`
}

func (AttendanceRecord) TableName() string {
	return "attendance"
}

// AttendanceWithPlayer は出欠行に選手情報を付けた読み取り用の形
type AttendanceWithPlayer struct {
	AttendanceID  uuid.UUID `json:"attendance_id"`
	SessionID     uuid.UUID `json:"session_id"`
	PlayerID      uuid.UUID `json:"player_id"`
	Attended      bool      `json:"attended"`
	AbsenceReason *string   `json:"absence_reason,omitempty"`
	Name          string    `json:"name"`
	LastName      string    `json:"last_name"`
	Category      string    `json:"category"`
	Position      string    `json:"position"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// 出欠登録リクエストDTO
type PostAttendanceRequest struct {
	SessionID     string  `json:"session_id" validate:"required,uuid"`
	PlayerID      string  `json:"player_id" validate:"required,uuid"`
	Attended      *bool   `json:"attended" validate:"required"`
	AbsenceReason *string `json:"absence_reason,omitempty" validate:"omitempty,max=255"`
}

// 出欠更新（部分）リクエストDTO
type UpdateAttendanceRequest struct {
	Attended      *bool   `json:"attended,omitempty"`
	AbsenceReason *string `json:"absence_reason,omitempty" validate:"omitempty,max=255"`
}

// 一括出欠登録リクエストDTO
type BulkAttendanceRequest struct {
	SessionID string               `json:"session_id" validate:"required,uuid"`
	Items     []BulkAttendanceItem `json:"attendance" validate:"required,min=1,dive"`
}

type BulkAttendanceItem struct {
	PlayerID      string  `json:"player_id" validate:"required,uuid"`
	Attended      bool    `json:"attended"`
	AbsenceReason *string `json:"absence_reason,omitempty" validate:"omitempty,max=255"`
}

// BulkAttendanceResult は一括登録の結果。所有権チェックで弾かれた選手は
// エラーにせずIDを返す（呼び出し側が件数の差分を検知できるように）。
type BulkAttendanceResult struct {
	Applied          int         `json:"applied"`
	SkippedPlayerIDs []uuid.UUID `json:"skipped_player_ids"`
}
