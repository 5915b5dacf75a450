package model

import (
	"time"

	"github.com/google/uuid"
)

// 欠席理由が未入力のときに一覧へ出す表示用の文字列
const AbsenceReasonNone = "理由未記入"

// ReportFilters はレポート抽出条件。すべて任意。
type ReportFilters struct {
	From     *time.Time
	To       *time.Time
	Category *string
	PlayerID *uuid.UUID
}

// ReportRow はレポートの明細1行（出欠×選手×セッションの結合結果）
type ReportRow struct {
	PlayerID      uuid.UUID `json:"player_id"`
	Name          string    `json:"name"`
	LastName      string    `json:"last_name"`
	Category      string    `json:"category"`
	Position      string    `json:"position"`
	Date          time.Time `json:"date"`
	TrainingName  string    `json:"training_name"`
	Attended      bool      `json:"attended"`
	AbsenceReason *string   `json:"absence_reason,omitempty"`
}

// AbsenceEntry は欠席1件（日付と理由）。理由がNULLなら AbsenceReasonNone を入れる。
type AbsenceEntry struct {
	Date   time.Time `json:"date"`
	Reason string    `json:"reason"`
}

// PlayerReportSummary は選手ごとの集計。AttendanceRate は小数1桁の文字列
// （明細が0行の選手は "0.0"）。
type PlayerReportSummary struct {
	PlayerID       uuid.UUID      `json:"player_id"`
	Name           string         `json:"name"`
	LastName       string         `json:"last_name"`
	Category       string         `json:"category"`
	Position       string         `json:"position"`
	Total          int            `json:"total"`
	Attended       int            `json:"attended"`
	Missed         int            `json:"missed"`
	AttendanceRate string         `json:"attendance_rate"`
	Absences       []AbsenceEntry `json:"absences"`
}

// AttendanceReport は外部のレンダラ（PDF/表計算）へ渡す構造そのもの。
// 描画はこのコアの責務ではない。
type AttendanceReport struct {
	Summary []PlayerReportSummary `json:"summary"`
	Details []ReportRow           `json:"details"`
	Period  ReportPeriod          `json:"period"`
}

type ReportPeriod struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// PlayerStats は選手1人の出欠統計（期間指定つき照会用）
type PlayerStats struct {
	TotalSessions  int            `json:"total_sessions"`
	Attended       int            `json:"attended"`
	Missed         int            `json:"missed"`
	AttendanceRate string         `json:"attendance_rate"`
	Absences       []AbsenceEntry `json:"absences"`
}
