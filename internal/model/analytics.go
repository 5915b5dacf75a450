package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionAttendanceRow は集計の入力になる生の出欠行（セッション単位の比率計算用）
type SessionAttendanceRow struct {
	SessionID uuid.UUID
	Attended  bool
}

// CategoryAttendanceRow はカテゴリ別トレンドの入力になる生の出欠行
type CategoryAttendanceRow struct {
	Category string
	Date     time.Time
	Attended bool
}

// TrendPoint は (カテゴリ, 月) ごとの出席率。出欠行が無い組は出力されない。
type TrendPoint struct {
	Category string  `json:"category"`
	Month    string  `json:"month"` // "2006-01" 形式
	Rate     float64 `json:"rate"`  // 0〜100
}

// UpcomingTraining はダッシュボードに出す有効な練習枠
type UpcomingTraining struct {
	TrainingResponse
	ActivePlayerCount int64 `json:"active_player_count"`
}

// DashboardMetrics はダッシュボード1画面分の集計結果
type DashboardMetrics struct {
	TotalPlayers      int64              `json:"total_players"`
	AvgAttendance     float64            `json:"avg_attendance"` // 直近30日、小数1桁
	Trends            []TrendPoint       `json:"trends"`
	UpcomingTrainings []UpcomingTraining `json:"upcoming_trainings"`
}
