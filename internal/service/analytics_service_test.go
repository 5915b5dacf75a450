package service

import (
	"context"
	"testing"
	"time"

	"go_5_attend_keep/internal/config"
	"go_5_attend_keep/internal/model"
	"go_5_attend_keep/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAnalyticsService(db *gorm.DB) AnalyticsService {
	cfg := &config.Config{}
	cfg.App.DashboardWindowDays = 30
	cfg.App.TrendWindowDays = 90
	return NewAnalyticsService(
		db,
		cfg,
		repository.NewGormAttendanceRepository(),
		repository.NewGormPlayerRepository(),
		repository.NewGormTrainingRepository(),
	)
}

func Test_rollingAverage(t *testing.T) {
	s1 := uuid.New()
	s2 := uuid.New()

	tests := []struct {
		name string
		rows []model.SessionAttendanceRow
		want float64
	}{
		{
			name: "セッションごとの比率の平均になる",
			// s1: 3/4, s2: 2/4 → (75 + 50) / 2 = 62.5
			rows: []model.SessionAttendanceRow{
				{SessionID: s1, Attended: true},
				{SessionID: s1, Attended: true},
				{SessionID: s1, Attended: true},
				{SessionID: s1, Attended: false},
				{SessionID: s2, Attended: true},
				{SessionID: s2, Attended: true},
				{SessionID: s2, Attended: false},
				{SessionID: s2, Attended: false},
			},
			want: 62.5,
		},
		{
			name: "行が無ければ0",
			rows: nil,
			want: 0,
		},
		{
			name: "全員出席なら100",
			rows: []model.SessionAttendanceRow{
				{SessionID: s1, Attended: true},
				{SessionID: s1, Attended: true},
			},
			want: 100,
		},
		{
			name: "小数1桁に丸められる",
			// 1/3 → 33.333... → 33.3
			rows: []model.SessionAttendanceRow{
				{SessionID: s1, Attended: true},
				{SessionID: s1, Attended: false},
				{SessionID: s1, Attended: false},
			},
			want: 33.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, rollingAverage(tt.rows), 0.001)
		})
	}
}

func Test_buildTrendSeries(t *testing.T) {
	june := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	july := time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC)

	t.Run("正常系: (カテゴリ, 月)ごとに集計され月の昇順で返る", func(t *testing.T) {
		rows := []model.CategoryAttendanceRow{
			{Category: model.CategorySenior, Date: june, Attended: true},
			{Category: model.CategorySenior, Date: june, Attended: false},
			{Category: model.CategorySenior, Date: july, Attended: true},
			{Category: model.CategoryJunior, Date: june, Attended: true},
			{Category: model.CategoryCadete, Date: july, Attended: false},
		}

		points := buildTrendSeries(rows)
		require.Len(t, points, 4)

		// 月が第一キー。cadeteは辞書順で先頭だが7月分なので6月の2点より後ろに来る
		assert.Equal(t, model.TrendPoint{Category: model.CategoryJunior, Month: "2025-06", Rate: 100}, points[0])
		assert.Equal(t, model.TrendPoint{Category: model.CategorySenior, Month: "2025-06", Rate: 50}, points[1])
		assert.Equal(t, model.TrendPoint{Category: model.CategoryCadete, Month: "2025-07", Rate: 0}, points[2])
		assert.Equal(t, model.TrendPoint{Category: model.CategorySenior, Month: "2025-07", Rate: 100}, points[3])
	})

	t.Run("正常系: 出欠行が無い組は出力されない", func(t *testing.T) {
		points := buildTrendSeries(nil)
		assert.Empty(t, points)
	})
}

func Test_analyticsService_GetDashboardMetrics(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newAnalyticsService(db)

	owner := seedUser(t, db, model.RoleAdmin)
	p1 := seedPlayer(t, db, owner.UserID, "太郎", model.CategorySenior)
	p2 := seedPlayer(t, db, owner.UserID, "次郎", model.CategorySenior)

	training := &model.Training{
		TrainingID: uuid.New(),
		OwnerID:    owner.UserID,
		DayOfWeek:  1,
		StartTime:  "19:00",
		EndTime:    "21:00",
		Name:       "月曜練習",
		IsActive:   true,
	}
	require.NoError(t, db.Create(training).Error)

	// 期間内: 出席1/欠席1 → 50%
	recent := seedSession(t, db, owner.UserID, time.Now().AddDate(0, 0, -3))
	seedAttendance(t, db, recent.SessionID, p1.PlayerID, true, nil)
	seedAttendance(t, db, recent.SessionID, p2.PlayerID, false, nil)

	// 出欠行の無いセッションは平均の分母に入らない
	seedSession(t, db, owner.UserID, time.Now().AddDate(0, 0, -2))

	metrics, err := svc.GetDashboardMetrics(ctx, owner.UserID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), metrics.TotalPlayers)
	assert.InDelta(t, 50.0, metrics.AvgAttendance, 0.001)
	require.Len(t, metrics.UpcomingTrainings, 1)
	assert.Equal(t, "月曜練習", metrics.UpcomingTrainings[0].Name)
	assert.Equal(t, int64(2), metrics.UpcomingTrainings[0].ActivePlayerCount)
	assert.NotEmpty(t, metrics.Trends)
}
