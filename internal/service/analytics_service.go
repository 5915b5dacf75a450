package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go_5_attend_keep/internal/config"
	"go_5_attend_keep/internal/middleware"
	"go_5_attend_keep/internal/model"
	"go_5_attend_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnalyticsService はダッシュボード向けの集計を担う。
// 取得はリポジトリに任せ、集計そのものは取得済みの行に対する純粋関数で行う。
type AnalyticsService interface {
	GetDashboardMetrics(ctx context.Context, ownerID uuid.UUID) (*model.DashboardMetrics, error)
	GetTrendSeries(ctx context.Context, ownerID uuid.UUID) ([]model.TrendPoint, error)
}

type analyticsService struct {
	db             *gorm.DB
	cfg            *config.Config
	attendanceRepo repository.AttendanceRepository
	playerRepo     repository.PlayerRepository
	trainingRepo   repository.TrainingRepository
}

func NewAnalyticsService(db *gorm.DB, cfg *config.Config, attendanceRepo repository.AttendanceRepository, playerRepo repository.PlayerRepository, trainingRepo repository.TrainingRepository) AnalyticsService {
	return &analyticsService{
		db:             db,
		cfg:            cfg,
		attendanceRepo: attendanceRepo,
		playerRepo:     playerRepo,
		trainingRepo:   trainingRepo,
	}
}

func (s *analyticsService) GetDashboardMetrics(ctx context.Context, ownerID uuid.UUID) (*model.DashboardMetrics, error) {
	logger := middleware.GetLogger(ctx).With("owner_id", ownerID.String())

	totalPlayers, err := s.playerRepo.CountActive(ctx, s.db, ownerID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "選手数の取得に失敗しました。", "", err)
	}

	since := time.Now().AddDate(0, 0, -s.cfg.App.DashboardWindowDays)
	rows, err := s.attendanceRepo.ListSessionRowsSince(ctx, s.db, ownerID, since)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "出欠集計の取得に失敗しました。", "", err)
	}
	avg := rollingAverage(rows)

	trends, err := s.GetTrendSeries(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	upcoming, err := s.listUpcomingTrainings(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	logger.Debug("Dashboard metrics computed",
		"total_players", totalPlayers, "avg_attendance", avg, "trend_points", len(trends))

	return &model.DashboardMetrics{
		TotalPlayers:      totalPlayers,
		AvgAttendance:     avg,
		Trends:            trends,
		UpcomingTrainings: upcoming,
	}, nil
}

func (s *analyticsService) GetTrendSeries(ctx context.Context, ownerID uuid.UUID) ([]model.TrendPoint, error) {
	since := time.Now().AddDate(0, 0, -s.cfg.App.TrendWindowDays)
	rows, err := s.attendanceRepo.ListCategoryRowsSince(ctx, s.db, ownerID, since)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "トレンド集計の取得に失敗しました。", "", err)
	}
	return buildTrendSeries(rows), nil
}

func (s *analyticsService) listUpcomingTrainings(ctx context.Context, ownerID uuid.UUID) ([]model.UpcomingTraining, error) {
	active := true
	trainings, err := s.trainingRepo.FindByOwner(ctx, s.db, ownerID, &active)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "練習枠一覧の取得に失敗しました。", "", err)
	}

	activeCount, err := s.playerRepo.CountActive(ctx, s.db, ownerID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "選手数の取得に失敗しました。", "", err)
	}

	upcoming := make([]model.UpcomingTraining, 0, len(trainings))
	for _, t := range trainings {
		upcoming = append(upcoming, model.UpcomingTraining{
			TrainingResponse:  t.ToResponse(),
			ActivePlayerCount: activeCount,
		})
	}
	return upcoming, nil
}

// rollingAverage はセッションごとの出席率（出席数/記録数）の単純平均を
// 0〜100・小数1桁で返す。出欠行が1件も無いセッションは分母に含まれない。
func rollingAverage(rows []model.SessionAttendanceRow) float64 {
	type counter struct {
		present int
		total   int
	}
	bySession := make(map[uuid.UUID]*counter)
	order := make([]uuid.UUID, 0)
	for _, row := range rows {
		c, ok := bySession[row.SessionID]
		if !ok {
			c = &counter{}
			bySession[row.SessionID] = c
			order = append(order, row.SessionID)
		}
		c.total++
		if row.Attended {
			c.present++
		}
	}
	if len(order) == 0 {
		return 0
	}

	var sum float64
	for _, id := range order {
		c := bySession[id]
		sum += float64(c.present) / float64(c.total) * 100
	}
	return math.Round(sum/float64(len(order))*10) / 10
}

// buildTrendSeries は (カテゴリ, 月) ごとの出席率を組み立てる。
// 出欠行が存在しない組は出力しない。月→カテゴリの昇順で安定して返す。
func buildTrendSeries(rows []model.CategoryAttendanceRow) []model.TrendPoint {
	type key struct {
		category string
		month    string
	}
	type counter struct {
		present int
		total   int
	}
	byKey := make(map[key]*counter)
	for _, row := range rows {
		k := key{category: row.Category, month: row.Date.Format("2006-01")}
		c, ok := byKey[k]
		if !ok {
			c = &counter{}
			byKey[k] = c
		}
		c.total++
		if row.Attended {
			c.present++
		}
	}

	keys := make([]key, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].month != keys[j].month {
			return keys[i].month < keys[j].month
		}
		return keys[i].category < keys[j].category
	})

	points := make([]model.TrendPoint, 0, len(keys))
	for _, k := range keys {
		c := byKey[k]
		rate := math.Round(float64(c.present)/float64(c.total)*100*10) / 10
		points = append(points, model.TrendPoint{
			Category: k.category,
			Month:    k.month,
			Rate:     rate,
		})
	}
	return points
}
