package service

import (
	"context"

	"go_5_attend_keep/internal/middleware"
	"go_5_attend_keep/internal/model"
	"go_5_attend_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportService は出欠レポートの組み立てを担う。描画（PDF等）は外部の責務で、
// ここでは構造化されたレポートデータを返すところまで。
type ReportService interface {
	GetAttendanceReport(ctx context.Context, ownerID uuid.UUID, filters model.ReportFilters) (*model.AttendanceReport, error)
}

type reportService struct {
	db             *gorm.DB
	attendanceRepo repository.AttendanceRepository
}

func NewReportService(db *gorm.DB, attendanceRepo repository.AttendanceRepository) ReportService {
	return &reportService{db: db, attendanceRepo: attendanceRepo}
}

func (s *reportService) GetAttendanceReport(ctx context.Context, ownerID uuid.UUID, filters model.ReportFilters) (*model.AttendanceReport, error) {
	logger := middleware.GetLogger(ctx).With("owner_id", ownerID.String())

	rows, err := s.attendanceRepo.ListReportRows(ctx, s.db, ownerID, filters)
	if err != nil {
		logger.Error("Failed to fetch report rows", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "レポートの取得に失敗しました。", "", err)
	}

	return &model.AttendanceReport{
		Summary: buildPlayerSummaries(rows),
		Details: rows,
		Period:  model.ReportPeriod{From: filters.From, To: filters.To},
	}, nil
}

// buildPlayerSummaries は明細行を選手ごとに畳み込む。
// 入力が姓・名・日付順で来る前提で、出現順をそのまま保つ。
func buildPlayerSummaries(rows []model.ReportRow) []model.PlayerReportSummary {
	index := make(map[uuid.UUID]int)
	summaries := make([]model.PlayerReportSummary, 0)

	for _, row := range rows {
		i, ok := index[row.PlayerID]
		if !ok {
			i = len(summaries)
			index[row.PlayerID] = i
			summaries = append(summaries, model.PlayerReportSummary{
				PlayerID: row.PlayerID,
				Name:     row.Name,
				LastName: row.LastName,
				Category: row.Category,
				Position: row.Position,
				Absences: []model.AbsenceEntry{},
			})
		}

		summaries[i].Total++
		if row.Attended {
			summaries[i].Attended++
		} else {
			summaries[i].Missed++
			reason := model.AbsenceReasonNone
			if row.AbsenceReason != nil && *row.AbsenceReason != "" {
				reason = *row.AbsenceReason
			}
			summaries[i].Absences = append(summaries[i].Absences, model.AbsenceEntry{
				Date:   row.Date,
				Reason: reason,
			})
		}
	}

	for i := range summaries {
		summaries[i].AttendanceRate = formatRate(summaries[i].Attended, summaries[i].Total)
	}
	return summaries
}
