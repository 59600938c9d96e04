// file: internals/features/exams/results/controller/exam_result_dashboard_controller.go
package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	rmodel "ujianku_backend/internals/features/exams/results/model"
	rservice "ujianku_backend/internals/features/exams/results/service"
	helper "ujianku_backend/internals/helpers"
)

/* =========================================================
   DASHBOARD PIPELINE
   Ringkasan kesehatan pipeline untuk admin:
   - agregat persist (per computation_source, avg processing)
   - window metrics in-memory dari PerformanceMonitor
========================================================= */

type ExamResultDashboardController struct {
	DB      *gorm.DB
	Monitor *rservice.PerformanceMonitor
}

func NewExamResultDashboardController(db *gorm.DB, monitor *rservice.PerformanceMonitor) *ExamResultDashboardController {
	return &ExamResultDashboardController{DB: db, Monitor: monitor}
}

type sourceAggRow struct {
	Source          string  `json:"source" gorm:"column:source"`
	Count           int64   `json:"count" gorm:"column:cnt"`
	AvgProcessingMs float64 `json:"avg_processing_ms" gorm:"column:avg_ms"`
	AvgPercentage   float64 `json:"avg_percentage" gorm:"column:avg_pct"`
}

// GET /exam-results/dashboard?exam_id=
func (ctl *ExamResultDashboardController) Overview(c *fiber.Ctx) error {
	q := ctl.DB.WithContext(c.UserContext()).Model(&rmodel.ExamResultModel{})

	if raw := strings.TrimSpace(c.Query("exam_id")); raw != "" {
		examID, err := uuid.Parse(raw)
		if err != nil {
			return helper.Error(c, fiber.StatusBadRequest, "exam_id tidak valid")
		}
		q = q.Where("exam_result_exam_id = ?", examID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Gagal mengambil agregat hasil")
	}

	var perSource []sourceAggRow
	if err := q.Session(&gorm.Session{}).
		Select(`exam_result_computation_source AS source,
			COUNT(*) AS cnt,
			COALESCE(AVG(exam_result_processing_ms), 0) AS avg_ms,
			COALESCE(AVG(exam_result_percentage), 0) AS avg_pct`).
		Group("exam_result_computation_source").
		Order("cnt DESC").
		Scan(&perSource).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Gagal mengambil agregat per source")
	}

	// rasio fallback persist (bukan cuma window in-memory)
	var fallbackCount int64
	for _, row := range perSource {
		if row.Source != string(rmodel.ResultSourceDirectStorage) {
			fallbackCount += row.Count
		}
	}
	fallbackRate := 0.0
	if total > 0 {
		fallbackRate = float64(fallbackCount) / float64(total)
	}

	return helper.JsonOK(c, "OK", fiber.Map{
		"total_results":       total,
		"per_source":          perSource,
		"fallback_rate":       fallbackRate,
		"performance_metrics": ctl.Monitor.Snapshot(),
	})
}
