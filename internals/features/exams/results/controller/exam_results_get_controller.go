// file: internals/features/exams/results/controller/exam_results_get_controller.go
package controller

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	rdto "ujianku_backend/internals/features/exams/results/dto"
	rmodel "ujianku_backend/internals/features/exams/results/model"
	helper "ujianku_backend/internals/helpers"
)

type ExamResultsGetController struct {
	DB *gorm.DB
}

func NewExamResultsGetController(db *gorm.DB) *ExamResultsGetController {
	return &ExamResultsGetController{DB: db}
}

// GET /exam-results/:id
func (ctl *ExamResultsGetController) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "id tidak valid")
	}

	var m rmodel.ExamResultModel
	if err := ctl.DB.WithContext(c.UserContext()).
		First(&m, "exam_result_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Hasil ujian tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, "Gagal mengambil hasil ujian")
	}

	return helper.Success(c, "OK", rdto.FromExamResultModel(&m))
}

// GET /exam-results?exam_id=&student_id=&source=&page=&per_page=
func (ctl *ExamResultsGetController) List(c *fiber.Ctx) error {
	paging := helper.ResolvePaging(c, 20, 100)

	q := ctl.DB.WithContext(c.UserContext()).Model(&rmodel.ExamResultModel{})

	if raw := strings.TrimSpace(c.Query("exam_id")); raw != "" {
		examID, err := uuid.Parse(raw)
		if err != nil {
			return helper.Error(c, fiber.StatusBadRequest, "exam_id tidak valid")
		}
		q = q.Where("exam_result_exam_id = ?", examID)
	}
	if raw := strings.TrimSpace(c.Query("student_id")); raw != "" {
		studentID, err := uuid.Parse(raw)
		if err != nil {
			return helper.Error(c, fiber.StatusBadRequest, "student_id tidak valid")
		}
		q = q.Where("exam_result_student_id = ?", studentID)
	}
	if src := strings.TrimSpace(c.Query("source")); src != "" {
		q = q.Where("exam_result_computation_source = ?", src)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Gagal menghitung hasil ujian")
	}

	var rows []rmodel.ExamResultModel
	if err := q.
		Order("exam_result_created_at DESC").
		Offset(paging.Offset).Limit(paging.Limit).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Gagal mengambil hasil ujian")
	}

	items := make([]rdto.ExamResultResponse, 0, len(rows))
	for i := range rows {
		items = append(items, rdto.FromExamResultModel(&rows[i]))
	}

	return helper.JsonList(c, "OK", items, helper.BuildPaginationFromOffset(total, paging.Offset, paging.Limit))
}
