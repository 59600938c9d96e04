// file: internals/features/exams/results/service/gorm_repos.go
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	examModel "ujianku_backend/internals/features/exams/exams/model"
	resultModel "ujianku_backend/internals/features/exams/results/model"
	studentModel "ujianku_backend/internals/features/users/students/model"
)

/* =========================================================
   IMPLEMENTASI GORM utk ExamReader / StudentReader / ResultStore
========================================================= */

type GormExamReader struct{ DB *gorm.DB }

func (r *GormExamReader) FindExam(ctx context.Context, examID uuid.UUID) (*examModel.ExamModel, error) {
	var exam examModel.ExamModel
	err := r.DB.WithContext(ctx).
		First(&exam, "exam_id = ?", examID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}
	return &exam, nil
}

type GormStudentReader struct{ DB *gorm.DB }

func (r *GormStudentReader) FindStudent(ctx context.Context, studentID uuid.UUID) (*studentModel.StudentModel, error) {
	var student studentModel.StudentModel
	err := r.DB.WithContext(ctx).
		First(&student, "student_id = ?", studentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return &student, nil
}

type GormResultStore struct{ DB *gorm.DB }

func (s *GormResultStore) CountAttempts(ctx context.Context, examID, studentID uuid.UUID) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&resultModel.ExamResultModel{}).
		Where("exam_result_exam_id = ? AND exam_result_student_id = ?", examID, studentID).
		Count(&count).Error
	return count, err
}

func (s *GormResultStore) Insert(ctx context.Context, rec *resultModel.ExamResultModel) error {
	return s.DB.WithContext(ctx).Create(rec).Error
}

// AppendExamResultRef menambah result_id ke exam_result_refs (JSONB).
// Best-effort: dipanggil setelah record durable, gagal hanya dicatat caller.
func (s *GormResultStore) AppendExamResultRef(ctx context.Context, examID, resultID uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exam examModel.ExamModel
		if err := tx.First(&exam, "exam_id = ?", examID).Error; err != nil {
			return err
		}
		if err := exam.AppendResultRef(resultID); err != nil {
			return err
		}
		return tx.Model(&examModel.ExamModel{}).
			Where("exam_id = ?", examID).
			Update("exam_result_refs", exam.ExamResultRefs).Error
	})
}
