// file: internals/features/exams/exams/model/exam_question_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
=========================================================

	EXAM QUESTIONS
	Sumber kebenaran scoring (positive/negative/partial rules)
	dipakai oleh scoring engine & spot-check

=========================================================
*/
type ExamQuestionModel struct {
	ExamQuestionID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:exam_question_id" json:"exam_question_id"`
	ExamQuestionExamID uuid.UUID `gorm:"type:uuid;not null;index;column:exam_question_exam_id" json:"exam_question_exam_id"`

	ExamQuestionSubject string `gorm:"type:varchar(80);not null;default:'';column:exam_question_subject" json:"exam_question_subject"`
	ExamQuestionText    string `gorm:"type:text;not null;column:exam_question_text" json:"exam_question_text"`

	// Jawaban benar (key opsi utk pilihan ganda, teks utk isian)
	ExamQuestionCorrectAnswer string `gorm:"type:text;not null;default:'';column:exam_question_correct_answer" json:"exam_question_correct_answer"`

	// Aturan nilai
	ExamQuestionPositiveMarks float64 `gorm:"type:numeric(6,2);not null;default:4;column:exam_question_positive_marks" json:"exam_question_positive_marks"`
	ExamQuestionNegativeMarks float64 `gorm:"type:numeric(6,2);not null;default:0;column:exam_question_negative_marks" json:"exam_question_negative_marks"`

	// Aturan partial marking (JSONB) — dimiliki scoring engine, pipeline tidak menafsirkan
	ExamQuestionPartialRules datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'::jsonb;column:exam_question_partial_rules" json:"exam_question_partial_rules"`

	ExamQuestionVersion int `gorm:"type:int;not null;default:1;column:exam_question_version" json:"exam_question_version"`

	ExamQuestionCreatedAt time.Time      `gorm:"type:timestamptz;not null;default:now();autoCreateTime;column:exam_question_created_at" json:"exam_question_created_at"`
	ExamQuestionUpdatedAt time.Time      `gorm:"type:timestamptz;not null;default:now();autoUpdateTime;column:exam_question_updated_at" json:"exam_question_updated_at"`
	ExamQuestionDeletedAt gorm.DeletedAt `gorm:"column:exam_question_deleted_at;index" json:"exam_question_deleted_at,omitempty"`
}

func (ExamQuestionModel) TableName() string {
	return "exam_questions"
}
