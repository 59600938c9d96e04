// file: internals/features/exams/results/model/exam_result_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

/*
=========================================================

	EXAM RESULTS
	1 row = 1 attempt (exam × student × attempt_number)
	- IMMUTABLE setelah insert: koreksi = attempt baru,
	  tidak pernah update skor
	- unique index (exam_id, student_id, attempt_number)
	  = otoritas idempotensi, duplicate key ≠ error fatal

=========================================================
*/

// Sumber komputasi hasil (provenance)
type ResultComputationSource string

const (
	ResultSourceDirectStorage     ResultComputationSource = "direct_storage"
	ResultSourceFallbackCompute   ResultComputationSource = "fallback_compute"
	ResultSourceEmergencyFallback ResultComputationSource = "emergency_fallback"
)

// Status per soal di question analysis
type QuestionAnalysisStatus string

const (
	QuestionStatusCorrect          QuestionAnalysisStatus = "correct"
	QuestionStatusIncorrect        QuestionAnalysisStatus = "incorrect"
	QuestionStatusUnattempted      QuestionAnalysisStatus = "unattempted"
	QuestionStatusPartiallyCorrect QuestionAnalysisStatus = "partially_correct"
)

/* =========================================================
   JSONB STRUCTS
========================================================= */

// Satu entry analisis per soal (disimpan JSONB)
type QuestionAnalysisItem struct {
	QuestionID    uuid.UUID              `json:"question_id"`
	Status        QuestionAnalysisStatus `json:"status"`
	Marks         float64                `json:"marks"`
	UserAnswer    string                 `json:"user_answer"`
	CorrectAnswer string                 `json:"correct_answer"`
}

// Ringkasan performa per subject (disimpan JSONB)
type SubjectPerformanceItem struct {
	Subject     string  `json:"subject"`
	Correct     int     `json:"correct"`
	Incorrect   int     `json:"incorrect"`
	Unattempted int     `json:"unattempted"`
	Marks       float64 `json:"marks"`
	TotalMarks  float64 `json:"total_marks"`
}

/*
=========================================================

	MODEL

=========================================================
*/
type ExamResultModel struct {
	// PK teknis
	ExamResultID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:exam_result_id" json:"exam_result_id"`

	// Identitas attempt — triple unik
	ExamResultExamID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_exam_result_attempt,priority:1;column:exam_result_exam_id" json:"exam_result_exam_id"`
	ExamResultStudentID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_exam_result_attempt,priority:2;column:exam_result_student_id" json:"exam_result_student_id"`
	ExamResultAttemptNumber int       `gorm:"type:int;not null;uniqueIndex:uq_exam_result_attempt,priority:3;column:exam_result_attempt_number" json:"exam_result_attempt_number"`

	// Nilai
	ExamResultScore      float64 `gorm:"type:numeric(8,2);not null;column:exam_result_score" json:"exam_result_score"`
	ExamResultTotalMarks float64 `gorm:"type:numeric(8,2);not null;column:exam_result_total_marks" json:"exam_result_total_marks"`
	ExamResultPercentage float64 `gorm:"type:numeric(6,3);not null;column:exam_result_percentage" json:"exam_result_percentage"`

	// Hitungan jawaban
	ExamResultCorrectAnswers   int `gorm:"type:int;not null;default:0;column:exam_result_correct_answers" json:"exam_result_correct_answers"`
	ExamResultIncorrectAnswers int `gorm:"type:int;not null;default:0;column:exam_result_incorrect_answers" json:"exam_result_incorrect_answers"`
	ExamResultUnattempted      int `gorm:"type:int;not null;default:0;column:exam_result_unattempted" json:"exam_result_unattempted"`

	// Detail analisis (JSONB)
	ExamResultQuestionAnalysis   datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'::jsonb;column:exam_result_question_analysis" json:"exam_result_question_analysis"`
	ExamResultSubjectPerformance datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'::jsonb;column:exam_result_subject_performance" json:"exam_result_subject_performance"`

	// Metadata pengerjaan
	ExamResultTimeTaken        int            `gorm:"type:int;not null;default:0;column:exam_result_time_taken" json:"exam_result_time_taken"` // detik
	ExamResultCompletedAt      time.Time      `gorm:"type:timestamptz;not null;column:exam_result_completed_at" json:"exam_result_completed_at"`
	ExamResultWarnings         int            `gorm:"type:int;not null;default:0;column:exam_result_warnings" json:"exam_result_warnings"`
	ExamResultVisitedQuestions datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'::jsonb;column:exam_result_visited_questions" json:"exam_result_visited_questions"`
	ExamResultMarkedQuestions  datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'::jsonb;column:exam_result_marked_questions" json:"exam_result_marked_questions"`

	// ====== PROVENANCE ======
	ExamResultComputationSource ResultComputationSource `gorm:"type:varchar(30);not null;column:exam_result_computation_source" json:"exam_result_computation_source"`
	ExamResultProcessingMs      int64                   `gorm:"type:bigint;not null;default:0;column:exam_result_processing_ms" json:"exam_result_processing_ms"`
	ExamResultValidationHash    string                  `gorm:"type:varchar(80);not null;default:'';column:exam_result_validation_hash" json:"exam_result_validation_hash"`
	ExamResultEngineVersion     string                  `gorm:"type:varchar(30);not null;default:'';column:exam_result_engine_version" json:"exam_result_engine_version"`
	ExamResultRequestID         string                  `gorm:"type:varchar(60);not null;default:'';column:exam_result_request_id" json:"exam_result_request_id"`

	// Timestamps (tanpa updated_at — record tidak pernah diupdate)
	ExamResultCreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime;column:exam_result_created_at" json:"exam_result_created_at"`
}

// TableName override default GORM → pakai nama tabel nyata di DB
func (ExamResultModel) TableName() string {
	return "exam_results"
}
