// file: internals/features/exams/results/dto/exam_result_submission_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

/* ==========================================================================================
   REQUEST — SUBMIT HASIL UJIAN (UNTRUSTED)
   Client mengirim hasil yang SUDAH dihitung sendiri. Semua angka di sini
   dianggap tidak terpercaya sampai lolos pipeline validasi.

   Dua bentuk payload, dibedakan lewat evaluation_source:
   - client_computed      : nilai di field top-level
   - progressive_computed : nilai di sub-objek progressive_result
========================================================================================== */

type EvaluationSource string

const (
	EvaluationSourceClient      EvaluationSource = "client_computed"
	EvaluationSourceProgressive EvaluationSource = "progressive_computed"
)

type QuestionAnalysisPayload struct {
	QuestionID    uuid.UUID `json:"question_id" validate:"required"`
	Status        string    `json:"status" validate:"required,oneof=correct incorrect unattempted partially_correct"`
	Marks         float64   `json:"marks"`
	UserAnswer    string    `json:"user_answer"`
	CorrectAnswer string    `json:"correct_answer"`
}

type SubjectPerformancePayload struct {
	Subject     string  `json:"subject" validate:"required"`
	Correct     int     `json:"correct" validate:"gte=0"`
	Incorrect   int     `json:"incorrect" validate:"gte=0"`
	Unattempted int     `json:"unattempted" validate:"gte=0"`
	Marks       float64 `json:"marks"`
	TotalMarks  float64 `json:"total_marks"`
}

// Bentuk progressive: skor dihitung bertahap di client, dikirim sebagai sub-objek.
// computed_score/computed_total juga dipakai transformer sebagai sumber recovery
// saat final_score/total_marks korup (bernilai 0 padahal ada jawaban).
type ProgressiveResultPayload struct {
	ComputedScore      float64                     `json:"computed_score"`
	ComputedTotalMarks float64                     `json:"computed_total_marks"`
	ComputedPercentage float64                     `json:"computed_percentage"`
	CorrectAnswers     int                         `json:"correct_answers" validate:"gte=0"`
	IncorrectAnswers   int                         `json:"incorrect_answers" validate:"gte=0"`
	Unattempted        int                         `json:"unattempted" validate:"gte=0"`
	QuestionAnalysis   []QuestionAnalysisPayload   `json:"question_analysis" validate:"omitempty,dive"`
	SubjectPerformance []SubjectPerformancePayload `json:"subject_performance" validate:"omitempty,dive"`
}

type SubmitExamResultRequest struct {
	ExamID    uuid.UUID `json:"exam_id" validate:"required"`
	StudentID uuid.UUID `json:"student_id" validate:"omitempty"` // bisa diisi server dari token

	// key = question_id, value = jawaban murid
	Answers map[string]string `json:"answers"`

	// Klaim client (bentuk client_computed)
	FinalScore       float64 `json:"final_score"`
	TotalMarks       float64 `json:"total_marks"`
	Percentage       float64 `json:"percentage"`
	CorrectAnswers   int     `json:"correct_answers" validate:"gte=0"`
	IncorrectAnswers int     `json:"incorrect_answers" validate:"gte=0"`
	Unattempted      int     `json:"unattempted" validate:"gte=0"`

	QuestionAnalysis   []QuestionAnalysisPayload   `json:"question_analysis" validate:"omitempty,dive"`
	SubjectPerformance []SubjectPerformancePayload `json:"subject_performance" validate:"omitempty,dive"`

	// Timing & navigasi
	TimeTaken        int         `json:"time_taken" validate:"gte=0"` // detik
	CompletedAt      time.Time   `json:"completed_at"`
	VisitedQuestions []uuid.UUID `json:"visited_questions"`
	MarkedQuestions  []uuid.UUID `json:"marked_questions"`
	Warnings         int         `json:"warnings" validate:"gte=0"`

	// Discriminator bentuk payload
	EvaluationSource EvaluationSource `json:"evaluation_source" validate:"omitempty,oneof=client_computed progressive_computed"`

	// Sub-objek bentuk progressive (wajib saat evaluation_source=progressive_computed)
	ProgressiveResult *ProgressiveResultPayload `json:"progressive_result" validate:"omitempty"`

	// Hash konten klaim client (opsional, diverifikasi layer statistik)
	ComputationHash string `json:"computation_hash"`
	EngineVersion   string `json:"engine_version" validate:"omitempty,max=30"`
}

/* ==========================================================================================
   RESPONSE — KONTRAK OUTPUT SUBMIT
========================================================================================== */

type SubmitResultData struct {
	Score            float64   `json:"score"`
	TotalMarks       float64   `json:"total_marks"`
	Percentage       float64   `json:"percentage"`
	CorrectAnswers   int       `json:"correct_answers"`
	IncorrectAnswers int       `json:"incorrect_answers"`
	Unattempted      int       `json:"unattempted"`
	TimeTaken        int       `json:"time_taken"`
	CompletedAt      time.Time `json:"completed_at"`
	AttemptNumber    int       `json:"attempt_number"`
	ResultID         uuid.UUID `json:"result_id"`
}

type SubmitExamResultResponse struct {
	Success            bool              `json:"success"`
	Message            string            `json:"message"`
	Result             *SubmitResultData `json:"result,omitempty"`
	ProcessingTimeMs   int64             `json:"processing_time_ms"`
	PerformanceMetrics interface{}       `json:"performance_metrics,omitempty"`
	TraceSummary       interface{}       `json:"trace_summary,omitempty"`
}
