// file: internals/features/exams/results/service/submission_types.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	examModel "ujianku_backend/internals/features/exams/exams/model"
	resultModel "ujianku_backend/internals/features/exams/results/model"
	studentModel "ujianku_backend/internals/features/users/students/model"
)

/* =========================================================
   CANONICAL SUBMISSION
   Output transformer: semua field wajib sudah terisi & bertipe.
   Ephemeral per request — tidak pernah dipersist langsung.
========================================================= */

type CanonicalSubmission struct {
	ExamID    uuid.UUID
	StudentID uuid.UUID

	// key = question_id (string, biar jawaban korup tetap bisa diangkut ke fallback)
	Answers map[string]string

	FinalScore float64
	TotalMarks float64
	Percentage float64

	CorrectAnswers   int
	IncorrectAnswers int
	Unattempted      int

	QuestionAnalysis   []resultModel.QuestionAnalysisItem
	SubjectPerformance []resultModel.SubjectPerformanceItem

	TimeTaken   int // detik
	CompletedAt time.Time
	Warnings    int

	VisitedQuestions []uuid.UUID
	MarkedQuestions  []uuid.UUID

	EvaluationSource string
	ComputationHash  string
	EngineVersion    string
}

// AnswerCount menghitung jawaban non-kosong (dipakai fingerprint & validasi)
func (c *CanonicalSubmission) AnswerCount() int {
	n := 0
	for _, v := range c.Answers {
		if v != "" {
			n++
		}
	}
	return n
}

/* =========================================================
   RESULT SUMMARY (distilled, dikembalikan ke caller)
========================================================= */

type ResultSummary struct {
	ResultID         uuid.UUID
	AttemptNumber    int
	Score            float64
	TotalMarks       float64
	Percentage       float64
	CorrectAnswers   int
	IncorrectAnswers int
	Unattempted      int
	TimeTaken        int
	CompletedAt      time.Time
	Source           resultModel.ResultComputationSource
}

/* =========================================================
   KOLABORATOR READ-ONLY + STORE
   Interface kecil supaya storage writer & fallback bisa
   dites tanpa Postgres.
========================================================= */

type ExamReader interface {
	FindExam(ctx context.Context, examID uuid.UUID) (*examModel.ExamModel, error)
}

type StudentReader interface {
	FindStudent(ctx context.Context, studentID uuid.UUID) (*studentModel.StudentModel, error)
}

type ResultStore interface {
	CountAttempts(ctx context.Context, examID, studentID uuid.UUID) (int64, error)
	Insert(ctx context.Context, rec *resultModel.ExamResultModel) error
	// AppendExamResultRef best-effort — error TIDAK menggagalkan submit
	AppendExamResultRef(ctx context.Context, examID, resultID uuid.UUID) error
}
