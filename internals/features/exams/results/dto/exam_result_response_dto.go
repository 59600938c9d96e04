// file: internals/features/exams/results/dto/exam_result_response_dto.go
package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	resultModel "ujianku_backend/internals/features/exams/results/model"
)

/* ==========================================================================================
   RESPONSE — READ EXAM RESULT (immutable record + provenance)
========================================================================================== */

type ExamResultResponse struct {
	ExamResultID  uuid.UUID `json:"exam_result_id"`
	ExamID        uuid.UUID `json:"exam_id"`
	StudentID     uuid.UUID `json:"student_id"`
	AttemptNumber int       `json:"attempt_number"`

	Score      float64 `json:"score"`
	TotalMarks float64 `json:"total_marks"`
	Percentage float64 `json:"percentage"`

	CorrectAnswers   int `json:"correct_answers"`
	IncorrectAnswers int `json:"incorrect_answers"`
	Unattempted      int `json:"unattempted"`

	QuestionAnalysis   json.RawMessage `json:"question_analysis,omitempty"`
	SubjectPerformance json.RawMessage `json:"subject_performance,omitempty"`

	TimeTaken   int       `json:"time_taken"`
	CompletedAt time.Time `json:"completed_at"`
	Warnings    int       `json:"warnings"`

	// Provenance
	ComputationSource string    `json:"computation_source"`
	ProcessingMs      int64     `json:"processing_ms"`
	EngineVersion     string    `json:"engine_version,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func FromExamResultModel(m *resultModel.ExamResultModel) ExamResultResponse {
	return ExamResultResponse{
		ExamResultID:  m.ExamResultID,
		ExamID:        m.ExamResultExamID,
		StudentID:     m.ExamResultStudentID,
		AttemptNumber: m.ExamResultAttemptNumber,

		Score:      m.ExamResultScore,
		TotalMarks: m.ExamResultTotalMarks,
		Percentage: m.ExamResultPercentage,

		CorrectAnswers:   m.ExamResultCorrectAnswers,
		IncorrectAnswers: m.ExamResultIncorrectAnswers,
		Unattempted:      m.ExamResultUnattempted,

		QuestionAnalysis:   json.RawMessage(m.ExamResultQuestionAnalysis),
		SubjectPerformance: json.RawMessage(m.ExamResultSubjectPerformance),

		TimeTaken:   m.ExamResultTimeTaken,
		CompletedAt: m.ExamResultCompletedAt,
		Warnings:    m.ExamResultWarnings,

		ComputationSource: string(m.ExamResultComputationSource),
		ProcessingMs:      m.ExamResultProcessingMs,
		EngineVersion:     m.ExamResultEngineVersion,
		CreatedAt:         m.ExamResultCreatedAt,
	}
}
