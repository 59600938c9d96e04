// file: internals/features/exams/results/service/stabilizer_test.go
package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "ujianku_backend/internals/features/exams/results/dto"
)

func TestStabilizeProducesIndependentCopy(t *testing.T) {
	qid := uuid.NewString()
	req := &dto.SubmitExamResultRequest{
		ExamID:     uuid.New(),
		StudentID:  uuid.New(),
		Answers:    map[string]string{qid: "A"},
		FinalScore: 15,
		TotalMarks: 20,
		VisitedQuestions: []uuid.UUID{uuid.New()},
	}

	tr := NewSubmissionTracer("req-stab")
	clone := StabilizeSubmission(req, tr)
	require.NotNil(t, clone)
	require.NotSame(t, req, clone)

	// mutasi payload asli TIDAK boleh kelihatan di clone
	req.Answers[qid] = "B"
	req.Answers[uuid.NewString()] = "C"
	req.VisitedQuestions[0] = uuid.Nil
	req.FinalScore = 0

	assert.Equal(t, "A", clone.Answers[qid])
	assert.Len(t, clone.Answers, 1)
	assert.NotEqual(t, uuid.Nil, clone.VisitedQuestions[0])
	assert.Equal(t, 15.0, clone.FinalScore)
	assert.False(t, tr.Summary().Degraded)
}

func TestStabilizeNilPassthrough(t *testing.T) {
	tr := NewSubmissionTracer("req-stab-nil")
	assert.Nil(t, StabilizeSubmission(nil, tr))
}
