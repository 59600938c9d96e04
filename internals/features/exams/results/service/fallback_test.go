// file: internals/features/exams/results/service/fallback_test.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	resultModel "ujianku_backend/internals/features/exams/results/model"
	scoringSvc "ujianku_backend/internals/features/exams/scoring/service"
)

func newTestFallback(scoring *fakeScoringEngine, store *fakeResultStore, maxAttempts int) *FallbackOrchestrator {
	exam := testExam(maxAttempts)
	if len(scoring.questions) > 0 {
		exam.ExamID = scoring.questions[0].ExamID
	}
	writer := newTestWriter(&fakeExamReader{exam: exam}, store)
	return NewFallbackOrchestrator(scoring, writer)
}

func TestFallbackRecomputesAuthoritatively(t *testing.T) {
	exam := testExam(1)
	questions := testQuestions(exam.ExamID, 3)
	scoring := &fakeScoringEngine{questions: questions}
	store := &fakeResultStore{}
	f := newTestFallback(scoring, store, 1)

	// q0 benar, q1 salah, q2 tidak dijawab
	c := &CanonicalSubmission{
		ExamID:    exam.ExamID,
		StudentID: uuid.New(),
		Answers: map[string]string{
			questions[0].QuestionID.String(): "A",
			questions[1].QuestionID.String(): "C",
		},
		// klaim client ngawur — harus dibuang total
		FinalScore: 9999,
		TotalMarks: 1,
		Percentage: 0.5,
		TimeTaken:  600,
		CompletedAt: time.Now(),
	}

	tr := NewSubmissionTracer("req-fb-1")
	summary, err := f.Recover(context.Background(), c, "validasi gagal: structural", resultModel.ResultSourceFallbackCompute, tr)
	require.NoError(t, err)

	// +4 benar, −1 salah, 0 unattempted dari total 12
	assert.Equal(t, 3.0, summary.Score)
	assert.Equal(t, 12.0, summary.TotalMarks)
	assert.InDelta(t, 25.0, summary.Percentage, 0.0001)
	assert.Equal(t, 1, summary.CorrectAnswers)
	assert.Equal(t, 1, summary.IncorrectAnswers)
	assert.Equal(t, 1, summary.Unattempted)
	assert.Equal(t, resultModel.ResultSourceFallbackCompute, summary.Source)

	// perubahan skor SAH → recovery event, bukan korupsi
	sum := tr.Summary()
	assert.NotEmpty(t, sum.RecoveryEvents)
	assert.False(t, tr.HasCorruption())
	assert.Equal(t, 1, sum.FallbackCount)

	// question analysis persist lengkap per soal
	rec := store.lastInserted()
	require.NotNil(t, rec)
	var analysis []resultModel.QuestionAnalysisItem
	require.NoError(t, json.Unmarshal(rec.ExamResultQuestionAnalysis, &analysis))
	require.Len(t, analysis, 3)
	assert.Equal(t, resultModel.QuestionStatusCorrect, analysis[0].Status)
	assert.Equal(t, resultModel.QuestionStatusIncorrect, analysis[1].Status)
	assert.Equal(t, resultModel.QuestionStatusUnattempted, analysis[2].Status)
}

func TestFallbackAggregatesSubjectPerformance(t *testing.T) {
	exam := testExam(1)
	questions := testQuestions(exam.ExamID, 2)
	questions[1].Subject = "Fisika"
	scoring := &fakeScoringEngine{questions: questions}
	store := &fakeResultStore{}
	f := newTestFallback(scoring, store, 1)

	c := &CanonicalSubmission{
		ExamID:    exam.ExamID,
		StudentID: uuid.New(),
		Answers: map[string]string{
			questions[0].QuestionID.String(): "A",
			questions[1].QuestionID.String(): "A",
		},
		CompletedAt: time.Now(),
	}

	_, err := f.Recover(context.Background(), c, "test", resultModel.ResultSourceFallbackCompute, NewSubmissionTracer("req-fb-2"))
	require.NoError(t, err)

	var subjects []resultModel.SubjectPerformanceItem
	require.NoError(t, json.Unmarshal(store.lastInserted().ExamResultSubjectPerformance, &subjects))
	require.Len(t, subjects, 2)
	assert.Equal(t, "Matematika", subjects[0].Subject)
	assert.Equal(t, "Fisika", subjects[1].Subject)
	assert.Equal(t, 1, subjects[0].Correct)
	assert.Equal(t, 4.0, subjects[1].Marks)
}

func TestFallbackPartialCreditCountsAsCorrectInSummary(t *testing.T) {
	exam := testExam(1)
	q := scoringSvc.QuestionRules{
		QuestionID:    uuid.New(),
		ExamID:        exam.ExamID,
		Subject:       "Matematika",
		CorrectAnswer: "A,B,C",
		PositiveMarks: 6,
		NegativeMarks: 2,
		PartialRules:  json.RawMessage(`{"enabled":true}`),
	}
	scoring := &fakeScoringEngine{questions: []scoringSvc.QuestionRules{q}}
	store := &fakeResultStore{}
	f := newTestFallback(scoring, store, 1)

	c := &CanonicalSubmission{
		ExamID:      exam.ExamID,
		StudentID:   uuid.New(),
		Answers:     map[string]string{q.QuestionID.String(): "A,B"},
		CompletedAt: time.Now(),
	}

	summary, err := f.Recover(context.Background(), c, "test", resultModel.ResultSourceFallbackCompute, NewSubmissionTracer("req-fb-3"))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.CorrectAnswers) // partial masuk hitungan correct
	assert.InDelta(t, 4.0, summary.Score, 0.0001)

	var analysis []resultModel.QuestionAnalysisItem
	require.NoError(t, json.Unmarshal(store.lastInserted().ExamResultQuestionAnalysis, &analysis))
	assert.Equal(t, resultModel.QuestionStatusPartiallyCorrect, analysis[0].Status)
}

func TestFallbackTerminalWhenNoQuestions(t *testing.T) {
	scoring := &fakeScoringEngine{} // exam tanpa soal
	f := newTestFallback(scoring, &fakeResultStore{}, 1)

	c := &CanonicalSubmission{ExamID: uuid.New(), StudentID: uuid.New(), CompletedAt: time.Now()}
	tr := NewSubmissionTracer("req-fb-4")

	_, err := f.Recover(context.Background(), c, "test", resultModel.ResultSourceFallbackCompute, tr)
	assert.ErrorIs(t, err, ErrFallbackFailure)
	assert.Equal(t, 1, tr.Summary().ErrorCount)
}

func TestFallbackTerminalWhenEngineFails(t *testing.T) {
	scoring := &fakeScoringEngine{questionsErr: errors.New("db down")}
	f := newTestFallback(scoring, &fakeResultStore{}, 1)

	c := &CanonicalSubmission{ExamID: uuid.New(), StudentID: uuid.New(), CompletedAt: time.Now()}
	_, err := f.Recover(context.Background(), c, "test", resultModel.ResultSourceFallbackCompute, NewSubmissionTracer("req-fb-5"))
	assert.ErrorIs(t, err, ErrFallbackFailure)
}

func TestFallbackAttemptLimitPassesThrough(t *testing.T) {
	exam := testExam(1)
	questions := testQuestions(exam.ExamID, 1)
	scoring := &fakeScoringEngine{questions: questions}
	store := &fakeResultStore{count: 1} // limit 1, sudah 1 attempt
	f := newTestFallback(scoring, store, 1)

	c := &CanonicalSubmission{
		ExamID:      exam.ExamID,
		StudentID:   uuid.New(),
		Answers:     map[string]string{questions[0].QuestionID.String(): "A"},
		CompletedAt: time.Now(),
	}

	_, err := f.Recover(context.Background(), c, "test", resultModel.ResultSourceFallbackCompute, NewSubmissionTracer("req-fb-6"))
	assert.ErrorIs(t, err, ErrAttemptLimitExceeded)
}
