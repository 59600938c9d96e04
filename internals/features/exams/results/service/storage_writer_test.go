// file: internals/features/exams/results/service/storage_writer_test.go
package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	resultModel "ujianku_backend/internals/features/exams/results/model"
)

func newTestWriter(exam *fakeExamReader, store *fakeResultStore) *StorageWriter {
	return NewStorageWriter(exam, &fakeStudentReader{student: testStudent()}, store, time.Second)
}

func TestStoreResultAssignsNextAttemptNumber(t *testing.T) {
	exam := testExam(3)
	store := &fakeResultStore{count: 1} // sudah ada 1 attempt
	w := newTestWriter(&fakeExamReader{exam: exam}, store)

	c := TransformSubmission(validClientRequest(exam.ExamID, testStudent().StudentID, testQuestions(exam.ExamID, 5)), NewSubmissionTracer("req-sw-1"))
	tr := NewSubmissionTracer("req-sw-1")

	summary, err := w.StoreResult(context.Background(), c, resultModel.ResultSourceDirectStorage, tr, 12)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.AttemptNumber)
	rec := store.lastInserted()
	require.NotNil(t, rec)
	assert.Equal(t, 2, rec.ExamResultAttemptNumber)
	assert.Equal(t, resultModel.ResultSourceDirectStorage, rec.ExamResultComputationSource)
	assert.Equal(t, int64(12), rec.ExamResultProcessingMs)
	assert.Equal(t, "req-sw-1", rec.ExamResultRequestID)
	assert.NotEmpty(t, rec.ExamResultValidationHash)
}

func TestStoreResultPercentageAlwaysDerivedFromScore(t *testing.T) {
	exam := testExam(1)
	store := &fakeResultStore{}
	w := newTestWriter(&fakeExamReader{exam: exam}, store)

	c := TransformSubmission(validClientRequest(exam.ExamID, testStudent().StudentID, testQuestions(exam.ExamID, 5)), NewSubmissionTracer("req-sw-2"))
	c.Percentage = 74.95 // klaim sedikit meleset, masih dalam toleransi validator

	_, err := w.StoreResult(context.Background(), c, resultModel.ResultSourceDirectStorage, NewSubmissionTracer("req-sw-2"), 0)
	require.NoError(t, err)

	rec := store.lastInserted()
	assert.InDelta(t, 75.0, rec.ExamResultPercentage, 0.0001) // 15/20×100
}

func TestStoreResultEnforcesAttemptLimit(t *testing.T) {
	exam := testExam(2)
	store := &fakeResultStore{count: 2} // limit tercapai
	w := newTestWriter(&fakeExamReader{exam: exam}, store)

	c := TransformSubmission(validClientRequest(exam.ExamID, testStudent().StudentID, testQuestions(exam.ExamID, 5)), NewSubmissionTracer("req-sw-3"))

	_, err := w.StoreResult(context.Background(), c, resultModel.ResultSourceDirectStorage, NewSubmissionTracer("req-sw-3"), 0)
	assert.ErrorIs(t, err, ErrAttemptLimitExceeded)
	assert.Empty(t, store.inserted) // tidak ada insert
}

func TestStoreResultDuplicateKeyMeansAlreadySubmitted(t *testing.T) {
	exam := testExam(2)
	store := &fakeResultStore{insertErr: gorm.ErrDuplicatedKey}
	w := newTestWriter(&fakeExamReader{exam: exam}, store)

	c := TransformSubmission(validClientRequest(exam.ExamID, testStudent().StudentID, testQuestions(exam.ExamID, 5)), NewSubmissionTracer("req-sw-4"))

	_, err := w.StoreResult(context.Background(), c, resultModel.ResultSourceDirectStorage, NewSubmissionTracer("req-sw-4"), 0)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestStoreResultInsertFailureIsStorageFailure(t *testing.T) {
	exam := testExam(1)
	store := &fakeResultStore{insertErr: errors.New("connection reset")}
	w := newTestWriter(&fakeExamReader{exam: exam}, store)

	c := TransformSubmission(validClientRequest(exam.ExamID, testStudent().StudentID, testQuestions(exam.ExamID, 5)), NewSubmissionTracer("req-sw-5"))

	_, err := w.StoreResult(context.Background(), c, resultModel.ResultSourceDirectStorage, NewSubmissionTracer("req-sw-5"), 0)
	assert.ErrorIs(t, err, ErrStorageFailure)
}

func TestStoreResultExamNotFoundPassesThrough(t *testing.T) {
	store := &fakeResultStore{}
	w := newTestWriter(&fakeExamReader{err: ErrExamNotFound}, store)

	exam := testExam(1)
	c := TransformSubmission(validClientRequest(exam.ExamID, testStudent().StudentID, testQuestions(exam.ExamID, 5)), NewSubmissionTracer("req-sw-6"))

	_, err := w.StoreResult(context.Background(), c, resultModel.ResultSourceDirectStorage, NewSubmissionTracer("req-sw-6"), 0)
	assert.ErrorIs(t, err, ErrExamNotFound)
}

func TestStoreResultLinkFailureIsNotFatal(t *testing.T) {
	exam := testExam(1)
	store := &fakeResultStore{linkErr: errors.New("refs update timeout")}
	w := newTestWriter(&fakeExamReader{exam: exam}, store)

	c := TransformSubmission(validClientRequest(exam.ExamID, testStudent().StudentID, testQuestions(exam.ExamID, 5)), NewSubmissionTracer("req-sw-7"))

	summary, err := w.StoreResult(context.Background(), c, resultModel.ResultSourceDirectStorage, NewSubmissionTracer("req-sw-7"), 0)
	require.NoError(t, err) // record otoritatif tetap durable
	assert.NotEqual(t, 0, summary.AttemptNumber)
	assert.Empty(t, store.linked)
}

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.False(t, isDuplicateKeyErr(nil))
	assert.False(t, isDuplicateKeyErr(errors.New("connection refused")))

	assert.True(t, isDuplicateKeyErr(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicateKeyErr(&pq.Error{Code: "23505"}))
	assert.True(t, isDuplicateKeyErr(errors.New(`ERROR: duplicate key value violates unique constraint "uq_exam_result_attempt" (SQLSTATE 23505)`)))
}
