// file: internals/features/exams/results/service/tracer_test.go
package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracerFingerprintContinuity(t *testing.T) {
	tr := NewSubmissionTracer("req-1")
	examID := uuid.NewString()
	studentID := uuid.NewString()

	tr.RecordStage(StageReceived, examID, studentID, 15, 20, 5)
	tr.RecordStage(StageStabilized, examID, studentID, 15, 20, 5)
	tr.RecordStage(StageTransformed, examID, studentID, 15, 20, 5)

	assert.False(t, tr.HasCorruption())

	sum := tr.Summary()
	require.Len(t, sum.FingerprintChain, 3)
	assert.Equal(t, []string{StageReceived, StageStabilized, StageTransformed}, sum.Stages)
	// nilai identik → fingerprint identik di sepanjang rantai
	assert.Equal(t, sum.FingerprintChain[0], sum.FingerprintChain[1])
	assert.Equal(t, sum.FingerprintChain[1], sum.FingerprintChain[2])
}

func TestTracerDetectsScoreCorruption(t *testing.T) {
	tr := NewSubmissionTracer("req-2")
	examID := uuid.NewString()
	studentID := uuid.NewString()

	tr.RecordStage(StageReceived, examID, studentID, 15, 20, 5)
	// skor berubah tanpa recovery tercatat → korupsi
	tr.RecordStage(StageTransformed, examID, studentID, 99, 20, 5)

	assert.True(t, tr.HasCorruption())
	sum := tr.Summary()
	require.NotEmpty(t, sum.CorruptionFlags)
	assert.Contains(t, sum.CorruptionFlags[0], "final_score")
}

func TestTracerRecoveryIsNotCorruption(t *testing.T) {
	tr := NewSubmissionTracer("req-3")
	examID := uuid.NewString()
	studentID := uuid.NewString()

	tr.RecordStage(StageReceived, examID, studentID, 0, 20, 5)
	tr.RecordRecovery("final_score", 0, 15)
	tr.RecordStage(StageTransformed, examID, studentID, 15, 20, 5)

	assert.False(t, tr.HasCorruption())
	sum := tr.Summary()
	require.Len(t, sum.RecoveryEvents, 1)
	assert.Contains(t, sum.RecoveryEvents[0], "final_score")
}

func TestTracerRecoveryExemptionIsConsumedOnce(t *testing.T) {
	tr := NewSubmissionTracer("req-7")
	examID := uuid.NewString()
	studentID := uuid.NewString()

	tr.RecordStage(StageReceived, examID, studentID, 0, 20, 5)
	tr.RecordRecovery("final_score", 0, 15)
	tr.RecordStage(StageTransformed, examID, studentID, 15, 20, 5) // exemption terpakai di sini

	assert.False(t, tr.HasCorruption())

	// perubahan lanjutan di field yang sama TANPA recovery baru → korupsi
	tr.RecordStage(StageValidating, examID, studentID, 99, 20, 5)

	assert.True(t, tr.HasCorruption())
	sum := tr.Summary()
	require.Len(t, sum.CorruptionFlags, 1)
	assert.Contains(t, sum.CorruptionFlags[0], "final_score")
	assert.Contains(t, sum.CorruptionFlags[0], StageValidating)
}

func TestTracerDetectsExamIDChange(t *testing.T) {
	tr := NewSubmissionTracer("req-4")
	studentID := uuid.NewString()

	tr.RecordStage(StageReceived, uuid.NewString(), studentID, 15, 20, 5)
	tr.RecordStage(StageTransformed, uuid.NewString(), studentID, 15, 20, 5)

	assert.True(t, tr.HasCorruption())
}

func TestTracerDetectsAnswerCountChange(t *testing.T) {
	tr := NewSubmissionTracer("req-5")
	examID := uuid.NewString()
	studentID := uuid.NewString()

	tr.RecordStage(StageReceived, examID, studentID, 15, 20, 5)
	tr.RecordStage(StageStabilized, examID, studentID, 15, 20, 3)

	assert.True(t, tr.HasCorruption())
}

func TestTracerSnapshotNeverContainsAnswers(t *testing.T) {
	tr := NewSubmissionTracer("req-6")
	tr.RecordStage(StageReceived, uuid.NewString(), uuid.NewString(), 15, 20, 5)

	require.Len(t, tr.entries, 1)
	snap := tr.entries[0].Snapshot
	_, hasAnswers := snap["answers"]
	assert.False(t, hasAnswers)
	assert.Equal(t, 5, snap["answer_count"])
}

func TestTracerCountersAndDegraded(t *testing.T) {
	tr := NewSubmissionTracer("")
	assert.NotEmpty(t, tr.RequestID) // auto-generate kalau kosong

	tr.MarkFallback("validasi gagal")
	tr.RecordError(StageStored, assert.AnError)
	tr.MarkDegraded("clone gagal")

	sum := tr.Summary()
	assert.Equal(t, 1, sum.FallbackCount)
	assert.Equal(t, 1, sum.ErrorCount)
	assert.True(t, sum.Degraded)
}
