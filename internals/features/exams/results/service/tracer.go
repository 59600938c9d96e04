// file: internals/features/exams/results/service/tracer.go
package service

import (
	"fmt"
	"hash/fnv"
	"log"
	"time"

	"github.com/google/uuid"
)

/* =========================================================
   SUBMISSION TRACER
   - 1 request id per submit
   - fingerprint kecil per stage (BUKAN full payload)
   - snapshot tersanitasi (jawaban tidak pernah ikut)
   - deteksi korupsi antar stage: skor/total/jumlah jawaban
     berubah tanpa recovery yang tercatat, atau id esensial hilang
========================================================= */

// Stage lifecycle submission
const (
	StageReceived       = "RECEIVED"
	StageStabilized     = "STABILIZED"
	StageTransformed    = "TRANSFORMED"
	StageValidating     = "VALIDATING"
	StageValid          = "VALID"
	StageInvalid        = "INVALID"
	StageStored         = "STORED"
	StageLinked         = "LINKED"
	StageComplete       = "COMPLETE"
	StageFallbackRouted = "FALLBACK_ROUTED"
	StageFallbackStored = "FALLBACK_STORED"
	StageFallbackFailed = "FALLBACK_FAILED"
	StageErrorComplete  = "ERROR_COMPLETE"
)

// Fingerprint satu stage: hash atas field skalar kunci + counts
type StageFingerprint struct {
	Stage       string    `json:"stage"`
	Hash        string    `json:"hash"`
	ExamID      string    `json:"exam_id"`
	StudentID   string    `json:"student_id"`
	FinalScore  float64   `json:"final_score"`
	TotalMarks  float64   `json:"total_marks"`
	AnswerCount int       `json:"answer_count"`
	At          time.Time `json:"at"`
}

type TraceEntry struct {
	Fingerprint StageFingerprint       `json:"fingerprint"`
	Snapshot    map[string]interface{} `json:"snapshot,omitempty"`
	Note        string                 `json:"note,omitempty"`
}

// Ringkasan akhir trace (ikut response, dan selalu masuk log)
type TraceSummary struct {
	RequestID        string   `json:"request_id"`
	Stages           []string `json:"stages"`
	FingerprintChain []string `json:"fingerprint_chain"`
	CorruptionFlags  []string `json:"corruption_flags,omitempty"`
	RecoveryEvents   []string `json:"recovery_events,omitempty"`
	ErrorCount       int      `json:"error_count"`
	FallbackCount    int      `json:"fallback_count"`
	Degraded         bool     `json:"degraded,omitempty"`
}

type SubmissionTracer struct {
	RequestID string

	entries         []TraceEntry
	corruptionFlags []string
	recoveryEvents  []string
	recoveredFields map[string]bool
	errorCount      int
	fallbackCount   int
	degraded        bool
}

func NewSubmissionTracer(requestID string) *SubmissionTracer {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return &SubmissionTracer{
		RequestID:       requestID,
		recoveredFields: make(map[string]bool),
	}
}

/* =========================================================
   RECORD
========================================================= */

// RecordStage mencatat fingerprint + snapshot tersanitasi untuk satu stage,
// lalu membandingkan dengan fingerprint stage sebelumnya.
func (t *SubmissionTracer) RecordStage(stage string, examID, studentID string, finalScore, totalMarks float64, answerCount int) {
	fp := StageFingerprint{
		Stage:       stage,
		ExamID:      examID,
		StudentID:   studentID,
		FinalScore:  finalScore,
		TotalMarks:  totalMarks,
		AnswerCount: answerCount,
		At:          time.Now(),
	}
	fp.Hash = fingerprintHash(examID, studentID, finalScore, totalMarks, answerCount)

	entry := TraceEntry{
		Fingerprint: fp,
		Snapshot: map[string]interface{}{
			// field sensitif (answers, jawaban benar) TIDAK pernah masuk snapshot
			"exam_id":      examID,
			"student_id":   studentID,
			"final_score":  finalScore,
			"total_marks":  totalMarks,
			"answer_count": answerCount,
		},
	}

	t.detectCorruption(fp)
	t.entries = append(t.entries, entry)

	log.Printf("[TRACE] req=%s stage=%s fp=%s score=%.2f total=%.2f answers=%d",
		t.RequestID, stage, fp.Hash, finalScore, totalMarks, answerCount)
}

// RecordCanonical shortcut utk stage yang sudah pegang CanonicalSubmission
func (t *SubmissionTracer) RecordCanonical(stage string, c *CanonicalSubmission) {
	t.RecordStage(stage, c.ExamID.String(), c.StudentID.String(), c.FinalScore, c.TotalMarks, c.AnswerCount())
}

// RecordRecovery mencatat recovery transformer (perubahan nilai yang SAH).
// Field yang di-recover tidak dihitung korupsi di SATU perbandingan stage
// berikutnya; setelah itu exemption-nya hangus.
func (t *SubmissionTracer) RecordRecovery(field string, before, after float64) {
	ev := fmt.Sprintf("%s: %.2f → %.2f", field, before, after)
	t.recoveryEvents = append(t.recoveryEvents, ev)
	t.recoveredFields[field] = true
	log.Printf("[TRACE] req=%s 🔧 recovery %s", t.RequestID, ev)
}

func (t *SubmissionTracer) RecordError(stage string, err error) {
	t.errorCount++
	log.Printf("[TRACE] req=%s ❌ stage=%s err=%v", t.RequestID, stage, err)
}

func (t *SubmissionTracer) MarkFallback(reason string) {
	t.fallbackCount++
	log.Printf("[TRACE] req=%s ↩️ fallback: %s", t.RequestID, reason)
}

// MarkDegraded: stabilizer gagal clone → jalan terus pakai payload asli
func (t *SubmissionTracer) MarkDegraded(reason string) {
	t.degraded = true
	log.Printf("[TRACE] req=%s ⚠️ degraded: %s", t.RequestID, reason)
}

/* =========================================================
   CORRUPTION DETECTION
========================================================= */

func (t *SubmissionTracer) detectCorruption(fp StageFingerprint) {
	if len(t.entries) == 0 {
		return
	}
	prev := t.entries[len(t.entries)-1].Fingerprint

	if prev.ExamID != "" && fp.ExamID != prev.ExamID {
		t.flag(fp.Stage, "exam_id berubah/hilang antar stage")
	}
	if prev.StudentID != "" && fp.StudentID != prev.StudentID && !t.consumeRecovery("student_id") {
		t.flag(fp.Stage, "student_id berubah/hilang antar stage")
	}
	if fp.FinalScore != prev.FinalScore && !t.consumeRecovery("final_score") {
		t.flag(fp.Stage, fmt.Sprintf("final_score berubah %.2f → %.2f tanpa recovery", prev.FinalScore, fp.FinalScore))
	}
	if fp.TotalMarks != prev.TotalMarks && !t.consumeRecovery("total_marks") {
		t.flag(fp.Stage, fmt.Sprintf("total_marks berubah %.2f → %.2f tanpa recovery", prev.TotalMarks, fp.TotalMarks))
	}
	if fp.AnswerCount != prev.AnswerCount {
		t.flag(fp.Stage, fmt.Sprintf("answer_count berubah %d → %d", prev.AnswerCount, fp.AnswerCount))
	}
}

// consumeRecovery: exemption berlaku sekali pakai. Perubahan field yang sama
// di stage lebih lanjut, tanpa recovery baru, tetap dianggap korupsi.
func (t *SubmissionTracer) consumeRecovery(field string) bool {
	if !t.recoveredFields[field] {
		return false
	}
	delete(t.recoveredFields, field)
	return true
}

func (t *SubmissionTracer) flag(stage, msg string) {
	full := fmt.Sprintf("[%s] %s", stage, msg)
	t.corruptionFlags = append(t.corruptionFlags, full)
	// korupsi transformasi = high severity, tapi TIDAK menghentikan proses
	log.Printf("[TRACE] req=%s 🚨 KORUPSI TERDETEKSI %s", t.RequestID, full)
}

func (t *SubmissionTracer) HasCorruption() bool {
	return len(t.corruptionFlags) > 0
}

/* =========================================================
   SUMMARY
========================================================= */

func (t *SubmissionTracer) Summary() TraceSummary {
	stages := make([]string, 0, len(t.entries))
	chain := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		stages = append(stages, e.Fingerprint.Stage)
		chain = append(chain, e.Fingerprint.Hash)
	}
	return TraceSummary{
		RequestID:        t.RequestID,
		Stages:           stages,
		FingerprintChain: chain,
		CorruptionFlags:  append([]string(nil), t.corruptionFlags...),
		RecoveryEvents:   append([]string(nil), t.recoveryEvents...),
		ErrorCount:       t.errorCount,
		FallbackCount:    t.fallbackCount,
		Degraded:         t.degraded,
	}
}

// fingerprintHash: FNV-1a atas field skalar kunci.
// Bukan kriptografis — tujuannya deteksi korupsi antar stage, bukan anti-tamper.
func fingerprintHash(examID, studentID string, score, total float64, answerCount int) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%.4f|%.4f|%d", examID, studentID, score, total, answerCount)
	return fmt.Sprintf("%016x", h.Sum64())
}
