// file: internals/features/exams/results/service/validator.go
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	dto "ujianku_backend/internals/features/exams/results/dto"
	scoringSvc "ujianku_backend/internals/features/exams/scoring/service"
)

/* =========================================================
   VALIDATOR
   5 layer independen, jalan paralel, semua harus lulus:
   1. structural  — field wajib & batas skor
   2. integrity   — persentase, konsistensi hitungan, id
   3. security    — pola mencurigakan
   4. temporal    — completed_at masuk akal
   5. statistical — spot-check (khusus progressive) + content hash

   Verdict = data, bukan exception. Layer tidak punya side
   effect selain logging.
========================================================= */

const (
	LayerStructural  = "structural"
	LayerIntegrity   = "integrity"
	LayerSecurity    = "security"
	LayerTemporal    = "temporal"
	LayerStatistical = "statistical"
)

// Urutan tetap — dipakai menentukan primary reason (layer gagal pertama)
var layerOrder = []string{LayerStructural, LayerIntegrity, LayerSecurity, LayerTemporal, LayerStatistical}

type LayerResult struct {
	Layer    string   `json:"layer"`
	Passed   bool     `json:"passed"`
	Skipped  bool     `json:"skipped,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

type ValidationVerdict struct {
	Valid         bool          `json:"valid"`
	PrimaryReason string        `json:"primary_reason,omitempty"`
	Layers        []LayerResult `json:"layers"`
}

type SubmissionValidator struct {
	Scoring scoringSvc.ScoringRulesEngine

	SpotCheckSampleCap   int
	SpotCheckTolerance   float64 // fraksi mismatch yang masih ditoleransi (≤)
	MinPlausibleDuration time.Duration
	SoftDurationFloor    time.Duration
	StalenessWindow      time.Duration
	ClockSkewTolerance   time.Duration
}

func NewSubmissionValidator(scoring scoringSvc.ScoringRulesEngine) *SubmissionValidator {
	return &SubmissionValidator{
		Scoring:              scoring,
		SpotCheckSampleCap:   10,
		SpotCheckTolerance:   0.05,
		MinPlausibleDuration: 30 * time.Second,
		SoftDurationFloor:    2 * time.Minute,
		StalenessWindow:      24 * time.Hour,
		ClockSkewTolerance:   2 * time.Minute,
	}
}

/* =========================================================
   VALIDATE — fan-out / fan-in
========================================================= */

func (v *SubmissionValidator) Validate(ctx context.Context, c *CanonicalSubmission) *ValidationVerdict {
	results := make([]LayerResult, len(layerOrder))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { results[0] = v.checkStructural(c); return nil })
	g.Go(func() error { results[1] = v.checkIntegrity(c); return nil })
	g.Go(func() error { results[2] = v.checkSecurity(c); return nil })
	g.Go(func() error { results[3] = v.checkTemporal(c); return nil })
	g.Go(func() error { results[4] = v.checkStatistical(gctx, c); return nil })
	_ = g.Wait() // layer tidak mengembalikan error — verdict selalu lengkap

	verdict := &ValidationVerdict{Valid: true, Layers: results}
	for _, lr := range results {
		if !lr.Passed {
			verdict.Valid = false
			if verdict.PrimaryReason == "" {
				reason := lr.Layer
				if len(lr.Errors) > 0 {
					reason = fmt.Sprintf("%s: %s", lr.Layer, lr.Errors[0])
				}
				verdict.PrimaryReason = reason
			}
		}
	}
	return verdict
}

/* =========================================================
   LAYER 1 — STRUCTURAL
========================================================= */

func (v *SubmissionValidator) checkStructural(c *CanonicalSubmission) LayerResult {
	lr := LayerResult{Layer: LayerStructural, Passed: true}

	if c.ExamID == uuid.Nil {
		lr.fail("exam_id wajib")
	}
	if c.StudentID == uuid.Nil {
		lr.fail("student_id wajib")
	}
	if c.TotalMarks <= 0 {
		lr.fail("total_marks harus > 0")
	}
	if c.TimeTaken < 0 {
		lr.fail("time_taken negatif")
	}
	if c.Answers == nil {
		lr.fail("answers wajib ada (boleh kosong, tidak boleh hilang)")
	}

	// Batas skor sanity: -0.5×total ≤ score ≤ 1.1×total
	if c.TotalMarks > 0 {
		if c.FinalScore < -0.5*c.TotalMarks || c.FinalScore > 1.1*c.TotalMarks {
			lr.fail(fmt.Sprintf("final_score %.2f di luar batas [%.2f, %.2f]",
				c.FinalScore, -0.5*c.TotalMarks, 1.1*c.TotalMarks))
		}
	}

	return lr
}

/* =========================================================
   LAYER 2 — INTEGRITY
========================================================= */

func (v *SubmissionValidator) checkIntegrity(c *CanonicalSubmission) LayerResult {
	lr := LayerResult{Layer: LayerIntegrity, Passed: true}

	// Persentase klaim vs hitung ulang (toleransi 0.1)
	if c.TotalMarks > 0 {
		expected := c.FinalScore / c.TotalMarks * 100
		if math.Abs(expected-c.Percentage) > 0.1 {
			lr.fail(fmt.Sprintf("percentage %.3f tidak cocok dengan score/total (%.3f)", c.Percentage, expected))
		}
	}

	// Konsistensi hitungan vs panjang question analysis
	if n := len(c.QuestionAnalysis); n > 0 {
		sum := c.CorrectAnswers + c.IncorrectAnswers + c.Unattempted
		if sum != n {
			lr.fail(fmt.Sprintf("correct+incorrect+unattempted (%d) ≠ panjang question_analysis (%d)", sum, n))
		}
	}

	// Key answers harus id soal yang well-formed
	for k := range c.Answers {
		if _, err := uuid.Parse(k); err != nil {
			lr.fail(fmt.Sprintf("answers memuat question_id tidak valid: %q", k))
			break
		}
	}

	return lr
}

/* =========================================================
   LAYER 3 — SECURITY
========================================================= */

func (v *SubmissionValidator) checkSecurity(c *CanonicalSubmission) LayerResult {
	lr := LayerResult{Layer: LayerSecurity, Passed: true}

	if c.Percentage < -50 || c.Percentage > 100 {
		lr.fail(fmt.Sprintf("percentage %.2f di luar [-50, 100]", c.Percentage))
	}

	// Durasi: hard floor = tolak, soft floor = warning saja
	dur := time.Duration(c.TimeTaken) * time.Second
	if dur < v.MinPlausibleDuration {
		lr.fail(fmt.Sprintf("time_taken %s terlalu singkat (< %s)", dur, v.MinPlausibleDuration))
	} else if dur < v.SoftDurationFloor {
		lr.warn(fmt.Sprintf("time_taken %s di bawah soft floor %s", dur, v.SoftDurationFloor))
	}

	// Pola jawaban nyaris seragam pada set jawaban besar
	attempted := c.AnswerCount()
	if attempted > 20 {
		counts := map[string]int{}
		most := 0
		for _, a := range c.Answers {
			if a == "" {
				continue
			}
			key := strings.ToUpper(strings.TrimSpace(a))
			counts[key]++
			if counts[key] > most {
				most = counts[key]
			}
		}
		if float64(most) >= 0.9*float64(attempted) {
			lr.fail(fmt.Sprintf("pola jawaban nyaris seragam: %d dari %d identik", most, attempted))
		}
	}

	// Skor sempurna dengan jawaban sangat sedikit → mencurigakan
	if c.Percentage >= 100 && attempted > 0 && attempted < 5 {
		lr.fail(fmt.Sprintf("skor sempurna dengan hanya %d jawaban", attempted))
	}

	return lr
}

/* =========================================================
   LAYER 4 — TEMPORAL
========================================================= */

func (v *SubmissionValidator) checkTemporal(c *CanonicalSubmission) LayerResult {
	lr := LayerResult{Layer: LayerTemporal, Passed: true}
	now := time.Now()

	if c.CompletedAt.After(now.Add(v.ClockSkewTolerance)) {
		lr.fail(fmt.Sprintf("completed_at %s di masa depan melebihi toleransi skew %s",
			c.CompletedAt.Format(time.RFC3339), v.ClockSkewTolerance))
	}
	if c.CompletedAt.Before(now.Add(-v.StalenessWindow)) {
		lr.fail(fmt.Sprintf("completed_at %s lebih tua dari window %s",
			c.CompletedAt.Format(time.RFC3339), v.StalenessWindow))
	}

	return lr
}

/* =========================================================
   LAYER 5 — STATISTICAL / SPOT-CHECK (varian progressive)
========================================================= */

func (v *SubmissionValidator) checkStatistical(ctx context.Context, c *CanonicalSubmission) LayerResult {
	lr := LayerResult{Layer: LayerStatistical, Passed: true}

	if c.EvaluationSource != string(dto.EvaluationSourceProgressive) {
		lr.Skipped = true
		return lr
	}

	// Content hash atas field skalar kunci (kalau client mengklaim punya)
	if c.ComputationHash != "" {
		expected := ComputeContentHash(c)
		if !strings.EqualFold(expected, c.ComputationHash) {
			lr.fail("computation_hash tidak cocok dengan konten payload")
		}
	}

	// Spot-check: sample ~10% (cap) dari question analysis, recompute via engine
	n := len(c.QuestionAnalysis)
	if n == 0 || v.Scoring == nil {
		return lr
	}

	sampleSize := n / 10
	if sampleSize < 1 {
		sampleSize = 1
	}
	if v.SpotCheckSampleCap > 0 && sampleSize > v.SpotCheckSampleCap {
		sampleSize = v.SpotCheckSampleCap
	}

	mismatches := 0
	for _, idx := range rand.Perm(n)[:sampleSize] {
		qa := c.QuestionAnalysis[idx]

		rules, err := v.Scoring.RulesFor(ctx, c.ExamID, qa.QuestionID)
		if err != nil {
			// soal tidak bisa diverifikasi = mismatch (payload mengklaim soal yang tidak ada?)
			mismatches++
			continue
		}

		got := v.Scoring.Score(rules, qa.UserAnswer)
		if got.Status != string(qa.Status) || math.Abs(got.Marks-qa.Marks) > 0.01 {
			mismatches++
		}
	}

	if float64(mismatches) > v.SpotCheckTolerance*float64(sampleSize) {
		lr.fail(fmt.Sprintf("spot-check: %d dari %d sampel tidak cocok dengan komputasi server", mismatches, sampleSize))
	}

	return lr
}

/* =========================================================
   CONTENT HASH
   SHA-256 atas string kanonik field skalar kunci.
   Tamper-evident untuk konten, tanpa shared secret
   (client untrusted → HMAC tidak menambah apa-apa).
========================================================= */

func ComputeContentHash(c *CanonicalSubmission) string {
	canonical := fmt.Sprintf("%s|%s|%.4f|%.4f|%d|%d|%d|%d",
		c.ExamID, c.StudentID,
		c.FinalScore, c.TotalMarks,
		c.CorrectAnswers, c.IncorrectAnswers, c.Unattempted,
		c.AnswerCount(),
	)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

/* =========================================================
   HELPER LayerResult
========================================================= */

func (lr *LayerResult) fail(msg string) {
	lr.Passed = false
	lr.Errors = append(lr.Errors, msg)
}

func (lr *LayerResult) warn(msg string) {
	lr.Warnings = append(lr.Warnings, msg)
}
