// file: internals/features/exams/results/service/transformer.go
package service

import (
	"log"
	"time"

	dto "ujianku_backend/internals/features/exams/results/dto"
	resultModel "ujianku_backend/internals/features/exams/results/model"
)

/* =========================================================
   TRANSFORMER
   Normalisasi dua bentuk payload → CanonicalSubmission:
   - client_computed      : nilai di top-level
   - progressive_computed : nilai di sub-objek progressive_result
   Satu fungsi transform per varian (tagged union, bukan
   probing properti ad-hoc).

   Recovery nilai nol yang jelas korup:
   - final_score = 0 padahal ada jawaban & ada sumber alternatif ≠ 0
   - total_marks = 0 → alternatif, terakhir question_count × default
   Semua recovery dicatat (bukan silent).
========================================================= */

// Nilai default per soal saat total_marks tidak bisa dipulihkan dari payload.
// Selaras dengan exam_default_marks_per_question di model exam.
const defaultMarksPerQuestion = 4.0

// TransformSubmission memilih fungsi transform berdasarkan evaluation_source.
func TransformSubmission(req *dto.SubmitExamResultRequest, tracer *SubmissionTracer) *CanonicalSubmission {
	var c *CanonicalSubmission

	switch req.EvaluationSource {
	case dto.EvaluationSourceProgressive:
		c = transformProgressive(req)
	default:
		// kosong / tidak dikenal → perlakukan sebagai client_computed
		c = transformClientComputed(req)
	}

	recoverZeroValues(c, req, tracer)
	tracer.RecordCanonical(StageTransformed, c)
	return c
}

/* =========================================================
   VARIAN 1 — client_computed
========================================================= */

func transformClientComputed(req *dto.SubmitExamResultRequest) *CanonicalSubmission {
	c := baseCanonical(req)
	c.EvaluationSource = string(dto.EvaluationSourceClient)

	c.FinalScore = req.FinalScore
	c.TotalMarks = req.TotalMarks
	c.Percentage = req.Percentage
	c.CorrectAnswers = req.CorrectAnswers
	c.IncorrectAnswers = req.IncorrectAnswers
	c.Unattempted = req.Unattempted
	c.QuestionAnalysis = toAnalysisItems(req.QuestionAnalysis)
	c.SubjectPerformance = toSubjectItems(req.SubjectPerformance)
	return c
}

/* =========================================================
   VARIAN 2 — progressive_computed
========================================================= */

func transformProgressive(req *dto.SubmitExamResultRequest) *CanonicalSubmission {
	c := baseCanonical(req)
	c.EvaluationSource = string(dto.EvaluationSourceProgressive)

	pr := req.ProgressiveResult
	if pr == nil {
		// tag progressive tapi sub-objek hilang → pakai top-level seadanya,
		// validator yang memutuskan nasibnya
		log.Printf("[TRANSFORMER] req tag=progressive tanpa progressive_result, fallback ke field top-level")
		c.FinalScore = req.FinalScore
		c.TotalMarks = req.TotalMarks
		c.Percentage = req.Percentage
		c.CorrectAnswers = req.CorrectAnswers
		c.IncorrectAnswers = req.IncorrectAnswers
		c.Unattempted = req.Unattempted
		c.QuestionAnalysis = toAnalysisItems(req.QuestionAnalysis)
		c.SubjectPerformance = toSubjectItems(req.SubjectPerformance)
		return c
	}

	c.FinalScore = pr.ComputedScore
	c.TotalMarks = pr.ComputedTotalMarks
	c.Percentage = pr.ComputedPercentage
	c.CorrectAnswers = pr.CorrectAnswers
	c.IncorrectAnswers = pr.IncorrectAnswers
	c.Unattempted = pr.Unattempted

	// analysis/subject: sub-objek menang, top-level jadi cadangan
	if len(pr.QuestionAnalysis) > 0 {
		c.QuestionAnalysis = toAnalysisItems(pr.QuestionAnalysis)
	} else {
		c.QuestionAnalysis = toAnalysisItems(req.QuestionAnalysis)
	}
	if len(pr.SubjectPerformance) > 0 {
		c.SubjectPerformance = toSubjectItems(pr.SubjectPerformance)
	} else {
		c.SubjectPerformance = toSubjectItems(req.SubjectPerformance)
	}
	return c
}

/* =========================================================
   RECOVERY NILAI NOL
========================================================= */

func recoverZeroValues(c *CanonicalSubmission, req *dto.SubmitExamResultRequest, tracer *SubmissionTracer) {
	attempted := c.AnswerCount()

	// final_score = 0 padahal ada jawaban → cari sumber alternatif ≠ 0
	if c.FinalScore == 0 && attempted > 0 {
		if alt := alternateScore(c, req); alt != 0 {
			tracer.RecordRecovery("final_score", c.FinalScore, alt)
			c.FinalScore = alt
		}
	}

	// total_marks = 0 → alternatif, terakhir question_count × default
	if c.TotalMarks <= 0 {
		alt := alternateTotal(c, req)
		if alt <= 0 {
			qCount := len(c.QuestionAnalysis)
			if qCount == 0 {
				qCount = len(c.Answers)
			}
			alt = float64(qCount) * defaultMarksPerQuestion
		}
		if alt > 0 {
			tracer.RecordRecovery("total_marks", c.TotalMarks, alt)
			c.TotalMarks = alt
		}
	}

	// percentage = 0 padahal skor & total ada → hitung ulang
	if c.Percentage == 0 && c.FinalScore != 0 && c.TotalMarks > 0 {
		pct := c.FinalScore / c.TotalMarks * 100
		tracer.RecordRecovery("percentage", c.Percentage, pct)
		c.Percentage = pct
	}
}

// alternateScore: sumber skor lain di luar varian yang dipakai
func alternateScore(c *CanonicalSubmission, req *dto.SubmitExamResultRequest) float64 {
	if c.EvaluationSource == string(dto.EvaluationSourceProgressive) {
		return req.FinalScore
	}
	if req.ProgressiveResult != nil {
		return req.ProgressiveResult.ComputedScore
	}
	// jumlahkan marks dari question analysis sebagai usaha terakhir
	var sum float64
	for _, qa := range c.QuestionAnalysis {
		sum += qa.Marks
	}
	return sum
}

func alternateTotal(c *CanonicalSubmission, req *dto.SubmitExamResultRequest) float64 {
	if c.EvaluationSource == string(dto.EvaluationSourceProgressive) {
		return req.TotalMarks
	}
	if req.ProgressiveResult != nil {
		return req.ProgressiveResult.ComputedTotalMarks
	}
	return 0
}

/* =========================================================
   FIELD DASAR + KONVERSI
========================================================= */

func baseCanonical(req *dto.SubmitExamResultRequest) *CanonicalSubmission {
	answers := make(map[string]string, len(req.Answers))
	for k, v := range req.Answers {
		answers[k] = v
	}

	completedAt := req.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now()
	}

	return &CanonicalSubmission{
		ExamID:           req.ExamID,
		StudentID:        req.StudentID,
		Answers:          answers,
		TimeTaken:        req.TimeTaken,
		CompletedAt:      completedAt,
		Warnings:         req.Warnings,
		VisitedQuestions: append(req.VisitedQuestions[:0:0], req.VisitedQuestions...),
		MarkedQuestions:  append(req.MarkedQuestions[:0:0], req.MarkedQuestions...),
		ComputationHash:  req.ComputationHash,
		EngineVersion:    req.EngineVersion,
	}
}

func toAnalysisItems(in []dto.QuestionAnalysisPayload) []resultModel.QuestionAnalysisItem {
	out := make([]resultModel.QuestionAnalysisItem, 0, len(in))
	for _, qa := range in {
		out = append(out, resultModel.QuestionAnalysisItem{
			QuestionID:    qa.QuestionID,
			Status:        resultModel.QuestionAnalysisStatus(qa.Status),
			Marks:         qa.Marks,
			UserAnswer:    qa.UserAnswer,
			CorrectAnswer: qa.CorrectAnswer,
		})
	}
	return out
}

func toSubjectItems(in []dto.SubjectPerformancePayload) []resultModel.SubjectPerformanceItem {
	out := make([]resultModel.SubjectPerformanceItem, 0, len(in))
	for _, sp := range in {
		out = append(out, resultModel.SubjectPerformanceItem{
			Subject:     sp.Subject,
			Correct:     sp.Correct,
			Incorrect:   sp.Incorrect,
			Unattempted: sp.Unattempted,
			Marks:       sp.Marks,
			TotalMarks:  sp.TotalMarks,
		})
	}
	return out
}
