// file: internals/features/exams/results/service/fallback.go
package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	resultModel "ujianku_backend/internals/features/exams/results/model"
	scoringSvc "ujianku_backend/internals/features/exams/scoring/service"
)

/* =========================================================
   FALLBACK ORCHESTRATOR
   Rute submission invalid/error ke komputasi otoritatif.
   Yang diteruskan ke engine HANYA kontrak minimal:
   exam id, student id, answers, timing, navigasi.
   Skor/total klaim client sengaja TIDAK diteruskan —
   justru itu yang tidak dipercaya.

   Kalau engine/persist di jalur ini ikut gagal → terminal:
   tidak ada fallback lagi, caller dapat error generik,
   konteks lengkap masuk log untuk recovery manual.
========================================================= */

type FallbackOrchestrator struct {
	Scoring scoringSvc.ScoringRulesEngine
	Writer  *StorageWriter
}

func NewFallbackOrchestrator(scoring scoringSvc.ScoringRulesEngine, writer *StorageWriter) *FallbackOrchestrator {
	return &FallbackOrchestrator{Scoring: scoring, Writer: writer}
}

// Recover menghitung ulang hasil secara otoritatif lalu menyimpannya.
// source membedakan fallback biasa vs emergency (panic/unexpected error).
func (f *FallbackOrchestrator) Recover(
	ctx context.Context,
	c *CanonicalSubmission,
	reason string,
	source resultModel.ResultComputationSource,
	tracer *SubmissionTracer,
) (*ResultSummary, error) {

	tracer.MarkFallback(reason)
	tracer.RecordCanonical(StageFallbackRouted, c)

	questions, err := f.Scoring.QuestionsFor(ctx, c.ExamID)
	if err != nil {
		return nil, f.terminal(tracer, c, reason, fmt.Errorf("load soal gagal: %w", err))
	}
	if len(questions) == 0 {
		return nil, f.terminal(tracer, c, reason, fmt.Errorf("exam %s tidak punya soal", c.ExamID))
	}

	authoritative := f.computeAuthoritative(c, questions)

	// perubahan skor/total di sini SAH — jelaskan ke tracer supaya
	// rantai fingerprint tidak menganggapnya korupsi
	if authoritative.FinalScore != c.FinalScore {
		tracer.RecordRecovery("final_score", c.FinalScore, authoritative.FinalScore)
	}
	if authoritative.TotalMarks != c.TotalMarks {
		tracer.RecordRecovery("total_marks", c.TotalMarks, authoritative.TotalMarks)
	}

	summary, err := f.Writer.StoreResult(ctx, authoritative, source, tracer, 0)
	if err != nil {
		// limit attempt & already-submitted tetap business rule yang sah,
		// bukan kegagalan fallback
		if err == ErrAttemptLimitExceeded || err == ErrAlreadySubmitted ||
			err == ErrExamNotFound || err == ErrStudentNotFound {
			return nil, err
		}
		return nil, f.terminal(tracer, c, reason, fmt.Errorf("persist hasil fallback gagal: %w", err))
	}

	tracer.RecordCanonical(StageFallbackStored, authoritative)
	return summary, nil
}

// computeAuthoritative menilai semua soal via scoring engine.
// Hanya field terpercaya dari submission asli yang dibawa
// (identitas, timing, navigasi) — angka klaim dibuang.
func (f *FallbackOrchestrator) computeAuthoritative(c *CanonicalSubmission, questions []scoringSvc.QuestionRules) *CanonicalSubmission {
	out := &CanonicalSubmission{
		ExamID:           c.ExamID,
		StudentID:        c.StudentID,
		Answers:          c.Answers,
		TimeTaken:        c.TimeTaken,
		CompletedAt:      c.CompletedAt,
		Warnings:         c.Warnings,
		VisitedQuestions: c.VisitedQuestions,
		MarkedQuestions:  c.MarkedQuestions,
		EvaluationSource: "server_fallback",
		EngineVersion:    c.EngineVersion,
	}

	analysis := make([]resultModel.QuestionAnalysisItem, 0, len(questions))
	perSubject := make(map[string]*resultModel.SubjectPerformanceItem)
	subjectOrder := make([]string, 0)

	var score, total float64
	var correct, incorrect, unattempted int

	for _, q := range questions {
		userAnswer := c.Answers[q.QuestionID.String()]
		result := f.Scoring.Score(&q, userAnswer)

		total += q.PositiveMarks
		score += result.Marks

		switch result.Status {
		case "correct", "partially_correct":
			// partial ikut hitungan correct di ringkasan; detailnya tetap
			// kelihatan di question analysis
			correct++
		case "incorrect":
			incorrect++
		default:
			unattempted++
		}

		analysis = append(analysis, resultModel.QuestionAnalysisItem{
			QuestionID:    q.QuestionID,
			Status:        resultModel.QuestionAnalysisStatus(result.Status),
			Marks:         result.Marks,
			UserAnswer:    userAnswer,
			CorrectAnswer: q.CorrectAnswer,
		})

		sp, ok := perSubject[q.Subject]
		if !ok {
			sp = &resultModel.SubjectPerformanceItem{Subject: q.Subject}
			perSubject[q.Subject] = sp
			subjectOrder = append(subjectOrder, q.Subject)
		}
		sp.TotalMarks += q.PositiveMarks
		sp.Marks += result.Marks
		switch result.Status {
		case "correct", "partially_correct":
			sp.Correct++
		case "incorrect":
			sp.Incorrect++
		default:
			sp.Unattempted++
		}
	}

	out.FinalScore = score
	out.TotalMarks = total
	if total > 0 {
		out.Percentage = score / total * 100
	}
	out.CorrectAnswers = correct
	out.IncorrectAnswers = incorrect
	out.Unattempted = unattempted
	out.QuestionAnalysis = analysis

	subjects := make([]resultModel.SubjectPerformanceItem, 0, len(subjectOrder))
	for _, name := range subjectOrder {
		subjects = append(subjects, *perSubject[name])
	}
	out.SubjectPerformance = subjects

	out.ComputationHash = ComputeContentHash(out)
	return out
}

// terminal: log konteks lengkap utk recovery manual, balikin ErrFallbackFailure
func (f *FallbackOrchestrator) terminal(tracer *SubmissionTracer, c *CanonicalSubmission, reason string, cause error) error {
	tracer.RecordError(StageFallbackFailed, cause)
	log.Printf("[FALLBACK] 🆘 TERMINAL req=%s exam=%s student=%s reason=%q answers=%d cause=%v",
		tracer.RequestID, safeID(c.ExamID), safeID(c.StudentID), reason, len(c.Answers), cause)
	return ErrFallbackFailure
}

func safeID(id uuid.UUID) string {
	if id == uuid.Nil {
		return "<nil>"
	}
	return id.String()
}
