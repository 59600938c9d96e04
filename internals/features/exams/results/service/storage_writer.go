// file: internals/features/exams/results/service/storage_writer.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	examModel "ujianku_backend/internals/features/exams/exams/model"
	resultModel "ujianku_backend/internals/features/exams/results/model"
	studentModel "ujianku_backend/internals/features/users/students/model"
)

/* =========================================================
   STORAGE WRITER
   (a) fetch exam & student paralel (read-only), NotFound = fatal
   (b) hitung attempt sebelumnya, tolak kalau ≥ max_attempts
   (c) bangun record attempt_number = count+1 + provenance
   (d) insert dengan timeout bounded
   (e) update exam_result_refs best-effort (gagal ≠ fatal,
       record otoritatif sudah durable)

   Catatan konsistensi: cek limit & insert adalah dua operasi
   terpisah. Dua submit paralel dari student yang sama bisa
   sama-sama lolos cek limit — unique index (exam, student,
   attempt_number) yang jadi otoritas akhir; duplicate key
   diartikan "sudah submit", bukan error fatal.
========================================================= */

type StorageWriter struct {
	Exams        ExamReader
	Students     StudentReader
	Store        ResultStore
	WriteTimeout time.Duration
}

func NewStorageWriter(exams ExamReader, students StudentReader, store ResultStore, writeTimeout time.Duration) *StorageWriter {
	if writeTimeout <= 0 {
		writeTimeout = 3 * time.Second
	}
	return &StorageWriter{Exams: exams, Students: students, Store: store, WriteTimeout: writeTimeout}
}

func (w *StorageWriter) StoreResult(
	ctx context.Context,
	c *CanonicalSubmission,
	source resultModel.ResultComputationSource,
	tracer *SubmissionTracer,
	processingMs int64,
) (*ResultSummary, error) {

	// (a) exam & student paralel
	var exam *examModel.ExamModel
	var student *studentModel.StudentModel

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e, err := w.Exams.FindExam(gctx, c.ExamID)
		if err != nil {
			return err
		}
		exam = e
		return nil
	})
	g.Go(func() error {
		s, err := w.Students.FindStudent(gctx, c.StudentID)
		if err != nil {
			return err
		}
		student = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	_ = student // keberadaan student yang penting; field-nya tidak dipakai di record

	// (b) attempt limit
	count, err := w.Store.CountAttempts(ctx, c.ExamID, c.StudentID)
	if err != nil {
		tracer.RecordError(StageStored, err)
		return nil, ErrStorageFailure
	}
	if count >= int64(exam.ExamMaxAttempts) {
		return nil, ErrAttemptLimitExceeded
	}

	// (c) bangun record (immutable setelah insert)
	attemptNumber := int(count) + 1
	rec, err := w.buildRecord(c, source, tracer.RequestID, attemptNumber, processingMs)
	if err != nil {
		tracer.RecordError(StageStored, err)
		return nil, ErrStorageFailure
	}

	// (d) insert dengan timeout bounded — timeout = failure, bukan retry loop
	writeCtx, cancel := context.WithTimeout(ctx, w.WriteTimeout)
	defer cancel()

	if err := w.Store.Insert(writeCtx, rec); err != nil {
		if isDuplicateKeyErr(err) {
			// race double-submit: record attempt ini sudah ada → bukan fatal
			log.Printf("[STORAGE] req=%s duplicate key attempt=%d → sudah tersimpan", tracer.RequestID, attemptNumber)
			return nil, ErrAlreadySubmitted
		}
		tracer.RecordError(StageStored, err)
		return nil, ErrStorageFailure
	}
	tracer.RecordCanonical(StageStored, c)

	// (e) linkage best-effort — kegagalan dicatat utk rekonsiliasi background
	if err := w.Store.AppendExamResultRef(ctx, c.ExamID, rec.ExamResultID); err != nil {
		log.Printf("[STORAGE] ⚠️ req=%s gagal update exam_result_refs (non-fatal, perlu rekonsiliasi): %v",
			tracer.RequestID, err)
	} else {
		tracer.RecordCanonical(StageLinked, c)
	}

	return &ResultSummary{
		ResultID:         rec.ExamResultID,
		AttemptNumber:    attemptNumber,
		Score:            rec.ExamResultScore,
		TotalMarks:       rec.ExamResultTotalMarks,
		Percentage:       rec.ExamResultPercentage,
		CorrectAnswers:   rec.ExamResultCorrectAnswers,
		IncorrectAnswers: rec.ExamResultIncorrectAnswers,
		Unattempted:      rec.ExamResultUnattempted,
		TimeTaken:        rec.ExamResultTimeTaken,
		CompletedAt:      rec.ExamResultCompletedAt,
		Source:           source,
	}, nil
}

func (w *StorageWriter) buildRecord(
	c *CanonicalSubmission,
	source resultModel.ResultComputationSource,
	requestID string,
	attemptNumber int,
	processingMs int64,
) (*resultModel.ExamResultModel, error) {

	analysisJSON, err := json.Marshal(c.QuestionAnalysis)
	if err != nil {
		return nil, err
	}
	subjectJSON, err := json.Marshal(c.SubjectPerformance)
	if err != nil {
		return nil, err
	}
	visitedJSON, err := json.Marshal(c.VisitedQuestions)
	if err != nil {
		return nil, err
	}
	markedJSON, err := json.Marshal(c.MarkedQuestions)
	if err != nil {
		return nil, err
	}

	percentage := c.Percentage
	if c.TotalMarks > 0 {
		// persentase tersimpan selalu turunan dari skor tersimpan
		percentage = c.FinalScore / c.TotalMarks * 100
	}

	return &resultModel.ExamResultModel{
		ExamResultExamID:        c.ExamID,
		ExamResultStudentID:     c.StudentID,
		ExamResultAttemptNumber: attemptNumber,

		ExamResultScore:      c.FinalScore,
		ExamResultTotalMarks: c.TotalMarks,
		ExamResultPercentage: percentage,

		ExamResultCorrectAnswers:   c.CorrectAnswers,
		ExamResultIncorrectAnswers: c.IncorrectAnswers,
		ExamResultUnattempted:      c.Unattempted,

		ExamResultQuestionAnalysis:   datatypes.JSON(analysisJSON),
		ExamResultSubjectPerformance: datatypes.JSON(subjectJSON),

		ExamResultTimeTaken:        c.TimeTaken,
		ExamResultCompletedAt:      c.CompletedAt,
		ExamResultWarnings:         c.Warnings,
		ExamResultVisitedQuestions: datatypes.JSON(visitedJSON),
		ExamResultMarkedQuestions:  datatypes.JSON(markedJSON),

		ExamResultComputationSource: source,
		ExamResultProcessingMs:      processingMs,
		ExamResultValidationHash:    ComputeContentHash(c),
		ExamResultEngineVersion:     c.EngineVersion,
		ExamResultRequestID:         requestID,
	}, nil
}

// isDuplicateKeyErr: deteksi unique violation Postgres (SQLSTATE 23505).
// Cek gorm.ErrDuplicatedKey, *pq.Error, lalu substring (kompatibel pgx yang dibungkus).
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "unique constraint") ||
		strings.Contains(s, "sqlstate 23505")
}
