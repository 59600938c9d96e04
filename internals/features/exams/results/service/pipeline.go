// file: internals/features/exams/results/service/pipeline.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	dto "ujianku_backend/internals/features/exams/results/dto"
	resultModel "ujianku_backend/internals/features/exams/results/model"
)

/* =========================================================
   SUBMISSION PIPELINE (ROUTER)
   RECEIVED → STABILIZED → TRANSFORMED → VALIDATING →
     VALID   → STORED → LINKED → COMPLETE
     INVALID → FALLBACK_ROUTED → FALLBACK_STORED → COMPLETE
                               → FALLBACK_FAILED → ERROR_COMPLETE

   Keputusan fallback = data (verdict/outcome), bukan exception.
   Panic di stage manapun ditangkap SEKALI di sini dan langsung
   dialihkan ke emergency fallback, tidak pernah bocor ke caller.
========================================================= */

// Kind outcome terminal pipeline
const (
	OutcomeKindStored           = "stored"
	OutcomeKindFallbackStored   = "fallback_stored"
	OutcomeKindAttemptLimit     = "attempt_limit_exceeded"
	OutcomeKindAlreadySubmitted = "already_submitted"
	OutcomeKindNotFound         = "not_found"
	OutcomeKindTerminalError    = "terminal_error"
)

type PipelineOutcome struct {
	Kind         string
	Summary      *ResultSummary
	Verdict      *ValidationVerdict
	Trace        TraceSummary
	ProcessingMs int64
	Err          error
}

type SubmissionPipeline struct {
	Validator *SubmissionValidator
	Writer    *StorageWriter
	Fallback  *FallbackOrchestrator
	Monitor   *PerformanceMonitor
}

func NewSubmissionPipeline(v *SubmissionValidator, w *StorageWriter, f *FallbackOrchestrator, m *PerformanceMonitor) *SubmissionPipeline {
	return &SubmissionPipeline{Validator: v, Writer: w, Fallback: f, Monitor: m}
}

// Process menjalankan satu submission sampai outcome terminal.
func (p *SubmissionPipeline) Process(ctx context.Context, req *dto.SubmitExamResultRequest, requestID string) (outcome *PipelineOutcome) {
	tracer := NewSubmissionTracer(requestID)
	start := time.Now()

	var canonical *CanonicalSubmission
	var validationMs, storageMs int64

	finish := func(o *PipelineOutcome) *PipelineOutcome {
		o.ProcessingMs = time.Since(start).Milliseconds()
		o.Trace = tracer.Summary()
		p.recordMetric(o, tracer.RequestID, validationMs, storageMs)
		return o
	}

	// Request nil tidak pernah sah. Tanpa guard ini RecordStage di bawah
	// panic duluan dan recover malah mencoba transform dari nil juga.
	if req == nil {
		tracer.RecordError("input", errors.New("request submission nil"))
		return finish(&PipelineOutcome{Kind: OutcomeKindTerminalError, Err: errors.New("request submission nil")})
	}

	// Boundary terluar: panic / defect tak terduga → emergency fallback,
	// BUKAN propagasi ke caller.
	defer func() {
		if r := recover(); r != nil {
			tracer.RecordError("panic", fmt.Errorf("%v", r))
			log.Printf("[PIPELINE] 🚨 req=%s panic tertangkap: %v — emergency fallback", tracer.RequestID, r)

			c := canonical
			if c == nil {
				// transform darurat lewat tracer request yang sama supaya
				// fingerprint TRANSFORMED + recovery event tetap ada di trace akhir
				c = TransformSubmission(req, tracer)
			}
			summary, err := p.Fallback.Recover(ctx, c,
				fmt.Sprintf("emergency: panic %v", r),
				resultModel.ResultSourceEmergencyFallback, tracer)

			outcome = finish(p.outcomeFromFallback(summary, err, nil, tracer))
		}
	}()

	// RECEIVED — fingerprint payload mentah
	tracer.RecordStage(StageReceived,
		req.ExamID.String(), req.StudentID.String(),
		req.FinalScore, req.TotalMarks, countNonEmpty(req.Answers))

	// STABILIZED — salinan bebas referensi
	stabilized := StabilizeSubmission(req, tracer)
	tracer.RecordStage(StageStabilized,
		stabilized.ExamID.String(), stabilized.StudentID.String(),
		stabilized.FinalScore, stabilized.TotalMarks, countNonEmpty(stabilized.Answers))

	// TRANSFORMED — canonical + recovery nilai nol
	canonical = TransformSubmission(stabilized, tracer)

	// VALIDATING — 5 layer paralel
	tracer.RecordCanonical(StageValidating, canonical)
	vStart := time.Now()
	verdict := p.Validator.Validate(ctx, canonical)
	validationMs = time.Since(vStart).Milliseconds()

	if verdict.Valid {
		tracer.RecordCanonical(StageValid, canonical)

		sStart := time.Now()
		summary, err := p.Writer.StoreResult(ctx, canonical, resultModel.ResultSourceDirectStorage, tracer, time.Since(start).Milliseconds())
		storageMs = time.Since(sStart).Milliseconds()

		switch err {
		case nil:
			tracer.RecordCanonical(StageComplete, canonical)
			return finish(&PipelineOutcome{Kind: OutcomeKindStored, Summary: summary, Verdict: verdict})

		case ErrAttemptLimitExceeded:
			// business rule sah — tanpa fallback
			return finish(&PipelineOutcome{Kind: OutcomeKindAttemptLimit, Verdict: verdict, Err: err})

		case ErrAlreadySubmitted:
			return finish(&PipelineOutcome{Kind: OutcomeKindAlreadySubmitted, Verdict: verdict, Err: err})

		case ErrExamNotFound, ErrStudentNotFound:
			// fatal utk attempt ini — fallback tidak akan menemukan data juga
			return finish(&PipelineOutcome{Kind: OutcomeKindNotFound, Verdict: verdict, Err: err})

		default:
			// storage gagal/timeout → fallback (sekali)
			summary, ferr := p.Fallback.Recover(ctx, canonical,
				fmt.Sprintf("storage gagal di jalur direct: %v", err),
				resultModel.ResultSourceFallbackCompute, tracer)
			return finish(p.outcomeFromFallback(summary, ferr, verdict, tracer))
		}
	}

	// INVALID → fallback ke komputasi otoritatif
	tracer.RecordCanonical(StageInvalid, canonical)
	summary, err := p.Fallback.Recover(ctx, canonical,
		"validasi gagal: "+verdict.PrimaryReason,
		resultModel.ResultSourceFallbackCompute, tracer)
	return finish(p.outcomeFromFallback(summary, err, verdict, tracer))
}

// ProcessLegacy: jalur lama — tidak pernah mempercayai angka client,
// langsung ke komputasi otoritatif (tetap lewat stabilize+transform
// supaya identitas/jawaban ternormalisasi dan trace lengkap).
func (p *SubmissionPipeline) ProcessLegacy(ctx context.Context, req *dto.SubmitExamResultRequest, requestID string) (outcome *PipelineOutcome) {
	tracer := NewSubmissionTracer(requestID)
	start := time.Now()

	finish := func(o *PipelineOutcome) *PipelineOutcome {
		o.ProcessingMs = time.Since(start).Milliseconds()
		o.Trace = tracer.Summary()
		p.recordMetric(o, tracer.RequestID, 0, 0)
		return o
	}

	defer func() {
		if r := recover(); r != nil {
			tracer.RecordError("panic", fmt.Errorf("%v", r))
			outcome = finish(&PipelineOutcome{Kind: OutcomeKindTerminalError, Err: ErrFallbackFailure})
		}
	}()

	if req == nil {
		tracer.RecordError("input", errors.New("request submission nil"))
		return finish(&PipelineOutcome{Kind: OutcomeKindTerminalError, Err: errors.New("request submission nil")})
	}

	tracer.RecordStage(StageReceived,
		req.ExamID.String(), req.StudentID.String(),
		req.FinalScore, req.TotalMarks, countNonEmpty(req.Answers))

	stabilized := StabilizeSubmission(req, tracer)
	tracer.RecordStage(StageStabilized,
		stabilized.ExamID.String(), stabilized.StudentID.String(),
		stabilized.FinalScore, stabilized.TotalMarks, countNonEmpty(stabilized.Answers))

	canonical := TransformSubmission(stabilized, tracer)

	summary, err := p.Fallback.Recover(ctx, canonical,
		"legacy path: komputasi server wajib",
		resultModel.ResultSourceFallbackCompute, tracer)
	return finish(p.outcomeFromFallback(summary, err, nil, tracer))
}

func (p *SubmissionPipeline) outcomeFromFallback(summary *ResultSummary, err error, verdict *ValidationVerdict, tracer *SubmissionTracer) *PipelineOutcome {
	switch err {
	case nil:
		return &PipelineOutcome{Kind: OutcomeKindFallbackStored, Summary: summary, Verdict: verdict}
	case ErrAttemptLimitExceeded:
		return &PipelineOutcome{Kind: OutcomeKindAttemptLimit, Verdict: verdict, Err: err}
	case ErrAlreadySubmitted:
		return &PipelineOutcome{Kind: OutcomeKindAlreadySubmitted, Verdict: verdict, Err: err}
	case ErrExamNotFound, ErrStudentNotFound:
		return &PipelineOutcome{Kind: OutcomeKindNotFound, Verdict: verdict, Err: err}
	default:
		// terminal — tidak ada jalur recovery lagi
		return &PipelineOutcome{Kind: OutcomeKindTerminalError, Verdict: verdict, Err: err}
	}
}

func (p *SubmissionPipeline) recordMetric(o *PipelineOutcome, requestID string, validationMs, storageMs int64) {
	if p.Monitor == nil {
		return
	}
	outcome := OutcomeError
	switch o.Kind {
	case OutcomeKindStored:
		outcome = OutcomeStored
	case OutcomeKindFallbackStored:
		outcome = OutcomeFallbackStored
	case OutcomeKindAttemptLimit, OutcomeKindAlreadySubmitted, OutcomeKindNotFound:
		outcome = OutcomeRejected
	}
	p.Monitor.Record(SubmissionMetric{
		RequestID:    requestID,
		TotalMs:      o.ProcessingMs,
		ValidationMs: validationMs,
		StorageMs:    storageMs,
		Outcome:      outcome,
	})
}

func countNonEmpty(answers map[string]string) int {
	n := 0
	for _, v := range answers {
		if v != "" {
			n++
		}
	}
	return n
}
