// file: internals/features/exams/results/controller/exam_result_submit_controller.go
package controller

import (
	"log"

	validator "github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"ujianku_backend/internals/configs"
	rdto "ujianku_backend/internals/features/exams/results/dto"
	rservice "ujianku_backend/internals/features/exams/results/service"
	scoringService "ujianku_backend/internals/features/exams/scoring/service"
	helper "ujianku_backend/internals/helpers"
)

/* =========================================================
   SUBMIT CONTROLLER
   Entry point HTTP pipeline hasil ujian.
   - POST /exam-results/submit        → jalur cepat (direct storage)
   - POST /exam-results/submit-legacy → jalur lama (komputasi server)
   Pesan gagal ke client selalu generik — detail validasi,
   fingerprint, dan stack trace cuma hidup di log server.
========================================================= */

type ExamResultSubmitController struct {
	DB        *gorm.DB
	validator *validator.Validate
	Pipeline  *rservice.SubmissionPipeline
	Monitor   *rservice.PerformanceMonitor
}

func NewExamResultSubmitController(db *gorm.DB, monitor *rservice.PerformanceMonitor) *ExamResultSubmitController {
	scoring := scoringService.NewGormScoringEngine(db)

	v := rservice.NewSubmissionValidator(scoring)
	v.SpotCheckSampleCap = configs.SpotCheckSampleCap
	v.MinPlausibleDuration = configs.MinPlausibleDuration
	v.SoftDurationFloor = configs.SoftDurationFloor
	v.StalenessWindow = configs.StalenessWindow
	v.ClockSkewTolerance = configs.ClockSkewTolerance

	writer := rservice.NewStorageWriter(
		&rservice.GormExamReader{DB: db},
		&rservice.GormStudentReader{DB: db},
		&rservice.GormResultStore{DB: db},
		configs.StorageWriteTimeout,
	)
	fallback := rservice.NewFallbackOrchestrator(scoring, writer)

	return &ExamResultSubmitController{
		DB:       db,
		Pipeline: rservice.NewSubmissionPipeline(v, writer, fallback, monitor),
		Monitor:  monitor,
	}
}

func (ctl *ExamResultSubmitController) ensureValidator() {
	if ctl.validator == nil {
		ctl.validator = validator.New()
	}
}

const genericErrorMessage = "Terjadi kesalahan saat memproses hasil ujian. Silakan coba lagi atau hubungi support."

// POST /exam-results/submit
func (ctl *ExamResultSubmitController) Submit(c *fiber.Ctx) error {
	req, errResp := ctl.parseRequest(c)
	if req == nil {
		return errResp // response error sudah ditulis helper
	}

	outcome := ctl.Pipeline.Process(c.UserContext(), req, requestID(c))
	return ctl.respond(c, outcome)
}

// POST /exam-results/submit-legacy
func (ctl *ExamResultSubmitController) SubmitLegacy(c *fiber.Ctx) error {
	req, errResp := ctl.parseRequest(c)
	if req == nil {
		return errResp
	}

	outcome := ctl.Pipeline.ProcessLegacy(c.UserContext(), req, requestID(c))
	return ctl.respond(c, outcome)
}

/* =========================================================
   Helpers
========================================================= */

// parseRequest mem-parse + memvalidasi body. req == nil berarti response
// error sudah ditulis — caller tinggal meneruskan nilai error-nya.
// Penanda gagal = req nil, BUKAN err != nil: helper.Error mengembalikan nil
// begitu response sukses ditulis.
func (ctl *ExamResultSubmitController) parseRequest(c *fiber.Ctx) (*rdto.SubmitExamResultRequest, error) {
	ctl.ensureValidator()

	var req rdto.SubmitExamResultRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, helper.Error(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctl.validator.Struct(&req); err != nil {
		return nil, helper.ValidationError(c, err)
	}

	// student_id dari token menang atas body (body untrusted)
	if sid, ok := c.Locals("student_id").(string); ok && sid != "" {
		parsed, err := uuid.Parse(sid)
		if err == nil {
			req.StudentID = parsed
		} else {
			log.Printf("[SUBMIT] student_id token tidak valid (%q), pakai body", sid)
		}
	}
	if req.StudentID == uuid.Nil {
		return nil, helper.Error(c, fiber.StatusBadRequest, "student_id wajib (body atau token)")
	}

	return &req, nil
}

func (ctl *ExamResultSubmitController) respond(c *fiber.Ctx, o *rservice.PipelineOutcome) error {
	switch o.Kind {
	case rservice.OutcomeKindStored, rservice.OutcomeKindFallbackStored:
		msg := "Hasil ujian tersimpan"
		if o.Kind == rservice.OutcomeKindFallbackStored {
			msg = "Hasil ujian tersimpan (dihitung ulang server)"
		}
		s := o.Summary
		return c.Status(fiber.StatusCreated).JSON(rdto.SubmitExamResultResponse{
			Success: true,
			Message: msg,
			Result: &rdto.SubmitResultData{
				Score:            s.Score,
				TotalMarks:       s.TotalMarks,
				Percentage:       s.Percentage,
				CorrectAnswers:   s.CorrectAnswers,
				IncorrectAnswers: s.IncorrectAnswers,
				Unattempted:      s.Unattempted,
				TimeTaken:        s.TimeTaken,
				CompletedAt:      s.CompletedAt,
				AttemptNumber:    s.AttemptNumber,
				ResultID:         s.ResultID,
			},
			ProcessingTimeMs:   o.ProcessingMs,
			PerformanceMetrics: ctl.Monitor.Snapshot(),
			TraceSummary:       o.Trace,
		})

	case rservice.OutcomeKindAttemptLimit:
		return helper.Error(c, fiber.StatusConflict, "Batas attempt untuk ujian ini sudah tercapai")

	case rservice.OutcomeKindAlreadySubmitted:
		return helper.Error(c, fiber.StatusConflict, "Hasil attempt ini sudah pernah tersimpan")

	case rservice.OutcomeKindNotFound:
		return helper.Error(c, fiber.StatusNotFound, "Ujian atau student tidak ditemukan")

	default:
		// terminal — konteks lengkap sudah masuk log, client dapat pesan generik
		log.Printf("[SUBMIT] req=%s terminal error: %v", o.Trace.RequestID, o.Err)
		return helper.Error(c, fiber.StatusInternalServerError, genericErrorMessage)
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("reqid").(string); ok {
		return id
	}
	return ""
}
