// file: internals/features/exams/results/route/exam_result_routes.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	resultController "ujianku_backend/internals/features/exams/results/controller"
	resultService "ujianku_backend/internals/features/exams/results/service"
	"ujianku_backend/internals/middlewares"
)

/* =========================================================
   ROUTES — EXAM RESULTS
   /exam-results/submit dibatasi rate limiter khusus:
   endpoint ini yang paling rawan spam/retry storm.
========================================================= */

func ExamResultUserRoutes(router fiber.Router, db *gorm.DB, monitor *resultService.PerformanceMonitor) {
	submitCtl := resultController.NewExamResultSubmitController(db, monitor)
	getCtl := resultController.NewExamResultsGetController(db)

	results := router.Group("/exam-results")

	results.Post("/submit", middlewares.SubmitRateLimiter(), submitCtl.Submit)
	results.Post("/submit-legacy", middlewares.SubmitRateLimiter(), submitCtl.SubmitLegacy)

	results.Get("/", getCtl.List)
	results.Get("/:id", getCtl.GetByID)
}

func ExamResultAdminRoutes(router fiber.Router, db *gorm.DB, monitor *resultService.PerformanceMonitor) {
	dashCtl := resultController.NewExamResultDashboardController(db, monitor)

	router.Get("/exam-results/dashboard", dashCtl.Overview)
}
