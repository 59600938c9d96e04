// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"ujianku_backend/internals/configs"
	resultRoute "ujianku_backend/internals/features/exams/results/route"
	resultService "ujianku_backend/internals/features/exams/results/service"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	startTime = time.Now()

	// Monitor dishare semua controller supaya window metrics konsisten
	monitor := resultService.NewPerformanceMonitor(configs.MonitorWindowSize)

	log.Println("[INFO] Setting up BaseRoutes...")
	BaseRoutes(app, db)

	// ===================== GROUPS =====================

	// PUBLIC → JWT opsional (token identity sudah dipasang global)
	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api/public")

	// ADMIN → dashboard pipeline
	log.Println("[INFO] Setting up ADMIN group...")
	admin := app.Group("/api/a")

	// ===================== MOUNT ROUTES =====================

	log.Println("[INFO] Mounting ExamResult routes...")
	resultRoute.ExamResultUserRoutes(public, db, monitor)
	resultRoute.ExamResultAdminRoutes(admin, db, monitor)
}
