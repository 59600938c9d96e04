// file: internals/features/exams/results/controller/exam_result_submit_controller_test.go
package controller

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rservice "ujianku_backend/internals/features/exams/results/service"
	"ujianku_backend/internals/middlewares"
)

// newSubmitTestApp merakit app minimal: recovery + dua endpoint submit.
// DB nil aman di sini — semua kasus harus berhenti di gerbang parse/validasi,
// sebelum pipeline menyentuh storage.
func newSubmitTestApp() *fiber.App {
	app := fiber.New()
	app.Use(middlewares.RecoveryMiddleware())

	ctl := NewExamResultSubmitController(nil, rservice.NewPerformanceMonitor(10))
	app.Post("/exam-results/submit", ctl.Submit)
	app.Post("/exam-results/submit-legacy", ctl.SubmitLegacy)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func TestSubmitMalformedBodyReturns400(t *testing.T) {
	app := newSubmitTestApp()

	// body bukan JSON valid → 400 dari gerbang parse,
	// tidak boleh lolos ke pipeline lalu meledak jadi 500
	resp, body := postJSON(t, app, "/exam-results/submit", `{bukan json`)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Payload tidak valid")
	assert.NotContains(t, body, "runtime error")
}

func TestSubmitLegacyMalformedBodyReturns400(t *testing.T) {
	app := newSubmitTestApp()

	resp, body := postJSON(t, app, "/exam-results/submit-legacy", `{bukan json`)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Payload tidak valid")
}

func TestSubmitMissingStudentIDReturns400(t *testing.T) {
	app := newSubmitTestApp()

	body := fmt.Sprintf(`{"exam_id":%q}`, uuid.NewString())
	resp, respBody := postJSON(t, app, "/exam-results/submit", body)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, respBody, "student_id wajib")
}

func TestSubmitValidatorFailureReturns400(t *testing.T) {
	app := newSubmitTestApp()

	body := fmt.Sprintf(`{"exam_id":%q,"student_id":%q,"warnings":-1}`,
		uuid.NewString(), uuid.NewString())
	resp, respBody := postJSON(t, app, "/exam-results/submit", body)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, respBody, "Validasi gagal")
}
