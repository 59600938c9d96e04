// file: internals/features/exams/results/service/stabilizer.go
package service

import (
	"github.com/bytedance/sonic"

	dto "ujianku_backend/internals/features/exams/results/dto"
)

/* =========================================================
   STABILIZER
   Menghasilkan salinan payload yang bebas referensi bersama:
   map/slice di DTO hasil BodyParser bisa saja masih dipegang
   caller lain. Setelah stage ini tidak ada yang bisa melihat
   mutasi dari luar.

   Kontrak: TIDAK pernah error. Gagal clone → pakai payload
   asli, trace ditandai degraded (bukan fatal).
========================================================= */

// StabilizeSubmission deep-clone via serialize/deserialize (sonic).
func StabilizeSubmission(req *dto.SubmitExamResultRequest, tracer *SubmissionTracer) *dto.SubmitExamResultRequest {
	if req == nil {
		return nil
	}

	buf, err := sonic.Marshal(req)
	if err != nil {
		tracer.MarkDegraded("stabilizer: marshal gagal, pakai payload asli: " + err.Error())
		return req
	}

	var clone dto.SubmitExamResultRequest
	if err := sonic.Unmarshal(buf, &clone); err != nil {
		tracer.MarkDegraded("stabilizer: unmarshal gagal, pakai payload asli: " + err.Error())
		return req
	}

	return &clone
}
