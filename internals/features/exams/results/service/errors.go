// file: internals/features/exams/results/service/errors.go
package service

import "errors"

/* =========================================================
   TAKSONOMI ERROR PIPELINE
   Verdict validasi TIDAK pernah dilempar sebagai error —
   error di sini hanya untuk kegagalan nyata (DB, kontrak).
========================================================= */

var (
	// Exam / student tidak ada — fatal untuk attempt ini, tanpa fallback
	ErrExamNotFound    = errors.New("exam tidak ditemukan")
	ErrStudentNotFound = errors.New("student tidak ditemukan")

	// Business rule sah, user-facing, tanpa fallback
	ErrAttemptLimitExceeded = errors.New("batas attempt ujian sudah tercapai")

	// Duplicate key di (exam, student, attempt_number) → dianggap sudah submit
	ErrAlreadySubmitted = errors.New("hasil attempt ini sudah tersimpan")

	// Gagal tulis / timeout → trigger fallback (kalau belum di fallback)
	ErrStorageFailure = errors.New("gagal menyimpan hasil ujian")

	// Fallback pun gagal — terminal, tidak ada jalur recovery lagi
	ErrFallbackFailure = errors.New("komputasi fallback gagal")
)
