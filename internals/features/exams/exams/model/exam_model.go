// file: internals/features/exams/exams/model/exam_model.go
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
=========================================================

	EXAMS
	1 row = 1 ujian (bank soal & attempt limit)
	- exam_result_refs : daftar result_id (JSONB) — best effort,
	  sumber kebenaran tetap tabel exam_results

=========================================================
*/
type ExamModel struct {
	// PK teknis
	ExamID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:exam_id" json:"exam_id"`

	// Identitas ujian
	ExamTitle string `gorm:"type:varchar(160);not null;column:exam_title" json:"exam_title"`
	ExamCode  string `gorm:"type:varchar(50);not null;uniqueIndex:uq_exam_code;column:exam_code" json:"exam_code"`

	// Konfigurasi penilaian
	ExamTotalMarks              float64 `gorm:"type:numeric(8,2);not null;default:0;column:exam_total_marks" json:"exam_total_marks"`
	ExamQuestionCount           int     `gorm:"type:int;not null;default:0;column:exam_question_count" json:"exam_question_count"`
	ExamDefaultMarksPerQuestion float64 `gorm:"type:numeric(6,2);not null;default:4;column:exam_default_marks_per_question" json:"exam_default_marks_per_question"`
	ExamNegativeMarking         bool    `gorm:"not null;default:false;column:exam_negative_marking" json:"exam_negative_marking"`

	// Batas attempt per student
	ExamMaxAttempts int `gorm:"type:int;not null;default:1;column:exam_max_attempts" json:"exam_max_attempts"`

	// Durasi pengerjaan (detik)
	ExamDurationSeconds int `gorm:"type:int;not null;default:3600;column:exam_duration_seconds" json:"exam_duration_seconds"`

	ExamIsPublished bool `gorm:"not null;default:false;column:exam_is_published" json:"exam_is_published"`

	// Daftar result_id yang pernah dibuat untuk ujian ini (best effort)
	ExamResultRefs datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'::jsonb;column:exam_result_refs" json:"exam_result_refs"`

	// Timestamps
	ExamCreatedAt time.Time      `gorm:"type:timestamptz;not null;default:now();autoCreateTime;column:exam_created_at" json:"exam_created_at"`
	ExamUpdatedAt time.Time      `gorm:"type:timestamptz;not null;default:now();autoUpdateTime;column:exam_updated_at" json:"exam_updated_at"`
	ExamDeletedAt gorm.DeletedAt `gorm:"column:exam_deleted_at;index" json:"exam_deleted_at,omitempty"`
}

/* =========================================================
   RESULT REFS HELPER
========================================================= */

// AppendResultRef menambah result_id ke exam_result_refs.
// Dipanggil best-effort dari storage writer — gagal di sini TIDAK fatal.
func (m *ExamModel) AppendResultRef(resultID uuid.UUID) error {
	var refs []uuid.UUID
	if len(m.ExamResultRefs) > 0 {
		if err := json.Unmarshal(m.ExamResultRefs, &refs); err != nil {
			return fmt.Errorf("invalid exam_result_refs json: %w", err)
		}
	}

	// idempotent: skip kalau sudah ada
	for _, r := range refs {
		if r == resultID {
			return nil
		}
	}
	refs = append(refs, resultID)

	buf, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("failed to marshal exam_result_refs: %w", err)
	}
	m.ExamResultRefs = datatypes.JSON(buf)
	return nil
}

// TableName override default GORM → pakai nama tabel nyata di DB
func (ExamModel) TableName() string {
	return "exams"
}
