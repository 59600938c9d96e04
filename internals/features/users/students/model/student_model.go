// file: internals/features/users/students/model/student_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StudentModel struct {
	StudentID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:student_id" json:"student_id"`

	StudentName string `gorm:"type:varchar(100);not null;column:student_name" json:"student_name"`
	StudentCode string `gorm:"type:varchar(50);not null;uniqueIndex:uq_student_code;column:student_code" json:"student_code"`

	StudentIsActive bool `gorm:"not null;default:true;column:student_is_active" json:"student_is_active"`

	StudentCreatedAt time.Time      `gorm:"type:timestamptz;not null;default:now();autoCreateTime;column:student_created_at" json:"student_created_at"`
	StudentUpdatedAt time.Time      `gorm:"type:timestamptz;not null;default:now();autoUpdateTime;column:student_updated_at" json:"student_updated_at"`
	StudentDeletedAt gorm.DeletedAt `gorm:"column:student_deleted_at;index" json:"student_deleted_at,omitempty"`
}

func (StudentModel) TableName() string {
	return "students"
}
