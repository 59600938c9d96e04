// file: internals/features/exams/results/service/integration_test.go
package service

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	examModel "ujianku_backend/internals/features/exams/exams/model"
	resultModel "ujianku_backend/internals/features/exams/results/model"
	scoringSvc "ujianku_backend/internals/features/exams/scoring/service"
	studentModel "ujianku_backend/internals/features/users/students/model"
)

// Integration test butuh Postgres nyata:
//
//	UJIANKU_TEST_DSN="host=localhost user=postgres password=postgres dbname=ujianku_test sslmode=disable" go test ./...
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("UJIANKU_TEST_DSN")
	if dsn == "" {
		t.Skip("UJIANKU_TEST_DSN tidak di-set, skip integration test")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&examModel.ExamModel{},
		&examModel.ExamQuestionModel{},
		&studentModel.StudentModel{},
		&resultModel.ExamResultModel{},
	))
	return db
}

func seedExam(t *testing.T, db *gorm.DB, maxAttempts, questionCount int) (*examModel.ExamModel, []examModel.ExamQuestionModel, *studentModel.StudentModel) {
	t.Helper()

	exam := &examModel.ExamModel{
		ExamTitle:       "Integration Tryout",
		ExamCode:        "IT-" + uuid.NewString()[:8],
		ExamMaxAttempts: maxAttempts,
		ExamIsPublished: true,
	}
	require.NoError(t, db.Create(exam).Error)

	questions := make([]examModel.ExamQuestionModel, 0, questionCount)
	for i := 0; i < questionCount; i++ {
		q := examModel.ExamQuestionModel{
			ExamQuestionExamID:        exam.ExamID,
			ExamQuestionSubject:       "Matematika",
			ExamQuestionText:          "2 + 2 = ?",
			ExamQuestionCorrectAnswer: "A",
			ExamQuestionPositiveMarks: 4,
			ExamQuestionNegativeMarks: 1,
		}
		require.NoError(t, db.Create(&q).Error)
		questions = append(questions, q)
	}

	student := &studentModel.StudentModel{
		StudentName: "Integration Student",
		StudentCode: "IS-" + uuid.NewString()[:8],
	}
	require.NoError(t, db.Create(student).Error)

	return exam, questions, student
}

func TestIntegrationPipelineEndToEnd(t *testing.T) {
	db := openTestDB(t)
	exam, questions, student := seedExam(t, db, 2, 5)

	scoring := scoringSvc.NewGormScoringEngine(db)
	writer := NewStorageWriter(&GormExamReader{DB: db}, &GormStudentReader{DB: db}, &GormResultStore{DB: db}, 3*time.Second)
	fallback := NewFallbackOrchestrator(scoring, writer)
	monitor := NewPerformanceMonitor(50)
	pipeline := NewSubmissionPipeline(NewSubmissionValidator(scoring), writer, fallback, monitor)

	rules := make([]scoringSvc.QuestionRules, 0, len(questions))
	for _, q := range questions {
		rules = append(rules, scoringSvc.QuestionRules{
			QuestionID:    q.ExamQuestionID,
			ExamID:        exam.ExamID,
			Subject:       q.ExamQuestionSubject,
			CorrectAnswer: q.ExamQuestionCorrectAnswer,
			PositiveMarks: q.ExamQuestionPositiveMarks,
			NegativeMarks: q.ExamQuestionNegativeMarks,
		})
	}
	req := validClientRequest(exam.ExamID, student.StudentID, rules)

	// attempt pertama → direct storage
	o := pipeline.Process(context.Background(), req, "req-int-1")
	require.Equal(t, OutcomeKindStored, o.Kind)
	assert.Equal(t, 1, o.Summary.AttemptNumber)

	// exam_result_refs ikut ter-update (best-effort linkage)
	var reloaded examModel.ExamModel
	require.NoError(t, db.First(&reloaded, "exam_id = ?", exam.ExamID).Error)
	var refs []uuid.UUID
	require.NoError(t, json.Unmarshal(reloaded.ExamResultRefs, &refs))
	assert.Contains(t, refs, o.Summary.ResultID)

	// attempt kedua → nomor naik
	o2 := pipeline.Process(context.Background(), req, "req-int-2")
	require.Equal(t, OutcomeKindStored, o2.Kind)
	assert.Equal(t, 2, o2.Summary.AttemptNumber)

	// attempt ketiga → limit
	o3 := pipeline.Process(context.Background(), req, "req-int-3")
	assert.Equal(t, OutcomeKindAttemptLimit, o3.Kind)
}

func TestIntegrationUniqueIndexIsIdempotencyAuthority(t *testing.T) {
	db := openTestDB(t)
	exam, _, student := seedExam(t, db, 5, 1)

	store := &GormResultStore{DB: db}
	rec := &resultModel.ExamResultModel{
		ExamResultExamID:            exam.ExamID,
		ExamResultStudentID:         student.StudentID,
		ExamResultAttemptNumber:     1,
		ExamResultScore:             4,
		ExamResultTotalMarks:        4,
		ExamResultPercentage:        100,
		ExamResultCompletedAt:       time.Now(),
		ExamResultComputationSource: resultModel.ResultSourceDirectStorage,
	}
	require.NoError(t, store.Insert(context.Background(), rec))

	// attempt_number sama → unique violation, diartikan sudah submit
	dup := *rec
	dup.ExamResultID = uuid.Nil
	err := store.Insert(context.Background(), &dup)
	require.Error(t, err)
	assert.True(t, isDuplicateKeyErr(err))
}
