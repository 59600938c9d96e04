// file: internals/features/exams/results/service/fakes_test.go
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	examModel "ujianku_backend/internals/features/exams/exams/model"
	dto "ujianku_backend/internals/features/exams/results/dto"
	resultModel "ujianku_backend/internals/features/exams/results/model"
	scoringSvc "ujianku_backend/internals/features/exams/scoring/service"
	studentModel "ujianku_backend/internals/features/users/students/model"
)

/* =========================================================
   FAKE KOLABORATOR — tanpa Postgres
========================================================= */

type fakeExamReader struct {
	exam *examModel.ExamModel
	err  error
}

func (f *fakeExamReader) FindExam(_ context.Context, _ uuid.UUID) (*examModel.ExamModel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.exam, nil
}

type fakeStudentReader struct {
	student *studentModel.StudentModel
	err     error
}

func (f *fakeStudentReader) FindStudent(_ context.Context, _ uuid.UUID) (*studentModel.StudentModel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.student, nil
}

type fakeResultStore struct {
	mu sync.Mutex

	count          int64
	countErr       error
	panicNextCount bool

	insertErr error
	linkErr   error

	inserted []*resultModel.ExamResultModel
	linked   []uuid.UUID
}

func (f *fakeResultStore) CountAttempts(_ context.Context, _, _ uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicNextCount {
		f.panicNextCount = false
		panic("simulasi panic di count attempts")
	}
	return f.count, f.countErr
}

func (f *fakeResultStore) Insert(_ context.Context, rec *resultModel.ExamResultModel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if rec.ExamResultID == uuid.Nil {
		rec.ExamResultID = uuid.New()
	}
	f.inserted = append(f.inserted, rec)
	return nil
}

func (f *fakeResultStore) AppendExamResultRef(_ context.Context, _, resultID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.linkErr != nil {
		return f.linkErr
	}
	f.linked = append(f.linked, resultID)
	return nil
}

func (f *fakeResultStore) lastInserted() *resultModel.ExamResultModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inserted) == 0 {
		return nil
	}
	return f.inserted[len(f.inserted)-1]
}

/* =========================================================
   FAKE SCORING ENGINE
   Aturan disimpan in-memory; formula Score dipinjam dari
   engine asli (pure, tanpa DB).
========================================================= */

type fakeScoringEngine struct {
	questions    []scoringSvc.QuestionRules
	rulesErr     error
	questionsErr error
}

func (f *fakeScoringEngine) RulesFor(_ context.Context, _, questionID uuid.UUID) (*scoringSvc.QuestionRules, error) {
	if f.rulesErr != nil {
		return nil, f.rulesErr
	}
	for i := range f.questions {
		if f.questions[i].QuestionID == questionID {
			q := f.questions[i]
			return &q, nil
		}
	}
	return nil, scoringSvc.ErrQuestionNotFound
}

func (f *fakeScoringEngine) QuestionsFor(_ context.Context, _ uuid.UUID) ([]scoringSvc.QuestionRules, error) {
	if f.questionsErr != nil {
		return nil, f.questionsErr
	}
	return f.questions, nil
}

func (f *fakeScoringEngine) Score(rules *scoringSvc.QuestionRules, userAnswer string) scoringSvc.QuestionScore {
	return (&scoringSvc.GormScoringEngine{}).Score(rules, userAnswer)
}

/* =========================================================
   FIXTURE BUILDERS
========================================================= */

func testExam(maxAttempts int) *examModel.ExamModel {
	return &examModel.ExamModel{
		ExamID:                      uuid.New(),
		ExamTitle:                   "Tryout Matematika",
		ExamCode:                    "TO-MTK-01",
		ExamDefaultMarksPerQuestion: 4,
		ExamMaxAttempts:             maxAttempts,
	}
}

func testStudent() *studentModel.StudentModel {
	return &studentModel.StudentModel{
		StudentID:       uuid.New(),
		StudentName:     "Budi",
		StudentCode:     "S-001",
		StudentIsActive: true,
	}
}

// testQuestions: n soal pilihan ganda, jawaban benar "A", +4 / -1
func testQuestions(examID uuid.UUID, n int) []scoringSvc.QuestionRules {
	out := make([]scoringSvc.QuestionRules, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, scoringSvc.QuestionRules{
			QuestionID:    uuid.New(),
			ExamID:        examID,
			Subject:       "Matematika",
			CorrectAnswer: "A",
			PositiveMarks: 4,
			NegativeMarks: 1,
			Version:       1,
		})
	}
	return out
}

// validClientRequest: payload client_computed yang lolos semua layer.
// 5 soal: 4 benar, 1 salah → 4×4 − 1 = 15 dari 20.
func validClientRequest(examID, studentID uuid.UUID, questions []scoringSvc.QuestionRules) *dto.SubmitExamResultRequest {
	answers := make(map[string]string, len(questions))
	analysis := make([]dto.QuestionAnalysisPayload, 0, len(questions))

	for i, q := range questions {
		ans := "A"
		status := "correct"
		marks := q.PositiveMarks
		if i == len(questions)-1 {
			ans = "B"
			status = "incorrect"
			marks = -q.NegativeMarks
		}
		answers[q.QuestionID.String()] = ans
		analysis = append(analysis, dto.QuestionAnalysisPayload{
			QuestionID: q.QuestionID,
			Status:     status,
			Marks:      marks,
			UserAnswer: ans,
		})
	}

	return &dto.SubmitExamResultRequest{
		ExamID:           examID,
		StudentID:        studentID,
		Answers:          answers,
		FinalScore:       15,
		TotalMarks:       20,
		Percentage:       75,
		CorrectAnswers:   4,
		IncorrectAnswers: 1,
		Unattempted:      0,
		QuestionAnalysis: analysis,
		TimeTaken:        600,
		CompletedAt:      time.Now(),
		EvaluationSource: dto.EvaluationSourceClient,
	}
}
