// file: internals/features/exams/scoring/service/scoring_rules.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	examModel "ujianku_backend/internals/features/exams/exams/model"
)

/* =========================================================
   SCORING RULES ENGINE
   Otoritas aturan nilai per soal. Pipeline submit hanya
   memanggil kontrak ini — formula partial/negative marking
   dimiliki engine, bukan pipeline.
========================================================= */

// Aturan nilai satu soal
type QuestionRules struct {
	QuestionID    uuid.UUID
	ExamID        uuid.UUID
	Subject       string
	CorrectAnswer string
	PositiveMarks float64
	NegativeMarks float64
	PartialRules  json.RawMessage
	Version       int
}

// Hasil penilaian satu soal
type QuestionScore struct {
	Status string // correct | incorrect | unattempted | partially_correct
	Marks  float64
}

type ScoringRulesEngine interface {
	// RulesFor mengambil aturan satu soal (dipakai spot-check)
	RulesFor(ctx context.Context, examID, questionID uuid.UUID) (*QuestionRules, error)
	// QuestionsFor mengambil semua soal satu ujian (dipakai jalur fallback)
	QuestionsFor(ctx context.Context, examID uuid.UUID) ([]QuestionRules, error)
	// Score menilai satu jawaban terhadap aturan (pure, tanpa DB)
	Score(rules *QuestionRules, userAnswer string) QuestionScore
}

var ErrQuestionNotFound = errors.New("soal tidak ditemukan")

/* =========================================================
   DEFAULT ENGINE (GORM-backed)
========================================================= */

type GormScoringEngine struct {
	DB *gorm.DB
}

func NewGormScoringEngine(db *gorm.DB) *GormScoringEngine {
	return &GormScoringEngine{DB: db}
}

func (e *GormScoringEngine) RulesFor(ctx context.Context, examID, questionID uuid.UUID) (*QuestionRules, error) {
	var q examModel.ExamQuestionModel
	err := e.DB.WithContext(ctx).
		Where("exam_question_exam_id = ? AND exam_question_id = ?", examID, questionID).
		First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	r := rulesFromModel(&q)
	return &r, nil
}

func (e *GormScoringEngine) QuestionsFor(ctx context.Context, examID uuid.UUID) ([]QuestionRules, error) {
	var qs []examModel.ExamQuestionModel
	err := e.DB.WithContext(ctx).
		Where("exam_question_exam_id = ?", examID).
		Order("exam_question_created_at ASC").
		Find(&qs).Error
	if err != nil {
		return nil, err
	}

	out := make([]QuestionRules, 0, len(qs))
	for i := range qs {
		out = append(out, rulesFromModel(&qs[i]))
	}
	return out, nil
}

// partialRuleSet: skema partial marking milik engine.
// Jawaban multi-pilihan dipisah koma; subset benar → fraksi nilai positif.
type partialRuleSet struct {
	Enabled bool `json:"enabled"`
}

func (e *GormScoringEngine) Score(rules *QuestionRules, userAnswer string) QuestionScore {
	ans := strings.TrimSpace(userAnswer)
	if ans == "" {
		return QuestionScore{Status: "unattempted", Marks: 0}
	}

	correct := strings.TrimSpace(rules.CorrectAnswer)
	if strings.EqualFold(ans, correct) {
		return QuestionScore{Status: "correct", Marks: rules.PositiveMarks}
	}

	// Partial marking hanya kalau diaktifkan di rules soal
	var pr partialRuleSet
	if len(rules.PartialRules) > 0 {
		_ = json.Unmarshal(rules.PartialRules, &pr)
	}
	if pr.Enabled {
		correctSet := splitAnswerSet(correct)
		givenSet := splitAnswerSet(ans)
		if len(correctSet) > 1 && len(givenSet) > 0 {
			hit := 0
			for g := range givenSet {
				if _, ok := correctSet[g]; !ok {
					// opsi salah ikut dipilih → gugur ke incorrect
					return QuestionScore{Status: "incorrect", Marks: -rules.NegativeMarks}
				}
				hit++
			}
			if hit == len(correctSet) {
				return QuestionScore{Status: "correct", Marks: rules.PositiveMarks}
			}
			frac := float64(hit) / float64(len(correctSet))
			return QuestionScore{Status: "partially_correct", Marks: rules.PositiveMarks * frac}
		}
	}

	return QuestionScore{Status: "incorrect", Marks: -rules.NegativeMarks}
}

func rulesFromModel(q *examModel.ExamQuestionModel) QuestionRules {
	return QuestionRules{
		QuestionID:    q.ExamQuestionID,
		ExamID:        q.ExamQuestionExamID,
		Subject:       q.ExamQuestionSubject,
		CorrectAnswer: q.ExamQuestionCorrectAnswer,
		PositiveMarks: q.ExamQuestionPositiveMarks,
		NegativeMarks: q.ExamQuestionNegativeMarks,
		PartialRules:  json.RawMessage(q.ExamQuestionPartialRules),
		Version:       q.ExamQuestionVersion,
	}
}

func splitAnswerSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, part := range strings.Split(s, ",") {
		p := strings.ToUpper(strings.TrimSpace(part))
		if p != "" {
			out[p] = struct{}{}
		}
	}
	return out
}
