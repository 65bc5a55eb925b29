package models

import (
	"fmt"
	"strings"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
)

// TrueFalseOptions is the fixed option pair of every true_false question.
// Index 0 is "True", index 1 is "False".
var TrueFalseOptions = []string{"True", "False"}

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// DefaultTimeLimit is the per-question countdown used when the generator
// does not supply one.
func (d Difficulty) DefaultTimeLimit() int {
	switch d {
	case Easy:
		return 30
	case Hard:
		return 60
	default:
		return 45
	}
}

func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return Medium, nil
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// TypeFilter restricts which question variants a quiz may contain.
type TypeFilter string

const (
	OnlyMultipleChoice TypeFilter = "mcq"
	OnlyTrueFalse      TypeFilter = "true_false"
	BothTypes          TypeFilter = "both"
)

func ParseTypeFilter(s string) (TypeFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return BothTypes, nil
	case "mcq", "multiple_choice":
		return OnlyMultipleChoice, nil
	case "true_false", "truefalse", "tf":
		return OnlyTrueFalse, nil
	case "both", "mixed":
		return BothTypes, nil
	}
	return "", fmt.Errorf("unknown question type filter %q", s)
}

func (f TypeFilter) Allows(t QuestionType) bool {
	switch f {
	case OnlyMultipleChoice:
		return t == MultipleChoice
	case OnlyTrueFalse:
		return t == TrueFalse
	default:
		return true
	}
}

type Question struct {
	ID               int          `json:"id"`
	Type             QuestionType `json:"type"`
	Question         string       `json:"question"`
	Options          []string     `json:"options"`
	Answer           int          `json:"answer"`
	Explanation      string       `json:"explanation,omitempty"`
	TimeLimitSeconds int          `json:"timeLimitSeconds"`
}

// Valid reports whether the answer indexes into the options and the
// variant-specific shape holds.
func (q Question) Valid() bool {
	if q.TimeLimitSeconds <= 0 || strings.TrimSpace(q.Question) == "" {
		return false
	}
	switch q.Type {
	case TrueFalse:
		return len(q.Options) == 2 && (q.Answer == 0 || q.Answer == 1)
	case MultipleChoice:
		return len(q.Options) >= 2 && q.Answer >= 0 && q.Answer < len(q.Options)
	}
	return false
}

type Quiz struct {
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions"`
}

type GenerateQuizResponse struct {
	Quiz *Quiz `json:"quiz"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
