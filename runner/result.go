package runner

import (
	"pdfquiz/models"

	"github.com/samber/lo"
)

// Skipped marks a question left without an answer, by skip or timeout.
const Skipped = -1

// Answer is what was recorded for one question.
type Answer struct {
	Option   int
	TimedOut bool
	// ElapsedSeconds is meaningful only when HasElapsed is set; a manual
	// skip records no elapsed time.
	ElapsedSeconds int
	HasElapsed     bool
}

func (a Answer) Skipped() bool { return a.Option == Skipped }

// Attempt is the ephemeral record of one pass through a quiz.
type Attempt struct {
	CurrentIndex int
	Answers      map[int]Answer
}

func newAttempt() Attempt {
	return Attempt{Answers: make(map[int]Answer)}
}

func (a Attempt) clone() Attempt {
	out := Attempt{CurrentIndex: a.CurrentIndex, Answers: make(map[int]Answer, len(a.Answers))}
	for k, v := range a.Answers {
		out.Answers[k] = v
	}
	return out
}

// QuestionResult is one row of the review screen.
type QuestionResult struct {
	Question models.Question
	Answer   Answer
	Correct  bool
}

// ChosenText is the selected option text, or "" when skipped.
func (q QuestionResult) ChosenText() string {
	if q.Answer.Skipped() || q.Answer.Option >= len(q.Question.Options) {
		return ""
	}
	return q.Question.Options[q.Answer.Option]
}

func (q QuestionResult) CorrectText() string {
	if q.Question.Answer < 0 || q.Question.Answer >= len(q.Question.Options) {
		return ""
	}
	return q.Question.Options[q.Question.Answer]
}

type Result struct {
	Correct   int
	Total     int
	Questions []QuestionResult
}

// Score is the fraction of questions answered correctly.
func (r Result) Score() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Total)
}

// score grades every question in quiz order. Skipped and unanswered
// questions are never correct.
func score(quiz *models.Quiz, attempt Attempt) *Result {
	rows := lo.Map(quiz.Questions, func(q models.Question, i int) QuestionResult {
		ans, ok := attempt.Answers[i]
		if !ok {
			ans = Answer{Option: Skipped}
		}
		return QuestionResult{
			Question: q,
			Answer:   ans,
			Correct:  !ans.Skipped() && ans.Option == q.Answer,
		}
	})
	return &Result{
		Correct:   lo.CountBy(rows, func(r QuestionResult) bool { return r.Correct }),
		Total:     len(rows),
		Questions: rows,
	}
}
