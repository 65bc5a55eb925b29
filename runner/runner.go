// Package runner drives one user through a generated quiz: configuration,
// the generation request, timed question presentation and the review.
//
// All transitions are serialized by a mutex. Each question owns exactly one
// countdown goroutine; leaving the question by any path stops it and bumps a
// generation counter so a tick already in flight is discarded.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pdfquiz/client"
	"pdfquiz/logger"
	"pdfquiz/models"
)

type State int

const (
	Idle State = iota
	Configuring
	Requesting
	Presenting
	Reviewing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Configuring:
		return "configuring"
	case Requesting:
		return "requesting"
	case Presenting:
		return "presenting"
	case Reviewing:
		return "reviewing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	ErrMissingFile       = client.ErrMissingFile
	ErrInvalidTransition = errors.New("action not allowed in current state")
	ErrInvalidOption     = errors.New("option out of range")
)

// Generator is satisfied by *client.Client.
type Generator interface {
	GenerateQuiz(ctx context.Context, req client.Request) (*models.Quiz, error)
}

type EventKind int

const (
	// StateChanged fires on every transition, including moving to the next
	// question.
	StateChanged EventKind = iota
	// Tick fires once per elapsed countdown second.
	Tick
	// Failed fires when a submit is rejected or the generation call fails.
	Failed
)

type Event struct {
	Kind      EventKind
	State     State
	Index     int
	Remaining int
	Err       error
}

// Snapshot is a copy of the runner's observable state.
type Snapshot struct {
	State     State
	Config    client.Request
	Quiz      *models.Quiz
	Attempt   Attempt
	Remaining int
	Err       error
}

// Current returns the question being presented.
func (s Snapshot) Current() (models.Question, bool) {
	if s.State != Presenting || s.Quiz == nil || s.Attempt.CurrentIndex >= len(s.Quiz.Questions) {
		return models.Question{}, false
	}
	return s.Quiz.Questions[s.Attempt.CurrentIndex], true
}

type Runner struct {
	gen      Generator
	clock    Clock
	listener func(Event)
	log      *logger.Logger

	mu        sync.Mutex
	state     State
	config    client.Request
	quiz      *models.Quiz
	attempt   Attempt
	result    *Result
	lastErr   error
	remaining int

	timerGen  uint64
	timerStop chan struct{}
	ticker    Ticker
}

type Option func(*Runner)

func WithClock(c Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithListener registers fn to observe events. fn runs with the runner's lock
// held, in transition order, and must not call back into the runner.
func WithListener(fn func(Event)) Option {
	return func(r *Runner) { r.listener = fn }
}

func WithLogger(log *logger.Logger) Option {
	return func(r *Runner) { r.log = log }
}

func New(gen Generator, opts ...Option) *Runner {
	r := &Runner{
		gen:     gen,
		clock:   SystemClock{},
		log:     logger.Nop(),
		state:   Idle,
		attempt: newAttempt(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Configure stores the quiz settings and moves to Configuring.
func (r *Runner) Configure(cfg client.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Idle && r.state != Configuring {
		return fmt.Errorf("%w: configure while %s", ErrInvalidTransition, r.state)
	}
	r.config = cfg
	r.setState(Configuring)
	return nil
}

// Submit requests a quiz for the stored configuration. It blocks for the
// duration of the generation call. Without a file it fails with
// ErrMissingFile and makes no call. On failure the runner returns to
// Configuring with the error recorded and the previous quiz untouched.
func (r *Runner) Submit(ctx context.Context) error {
	r.mu.Lock()
	if r.state != Configuring {
		state := r.state
		r.mu.Unlock()
		return fmt.Errorf("%w: submit while %s", ErrInvalidTransition, state)
	}
	if len(r.config.File) == 0 {
		r.fail(ErrMissingFile)
		r.mu.Unlock()
		return ErrMissingFile
	}
	cfg := r.config
	r.lastErr = nil
	r.setState(Requesting)
	r.mu.Unlock()

	quiz, err := r.gen.GenerateQuiz(ctx, cfg)
	if err == nil && (quiz == nil || len(quiz.Questions) == 0) {
		err = errors.New("received a quiz without questions")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.log.Warn("Quiz generation failed", "error", err)
		r.setState(Configuring)
		r.fail(err)
		return err
	}

	r.quiz = quiz
	r.attempt = newAttempt()
	r.result = nil
	r.log.Info("Quiz loaded", "questions", len(quiz.Questions))
	r.enterQuestion(0)
	return nil
}

// Answer records option for the current question and advances.
func (r *Runner) Answer(option int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Presenting {
		return fmt.Errorf("%w: answer while %s", ErrInvalidTransition, r.state)
	}
	q := r.quiz.Questions[r.attempt.CurrentIndex]
	if option < 0 || option >= len(q.Options) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidOption, option, len(q.Options))
	}

	r.stopTimer()
	r.attempt.Answers[r.attempt.CurrentIndex] = Answer{
		Option:         option,
		ElapsedSeconds: q.TimeLimitSeconds - r.remaining,
		HasElapsed:     true,
	}
	r.advance()
	return nil
}

// Skip leaves the current question unanswered and advances.
func (r *Runner) Skip() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Presenting {
		return fmt.Errorf("%w: skip while %s", ErrInvalidTransition, r.state)
	}
	r.stopTimer()
	r.attempt.Answers[r.attempt.CurrentIndex] = Answer{Option: Skipped}
	r.advance()
	return nil
}

// Restart discards the quiz and attempt and returns to Configuring. The
// configuration is kept so the user can submit again.
func (r *Runner) Restart() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Reviewing && r.state != Presenting {
		return fmt.Errorf("%w: restart while %s", ErrInvalidTransition, r.state)
	}
	r.stopTimer()
	r.quiz = nil
	r.attempt = newAttempt()
	r.result = nil
	r.lastErr = nil
	r.remaining = 0
	r.setState(Configuring)
	return nil
}

// Result returns the graded attempt once the runner is Reviewing.
func (r *Runner) Result() (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Reviewing || r.result == nil {
		return nil, fmt.Errorf("%w: result while %s", ErrInvalidTransition, r.state)
	}
	res := *r.result
	return &res, nil
}

func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		State:     r.state,
		Config:    r.config,
		Quiz:      r.quiz,
		Attempt:   r.attempt.clone(),
		Remaining: r.remaining,
		Err:       r.lastErr,
	}
}

// Close stops any running countdown.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimer()
}

// enterQuestion presents question i and starts its countdown. Caller holds mu.
func (r *Runner) enterQuestion(i int) {
	r.stopTimer()

	r.attempt.CurrentIndex = i
	r.remaining = r.quiz.Questions[i].TimeLimitSeconds

	gen := r.timerGen
	stop := make(chan struct{})
	ticker := r.clock.NewTicker(time.Second)
	r.timerStop = stop
	r.ticker = ticker
	go r.countdown(gen, ticker, stop)

	r.setState(Presenting)
}

func (r *Runner) countdown(gen uint64, ticker Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			if !r.tick(gen) {
				return
			}
		}
	}
}

// tick applies one elapsed second for the countdown started under gen. It
// reports whether that countdown is still live.
func (r *Runner) tick(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.timerGen || r.state != Presenting {
		return false
	}
	r.remaining--
	r.emit(Event{Kind: Tick, State: r.state, Index: r.attempt.CurrentIndex, Remaining: r.remaining})
	if r.remaining > 0 {
		return true
	}

	q := r.quiz.Questions[r.attempt.CurrentIndex]
	r.stopTimer()
	r.attempt.Answers[r.attempt.CurrentIndex] = Answer{
		Option:         Skipped,
		TimedOut:       true,
		ElapsedSeconds: q.TimeLimitSeconds,
		HasElapsed:     true,
	}
	r.advance()
	return false
}

// advance moves past the current question. Caller holds mu and has already
// stopped the timer.
func (r *Runner) advance() {
	next := r.attempt.CurrentIndex + 1
	if next < len(r.quiz.Questions) {
		r.enterQuestion(next)
		return
	}
	r.remaining = 0
	r.result = score(r.quiz, r.attempt)
	r.log.Info("Quiz finished", "correct", r.result.Correct, "total", r.result.Total)
	r.setState(Reviewing)
}

// stopTimer cancels the current countdown, if any, and invalidates ticks
// already in flight. Caller holds mu.
func (r *Runner) stopTimer() {
	r.timerGen++
	if r.timerStop != nil {
		close(r.timerStop)
		r.timerStop = nil
	}
	if r.ticker != nil {
		r.ticker.Stop()
		r.ticker = nil
	}
}

func (r *Runner) setState(s State) {
	r.state = s
	r.emit(Event{Kind: StateChanged, State: s, Index: r.attempt.CurrentIndex, Remaining: r.remaining})
}

func (r *Runner) fail(err error) {
	r.lastErr = err
	r.emit(Event{Kind: Failed, State: r.state, Err: err})
}

func (r *Runner) emit(e Event) {
	if r.listener != nil {
		r.listener(e)
	}
}
