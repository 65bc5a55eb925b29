// Command quizcli generates a quiz from a PDF via the quiz server and runs it
// in the terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"pdfquiz/client"
	"pdfquiz/logger"
	"pdfquiz/models"
	"pdfquiz/runner"
)

func main() {
	defaultServer := os.Getenv("QUIZ_SERVER_URL")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}

	server := flag.String("server", defaultServer, "quiz server base URL (env QUIZ_SERVER_URL)")
	file := flag.String("file", "", "PDF to generate the quiz from")
	difficulty := flag.String("difficulty", "medium", "easy, medium or hard")
	numQuestions := flag.Int("n", quizDefaultQuestions, "number of questions")
	types := flag.String("types", "both", "mcq, true_false or both")
	timeout := flag.Duration("timeout", client.DefaultTimeout, "generation request timeout")
	verbose := flag.Bool("v", false, "log runner activity to stderr")
	flag.Parse()

	log := logger.Nop()
	if *verbose {
		l, err := logger.New("dev")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
			os.Exit(1)
		}
		log = l
		defer log.Sync()
	}

	req, err := buildRequest(*file, *difficulty, *numQuestions, *types)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := make(chan runner.Event, 64)
	r := runner.New(
		client.New(*server, client.WithTimeout(*timeout)),
		runner.WithListener(func(e runner.Event) { events <- e }),
		runner.WithLogger(log),
	)
	defer r.Close()

	if err := r.Configure(req); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	t := &terminal{out: os.Stdout, runner: r, events: events, input: readLines(os.Stdin)}
	if err := t.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

const quizDefaultQuestions = 10

func buildRequest(path, difficulty string, n int, types string) (client.Request, error) {
	d, err := models.ParseDifficulty(difficulty)
	if err != nil {
		return client.Request{}, err
	}
	tf, err := models.ParseTypeFilter(types)
	if err != nil {
		return client.Request{}, err
	}
	if n <= 0 {
		return client.Request{}, fmt.Errorf("-n must be positive, got %d", n)
	}

	req := client.Request{Difficulty: d, NumQuestions: n, Types: tf}
	if path == "" {
		// Submit reports the missing file without contacting the server.
		return req, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return client.Request{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	req.FileName = filepath.Base(path)
	req.File = data
	return req, nil
}

func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- strings.TrimSpace(sc.Text())
		}
	}()
	return lines
}

type terminal struct {
	out    io.Writer
	runner *runner.Runner
	events <-chan runner.Event
	input  <-chan string
}

func (t *terminal) run(ctx context.Context) error {
	for {
		if err := t.generate(ctx); err != nil {
			return err
		}

		if err := t.play(ctx); err != nil {
			return err
		}

		again, err := t.ask(ctx, "Take another quiz from the same file? [y/N] ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil || !strings.EqualFold(again, "y") {
			return err
		}
		if err := t.runner.Restart(); err != nil {
			return err
		}
	}
}

// generate submits the configuration until a quiz arrives. A failed request
// leaves the runner in Configuring, so the user can retry with the same file.
func (t *terminal) generate(ctx context.Context) error {
	for {
		t.drainEvents()
		fmt.Fprintln(t.out, "Generating quiz...")
		err := t.runner.Submit(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, runner.ErrMissingFile) || ctx.Err() != nil {
			return fmt.Errorf("could not generate quiz: %w", err)
		}

		fmt.Fprintf(t.out, "Could not generate quiz: %v\n", err)
		retry, askErr := t.ask(ctx, "Try again? [Y/n] ")
		if askErr != nil || strings.EqualFold(retry, "n") {
			return fmt.Errorf("could not generate quiz: %w", err)
		}
	}
}

// drainEvents drops events left over from a previous request or attempt.
func (t *terminal) drainEvents() {
	for {
		select {
		case <-t.events:
		default:
			return
		}
	}
}

// play handles one attempt until the runner reaches Reviewing. Questions are
// printed from the runner's Presenting events, including the first.
func (t *terminal) play(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case e := <-t.events:
			switch {
			case e.Kind == runner.StateChanged && e.State == runner.Presenting:
				t.showQuestion()
			case e.Kind == runner.StateChanged && e.State == runner.Reviewing:
				t.showReview()
				return nil
			case e.Kind == runner.Tick && (e.Remaining == 10 || (e.Remaining > 0 && e.Remaining <= 5)):
				fmt.Fprintf(t.out, "  %ds left\n", e.Remaining)
			case e.Kind == runner.Tick && e.Remaining == 0:
				fmt.Fprintln(t.out, "  Time's up!")
			}

		case line, ok := <-t.input:
			if !ok {
				return io.EOF
			}
			t.handleInput(line)
			if t.runner.State() == runner.Reviewing {
				t.showReview()
				return nil
			}
		}
	}
}

func (t *terminal) handleInput(line string) {
	if line == "" {
		return
	}
	if strings.EqualFold(line, "s") {
		if err := t.runner.Skip(); err != nil {
			fmt.Fprintln(t.out, err)
		}
		return
	}

	q, ok := t.runner.Snapshot().Current()
	if !ok {
		return
	}
	idx, ok := parseChoice(line, len(q.Options))
	if !ok {
		fmt.Fprintf(t.out, "Enter a letter A-%c, a number 1-%d, or s to skip\n", 'A'+len(q.Options)-1, len(q.Options))
		return
	}
	if err := t.runner.Answer(idx); err != nil {
		fmt.Fprintln(t.out, err)
	}
}

// parseChoice accepts a letter (A, b) or a 1-based number.
func parseChoice(s string, n int) (int, bool) {
	if i, err := strconv.Atoi(s); err == nil {
		return i - 1, i >= 1 && i <= n
	}
	if len(s) == 1 {
		c := strings.ToUpper(s)[0]
		i := int(c) - 'A'
		return i, i >= 0 && i < n
	}
	return 0, false
}

func (t *terminal) showQuestion() {
	snap := t.runner.Snapshot()
	q, ok := snap.Current()
	if !ok {
		return
	}
	fmt.Fprintf(t.out, "\nQuestion %d of %d (%ds)\n%s\n", snap.Attempt.CurrentIndex+1, len(snap.Quiz.Questions), snap.Remaining, q.Question)
	for i, opt := range q.Options {
		fmt.Fprintf(t.out, "  %c) %s\n", 'A'+i, opt)
	}
}

func (t *terminal) showReview() {
	res, err := t.runner.Result()
	if err != nil {
		fmt.Fprintln(t.out, err)
		return
	}

	fmt.Fprintf(t.out, "\nScore: %d/%d (%.0f%%)\n", res.Correct, res.Total, res.Score()*100)
	for i, row := range res.Questions {
		mark := "✗"
		if row.Correct {
			mark = "✓"
		}
		fmt.Fprintf(t.out, "\n%s %d. %s\n", mark, i+1, row.Question.Question)

		switch {
		case row.Answer.TimedOut:
			fmt.Fprintln(t.out, "   Your answer: (timed out)")
		case row.Answer.Skipped():
			fmt.Fprintln(t.out, "   Your answer: (skipped)")
		default:
			fmt.Fprintf(t.out, "   Your answer: %s (%ds)\n", row.ChosenText(), row.Answer.ElapsedSeconds)
		}
		if !row.Correct {
			fmt.Fprintf(t.out, "   Correct answer: %s\n", row.CorrectText())
		}
		if row.Question.Explanation != "" {
			fmt.Fprintf(t.out, "   %s\n", row.Question.Explanation)
		}
	}
}

func (t *terminal) ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-t.input:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}
