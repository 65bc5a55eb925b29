package quiz

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"pdfquiz/models"
)

// maxLoggedResponse caps how much raw model output is logged on parse failure.
const maxLoggedResponse = 500

// GenerateQuiz runs the full pipeline for one uploaded document: text
// extraction, prompt construction, one upstream call (with the generator's
// own retries), JSON extraction and normalization. Every failure wraps one of
// the package's Err* categories.
func (s *Service) GenerateQuiz(ctx context.Context, pdfData []byte, opts Options) (*models.Quiz, error) {
	opts, err := s.resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	log := s.log.With(
		"difficulty", string(opts.Difficulty),
		"num_questions", opts.NumQuestions,
		"types", string(opts.Types),
	)

	text, err := s.extractor.ExtractText(ctx, pdfData)
	if err != nil {
		log.Warn("PDF text extraction failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnreadablePDF, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: document contains no text", ErrUnreadablePDF)
	}

	source := truncateRunes(text, s.limits.MaxSourceChars)
	log.Debug("Extracted document text",
		"chars", utf8.RuneCountInString(text),
		"sent_chars", utf8.RuneCountInString(source),
	)

	prompt := BuildPrompt(source, opts)

	log.Info("Calling LLM for quiz generation")
	completion, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		log.Error("Failed to generate LLM response", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	payload, err := ExtractJSON(completion)
	if err != nil {
		log.Warn("No JSON payload in LLM response", "error", err, "response", preview(completion))
		return nil, err
	}
	title, items, err := decodeQuiz(payload)
	if err != nil {
		log.Warn("Unexpected LLM response shape", "error", err, "response", preview(completion))
		return nil, err
	}

	quiz, dropped := normalize(title, items, opts)
	if len(quiz.Questions) == 0 {
		log.Warn("LLM response contained no usable questions", "received", len(items))
		return nil, fmt.Errorf("%w: %d questions received, none usable", ErrEmptyQuiz, len(items))
	}

	log.Info("Successfully generated quiz",
		"questions", len(quiz.Questions),
		"dropped", dropped,
	)
	return quiz, nil
}

// truncateRunes returns at most limit runes of s without splitting a
// multi-byte character.
func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

func preview(s string) string {
	return truncateRunes(s, maxLoggedResponse)
}
