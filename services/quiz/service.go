package quiz

import (
	"fmt"

	"pdfquiz/logger"
	"pdfquiz/models"
	"pdfquiz/services/llm"
	"pdfquiz/services/pdftext"

	"github.com/samber/lo"
)

const (
	DefaultNumQuestions   = 10
	DefaultMaxQuestions   = 50
	DefaultMaxSourceChars = 200000
)

// Options are the caller-chosen generation parameters. Zero values select
// the defaults.
type Options struct {
	Difficulty   models.Difficulty
	NumQuestions int
	Types        models.TypeFilter
}

// Limits bound the work done per request.
type Limits struct {
	MaxSourceChars int
	MaxQuestions   int
}

type Service struct {
	extractor pdftext.Extractor
	llm       llm.Generator
	limits    Limits
	log       *logger.Logger
}

func NewService(extractor pdftext.Extractor, generator llm.Generator, limits Limits, log *logger.Logger) *Service {
	if limits.MaxSourceChars <= 0 {
		limits.MaxSourceChars = DefaultMaxSourceChars
	}
	if limits.MaxQuestions <= 0 {
		limits.MaxQuestions = DefaultMaxQuestions
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		extractor: extractor,
		llm:       generator,
		limits:    limits,
		log:       log,
	}
}

// resolveOptions fills defaults, rejects unknown values and clamps the
// question count to the configured maximum.
func (s *Service) resolveOptions(opts Options) (Options, error) {
	difficulty, err := models.ParseDifficulty(string(opts.Difficulty))
	if err != nil {
		return opts, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	opts.Difficulty = difficulty

	types, err := models.ParseTypeFilter(string(opts.Types))
	if err != nil {
		return opts, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	opts.Types = types

	if opts.NumQuestions == 0 {
		opts.NumQuestions = DefaultNumQuestions
	}
	if opts.NumQuestions < 0 {
		return opts, fmt.Errorf("%w: numQuestions must be positive, got %d", ErrInvalidOptions, opts.NumQuestions)
	}
	opts.NumQuestions = lo.Clamp(opts.NumQuestions, 1, s.limits.MaxQuestions)
	return opts, nil
}
