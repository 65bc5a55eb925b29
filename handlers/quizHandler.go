package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"pdfquiz/apierr"
	"pdfquiz/logger"
	"pdfquiz/models"
	"pdfquiz/services/quiz"

	"github.com/gorilla/mux"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

// QuizGenerator is the part of quiz.Service the handler depends on.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, pdfData []byte, opts quiz.Options) (*models.Quiz, error)
}

type QuizHandler struct {
	service        QuizGenerator
	maxUploadBytes int64
	log            *logger.Logger
}

func NewQuizHandler(service QuizGenerator, maxUploadBytes int64, log *logger.Logger) *QuizHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &QuizHandler{service: service, maxUploadBytes: maxUploadBytes, log: log}
}

func (h *QuizHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/generate-quiz", h.GenerateQuiz).Methods(http.MethodPost)
	router.HandleFunc("/api/generate-quiz", h.GenerateQuiz).Methods(http.MethodPost)
}

func (h *QuizHandler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	log := h.log.With("request_id", RequestIDFrom(r.Context()))
	log.Info("Received quiz generation request")

	data, apiErr := h.readUpload(w, r)
	if apiErr != nil {
		log.Warn("Rejected quiz generation request", "code", apiErr.Code, "error", apiErr)
		writeErrorResponse(w, apiErr)
		return
	}

	opts, apiErr := parseQuizOptions(r)
	if apiErr != nil {
		log.Warn("Rejected quiz generation request", "code", apiErr.Code, "error", apiErr)
		writeErrorResponse(w, apiErr)
		return
	}

	result, err := h.service.GenerateQuiz(r.Context(), data, opts)
	if err != nil {
		apiErr := classify(err)
		log.Error("Quiz generation failed", "code", apiErr.Code, "error", err)
		writeErrorResponse(w, apiErr)
		return
	}

	log.Info("Quiz generation completed successfully", "questions", len(result.Questions))
	writeJSONResponse(w, http.StatusOK, models.GenerateQuizResponse{Quiz: result})
}

func (h *QuizHandler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, *apierr.Error) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest,
				fmt.Sprintf("Upload exceeds the %d MB limit", h.maxUploadBytes>>20), err)
		case errors.Is(err, http.ErrNotMultipart):
			return nil, apierr.New(http.StatusBadRequest, apierr.CodeMissingFile, "A PDF file is required", err)
		default:
			return nil, apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest, "Malformed multipart form", err)
		}
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, apierr.New(http.StatusBadRequest, apierr.CodeMissingFile, "A PDF file is required", err)
		}
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest, "Could not read uploaded file", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest, "Could not read uploaded file", err)
	}
	if len(data) == 0 {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeMissingFile, "Uploaded file is empty", nil)
	}
	return data, nil
}

// parseQuizOptions reads the optional form fields. Absent fields select
// defaults; present but unrecognized values are rejected.
func parseQuizOptions(r *http.Request) (quiz.Options, *apierr.Error) {
	difficulty, err := models.ParseDifficulty(r.FormValue("difficulty"))
	if err != nil {
		return quiz.Options{}, apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest,
			"difficulty must be one of easy, medium or hard", err)
	}

	rawTypes := r.FormValue("types")
	if strings.TrimSpace(rawTypes) == "" {
		rawTypes = r.FormValue("quizType")
	}
	types, err := models.ParseTypeFilter(rawTypes)
	if err != nil {
		return quiz.Options{}, apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest,
			"types must be one of mcq, true_false or both", err)
	}

	numQuestions := quiz.DefaultNumQuestions
	if raw := strings.TrimSpace(r.FormValue("numQuestions")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return quiz.Options{}, apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest,
				"numQuestions must be a positive integer", err)
		}
		numQuestions = n
	}

	return quiz.Options{
		Difficulty:   difficulty,
		NumQuestions: numQuestions,
		Types:        types,
	}, nil
}

// classify maps a pipeline failure to the generic message returned to the
// caller. The cause stays in Err for logging only.
func classify(err error) *apierr.Error {
	switch {
	case errors.Is(err, quiz.ErrInvalidOptions):
		return apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest, "Invalid quiz options", err)
	case errors.Is(err, quiz.ErrUnreadablePDF):
		return apierr.New(http.StatusInternalServerError, apierr.CodeUnreadablePDF,
			"Could not extract text from the uploaded PDF", err)
	case errors.Is(err, quiz.ErrUpstreamUnavailable):
		return apierr.New(http.StatusInternalServerError, apierr.CodeUpstreamUnavailable,
			"The quiz generator is unavailable, please try again", err)
	case errors.Is(err, quiz.ErrMalformedResponse):
		return apierr.New(http.StatusInternalServerError, apierr.CodeMalformedResponse,
			"The quiz generator returned an unreadable response", err)
	case errors.Is(err, quiz.ErrEmptyQuiz):
		return apierr.New(http.StatusInternalServerError, apierr.CodeEmptyQuiz,
			"No valid questions could be generated from this document", err)
	default:
		return apierr.New(http.StatusInternalServerError, apierr.CodeInternal, "Internal server error", err)
	}
}
