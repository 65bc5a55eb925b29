package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pdfquiz/apierr"
	"pdfquiz/logger"
	"pdfquiz/models"
	"pdfquiz/services/quiz"

	"github.com/gorilla/mux"
)

type fakeQuizService struct {
	quiz  *models.Quiz
	err   error
	calls int
	data  []byte
	opts  quiz.Options
}

func (f *fakeQuizService) GenerateQuiz(ctx context.Context, pdfData []byte, opts quiz.Options) (*models.Quiz, error) {
	f.calls++
	f.data = pdfData
	f.opts = opts
	return f.quiz, f.err
}

func sampleQuiz() *models.Quiz {
	return &models.Quiz{
		Title: "Sample",
		Questions: []models.Question{
			{ID: 1, Type: models.TrueFalse, Question: "Q1", Options: []string{"True", "False"}, Answer: 0, TimeLimitSeconds: 30},
		},
	}
}

func newTestRouter(svc QuizGenerator, maxUpload int64) http.Handler {
	router := mux.NewRouter()
	ConfigureErrorHandlers(router)
	NewQuizHandler(svc, maxUpload, logger.Nop()).RegisterRoutes(router)
	return RequestLogger(logger.Nop())(router)
}

func multipartRequest(t *testing.T, path string, file []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if file != nil {
		fw, err := mw.CreateFormFile("file", "doc.pdf")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		fw.Write(file)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body is not JSON: %v (%s)", err, rr.Body.String())
	}
	return resp
}

func TestGenerateQuizSuccess(t *testing.T) {
	for _, path := range []string{"/generate-quiz", "/api/generate-quiz"} {
		t.Run(path, func(t *testing.T) {
			svc := &fakeQuizService{quiz: sampleQuiz()}
			rr := httptest.NewRecorder()
			req := multipartRequest(t, path, []byte("%PDF-1.4 data"), map[string]string{
				"difficulty":   "hard",
				"numQuestions": "7",
				"types":        "mcq",
			})

			newTestRouter(svc, 1<<20).ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if rr.Header().Get(RequestIDHeader) == "" {
				t.Error("missing X-Request-ID header")
			}

			var resp models.GenerateQuizResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Quiz == nil || len(resp.Quiz.Questions) != 1 || resp.Quiz.Title != "Sample" {
				t.Errorf("unexpected quiz: %+v", resp.Quiz)
			}

			if string(svc.data) != "%PDF-1.4 data" {
				t.Errorf("service received %q", svc.data)
			}
			want := quiz.Options{Difficulty: models.Hard, NumQuestions: 7, Types: models.OnlyMultipleChoice}
			if svc.opts != want {
				t.Errorf("opts = %+v, want %+v", svc.opts, want)
			}
		})
	}
}

func TestGenerateQuizOptionDefaultsAndAliases(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   quiz.Options
	}{
		{
			name:   "all defaults",
			fields: nil,
			want:   quiz.Options{Difficulty: models.Medium, NumQuestions: quiz.DefaultNumQuestions, Types: models.BothTypes},
		},
		{
			name:   "quizType alias",
			fields: map[string]string{"quizType": "true_false"},
			want:   quiz.Options{Difficulty: models.Medium, NumQuestions: quiz.DefaultNumQuestions, Types: models.OnlyTrueFalse},
		},
		{
			name:   "types wins over alias",
			fields: map[string]string{"types": "both", "quizType": "mcq"},
			want:   quiz.Options{Difficulty: models.Medium, NumQuestions: quiz.DefaultNumQuestions, Types: models.BothTypes},
		},
		{
			name:   "case and whitespace",
			fields: map[string]string{"difficulty": " Easy ", "numQuestions": " 3 ", "types": "MULTIPLE_CHOICE"},
			want:   quiz.Options{Difficulty: models.Easy, NumQuestions: 3, Types: models.OnlyMultipleChoice},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeQuizService{quiz: sampleQuiz()}
			rr := httptest.NewRecorder()
			newTestRouter(svc, 1<<20).ServeHTTP(rr, multipartRequest(t, "/generate-quiz", []byte("%PDF-"), tt.fields))

			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
			}
			if svc.opts != tt.want {
				t.Errorf("opts = %+v, want %+v", svc.opts, tt.want)
			}
		})
	}
}

func TestGenerateQuizRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		wantCode string
	}{
		{
			name: "missing file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/generate-quiz", nil, map[string]string{"difficulty": "easy"})
			},
			wantCode: apierr.CodeMissingFile,
		},
		{
			name: "empty file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/generate-quiz", []byte{}, nil)
			},
			wantCode: apierr.CodeMissingFile,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/generate-quiz", strings.NewReader(`{"file":"x"}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			wantCode: apierr.CodeMissingFile,
		},
		{
			name: "unknown difficulty",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/generate-quiz", []byte("%PDF-"), map[string]string{"difficulty": "extreme"})
			},
			wantCode: apierr.CodeInvalidRequest,
		},
		{
			name: "unknown types",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/generate-quiz", []byte("%PDF-"), map[string]string{"types": "essay"})
			},
			wantCode: apierr.CodeInvalidRequest,
		},
		{
			name: "zero questions",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/generate-quiz", []byte("%PDF-"), map[string]string{"numQuestions": "0"})
			},
			wantCode: apierr.CodeInvalidRequest,
		},
		{
			name: "non-integer questions",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/generate-quiz", []byte("%PDF-"), map[string]string{"numQuestions": "2.5"})
			},
			wantCode: apierr.CodeInvalidRequest,
		},
		{
			name: "upload too large",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/generate-quiz", bytes.Repeat([]byte("x"), 4096), nil)
			},
			wantCode: apierr.CodeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeQuizService{quiz: sampleQuiz()}
			rr := httptest.NewRecorder()
			newTestRouter(svc, 1024).ServeHTTP(rr, tt.req(t))

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rr.Code, rr.Body.String())
			}
			if resp := decodeError(t, rr); resp.Code != tt.wantCode || resp.Error == "" {
				t.Errorf("error response = %+v, want code %q", resp, tt.wantCode)
			}
			if svc.calls != 0 {
				t.Errorf("service called %d times, want 0", svc.calls)
			}
		})
	}
}

func TestGenerateQuizMethodNotAllowed(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			svc := &fakeQuizService{quiz: sampleQuiz()}
			rr := httptest.NewRecorder()
			newTestRouter(svc, 1<<20).ServeHTTP(rr, httptest.NewRequest(method, "/generate-quiz", nil))

			if rr.Code != http.StatusMethodNotAllowed {
				t.Fatalf("status = %d, want 405", rr.Code)
			}
			if resp := decodeError(t, rr); resp.Code != apierr.CodeMethodNotAllowed {
				t.Errorf("code = %q, want %q", resp.Code, apierr.CodeMethodNotAllowed)
			}
			if svc.calls != 0 {
				t.Error("service must not be called")
			}
		})
	}
}

func TestGenerateQuizServiceErrors(t *testing.T) {
	rawModelOutput := `{"secret":"raw model output that must not leak"}`

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "unreadable", err: fmt.Errorf("%w: %w", quiz.ErrUnreadablePDF, fmt.Errorf("pdf reader: bad xref")), wantStatus: 500, wantCode: apierr.CodeUnreadablePDF},
		{name: "upstream", err: fmt.Errorf("%w: %w", quiz.ErrUpstreamUnavailable, fmt.Errorf("503")), wantStatus: 500, wantCode: apierr.CodeUpstreamUnavailable},
		{name: "malformed", err: fmt.Errorf("%w: %s", quiz.ErrMalformedResponse, rawModelOutput), wantStatus: 500, wantCode: apierr.CodeMalformedResponse},
		{name: "empty", err: fmt.Errorf("%w: 3 questions received", quiz.ErrEmptyQuiz), wantStatus: 500, wantCode: apierr.CodeEmptyQuiz},
		{name: "invalid options", err: fmt.Errorf("%w: bad", quiz.ErrInvalidOptions), wantStatus: 400, wantCode: apierr.CodeInvalidRequest},
		{name: "unknown", err: fmt.Errorf("something odd"), wantStatus: 500, wantCode: apierr.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeQuizService{err: tt.err}
			rr := httptest.NewRecorder()
			newTestRouter(svc, 1<<20).ServeHTTP(rr, multipartRequest(t, "/generate-quiz", []byte("%PDF-"), nil))

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			resp := decodeError(t, rr)
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
			if strings.Contains(rr.Body.String(), "raw model output") || strings.Contains(rr.Body.String(), "bad xref") {
				t.Errorf("response leaks internal detail: %s", rr.Body.String())
			}
		})
	}
}

func TestRequestLoggerKeepsInboundRequestID(t *testing.T) {
	var seen string
	h := RequestLogger(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if seen != "abc-123" {
		t.Errorf("context request id = %q, want abc-123", seen)
	}
	if got := rr.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("response request id = %q, want abc-123", got)
	}
	if rr.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rr.Code)
	}
}
