package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"pdfquiz/models"
)

func TestNewGenerateRequestMissingFile(t *testing.T) {
	_, err := NewGenerateRequest(context.Background(), "http://localhost", Request{FileName: "a.pdf"})
	if !errors.Is(err, ErrMissingFile) {
		t.Fatalf("error = %v, want ErrMissingFile", err)
	}
}

func TestNewGenerateRequestFields(t *testing.T) {
	req, err := NewGenerateRequest(context.Background(), "http://quiz.local/", Request{
		FileName:     "/tmp/notes/biology.pdf",
		File:         []byte("%PDF-1.7"),
		Difficulty:   models.Hard,
		NumQuestions: 12,
		Types:        models.OnlyTrueFalse,
	})
	if err != nil {
		t.Fatalf("NewGenerateRequest() error = %v", err)
	}

	if req.Method != http.MethodPost {
		t.Errorf("method = %s", req.Method)
	}
	if got := req.URL.String(); got != "http://quiz.local/generate-quiz" {
		t.Errorf("url = %s", got)
	}
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}

	file, header, err := req.FormFile("file")
	if err != nil {
		t.Fatalf("FormFile: %v", err)
	}
	defer file.Close()
	data, _ := io.ReadAll(file)
	if string(data) != "%PDF-1.7" {
		t.Errorf("file content = %q", data)
	}
	if header.Filename != "biology.pdf" {
		t.Errorf("filename = %q, want biology.pdf", header.Filename)
	}

	want := map[string]string{"difficulty": "hard", "numQuestions": "12", "types": "true_false"}
	for k, v := range want {
		if got := req.FormValue(k); got != v {
			t.Errorf("field %s = %q, want %q", k, got, v)
		}
	}
}

func TestNewGenerateRequestOmitsUnsetFields(t *testing.T) {
	req, err := NewGenerateRequest(context.Background(), "http://quiz.local", Request{File: []byte("%PDF-")})
	if err != nil {
		t.Fatalf("NewGenerateRequest() error = %v", err)
	}
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}
	for _, k := range []string{"difficulty", "numQuestions", "types"} {
		if _, ok := req.MultipartForm.Value[k]; ok {
			t.Errorf("field %s should be omitted", k)
		}
	}
	if _, header, _ := req.FormFile("file"); header == nil || header.Filename != "document.pdf" {
		t.Errorf("expected default filename document.pdf")
	}
}

func TestClientGenerateQuiz(t *testing.T) {
	quiz := &models.Quiz{
		Title: "Cells",
		Questions: []models.Question{
			{ID: 1, Type: models.TrueFalse, Question: "Q", Options: []string{"True", "False"}, Answer: 1, TimeLimitSeconds: 30},
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate-quiz" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.GenerateQuizResponse{Quiz: quiz})
	}))
	defer srv.Close()

	got, err := New(srv.URL).GenerateQuiz(context.Background(), Request{File: []byte("%PDF-")})
	if err != nil {
		t.Fatalf("GenerateQuiz() error = %v", err)
	}
	if got.Title != "Cells" || len(got.Questions) != 1 || got.Questions[0].Answer != 1 {
		t.Errorf("quiz = %+v", got)
	}
}

func TestClientGenerateQuizErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "json error envelope",
			status:      http.StatusInternalServerError,
			body:        `{"error":"The quiz generator is unavailable, please try again","code":"upstream_unavailable"}`,
			wantStatus:  500,
			wantCode:    "upstream_unavailable",
			wantMessage: "The quiz generator is unavailable, please try again",
		},
		{
			name:        "plain text body",
			status:      http.StatusBadGateway,
			body:        "bad gateway",
			wantStatus:  502,
			wantMessage: "Bad Gateway",
		},
		{
			name:        "bad request",
			status:      http.StatusBadRequest,
			body:        `{"error":"A PDF file is required","code":"missing_file"}`,
			wantStatus:  400,
			wantCode:    "missing_file",
			wantMessage: "A PDF file is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := New(srv.URL).GenerateQuiz(context.Background(), Request{File: []byte("%PDF-")})
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.wantStatus || apiErr.Code != tt.wantCode || apiErr.Message != tt.wantMessage {
				t.Errorf("APIError = %+v", apiErr)
			}
		})
	}
}

func TestClientMissingFileMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := New(srv.URL).GenerateQuiz(context.Background(), Request{})
	if !errors.Is(err, ErrMissingFile) {
		t.Fatalf("error = %v, want ErrMissingFile", err)
	}
	if calls.Load() != 0 {
		t.Errorf("server received %d requests, want 0", calls.Load())
	}
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(srv.URL, WithTimeout(50*time.Millisecond)).GenerateQuiz(context.Background(), Request{File: []byte("%PDF-")})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("timeout should not be reported as an API error: %v", err)
	}
}

func TestClientRejectsInvalidQuiz(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no quiz", body: `{}`},
		{name: "empty quiz", body: `{"quiz":{"questions":[]}}`},
		{name: "answer out of range", body: `{"quiz":{"questions":[{"id":1,"type":"multiple_choice","question":"Q","options":["a","b"],"answer":7,"timeLimitSeconds":30}]}}`},
		{name: "negative answer", body: `{"quiz":{"questions":[{"id":1,"type":"true_false","question":"Q","options":["True","False"],"answer":-1,"timeLimitSeconds":30}]}}`},
		{name: "no time limit", body: `{"quiz":{"questions":[{"id":1,"type":"true_false","question":"Q","options":["True","False"],"answer":0}]}}`},
		{name: "unknown type", body: `{"quiz":{"questions":[{"id":1,"type":"essay","question":"Q","options":["a","b"],"answer":0,"timeLimitSeconds":30}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			quiz, err := New(srv.URL).GenerateQuiz(context.Background(), Request{File: []byte("%PDF-")})
			if !errors.Is(err, ErrInvalidQuiz) {
				t.Errorf("error = %v, want %v", err, ErrInvalidQuiz)
			}
			if quiz != nil {
				t.Errorf("quiz = %+v, want nil", quiz)
			}
		})
	}
}
