// Package client submits quiz generation requests to the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pdfquiz/models"
)

const (
	DefaultTimeout = 3 * time.Minute
	generatePath   = "/generate-quiz"
	// maxErrorBody bounds how much of a non-2xx body is read for the message.
	maxErrorBody = 64 << 10
)

var (
	// ErrMissingFile is returned before any network call when no PDF was chosen.
	ErrMissingFile = errors.New("please select a PDF file")
	ErrInvalidQuiz = errors.New("server returned an invalid quiz")
)

// Request is the user's quiz configuration.
type Request struct {
	FileName     string
	File         []byte
	Difficulty   models.Difficulty
	NumQuestions int
	Types        models.TypeFilter
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client, including its timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateQuiz uploads the PDF and returns the generated quiz.
func (c *Client) GenerateQuiz(ctx context.Context, req Request) (*models.Quiz, error) {
	httpReq, err := NewGenerateRequest(ctx, c.baseURL, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach quiz server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeAPIError(resp)
	}

	var body models.GenerateQuizResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode quiz response: %w", err)
	}
	if err := validateQuiz(body.Quiz); err != nil {
		return nil, err
	}
	return body.Quiz, nil
}

// validateQuiz rejects quizzes the runner cannot present or score.
func validateQuiz(q *models.Quiz) error {
	if q == nil || len(q.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidQuiz)
	}
	for i, question := range q.Questions {
		if !question.Valid() {
			return fmt.Errorf("%w: question %d is malformed", ErrInvalidQuiz, i+1)
		}
	}
	return nil
}

// NewGenerateRequest packages req as a multipart POST to baseURL. It fails
// with ErrMissingFile when no file content is present.
func NewGenerateRequest(ctx context.Context, baseURL string, req Request) (*http.Request, error) {
	if len(req.File) == 0 {
		return nil, ErrMissingFile
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	name := filepath.Base(req.FileName)
	if req.FileName == "" {
		name = "document.pdf"
	}
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fw.Write(req.File); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}

	fields := []struct{ key, value string }{
		{"difficulty", string(req.Difficulty)},
		{"types", string(req.Types)},
	}
	if req.NumQuestions > 0 {
		fields = append(fields, struct{ key, value string }{"numQuestions", strconv.Itoa(req.NumQuestions)})
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := mw.WriteField(f.key, f.value); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", f.key, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+generatePath, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")
	return httpReq, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body models.ErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Error
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
