package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vytor/sandplay/internal/logger"
	"github.com/vytor/sandplay/internal/models"
)

// Client talks to a sandplay backend: the summary, feedback, score and
// sandbox analysis endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        logger.Default().WithPrefix("client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx reply. Code and Message come from the JSON error
// body when the server sent one.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("status %d: %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

type SaveResponse struct {
	Message string `json:"message"`
	RoundID int64  `json:"round_id"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// AnalyzeRequest is one sandbox image sent for analysis.
type AnalyzeRequest struct {
	Image    []byte
	Filename string
	UserID   string
	Prompt   string
	Items    []models.PlacedItem
}

func (c *Client) FetchSummary(ctx context.Context) (*models.AnalysisSummary, error) {
	var out models.AnalysisSummary
	if err := c.do(ctx, http.MethodGet, "/api/emotion_summary", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchFeedback(ctx context.Context) (*models.Feedback, error) {
	var out models.Feedback
	if err := c.do(ctx, http.MethodGet, "/get_feedback_all", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SaveRound(ctx context.Context, result models.RoundResult) (*SaveResponse, error) {
	body, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var out SaveResponse
	if err := c.do(ctx, http.MethodPost, "/save_score_table", bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitRound lets the client act as the quiz submitter.
func (c *Client) SubmitRound(ctx context.Context, result models.RoundResult) error {
	_, err := c.SaveRound(ctx, result)
	return err
}

func (c *Client) AnalyzeSandbox(ctx context.Context, req AnalyzeRequest) (*models.SandboxAnalysis, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	filename := req.Filename
	if filename == "" {
		filename = "sandbox.png"
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(req.Image); err != nil {
		return nil, err
	}
	if req.UserID != "" {
		_ = mw.WriteField("user_id", req.UserID)
	}
	if req.Prompt != "" {
		_ = mw.WriteField("prompt", req.Prompt)
	}
	if len(req.Items) > 0 {
		items, err := json.Marshal(req.Items)
		if err != nil {
			return nil, err
		}
		_ = mw.WriteField("placed_items", string(items))
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out models.SandboxAnalysis
	if err := c.do(ctx, http.MethodPost, "/analyze_sandbox/", &buf, mw.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	target, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx).WithPrefix("client").WithField("url", target)
	log.Debug("%s request", method)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		log.Error("failed to create request: %v", err)
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("request failed: %v", err)
		return err
	}
	defer resp.Body.Close()

	log.Debug("response received in %v, status=%d", time.Since(start), resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var payload struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Error
		}
		log.Error("request failed: status=%d, body=%s", resp.StatusCode, string(raw))
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Error("failed to decode response: %v", err)
		return err
	}
	return nil
}
