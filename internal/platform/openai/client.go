package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/playbook-backend/internal/platform/ctxutil"
	"github.com/yungbote/playbook-backend/internal/platform/httpx"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
)

// Client is the subset of the OpenAI API used by the generation layer.
type Client interface {
	// Structured output (json_schema, strict). Returns the raw output_text so callers can
	// validate and repair it themselves.
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) ([]byte, error)

	// Plain text (no schema).
	GenerateText(ctx context.Context, system string, user string) (string, error)

	// Stream output_text deltas. Returns the full text.
	StreamText(ctx context.Context, system string, user string, onDelta func(delta string)) (string, error)

	// Videos API: create a render job, read its status, and resolve where its bytes live.
	CreateVideo(ctx context.Context, prompt string) (VideoJob, error)
	GetVideo(ctx context.Context, id string) (VideoJob, error)
	VideoContentURL(id string) string
}

type VideoJob struct {
	ID       string
	Status   string
	Progress int
	Error    string
}

// Done reports whether the job reached a terminal state.
func (j VideoJob) Done() bool {
	switch strings.ToLower(strings.TrimSpace(j.Status)) {
	case "completed", "succeeded", "failed", "canceled", "cancelled":
		return true
	}
	return false
}

// Failed reports a terminal failure.
func (j VideoJob) Failed() bool {
	switch strings.ToLower(strings.TrimSpace(j.Status)) {
	case "failed", "canceled", "cancelled":
		return true
	}
	return false
}

type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	VideoModel   string
	VideoSize    string
	VideoSeconds int
	Timeout      time.Duration
	MaxRetries   int
	Temperature  *float64
	HTTPClient   *http.Client
}

// ConfigFromEnv reads OPENAI_* variables.
func ConfigFromEnv() Config {
	cfg := Config{
		APIKey:       strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		BaseURL:      strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		Model:        strings.TrimSpace(os.Getenv("OPENAI_MODEL")),
		VideoModel:   strings.TrimSpace(os.Getenv("OPENAI_VIDEO_MODEL")),
		VideoSize:    strings.TrimSpace(os.Getenv("OPENAI_VIDEO_SIZE")),
		VideoSeconds: envInt("OPENAI_VIDEO_SECONDS", 8),
		Timeout:      time.Duration(envInt("OPENAI_TIMEOUT_SECONDS", 180)) * time.Second,
		MaxRetries:   envInt("OPENAI_MAX_RETRIES", 0),
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_TEMPERATURE")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Temperature = &f
		}
	}
	return cfg
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return def
	}
	return i
}

type client struct {
	log          *logger.Logger
	baseURL      string
	apiKey       string
	model        string
	videoModel   string
	videoSize    string
	videoSeconds int
	httpClient   *http.Client
	retry        httpx.Retry
	temperature  *float64
}

func NewClient(log *logger.Logger) (Client, error) {
	return NewClientWithConfig(log, ConfigFromEnv())
}

func NewClientWithConfig(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4.1-mini"
	}
	videoModel := strings.TrimSpace(cfg.VideoModel)
	if videoModel == "" {
		videoModel = "sora-2"
	}
	videoSize := strings.TrimSpace(cfg.VideoSize)
	if videoSize == "" {
		videoSize = "1280x720"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 180 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &client{
		log:          log.With("service", "OpenAIClient"),
		baseURL:      baseURL,
		apiKey:       cfg.APIKey,
		model:        model,
		videoModel:   videoModel,
		videoSize:    videoSize,
		videoSeconds: cfg.VideoSeconds,
		httpClient:   httpClient,
		retry:        httpx.Retry{MaxRetries: cfg.MaxRetries},
		temperature:  cfg.Temperature,
	}, nil
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func (c *client) doOnce(ctx context.Context, method, path string, payload []byte, contentType string) (*http.Response, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

// do sends payload and decodes the JSON response into out, retrying transient failures per c.retry.
func (c *client) do(ctx context.Context, method, path string, payload []byte, contentType string, out any) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, raw, err := c.doOnce(ctx, method, path, payload, contentType)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w", uErr)
			}
			return nil
		}
		wait, retry := c.retry.Next(attempt, resp, err)
		if !retry {
			return err
		}
		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.retry.MaxRetries,
			"sleep", wait.String(),
			"error", err.Error(),
		)
		if err := httpx.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (c *client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}
	return c.do(ctx, method, path, payload, "application/json", out)
}

// -------------------- Responses API --------------------

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model string         `json:"model"`
	Input []inputMessage `json:"input"`
	Text  *struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Stream      bool     `json:"stream,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type    string `json:"type"`
			Text    string `json:"text,omitempty"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
}

func (c *client) newResponsesRequest(system, user string) responsesRequest {
	return responsesRequest{
		Model: c.model,
		Input: []inputMessage{
			{Role: "system", Content: strings.TrimSpace(system)},
			{Role: "user", Content: user},
		},
		Temperature: c.temperature,
	}
}

func extractOutputText(resp responsesResponse) (string, string) {
	var out, refusal strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			switch part.Type {
			case "output_text":
				out.WriteString(part.Text)
			case "refusal":
				refusal.WriteString(part.Refusal)
			}
		}
	}
	return out.String(), refusal.String()
}

func (c *client) respond(ctx context.Context, req responsesRequest) (string, error) {
	var resp responsesResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/responses", req, &resp); err != nil {
		return "", err
	}
	text, refusal := extractOutputText(resp)
	if strings.TrimSpace(refusal) != "" {
		return "", fmt.Errorf("model refused: %s", refusal)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no output_text found in response")
	}
	return text, nil
}

func (c *client) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) ([]byte, error) {
	if schemaName == "" {
		return nil, errors.New("schemaName required")
	}
	if schema == nil {
		return nil, errors.New("schema required")
	}
	req := c.newResponsesRequest(system, user)
	req.Text = &struct {
		Format map[string]any `json:"format,omitempty"`
	}{Format: map[string]any{
		"type":   "json_schema",
		"name":   schemaName,
		"schema": schema,
		"strict": true,
	}}
	text, err := c.respond(ctx, req)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	return c.respond(ctx, c.newResponsesRequest(system, user))
}

// StreamText forwards every non-empty output_text delta to onDelta and returns the accumulated text.
func (c *client) StreamText(ctx context.Context, system string, user string, onDelta func(delta string)) (string, error) {
	reqBody := c.newResponsesRequest(system, user)
	reqBody.Stream = true
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/responses", bytes.NewReader(payload), "application/json")
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var full strings.Builder
	err = streamSSE(resp.Body, func(event string, data string) error {
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			return nil
		}
		var frame struct {
			Type    string          `json:"type"`
			Delta   string          `json:"delta"`
			Refusal string          `json:"refusal"`
			Error   json.RawMessage `json:"error"`
		}
		if err := json.Unmarshal([]byte(data), &frame); err != nil {
			return nil
		}
		evt := strings.TrimSpace(event)
		if frame.Type != "" {
			evt = frame.Type
		}
		if strings.TrimSpace(frame.Refusal) != "" {
			return fmt.Errorf("model refused: %s", frame.Refusal)
		}
		if len(frame.Error) > 0 && string(frame.Error) != "null" {
			return fmt.Errorf("openai stream error: %s", string(frame.Error))
		}
		if evt == "response.failed" || evt == "error" {
			return fmt.Errorf("openai stream failed: %s", data)
		}
		if strings.Contains(evt, "output_text.delta") && frame.Delta != "" {
			full.WriteString(frame.Delta)
			if onDelta != nil {
				onDelta(frame.Delta)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return full.String(), nil
}

// -------------------- Videos API --------------------

type videoJobResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (r videoJobResponse) job() VideoJob {
	j := VideoJob{ID: r.ID, Status: strings.ToLower(strings.TrimSpace(r.Status)), Progress: r.Progress}
	if r.Error != nil {
		j.Error = strings.TrimSpace(r.Error.Message)
	}
	return j
}

func (c *client) CreateVideo(ctx context.Context, prompt string) (VideoJob, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return VideoJob{}, errors.New("video prompt required")
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("prompt", prompt)
	_ = w.WriteField("model", c.videoModel)
	_ = w.WriteField("size", c.videoSize)
	if c.videoSeconds > 0 {
		_ = w.WriteField("seconds", strconv.Itoa(c.videoSeconds))
	}
	if err := w.Close(); err != nil {
		return VideoJob{}, err
	}
	var out videoJobResponse
	if err := c.do(ctx, http.MethodPost, "/v1/videos", buf.Bytes(), w.FormDataContentType(), &out); err != nil {
		return VideoJob{}, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return VideoJob{}, errors.New("video create missing id")
	}
	return out.job(), nil
}

func (c *client) GetVideo(ctx context.Context, id string) (VideoJob, error) {
	if strings.TrimSpace(id) == "" {
		return VideoJob{}, errors.New("video id required")
	}
	var out videoJobResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/videos/"+id, nil, &out); err != nil {
		return VideoJob{}, err
	}
	return out.job(), nil
}

func (c *client) VideoContentURL(id string) string {
	if strings.TrimSpace(id) == "" {
		return ""
	}
	return c.baseURL + "/v1/videos/" + id + "/content"
}
