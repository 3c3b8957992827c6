package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/amishk599/skywatch/internal/model"
	"github.com/amishk599/skywatch/internal/observability"
	"github.com/amishk599/skywatch/internal/retry"
)

// maxBodyBytes caps how much of a JSON response is read.
const maxBodyBytes = 8 << 20

// Client talks to the weather-analysis backend API. baseURL includes the
// /api prefix, e.g. http://localhost:5000/api.
type Client struct {
	baseURL string
	client  *http.Client
	retrier *retry.Retrier
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewClient creates a backend client. retrier may be nil to disable retries
// of idempotent requests.
func NewClient(baseURL string, httpClient *http.Client, retrier *retry.Retrier, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		retrier: retrier,
		logger:  logger,
	}
}

// SetMetrics enables per-request metric recording.
func (c *Client) SetMetrics(m *observability.Metrics) {
	c.metrics = m
}

// envelope is the common {success, message} wrapper of backend responses.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type startResponse struct {
	envelope
	AnalysisID      string `json:"analysis_id"`
	AnalysisIDCamel string `json:"analysisId"`
}

type progressResponse struct {
	envelope
	Data *struct {
		Status   string          `json:"status"`
		Progress *float64        `json:"progress"`
		Message  string          `json:"message"`
		Result   json.RawMessage `json:"result"`
	} `json:"data"`
}

type historyResponse struct {
	envelope
	Files []model.HistoryEntry `json:"files"`
}

// Status returns the backend health and EarthAccess login state.
func (c *Client) Status(ctx context.Context) (model.ServerStatus, error) {
	return retry.Do(ctx, c.retrier, EndpointStatus, func(ctx context.Context) (model.ServerStatus, error) {
		var st model.ServerStatus
		if err := c.doJSON(ctx, http.MethodGet, "/status", nil, &st); err != nil {
			return model.ServerStatus{}, fmt.Errorf("backend status: %w", err)
		}
		return st, nil
	})
}

// CheckReadiness reports whether the backend answers its status endpoint.
func (c *Client) CheckReadiness(ctx context.Context) error {
	var st model.ServerStatus
	return c.doJSON(ctx, http.MethodGet, "/status", nil, &st)
}

// Login authenticates the backend's EarthAccess session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp envelope
	body := map[string]string{"username": username, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/login", body, &resp); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("login: %w", &model.APIError{StatusCode: http.StatusOK, Message: resp.Message})
	}
	c.logger.Info("earthaccess login succeeded", "username", username)
	return nil
}

// StartAnalysis creates an analysis job and returns its id. Any failure,
// including success=false, means no job was started.
func (c *Client) StartAnalysis(ctx context.Context, req model.AnalysisRequest) (string, error) {
	id, err := c.start(ctx, "/analyze", req)
	if err != nil {
		return "", fmt.Errorf("start analysis: %w", err)
	}
	return id, nil
}

// StartPrediction creates a personalized prediction job and returns its id.
func (c *Client) StartPrediction(ctx context.Context, req model.PredictionRequest) (string, error) {
	id, err := c.start(ctx, "/personalized-prediction", req)
	if err != nil {
		return "", fmt.Errorf("start prediction: %w", err)
	}
	return id, nil
}

// Start creates a job of the given kind from a request body.
func (c *Client) Start(ctx context.Context, kind model.JobKind, body any) (string, error) {
	switch kind {
	case model.KindAnalysis:
		req, ok := body.(model.AnalysisRequest)
		if !ok {
			return "", fmt.Errorf("start analysis: unexpected request type %T", body)
		}
		return c.StartAnalysis(ctx, req)
	case model.KindPrediction:
		req, ok := body.(model.PredictionRequest)
		if !ok {
			return "", fmt.Errorf("start prediction: unexpected request type %T", body)
		}
		return c.StartPrediction(ctx, req)
	default:
		return "", fmt.Errorf("unknown job kind %q", kind)
	}
}

func (c *Client) start(ctx context.Context, path string, body any) (string, error) {
	var resp startResponse
	if err := c.doJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", &model.APIError{StatusCode: http.StatusOK, Message: resp.Message}
	}
	id := resp.AnalysisID
	if id == "" {
		id = resp.AnalysisIDCamel
	}
	if id == "" {
		return "", fmt.Errorf("%w: response has no job id", model.ErrMalformedResponse)
	}
	c.logger.Info("job started", "endpoint", path, "job_id", id, "message", resp.Message)
	return id, nil
}

// AnalysisProgress queries the status of an analysis job.
func (c *Client) AnalysisProgress(ctx context.Context, id string) (model.Progress, error) {
	return c.progress(ctx, "/progress/"+url.PathEscape(id))
}

// PredictionProgress queries the status of a prediction job.
func (c *Client) PredictionProgress(ctx context.Context, id string) (model.Progress, error) {
	return c.progress(ctx, "/prediction-progress/"+url.PathEscape(id))
}

// ProgressFetcher returns the status query for jobs of the given kind.
func (c *Client) ProgressFetcher(kind model.JobKind) model.ProgressFetcher {
	if kind == model.KindPrediction {
		return model.ProgressFetcherFunc(c.PredictionProgress)
	}
	return model.ProgressFetcherFunc(c.AnalysisProgress)
}

func (c *Client) progress(ctx context.Context, path string) (model.Progress, error) {
	var resp progressResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return model.Progress{}, fmt.Errorf("query progress: %w", err)
	}
	if !resp.Success {
		return model.Progress{}, fmt.Errorf("query progress: %w", &model.APIError{StatusCode: http.StatusOK, Message: resp.Message})
	}
	if resp.Data == nil || resp.Data.Status == "" {
		return model.Progress{}, fmt.Errorf("query progress: %w: missing data.status", model.ErrMalformedResponse)
	}

	p := model.Progress{
		Status:  model.JobStatus(resp.Data.Status),
		Message: resp.Data.Message,
		Result:  resp.Data.Result,
	}
	if resp.Data.Progress != nil {
		p.Progress = clampPercent(*resp.Data.Progress)
	}
	return p, nil
}

// History lists generated result files, newest first.
func (c *Client) History(ctx context.Context) ([]model.HistoryEntry, error) {
	return retry.Do(ctx, c.retrier, EndpointHistory, func(ctx context.Context) ([]model.HistoryEntry, error) {
		var resp historyResponse
		if err := c.doJSON(ctx, http.MethodGet, "/history", nil, &resp); err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		if !resp.Success {
			return nil, fmt.Errorf("history: %w", &model.APIError{StatusCode: http.StatusOK, Message: resp.Message})
		}
		return resp.Files, nil
	})
}

// FileURL returns the absolute URL of a generated file. It accepts bare
// filenames, paths under the backend's output directory, /api/files/ URLs
// as listed by History, and absolute URLs.
func (c *Client) FileURL(path string) string {
	switch {
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	case strings.HasPrefix(path, "/api/files/"):
		path = strings.TrimPrefix(path, "/api/files/")
	}
	path = strings.TrimPrefix(path, "output/")
	return c.baseURL + "/files/" + strings.TrimLeft(path, "/")
}

// DownloadFile streams a generated file into w and returns the bytes written.
func (c *Client) DownloadFile(ctx context.Context, path string, w io.Writer) (int64, error) {
	u := c.FileURL(path)
	return retry.Do(ctx, c.retrier, EndpointFiles, func(ctx context.Context) (int64, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return 0, fmt.Errorf("download %s: %w", path, err)
		}
		req.Header.Set("X-Request-ID", uuid.NewString())

		resp, err := c.client.Do(req)
		if err != nil {
			return 0, fmt.Errorf("download %s: %w", path, err)
		}
		defer resp.Body.Close()
		c.metrics.ObserveRequest(EndpointFiles, strconv.Itoa(resp.StatusCode))

		if resp.StatusCode != http.StatusOK {
			return 0, fmt.Errorf("download %s: %w", path, &model.HTTPError{
				StatusCode: resp.StatusCode,
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			})
		}
		n, err := io.Copy(w, resp.Body)
		if err != nil {
			return n, fmt.Errorf("download %s: %w", path, err)
		}
		return n, nil
	})
}

// doJSON sends a JSON request and decodes a 2xx JSON response into out.
// Non-2xx responses become *model.HTTPError carrying the backend message;
// 401 and 404 additionally wrap ErrNotLoggedIn and ErrJobNotFound.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	c.metrics.ObserveRequest(EndpointKey(req), strconv.Itoa(resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("backend request failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"request_id", reqID,
		)
		return &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        statusError(resp.StatusCode, data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)
	}
	return nil
}

// statusError extracts the backend message from an error body.
func statusError(code int, body []byte) error {
	var env envelope
	msg := http.StatusText(code)
	if json.Unmarshal(body, &env) == nil && env.Message != "" {
		msg = env.Message
	}
	switch code {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", model.ErrNotLoggedIn, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", model.ErrJobNotFound, msg)
	default:
		return errors.New(msg)
	}
}

func clampPercent(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Max(0, math.Min(100, math.Round(v))))
}
