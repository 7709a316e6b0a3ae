// Package backend is the HTTP client for the video processing service.
//
// Error payloads ({"error": "..."} or FastAPI's {"detail": "..."}) are attached to
// the returned errors as hints, which is where the job controller looks for
// user-facing messages.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lithammer/shortuuid/v4"
	"go.uber.org/zap"

	"vidtrack/config"
	"vidtrack/job"
	"vidtrack/logger"
)

const (
	pathProcess = "/api/process"
	pathStatus  = "/api/status/%d"
	pathResults = "/api/results/%d"
	pathError   = "/api/error/%d"

	// HeaderRequestID correlates client and backend logs.
	HeaderRequestID = "X-Request-ID"
)

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// Client talks to the processing service over its JSON HTTP API.
type Client struct {
	baseURL *url.URL
	token   string
	maxBody int64
	http    *http.Client
	log     *zap.SugaredLogger
}

var _ job.Backend = (*Client)(nil)

// NewClient validates cfg.BackendURL and builds a client bounded by the
// configured request timeout and response size.
func NewClient(cfg *config.Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BackendURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid backend URL %q", cfg.BackendURL)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Newf("backend URL %q must use http or https", cfg.BackendURL)
	}
	maxBody := cfg.MaxResponseSize
	if maxBody <= 0 {
		maxBody = 10 << 20
	}
	return &Client{
		baseURL: base,
		token:   cfg.BackendToken,
		maxBody: maxBody,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		log:     logger.Named("backend"),
	}, nil
}

type createRequest struct {
	VideoURL string `json:"video_url"`
}

type createResponse struct {
	JobID  int64  `json:"job_id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type resultResponse struct {
	job.ProcessingResult
	Error  string          `json:"error"`
	Detail json.RawMessage `json:"detail"`
}

type errorResponse struct {
	Error  string          `json:"error"`
	Detail json.RawMessage `json:"detail"`
}

// message prefers "error" and falls back to a string "detail".
func (e errorResponse) message() string {
	if msg := strings.TrimSpace(e.Error); msg != "" {
		return msg
	}
	var detail string
	if len(e.Detail) > 0 && json.Unmarshal(e.Detail, &detail) == nil {
		return strings.TrimSpace(detail)
	}
	return ""
}

// CreateJob submits videoURL for processing.
func (c *Client) CreateJob(ctx context.Context, videoURL string) (job.Created, error) {
	var resp createResponse
	if err := c.do(ctx, http.MethodPost, pathProcess, createRequest{VideoURL: videoURL}, &resp); err != nil {
		return job.Created{}, err
	}
	if resp.Error != "" && resp.JobID == 0 {
		return job.Created{}, reported(http.MethodPost, pathProcess, resp.Error)
	}
	if resp.JobID <= 0 {
		return job.Created{}, errors.Newf("POST %s: response has no job_id", pathProcess)
	}

	status := job.StatusQueued
	if resp.Status != "" {
		s, err := job.ParseStatus(resp.Status)
		if err != nil {
			return job.Created{}, errors.Wrapf(err, "POST %s", pathProcess)
		}
		status = s
	}
	return job.Created{JobID: resp.JobID, Status: status}, nil
}

// JobStatus returns the current status of job id.
func (c *Client) JobStatus(ctx context.Context, id int64) (job.Status, error) {
	path := fmt.Sprintf(pathStatus, id)
	var resp statusResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	if resp.Status == "" && resp.Error != "" {
		return "", reported(http.MethodGet, path, resp.Error)
	}
	s, err := job.ParseStatus(resp.Status)
	if err != nil {
		return "", errors.Wrapf(err, "GET %s", path)
	}
	return s, nil
}

// JobResult fetches the finished artifact of a completed job.
func (c *Client) JobResult(ctx context.Context, id int64) (*job.ProcessingResult, error) {
	path := fmt.Sprintf(pathResults, id)
	var resp resultResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, reported(http.MethodGet, path, resp.Error)
	}
	// A job that is not finished yet answers 202 {"detail": "..."}.
	if resp.JobID <= 0 {
		err := errors.Newf("GET %s: response has no job_id", path)
		if msg := (errorResponse{Detail: resp.Detail}).message(); msg != "" {
			err = errors.WithHint(err, msg)
		}
		return nil, err
	}
	if err := resp.ProcessingResult.Validate(); err != nil {
		return nil, errors.Wrapf(err, "GET %s", path)
	}
	result := resp.ProcessingResult
	return &result, nil
}

// JobError fetches the failure message of a failed job. An empty string
// means the backend had nothing to say.
func (c *Client) JobError(ctx context.Context, id int64) (string, error) {
	path := fmt.Sprintf(pathError, id)
	var resp errorResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.message(), nil
}

func reported(method, path, msg string) error {
	return errors.WithHint(errors.Newf("%s %s: backend reported an error", method, path), msg)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	requestID := shortuuid.New()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	// Read one byte past the limit to detect oversized bodies.
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return errors.Wrapf(err, "%s %s: read body", method, path)
	}
	if int64(len(data)) > c.maxBody {
		return errors.Newf("%s %s: response exceeds %d bytes", method, path, c.maxBody)
	}

	c.log.Debugw("Backend call",
		logger.FieldMethod, method,
		logger.FieldPath, path,
		logger.FieldStatusCode, resp.StatusCode,
		logger.FieldRequestID, requestID,
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload errorResponse
		_ = json.Unmarshal(data, &payload)
		httpErr := &HTTPError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    payload.message(),
		}
		if httpErr.Message != "" {
			return errors.WithHint(httpErr, httpErr.Message)
		}
		return httpErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "%s %s: decode response", method, path)
	}
	return nil
}
