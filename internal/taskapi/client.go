// Package taskapi is a typed client for the external task management service.
//
// The client performs no retries: a failed call is surfaced to the caller as
// a *ServiceError and retry policy stays with the dialogue layer.
package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/personal-assistant-for-students/dispatcher-service/core/logger"

	"log/slog"
)

// Client talks to the task service REST surface.
type Client struct {
	baseURL  string
	http     *http.Client
	timeout  time.Duration
	validate *validator.Validate
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// NewClient builds a Client. Every call is bounded by opts.Timeout
// (10s when zero) regardless of the parent context.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("taskapi: base URL is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL:  base,
		http:     hc,
		timeout:  opts.Timeout,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// ListTasks returns all tasks belonging to the owner.
func (c *Client) ListTasks(ctx context.Context, ownerID int64) ([]Task, error) {
	const op = "list_tasks"
	u := c.baseURL + "/tasks?" + ownerQuery(ownerID)
	resp, err := c.do(ctx, op, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, &ServiceError{Kind: KindBadStatus, HTTPCode: resp.StatusCode, Op: op}
	}
	var tasks []Task
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		return nil, &ServiceError{Kind: KindBadStatus, HTTPCode: resp.StatusCode, Op: op, Err: err}
	}
	return tasks, nil
}

// GetTask fetches a single task scoped by owner.
func (c *Client) GetTask(ctx context.Context, taskID, ownerID int64) (Task, error) {
	const op = "get_task"
	u := fmt.Sprintf("%s/tasks/%d?%s", c.baseURL, taskID, ownerQuery(ownerID))
	resp, err := c.do(ctx, op, http.MethodGet, u, nil)
	if err != nil {
		return Task{}, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Task{}, &ServiceError{Kind: KindNotFound, HTTPCode: resp.StatusCode, Op: op}
	default:
		return Task{}, &ServiceError{Kind: KindBadStatus, HTTPCode: resp.StatusCode, Op: op}
	}
	var task Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return Task{}, &ServiceError{Kind: KindBadStatus, HTTPCode: resp.StatusCode, Op: op, Err: err}
	}
	return task, nil
}

// CreateTask submits a fully populated draft. Only a 201 response counts
// as success; anything else is a rejection.
func (c *Client) CreateTask(ctx context.Context, ownerID int64, title, content, deadline string) (Task, error) {
	const op = "create_task"
	req := createRequest{OwnerID: ownerID, Title: title, Content: content, Deadline: deadline}
	if err := c.validate.Struct(req); err != nil {
		return Task{}, &ServiceError{Kind: KindRejected, Op: op, Err: err}
	}

	resp, err := c.do(ctx, op, http.MethodPost, c.baseURL+"/tasks", req)
	if err != nil {
		return Task{}, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusCreated {
		return Task{}, &ServiceError{Kind: KindRejected, HTTPCode: resp.StatusCode, Op: op}
	}
	var task Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return Task{}, &ServiceError{Kind: KindBadStatus, HTTPCode: resp.StatusCode, Op: op, Err: err}
	}
	return task, nil
}

// UpdateTaskStatus performs a partial update of one task's primary status.
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID, ownerID int64, status string) error {
	const op = "update_task_status"
	u := fmt.Sprintf("%s/tasks/%d", c.baseURL, taskID)
	req := updateStatusRequest{OwnerID: ownerID, Status: status}

	resp, err := c.do(ctx, op, http.MethodPut, u, req)
	if err != nil {
		return err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return &ServiceError{Kind: KindNotFound, HTTPCode: resp.StatusCode, Op: op}
	default:
		return &ServiceError{Kind: KindRejected, HTTPCode: resp.StatusCode, Op: op}
	}
}

func (c *Client) do(ctx context.Context, op, method, rawURL string, body any) (*http.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, &ServiceError{Kind: KindRejected, Op: op, Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, &ServiceError{Kind: KindUnavailable, Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn(ctx, "task_api", "request.fail",
			slog.String("stage", op),
			slog.String("err", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, &ServiceError{Kind: KindUnavailable, Op: op, Err: err}
	}
	logger.Debug(ctx, "task_api", "request.done",
		slog.String("stage", op),
		slog.Int("http_code", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return resp, nil
}

func ownerQuery(ownerID int64) string {
	return url.Values{"owner": {strconv.FormatInt(ownerID, 10)}}.Encode()
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
