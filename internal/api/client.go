package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"time"

	"taskboard/internal/models"
)

// TaskAPI is the operation surface of the remote task service. The raw
// Client implements it against HTTP; the offline package wraps it with
// queueing behavior.
type TaskAPI interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (models.Task, error)
	CreateTask(ctx context.Context, data models.CreateTaskData) (models.Task, error)
	UpdateTask(ctx context.Context, id string, updates models.UpdateTaskData) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Client is a thin wrapper over the task service's HTTP contract. It maps
// each operation to one endpoint and performs no retries; failures surface
// as *NetworkError or *ServerError.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the service at baseURL. The underlying
// http.Client carries a cookie jar so the auth cookie set by Login sticks.
func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Jar: jar},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{Status: resp.StatusCode}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &NetworkError{Err: err}
		}
	}
	return nil
}

// Login authenticates against the service; the session cookie it sets is
// kept in the client's jar for subsequent mutating calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/login", body, nil)
}

// Logout clears the session cookie server-side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (models.Task, error) {
	var task models.Task
	if err := c.do(ctx, http.MethodGet, "/tasks/"+id, nil, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (c *Client) CreateTask(ctx context.Context, data models.CreateTaskData) (models.Task, error) {
	var task models.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", data, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, updates models.UpdateTaskData) (models.Task, error) {
	// The wire contract stamps updatedAt client-side; the server refreshes
	// it again when it merges.
	payload := struct {
		models.UpdateTaskData
		UpdatedAt time.Time `json:"updatedAt"`
	}{UpdateTaskData: updates, UpdatedAt: time.Now().UTC()}
	var task models.Task
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+id, payload, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+id, nil, nil)
}
