package sync

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

	"github.com/existflow/weekplan/internal/gdrive"
	"github.com/existflow/weekplan/internal/model"
)

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Temporary reports whether retrying the same request may succeed
func (e *APIError) Temporary() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests || e.Status == http.StatusRequestTimeout
}

// Client talks to the weekplan persistence server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at serverURL
func NewClient(serverURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(serverURL, "/") + "/api",
		httpClient: &http.Client{Timeout: timeout},
	}
}

// do sends a JSON request and decodes a JSON response into out (if non-nil)
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		var payload struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Health checks that the server is reachable
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// ListProjects returns projects in display order
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var out []model.Project
	err := c.do(ctx, http.MethodGet, "/projects", nil, &out)
	return out, err
}

// CreateProject creates a project; in.ID may be set to keep a client-side id
func (c *Client) CreateProject(ctx context.Context, in model.ProjectInput) (model.Project, error) {
	var out model.Project
	err := c.do(ctx, http.MethodPost, "/projects", in, &out)
	return out, err
}

// UpdateProject changes a project's title and color
func (c *Client) UpdateProject(ctx context.Context, id string, in model.ProjectInput) (model.Project, error) {
	var out model.Project
	err := c.do(ctx, http.MethodPut, "/projects/"+url.PathEscape(id), in, &out)
	return out, err
}

// DeleteProject removes a project
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), nil, nil)
}

// ReorderProjects sets the project order to ids
func (c *Client) ReorderProjects(ctx context.Context, ids []string) error {
	return c.do(ctx, http.MethodPost, "/projects/reorder", model.ReorderProjectsRequest{ProjectIDs: ids}, nil)
}

// ListTasks returns active tasks grouped by container
func (c *Client) ListTasks(ctx context.Context) (map[model.Container][]model.Task, error) {
	var out map[model.Container][]model.Task
	err := c.do(ctx, http.MethodGet, "/tasks", nil, &out)
	return out, err
}

// CreateTask creates a task at the end of its container
func (c *Client) CreateTask(ctx context.Context, in model.NewTask) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, http.MethodPost, "/tasks", in, &out)
	return out, err
}

// UpdateTask replaces a task's title, notes and project
func (c *Client) UpdateTask(ctx context.Context, id string, in model.TaskUpdate) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), in, &out)
	return out, err
}

// MoveTask relocates a task
func (c *Client) MoveTask(ctx context.Context, id string, in model.MoveTaskRequest) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(id)+"/move", in, &out)
	return out, err
}

// CompleteTask moves a task to the completion archive
func (c *Client) CompleteTask(ctx context.Context, id string) (model.CompletedTaskRecord, error) {
	var out model.CompletedTaskRecord
	err := c.do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(id)+"/complete", nil, &out)
	return out, err
}

// DeleteTask moves a task to the recycle bin
func (c *Client) DeleteTask(ctx context.Context, id string) (model.DeletedTaskRecord, error) {
	var out model.DeletedTaskRecord
	err := c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, &out)
	return out, err
}

// ListCompleted returns the completion archive
func (c *Client) ListCompleted(ctx context.Context) ([]model.CompletedTaskRecord, error) {
	var out []model.CompletedTaskRecord
	err := c.do(ctx, http.MethodGet, "/tasks/completed", nil, &out)
	return out, err
}

// ListDeleted returns the recycle bin
func (c *Client) ListDeleted(ctx context.Context) ([]model.DeletedTaskRecord, error) {
	var out []model.DeletedTaskRecord
	err := c.do(ctx, http.MethodGet, "/tasks/deleted", nil, &out)
	return out, err
}

// RestoreTask reinstates a deleted task at its original position, in
// projectID when it is set
func (c *Client) RestoreTask(ctx context.Context, id, projectID string) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, http.MethodPost, "/tasks/restore/"+url.PathEscape(id), restoreBody(projectID), &out)
	return out, err
}

// ReopenTask reinstates a completed task at its original position, in
// projectID when it is set
func (c *Client) ReopenTask(ctx context.Context, id, projectID string) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, http.MethodPost, "/tasks/completed/"+url.PathEscape(id)+"/reopen", restoreBody(projectID), &out)
	return out, err
}

func restoreBody(projectID string) interface{} {
	if projectID == "" {
		return nil
	}
	return model.RestoreTaskRequest{ProjectID: projectID}
}

// PurgeTask permanently deletes a recycle-bin record
func (c *Client) PurgeTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/deleted/"+url.PathEscape(id), nil, nil)
}

// CleanupDeleted purges recycle-bin records deleted before the cutoff
func (c *Client) CleanupDeleted(ctx context.Context, before time.Time) (int, error) {
	var out model.CleanupResponse
	err := c.do(ctx, http.MethodPost, "/tasks/deleted/cleanup", model.CleanupRequest{Before: before}, &out)
	return out.Purged, err
}

// SyncAll fetches the full board
func (c *Client) SyncAll(ctx context.Context) (model.Snapshot, error) {
	var out model.Snapshot
	err := c.do(ctx, http.MethodGet, "/sync/all", nil, &out)
	return out, err
}

// Import replaces everything on the server with s
func (c *Client) Import(ctx context.Context, s model.Snapshot) error {
	return c.do(ctx, http.MethodPost, "/sync/import", s, nil)
}

// ScanDrive asks the server to scan Google Drive for recent changes
func (c *Client) ScanDrive(ctx context.Context, lookbackHours int) (gdrive.ChangeSet, error) {
	var out gdrive.ChangeSet
	err := c.do(ctx, http.MethodPost, "/gdrive/scan", gdrive.ScanRequest{LookbackHours: lookbackHours}, &out)
	return out, err
}

// ExportDrive downloads the export document for the lookback window
func (c *Client) ExportDrive(ctx context.Context, lookbackHours int) (gdrive.Document, error) {
	var out gdrive.Document
	path := "/gdrive/export?lookbackHours=" + strconv.Itoa(lookbackHours)
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// DriveScans returns the most recent scan log entries, newest first
func (c *Client) DriveScans(ctx context.Context, limit int) ([]gdrive.ScanLog, error) {
	var out []gdrive.ScanLog
	err := c.do(ctx, http.MethodGet, "/gdrive/scans?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}
