// Package client talks to the board REST API and its change feed.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dori/staffsphere/internal/board"
	"github.com/dori/staffsphere/internal/model"
	"github.com/gorilla/websocket"
)

var (
	_ board.API = (*TaskAPI)(nil)
	_ board.API = (*ProjectAPI)(nil)
)

// StatusError is a non-2xx response
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}

// Client calls the board API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// New creates a client for the given address or URL. An empty token sends
// no Authorization header.
func New(addr, token string) *Client {
	baseURL := strings.TrimRight(addr, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Tasks returns the task board API; parent IDs are project IDs.
func (c *Client) Tasks() *TaskAPI { return &TaskAPI{c: c} }

// Projects returns the project board API; parent IDs are ignored.
func (c *Client) Projects() *ProjectAPI { return &ProjectAPI{c: c} }

// Board returns the API of a board kind
func (c *Client) Board(kind model.Kind) board.API {
	if kind == model.KindProject {
		return c.Projects()
	}
	return c.Tasks()
}

// Employees lists the employees cards can be assigned to.
func (c *Client) Employees(ctx context.Context) ([]model.Employee, error) {
	var employees []model.Employee
	if err := c.do(ctx, http.MethodGet, "/api/employees", nil, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

// ListProjects returns projects with their department and task counts.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// Subscribe streams change events until ctx ends or the connection drops.
// The error channel receives exactly one value, nil after a clean stop.
func (c *Client) Subscribe(ctx context.Context) (<-chan model.Event, <-chan error) {
	events := make(chan model.Event, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(events)
		feedURL, err := c.feedURL()
		if err != nil {
			errCh <- err
			return
		}
		header := http.Header{}
		if c.token != "" {
			header.Set("Authorization", "Bearer "+c.token)
		}
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, feedURL, header)
		if err != nil {
			if resp != nil {
				err = readErrorResponse(resp)
			}
			errCh <- err
			return
		}
		defer conn.Close()

		stop := context.AfterFunc(ctx, func() { conn.Close() })
		defer stop()

		for {
			var ev model.Event
			if err := conn.ReadJSON(&ev); err != nil {
				if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					errCh <- nil
					return
				}
				errCh <- err
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				errCh <- nil
				return
			}
		}
	}()

	return events, errCh
}

func (c *Client) feedURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/api/ws")
	if err != nil {
		return "", err
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	return u.String(), nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, dest any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readErrorResponse(resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func readErrorResponse(resp *http.Response) error {
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		if message, ok := payload["error"]; ok {
			return &StatusError{Code: resp.StatusCode, Message: message}
		}
	}
	return &StatusError{Code: resp.StatusCode, Message: resp.Status}
}

// TaskAPI is the board.API of the tasks of one project
type TaskAPI struct {
	c *Client
}

func (a *TaskAPI) List(ctx context.Context, projectID string) ([]model.Card, error) {
	var tasks []model.Task
	if err := a.c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(projectID), nil, &tasks); err != nil {
		return nil, err
	}
	cards := make([]model.Card, len(tasks))
	for i, t := range tasks {
		cards[i] = t.Card
	}
	return cards, nil
}

func (a *TaskAPI) Create(ctx context.Context, projectID string, card model.Card) (model.Card, error) {
	var created model.Task
	if err := a.c.do(ctx, http.MethodPost, "/api/tasks", model.Task{Card: card, ProjectID: projectID}, &created); err != nil {
		return model.Card{}, err
	}
	return created.Card, nil
}

func (a *TaskAPI) Update(ctx context.Context, id string, patch model.Patch) (model.Card, error) {
	var updated model.Task
	if err := a.c.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(id), patch, &updated); err != nil {
		return model.Card{}, err
	}
	return updated.Card, nil
}

func (a *TaskAPI) Delete(ctx context.Context, id string) error {
	return a.c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

// ProjectAPI is the board.API of all projects
type ProjectAPI struct {
	c *Client
}

func (a *ProjectAPI) List(ctx context.Context, _ string) ([]model.Card, error) {
	projects, err := a.c.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	cards := make([]model.Card, len(projects))
	for i, p := range projects {
		cards[i] = p.Card
	}
	return cards, nil
}

func (a *ProjectAPI) Create(ctx context.Context, _ string, card model.Card) (model.Card, error) {
	var created model.Project
	if err := a.c.do(ctx, http.MethodPost, "/api/projects", model.Project{Card: card}, &created); err != nil {
		return model.Card{}, err
	}
	return created.Card, nil
}

func (a *ProjectAPI) Update(ctx context.Context, id string, patch model.Patch) (model.Card, error) {
	var updated model.Project
	if err := a.c.do(ctx, http.MethodPut, "/api/projects/"+url.PathEscape(id), patch, &updated); err != nil {
		return model.Card{}, err
	}
	return updated.Card, nil
}

func (a *ProjectAPI) Delete(ctx context.Context, id string) error {
	return a.c.do(ctx, http.MethodDelete, "/api/projects/"+url.PathEscape(id), nil, nil)
}
