package cutlinesdk

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
)

// Client is a minimal Cutline HTTP API client bound to one project.
type Client struct {
	BaseURL     string
	ProjectID   string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL, projectID string) *Client {
	return &Client{
		BaseURL:   baseURL,
		ProjectID: projectID,
		Timeout:   10 * time.Second,
	}
}

// Outcome reports whether an edit was applied, and why not when it was
// rejected.
type Outcome struct {
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
	ID      string `json:"id,omitempty"`
	CanUndo bool   `json:"can_undo"`
	CanRedo bool   `json:"can_redo"`
}

type Segment struct {
	ID      string  `json:"id"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Enabled bool    `json:"enabled"`
}

type ZoomEffect struct {
	ID    string  `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Scale float64 `json:"scale"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type SpeedEffect struct {
	ID    string  `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Speed float64 `json:"speed"`
}

type Annotation struct {
	ID    string  `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Mode  string  `json:"mode"`
	Text  string  `json:"text,omitempty"`
}

// EDL is the edit decision list part of a project (partial).
type EDL struct {
	Segments    []Segment     `json:"segments"`
	Zoom        []ZoomEffect  `json:"zoom"`
	Speed       []SpeedEffect `json:"speed"`
	Annotations []Annotation  `json:"annotations"`
}

// Project is the API project model including its EDL.
type Project struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Duration float64 `json:"duration"`
	EDL      EDL     `json:"edl"`
}

// EffectUpdate changes a zoom or speed effect. Op is one of move,
// resize_start, resize_end, resize or payload; empty lets the server infer
// it. A move keeps the effect's length.
type EffectUpdate struct {
	Op    string   `json:"op,omitempty"`
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`
	Scale *float64 `json:"scale,omitempty"`
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
	Speed *float64 `json:"speed,omitempty"`
}

// Durations holds the source and edited length of a project.
type Durations struct {
	Source float64 `json:"source"`
	Edited float64 `json:"edited"`
}

// Sample is the resolved effect state at a source time (partial).
type Sample struct {
	Time        float64      `json:"time"`
	EditedTime  float64      `json:"edited_time"`
	Kept        bool         `json:"kept"`
	Speed       float64      `json:"speed"`
	Zoom        *ZoomEffect  `json:"zoom,omitempty"`
	Annotations []Annotation `json:"annotations"`
}

// Event represents a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	ProjectID  string         `json:"project_id"`
	EntityID   string         `json:"entity_id"`
	EntityKind string         `json:"entity_kind"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// GetEDL fetches the committed project. With drafts the pending drafts are
// laid over it.
func (c *Client) GetEDL(ctx context.Context, drafts bool) (Project, error) {
	endpoint := c.projectPath("edl")
	if drafts {
		endpoint += "?drafts=true"
	}
	var resp Project
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// CutAt splits the segment under t.
func (c *Client) CutAt(ctx context.Context, t float64) (Outcome, error) {
	return c.edit(ctx, http.MethodPost, "segments/cut", map[string]any{"at": t})
}

// ToggleSegment flips a segment between kept and cut.
func (c *Client) ToggleSegment(ctx context.Context, id string) (Outcome, error) {
	return c.edit(ctx, http.MethodPost, fmt.Sprintf("segments/%s/toggle", url.PathEscape(id)), nil)
}

// AddZoom adds a zoom effect over [start, end).
func (c *Client) AddZoom(ctx context.Context, start, end float64) (Outcome, error) {
	return c.edit(ctx, http.MethodPost, "zoom", map[string]any{"start": start, "end": end})
}

// UpdateZoom moves, resizes or retunes a zoom effect.
func (c *Client) UpdateZoom(ctx context.Context, id string, u EffectUpdate) (Outcome, error) {
	return c.edit(ctx, http.MethodPatch, fmt.Sprintf("zoom/%s", url.PathEscape(id)), u)
}

// AddSpeed adds a speed effect over [start, end).
func (c *Client) AddSpeed(ctx context.Context, start, end float64) (Outcome, error) {
	return c.edit(ctx, http.MethodPost, "speed", map[string]any{"start": start, "end": end})
}

// UpdateSpeed moves, resizes or retunes a speed effect.
func (c *Client) UpdateSpeed(ctx context.Context, id string, u EffectUpdate) (Outcome, error) {
	return c.edit(ctx, http.MethodPatch, fmt.Sprintf("speed/%s", url.PathEscape(id)), u)
}

// AddAnnotation adds an annotation; mode defaults to outline.
func (c *Client) AddAnnotation(ctx context.Context, start, end float64, mode string) (Outcome, error) {
	return c.edit(ctx, http.MethodPost, "annotations", map[string]any{"start": start, "end": end, "mode": mode})
}

// Undo reverts the last edit.
func (c *Client) Undo(ctx context.Context) (Outcome, error) {
	return c.edit(ctx, http.MethodPost, "history/undo", nil)
}

// Redo reapplies the last undone edit.
func (c *Client) Redo(ctx context.Context) (Outcome, error) {
	return c.edit(ctx, http.MethodPost, "history/redo", nil)
}

// EditedDuration returns the source and edited length.
func (c *Client) EditedDuration(ctx context.Context) (Durations, error) {
	var resp Durations
	err := c.do(ctx, http.MethodGet, c.projectPath("timeline/duration"), nil, &resp)
	return resp, err
}

// Sample resolves the effect state at source time t.
func (c *Client) Sample(ctx context.Context, t float64) (Sample, error) {
	var resp Sample
	endpoint := fmt.Sprintf("%s?t=%s", c.projectPath("samples"), url.QueryEscape(fmt.Sprint(t)))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	page, err := c.EventsPage(ctx, limit, "")
	return page.Items, err
}

// EventsPage returns a paginated event listing.
func (c *Client) EventsPage(ctx context.Context, limit int, cursor string) (PaginatedEvents, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint := c.projectPath("events")
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) edit(ctx context.Context, method, p string, body any) (Outcome, error) {
	var resp Outcome
	err := c.do(ctx, method, c.projectPath(p), body, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) projectPath(p string) string {
	project := url.PathEscape(c.ProjectID)
	return fmt.Sprintf("v0/projects/%s/%s", project, strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
