package server

import (
	"encoding/json"

	"cutline/internal/config"
	"cutline/internal/domain"
	"cutline/internal/edl"
	"cutline/internal/engine"
	"cutline/internal/repo"
)

// Request payloads

type CreateProjectRequest struct {
	ID         string         `json:"id,omitempty"`
	Name       string         `json:"name"`
	Duration   float64        `json:"duration"`
	Resolution *ResolutionDTO `json:"resolution,omitempty"`
	Sources    *SourcesDTO    `json:"sources,omitempty"`
}

type ResolutionDTO struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type SourcesDTO struct {
	Screen     string `json:"screen,omitempty"`
	Camera     string `json:"camera,omitempty"`
	Microphone string `json:"microphone,omitempty"`
}

type ReconcileDurationRequest struct {
	Duration float64 `json:"duration"`
}

type ProjectConfigPutRequest struct {
	YAML string `json:"yaml"`
}

type CutRequest struct {
	At float64 `json:"at"`
}

type TrimSegmentRequest struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type AddEffectRequest struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// UpdateEffectRequest changes a zoom or speed effect. Without op the time
// edit is inferred: start and end together move, one of them resizes. A
// move must keep the effect's length; use op resize to change both edges.
type UpdateEffectRequest struct {
	Op    string   `json:"op,omitempty" enum:"move,resize_start,resize_end,resize,payload"`
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`
	Scale *float64 `json:"scale,omitempty"`
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
	Speed *float64 `json:"speed,omitempty"`
}

func (r UpdateEffectRequest) update() engine.EffectUpdate {
	return engine.EffectUpdate{
		Op:    edl.Op(r.Op),
		Start: r.Start,
		End:   r.End,
		Scale: r.Scale,
		X:     r.X,
		Y:     r.Y,
		Speed: r.Speed,
	}
}

type AddAnnotationRequest struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Mode  string  `json:"mode,omitempty" enum:"outline,blur,text,arrow"`
}

type SeekRequest struct {
	Time   float64 `json:"time"`
	Edited bool    `json:"edited,omitempty"`
}

type TickRequest struct {
	Seconds float64 `json:"seconds"`
}

type ReverseSkipRequest struct {
	Seconds float64 `json:"seconds,omitempty"`
}

type CreateAPIKeyRequest struct {
	ActorID string `json:"actor_id"`
	Name    string `json:"name,omitempty"`
}

type DevLoginRequest struct {
	ActorID string `json:"actor_id"`
}

// Response payloads

type ProjectResponse struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	CreatedAt  string        `json:"created_at" format:"date-time"`
	Duration   float64       `json:"duration"`
	Resolution ResolutionDTO `json:"resolution"`
	Sources    SourcesDTO    `json:"sources"`
	Segments   int           `json:"segments"`
	Effects    int           `json:"effects"`
}

type OutcomeResponse struct {
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
	ID      string `json:"id,omitempty"`
	CanUndo bool   `json:"can_undo"`
	CanRedo bool   `json:"can_redo"`
}

type HistoryResponse struct {
	Past    int  `json:"past"`
	Future  int  `json:"future"`
	CanUndo bool `json:"can_undo"`
	CanRedo bool `json:"can_redo"`
}

// EDLResponse is the full project including its edit decision list.
type EDLResponse struct {
	ProjectResponse
	EDL domain.EditDecisionList `json:"edl"`
}

type DurationResponse struct {
	Source float64 `json:"source"`
	Edited float64 `json:"edited"`
}

// ConvertResponse carries both edited mappings of a source time: Edited
// follows speed effects, EditedOffset keeps the plain offset into the segment.
type ConvertResponse struct {
	Source       float64 `json:"source"`
	Edited       float64 `json:"edited"`
	EditedOffset float64 `json:"edited_offset"`
	Kept         bool    `json:"kept"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	ProjectID  string         `json:"project_id,omitempty"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type ProjectConfigResponse struct {
	Project  projectConfigSection    `json:"project"`
	Editor   config.EditorConfig     `json:"editor"`
	Autosave config.AutosaveConfig   `json:"autosave"`
	Webhooks []webhookConfigResponse `json:"webhooks"`
}

type projectConfigSection struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

type webhookConfigResponse struct {
	URL     string   `json:"url"`
	Events  []string `json:"events"`
	Enabled bool     `json:"enabled"`
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
	Key       string `json:"key,omitempty"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}

type WhoAmIResponse struct {
	ActorID string `json:"actor_id"`
	Source  string `json:"source"`
}

// Conversion helpers

func projectResponse(p domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:         p.ID,
		Name:       p.Name,
		CreatedAt:  p.CreatedAt,
		Duration:   p.Duration,
		Resolution: ResolutionDTO(p.Resolution),
		Sources:    SourcesDTO(p.Sources),
		Segments:   len(p.EDL.Segments),
		Effects:    len(p.EDL.Zoom) + len(p.EDL.Speed) + len(p.EDL.Annotations),
	}
}

func edlResponse(p domain.Project) EDLResponse {
	return EDLResponse{ProjectResponse: projectResponse(p), EDL: p.EDL}
}

func summaryResponse(s repo.ProjectSummary) ProjectResponse {
	return ProjectResponse{ID: s.ID, Name: s.Name, CreatedAt: s.CreatedAt, Duration: s.Duration}
}

func outcomeResponse(o engine.Outcome) OutcomeResponse {
	return OutcomeResponse{
		Applied: o.Applied,
		Reason:  string(o.Reason),
		ID:      o.ID,
		CanUndo: o.CanUndo,
		CanRedo: o.CanRedo,
	}
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		ProjectID:  e.ProjectID,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    decodeJSONMap(e.Payload),
	}
}

func configResponse(cfg *config.Config) ProjectConfigResponse {
	res := ProjectConfigResponse{
		Project:  projectConfigSection{ID: cfg.Project.ID, Kind: cfg.Project.Kind},
		Editor:   cfg.Editor,
		Autosave: cfg.Autosave,
		Webhooks: []webhookConfigResponse{},
	}
	for _, hook := range cfg.Webhooks {
		res.Webhooks = append(res.Webhooks, webhookConfigResponse{
			URL:     hook.URL,
			Events:  nonNilSlice(hook.Events),
			Enabled: hook.Enabled == nil || *hook.Enabled,
		})
	}
	return res
}

func apiKeyResponse(k domain.APIKey) APIKeyResponse {
	return APIKeyResponse{ID: k.ID, ActorID: k.ActorID, Name: k.Name, CreatedAt: k.CreatedAt}
}

// JSON helpers

func decodeJSONMap(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil || obj == nil {
		return map[string]any{}
	}
	return obj
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
