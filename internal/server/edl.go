package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"cutline/internal/domain"
	"cutline/internal/edl"
	"cutline/internal/engine"
	"cutline/internal/playback"
	"cutline/internal/timeline"
)

type projectPath struct {
	ProjectID string `path:"project_id"`
}

type itemPath struct {
	ProjectID string `path:"project_id"`
	ItemID    string `path:"item_id"`
}

type outcomeOutput struct {
	Body OutcomeResponse `json:"body"`
}

// outcomeResult wraps a session command result. A rejected edit is a 200
// with applied=false; only storage failures are errors.
func outcomeResult(o engine.Outcome, err error) (*outcomeOutput, error) {
	if err != nil {
		return nil, handleError(err)
	}
	return &outcomeOutput{Body: outcomeResponse(o)}, nil
}

var editErrors = []int{http.StatusBadRequest, http.StatusNotFound}

func registerSegments(api huma.API, reg *sessions) {
	huma.Register(api, huma.Operation{
		OperationID: "cut-segment",
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/segments/cut",
		Summary:     "Split the segment under a time",
		Errors:      editErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string     `path:"project_id"`
		Body      CutRequest `json:"body"`
	}) (*outcomeOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return outcomeResult(sess.CutAt(ctx, input.Body.At))
	})

	huma.Register(api, huma.Operation{
		OperationID: "toggle-segment",
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/segments/{item_id}/toggle",
		Summary:     "Enable or disable a segment",
		Errors:      editErrors,
	}, func(ctx context.Context, input *itemPath) (*outcomeOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return outcomeResult(sess.ToggleSegment(ctx, input.ItemID))
	})

	huma.Register(api, huma.Operation{
		OperationID: "trim-segment",
		Method:      http.MethodPatch,
		Path:        "/projects/{project_id}/segments/{item_id}",
		Summary:     "Trim a segment",
		Errors:      editErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string             `path:"project_id"`
		ItemID    string             `path:"item_id"`
		Body      TrimSegmentRequest `json:"body"`
	}) (*outcomeOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return outcomeResult(sess.TrimSegment(ctx, input.ItemID, input.Body.Start, input.Body.End))
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-segment",
		Method:      http.MethodDelete,
		Path:        "/projects/{project_id}/segments/{item_id}",
		Summary:     "Delete a segment",
		Description: "The last remaining segment cannot be deleted.",
		Errors:      editErrors,
	}, func(ctx context.Context, input *itemPath) (*outcomeOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return outcomeResult(sess.DeleteSegment(ctx, input.ItemID))
	})
}

// effectCommands binds one effect track's session commands so the zoom and
// speed routes can share registration.
type effectCommands struct {
	track  string
	add    func(s *engine.Session, ctx context.Context, start, end float64) (engine.Outcome, error)
	update func(s *engine.Session, ctx context.Context, id string, u engine.EffectUpdate) (engine.Outcome, error)
	remove func(s *engine.Session, ctx context.Context, id string) (engine.Outcome, error)
}

func registerEffects(api huma.API, reg *sessions) {
	for _, cmds := range []effectCommands{
		{
			track:  engine.TrackZoom,
			add:    (*engine.Session).AddZoom,
			update: (*engine.Session).UpdateZoom,
			remove: (*engine.Session).DeleteZoom,
		},
		{
			track:  engine.TrackSpeed,
			add:    (*engine.Session).AddSpeed,
			update: (*engine.Session).UpdateSpeed,
			remove: (*engine.Session).DeleteSpeed,
		},
	} {
		registerEffectTrack(api, reg, cmds)
	}
}

func registerEffectTrack(api huma.API, reg *sessions, cmds effectCommands) {
	huma.Register(api, huma.Operation{
		OperationID: "add-" + cmds.track,
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/" + cmds.track,
		Summary:     "Add a " + cmds.track + " effect",
		Description: "Rejected with reason overlap when the range intersects an existing effect.",
		Errors:      editErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string           `path:"project_id"`
		Body      AddEffectRequest `json:"body"`
	}) (*outcomeOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return outcomeResult(cmds.add(sess, ctx, input.Body.Start, input.Body.End))
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-" + cmds.track,
		Method:      http.MethodPatch,
		Path:        "/projects/{project_id}/" + cmds.track + "/{item_id}",
		Summary:     "Move, resize or retune a " + cmds.track + " effect",
		Errors:      editErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string              `path:"project_id"`
		ItemID    string              `path:"item_id"`
		Body      UpdateEffectRequest `json:"body"`
	}) (*outcomeOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return outcomeResult(cmds.update(sess, ctx, input.ItemID, input.Body.update()))
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-" + cmds.track,
		Method:      http.MethodDelete,
		Path:        "/projects/{project_id}/" + cmds.track + "/{item_id}",
		Summary:     "Delete a " + cmds.track + " effect",
		Errors:      editErrors,
	}, func(ctx context.Context, input *itemPath) (*outcomeOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return outcomeResult(cmds.remove(sess, ctx, input.ItemID))
	})
}

func registerAnnotations(api huma.API, reg *sessions) {
	huma.Register(api, huma.Operation{
		OperationID: "add-annotation",
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/annotations",
		Summary:     "Add an annotation",
		Errors:      editErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string               `path:"project_id"`
		Body      AddAnnotationRequest `json:"body"`
	}) (*outcomeOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		mode := domain.AnnotationMode(input.Body.Mode)
		if mode == "" {
			mode = domain.AnnotationOutline
		}
		return outcomeResult(sess.AddAnnotation(ctx, input.Body.Start, input.Body.End, mode))
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-annotation",
		Method:      http.MethodPatch,
		Path:        "/projects/{project_id}/annotations/{item_id}",
		Summary:     "Update an annotation",
		Errors:      editErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string              `path:"project_id"`
		ItemID    string              `path:"item_id"`
		Body      edl.AnnotationPatch `json:"body"`
	}) (*outcomeOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return outcomeResult(sess.UpdateAnnotation(ctx, input.ItemID, input.Body))
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-annotation",
		Method:      http.MethodDelete,
		Path:        "/projects/{project_id}/annotations/{item_id}",
		Summary:     "Delete an annotation",
		Errors:      editErrors,
	}, func(ctx context.Context, input *itemPath) (*outcomeOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return outcomeResult(sess.DeleteAnnotation(ctx, input.ItemID))
	})

	huma.Register(api, huma.Operation{
		OperationID: "duplicate-annotation",
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/annotations/{item_id}/duplicate",
		Summary:     "Duplicate an annotation a little later in time",
		Errors:      editErrors,
	}, func(ctx context.Context, input *itemPath) (*outcomeOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return outcomeResult(sess.DuplicateAnnotation(ctx, input.ItemID))
	})
}

func registerHistory(api huma.API, reg *sessions) {
	huma.Register(api, huma.Operation{
		OperationID: "get-history",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/history",
		Summary:     "Undo and redo depth",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*struct {
		Body HistoryResponse `json:"body"`
	}, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		past, future := sess.HistoryDepth()
		return &struct {
			Body HistoryResponse `json:"body"`
		}{Body: HistoryResponse{Past: past, Future: future, CanUndo: past > 0, CanRedo: future > 0}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "undo",
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/history/undo",
		Summary:     "Undo the last edit",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*outcomeOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return outcomeResult(sess.Undo(ctx))
	})

	huma.Register(api, huma.Operation{
		OperationID: "redo",
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/history/redo",
		Summary:     "Redo the last undone edit",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*outcomeOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return outcomeResult(sess.Redo(ctx))
	})
}

func registerDrafts(api huma.API, reg *sessions) {
	type draftOutput struct {
		Body engine.Draft `json:"body"`
	}

	huma.Register(api, huma.Operation{
		OperationID: "get-drafts",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/drafts",
		Summary:     "Pending drafts",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*draftOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &draftOutput{Body: sess.Drafts()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-zoom-draft",
		Method:      http.MethodPut,
		Path:        "/projects/{project_id}/drafts/zoom/{item_id}",
		Summary:     "Preview a zoom change without committing it",
		Errors:      editErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string              `path:"project_id"`
		ItemID    string              `path:"item_id"`
		Body      UpdateEffectRequest `json:"body"`
	}) (*draftOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		if err := sess.SetZoomDraft(input.ItemID, input.Body.update()); err != nil {
			return nil, handleError(err)
		}
		return &draftOutput{Body: sess.Drafts()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-speed-draft",
		Method:      http.MethodPut,
		Path:        "/projects/{project_id}/drafts/speed/{item_id}",
		Summary:     "Preview a speed change without committing it",
		Errors:      editErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string              `path:"project_id"`
		ItemID    string              `path:"item_id"`
		Body      UpdateEffectRequest `json:"body"`
	}) (*draftOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		if err := sess.SetSpeedDraft(input.ItemID, input.Body.update()); err != nil {
			return nil, handleError(err)
		}
		return &draftOutput{Body: sess.Drafts()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-annotation-draft",
		Method:      http.MethodPut,
		Path:        "/projects/{project_id}/drafts/annotation/{item_id}",
		Summary:     "Preview an annotation change without committing it",
		Errors:      editErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string              `path:"project_id"`
		ItemID    string              `path:"item_id"`
		Body      edl.AnnotationPatch `json:"body"`
	}) (*draftOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		if err := sess.SetAnnotationDraft(input.ItemID, input.Body); err != nil {
			return nil, handleError(err)
		}
		return &draftOutput{Body: sess.Drafts()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "commit-draft",
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/drafts/{track}/commit",
		Summary:     "Commit a track's draft as one undoable edit",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
		Track     string `path:"track" enum:"zoom,speed,annotation"`
	}) (*outcomeOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return outcomeResult(sess.CommitDraft(ctx, input.Track))
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-draft",
		Method:      http.MethodDelete,
		Path:        "/projects/{project_id}/drafts",
		Summary:     "Discard pending drafts",
		Description: "Without track every draft is discarded.",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
		Track     string `query:"track" enum:"zoom,speed,annotation"`
	}) (*draftOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		if err := sess.CancelDraft(input.Track); err != nil {
			return nil, handleError(err)
		}
		return &draftOutput{Body: sess.Drafts()}, nil
	})
}

func registerTimeline(api huma.API, reg *sessions) {
	huma.Register(api, huma.Operation{
		OperationID: "get-timeline",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/timeline",
		Summary:     "Enabled segments laid out on the edited timeline",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*struct {
		Body timeline.Map `json:"body"`
	}, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body timeline.Map `json:"body"`
		}{Body: sess.Timeline()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-duration",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/timeline/duration",
		Summary:     "Source and edited duration",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*struct {
		Body DurationResponse `json:"body"`
	}, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DurationResponse `json:"body"`
		}{Body: DurationResponse{Source: sess.Project().Duration, Edited: sess.EditedDuration()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "convert-time",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/timeline/convert",
		Summary:     "Convert between source and edited time",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string  `path:"project_id"`
		T         float64 `query:"t"`
		From      string  `query:"from" enum:"source,edited" default:"source"`
	}) (*struct {
		Body ConvertResponse `json:"body"`
	}, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		m := sess.Timeline()
		res := ConvertResponse{Source: input.T}
		if input.From == "edited" {
			res.Source = m.EditedToSource(input.T)
		}
		res.Edited = m.SourceToEdited(res.Source)
		res.EditedOffset = m.SourceOffsetToEdited(res.Source)
		res.Kept = m.Contains(res.Source)
		return &struct {
			Body ConvertResponse `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "sample",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/samples",
		Summary:     "Resolved effect state at a source time",
		Description: "Pending drafts are included, as in the preview.",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string  `path:"project_id"`
		T         float64 `query:"t"`
	}) (*struct {
		Body playback.Sample `json:"body"`
	}, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body playback.Sample `json:"body"`
		}{Body: sess.Sample(input.T)}, nil
	})
}

func registerPlayer(api huma.API, reg *sessions) {
	type playerOutput struct {
		Body engine.PlayerState `json:"body"`
	}
	simple := []struct {
		id      string
		summary string
		run     func(s *engine.Session) engine.PlayerState
	}{
		{"play", "Start playback", (*engine.Session).Play},
		{"pause", "Pause playback", (*engine.Session).Pause},
		{"fast-forward", "Step the shuttle rate up", (*engine.Session).FastForward},
	}
	for _, op := range simple {
		run := op.run
		huma.Register(api, huma.Operation{
			OperationID: "player-" + op.id,
			Method:      http.MethodPost,
			Path:        "/projects/{project_id}/player/" + op.id,
			Summary:     op.summary,
			Errors:      []int{http.StatusNotFound},
		}, func(ctx context.Context, input *projectPath) (*playerOutput, error) {
			sess, err := reg.get(ctx, input.ProjectID)
			if err != nil {
				return nil, handleError(err)
			}
			return &playerOutput{Body: run(sess)}, nil
		})
	}

	huma.Register(api, huma.Operation{
		OperationID: "player-state",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/player",
		Summary:     "Play cursor state",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*playerOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &playerOutput{Body: sess.PlayerState()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "player-reverse",
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/player/reverse",
		Summary:     "Skip the cursor back",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string             `path:"project_id"`
		Body      ReverseSkipRequest `json:"body"`
	}) (*playerOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &playerOutput{Body: sess.ReverseSkip(input.Body.Seconds)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "player-seek",
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/player/seek",
		Summary:     "Move the cursor to a source or edited time",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string      `path:"project_id"`
		Body      SeekRequest `json:"body"`
	}) (*playerOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		if input.Body.Edited {
			return &playerOutput{Body: sess.SeekEdited(input.Body.Time)}, nil
		}
		return &playerOutput{Body: sess.Seek(input.Body.Time)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "player-tick",
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/player/tick",
		Summary:     "Advance playback by a wall-clock step",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string      `path:"project_id"`
		Body      TickRequest `json:"body"`
	}) (*playerOutput, error) {
		sess, err := reg.get(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &playerOutput{Body: sess.Tick(input.Body.Seconds)}, nil
	})
}
