package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Event types recorded for edit decision list changes.
const (
	ProjectCreated    = "project.created"
	ProjectDeleted    = "project.deleted"
	ProjectReconciled = "project.duration_reconciled"
	ProjectConfigSet  = "project.config.set"
	SegmentCut        = "edl.segment.cut"
	SegmentToggled    = "edl.segment.toggled"
	SegmentDeleted    = "edl.segment.deleted"
	SegmentTrimmed    = "edl.segment.trimmed"
	ZoomAdded         = "edl.zoom.added"
	ZoomUpdated       = "edl.zoom.updated"
	ZoomDeleted       = "edl.zoom.deleted"
	SpeedAdded        = "edl.speed.added"
	SpeedUpdated      = "edl.speed.updated"
	SpeedDeleted      = "edl.speed.deleted"
	AnnotationAdded   = "edl.annotation.added"
	AnnotationUpdated = "edl.annotation.updated"
	AnnotationDeleted = "edl.annotation.deleted"
	AnnotationCopied  = "edl.annotation.duplicated"
	LookUpdated       = "edl.look.updated"
	HistoryUndo       = "history.undo"
	HistoryRedo       = "history.redo"
)

type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

type EventPayload map[string]any

// Append records one event inside tx so it commits with the change it describes.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, projectID, entityKind, entityID, actorID string, payload EventPayload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,project_id,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?,?)`,
		ts, evtType, nullable(projectID), entityKind, nullable(entityID), actorID, string(data))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
