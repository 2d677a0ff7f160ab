// Package store provides durable persistence for video generation job
// records. The orchestrator owns every record; a JobStore is a passive
// table keyed by session ID. Load runs once at startup, SaveAll upserts the
// records a mutation touched, and Get reads one record back so processes
// sharing a backend see each other's sessions.
//
// Three backends are available: a local JSON file (default, merged under a
// lock file and written with a write-new-then-rename discipline), a
// DynamoDB table, and a Redis hash.
package store

import (
	"context"
	"time"
)

// State is the lifecycle state of a generation job.
type State string

const (
	StateStarted    State = "started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"

	// StateUnknown classifies a provider response that could not be
	// interpreted. It is reported to callers but never persisted.
	StateUnknown State = "unknown"
)

// GenerationTypeMultiShot is the only generation type produced today.
const GenerationTypeMultiShot = "multi_shot"

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// CanTransition reports whether s -> next moves forward in the state machine
// started -> in_progress -> {completed | failed}. Staying in the same
// non-terminal state is allowed.
func (s State) CanTransition(next State) bool {
	switch s {
	case StateStarted:
		return next == StateStarted || next == StateInProgress || next.IsTerminal()
	case StateInProgress:
		return next == StateInProgress || next.IsTerminal()
	default:
		return false
	}
}

// Persistable reports whether records may hold this state.
func (s State) Persistable() bool {
	switch s {
	case StateStarted, StateInProgress, StateCompleted, StateFailed:
		return true
	}
	return false
}

// JobStore persists the session -> record table.
//
// Load returns an empty map (not an error) when the backing data is missing
// or unreadable. Get reports ok=false for a session the table does not hold.
// SaveAll writes every record in records and leaves sessions absent from the
// map untouched; it must not leave previously persisted records corrupt if
// it fails part way.
type JobStore interface {
	Load(ctx context.Context) (map[string]JobRecord, error)
	Get(ctx context.Context, sessionID string) (JobRecord, bool, error)
	SaveAll(ctx context.Context, records map[string]JobRecord) error
}

// JobRecord is one generation attempt.
//
// ArtifactPath is set iff State is completed; ErrorMessage is set iff State
// is failed.
type JobRecord struct {
	SessionID      string     `json:"session_id" dynamodbav:"sessionId"`
	JobID          string     `json:"job_id" dynamodbav:"jobId"`
	State          State      `json:"status" dynamodbav:"status"`
	CreatedAt      time.Time  `json:"created_at" dynamodbav:"createdAt"`
	UpdatedAt      time.Time  `json:"updated_at" dynamodbav:"updatedAt"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" dynamodbav:"completedAt,omitempty"`
	Images         []string   `json:"images" dynamodbav:"images"`
	Style          string     `json:"style" dynamodbav:"style"`
	Category       string     `json:"category" dynamodbav:"category"`
	Shots          []Shot     `json:"shots,omitempty" dynamodbav:"shots,omitempty"`
	ImagesCount    int        `json:"images_count" dynamodbav:"imagesCount"`
	ShotsCount     int        `json:"shots_count" dynamodbav:"shotsCount"`
	GenerationType string     `json:"generation_type" dynamodbav:"generationType"`
	ArtifactPath   string     `json:"video_path,omitempty" dynamodbav:"videoPath,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty" dynamodbav:"errorMessage,omitempty"`
}

// Shot records the prompt sent for one shot. Image bytes are not stored.
type Shot struct {
	Text  string `json:"text" dynamodbav:"text"`
	Image string `json:"image" dynamodbav:"image"`
}

// Clone returns a deep copy of r.
func (r JobRecord) Clone() JobRecord {
	out := r
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	if r.Images != nil {
		out.Images = append([]string(nil), r.Images...)
	}
	if r.Shots != nil {
		out.Shots = append([]Shot(nil), r.Shots...)
	}
	return out
}

// cloneAll deep-copies a record table.
func cloneAll(records map[string]JobRecord) map[string]JobRecord {
	out := make(map[string]JobRecord, len(records))
	for id, rec := range records {
		out[id] = rec.Clone()
	}
	return out
}
