// Package session holds per-user workflow state. Each browser session owns
// exactly one workflow: current video asset, current transcription job,
// transcript and rewrite result. Nothing here is shared across sessions.
package session

import (
	"context"
	"errors"

	"github.com/clipscribe/backend/internal/transcribe"
	"github.com/clipscribe/backend/pkg/storage"
)

// ErrNotFound is returned by Store.Get for unknown or expired sessions.
var ErrNotFound = errors.New("session: not found")

// State is the explicit workflow state for one session. It replaces any
// process-wide mutable state; the orchestrator owns the single copy.
type State struct {
	ID string `json:"id"`

	// Current uploaded (or reused) video. Survives job failures so a retry
	// can start a fresh job without re-upload.
	Video *storage.Asset `json:"video,omitempty"`

	// Current transcription job. Starting a new job supersedes the previous
	// id; the old remote job is simply no longer polled.
	JobID     string            `json:"job_id,omitempty"`
	JobStatus transcribe.Status `json:"job_status,omitempty"`
	JobError  string            `json:"job_error,omitempty"`

	// StartFailed marks a failed submission; the retry affordance is shown
	// while the asset is still present.
	StartFailed bool `json:"start_failed,omitempty"`

	Transcript string `json:"transcript,omitempty"`

	RewrittenText string `json:"rewritten_text,omitempty"`
	RewriteFailed bool   `json:"rewrite_failed,omitempty"`
}

// ActiveJob reports whether a job is currently tracked and not terminal.
func (s *State) ActiveJob() bool {
	return s.JobID != "" && !s.JobStatus.Terminal()
}

// StartJob records a freshly submitted job and clears artifacts derived from
// any previous job.
func (s *State) StartJob(jobID string) {
	s.JobID = jobID
	s.JobStatus = transcribe.StatusInProgress
	s.JobError = ""
	s.StartFailed = false
	s.Transcript = ""
	s.RewrittenText = ""
	s.RewriteFailed = false
}

// Store persists session state, partitioned by session id.
type Store interface {
	Get(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, state *State) error
	Delete(ctx context.Context, id string) error
}
