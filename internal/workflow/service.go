// Package workflow sequences the transcription pipeline per session:
// upload-or-reuse, start job, user-triggered poll, transcript fetch, chunked
// rewrite, downloads. The service owns each session's workflow state.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/clipscribe/backend/internal/progress"
	"github.com/clipscribe/backend/internal/rewrite"
	"github.com/clipscribe/backend/internal/session"
	"github.com/clipscribe/backend/internal/transcribe"
	"github.com/clipscribe/backend/pkg/storage"
)

// ContentStore is the object-store surface the workflow needs.
type ContentStore interface {
	FindExisting(ctx context.Context, filename string) (*storage.Asset, error)
	Upload(ctx context.Context, originalName string, body io.Reader, size int64) (*storage.Asset, error)
}

// JobTracker starts and polls transcription jobs.
type JobTracker interface {
	Start(ctx context.Context, mediaURI string) (string, error)
	Poll(ctx context.Context, jobID string) (*transcribe.Snapshot, error)
}

// TranscriptFetcher retrieves a completed job's transcript text.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, resultURI string) (string, error)
}

// TextRewriter performs the full chunked rewrite of a transcript.
type TextRewriter interface {
	Rewrite(ctx context.Context, source string, p rewrite.Progress) (string, error)
}

// ProgressPublisher fans rewrite progress events out to the session's
// listeners. Optional; nil disables progress events.
type ProgressPublisher interface {
	Publish(sessionID string, ev progress.Event)
}

// Service drives the workflow. All state lives in the session store; the
// service itself is stateless and safe to share.
type Service struct {
	store    ContentStore
	tracker  JobTracker
	fetcher  TranscriptFetcher
	rewriter TextRewriter
	sessions session.Store
	progress ProgressPublisher
	logger   *zap.Logger
}

// NewService creates the workflow orchestrator.
func NewService(store ContentStore, tracker JobTracker, fetcher TranscriptFetcher, rewriter TextRewriter, sessions session.Store, pub ProgressPublisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		tracker:  tracker,
		fetcher:  fetcher,
		rewriter: rewriter,
		sessions: sessions,
		progress: pub,
		logger:   logger,
	}
}

func (s *Service) state(ctx context.Context, sessionID string) (*session.State, error) {
	st, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return &session.State{ID: sessionID}, nil
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// UploadVideo stores the video, reusing an existing object when the filename
// matches one already in the store. A new video resets the session's
// workflow. Returns the updated state and whether an existing object was
// reused.
func (s *Service) UploadVideo(ctx context.Context, sessionID, filename string, body io.Reader, size int64) (*session.State, bool, error) {
	if strings.ToLower(path.Ext(filename)) != ".mp4" {
		return nil, false, fmt.Errorf("%w: only MP4 files are accepted", ErrValidation)
	}

	reused := true
	asset, err := s.store.FindExisting(ctx, filename)
	if errors.Is(err, storage.ErrNotFound) {
		reused = false
		asset, err = s.store.Upload(ctx, filename, body, size)
	}
	if err != nil {
		return nil, false, wrapStorage(err)
	}

	st := &session.State{ID: sessionID, Video: asset}
	if err := s.sessions.Save(ctx, st); err != nil {
		return nil, false, err
	}

	s.logger.Info("video ready", zap.String("session_id", sessionID), zap.String("key", asset.Key), zap.Bool("reused", reused))
	return st, reused, nil
}

// StartTranscription submits a new job for the session's video. Also serves
// as the retry after a failed start or a failed job: the stored asset is
// reused, never re-uploaded, and a brand-new job id supersedes the old one.
func (s *Service) StartTranscription(ctx context.Context, sessionID string) (*session.State, error) {
	st, err := s.state(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st.Video == nil {
		return nil, ErrNoVideo
	}

	jobID, err := s.tracker.Start(ctx, st.Video.StorageURI)
	if err != nil {
		st.StartFailed = true
		if saveErr := s.sessions.Save(ctx, st); saveErr != nil {
			s.logger.Error("save session after failed start", zap.Error(saveErr), zap.String("session_id", sessionID))
		}
		if storage.IsAuthError(err) {
			return st, fmt.Errorf("%w: %v", ErrAuth, err)
		}
		return st, fmt.Errorf("%w: %v", ErrJobStart, err)
	}

	st.StartJob(jobID)
	if err := s.sessions.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// CheckStatus polls the current job once. On completion it fetches and
// caches the transcript; once a terminal status with its artifacts is
// recorded, further checks return the stored state without calling the
// provider again.
func (s *Service) CheckStatus(ctx context.Context, sessionID string) (*session.State, error) {
	st, err := s.state(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st.JobID == "" {
		return nil, ErrNoJob
	}
	if st.JobStatus == transcribe.StatusFailed ||
		(st.JobStatus == transcribe.StatusCompleted && st.Transcript != "") {
		return st, nil
	}

	snap, err := s.tracker.Poll(ctx, st.JobID)
	if err != nil {
		if storage.IsAuthError(err) {
			return st, fmt.Errorf("%w: %v", ErrAuth, err)
		}
		return st, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	st.JobStatus = snap.Status
	switch snap.Status {
	case transcribe.StatusCompleted:
		if snap.ResultURI == "" {
			return st, fmt.Errorf("%w: job completed without result location", ErrFetch)
		}
		text, err := s.fetcher.Fetch(ctx, snap.ResultURI)
		if err != nil {
			// Status is saved; the next check retries only the fetch.
			if saveErr := s.sessions.Save(ctx, st); saveErr != nil {
				s.logger.Error("save session after failed fetch", zap.Error(saveErr), zap.String("session_id", sessionID))
			}
			return st, fmt.Errorf("%w: %v", ErrFetch, err)
		}
		st.Transcript = text
	case transcribe.StatusFailed:
		// The asset is retained so a retry can start a fresh job.
		st.JobError = snap.FailureReason
	}

	if err := s.sessions.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Transcript returns the cached transcript text for download.
func (s *Service) Transcript(ctx context.Context, sessionID string) (string, error) {
	st, err := s.state(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if st.Transcript == "" {
		return "", ErrNoTranscript
	}
	return st.Transcript, nil
}

// RewriteTranscript runs the chunked rewrite over the session's transcript.
// All-or-nothing: a failed chunk leaves no partial result, only the failure
// flag for the retry affordance. Progress is published per chunk.
func (s *Service) RewriteTranscript(ctx context.Context, sessionID string) (*session.State, error) {
	st, err := s.state(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st.Transcript == "" {
		return nil, ErrNoTranscript
	}

	s.publish(sessionID, progress.Event{Type: "rewrite_started"})
	text, err := s.rewriter.Rewrite(ctx, st.Transcript, func(chunk, total int) {
		s.publish(sessionID, progress.Event{Type: "chunk", Chunk: chunk, Total: total})
	})
	if err != nil {
		st.RewriteFailed = true
		st.RewrittenText = ""
		if saveErr := s.sessions.Save(ctx, st); saveErr != nil {
			s.logger.Error("save session after failed rewrite", zap.Error(saveErr), zap.String("session_id", sessionID))
		}
		kind := ErrRewrite
		if errors.Is(err, rewrite.ErrTextTooShort) || errors.Is(err, rewrite.ErrResultTooShort) {
			kind = ErrValidation
		}
		s.publish(sessionID, progress.Event{Type: "rewrite_failed", Error: kind.Error()})
		return st, fmt.Errorf("%w: %v", kind, err)
	}

	st.RewrittenText = text
	st.RewriteFailed = false
	if err := s.sessions.Save(ctx, st); err != nil {
		return nil, err
	}
	s.publish(sessionID, progress.Event{Type: "rewrite_completed"})
	return st, nil
}

// Rewritten returns the last successful rewrite for download.
func (s *Service) Rewritten(ctx context.Context, sessionID string) (string, error) {
	st, err := s.state(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if st.RewrittenText == "" {
		return "", ErrNoTranscript
	}
	return st.RewrittenText, nil
}

// State returns the session's current workflow state without side effects.
func (s *Service) State(ctx context.Context, sessionID string) (*session.State, error) {
	return s.state(ctx, sessionID)
}

// Reset clears the session's workflow state.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

func (s *Service) publish(sessionID string, ev progress.Event) {
	if s.progress != nil {
		s.progress.Publish(sessionID, ev)
	}
}

func wrapStorage(err error) error {
	if storage.IsAuthError(err) {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
