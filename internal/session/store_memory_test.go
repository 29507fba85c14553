package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clipscribe/backend/internal/transcribe"
	"github.com/clipscribe/backend/pkg/storage"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	state := &State{
		ID:    "sess-1",
		Video: &storage.Asset{Key: "videos/a.mp4", StorageURI: "s3://b/videos/a.mp4"},
		JobID: "transcription_1_x",
	}

	if err := store.Save(context.Background(), state); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Video == nil || got.Video.Key != "videos/a.mp4" || got.JobID != "transcription_1_x" {
		t.Fatalf("unexpected state: %+v", got)
	}

	// Returned state is a copy; mutating it must not affect the store.
	got.JobID = "mutated"
	again, _ := store.Get(context.Background(), "sess-1")
	if again.JobID != "transcription_1_x" {
		t.Fatal("store state was mutated through a returned copy")
	}
}

func TestMemoryStoreMiss(t *testing.T) {
	store := NewMemoryStore(time.Hour)

	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	current := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	store.WithNowFunc(func() time.Time { return current })

	_ = store.Save(context.Background(), &State{ID: "sess-1"})

	current = current.Add(2 * time.Hour)
	if _, err := store.Get(context.Background(), "sess-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	_ = store.Save(context.Background(), &State{ID: "sess-1"})

	if err := store.Delete(context.Background(), "sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(context.Background(), "sess-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStateStartJobClearsPriorArtifacts(t *testing.T) {
	state := &State{
		ID:            "sess-1",
		JobID:         "transcription_1_old",
		JobStatus:     transcribe.StatusFailed,
		JobError:      "unsupported codec",
		StartFailed:   true,
		Transcript:    "old transcript",
		RewrittenText: "old rewrite",
		RewriteFailed: true,
	}

	state.StartJob("transcription_2_new")

	if state.JobID != "transcription_2_new" || state.JobStatus != transcribe.StatusInProgress {
		t.Fatalf("unexpected job fields: %+v", state)
	}
	if state.Transcript != "" || state.RewrittenText != "" || state.JobError != "" {
		t.Fatalf("stale artifacts survived: %+v", state)
	}
	if state.StartFailed || state.RewriteFailed {
		t.Fatalf("failure flags survived: %+v", state)
	}
	if !state.ActiveJob() {
		t.Fatal("fresh job must be active")
	}
}
