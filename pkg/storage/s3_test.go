package storage

import (
	"strings"
	"testing"
	"time"
)

func TestVideoKey(t *testing.T) {
	now := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)
	key := VideoKey("lecture.mp4", now, "abcd1234")

	want := "videos/20240102_150405_abcd1234.mp4"
	if key != want {
		t.Fatalf("unexpected key: got %s want %s", key, want)
	}
}

func TestVideoKeyNoExtension(t *testing.T) {
	now := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)
	key := VideoKey("lecture", now, "abcd1234")

	if strings.Contains(key, ".") {
		t.Fatalf("expected no extension, got %s", key)
	}
	if !strings.HasPrefix(key, "videos/") {
		t.Fatalf("expected videos/ prefix, got %s", key)
	}
}

func TestMatchKeySubstring(t *testing.T) {
	keys := []string{
		"videos/20231231_235959_deadbeef_other.mp4",
		"videos/20240101_000000_abcd1234_clip.mp4",
	}

	key, ok := MatchKey(keys, "clip.mp4")
	if !ok {
		t.Fatal("expected a match")
	}
	if key != "videos/20240101_000000_abcd1234_clip.mp4" {
		t.Fatalf("unexpected match: %s", key)
	}
}

func TestMatchKeyFirstWins(t *testing.T) {
	keys := []string{
		"videos/a_clip.mp4",
		"videos/b_clip.mp4",
	}

	key, ok := MatchKey(keys, "clip.mp4")
	if !ok || key != "videos/a_clip.mp4" {
		t.Fatalf("expected first listed key to win, got %q ok=%v", key, ok)
	}
}

func TestMatchKeyMiss(t *testing.T) {
	keys := []string{"videos/20240101_000000_abcd1234_clip.mp4"}

	if _, ok := MatchKey(keys, "missing.mp4"); ok {
		t.Fatal("expected no match")
	}
	if _, ok := MatchKey(keys, ""); ok {
		t.Fatal("empty filename must never match")
	}
}
