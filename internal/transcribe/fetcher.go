package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrMalformedResult is returned when the result payload does not carry a
// usable transcript. An empty transcript is a fetch failure, never a silent
// empty result.
var ErrMalformedResult = errors.New("transcribe: malformed transcript payload")

// Fetcher downloads and parses a completed job's result payload.
type Fetcher struct {
	client *http.Client
	logger *zap.Logger
}

// NewFetcher creates a fetcher with a bounded request timeout.
func NewFetcher(timeout time.Duration, logger *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// The provider's result shape: results.transcripts[0].transcript.
type resultPayload struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

// Fetch retrieves the transcript text from the job's result location.
func (f *Fetcher) Fetch(ctx context.Context, resultURI string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURI, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download transcript: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download transcript: status %d", resp.StatusCode)
	}

	var payload resultPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	if len(payload.Results.Transcripts) == 0 {
		return "", fmt.Errorf("%w: no transcripts", ErrMalformedResult)
	}
	text := payload.Results.Transcripts[0].Transcript
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty transcript", ErrMalformedResult)
	}

	f.logger.Debug("transcript fetched", zap.Int("chars", len(text)))
	return text, nil
}
