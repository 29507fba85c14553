// Package rewrite splits long text into bounded chunks, rewrites each chunk
// through a language-model service and reassembles the result in order.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	// DefaultMaxChunkChars bounds one rewrite call's input. The rewriting
	// service imposes a context limit; chunks are cut by character position,
	// not by sentence boundaries.
	DefaultMaxChunkChars = 4000
	// MinTextChars is the minimum trimmed length accepted for input and
	// required of the joined output.
	MinTextChars = 10
)

var (
	// ErrTextTooShort rejects input below MinTextChars; retrying without
	// different input cannot succeed.
	ErrTextTooShort = errors.New("rewrite: text too short")
	// ErrResultTooShort rejects a joined result below MinTextChars.
	ErrResultTooShort = errors.New("rewrite: result too short")
)

// DefaultStripPrefixes are the conversational lead-ins the model tends to
// prepend despite the prompt. Best-effort post-filter; the list follows the
// model's framing language and may need updating across model versions.
var DefaultStripPrefixes = []string{
	"Aquí está el texto reescrito:",
	"Aquí está la versión reescrita:",
	"Texto reescrito:",
	"Here is the rewritten text:",
	"Here's the rewritten text:",
	"Rewritten text:",
}

// ChunkRewriter produces the rewritten form of a single chunk.
type ChunkRewriter interface {
	RewriteChunk(ctx context.Context, chunk string) (string, error)
}

// Progress is invoked before each chunk call with a 1-based index.
type Progress func(chunk, total int)

// Engine performs the full chunked rewrite. Chunks are processed
// sequentially; one failed chunk aborts the whole operation and no partial
// output is ever returned.
type Engine struct {
	rewriter      ChunkRewriter
	maxChunkChars int
	stripPrefixes []string
	logger        *zap.Logger
}

// NewEngine creates a rewrite engine. Zero maxChunkChars and nil
// stripPrefixes select the defaults.
func NewEngine(rw ChunkRewriter, maxChunkChars int, stripPrefixes []string, logger *zap.Logger) *Engine {
	if maxChunkChars <= 0 {
		maxChunkChars = DefaultMaxChunkChars
	}
	if stripPrefixes == nil {
		stripPrefixes = DefaultStripPrefixes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		rewriter:      rw,
		maxChunkChars: maxChunkChars,
		stripPrefixes: stripPrefixes,
		logger:        logger,
	}
}

// SplitChunks cuts text into contiguous chunks of at most max characters
// (runes, so multibyte text never splits mid-character). The last chunk may
// be shorter.
func SplitChunks(text string, max int) []string {
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+max-1)/max)
	for start := 0; start < len(runes); start += max {
		end := start + max
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// StripBoilerplate removes known lead-in phrases and surrounding whitespace
// from a model response. Repeats until no prefix matches, in case the model
// stacks framings.
func StripBoilerplate(text string, prefixes []string) string {
	out := strings.TrimSpace(text)
	for {
		stripped := false
		for _, p := range prefixes {
			if strings.HasPrefix(out, p) {
				out = strings.TrimSpace(strings.TrimPrefix(out, p))
				stripped = true
			}
		}
		if !stripped {
			return out
		}
	}
}

// Rewrite transforms the whole source text. On success every input chunk has
// exactly one rewritten counterpart, joined in original order with a blank
// line. Any chunk failure, including context cancellation between chunks,
// fails the entire operation.
func (e *Engine) Rewrite(ctx context.Context, source string, progress Progress) (string, error) {
	if utf8.RuneCountInString(strings.TrimSpace(source)) < MinTextChars {
		return "", ErrTextTooShort
	}

	chunks := SplitChunks(source, e.maxChunkChars)
	rewritten := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("rewrite chunk %d/%d: %w", i+1, len(chunks), err)
		}
		if progress != nil {
			progress(i+1, len(chunks))
		}

		out, err := e.rewriter.RewriteChunk(ctx, chunk)
		if err != nil {
			e.logger.Warn("chunk rewrite failed", zap.Int("chunk", i+1), zap.Int("total", len(chunks)), zap.Error(err))
			return "", fmt.Errorf("rewrite chunk %d/%d: %w", i+1, len(chunks), err)
		}
		cleaned := StripBoilerplate(out, e.stripPrefixes)
		if cleaned == "" {
			return "", fmt.Errorf("rewrite chunk %d/%d: empty response", i+1, len(chunks))
		}
		rewritten = append(rewritten, cleaned)
	}

	final := strings.Join(rewritten, "\n\n")
	if utf8.RuneCountInString(strings.TrimSpace(final)) < MinTextChars {
		return "", ErrResultTooShort
	}

	e.logger.Info("rewrite completed", zap.Int("chunks", len(chunks)), zap.Int("chars", len(final)))
	return final, nil
}
