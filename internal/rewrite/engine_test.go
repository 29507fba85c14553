package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type rewriterStub struct {
	responses map[string]string // chunk -> reply; missing key falls through to fn
	fn        func(chunk string) (string, error)
	calls     []string
}

func (s *rewriterStub) RewriteChunk(ctx context.Context, chunk string) (string, error) {
	_ = ctx
	s.calls = append(s.calls, chunk)
	if s.responses != nil {
		if out, ok := s.responses[chunk]; ok {
			return out, nil
		}
	}
	if s.fn != nil {
		return s.fn(chunk)
	}
	return "rewritten: " + chunk, nil
}

func TestSplitChunksBoundaries(t *testing.T) {
	cases := []struct {
		length int
		want   int
	}{
		{1, 1},
		{3999, 1},
		{4000, 1},
		{4001, 2},
		{8000, 2},
		{9000, 3},
	}
	for _, tc := range cases {
		text := strings.Repeat("a", tc.length)
		chunks := SplitChunks(text, DefaultMaxChunkChars)
		if len(chunks) != tc.want {
			t.Fatalf("length %d: got %d chunks, want %d", tc.length, len(chunks), tc.want)
		}
		if strings.Join(chunks, "") != text {
			t.Fatalf("length %d: chunks do not reassemble to source", tc.length)
		}
	}
}

func TestSplitChunksCountsRunesNotBytes(t *testing.T) {
	// 10 runes, 14 bytes; a byte-based split at 7 would cut mid-character.
	text := strings.Repeat("ñandú", 2)
	chunks := SplitChunks(text, 7)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if strings.Join(chunks, "") != text {
		t.Fatal("rune split corrupted the text")
	}
}

func TestRewriteTooShort(t *testing.T) {
	e := NewEngine(&rewriterStub{}, 0, nil, nil)

	for _, input := range []string{"", "   ", "corto", "  nueve ch "} {
		if _, err := e.Rewrite(context.Background(), input, nil); !errors.Is(err, ErrTextTooShort) {
			t.Fatalf("input %q: expected ErrTextTooShort, got %v", input, err)
		}
	}
}

func TestRewriteJoinsInOrder(t *testing.T) {
	stub := &rewriterStub{responses: map[string]string{
		strings.Repeat("a", 4000): "uno uno uno",
		strings.Repeat("b", 4000): "dos dos dos",
		strings.Repeat("c", 1000): "tres tres",
	}}
	e := NewEngine(stub, 0, nil, nil)

	source := strings.Repeat("a", 4000) + strings.Repeat("b", 4000) + strings.Repeat("c", 1000)
	final, err := e.Rewrite(context.Background(), source, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if final != "uno uno uno\n\ndos dos dos\n\ntres tres" {
		t.Fatalf("unexpected final text: %q", final)
	}
	if len(stub.calls) != 3 {
		t.Fatalf("expected 3 chunk calls, got %d", len(stub.calls))
	}
	if stub.calls[0][0] != 'a' || stub.calls[1][0] != 'b' || stub.calls[2][0] != 'c' {
		t.Fatal("chunks were not processed in source order")
	}
}

func TestRewriteAllOrNothing(t *testing.T) {
	call := 0
	stub := &rewriterStub{fn: func(chunk string) (string, error) {
		call++
		if call == 2 {
			return "", errors.New("rate limited")
		}
		return "rewritten chunk content", nil
	}}
	e := NewEngine(stub, 0, nil, nil)

	source := strings.Repeat("x", 9000)
	final, err := e.Rewrite(context.Background(), source, nil)
	if err == nil {
		t.Fatal("expected failure when chunk 2 of 3 fails")
	}
	if final != "" {
		t.Fatalf("partial output surfaced: %q", final)
	}
	if !strings.Contains(err.Error(), "chunk 2/3") {
		t.Fatalf("error should name the failed chunk: %v", err)
	}
	if call != 2 {
		t.Fatalf("processing should stop at the failed chunk, got %d calls", call)
	}
}

func TestRewriteCancelledBetweenChunks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stub := &rewriterStub{fn: func(chunk string) (string, error) {
		cancel()
		return "rewritten chunk content", nil
	}}
	e := NewEngine(stub, 0, nil, nil)

	_, err := e.Rewrite(ctx, strings.Repeat("x", 8000), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(stub.calls) != 1 {
		t.Fatalf("expected processing to stop after cancellation, got %d calls", len(stub.calls))
	}
}

func TestRewriteStripsBoilerplate(t *testing.T) {
	stub := &rewriterStub{fn: func(chunk string) (string, error) {
		return "Aquí está el texto reescrito:\n\nHola mundo, esto es suficiente texto.", nil
	}}
	e := NewEngine(stub, 0, nil, nil)

	final, err := e.Rewrite(context.Background(), "texto original con largo suficiente", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if final != "Hola mundo, esto es suficiente texto." {
		t.Fatalf("boilerplate not stripped: %q", final)
	}
}

func TestStripBoilerplate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Aquí está el texto reescrito:\n\nHola mundo", "Hola mundo"},
		{"  Texto reescrito: Hola  ", "Hola"},
		{"Here is the rewritten text: Texto reescrito: doble", "doble"},
		{"sin prefacio", "sin prefacio"},
	}
	for _, tc := range cases {
		if got := StripBoilerplate(tc.in, DefaultStripPrefixes); got != tc.want {
			t.Fatalf("StripBoilerplate(%q): got %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestRewriteEmptyChunkResponseAborts(t *testing.T) {
	stub := &rewriterStub{fn: func(chunk string) (string, error) {
		return "Texto reescrito:", nil // nothing left after stripping
	}}
	e := NewEngine(stub, 0, nil, nil)

	if _, err := e.Rewrite(context.Background(), "texto original con largo suficiente", nil); err == nil {
		t.Fatal("expected failure for empty chunk response")
	}
}

func TestRewriteResultTooShort(t *testing.T) {
	stub := &rewriterStub{fn: func(chunk string) (string, error) {
		return "ok", nil
	}}
	e := NewEngine(stub, 0, nil, nil)

	if _, err := e.Rewrite(context.Background(), "texto original con largo suficiente", nil); !errors.Is(err, ErrResultTooShort) {
		t.Fatalf("expected ErrResultTooShort, got %v", err)
	}
}

func TestRewriteReportsProgress(t *testing.T) {
	e := NewEngine(&rewriterStub{fn: func(chunk string) (string, error) {
		return "rewritten chunk content", nil
	}}, 0, nil, nil)

	var events []string
	progress := func(chunk, total int) {
		events = append(events, fmt.Sprintf("%d/%d", chunk, total))
	}

	if _, err := e.Rewrite(context.Background(), strings.Repeat("x", 9000), progress); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"1/3", "2/3", "3/3"}
	if len(events) != len(want) {
		t.Fatalf("unexpected progress events: %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("unexpected progress events: %v", events)
		}
	}
}
