package summarizer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

const (
	sectionOne   = "The first section describes the dataset and how it was collected."
	sectionTwo   = "The second section explains the model and its training procedure."
	sectionThree = "The third section reports the evaluation and the remaining open questions."
)

type scriptedModel struct {
	mu    sync.Mutex
	calls int
	fail  map[int]error
	empty map[int]bool
}

func (m *scriptedModel) Summarize(_ context.Context, _ string, maxLength, minLength int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if maxLength <= minLength {
		return "", fmt.Errorf("bad bounds %d/%d", maxLength, minLength)
	}
	if err := m.fail[m.calls]; err != nil {
		return "", err
	}
	if m.empty[m.calls] {
		return "   ", nil
	}
	return fmt.Sprintf("Part %d summary.", m.calls), nil
}

func newTestAssembler(model Abstractive) *Assembler {
	manager := NewManager(BackendBART, func(context.Context, Backend) (Abstractive, error) {
		return model, nil
	})
	return NewAssembler(NewStyleRegistry(), manager, 100)
}

func TestAssembler_StitchesChunkSummaries(t *testing.T) {
	a := newTestAssembler(&scriptedModel{})
	text := sectionOne + " " + sectionTwo + " " + sectionThree

	got := a.Summarize(context.Background(), text, StyleAcademic)
	want := "Part 1 summary. Additionally, part 2 summary. Finally, part 3 summary."
	if got.Summary != want {
		t.Fatalf("expected %q, got %q", want, got.Summary)
	}
	if got.Chunks != 3 || got.Fallbacks != 0 || got.Backend != BackendBART {
		t.Fatalf("unexpected result metadata %+v", got)
	}
}

func TestAssembler_ChunkFailureFallsBackToLeadingSentences(t *testing.T) {
	model := &scriptedModel{
		fail:  map[int]error{2: errors.New("model exploded")},
		empty: map[int]bool{3: true},
	}
	a := newTestAssembler(model)
	var reasons []FailureReason
	a.OnFallback(func(_ Backend, r FailureReason) { reasons = append(reasons, r) })

	text := sectionOne + " " + sectionTwo + " " + sectionThree
	got := a.Summarize(context.Background(), text, StyleBrief)
	want := "Part 1 summary. Additionally, t" + sectionTwo[1:] + " Finally, t" + sectionThree[1:]
	if got.Summary != want {
		t.Fatalf("expected %q, got %q", want, got.Summary)
	}
	if got.Fallbacks != 2 {
		t.Fatalf("expected 2 fallbacks, got %d", got.Fallbacks)
	}
	if len(reasons) != 2 || reasons[0] != FailureBackendError || reasons[1] != FailureMalformed {
		t.Fatalf("unexpected fallback reasons %v", reasons)
	}
}

func TestAssembler_SingleChunkFallbackEqualsFirstThreeSentences(t *testing.T) {
	model := &scriptedModel{fail: map[int]error{1: errors.New("over-length input")}}
	manager := NewManager(BackendT5, func(context.Context, Backend) (Abstractive, error) { return model, nil })
	a := NewAssembler(NewStyleRegistry(), manager, 1000)

	text := "Sentence one has a few words. Sentence two has a few more words. Sentence three is here. Sentence four is dropped"
	got := a.Summarize(context.Background(), text, StyleAcademic)
	want := "Sentence one has a few words. Sentence two has a few more words. Sentence three is here."
	if got.Summary != want {
		t.Fatalf("expected %q, got %q", want, got.Summary)
	}
	if got.Fallbacks != 1 || got.Chunks != 1 {
		t.Fatalf("unexpected result metadata %+v", got)
	}
}

type timeoutModel struct{}

func (timeoutModel) Summarize(ctx context.Context, _ string, _, _ int) (string, error) {
	return "", fmt.Errorf("summarize call: %w", context.DeadlineExceeded)
}

func TestAssembler_TimeoutIsClassified(t *testing.T) {
	a := newTestAssembler(timeoutModel{})
	var reason FailureReason
	a.OnFallback(func(_ Backend, r FailureReason) { reason = r })
	got := a.Summarize(context.Background(), sectionOne+" "+sectionTwo, StyleAcademic)
	if reason != FailureTimeout {
		t.Fatalf("expected timeout reason, got %v", reason)
	}
	if got.Summary == "" || got.Fallbacks != 2 {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestAssembler_MinimalBackendUsesStyleRanker(t *testing.T) {
	styles := NewStyleRegistry()
	a := NewAssembler(styles, NewManager(BackendMinimal, nil), 1000)
	text := paperText
	got := a.Summarize(context.Background(), text, StyleBrief)
	if got.Backend != BackendMinimal || got.Fallbacks != 0 {
		t.Fatalf("unexpected result metadata %+v", got)
	}
	if want := styles.Styled(Preprocess(text), StyleBrief); got.Summary != want {
		t.Fatalf("expected %q, got %q", want, got.Summary)
	}
}

func TestAssembler_TooShort(t *testing.T) {
	a := newTestAssembler(&scriptedModel{})
	got := a.Summarize(context.Background(), "Too short to matter.", StyleAcademic)
	if got.Summary != TooShortMessage || got.Chunks != 0 {
		t.Fatalf("expected too-short message, got %+v", got)
	}
}

func TestStitch(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"Only one."}, "Only one."},
		{[]string{"First.", "Second."}, "First. Finally, second."},
		{[]string{"First.", "Second.", "Third."}, "First. Additionally, second. Finally, third."},
		{[]string{"A.", "B.", "C.", "D."}, "A. Additionally, b. Additionally, c. Finally, d."},
	}
	for _, tt := range tests {
		if got := Stitch(tt.in); got != tt.want {
			t.Fatalf("Stitch(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFirstSentences(t *testing.T) {
	if got := FirstSentences("One. Two! Three? Four.", 3); got != "One. Two! Three?" {
		t.Fatalf("unexpected %q", got)
	}
	if got := FirstSentences("No terminal punctuation here", 3); got != "No terminal punctuation here." {
		t.Fatalf("unexpected %q", got)
	}
}

func TestLengthBounds(t *testing.T) {
	tests := []struct {
		style    Style
		words    int
		max, min int
	}{
		{StyleAcademic, 2000, 150, 40},
		{StyleAcademic, 100, 75, 20},
		{StyleBrief, 750, 60, 15},
		{StyleDetailed, 1000, 250, 80},
		{Style("unknown"), 1000, 150, 40},
	}
	for _, tt := range tests {
		max, min := LengthBounds(tt.style, tt.words)
		if max != tt.max || min != tt.min {
			t.Fatalf("LengthBounds(%s, %d) = (%d, %d), want (%d, %d)", tt.style, tt.words, max, min, tt.max, tt.min)
		}
	}
}

func TestPreprocess(t *testing.T) {
	in := "Results are shown in Fig. 2 [3]. Smith et al. found gains, see https://x.org/a for code and doi:10.1000/xyz123 for data.\n" +
		"Figure 2: Accuracy over time.\n" +
		"Done [1, 2]."
	want := "Results are shown in Fig. 2. Smith and colleagues found gains, see for code and for data. Done."
	if got := Preprocess(in); got != want {
		t.Fatalf("Preprocess =\n %q\nwant\n %q", got, want)
	}
}

func TestManager_LazyLoadHappensOnce(t *testing.T) {
	var loads int32
	m := NewManager(BackendPegasus, func(context.Context, Backend) (Abstractive, error) {
		atomic.AddInt32(&loads, 1)
		return &scriptedModel{}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b, model := m.Current(context.Background()); b != BackendPegasus || model == nil {
				t.Errorf("unexpected backend %s", b)
			}
		}()
	}
	wg.Wait()
	if loads != 1 {
		t.Fatalf("expected exactly one load, got %d", loads)
	}
}

func TestManager_FailedSwitchRevertsToMinimal(t *testing.T) {
	m := NewManager(BackendMinimal, func(_ context.Context, b Backend) (Abstractive, error) {
		if b == BackendT5 {
			return nil, errors.New("model not found")
		}
		return &scriptedModel{}, nil
	})

	if err := m.Switch(context.Background(), BackendBART); err != nil {
		t.Fatalf("switch to bart failed: %v", err)
	}
	if m.Active() != BackendBART {
		t.Fatalf("expected bart active, got %s", m.Active())
	}

	err := m.Switch(context.Background(), BackendT5)
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if b, model := m.Current(context.Background()); b != BackendMinimal || model != nil {
		t.Fatalf("expected minimal after failed switch, got %s", b)
	}

	if err := m.Switch(context.Background(), Backend("gpt")); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestParseBackend(t *testing.T) {
	if b, err := ParseBackend(" BART "); err != nil || b != BackendBART {
		t.Fatalf("expected bart, got %q, %v", b, err)
	}
	if _, err := ParseBackend("llama"); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
	if BackendMinimal.Neural() || !BackendPegasus.Neural() {
		t.Fatalf("unexpected Neural() classification")
	}
}
