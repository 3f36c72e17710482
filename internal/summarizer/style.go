package summarizer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"papermind/internal/chunker"
)

var ErrUnknownStyle = errors.New("unknown summary style")

// Style names a presentation profile for rule-based summaries.
type Style string

const (
	StyleAcademic Style = "academic"
	StyleBrief    Style = "brief"
	StyleDetailed Style = "detailed"

	DefaultStyle = StyleAcademic
)

// StyleProfile controls which sentences a style prefers and how many it keeps.
type StyleProfile struct {
	Name      Style    `json:"name"`
	Keywords  []string `json:"keywords"`
	Sentences int      `json:"sentences"`
}

// StyleRegistry holds the named profiles. Profiles can be added but never
// replaced or removed.
type StyleRegistry struct {
	mu       sync.RWMutex
	profiles map[Style]StyleProfile
}

func NewStyleRegistry() *StyleRegistry {
	r := &StyleRegistry{profiles: make(map[Style]StyleProfile)}
	for _, p := range []StyleProfile{
		{
			Name:      StyleAcademic,
			Keywords:  []string{"results", "conclusion", "findings", "analysis", "study", "research", "data", "significant"},
			Sentences: 3,
		},
		{
			Name:      StyleBrief,
			Keywords:  []string{"main", "key", "important", "primary", "essential"},
			Sentences: 2,
		},
		{
			Name:      StyleDetailed,
			Keywords:  []string{"method", "approach", "technique", "process", "implementation"},
			Sentences: 5,
		},
	} {
		r.profiles[p.Name] = p
	}
	return r
}

// Register adds a new profile. Existing names are rejected.
func (r *StyleRegistry) Register(p StyleProfile) error {
	name := Style(strings.ToLower(strings.TrimSpace(string(p.Name))))
	if name == "" || p.Sentences <= 0 {
		return fmt.Errorf("invalid style profile %q", p.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[name]; ok {
		return fmt.Errorf("style %q already registered", name)
	}
	p.Name = name
	p.Keywords = append([]string(nil), p.Keywords...)
	r.profiles[name] = p
	return nil
}

// Parse resolves a style name. An empty name selects the default style;
// names that are not registered return ErrUnknownStyle.
func (r *StyleRegistry) Parse(name string) (Style, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultStyle, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.profiles[Style(name)]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownStyle, name)
	}
	return Style(name), nil
}

// Profile returns the profile for style, falling back to the default style.
func (r *StyleRegistry) Profile(style Style) StyleProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.profiles[style]; ok {
		return p
	}
	return r.profiles[DefaultStyle]
}

// Names lists the registered styles alphabetically.
func (r *StyleRegistry) Names() []Style {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Style, 0, len(r.profiles))
	for name := range r.profiles {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Styled picks the sentences that mention the style's keywords most often,
// best first, keeping encounter order among equal scores. Sentences that
// match no keyword are never picked; when nothing matches, the extractive
// summary with the style's sentence count is returned instead.
func (r *StyleRegistry) Styled(text string, style Style) string {
	profile := r.Profile(style)
	text = normalizeWhitespace(text)
	sentences := chunker.Sentences(text)

	type scored struct {
		text  string
		score int
	}
	candidates := make([]scored, 0, len(sentences))
	for _, s := range sentences {
		lower := strings.ToLower(s)
		score := 0
		for _, kw := range profile.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, scored{text: s, score: score})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	n := profile.Sentences
	if n > len(sentences) {
		n = len(sentences)
	}
	if n > len(candidates) {
		n = len(candidates)
	}
	picked := make([]string, n)
	for i := 0; i < n; i++ {
		picked[i] = candidates[i].text
	}

	summary := strings.Join(picked, " ")
	if strings.TrimSpace(summary) == "" {
		count := profile.Sentences
		if len(sentences) > 0 && count > len(sentences) {
			count = len(sentences)
		}
		return Extractive(text, count)
	}
	return summary
}
