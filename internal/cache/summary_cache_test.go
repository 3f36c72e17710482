package cache

import (
	"strings"
	"testing"
)

func TestSummaryKey(t *testing.T) {
	base := SummaryRequest{Text: "some text", Style: "brief", Backend: "minimal", MaxChunkLength: 1000}
	a := SummaryKey(base)
	if !strings.HasPrefix(a, "summary:minimal:brief:1000:") {
		t.Fatalf("unexpected key prefix %q", a)
	}
	if a != SummaryKey(base) {
		t.Fatalf("key is not deterministic")
	}

	tests := []struct {
		name   string
		mutate func(r *SummaryRequest)
	}{
		{"style", func(r *SummaryRequest) { r.Style = "academic" }},
		{"backend", func(r *SummaryRequest) { r.Backend = "bart" }},
		{"text", func(r *SummaryRequest) { r.Text = "other text" }},
		{"chunk limit", func(r *SummaryRequest) { r.MaxChunkLength = 200 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			if SummaryKey(req) == a {
				t.Fatalf("%s must change the key", tt.name)
			}
		})
	}
}
