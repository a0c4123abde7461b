package scoring

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/corpus"
)

func TestLoadOnMissingFileReturnsDefaults(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "scoring-rules.json"))

	got, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := corpus.DefaultScoringRules(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "scoring-rules.json"))

	rules := corpus.DefaultScoringRules()
	rules.TodoKeywordMatch = 99
	rules.MaxSections = 3
	rules.PriorityFlags.CriticalFeedback = corpus.FlagLimits{SoftLimit: 1, HardLimit: 2}

	if err := s.Save(rules); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, rules) {
		t.Fatalf("got %+v, want %+v", got, rules)
	}
}

func TestSaveOverwritesPreviousRecord(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "scoring-rules.json"))

	first := corpus.DefaultScoringRules()
	first.TagMatch = 1
	if err := s.Save(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := corpus.DefaultScoringRules()
	second.TagMatch = 2
	if err := s.Save(second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TagMatch != 2 {
		t.Fatalf("expected the second save to win, got TagMatch=%d", got.TagMatch)
	}
}
