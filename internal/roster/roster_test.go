package roster

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"Lowercases", "Kamaldeep Singh", "kamaldeep singh"},
		{"StripsPunctuation", "O'Brien, J.R.", "obrien jr"},
		{"CollapsesWhitespace", "  Ria \t Arora  ", "ria arora"},
		{"KeepsDigits", "Agent 007", "agent 007"},
		{"Empty", "", ""},
		{"OnlyPunctuation", "?!.,", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.expected)
			}
		})
	}
}

func TestTeamMatches(t *testing.T) {
	team := NewTeam("B2C", []string{"ayushman jetlearn"})

	tests := []struct {
		name     string
		raw      string
		expected bool
	}{
		{"ExactAfterNormalize", "Ayushman Jetlearn", true},
		{"EntryContainsName", "Ayushman J", true},
		{"TokenContainment", "Jetlearn (Support)", true},
		{"MinorTypoViaRatio", "ayushman jetlaern", true},
		{"Unrelated", "Someone Else", false},
		{"Empty", "", false},
		{"OnlyPunctuation", "---", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := team.Matches(tt.raw); got != tt.expected {
				t.Errorf("Matches(%q) = %v, want %v", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestEmptyNameNeverMatches(t *testing.T) {
	for _, team := range DefaultTeams() {
		if team.Matches("") {
			t.Errorf("empty name matched team %s", team.Tag)
		}
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"Identical", "abc", "abc", 1},
		{"Disjoint", "abc", "xyz", 0},
		{"BothEmpty", "", "", 1},
		// difflib's documented example.
		{"ClassicExample", "abcd", "bcde", 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ratio(tt.a, tt.b); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}

	t.Run("ThresholdBehaviour", func(t *testing.T) {
		// One transposition in a 16-rune name stays above the cut.
		if Ratio("ayushman jetlearn", "ayushman jetlaern") < RatioCut {
			t.Error("single transposition should stay above the cut")
		}
		if Ratio("ayushman", "completely different") >= RatioCut {
			t.Error("unrelated strings must stay below the cut")
		}
	})
}

func TestSetLookup(t *testing.T) {
	set := DefaultSet()

	if _, ok := set.Get("b2c"); !ok {
		t.Error("tag lookup must be case-insensitive")
	}
	if _, ok := set.Get("MT"); !ok {
		t.Error("MT team missing from defaults")
	}
	if _, ok := set.Get("nope"); ok {
		t.Error("unknown tag must not resolve")
	}

	tags := set.Tags()
	if len(tags) != 2 || tags[0] != "B2C" || tags[1] != "MT" {
		t.Errorf("Tags() = %v, want [B2C MT]", tags)
	}
}

func TestMTTeamFuzzy(t *testing.T) {
	set := DefaultSet()
	mt, _ := set.Get("MT")

	// Token and substring rules pick up the full display name.
	if !mt.Matches("Ayushman Jetlearn") {
		t.Error("MT roster should match via substring containment")
	}
	if mt.Matches("Kamaldeep Singh") {
		t.Error("MT roster must not match unrelated agents")
	}
}
