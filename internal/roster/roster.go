// Package roster holds the fixed team rosters and the fuzzy name-membership
// test used to attribute call records to teams despite free-text agent names.
package roster

import (
	"sort"
	"strings"
	"unicode"
)

// RatioCut is the similarity threshold for the fuzzy fallback. The value and
// the substring/token rules are a deliberate precision/recall trade-off;
// changing them changes which historical reports reproduce.
const RatioCut = 0.85

// Normalize lowercases a free-text name, drops everything that is not a
// letter, digit or space, and collapses whitespace runs.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Team is a named roster of canonical agent names, normalized once at
// construction and never mutated.
type Team struct {
	Tag     string
	members []string
}

// NewTeam normalizes the given names into a team roster. Names that
// normalize to the empty string are dropped.
func NewTeam(tag string, names []string) Team {
	members := make([]string, 0, len(names))
	for _, n := range names {
		if norm := Normalize(n); norm != "" {
			members = append(members, norm)
		}
	}
	return Team{Tag: tag, members: members}
}

// Members returns the normalized roster entries.
func (t Team) Members() []string {
	out := make([]string, len(t.members))
	copy(out, t.members)
	return out
}

// Matches reports whether a raw agent name belongs to the team. A name
// matches when, against any roster entry: either normalized string contains
// the other, any token of the entry appears in the name, or the similarity
// ratio reaches RatioCut. An empty normalized name never matches.
func (t Team) Matches(raw string) bool {
	n := Normalize(raw)
	if n == "" {
		return false
	}
	for _, m := range t.members {
		if strings.Contains(n, m) || strings.Contains(m, n) {
			return true
		}
		tokenHit := false
		for _, tok := range strings.Fields(m) {
			if strings.Contains(n, tok) {
				tokenHit = true
				break
			}
		}
		if tokenHit {
			return true
		}
		if Ratio(n, m) >= RatioCut {
			return true
		}
	}
	return false
}

// Set is a read-only collection of teams keyed by tag, case-insensitively.
type Set struct {
	teams map[string]Team
	tags  []string
}

// NewSet builds a team set. Later teams with a colliding tag replace
// earlier ones.
func NewSet(teams ...Team) *Set {
	s := &Set{teams: make(map[string]Team, len(teams))}
	for _, t := range teams {
		key := strings.ToLower(t.Tag)
		if _, exists := s.teams[key]; !exists {
			s.tags = append(s.tags, t.Tag)
		}
		s.teams[key] = t
	}
	sort.Strings(s.tags)
	return s
}

// Get looks a team up by tag, case-insensitively.
func (s *Set) Get(tag string) (Team, bool) {
	t, ok := s.teams[strings.ToLower(tag)]
	return t, ok
}

// Tags returns the known team tags in sorted order.
func (s *Set) Tags() []string {
	out := make([]string, len(s.tags))
	copy(out, s.tags)
	return out
}

// Ratio is the difflib-style similarity measure over two strings: twice the
// total length of all longest matching blocks divided by the combined
// length, in [0, 1]. Junk heuristics are intentionally omitted; roster
// names are short.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	m := matchedRunes(ra, rb, 0, len(ra), 0, len(rb))
	return 2 * float64(m) / float64(total)
}

func matchedRunes(a, b []rune, alo, ahi, blo, bhi int) int {
	i, j, k := longestMatch(a, b, alo, ahi, blo, bhi)
	if k == 0 {
		return 0
	}
	return k + matchedRunes(a, b, alo, i, blo, j) + matchedRunes(a, b, i+k, ahi, j+k, bhi)
}

// longestMatch finds the longest block a[i:i+k] == b[j:j+k] within the given
// bounds, earliest in a then in b on ties.
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (besti, bestj, bestk int) {
	besti, bestj = alo, blo
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		next := make(map[int]int)
		for j := blo; j < bhi; j++ {
			if a[i] != b[j] {
				continue
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return besti, bestj, bestk
}

// DefaultTeams returns the compiled-in rosters. They mirror the production
// configuration; deployments override them via the YAML config file.
func DefaultTeams() []Team {
	return []Team{
		NewTeam("B2C", []string{
			"Kamaldeep singh",
			"Ria Arora",
			"ayushman jetlearn",
			"Shujaat Shafqat",
			"Unmesh Kamble",
			"Ziyaulhaq Badr",
			"Visakha",
			"Jay Nayak",
			"Ankush Kumar",
			"Fuzail Saudagar",
			"Aniket Srivastava",
			"Shahbaz Ali",
			"Vikas Jha",
		}),
		NewTeam("MT", []string{
			"AYUSHMAN",
		}),
	}
}

// DefaultSet wraps DefaultTeams in a Set.
func DefaultSet() *Set {
	return NewSet(DefaultTeams()...)
}
