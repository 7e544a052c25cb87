package analytics

import (
	"testing"

	"talktime/internal/callog"
)

func TestAggregateSingleRowGroup(t *testing.T) {
	records := []callog.Record{rec("A", "IN", 42.5, 1)}
	s, err := Aggregate(records, []Dimension{DimAgent}, SortByCalls)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(s.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(s.Rows))
	}
	r := s.Rows[0]
	if r.Count != 1 || r.Sum != 42.5 || *r.Mean != 42.5 || *r.Median != 42.5 {
		t.Errorf("single-row group: count=%d sum=%v mean=%v median=%v", r.Count, r.Sum, *r.Mean, *r.Median)
	}
}

func TestAggregateCoversEveryGroup(t *testing.T) {
	records := []callog.Record{
		rec("A", "IN", 10, 1),
		rec("B", "US", 20, 1),
		rec("A", "UK", 30, 1),
		rec("C", "IN", 40, 1),
		noDuration("B", 1),
	}
	s, err := Aggregate(records, []Dimension{DimAgent}, SortByCalls)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(s.Rows) != 3 {
		t.Fatalf("got %d groups, want 3 distinct agents", len(s.Rows))
	}
	total := 0
	for _, r := range s.Rows {
		total += r.Count
	}
	if total != len(records) {
		t.Errorf("counts sum to %d, want %d", total, len(records))
	}
}

func TestAggregateMissingDimensionIsItsOwnGroup(t *testing.T) {
	records := []callog.Record{
		rec("A", "IN", 10, 1),
		rec("", "IN", 20, 1),
		rec("", "US", 5, 1),
	}
	s, err := Aggregate(records, []Dimension{DimAgent}, SortByCalls)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(s.Rows) != 2 {
		t.Fatalf("got %d groups, want 2 (A and the missing group)", len(s.Rows))
	}
	// The missing group has two calls and sorts first under SortByCalls.
	if s.Rows[0].Keys[0] != "" || s.Rows[0].Count != 2 {
		t.Errorf("missing group not preserved: %+v", s.Rows[0])
	}
}

func TestAggregateMissingDurationsCountButDontSkew(t *testing.T) {
	records := []callog.Record{
		noDuration("A", 1),
		noDuration("A", 1),
	}
	s, err := Aggregate(records, []Dimension{DimAgent}, SortByCalls)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	r := s.Rows[0]
	if r.Count != 2 {
		t.Errorf("count = %d, want 2, counts include missing durations", r.Count)
	}
	if r.Mean != nil || r.Median != nil {
		t.Error("mean/median must be the missing marker when no duration parsed, never zero")
	}
	if r.Sum != 0 {
		t.Errorf("sum = %v, want 0 for an all-missing group", r.Sum)
	}
}

func TestAggregateSortOrder(t *testing.T) {
	records := []callog.Record{
		rec("low", "IN", 1, 1),
		rec("high", "IN", 100, 1),
		rec("high", "IN", 100, 1),
		rec("tie", "IN", 500, 1),
		rec("tie", "IN", 1, 1),
	}

	s, _ := Aggregate(records, []Dimension{DimAgent}, SortByCalls)
	// "tie" and "high" both have 2 calls; "tie" wins on sum (501 > 200).
	if s.Rows[0].Keys[0] != "tie" || s.Rows[1].Keys[0] != "high" || s.Rows[2].Keys[0] != "low" {
		t.Errorf("SortByCalls order = %v %v %v", s.Rows[0].Keys, s.Rows[1].Keys, s.Rows[2].Keys)
	}

	s, _ = Aggregate(records, []Dimension{DimAgent}, SortByDuration)
	if s.Rows[0].Keys[0] != "tie" {
		t.Errorf("SortByDuration should rank 'tie' (501s) first, got %v", s.Rows[0].Keys)
	}
}

func TestAggregateTwoDimensions(t *testing.T) {
	records := []callog.Record{
		rec("A", "IN", 10, 1),
		rec("A", "US", 20, 1),
		rec("A", "IN", 30, 1),
	}
	s, err := Aggregate(records, []Dimension{DimAgent, DimCountry}, SortByCalls)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(s.Rows) != 2 {
		t.Fatalf("got %d groups, want 2", len(s.Rows))
	}
	top := s.Rows[0]
	if top.Keys[0] != "A" || top.Keys[1] != "IN" || top.Count != 2 || top.Sum != 40 {
		t.Errorf("top group = %+v, want A/IN count=2 sum=40", top)
	}
}

func TestAggregateGroupsByExactTuple(t *testing.T) {
	// Control characters in cells must not merge adjacent groups.
	records := []callog.Record{
		rec("a\x1fb", "c", 10, 1),
		rec("a", "b\x1fc", 20, 1),
	}
	s, err := Aggregate(records, []Dimension{DimAgent, DimCountry}, SortByCalls)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(s.Rows) != 2 {
		t.Fatalf("got %d groups, want 2 distinct tuples", len(s.Rows))
	}
	for _, r := range s.Rows {
		if r.Count != 1 {
			t.Errorf("group %q merged: count = %d, want 1", r.Keys, r.Count)
		}
	}
}

func TestDimensionResolved(t *testing.T) {
	sc := callog.Schema{Agent: "Caller", Country: "Country Name"}
	if !DimAgent.Resolved(sc) || !DimCountry.Resolved(sc) {
		t.Error("resolved roles must report true")
	}
	if DimCallType.Resolved(sc) || DimCallStatus.Resolved(sc) {
		t.Error("unresolved roles must report false")
	}
}

func TestAggregateDimensionArity(t *testing.T) {
	if _, err := Aggregate(nil, nil, SortByCalls); err == nil {
		t.Error("zero dimensions must be rejected")
	}
	if _, err := Aggregate(nil, []Dimension{DimAgent, DimCountry, DimCallType}, SortByCalls); err == nil {
		t.Error("three dimensions must be rejected")
	}
}

func TestParseDimension(t *testing.T) {
	if d, err := ParseDimension(" Agent "); err != nil || d != DimAgent {
		t.Errorf("ParseDimension(' Agent ') = %v, %v", d, err)
	}
	if _, err := ParseDimension("duration"); err == nil {
		t.Error("duration is a value field, not a dimension")
	}
}

// End-to-end scenario: threshold 60, talktime mode. A's 30s call is
// excluded from talktime aggregates but still counted as an attempt.
func TestTalktimePipelineScenario(t *testing.T) {
	records := []callog.Record{
		rec("A", "IN", 60, 1),  // "1:00"
		rec("A", "IN", 30, 1),  // "0:30"
		rec("B", "US", 120, 1), // "2:00"
	}

	attempts := Apply(records, Spec{TeamBase: TeamAll}, nil)
	if len(attempts) != 3 {
		t.Fatalf("attempts view should keep every call, got %d", len(attempts))
	}

	talktime := ApplyThreshold(attempts, 60)
	s, err := Aggregate(talktime, []Dimension{DimAgent}, SortByCalls)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(s.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(s.Rows))
	}
	byAgent := map[string]Row{}
	for _, r := range s.Rows {
		byAgent[r.Keys[0]] = r
	}
	if a := byAgent["A"]; a.Count != 1 || a.Sum != 60 {
		t.Errorf("A: count=%d sum=%v, want 1/60", a.Count, a.Sum)
	}
	if b := byAgent["B"]; b.Count != 1 || b.Sum != 120 {
		t.Errorf("B: count=%d sum=%v, want 1/120", b.Count, b.Sum)
	}
}
