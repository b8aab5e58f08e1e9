package screening

import (
	"errors"
	"reflect"
	"testing"
)

func vec(n, fill int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = fill
	}
	return out
}

func TestScore_PHQ9Bands(t *testing.T) {
	cases := []struct {
		total int
		want  RiskLevel
	}{
		{0, RiskMinimal},
		{4, RiskMinimal},
		{5, RiskMild},
		{9, RiskMild},
		{10, RiskModerate},
		{14, RiskModerate},
		{15, RiskModeratelySevere},
		{19, RiskModeratelySevere},
		{20, RiskSevere},
		{27, RiskSevere},
	}
	for _, c := range cases {
		res, err := Score(PHQ9, vectorWithTotal(t, 9, c.total))
		if err != nil {
			t.Fatalf("total %d: %v", c.total, err)
		}
		if res.TotalScore != c.total {
			t.Fatalf("total %d: got TotalScore %d", c.total, res.TotalScore)
		}
		if res.RiskLevel != c.want {
			t.Fatalf("total %d: got %q, want %q", c.total, res.RiskLevel, c.want)
		}
		if res.MaxScore != 27 {
			t.Fatalf("total %d: MaxScore = %d, want 27", c.total, res.MaxScore)
		}
	}
}

func TestScore_GAD7Bands(t *testing.T) {
	cases := []struct {
		total int
		want  RiskLevel
	}{
		{0, RiskMinimal},
		{4, RiskMinimal},
		{5, RiskMild},
		{9, RiskMild},
		{10, RiskModerate},
		{14, RiskModerate},
		{15, RiskSevere}, // no moderately-severe band
		{21, RiskSevere},
	}
	for _, c := range cases {
		res, err := Score(GAD7, vectorWithTotal(t, 7, c.total))
		if err != nil {
			t.Fatalf("total %d: %v", c.total, err)
		}
		if res.RiskLevel != c.want {
			t.Fatalf("total %d: got %q, want %q", c.total, res.RiskLevel, c.want)
		}
		if res.MaxScore != 21 {
			t.Fatalf("total %d: MaxScore = %d, want 21", c.total, res.MaxScore)
		}
	}
}

// vectorWithTotal builds a valid response vector of length n summing to
// total, keeping the last item as low as possible so it does not trip the
// crisis flag by accident.
func vectorWithTotal(t *testing.T, n, total int) []int {
	t.Helper()
	if total > n*3 {
		t.Fatalf("impossible total %d for %d items", total, n)
	}
	out := make([]int, n)
	rem := total
	for i := 0; i < n && rem > 0; i++ {
		v := rem
		if v > 3 {
			v = 3
		}
		out[i] = v
		rem -= v
	}
	return out
}

func TestScore_HighRiskFromModerate(t *testing.T) {
	low, err := Score(GAD7, vectorWithTotal(t, 7, 9))
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if low.IsHighRisk {
		t.Fatalf("mild should not be high risk")
	}

	hi, err := Score(GAD7, vectorWithTotal(t, 7, 10))
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !hi.IsHighRisk {
		t.Fatalf("moderate should be high risk")
	}
}

func TestScore_CrisisOverride(t *testing.T) {
	// low total, but self-harm item answered with 2: crisis regardless
	responses := []int{0, 0, 0, 0, 0, 0, 0, 0, 2}
	res, err := Score(PHQ9, responses)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if res.TotalScore != 2 {
		t.Fatalf("TotalScore = %d, want 2", res.TotalScore)
	}
	if res.RiskLevel != RiskMinimal {
		t.Fatalf("RiskLevel = %q, want minimal", res.RiskLevel)
	}
	if !res.IsCrisis {
		t.Fatalf("expected crisis flag")
	}
	// crisis strings come first in the recommendation list
	if len(res.Recommendations) < 2 || res.Recommendations[0] != crisisRecommendations[0] || res.Recommendations[1] != crisisRecommendations[1] {
		t.Fatalf("expected crisis recommendations prepended, got %v", res.Recommendations)
	}

	// same total, self-harm item below threshold: no crisis
	res2, err := Score(PHQ9, []int{1, 1, 0, 0, 0, 0, 0, 0, 1})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if res2.IsCrisis {
		t.Fatalf("self-harm item 1 must not flag crisis")
	}

	// GAD-7 never raises the crisis flag
	res3, err := Score(GAD7, vec(7, 3))
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if res3.IsCrisis {
		t.Fatalf("GAD-7 must never flag crisis")
	}
}

func TestScore_ReferenceExamples(t *testing.T) {
	res, err := Score(PHQ9, []int{1, 1, 1, 1, 1, 1, 1, 1, 0})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if res.TotalScore != 8 || res.RiskLevel != RiskMild || res.IsHighRisk || res.IsCrisis {
		t.Fatalf("unexpected result: %+v", res)
	}

	res, err = Score(PHQ9, vec(9, 3))
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if res.TotalScore != 27 || res.RiskLevel != RiskSevere || !res.IsHighRisk || !res.IsCrisis {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestScore_InvalidInput(t *testing.T) {
	cases := [][]int{
		nil,
		{},
		vec(8, 1),  // too short for PHQ-9
		vec(10, 1), // too long
		{0, 0, 0, 0, 0, 0, 0, 0, 4},  // out of range high
		{-1, 0, 0, 0, 0, 0, 0, 0, 0}, // out of range low
	}
	for i, c := range cases {
		if _, err := Score(PHQ9, c); !errors.Is(err, ErrInvalidResponses) {
			t.Fatalf("case %d: expected ErrInvalidResponses, got %v", i, err)
		}
	}
	if _, err := Score(Instrument("unknown"), vec(9, 0)); !errors.Is(err, ErrInvalidResponses) {
		t.Fatalf("expected ErrInvalidResponses for unknown instrument, got %v", err)
	}
}

func TestScore_Deterministic(t *testing.T) {
	responses := []int{3, 0, 2, 1, 0, 3, 1, 2, 2}
	a, err := Score(PHQ9, responses)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	b, err := Score(PHQ9, responses)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("scoring is not deterministic:\n%+v\n%+v", a, b)
	}
}

func TestScore_RiskLevelMonotonicInTotal(t *testing.T) {
	prev := RiskMinimal
	for total := 0; total <= 27; total++ {
		res, err := Score(PHQ9, vectorWithTotal(t, 9, total))
		if err != nil {
			t.Fatalf("total %d: %v", total, err)
		}
		if !res.RiskLevel.AtLeast(prev) {
			t.Fatalf("risk level regressed at total %d: %q after %q", total, res.RiskLevel, prev)
		}
		prev = res.RiskLevel
	}
}
