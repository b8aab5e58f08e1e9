package screening

import "strings"

// Instrument identifies a self-report questionnaire with fixed scoring
// thresholds.
type Instrument string

const (
	// PHQ9 is the 9-item depression instrument (max score 27).
	PHQ9 Instrument = "phq9"
	// GAD7 is the 7-item generalized anxiety instrument (max score 21).
	GAD7 Instrument = "gad7"
)

func ParseInstrument(s string) (Instrument, bool) {
	switch Instrument(strings.ToLower(strings.TrimSpace(s))) {
	case PHQ9:
		return PHQ9, true
	case GAD7:
		return GAD7, true
	}
	return "", false
}

func (i Instrument) QuestionCount() int {
	switch i {
	case PHQ9:
		return 9
	case GAD7:
		return 7
	}
	return 0
}

func (i Instrument) MaxScore() int {
	// every item scores 0..3
	return i.QuestionCount() * 3
}

type RiskLevel string

const (
	RiskMinimal          RiskLevel = "minimal"
	RiskMild             RiskLevel = "mild"
	RiskModerate         RiskLevel = "moderate"
	RiskModeratelySevere RiskLevel = "moderately-severe"
	RiskSevere           RiskLevel = "severe"
)

var riskRank = map[RiskLevel]int{
	RiskMinimal:          0,
	RiskMild:             1,
	RiskModerate:         2,
	RiskModeratelySevere: 3,
	RiskSevere:           4,
}

// AtLeast reports whether r is as severe as other or more so.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return riskRank[r] >= riskRank[other]
}

// riskLevelFor maps a total score to its band. PHQ-9 has five bands; GAD-7
// has no moderately-severe band and goes straight to severe at 15.
func riskLevelFor(inst Instrument, total int) RiskLevel {
	switch {
	case total <= 4:
		return RiskMinimal
	case total <= 9:
		return RiskMild
	case total <= 14:
		return RiskModerate
	case inst == PHQ9 && total <= 19:
		return RiskModeratelySevere
	default:
		return RiskSevere
	}
}
