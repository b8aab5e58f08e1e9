package screening

import (
	"errors"
	"fmt"
)

var ErrInvalidResponses = errors.New("screening: invalid responses")

// selfHarmItem is the index of the PHQ-9 self-harm question. A response of
// 2 or more raises the crisis flag regardless of the total score.
const selfHarmItem = 8

const crisisThreshold = 2

type Result struct {
	Instrument      Instrument `json:"instrument"`
	TotalScore      int        `json:"total_score"`
	MaxScore        int        `json:"max_score"`
	RiskLevel       RiskLevel  `json:"risk_level"`
	IsHighRisk      bool       `json:"is_high_risk"`
	IsCrisis        bool       `json:"is_crisis"`
	Recommendations []string   `json:"recommendations"`
}

var crisisRecommendations = []string{
	"Your answers suggest you may be thinking about hurting yourself. Please reach out right now: call or text a crisis line, or go to the nearest emergency room.",
	"You do not have to face this alone. Contact your campus counseling center or a trusted person today.",
}

var recommendationsByLevel = map[RiskLevel][]string{
	RiskMinimal: {
		"Your responses suggest minimal symptoms. Keep up habits that support your wellbeing: regular sleep, movement, and social contact.",
		"Consider keeping a mood journal to notice changes early.",
	},
	RiskMild: {
		"Your responses suggest mild symptoms. Small routines help: a daily walk, consistent sleep, and time with people you trust.",
		"Retake this screening in two weeks to track how you are doing.",
	},
	RiskModerate: {
		"Your responses suggest moderate symptoms. Consider talking with a counselor or your campus wellness service.",
		"Structured self-help (guided breathing, activity scheduling) can make a real difference at this level.",
	},
	RiskModeratelySevere: {
		"Your responses suggest moderately severe symptoms. We recommend scheduling an appointment with a mental health professional soon.",
		"Let someone close to you know how you have been feeling.",
	},
	RiskSevere: {
		"Your responses suggest severe symptoms. Please contact a mental health professional as soon as possible.",
		"If things feel unmanageable, a crisis line is available around the clock.",
	},
}

// Score converts a completed response vector into a labeled result.
// Pure and deterministic: the same input always yields the same output,
// which is what makes retake-over-time trend comparison meaningful.
//
// Each response must be in [0,3] and the vector length must match the
// instrument exactly; anything else is rejected whole, never partially
// scored.
func Score(inst Instrument, responses []int) (Result, error) {
	n := inst.QuestionCount()
	if n == 0 {
		return Result{}, fmt.Errorf("%w: unknown instrument %q", ErrInvalidResponses, string(inst))
	}
	if len(responses) != n {
		return Result{}, fmt.Errorf("%w: expected %d responses, got %d", ErrInvalidResponses, n, len(responses))
	}

	total := 0
	for i, v := range responses {
		if v < 0 || v > 3 {
			return Result{}, fmt.Errorf("%w: response %d out of range: %d", ErrInvalidResponses, i, v)
		}
		total += v
	}

	level := riskLevelFor(inst, total)

	// crisis is a safety override independent of the total score
	crisis := inst == PHQ9 && responses[selfHarmItem] >= crisisThreshold

	recs := recommendationsByLevel[level]
	if crisis {
		recs = append(append([]string(nil), crisisRecommendations...), recs...)
	} else {
		recs = append([]string(nil), recs...)
	}

	return Result{
		Instrument:      inst,
		TotalScore:      total,
		MaxScore:        inst.MaxScore(),
		RiskLevel:       level,
		IsHighRisk:      level.AtLeast(RiskModerate),
		IsCrisis:        crisis,
		Recommendations: recs,
	}, nil
}
