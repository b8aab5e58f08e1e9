package chat

import "strings"

const DefaultPersonality = "supportive"

// personalityPrompts maps a session personality to the system prompt sent
// to the provider. Unknown names fall back to the supportive counselor.
var personalityPrompts = map[string]string{
	"supportive": "You are a warm, supportive wellness companion for students. " +
		"Listen carefully, validate feelings, and suggest small practical steps. " +
		"You are not a substitute for professional care; encourage reaching out " +
		"to a counselor when the conversation touches on serious distress.",
	"coach": "You are an encouraging wellness coach for students. Keep replies " +
		"short and action-oriented: concrete routines, study-life balance tips, " +
		"sleep and exercise habits.",
	"listener": "You are a calm, reflective listener. Mostly mirror back what " +
		"the student says and ask gentle open questions. Avoid advice unless " +
		"asked directly.",
}

func PersonalityPrompt(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if p, ok := personalityPrompts[name]; ok {
		return p
	}
	return personalityPrompts[DefaultPersonality]
}

func ValidPersonality(name string) bool {
	_, ok := personalityPrompts[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
