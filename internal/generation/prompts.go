package generation

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/jimdaga/nextrend/internal/catalog"
)

//go:embed system_prompt.txt
var systemTemplate string

//go:embed default_voice.txt
var defaultVoice string

// VoicePlaceholder marks where the brand voice is substituted in the system template.
const VoicePlaceholder = "{Insert user-specific 250-word brand voice summary here.}"

const analyzerInstruction = "You are a brand voice analyzer. Your task is to create concise, " +
	"actionable brand voice descriptions that can be used for content generation."

// Sampling parameters. Not user configurable.
const (
	variantTemperature = 0.8
	variantMaxTokens   = 4000
	voiceTemperature   = 0.5
	voiceMaxTokens     = 400
)

// DefaultVoice is used when the user has no saved brand voice.
func DefaultVoice() string {
	return strings.TrimSpace(defaultVoice)
}

// BuildSystemPrompt substitutes the voice summary, or the default voice when
// the summary is blank, into the shared template.
func BuildSystemPrompt(voiceSummary string) string {
	voice := strings.TrimSpace(voiceSummary)
	if voice == "" {
		voice = DefaultVoice()
	}
	return strings.Replace(systemTemplate, VoicePlaceholder, voice, 1)
}

// BuildVariantPrompt is the user message for one content type.
func BuildVariantPrompt(ct catalog.ContentType, src Source) string {
	prompt := fmt.Sprintf("Generate a %s (%s) for this %s article:\n\nTitle: %s\n\nContent: %s",
		ct.Label, ct.Description, src.Category, src.Title, src.Body)
	if c := ct.Constraint(); c != "" {
		prompt += "\n\n" + c
	}
	return prompt
}

func buildVoicePrompt(raw string) string {
	return "Summarize the following text into a concise brand voice description (150-250 words) " +
		"that can be used for content generation. Focus on tone, style, and key messaging " +
		"characteristics: " + raw
}
