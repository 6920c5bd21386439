package ai

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/frenchbot/internal/deckplan"
	"github.com/example/frenchbot/pkg/models"
)

const systemPrompt = `You are an expert French tutor preparing learners for TCF/TEF exams. ` +
	`You are encouraging, precise and exam-focused. Always respond in valid JSON.`

func deckPlanPrompt(req deckplan.AdvisorRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan today's French vocabulary session.\n\nCurrent CEFR level: %s\n", req.CurrentLevel)
	if req.LevelAccuracy != nil {
		fmt.Fprintf(&b, "Recent accuracy at this level: %d%%\n", *req.LevelAccuracy)
	}
	if len(req.AccuracyByLevel) > 0 {
		levels := make([]string, 0, len(req.AccuracyByLevel))
		for l := range req.AccuracyByLevel {
			levels = append(levels, l)
		}
		sort.Strings(levels)
		b.WriteString("Accuracy by level:")
		for _, l := range levels {
			fmt.Fprintf(&b, " %s=%d%%", l, req.AccuracyByLevel[l])
		}
		b.WriteString("\n")
	}

	below := deckplan.OneLevelBelow(req.CurrentLevel)
	b.WriteString("\nRules:\n")
	fmt.Fprintf(&b, "- targetLevel and levelBand.primary must be %s\n", req.CurrentLevel)
	if below != "" {
		fmt.Fprintf(&b, "- levelBand.support is optional and may only be %s\n", below)
	} else {
		b.WriteString("- omit levelBand.support\n")
	}
	fmt.Fprintf(&b, "- levelBand.supportCapPct is an integer between 0 and %d\n", deckplan.MaxSupportCapPct)
	b.WriteString("- mix.reviewPct + mix.newPct must equal 100 (integers)\n")
	b.WriteString("- focusTags/avoidTags are short category keywords, optional\n")
	b.WriteString("- difficultyBias is one of easy, balanced, hard, optional\n")
	b.WriteString("- rationale is one short sentence for the learner\n\n")
	b.WriteString(`Respond ONLY with this JSON (no markdown):
{"targetLevel":"B1","levelBand":{"primary":"B1","support":"A2","supportCapPct":20},"mix":{"reviewPct":70,"newPct":30},"focusTags":[],"avoidTags":[],"difficultyBias":"balanced","rationale":"..."}`)
	return b.String()
}

func mnemonicPrompt(word models.Word) string {
	var b strings.Builder
	pos := word.PartOfSpeech
	if pos == "" {
		pos = "word"
	}
	fmt.Fprintf(&b, "Create a memorable mnemonic for this French word:\n\nFrench: %q (%s)\nEnglish: %q\n", word.French, pos, word.English)
	if word.Level != "" {
		fmt.Fprintf(&b, "CEFR Level: %s\n", word.Level)
	}
	if word.ExampleSentence != "" {
		fmt.Fprintf(&b, "Example: %q\n", word.ExampleSentence)
	}
	b.WriteString(`
Rules:
- Prefer a sound bridge to an English word when one exists
- Make it vivid or funny
- Keep it to 1-2 sentences

Respond ONLY with this JSON (no markdown):
{"mnemonic": "your mnemonic here", "sound_bridge": "the connecting word if any"}`)
	return b.String()
}
