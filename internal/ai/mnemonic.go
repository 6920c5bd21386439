package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/frenchbot/pkg/models"
)

// GenerateMnemonic asks the model for a memory hint for word.
func (c *Client) GenerateMnemonic(ctx context.Context, word models.Word) (string, error) {
	text, err := c.complete(ctx, mnemonicPrompt(word), 256, 0.8)
	if err != nil {
		return "", err
	}
	return parseMnemonic(text)
}

// GenerateMnemonicWithFallback never fails: on error it falls back to the stored notes or example.
func (c *Client) GenerateMnemonicWithFallback(ctx context.Context, word models.Word) string {
	mnemonic, err := c.GenerateMnemonic(ctx, word)
	if err == nil {
		return mnemonic
	}
	c.log.Warn("falling back to stored hint", "word", word.French, "error", err)
	return FallbackHint(word)
}

// FallbackHint builds a hint from the word's own data.
func FallbackHint(word models.Word) string {
	switch {
	case word.Notes != "":
		return word.Notes
	case word.ExampleSentence != "":
		return word.ExampleSentence
	default:
		return fmt.Sprintf("%s means %q.", word.French, word.English)
	}
}

func parseMnemonic(text string) (string, error) {
	body := text
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		body = text[start : end+1]
	}
	var reply struct {
		Mnemonic    string `json:"mnemonic"`
		SoundBridge string `json:"sound_bridge"`
	}
	if err := json.Unmarshal([]byte(body), &reply); err != nil || strings.TrimSpace(reply.Mnemonic) == "" {
		// Plain text replies are usable as they are.
		if text = strings.TrimSpace(text); text == "" {
			return "", fmt.Errorf("empty mnemonic")
		}
		return text, nil
	}
	return strings.TrimSpace(reply.Mnemonic), nil
}
