package translator

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"codeberg.org/snonux/posttranslate/internal"
	"codeberg.org/snonux/posttranslate/internal/logging"
)

const (
	detectSystemPrompt = "You identify the language of forum posts. " +
		"Reply with the BCP 47 language code of the text only, for example en, de or pt-BR. " +
		"Never reply with anything else."

	translateSystemPrompt = "You translate forum posts. The text is HTML. " +
		"Translate it from %s to %s, keep every tag and attribute unchanged, " +
		"and reply with the translated HTML only."
)

// DiscourseAI translates with a chat model. Every locale pair is supported.
type DiscourseAI struct {
	completer Completer
	verbose   *logging.VerboseLogger
}

// NewDiscourseAI creates the AI backed provider
func NewDiscourseAI(completer Completer, verbose *logging.VerboseLogger) *DiscourseAI {
	return &DiscourseAI{completer: completer, verbose: verbose}
}

func (d *DiscourseAI) Name() string        { return ProviderDiscourseAI }
func (d *DiscourseAI) DetectionLimit() int { return DetectionCharLimit }
func (d *DiscourseAI) LengthLimit() int    { return 0 }

func (d *DiscourseAI) IsAvailable() error {
	if d.completer == nil {
		return notConfigured(ProviderDiscourseAI, "ai.backend")
	}
	return d.completer.Available()
}

func (d *DiscourseAI) Detect(ctx context.Context, text string) (string, error) {
	if err := d.IsAvailable(); err != nil {
		return "", err
	}

	d.verbose.Logf("DiscourseAi detect with %s", d.completer.Model())
	reply, err := d.completer.Complete(ctx, detectSystemPrompt, internal.TruncateRunes(text, DetectionCharLimit))
	if err != nil {
		return "", err
	}

	code := strings.Trim(strings.TrimSpace(reply), "`\"'.")
	if fields := strings.Fields(code); len(fields) > 0 {
		code = fields[0]
	}
	if _, err := language.Parse(code); err != nil || code == "" {
		return "", &Error{Provider: ProviderDiscourseAI, StatusCode: 200, Message: "unexpected language code: " + reply}
	}
	return code, nil
}

func (d *DiscourseAI) Translate(ctx context.Context, text, from, to string) (string, error) {
	if err := d.IsAvailable(); err != nil {
		return "", err
	}

	d.verbose.Logf("DiscourseAi translate %s -> %s with %s", from, to, d.completer.Model())
	reply, err := d.completer.Complete(ctx, fmt.Sprintf(translateSystemPrompt, BCP47(from), BCP47(to)), text)
	if err != nil {
		return "", err
	}
	if reply == "" {
		return "", &Error{Provider: ProviderDiscourseAI, StatusCode: 200, Message: "empty translation returned"}
	}
	return reply, nil
}

func (d *DiscourseAI) TranslateSupported(context.Context, string, string) (bool, error) {
	return true, nil
}
