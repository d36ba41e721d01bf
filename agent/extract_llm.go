package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/majordomo-ai/majordomo/internal/jsonx"
	"github.com/majordomo-ai/majordomo/llm"
)

// llmExtractor is the structured-output stage: one chat call with the
// fixed instruction and few-shot examples, decoded tolerantly. Any failure
// (transport, empty output, unparseable output) is reported as an error so
// the resolver degrades to the keyword fallback.
type llmExtractor struct {
	client llm.Client
	model  string
}

func (e *llmExtractor) Name() string { return "llm" }

func (e *llmExtractor) TryExtract(ctx context.Context, text string, session SessionEntry) (*IntentRecord, error) {
	if e.client == nil {
		return nil, fmt.Errorf("no llm client configured")
	}

	messages := make([]llm.Message, 0, 3+2*len(intentFewShots))
	messages = append(messages, llm.Message{Role: "system", Content: intentSystemPrompt})
	for _, shot := range intentFewShots {
		messages = append(messages, llm.Message{Role: "user", Content: shot.User})
		messages = append(messages, llm.Message{Role: "assistant", Content: shot.Model})
	}
	if session.LastIntent != "" {
		messages = append(messages, llm.Message{
			Role:    "system",
			Content: fmt.Sprintf("The user's previous request was classified as %s.", session.LastIntent),
		})
	}
	messages = append(messages, llm.Message{Role: "user", Content: text})

	res, err := e.client.Chat(ctx, llm.Request{
		Model:     e.model,
		ForceJSON: true,
		Messages:  messages,
		Parameters: map[string]any{
			"max_tokens": 1024,
		},
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(res.Text) == "" {
		return nil, fmt.Errorf("empty intent response")
	}

	obj, err := jsonx.ExtractObject(res.Text)
	if err != nil {
		return nil, fmt.Errorf("unparseable intent response: %w", err)
	}

	rec := recordFromObject(obj)
	return &rec, nil
}

// recordFromObject decodes the model's object, applying the documented
// default for every field the model omitted or mistyped.
func recordFromObject(obj map[string]any) IntentRecord {
	rec := IntentRecord{
		Category:   CategoryGeneralChat,
		Confidence: 0.7,
		Parameters: Params{},
		ReplyText:  genericReply,
	}

	if raw, ok := obj["intent"].(string); ok && strings.TrimSpace(raw) != "" {
		rec.Category = NormalizeCategory(raw)
	} else if raw, ok := obj["category"].(string); ok && strings.TrimSpace(raw) != "" {
		rec.Category = NormalizeCategory(raw)
	}
	if v, ok := obj["confidence"].(float64); ok && v >= 0 && v <= 1 {
		rec.Confidence = v
	}
	if params, ok := obj["parameters"].(map[string]any); ok {
		rec.Parameters = Params(params)
	}
	if v, ok := obj["response_text"].(string); ok && strings.TrimSpace(v) != "" {
		rec.ReplyText = strings.TrimSpace(v)
	} else if v, ok := obj["reply_text"].(string); ok && strings.TrimSpace(v) != "" {
		rec.ReplyText = strings.TrimSpace(v)
	}
	if v, ok := obj["requires_clarification"].(bool); ok {
		rec.NeedsClarification = v
	} else if v, ok := obj["needs_clarification"].(bool); ok {
		rec.NeedsClarification = v
	}
	rec.ClarificationQuestions = stringsFromAny(obj["clarification_questions"])
	rec.SuggestedActions = stringsFromAny(obj["suggested_actions"])
	return rec
}

func stringsFromAny(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
