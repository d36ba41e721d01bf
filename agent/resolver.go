package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/majordomo-ai/majordomo/llm"
)

// Resolver turns raw user text into exactly one IntentRecord. Stages run
// in a fixed order and the first one to produce a record wins; no stage
// output is ever merged with another's. Resolve is total: internal errors
// degrade through the chain and the keyword fallback closes it.
type Resolver struct {
	stages []Extractor
	logger *slog.Logger
}

func NewResolver(client llm.Client, model string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		stages: []Extractor{
			emailExtractor{},
			imageExtractor{},
			&llmExtractor{client: client, model: model},
			fallbackClassifier{},
		},
		logger: logger,
	}
}

func (r *Resolver) Resolve(ctx context.Context, userInput string, session SessionEntry) IntentRecord {
	text := strings.TrimSpace(userInput)
	if text == "" {
		return IntentRecord{
			Category:   CategoryGeneralChat,
			Confidence: 0.7,
			Parameters: Params{},
			ReplyText:  "Please tell me what you'd like to do.",
		}
	}

	for _, stage := range r.stages {
		rec, err := stage.TryExtract(ctx, text, session)
		if err != nil {
			r.logger.Warn("intent_stage_failed", "stage", stage.Name(), "error", err.Error())
			continue
		}
		if rec == nil {
			continue
		}
		r.logger.Debug("intent_resolved", "stage", stage.Name(), "category", string(rec.Category), "confidence", rec.Confidence)
		return rec.normalized()
	}

	// Unreachable as long as the fallback classifier is last; kept so the
	// contract holds even with a misconfigured chain.
	return IntentRecord{
		Category:   CategoryGeneralChat,
		Confidence: 0.7,
		Parameters: Params{},
		ReplyText:  genericReply,
	}
}
