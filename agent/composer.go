package agent

import (
	"context"
	"log/slog"

	"github.com/majordomo-ai/majordomo/internal/tmpfiles"
)

// Synthesizer speaks a reply into a WAV file. *speech.Service satisfies it.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outPath string) error
}

// OutboundPayload is everything a transport needs to deliver one turn.
type OutboundPayload struct {
	Text      string
	AudioPath string
	ImagePath string
}

// Composer assembles the outbound payload for a dispatched action,
// attaching a spoken rendition when a synthesizer is configured. Speech
// failures never block the text reply.
type Composer struct {
	tts      Synthesizer
	audioDir *tmpfiles.Dir
	logger   *slog.Logger
}

func NewComposer(tts Synthesizer, audioDir *tmpfiles.Dir, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{tts: tts, audioDir: audioDir, logger: logger}
}

func (c *Composer) Compose(ctx context.Context, result ActionResult) OutboundPayload {
	payload := OutboundPayload{
		Text:      result.ReplyText,
		ImagePath: result.ImagePath,
	}
	if c.tts == nil || c.audioDir == nil {
		return payload
	}
	if !result.Success || result.ReplyText == "" {
		return payload
	}

	path := c.audioDir.NewFile(".wav")
	if err := c.tts.Synthesize(ctx, result.ReplyText, path); err != nil {
		c.logger.Warn("speech_synthesis_failed", "error", err.Error())
		return payload
	}
	payload.AudioPath = path
	return payload
}
