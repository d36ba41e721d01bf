package agent

import (
	"context"
	"log/slog"
	"strings"
)

// Transcriber turns a voice message into text. *speech.Service satisfies it.
type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Inbound is one user turn as it arrives from a transport.
type Inbound struct {
	UserID string
	Text   string
	// Audio, when set, is transcribed and takes the place of Text.
	Audio         []byte
	AudioMimeType string
	// Attachment carries a photo for edit requests.
	Attachment *Attachment
}

// Brain is the per-turn orchestrator: transcription, intent resolution,
// session bookkeeping, dispatch, and composition. Every turn produces an
// OutboundPayload; errors surface as user-facing text, never as a missing
// reply.
type Brain struct {
	resolver   *Resolver
	dispatcher *Dispatcher
	composer   *Composer
	sessions   *SessionStore
	stt        Transcriber
	logger     *slog.Logger
}

func NewBrain(resolver *Resolver, dispatcher *Dispatcher, composer *Composer, sessions *SessionStore, stt Transcriber, logger *slog.Logger) *Brain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Brain{
		resolver:   resolver,
		dispatcher: dispatcher,
		composer:   composer,
		sessions:   sessions,
		stt:        stt,
		logger:     logger,
	}
}

func (b *Brain) ProcessMessage(ctx context.Context, in Inbound) OutboundPayload {
	text := strings.TrimSpace(in.Text)

	if len(in.Audio) > 0 {
		if b.stt == nil {
			return OutboundPayload{Text: "Sorry, voice messages are not supported yet."}
		}
		transcribed, err := b.stt.Transcribe(ctx, in.Audio, in.AudioMimeType)
		if err != nil {
			b.logger.Warn("transcription_failed", "user", in.UserID, "error", err.Error())
			return OutboundPayload{Text: "Sorry, I couldn't understand the audio. Please try again."}
		}
		b.logger.Debug("voice_transcribed", "user", in.UserID, "chars", len(transcribed))
		text = transcribed
	}

	if text == "" {
		return OutboundPayload{Text: "Please provide either text or audio input."}
	}

	var session SessionEntry
	if b.sessions != nil {
		session = b.sessions.Get(in.UserID)
	}
	rec := b.resolver.Resolve(ctx, text, session)
	if b.sessions != nil {
		b.sessions.Update(in.UserID, rec.Category, rec.Parameters, text)
	}

	result := b.dispatcher.Dispatch(ctx, rec, in.UserID, in.Attachment)
	return b.composer.Compose(ctx, result)
}

// Session exposes the user's current context for transports and the
// HTTP health surface.
func (b *Brain) Session(userID string) SessionEntry {
	if b.sessions == nil {
		return SessionEntry{}
	}
	return b.sessions.Get(userID)
}
