// Package telegramcmd runs the assistant as a long-polling Telegram bot.
package telegramcmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/majordomo-ai/majordomo/agent"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	maxVoiceDownloadBytes = 10 * 1024 * 1024
	maxPhotoDownloadBytes = 20 * 1024 * 1024
)

const welcomeText = `Hi! I'm your personal assistant. I can:

📅 Manage your calendar — "Schedule a meeting tomorrow at 4 PM"
📧 Handle your email — "Send an email to john@example.com"
🎨 Create images — "Draw a picture of a sunset"
🎤 Understand voice messages — just talk to me

What would you like to do?`

const helpText = `Here's what I understand:

• Calendar: create, list, update, and delete events
• Email: send, read, and delete messages
• Images: generate new images or edit a photo you send me
• Voice: send a voice note instead of typing

Examples:
  "Schedule a dentist appointment on Friday at 10 AM"
  "What emails came today?"
  "Create an image of a red dragon in cartoon style"`

// Dependencies are supplied by the root command so this package stays
// free of provider and config wiring.
type Dependencies struct {
	LoggerFromViper func() (*slog.Logger, error)
	BrainFromViper  func(ctx context.Context) (*agent.Brain, error)
}

func New(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telegram",
		Short: "Run the assistant as a Telegram bot (long polling)",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := deps.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			token := strings.TrimSpace(viper.GetString("telegram.token"))
			if token == "" {
				return fmt.Errorf("missing telegram.token (set via MAJORDOMO_TELEGRAM_TOKEN)")
			}

			brain, err := deps.BrainFromViper(cmd.Context())
			if err != nil {
				return err
			}

			bot := &botLoop{
				api:         newTelegramAPI(nil, viper.GetString("telegram.base_url"), token),
				brain:       brain,
				logger:      logger,
				pollTimeout: viper.GetDuration("telegram.poll_timeout"),
				sem:         make(chan struct{}, maxConcurrencyFromViper()),
			}
			return bot.run(cmd.Context())
		},
	}
	cmd.Flags().String("telegram-token", "", "Telegram bot token.")
	_ = viper.BindPFlag("telegram.token", cmd.Flags().Lookup("telegram-token"))
	return cmd
}

func maxConcurrencyFromViper() int {
	n := viper.GetInt("telegram.max_concurrency")
	if n < 1 {
		n = 1
	}
	return n
}

type botLoop struct {
	api         *telegramAPI
	brain       *agent.Brain
	logger      *slog.Logger
	pollTimeout time.Duration
	sem         chan struct{}
}

func (b *botLoop) run(ctx context.Context) error {
	me, err := b.api.getMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram getMe: %w", err)
	}
	b.logger.Info("telegram_bot_started", "username", me.Username, "id", me.ID)

	var offset int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		updates, next, err := b.api.getUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if isTelegramPollTimeoutError(err) {
				continue
			}
			b.logger.Warn("telegram_poll_failed", "error", err.Error())
			time.Sleep(3 * time.Second)
			continue
		}
		offset = next

		for _, update := range updates {
			msg := update.Message
			if msg == nil || msg.Chat == nil || (msg.From != nil && msg.From.IsBot) {
				continue
			}
			b.sem <- struct{}{}
			go func(m *telegramMessage) {
				defer func() { <-b.sem }()
				b.handleMessage(ctx, m)
			}(msg)
		}
	}
}

func (b *botLoop) handleMessage(ctx context.Context, msg *telegramMessage) {
	chatID := msg.Chat.ID
	userID := strconv.FormatInt(chatID, 10)
	if msg.From != nil {
		userID = strconv.FormatInt(msg.From.ID, 10)
	}

	switch strings.TrimSpace(msg.Text) {
	case "/start":
		b.reply(ctx, chatID, msg.MessageID, agent.OutboundPayload{Text: welcomeText})
		return
	case "/help":
		b.reply(ctx, chatID, msg.MessageID, agent.OutboundPayload{Text: helpText})
		return
	}

	in := agent.Inbound{UserID: userID, Text: msg.Text}
	var cleanup []string
	defer func() {
		for _, path := range cleanup {
			_ = os.Remove(path)
		}
	}()

	voice := msg.Voice
	if voice == nil {
		voice = msg.Audio
	}
	if voice != nil {
		data, mime, err := b.downloadVoice(ctx, voice, &cleanup)
		if err != nil {
			b.logger.Warn("voice_download_failed", "error", err.Error())
			b.reply(ctx, chatID, msg.MessageID, agent.OutboundPayload{
				Text: "Sorry, I couldn't download that voice message. Please try again.",
			})
			return
		}
		in.Audio = data
		in.AudioMimeType = mime
	}

	if len(msg.Photo) > 0 {
		path, err := b.downloadPhoto(ctx, msg.Photo, &cleanup)
		if err != nil {
			b.logger.Warn("photo_download_failed", "error", err.Error())
			b.reply(ctx, chatID, msg.MessageID, agent.OutboundPayload{
				Text: "Sorry, I couldn't download that photo. Please try again.",
			})
			return
		}
		in.Attachment = &agent.Attachment{ImagePath: path}
		if in.Text == "" {
			in.Text = msg.Caption
		}
	}

	_ = b.api.sendChatAction(ctx, chatID, "typing")
	out := b.brain.ProcessMessage(ctx, in)
	b.reply(ctx, chatID, msg.MessageID, out)

	// Generated artifacts have been delivered; reclaim them.
	if out.AudioPath != "" {
		_ = os.Remove(out.AudioPath)
	}
	if out.ImagePath != "" {
		_ = os.Remove(out.ImagePath)
	}
}

func (b *botLoop) reply(ctx context.Context, chatID, replyTo int64, out agent.OutboundPayload) {
	if out.ImagePath != "" {
		if err := b.api.sendPhoto(ctx, chatID, out.ImagePath, out.Text); err != nil {
			b.logger.Warn("telegram_send_photo_failed", "error", err.Error())
		} else {
			out.Text = "" // delivered as the caption
		}
	}
	if out.Text != "" {
		if err := b.api.sendMessageChunked(ctx, chatID, out.Text, replyTo); err != nil {
			b.logger.Warn("telegram_send_failed", "error", err.Error())
		}
	}
	if out.AudioPath != "" {
		if err := b.api.sendVoice(ctx, chatID, out.AudioPath, ""); err != nil {
			b.logger.Warn("telegram_send_voice_failed", "error", err.Error())
		}
	}
}

func (b *botLoop) downloadVoice(ctx context.Context, voice *telegramVoice, cleanup *[]string) ([]byte, string, error) {
	file, err := b.api.getFile(ctx, voice.FileID)
	if err != nil {
		return nil, "", err
	}
	dst := filepath.Join(os.TempDir(), "majordomo-voice-"+uuid.NewString()+".ogg")
	*cleanup = append(*cleanup, dst)
	if _, err := b.api.downloadFileTo(ctx, file.FilePath, dst, maxVoiceDownloadBytes); err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		return nil, "", err
	}
	mime := strings.TrimSpace(voice.MimeType)
	if mime == "" {
		mime = "audio/ogg"
	}
	return data, mime, nil
}

func (b *botLoop) downloadPhoto(ctx context.Context, sizes []telegramPhotoSize, cleanup *[]string) (string, error) {
	// Telegram orders photo sizes smallest first.
	largest := sizes[len(sizes)-1]
	file, err := b.api.getFile(ctx, largest.FileID)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(os.TempDir(), "majordomo-photo-"+uuid.NewString()+".jpg")
	*cleanup = append(*cleanup, dst)
	if _, err := b.api.downloadFileTo(ctx, file.FilePath, dst, maxPhotoDownloadBytes); err != nil {
		return "", err
	}
	return dst, nil
}
