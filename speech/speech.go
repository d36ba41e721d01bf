// Package speech turns voice messages into text and replies into voice
// using the Gemini API.
package speech

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"google.golang.org/genai"
)

const (
	defaultSTTModel = "gemini-2.5-flash"
	defaultTTSModel = "gemini-2.5-flash-preview-tts"
	defaultVoice    = "Kore"

	// Gemini TTS emits raw PCM at 24 kHz, mono, 16-bit.
	ttsSampleRate = 24000
	ttsBitDepth   = 16
	ttsChannels   = 1
)

type Service struct {
	client   *genai.Client
	sttModel string
	ttsModel string
	voice    string
}

// New builds a speech service backed by the Gemini API.
func New(ctx context.Context, apiKey string) (*Service, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Service{
		client:   client,
		sttModel: defaultSTTModel,
		ttsModel: defaultTTSModel,
		voice:    defaultVoice,
	}, nil
}

// Transcribe converts spoken audio (any common container, identified by
// mimeType such as "audio/ogg") into plain text.
func (s *Service) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			genai.NewPartFromText("Transcribe this audio message exactly as spoken. Reply with only the transcription, nothing else."),
			genai.NewPartFromBytes(data, mimeType),
		},
	}}

	resp, err := s.client.Models.GenerateContent(ctx, s.sttModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("transcription returned no text")
	}
	return text, nil
}

// Synthesize speaks the text and writes a WAV file at outPath.
func (s *Service) Synthesize(ctx context.Context, text, outPath string) error {
	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{genai.NewPartFromText(text)},
	}}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: s.voice},
			},
		},
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.ttsModel, contents, config)
	if err != nil {
		return fmt.Errorf("synthesize speech: %w", err)
	}
	pcm := inlineAudio(resp)
	if len(pcm) == 0 {
		return fmt.Errorf("synthesis returned no audio")
	}
	return writeWAV(outPath, pcm)
}

func inlineAudio(resp *genai.GenerateContentResponse) []byte {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data
			}
		}
	}
	return nil
}

// writeWAV wraps raw little-endian 16-bit PCM in a WAV container.
func writeWAV(path string, pcm []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, ttsSampleRate, ttsBitDepth, ttsChannels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: ttsChannels, SampleRate: ttsSampleRate},
		SourceBitDepth: ttsBitDepth,
		Data:           pcmToInts(pcm),
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	return enc.Close()
}

func pcmToInts(pcm []byte) []int {
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	return samples
}
