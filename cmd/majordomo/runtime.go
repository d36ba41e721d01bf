package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/majordomo-ai/majordomo/agent"
	"github.com/majordomo-ai/majordomo/calendar"
	"github.com/majordomo-ai/majordomo/gmail"
	"github.com/majordomo-ai/majordomo/imagegen"
	"github.com/majordomo-ai/majordomo/internal/googleauth"
	"github.com/majordomo-ai/majordomo/internal/logutil"
	"github.com/majordomo-ai/majordomo/internal/tmpfiles"
	"github.com/majordomo-ai/majordomo/llm"
	"github.com/majordomo-ai/majordomo/providers/gemini"
	"github.com/majordomo-ai/majordomo/providers/openai"
	"github.com/majordomo-ai/majordomo/speech"
	"github.com/spf13/viper"
)

func loggerFromViper() (*slog.Logger, error) {
	return logutil.LoggerFromViper()
}

func llmClientFromViper(ctx context.Context) (llm.Client, string, error) {
	provider := strings.ToLower(strings.TrimSpace(viper.GetString("llm.provider")))
	apiKey := strings.TrimSpace(viper.GetString("llm.api_key"))
	model := strings.TrimSpace(viper.GetString("llm.model"))

	switch provider {
	case "", "gemini":
		client, err := gemini.New(ctx, apiKey)
		if err != nil {
			return nil, "", err
		}
		return client, model, nil
	case "openai":
		client, err := openai.New(apiKey, viper.GetString("llm.endpoint"))
		if err != nil {
			return nil, "", err
		}
		return client, model, nil
	default:
		return nil, "", fmt.Errorf("unknown llm.provider: %s", provider)
	}
}

// runtime holds every wired collaborator for one process. Collaborators
// whose credentials are absent stay nil and their intents degrade to a
// "not set up" reply.
type runtime struct {
	logger   *slog.Logger
	brain    *agent.Brain
	sessions *agent.SessionStore

	calendar *calendar.Service
	email    *gmail.Service
	images   *imagegen.Client
	speech   *speech.Service

	audioDir *tmpfiles.Dir
	imageDir *tmpfiles.Dir
}

func runtimeFromViper(ctx context.Context) (*runtime, error) {
	logger, err := loggerFromViper()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	client, model, err := llmClientFromViper(ctx)
	if err != nil {
		return nil, err
	}

	tmpRoot := strings.TrimSpace(viper.GetString("tmp.dir"))
	if tmpRoot == "" {
		tmpRoot = filepath.Join(os.TempDir(), "majordomo")
	}
	audioDir, err := tmpfiles.NewDir(tmpRoot, "audio")
	if err != nil {
		return nil, err
	}
	imageDir, err := tmpfiles.NewDir(tmpRoot, "images")
	if err != nil {
		return nil, err
	}
	maxAge := viper.GetDuration("tmp.max_age")
	if n, err := audioDir.Sweep(maxAge); err == nil && n > 0 {
		logger.Debug("swept_stale_audio", "removed", n)
	}
	if n, err := imageDir.Sweep(maxAge); err == nil && n > 0 {
		logger.Debug("swept_stale_images", "removed", n)
	}

	rt := &runtime{
		logger:   logger,
		sessions: agent.NewSessionStore(viper.GetDuration("session.ttl")),
		audioDir: audioDir,
		imageDir: imageDir,
	}

	dispatchCfg := agent.DispatcherConfig{
		LLM:           client,
		Model:         model,
		ImageDir:      imageDir,
		ValidateImage: imagegen.ValidateDescription,
		Logger:        logger,
	}

	creds := strings.TrimSpace(viper.GetString("google.credentials_file"))
	token := strings.TrimSpace(viper.GetString("google.token_file"))
	if ts, err := googleauth.TokenSource(ctx, creds, token); err != nil {
		logger.Warn("google_workspace_unavailable", "error", err.Error())
	} else {
		cal, err := calendar.New(ts, viper.GetString("calendar.timezone"))
		if err != nil {
			return nil, err
		}
		rt.calendar = cal
		rt.email = gmail.New(ts)
		dispatchCfg.Calendar = cal
		dispatchCfg.Email = rt.email
	}

	if hfKey := strings.TrimSpace(viper.GetString("huggingface.api_key")); hfKey != "" {
		rt.images = imagegen.New(hfKey)
		dispatchCfg.Images = rt.images
	} else {
		logger.Warn("image_generation_unavailable", "reason", "missing huggingface.api_key")
	}

	var stt agent.Transcriber
	var tts agent.Synthesizer
	if viper.GetBool("speech.enabled") {
		speechKey := strings.TrimSpace(viper.GetString("speech.api_key"))
		if speechKey == "" {
			speechKey = strings.TrimSpace(viper.GetString("llm.api_key"))
		}
		sp, err := speech.New(ctx, speechKey)
		if err != nil {
			logger.Warn("speech_unavailable", "error", err.Error())
		} else {
			rt.speech = sp
			stt, tts = sp, sp
		}
	}

	resolver := agent.NewResolver(client, model, logger)
	dispatcher := agent.NewDispatcher(dispatchCfg)
	composer := agent.NewComposer(tts, audioDir, logger)
	rt.brain = agent.NewBrain(resolver, dispatcher, composer, rt.sessions, stt, logger)
	return rt, nil
}

func brainFromViper(ctx context.Context) (*agent.Brain, error) {
	rt, err := runtimeFromViper(ctx)
	if err != nil {
		return nil, err
	}
	return rt.brain, nil
}
