package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// initConfigFile is the shape written by `majordomo init`. Keys mirror the
// viper paths read in runtime.go.
type initConfigFile struct {
	LLM struct {
		Provider       string `yaml:"provider"`
		Model          string `yaml:"model"`
		APIKey         string `yaml:"api_key"`
		RequestTimeout string `yaml:"request_timeout"`
	} `yaml:"llm"`
	Google struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
	} `yaml:"google"`
	Calendar struct {
		Timezone string `yaml:"timezone"`
	} `yaml:"calendar"`
	HuggingFace struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"huggingface"`
	Speech struct {
		Enabled bool   `yaml:"enabled"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"speech"`
	Telegram struct {
		Token          string `yaml:"token"`
		PollTimeout    string `yaml:"poll_timeout"`
		MaxConcurrency int    `yaml:"max_concurrency"`
	} `yaml:"telegram"`
	Server struct {
		Bind      string `yaml:"bind"`
		Port      int    `yaml:"port"`
		AuthToken string `yaml:"auth_token"`
	} `yaml:"server"`
	Session struct {
		TTL string `yaml:"ttl"`
	} `yaml:"session"`
	Tmp struct {
		Dir    string `yaml:"dir"`
		MaxAge string `yaml:"max_age"`
	} `yaml:"tmp"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

func defaultInitConfig(dir string) initConfigFile {
	var cfg initConfigFile
	cfg.LLM.Provider = "gemini"
	cfg.LLM.Model = "gemini-2.5-flash"
	cfg.LLM.RequestTimeout = "60s"
	cfg.Google.CredentialsFile = filepath.ToSlash(filepath.Join(dir, "credentials.json"))
	cfg.Google.TokenFile = filepath.ToSlash(filepath.Join(dir, "token.json"))
	cfg.Calendar.Timezone = "UTC"
	cfg.Speech.Enabled = true
	cfg.Telegram.PollTimeout = "30s"
	cfg.Telegram.MaxConcurrency = 4
	cfg.Server.Bind = "127.0.0.1"
	cfg.Server.Port = 8787
	cfg.Session.TTL = "24h"
	cfg.Tmp.Dir = filepath.ToSlash(filepath.Join(dir, "tmp"))
	cfg.Tmp.MaxAge = "6h"
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return cfg
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter config.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "~/.majordomo"
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				dir = args[0]
			}
			dir = expandHomePath(dir)
			if strings.TrimSpace(dir) == "" {
				return fmt.Errorf("invalid dir")
			}
			dir = filepath.Clean(dir)

			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}

			cfgPath := filepath.Join(dir, "config.yaml")
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists: %s", cfgPath)
			}

			body, err := yaml.Marshal(defaultInitConfig(dir))
			if err != nil {
				return err
			}
			header := "# Majordomo configuration. Every key can also be set via\n" +
				"# environment variables with the MAJORDOMO_ prefix,\n" +
				"# e.g. MAJORDOMO_TELEGRAM_TOKEN.\n"
			if err := os.WriteFile(cfgPath, append([]byte(header), body...), 0o600); err != nil {
				return err
			}

			fmt.Printf("initialized %s\n", cfgPath)
			return nil
		},
	}
}

func expandHomePath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil && home != "" {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
