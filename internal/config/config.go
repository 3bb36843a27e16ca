package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bradreaney/dnd-session-engine/internal/constants"
)

type rawConfig struct {
	Server *struct {
		Address string `json:"address"`
	} `json:"server"`
	DatabasePath string `json:"database_path"`
	// GeminiModel selects the generative model used for narrative
	// replies. Defaults to a fast general-purpose model.
	GeminiModel string `json:"gemini_model"`
	// NarratorPrompt is the prompt template sent to the narrative
	// generator. Use the token {{message}} where the player's inbound
	// message will be substituted.
	NarratorPrompt           string `json:"narrator_prompt"`
	NarrativeTimeoutSeconds  int    `json:"narrative_timeout_seconds"`
	NarrativeCacheTTLSeconds int    `json:"narrative_cache_ttl_seconds"`
	SessionIdleMinutes       int    `json:"session_idle_timeout_minutes"`
	// ContextMessageLimit bounds how many stored messages are fetched
	// when building the narrator's conversation context. The builder
	// applies its own hard cap of 8 turns on top of this.
	ContextMessageLimit int `json:"context_message_limit"`
}

// LoadedConfig holds the validated runtime configuration.
type LoadedConfig struct {
	ServerAddress       string
	DatabasePath        string
	GeminiModel         string
	NarratorPrompt      string
	NarrativeTimeout    time.Duration
	NarrativeCacheTTL   time.Duration
	SessionIdleTimeout  time.Duration
	ContextMessageLimit int
}

// LoadConfig reads the configuration file at path and returns the
// validated runtime configuration. A missing file is not an error: every
// key has a sensible default so the server can run with zero config.
func LoadConfig(path string) (*LoadedConfig, error) {
	var rc rawConfig
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(b, &rc); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// run on defaults
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	out := &LoadedConfig{
		ServerAddress:       constants.DefaultServerAddress,
		DatabasePath:        constants.DefaultDatabasePath,
		GeminiModel:         constants.DefaultGeminiModel,
		NarratorPrompt:      constants.DefaultNarratorPrompt,
		NarrativeTimeout:    constants.DefaultNarrativeWait * time.Second,
		NarrativeCacheTTL:   constants.DefaultNarrativeTTL * time.Second,
		SessionIdleTimeout:  constants.DefaultIdleMinutes * time.Minute,
		ContextMessageLimit: constants.DefaultContextLimit,
	}

	if rc.Server != nil && rc.Server.Address != "" {
		out.ServerAddress = rc.Server.Address
	}
	if rc.DatabasePath != "" {
		out.DatabasePath = rc.DatabasePath
	}
	// Env override wins over the config file for the DB path so container
	// deployments can relocate the volume without editing the file.
	if env := os.Getenv(constants.EnvDatabasePath); env != "" {
		out.DatabasePath = env
	}
	if rc.GeminiModel != "" {
		out.GeminiModel = rc.GeminiModel
	}
	if p := strings.TrimSpace(rc.NarratorPrompt); p != "" {
		if !strings.Contains(p, "{{message}}") {
			return nil, fmt.Errorf("config file %s: narrator_prompt must contain the token {{message}}", path)
		}
		out.NarratorPrompt = p
	}
	if rc.NarrativeTimeoutSeconds > 0 {
		out.NarrativeTimeout = time.Duration(rc.NarrativeTimeoutSeconds) * time.Second
	}
	if rc.NarrativeCacheTTLSeconds > 0 {
		out.NarrativeCacheTTL = time.Duration(rc.NarrativeCacheTTLSeconds) * time.Second
	}
	if rc.SessionIdleMinutes > 0 {
		out.SessionIdleTimeout = time.Duration(rc.SessionIdleMinutes) * time.Minute
	}
	if rc.ContextMessageLimit > 0 {
		out.ContextMessageLimit = rc.ContextMessageLimit
	}

	return out, nil
}
