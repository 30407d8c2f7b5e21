package catalog

import "github.com/patchbay-sh/patchbay/internal/capability"

// Builtin returns the templates compiled into every installation. User
// manifests can override a builtin by shipping the same id with a higher
// version.
func Builtin() []Template {
	return []Template{
		{
			ID:       "openai",
			Name:     "OpenAI",
			Mode:     ModeCloud,
			Version:  "1.0.0",
			Provides: capability.LLM,
			Schema: []Field{
				{Key: "api_key", Type: FieldTypeString, Required: true, Secret: true, EnvVar: "OPENAI_API_KEY", SettingPath: "api_keys.openai_api_key"},
				{Key: "model", Type: FieldTypeString, Default: "gpt-4o-mini", EnvVar: "OPENAI_MODEL"},
				{Key: "base_url", Type: FieldTypeURL, EnvVar: "OPENAI_BASE_URL"},
			},
		},
		{
			ID:       "anthropic",
			Name:     "Anthropic",
			Mode:     ModeCloud,
			Version:  "1.0.0",
			Provides: capability.LLM,
			Schema: []Field{
				{Key: "api_key", Type: FieldTypeString, Required: true, Secret: true, EnvVar: "ANTHROPIC_API_KEY", SettingPath: "api_keys.anthropic_api_key"},
				{Key: "model", Type: FieldTypeString, Default: "claude-3-5-sonnet-latest", EnvVar: "ANTHROPIC_MODEL"},
			},
		},
		{
			ID:       "whisper-cpp",
			Name:     "Whisper.cpp",
			Mode:     ModeLocal,
			Version:  "1.0.0",
			Provides: capability.Transcription,
			Schema: []Field{
				{Key: "model", Type: FieldTypeString, Default: "base.en", EnvVar: "WHISPER_MODEL"},
				{Key: "threads", Type: FieldTypeNumber, Default: "4", EnvVar: "WHISPER_THREADS"},
			},
		},
		{
			ID:       "piper",
			Name:     "Piper TTS",
			Mode:     ModeLocal,
			Version:  "1.0.0",
			Provides: capability.Speech,
			Schema: []Field{
				{Key: "voice", Type: FieldTypeString, Default: "en_US-amy-medium", EnvVar: "PIPER_VOICE"},
			},
		},
		{
			ID:       "minio",
			Name:     "MinIO",
			Mode:     ModeLocal,
			Version:  "1.0.0",
			Provides: capability.Storage,
			Schema: []Field{
				{Key: "endpoint", Type: FieldTypeURL, Default: "http://127.0.0.1:9000", EnvVar: "MINIO_ENDPOINT"},
				{Key: "access_key", Type: FieldTypeString, Required: true, Secret: true, EnvVar: "MINIO_ACCESS_KEY"},
				{Key: "secret_key", Type: FieldTypeString, Required: true, Secret: true, EnvVar: "MINIO_SECRET_KEY"},
			},
		},
		{
			ID:       "chronicle",
			Name:     "Chronicle",
			Mode:     ModeLocal,
			Version:  "1.0.0",
			Requires: []string{capability.LLM, capability.Transcription},
			Schema: []Field{
				{Key: "database_url", Type: FieldTypeURL, Required: true, EnvVar: "DATABASE_URL"},
				{Key: "log_level", Type: FieldTypeString, Default: "info", EnvVar: "LOG_LEVEL"},
			},
		},
	}
}
