package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	// Redis
	out.Redis = cfg.Redis
	redact(&out.Redis.Password)

	// Signer
	out.Signer = cfg.Signer
	redact(&out.Signer.Secret)
	redact(&out.Signer.SecretPassword)

	// Server
	out.Server = cfg.Server
	redact(&out.Server.APIKey)

	// Notify
	out.Notify = cfg.Notify
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices so callers cannot mutate the original through the redacted
	// copy.
	if cfg.Tokens != nil {
		out.Tokens = append(out.Tokens[:0:0], cfg.Tokens...)
	}
	if cfg.Notify.Levels != nil {
		out.Notify.Levels = append(out.Notify.Levels[:0:0], cfg.Notify.Levels...)
	}
	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = append(out.Server.CORSOrigins[:0:0], cfg.Server.CORSOrigins...)
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
