package config

import (
	"fmt"
	"regexp"
	"strings"
)

var steamID64 = regexp.MustCompile(`^7656119[0-9]{10}$`)

func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Bot.validate(); err != nil {
		return err
	}
	if err := c.Reputation.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return validateEscrow(c)
}

// validateEscrow refuses a setup that would decline escrowed trades in name
// only: the hold lookup needs a Steam web API key.
func validateEscrow(c *Config) error {
	if c.Bot.AcceptEscrow || c.Reputation.Disabled {
		return nil
	}
	if strings.TrimSpace(c.Reputation.APIKey) == "" {
		return fmt.Errorf("reputation.api_key is required unless bot.accept_escrow or reputation.disabled is set")
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level %q is not one of debug, info, warn or error", a.LogLevel)
	}
	if strings.TrimSpace(a.HTTPAddr) == "" {
		return fmt.Errorf("app.http_addr cannot be empty")
	}
	return nil
}

func (b *BotConfig) validate() error {
	if strings.TrimSpace(b.SteamID) == "" {
		return fmt.Errorf("bot.steamid is required")
	}
	if !steamID64.MatchString(b.SteamID) {
		return fmt.Errorf("bot.steamid %q is not a SteamID64", b.SteamID)
	}
	for _, id := range b.Admins {
		if !steamID64.MatchString(id) {
			return fmt.Errorf("bot.admins contains %q which is not a SteamID64", id)
		}
	}
	if b.EvaluationConcurrency <= 0 {
		return fmt.Errorf("bot.evaluation_concurrency must be > 0")
	}
	return nil
}

func (r *ReputationConfig) validate() error {
	if r.TimeoutSeconds <= 0 {
		return fmt.Errorf("reputation.timeout_seconds must be > 0")
	}
	if r.BreakerThreshold <= 0 {
		return fmt.Errorf("reputation.breaker_threshold must be > 0")
	}
	if r.BreakerCooldownSeconds < 0 {
		return fmt.Errorf("reputation.breaker_cooldown_seconds must be >= 0")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if n.Telegram.Enabled {
		if n.Telegram.BotToken == "" || n.Telegram.ChatID == "" {
			return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
		}
	}
	return nil
}
