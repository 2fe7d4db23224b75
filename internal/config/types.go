package config

import (
	"strings"
	"time"
)

// Config is the process configuration.
type Config struct {
	App        AppConfig        `toml:"app"`
	Bot        BotConfig        `toml:"bot"`
	Pricelist  PricelistConfig  `toml:"pricelist"`
	Store      StoreConfig      `toml:"store"`
	Reputation ReputationConfig `toml:"reputation"`
	Notify     NotifyConfig     `toml:"notify"`
}

type AppConfig struct {
	Env          string `toml:"env"`
	LogLevel     string `toml:"log_level"`
	LogPath      string `toml:"log_path"`
	TradeLogPath string `toml:"trade_log_path"`
	HTTPAddr     string `toml:"http_addr"`
}

type BotConfig struct {
	SteamID      string   `toml:"steamid"`
	Admins       []string `toml:"admins"`
	GiftPhrases  []string `toml:"gift_phrases"`
	AcceptEscrow bool     `toml:"accept_escrow"`
	OfferMessage string   `toml:"offer_message"`
	// EvaluationConcurrency bounds concurrent evaluations in a batch.
	EvaluationConcurrency int `toml:"evaluation_concurrency"`
}

// IsAdmin reports whether steamID is listed in bot.admins.
func (b BotConfig) IsAdmin(steamID string) bool {
	for _, id := range b.Admins {
		if strings.TrimSpace(id) == steamID {
			return true
		}
	}
	return false
}

type PricelistConfig struct {
	Path  string `toml:"path"`
	Watch bool   `toml:"watch"`
}

type StoreConfig struct {
	DecisionsPath string `toml:"decisions_path"`
	OffersPath    string `toml:"offers_path"`
}

type ReputationConfig struct {
	APIKey                 string `toml:"api_key"`
	BackpackKey            string `toml:"backpack_key"`
	EscrowURL              string `toml:"escrow_url"`
	BackpackURL            string `toml:"backpack_url"`
	SteamRepURL            string `toml:"steamrep_url"`
	TimeoutSeconds         int    `toml:"timeout_seconds"`
	BreakerThreshold       int    `toml:"breaker_threshold"`
	BreakerCooldownSeconds int    `toml:"breaker_cooldown_seconds"`
	// Disabled skips every remote check: partners are never held or banned.
	Disabled bool `toml:"disabled"`
}

func (r ReputationConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

func (r ReputationConfig) BreakerCooldown() time.Duration {
	return time.Duration(r.BreakerCooldownSeconds) * time.Second
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}

// fieldDefault sets one field unless the key was present in the file.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
