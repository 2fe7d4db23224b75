package config

import "strings"

const (
	defaultAppEnv           = "dev"
	defaultAppLogLevel      = "info"
	defaultAppHTTPAddr      = ":8080"
	defaultOfferMessage     = "Powered by TF2 Automatic"
	defaultConcurrency      = 4
	defaultPricelistPath    = "configs/pricelist.yaml"
	defaultDecisionsPath    = "data/decisions.db"
	defaultOffersPath       = "data/offers.db"
	defaultRepTimeout       = 10
	defaultBreakerThreshold = 3
	defaultBreakerCooldown  = 60
)

var defaultGiftPhrases = []string{"donate", "gift"}

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Bot.applyDefaults(keys)
	c.Pricelist.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Reputation.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
	)
}

func (b *BotConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("bot.offer_message", &b.OfferMessage, defaultOfferMessage),
		intFieldDefault("bot.evaluation_concurrency", &b.EvaluationConcurrency, defaultConcurrency),
		fieldDefault{
			key:   "bot.gift_phrases",
			need:  func() bool { return len(b.GiftPhrases) == 0 },
			apply: func() { b.GiftPhrases = append([]string(nil), defaultGiftPhrases...) },
		},
	)
	b.Admins = normalizeList(b.Admins)
	b.GiftPhrases = normalizeList(b.GiftPhrases)
}

func (p *PricelistConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("pricelist.path", &p.Path, defaultPricelistPath),
		boolFieldDefault("pricelist.watch", &p.Watch, true),
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("store.decisions_path", &s.DecisionsPath, defaultDecisionsPath),
		stringFieldDefault("store.offers_path", &s.OffersPath, defaultOffersPath),
	)
}

func (r *ReputationConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		intFieldDefault("reputation.timeout_seconds", &r.TimeoutSeconds, defaultRepTimeout),
		intFieldDefault("reputation.breaker_threshold", &r.BreakerThreshold, defaultBreakerThreshold),
		intFieldDefault("reputation.breaker_cooldown_seconds", &r.BreakerCooldownSeconds, defaultBreakerCooldown),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return strings.TrimSpace(*target) == "" },
		apply: func() { *target = def },
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return *target <= 0 },
		apply: func() { *target = def },
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:   key,
		apply: func() { *target = def },
	}
}

// normalizeList trims entries and drops empty ones and duplicates.
func normalizeList(in []string) []string {
	if len(in) == 0 {
		return in
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
