package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const botSteamID = "76561198000000000"

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
bot:
  steamid: "`+botSteamID+`"
  admins: [" 76561198000000001 ", "76561198000000001"]
reputation:
  api_key: k
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.Equal(t, []string{"donate", "gift"}, cfg.Bot.GiftPhrases)
	assert.Equal(t, []string{"76561198000000001"}, cfg.Bot.Admins)
	assert.Equal(t, "Powered by TF2 Automatic", cfg.Bot.OfferMessage)
	assert.Equal(t, 4, cfg.Bot.EvaluationConcurrency)
	assert.Equal(t, "configs/pricelist.yaml", cfg.Pricelist.Path)
	assert.True(t, cfg.Pricelist.Watch)
	assert.Equal(t, "data/decisions.db", cfg.Store.DecisionsPath)
	assert.Equal(t, 10, cfg.Reputation.TimeoutSeconds)
	assert.Equal(t, 3, cfg.Reputation.BreakerThreshold)
	assert.True(t, cfg.Bot.IsAdmin("76561198000000001"))
	assert.False(t, cfg.Bot.IsAdmin(botSteamID))
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
bot:
  steamid: "`+botSteamID+`"
  gift_phrases: ["present"]
pricelist:
  watch: false
reputation:
  api_key: k
  timeout_seconds: 3
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Pricelist.Watch)
	assert.Equal(t, []string{"present"}, cfg.Bot.GiftPhrases)
	assert.Equal(t, 3, cfg.Reputation.TimeoutSeconds)
}

func TestLoadMergesIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
app:
  log_level: debug
  http_addr: ":9000"
bot:
  steamid: "`+botSteamID+`"
reputation:
  api_key: k
`)
	path := writeFile(t, dir, "config.yaml", `
include: ["base.yaml"]
app:
  http_addr: ":9100"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, ":9100", cfg.App.HTTPAddr, "the including file wins")
	assert.Equal(t, botSteamID, cfg.Bot.SteamID)
}

func TestLoadDetectsIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", `include: ["b.yaml"]`)
	writeFile(t, dir, "b.yaml", `include: ["a.yaml"]`)
	_, err := Load(filepath.Join(dir, "a.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "include cycle")
}

func TestLoadSecretsFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
notify:
  telegram:
    enabled: true
    chat_id: "42"
`)
	t.Setenv("STEAM_ID", botSteamID)
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("STEAM_API_KEY", "apikey")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, botSteamID, cfg.Bot.SteamID)
	assert.Equal(t, "token", cfg.Notify.Telegram.BotToken)
	assert.Equal(t, "apikey", cfg.Reputation.APIKey)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		msg  string
	}{
		{name: "missing steamid", body: `app: {env: dev}`, msg: "bot.steamid is required"},
		{name: "bad steamid", body: `bot: {steamid: "123"}`, msg: "not a SteamID64"},
		{name: "bad admin", body: `bot: {steamid: "` + botSteamID + `", admins: ["me"]}`, msg: "bot.admins"},
		{name: "bad level", body: `{app: {log_level: loud}, bot: {steamid: "` + botSteamID + `"}}`, msg: "app.log_level"},
		{
			name: "telegram without token",
			body: `{bot: {steamid: "` + botSteamID + `"}, notify: {telegram: {enabled: true}}}`,
			msg:  "notify.telegram",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.yaml", tc.body)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestLoadEscrowNeedsAPIKey(t *testing.T) {
	cases := []struct {
		name string
		body string
		ok   bool
	}{
		{name: "no key", body: `bot: {steamid: "` + botSteamID + `"}`},
		{name: "key set", body: `{bot: {steamid: "` + botSteamID + `"}, reputation: {api_key: k}}`, ok: true},
		{name: "escrow accepted", body: `bot: {steamid: "` + botSteamID + `", accept_escrow: true}`, ok: true},
		{name: "checks disabled", body: `{bot: {steamid: "` + botSteamID + `"}, reputation: {disabled: true}}`, ok: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("STEAM_API_KEY", "")
			path := writeFile(t, t.TempDir(), "config.yaml", tc.body)
			_, err := Load(path)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "reputation.api_key")
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvPath, "")
	assert.Equal(t, DefaultPath, Path())
	t.Setenv(EnvPath, "/etc/bot.yaml")
	assert.Equal(t, "/etc/bot.yaml", Path())
}
