package app

import (
	"fmt"
	"strings"

	brcfg "tf2automatic/internal/config"
	"tf2automatic/internal/pkg/text"
	"tf2automatic/internal/pricelist"
)

type StartupSummary struct {
	SteamID      string
	Admins       []string
	GiftPhrases  []string
	AcceptEscrow bool
	HTTPAddr     string
	Transport    bool
	Persistent   bool
	Telegram     bool
	Reputation   bool

	PricelistVersion int64
	Items            []pricelist.Entry
	KeyPrices        string
}

func newSummary(cfg *brcfg.Config, snap pricelist.Snapshot, transport bool, st stores) *StartupSummary {
	items := snap.Entries()
	keys := snap.KeyPrices()
	return &StartupSummary{
		SteamID:          cfg.Bot.SteamID,
		Admins:           cfg.Bot.Admins,
		GiftPhrases:      cfg.Bot.GiftPhrases,
		AcceptEscrow:     cfg.Bot.AcceptEscrow,
		HTTPAddr:         cfg.App.HTTPAddr,
		Transport:        transport,
		Persistent:       st.decisions != nil,
		Telegram:         cfg.Notify.Telegram.Enabled,
		Reputation:       !cfg.Reputation.Disabled,
		PricelistVersion: snap.Version,
		Items:            items,
		KeyPrices:        fmt.Sprintf("buy %s / sell %s", keys.Buy, keys.Sell),
	}
}

func (s *StartupSummary) String() string {
	var b strings.Builder
	line := strings.Repeat("=", 80)
	b.WriteString(line + "\n")
	fmt.Fprintf(&b, "%*s\n", 40+len("STARTUP SUMMARY")/2, "STARTUP SUMMARY")
	b.WriteString(line + "\n")

	b.WriteString("[BOT]\n")
	fmt.Fprintf(&b, "  SteamID:       %s\n", s.SteamID)
	fmt.Fprintf(&b, "  Admins:        %s\n", formatList(s.Admins))
	fmt.Fprintf(&b, "  Gift phrases:  %s\n", formatList(s.GiftPhrases))
	fmt.Fprintf(&b, "  Accept escrow: %t\n", s.AcceptEscrow)
	b.WriteString("\n")

	b.WriteString("[SERVICES]\n")
	fmt.Fprintf(&b, "  HTTP:       %s\n", s.HTTPAddr)
	fmt.Fprintf(&b, "  Transport:  %s\n", enabled(s.Transport))
	fmt.Fprintf(&b, "  Stores:     %s\n", enabled(s.Persistent))
	fmt.Fprintf(&b, "  Telegram:   %s\n", enabled(s.Telegram))
	fmt.Fprintf(&b, "  Reputation: %s\n", enabled(s.Reputation))
	b.WriteString("\n")

	fmt.Fprintf(&b, "[PRICELIST v%d: %s]\n", s.PricelistVersion, text.Count("item", len(s.Items)))
	fmt.Fprintf(&b, "  Keys: %s\n", s.KeyPrices)
	if len(s.Items) == 0 {
		b.WriteString("  (empty)\n")
	}
	for _, e := range s.Items {
		state := ""
		if !e.Enabled {
			state = " [disabled]"
		}
		fmt.Fprintf(&b, "  > %s %s (%s) buy %s / sell %s%s\n", e.SKU, e.Name, e.Intent, e.Buy, e.Sell, state)
	}
	b.WriteString(line + "\n")
	return b.String()
}

func (s *StartupSummary) Print() {
	fmt.Print(s.String())
}

func enabled(v bool) string {
	if v {
		return "enabled"
	}
	return "disabled"
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
