// Package reputation asks remote services whether a trade partner is subject
// to a trade hold or banned in trading communities.
package reputation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tf2automatic/internal/evaluator"
	"tf2automatic/internal/logger"
	"tf2automatic/internal/pkg/circuit"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultEscrowURL   = "https://api.steampowered.com/IEconService/GetTradeHoldDurations/v1/"
	DefaultBackpackURL = "https://backpack.tf/api/users/info/v1"
	DefaultSteamRepURL = "https://steamrep.com/api/beta4/reputation/"

	maxBody = 1 << 20
)

type Config struct {
	APIKey      string
	BackpackKey string
	EscrowURL   string
	BackpackURL string
	SteamRepURL string
	Timeout     time.Duration

	BreakerThreshold int
	BreakerCooldown  time.Duration
}

func (c *Config) applyDefaults() {
	if c.EscrowURL == "" {
		c.EscrowURL = DefaultEscrowURL
	}
	if c.BackpackURL == "" {
		c.BackpackURL = DefaultBackpackURL
	}
	if c.SteamRepURL == "" {
		c.SteamRepURL = DefaultSteamRepURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.BreakerThreshold <= 0 {
		c.BreakerThreshold = 3
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = time.Minute
	}
}

var (
	_ evaluator.EscrowChecker = (*Client)(nil)
	_ evaluator.BanChecker    = (*Client)(nil)
)

// Client checks escrow through the Steam web API and bans through backpack.tf
// and SteamRep. Each remote sits behind its own breaker so one outage does not
// slow down every evaluation.
type Client struct {
	cfg      Config
	http     *http.Client
	escrow   *circuit.Breaker
	backpack *circuit.Breaker
	steamrep *circuit.Breaker
}

func New(cfg Config) *Client {
	cfg.applyDefaults()
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		escrow:   circuit.New("steam-escrow", cfg.BreakerThreshold, cfg.BreakerCooldown),
		backpack: circuit.New("backpack.tf", cfg.BreakerThreshold, cfg.BreakerCooldown),
		steamrep: circuit.New("steamrep", cfg.BreakerThreshold, cfg.BreakerCooldown),
	}
}

// HasEscrow reports whether items received from partner would be held.
func (c *Client) HasEscrow(ctx context.Context, partner string) (bool, error) {
	if c.cfg.APIKey == "" {
		return false, nil
	}
	q := url.Values{}
	q.Set("key", c.cfg.APIKey)
	q.Set("steamid_target", partner)

	var held bool
	err := c.escrow.Do(func() error {
		doc, err := c.getJSON(ctx, c.cfg.EscrowURL, q)
		if err != nil {
			return err
		}
		seconds := doc.Get("response.their_escrow.escrow_end_duration_seconds")
		if !seconds.Exists() {
			return fmt.Errorf("escrow response for %s has no hold duration", partner)
		}
		held = seconds.Int() != 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("escrow: %w", err)
	}
	return held, nil
}

// IsBanned reports whether partner is banned on backpack.tf or tagged as a
// scammer on SteamRep. Both sources are asked concurrently.
func (c *Client) IsBanned(ctx context.Context, partner string) (bool, error) {
	var bptf, srep bool
	g, gctx := errgroup.WithContext(ctx)
	if c.cfg.BackpackKey != "" {
		g.Go(func() error {
			var err error
			bptf, err = c.backpackBanned(gctx, partner)
			return err
		})
	}
	g.Go(func() error {
		var err error
		srep, err = c.steamrepScammer(gctx, partner)
		return err
	})
	if err := g.Wait(); err != nil {
		return false, err
	}
	if bptf || srep {
		logger.Infof("Partner %s is banned (backpack.tf=%t, steamrep=%t)", partner, bptf, srep)
	}
	return bptf || srep, nil
}

func (c *Client) backpackBanned(ctx context.Context, partner string) (bool, error) {
	q := url.Values{}
	q.Set("key", c.cfg.BackpackKey)
	q.Set("steamids", partner)

	var banned bool
	err := c.backpack.Do(func() error {
		doc, err := c.getJSON(ctx, c.cfg.BackpackURL, q)
		if err != nil {
			return err
		}
		bans := doc.Get("users." + partner + ".bans")
		banned = bans.IsObject() && len(bans.Map()) > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("backpack.tf: %w", err)
	}
	return banned, nil
}

func (c *Client) steamrepScammer(ctx context.Context, partner string) (bool, error) {
	q := url.Values{}
	q.Set("json", "1")

	var scammer bool
	err := c.steamrep.Do(func() error {
		doc, err := c.getJSON(ctx, strings.TrimRight(c.cfg.SteamRepURL, "/")+"/"+partner, q)
		if err != nil {
			return err
		}
		summary := doc.Get("steamrep.reputation.summary")
		if !summary.Exists() {
			return fmt.Errorf("reputation response for %s has no summary", partner)
		}
		scammer = strings.Contains(strings.ToUpper(summary.String()), "SCAMMER")
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("steamrep: %w", err)
	}
	return scammer, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, q url.Values) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return gjson.Result{}, err
	}
	if resp.StatusCode/100 != 2 {
		return gjson.Result{}, fmt.Errorf("status=%d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("invalid json body")
	}
	return gjson.ParseBytes(body), nil
}

// Nop approves every partner. It is used when no reputation source is configured.
type Nop struct{}

func (Nop) HasEscrow(context.Context, string) (bool, error) { return false, nil }
func (Nop) IsBanned(context.Context, string) (bool, error)  { return false, nil }
